package glshape

import (
	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
)

// RationalQuadBezier evaluates the rational quadratic Bezier curve with control
// points p0, p1, p2 at parameter t in [0,1]. w1 is the weight of p1; the end
// points have unit weight so the curve always starts at p0 and ends at p2.
// The curve is defined for w1 > -1.
func RationalQuadBezier(p0, p1, p2 ms2.Vec, w1, t float32) ms2.Vec {
	switch t {
	case 0:
		return p0
	case 1:
		return p2
	}
	mt := 1 - t
	b0 := mt * mt
	b1 := 2 * mt * t * w1
	b2 := t * t
	// Normalize basis weights before scaling positions so heavy weights do not overflow.
	inv := 1 / (b0 + b1 + b2)
	b0 *= inv
	b1 *= inv
	b2 *= inv
	return ms2.Vec{
		X: p0.X*b0 + p1.X*b1 + p2.X*b2,
		Y: p0.Y*b0 + p1.Y*b1 + p2.Y*b2,
	}
}

// AppendRationalQuadBezier samples the curve at segments+1 equally spaced
// parameter values t=i/segments and appends the samples to dst.
func AppendRationalQuadBezier(dst []ms2.Vec, p0, p1, p2 ms2.Vec, w1 float32, segments int) []ms2.Vec {
	div := float32(segments)
	for i := 0; i <= segments; i++ {
		t := float32(i) / div
		dst = append(dst, RationalQuadBezier(p0, p1, p2, w1, t))
	}
	return dst
}

// AppendCircleFan appends a filled circle as segments triangle wedges
// (center, rim at angle i, rim at angle i+1), 3 vertices each, to dst.
func AppendCircleFan(dst []ms2.Vec, center ms2.Vec, radius float32, segments int) []ms2.Vec {
	step := 2 * math.Pi / float32(segments)
	for i := 0; i < segments; i++ {
		angle1 := float32(i) * step
		angle2 := float32(i+1) * step
		dst = append(dst,
			center,
			ms2.Add(center, ms2.Vec{X: radius * math.Cos(angle1), Y: radius * math.Sin(angle1)}),
			ms2.Add(center, ms2.Vec{X: radius * math.Cos(angle2), Y: radius * math.Sin(angle2)}),
		)
	}
	return dst
}
