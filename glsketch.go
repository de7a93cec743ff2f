// Package glsketch holds the value types shared by the sphere tessellation
// and shape accumulation packages: colors, homogeneous vertices and the error
// conditions reported across the module.
package glsketch

import (
	"errors"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Error taxonomy. Callers should compare with [errors.Is].
var (
	// ErrInvalidColorFormat is returned when a color string is not 6 hex digits.
	ErrInvalidColorFormat = errors.New("invalid color format")
	// ErrInvalidWeight marks an unparsable Bezier weight. It is recovered locally
	// by substituting the default weight and is never returned to the caller of
	// a user-facing operation.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrPrecondition is a caller contract violation such as a negative
	// subdivision depth or finalizing a shape that is not pending.
	ErrPrecondition = errors.New("precondition violation")
)

// Vec4 is a homogeneous vertex. W is normally 1.
type Vec4 struct {
	X, Y, Z, W float32
}

// NewVec4 returns the homogeneous vertex (v, w).
func NewVec4(v ms3.Vec, w float32) Vec4 {
	return Vec4{X: v.X, Y: v.Y, Z: v.Z, W: w}
}

// XYZ returns the first three components of v.
func (v Vec4) XYZ() ms3.Vec {
	return ms3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// Array returns v's components in X,Y,Z,W order.
func (v Vec4) Array() [4]float32 {
	return [4]float32{v.X, v.Y, v.Z, v.W}
}

// NormalizeXYZ scales the x,y,z triple of v to unit length. W is left untouched.
// A zero length triple is returned as is.
func (v Vec4) NormalizeXYZ() Vec4 {
	n := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if n == 0 {
		return v
	}
	inv := 1 / n
	return Vec4{X: v.X * inv, Y: v.Y * inv, Z: v.Z * inv, W: v.W}
}

// MixVec4 linearly interpolates every component of a and b. t=0 returns a, t=1 returns b.
func MixVec4(a, b Vec4, t float32) Vec4 {
	return Vec4{
		X: mixf(a.X, b.X, t),
		Y: mixf(a.Y, b.Y, t),
		Z: mixf(a.Z, b.Z, t),
		W: mixf(a.W, b.W, t),
	}
}

func mixf(x, y, a float32) float32 {
	return x*(1-a) + y*a
}
