package glrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms1"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glsketch"
	"github.com/soypat/glsketch/glshape"
	"golang.org/x/image/vector"
)

// ImageConfig configures an [ImageRenderer]. Zero fields take default values.
type ImageConfig struct {
	// PointSize is the side length in pixels of the square drawn for each point. Defaults to 4.
	PointSize float32
	// LineWidth is the width in pixels of line strips. Defaults to 1.5.
	LineWidth float32
}

// ImageRenderer is a CPU implementation of [glshape.Renderer]. It maps normalized device
// coordinates [-1,1]x[-1,1] onto the image bounds with y pointing up and
// rasterizes primitives with per-vertex color interpolation, similar to a GL pipeline.
type ImageRenderer struct {
	dst  draw.Image
	cfg  ImageConfig
	z    vector.Rasterizer
	mask *image.Alpha
	poly [4]ms2.Vec
}

var _ glshape.Renderer = (*ImageRenderer)(nil)

// NewImageRenderer returns an ImageRenderer that draws onto dst.
func NewImageRenderer(dst draw.Image, cfg ImageConfig) (*ImageRenderer, error) {
	if dst == nil {
		return nil, errors.New("nil destination image")
	} else if dst.Bounds().Empty() {
		return nil, errors.New("empty destination image")
	} else if cfg.PointSize < 0 || cfg.LineWidth < 0 {
		return nil, errors.New("negative point size or line width")
	}
	if cfg.PointSize == 0 {
		cfg.PointSize = 4
	}
	if cfg.LineWidth == 0 {
		cfg.LineWidth = 1.5
	}
	return &ImageRenderer{dst: dst, cfg: cfg}, nil
}

// Clear implements [glshape.Renderer] by filling the whole image with c.
func (ir *ImageRenderer) Clear(c glsketch.Color) error {
	draw.Draw(ir.dst, ir.dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}

// DrawArrays implements [glshape.Renderer].
func (ir *ImageRenderer) DrawArrays(kind glshape.BufferKind, buf *glshape.Buffer, topology glshape.Topology, offset, count int) error {
	if offset < 0 || count < 0 || offset+count > buf.Len() {
		return fmt.Errorf("draw range [%d:%d] out of %s buffer length %d", offset, offset+count, kind, buf.Len())
	}
	pos := buf.Positions()[offset : offset+count]
	col := buf.Colors()[offset : offset+count]
	switch topology {
	case glshape.Points:
		for i := range pos {
			ir.drawPoint(ir.toPixel(pos[i]), col[i])
		}
	case glshape.Triangles:
		for i := 0; i+2 < len(pos); i += 3 {
			ir.drawTriangle(
				ir.toPixel(pos[i]), ir.toPixel(pos[i+1]), ir.toPixel(pos[i+2]),
				col[i], col[i+1], col[i+2],
			)
		}
	case glshape.LineStrip:
		for i := 0; i+1 < len(pos); i++ {
			ir.drawSegment(ir.toPixel(pos[i]), ir.toPixel(pos[i+1]), col[i], col[i+1])
		}
	default:
		return fmt.Errorf("unsupported topology %s", topology)
	}
	return nil
}

// toPixel converts normalized device coordinates to image coordinates.
func (ir *ImageRenderer) toPixel(ndc ms2.Vec) ms2.Vec {
	bb := ir.dst.Bounds()
	w, h := float32(bb.Dx()), float32(bb.Dy())
	return ms2.Vec{
		X: float32(bb.Min.X) + (ndc.X+1)/2*w,
		Y: float32(bb.Min.Y) + (1-ndc.Y)/2*h,
	}
}

func (ir *ImageRenderer) drawPoint(p ms2.Vec, c glsketch.Color) {
	r := ir.cfg.PointSize / 2
	ir.poly = [4]ms2.Vec{
		{X: p.X - r, Y: p.Y - r},
		{X: p.X + r, Y: p.Y - r},
		{X: p.X + r, Y: p.Y + r},
		{X: p.X - r, Y: p.Y + r},
	}
	ir.fill(ir.poly[:], func(ms2.Vec) glsketch.Color { return c })
}

func (ir *ImageRenderer) drawTriangle(p0, p1, p2 ms2.Vec, c0, c1, c2 glsketch.Color) {
	e1, e2 := ms2.Sub(p1, p0), ms2.Sub(p2, p0)
	area := e1.X*e2.Y - e1.Y*e2.X
	if math.Abs(area) < 1e-12 {
		return // Degenerate triangles produce no fragments.
	}
	inv := 1 / area
	ir.poly[0], ir.poly[1], ir.poly[2] = p0, p1, p2
	ir.fill(ir.poly[:3], func(p ms2.Vec) glsketch.Color {
		d := ms2.Sub(p, p0)
		w1 := ms1.Clamp((d.X*e2.Y-d.Y*e2.X)*inv, 0, 1)
		w2 := ms1.Clamp((e1.X*d.Y-e1.Y*d.X)*inv, 0, 1)
		w0 := max(0, 1-w1-w2)
		sum := w0 + w1 + w2
		return glsketch.MixColors3(c0, c1, c2, w0/sum, w1/sum, w2/sum)
	})
}

func (ir *ImageRenderer) drawSegment(p0, p1 ms2.Vec, c0, c1 glsketch.Color) {
	dir := ms2.Sub(p1, p0)
	length := ms2.Norm(dir)
	if length == 0 {
		return
	}
	half := ir.cfg.LineWidth / 2
	// Perpendicular offset of half the line width.
	off := ms2.Scale(half/length, ms2.Vec{X: -dir.Y, Y: dir.X})
	ir.poly = [4]ms2.Vec{
		ms2.Add(p0, off),
		ms2.Add(p1, off),
		ms2.Sub(p1, off),
		ms2.Sub(p0, off),
	}
	invLen2 := 1 / (length * length)
	ir.fill(ir.poly[:], func(p ms2.Vec) glsketch.Color {
		t := ms1.Clamp(ms2.Dot(ms2.Sub(p, p0), dir)*invLen2, 0, 1)
		return glsketch.Lerp(c0, c1, t)
	})
}

// fill rasterizes the closed polygon poly in image coordinates and blends shade
// evaluated at each covered pixel center over the destination image.
func (ir *ImageRenderer) fill(poly []ms2.Vec, shade func(p ms2.Vec) glsketch.Color) {
	minp, maxp := poly[0], poly[0]
	for _, p := range poly[1:] {
		minp = ms2.MinElem(minp, p)
		maxp = ms2.MaxElem(maxp, p)
	}
	rect := image.Rect(
		int(math.Floor(minp.X)), int(math.Floor(minp.Y)),
		int(math.Ceil(maxp.X)), int(math.Ceil(maxp.Y)),
	).Intersect(ir.dst.Bounds())
	if rect.Empty() {
		return
	}
	w, h := rect.Dx(), rect.Dy()
	mask := ir.scratchMask(w, h)
	origin := ms2.Vec{X: float32(rect.Min.X), Y: float32(rect.Min.Y)}
	ir.z.Reset(w, h)
	for i, p := range poly {
		p = ms2.Sub(p, origin)
		if i == 0 {
			ir.z.MoveTo(p.X, p.Y)
		} else {
			ir.z.LineTo(p.X, p.Y)
		}
	}
	ir.z.ClosePath()
	ir.z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			coverage := mask.AlphaAt(x, y).A
			if coverage == 0 {
				continue
			}
			px, py := rect.Min.X+x, rect.Min.Y+y
			c := shade(ms2.Vec{X: float32(px) + 0.5, Y: float32(py) + 0.5})
			ir.blend(px, py, c, float32(coverage)/0xff)
		}
	}
}

// blend composites c over the destination pixel with the given coverage.
func (ir *ImageRenderer) blend(x, y int, c glsketch.Color, coverage float32) {
	a := ms1.Clamp(c.A*coverage, 0, 1)
	dr, dg, db, da := ir.dst.At(x, y).RGBA()
	const m = 0xffff
	mix := func(src float32, dst uint32) uint16 {
		return uint16(ms1.Clamp(src, 0, 1)*a*m + float32(dst)*(1-a))
	}
	ir.dst.Set(x, y, color.RGBA64{
		R: mix(c.R, dr),
		G: mix(c.G, dg),
		B: mix(c.B, db),
		A: uint16(a*m + float32(da)*(1-a)),
	})
}

func (ir *ImageRenderer) scratchMask(w, h int) *image.Alpha {
	if ir.mask == nil || cap(ir.mask.Pix) < w*h {
		ir.mask = image.NewAlpha(image.Rect(0, 0, w, h))
		return ir.mask
	}
	ir.mask.Pix = ir.mask.Pix[:w*h]
	clear(ir.mask.Pix)
	ir.mask.Stride = w
	ir.mask.Rect = image.Rect(0, 0, w, h)
	return ir.mask
}
