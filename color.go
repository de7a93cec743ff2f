package glsketch

import (
	"fmt"
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms1"
)

// Color is an RGBA color with float channels in [0,1]. It implements [color.Color].
type Color struct {
	R, G, B, A float32
}

var _ color.Color = Color{}

// Frequently used colors.
var (
	Black = Color{A: 1}
	White = Color{R: 1, G: 1, B: 1, A: 1}
	Red   = Color{R: 1, A: 1}
	// CornflowerBlue is the default clear color of the drawing canvas.
	CornflowerBlue = Color{R: 0.3921, G: 0.5843, B: 0.9294, A: 1}
)

// ParseHexColor parses a "#rrggbb" or "rrggbb" color string. Alpha is always 1.
// Malformed input returns an error wrapping [ErrInvalidColorFormat].
func ParseHexColor(s string) (Color, error) {
	hex := s
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%w: %q want 6 hex digits", ErrInvalidColorFormat, s)
	}
	var c uint32
	for i := 0; i < len(hex); i++ {
		d, ok := hexDigit(hex[i])
		if !ok {
			return Color{}, fmt.Errorf("%w: %q has non-hex character %q", ErrInvalidColorFormat, s, hex[i])
		}
		c = c<<4 | uint32(d)
	}
	r, g, b := cToRGB(c)
	return Color{R: r, G: g, B: b, A: 1}, nil
}

// MustParseHexColor is like [ParseHexColor] but panics on malformed input.
// Useful for package level color constants.
func MustParseHexColor(s string) Color {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns the "#rrggbb" representation of c. Alpha is discarded.
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", rgbToC(c.R, c.G, c.B))
}

// RGBA implements [color.Color]. Channels are clamped to [0,1] and alpha-premultiplied.
func (c Color) RGBA() (r, g, b, a uint32) {
	const m = 0xffff
	af := ms1.Clamp(c.A, 0, 1)
	r = uint32(ms1.Clamp(c.R, 0, 1) * af * m)
	g = uint32(ms1.Clamp(c.G, 0, 1) * af * m)
	b = uint32(ms1.Clamp(c.B, 0, 1) * af * m)
	a = uint32(af * m)
	return r, g, b, a
}

// Array returns c's channels in R,G,B,A order, the layout of a GL color attribute.
func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// IsValid reports whether all channels are finite and inside [0,1].
func (c Color) IsValid() bool {
	for _, v := range c.Array() {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// Lerp interpolates linearly between c0 and c1 channel by channel.
func Lerp(c0, c1 Color, t float32) Color {
	return Color{
		R: ms1.Interp(c0.R, c1.R, t),
		G: ms1.Interp(c0.G, c1.G, t),
		B: ms1.Interp(c0.B, c1.B, t),
		A: ms1.Interp(c0.A, c1.A, t),
	}
}

// MixColors3 blends three colors with barycentric weights w0, w1, w2, as a
// GL rasterizer does for per-vertex colors across a triangle.
func MixColors3(c0, c1, c2 Color, w0, w1, w2 float32) Color {
	return Color{
		R: c0.R*w0 + c1.R*w1 + c2.R*w2,
		G: c0.G*w0 + c1.G*w1 + c2.G*w2,
		B: c0.B*w0 + c1.B*w1 + c2.B*w2,
		A: c0.A*w0 + c1.A*w1 + c2.A*w2,
	}
}

const maxChannel = 255

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// cToRGB converts a 24 bit RGB value stored in the least significant bits
// to float channels in [0,1].
func cToRGB(c uint32) (r, g, b float32) {
	r = float32(uint8(c>>16)) / maxChannel
	g = float32(uint8(c>>8)) / maxChannel
	b = float32(uint8(c)) / maxChannel
	return r, g, b
}

// rgbToC converts r, g, and b values on the range of 0.0 to 1.0 to a
// 24 bit RGB value stored in the least significant bits of a uint32. The inputs
// are clamped to the range of 0.0 to 1.0
func rgbToC(r, g, b float32) (c uint32) {
	return uint32(math.Round(ms1.Clamp(r, 0, 1)*maxChannel))<<16 |
		uint32(math.Round(ms1.Clamp(g, 0, 1)*maxChannel))<<8 |
		uint32(math.Round(ms1.Clamp(b, 0, 1)*maxChannel))
}
