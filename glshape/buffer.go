package glshape

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glsketch"
)

// Buffer is a pair of parallel vertex position and color sequences.
// Both sequences always have the same length. A Buffer can only be
// modified by the [Accumulator] that owns it.
type Buffer struct {
	pos []ms2.Vec
	col []glsketch.Color
}

// Len returns the number of vertices in the buffer.
func (b *Buffer) Len() int { return len(b.pos) }

// Positions returns the vertex positions. The returned slice must not be modified.
func (b *Buffer) Positions() []ms2.Vec { return b.pos }

// Colors returns the vertex colors. The returned slice must not be modified.
func (b *Buffer) Colors() []glsketch.Color { return b.col }

// At returns the i'th vertex of the buffer.
func (b *Buffer) At(i int) ColoredPoint {
	return ColoredPoint{Pos: b.pos[i], Color: b.col[i]}
}

// AppendFlatPositions appends positions to dst as 2 floats per vertex.
func (b *Buffer) AppendFlatPositions(dst []float32) []float32 {
	for _, p := range b.pos {
		dst = append(dst, p.X, p.Y)
	}
	return dst
}

// AppendFlatColors appends colors to dst as 4 floats per vertex.
func (b *Buffer) AppendFlatColors(dst []float32) []float32 {
	for _, c := range b.col {
		dst = append(dst, c.R, c.G, c.B, c.A)
	}
	return dst
}

func (b *Buffer) append(p ms2.Vec, c glsketch.Color) {
	b.pos = append(b.pos, p)
	b.col = append(b.col, c)
}

func (b *Buffer) appendPoints(pts ...ColoredPoint) {
	for _, p := range pts {
		b.append(p.Pos, p.Color)
	}
}

// removeLast pops the last n vertices. Popping more vertices than present empties the buffer.
func (b *Buffer) removeLast(n int) {
	n = max(0, len(b.pos)-n)
	b.pos = b.pos[:n]
	b.col = b.col[:n]
}

func (b *Buffer) reset() {
	b.pos = b.pos[:0]
	b.col = b.col[:0]
}
