// Package glshape accumulates user drawn geometry (points, triangles, circles and
// rational quadratic Bezier curves) from a stream of click events and records an
// ordered list of draw commands that a renderer replays every frame.
package glshape

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glsketch"
)

// Mode selects how clicks are routed by an [Accumulator].
type Mode uint8

const (
	ModePoint Mode = iota
	ModeTriangle
	ModeCircle
	ModeBezier
	numModes
)

var modeNames = [numModes]string{
	ModePoint:    "point",
	ModeTriangle: "triangle",
	ModeCircle:   "circle",
	ModeBezier:   "bezier",
}

func (m Mode) String() string {
	if m >= numModes {
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
	return modeNames[m]
}

// IsValid reports whether m is one of the defined drawing modes.
func (m Mode) IsValid() bool { return m < numModes }

// ParseMode parses one of "point", "triangle", "circle" or "bezier".
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if s == name {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("unknown drawing mode %q", s)
}

// Topology is the primitive a renderer assembles from a range of buffer vertices.
type Topology uint8

const (
	Points Topology = iota
	Triangles
	LineStrip
)

func (t Topology) String() string {
	switch t {
	case Points:
		return "points"
	case Triangles:
		return "triangles"
	case LineStrip:
		return "line-strip"
	}
	return fmt.Sprintf("Topology(%d)", uint8(t))
}

// BufferKind names one of the buffers owned by an [Accumulator].
type BufferKind uint8

const (
	BufferPoints BufferKind = iota
	BufferTriangles
	BufferCircles
	BufferBezier
	// BufferPlaceholder holds the points of the shape being entered.
	BufferPlaceholder
	numBufferKinds
)

func (k BufferKind) String() string {
	switch k {
	case BufferPoints:
		return "points"
	case BufferTriangles:
		return "triangles"
	case BufferCircles:
		return "circles"
	case BufferBezier:
		return "bezier"
	case BufferPlaceholder:
		return "placeholder"
	}
	return fmt.Sprintf("BufferKind(%d)", uint8(k))
}

// ColoredPoint is a position in normalized device coordinates paired with a color.
type ColoredPoint struct {
	Pos   ms2.Vec
	Color glsketch.Color
}

// DrawCommand records that Count vertices of Buffer starting at Offset
// are to be drawn with Topology.
type DrawCommand struct {
	Buffer   BufferKind
	Topology Topology
	Offset   int
	Count    int
}

func (dc DrawCommand) String() string {
	return fmt.Sprintf("draw %s %s [%d:%d]", dc.Buffer, dc.Topology, dc.Offset, dc.Offset+dc.Count)
}

// Renderer executes draw commands replayed by [Accumulator.Replay].
// Implementations must not retain buf past the call.
type Renderer interface {
	// Clear fills the whole target with c.
	Clear(c glsketch.Color) error
	// DrawArrays draws count vertices of buf starting at offset with the given topology.
	DrawArrays(kind BufferKind, buf *Buffer, topology Topology, offset, count int) error
}

var (
	// ErrAwaitingWeight is returned when a click arrives while a Bezier curve
	// still waits for its middle control point weight.
	ErrAwaitingWeight = errors.New("bezier curve awaiting weight")
	errBadMode        = errors.Join(glsketch.ErrPrecondition, errors.New("invalid drawing mode"))
	errNoBezier       = errors.Join(glsketch.ErrPrecondition, errors.New("no bezier curve awaiting weight"))
)
