package glshape

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glsketch"
)

// Defaults used when the corresponding [Config] field is zero.
const (
	DefaultCircleSegments = 100
	DefaultBezierSegments = 100
	// DefaultWeight is the Bezier middle control point weight used when none or an invalid one is given.
	DefaultWeight = 1.0
	// MinWeight is the exclusive lower bound of Bezier weights. At -1 the curve
	// denominator vanishes at t=0.5.
	MinWeight = -1.0
	// MaxWeight is the largest accepted Bezier weight. Larger weights overflow curve evaluation.
	MaxWeight = math.MaxFloat32 / 4
)

// Config configures an [Accumulator]. The zero value is ready to use.
type Config struct {
	// CircleSegments is the amount of triangle wedges a circle is tessellated into.
	CircleSegments int
	// BezierSegments is the amount of line segments a Bezier curve is sampled into.
	// A curve is made up of BezierSegments+1 vertices.
	BezierSegments int
	// PruneDominatedPoints removes previous point draw commands when a new point is
	// added since the new command draws the whole point buffer.
	PruneDominatedPoints bool
}

// Accumulator is the state of a drawing session. It routes clicks according
// to its [Mode], grows one [Buffer] per primitive kind and records a [DrawCommand]
// for every finalized shape. Points of a shape still being entered are mirrored
// in the placeholder buffer.
//
// Accumulator is not safe for concurrent use. It is designed to be owned by a
// single event loop that both handles input and replays commands.
type Accumulator struct {
	cfg            Config
	mode           Mode
	pending        []ColoredPoint
	awaitingWeight bool
	bufs           [numBufferKinds]Buffer
	commands       []DrawCommand
	clearColor     glsketch.Color
}

// NewAccumulator returns an empty Accumulator in point mode with [glsketch.CornflowerBlue] clear color.
func NewAccumulator(cfg Config) (*Accumulator, error) {
	if cfg.CircleSegments < 0 || cfg.BezierSegments < 0 {
		return nil, errors.New("negative segment count in accumulator config")
	}
	if cfg.CircleSegments == 0 {
		cfg.CircleSegments = DefaultCircleSegments
	} else if cfg.CircleSegments < 3 {
		return nil, errors.New("circle requires at least 3 segments")
	}
	if cfg.BezierSegments == 0 {
		cfg.BezierSegments = DefaultBezierSegments
	}
	return &Accumulator{
		cfg:        cfg,
		clearColor: glsketch.CornflowerBlue,
	}, nil
}

// Config returns the accumulator's configuration with defaults filled in.
func (a *Accumulator) Config() Config { return a.cfg }

// Mode returns the current drawing mode.
func (a *Accumulator) Mode() Mode { return a.mode }

// ClearColor returns the color set by the last call to [Accumulator.Reset].
func (a *Accumulator) ClearColor() glsketch.Color { return a.clearColor }

// AwaitingWeight reports whether a Bezier curve is waiting on [Accumulator.CompleteBezier].
func (a *Accumulator) AwaitingWeight() bool { return a.awaitingWeight }

// Pending returns a copy of the points entered for the shape not yet finalized.
func (a *Accumulator) Pending() []ColoredPoint {
	return append([]ColoredPoint(nil), a.pending...)
}

// Commands returns the recorded draw commands in insertion order. The returned slice must not be modified.
func (a *Accumulator) Commands() []DrawCommand { return a.commands }

// Buffer returns the buffer of the given kind. It panics if kind is not defined.
func (a *Accumulator) Buffer(kind BufferKind) *Buffer {
	return &a.bufs[kind]
}

// SetMode switches the drawing mode. Switching to a different mode cancels
// any pending shape and removes its placeholder points. Setting the
// current mode again leaves the pending shape untouched.
func (a *Accumulator) SetMode(m Mode) error {
	if !m.IsValid() {
		return errBadMode
	}
	if m != a.mode {
		a.CancelPending()
		a.mode = m
	}
	return nil
}

// CancelPending discards the points of the shape being entered, including a
// Bezier curve waiting on its weight.
func (a *Accumulator) CancelPending() {
	a.bufs[BufferPlaceholder].removeLast(len(a.pending))
	a.pending = a.pending[:0]
	a.awaitingWeight = false
}

// Reset empties every buffer, the pending shape and the command list, and sets the clear color.
// It is the only operation that shrinks permanent buffers.
func (a *Accumulator) Reset(clear glsketch.Color) {
	for i := range a.bufs {
		a.bufs[i].reset()
	}
	a.pending = a.pending[:0]
	a.commands = a.commands[:0]
	a.awaitingWeight = false
	a.clearColor = clear
}

// HandleClickHex is like [Accumulator.HandleClick] but takes the color as a
// "#rrggbb" string. A malformed color returns an error wrapping
// [glsketch.ErrInvalidColorFormat] and leaves the accumulator unchanged.
func (a *Accumulator) HandleClickHex(pos ms2.Vec, hexColor string) (awaitingWeight bool, err error) {
	c, err := glsketch.ParseHexColor(hexColor)
	if err != nil {
		return a.awaitingWeight, err
	}
	return a.HandleClick(pos, c)
}

// HandleClick adds a point at pos in normalized device coordinates with color c
// according to the current mode. When the third control point of a Bezier curve is
// entered HandleClick returns awaitingWeight=true and the curve is not drawn until
// [Accumulator.CompleteBezier] is called. Clicks received meanwhile fail with [ErrAwaitingWeight].
func (a *Accumulator) HandleClick(pos ms2.Vec, c glsketch.Color) (awaitingWeight bool, err error) {
	switch {
	case a.awaitingWeight:
		return true, ErrAwaitingWeight
	case !c.IsValid():
		return false, fmt.Errorf("%w: color %v channel outside [0,1]", glsketch.ErrInvalidColorFormat, c)
	case math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0):
		return false, fmt.Errorf("%w: non-finite click position %v", glsketch.ErrPrecondition, pos)
	}
	pt := ColoredPoint{Pos: pos, Color: c}
	switch a.mode {
	case ModePoint:
		a.addPoint(pt)
	case ModeTriangle:
		a.addTriangleVertex(pt)
	case ModeCircle:
		a.addCircleVertex(pt)
	case ModeBezier:
		a.addBezierControl(pt)
	default:
		return false, errBadMode
	}
	return a.awaitingWeight, nil
}

// CompleteBezier finalizes the curve awaiting a weight using w1 as the middle
// control point's weight. A weight outside ([MinWeight], [MaxWeight]] or NaN is replaced by [DefaultWeight].
// Calling CompleteBezier with no curve awaiting a weight is a precondition violation.
func (a *Accumulator) CompleteBezier(w1 float32) error {
	if !a.awaitingWeight {
		return errNoBezier
	}
	if !validWeight(w1) {
		w1 = DefaultWeight
	}
	p0, p1, p2 := a.pending[0], a.pending[1], a.pending[2]
	a.bufs[BufferPlaceholder].removeLast(3)
	buf := &a.bufs[BufferBezier]
	offset := buf.Len()
	buf.pos = AppendRationalQuadBezier(buf.pos, p0.Pos, p1.Pos, p2.Pos, w1, a.cfg.BezierSegments)
	for len(buf.col) < len(buf.pos) {
		buf.col = append(buf.col, p2.Color)
	}
	a.record(DrawCommand{
		Buffer:   BufferBezier,
		Topology: LineStrip,
		Offset:   offset,
		Count:    buf.Len() - offset,
	})
	a.pending = a.pending[:0]
	a.awaitingWeight = false
	return nil
}

// CompleteBezierText parses the weight from user entered text and finalizes the curve.
// Text that does not parse as a valid weight is replaced by [DefaultWeight].
func (a *Accumulator) CompleteBezierText(weight string) error {
	w, err := ParseWeight(weight)
	if err != nil {
		w = DefaultWeight
	}
	return a.CompleteBezier(w)
}

// ParseWeight parses a Bezier weight. It returns an error wrapping
// [glsketch.ErrInvalidWeight] for text that is not a number in ([MinWeight], [MaxWeight]].
func ParseWeight(s string) (float32, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", glsketch.ErrInvalidWeight, err)
	}
	w := float32(f)
	if !validWeight(w) {
		return 0, fmt.Errorf("%w: %q must be greater than %v and at most %v", glsketch.ErrInvalidWeight, s, MinWeight, float32(MaxWeight))
	}
	return w, nil
}

func validWeight(w float32) bool {
	return w > MinWeight && w <= MaxWeight // NaN fails both comparisons.
}

// Replay clears the target and executes all recorded commands in insertion order,
// followed by the placeholder points of the shape being entered.
func (a *Accumulator) Replay(r Renderer) error {
	err := r.Clear(a.clearColor)
	if err != nil {
		return err
	}
	for _, cmd := range a.commands {
		buf := &a.bufs[cmd.Buffer]
		if cmd.Offset+cmd.Count > buf.Len() {
			return fmt.Errorf("%s out of range of buffer length %d", cmd, buf.Len())
		}
		err = r.DrawArrays(cmd.Buffer, buf, cmd.Topology, cmd.Offset, cmd.Count)
		if err != nil {
			return err
		}
	}
	placeholder := &a.bufs[BufferPlaceholder]
	if placeholder.Len() > 0 {
		err = r.DrawArrays(BufferPlaceholder, placeholder, Points, 0, placeholder.Len())
	}
	return err
}

func (a *Accumulator) addPoint(pt ColoredPoint) {
	buf := &a.bufs[BufferPoints]
	buf.appendPoints(pt)
	if a.cfg.PruneDominatedPoints {
		// Previous point commands draw a strict prefix of the buffer.
		kept := a.commands[:0]
		for _, cmd := range a.commands {
			if cmd.Buffer != BufferPoints {
				kept = append(kept, cmd)
			}
		}
		a.commands = kept
	}
	a.record(DrawCommand{Buffer: BufferPoints, Topology: Points, Offset: 0, Count: buf.Len()})
}

func (a *Accumulator) addTriangleVertex(pt ColoredPoint) {
	a.addPending(pt)
	if len(a.pending) < 3 {
		return
	}
	a.bufs[BufferPlaceholder].removeLast(3)
	buf := &a.bufs[BufferTriangles]
	buf.appendPoints(a.pending...)
	a.record(DrawCommand{Buffer: BufferTriangles, Topology: Triangles, Offset: 0, Count: buf.Len()})
	a.pending = a.pending[:0]
}

func (a *Accumulator) addCircleVertex(pt ColoredPoint) {
	if len(a.pending) == 0 {
		a.addPending(pt)
		return
	}
	center := a.pending[0]
	a.bufs[BufferPlaceholder].removeLast(1)
	radius := ms2.Norm(ms2.Sub(pt.Pos, center.Pos))
	buf := &a.bufs[BufferCircles]
	offset := buf.Len()
	buf.pos = AppendCircleFan(buf.pos, center.Pos, radius, a.cfg.CircleSegments)
	for i := 0; i < a.cfg.CircleSegments; i++ {
		// Center takes the center's color, rim vertices the second click's.
		buf.col = append(buf.col, center.Color, pt.Color, pt.Color)
	}
	a.record(DrawCommand{Buffer: BufferCircles, Topology: Triangles, Offset: offset, Count: buf.Len() - offset})
	a.pending = a.pending[:0]
}

func (a *Accumulator) addBezierControl(pt ColoredPoint) {
	a.addPending(pt)
	if len(a.pending) == 3 {
		a.awaitingWeight = true
	}
}

func (a *Accumulator) addPending(pt ColoredPoint) {
	a.pending = append(a.pending, pt)
	a.bufs[BufferPlaceholder].appendPoints(pt)
}

func (a *Accumulator) record(cmd DrawCommand) {
	a.commands = append(a.commands, cmd)
}
