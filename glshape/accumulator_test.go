package glshape

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glsketch"
)

var (
	red   = glsketch.Color{R: 1, A: 1}
	green = glsketch.Color{G: 1, A: 1}
	blue  = glsketch.Color{B: 1, A: 1}
)

func newTestAccumulator(t *testing.T, mode Mode) *Accumulator {
	t.Helper()
	acc, err := NewAccumulator(Config{})
	if err != nil {
		t.Fatal(err)
	}
	err = acc.SetMode(mode)
	if err != nil {
		t.Fatal(err)
	}
	return acc
}

func click(t *testing.T, acc *Accumulator, x, y float32, c glsketch.Color) bool {
	t.Helper()
	awaiting, err := acc.HandleClick(ms2.Vec{X: x, Y: y}, c)
	if err != nil {
		t.Fatal(err)
	}
	return awaiting
}

func TestPointMode(t *testing.T) {
	acc := newTestAccumulator(t, ModePoint)
	click(t, acc, 0, 0, red)
	buf := acc.Buffer(BufferPoints)
	if buf.Len() != 1 || buf.At(0) != (ColoredPoint{Color: red}) {
		t.Fatalf("unexpected point buffer %v %v", buf.Positions(), buf.Colors())
	}
	cmds := acc.Commands()
	want := DrawCommand{Buffer: BufferPoints, Topology: Points, Offset: 0, Count: 1}
	if len(cmds) != 1 || cmds[0] != want {
		t.Fatalf("got commands %v, want [%v]", cmds, want)
	}
	click(t, acc, 0.5, 0.5, green)
	cmds = acc.Commands()
	if len(cmds) != 2 || cmds[1].Count != 2 || cmds[0].Count != 1 {
		t.Errorf("each click should record a command over whole buffer, got %v", cmds)
	}
}

func TestPointModePruning(t *testing.T) {
	acc, err := NewAccumulator(Config{PruneDominatedPoints: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		click(t, acc, float32(i)/10, 0, red)
	}
	cmds := acc.Commands()
	if len(cmds) != 1 || cmds[0].Count != 5 {
		t.Errorf("want single dominating command, got %v", cmds)
	}
}

func TestTriangleMode(t *testing.T) {
	acc := newTestAccumulator(t, ModeTriangle)
	placeholderBefore := acc.Buffer(BufferPlaceholder).Len()
	click(t, acc, 0, 0, red)
	click(t, acc, 1, 0, green)
	if acc.Buffer(BufferPlaceholder).Len() != placeholderBefore+2 {
		t.Error("placeholder should mirror pending points")
	}
	if len(acc.Commands()) != 0 {
		t.Error("no command expected before triangle completes")
	}
	click(t, acc, 1, 1, blue)
	buf := acc.Buffer(BufferTriangles)
	want := []ColoredPoint{
		{Pos: ms2.Vec{X: 0, Y: 0}, Color: red},
		{Pos: ms2.Vec{X: 1, Y: 0}, Color: green},
		{Pos: ms2.Vec{X: 1, Y: 1}, Color: blue},
	}
	if buf.Len() != len(want) {
		t.Fatalf("triangle buffer length %d", buf.Len())
	}
	for i := range want {
		if buf.At(i) != want[i] {
			t.Errorf("vertex %d: got %v, want %v", i, buf.At(i), want[i])
		}
	}
	if acc.Buffer(BufferPlaceholder).Len() != placeholderBefore {
		t.Error("placeholder not restored after triangle completion")
	}
	if len(acc.Pending()) != 0 {
		t.Error("pending not cleared")
	}
	cmds := acc.Commands()
	if len(cmds) != 1 || cmds[0] != (DrawCommand{Buffer: BufferTriangles, Topology: Triangles, Count: 3}) {
		t.Errorf("unexpected commands %v", cmds)
	}
}

func TestCircleMode(t *testing.T) {
	acc := newTestAccumulator(t, ModeCircle)
	click(t, acc, 0, 0, red)
	if acc.Buffer(BufferPlaceholder).Len() != 1 {
		t.Fatal("circle center not shown as placeholder")
	}
	click(t, acc, 1, 0, green)
	buf := acc.Buffer(BufferCircles)
	if buf.Len() != 300 {
		t.Fatalf("got %d circle vertices, want 300", buf.Len())
	}
	if acc.Buffer(BufferPlaceholder).Len() != 0 {
		t.Error("circle center placeholder not removed")
	}
	const tol = 1e-5
	for i := 0; i < buf.Len(); i += 3 {
		center, rim1, rim2 := buf.At(i), buf.At(i+1), buf.At(i+2)
		if center.Pos != (ms2.Vec{}) || center.Color != red {
			t.Fatalf("wedge %d: bad center %v", i/3, center)
		}
		if rim1.Color != green || rim2.Color != green {
			t.Fatalf("wedge %d: rim must take rim click's color", i/3)
		}
		if math32.Abs(ms2.Norm(rim1.Pos)-1) > tol || math32.Abs(ms2.Norm(rim2.Pos)-1) > tol {
			t.Fatalf("wedge %d: rim vertex off radius", i/3)
		}
	}
	// First wedge starts at angle zero.
	if first := buf.At(1).Pos; math32.Abs(first.X-1) > tol || math32.Abs(first.Y) > tol {
		t.Errorf("first rim vertex %v, want (1,0)", first)
	}
	// Second circle records a command for its new range only.
	click(t, acc, 0.5, 0.5, blue)
	click(t, acc, 0.5, 0.6, blue)
	cmds := acc.Commands()
	want := DrawCommand{Buffer: BufferCircles, Topology: Triangles, Offset: 300, Count: 300}
	if len(cmds) != 2 || cmds[1] != want {
		t.Errorf("got commands %v, want second %v", cmds, want)
	}
}

func TestBezierMode(t *testing.T) {
	acc := newTestAccumulator(t, ModeBezier)
	if click(t, acc, 0, 0, red) || click(t, acc, 1, 1, green) {
		t.Fatal("weight requested before third control point")
	}
	if !click(t, acc, 2, 0, blue) {
		t.Fatal("expected weight request on third control point")
	}
	if acc.Buffer(BufferPlaceholder).Len() != 3 {
		t.Error("control points should remain shown while awaiting weight")
	}
	_, err := acc.HandleClick(ms2.Vec{}, red)
	if !errors.Is(err, ErrAwaitingWeight) {
		t.Errorf("want ErrAwaitingWeight, got %v", err)
	}
	err = acc.CompleteBezier(1)
	if err != nil {
		t.Fatal(err)
	}
	buf := acc.Buffer(BufferBezier)
	if buf.Len() != 101 {
		t.Fatalf("got %d curve samples, want 101", buf.Len())
	}
	if buf.At(0).Pos != (ms2.Vec{X: 0, Y: 0}) || buf.At(100).Pos != (ms2.Vec{X: 2, Y: 0}) {
		t.Errorf("curve must interpolate endpoints exactly, got %v and %v", buf.At(0).Pos, buf.At(100).Pos)
	}
	for i, c := range buf.Colors() {
		if c != blue {
			t.Fatalf("sample %d: curve must take third click's color", i)
		}
	}
	if acc.Buffer(BufferPlaceholder).Len() != 0 || len(acc.Pending()) != 0 || acc.AwaitingWeight() {
		t.Error("bezier state not cleared after completion")
	}
	cmds := acc.Commands()
	want := DrawCommand{Buffer: BufferBezier, Topology: LineStrip, Offset: 0, Count: 101}
	if len(cmds) != 1 || cmds[0] != want {
		t.Errorf("got %v, want %v", cmds, want)
	}
	if err := acc.CompleteBezier(1); !errors.Is(err, glsketch.ErrPrecondition) {
		t.Errorf("completing without pending curve: want precondition error, got %v", err)
	}
}

func TestBezierWeightText(t *testing.T) {
	for _, text := range []string{"abc", "", "-2", "-1", "NaN", "inf", "3e38"} {
		acc := newTestAccumulator(t, ModeBezier)
		click(t, acc, 0, 0, red)
		click(t, acc, 1, 1, red)
		click(t, acc, 2, 0, red)
		err := acc.CompleteBezierText(text)
		if err != nil {
			t.Fatalf("%q: invalid weight must be recovered, got %v", text, err)
		}
		// With unit weight the midpoint of this symmetric curve is (1, 0.5).
		mid := acc.Buffer(BufferBezier).At(50).Pos
		if math32.Abs(mid.X-1) > 1e-5 || math32.Abs(mid.Y-0.5) > 1e-5 {
			t.Errorf("%q: expected default weight curve midpoint, got %v", text, mid)
		}
	}
	for _, test := range []struct {
		text string
		mid  ms2.Vec
	}{
		{text: "-0.5", mid: ms2.Vec{X: 1, Y: -1}}, // Curve bends away from p1.
		{text: "0", mid: ms2.Vec{X: 1, Y: 0}},     // Straight chord.
		{text: "3", mid: ms2.Vec{X: 1, Y: 0.75}},
	} {
		acc := newTestAccumulator(t, ModeBezier)
		click(t, acc, 0, 0, red)
		click(t, acc, 1, 1, red)
		click(t, acc, 2, 0, red)
		if err := acc.CompleteBezierText(test.text); err != nil {
			t.Fatal(err)
		}
		buf := acc.Buffer(BufferBezier)
		mid := buf.At(50).Pos
		if math32.Abs(mid.X-test.mid.X) > 1e-5 || math32.Abs(mid.Y-test.mid.Y) > 1e-5 {
			t.Errorf("%q: want midpoint %v, got %v", test.text, test.mid, mid)
		}
		if buf.At(0).Pos != (ms2.Vec{}) || buf.At(100).Pos != (ms2.Vec{X: 2}) {
			t.Errorf("%q: endpoints not interpolated", test.text)
		}
	}
	for _, text := range []string{"x", "-1", "-7", "3e38", "NaN"} {
		_, err := ParseWeight(text)
		if !errors.Is(err, glsketch.ErrInvalidWeight) {
			t.Errorf("%q: want ErrInvalidWeight, got %v", text, err)
		}
	}
	w, err := ParseWeight(" 2.5 ")
	if err != nil || w != 2.5 {
		t.Errorf("got %v %v", w, err)
	}
}

func TestReset(t *testing.T) {
	acc := newTestAccumulator(t, ModeTriangle)
	click(t, acc, 0, 0, red)
	click(t, acc, 1, 0, red)
	click(t, acc, 1, 1, red)
	click(t, acc, 0.5, 0.5, red) // Pending triangle vertex.
	acc.Reset(glsketch.White)
	assertEmpty(t, acc)
	acc.Reset(glsketch.White)
	assertEmpty(t, acc)
	if acc.ClearColor() != glsketch.White {
		t.Error("clear color not recorded")
	}
	if acc.Mode() != ModeTriangle {
		t.Error("reset should not change mode")
	}
}

func TestSetModeCancelsPending(t *testing.T) {
	acc := newTestAccumulator(t, ModeTriangle)
	click(t, acc, 0, 0, red)
	click(t, acc, 1, 0, red)
	// Same mode keeps the pending shape.
	if err := acc.SetMode(ModeTriangle); err != nil {
		t.Fatal(err)
	}
	if len(acc.Pending()) != 2 {
		t.Fatal("setting same mode must not cancel pending shape")
	}
	if err := acc.SetMode(ModeCircle); err != nil {
		t.Fatal(err)
	}
	if len(acc.Pending()) != 0 || acc.Buffer(BufferPlaceholder).Len() != 0 {
		t.Error("mode switch must cancel pending shape and its placeholder")
	}
	// A following circle is unaffected by the abandoned triangle.
	click(t, acc, 0, 0, red)
	click(t, acc, 0, 1, red)
	if acc.Buffer(BufferCircles).Len() != 300 || acc.Buffer(BufferTriangles).Len() != 0 {
		t.Error("unexpected buffers after mode switch")
	}
	if err := acc.SetMode(numModes); !errors.Is(err, glsketch.ErrPrecondition) {
		t.Errorf("want precondition error for invalid mode, got %v", err)
	}
}

func TestModeIndependence(t *testing.T) {
	for mode := ModePoint; mode < numModes; mode++ {
		acc := newTestAccumulator(t, mode)
		for i := 0; i < 7; i++ {
			awaiting := click(t, acc, float32(i)/7, float32(i%2), green)
			if awaiting {
				if err := acc.CompleteBezier(2); err != nil {
					t.Fatal(err)
				}
			}
		}
		for kind := BufferPoints; kind < BufferPlaceholder; kind++ {
			if kind == BufferKind(mode) {
				if acc.Buffer(kind).Len() == 0 {
					t.Errorf("mode %s: own buffer empty", mode)
				}
				continue
			}
			if acc.Buffer(kind).Len() != 0 {
				t.Errorf("mode %s mutated %s buffer", mode, kind)
			}
		}
		assertParallel(t, acc)
	}
}

func TestHandleClickHexInvalid(t *testing.T) {
	acc := newTestAccumulator(t, ModePoint)
	_, err := acc.HandleClickHex(ms2.Vec{}, "#12")
	if !errors.Is(err, glsketch.ErrInvalidColorFormat) {
		t.Errorf("want ErrInvalidColorFormat, got %v", err)
	}
	_, err = acc.HandleClick(ms2.Vec{}, glsketch.Color{R: math32.NaN(), A: 1})
	if !errors.Is(err, glsketch.ErrInvalidColorFormat) {
		t.Errorf("want ErrInvalidColorFormat for NaN channel, got %v", err)
	}
	if acc.Buffer(BufferPoints).Len() != 0 || len(acc.Commands()) != 0 {
		t.Error("invalid color mutated accumulator")
	}
	_, err = acc.HandleClickHex(ms2.Vec{X: 0.1}, "#00ff00")
	if err != nil {
		t.Fatal(err)
	}
	if acc.Buffer(BufferPoints).At(0).Color != green {
		t.Error("hex color not applied")
	}
}

func TestReplay(t *testing.T) {
	acc := newTestAccumulator(t, ModePoint)
	click(t, acc, 0, 0, red)
	acc.SetMode(ModeTriangle)
	click(t, acc, 0, 0, red)
	click(t, acc, 1, 0, red)
	click(t, acc, 1, 1, red)
	click(t, acc, -1, -1, red) // Shown as placeholder.
	var rec recordingRenderer
	err := acc.Replay(&rec)
	if err != nil {
		t.Fatal(err)
	}
	want := []DrawCommand{
		{Buffer: BufferPoints, Topology: Points, Count: 1},
		{Buffer: BufferTriangles, Topology: Triangles, Count: 3},
		{Buffer: BufferPlaceholder, Topology: Points, Count: 1},
	}
	if rec.clears != 1 || rec.clear != glsketch.CornflowerBlue {
		t.Errorf("expected a single clear with default color, got %d %v", rec.clears, rec.clear)
	}
	if len(rec.draws) != len(want) {
		t.Fatalf("got draws %v, want %v", rec.draws, want)
	}
	for i := range want {
		if rec.draws[i] != want[i] {
			t.Errorf("draw %d: got %v, want %v", i, rec.draws[i], want[i])
		}
	}
	// Replay does not mutate state.
	if len(acc.Commands()) != 2 || acc.Buffer(BufferPlaceholder).Len() != 1 {
		t.Error("replay mutated accumulator")
	}
}

func TestCurves(t *testing.T) {
	p0, p1, p2 := ms2.Vec{X: -1, Y: 3}, ms2.Vec{X: 7, Y: 2}, ms2.Vec{X: 4, Y: -5}
	for _, w := range []float32{0, 0.5, 1, 3, 100} {
		if got := RationalQuadBezier(p0, p1, p2, w, 0); got != p0 {
			t.Errorf("w=%v: t=0 got %v, want %v", w, got, p0)
		}
		if got := RationalQuadBezier(p0, p1, p2, w, 1); got != p2 {
			t.Errorf("w=%v: t=1 got %v, want %v", w, got, p2)
		}
	}
	// Larger weight pulls the curve toward the middle control point.
	lo := RationalQuadBezier(p0, p1, p2, 0.5, 0.5)
	hi := RationalQuadBezier(p0, p1, p2, 4, 0.5)
	if ms2.Norm(ms2.Sub(hi, p1)) >= ms2.Norm(ms2.Sub(lo, p1)) {
		t.Error("heavier weight should bring curve closer to p1")
	}
	// Heaviest accepted weight still yields finite samples with exact endpoints.
	heavy := AppendRationalQuadBezier(nil, p0, p1, p2, MaxWeight, 100)
	for i, p := range heavy {
		if math32.IsNaN(p.X) || math32.IsNaN(p.Y) || math32.IsInf(p.X, 0) || math32.IsInf(p.Y, 0) {
			t.Fatalf("sample %d not finite: %v", i, p)
		}
	}
	if heavy[0] != p0 || heavy[100] != p2 {
		t.Errorf("heavy weight endpoints: got %v and %v", heavy[0], heavy[100])
	}
	if got := RationalQuadBezier(p0, p1, p2, -0.9, 0.5); math32.IsNaN(got.X) || math32.IsNaN(got.Y) {
		t.Errorf("weight above -1 must be defined, got %v", got)
	}
	samples := AppendRationalQuadBezier(nil, p0, p1, p2, 1, 10)
	if len(samples) != 11 {
		t.Errorf("got %d samples, want 11", len(samples))
	}
	fan := AppendCircleFan(nil, ms2.Vec{X: 1, Y: 1}, 2, 8)
	if len(fan) != 24 {
		t.Errorf("got %d fan vertices, want 24", len(fan))
	}
}

func TestParseMode(t *testing.T) {
	for m := ModePoint; m < numModes; m++ {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("%s: got %v %v", m, got, err)
		}
	}
	if _, err := ParseMode("square"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func assertEmpty(t *testing.T, acc *Accumulator) {
	t.Helper()
	for kind := BufferKind(0); kind < numBufferKinds; kind++ {
		if acc.Buffer(kind).Len() != 0 {
			t.Errorf("%s buffer not empty after reset", kind)
		}
	}
	if len(acc.Pending()) != 0 || len(acc.Commands()) != 0 || acc.AwaitingWeight() {
		t.Error("pending state or commands not empty after reset")
	}
}

func assertParallel(t *testing.T, acc *Accumulator) {
	t.Helper()
	for kind := BufferKind(0); kind < numBufferKinds; kind++ {
		buf := acc.Buffer(kind)
		if len(buf.Positions()) != len(buf.Colors()) {
			t.Errorf("%s buffer positions/colors length mismatch", kind)
		}
		if len(buf.AppendFlatPositions(nil))/2 != len(buf.AppendFlatColors(nil))/4 {
			t.Errorf("%s flat buffer length mismatch", kind)
		}
	}
}

type recordingRenderer struct {
	clears int
	clear  glsketch.Color
	draws  []DrawCommand
}

func (r *recordingRenderer) Clear(c glsketch.Color) error {
	r.clears++
	r.clear = c
	return nil
}

func (r *recordingRenderer) DrawArrays(kind BufferKind, buf *Buffer, topology Topology, offset, count int) error {
	r.draws = append(r.draws, DrawCommand{Buffer: kind, Topology: topology, Offset: offset, Count: count})
	return nil
}
