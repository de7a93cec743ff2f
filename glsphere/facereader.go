package glsphere

import (
	"errors"
	"io"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glsketch"
)

type face struct {
	a, b, c glsketch.Vec4
	// lvl is the amount of subdivisions left before the face is emitted.
	lvl int
}

// FaceReader tessellates the sphere iteratively with an explicit work stack
// instead of recursion, so the call stack does not grow with depth. Triangles are
// produced in the same order as [Builder.AppendSphere].
//
// FaceReader implements glrender's triangle Renderer interface.
type FaceReader struct {
	// stack holds faces in a depth first search (DFS). The face to be processed next is at the highest index.
	// Its length never surpasses 4+3*depth.
	stack []face
	depth int
	read  int
}

// NewFaceReader returns a FaceReader ready to read all faces of a sphere subdivided depth times.
func NewFaceReader(depth int) (*FaceReader, error) {
	var fr FaceReader
	err := fr.Reset(depth)
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

// Reset restarts the reader for a new depth, reusing the stack buffer if it can.
func (fr *FaceReader) Reset(depth int) error {
	if depth < 0 {
		return errors.Join(glsketch.ErrPrecondition, errors.New("negative subdivision depth"))
	}
	minStack := 4 + 3*depth
	if cap(fr.stack) < minStack {
		fr.stack = make([]face, 0, minStack)
	}
	a, b, c, d := Tetrahedron()
	// Pushed in reverse so (a,b,c) is popped first.
	*fr = FaceReader{
		stack: append(fr.stack[:0],
			face{a: a, b: c, c: d, lvl: depth},
			face{a: a, b: d, c: b, lvl: depth},
			face{a: d, b: c, c: b, lvl: depth},
			face{a: a, b: b, c: c, lvl: depth},
		),
		depth: depth,
	}
	return nil
}

// Depth returns the subdivision depth the reader was reset with.
func (fr *FaceReader) Depth() int { return fr.depth }

// TrianglesRead returns the amount of triangles read since the last reset.
func (fr *FaceReader) TrianglesRead() int { return fr.read }

// ReadTriangles reads up to len(dst) sphere triangles into dst. It returns
// [io.EOF] once every face has been read. userData is unused.
func (fr *FaceReader) ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error) {
	for n < len(dst) {
		f, ok := fr.next()
		if !ok {
			break
		}
		dst[n] = ms3.Triangle{f.a.XYZ(), f.b.XYZ(), f.c.XYZ()}
		n++
	}
	fr.read += n
	if len(fr.stack) == 0 {
		return n, io.EOF
	}
	return n, nil
}

// ReadVertices is like ReadTriangles but reads homogeneous vertex triples into dst.
// len(dst) should be a multiple of 3; trailing elements that can't hold a full triangle are not written.
func (fr *FaceReader) ReadVertices(dst []glsketch.Vec4) (n int, err error) {
	for n+3 <= len(dst) {
		f, ok := fr.next()
		if !ok {
			break
		}
		dst[n], dst[n+1], dst[n+2] = f.a, f.b, f.c
		n += 3
	}
	fr.read += n / 3
	if len(fr.stack) == 0 {
		return n, io.EOF
	}
	return n, nil
}

// next pops faces off the stack, subdividing until a leaf face is found.
func (fr *FaceReader) next() (face, bool) {
	for len(fr.stack) > 0 {
		lastIdx := len(fr.stack) - 1
		f := fr.stack[lastIdx]
		fr.stack = fr.stack[:lastIdx]
		if f.lvl == 0 {
			return f, true
		}
		ab, ac, bc := midpoints(f.a, f.b, f.c)
		lvl := f.lvl - 1
		// Children pushed in reverse of emission order.
		fr.stack = append(fr.stack,
			face{a: ab, b: bc, c: ac, lvl: lvl},
			face{a: bc, b: f.c, c: ac, lvl: lvl},
			face{a: ab, b: f.b, c: bc, lvl: lvl},
			face{a: f.a, b: ab, c: ac, lvl: lvl},
		)
	}
	return face{}, false
}
