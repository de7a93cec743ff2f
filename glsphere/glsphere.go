// Package glsphere approximates the unit sphere with triangles by recursively
// subdividing the faces of a regular tetrahedron and projecting every new
// vertex back onto the sphere (a geodesic sphere).
package glsphere

import (
	"errors"
	"fmt"

	"github.com/soypat/glsketch"
)

// PracticalMaxDepth is the deepest subdivision interactive callers should request.
// Vertex count grows as 4^depth; bounding it is the caller's responsibility.
const PracticalMaxDepth = 7

// Vertices of the regular tetrahedron inscribed in the unit sphere.
var (
	tetraA = glsketch.Vec4{X: 0, Y: 0, Z: -1, W: 1}
	tetraB = glsketch.Vec4{X: 0, Y: 0.942809, Z: 0.333333, W: 1}
	tetraC = glsketch.Vec4{X: -0.816497, Y: -0.471405, Z: 0.333333, W: 1}
	tetraD = glsketch.Vec4{X: 0.816497, Y: -0.471405, Z: 0.333333, W: 1}
)

// Tetrahedron returns the four base vertices the sphere is subdivided from.
func Tetrahedron() (a, b, c, d glsketch.Vec4) {
	return tetraA, tetraB, tetraC, tetraD
}

// NumFaces returns the amount of triangles in a sphere subdivided depth times.
// It panics with an error wrapping [glsketch.ErrPrecondition] if depth is negative.
func NumFaces(depth int) int {
	if depth < 0 {
		panic(fmt.Errorf("%w: negative subdivision depth %d", glsketch.ErrPrecondition, depth))
	}
	return 4 << (2 * depth)
}

// NumVertices returns the length of the vertex list produced for depth, which is 3*NumFaces(depth).
func NumVertices(depth int) int {
	return 3 * NumFaces(depth)
}

// Builder generates sphere tessellations.
// Provides error handling strategies with panics or error accumulation for bad depth arguments.
type Builder struct {
	// NoDepthPanic makes the Builder accumulate negative depth errors
	// retrievable through [Builder.Err] instead of panicking.
	NoDepthPanic bool
	accumErrs    []error
}

// Err returns all errors accumulated since the Builder was created or nil if there were none.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

func (bld *Builder) depthErrorf(msg string, args ...any) {
	err := fmt.Errorf("%w: "+msg, append([]any{glsketch.ErrPrecondition}, args...)...)
	if !bld.NoDepthPanic {
		panic(err)
	}
	bld.accumErrs = append(bld.accumErrs, err)
}

// AppendSphere appends the triangle list of the unit sphere subdivided depth
// times to dst as consecutive vertex triples and returns the result.
// The tetrahedron faces are visited in (a,b,c), (d,c,b), (a,d,b), (a,c,d) order
// and every child triangle preserves its parent's winding.
// A negative depth is a precondition violation and appends nothing.
func (bld *Builder) AppendSphere(dst []glsketch.Vec4, depth int) []glsketch.Vec4 {
	if depth < 0 {
		bld.depthErrorf("negative subdivision depth %d", depth)
		return dst
	}
	if free := cap(dst) - len(dst); free < NumVertices(depth) {
		grown := make([]glsketch.Vec4, len(dst), len(dst)+NumVertices(depth))
		copy(grown, dst)
		dst = grown
	}
	a, b, c, d := Tetrahedron()
	dst = appendDivided(dst, a, b, c, depth)
	dst = appendDivided(dst, d, c, b, depth)
	dst = appendDivided(dst, a, d, b, depth)
	dst = appendDivided(dst, a, c, d, depth)
	return dst
}

// Tessellate returns a newly allocated sphere triangle list for depth. It panics on negative depth.
func Tessellate(depth int) []glsketch.Vec4 {
	var bld Builder
	return bld.AppendSphere(nil, depth)
}

func appendDivided(dst []glsketch.Vec4, a, b, c glsketch.Vec4, depth int) []glsketch.Vec4 {
	if depth == 0 {
		return append(dst, a, b, c)
	}
	ab, ac, bc := midpoints(a, b, c)
	depth--
	dst = appendDivided(dst, a, ab, ac, depth)
	dst = appendDivided(dst, ab, b, bc, depth)
	dst = appendDivided(dst, bc, c, ac, depth)
	dst = appendDivided(dst, ab, bc, ac, depth)
	return dst
}

// midpoints returns the edge midpoints of triangle abc re-projected onto the unit sphere.
func midpoints(a, b, c glsketch.Vec4) (ab, ac, bc glsketch.Vec4) {
	ab = glsketch.MixVec4(a, b, 0.5).NormalizeXYZ()
	ac = glsketch.MixVec4(a, c, 0.5).NormalizeXYZ()
	bc = glsketch.MixVec4(b, c, 0.5).NormalizeXYZ()
	return ab, ac, bc
}
