package glsphere

import (
	"fmt"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glsketch"
)

// Mesh owns a sphere triangle list and the depth it was generated with.
// Every depth change rebuilds the whole vertex list; there is no incremental update.
type Mesh struct {
	depth int
	verts []glsketch.Vec4
}

// NewMesh returns a Mesh tessellated at depth.
func NewMesh(depth int) (*Mesh, error) {
	var m Mesh
	err := m.SetDepth(depth)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SetDepth rebuilds the mesh at the given subdivision depth. Vertex slices
// previously returned by [Mesh.Vertices] are not modified.
func (m *Mesh) SetDepth(depth int) error {
	bld := Builder{NoDepthPanic: true}
	verts := bld.AppendSphere(nil, depth)
	if err := bld.Err(); err != nil {
		return err
	}
	m.depth = depth
	m.verts = verts
	return nil
}

// Increase adds one level of subdivision and rebuilds the mesh.
func (m *Mesh) Increase() {
	err := m.SetDepth(m.depth + 1)
	if err != nil {
		panic(err) // Unreachable: depth+1 is never negative.
	}
}

// Decrease removes one level of subdivision and rebuilds the mesh. Depth is
// clamped at zero, in which case Decrease reports false and the mesh is left as is.
func (m *Mesh) Decrease() bool {
	if m.depth == 0 {
		return false
	}
	err := m.SetDepth(m.depth - 1)
	if err != nil {
		panic(err)
	}
	return true
}

// Depth returns the current subdivision depth.
func (m *Mesh) Depth() int { return m.depth }

// Vertices returns the triangle list as consecutive vertex triples. Its length is always [NumVertices](m.Depth()).
func (m *Mesh) Vertices() []glsketch.Vec4 { return m.verts }

// AppendFlat appends the vertex list to dst as 4 floats per vertex, the layout of a vec4 GL attribute.
func (m *Mesh) AppendFlat(dst []float32) []float32 {
	for _, v := range m.verts {
		dst = append(dst, v.X, v.Y, v.Z, v.W)
	}
	return dst
}

// AppendNormals appends one outward unit normal per vertex to dst. On the unit
// sphere a vertex's normal is its own position.
func (m *Mesh) AppendNormals(dst []ms3.Vec) []ms3.Vec {
	for _, v := range m.verts {
		dst = append(dst, ms3.Unit(v.XYZ()))
	}
	return dst
}

// AppendTriangles appends the mesh as 3D triangles to dst, dropping the homogeneous weight.
func (m *Mesh) AppendTriangles(dst []ms3.Triangle) []ms3.Triangle {
	for i := 0; i+2 < len(m.verts); i += 3 {
		dst = append(dst, ms3.Triangle{m.verts[i].XYZ(), m.verts[i+1].XYZ(), m.verts[i+2].XYZ()})
	}
	return dst
}

func (m *Mesh) String() string {
	return fmt.Sprintf("sphere(depth=%d, faces=%d)", m.depth, len(m.verts)/3)
}
