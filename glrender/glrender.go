// Package glrender consumes the geometry produced by glsphere and glshape:
// it drains triangle readers, writes STL files and rasterizes replayed
// draw commands onto images without a GPU.
package glrender

import (
	"io"

	"github.com/soypat/geometry/ms3"
)

// Renderer produces triangles in chunks. [glsphere.FaceReader] is a Renderer.
type Renderer interface {
	ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error)
}

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.ReadAll implementation.
func RenderAll(r Renderer, userData any) ([]ms3.Triangle, error) {
	const startSize = 4096
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, startSize)
	buf := make([]ms3.Triangle, startSize)
	for {
		nt, err = r.ReadTriangles(buf, userData)
		if err == nil || err == io.EOF {
			result = append(result, buf[:nt]...)
		}
		if err != nil {
			break
		}
		if nt == 0 {
			return result, io.ErrNoProgress
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}
