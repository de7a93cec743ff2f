//go:build !tinygo && cgo

package glaux

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/glsketch"
	"github.com/soypat/glsketch/glbuild"
	"github.com/soypat/glsketch/glshape"
	"github.com/soypat/glsketch/glsphere"
)

func ui(cfg UIConfig) error {
	logf := func(format string, args ...any) {
		if !cfg.Silent {
			fmt.Printf(format+"\n", args...)
		}
	}
	acc := cfg.Accumulator
	window, term, err := startGLFW(cfg.Width, cfg.Height, "glsketch")
	if err != nil {
		return err
	}
	defer term()
	prog, err := compileProgram((*glbuild.Programmer).WriteSketchProgram)
	if err != nil {
		return err
	}
	prog.Bind()
	pointSizeUniform, err := prog.UniformLocation(glbuild.UniformPointSz + "\x00")
	if err != nil {
		return err
	}
	renderer, err := newGLRenderer(prog)
	if err != nil {
		return err
	}
	gl.Enable(gl.PROGRAM_POINT_SIZE)

	var (
		refresh    = true
		weightText []byte
	)
	setTitle := func() {
		title := "glsketch: " + acc.Mode().String()
		if acc.AwaitingWeight() {
			title += " weight: " + string(weightText) + "_"
		}
		window.SetTitle(title)
	}
	setTitle()
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft || action != glfw.Press {
			return
		}
		x, y := w.GetCursorPos()
		width, height := w.GetSize()
		pos := ms2.Vec{
			X: float32(2*x/float64(width) - 1),
			Y: float32(1 - 2*y/float64(height)),
		}
		awaiting, err := acc.HandleClick(pos, cfg.Color)
		if err != nil {
			logf("click rejected: %s", err)
			return
		}
		if awaiting {
			weightText = weightText[:0]
		}
		refresh = true
		setTitle()
	})
	window.SetCharCallback(func(w *glfw.Window, char rune) {
		if !acc.AwaitingWeight() {
			return
		}
		if (char >= '0' && char <= '9') || char == '.' || char == '-' || char == 'e' {
			weightText = append(weightText, byte(char))
			setTitle()
		}
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if acc.AwaitingWeight() {
			switch key {
			case glfw.KeyEnter, glfw.KeyKPEnter:
				if _, err := glshape.ParseWeight(string(weightText)); err != nil {
					logf("using default weight: %s", err)
				}
				err := acc.CompleteBezierText(string(weightText))
				if err != nil {
					logf("completing curve: %s", err)
				}
				weightText = weightText[:0]
			case glfw.KeyBackspace:
				if len(weightText) > 0 {
					weightText = weightText[:len(weightText)-1]
				}
			case glfw.KeyEscape:
				acc.CancelPending()
				weightText = weightText[:0]
			}
			refresh = true
			setTitle()
			return
		}
		var mode glshape.Mode
		switch key {
		case glfw.KeyP:
			mode = glshape.ModePoint
		case glfw.KeyT:
			mode = glshape.ModeTriangle
		case glfw.KeyC:
			mode = glshape.ModeCircle
		case glfw.KeyB:
			mode = glshape.ModeBezier
		case glfw.KeyR:
			acc.Reset(cfg.ClearColor)
			renderer.invalidate()
			refresh = true
			return
		case glfw.KeyEscape:
			acc.CancelPending()
			refresh = true
			return
		default:
			return
		}
		if err := acc.SetMode(mode); err != nil {
			logf("changing mode: %s", err)
			return
		}
		refresh = true
		setTitle()
	})
	window.SetSizeCallback(func(w *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
		refresh = true
	})

	ctx := cfg.Context
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if refresh {
			refresh = false
			prog.Bind()
			gl.Uniform1f(pointSizeUniform, cfg.PointSize)
			err = acc.Replay(renderer)
			if err != nil {
				return err
			}
			window.SwapBuffers()
		}
		time.Sleep(time.Second / 60)
		glfw.PollEvents()
	}
	return nil
}

// glRenderer implements [glshape.Renderer] with one pair of vertex buffers per buffer kind.
// Permanent buffers only grow between resets so they are uploaded when their length changes.
type glRenderer struct {
	vao       uint32
	posAttrib uint32
	colAttrib uint32
	vbos      [][2]uint32
	uploaded  []int
	scratch   []float32
}

var _ glshape.Renderer = (*glRenderer)(nil)

func newGLRenderer(prog glgl.Program) (*glRenderer, error) {
	posAttrib, err := prog.AttribLocation(glbuild.AttribPosition + "\x00")
	if err != nil {
		return nil, err
	}
	colAttrib, err := prog.AttribLocation(glbuild.AttribColor + "\x00")
	if err != nil {
		return nil, err
	}
	const nkinds = int(glshape.BufferPlaceholder) + 1
	r := &glRenderer{
		posAttrib: posAttrib,
		colAttrib: colAttrib,
		vbos:      make([][2]uint32, nkinds),
		uploaded:  make([]int, nkinds),
	}
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)
	for i := range r.vbos {
		gl.GenBuffers(2, &r.vbos[i][0])
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.EnableVertexAttribArray(colAttrib)
	return r, nil
}

func (r *glRenderer) invalidate() {
	for i := range r.uploaded {
		r.uploaded[i] = -1
	}
}

func (r *glRenderer) Clear(c glsketch.Color) error {
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

func (r *glRenderer) DrawArrays(kind glshape.BufferKind, buf *glshape.Buffer, topology glshape.Topology, offset, count int) error {
	if int(kind) >= len(r.vbos) {
		return fmt.Errorf("unknown buffer kind %s", kind)
	}
	var mode uint32
	switch topology {
	case glshape.Points:
		mode = gl.POINTS
	case glshape.Triangles:
		mode = gl.TRIANGLES
	case glshape.LineStrip:
		mode = gl.LINE_STRIP
	default:
		return fmt.Errorf("unsupported topology %s", topology)
	}
	vbo := r.vbos[kind]
	gl.BindVertexArray(r.vao)
	// Placeholder contents change without changing length.
	if kind == glshape.BufferPlaceholder || r.uploaded[kind] != buf.Len() {
		r.scratch = buf.AppendFlatPositions(r.scratch[:0])
		gl.BindBuffer(gl.ARRAY_BUFFER, vbo[0])
		gl.BufferData(gl.ARRAY_BUFFER, 4*len(r.scratch), gl.Ptr(r.scratch), gl.DYNAMIC_DRAW)
		r.scratch = buf.AppendFlatColors(r.scratch[:0])
		gl.BindBuffer(gl.ARRAY_BUFFER, vbo[1])
		gl.BufferData(gl.ARRAY_BUFFER, 4*len(r.scratch), gl.Ptr(r.scratch), gl.DYNAMIC_DRAW)
		r.uploaded[kind] = buf.Len()
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo[0])
	gl.VertexAttribPointer(r.posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo[1])
	gl.VertexAttribPointer(r.colAttrib, 4, gl.FLOAT, false, 0, gl.PtrOffset(0))
	gl.DrawArrays(mode, int32(offset), int32(count))
	return nil
}

func sphereUI(cfg SphereUIConfig) error {
	mesh, err := glsphere.NewMesh(cfg.Depth)
	if err != nil {
		return err
	}
	window, term, err := startGLFW(cfg.Width, cfg.Height, "glsketch sphere")
	if err != nil {
		return err
	}
	defer term()
	prog, err := compileProgram((*glbuild.Programmer).WriteSphereProgram)
	if err != nil {
		return err
	}
	prog.Bind()
	var uniforms [9]int32
	for i, name := range [...]string{
		glbuild.UniformYaw, glbuild.UniformPitch, glbuild.UniformCamDist, glbuild.UniformAspect,
		glbuild.UniformKd, glbuild.UniformKs, glbuild.UniformShininess, glbuild.UniformLe, glbuild.UniformLa,
	} {
		uniforms[i], err = prog.UniformLocation(name + "\x00")
		if err != nil {
			return err
		}
	}
	yawUniform, pitchUniform, camDistUniform, aspectUniform := uniforms[0], uniforms[1], uniforms[2], uniforms[3]
	phong := cfg.Phong
	posAttrib, err := prog.AttribLocation(glbuild.AttribPosition + "\x00")
	if err != nil {
		return err
	}
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.GenBuffers(1, &vbo)
	var flat []float32
	upload := func() {
		flat = mesh.AppendFlat(flat[:0])
		gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
		gl.BufferData(gl.ARRAY_BUFFER, 4*len(flat), gl.Ptr(flat), gl.STATIC_DRAW)
		window.SetTitle(mesh.String())
	}
	upload()
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 4, gl.FLOAT, false, 0, gl.PtrOffset(0))
	gl.Enable(gl.DEPTH_TEST)

	var (
		yaw              float64
		pitch            float64
		lastMouseX       float64
		lastMouseY       float64
		camDist          float64 = 3
		firstMouseMove           = true
		isMousePressed           = false
		yawSensitivity           = 0.005
		pitchSensitivity         = 0.005
		refresh                  = true
	)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos float64, ypos float64) {
		if !isMousePressed {
			return
		}
		refresh = true
		if firstMouseMove {
			lastMouseX = xpos
			lastMouseY = ypos
			firstMouseMove = false
		}
		yaw += (xpos - lastMouseX) * yawSensitivity
		pitch -= (ypos - lastMouseY) * pitchSensitivity // Invert y-axis
		maxPitch := math.Pi/2 - 0.01
		pitch = max(-maxPitch, min(maxPitch, pitch))
		lastMouseX = xpos
		lastMouseY = ypos
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		refresh = true
		camDist -= yoff * (camDist*.1 + .01)
		camDist = max(1.05, min(50, camDist))
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		refresh = true
		if action == glfw.Press {
			isMousePressed = true
			firstMouseMove = true
			window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		} else if action == glfw.Release {
			isMousePressed = false
			window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	})
	phongKeys := map[glfw.Key]byte{glfw.KeyD: 'd', glfw.KeyS: 's', glfw.KeyH: 'h', glfw.KeyE: 'e', glfw.KeyA: 'a'}
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press && action != glfw.Repeat {
			return
		}
		switch key {
		case glfw.KeyUp, glfw.KeyKPAdd, glfw.KeyEqual:
			if mesh.Depth() >= glsphere.PracticalMaxDepth {
				return
			}
			mesh.Increase()
		case glfw.KeyDown, glfw.KeyKPSubtract, glfw.KeyMinus:
			if !mesh.Decrease() {
				return
			}
		default:
			param, ok := phongKeys[key]
			if !ok || !adjustPhong(&phong, param, mods&glfw.ModShift == 0) {
				return
			}
			w.SetTitle(fmt.Sprintf("%s kd=%.2f ks=%.2f shininess=%.1f le=%.2f la=%.2f",
				mesh.String(), phong.Kd, phong.Ks, phong.Shininess, phong.Le, phong.La))
			refresh = true
			return
		}
		upload()
		refresh = true
	})
	window.SetSizeCallback(func(w *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
		refresh = true
	})

	ctx := cfg.Context
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if refresh {
			refresh = false
			width, height := window.GetSize()
			gl.ClearColor(0, 0, 0, 1)
			gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
			prog.Bind()
			gl.Uniform1f(yawUniform, float32(yaw))
			gl.Uniform1f(pitchUniform, float32(pitch))
			gl.Uniform1f(camDistUniform, float32(camDist))
			gl.Uniform1f(aspectUniform, float32(width)/float32(max(height, 1)))
			for i, v := range [...]float32{phong.Kd, phong.Ks, phong.Shininess, phong.Le, phong.La} {
				gl.Uniform1f(uniforms[4+i], v)
			}
			gl.BindVertexArray(vao)
			gl.DrawArrays(gl.TRIANGLES, 0, int32(len(mesh.Vertices())))
			window.SwapBuffers()
		}
		time.Sleep(time.Second / 60)
		glfw.PollEvents()
	}
	return nil
}

// compileProgram generates a combined shader source with write and compiles it.
func compileProgram(write func(*glbuild.Programmer, io.Writer) (int, error)) (glgl.Program, error) {
	var source bytes.Buffer
	n, err := write(glbuild.NewDefaultProgrammer(), &source)
	if err != nil {
		return glgl.Program{}, err
	} else if n != source.Len() {
		return glgl.Program{}, fmt.Errorf("wrote %d bytes but program writer counted %d", source.Len(), n)
	}
	combined, err := glgl.ParseCombined(bytes.NewReader(source.Bytes()))
	if err != nil {
		return glgl.Program{}, err
	}
	prog, err := glgl.CompileProgram(combined)
	if err != nil {
		return glgl.Program{}, errors.New(source.String() + "\n" + err.Error())
	}
	return prog, nil
}

func startGLFW(width, height int, title string) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		log.Fatalln("Failed to initialize GLFW:", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err = glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		log.Fatalln("Failed to create GLFW window:", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		log.Fatalln("Failed to initialize OpenGL:", err)
	}
	return window, glfw.Terminate, nil
}
