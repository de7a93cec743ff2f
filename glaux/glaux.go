// Package glaux bundles auxiliary helpers to get started with glsketch quickly:
// PNG snapshots of a drawing session, scripted sessions and interactive windows.
// Applications with particular needs should implement their own versions.
package glaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/soypat/geometry/ms1"
	"github.com/soypat/glsketch"
	"github.com/soypat/glsketch/glbuild"
	"github.com/soypat/glsketch/glrender"
	"github.com/soypat/glsketch/glshape"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// PNGConfig configures PNG snapshots of an accumulator.
type PNGConfig struct {
	// Width and Height of the image in pixels. Default to 512x512.
	Width, Height int
	// PointSize and LineWidth are passed to [glrender.ImageConfig].
	PointSize float32
	LineWidth float32
	// Caption is drawn at the bottom left corner of the image if not empty.
	Caption string
	// CaptionSize is the font size in points of the caption. Defaults to 14.
	CaptionSize float64
	// CaptionColor defaults to white.
	CaptionColor glsketch.Color
	Silent       bool
}

// RenderPNG replays the draw commands of acc onto a new image and encodes it as PNG to w.
func RenderPNG(w io.Writer, acc *glshape.Accumulator, cfg PNGConfig) error {
	if acc == nil {
		return errors.New("nil accumulator")
	}
	if cfg.Width == 0 {
		cfg.Width = 512
	}
	if cfg.Height == 0 {
		cfg.Height = 512
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return errors.New("negative image dimension")
	}
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	watch := stopwatch()
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	renderer, err := glrender.NewImageRenderer(img, glrender.ImageConfig{
		PointSize: cfg.PointSize,
		LineWidth: cfg.LineWidth,
	})
	if err != nil {
		return err
	}
	err = acc.Replay(renderer)
	if err != nil {
		return fmt.Errorf("replaying draw commands: %w", err)
	}
	if cfg.Caption != "" {
		err = drawCaption(img, cfg)
		if err != nil {
			return fmt.Errorf("drawing caption: %w", err)
		}
	}
	log("rasterized", len(acc.Commands()), "draw commands in", watch())
	return png.Encode(w, img)
}

// RenderPNGFile is like [RenderPNG] but creates or truncates the named file.
func RenderPNGFile(filename string, acc *glshape.Accumulator, cfg PNGConfig) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = RenderPNG(fp, acc, cfg)
	if err != nil {
		return err
	}
	if !cfg.Silent {
		fmt.Println("wrote", fp.Name())
	}
	return fp.Sync()
}

func drawCaption(dst *image.RGBA, cfg PNGConfig) error {
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	size := cfg.CaptionSize
	if size == 0 {
		size = 14
	}
	c := cfg.CaptionColor
	if c == (glsketch.Color{}) {
		c = glsketch.White
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	defer face.Close()
	margin := int(size / 2)
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dst.Rect.Min.X+margin, dst.Rect.Max.Y-margin),
	}
	d.DrawString(cfg.Caption)
	return nil
}

// UIConfig configures the interactive sketch window.
type UIConfig struct {
	Width, Height int
	// Color is the color of clicked points. Defaults to white.
	Color glsketch.Color
	// ClearColor is the background color of a new accumulator and of resets with the R key.
	// Defaults to [glsketch.CornflowerBlue].
	ClearColor glsketch.Color
	// PointSize in pixels. Defaults to 5.
	PointSize float32
	// Accumulator to draw into. If nil a new one with default configuration is
	// cleared to ClearColor. A non-nil accumulator is drawn as is, keeping its
	// commands and clear color until the user resets it.
	Accumulator *glshape.Accumulator
	Context     context.Context
	// Silent disables printing of rejected input to stdout.
	Silent bool
}

// UI opens a window where the user sketches shapes with the mouse. Keys P, T,
// C and B switch to point, triangle, circle and Bezier mode respectively and R
// clears the canvas. When a Bezier curve awaits its weight, typed digits are
// accumulated and Enter completes the curve. UI blocks until the window is
// closed and must be called from the main thread.
func UI(cfg UIConfig) error {
	err := cfg.setDefaults()
	if err != nil {
		return err
	}
	return ui(cfg)
}

func (cfg *UIConfig) setDefaults() error {
	if cfg.Width == 0 {
		cfg.Width = 800
	}
	if cfg.Height == 0 {
		cfg.Height = 800
	}
	if cfg.Color == (glsketch.Color{}) {
		cfg.Color = glsketch.White
	}
	if cfg.ClearColor == (glsketch.Color{}) {
		cfg.ClearColor = glsketch.CornflowerBlue
	}
	if cfg.PointSize == 0 {
		cfg.PointSize = 5
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return errors.New("negative window dimension")
	} else if !cfg.Color.IsValid() || !cfg.ClearColor.IsValid() {
		return glsketch.ErrInvalidColorFormat
	}
	if cfg.Accumulator == nil {
		acc, err := glshape.NewAccumulator(glshape.Config{})
		if err != nil {
			return err
		}
		acc.Reset(cfg.ClearColor)
		cfg.Accumulator = acc
	}
	return nil
}

// SphereUIConfig configures the sphere viewer window.
type SphereUIConfig struct {
	Width, Height int
	// Depth is the initial subdivision depth.
	Depth int
	// Phong holds the initial reflection parameters. Zero value uses [glbuild.DefaultPhong].
	Phong   glbuild.Phong
	Context context.Context
}

// SphereUI opens a window displaying a geodesic sphere. Up and Down arrows (or + and -)
// change the subdivision depth and dragging with the left mouse button orbits the camera.
// Keys D, S, H, E and A increase the diffuse, specular, shininess, light and ambient
// parameters of the shading, holding Shift decreases them.
// It must be called from the main thread.
func SphereUI(cfg SphereUIConfig) error {
	if cfg.Width == 0 {
		cfg.Width = 800
	}
	if cfg.Height == 0 {
		cfg.Height = 800
	}
	if cfg.Phong == (glbuild.Phong{}) {
		cfg.Phong = glbuild.DefaultPhong()
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return errors.New("negative window dimension")
	} else if cfg.Depth < 0 {
		return fmt.Errorf("%w: negative sphere depth %d", glsketch.ErrPrecondition, cfg.Depth)
	}
	err := cfg.Phong.Validate()
	if err != nil {
		return err
	}
	return sphereUI(cfg)
}

// adjustPhong steps the parameter of ph selected by key up or down, keeping it
// within the range accepted by [glbuild.Phong.Validate]. It reports whether key selects a parameter.
func adjustPhong(ph *glbuild.Phong, key byte, increase bool) bool {
	const step = 0.05
	sign := float32(1)
	if !increase {
		sign = -1
	}
	switch key {
	case 'd':
		ph.Kd = ms1.Clamp(ph.Kd+sign*step, 0, 1)
	case 's':
		ph.Ks = ms1.Clamp(ph.Ks+sign*step, 0, 1)
	case 'h':
		if increase {
			ph.Shininess *= 1.25
		} else {
			ph.Shininess /= 1.25
		}
		ph.Shininess = ms1.Clamp(ph.Shininess, 1, 1e4)
	case 'e':
		ph.Le = ms1.Clamp(ph.Le+sign*step, 0, 10)
	case 'a':
		ph.La = ms1.Clamp(ph.La+sign*step, 0, 10)
	default:
		return false
	}
	return true
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
