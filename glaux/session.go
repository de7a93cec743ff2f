package glaux

import (
	"errors"
	"fmt"
	"io"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glsketch"
	"github.com/soypat/glsketch/glshape"
	"gopkg.in/yaml.v3"
)

// ErrUnusedWeight is returned by [Session.Apply] when a step carries a weight
// but its click does not complete a Bezier curve.
var ErrUnusedWeight = errors.New("weight given on a click that does not complete a curve")

// Session is a scripted drawing session. It replaces interactive input with
// a list of steps applied in order to an accumulator:
//
//	clear: "#000000"
//	color: "#ffffff"
//	steps:
//	  - mode: triangle
//	  - click: [-0.5, -0.5]
//	    color: "#ff0000"
//	  - mode: bezier
//	  - click: [-0.5, 0]
//	  - click: [0, 0.5]
//	  - click: [0.5, 0]
//	    weight: 2
type Session struct {
	// Clear is the background color the accumulator is reset to before applying steps.
	// If empty the accumulator is not reset.
	Clear string `yaml:"clear,omitempty"`
	// Color is the default click color. Defaults to white.
	Color string `yaml:"color,omitempty"`
	Steps []Step `yaml:"steps"`
}

// Step is a single action of a [Session]. A step may set the mode, reset the
// canvas and click, in that order.
type Step struct {
	Mode  string    `yaml:"mode,omitempty"`
	Click []float32 `yaml:"click,omitempty,flow"`
	// Color of the click. Defaults to the session's color.
	Color string `yaml:"color,omitempty"`
	// Weight answers a Bezier weight request raised by this step's click.
	// Text that is not a valid weight and a missing weight both yield the default weight.
	// A weight on a click that does not complete a curve fails with [ErrUnusedWeight].
	Weight *string `yaml:"weight,omitempty"`
	// Reset clears the canvas to the session's clear color.
	Reset bool `yaml:"reset,omitempty"`
}

// LoadSession decodes a YAML session from r. Unknown fields are an error.
func LoadSession(r io.Reader) (*Session, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Session
	err := dec.Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	err = s.Validate()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks colors, modes and click coordinates of the session without applying it.
func (s *Session) Validate() error {
	var errs []error
	if s.Clear != "" {
		if _, err := glsketch.ParseHexColor(s.Clear); err != nil {
			errs = append(errs, fmt.Errorf("clear: %w", err))
		}
	}
	if s.Color != "" {
		if _, err := glsketch.ParseHexColor(s.Color); err != nil {
			errs = append(errs, fmt.Errorf("color: %w", err))
		}
	}
	for i, step := range s.Steps {
		if step.Mode != "" {
			if _, err := glshape.ParseMode(step.Mode); err != nil {
				errs = append(errs, fmt.Errorf("step %d: %w", i, err))
			}
		}
		if step.Click != nil && len(step.Click) != 2 {
			errs = append(errs, fmt.Errorf("step %d: click requires 2 coordinates, got %d", i, len(step.Click)))
		}
		if step.Color != "" {
			if _, err := glsketch.ParseHexColor(step.Color); err != nil {
				errs = append(errs, fmt.Errorf("step %d: %w", i, err))
			}
		}
		if step.Weight != nil && step.Click == nil {
			errs = append(errs, fmt.Errorf("step %d: weight without click", i))
		}
	}
	return errors.Join(errs...)
}

// Apply runs the session's steps on acc. It stops at the first failing step.
func (s *Session) Apply(acc *glshape.Accumulator) error {
	clearColor := acc.ClearColor()
	if s.Clear != "" {
		c, err := glsketch.ParseHexColor(s.Clear)
		if err != nil {
			return err
		}
		clearColor = c
		acc.Reset(clearColor)
	}
	defaultColor := glsketch.White
	if s.Color != "" {
		c, err := glsketch.ParseHexColor(s.Color)
		if err != nil {
			return err
		}
		defaultColor = c
	}
	for i, step := range s.Steps {
		err := applyStep(acc, step, defaultColor, clearColor)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func applyStep(acc *glshape.Accumulator, step Step, defaultColor, clearColor glsketch.Color) error {
	if step.Mode != "" {
		m, err := glshape.ParseMode(step.Mode)
		if err != nil {
			return err
		}
		err = acc.SetMode(m)
		if err != nil {
			return err
		}
	}
	if step.Reset {
		acc.Reset(clearColor)
	}
	if step.Click == nil {
		return nil
	} else if len(step.Click) != 2 {
		return fmt.Errorf("click requires 2 coordinates, got %d", len(step.Click))
	}
	pos := ms2.Vec{X: step.Click[0], Y: step.Click[1]}
	var awaiting bool
	var err error
	if step.Color != "" {
		awaiting, err = acc.HandleClickHex(pos, step.Color)
	} else {
		awaiting, err = acc.HandleClick(pos, defaultColor)
	}
	if err != nil {
		return err
	} else if !awaiting {
		if step.Weight != nil {
			return ErrUnusedWeight
		}
		return nil
	}
	if step.Weight == nil {
		return acc.CompleteBezier(glshape.DefaultWeight)
	}
	return acc.CompleteBezierText(*step.Weight)
}
