// Package scene loads YAML descriptions of a document, its popovers and a
// sequence of mutations, and replays them against a popover.Registry.
package scene

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validation errors.
var (
	ErrNoWindow      = errors.New("scene window size must be positive")
	ErrInvalidFrame  = errors.New("frame must be [x, y, width, height]")
	ErrInvalidSize   = errors.New("size must be [width, height]")
	ErrInvalidPair   = errors.New("value must be a pair [x, y]")
	ErrDuplicateID   = errors.New("duplicate element id")
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingTarget = errors.New("step needs a target")
	ErrUnknownTarget = errors.New("target not found")
	ErrMissingClass  = errors.New("step needs at least one class")
)

// Scene is a parsed scene file.
type Scene struct {
	Window   Window        `yaml:"window"`
	Elements []ElementSpec `yaml:"elements"`
	Popovers []PopoverSpec `yaml:"popovers"`
	Steps    []Step        `yaml:"steps"`
}

// Window is the initial window size.
type Window struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ElementSpec describes one element and its subtree.
type ElementSpec struct {
	ID         string            `yaml:"id"`
	Position   string            `yaml:"position"`
	Frame      []float64         `yaml:"frame"` // [x, y, width, height]
	Size       []float64         `yaml:"size"`  // [width, height], offset zero
	Class      Classes           `yaml:"class"`
	Scrollable bool              `yaml:"scrollable"`
	Scroll     []float64         `yaml:"scroll"`
	Style      map[string]string `yaml:"style"`
	Attrs      map[string]string `yaml:"attrs"`
	Children   []ElementSpec     `yaml:"children"`
}

// PopoverSpec names a popover to connect and its anchor element.
type PopoverSpec struct {
	ID     string `yaml:"id"`
	Anchor string `yaml:"anchor"`
}

// Classes accepts either a space separated string or a list of tokens.
type Classes []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Classes) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = strings.Fields(node.Value)
		return nil
	case yaml.SequenceNode:
		var tokens []string
		if err := node.Decode(&tokens); err != nil {
			return err
		}
		*c = tokens
		return nil
	default:
		return fmt.Errorf("line %d: class must be a string or a list", node.Line)
	}
}

// Parse decodes and validates a scene. Unknown fields are rejected.
func Parse(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scene
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoWindow
		}
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a scene file.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks the static shape of the scene. Targets are resolved when
// steps run.
func (s *Scene) Validate() error {
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		return ErrNoWindow
	}

	seen := make(map[string]bool)
	var walk func(specs []ElementSpec) error
	walk = func(specs []ElementSpec) error {
		for _, e := range specs {
			if e.ID != "" {
				if seen[e.ID] {
					return fmt.Errorf("%w: %q", ErrDuplicateID, e.ID)
				}
				seen[e.ID] = true
			}
			if e.Frame != nil && len(e.Frame) != 4 {
				return fmt.Errorf("element %q: %w", e.ID, ErrInvalidFrame)
			}
			if e.Size != nil && len(e.Size) != 2 {
				return fmt.Errorf("element %q: %w", e.ID, ErrInvalidSize)
			}
			if e.Scroll != nil && len(e.Scroll) != 2 {
				return fmt.Errorf("element %q scroll: %w", e.ID, ErrInvalidPair)
			}
			if err := walk(e.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(s.Elements); err != nil {
		return err
	}

	for i, p := range s.Popovers {
		if p.ID == "" {
			return fmt.Errorf("popover %d: id is required", i+1)
		}
	}

	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return &StepError{Index: i, Action: st.Action, Cause: err}
		}
	}
	return nil
}
