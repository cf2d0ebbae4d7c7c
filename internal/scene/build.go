package scene

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/popanchor/internal/dom"
	"github.com/jmylchreest/popanchor/internal/geometry"
	"github.com/jmylchreest/popanchor/internal/popover"
)

// Build creates the document described by the scene. Elements without an id
// get a generated one.
func (s *Scene) Build(logger *slog.Logger) (*dom.Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	doc := dom.NewDocument(s.Window.Width, s.Window.Height, logger)
	for _, spec := range s.Elements {
		if err := buildElement(doc, doc.Root(), spec); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func buildElement(doc *dom.Document, parent *dom.Element, spec ElementSpec) error {
	id := spec.ID
	if id == "" {
		var err error
		if id, err = newElementID(); err != nil {
			return err
		}
	}

	mode, err := dom.ParsePositionMode(spec.Position)
	if err != nil {
		return fmt.Errorf("element %q: %w", id, err)
	}

	el := doc.CreateElement(id)
	el.SetPosition(mode)
	el.SetFrame(spec.rect())
	el.SetScrollable(spec.Scrollable)
	el.SetClasses(spec.Class)
	for name, value := range spec.Attrs {
		el.SetAttr(name, value)
	}
	for prop, value := range spec.Style {
		el.SetStyle(prop, value)
	}
	parent.AppendChild(el)

	for _, child := range spec.Children {
		if err := buildElement(doc, el, child); err != nil {
			return err
		}
	}

	if len(spec.Scroll) == 2 {
		el.ScrollTo(spec.Scroll[0], spec.Scroll[1])
	}
	return nil
}

func (e ElementSpec) rect() geometry.Rect {
	switch {
	case len(e.Frame) == 4:
		return geometry.Rect{X: e.Frame[0], Y: e.Frame[1], Width: e.Frame[2], Height: e.Frame[3]}
	case len(e.Size) == 2:
		return geometry.Rect{Width: e.Size[0], Height: e.Size[1]}
	default:
		return geometry.Rect{}
	}
}

func newElementID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return "el-" + strings.ToLower(id.String()), nil
}

// Connect registers every popover of the scene. Popovers whose element is
// missing are reported together; the others stay connected.
func (s *Scene) Connect(reg *popover.Registry) error {
	var errs []error
	for _, p := range s.Popovers {
		if !reg.Connect(p.ID, p.Anchor) {
			errs = append(errs, fmt.Errorf("popover %q: %w", p.ID, ErrUnknownTarget))
		}
	}
	return errors.Join(errs...)
}
