package scene

import (
	"fmt"

	"github.com/jmylchreest/popanchor/internal/dom"
	"github.com/jmylchreest/popanchor/internal/geometry"
	"github.com/jmylchreest/popanchor/internal/popover"
)

// Step actions.
const (
	ActionResizeWindow = "resize-window"
	ActionAddClass     = "add-class"
	ActionRemoveClass  = "remove-class"
	ActionToggleClass  = "toggle-class"
	ActionScroll       = "scroll"
	ActionSetFrame     = "set-frame"
	ActionSetOffset    = "set-offset"
	ActionClearOffset  = "clear-offset"
	ActionConnect      = "connect"
	ActionDisconnect   = "disconnect"
	ActionPlace        = "place"
)

// Step is one mutation replayed after the popovers are connected.
//
// Element actions (add-class, remove-class, toggle-class, scroll, set-frame)
// target an element id. Popover actions (set-offset, clear-offset, connect,
// disconnect, place) target a registered popover id.
type Step struct {
	Action string     `yaml:"action"`
	Target string     `yaml:"target"`
	Class  Classes    `yaml:"class"`
	Size   []float64  `yaml:"size"`
	To     []float64  `yaml:"to"`
	Frame  []float64  `yaml:"frame"`
	Offset []*float64 `yaml:"offset"` // null leaves that axis unoffset
	Anchor string     `yaml:"anchor"`
	Note   string     `yaml:"note"`
}

// StepError reports a step that could not be applied.
type StepError struct {
	Index  int
	Action string
	Cause  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Action, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// Label returns a short description for reports.
func (st Step) Label() string {
	if st.Note != "" {
		return st.Note
	}
	if st.Target == "" {
		return st.Action
	}
	return st.Action + " " + st.Target
}

func (st Step) validate() error {
	switch st.Action {
	case ActionResizeWindow:
		if len(st.Size) != 2 {
			return ErrInvalidSize
		}
		if st.Size[0] <= 0 || st.Size[1] <= 0 {
			return ErrNoWindow
		}
		return nil
	case ActionAddClass, ActionRemoveClass, ActionToggleClass:
		if st.Target == "" {
			return ErrMissingTarget
		}
		if len(st.Class) == 0 {
			return ErrMissingClass
		}
		return nil
	case ActionScroll:
		if st.Target == "" {
			return ErrMissingTarget
		}
		if len(st.To) != 2 {
			return ErrInvalidPair
		}
		return nil
	case ActionSetFrame:
		if st.Target == "" {
			return ErrMissingTarget
		}
		if len(st.Frame) != 4 {
			return ErrInvalidFrame
		}
		return nil
	case ActionSetOffset:
		if st.Target == "" {
			return ErrMissingTarget
		}
		if len(st.Offset) != 2 {
			return ErrInvalidPair
		}
		return nil
	case ActionClearOffset, ActionConnect, ActionDisconnect, ActionPlace:
		if st.Target == "" {
			return ErrMissingTarget
		}
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, st.Action)
	}
}

// Apply runs step i against doc and reg.
func (s *Scene) Apply(doc *dom.Document, reg *popover.Registry, i int) error {
	st := s.Steps[i]
	if err := st.validate(); err != nil {
		return &StepError{Index: i, Action: st.Action, Cause: err}
	}
	if err := st.apply(doc, reg); err != nil {
		return &StepError{Index: i, Action: st.Action, Cause: err}
	}
	return nil
}

// Run applies every step in order, calling after (when non-nil) once each
// step has been applied. It stops at the first failing step.
func (s *Scene) Run(doc *dom.Document, reg *popover.Registry, after func(i int, st Step)) error {
	for i := range s.Steps {
		if err := s.Apply(doc, reg, i); err != nil {
			return err
		}
		if after != nil {
			after(i, s.Steps[i])
		}
	}
	return nil
}

func (st Step) apply(doc *dom.Document, reg *popover.Registry) error {
	switch st.Action {
	case ActionResizeWindow:
		doc.SetWindowSize(st.Size[0], st.Size[1])
		return nil
	case ActionConnect:
		if !reg.Connect(st.Target, st.Anchor) {
			return fmt.Errorf("%w: popover %q", ErrUnknownTarget, st.Target)
		}
		return nil
	case ActionSetOffset, ActionClearOffset, ActionDisconnect, ActionPlace:
		return st.applyPopover(reg)
	}

	el := doc.ElementByID(st.Target)
	if el == nil {
		return fmt.Errorf("%w: element %q", ErrUnknownTarget, st.Target)
	}
	switch st.Action {
	case ActionAddClass:
		el.AddClass(st.Class...)
	case ActionRemoveClass:
		el.RemoveClass(st.Class...)
	case ActionToggleClass:
		for _, token := range st.Class {
			el.ToggleClass(token)
		}
	case ActionScroll:
		el.ScrollTo(st.To[0], st.To[1])
	case ActionSetFrame:
		el.SetFrame(geometry.Rect{X: st.Frame[0], Y: st.Frame[1], Width: st.Frame[2], Height: st.Frame[3]})
	}
	return nil
}

func (st Step) applyPopover(reg *popover.Registry) error {
	if !reg.Connected(st.Target) {
		return fmt.Errorf("%w: popover %q", ErrUnknownTarget, st.Target)
	}
	switch st.Action {
	case ActionSetOffset:
		reg.SetOffset(st.Target, st.Offset[0], st.Offset[1])
	case ActionClearOffset:
		reg.SetOffset(st.Target, nil, nil)
	case ActionDisconnect:
		reg.Disconnect(st.Target)
	case ActionPlace:
		reg.Place(st.Target)
	}
	return nil
}
