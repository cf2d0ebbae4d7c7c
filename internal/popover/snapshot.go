package popover

import (
	"github.com/jmylchreest/popanchor/internal/flip"
	"github.com/jmylchreest/popanchor/internal/geometry"
)

// Snapshot is the last computed state of a registration.
type Snapshot struct {
	ID        string   `json:"id"`
	Anchor    string   `json:"anchor,omitempty"`
	Open      bool     `json:"open"`
	Placed    bool     `json:"placed"`
	Anchored  bool     `json:"anchored"`
	Left      float64  `json:"left"`
	Top       float64  `json:"top"`
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
	Flip      string   `json:"flip"`
	Placement []string `json:"placement"`
	Classes   []string `json:"classes"`
	OffsetX   float64  `json:"offset_x"`
	OffsetY   float64  `json:"offset_y"`
	Passes    int      `json:"passes"`
}

// Rect returns the popover rectangle in window coordinates.
func (s Snapshot) Rect() geometry.Rect {
	return geometry.Rect{X: s.Left, Y: s.Top, Width: s.Width, Height: s.Height}
}

// Snapshot returns the state of the popover registered as id.
func (r *Registry) Snapshot(id string) (Snapshot, bool) {
	reg, ok := r.entries[id]
	if !ok {
		return Snapshot{}, false
	}
	return r.snapshot(reg), true
}

// Snapshots returns the state of every registration in connection order.
func (r *Registry) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(r.entries))
	r.each(func(reg *registration) {
		out = append(out, r.snapshot(reg))
	})
	return out
}

func (r *Registry) snapshot(reg *registration) Snapshot {
	classes := reg.element.Classes()
	size := reg.element.Size()
	s := Snapshot{
		ID:       reg.id,
		Anchor:   reg.anchorID,
		Open:     geometry.ParseFlags(classes).Open,
		Placed:   reg.placed,
		Anchored: reg.anchored,
		Left:     reg.left,
		Top:      reg.top,
		Width:    size.Width,
		Height:   size.Height,
		Flip:     reg.direction.String(),
		Classes:  flip.ReplaceTokens(classes, reg.direction),
		OffsetX:  reg.deltaX,
		OffsetY:  reg.deltaY,
		Passes:   reg.passes,
	}
	s.Placement = reg.placement.Tokens()
	if s.Placement == nil {
		s.Placement = []string{}
	}
	return s
}
