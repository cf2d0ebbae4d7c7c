// Package report collects popover placements while a scene runs and writes
// them in plain or JSON form.
package report

import (
	"github.com/jmylchreest/popanchor/internal/popover"
)

// Frame is the state of every registration after one step. Step 0 is the
// state right after connecting.
type Frame struct {
	Step     int                `json:"step"`
	Label    string             `json:"label"`
	Width    float64            `json:"window_width"`
	Height   float64            `json:"window_height"`
	Popovers []popover.Snapshot `json:"popovers"`
}

// Report is the sequence of frames captured for one scene.
type Report struct {
	Scene  string  `json:"scene,omitempty"`
	Frames []Frame `json:"frames"`
}

// New creates an empty report for the named scene.
func New(scene string) *Report {
	return &Report{Scene: scene, Frames: []Frame{}}
}

// Capture appends a frame with the registry's current snapshots.
func (r *Report) Capture(step int, label string, reg *popover.Registry) {
	w, h := reg.Document().WindowSize()
	r.Frames = append(r.Frames, Frame{
		Step:     step,
		Label:    label,
		Width:    w,
		Height:   h,
		Popovers: reg.Snapshots(),
	})
}

// Last returns the most recent frame.
func (r *Report) Last() (Frame, bool) {
	if len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

// Passes returns the number of placement passes seen per popover id.
func (r *Report) Passes() map[string]int {
	out := make(map[string]int)
	for _, f := range r.Frames {
		for _, s := range f.Popovers {
			if s.Passes > out[s.ID] {
				out[s.ID] = s.Passes
			}
		}
	}
	return out
}

// TotalPasses sums Passes over every popover.
func (r *Report) TotalPasses() int {
	total := 0
	for _, n := range r.Passes() {
		total += n
	}
	return total
}
