package report

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes the report as an indented JSON object.
func (f *JSONFormatter) Format(w io.Writer, r *Report) error {
	out := Report{Scene: r.Scene, Frames: frames(r, f.opts.FinalOnly)}
	if out.Frames == nil {
		out.Frames = []Frame{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
