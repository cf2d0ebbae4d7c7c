package report

import (
	"fmt"
	"io"
)

// Formatter writes a report.
type Formatter interface {
	// Format writes the report to the writer.
	Format(w io.Writer, r *Report) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (FormatType, error) {
	switch FormatType(s) {
	case FormatPlain, FormatJSON:
		return FormatType(s), nil
	default:
		return "", fmt.Errorf("unknown format %q, must be plain or json", s)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template    string // Custom per-popover template for plain format
	Precision   int    // Decimals for coordinates in plain format
	ShowClasses bool   // Include effective class tokens
	FinalOnly   bool   // Only write the last frame
}

// DefaultFormatterOptions returns the options used by the CLI.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		Precision: 2,
		FinalOnly: true,
	}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

func frames(r *Report, finalOnly bool) []Frame {
	if finalOnly {
		if last, ok := r.Last(); ok {
			return []Frame{last}
		}
		return nil
	}
	return r.Frames
}
