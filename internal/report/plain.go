package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/jmylchreest/popanchor/internal/popover"
)

// PlainFormatter formats reports as aligned text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// templateData is passed to custom templates, once per popover.
type templateData struct {
	Step  int
	Label string
	popover.Snapshot
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(f.templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

func (f *PlainFormatter) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"num":     f.num,
		"ordinal": humanize.Ordinal,
		"join":    strings.Join,
	}
}

func (f *PlainFormatter) num(v float64) string {
	return humanize.FtoaWithDigits(v, f.opts.Precision)
}

// Format writes one block per frame followed by a summary line.
func (f *PlainFormatter) Format(w io.Writer, r *Report) error {
	for i, fr := range frames(r, f.opts.FinalOnly) {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := f.formatFrame(w, fr); err != nil {
			return err
		}
	}

	passes := r.Passes()
	total := r.TotalPasses()
	_, err := fmt.Fprintf(w, "\n%s, %s placement %s\n",
		english.Plural(len(passes), "popover", ""),
		humanize.Comma(int64(total)),
		english.PluralWord(total, "pass", "passes"))
	return err
}

func heading(fr Frame) string {
	if fr.Step == 0 {
		return fmt.Sprintf("initial (window %gx%g)", fr.Width, fr.Height)
	}
	return fmt.Sprintf("after %s step: %s (window %gx%g)", humanize.Ordinal(fr.Step), fr.Label, fr.Width, fr.Height)
}

func (f *PlainFormatter) formatFrame(w io.Writer, fr Frame) error {
	if _, err := fmt.Fprintln(w, heading(fr)); err != nil {
		return err
	}
	if len(fr.Popovers) == 0 {
		_, err := fmt.Fprintln(w, "  no popovers connected")
		return err
	}

	// Use custom template if available
	if f.template != nil {
		for _, s := range fr.Popovers {
			data := templateData{Step: fr.Step, Label: fr.Label, Snapshot: s}
			if err := f.template.Execute(w, data); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "  ID\tANCHOR\tSTATE\tLEFT\tTOP\tSIZE\tFLIP\tPASSES"
	if f.opts.ShowClasses {
		header += "\tCLASSES"
	}
	fmt.Fprintln(tw, header)

	for _, s := range fr.Popovers {
		anchor := s.Anchor
		if anchor == "" {
			anchor = "-"
		} else if !s.Anchored {
			anchor += "*"
		}
		state := "closed"
		if s.Open {
			state = "open"
		}
		left, top := "-", "-"
		if s.Placed {
			left, top = f.num(s.Left), f.num(s.Top)
		}
		line := fmt.Sprintf("  %s\t%s\t%s\t%s\t%s\t%sx%s\t%s\t%d",
			s.ID, anchor, state, left, top, f.num(s.Width), f.num(s.Height), s.Flip, s.Passes)
		if f.opts.ShowClasses {
			line += "\t" + strings.Join(s.Classes, " ")
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
