package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/popanchor/internal/config"
	"github.com/jmylchreest/popanchor/internal/popover"
	"github.com/jmylchreest/popanchor/internal/report"
	"github.com/jmylchreest/popanchor/internal/scene"
)

var placeOpts struct {
	format   string
	steps    bool
	classes  bool
	template string
}

var placeCmd = &cobra.Command{
	Use:   "place <scene>",
	Short: "Place the popovers of a scene and print their positions",
	Long: `Build the scene's document, connect its popovers, apply every step and
print where each popover ended up.

Examples:
  # Final positions as a table
  popanchor place menu.yaml

  # Positions after every step
  popanchor place menu.yaml --steps

  # Machine readable output
  popanchor place menu.yaml --format json

  # One line per popover
  popanchor place menu.yaml --template '{{.ID}} {{num .Left}},{{num .Top}} {{.Flip}}'`,
	Args: cobra.ExactArgs(1),
	RunE: runPlace,
}

func init() {
	rootCmd.AddCommand(placeCmd)

	placeCmd.Flags().StringVarP(&placeOpts.format, "format", "f", "plain",
		"Output format (plain, json)")
	placeCmd.Flags().BoolVar(&placeOpts.steps, "steps", false,
		"Print the positions after every step, not only the final ones")
	placeCmd.Flags().BoolVar(&placeOpts.classes, "classes", false,
		"Include the effective class tokens of each popover")
	placeCmd.Flags().StringVar(&placeOpts.template, "template", "",
		"Custom Go template per popover (plain format only)")
}

func runPlace(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter(cfg)
	if err != nil {
		return err
	}
	return placeScene(os.Stdout, args[0], cfg, formatter)
}

// newFormatter builds the report formatter from the output flags, with the
// coordinate precision of c.
func newFormatter(c *config.Config) (report.Formatter, error) {
	format, err := report.ParseFormat(placeOpts.format)
	if err != nil {
		return nil, err
	}

	opts := report.DefaultFormatterOptions()
	opts.Template = placeOpts.template
	opts.ShowClasses = placeOpts.classes
	opts.FinalOnly = !placeOpts.steps
	if c != nil {
		opts.Precision = c.Placement.Precision
	}
	return report.NewFormatter(format, opts), nil
}

// placeScene runs the scene at path and writes its report. A failing step
// still writes the frames captured before it.
func placeScene(w io.Writer, path string, c *config.Config, formatter report.Formatter) error {
	r, runErr := runScene(path, c)
	if r == nil {
		return runErr
	}
	if err := formatter.Format(w, r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return runErr
}

// runScene loads, mounts and runs the scene at path, capturing a frame after
// connecting and after every step.
func runScene(path string, c *config.Config) (*report.Report, error) {
	if c == nil {
		c = config.DefaultConfig()
	}

	s, err := scene.Load(path)
	if err != nil {
		return nil, err
	}

	sess, err := s.Mount(popover.OptionsFromConfig(c.Placement), c.Placement.ResizeLoopLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer sess.Close()

	logger.Debug("scene mounted", "path", path,
		"popovers", sess.Registry.Len(), "steps", len(s.Steps))

	r := report.New(filepath.Base(path))
	r.Capture(0, "initial", sess.Registry)

	err = s.Run(sess.Doc, sess.Registry, func(i int, st scene.Step) {
		r.Capture(i+1, st.Label(), sess.Registry)
	})
	if err != nil {
		return r, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
