package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/popanchor/internal/preview"
)

var previewOpts struct {
	watch   bool
	logFile string
}

var previewCmd = &cobra.Command{
	Use:   "preview <scene>",
	Short: "Explore a scene interactively in the terminal",
	Long: `Draw the scene in the terminal, one cell per cell_width x cell_height
pixels, and re-place popovers as the terminal is resized.

Key bindings:
  tab/shift+tab  Select popover
  o              Toggle open
  f              Toggle flip-always
  ←↓↑→, hjkl     Move the selected popover's anchor
  n, space       Apply the next scene step
  r              Reload scene
  ?              Toggle help
  q              Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().BoolVarP(&previewOpts.watch, "watch", "w", false,
		"Reload when the scene or config file changes")
	previewCmd.Flags().StringVar(&previewOpts.logFile, "log-file", "",
		"Write logs to this file while the preview owns the terminal")
}

func runPreview(cmd *cobra.Command, args []string) error {
	previewLogger := slog.New(slog.DiscardHandler)
	if previewOpts.logFile != "" {
		f, err := os.OpenFile(previewOpts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()

		level := slog.LevelInfo
		if globalOpts.verbose {
			level = slog.LevelDebug
		}
		previewLogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return preview.Run(preview.RunOptions{
		Path:       args[0],
		Config:     cfg,
		Logger:     previewLogger,
		Watch:      previewOpts.watch,
		ConfigPath: configPath(),
	})
}
