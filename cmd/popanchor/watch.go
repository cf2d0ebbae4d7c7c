package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/popanchor/internal/config"
	"github.com/jmylchreest/popanchor/internal/report"
	"github.com/jmylchreest/popanchor/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <scene>",
	Short: "Re-place a scene whenever it or the config changes",
	Long: `Run the scene like "place" and run it again every time the scene file
or the config file is written. Stop with Ctrl+C.

Accepts the same output flags as "place".`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&placeOpts.format, "format", "f", "plain",
		"Output format (plain, json)")
	watchCmd.Flags().BoolVar(&placeOpts.steps, "steps", false,
		"Print the positions after every step, not only the final ones")
	watchCmd.Flags().BoolVar(&placeOpts.classes, "classes", false,
		"Include the effective class tokens of each popover")
	watchCmd.Flags().StringVar(&placeOpts.template, "template", "",
		"Custom Go template per popover (plain format only)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := newFormatter(cfg); err != nil {
		return err
	}
	return watchScene(ctx, os.Stdout, args[0], configPath(), newFormatter)
}

// watchScene places the scene once, then again after every change to the
// scene or config file until ctx is done. Errors from a run are logged so a
// broken edit does not end the session. The formatter is rebuilt whenever the
// config is reloaded.
func watchScene(ctx context.Context, w io.Writer, path, cfgPath string, makeFormatter func(*config.Config) (report.Formatter, error)) error {
	current := cfg
	if current == nil {
		current = config.DefaultConfig()
	}
	formatter, err := makeFormatter(current)
	if err != nil {
		return err
	}

	var absCfg string
	if cfgPath != "" {
		if absCfg, err = filepath.Abs(cfgPath); err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	watcher, err := watch.NewFileWatcher(current.Watch.Debounce.Duration(), logger, path, cfgPath)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			logger.Warn("failed to stop file watcher", "error", err)
		}
	}()

	logger.Info("watching", "files", watcher.Files())
	if err := placeScene(w, path, current, formatter); err != nil {
		logger.Error("placement failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-watcher.Changes():
			if !ok {
				return nil
			}
			logger.Debug("file changed", "path", changed)

			if absCfg != "" && changed == absCfg {
				if next, nextFormatter, err := reloadConfig(cfgPath, makeFormatter); err != nil {
					logger.Error("failed to reload config, keeping previous", "error", err)
				} else {
					current, formatter = next, nextFormatter
				}
			}

			fmt.Fprintf(w, "\n--- %s changed ---\n", filepath.Base(changed))
			if err := placeScene(w, path, current, formatter); err != nil {
				logger.Error("placement failed", "error", err)
			}
		}
	}
}

func reloadConfig(path string, makeFormatter func(*config.Config) (report.Formatter, error)) (*config.Config, report.Formatter, error) {
	next, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	formatter, err := makeFormatter(next)
	if err != nil {
		return nil, nil, err
	}
	return next, formatter, nil
}
