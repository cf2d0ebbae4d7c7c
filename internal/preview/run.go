package preview

import (
	"log/slog"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/popanchor/internal/config"
	"github.com/jmylchreest/popanchor/internal/scene"
	"github.com/jmylchreest/popanchor/internal/watch"
)

// RunOptions configures the preview program.
type RunOptions struct {
	Path   string
	Config *config.Config
	Logger *slog.Logger

	// Watch reloads the scene whenever the file (or ConfigPath) changes.
	Watch      bool
	ConfigPath string
}

// Run starts the preview and blocks until the user quits.
func Run(opts RunOptions) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m, err := New(Options{
		Name:   filepath.Base(opts.Path),
		Load:   func() (*scene.Scene, error) { return scene.Load(opts.Path) },
		Config: cfg,
		Logger: logger,

		ConfigPath: opts.ConfigPath,
	})
	if err != nil {
		return err
	}

	var watcher *watch.FileWatcher
	if opts.Watch {
		watcher, err = watch.NewFileWatcher(cfg.Watch.Debounce.Duration(), logger, opts.Path, opts.ConfigPath)
		if err != nil {
			logger.Warn("failed to create file watcher", "error", err)
		} else if err := watcher.Start(); err != nil {
			logger.Warn("failed to start file watcher", "error", err)
		} else {
			m.changes = watcher.Changes()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()

	if watcher != nil {
		_ = watcher.Stop()
	}
	return err
}
