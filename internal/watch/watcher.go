// Package watch reports changes to scene and configuration files.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a set of files and reports each changed path once a
// burst of events has settled.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	logger   *slog.Logger
	changes  chan string
	done     chan struct{}
	mu       sync.Mutex
	running  bool
	stopped  bool
}

// NewFileWatcher creates a watcher for paths. Events for the same file within
// debounce of each other are reported once.
func NewFileWatcher(debounce time.Duration, logger *slog.Logger, paths ...string) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	files := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		files[abs] = struct{}{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		watcher:  watcher,
		files:    files,
		debounce: debounce,
		logger:   logger,
		changes:  make(chan string, 8),
		done:     make(chan struct{}),
	}, nil
}

// Changes delivers the absolute path of every changed file.
func (fw *FileWatcher) Changes() <-chan string {
	return fw.changes
}

// Files returns the watched files in sorted order.
func (fw *FileWatcher) Files() []string {
	out := make([]string, 0, len(fw.files))
	for f := range fw.files {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Start begins watching.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	if fw.running || fw.stopped {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	// Watch the containing directories; editors often replace files on save.
	dirs := make(map[string]struct{})
	for f := range fw.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for dir := range dirs {
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			fw.logger.Debug("not watching missing directory", "dir", dir)
			continue
		}
		if err := fw.watcher.Add(dir); err != nil {
			fw.mu.Lock()
			fw.running = false
			fw.mu.Unlock()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	go fw.watch()
	return nil
}

// watch is the main watch loop.
func (fw *FileWatcher) watch() {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(event.Name)
			if _, watched := fw.files[name]; !watched {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			fw.logger.Debug("file changed", "file", name, "op", event.Op.String())
			pending[name] = struct{}{}
			if fw.debounce <= 0 {
				if !fw.flush(pending) {
					return
				}
				continue
			}
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if !fw.flush(pending) {
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "error", err)

		case <-fw.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// flush sends pending paths in sorted order and reports false once stopped.
func (fw *FileWatcher) flush(pending map[string]struct{}) bool {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
		delete(pending, p)
	}
	slices.Sort(paths)

	for _, p := range paths {
		select {
		case fw.changes <- p:
		case <-fw.done:
			return false
		}
	}
	return true
}

// Stop stops the watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.stopped {
		return nil
	}
	fw.stopped = true
	fw.running = false
	close(fw.done)
	return fw.watcher.Close()
}
