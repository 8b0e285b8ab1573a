package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// NewWatcher starts watching the directory holding path. Editors often replace
// files instead of writing them in place, so the directory is watched rather
// than the file itself.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}
	return &Watcher{
		path:    path,
		watcher: watcher,
		logger:  logger.With("component", "config"),
	}, nil
}

// Run blocks until ctx is done, calling apply with each successfully reloaded
// config. Parse failures are logged and the previous config stays in effect.
func (w *Watcher) Run(ctx context.Context, apply func(*Config)) error {
	defer w.watcher.Close()

	var debounce *time.Timer
	reload := func() {
		cfg, err := LoadPath(w.path)
		if err != nil {
			w.logger.Warn("config reload failed", "path", w.path, "err", err)
			return
		}
		w.logger.Info("config reloaded", "path", w.path)
		apply(cfg)
	}

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, reload)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "err", err)
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil
		}
	}
}
