// internal/config/watch.go
package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-loads a config file whenever it changes on disk.
//
// Editors replace files rather than write them in place, so the parent
// directory is watched and events are filtered by name. Bursts of events
// (truncate + write + chmod) are collapsed with a short settle delay.
type Watcher struct {
	path     string
	settle   time.Duration
	onChange func(*Config)
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for path. onChange receives only configs
// that passed Validate and Normalize.
func NewWatcher(path string, onChange func(*Config), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config watch: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watch: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("config watch: %w", err)
	}
	return &Watcher{
		path:     abs,
		settle:   250 * time.Millisecond,
		onChange: onChange,
		logger:   logger,
		watcher:  w,
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var settle *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(w.settle)
			} else {
				settle.Reset(w.settle)
			}
			fire = settle.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadValid(w.path)
	if err != nil {
		w.logger.Error("config reload rejected, keeping previous configuration",
			"path", w.path, "error", err)
		return
	}
	w.logger.Info("config reloaded", "path", w.path)
	w.onChange(cfg)
}
