package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last file event before the
// configuration is reloaded.
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc receives every configuration that reloaded and validated.
type ReloadFunc func(cfg *Config)

// Watcher reloads a configuration file when it changes. Editors often replace
// a file instead of writing it in place, so the parent directory is watched
// and events are filtered by file name.
type Watcher struct {
	path     string
	debounce time.Duration
	onReload ReloadFunc
	logger   *slog.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	closed  bool
}

// NewWatcher creates a watcher for path. onReload is called from a timer
// goroutine after each successful reload.
func NewWatcher(path string, debounce time.Duration, onReload ReloadFunc) (*Watcher, error) {
	if onReload == nil {
		return nil, errors.New("reload callback is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		onReload: onReload,
		logger:   slog.Default().With("component", "config.watcher"),
		watcher:  fw,
	}, nil
}

// SetLogger sets a custom logger for the watcher.
func (w *Watcher) SetLogger(logger *slog.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger = logger.With("component", "config.watcher")
}

// Watch processes file events until ctx is cancelled or the watcher is
// closed. It blocks.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	logger := w.logger
	w.mu.Unlock()

	defer w.Close()

	logger.Info("config watcher started", "path", w.path, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("config file event", "path", event.Name, "op", event.Op.String())
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error", "error", err)
		}
	}
}

// relevant reports whether event concerns the watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}

// schedule (re)starts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

// reload loads the file and hands it to the callback. An invalid file keeps
// the previous configuration in place.
func (w *Watcher) reload() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	logger := w.logger
	w.mu.Unlock()

	cfg, err := ReloadConfig(w.path)
	if err != nil {
		logger.Error("config reload rejected, keeping previous configuration", "path", w.path, "error", err)
		return
	}

	logger.Info("config reloaded", "path", w.path)
	w.onReload(cfg)
}

// Close stops the watcher and cancels a pending reload.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}
