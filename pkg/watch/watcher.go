// Package watch re-runs the evaluation when repository files change.
// It watches the repository tree recursively with fsnotify and
// debounces event bursts, so one save (or one git checkout) triggers
// one re-evaluation.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config contains configuration for the watcher.
type Config struct {
	// Root is the repository root to watch recursively.
	Root string

	// ExtraPaths lists additional files or directories to watch, such
	// as a config file outside the root.
	ExtraPaths []string

	// Debounce is the quiet period after the last event before the
	// callback fires.
	// Default: 500ms
	Debounce time.Duration

	// IgnoreDirs lists directory names excluded from watching wherever
	// they appear, matching the inventory scan's exclusions.
	IgnoreDirs []string
}

// Watcher watches repository files and triggers debounced re-runs.
type Watcher struct {
	watcher  *fsnotify.Watcher
	config   *Config
	debounce *Debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a watcher over the configured paths.
func New(cfg *Config, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fsw,
		config:   cfg,
		debounce: NewDebouncer(cfg.Debounce),
		logger:   logger.With("component", "watch"),
	}, nil
}

// Run watches until ctx is canceled, invoking onChange after each
// debounced burst of events. Watch errors are logged, not fatal.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.debounce.Stop()
		w.watcher.Close()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if err := w.addTree(w.config.Root); err != nil {
		return fmt.Errorf("failed to watch repository root: %w", err)
	}
	for _, p := range w.config.ExtraPaths {
		if err := w.addPath(p); err != nil {
			return fmt.Errorf("failed to watch %q: %w", p, err)
		}
	}

	w.logger.Info("watching for changes",
		"root", w.config.Root,
		"debounce", w.config.Debounce,
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcess(event) {
				continue
			}
			// A new directory has to be added to the watch before
			// events inside it can arrive.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.ignored(event.Name) {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())
			w.debounce.Trigger(onChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// addPath watches a single file or, for directories, the whole tree.
func (w *Watcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return w.addTree(path)
	}
	return w.watcher.Add(path)
}

// addTree watches dir and every non-ignored subdirectory.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignoredName(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		return nil
	})
}

// shouldProcess filters events that never warrant a re-run.
func (w *Watcher) shouldProcess(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if w.ignored(event.Name) {
		return false
	}
	return true
}

// ignored reports whether any path segment is an ignored directory.
func (w *Watcher) ignored(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if w.ignoredName(seg) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignoredName(name string) bool {
	for _, dir := range w.config.IgnoreDirs {
		if name == dir {
			return true
		}
	}
	return name == ".git"
}

// Debouncer collects rapid events and fires the callback only after a
// quiet period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopped  bool
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger arms (or re-arms) the debounce timer with a new callback.
// The callback runs after the interval elapses with no further
// triggers.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		cb := d.callback
		stopped := d.stopped
		d.mu.Unlock()

		if cb != nil && !stopped {
			cb()
		}
	})
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
