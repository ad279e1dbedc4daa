package template

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Store when template files change on disk.
//
// Editors and copy tools tend to write a file in several steps, so events
// are collected until the directory has been quiet for Quiet, then a single
// reload runs. A reload that fails (typically on a half-written file) is
// retried a few times before the watcher gives up and keeps the previous
// registry.
type Watcher struct {
	store  *Store
	logger *slog.Logger

	// Tick is how often pending changes are checked.
	Tick time.Duration
	// Quiet is how long no events must arrive before reloading.
	Quiet time.Duration
	// Attempts and Delay bound the reload retries.
	Attempts uint
	Delay    time.Duration
}

// NewWatcher creates a watcher for the store's template directories.
func NewWatcher(store *Store, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store:    store,
		logger:   logger,
		Tick:     250 * time.Millisecond,
		Quiet:    300 * time.Millisecond,
		Attempts: 3,
		Delay:    500 * time.Millisecond,
	}
}

// Dirs returns the distinct directories holding the store's sources, or
// the root alone when the store discovers its templates.
func (w *Watcher) Dirs() []string {
	root := w.store.Root()
	if w.store.Discovering() {
		return []string{filepath.Clean(root)}
	}
	seen := make(map[string]bool)
	dirs := make([]string, 0)
	for _, src := range w.store.Sources() {
		path := src
		if root != "" && !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		dir := filepath.Clean(filepath.Dir(path))
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Run watches until ctx is cancelled.
//
// Returns:
//   - error: Non-nil if the watcher cannot be created or a directory cannot
//     be watched. Reload failures are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.Dirs() {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.logger.Info("watching templates", "dir", dir)
	}

	ticker := time.NewTicker(w.Tick)
	defer ticker.Stop()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isTemplateFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("template change", "file", ev.Name, "op", ev.Op.String())
			last = time.Now()
		case <-ticker.C:
			if last.IsZero() || time.Since(last) < w.Quiet {
				continue
			}
			last = time.Time{}
			w.reload(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("template watch error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	err := retry.Do(
		w.store.Reload,
		retry.Context(ctx),
		retry.Attempts(w.Attempts),
		retry.Delay(w.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		w.logger.Error("giving up on template reload", "error", err)
	}
}

func isTemplateFile(name string) bool {
	_, err := FormatOf(name)
	return err == nil
}
