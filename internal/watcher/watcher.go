// Package watcher observes the active workspace's chart directory and
// reports files modified outside helmwright. The reconciler uses those
// reports to protect local edits from being clobbered on accept.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/helmwright/helmwright/logging"
	"github.com/sirupsen/logrus"
)

// DefaultDebounceMs is used when the configured debounce is missing or
// nonsensical.
const DefaultDebounceMs = 250

// Watcher watches a chart directory tree for writes. fsnotify does not
// recurse, so every subdirectory is added explicitly and new directories
// are picked up as they appear.
type Watcher struct {
	watcher    *fsnotify.Watcher
	chartDir   string
	ignore     *IgnoreMatcher
	debounceMs int
	lastChange map[string]time.Time
	mu         sync.Mutex
	logger     *logrus.Entry
	onChange   func(absPath string)
}

// New creates a watcher over chartDir. The onChange callback receives the
// absolute path of each changed file, after debouncing and .helmignore
// filtering.
func New(chartDir string, debounceMs int, onChange func(string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger("watcher")

	ignore, err := LoadIgnore(chartDir)
	if err != nil {
		logger.WithError(err).Warn("Failed to load .helmignore, watching everything")
		ignore = nil
	}

	if debounceMs <= 0 {
		debounceMs = DefaultDebounceMs
	}

	w := &Watcher{
		watcher:    fsw,
		chartDir:   chartDir,
		ignore:     ignore,
		debounceMs: debounceMs,
		lastChange: make(map[string]time.Time),
		logger:     logger,
		onChange:   onChange,
	}

	if err := w.addRecursive(chartDir); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// addRecursive registers chartDir and every subdirectory under it,
// skipping ignored directories.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.WithError(err).Warnf("Failed to watch %s", path)
		}
		return nil
	})
}

// Start consumes filesystem events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)

	if w.ignored(event.Name) {
		return
	}

	// New directories need their own watch before anything inside them
	// can be seen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.WithError(err).Warnf("Failed to watch new directory %s", event.Name)
			}
			return
		}
	}

	w.handleChange(event.Name)
}

// handleChange debounces rapid writes to the same file before invoking the
// callback. Editors commonly write a file several times in one save.
func (w *Watcher) handleChange(absPath string) {
	w.mu.Lock()
	elapsed := time.Since(w.lastChange[absPath])
	if elapsed < time.Duration(w.debounceMs)*time.Millisecond {
		w.mu.Unlock()
		w.logger.Debugf("Debounced: %s (only %v since last change)", filepath.Base(absPath), elapsed)
		return
	}
	w.lastChange[absPath] = time.Now()
	w.mu.Unlock()

	w.logger.WithField("path", absPath).Debug("Chart file changed")
	if w.onChange != nil {
		w.onChange(absPath)
	}
}

// ignored reports whether the path matches a .helmignore pattern.
func (w *Watcher) ignored(absPath string) bool {
	if w.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(w.chartDir, absPath)
	if err != nil || rel == "." {
		return false
	}
	return w.ignore.Matches(rel)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
