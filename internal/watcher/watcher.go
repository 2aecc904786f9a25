// Package watcher translates live filesystem events into scheduler work
// items. It is a thin adapter: debouncing and batching happen in the
// scheduler, so every relevant event becomes one Enqueue call.
package watcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"content-indexer/internal/logging"
	"content-indexer/internal/metrics"
)

// Enqueuer is the scheduler operation the watcher needs.
type Enqueuer interface {
	Enqueue(fullPath, relPath string, fixup bool)
}

// Watcher monitors a content directory tree for changes.
type Watcher struct {
	watcher    *fsnotify.Watcher
	sched      Enqueuer
	contentDir string

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a watcher for contentDir that feeds sched.
func New(contentDir string, sched Enqueuer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:    fsWatcher,
		sched:      sched,
		contentDir: contentDir,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Start registers the directory tree and begins processing events.
func (w *Watcher) Start() error {
	if err := w.addRecursive(w.contentDir); err != nil {
		return err
	}

	go w.processEvents()

	logging.Info("Watching %s for changes", w.contentDir)
	return nil
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	<-w.doneCh
	return w.watcher.Close()
}

// addRecursive registers path and every subdirectory beneath it. fsnotify
// watches are per-directory, so new subdirectories are added as their
// create events arrive.
func (w *Watcher) addRecursive(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable paths
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(p), ".") && p != path {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

func (w *Watcher) processEvents() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			metrics.WatcherErrorsTotal.Inc()
			logging.Error("watcher error: %v", err)
		}
	}
}

// handleEvent turns one fsnotify event into an Enqueue call. A rename
// delivers the old path here; the new path arrives as its own create event,
// so a move ends up as two enqueues. Events for directories are not
// enqueued, but a created directory is added to the watch list.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := w.addRecursive(event.Name); err != nil {
				logging.Warn("failed to watch new directory %s: %v", event.Name, err)
			}
		}
		return
	}

	var op string
	switch {
	case event.Op&fsnotify.Create != 0:
		op = "create"
	case event.Op&fsnotify.Write != 0:
		op = "write"
	case event.Op&fsnotify.Remove != 0:
		op = "remove"
	case event.Op&fsnotify.Rename != 0:
		op = "rename"
	default:
		return
	}
	metrics.WatcherEventsTotal.WithLabelValues(op).Inc()

	logging.Debug("file %s: %s", op, event.Name)
	w.update(event.Name)
}

// update enqueues a normal (non-fixup) scan for one path. Removed files go
// through the same path: the scan fails fast and the fingerprint record is
// pruned when the store notices the file is gone.
func (w *Watcher) update(fullPath string) {
	relPath, err := filepath.Rel(w.contentDir, fullPath)
	if err != nil {
		relPath = ""
	}
	w.sched.Enqueue(fullPath, relPath, false)
}
