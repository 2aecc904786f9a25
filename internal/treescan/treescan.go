// Package treescan performs one-shot full-tree reconciliation: it walks the
// content directory, compares on-disk fingerprints against the store, feeds
// differences into the scheduler, and prunes store records whose files have
// vanished. Deletions produce no modify event, so the prune passes are what
// eventually detects them.
package treescan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"content-indexer/internal/contenttypes"
	"content-indexer/internal/database"
	"content-indexer/internal/filesystem"
	"content-indexer/internal/logging"
	"content-indexer/internal/metrics"
	"content-indexer/internal/scheduler"
)

// Store is the slice of the metadata store the tree scanner needs.
type Store interface {
	GetFingerprint(ctx context.Context, path string) (string, error)
	PruneMissing(ctx context.Context, kind database.RecordKind) (int64, error)
}

// Scanner reconciles the content tree with the metadata store.
type Scanner struct {
	sched      *scheduler.Scheduler
	store      Store
	contentDir string

	// fingerprintFn is swappable in tests.
	fingerprintFn func(path string) (string, error)
}

// New creates a tree scanner for contentDir.
func New(sched *scheduler.Scheduler, store Store, contentDir string) *Scanner {
	return &Scanner{
		sched:         sched,
		store:         store,
		contentDir:    contentDir,
		fingerprintFn: filesystem.Fingerprint,
	}
}

// ScanIndex walks the whole content directory, following symbolic links, and
// dispatches each directory's file comparisons as a task on the scheduler's
// pipeline. After all directories are scheduled it schedules one prune pass
// per record kind. The walk itself only enumerates directories; the per-file
// fingerprint work runs on the pipeline.
func (s *Scanner) ScanIndex() {
	logging.Debug("Reindexing content from %s", s.contentDir)
	metrics.TreeScanRunsTotal.Inc()
	metrics.TreeScanLastRunTimestamp.Set(float64(time.Now().Unix()))

	visited := make(map[string]bool)
	s.walkDirectory(s.contentDir, visited)

	for _, kind := range database.AllRecordKinds {
		kind := kind
		s.sched.Submit(func() {
			if _, err := s.store.PruneMissing(context.Background(), kind); err != nil {
				logging.Error("Error pruning %s records: %v", kind, err)
			}
		})
	}
}

// walkDirectory recursively enumerates dir, submitting a scan task for its
// files and recursing into subdirectories. Symlinked directories are
// followed once; the visited set (keyed by resolved path) guards cycles.
func (s *Scanner) walkDirectory(dir string, visited map[string]bool) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		logging.Warn("Error resolving directory %s: %v", dir, err)
		return
	}
	if visited[resolved] {
		return
	}
	visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("Error reading directory %s: %v", dir, err)
		return
	}

	metrics.TreeScanDirectoriesTotal.Inc()

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		full := filepath.Join(dir, name)

		// os.Stat follows symlinks, so a linked directory recurses and a
		// linked file is compared like any other.
		info, err := os.Stat(full)
		if err != nil {
			logging.Warn("Error accessing path %s: %v", full, err)
			continue
		}

		if info.IsDir() {
			s.walkDirectory(full, visited)
		} else {
			files = append(files, full)
		}
	}

	if len(files) == 0 {
		return
	}

	s.sched.Submit(func() { s.scanDirectory(dir, files) })
}

// scanDirectory compares each file's current fingerprint against the store
// and enqueues a normal (non-fixup) work item for every difference. Runs on
// the scheduler's pipeline.
func (s *Scanner) scanDirectory(dir string, files []string) {
	logging.Debug("scanning directory %s", dir)

	for _, full := range files {
		if !contenttypes.IsScannable(strings.ToLower(filepath.Ext(full))) {
			continue
		}

		fingerprint, err := s.fingerprintFn(full)
		if err != nil {
			// Deleted mid-scan; the prune pass handles the record.
			logging.Debug("Error fingerprinting %s: %v", full, err)
			continue
		}

		last, err := s.store.GetFingerprint(context.Background(), full)
		if err != nil {
			logging.Error("Error reading fingerprint for %s: %v", full, err)
			continue
		}

		if fingerprint != last {
			logging.Debug("%s: %q -> %q", full, last, fingerprint)
			metrics.TreeScanChangedFiles.Inc()

			relPath, relErr := filepath.Rel(s.contentDir, full)
			if relErr != nil {
				relPath = ""
			}
			s.sched.Enqueue(full, relPath, false)
		}
	}
}
