package scheduler

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"time"

	"content-indexer/internal/filesystem"
	"content-indexer/internal/logging"
	"content-indexer/internal/metrics"
	"content-indexer/internal/scanner"
)

// WorkItem identifies one unit of indexing work. Identity is by value: the
// pending set collapses duplicate enqueues of the same triple, while a normal
// pass and its fixup retry are distinct items that can coexist.
type WorkItem struct {
	FullPath string
	RelPath  string
	Fixup    bool
}

// Dispatcher routes a file to the appropriate scanner and normalizes the
// result into an Outcome.
type Dispatcher interface {
	Scan(fullPath, relPath string, fixup bool) scanner.Outcome
}

// Store is the slice of the metadata store the scheduler needs: recording
// fingerprints after an item completes.
type Store interface {
	SetFingerprint(ctx context.Context, path, fingerprint string) error
	DeleteFingerprint(ctx context.Context, path string) error
}

// Scheduler owns the single-worker execution pipeline, the pending-work set,
// and the debounce/coalesce/retry logic that keeps the index consistent with
// the content tree.
type Scheduler struct {
	pipeline *Pipeline
	dispatch Dispatcher
	store    Store
	waitTime time.Duration

	// fingerprintFn is swappable in tests.
	fingerprintFn func(path string) (string, error)

	mu      sync.Mutex
	pending map[WorkItem]struct{}
	running *workerHandle
}

// workerHandle tracks the currently-running (or about-to-run) batch task.
// A new batch is scheduled only when no handle exists or the existing one
// has completed.
type workerHandle struct {
	done chan struct{}
}

func newWorkerHandle() *workerHandle {
	return &workerHandle{done: make(chan struct{})}
}

func (h *workerHandle) finish() {
	close(h.done)
}

func (h *workerHandle) isDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// New creates a Scheduler. waitTime is the debounce interval applied before
// a drain pass starts, batching a burst of near-simultaneous events into one
// pass; zero disables debouncing.
func New(dispatch Dispatcher, store Store, waitTime time.Duration) *Scheduler {
	return &Scheduler{
		pipeline:      NewPipeline(),
		dispatch:      dispatch,
		store:         store,
		waitTime:      waitTime,
		fingerprintFn: filesystem.Fingerprint,
		pending:       make(map[WorkItem]struct{}),
	}
}

// Enqueue adds a work item to the pending set and triggers scheduling with
// the configured debounce delay. It never blocks the caller beyond the
// pending-set lock and never fails; indexing errors surface only in logs.
func (s *Scheduler) Enqueue(fullPath, relPath string, fixup bool) {
	metrics.SchedulerEnqueuesTotal.Inc()

	s.mu.Lock()
	s.pending[WorkItem{FullPath: fullPath, RelPath: relPath, Fixup: fixup}] = struct{}{}
	s.mu.Unlock()

	s.schedule(s.waitTime)
}

// schedule starts a drain pass unless one is already in flight. The debounce
// sleep is submitted as its own task ahead of the drain task: with a single
// worker the queue ordering makes the drain wait out the full interval
// without ever holding the pending-set lock.
func (s *Scheduler) schedule(wait time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running != nil && !s.running.isDone() {
		// The active or next drain pass will pick up whatever is pending.
		return
	}

	if wait > 0 {
		s.pipeline.Submit(func() { time.Sleep(wait) })
	}

	handle := newWorkerHandle()
	s.running = handle
	s.pipeline.Submit(func() {
		defer handle.finish()
		s.drainPending()
	})

	logging.Debug("indexer worker scheduled (wait %v)", wait)
}

// drainPending atomically swaps the pending set for an empty one and
// processes the snapshot outside the lock. If the snapshot was non-empty it
// schedules another pass with zero delay to catch anything enqueued while
// this one ran; the loop terminates when a pass observes an empty set.
func (s *Scheduler) drainPending() {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("drain pass failed: %v", r)
		}
	}()

	s.mu.Lock()
	items := s.pending
	s.pending = make(map[WorkItem]struct{})
	s.mu.Unlock()

	logging.Debug("Processing %d files", len(items))
	metrics.SchedulerBatchesTotal.Inc()
	metrics.SchedulerBatchSize.Observe(float64(len(items)))

	for item := range items {
		s.processOne(item)
	}

	// Catch-up runs immediately: the debounce delay is only for external
	// bursts, not self-generated work.
	if len(items) > 0 {
		s.pipeline.Submit(func() { s.schedule(0) })
	}
}

// processOne dispatches a single item and applies the retry/fingerprint
// protocol to its outcome.
func (s *Scheduler) processOne(item WorkItem) {
	logging.Debug("Scanning file: %s (%s) fixup=%v", item.FullPath, item.RelPath, item.Fixup)

	outcome := s.safeScan(item)

	switch {
	case outcome == scanner.OutcomeTransientFailure && !item.Fixup:
		// Give the scanner one chance to normalize the file and retry.
		logging.Info("Scheduling fixup for %s", item.FullPath)
		metrics.SchedulerFixupsTotal.Inc()
		metrics.SchedulerItemsTotal.WithLabelValues(outcome.String()).Inc()
		s.Enqueue(item.FullPath, item.RelPath, true)

	case outcome == scanner.OutcomeTransientFailure && item.Fixup:
		// Fixup also failed: terminal. The fingerprint is still recorded so
		// the file is not re-attempted until its content changes again.
		logging.Error("Giving up on %s: fixup scan also failed", item.FullPath)
		metrics.SchedulerItemsTotal.WithLabelValues("terminal_failure").Inc()
		s.recordFingerprint(item.FullPath)

	case outcome == scanner.OutcomeNotApplicable:
		// Scanner declined; leave the store untouched so the next tree scan
		// reconsiders the file.
		logging.Debug("%s not applicable", item.FullPath)
		metrics.SchedulerItemsTotal.WithLabelValues(outcome.String()).Inc()

	default:
		// Success, or an unindexable extension treated as success for
		// fingerprinting purposes.
		logging.Debug("%s complete", item.FullPath)
		metrics.SchedulerItemsTotal.WithLabelValues(outcome.String()).Inc()
		s.recordFingerprint(item.FullPath)
	}
}

// safeScan invokes the dispatcher with panic containment: an unexpected
// panic in a scanner is downgraded to a transient failure so it cannot abort
// the batch or kill the worker.
func (s *Scheduler) safeScan(item WorkItem) (outcome scanner.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Got error parsing %s: %v", item.FullPath, r)
			outcome = scanner.OutcomeTransientFailure
		}
	}()
	return s.dispatch.Scan(item.FullPath, item.RelPath, item.Fixup)
}

// recordFingerprint stores the file's current content fingerprint. A file
// that vanished since the scan is pruned from the store instead.
func (s *Scheduler) recordFingerprint(path string) {
	ctx := context.Background()

	fingerprint, err := s.fingerprintFn(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if delErr := s.store.DeleteFingerprint(ctx, path); delErr != nil {
				logging.Error("Failed to prune fingerprint for %s: %v", path, delErr)
			}
			return
		}
		logging.Warn("Failed to fingerprint %s: %v", path, err)
		return
	}

	if err := s.store.SetFingerprint(ctx, path, fingerprint); err != nil {
		logging.Error("Failed to record fingerprint for %s: %v", path, err)
	}
}

// Submit dispatches an auxiliary task (directory walks, prune passes) onto
// the same single-worker pipeline as batch processing.
func (s *Scheduler) Submit(task func()) bool {
	return s.pipeline.Submit(task)
}

// QueueDepth returns the best-effort number of outstanding pipeline tasks,
// for observability.
func (s *Scheduler) QueueDepth() int {
	return s.pipeline.Depth()
}

// PendingItems returns the number of work items waiting for the next drain.
func (s *Scheduler) PendingItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops the pipeline after letting already-queued work finish. Items
// still pending are dropped; a fresh tree scan on restart rediscovers them.
func (s *Scheduler) Close() {
	s.pipeline.Close()
}
