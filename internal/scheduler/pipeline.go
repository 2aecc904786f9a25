package scheduler

import (
	"sync"

	"content-indexer/internal/logging"
	"content-indexer/internal/metrics"
)

// Pipeline is a single-worker task executor with an unbounded FIFO queue.
// One goroutine drains the queue, so every submitted task runs serialized
// with respect to all others. Batch processing, tree-walk directory tasks,
// and prune passes all share the same pipeline, which is what serializes
// index mutations without a lock around the scanners.
type Pipeline struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewPipeline creates a pipeline and starts its worker goroutine.
func NewPipeline() *Pipeline {
	p := &Pipeline{
		done: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// Submit appends a task to the queue. It never blocks beyond the queue lock.
// Returns false if the pipeline has been closed and the task was dropped.
func (p *Pipeline) Submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	p.queue = append(p.queue, task)
	metrics.SchedulerQueueDepth.Set(float64(len(p.queue)))
	p.cond.Signal()
	return true
}

// Depth returns the number of tasks waiting in the queue. Best-effort: the
// worker may be mid-task, which is not counted.
func (p *Pipeline) Depth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops accepting new tasks and blocks until every already-queued task
// has finished, so an in-flight drain pass completes before shutdown.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	<-p.done
}

func (p *Pipeline) run() {
	defer close(p.done)

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.closed {
			p.mu.Unlock()
			return
		}

		task := p.queue[0]
		p.queue = p.queue[1:]
		metrics.SchedulerQueueDepth.Set(float64(len(p.queue)))
		p.mu.Unlock()

		p.invoke(task)
	}
}

// invoke runs a task, containing panics so one bad task cannot kill the
// worker goroutine.
func (p *Pipeline) invoke(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("pipeline task panicked: %v", r)
		}
	}()
	task()
}
