package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/logger"
)

// shutdownTimeout bounds a graceful Shutdown.
const shutdownTimeout = 5 * time.Second

// Task is a unit of work run by the pool. gen is the pool generation the
// task was submitted to; ctx is cancelled when that generation is abandoned.
type Task func(ctx context.Context, gen uint64)

// TaskHandle tracks one submitted task.
type TaskHandle struct {
	gen  uint64
	done chan struct{}
}

// Done is closed when the task returns or panics.
func (h *TaskHandle) Done() <-chan struct{} {
	return h.done
}

// Generation returns the pool generation the task ran in.
func (h *TaskHandle) Generation() uint64 {
	return h.gen
}

// generation is one underlying ants pool and the tasks it owns.
type generation struct {
	id      uint64
	pool    *ants.Pool
	ctx     context.Context
	cancel  context.CancelFunc
	pending atomic.Int64
}

// WorkerPool is a bounded executor that can be recreated when its workers
// hang. Tasks of an abandoned generation keep running but are no longer
// waited for.
type WorkerPool struct {
	mu     sync.Mutex
	parent context.Context
	size   int
	cur    *generation
	nextID uint64
	closed bool
	idle   chan struct{}
}

// NewWorkerPool creates a pool of size workers. Tasks receive contexts
// derived from ctx.
func NewWorkerPool(ctx context.Context, size int) (*WorkerPool, error) {
	if size < 1 {
		size = 1
	}
	if size > domain.MaxWorkers {
		size = domain.MaxWorkers
	}
	p := &WorkerPool{
		parent: ctx,
		size:   size,
		idle:   make(chan struct{}, 1),
	}
	gen, err := p.newGeneration()
	if err != nil {
		return nil, err
	}
	p.cur = gen
	return p, nil
}

func (p *WorkerPool) newGeneration() (*generation, error) {
	pool, err := ants.NewPool(p.size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	p.nextID++
	ctx, cancel := context.WithCancel(p.parent)
	return &generation{id: p.nextID, pool: pool, ctx: ctx, cancel: cancel}, nil
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return p.size
}

// Generation returns the current generation id.
func (p *WorkerPool) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur.id
}

// IsCurrent reports whether gen is still the live generation.
func (p *WorkerPool) IsCurrent(gen uint64) bool {
	return p.Generation() == gen
}

// Pending returns the number of unfinished tasks in the current generation.
func (p *WorkerPool) Pending() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur.pending.Load()
}

// Submit queues task, blocking while every worker is busy.
// It fails with domain.ErrPoolClosed after Shutdown.
func (p *WorkerPool) Submit(task Task) (*TaskHandle, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, domain.ErrPoolClosed
		}
		gen := p.cur
		p.mu.Unlock()

		h := &TaskHandle{gen: gen.id, done: make(chan struct{})}
		gen.pending.Add(1)
		err := gen.pool.Submit(func() {
			defer p.finish(gen, h)
			task(gen.ctx, gen.id)
		})
		if err == nil {
			return h, nil
		}
		p.finish(gen, h)

		// The generation was swapped while we waited for a worker.
		if errors.Is(err, ants.ErrPoolClosed) && !p.IsCurrent(gen.id) {
			continue
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return nil, domain.ErrPoolClosed
		}
		return nil, fmt.Errorf("failed to submit task: %w", err)
	}
}

// finish marks a task done. A panic is logged and swallowed so that one
// bad file cannot take the worker down.
func (p *WorkerPool) finish(gen *generation, h *TaskHandle) {
	if rec := recover(); rec != nil {
		logger.Error("Task panicked: %v", rec)
	}
	close(h.done)
	if gen.pending.Add(-1) == 0 {
		p.signalIdle()
	}
}

func (p *WorkerPool) signalIdle() {
	select {
	case p.idle <- struct{}{}:
	default:
	}
}

// WaitIdle blocks until the current generation has no pending task or ctx
// ends. A generation swap re-evaluates against the new generation.
func (p *WorkerPool) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if p.Pending() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.idle:
		case <-ticker.C:
		}
	}
}

// Recreate abandons the current generation and starts a fresh one. Tasks
// still running in the old generation see their context cancelled.
func (p *WorkerPool) Recreate() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, domain.ErrPoolClosed
	}

	next, err := p.newGeneration()
	if err != nil {
		return 0, err
	}
	old := p.cur
	p.cur = next
	old.cancel()
	old.pool.Release()
	p.signalIdle()

	logger.Warn("Worker pool generation %d abandoned with %d pending tasks", old.id, old.pending.Load())
	return next.id, nil
}

// Shutdown stops accepting tasks. With cancel set, in-flight tasks are
// abandoned without waiting; otherwise Shutdown waits for them up to a
// bounded timeout. It is safe to call more than once.
func (p *WorkerPool) Shutdown(cancel bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	gen := p.cur
	p.mu.Unlock()

	if cancel {
		gen.cancel()
		gen.pool.Release()
		return
	}
	if err := gen.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("Worker pool did not drain within %s: %v", shutdownTimeout, err)
	}
	gen.cancel()
}
