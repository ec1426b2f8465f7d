package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/core/ports/driving"
	"github.com/trita-a/ricerca/internal/logger"
)

// Ensure SearchEngine implements the interface.
var _ driving.SearchEngine = (*SearchEngine)(nil)

// EngineOption configures a SearchEngine.
type EngineOption func(*SearchEngine)

// WithWatchdog overrides the watchdog poll and stall intervals.
func WithWatchdog(poll, stall time.Duration) EngineOption {
	return func(e *SearchEngine) {
		e.watchdogPoll = poll
		e.watchdogStall = stall
	}
}

// WithSampleInterval overrides how often throughput is sampled.
func WithSampleInterval(d time.Duration) EngineOption {
	return func(e *SearchEngine) {
		e.sampleInterval = d
	}
}

// SearchEngine runs one search at a time through a lifecycle of
// Idle, Running and a terminal state, then back to Idle on Reset.
type SearchEngine struct {
	extractor driven.ContentExtractor
	audit     driven.AuditLog

	watchdogPoll   time.Duration
	watchdogStall  time.Duration
	sampleInterval time.Duration

	mu     sync.Mutex
	state  domain.EngineState
	run    *searchRun
	events *ProgressChannel
}

// searchRun is all state owned by one run. It is discarded on Reset.
type searchRun struct {
	id        string
	req       domain.SearchRequest
	ctx       context.Context
	cancel    context.CancelFunc
	stop      atomic.Bool
	counters  *runCounters
	results   *ResultAggregator
	events    *ProgressChannel
	pool      *WorkerPool
	scheduler *BlockScheduler
	done      chan struct{}
	outcome   domain.Outcome
}

// NewSearchEngine creates an idle engine.
func NewSearchEngine(extractor driven.ContentExtractor, audit driven.AuditLog, opts ...EngineOption) *SearchEngine {
	e := &SearchEngine{
		extractor:      extractor,
		audit:          audit,
		watchdogPoll:   DefaultWatchdogPoll,
		watchdogStall:  DefaultWatchdogStall,
		sampleInterval: SampleInterval,
		events:         NewProgressChannel(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start validates req and begins a run in the background.
func (e *SearchEngine) Start(req domain.SearchRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != domain.StateIdle {
		return domain.ErrNotIdle
	}
	if err := req.Validate(); err != nil {
		return err
	}

	req = req.WithDefaults()
	root, err := filepath.Abs(req.Root)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrPathNotFound, req.Root)
	}
	req.Root = root

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if req.Limits.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), req.Limits.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	pool, err := NewWorkerPool(ctx, req.Limits.Workers)
	if err != nil {
		cancel()
		return err
	}

	run := &searchRun{
		id:       uuid.NewString(),
		req:      req,
		ctx:      ctx,
		cancel:   cancel,
		counters: &runCounters{},
		results:  NewResultAggregator(),
		events:   e.events,
		pool:     pool,
		done:     make(chan struct{}),
	}
	run.counters.beat(time.Now())
	run.scheduler = newBlockScheduler(req, pool, run.counters, run.results, run.events, e.extractor, e.audit)

	e.run = run
	e.state = domain.StateRunning

	logger.Section("Search " + run.id)
	logger.Info("Root: %s, keywords: %v, workers: %d", req.Root, req.Keywords, pool.Size())

	go e.execute(run)
	return nil
}

// execute runs the orchestrator, the watchdog and the throughput sampler,
// then publishes the single terminal event.
func (e *SearchEngine) execute(run *searchRun) {
	outcome, text := e.orchestrate(run)

	cancelPool := outcome != domain.OutcomeCompleted
	run.pool.Shutdown(cancelPool)
	run.cancel()
	run.results.Sort()

	e.mu.Lock()
	run.outcome = outcome
	if e.run == run {
		e.state = outcome.State()
	}
	e.mu.Unlock()

	c := run.counters.snapshot(run.results.Len())
	logger.Info("Search %s %s: %d results, %d files, %d directories",
		run.id, outcome, c.Results, c.FilesChecked, c.DirsChecked)
	run.events.Emit(domain.TerminalEvent(outcome, text))
	close(run.done)
}

func (e *SearchEngine) orchestrate(run *searchRun) (outcome domain.Outcome, text string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Search %s failed: %v", run.id, rec)
			outcome, text = domain.OutcomeFailed, fmt.Sprintf("search failed: %v", rec)
		}
	}()

	loopCtx, stopAux := context.WithCancel(run.ctx)
	defer stopAux()

	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		defer stopAux()
		return e.walk(gctx, run)
	})
	g.Go(func() error {
		watchdog := newWatchdog(run.pool, run.counters, run.events, e.watchdogPoll, e.watchdogStall)
		return watchdog.Run(gctx)
	})
	g.Go(func() error {
		return sample(gctx, run.scheduler.adaptive, e.sampleInterval)
	})
	err := g.Wait()

	c := run.counters.snapshot(run.results.Len())
	summary := fmt.Sprintf("%d results in %d files and %d folders", c.Results, c.FilesChecked, c.DirsChecked)
	switch {
	case err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded):
		return domain.OutcomeFailed, fmt.Sprintf("search failed: %v", err)
	case run.stop.Load():
		return domain.OutcomeStopped, "Search stopped: " + summary
	case errors.Is(run.ctx.Err(), context.DeadlineExceeded):
		return domain.OutcomeTimedOut, "Search timed out: " + summary
	case run.scheduler.LimitReached():
		return domain.OutcomeLimitReached, "Search limit reached: " + summary
	default:
		return domain.OutcomeCompleted, "Search complete: " + summary
	}
}

// walk drains the block queue and waits for the submitted files.
func (e *SearchEngine) walk(ctx context.Context, run *searchRun) error {
	s := run.scheduler
	run.events.Emit(domain.StatusEvent("Searching " + run.req.Root))

	s.Seed(ctx, run.req.Root)
	for !s.stopped(ctx) {
		block, ok := s.Next()
		if !ok {
			break
		}
		s.Expand(ctx, block)
		s.emitProgress()
	}
	if n := s.Pending(); n > 0 {
		logger.Debug("Dropping %d queued folders", n)
		s.queue.Clear()
	}

	// Files admitted before a ceiling tripped are still analysed.
	if err := run.pool.WaitIdle(ctx); err != nil {
		logger.Debug("Stopped waiting for workers: %v", err)
		return nil
	}
	if !s.LimitReached() {
		run.events.Emit(domain.ProgressPercentEvent(100))
	}
	return nil
}

// sample adjusts the adaptive cap at every interval.
func sample(ctx context.Context, adaptive *AdaptiveCap, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			logger.Debug("Block file cap now %d", adaptive.Sample(now))
		}
	}
}

// Stop requests cancellation of the current run.
func (e *SearchEngine) Stop() {
	e.mu.Lock()
	run := e.run
	running := e.state == domain.StateRunning
	e.mu.Unlock()

	if run == nil || !running {
		return
	}
	if run.stop.CompareAndSwap(false, true) {
		logger.Info("Stopping search %s", run.id)
		run.cancel()
	}
}

// Reset stops a running search, waits for it to end and returns to Idle.
func (e *SearchEngine) Reset() error {
	e.Stop()

	e.mu.Lock()
	run := e.run
	e.mu.Unlock()
	if run != nil {
		<-run.done
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.run = nil
	e.state = domain.StateIdle
	e.events = NewProgressChannel()
	return nil
}

// Wait blocks until the current run is terminal or ctx ends.
func (e *SearchEngine) Wait(ctx context.Context) (domain.Outcome, error) {
	e.mu.Lock()
	run := e.run
	e.mu.Unlock()
	if run == nil {
		return domain.OutcomeNone, nil
	}

	select {
	case <-run.done:
		e.mu.Lock()
		defer e.mu.Unlock()
		return run.outcome, nil
	case <-ctx.Done():
		return domain.OutcomeNone, ctx.Err()
	}
}

// State returns the lifecycle state.
func (e *SearchEngine) State() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Events returns the progress stream of the current run.
func (e *SearchEngine) Events() driving.ProgressStream {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events
}

// Results returns the records found so far. Once the run is terminal they
// are sorted by kind, name and path.
func (e *SearchEngine) Results() []domain.FileRecord {
	e.mu.Lock()
	run := e.run
	e.mu.Unlock()
	if run == nil {
		return nil
	}
	return run.results.Snapshot()
}

// Counters returns the live counters of the current run.
func (e *SearchEngine) Counters() driving.Counters {
	e.mu.Lock()
	run := e.run
	e.mu.Unlock()
	if run == nil {
		return driving.Counters{}
	}
	return run.counters.snapshot(run.results.Len())
}

// RunID returns the id of the current run.
func (e *SearchEngine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return ""
	}
	return e.run.id
}
