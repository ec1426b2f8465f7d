package services

import (
	"context"
	"fmt"
	"time"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/logger"
)

// Default watchdog intervals.
const (
	DefaultWatchdogPoll  = 30 * time.Second
	DefaultWatchdogStall = 180 * time.Second
)

// Watchdog recreates the worker pool when no progress was made for too long.
type Watchdog struct {
	pool     *WorkerPool
	counters *runCounters
	events   *ProgressChannel
	poll     time.Duration
	stall    time.Duration
	now      func() time.Time

	recoveries int
}

func newWatchdog(pool *WorkerPool, counters *runCounters, events *ProgressChannel, poll, stall time.Duration) *Watchdog {
	if poll <= 0 {
		poll = DefaultWatchdogPoll
	}
	if stall <= 0 {
		stall = DefaultWatchdogStall
	}
	return &Watchdog{
		pool:     pool,
		counters: counters,
		events:   events,
		poll:     poll,
		stall:    stall,
		now:      time.Now,
	}
}

// Run polls until ctx ends.
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.check()
		}
	}
}

// check recreates the pool if the heartbeat is older than the stall limit.
// It returns true when a recovery happened.
func (w *Watchdog) check() bool {
	now := w.now()
	idle := now.Sub(w.counters.lastBeat())
	if idle < w.stall {
		return false
	}

	gen, err := w.pool.Recreate()
	if err != nil {
		logger.Debug("Watchdog skipped recovery: %v", err)
		return false
	}
	w.counters.beat(now)
	w.recoveries++

	logger.Warn("No progress for %s, worker pool recreated (generation %d)", idle.Round(time.Second), gen)
	w.events.Emit(domain.StatusEvent(fmt.Sprintf("Recovered from stalled workers after %s", idle.Round(time.Second))))
	return true
}
