package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trita-a/ricerca/internal/core/domain"
)

func newTestWatchdog(t *testing.T, stall time.Duration) (*Watchdog, *WorkerPool, *runCounters, *ProgressChannel) {
	t.Helper()
	pool, err := NewWorkerPool(context.Background(), 1)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Shutdown(true) })

	counters := &runCounters{}
	events := NewProgressChannel()
	return newWatchdog(pool, counters, events, time.Second, stall), pool, counters, events
}

func TestWatchdog_Defaults(t *testing.T) {
	w := newWatchdog(nil, &runCounters{}, NewProgressChannel(), 0, 0)
	assert.Equal(t, DefaultWatchdogPoll, w.poll)
	assert.Equal(t, DefaultWatchdogStall, w.stall)
}

func TestWatchdog_NoRecoveryWhileProgressing(t *testing.T) {
	w, pool, counters, events := newTestWatchdog(t, time.Minute)
	now := time.Now()
	counters.beat(now.Add(-30 * time.Second))
	w.now = func() time.Time { return now }
	gen := pool.Generation()

	assert.False(t, w.check())
	assert.Equal(t, gen, pool.Generation())
	assert.Zero(t, events.Len())
}

func TestWatchdog_RecoversStall(t *testing.T) {
	w, pool, counters, events := newTestWatchdog(t, time.Minute)
	now := time.Now()
	counters.beat(now.Add(-3 * time.Minute))
	w.now = func() time.Time { return now }
	gen := pool.Generation()

	assert.True(t, w.check())
	assert.NotEqual(t, gen, pool.Generation())
	assert.Equal(t, now.UnixNano(), counters.lastBeat().UnixNano())
	assert.Equal(t, 1, w.recoveries)

	got := events.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventStatus, got[0].Kind)
	assert.Contains(t, got[0].Text, "Recovered")

	// The heartbeat was reset, so the next poll does nothing.
	assert.False(t, w.check())
}

func TestWatchdog_RunStopsWithContext(t *testing.T) {
	w, _, counters, _ := newTestWatchdog(t, time.Hour)
	counters.beat(time.Now())
	w.poll = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not stop")
	}
}
