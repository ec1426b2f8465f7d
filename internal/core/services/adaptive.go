package services

import (
	"sync"
	"sync/atomic"
	"time"
)

// Bounds of the per-block file cap.
const (
	MinBlockFiles     = 100
	MaxBlockFiles     = 5000
	initialBlockFiles = 1000

	// SampleInterval is how often throughput is measured.
	SampleInterval = 30 * time.Second
)

// AdaptiveCap sizes the chunks of files handed to the pool from one block.
// It grows while throughput improves and shrinks when it degrades.
type AdaptiveCap struct {
	processed atomic.Int64

	mu       sync.Mutex
	value    int
	lastRate float64
	lastAt   time.Time
	lastSeen int64
}

// NewAdaptiveCap starts at the initial cap.
func NewAdaptiveCap(now time.Time) *AdaptiveCap {
	return &AdaptiveCap{value: initialBlockFiles, lastAt: now}
}

// Observe records n processed files.
func (a *AdaptiveCap) Observe(n int) {
	a.processed.Add(int64(n))
}

// Value returns the current cap.
func (a *AdaptiveCap) Value() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

// Sample measures throughput since the previous sample and adjusts the
// cap. A rise of more than 10% grows it by a quarter, a fall of more than
// 10% shrinks it by a quarter.
func (a *AdaptiveCap) Sample(now time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	elapsed := now.Sub(a.lastAt).Seconds()
	if elapsed <= 0 {
		return a.value
	}
	total := a.processed.Load()
	rate := float64(total-a.lastSeen) / elapsed
	a.lastSeen = total
	a.lastAt = now

	if a.lastRate > 0 {
		switch {
		case rate > a.lastRate*1.1:
			a.value += a.value / 4
		case rate < a.lastRate*0.9:
			a.value -= a.value / 4
		}
	}
	a.lastRate = rate

	if a.value < MinBlockFiles {
		a.value = MinBlockFiles
	}
	if a.value > MaxBlockFiles {
		a.value = MaxBlockFiles
	}
	return a.value
}
