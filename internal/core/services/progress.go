package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driving"
)

// Ensure ProgressChannel implements the interface.
var _ driving.ProgressStream = (*ProgressChannel)(nil)

// progressRate caps Progress and SizeUpdate events per second, per kind.
const progressRate = 10

// ProgressChannel is an unbounded queue of progress events. Producers never
// block; the consumer drains in batches.
type ProgressChannel struct {
	mu       sync.Mutex
	events   []domain.ProgressEvent
	terminal bool
	notify   chan struct{}
	limiters map[domain.EventKind]*rate.Limiter
}

// NewProgressChannel creates an empty channel.
func NewProgressChannel() *ProgressChannel {
	return &ProgressChannel{
		notify: make(chan struct{}, 1),
		limiters: map[domain.EventKind]*rate.Limiter{
			domain.EventProgress:   rate.NewLimiter(rate.Limit(progressRate), 1),
			domain.EventSizeUpdate: rate.NewLimiter(rate.Limit(progressRate), 1),
		},
	}
}

// Emit queues an event. Progress and SizeUpdate events beyond the rate
// limit of their kind are dropped, except a Progress of 100 percent.
// Nothing is queued after the terminal event.
// It returns whether the event was queued.
func (c *ProgressChannel) Emit(ev domain.ProgressEvent) bool {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	limiter := c.limiters[ev.Kind]
	if ev.Kind == domain.EventProgress && ev.Percent >= 100 {
		limiter = nil
	}

	c.mu.Lock()
	if c.terminal || (limiter != nil && !limiter.AllowN(ev.At, 1)) {
		c.mu.Unlock()
		return false
	}
	c.events = append(c.events, ev)
	if ev.IsTerminal() {
		c.terminal = true
	}
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return true
}

// Terminated reports whether the terminal event was queued.
func (c *ProgressChannel) Terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminal
}

// Drain removes and returns every queued event with consecutive duplicate
// Status events collapsed.
func (c *ProgressChannel) Drain() []domain.ProgressEvent {
	c.mu.Lock()
	events := c.events
	c.events = nil
	c.mu.Unlock()
	return Coalesce(events)
}

// Len returns the number of queued events.
func (c *ProgressChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Notify returns a channel signalled whenever events are queued.
func (c *ProgressChannel) Notify() <-chan struct{} {
	return c.notify
}

// Coalesce removes Status events that repeat the text of the event
// directly before them.
func Coalesce(events []domain.ProgressEvent) []domain.ProgressEvent {
	if len(events) < 2 {
		return events
	}
	out := events[:1]
	for _, ev := range events[1:] {
		prev := out[len(out)-1]
		if ev.Kind == domain.EventStatus && prev.Kind == domain.EventStatus && ev.Text == prev.Text {
			continue
		}
		out = append(out, ev)
	}
	return out
}
