package services

import (
	"sync/atomic"
	"time"

	"github.com/trita-a/ricerca/internal/core/ports/driving"
)

// runCounters are the lock-free counters of one run.
type runCounters struct {
	filesChecked atomic.Int64
	dirsChecked  atomic.Int64
	bytesChecked atomic.Int64
	heartbeat    atomic.Int64
}

func (c *runCounters) beat(now time.Time) {
	c.heartbeat.Store(now.UnixNano())
}

func (c *runCounters) lastBeat() time.Time {
	return time.Unix(0, c.heartbeat.Load())
}

func (c *runCounters) snapshot(results int) driving.Counters {
	return driving.Counters{
		FilesChecked:      c.filesChecked.Load(),
		DirsChecked:       c.dirsChecked.Load(),
		CurrentSearchSize: c.bytesChecked.Load(),
		Results:           results,
	}
}
