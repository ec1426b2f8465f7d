package driving

import (
	"context"

	"github.com/trita-a/ricerca/internal/core/domain"
)

// SearchEngine runs one filesystem search at a time.
//
// A collaborator builds a SearchRequest, calls Start, drains Events until
// the terminal event arrives, reads Results and finally calls Reset.
type SearchEngine interface {
	// Start validates req and begins a run in the background.
	// It fails synchronously with domain.ErrPathNotFound, domain.ErrNoKeywords,
	// domain.ErrInvalidInput or domain.ErrNotIdle; no work starts on failure.
	Start(req domain.SearchRequest) error

	// Stop requests cooperative cancellation of the current run.
	// It returns immediately; the terminal event follows.
	Stop()

	// Reset releases every per-run resource and returns the engine to Idle.
	// A running search is stopped first.
	Reset() error

	// Wait blocks until the run reaches a terminal state or ctx ends.
	Wait(ctx context.Context) (domain.Outcome, error)

	// State returns the current lifecycle state.
	State() domain.EngineState

	// Events returns the progress stream of the current run.
	Events() ProgressStream

	// Results returns the sorted records once the run is terminal,
	// or an unsorted snapshot while it is running.
	Results() []domain.FileRecord

	// Counters returns the live counters of the current run.
	Counters() Counters

	// RunID identifies the current run. It is empty while Idle.
	RunID() string
}

// ProgressStream is the consumer side of the progress channel.
type ProgressStream interface {
	// Drain removes and returns every queued event.
	Drain() []domain.ProgressEvent

	// Len returns the number of queued events. Consumers poll faster
	// when it grows.
	Len() int

	// Notify returns a channel that receives a value whenever events are queued.
	Notify() <-chan struct{}
}

// Counters is a snapshot of run counters.
type Counters struct {
	FilesChecked      int64 `json:"files_checked"`
	DirsChecked       int64 `json:"dirs_checked"`
	CurrentSearchSize int64 `json:"bytes_checked"`
	Results           int   `json:"results"`
}
