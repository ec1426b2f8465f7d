package domain

import "time"

// EventKind tags a ProgressEvent.
type EventKind int

const (
	// EventStatus carries a human-readable status line.
	EventStatus EventKind = iota

	// EventProgress carries a completion percentage.
	EventProgress

	// EventSizeUpdate carries the number of bytes examined so far.
	EventSizeUpdate

	// EventTimeout signals the wall-clock budget expired. Always terminal.
	EventTimeout

	// EventError carries an error description. Terminal when Outcome is failed.
	EventError

	// EventComplete ends a run that was not timed out or failed.
	EventComplete
)

// String returns the string representation.
func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventProgress:
		return "progress"
	case EventSizeUpdate:
		return "size"
	case EventTimeout:
		return "timeout"
	case EventError:
		return "error"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ProgressEvent is one item on the progress stream.
type ProgressEvent struct {
	// Kind tags the event.
	Kind EventKind

	// Text is set for Status, Error and terminal events.
	Text string

	// Percent is set for Progress events (0-100).
	Percent int

	// Bytes is set for SizeUpdate events.
	Bytes int64

	// Outcome is set only on the terminal event of a run.
	Outcome Outcome

	// At is when the event was emitted.
	At time.Time
}

// IsTerminal reports whether the event ends a run.
func (e ProgressEvent) IsTerminal() bool {
	return e.Outcome != OutcomeNone
}

// StatusEvent builds a Status event.
func StatusEvent(text string) ProgressEvent {
	return ProgressEvent{Kind: EventStatus, Text: text, At: time.Now()}
}

// ProgressPercentEvent builds a Progress event, clamping to 0-100.
func ProgressPercentEvent(percent int) ProgressEvent {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return ProgressEvent{Kind: EventProgress, Percent: percent, At: time.Now()}
}

// SizeEvent builds a SizeUpdate event.
func SizeEvent(bytes int64) ProgressEvent {
	return ProgressEvent{Kind: EventSizeUpdate, Bytes: bytes, At: time.Now()}
}

// ErrorEvent builds a non-terminal Error event.
func ErrorEvent(text string) ProgressEvent {
	return ProgressEvent{Kind: EventError, Text: text, At: time.Now()}
}

// TerminalEvent builds the event that ends a run with the given outcome.
func TerminalEvent(outcome Outcome, text string) ProgressEvent {
	kind := EventComplete
	switch outcome {
	case OutcomeTimedOut:
		kind = EventTimeout
	case OutcomeFailed:
		kind = EventError
	}
	return ProgressEvent{Kind: kind, Text: text, Outcome: outcome, At: time.Now()}
}
