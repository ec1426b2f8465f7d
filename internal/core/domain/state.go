package domain

// EngineState is the lifecycle state of the search engine.
type EngineState int

const (
	// StateIdle accepts Start.
	StateIdle EngineState = iota

	// StateRunning is an active run.
	StateRunning

	// StateCompleted means the run drained its queue or hit a resource ceiling.
	StateCompleted

	// StateTimedOut means the wall-clock budget expired.
	StateTimedOut

	// StateStopped means the caller cancelled the run.
	StateStopped

	// StateFailed means the run could not continue.
	StateFailed
)

// String returns the string representation.
func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state ends a run.
func (s EngineState) IsTerminal() bool {
	return s >= StateCompleted
}

// Outcome is the reason a run ended. It is carried by the terminal event.
type Outcome string

// Run outcomes.
const (
	OutcomeNone         Outcome = ""
	OutcomeCompleted    Outcome = "completed"
	OutcomeLimitReached Outcome = "limit_reached"
	OutcomeStopped      Outcome = "stopped"
	OutcomeTimedOut     Outcome = "timed_out"
	OutcomeFailed       Outcome = "failed"
)

// State maps an outcome to the terminal engine state.
func (o Outcome) State() EngineState {
	switch o {
	case OutcomeCompleted, OutcomeLimitReached:
		return StateCompleted
	case OutcomeStopped:
		return StateStopped
	case OutcomeTimedOut:
		return StateTimedOut
	case OutcomeFailed:
		return StateFailed
	default:
		return StateRunning
	}
}
