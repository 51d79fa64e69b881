package models

// SessionState is the caller-visible state of one drafting session.
type SessionState string

const (
	// StateIdle is waiting for input.
	StateIdle SessionState = "idle"
	// StateDrafting has a generation call in flight.
	StateDrafting SessionState = "drafting"
	// StateReview holds a ticket the human may edit, commit or reject.
	StateReview SessionState = "review"
	// StateFailed holds a generation or extraction failure.
	StateFailed SessionState = "failed"
	// StateCommitted means the ticket was created in the tracker.
	StateCommitted SessionState = "committed"
)

var stateTransitions = map[SessionState][]SessionState{
	StateIdle:      {StateDrafting},
	StateDrafting:  {StateReview, StateFailed, StateIdle},
	StateReview:    {StateCommitted, StateIdle},
	StateFailed:    {StateIdle},
	StateCommitted: {StateIdle},
}

// Valid returns true if the state is a known value.
func (s SessionState) Valid() bool {
	_, ok := stateTransitions[s]
	return ok
}

// CanTransition reports whether moving from s to next is allowed.
// Drafting may fall back to idle when the in-flight call is abandoned.
func (s SessionState) CanTransition(next SessionState) bool {
	for _, allowed := range stateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
