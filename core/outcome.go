package core

// OutcomeKind classifies how an agent invocation terminated.
type OutcomeKind string

const (
	// OutcomeDone means the model produced a final answer.
	OutcomeDone OutcomeKind = "done"
	// OutcomeLoopLimitExceeded means the iteration cap was reached before a
	// final answer, guarding against runaway or cyclic tool use.
	OutcomeLoopLimitExceeded OutcomeKind = "loop_limit_exceeded"
	// OutcomeBackendUnavailable means the model backend kept failing after
	// the retry budget was exhausted.
	OutcomeBackendUnavailable OutcomeKind = "backend_unavailable"
	// OutcomeDelegationCycle means the invocation was started for a role
	// already active in the delegation call chain.
	OutcomeDelegationCycle OutcomeKind = "delegation_cycle"
	// OutcomeCancelled means the caller cancelled the invocation.
	OutcomeCancelled OutcomeKind = "cancelled"
)

// Outcome is the structured result of one agent invocation. Aborted outcomes
// carry the partial transcript and a machine-readable reason so callers (the
// CLI or a delegating parent) can report a clear message instead of an opaque
// crash.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	Answer     string      `json:"answer,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Transcript []Turn      `json:"transcript,omitempty"`
}

// Done reports whether the invocation produced a final answer.
func (o *Outcome) Done() bool { return o.Kind == OutcomeDone }
