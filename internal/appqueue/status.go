// Package appqueue implements the status-tracked application submission
// queue that accepted jobs are handed to.
//
// Valid status graph:
//
//	PENDING ──► PROCESSING ──► COMPLETED
//	                 │
//	                 └───────► FAILED
//
// COMPLETED and FAILED are terminal states. A tracking handle is removed a
// fixed delay after it first reaches a terminal status.
package appqueue

import "fmt"

// Status is the lifecycle state of one submission.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	// COMPLETED and FAILED are terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown submission status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions.
// Reaching one schedules the handle's cleanup.
func IsTerminal(s Status) bool { return s == StatusCompleted || s == StatusFailed }
