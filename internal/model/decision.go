package model

import (
	"fmt"
	"time"
)

// Outcome is the user's verdict on a single job.
type Outcome string

const (
	OutcomeAccepted Outcome = "ACCEPTED"
	OutcomeRejected Outcome = "REJECTED"
)

// ParseOutcome converts a raw string to an Outcome, returning an error for
// unknown values.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	switch o {
	case OutcomeAccepted, OutcomeRejected:
		return o, nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}

// Decision records one swipe verdict. It is emitted exactly once per job, at
// the moment the commit animation completes — never when the drag crosses the
// threshold.
type Decision struct {
	JobID   string    `json:"jobId"`
	Outcome Outcome   `json:"outcome"`
	At      time.Time `json:"at"`
}
