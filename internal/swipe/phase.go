// Package swipe implements the gesture-to-decision state machine for the
// front card of the working queue.
//
// Valid phase graph:
//
//	IDLE ──► DRAGGING ──► COMMITTING_RIGHT ──► IDLE
//	             │    ──► COMMITTING_LEFT  ──► IDLE
//	             └──────► SNAPPING_BACK    ──► IDLE
//
// The machine has no terminal phase — after a commit it returns to IDLE over
// the next front card. A new gesture can only begin in IDLE.
package swipe

// Phase is the engine's animation/gesture state for the front card.
type Phase string

const (
	PhaseIdle            Phase = "IDLE"
	PhaseDragging        Phase = "DRAGGING"
	PhaseCommittingLeft  Phase = "COMMITTING_LEFT"
	PhaseCommittingRight Phase = "COMMITTING_RIGHT"
	PhaseSnappingBack    Phase = "SNAPPING_BACK"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Phase][]Phase{
	PhaseIdle:            {PhaseDragging, PhaseCommittingLeft, PhaseCommittingRight},
	PhaseDragging:        {PhaseDragging, PhaseCommittingLeft, PhaseCommittingRight, PhaseSnappingBack},
	PhaseCommittingLeft:  {PhaseIdle},
	PhaseCommittingRight: {PhaseIdle},
	PhaseSnappingBack:    {PhaseIdle},
}

// IsTransitionAllowed reports whether moving from → to is permitted by the
// state machine. IDLE → COMMITTING_* covers programmatic swipes, which skip
// the drag.
func IsTransitionAllowed(from, to Phase) bool {
	for _, p := range validTransitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// IsAnimating reports whether the phase is one of the three in-flight
// animation phases. Pointer-down events are ignored while animating.
func IsAnimating(p Phase) bool {
	return p == PhaseCommittingLeft || p == PhaseCommittingRight || p == PhaseSnappingBack
}
