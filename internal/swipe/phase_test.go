package swipe_test

import (
	"testing"

	"github.com/Frankanator8/jobfinder/internal/swipe"
)

// ── IsTransitionAllowed — valid transitions ────────────────────────────────

func TestIsTransitionAllowed_Valid(t *testing.T) {
	cases := []struct {
		from swipe.Phase
		to   swipe.Phase
	}{
		{swipe.PhaseIdle, swipe.PhaseDragging},
		{swipe.PhaseIdle, swipe.PhaseCommittingLeft},  // programmatic swipe
		{swipe.PhaseIdle, swipe.PhaseCommittingRight}, // programmatic swipe
		{swipe.PhaseDragging, swipe.PhaseDragging},
		{swipe.PhaseDragging, swipe.PhaseCommittingLeft},
		{swipe.PhaseDragging, swipe.PhaseCommittingRight},
		{swipe.PhaseDragging, swipe.PhaseSnappingBack},
		{swipe.PhaseCommittingLeft, swipe.PhaseIdle},
		{swipe.PhaseCommittingRight, swipe.PhaseIdle},
		{swipe.PhaseSnappingBack, swipe.PhaseIdle},
	}
	for _, c := range cases {
		if !swipe.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — animating phases only resolve to IDLE ────────────

func TestIsTransitionAllowed_AnimatingPhasesOnlyReachIdle(t *testing.T) {
	animating := []swipe.Phase{
		swipe.PhaseCommittingLeft,
		swipe.PhaseCommittingRight,
		swipe.PhaseSnappingBack,
	}
	targets := []swipe.Phase{
		swipe.PhaseDragging,
		swipe.PhaseCommittingLeft,
		swipe.PhaseCommittingRight,
		swipe.PhaseSnappingBack,
	}
	for _, from := range animating {
		for _, to := range targets {
			if swipe.IsTransitionAllowed(from, to) {
				t.Errorf("IsTransitionAllowed(%s → %s) should be false", from, to)
			}
		}
	}
}

// ── IsTransitionAllowed — IDLE cannot snap back ────────────────────────────

func TestIsTransitionAllowed_IdleCannotSnapBack(t *testing.T) {
	if swipe.IsTransitionAllowed(swipe.PhaseIdle, swipe.PhaseSnappingBack) {
		t.Error("IsTransitionAllowed(IDLE → SNAPPING_BACK) should be false: nothing to snap back")
	}
}

// ── IsAnimating ────────────────────────────────────────────────────────────

func TestIsAnimating(t *testing.T) {
	animating := []swipe.Phase{
		swipe.PhaseCommittingLeft,
		swipe.PhaseCommittingRight,
		swipe.PhaseSnappingBack,
	}
	for _, p := range animating {
		if !swipe.IsAnimating(p) {
			t.Errorf("IsAnimating(%s) should be true", p)
		}
	}
	for _, p := range []swipe.Phase{swipe.PhaseIdle, swipe.PhaseDragging} {
		if swipe.IsAnimating(p) {
			t.Errorf("IsAnimating(%s) should be false", p)
		}
	}
}
