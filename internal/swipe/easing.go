package swipe

import "time"

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

// EaseOutCubic decelerates toward the end of the animation.
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// Progress converts elapsed wall-clock time into linear progress over a
// fixed duration, clamped to [0,1]. It is independent of any rendering
// engine so animation state can be computed (and tested) without a display.
func Progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 || elapsed >= duration {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(duration)
}

// lerp interpolates between a and b by eased progress t.
func lerp(a, b, t float64) float64 { return a + (b-a)*t }
