package swipe

import "time"

// Clock abstracts wall-clock time and one-shot timers so the engine's
// animation completions can be driven manually in tests.
type Clock interface {
	Now() time.Time
	// AfterFunc schedules f to run once d has elapsed and returns a handle
	// that can cancel the call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled call.
type Timer interface {
	// Stop cancels the call. It reports whether the call was still pending.
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns the wall-clock backed Clock used outside of tests.
func SystemClock() Clock { return realClock{} }
