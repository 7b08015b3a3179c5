// Package clock abstracts wall-clock reads and deferred callbacks so
// that every timed effect in the application (reminder firing,
// post-completion task removal, notification auto-dismiss) runs through
// one cancellable primitive that tests can drive deterministically.
package clock

import "time"

// Timer is a cancellable handle for a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the cancellation
	// prevented the callback from running.
	Stop() bool
}

// Clock provides the current time and deferred callback scheduling.
type Clock interface {
	Now() time.Time
	// AfterFunc runs fn on its own goroutine after d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// System returns a Clock backed by the real wall clock.
func System() Clock { return systemClock{} }
