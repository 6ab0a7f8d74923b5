// Package clock abstracts the two time operations the collector needs,
// reading the current time and scheduling a one-shot callback, so that
// flush timing and session expiry can be driven deterministically in tests.
package clock

import "time"

// Clock is injected into every component that reads time or arms a timer.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once after d has elapsed. Real clocks call f on
	// its own goroutine; the fake clock calls it synchronously from Advance.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the callback from running. It returns false if the
// callback already ran or the timer was already stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{stopFunc: timer.Stop}
}
