// Package timerx provides the two scoped coroutine primitives C9 defines: a
// one-shot timer awaitable and a per-device binary semaphore, both modeled
// so every exit path releases them (spec.md §9 "Scoped acquisition").
package timerx

import "time"

// Timer is a thin wrapper over time.Timer that tracks whether it fired due
// to expiry versus an explicit Stop, mirroring the source's awaitable
// semantics (spec.md §4.9 "expired() reflects whether completion was due to
// time").
type Timer struct {
	t       *time.Timer
	expired bool
}

// NewTimer arms a one-shot timer for d. C returns the channel to select on;
// it fires exactly once.
func NewTimer(d time.Duration) *Timer {
	return &Timer{t: time.NewTimer(d)}
}

// C returns the timer's fire channel.
func (tm *Timer) C() <-chan time.Time {
	return tm.t.C
}

// MarkExpired records that the timer fired due to time rather than Stop.
// Call this after receiving from C().
func (tm *Timer) MarkExpired() {
	tm.expired = true
}

// Expired reports whether the timer completed due to expiry.
func (tm *Timer) Expired() bool {
	return tm.expired
}

// Stop cancels the timer. Safe to call after the timer has already fired.
func (tm *Timer) Stop() {
	tm.t.Stop()
}
