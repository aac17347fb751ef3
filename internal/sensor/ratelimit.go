package sensor

import (
	"sync"

	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
)

// failureKey is one (completion code, reason code) pair, the bitmap slot
// spec.md §4.6 describes: "Standard error paths convert repeated identical
// failures into a single logged line per (CC, reason) bitmap slot."
type failureKey struct {
	cc     nsm.CompletionCode
	reason nsm.ReasonCode
}

// failureLimiter tracks which (CC, reason) pairs have already been logged
// for one sensor, so a device stuck returning the same error doesn't spam
// the log on every polling pass. A success clears the tracked set, so the
// next distinct failure (or a repeat of the same one after recovering) logs
// again.
type failureLimiter struct {
	mu     sync.Mutex
	logged map[failureKey]struct{}
}

func newFailureLimiter() *failureLimiter {
	return &failureLimiter{logged: make(map[failureKey]struct{})}
}

// ShouldLog reports whether this (cc, reason) pair has not yet been logged
// since the last success, recording it as logged as a side effect.
func (f *failureLimiter) ShouldLog(cc nsm.CompletionCode, reason nsm.ReasonCode) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := failureKey{cc: cc, reason: reason}
	if _, ok := f.logged[key]; ok {
		return false
	}
	f.logged[key] = struct{}{}
	return true
}

// Reset clears the tracked failure set, called on a successful exchange.
func (f *failureLimiter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.logged) > 0 {
		f.logged = make(map[failureKey]struct{})
	}
}
