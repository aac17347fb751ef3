package timerx

import (
	"context"
	"sync/atomic"
)

// Semaphore is a binary, per-device semaphore used exclusively to serialize
// long-running commands per device (spec.md §4.9, §5 invariants: "at most
// one long-running command is outstanding per device"). It is a
// capacity-1 buffered channel wearing a small API so call sites release on
// every exit path with defer.
type Semaphore struct {
	ch      chan struct{}
	waiters int64
}

// NewSemaphore creates an unheld binary semaphore.
func NewSemaphore() *Semaphore {
	return &Semaphore{ch: make(chan struct{}, 1)}
}

// Acquire blocks until the semaphore is free or ctx is cancelled. On
// success the caller must call Release exactly once, typically via defer.
func (s *Semaphore) Acquire(ctx context.Context) error {
	atomic.AddInt64(&s.waiters, 1)
	defer atomic.AddInt64(&s.waiters, -1)

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire attempts a non-blocking acquisition, returning false if the
// semaphore is already held.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees the semaphore, resuming the longest-waiting Acquire call if
// any (Go's channel implementation serves blocked senders in arrival order).
func (s *Semaphore) Release() {
	select {
	case <-s.ch:
	default:
		// Release without a matching Acquire is a caller bug; ignored rather
		// than panicking so a defer Release() after a failed Acquire is safe.
	}
}

// Waiters reports how many goroutines are currently blocked in Acquire, for
// diagnostics.
func (s *Semaphore) Waiters() int64 {
	return atomic.LoadInt64(&s.waiters)
}
