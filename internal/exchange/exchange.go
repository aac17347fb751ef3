// Package exchange implements C3, the request/response coroutine that sits
// between sensors/device-manager callers and the raw C2 transport. Beyond a
// plain encode-transmit-await-decode round trip it understands the
// two-phase long-running flow: ACCEPTED now, completion later as an event
// bearing the same instance id (spec.md §4.3 "Long-running flow").
//
// It deliberately has no dependency on package device: the per-device
// semaphore and long-running waiter are keyed by EID alone, so device,
// sensor, and event can all depend on exchange without a cycle.
package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/nsm-fleet/nsmd/internal/nsmerr"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/timerx"
	"github.com/nsm-fleet/nsmd/internal/transport"
)

// RawTransport is the subset of *transport.Transport the exchanger needs,
// named so tests can supply a fake.
type RawTransport interface {
	RawExchangeInstanceID(ctx context.Context, eid uint8, req transport.Request) (nsm.ResponseHeader, uint8, []byte, error)
}

// Config bundles the long-running companion deadline (spec.md §4.3
// "Long-running companion").
type Config struct {
	LongRunningTimeout time.Duration
}

type waiter struct {
	instanceID uint8
	resultCh   chan longRunningResult
}

type longRunningResult struct {
	payload []byte
	err     error
}

// Exchanger is the C3 coroutine. One instance is shared by every sensor and
// device-manager call site in the process.
type Exchanger struct {
	cfg       Config
	transport RawTransport

	mu         sync.Mutex
	semaphores map[uint8]*timerx.Semaphore
	waiters    map[uint8]*waiter
}

// New builds an Exchanger around a transport and the long-running timeout.
func New(cfg Config, t RawTransport) *Exchanger {
	return &Exchanger{
		cfg:        cfg,
		transport:  t,
		semaphores: make(map[uint8]*timerx.Semaphore),
		waiters:    make(map[uint8]*waiter),
	}
}

// SemaphoreFor returns the per-device long-running semaphore for eid,
// creating it on first use (spec.md §4.9 "per-device semaphore awaitable").
func (e *Exchanger) SemaphoreFor(eid uint8) *timerx.Semaphore {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.semaphores[eid]
	if !ok {
		s = timerx.NewSemaphore()
		e.semaphores[eid] = s
	}
	return s
}

// Exchange performs a plain request/response round trip: encode, transmit,
// await, decode. Used by sensors that never return ACCEPTED.
func (e *Exchanger) Exchange(ctx context.Context, eid uint8, req transport.Request) (nsm.ResponseHeader, []byte, error) {
	rh, _, payload, err := e.transport.RawExchangeInstanceID(ctx, eid, req)
	return rh, payload, err
}

// ExchangeLongRunning issues req and, if the immediate response is
// ACCEPTED, suspends until the matching completion event arrives or the
// long-running timer expires (spec.md §4.3). Callers must not hold the
// device semaphore themselves; ExchangeLongRunning acquires and releases it.
func (e *Exchanger) ExchangeLongRunning(ctx context.Context, eid uint8, req transport.Request) ([]byte, error) {
	sem := e.SemaphoreFor(eid)
	if err := sem.Acquire(ctx); err != nil {
		return nil, err
	}
	defer sem.Release()

	rh, instanceID, payload, err := e.transport.RawExchangeInstanceID(ctx, eid, req)
	if err != nil {
		return nil, err
	}

	switch {
	case rh.CC == nsm.CCAccepted:
		return e.awaitCompletion(ctx, eid, instanceID)
	case rh.CC.Success():
		return payload, nil
	default:
		return nil, nsm.ErrCommandFail("Exchanger.ExchangeLongRunning", rh.ReasonCode)
	}
}

func (e *Exchanger) awaitCompletion(ctx context.Context, eid uint8, instanceID uint8) ([]byte, error) {
	w := &waiter{instanceID: instanceID, resultCh: make(chan longRunningResult, 1)}

	e.mu.Lock()
	e.waiters[eid] = w
	e.mu.Unlock()
	defer e.clearWaiter(eid, w)

	timer := timerx.NewTimer(e.cfg.LongRunningTimeout)
	defer timer.Stop()

	select {
	case res := <-w.resultCh:
		return res.payload, res.err
	case <-timer.C():
		timer.MarkExpired()
		return nil, nsmerr.New("Exchanger.awaitCompletion", nsmerr.LayerProtocol, nsmerr.CodeCommandFail)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Exchanger) clearWaiter(eid uint8, w *waiter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.waiters[eid]; ok && cur == w {
		delete(e.waiters, eid)
	}
}

// HandleLongRunningCompletion delivers a decoded long-running completion
// event to the waiter it belongs to, matching strictly by instance id
// (spec.md §8 "A long-running completion event whose instance id does not
// match the recorded accept id is discarded"). It reports whether a waiter
// was found; the event dispatcher (C4) should treat false as ERROR_DATA.
func (e *Exchanger) HandleLongRunningCompletion(eid uint8, evt nsm.LongRunningCompletionEvent, payload []byte) bool {
	e.mu.Lock()
	w, ok := e.waiters[eid]
	e.mu.Unlock()
	if !ok || w.instanceID != evt.InstanceID {
		return false
	}

	var result longRunningResult
	if evt.CC.Success() {
		result.payload = payload
	} else {
		result.err = nsm.ErrCommandFail("Exchanger.HandleLongRunningCompletion", evt.ReasonCode)
	}

	select {
	case w.resultCh <- result:
	default:
		// Waiter already resolved (e.g. by context cancellation); drop.
	}
	return true
}
