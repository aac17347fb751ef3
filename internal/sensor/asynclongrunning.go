package sensor

import (
	"context"

	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/transport"
	"github.com/nsm-fleet/nsmd/pkg/bufpool"
)

// LongRunningExchanger is the subset of *exchange.Exchanger an async
// long-running sensor needs.
type LongRunningExchanger interface {
	ExchangeLongRunning(ctx context.Context, eid uint8, req transport.Request) ([]byte, error)
}

// AsyncLongRunningSensor is C8's entry point for a write that completes
// asynchronously (spec.md §4.6 "Async long-running sensor"). Its Handle
// method is the C8 dispatcher's handler body: it encodes value into a
// request, issues it via ExchangeLongRunning, and hands the completion
// payload to onComplete.
//
// spec.md describes the sensor itself acquiring the device semaphore and
// installing itself as the long-running event handler; here that two-step
// dance is already generalized by C3 (Exchanger.ExchangeLongRunning) and C4
// (the dispatcher always routes a long-running completion to the
// Exchanger, keyed by EID and instance id, regardless of which sensor is
// waiting), so Handle only needs to call through to it.
type AsyncLongRunningSensor struct {
	name       string
	ex         LongRunningExchanger
	genRequest func(value any) (transport.Request, error)
	onComplete func(payload []byte) error
}

// NewAsyncLongRunning builds an AsyncLongRunningSensor named name.
// genRequest encodes the write value into a wire request; onComplete
// decodes the completion payload and updates device/sink state.
func NewAsyncLongRunning(name string, ex LongRunningExchanger, genRequest func(value any) (transport.Request, error), onComplete func(payload []byte) error) *AsyncLongRunningSensor {
	return &AsyncLongRunningSensor{name: name, ex: ex, genRequest: genRequest, onComplete: onComplete}
}

// Name returns the sensor's name.
func (s *AsyncLongRunningSensor) Name() string { return s.name }

// Update is a no-op: an async long-running sensor is driven by Handle, not
// by the scheduler's polling pass.
func (s *AsyncLongRunningSensor) Update(ctx context.Context, d *device.Device) error { return nil }

// Handle encodes value, issues the long-running request against eid, and
// runs onComplete over the result. It is the body C8's dispatcher awaits
// for this sensor's (interface, property) handler entry.
func (s *AsyncLongRunningSensor) Handle(ctx context.Context, eid uint8, value any) error {
	req, err := s.genRequest(value)
	if err != nil {
		return err
	}
	payload, err := s.ex.ExchangeLongRunning(ctx, eid, req)
	bufpool.Put(req.Body)
	if err != nil {
		return err
	}
	return s.onComplete(payload)
}
