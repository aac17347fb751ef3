package sensor

import (
	"context"

	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/logger"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
	"github.com/nsm-fleet/nsmd/pkg/bufpool"
)

// PolledBehavior is the pair of pure methods a concrete polled sensor
// implements: how to build the request, and what to do with a successful
// response (spec.md §4.6 "Derived classes implement both pure methods").
type PolledBehavior interface {
	GenRequestMsg() transport.Request
	HandleResponseMsg(payload []byte) error
}

// PolledSensor is the generic polled-sensor contract (spec.md §4.6): encode
// a request via the overridable GenRequestMsg, send via C3, and on success
// call HandleResponseMsg. Repeated identical failures are logged once per
// (CC, reason) pair via failureLimiter.
type PolledSensor struct {
	name     string
	behavior PolledBehavior
	ex       Exchanger
	limiter  *failureLimiter
}

// NewPolled builds a PolledSensor named name, driven by behavior over ex.
func NewPolled(name string, behavior PolledBehavior, ex Exchanger) *PolledSensor {
	return &PolledSensor{name: name, behavior: behavior, ex: ex, limiter: newFailureLimiter()}
}

// Name returns the sensor's name.
func (s *PolledSensor) Name() string { return s.name }

// Update performs one polling cycle: encode, exchange, decode. req.Body, if
// it came from the shared pool (A7), is safe to return as soon as Exchange
// returns: the transport sends and retransmits from its own copy of it
// (transport.rawExchange).
func (s *PolledSensor) Update(ctx context.Context, d *device.Device) error {
	req := s.behavior.GenRequestMsg()
	rh, payload, err := s.ex.Exchange(ctx, d.EID, req)
	bufpool.Put(req.Body)
	if err != nil {
		return err
	}

	if !rh.CC.Success() {
		if s.limiter.ShouldLog(rh.CC, rh.ReasonCode) {
			logger.Warn("polled sensor command failed",
				logger.SensorName(s.name), logger.EID(d.EID),
				logger.CompletionCode(uint8(rh.CC)), logger.ReasonCode(uint16(rh.ReasonCode)))
		}
		return nsm.ErrCommandFail(s.name, rh.ReasonCode)
	}

	s.limiter.Reset()
	return s.behavior.HandleResponseMsg(payload)
}
