package sensor

import (
	"context"

	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/logger"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
)

// numSubSensorSlots is the number of addressable sub-sensor slots in an
// aggregate response, tags 0..253 (spec.md §4.6 "array indexed 0…253").
const numSubSensorSlots = 254

// AggregatorSlot is one sub-sensor entry in an AggregatorSensor's table.
type AggregatorSlot struct {
	Value  ValueObserver
	Status StatusObserver
}

// AggregatorSensor issues one request and walks the resulting aggregate
// stream, routing each tagged sample to its registered sub-sensor slot
// (spec.md §4.6 "Aggregator sensor").
type AggregatorSensor struct {
	name       string
	ex         Exchanger
	genRequest func() transport.Request
	slots      [numSubSensorSlots]AggregatorSlot
	limiter    *failureLimiter
}

// NewAggregator builds an AggregatorSensor named name, issuing genRequest()
// each update.
func NewAggregator(name string, ex Exchanger, genRequest func() transport.Request) *AggregatorSensor {
	return &AggregatorSensor{name: name, ex: ex, genRequest: genRequest, limiter: newFailureLimiter()}
}

// SetSlot registers the numeric/status observers for sub-sensor tag (which
// must be < numSubSensorSlots; tags 254/255 are reserved per spec.md §6).
func (a *AggregatorSensor) SetSlot(tag uint8, value ValueObserver, status StatusObserver) {
	if int(tag) >= numSubSensorSlots {
		return
	}
	a.slots[tag] = AggregatorSlot{Value: value, Status: status}
}

// Name returns the sensor's name.
func (a *AggregatorSensor) Name() string { return a.name }

// Update issues the aggregate request and distributes every sample to its
// slot. Missing samples leave prior values untouched; malformed samples
// mark the corresponding sub-sensor "not working" (spec.md §4.6).
func (a *AggregatorSensor) Update(ctx context.Context, d *device.Device) error {
	req := a.genRequest()
	rh, payload, err := a.ex.Exchange(ctx, d.EID, req)
	if err != nil {
		return err
	}
	if !rh.CC.Success() {
		if a.limiter.ShouldLog(rh.CC, rh.ReasonCode) {
			logger.Warn("aggregator sensor command failed",
				logger.SensorName(a.name), logger.EID(d.EID),
				logger.CompletionCode(uint8(rh.CC)), logger.ReasonCode(uint16(rh.ReasonCode)))
		}
		return nsm.ErrCommandFail(a.name, rh.ReasonCode)
	}
	a.limiter.Reset()

	samples, err := nsm.DecodeAggregateResponse(rh, payload)
	if err != nil {
		return err
	}

	var timestampMs int64
	for _, s := range samples {
		if s.Tag == nsm.AggregateTagTimestamp && s.Err == nil {
			if v, err := nsm.DecodeUint64Sample(s.Data); err == nil {
				timestampMs = int64(v)
			}
		}
	}

	for _, s := range samples {
		switch s.Tag {
		case nsm.AggregateTagTimestamp, nsm.AggregateTagUUID:
			continue
		}
		if int(s.Tag) >= numSubSensorSlots {
			continue
		}
		slot := a.slots[s.Tag]

		if s.Err != nil {
			if slot.Status != nil {
				slot.Status.UpdateStatus(false, false)
			}
			logger.Warn("aggregate sample malformed", logger.SensorName(a.name), logger.EID(d.EID), logger.Tag(s.Tag))
			continue
		}
		if slot.Value == nil {
			continue
		}

		v, err := nsm.DecodeFloat32Sample(s.Data)
		if err != nil {
			if slot.Status != nil {
				slot.Status.UpdateStatus(false, false)
			}
			continue
		}
		slot.Value.UpdateReading(float64(v), timestampMs)
		if slot.Status != nil {
			slot.Status.UpdateStatus(true, true)
		}
	}

	return nil
}
