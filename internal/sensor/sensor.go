// Package sensor implements C6, the four concrete sensor shapes a device
// schedules: polled, aggregator, event-driven, and async long-running
// (spec.md §4.6). Each implements device.Sensor so a device.Manager or C7
// scheduler can drive it without knowing its concrete kind.
package sensor

import (
	"context"

	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
)

// Exchanger is the subset of *exchange.Exchanger a plain sensor needs: one
// request/response round trip. Named locally, as device.Exchanger is, so
// this package never has to import exchange's concrete type.
type Exchanger interface {
	Exchange(ctx context.Context, eid uint8, req transport.Request) (nsm.ResponseHeader, []byte, error)
}

// ValueObserver receives a numeric reading, as spec.md §4.6's
// "updateReading(value, timestamp=0)" contract describes it.
type ValueObserver interface {
	UpdateReading(value float64, timestampMs int64)
}

// StatusObserver receives an availability/functional transition, spec.md
// §4.6's "status sink (health/availability flags)".
type StatusObserver interface {
	UpdateStatus(available, functional bool)
}

var _ device.Sensor = (*PolledSensor)(nil)
var _ device.Sensor = (*AggregatorSensor)(nil)
var _ device.Sensor = (*EventSensor)(nil)
var _ device.Sensor = (*AsyncLongRunningSensor)(nil)
