package sensor

import (
	"context"

	"github.com/nsm-fleet/nsmd/internal/asyncop"
	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/nsmerr"
)

// WriteValueSetter lets a PolledBehavior accept a per-dispatch value before
// AsHandler's Update pass touches the wire. A behavior that validates and
// rejects an out-of-range value here satisfies spec.md §8 scenario 5 ("the
// handler throws InvalidArgument before any wire activity"); a read-only
// behavior (temperature, power draw) doesn't implement this and AsHandler
// falls back to a plain repeated Update.
type WriteValueSetter interface {
	SetValue(value any) error
}

// AsHandler adapts a PolledSensor write (e.g. SetPowerCap) to the
// asyncop.Handler shape C8's dispatcher expects. If the sensor's behavior
// implements WriteValueSetter, the dispatched value is validated and
// installed first; only then does it run one Update pass, with the
// outcome translated into the async-op status taxonomy.
func (s *PolledSensor) AsHandler() asyncop.Handler {
	return func(ctx context.Context, value any, dev *device.Device) (asyncop.Status, error) {
		if setter, ok := s.behavior.(WriteValueSetter); ok {
			if err := setter.SetValue(value); err != nil {
				return statusForError(err), nil
			}
		}
		if err := s.Update(ctx, dev); err != nil {
			return statusForError(err), nil
		}
		return asyncop.StatusSuccess, nil
	}
}

// AsHandler adapts Handle to the asyncop.Handler shape the C8 dispatcher
// expects, translating the sensor's error into the async-op status
// taxonomy rather than propagating it, so a rejected or failed write
// completes its slot instead of leaving it permanently InProgress.
func (s *AsyncLongRunningSensor) AsHandler() asyncop.Handler {
	return func(ctx context.Context, value any, dev *device.Device) (asyncop.Status, error) {
		if err := s.Handle(ctx, dev.EID, value); err != nil {
			return statusForError(err), nil
		}
		return asyncop.StatusSuccess, nil
	}
}

// statusForError maps an nsmerr code to the async-op status taxonomy
// (spec.md §4.8 "Error taxonomy").
func statusForError(err error) asyncop.Status {
	switch nsmerr.CodeOf(err) {
	case nsmerr.CodeInvalidArgument:
		return asyncop.StatusInvalidArgument
	case nsmerr.CodeUnreachable, nsmerr.CodeTimeout:
		return asyncop.StatusUnavailable
	case nsmerr.CodeWriteFail, nsmerr.CodeCommandFail:
		return asyncop.StatusWriteFailure
	default:
		return asyncop.StatusInternalFailure
	}
}
