package sensor

import (
	"log/slog"

	"github.com/nsm-fleet/nsmd/internal/logger"
	"github.com/nsm-fleet/nsmd/internal/objectmodel"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
)

// NewXIDSensor builds an EventSensor that decodes XID (fatal-error) events,
// marks key available but not functional in cache (surfaced by the status
// API as a device health signal), and logs the XID's reason and sequence
// number.
func NewXIDSensor(cache *objectmodel.Cache, key objectmodel.Key) *EventSensor {
	return NewEvent("xid", nsm.MessageTypePlatformEnvironmental, nsm.EventIDXID, func(payload []byte) {
		evt, err := nsm.DecodeXIDEvent(payload)
		if err != nil {
			logger.Warn("malformed XID event", logger.Err(err))
			return
		}
		cache.UpdateStatus(key, true, false)
		logger.Warn("XID event received",
			logger.SensorName("xid"), logger.ReasonCode(evt.Reason),
			slog.Uint64("xid_sequence", uint64(evt.SequenceNumber)))
	})
}

// NewResetRequiredSensor builds an EventSensor that flips the device's
// functional flag on a reset-required event.
func NewResetRequiredSensor(cache *objectmodel.Cache, key objectmodel.Key) *EventSensor {
	return NewEvent("reset_required", nsm.MessageTypePlatformEnvironmental, nsm.EventIDResetRequired, func(payload []byte) {
		if _, err := nsm.DecodeResetRequiredEvent(payload); err != nil {
			logger.Warn("malformed reset-required event", logger.Err(err))
			return
		}
		cache.UpdateStatus(key, true, false)
	})
}

// NewThresholdSensor builds an EventSensor that forwards the crossed
// threshold category bitmask to observer as a numeric reading. It makes no
// status transition: a threshold event is advisory, not a failure.
func NewThresholdSensor(observer ValueObserver) *EventSensor {
	return NewEvent("threshold", nsm.MessageTypeNetworkPort, nsm.EventIDThreshold, func(payload []byte) {
		evt, err := nsm.DecodeThresholdEvent(payload)
		if err != nil {
			logger.Warn("malformed threshold event", logger.Err(err))
			return
		}
		observer.UpdateReading(float64(evt.Categories), 0)
	})
}
