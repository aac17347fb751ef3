package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so aggregation and
// querying line up across every component that touches the NSM protocol
// engine: transport, device manager, scheduler, sensors, async-op manager.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Device identity
	// ========================================================================
	KeyEID        = "eid"         // MCTP endpoint id
	KeyUUID       = "device_uuid" // Device UUID
	KeyDeviceType = "device_type" // GPU, Switch, PCIeBridge, Baseboard, EROT, Unknown
	KeyInstance   = "instance"    // Device instance number after remap

	// ========================================================================
	// NSM protocol exchange
	// ========================================================================
	KeyInstanceID   = "instance_id"   // 5-bit NSM instance id used for correlation
	KeyMessageType  = "message_type"  // NVIDIA message type (command family)
	KeyCommandCode  = "command_code"  // NSM command code
	KeyCC           = "completion"    // Completion code
	KeyReasonCode   = "reason_code"   // Reason code (present when CC != SUCCESS)
	KeyEventID      = "event_id"      // Event id for C4 dispatch
	KeyLongRunning  = "long_running"  // Whether the exchange is a long-running command
	KeyRetryAttempt = "retry_attempt" // Retry attempt number for a pending request

	// ========================================================================
	// Sensor & scheduler
	// ========================================================================
	KeySensorName = "sensor"         // Sensor name
	KeySensorKind = "sensor_kind"    // polled | aggregator | event | async_long_running
	KeyTag        = "sample_tag"     // Aggregate sample tag (0-253 sub-sensor, 254 uuid, 255 timestamp)
	KeyPassN      = "scheduler_pass" // Scheduler pass counter

	// ========================================================================
	// Async set-operation manager
	// ========================================================================
	KeyObjectPath  = "object_path" // Async-op dispatcher target path
	KeySlotIndex   = "slot_index"  // Async-op pool slot index
	KeyAsyncStatus = "async_status"

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// EID returns a slog.Attr for an MCTP endpoint id
func EID(eid uint8) slog.Attr {
	return slog.Int(KeyEID, int(eid))
}

// DeviceUUID returns a slog.Attr for a device UUID
func DeviceUUID(uuid string) slog.Attr {
	return slog.String(KeyUUID, uuid)
}

// DeviceType returns a slog.Attr for a device type
func DeviceType(t string) slog.Attr {
	return slog.String(KeyDeviceType, t)
}

// Instance returns a slog.Attr for a device instance number
func Instance(n uint32) slog.Attr {
	return slog.Uint64(KeyInstance, uint64(n))
}

// InstanceID returns a slog.Attr for the NSM 5-bit instance id
func InstanceID(id uint8) slog.Attr {
	return slog.Int(KeyInstanceID, int(id))
}

// MessageType returns a slog.Attr for the NVIDIA message type byte
func MessageType(t uint8) slog.Attr {
	return slog.Int(KeyMessageType, int(t))
}

// CommandCode returns a slog.Attr for the NSM command code
func CommandCode(c uint8) slog.Attr {
	return slog.Int(KeyCommandCode, int(c))
}

// CompletionCode returns a slog.Attr for the completion code
func CompletionCode(cc uint8) slog.Attr {
	return slog.Int(KeyCC, int(cc))
}

// ReasonCode returns a slog.Attr for the reason code
func ReasonCode(rc uint16) slog.Attr {
	return slog.Int(KeyReasonCode, int(rc))
}

// EventID returns a slog.Attr for an event id
func EventID(id uint8) slog.Attr {
	return slog.Int(KeyEventID, int(id))
}

// LongRunning returns a slog.Attr marking an exchange as long-running
func LongRunning(v bool) slog.Attr {
	return slog.Bool(KeyLongRunning, v)
}

// RetryAttempt returns a slog.Attr for a pending request's retry attempt
func RetryAttempt(n int) slog.Attr {
	return slog.Int(KeyRetryAttempt, n)
}

// SensorName returns a slog.Attr for a sensor's name
func SensorName(name string) slog.Attr {
	return slog.String(KeySensorName, name)
}

// SensorKind returns a slog.Attr for a sensor's concrete shape
func SensorKind(kind string) slog.Attr {
	return slog.String(KeySensorKind, kind)
}

// Tag returns a slog.Attr for an aggregate sample tag
func Tag(tag uint8) slog.Attr {
	return slog.Int(KeyTag, int(tag))
}

// PassN returns a slog.Attr for a scheduler pass counter
func PassN(n uint64) slog.Attr {
	return slog.Uint64(KeyPassN, n)
}

// ObjectPath returns a slog.Attr for an async-op dispatcher path
func ObjectPath(path string) slog.Attr {
	return slog.String(KeyObjectPath, path)
}

// SlotIndex returns a slog.Attr for an async-op pool slot index
func SlotIndex(i int) slog.Attr {
	return slog.Int(KeySlotIndex, i)
}

// AsyncStatus returns a slog.Attr for an async-op status
func AsyncStatus(status string) slog.Attr {
	return slog.String(KeyAsyncStatus, status)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}
