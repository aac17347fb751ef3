package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for NSM protocol engine operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Device identity attributes
	// ========================================================================
	AttrEID        = "nsm.eid"         // MCTP endpoint id
	AttrDeviceUUID = "nsm.device_uuid" // Device UUID
	AttrDeviceType = "nsm.device_type" // GPU, Switch, PCIeBridge, Baseboard, EROT, Unknown
	AttrInstance   = "nsm.instance"    // Device instance number after remap

	// ========================================================================
	// NSM exchange attributes
	// ========================================================================
	AttrInstanceID   = "nsm.instance_id"   // 5-bit instance id used for correlation
	AttrMessageType  = "nsm.message_type"  // NVIDIA message type (command family)
	AttrCommandCode  = "nsm.command_code"  // NSM command code
	AttrCC           = "nsm.completion"    // Completion code
	AttrReasonCode   = "nsm.reason_code"   // Reason code (present when CC != SUCCESS)
	AttrLongRunning  = "nsm.long_running"  // Whether the exchange is long-running
	AttrRetryAttempt = "nsm.retry_attempt" // Retry attempt number

	// ========================================================================
	// Transport attributes
	// ========================================================================
	AttrSocketPath = "mctp.socket_path"
	AttrMsgTag     = "mctp.msg_tag"

	// ========================================================================
	// Sensor & scheduler attributes
	// ========================================================================
	AttrSensorName = "nsm.sensor"
	AttrSensorKind = "nsm.sensor_kind"
	AttrTag        = "nsm.sample_tag"
	AttrPassN      = "nsm.scheduler_pass"

	// ========================================================================
	// Async set-operation manager attributes
	// ========================================================================
	AttrObjectPath  = "nsm.async_object_path"
	AttrSlotIndex   = "nsm.async_slot_index"
	AttrAsyncStatus = "nsm.async_status"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// ========================================================================
	// Transport / request-response exchange spans
	// ========================================================================
	SpanExchange     = "nsm.exchange"      // Root span for a request/response round-trip
	SpanSend         = "nsm.send"          // Framing + socket write
	SpanRecv         = "nsm.recv"          // Socket read + frame decode
	SpanRetry        = "nsm.retry"         // A retried attempt within an exchange
	SpanLongRunAwait = "nsm.long_run_await" // Waiting on the async event completing a long-running command

	// ========================================================================
	// Device manager spans
	// ========================================================================
	SpanDiscovery       = "device.discovery"
	SpanDeviceIdentify  = "device.identify"
	SpanCapabilityProbe = "device.capability_probe"
	SpanDeviceOffline   = "device.offline"

	// ========================================================================
	// Sensor spans
	// ========================================================================
	SpanSensorPoll      = "sensor.poll"
	SpanSensorAggregate = "sensor.aggregate_decode"
	SpanSensorEvent     = "sensor.event"

	// ========================================================================
	// Scheduler spans
	// ========================================================================
	SpanSchedulerPass = "scheduler.pass"

	// ========================================================================
	// Event dispatch spans
	// ========================================================================
	SpanEventDispatch = "event.dispatch"

	// ========================================================================
	// Async set-operation manager spans
	// ========================================================================
	SpanAsyncOpSubmit = "asyncop.submit"
	SpanAsyncOpPoll   = "asyncop.poll"
)

// EID returns an attribute for an MCTP endpoint id
func EID(eid uint8) attribute.KeyValue {
	return attribute.Int(AttrEID, int(eid))
}

// DeviceUUID returns an attribute for a device UUID
func DeviceUUID(uuid string) attribute.KeyValue {
	return attribute.String(AttrDeviceUUID, uuid)
}

// DeviceType returns an attribute for a device type
func DeviceType(t string) attribute.KeyValue {
	return attribute.String(AttrDeviceType, t)
}

// Instance returns an attribute for a device instance number
func Instance(n uint32) attribute.KeyValue {
	return attribute.Int64(AttrInstance, int64(n))
}

// InstanceID returns an attribute for the NSM 5-bit instance id
func InstanceID(id uint8) attribute.KeyValue {
	return attribute.Int(AttrInstanceID, int(id))
}

// MessageType returns an attribute for the NVIDIA message type byte
func MessageType(t uint8) attribute.KeyValue {
	return attribute.Int(AttrMessageType, int(t))
}

// CommandCode returns an attribute for the NSM command code
func CommandCode(c uint8) attribute.KeyValue {
	return attribute.Int(AttrCommandCode, int(c))
}

// CompletionCode returns an attribute for the completion code
func CompletionCode(cc uint8) attribute.KeyValue {
	return attribute.Int(AttrCC, int(cc))
}

// ReasonCode returns an attribute for the reason code
func ReasonCode(rc uint16) attribute.KeyValue {
	return attribute.Int(AttrReasonCode, int(rc))
}

// LongRunning returns an attribute marking an exchange as long-running
func LongRunning(v bool) attribute.KeyValue {
	return attribute.Bool(AttrLongRunning, v)
}

// RetryAttempt returns an attribute for a pending request's retry attempt
func RetryAttempt(n int) attribute.KeyValue {
	return attribute.Int(AttrRetryAttempt, n)
}

// SocketPath returns an attribute for the MCTP demux socket path
func SocketPath(path string) attribute.KeyValue {
	return attribute.String(AttrSocketPath, path)
}

// MsgTag returns an attribute for the MCTP message tag
func MsgTag(tag uint8) attribute.KeyValue {
	return attribute.Int(AttrMsgTag, int(tag))
}

// SensorName returns an attribute for a sensor's name
func SensorName(name string) attribute.KeyValue {
	return attribute.String(AttrSensorName, name)
}

// SensorKind returns an attribute for a sensor's concrete shape
func SensorKind(kind string) attribute.KeyValue {
	return attribute.String(AttrSensorKind, kind)
}

// Tag returns an attribute for an aggregate sample tag
func Tag(tag uint8) attribute.KeyValue {
	return attribute.Int(AttrTag, int(tag))
}

// PassN returns an attribute for a scheduler pass counter
func PassN(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrPassN, int64(n))
}

// ObjectPath returns an attribute for an async-op dispatcher target path
func ObjectPath(path string) attribute.KeyValue {
	return attribute.String(AttrObjectPath, path)
}

// SlotIndex returns an attribute for an async-op pool slot index
func SlotIndex(i int) attribute.KeyValue {
	return attribute.Int(AttrSlotIndex, i)
}

// AsyncStatus returns an attribute for an async-op status
func AsyncStatus(status string) attribute.KeyValue {
	return attribute.String(AttrAsyncStatus, status)
}

// StartExchangeSpan starts a span for a request/response exchange with a device.
func StartExchangeSpan(ctx context.Context, eid uint8, commandCode uint8, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		EID(eid),
		CommandCode(commandCode),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanExchange, trace.WithAttributes(allAttrs...))
}

// StartDiscoverySpan starts a span for device discovery processing.
func StartDiscoverySpan(ctx context.Context, eid uint8, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		EID(eid),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanDiscovery, trace.WithAttributes(allAttrs...))
}

// StartSensorSpan starts a span for a sensor poll/decode operation.
func StartSensorSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		SensorName(name),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanSensorPoll, trace.WithAttributes(allAttrs...))
}

// StartAsyncOpSpan starts a span for an async set-operation dispatcher call.
func StartAsyncOpSpan(ctx context.Context, operation string, objectPath string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		ObjectPath(objectPath),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "asyncop."+operation, trace.WithAttributes(allAttrs...))
}

// FmtHex formats a byte slice as a lowercase hex string, for attribute values
// that need to carry raw protocol bytes (e.g. a device UUID read as raw bytes).
func FmtHex(b []byte) string {
	return fmt.Sprintf("%x", b)
}
