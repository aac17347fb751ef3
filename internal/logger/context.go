package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds exchange-scoped logging context: the fields that
// identify which device and which NSM exchange a log line belongs to.
type LogContext struct {
	TraceID     string    // OpenTelemetry trace ID
	SpanID      string    // OpenTelemetry span ID
	EID         uint8     // MCTP endpoint id
	DeviceUUID  string    // Device UUID
	InstanceID  uint8     // NSM 5-bit instance id of the in-flight exchange
	CommandCode uint8     // NSM command code
	SensorName  string    // Sensor that initiated the exchange, if any
	StartTime   time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext scoped to a device EID
func NewLogContext(eid uint8) *LogContext {
	return &LogContext{
		EID:       eid,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithDevice returns a copy with device identity set
func (lc *LogContext) WithDevice(eid uint8, uuid string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.EID = eid
		clone.DeviceUUID = uuid
	}
	return clone
}

// WithExchange returns a copy with the in-flight exchange's identity set
func (lc *LogContext) WithExchange(instanceID, commandCode uint8) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.InstanceID = instanceID
		clone.CommandCode = commandCode
	}
	return clone
}

// WithSensor returns a copy with the originating sensor set
func (lc *LogContext) WithSensor(name string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.SensorName = name
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
