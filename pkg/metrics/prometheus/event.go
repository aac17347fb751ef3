package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nsm-fleet/nsmd/pkg/metrics"
)

// EventMetrics tracks unsolicited event dispatch (C4): counts by (message
// type, event id) and a dropped-event counter for events that arrived with
// no registered handler. All methods tolerate a nil receiver.
type EventMetrics struct {
	events       *prometheus.CounterVec
	droppedTotal prometheus.Counter
}

// NewEventMetrics creates a new EventMetrics instance, or nil if metrics are disabled.
func NewEventMetrics() *EventMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &EventMetrics{
		events: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsmd_events_total",
				Help: "Total number of dispatched events, by message type and event id",
			},
			[]string{"message_type", "event_id"},
		),
		droppedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nsmd_events_dropped_total",
				Help: "Total number of events received with no registered handler",
			},
		),
	}
}

// IncEvent records a dispatched event.
func (m *EventMetrics) IncEvent(messageType, eventID string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(messageType, eventID).Inc()
}

// IncDropped records an event that had no registered handler.
func (m *EventMetrics) IncDropped() {
	if m == nil {
		return
	}
	m.droppedTotal.Inc()
}
