package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nsm-fleet/nsmd/pkg/metrics"
)

// SchedulerMetrics tracks per-device scheduler pass behavior (C7): how long
// each cooperative pass over a device's sensors takes, and where the
// round-robin cursor currently sits. All methods tolerate a nil receiver.
type SchedulerMetrics struct {
	passDuration *prometheus.HistogramVec
	cursor       *prometheus.GaugeVec
}

// NewSchedulerMetrics creates a new SchedulerMetrics instance, or nil if
// metrics are disabled.
func NewSchedulerMetrics() *SchedulerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &SchedulerMetrics{
		passDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nsmd_scheduler_pass_duration_milliseconds",
				Help: "Duration of a single scheduler pass over one device's sensors, in milliseconds",
				Buckets: []float64{
					1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000,
				},
			},
			[]string{"eid"},
		),
		cursor: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nsmd_scheduler_roundrobin_cursor",
				Help: "Current round-robin cursor position within a device's sensor list",
			},
			[]string{"eid"},
		),
	}
}

// ObservePass records the duration of a completed scheduler pass for a device.
func (m *SchedulerMetrics) ObservePass(eid string, durationMs float64) {
	if m == nil {
		return
	}
	m.passDuration.WithLabelValues(eid).Observe(durationMs)
}

// SetCursor records the current round-robin cursor position for a device.
func (m *SchedulerMetrics) SetCursor(eid string, position int) {
	if m == nil {
		return
	}
	m.cursor.WithLabelValues(eid).Set(float64(position))
}
