package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nsm-fleet/nsmd/pkg/metrics"
)

// TransportMetrics tracks instance-id pool utilization and retry/timeout
// behavior for the request/response transport (C2). All methods tolerate a
// nil receiver so a disabled metrics config costs nothing.
type TransportMetrics struct {
	instanceIDPoolInUse *prometheus.GaugeVec
	retries             *prometheus.CounterVec
	timeouts            *prometheus.CounterVec
	unreachable         *prometheus.CounterVec
}

// NewTransportMetrics creates a new TransportMetrics instance, or nil if
// metrics are disabled.
func NewTransportMetrics() *TransportMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &TransportMetrics{
		instanceIDPoolInUse: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nsmd_transport_instance_id_pool_in_use",
				Help: "Number of instance ids currently allocated to in-flight requests, by device eid",
			},
			[]string{"eid"},
		),
		retries: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsmd_transport_retries_total",
				Help: "Total number of request retry attempts, by device eid and command code",
			},
			[]string{"eid", "command_code"},
		),
		timeouts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsmd_transport_timeouts_total",
				Help: "Total number of requests that exhausted all retries, by device eid and command code",
			},
			[]string{"eid", "command_code"},
		),
		unreachable: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsmd_transport_unreachable_total",
				Help: "Total number of requests failed with ErrUnreachable, by device eid",
			},
			[]string{"eid"},
		),
	}
}

// SetInstanceIDPoolInUse records the current instance-id pool utilization for a device.
func (m *TransportMetrics) SetInstanceIDPoolInUse(eid string, n int) {
	if m == nil {
		return
	}
	m.instanceIDPoolInUse.WithLabelValues(eid).Set(float64(n))
}

// IncRetry records a retried attempt.
func (m *TransportMetrics) IncRetry(eid, commandCode string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(eid, commandCode).Inc()
}

// IncTimeout records a request that exhausted all retries.
func (m *TransportMetrics) IncTimeout(eid, commandCode string) {
	if m == nil {
		return
	}
	m.timeouts.WithLabelValues(eid, commandCode).Inc()
}

// IncUnreachable records a request that failed because the device is offline.
func (m *TransportMetrics) IncUnreachable(eid string) {
	if m == nil {
		return
	}
	m.unreachable.WithLabelValues(eid).Inc()
}
