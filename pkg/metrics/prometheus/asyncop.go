package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nsm-fleet/nsmd/pkg/metrics"
)

// AsyncOpMetrics tracks the bounded async set-operation pool (C8): how many
// slots are currently in use, and how often a submission failed because the
// pool was exhausted. All methods tolerate a nil receiver.
type AsyncOpMetrics struct {
	inUse             prometheus.Gauge
	allocationFailure prometheus.Counter
}

// NewAsyncOpMetrics creates a new AsyncOpMetrics instance, or nil if metrics
// are disabled.
func NewAsyncOpMetrics() *AsyncOpMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &AsyncOpMetrics{
		inUse: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "nsmd_asyncop_pool_in_use",
				Help: "Number of async set-operation pool slots currently allocated",
			},
		),
		allocationFailure: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nsmd_asyncop_allocation_failures_total",
				Help: "Total number of async set-operation submissions rejected because the pool was exhausted",
			},
		),
	}
}

// SetInUse records the current number of allocated async-op pool slots.
func (m *AsyncOpMetrics) SetInUse(n int) {
	if m == nil {
		return
	}
	m.inUse.Set(float64(n))
}

// IncAllocationFailure records a submission rejected due to pool exhaustion.
func (m *AsyncOpMetrics) IncAllocationFailure() {
	if m == nil {
		return
	}
	m.allocationFailure.Inc()
}
