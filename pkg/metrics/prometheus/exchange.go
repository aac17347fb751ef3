package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nsm-fleet/nsmd/pkg/metrics"
)

// ExchangeMetrics tracks request/response exchanges (C3), labeled by
// command family and completion code. All methods tolerate a nil receiver.
type ExchangeMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewExchangeMetrics creates a new ExchangeMetrics instance, or nil if
// metrics are disabled.
func NewExchangeMetrics() *ExchangeMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &ExchangeMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsmd_exchange_requests_total",
				Help: "Total number of completed request/response exchanges, by message type, command code, and completion code",
			},
			[]string{"message_type", "command_code", "completion_code"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nsmd_exchange_duration_milliseconds",
				Help: "Duration of a request/response exchange including retries, in milliseconds",
				Buckets: []float64{
					1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000,
				},
			},
			[]string{"message_type", "command_code"},
		),
	}
}

// ObserveExchange records a completed exchange.
func (m *ExchangeMetrics) ObserveExchange(messageType, commandCode, completionCode string, durationMs float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(messageType, commandCode, completionCode).Inc()
	m.duration.WithLabelValues(messageType, commandCode).Observe(durationMs)
}
