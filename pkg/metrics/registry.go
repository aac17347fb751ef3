// Package metrics provides the Prometheus registry used by the NSM protocol
// engine's metrics collectors. Collectors are nil-safe: when metrics are
// disabled, constructors return nil and every method on the nil receiver is
// a no-op, so call sites never need to guard on whether metrics are on.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
	enabled  bool
)

// InitRegistry creates the global Prometheus registry. When enabled is
// false, IsEnabled reports false and GetRegistry returns nil; collector
// constructors throughout the codebase check IsEnabled() and return a nil
// collector in that case.
func InitRegistry(isEnabled bool) *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	enabled = isEnabled
	if !isEnabled {
		registry = nil
		return nil
	}

	registry = prometheus.NewRegistry()
	return registry
}

// IsEnabled reports whether metrics collection is enabled.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the global Prometheus registry, or nil if metrics are
// disabled or InitRegistry has not been called.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
