package sensor

import (
	"sync"

	"github.com/nsm-fleet/nsmd/internal/objectmodel"
)

// CompositeObserver fans one numeric reading out to multiple sinks
// (spec.md §4.6 "A composite observer distributes to multiple sinks").
type CompositeObserver struct {
	sinks []ValueObserver
}

// NewCompositeObserver builds a CompositeObserver over the given sinks.
func NewCompositeObserver(sinks ...ValueObserver) *CompositeObserver {
	return &CompositeObserver{sinks: sinks}
}

// UpdateReading forwards the reading to every wrapped sink, in order.
func (c *CompositeObserver) UpdateReading(value float64, timestampMs int64) {
	for _, s := range c.sinks {
		s.UpdateReading(value, timestampMs)
	}
}

// ScaleFunc converts a wire-unit value to the sink's published unit, e.g.
// milliwatts to watts (spec.md §4.6 "Unit and scaling are sink-local").
type ScaleFunc func(float64) float64

// Identity is the no-op ScaleFunc, used when the wire unit already matches
// the published unit.
func Identity(v float64) float64 { return v }

// ValuePropertySink publishes a reading onto the object model (spec.md
// §4.6 "a value-property sink (publishes on the object model)").
type ValuePropertySink struct {
	cache *objectmodel.Cache
	key   objectmodel.Key
	scale ScaleFunc
}

// NewValuePropertySink builds a ValuePropertySink over cache at key, scaling
// every reading with scale before publishing.
func NewValuePropertySink(cache *objectmodel.Cache, key objectmodel.Key, scale ScaleFunc) *ValuePropertySink {
	if scale == nil {
		scale = Identity
	}
	return &ValuePropertySink{cache: cache, key: key, scale: scale}
}

// UpdateReading scales value and records it in the backing cache.
func (s *ValuePropertySink) UpdateReading(value float64, timestampMs int64) {
	s.cache.UpdateReading(s.key, s.scale(value), timestampMs)
}

// SharedMemorySink publishes a reading into the out-of-process telemetry
// ring (spec.md §4.6 "a shared-memory sink (publishes into an out-of-process
// telemetry ring keyed by object-path/interface/property)"). The real ring
// is out of scope; it is backed by the same in-memory cache as every other
// sink, reachable under its own key so it never collides with the
// value-property sink's published unit.
type SharedMemorySink struct {
	cache *objectmodel.Cache
	key   objectmodel.Key
	scale ScaleFunc
}

// NewSharedMemorySink builds a SharedMemorySink over cache at key.
func NewSharedMemorySink(cache *objectmodel.Cache, key objectmodel.Key, scale ScaleFunc) *SharedMemorySink {
	if scale == nil {
		scale = Identity
	}
	return &SharedMemorySink{cache: cache, key: key, scale: scale}
}

// UpdateReading scales value and publishes it.
func (s *SharedMemorySink) UpdateReading(value float64, timestampMs int64) {
	s.cache.UpdateReading(s.key, s.scale(value), timestampMs)
}

// PeakSink retains the maximum value observed since construction (spec.md
// §4.6 "a peak-value sink (retains maximum since construction)"), and
// optionally forwards every reading to an inner sink.
type PeakSink struct {
	mu    sync.Mutex
	peak  float64
	seen  bool
	inner ValueObserver
}

// NewPeakSink builds a PeakSink. inner may be nil if nothing downstream
// needs the raw reading.
func NewPeakSink(inner ValueObserver) *PeakSink {
	return &PeakSink{inner: inner}
}

// UpdateReading records value if it is the new maximum, and forwards it to
// the inner sink if one was supplied.
func (p *PeakSink) UpdateReading(value float64, timestampMs int64) {
	p.mu.Lock()
	if !p.seen || value > p.peak {
		p.peak = value
		p.seen = true
	}
	p.mu.Unlock()

	if p.inner != nil {
		p.inner.UpdateReading(value, timestampMs)
	}
}

// Peak returns the maximum value observed so far, and whether any reading
// has been observed at all.
func (p *PeakSink) Peak() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak, p.seen
}

// StatusSink publishes availability/functional transitions onto the object
// model (spec.md §4.6 "a status sink (health/availability flags)").
type StatusSink struct {
	cache *objectmodel.Cache
	key   objectmodel.Key
}

// NewStatusSink builds a StatusSink over cache at key.
func NewStatusSink(cache *objectmodel.Cache, key objectmodel.Key) *StatusSink {
	return &StatusSink{cache: cache, key: key}
}

// UpdateStatus records the latest availability/functional pair.
func (s *StatusSink) UpdateStatus(available, functional bool) {
	s.cache.UpdateStatus(s.key, available, functional)
}
