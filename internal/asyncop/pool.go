// Package asyncop implements C8, the async set-operation manager: a
// process-wide, bounded pool of result slots addressable by
// <basePath>/<index>, and a dispatcher that routes PATCH-style writes to
// per-(interface, property) handlers (spec.md §4.8).
package asyncop

import (
	"fmt"
	"sync"

	"github.com/nsm-fleet/nsmd/internal/nsmerr"
	metricspkg "github.com/nsm-fleet/nsmd/pkg/metrics/prometheus"
)

// Status is one of the outcomes a handler can leave a slot in (spec.md
// §4.8 "Error taxonomy").
type Status string

const (
	StatusInProgress         Status = "InProgress"
	StatusSuccess            Status = "Success"
	StatusWriteFailure       Status = "WriteFailure"
	StatusInvalidArgument    Status = "InvalidArgument"
	StatusUnavailable        Status = "Unavailable"
	StatusUnsupportedRequest Status = "UnsupportedRequest"
	StatusInternalFailure    Status = "InternalFailure"
)

// Slot is one pool entry: its current status and, once complete, the
// published result value.
type Slot struct {
	Status Status
	Value  any
}

// Pool is the bounded, addressable set-operation result pool. One Pool is
// shared process-wide.
type Pool struct {
	basePath string
	capacity int
	metrics  *metricspkg.AsyncOpMetrics

	mu                 sync.Mutex
	slots              []Slot
	currentObjectCount int // count of slots ever allocated, up to capacity
	scanCursor         int // round-robin starting point once the pool is full
}

// NewPool builds a Pool of the given capacity, addressed under basePath
// (e.g. "/asyncops").
func NewPool(basePath string, capacity int, metrics *metricspkg.AsyncOpMetrics) *Pool {
	return &Pool{basePath: basePath, capacity: capacity, metrics: metrics}
}

// ObjectPath returns the addressable path for slot index.
func (p *Pool) ObjectPath(index int) string {
	return fmt.Sprintf("%s/%d", p.basePath, index)
}

// getNewStatusInterface allocates a slot for a write with no result value
// (spec.md §4.8 "getNewStatusInterface (for writes without a value
// reply)").
func (p *Pool) getNewStatusInterface() (int, error) {
	return p.allocate()
}

// getNewStatusValueInterface allocates a slot for a write that also
// publishes a result value (spec.md §4.8 "getNewStatusValueInterface (for
// writes that also publish a result value)"). Allocation itself is
// identical; only the caller's later use of Slot.Value differs.
func (p *Pool) getNewStatusValueInterface() (int, error) {
	return p.allocate()
}

func (p *Pool) allocate() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentObjectCount < p.capacity {
		idx := p.currentObjectCount
		p.slots = append(p.slots, Slot{Status: StatusInProgress})
		p.currentObjectCount++
		p.setInUseLocked()
		return idx, nil
	}

	for i := 0; i < p.capacity; i++ {
		idx := (p.scanCursor + i) % p.capacity
		if p.slots[idx].Status != StatusInProgress {
			p.slots[idx] = Slot{Status: StatusInProgress}
			p.scanCursor = (idx + 1) % p.capacity
			p.setInUseLocked()
			return idx, nil
		}
	}

	if p.metrics != nil {
		p.metrics.IncAllocationFailure()
	}
	return -1, nsmerr.New("Pool.allocate", nsmerr.LayerAsyncOp, nsmerr.CodeUnavailable)
}

// setInUseLocked recomputes and reports the in-use gauge. Must be called
// with mu held.
func (p *Pool) setInUseLocked() {
	if p.metrics == nil {
		return
	}
	n := 0
	for _, s := range p.slots {
		if s.Status == StatusInProgress {
			n++
		}
	}
	p.metrics.SetInUse(n)
}

// Complete sets index's status and result value, and reports the updated
// in-use gauge.
func (p *Pool) Complete(index int, status Status, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.slots) {
		return
	}
	p.slots[index] = Slot{Status: status, Value: value}
	p.setInUseLocked()
}

// Slot returns a copy of index's current slot, if it has been allocated.
func (p *Pool) Slot(index int) (Slot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.slots) {
		return Slot{}, false
	}
	return p.slots[index], true
}

// Snapshot returns a copy of every allocated slot, for the status API.
func (p *Pool) Snapshot() []Slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Slot, len(p.slots))
	copy(out, p.slots)
	return out
}
