// Package objectmodel is the default, swappable backing store for C6's
// value-property, shared-memory, and status sinks (spec.md §6 "External
// object-model contract consumed"). The real bus/IPC publication layer is
// out of scope; this in-memory cache exists only so the daemon has
// somewhere to publish to, and so A6's status API has something to read.
package objectmodel

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DevicePath returns the object path convention sensors publish under for
// device id: every Key a device's sinks write carries this ObjectPath, so
// A6 can filter a cache snapshot down to one device.
func DevicePath(id uuid.UUID) string {
	return fmt.Sprintf("/devices/%s", id.String())
}

// Key identifies one published property: an object path plus the interface
// and property name on it, mirroring the (objectPath, interface, property)
// triple spec.md §6's publish() call takes.
type Key struct {
	ObjectPath string
	Interface  string
	Property   string
}

// Reading is the last numeric value published for a Key, plus the
// wire-reported timestamp (milliseconds since epoch, 0 if the source never
// supplied one).
type Reading struct {
	Value       float64
	TimestampMs int64
}

// Status is the last availability/functional pair published for a Key.
type Status struct {
	Available  bool
	Functional bool
}

// Cache is an in-memory, read-mostly store of the last reading and status
// published for every (objectPath, interface, property) key. One Cache is
// shared process-wide and backs every sensor's sinks (spec.md §4.6).
type Cache struct {
	mu       sync.RWMutex
	readings map[Key]Reading
	statuses map[Key]Status
}

// NewCache builds an empty Cache.
func NewCache() *Cache {
	return &Cache{
		readings: make(map[Key]Reading),
		statuses: make(map[Key]Status),
	}
}

// UpdateReading records the latest numeric value for key. A zero
// timestampMs is replaced with the current wall-clock time so a status
// snapshot always has something to report.
func (c *Cache) UpdateReading(key Key, value float64, timestampMs int64) {
	if timestampMs == 0 {
		timestampMs = time.Now().UnixMilli()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readings[key] = Reading{Value: value, TimestampMs: timestampMs}
}

// UpdateStatus records the latest availability/functional flags for key.
func (c *Cache) UpdateStatus(key Key, available, functional bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[key] = Status{Available: available, Functional: functional}
}

// Reading returns the last published reading for key, if any.
func (c *Cache) Reading(key Key) (Reading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.readings[key]
	return r, ok
}

// Status returns the last published status for key, if any.
func (c *Cache) Status(key Key) (Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.statuses[key]
	return s, ok
}

// ReadingSnapshot returns a copy of every published reading, for the status API.
func (c *Cache) ReadingSnapshot() map[Key]Reading {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Key]Reading, len(c.readings))
	for k, v := range c.readings {
		out[k] = v
	}
	return out
}

// StatusSnapshot returns a copy of every published status, for the status API.
func (c *Cache) StatusSnapshot() map[Key]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Key]Status, len(c.statuses))
	for k, v := range c.statuses {
		out[k] = v
	}
	return out
}
