// Package device implements C5, the device manager: discovery, identity
// resolution, capability matrix population, FRU inventory, and the
// online/offline lifecycle described in spec.md §3 and §4.5.
package device

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
)

// State is a device's coarse bring-up state (spec.md §3 "Lifecycle:
// inactive → active on first successful identify").
type State int

const (
	StateInactive State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "inactive"
}

// Sensor is the abstract C6 contract a device schedules: a named coroutine
// that refreshes one piece of published state. Defined here, rather than in
// a downstream sensor package, because Device owns the four ordered sensor
// collections spec.md §3 describes.
type Sensor interface {
	Name() string
	Update(ctx context.Context, d *Device) error
}

// Device is one discovered accelerator-fleet endpoint (spec.md §3 "Device").
type Device struct {
	UUID     uuid.UUID
	EID      uint8
	Type     nsm.DeviceType
	Instance uint32

	mu         sync.RWMutex
	state      State
	online     bool
	capability map[nsm.MessageType]nsm.SupportedCommandCodesResponse
	inventory  map[nsm.InventoryProperty]string

	StaticSensors            []Sensor
	PrioritySensors          []Sensor
	RoundRobinSensors        []Sensor
	CapabilityRefreshSensors []Sensor

	roundRobinCursor int
}

// New creates a device record in state Inactive/offline; the device manager
// transitions it to Active on first successful identify.
func New(id uuid.UUID, eid uint8, deviceType nsm.DeviceType, instance uint32) *Device {
	return &Device{
		UUID:       id,
		EID:        eid,
		Type:       deviceType,
		Instance:   instance,
		capability: make(map[nsm.MessageType]nsm.SupportedCommandCodesResponse),
		inventory:  make(map[nsm.InventoryProperty]string),
	}
}

// SetEID updates the device's current endpoint id, used when a device
// re-appears under a different MCTP binding (spec.md §4.5 step 2, "resume
// that device's bring-up").
func (d *Device) SetEID(eid uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.EID = eid
}

// SetInstance records the instance number after configuration-driven remap
// (spec.md §4.5 step 4).
func (d *Device) SetInstance(instance uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Instance = instance
}

// MarkActive transitions the device to Active. Idempotent.
func (d *Device) MarkActive() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = StateActive
}

// State reports the device's current bring-up state.
func (d *Device) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// SetOnline marks the device reachable or unreachable, as reported by the
// transport layer (spec.md §3 "online ↔ offline as the transport reports
// endpoint reachability").
func (d *Device) SetOnline(online bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.online = online
}

// Online reports whether the device is currently reachable.
func (d *Device) Online() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.online
}

// ResetCapabilityMatrix clears every entry, per spec.md §4.5 "updateNsmDevice
// zeroes the capability matrix" at the start of a capability refresh.
func (d *Device) ResetCapabilityMatrix() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.capability = make(map[nsm.MessageType]nsm.SupportedCommandCodesResponse)
}

// SetCapability records the supported-command-codes bitmask for messageType,
// as returned by a successful GetSupportedCommandCodes response.
func (d *Device) SetCapability(messageType nsm.MessageType, resp nsm.SupportedCommandCodesResponse) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.capability[messageType] = resp
}

// HasCommand reports whether the capability matrix has command set for
// messageType. Capability matrix entries default to false (spec.md §3
// invariants): an unrecorded message type reports false for every command.
func (d *Device) HasCommand(messageType nsm.MessageType, command nsm.CommandCode) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	resp, ok := d.capability[messageType]
	if !ok {
		return false
	}
	return resp.Has(command)
}

// SetInventory records one FRU inventory field.
func (d *Device) SetInventory(prop nsm.InventoryProperty, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inventory[prop] = value
}

// Inventory returns one FRU inventory field, if populated.
func (d *Device) Inventory(prop nsm.InventoryProperty) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.inventory[prop]
	return v, ok
}

// InventorySnapshot returns a copy of every populated FRU field, for the
// status API.
func (d *Device) InventorySnapshot() map[nsm.InventoryProperty]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[nsm.InventoryProperty]string, len(d.inventory))
	for k, v := range d.inventory {
		out[k] = v
	}
	return out
}

// NextRoundRobinSensor advances the round-robin cursor by one and returns
// the sensor now under it, implementing spec.md §4.7 step 4 ("advance a
// round-robin cursor ... by one"). Returns nil if there are no round-robin
// sensors registered.
func (d *Device) NextRoundRobinSensor() Sensor {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.RoundRobinSensors) == 0 {
		return nil
	}
	s := d.RoundRobinSensors[d.roundRobinCursor%len(d.RoundRobinSensors)]
	d.roundRobinCursor++
	return s
}

// RoundRobinCursor reports the current round-robin cursor position, for the
// scheduler's gauge metric.
func (d *Device) RoundRobinCursor() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.roundRobinCursor
}
