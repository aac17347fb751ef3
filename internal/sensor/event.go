package sensor

import (
	"context"

	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/event"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
)

// EventHandler processes the payload of one event frame, already past the
// common (messageType, eventId) header.
type EventHandler func(payload []byte)

// EventSensor registers with C4 for one (messageType, eventId) key; its
// Update is a no-op, since all of its work happens as events arrive
// (spec.md §4.6 "Event sensor").
type EventSensor struct {
	name        string
	messageType nsm.MessageType
	eventID     nsm.EventID
	handle      EventHandler
}

// NewEvent builds an EventSensor named name that reacts to (messageType,
// eventID) frames by calling handle.
func NewEvent(name string, messageType nsm.MessageType, eventID nsm.EventID, handle EventHandler) *EventSensor {
	return &EventSensor{name: name, messageType: messageType, eventID: eventID, handle: handle}
}

// Name returns the sensor's name.
func (s *EventSensor) Name() string { return s.name }

// Update is a no-op: an event sensor's state changes only on event arrival.
func (s *EventSensor) Update(ctx context.Context, d *device.Device) error { return nil }

// Register installs this sensor's handler on dispatcher for eid's
// (messageType, eventID) key. Called once when a device comes online
// (spec.md §4.5 bring-up / §4.7 scheduler startup).
func (s *EventSensor) Register(dispatcher *event.Dispatcher, eid uint8) {
	dispatcher.Register(eid, s.messageType, s.eventID, func(sourceEID uint8, header nsm.EventHeader, payload []byte) {
		s.handle(payload)
	})
}

// Unregister removes this sensor's handler from dispatcher for eid,
// typically on device offline.
func (s *EventSensor) Unregister(dispatcher *event.Dispatcher, eid uint8) {
	dispatcher.Unregister(eid, s.messageType, s.eventID)
}
