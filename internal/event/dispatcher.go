// Package event implements C4, the unsolicited event dispatcher. It
// satisfies transport.EventSink so it can be wired directly as the
// Transport's sink, decodes the common event header, and either completes a
// pending long-running operation or routes to a registered handler keyed by
// (message type, event id) (spec.md §2 C4, §4.4).
package event

import (
	"strconv"
	"sync"

	metricspkg "github.com/nsm-fleet/nsmd/pkg/metrics/prometheus"

	"github.com/nsm-fleet/nsmd/internal/logger"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
)

// Handler processes one decoded event frame. payload is whatever remains
// after the common event header.
type Handler func(sourceEID uint8, header nsm.EventHeader, payload []byte)

// LongRunningCompleter is the subset of *exchange.Exchanger the dispatcher
// needs; named here (rather than imported as a concrete type) so event does
// not need to know about exchange's semaphore/waiter internals beyond this
// one call.
type LongRunningCompleter interface {
	HandleLongRunningCompletion(eid uint8, evt nsm.LongRunningCompletionEvent, payload []byte) bool
}

// handlerKey scopes a handler to one device's (message type, event id) pair,
// matching spec.md §4.4's "a per-device map (messageType, eventId) →
// handler".
type handlerKey struct {
	eid         uint8
	messageType nsm.MessageType
	eventID     nsm.EventID
}

// Dispatcher is the C4 event router.
type Dispatcher struct {
	longRunning LongRunningCompleter
	metrics     *metricspkg.EventMetrics

	mu       sync.RWMutex
	handlers map[handlerKey]Handler
}

// New builds a Dispatcher. longRunning may be nil if the caller has no
// long-running sensors registered (e.g. in tests).
func New(longRunning LongRunningCompleter, m *metricspkg.EventMetrics) *Dispatcher {
	return &Dispatcher{
		longRunning: longRunning,
		metrics:     m,
		handlers:    make(map[handlerKey]Handler),
	}
}

// Register installs h as eid's handler for (messageType, eventID).
// Registering again for the same key replaces the previous handler (spec.md
// §3 "Event registry: map from (message type, event id) to one active event
// handler", scoped per device).
func (d *Dispatcher) Register(eid uint8, messageType nsm.MessageType, eventID nsm.EventID, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[handlerKey{eid, messageType, eventID}] = h
}

// Unregister removes eid's handler for (messageType, eventID), if any.
func (d *Dispatcher) Unregister(eid uint8, messageType nsm.MessageType, eventID nsm.EventID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, handlerKey{eid, messageType, eventID})
}

// SetLongRunningCompleter wires the completer after construction, for the
// case where the Exchanger itself depends on the Transport this Dispatcher
// is already serving as sink for (cmd/nsmd/commands/start.go builds Dispatcher, then Transport
// with it as sink, then Exchanger around that Transport, then calls this).
func (d *Dispatcher) SetLongRunningCompleter(c LongRunningCompleter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.longRunning = c
}

// HandleEvent implements transport.EventSink. Long-running completion
// events never reach the generic handler table: they are routed directly to
// the active long-running waiter for sourceEID, matched strictly by
// instance id (spec.md §8).
func (d *Dispatcher) HandleEvent(sourceEID uint8, header nsm.EventHeader, payload []byte) {
	if header.EventID == nsm.EventIDLongRunningComplete {
		d.handleLongRunningCompletion(sourceEID, header.MessageType, payload)
		return
	}

	d.mu.RLock()
	h, ok := d.handlers[handlerKey{sourceEID, header.MessageType, header.EventID}]
	d.mu.RUnlock()

	if !ok {
		if d.metrics != nil {
			d.metrics.IncDropped()
		}
		logger.Debug("event dropped: no registered handler",
			logger.EID(sourceEID), logger.MessageType(uint8(header.MessageType)), logger.EventID(uint8(header.EventID)))
		return
	}

	if d.metrics != nil {
		d.metrics.IncEvent(messageTypeStr(header.MessageType), eventIDStr(header.EventID))
	}
	h(sourceEID, header, payload)
}

func (d *Dispatcher) handleLongRunningCompletion(sourceEID uint8, messageType nsm.MessageType, payload []byte) {
	evt, n, err := nsm.DecodeLongRunningCompletionEvent(payload)
	if err != nil {
		if d.metrics != nil {
			d.metrics.IncDropped()
		}
		return
	}

	d.mu.RLock()
	completer := d.longRunning
	d.mu.RUnlock()

	matched := completer != nil && completer.HandleLongRunningCompletion(sourceEID, evt, payload[n:])
	if !matched {
		if d.metrics != nil {
			d.metrics.IncDropped()
		}
		logger.Debug("long-running completion discarded: no matching waiter",
			logger.EID(sourceEID), logger.InstanceID(evt.InstanceID))
		return
	}

	if d.metrics != nil {
		d.metrics.IncEvent(messageTypeStr(messageType), eventIDStr(nsm.EventIDLongRunningComplete))
	}
}

func messageTypeStr(m nsm.MessageType) string { return strconv.Itoa(int(m)) }
func eventIDStr(e nsm.EventID) string         { return strconv.Itoa(int(e)) }
