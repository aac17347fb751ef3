package nsm

import "encoding/binary"

// EventID identifies an unsolicited event within a MessageType, analogous
// to CommandCode on the request/response side.
type EventID uint8

const (
	EventIDXID                EventID = 0x00
	EventIDResetRequired       EventID = 0x01
	EventIDThreshold           EventID = 0x02
	EventIDLongRunningComplete EventID = 0x03
	EventIDDeviceOffline       EventID = 0x04
	EventIDCapabilityChange    EventID = 0x05
)

// EventHeader is the common shape of every unsolicited frame: message type
// and event id follow the NSM header directly (no command/CC/data-size
// triple — events are not responses).
type EventHeader struct {
	MessageType MessageType
	EventID     EventID
}

// DecodeEventHeader decodes the 2-byte (messageType, eventId) pair that
// follows the NSM header on an event frame.
func DecodeEventHeader(buf []byte) (EventHeader, int, error) {
	if buf == nil {
		return EventHeader{}, 0, ErrNull("DecodeEventHeader")
	}
	if len(buf) < 2 {
		return EventHeader{}, 0, ErrLength("DecodeEventHeader")
	}
	return EventHeader{
		MessageType: MessageType(buf[0]),
		EventID:     EventID(buf[1]),
	}, 2, nil
}

// XIDEvent is a structured fatal-error notification.
type XIDEvent struct {
	SequenceNumber uint32
	Flags          uint8
	Reason         uint16
	TimestampNanos uint64
	MessageText    string
}

// DecodeXIDEvent decodes (sequenceNumber:u32, flags:u8, reason:u16,
// timestampNanos:u64, messageText:rest-of-payload).
func DecodeXIDEvent(payload []byte) (XIDEvent, error) {
	const fixedSize = 4 + 1 + 2 + 8
	if len(payload) < fixedSize {
		return XIDEvent{}, ErrLength("DecodeXIDEvent")
	}
	return XIDEvent{
		SequenceNumber: binary.LittleEndian.Uint32(payload[0:4]),
		Flags:          payload[4],
		Reason:         binary.LittleEndian.Uint16(payload[5:7]),
		TimestampNanos: binary.LittleEndian.Uint64(payload[7:15]),
		MessageText:    string(payload[fixedSize:]),
	}, nil
}

// ResetRequiredEvent carries no fields beyond the common event header; its
// occurrence is itself the signal.
type ResetRequiredEvent struct{}

// DecodeResetRequiredEvent is a no-op decoder kept for symmetry with the
// other event decoders and to give the event dispatcher one uniform calling
// convention.
func DecodeResetRequiredEvent(payload []byte) (ResetRequiredEvent, error) {
	return ResetRequiredEvent{}, nil
}

// ThresholdCategory identifies one bit of the threshold-event bitfield.
type ThresholdCategory uint32

const (
	ThresholdPortRcvErrors           ThresholdCategory = 1 << 0
	ThresholdTransmitDiscards        ThresholdCategory = 1 << 1
	ThresholdSymbolBER               ThresholdCategory = 1 << 2
	ThresholdEffectiveBER            ThresholdCategory = 1 << 3
	ThresholdEstimatedEffectiveBER   ThresholdCategory = 1 << 4
)

// ThresholdEvent carries a bitfield of which telemetry categories crossed
// their configured threshold.
type ThresholdEvent struct {
	Categories ThresholdCategory
}

// DecodeThresholdEvent decodes a 4-byte little-endian category bitmask.
func DecodeThresholdEvent(payload []byte) (ThresholdEvent, error) {
	if len(payload) < 4 {
		return ThresholdEvent{}, ErrLength("DecodeThresholdEvent")
	}
	return ThresholdEvent{Categories: ThresholdCategory(binary.LittleEndian.Uint32(payload[:4]))}, nil
}

// Has reports whether the given category bit is set.
func (t ThresholdEvent) Has(c ThresholdCategory) bool {
	return t.Categories&c != 0
}
