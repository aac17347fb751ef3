package nsm

// EncodeEventSubscriptionRequest encodes the 1-byte enable/disable flag for
// EventSubscription: true subscribes the channel to unsolicited events from
// this device, false unsubscribes.
func EncodeEventSubscriptionRequest(buf []byte, subscribe bool) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeEventSubscriptionRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeEventSubscriptionRequest")
	}
	if subscribe {
		buf[0] = 0x01
	} else {
		buf[0] = 0x00
	}
	return 1, nil
}

// EventSubscriptionResponse carries no fields beyond CC.
type EventSubscriptionResponse struct{}

// DecodeEventSubscriptionResponse decodes an empty success payload.
func DecodeEventSubscriptionResponse(rh ResponseHeader, payload []byte) (EventSubscriptionResponse, error) {
	if !rh.CC.Success() {
		return EventSubscriptionResponse{}, ErrCommandFail("DecodeEventSubscriptionResponse", rh.ReasonCode)
	}
	return EventSubscriptionResponse{}, nil
}

// EncodeGetCurrentEventSourcesRequest encodes the 1-byte message-type
// selector: the response enumerates which event ids within that family are
// currently enabled.
func EncodeGetCurrentEventSourcesRequest(buf []byte, messageType MessageType) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetCurrentEventSourcesRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetCurrentEventSourcesRequest")
	}
	buf[0] = uint8(messageType)
	return 1, nil
}

// NumEventIDs bounds the current-event-sources bitmask (one bit per EventID
// value 0..31, packed into 4 bytes).
const NumEventIDs = 32

// CurrentEventSourcesResponse is the decoded GetCurrentEventSources reply
// for one message type.
type CurrentEventSourcesResponse struct {
	Enabled [NumEventIDs]bool
}

// Has reports whether the given event id bit is set.
func (r CurrentEventSourcesResponse) Has(id EventID) bool {
	return r.Enabled[uint8(id)]
}

// DecodeGetCurrentEventSourcesResponse decodes a 4-byte bitmask, one bit per event id.
func DecodeGetCurrentEventSourcesResponse(rh ResponseHeader, payload []byte) (CurrentEventSourcesResponse, error) {
	if !rh.CC.Success() {
		return CurrentEventSourcesResponse{}, ErrCommandFail("DecodeGetCurrentEventSourcesResponse", rh.ReasonCode)
	}
	if len(payload) < NumEventIDs/8 {
		return CurrentEventSourcesResponse{}, ErrData("DecodeGetCurrentEventSourcesResponse")
	}
	var out CurrentEventSourcesResponse
	for i := 0; i < NumEventIDs; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		out.Enabled[i] = payload[byteIdx]&(1<<bitIdx) != 0
	}
	return out, nil
}

// EncodeConfigureEventAckRequest encodes the (messageType, eventId,
// acknowledge) triple that enables or disables delivery of one event id
// within a message type.
func EncodeConfigureEventAckRequest(buf []byte, messageType MessageType, eventID EventID, enable bool) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeConfigureEventAckRequest")
	}
	if len(buf) < 3 {
		return 0, ErrLength("EncodeConfigureEventAckRequest")
	}
	buf[0] = uint8(messageType)
	buf[1] = uint8(eventID)
	if enable {
		buf[2] = 0x01
	} else {
		buf[2] = 0x00
	}
	return 3, nil
}

// ConfigureEventAckResponse carries no fields beyond CC.
type ConfigureEventAckResponse struct{}

// DecodeConfigureEventAckResponse decodes an empty success payload.
func DecodeConfigureEventAckResponse(rh ResponseHeader, payload []byte) (ConfigureEventAckResponse, error) {
	if !rh.CC.Success() {
		return ConfigureEventAckResponse{}, ErrCommandFail("DecodeConfigureEventAckResponse", rh.ReasonCode)
	}
	return ConfigureEventAckResponse{}, nil
}

// EncodePingRequest encodes a Ping request, which carries no payload.
func EncodePingRequest(buf []byte) (int, error) {
	return 0, nil
}

// PingResponse carries no payload; success is determined entirely by CC.
type PingResponse struct{}

// DecodePingResponse decodes a Ping response body (which is empty on success).
func DecodePingResponse(rh ResponseHeader, payload []byte) (PingResponse, error) {
	if !rh.CC.Success() {
		return PingResponse{}, ErrCommandFail("DecodePingResponse", rh.ReasonCode)
	}
	return PingResponse{}, nil
}

// NumMessageTypes bounds the supported-message-types bitmask (one bit per
// MessageType value 0..63, packed into 8 bytes).
const NumMessageTypes = 64

// SupportedMessageTypesResponse is the decoded GetSupportedMessageTypes reply.
type SupportedMessageTypesResponse struct {
	Supported [NumMessageTypes]bool
}

// DecodeSupportedMessageTypesResponse decodes an 8-byte bitmask, one bit per message type.
func DecodeSupportedMessageTypesResponse(rh ResponseHeader, payload []byte) (SupportedMessageTypesResponse, error) {
	if !rh.CC.Success() {
		return SupportedMessageTypesResponse{}, ErrCommandFail("DecodeSupportedMessageTypesResponse", rh.ReasonCode)
	}
	if len(payload) < NumMessageTypes/8 {
		return SupportedMessageTypesResponse{}, ErrData("DecodeSupportedMessageTypesResponse")
	}

	var out SupportedMessageTypesResponse
	for i := 0; i < NumMessageTypes; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		out.Supported[i] = payload[byteIdx]&(1<<bitIdx) != 0
	}
	return out, nil
}

// EncodeGetSupportedCommandCodesRequest encodes the 1-byte message-type
// selector for a GetSupportedCommandCodes request.
func EncodeGetSupportedCommandCodesRequest(buf []byte, messageType MessageType) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetSupportedCommandCodesRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetSupportedCommandCodesRequest")
	}
	buf[0] = uint8(messageType)
	return 1, nil
}

// NumCommandCodes bounds the supported-command-codes bitmask (32 bytes = 256 bits).
const NumCommandCodes = 256

// SupportedCommandCodesResponse is the decoded GetSupportedCommandCodes reply for one message type.
type SupportedCommandCodesResponse struct {
	Supported [NumCommandCodes / 8]byte
}

// Has reports whether the given command code bit is set.
func (r SupportedCommandCodesResponse) Has(code CommandCode) bool {
	byteIdx := uint8(code) / 8
	bitIdx := uint(uint8(code) % 8)
	return r.Supported[byteIdx]&(1<<bitIdx) != 0
}

// DecodeSupportedCommandCodesResponse decodes a 32-byte command-code bitmask.
func DecodeSupportedCommandCodesResponse(rh ResponseHeader, payload []byte) (SupportedCommandCodesResponse, error) {
	if !rh.CC.Success() {
		return SupportedCommandCodesResponse{}, ErrCommandFail("DecodeSupportedCommandCodesResponse", rh.ReasonCode)
	}
	if len(payload) < NumCommandCodes/8 {
		return SupportedCommandCodesResponse{}, ErrData("DecodeSupportedCommandCodesResponse")
	}

	var out SupportedCommandCodesResponse
	copy(out.Supported[:], payload[:NumCommandCodes/8])
	return out, nil
}

// DeviceType identifies the class of accelerator-fleet device.
type DeviceType uint8

const (
	DeviceTypeUnknown     DeviceType = 0
	DeviceTypeGPU         DeviceType = 1
	DeviceTypeSwitch      DeviceType = 2
	DeviceTypePCIeBridge  DeviceType = 3
	DeviceTypeBaseboard   DeviceType = 4
	DeviceTypeEROT        DeviceType = 5
)

// QueryDeviceIdentificationResponse carries the device's type and raw
// instance number as reported by the device itself, before any
// configuration-driven remap.
type QueryDeviceIdentificationResponse struct {
	DeviceType     DeviceType
	InstanceNumber uint8
}

// DecodeQueryDeviceIdentificationResponse decodes a 2-byte (deviceType, instanceNumber) payload.
func DecodeQueryDeviceIdentificationResponse(rh ResponseHeader, payload []byte) (QueryDeviceIdentificationResponse, error) {
	if !rh.CC.Success() {
		return QueryDeviceIdentificationResponse{}, ErrCommandFail("DecodeQueryDeviceIdentificationResponse", rh.ReasonCode)
	}
	if len(payload) < 2 {
		return QueryDeviceIdentificationResponse{}, ErrData("DecodeQueryDeviceIdentificationResponse")
	}
	return QueryDeviceIdentificationResponse{
		DeviceType:     DeviceType(payload[0]),
		InstanceNumber: payload[1],
	}, nil
}

// InventoryProperty selects a FRU field from GetInventoryInformation.
type InventoryProperty uint8

const (
	InventoryBoardPartNumber InventoryProperty = 0
	InventorySerialNumber    InventoryProperty = 1
	InventoryMarketingName   InventoryProperty = 2
	InventoryBuildDate       InventoryProperty = 3
	InventoryDeviceGUID      InventoryProperty = 4
)

// EncodeGetInventoryInformationRequest encodes the 1-byte property selector.
func EncodeGetInventoryInformationRequest(buf []byte, prop InventoryProperty) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetInventoryInformationRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetInventoryInformationRequest")
	}
	buf[0] = uint8(prop)
	return 1, nil
}

// InventoryInformationResponse carries a single FRU field as a UTF-8 string.
type InventoryInformationResponse struct {
	Value string
}

// DecodeGetInventoryInformationResponse decodes a variable-length UTF-8
// string payload (exact content is property-specific; length comes from the
// response header's data-size, not a length prefix in the payload itself).
func DecodeGetInventoryInformationResponse(rh ResponseHeader, payload []byte) (InventoryInformationResponse, error) {
	if !rh.CC.Success() {
		return InventoryInformationResponse{}, ErrCommandFail("DecodeGetInventoryInformationResponse", rh.ReasonCode)
	}
	if len(payload) < int(rh.DataSize) {
		return InventoryInformationResponse{}, ErrData("DecodeGetInventoryInformationResponse")
	}
	return InventoryInformationResponse{Value: string(payload[:rh.DataSize])}, nil
}

// DeviceGUIDFromEID computes the synthetic device GUID used when a device
// does not expose InventoryDeviceGUID directly: the low byte carries the
// EID so multiple devices never collide, matching the discovery scenario in
// spec.md §8 (scenario 1, "DEVICE_GUID computed from EID").
func DeviceGUIDFromEID(eid uint8) uint64 {
	var guid uint64 = 0x4E53_4D00_0000_0000
	guid |= uint64(eid)
	return guid
}
