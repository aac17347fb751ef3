package nsm

import "encoding/binary"

// EncodeGetPortTelemetryCounterRequest encodes the 1-byte port index selector.
func EncodeGetPortTelemetryCounterRequest(buf []byte, portIndex uint8) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetPortTelemetryCounterRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetPortTelemetryCounterRequest")
	}
	buf[0] = portIndex
	return 1, nil
}

// Port telemetry counter bits, low to high, matching the order fields are
// laid out in PortTelemetryCounters below. The mask is transmitted as an
// explicit 4-byte little-endian integer (spec.md §9 "Bitfield wire
// structs"): a named accessor per bit, not a language-level bitfield.
const (
	counterBitRcvPkts = iota
	counterBitRcvData
	counterBitXmitPkts
	counterBitXmitData
	counterBitRcvErrors
	counterBitXmitDiscards
	counterBitSymbolBER
	counterBitEffectiveBER
	counterBitEstimatedEffectiveBER
	counterBitLinkErrorRecovery
	counterBitLinkDowned
	counterBitRcvRemotePhysicalErrors
	counterBitRcvSwitchRelayErrors
	counterBitXmitWait
)

// PortTelemetryCounters is the decoded GetPortTelemetryCounter payload.
// Each field is valid only if its corresponding SupportedCounterMask bit is
// set; unsupported fields are left at zero value.
type PortTelemetryCounters struct {
	SupportedCounterMask uint32 // 25-bit mask over 4 bytes

	RcvPkts                   uint64
	RcvData                   uint64
	XmitPkts                  uint64
	XmitData                  uint64
	RcvErrors                 uint64
	XmitDiscards              uint64
	SymbolBER                 uint64
	EffectiveBER              uint64
	EstimatedEffectiveBER     uint64
	LinkErrorRecovery         uint64
	LinkDowned                uint64
	RcvRemotePhysicalErrors   uint64
	RcvSwitchRelayErrors      uint64
	XmitWait                  uint64
}

// HasCounter reports whether bit is present in the supported-counter mask.
func (p PortTelemetryCounters) HasCounter(bit int) bool {
	return p.SupportedCounterMask&(1<<uint(bit)) != 0
}

const portTelemetryCounterFieldCount = 14
const portTelemetryMinSize = 4 // mask only; counters present per-bit

// DecodeGetPortTelemetryCounterResponse decodes a mask-prefixed, variable
// set of 8-byte little-endian counters: only the counters whose mask bit is
// set are present on the wire, in ascending bit order.
func DecodeGetPortTelemetryCounterResponse(rh ResponseHeader, payload []byte) (PortTelemetryCounters, error) {
	if !rh.CC.Success() {
		return PortTelemetryCounters{}, ErrCommandFail("DecodeGetPortTelemetryCounterResponse", rh.ReasonCode)
	}
	if len(payload) < portTelemetryMinSize {
		return PortTelemetryCounters{}, ErrLength("DecodeGetPortTelemetryCounterResponse")
	}

	out := PortTelemetryCounters{
		SupportedCounterMask: binary.LittleEndian.Uint32(payload[0:4]),
	}

	offset := 4
	fields := []*uint64{
		&out.RcvPkts, &out.RcvData, &out.XmitPkts, &out.XmitData,
		&out.RcvErrors, &out.XmitDiscards, &out.SymbolBER, &out.EffectiveBER,
		&out.EstimatedEffectiveBER, &out.LinkErrorRecovery, &out.LinkDowned,
		&out.RcvRemotePhysicalErrors, &out.RcvSwitchRelayErrors, &out.XmitWait,
	}

	for bit := 0; bit < portTelemetryCounterFieldCount; bit++ {
		if !out.HasCounter(bit) {
			continue
		}
		if offset+8 > len(payload) {
			return PortTelemetryCounters{}, ErrData("DecodeGetPortTelemetryCounterResponse")
		}
		*fields[bit] = binary.LittleEndian.Uint64(payload[offset : offset+8])
		offset += 8
	}

	return out, nil
}

// PortStatus is the decoded GetPortStatus payload.
type PortStatus uint8

const (
	PortStatusDisabled PortStatus = 0
	PortStatusUp       PortStatus = 1
	PortStatusDown     PortStatus = 2
)

// GetPortStatusResponse carries a single port's link status.
type GetPortStatusResponse struct {
	Status PortStatus
}

// EncodeGetPortStatusRequest encodes the 1-byte port index selector.
func EncodeGetPortStatusRequest(buf []byte, portIndex uint8) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetPortStatusRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetPortStatusRequest")
	}
	buf[0] = portIndex
	return 1, nil
}

// DecodeGetPortStatusResponse decodes a 1-byte port status payload.
func DecodeGetPortStatusResponse(rh ResponseHeader, payload []byte) (GetPortStatusResponse, error) {
	if !rh.CC.Success() {
		return GetPortStatusResponse{}, ErrCommandFail("DecodeGetPortStatusResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return GetPortStatusResponse{}, ErrData("DecodeGetPortStatusResponse")
	}
	return GetPortStatusResponse{Status: PortStatus(payload[0])}, nil
}

// PortCharacteristics is the decoded GetPortCharacteristics payload: static,
// rarely-changing link properties.
type PortCharacteristics struct {
	WidthLanes   uint8
	SpeedGbps    uint32
	SupportedCaps uint32
}

// EncodeGetPortCharacteristicsRequest encodes the 1-byte port index selector.
func EncodeGetPortCharacteristicsRequest(buf []byte, portIndex uint8) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetPortCharacteristicsRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetPortCharacteristicsRequest")
	}
	buf[0] = portIndex
	return 1, nil
}

// DecodeGetPortCharacteristicsResponse decodes a (width:u8, speedGbps:u32,
// supportedCaps:u32) payload.
func DecodeGetPortCharacteristicsResponse(rh ResponseHeader, payload []byte) (PortCharacteristics, error) {
	if !rh.CC.Success() {
		return PortCharacteristics{}, ErrCommandFail("DecodeGetPortCharacteristicsResponse", rh.ReasonCode)
	}
	if len(payload) < 9 {
		return PortCharacteristics{}, ErrData("DecodeGetPortCharacteristicsResponse")
	}
	return PortCharacteristics{
		WidthLanes:    payload[0],
		SpeedGbps:     binary.LittleEndian.Uint32(payload[1:5]),
		SupportedCaps: binary.LittleEndian.Uint32(payload[5:9]),
	}, nil
}

// PortsAvailableResponse carries the device's port count, used to bound the
// portIndex argument to every other network-port command.
type PortsAvailableResponse struct {
	Count uint8
}

// EncodeGetPortsAvailableRequest encodes a GetPortsAvailable request, which
// carries no payload.
func EncodeGetPortsAvailableRequest(buf []byte) (int, error) {
	return 0, nil
}

// DecodeGetPortsAvailableResponse decodes a 1-byte port count.
func DecodeGetPortsAvailableResponse(rh ResponseHeader, payload []byte) (PortsAvailableResponse, error) {
	if !rh.CC.Success() {
		return PortsAvailableResponse{}, ErrCommandFail("DecodeGetPortsAvailableResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return PortsAvailableResponse{}, ErrData("DecodeGetPortsAvailableResponse")
	}
	return PortsAvailableResponse{Count: payload[0]}, nil
}

// PortThresholds is the decoded (and encoded, for Set) per-port threshold
// configuration.
type PortThresholds struct {
	RcvErrorsThreshold    uint32
	XmitDiscardsThreshold uint32
}

// EncodeGetPortThresholdsRequest encodes the 1-byte port index selector.
func EncodeGetPortThresholdsRequest(buf []byte, portIndex uint8) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetPortThresholdsRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetPortThresholdsRequest")
	}
	buf[0] = portIndex
	return 1, nil
}

// DecodeGetPortThresholdsResponse decodes an 8-byte (rcvErrors, xmitDiscards) payload.
func DecodeGetPortThresholdsResponse(rh ResponseHeader, payload []byte) (PortThresholds, error) {
	if !rh.CC.Success() {
		return PortThresholds{}, ErrCommandFail("DecodeGetPortThresholdsResponse", rh.ReasonCode)
	}
	if len(payload) < 8 {
		return PortThresholds{}, ErrData("DecodeGetPortThresholdsResponse")
	}
	return PortThresholds{
		RcvErrorsThreshold:    binary.LittleEndian.Uint32(payload[0:4]),
		XmitDiscardsThreshold: binary.LittleEndian.Uint32(payload[4:8]),
	}, nil
}

// EncodeSetPortThresholdsRequest encodes a (portIndex:u8, rcvErrors:u32,
// xmitDiscards:u32) request.
func EncodeSetPortThresholdsRequest(buf []byte, portIndex uint8, t PortThresholds) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetPortThresholdsRequest")
	}
	if len(buf) < 9 {
		return 0, ErrLength("EncodeSetPortThresholdsRequest")
	}
	buf[0] = portIndex
	binary.LittleEndian.PutUint32(buf[1:5], t.RcvErrorsThreshold)
	binary.LittleEndian.PutUint32(buf[5:9], t.XmitDiscardsThreshold)
	return 9, nil
}

// SetPortThresholdsResponse carries no fields beyond CC.
type SetPortThresholdsResponse struct{}

// DecodeSetPortThresholdsResponse decodes an empty success payload.
func DecodeSetPortThresholdsResponse(rh ResponseHeader, payload []byte) (SetPortThresholdsResponse, error) {
	if !rh.CC.Success() {
		return SetPortThresholdsResponse{}, ErrCommandFail("DecodeSetPortThresholdsResponse", rh.ReasonCode)
	}
	return SetPortThresholdsResponse{}, nil
}

// EncodeGetSystemGUIDRequest encodes a GetSystemGUID request, which carries no payload.
func EncodeGetSystemGUIDRequest(buf []byte) (int, error) {
	return 0, nil
}

// SystemGUIDResponse carries the 8-byte system GUID.
type SystemGUIDResponse struct {
	GUID uint64
}

// DecodeGetSystemGUIDResponse decodes an 8-byte little-endian GUID.
func DecodeGetSystemGUIDResponse(rh ResponseHeader, payload []byte) (SystemGUIDResponse, error) {
	if !rh.CC.Success() {
		return SystemGUIDResponse{}, ErrCommandFail("DecodeGetSystemGUIDResponse", rh.ReasonCode)
	}
	if len(payload) < 8 {
		return SystemGUIDResponse{}, ErrData("DecodeGetSystemGUIDResponse")
	}
	return SystemGUIDResponse{GUID: binary.LittleEndian.Uint64(payload[:8])}, nil
}

// EncodeSetSystemGUIDRequest encodes an 8-byte little-endian GUID.
func EncodeSetSystemGUIDRequest(buf []byte, guid uint64) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetSystemGUIDRequest")
	}
	if len(buf) < 8 {
		return 0, ErrLength("EncodeSetSystemGUIDRequest")
	}
	binary.LittleEndian.PutUint64(buf[:8], guid)
	return 8, nil
}

// SetSystemGUIDResponse carries no fields beyond CC.
type SetSystemGUIDResponse struct{}

// DecodeSetSystemGUIDResponse decodes an empty success payload.
func DecodeSetSystemGUIDResponse(rh ResponseHeader, payload []byte) (SetSystemGUIDResponse, error) {
	if !rh.CC.Success() {
		return SetSystemGUIDResponse{}, ErrCommandFail("DecodeSetSystemGUIDResponse", rh.ReasonCode)
	}
	return SetSystemGUIDResponse{}, nil
}

// EncodeGetLinkDisableStickyRequest encodes the 1-byte port index selector.
func EncodeGetLinkDisableStickyRequest(buf []byte, portIndex uint8) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetLinkDisableStickyRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetLinkDisableStickyRequest")
	}
	buf[0] = portIndex
	return 1, nil
}

// LinkDisableStickyResponse carries whether a port's link-disable state
// survives a reset.
type LinkDisableStickyResponse struct {
	Sticky bool
}

// DecodeGetLinkDisableStickyResponse decodes a 1-byte boolean payload.
func DecodeGetLinkDisableStickyResponse(rh ResponseHeader, payload []byte) (LinkDisableStickyResponse, error) {
	if !rh.CC.Success() {
		return LinkDisableStickyResponse{}, ErrCommandFail("DecodeGetLinkDisableStickyResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return LinkDisableStickyResponse{}, ErrData("DecodeGetLinkDisableStickyResponse")
	}
	return LinkDisableStickyResponse{Sticky: payload[0] != 0}, nil
}

// EncodeSetLinkDisableStickyRequest encodes a (portIndex:u8, sticky:u8) request.
func EncodeSetLinkDisableStickyRequest(buf []byte, portIndex uint8, sticky bool) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetLinkDisableStickyRequest")
	}
	if len(buf) < 2 {
		return 0, ErrLength("EncodeSetLinkDisableStickyRequest")
	}
	buf[0] = portIndex
	if sticky {
		buf[1] = 0x01
	} else {
		buf[1] = 0x00
	}
	return 2, nil
}

// SetLinkDisableStickyResponse carries no fields beyond CC.
type SetLinkDisableStickyResponse struct{}

// DecodeSetLinkDisableStickyResponse decodes an empty success payload.
func DecodeSetLinkDisableStickyResponse(rh ResponseHeader, payload []byte) (SetLinkDisableStickyResponse, error) {
	if !rh.CC.Success() {
		return SetLinkDisableStickyResponse{}, ErrCommandFail("DecodeSetLinkDisableStickyResponse", rh.ReasonCode)
	}
	return SetLinkDisableStickyResponse{}, nil
}

// PortIsolationMode controls whether a port participates in fabric routing.
type PortIsolationMode uint8

const (
	PortIsolationModeNormal   PortIsolationMode = 0
	PortIsolationModeIsolated PortIsolationMode = 1
)

// EncodeGetPortIsolationModeRequest encodes the 1-byte port index selector.
func EncodeGetPortIsolationModeRequest(buf []byte, portIndex uint8) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetPortIsolationModeRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetPortIsolationModeRequest")
	}
	buf[0] = portIndex
	return 1, nil
}

// GetPortIsolationModeResponse carries a single port's isolation mode.
type GetPortIsolationModeResponse struct {
	Mode PortIsolationMode
}

// DecodeGetPortIsolationModeResponse decodes a 1-byte mode payload.
func DecodeGetPortIsolationModeResponse(rh ResponseHeader, payload []byte) (GetPortIsolationModeResponse, error) {
	if !rh.CC.Success() {
		return GetPortIsolationModeResponse{}, ErrCommandFail("DecodeGetPortIsolationModeResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return GetPortIsolationModeResponse{}, ErrData("DecodeGetPortIsolationModeResponse")
	}
	return GetPortIsolationModeResponse{Mode: PortIsolationMode(payload[0])}, nil
}

// EncodeSetPortIsolationModeRequest encodes a (portIndex:u8, mode:u8) request.
func EncodeSetPortIsolationModeRequest(buf []byte, portIndex uint8, mode PortIsolationMode) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetPortIsolationModeRequest")
	}
	if len(buf) < 2 {
		return 0, ErrLength("EncodeSetPortIsolationModeRequest")
	}
	buf[0] = portIndex
	buf[1] = uint8(mode)
	return 2, nil
}

// SetPortIsolationModeResponse carries no fields beyond CC.
type SetPortIsolationModeResponse struct{}

// DecodeSetPortIsolationModeResponse decodes an empty success payload.
func DecodeSetPortIsolationModeResponse(rh ResponseHeader, payload []byte) (SetPortIsolationModeResponse, error) {
	if !rh.CC.Success() {
		return SetPortIsolationModeResponse{}, ErrCommandFail("DecodeSetPortIsolationModeResponse", rh.ReasonCode)
	}
	return SetPortIsolationModeResponse{}, nil
}

// PortPowerMode selects a port's power/performance profile.
type PortPowerMode uint8

const (
	PortPowerModeHighPerformance PortPowerMode = 0
	PortPowerModeBalanced        PortPowerMode = 1
	PortPowerModePowerSaver      PortPowerMode = 2
)

// EncodeGetPortPowerModeRequest encodes the 1-byte port index selector.
func EncodeGetPortPowerModeRequest(buf []byte, portIndex uint8) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetPortPowerModeRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetPortPowerModeRequest")
	}
	buf[0] = portIndex
	return 1, nil
}

// GetPortPowerModeResponse carries a single port's power mode.
type GetPortPowerModeResponse struct {
	Mode PortPowerMode
}

// DecodeGetPortPowerModeResponse decodes a 1-byte mode payload.
func DecodeGetPortPowerModeResponse(rh ResponseHeader, payload []byte) (GetPortPowerModeResponse, error) {
	if !rh.CC.Success() {
		return GetPortPowerModeResponse{}, ErrCommandFail("DecodeGetPortPowerModeResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return GetPortPowerModeResponse{}, ErrData("DecodeGetPortPowerModeResponse")
	}
	return GetPortPowerModeResponse{Mode: PortPowerMode(payload[0])}, nil
}

// EncodeSetPortPowerModeRequest encodes a (portIndex:u8, mode:u8) request.
func EncodeSetPortPowerModeRequest(buf []byte, portIndex uint8, mode PortPowerMode) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetPortPowerModeRequest")
	}
	if len(buf) < 2 {
		return 0, ErrLength("EncodeSetPortPowerModeRequest")
	}
	buf[0] = portIndex
	buf[1] = uint8(mode)
	return 2, nil
}

// SetPortPowerModeResponse carries no fields beyond CC.
type SetPortPowerModeResponse struct{}

// DecodeSetPortPowerModeResponse decodes an empty success payload.
func DecodeSetPortPowerModeResponse(rh ResponseHeader, payload []byte) (SetPortPowerModeResponse, error) {
	if !rh.CC.Success() {
		return SetPortPowerModeResponse{}, ErrCommandFail("DecodeSetPortPowerModeResponse", rh.ReasonCode)
	}
	return SetPortPowerModeResponse{}, nil
}
