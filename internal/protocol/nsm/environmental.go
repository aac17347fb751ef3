package nsm

import "encoding/binary"

// TemperatureReadingResponse is the decoded GetTemperatureReading payload:
// a single IEEE-754 float32, little-endian on the wire, in degrees Celsius.
type TemperatureReadingResponse struct {
	ValueCelsius float32
}

// DecodeGetTemperatureReadingResponse decodes a 4-byte float32 payload.
func DecodeGetTemperatureReadingResponse(rh ResponseHeader, payload []byte) (TemperatureReadingResponse, error) {
	if !rh.CC.Success() {
		return TemperatureReadingResponse{}, ErrCommandFail("DecodeGetTemperatureReadingResponse", rh.ReasonCode)
	}
	v, err := DecodeFloat32Sample(payload)
	if err != nil {
		return TemperatureReadingResponse{}, err
	}
	return TemperatureReadingResponse{ValueCelsius: v}, nil
}

// CurrentPowerDrawResponse is the decoded GetCurrentPowerDraw payload, in milliwatts.
type CurrentPowerDrawResponse struct {
	MilliWatts uint32
}

// DecodeGetCurrentPowerDrawResponse decodes a 4-byte little-endian milliwatt reading.
func DecodeGetCurrentPowerDrawResponse(rh ResponseHeader, payload []byte) (CurrentPowerDrawResponse, error) {
	if !rh.CC.Success() {
		return CurrentPowerDrawResponse{}, ErrCommandFail("DecodeGetCurrentPowerDrawResponse", rh.ReasonCode)
	}
	if len(payload) < 4 {
		return CurrentPowerDrawResponse{}, ErrData("DecodeGetCurrentPowerDrawResponse")
	}
	return CurrentPowerDrawResponse{MilliWatts: binary.LittleEndian.Uint32(payload[:4])}, nil
}

// EncodeSetPowerCapRequest encodes a 4-byte little-endian milliwatt power cap.
func EncodeSetPowerCapRequest(buf []byte, milliWatts uint32) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetPowerCapRequest")
	}
	if len(buf) < 4 {
		return 0, ErrLength("EncodeSetPowerCapRequest")
	}
	binary.LittleEndian.PutUint32(buf[:4], milliWatts)
	return 4, nil
}

// EncodeSetMigModeRequest encodes a 1-byte boolean MIG-mode request payload.
// SetMigMode is a long-running command (spec.md §8 scenario 4): the
// immediate response carries CC=ACCEPTED, and the actual result arrives
// later as a long-running completion event.
func EncodeSetMigModeRequest(buf []byte, enabled bool) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetMigModeRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeSetMigModeRequest")
	}
	if enabled {
		buf[0] = 0x01
	} else {
		buf[0] = 0x00
	}
	return 1, nil
}

// MigModeResponse is the decoded GetMigMode payload.
type MigModeResponse struct {
	Enabled bool
}

// DecodeGetMigModeResponse decodes a 1-byte boolean payload.
func DecodeGetMigModeResponse(rh ResponseHeader, payload []byte) (MigModeResponse, error) {
	if !rh.CC.Success() {
		return MigModeResponse{}, ErrCommandFail("DecodeGetMigModeResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return MigModeResponse{}, ErrData("DecodeGetMigModeResponse")
	}
	return MigModeResponse{Enabled: payload[0] != 0}, nil
}

// PowerSupplyStatusResponse carries a per-rail presence/fault bitfield.
type PowerSupplyStatusResponse struct {
	PresentMask uint8
	FaultMask   uint8
}

// DecodeGetPowerSupplyStatusResponse decodes a 2-byte (present, fault) mask pair.
func DecodeGetPowerSupplyStatusResponse(rh ResponseHeader, payload []byte) (PowerSupplyStatusResponse, error) {
	if !rh.CC.Success() {
		return PowerSupplyStatusResponse{}, ErrCommandFail("DecodeGetPowerSupplyStatusResponse", rh.ReasonCode)
	}
	if len(payload) < 2 {
		return PowerSupplyStatusResponse{}, ErrData("DecodeGetPowerSupplyStatusResponse")
	}
	return PowerSupplyStatusResponse{PresentMask: payload[0], FaultMask: payload[1]}, nil
}

// GPUPresenceAndPowerResponse reports whether a GPU is physically present
// and, if so, whether its power rail is enabled.
type GPUPresenceAndPowerResponse struct {
	Present    bool
	PowerGood  bool
}

// DecodeGetGPUPresenceAndPowerResponse decodes a 2-byte (present, powerGood) payload.
func DecodeGetGPUPresenceAndPowerResponse(rh ResponseHeader, payload []byte) (GPUPresenceAndPowerResponse, error) {
	if !rh.CC.Success() {
		return GPUPresenceAndPowerResponse{}, ErrCommandFail("DecodeGetGPUPresenceAndPowerResponse", rh.ReasonCode)
	}
	if len(payload) < 2 {
		return GPUPresenceAndPowerResponse{}, ErrData("DecodeGetGPUPresenceAndPowerResponse")
	}
	return GPUPresenceAndPowerResponse{Present: payload[0] != 0, PowerGood: payload[1] != 0}, nil
}

// EnergyCountResponse is the decoded GetEnergyCount payload, a free-running
// accumulator in millijoules.
type EnergyCountResponse struct {
	MilliJoules uint64
}

// DecodeGetEnergyCountResponse decodes an 8-byte little-endian accumulator.
func DecodeGetEnergyCountResponse(rh ResponseHeader, payload []byte) (EnergyCountResponse, error) {
	if !rh.CC.Success() {
		return EnergyCountResponse{}, ErrCommandFail("DecodeGetEnergyCountResponse", rh.ReasonCode)
	}
	if len(payload) < 8 {
		return EnergyCountResponse{}, ErrData("DecodeGetEnergyCountResponse")
	}
	return EnergyCountResponse{MilliJoules: binary.LittleEndian.Uint64(payload[:8])}, nil
}

// VoltageResponse is the decoded GetVoltage payload, in millivolts.
type VoltageResponse struct {
	MilliVolts uint32
}

// DecodeGetVoltageResponse decodes a 4-byte little-endian millivolt reading.
func DecodeGetVoltageResponse(rh ResponseHeader, payload []byte) (VoltageResponse, error) {
	if !rh.CC.Success() {
		return VoltageResponse{}, ErrCommandFail("DecodeGetVoltageResponse", rh.ReasonCode)
	}
	if len(payload) < 4 {
		return VoltageResponse{}, ErrData("DecodeGetVoltageResponse")
	}
	return VoltageResponse{MilliVolts: binary.LittleEndian.Uint32(payload[:4])}, nil
}

// AltitudePressureResponse is the decoded GetAltitudePressure payload, in
// pascals, used to derate fan-curve/thermal policy at altitude.
type AltitudePressureResponse struct {
	Pascals uint32
}

// DecodeGetAltitudePressureResponse decodes a 4-byte little-endian pascal reading.
func DecodeGetAltitudePressureResponse(rh ResponseHeader, payload []byte) (AltitudePressureResponse, error) {
	if !rh.CC.Success() {
		return AltitudePressureResponse{}, ErrCommandFail("DecodeGetAltitudePressureResponse", rh.ReasonCode)
	}
	if len(payload) < 4 {
		return AltitudePressureResponse{}, ErrData("DecodeGetAltitudePressureResponse")
	}
	return AltitudePressureResponse{Pascals: binary.LittleEndian.Uint32(payload[:4])}, nil
}

// DriverInfoResponse carries the host driver's version string, as reported
// by the device's last recorded handshake with it.
type DriverInfoResponse struct {
	VersionString string
}

// DecodeGetDriverInfoResponse decodes a variable-length UTF-8 string payload
// sized by the response header's data-size, matching
// DecodeGetInventoryInformationResponse's convention.
func DecodeGetDriverInfoResponse(rh ResponseHeader, payload []byte) (DriverInfoResponse, error) {
	if !rh.CC.Success() {
		return DriverInfoResponse{}, ErrCommandFail("DecodeGetDriverInfoResponse", rh.ReasonCode)
	}
	if len(payload) < int(rh.DataSize) {
		return DriverInfoResponse{}, ErrData("DecodeGetDriverInfoResponse")
	}
	return DriverInfoResponse{VersionString: string(payload[:rh.DataSize])}, nil
}

// ECCModeResponse carries whether ECC memory protection is enabled.
type ECCModeResponse struct {
	Enabled bool
}

// DecodeGetECCModeResponse decodes a 1-byte boolean payload.
func DecodeGetECCModeResponse(rh ResponseHeader, payload []byte) (ECCModeResponse, error) {
	if !rh.CC.Success() {
		return ECCModeResponse{}, ErrCommandFail("DecodeGetECCModeResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return ECCModeResponse{}, ErrData("DecodeGetECCModeResponse")
	}
	return ECCModeResponse{Enabled: payload[0] != 0}, nil
}

// EncodeSetECCModeRequest encodes a 1-byte boolean ECC-enable request.
func EncodeSetECCModeRequest(buf []byte, enabled bool) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetECCModeRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeSetECCModeRequest")
	}
	if enabled {
		buf[0] = 0x01
	} else {
		buf[0] = 0x00
	}
	return 1, nil
}

// SetECCModeResponse carries no fields beyond CC.
type SetECCModeResponse struct{}

// DecodeSetECCModeResponse decodes an empty success payload.
func DecodeSetECCModeResponse(rh ResponseHeader, payload []byte) (SetECCModeResponse, error) {
	if !rh.CC.Success() {
		return SetECCModeResponse{}, ErrCommandFail("DecodeSetECCModeResponse", rh.ReasonCode)
	}
	return SetECCModeResponse{}, nil
}

// EDPpScalingFactorResponse carries the Enforced Power Profile's power
// scaling percentage (0-100).
type EDPpScalingFactorResponse struct {
	Percent uint8
}

// DecodeGetEDPpScalingFactorResponse decodes a 1-byte percentage payload.
func DecodeGetEDPpScalingFactorResponse(rh ResponseHeader, payload []byte) (EDPpScalingFactorResponse, error) {
	if !rh.CC.Success() {
		return EDPpScalingFactorResponse{}, ErrCommandFail("DecodeGetEDPpScalingFactorResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return EDPpScalingFactorResponse{}, ErrData("DecodeGetEDPpScalingFactorResponse")
	}
	return EDPpScalingFactorResponse{Percent: payload[0]}, nil
}

// EncodeSetEDPpScalingFactorRequest encodes a 1-byte percentage (0-100) request.
func EncodeSetEDPpScalingFactorRequest(buf []byte, percent uint8) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetEDPpScalingFactorRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeSetEDPpScalingFactorRequest")
	}
	buf[0] = percent
	return 1, nil
}

// SetEDPpScalingFactorResponse carries no fields beyond CC.
type SetEDPpScalingFactorResponse struct{}

// DecodeSetEDPpScalingFactorResponse decodes an empty success payload.
func DecodeSetEDPpScalingFactorResponse(rh ResponseHeader, payload []byte) (SetEDPpScalingFactorResponse, error) {
	if !rh.CC.Success() {
		return SetEDPpScalingFactorResponse{}, ErrCommandFail("DecodeSetEDPpScalingFactorResponse", rh.ReasonCode)
	}
	return SetEDPpScalingFactorResponse{}, nil
}

// ClockLimitResponse carries the GPU's configured min/max clock bounds in MHz.
type ClockLimitResponse struct {
	MinClockMHz uint32
	MaxClockMHz uint32
}

// DecodeGetClockLimitResponse decodes an 8-byte (min, max) MHz pair.
func DecodeGetClockLimitResponse(rh ResponseHeader, payload []byte) (ClockLimitResponse, error) {
	if !rh.CC.Success() {
		return ClockLimitResponse{}, ErrCommandFail("DecodeGetClockLimitResponse", rh.ReasonCode)
	}
	if len(payload) < 8 {
		return ClockLimitResponse{}, ErrData("DecodeGetClockLimitResponse")
	}
	return ClockLimitResponse{
		MinClockMHz: binary.LittleEndian.Uint32(payload[0:4]),
		MaxClockMHz: binary.LittleEndian.Uint32(payload[4:8]),
	}, nil
}

// EncodeSetClockLimitRequest encodes an 8-byte (min, max) MHz pair request.
func EncodeSetClockLimitRequest(buf []byte, l ClockLimitResponse) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetClockLimitRequest")
	}
	if len(buf) < 8 {
		return 0, ErrLength("EncodeSetClockLimitRequest")
	}
	binary.LittleEndian.PutUint32(buf[0:4], l.MinClockMHz)
	binary.LittleEndian.PutUint32(buf[4:8], l.MaxClockMHz)
	return 8, nil
}

// SetClockLimitResponse carries no fields beyond CC.
type SetClockLimitResponse struct{}

// DecodeSetClockLimitResponse decodes an empty success payload.
func DecodeSetClockLimitResponse(rh ResponseHeader, payload []byte) (SetClockLimitResponse, error) {
	if !rh.CC.Success() {
		return SetClockLimitResponse{}, ErrCommandFail("DecodeSetClockLimitResponse", rh.ReasonCode)
	}
	return SetClockLimitResponse{}, nil
}

// ClockFrequencyResponse carries the GPU's current operating clock in MHz.
type ClockFrequencyResponse struct {
	ClockMHz uint32
}

// DecodeGetClockFrequencyResponse decodes a 4-byte little-endian MHz reading.
func DecodeGetClockFrequencyResponse(rh ResponseHeader, payload []byte) (ClockFrequencyResponse, error) {
	if !rh.CC.Success() {
		return ClockFrequencyResponse{}, ErrCommandFail("DecodeGetClockFrequencyResponse", rh.ReasonCode)
	}
	if len(payload) < 4 {
		return ClockFrequencyResponse{}, ErrData("DecodeGetClockFrequencyResponse")
	}
	return ClockFrequencyResponse{ClockMHz: binary.LittleEndian.Uint32(payload[:4])}, nil
}

// AccumulatedGPUUtilizationResponse carries free-running SM/memory busy-time
// accumulators in microseconds, used to derive a utilization percentage
// across two samples.
type AccumulatedGPUUtilizationResponse struct {
	SMBusyTimeUs     uint64
	MemoryBusyTimeUs uint64
}

// DecodeGetAccumulatedGPUUtilizationResponse decodes a 16-byte (smBusy, memBusy) pair.
func DecodeGetAccumulatedGPUUtilizationResponse(rh ResponseHeader, payload []byte) (AccumulatedGPUUtilizationResponse, error) {
	if !rh.CC.Success() {
		return AccumulatedGPUUtilizationResponse{}, ErrCommandFail("DecodeGetAccumulatedGPUUtilizationResponse", rh.ReasonCode)
	}
	if len(payload) < 16 {
		return AccumulatedGPUUtilizationResponse{}, ErrData("DecodeGetAccumulatedGPUUtilizationResponse")
	}
	return AccumulatedGPUUtilizationResponse{
		SMBusyTimeUs:     binary.LittleEndian.Uint64(payload[0:8]),
		MemoryBusyTimeUs: binary.LittleEndian.Uint64(payload[8:16]),
	}, nil
}

// RowRemapStateResponse reports the memory row-remapping condition that
// drives a pending-reset-for-RAS-action decision.
type RowRemapStateResponse struct {
	PendingRemaps  uint32
	FailedRemaps   uint32
	RemapsAtLimit  bool
}

// DecodeGetRowRemapStateResponse decodes a (pending:u32, failed:u32, atLimit:u8) payload.
func DecodeGetRowRemapStateResponse(rh ResponseHeader, payload []byte) (RowRemapStateResponse, error) {
	if !rh.CC.Success() {
		return RowRemapStateResponse{}, ErrCommandFail("DecodeGetRowRemapStateResponse", rh.ReasonCode)
	}
	if len(payload) < 9 {
		return RowRemapStateResponse{}, ErrData("DecodeGetRowRemapStateResponse")
	}
	return RowRemapStateResponse{
		PendingRemaps: binary.LittleEndian.Uint32(payload[0:4]),
		FailedRemaps:  binary.LittleEndian.Uint32(payload[4:8]),
		RemapsAtLimit: payload[8] != 0,
	}, nil
}

// MemoryCapacityUtilizationResponse carries device memory capacity figures in MiB.
type MemoryCapacityUtilizationResponse struct {
	TotalMiB uint32
	UsedMiB  uint32
}

// DecodeGetMemoryCapacityUtilizationResponse decodes an 8-byte (total, used) MiB pair.
func DecodeGetMemoryCapacityUtilizationResponse(rh ResponseHeader, payload []byte) (MemoryCapacityUtilizationResponse, error) {
	if !rh.CC.Success() {
		return MemoryCapacityUtilizationResponse{}, ErrCommandFail("DecodeGetMemoryCapacityUtilizationResponse", rh.ReasonCode)
	}
	if len(payload) < 8 {
		return MemoryCapacityUtilizationResponse{}, ErrData("DecodeGetMemoryCapacityUtilizationResponse")
	}
	return MemoryCapacityUtilizationResponse{
		TotalMiB: binary.LittleEndian.Uint32(payload[0:4]),
		UsedMiB:  binary.LittleEndian.Uint32(payload[4:8]),
	}, nil
}

// LongRunningCompletionEvent is the decoded payload of a long-running
// completion event (spec.md §4.4): the instance id ties it back to the
// ACCEPTED response that started the operation.
type LongRunningCompletionEvent struct {
	InstanceID uint8
	CC         CompletionCode
	ReasonCode ReasonCode
}

// DecodeLongRunningCompletionEvent decodes the (instanceId, cc[, reasonCode])
// prefix of a long-running completion event, following the same CC-first,
// reason-code-only-on-failure discipline as DecodeResponseHeader. It returns
// the number of bytes consumed so the caller can hand the remainder to the
// sensor's normal response decoder (spec.md §4.3).
func DecodeLongRunningCompletionEvent(payload []byte) (LongRunningCompletionEvent, int, error) {
	if len(payload) < 2 {
		return LongRunningCompletionEvent{}, 0, ErrLength("DecodeLongRunningCompletionEvent")
	}
	ev := LongRunningCompletionEvent{
		InstanceID: payload[0] & instanceIDMask,
		CC:         CompletionCode(payload[1]),
	}
	if ev.CC.Success() {
		return ev, 2, nil
	}
	if len(payload) < 4 {
		return LongRunningCompletionEvent{}, 0, ErrLength("DecodeLongRunningCompletionEvent")
	}
	ev.ReasonCode = ReasonCode(binary.LittleEndian.Uint16(payload[2:4]))
	return ev, 4, nil
}
