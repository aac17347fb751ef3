package nsm

import "encoding/binary"

// FPGADiagnosticsSettings is the decoded (and encoded, for Set) FPGA
// diagnostics configuration block.
type FPGADiagnosticsSettings struct {
	LoopbackMode   uint8
	DataPattern    uint8
	DurationSecs   uint16
}

// EncodeGetFPGADiagnosticsSettingsRequest encodes a request carrying no payload.
func EncodeGetFPGADiagnosticsSettingsRequest(buf []byte) (int, error) {
	return 0, nil
}

// DecodeGetFPGADiagnosticsSettingsResponse decodes a 4-byte
// (loopbackMode:u8, dataPattern:u8, durationSecs:u16) payload.
func DecodeGetFPGADiagnosticsSettingsResponse(rh ResponseHeader, payload []byte) (FPGADiagnosticsSettings, error) {
	if !rh.CC.Success() {
		return FPGADiagnosticsSettings{}, ErrCommandFail("DecodeGetFPGADiagnosticsSettingsResponse", rh.ReasonCode)
	}
	if len(payload) < 4 {
		return FPGADiagnosticsSettings{}, ErrData("DecodeGetFPGADiagnosticsSettingsResponse")
	}
	return FPGADiagnosticsSettings{
		LoopbackMode: payload[0],
		DataPattern:  payload[1],
		DurationSecs: binary.LittleEndian.Uint16(payload[2:4]),
	}, nil
}

// EncodeSetFPGADiagnosticsSettingsRequest encodes a 4-byte settings payload.
func EncodeSetFPGADiagnosticsSettingsRequest(buf []byte, s FPGADiagnosticsSettings) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetFPGADiagnosticsSettingsRequest")
	}
	if len(buf) < 4 {
		return 0, ErrLength("EncodeSetFPGADiagnosticsSettingsRequest")
	}
	buf[0] = s.LoopbackMode
	buf[1] = s.DataPattern
	binary.LittleEndian.PutUint16(buf[2:4], s.DurationSecs)
	return 4, nil
}

// SetFPGADiagnosticsSettingsResponse carries no fields beyond CC.
type SetFPGADiagnosticsSettingsResponse struct{}

// DecodeSetFPGADiagnosticsSettingsResponse decodes an empty success payload.
func DecodeSetFPGADiagnosticsSettingsResponse(rh ResponseHeader, payload []byte) (SetFPGADiagnosticsSettingsResponse, error) {
	if !rh.CC.Success() {
		return SetFPGADiagnosticsSettingsResponse{}, ErrCommandFail("DecodeSetFPGADiagnosticsSettingsResponse", rh.ReasonCode)
	}
	return SetFPGADiagnosticsSettingsResponse{}, nil
}

// WriteProtectResponse reports whether firmware write-protect is currently
// engaged (grounded on original_source/nsmd/nsmSetAsync/nsmSetErrorInjection.cpp's
// enable/disable write-protect pair).
type WriteProtectResponse struct {
	Enabled bool
}

// EncodeGetWriteProtectRequest encodes a request carrying no payload.
func EncodeGetWriteProtectRequest(buf []byte) (int, error) {
	return 0, nil
}

// DecodeGetWriteProtectResponse decodes a 1-byte boolean payload.
func DecodeGetWriteProtectResponse(rh ResponseHeader, payload []byte) (WriteProtectResponse, error) {
	if !rh.CC.Success() {
		return WriteProtectResponse{}, ErrCommandFail("DecodeGetWriteProtectResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return WriteProtectResponse{}, ErrData("DecodeGetWriteProtectResponse")
	}
	return WriteProtectResponse{Enabled: payload[0] != 0}, nil
}

// EncodeSetWriteProtectRequest encodes a 1-byte enable/disable flag.
func EncodeSetWriteProtectRequest(buf []byte, enabled bool) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetWriteProtectRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeSetWriteProtectRequest")
	}
	if enabled {
		buf[0] = 0x01
	} else {
		buf[0] = 0x00
	}
	return 1, nil
}

// SetWriteProtectResponse carries no fields beyond CC.
type SetWriteProtectResponse struct{}

// DecodeSetWriteProtectResponse decodes an empty success payload.
func DecodeSetWriteProtectResponse(rh ResponseHeader, payload []byte) (SetWriteProtectResponse, error) {
	if !rh.CC.Success() {
		return SetWriteProtectResponse{}, ErrCommandFail("DecodeSetWriteProtectResponse", rh.ReasonCode)
	}
	return SetWriteProtectResponse{}, nil
}

// GPUISTModeResponse reports whether In-System Test mode is active.
type GPUISTModeResponse struct {
	Enabled bool
}

// EncodeGetGPUISTModeRequest encodes a request carrying no payload.
func EncodeGetGPUISTModeRequest(buf []byte) (int, error) {
	return 0, nil
}

// DecodeGetGPUISTModeResponse decodes a 1-byte boolean payload.
func DecodeGetGPUISTModeResponse(rh ResponseHeader, payload []byte) (GPUISTModeResponse, error) {
	if !rh.CC.Success() {
		return GPUISTModeResponse{}, ErrCommandFail("DecodeGetGPUISTModeResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return GPUISTModeResponse{}, ErrData("DecodeGetGPUISTModeResponse")
	}
	return GPUISTModeResponse{Enabled: payload[0] != 0}, nil
}

// EncodeSetGPUISTModeRequest encodes a 1-byte enable/disable flag. This is a
// long-running command: entering or leaving IST mode reinitializes the GPU.
func EncodeSetGPUISTModeRequest(buf []byte, enabled bool) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeSetGPUISTModeRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeSetGPUISTModeRequest")
	}
	if enabled {
		buf[0] = 0x01
	} else {
		buf[0] = 0x00
	}
	return 1, nil
}

// SetGPUISTModeResponse carries no fields beyond CC.
type SetGPUISTModeResponse struct{}

// DecodeSetGPUISTModeResponse decodes an empty ACCEPTED/success payload.
func DecodeSetGPUISTModeResponse(rh ResponseHeader, payload []byte) (SetGPUISTModeResponse, error) {
	if !rh.CC.Success() && rh.CC != CCAccepted {
		return SetGPUISTModeResponse{}, ErrCommandFail("DecodeSetGPUISTModeResponse", rh.ReasonCode)
	}
	return SetGPUISTModeResponse{}, nil
}

// ThermalParameter selects which thermal-policy constant ReadThermalParameter fetches.
type ThermalParameter uint8

const (
	ThermalParameterSlowdownTempC ThermalParameter = 0
	ThermalParameterShutdownTempC ThermalParameter = 1
	ThermalParameterHBMMaxTempC   ThermalParameter = 2
)

// EncodeReadThermalParameterRequest encodes the 1-byte parameter selector.
func EncodeReadThermalParameterRequest(buf []byte, param ThermalParameter) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeReadThermalParameterRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeReadThermalParameterRequest")
	}
	buf[0] = uint8(param)
	return 1, nil
}

// ThermalParameterResponse carries a single signed-integer thermal constant
// in degrees Celsius.
type ThermalParameterResponse struct {
	ValueCelsius int32
}

// DecodeReadThermalParameterResponse decodes a 4-byte little-endian signed
// temperature value.
func DecodeReadThermalParameterResponse(rh ResponseHeader, payload []byte) (ThermalParameterResponse, error) {
	if !rh.CC.Success() {
		return ThermalParameterResponse{}, ErrCommandFail("DecodeReadThermalParameterResponse", rh.ReasonCode)
	}
	if len(payload) < 4 {
		return ThermalParameterResponse{}, ErrData("DecodeReadThermalParameterResponse")
	}
	return ThermalParameterResponse{ValueCelsius: int32(binary.LittleEndian.Uint32(payload[:4]))}, nil
}
