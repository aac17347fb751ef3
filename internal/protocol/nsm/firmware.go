package nsm

import "encoding/binary"

// FirmwareState mirrors the slot states reported by ERoT state query
// (grounded on original_source/nsmd/nsmChassis/nsmErot.cpp's FirmwareState table).
type FirmwareState uint8

const (
	FirmwareStateUnknown            FirmwareState = 0
	FirmwareStateActivated          FirmwareState = 1
	FirmwareStatePendingActivation  FirmwareState = 2
	FirmwareStateStaged             FirmwareState = 3
	FirmwareStateWriteInProgress    FirmwareState = 4
	FirmwareStateInactive           FirmwareState = 5
	FirmwareStateFailedAuthentication FirmwareState = 6
)

// EROTStateResponse is the decoded QueryEROTState payload: one slot's
// firmware state plus which slot is currently active.
type EROTStateResponse struct {
	SlotID     uint8
	ActiveSlot uint8
	State      FirmwareState
	BuildType  uint8 // 0 = development, 1 = release
}

// EncodeQueryEROTStateRequest encodes the 1-byte slot index selector.
func EncodeQueryEROTStateRequest(buf []byte, slotID uint8) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeQueryEROTStateRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeQueryEROTStateRequest")
	}
	buf[0] = slotID
	return 1, nil
}

// DecodeQueryEROTStateResponse decodes a 4-byte
// (slotId:u8, activeSlot:u8, state:u8, buildType:u8) payload.
func DecodeQueryEROTStateResponse(rh ResponseHeader, payload []byte) (EROTStateResponse, error) {
	if !rh.CC.Success() {
		return EROTStateResponse{}, ErrCommandFail("DecodeQueryEROTStateResponse", rh.ReasonCode)
	}
	if len(payload) < 4 {
		return EROTStateResponse{}, ErrData("DecodeQueryEROTStateResponse")
	}
	return EROTStateResponse{
		SlotID:     payload[0],
		ActiveSlot: payload[1],
		State:      FirmwareState(payload[2]),
		BuildType:  payload[3],
	}, nil
}

// IsActive reports whether this response's slot is the currently active one.
func (r EROTStateResponse) IsActive() bool {
	return r.SlotID == r.ActiveSlot
}

// FirmwareSecurityVersionResponse carries the minimum and running anti-rollback
// security version numbers (grounded on
// original_source/nsmd/nsmChassis/nsmSecurityRBP.cpp's MinSecurityVersion).
type FirmwareSecurityVersionResponse struct {
	MinVersion     uint16
	ActiveVersion  uint16
}

// EncodeGetFirmwareSecurityVersionRequest encodes the 2-byte
// (classification:u16) selector.
func EncodeGetFirmwareSecurityVersionRequest(buf []byte, classification uint16) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetFirmwareSecurityVersionRequest")
	}
	if len(buf) < 2 {
		return 0, ErrLength("EncodeGetFirmwareSecurityVersionRequest")
	}
	binary.LittleEndian.PutUint16(buf[0:2], classification)
	return 2, nil
}

// DecodeGetFirmwareSecurityVersionResponse decodes a 4-byte
// (minVersion:u16, activeVersion:u16) payload.
func DecodeGetFirmwareSecurityVersionResponse(rh ResponseHeader, payload []byte) (FirmwareSecurityVersionResponse, error) {
	if !rh.CC.Success() {
		return FirmwareSecurityVersionResponse{}, ErrCommandFail("DecodeGetFirmwareSecurityVersionResponse", rh.ReasonCode)
	}
	if len(payload) < 4 {
		return FirmwareSecurityVersionResponse{}, ErrData("DecodeGetFirmwareSecurityVersionResponse")
	}
	return FirmwareSecurityVersionResponse{
		MinVersion:    binary.LittleEndian.Uint16(payload[0:2]),
		ActiveVersion: binary.LittleEndian.Uint16(payload[2:4]),
	}, nil
}

// EncodeUpdateFirmwareSecurityVersionRequest encodes a (classification:u16,
// newMinVersion:u16) request. This is irreversible on the device (a security
// version can only move forward); the core does not enforce that here, it is
// the device's own policy to reject a regression with ERR_INVALID_DATA.
func EncodeUpdateFirmwareSecurityVersionRequest(buf []byte, classification, newMinVersion uint16) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeUpdateFirmwareSecurityVersionRequest")
	}
	if len(buf) < 4 {
		return 0, ErrLength("EncodeUpdateFirmwareSecurityVersionRequest")
	}
	binary.LittleEndian.PutUint16(buf[0:2], classification)
	binary.LittleEndian.PutUint16(buf[2:4], newMinVersion)
	return 4, nil
}

// UpdateFirmwareSecurityVersionResponse carries no fields beyond CC; this is
// a long-running command (spec.md §4.3).
type UpdateFirmwareSecurityVersionResponse struct{}

// DecodeUpdateFirmwareSecurityVersionResponse decodes an empty
// ACCEPTED/success payload.
func DecodeUpdateFirmwareSecurityVersionResponse(rh ResponseHeader, payload []byte) (UpdateFirmwareSecurityVersionResponse, error) {
	if !rh.CC.Success() && rh.CC != CCAccepted {
		return UpdateFirmwareSecurityVersionResponse{}, ErrCommandFail("DecodeUpdateFirmwareSecurityVersionResponse", rh.ReasonCode)
	}
	return UpdateFirmwareSecurityVersionResponse{}, nil
}

// IrreversibleConfigRequestType selects which one-way configuration change
// is being requested (grounded on
// original_source/nsmd/nsmChassis/nsmSecurityRBP.cpp's
// nsm_firmware_irreversible_config_request_0/2 pair: 0 queries state, 2
// commits the irreversible change).
type IrreversibleConfigRequestType uint8

const (
	IrreversibleConfigQueryState IrreversibleConfigRequestType = 0
	IrreversibleConfigCommit     IrreversibleConfigRequestType = 2
)

// EncodeIrreversibleConfigRequest encodes the 1-byte request-type selector.
func EncodeIrreversibleConfigRequest(buf []byte, reqType IrreversibleConfigRequestType) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeIrreversibleConfigRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeIrreversibleConfigRequest")
	}
	buf[0] = uint8(reqType)
	return 1, nil
}

// IrreversibleConfigResponse is the decoded reply: for
// IrreversibleConfigQueryState, Committed reflects current state;
// for IrreversibleConfigCommit, a success CC means the one-way commit
// proceeded.
type IrreversibleConfigResponse struct {
	Committed bool
}

// DecodeIrreversibleConfigResponse decodes a 1-byte boolean payload.
func DecodeIrreversibleConfigResponse(rh ResponseHeader, payload []byte) (IrreversibleConfigResponse, error) {
	if !rh.CC.Success() {
		return IrreversibleConfigResponse{}, ErrCommandFail("DecodeIrreversibleConfigResponse", rh.ReasonCode)
	}
	if len(payload) < 1 {
		return IrreversibleConfigResponse{}, ErrData("DecodeIrreversibleConfigResponse")
	}
	return IrreversibleConfigResponse{Committed: payload[0] != 0}, nil
}
