package nsm

import "encoding/binary"

// PCIeScalarGroup selects one of the ten scalar telemetry groups a PCIe
// link exposes (grounded on original_source/nsmd/nsmChassis/nsmPCIeLTSSMState.cpp
// and nsmChassis/nsmPCIeFunction.cpp's per-group counter layout).
type PCIeScalarGroup uint8

const (
	PCIeScalarGroup0 PCIeScalarGroup = 0
	PCIeScalarGroup1 PCIeScalarGroup = 1
	PCIeScalarGroup2 PCIeScalarGroup = 2
	PCIeScalarGroup3 PCIeScalarGroup = 3
	PCIeScalarGroup4 PCIeScalarGroup = 4
	PCIeScalarGroup5 PCIeScalarGroup = 5
	PCIeScalarGroup6 PCIeScalarGroup = 6
	PCIeScalarGroup7 PCIeScalarGroup = 7
	PCIeScalarGroup8 PCIeScalarGroup = 8
	PCIeScalarGroup9 PCIeScalarGroup = 9
)

// EncodeGetPCIeScalarTelemetryRequest encodes the 1-byte scalar group
// selector (0-9).
func EncodeGetPCIeScalarTelemetryRequest(buf []byte, group PCIeScalarGroup) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeGetPCIeScalarTelemetryRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeGetPCIeScalarTelemetryRequest")
	}
	buf[0] = uint8(group)
	return 1, nil
}

// PCIeScalarTelemetryResponse is the decoded single-group scalar telemetry
// reading: one free-running 64-bit counter per group, the wire shape shared
// by all ten groups (correctable/uncorrectable error counts, L0s/L1/L1.1/L1.2
// transition counts, replay counts and similar LTSSM-derived scalars).
type PCIeScalarTelemetryResponse struct {
	Group PCIeScalarGroup
	Value uint64
}

// DecodeGetPCIeScalarTelemetryResponse decodes an 8-byte little-endian
// counter. The group is not present on the wire response; callers correlate
// it from the request they issued.
func DecodeGetPCIeScalarTelemetryResponse(rh ResponseHeader, payload []byte) (uint64, error) {
	if !rh.CC.Success() {
		return 0, ErrCommandFail("DecodeGetPCIeScalarTelemetryResponse", rh.ReasonCode)
	}
	if len(payload) < 8 {
		return 0, ErrData("DecodeGetPCIeScalarTelemetryResponse")
	}
	return binary.LittleEndian.Uint64(payload[:8]), nil
}

// EncodeClearPCIeDataSourceRequest encodes the 1-byte scalar group whose
// accumulator should be reset to zero.
func EncodeClearPCIeDataSourceRequest(buf []byte, group PCIeScalarGroup) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeClearPCIeDataSourceRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeClearPCIeDataSourceRequest")
	}
	buf[0] = uint8(group)
	return 1, nil
}

// ClearPCIeDataSourceResponse carries no fields beyond CC.
type ClearPCIeDataSourceResponse struct{}

// DecodeClearPCIeDataSourceResponse decodes an empty success payload.
func DecodeClearPCIeDataSourceResponse(rh ResponseHeader, payload []byte) (ClearPCIeDataSourceResponse, error) {
	if !rh.CC.Success() {
		return ClearPCIeDataSourceResponse{}, ErrCommandFail("DecodeClearPCIeDataSourceResponse", rh.ReasonCode)
	}
	return ClearPCIeDataSourceResponse{}, nil
}

// EncodeAssertPCIeFundamentalResetRequest encodes the 1-byte assert/deassert
// flag for a PCIe fundamental reset (PERST#) toggle.
func EncodeAssertPCIeFundamentalResetRequest(buf []byte, assert bool) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeAssertPCIeFundamentalResetRequest")
	}
	if len(buf) < 1 {
		return 0, ErrLength("EncodeAssertPCIeFundamentalResetRequest")
	}
	if assert {
		buf[0] = 0x01
	} else {
		buf[0] = 0x00
	}
	return 1, nil
}

// AssertPCIeFundamentalResetResponse carries no fields beyond CC; this is a
// long-running command (spec.md §4.3) — ACCEPTED arrives immediately, the
// actual reset completion arrives later as a long-running completion event.
type AssertPCIeFundamentalResetResponse struct{}

// DecodeAssertPCIeFundamentalResetResponse decodes an empty success payload.
func DecodeAssertPCIeFundamentalResetResponse(rh ResponseHeader, payload []byte) (AssertPCIeFundamentalResetResponse, error) {
	if !rh.CC.Success() && rh.CC != CCAccepted {
		return AssertPCIeFundamentalResetResponse{}, ErrCommandFail("DecodeAssertPCIeFundamentalResetResponse", rh.ReasonCode)
	}
	return AssertPCIeFundamentalResetResponse{}, nil
}
