// Package nsm is the NSM wire codec (C1): pure encode/decode functions for
// NSM protocol data units (PDUs) carried over MCTP/VDM. All multibyte
// scalars on the wire are little-endian; decoders extract the completion
// code before touching any payload field.
package nsm

import "encoding/binary"

// MessageType is the NVIDIA message type byte identifying a command family.
type MessageType uint8

const (
	MessageTypeDeviceCapabilityDiscovery MessageType = 0
	MessageTypeNetworkPort               MessageType = 1
	MessageTypePCILink                   MessageType = 2
	MessageTypePlatformEnvironmental     MessageType = 3
	MessageTypeDiagnostics               MessageType = 4
	MessageTypeFirmware                  MessageType = 5
)

// CommandCode identifies an operation within a MessageType.
type CommandCode uint8

const (
	CmdPing                      CommandCode = 0x00
	CmdGetSupportedMessageTypes  CommandCode = 0x01
	CmdGetSupportedCommandCodes  CommandCode = 0x02
	CmdQueryDeviceIdentification CommandCode = 0x03
	CmdEventSubscription         CommandCode = 0x04
	CmdGetCurrentEventSources    CommandCode = 0x05
	CmdConfigureEventAck         CommandCode = 0x06

	// MessageTypeNetworkPort family.
	CmdGetPortTelemetryCounter CommandCode = 0x10
	CmdGetPortStatus           CommandCode = 0x11
	CmdGetPortCharacteristics  CommandCode = 0x12
	CmdGetPortsAvailable       CommandCode = 0x13
	CmdGetPortThresholds       CommandCode = 0x14
	CmdSetPortThresholds       CommandCode = 0x15
	CmdGetSystemGUID           CommandCode = 0x16
	CmdSetSystemGUID           CommandCode = 0x17
	CmdGetLinkDisableSticky    CommandCode = 0x18
	CmdSetLinkDisableSticky    CommandCode = 0x19
	CmdGetPortIsolationMode    CommandCode = 0x1A
	CmdSetPortIsolationMode    CommandCode = 0x1B
	CmdGetPortPowerMode        CommandCode = 0x1C
	CmdSetPortPowerMode        CommandCode = 0x1D

	// MessageTypePlatformEnvironmental family.
	CmdGetInventoryInformation         CommandCode = 0x20
	CmdGetTemperatureReading           CommandCode = 0x21
	CmdGetCurrentPowerDraw             CommandCode = 0x22
	CmdSetPowerCap                     CommandCode = 0x23
	CmdSetMigMode                      CommandCode = 0x24
	CmdGetMigMode                      CommandCode = 0x25
	CmdGetPowerSupplyStatus            CommandCode = 0x26
	CmdGetGPUPresenceAndPower          CommandCode = 0x27
	CmdGetEnergyCount                  CommandCode = 0x28
	CmdGetVoltage                      CommandCode = 0x29
	CmdGetAltitudePressure             CommandCode = 0x2A
	CmdGetDriverInfo                   CommandCode = 0x2B
	CmdGetECCMode                      CommandCode = 0x2C
	CmdSetECCMode                      CommandCode = 0x2D
	CmdGetEDPpScalingFactor            CommandCode = 0x2E
	CmdSetEDPpScalingFactor            CommandCode = 0x2F
	CmdGetClockLimit                   CommandCode = 0x30
	CmdSetClockLimit                   CommandCode = 0x31
	CmdGetClockFrequency               CommandCode = 0x32
	CmdGetAccumulatedGPUUtilization    CommandCode = 0x33
	CmdGetRowRemapState                CommandCode = 0x34
	CmdGetMemoryCapacityUtilization    CommandCode = 0x35

	// MessageTypePCILink family.
	CmdGetPCIeScalarTelemetry       CommandCode = 0x40
	CmdClearPCIeDataSource          CommandCode = 0x41
	CmdAssertPCIeFundamentalReset   CommandCode = 0x42

	// MessageTypeDiagnostics family.
	CmdGetFPGADiagnosticsSettings CommandCode = 0x50
	CmdSetFPGADiagnosticsSettings CommandCode = 0x51
	CmdGetWriteProtect            CommandCode = 0x52
	CmdSetWriteProtect            CommandCode = 0x53
	CmdGetGPUISTMode              CommandCode = 0x54
	CmdSetGPUISTMode              CommandCode = 0x55
	CmdReadThermalParameter       CommandCode = 0x56

	// MessageTypeFirmware family.
	CmdQueryEROTState                CommandCode = 0x60
	CmdGetFirmwareSecurityVersion    CommandCode = 0x61
	CmdUpdateFirmwareSecurityVersion CommandCode = 0x62
	CmdIrreversibleConfigRequest     CommandCode = 0x63
)

// CompletionCode is the one-byte response status.
type CompletionCode uint8

const (
	CCSuccess                  CompletionCode = 0x00
	CCAccepted                 CompletionCode = 0x01
	CCErrNotReady              CompletionCode = 0x02
	CCErrUnsupportedCommandCode CompletionCode = 0x03
	CCErrInvalidData           CompletionCode = 0x04
)

func (cc CompletionCode) Success() bool {
	return cc == CCSuccess
}

// ReasonCode is the two-byte LE code present on non-success responses.
type ReasonCode uint16

// Direction is the 1-bit direction field in the NSM header.
type Direction uint8

const (
	DirectionRequest  Direction = 0
	DirectionResponse Direction = 1
	DirectionEvent    Direction = 2
)

// HeaderSize is the fixed size of the 4-byte NSM header.
const HeaderSize = 4

// ResponseCommonSize is the size of command+CC+data-size that follows the
// header on every response, before payload or reason code.
const ResponseCommonSize = 4

// ReasonCodeSize is the size of the reason code field present on non-success responses.
const ReasonCodeSize = 2

// PCIVendorIDNvidia is the fixed OEM identifier used in byte 0 of the header.
const PCIVendorIDNvidia = 0x10

// Header is the 4-byte NSM header that begins every PDU.
type Header struct {
	PCIVendorID     uint8
	InstanceID      uint8 // 5 bits
	Direction       Direction
	OCPType         uint8
	OCPVersion      uint8
	NvidiaMessageType MessageType
}

const instanceIDMask = 0x1F

// EncodeHeader writes a 4-byte NSM header into buf[:4]. buf must have
// length >= HeaderSize.
func EncodeHeader(buf []byte, h Header) error {
	if buf == nil {
		return ErrNull("EncodeHeader")
	}
	if len(buf) < HeaderSize {
		return ErrLength("EncodeHeader")
	}

	buf[0] = h.PCIVendorID
	buf[1] = (h.InstanceID & instanceIDMask) | (uint8(h.Direction) << 7)
	buf[2] = (h.OCPType << 4) | (h.OCPVersion & 0x0F)
	buf[3] = uint8(h.NvidiaMessageType)
	return nil
}

// DecodeHeader reads a 4-byte NSM header from buf[:4].
func DecodeHeader(buf []byte) (Header, error) {
	if buf == nil {
		return Header{}, ErrNull("DecodeHeader")
	}
	if len(buf) < HeaderSize {
		return Header{}, ErrLength("DecodeHeader")
	}

	return Header{
		PCIVendorID:       buf[0],
		InstanceID:        buf[1] & instanceIDMask,
		Direction:         Direction(buf[1] >> 7),
		OCPType:           buf[2] >> 4,
		OCPVersion:        buf[2] & 0x0F,
		NvidiaMessageType: MessageType(buf[3]),
	}, nil
}

// ResponseHeader is the common (command, CC, data-size) triple every
// response carries after the NSM header, plus the reason code when CC is
// non-success.
type ResponseHeader struct {
	Command    CommandCode
	CC         CompletionCode
	DataSize   uint16
	ReasonCode ReasonCode // valid only when !CC.Success()
}

// DecodeResponseHeader decodes the command/CC/data-size/[reason-code]
// portion of a response that follows the NSM header. It always reads CC
// first; on non-success it reads the reason code and stops, never touching
// any payload bytes (spec.md §4.1 "CC and reason-code discipline").
func DecodeResponseHeader(buf []byte) (ResponseHeader, int, error) {
	if buf == nil {
		return ResponseHeader{}, 0, ErrNull("DecodeResponseHeader")
	}
	if len(buf) < ResponseCommonSize {
		return ResponseHeader{}, 0, ErrLength("DecodeResponseHeader")
	}

	rh := ResponseHeader{
		Command:  CommandCode(buf[0]),
		CC:       CompletionCode(buf[1]),
		DataSize: binary.LittleEndian.Uint16(buf[2:4]),
	}

	if rh.CC.Success() {
		return rh, ResponseCommonSize, nil
	}

	if len(buf) < ResponseCommonSize+ReasonCodeSize {
		return ResponseHeader{}, 0, ErrLength("DecodeResponseHeader.reasonCode")
	}
	rh.ReasonCode = ReasonCode(binary.LittleEndian.Uint16(buf[ResponseCommonSize : ResponseCommonSize+ReasonCodeSize]))
	return rh, ResponseCommonSize + ReasonCodeSize, nil
}

// EncodeResponseHeader is the inverse of DecodeResponseHeader, used by the
// in-process mock MCTP demux responder in tests.
func EncodeResponseHeader(buf []byte, rh ResponseHeader) (int, error) {
	if buf == nil {
		return 0, ErrNull("EncodeResponseHeader")
	}
	if len(buf) < ResponseCommonSize {
		return 0, ErrLength("EncodeResponseHeader")
	}

	buf[0] = uint8(rh.Command)
	buf[1] = uint8(rh.CC)
	binary.LittleEndian.PutUint16(buf[2:4], rh.DataSize)

	if rh.CC.Success() {
		return ResponseCommonSize, nil
	}

	if len(buf) < ResponseCommonSize+ReasonCodeSize {
		return 0, ErrLength("EncodeResponseHeader.reasonCode")
	}
	binary.LittleEndian.PutUint16(buf[ResponseCommonSize:ResponseCommonSize+ReasonCodeSize], uint16(rh.ReasonCode))
	return ResponseCommonSize + ReasonCodeSize, nil
}
