package transport

import (
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// MCTPMessageTypeVDM is the MCTP message type byte for a Vendor-Defined
// Message (spec.md §6 "MCTP framing").
const MCTPMessageTypeVDM = 0x7E

// emulatorPrefix is sent once on connect, ahead of the VDM type and local
// EID, to identify this client to a development MCTP demux emulator
// (spec.md §6 "an emulator prefix byte 0xFF is sent once on connect").
const emulatorPrefix = 0xFF

// dialDemux opens the AF_UNIX SOCK_SEQPACKET connection to the local MCTP
// demux process and performs the one-time emulator handshake. net.Dial
// cannot be used here: SOCK_SEQPACKET framing (one Read() per message, no
// stream reassembly) is not exposed by net.Dial("unix", ...), only by the
// raw socket(2)/connect(2) pair in golang.org/x/sys/unix.
func dialDemux(socketPath string, localEID uint8) (net.Conn, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_SEQPACKET, 0)
	if err != nil {
		return nil, err
	}

	addr := &unix.SockaddrUnix{Name: socketPath}
	if err := unix.Connect(fd, addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	f := os.NewFile(uintptr(fd), "mctp-demux")
	conn, err := net.FileConn(f)
	_ = f.Close() // FileConn dup()s the fd; the original is no longer needed
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	handshake := []byte{emulatorPrefix, MCTPMessageTypeVDM, localEID}
	if _, err := conn.Write(handshake); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// buildOutgoingFrame prepends the 3-byte MCTP framing prefix to an
// already-encoded PDU: [msgTag, destinationEid, mctpMessageType]. The
// tag-owner bit (high bit of msgTag) is 1 for requests, 0 for responses;
// this transport only ever originates requests.
func buildOutgoingFrame(msgTag uint8, destinationEID uint8, pdu []byte) []byte {
	const tagOwnerBit = 1 << 7
	frame := make([]byte, 3+len(pdu))
	frame[0] = (msgTag & 0x7F) | tagOwnerBit
	frame[1] = destinationEID
	frame[2] = MCTPMessageTypeVDM
	copy(frame[3:], pdu)
	return frame
}

// splitIncomingFrame strips and validates the 3-byte framing prefix from a
// received SOCK_SEQPACKET message, returning the source EID and the
// remaining NSM PDU bytes.
func splitIncomingFrame(frame []byte) (sourceEID uint8, pdu []byte, ok bool) {
	if len(frame) < 3 {
		return 0, nil, false
	}
	if frame[2] != MCTPMessageTypeVDM {
		return 0, nil, false
	}
	return frame[1], frame[3:], true
}
