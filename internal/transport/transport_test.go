package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
)

// mockResponder plays the role of an MCTP demux peer in tests: it reads one
// framed request at a time and hands it to respond, which returns the frame
// to write back (or nil to drop the request, simulating a lost packet for
// retry/timeout tests).
type mockResponder struct {
	conn    net.Conn
	respond func(sourceTag uint8, destEID uint8, pdu []byte) []byte
}

func (m *mockResponder) run(t *testing.T) {
	buf := make([]byte, 4096)
	for {
		n, err := m.conn.Read(buf)
		if err != nil {
			return
		}
		frame := append([]byte(nil), buf[:n]...)
		if len(frame) < 3 {
			continue
		}
		reply := m.respond(frame[0], frame[1], frame[3:])
		if reply == nil {
			continue
		}
		if _, err := m.conn.Write(reply); err != nil {
			return
		}
	}
}

func newTestTransport(t *testing.T, respond func(sourceTag, destEID uint8, pdu []byte) []byte) (*Transport, func()) {
	clientConn, serverConn := net.Pipe()

	tr := New(Config{
		LocalEID:       9,
		AttemptTimeout: 200 * time.Millisecond,
		RetryCount:     2,
	}, nil, nil)

	responder := &mockResponder{conn: serverConn, respond: respond}
	go responder.run(t)

	ctx, cancel := context.WithCancel(context.Background())
	tr.StartWithConn(ctx, clientConn)

	return tr, func() {
		cancel()
		_ = tr.Close()
	}
}

func buildPingResponseFrame(eid uint8, instanceID uint8) []byte {
	hdr := nsm.Header{PCIVendorID: nsm.PCIVendorIDNvidia, InstanceID: instanceID, Direction: nsm.DirectionResponse, NvidiaMessageType: nsm.MessageTypeDeviceCapabilityDiscovery}
	pdu := make([]byte, nsm.HeaderSize+ResponseCommonSizeForTest)
	_ = nsm.EncodeHeader(pdu[:nsm.HeaderSize], hdr)
	rh := nsm.ResponseHeader{Command: nsm.CmdPing, CC: nsm.CCSuccess}
	_, _ = nsm.EncodeResponseHeader(pdu[nsm.HeaderSize:], rh)

	return buildOutgoingFrame(0, eid, pdu)
}

// ResponseCommonSizeForTest avoids importing nsm.ResponseCommonSize twice
// under a different name; it is just that constant.
const ResponseCommonSizeForTest = nsm.ResponseCommonSize

func TestRawExchangeSuccess(t *testing.T) {
	tr, stop := newTestTransport(t, func(sourceTag, destEID uint8, pdu []byte) []byte {
		hdr, _, err := nsm.DecodeHeader(pdu)
		require.NoError(t, err)
		return buildPingResponseFrame(destEID, hdr.InstanceID)
	})
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rh, _, err := tr.RawExchange(ctx, 30, Request{MessageType: nsm.MessageTypeDeviceCapabilityDiscovery, CommandCode: nsm.CmdPing})
	require.NoError(t, err)
	assert.Equal(t, nsm.CCSuccess, rh.CC)
}

func TestRawExchangeRetriesThenTimeout(t *testing.T) {
	var attempts int
	tr, stop := newTestTransport(t, func(sourceTag, destEID uint8, pdu []byte) []byte {
		attempts++
		return nil // always drop, forcing retries then timeout
	})
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, _, err := tr.RawExchange(ctx, 30, Request{MessageType: nsm.MessageTypeDeviceCapabilityDiscovery, CommandCode: nsm.CmdPing})
	require.Error(t, err)
	assert.GreaterOrEqual(t, attempts, 3) // initial attempt + 2 retries
}

func TestInstanceIDReleasedAfterExchange(t *testing.T) {
	tr, stop := newTestTransport(t, func(sourceTag, destEID uint8, pdu []byte) []byte {
		hdr, _, _ := nsm.DecodeHeader(pdu)
		return buildPingResponseFrame(destEID, hdr.InstanceID)
	})
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, _, err := tr.RawExchange(ctx, 30, Request{MessageType: nsm.MessageTypeDeviceCapabilityDiscovery, CommandCode: nsm.CmdPing})
	require.NoError(t, err)
	assert.Equal(t, 0, tr.InstanceIDPoolInUse(30))
}

func TestUnrecognizedResponseIsDropped(t *testing.T) {
	delivered := make(chan struct{}, 1)
	tr, stop := newTestTransport(t, func(sourceTag, destEID uint8, pdu []byte) []byte {
		// Reply with an instance id that was never requested.
		return buildPingResponseFrame(destEID, 31)
	})
	tr.sink = stubSink{delivered: delivered}
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, _, err := tr.RawExchange(ctx, 30, Request{MessageType: nsm.MessageTypeDeviceCapabilityDiscovery, CommandCode: nsm.CmdPing})
	require.Error(t, err) // ctx deadline; the real reply never matches instance id 0
}

type stubSink struct {
	delivered chan struct{}
}

func (s stubSink) HandleEvent(sourceEID uint8, header nsm.EventHeader, payload []byte) {
	select {
	case s.delivered <- struct{}{}:
	default:
	}
}
