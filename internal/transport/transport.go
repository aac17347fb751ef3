// Package transport is the MCTP socket transport (C2): connection to the
// local MCTP demux, instance-id allocation, request/response correlation,
// retry/timeout, and unsolicited-event forwarding. A single goroutine (the
// "engine loop") owns the socket and the pending-request table; every other
// goroutine talks to it through RawExchange, which reads as a blocking call
// from the caller's side while the engine loop itself never blocks on it
// (SPEC_FULL.md §5).
package transport

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/nsm-fleet/nsmd/internal/logger"
	"github.com/nsm-fleet/nsmd/internal/nsmerr"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/telemetry"
	"github.com/nsm-fleet/nsmd/pkg/bufpool"
	metricspkg "github.com/nsm-fleet/nsmd/pkg/metrics/prometheus"
)

// Request describes one request PDU to send to a device. Body is the
// command-specific request payload; the engine loop prepends the NSM
// header (with the allocated instance id) and the command byte.
type Request struct {
	MessageType nsm.MessageType
	CommandCode nsm.CommandCode
	Body        []byte
}

// EventSink receives frames the engine loop could not match to a pending
// request — i.e. every unsolicited event (spec.md §4.2 "If no record
// matches, the frame is offered to C4 as an event").
type EventSink interface {
	HandleEvent(sourceEID uint8, header nsm.EventHeader, payload []byte)
}

// Config bundles the tunables RawExchange and the engine loop need.
type Config struct {
	SocketPath     string
	LocalEID       uint8
	AttemptTimeout time.Duration
	RetryCount     int
}

// Transport owns the MCTP demux connection and the correlation state for
// in-flight requests.
type Transport struct {
	cfg     Config
	conn    net.Conn
	sink    EventSink
	metrics *metricspkg.TransportMetrics

	mu      sync.Mutex
	spaces  map[uint8]*instanceIDSpace
	pending map[pendingKey]*pendingRequest
	tagSeq  uint8

	sendCh  chan sendJob
	closeCh chan struct{}
	closed  chan struct{}
}

type sendJob struct {
	eid    uint8
	req    Request
	result chan pendingResult
}

type timeoutSignal struct {
	key     pendingKey
	attempt int
}

// New creates a Transport bound to cfg, but does not connect or start the
// engine loop; call Start for that.
func New(cfg Config, sink EventSink, m *metricspkg.TransportMetrics) *Transport {
	return &Transport{
		cfg:     cfg,
		sink:    sink,
		metrics: m,
		spaces:  make(map[uint8]*instanceIDSpace),
		pending: make(map[pendingKey]*pendingRequest),
		sendCh:  make(chan sendJob),
		closeCh: make(chan struct{}),
		closed:  make(chan struct{}),
	}
}

// Start dials the MCTP demux and launches the reader goroutine and the
// engine loop. The caller should call Close on shutdown.
func (t *Transport) Start(ctx context.Context) error {
	conn, err := dialDemux(t.cfg.SocketPath, t.cfg.LocalEID)
	if err != nil {
		return nsmerr.Wrap("Transport.Start", nsmerr.LayerTransport, nsmerr.CodeUnreachable, err)
	}
	t.startWithConn(ctx, conn)
	return nil
}

// StartWithConn launches the engine loop over an already-established
// connection, bypassing the AF_UNIX dial. Used by tests to substitute a
// net.Pipe-backed mock MCTP demux responder for the real socket (spec.md §8
// "scenario tests built against an in-process mock MCTP demux").
func (t *Transport) StartWithConn(ctx context.Context, conn net.Conn) {
	t.startWithConn(ctx, conn)
}

func (t *Transport) startWithConn(ctx context.Context, conn net.Conn) {
	t.conn = conn
	recvCh := make(chan []byte, 64)
	go t.readLoop(recvCh)
	go t.engineLoop(ctx, recvCh)
}

// Close stops the engine loop and closes the socket.
func (t *Transport) Close() error {
	close(t.closeCh)
	<-t.closed
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

// readLoop is the only goroutine that calls conn.Read. SOCK_SEQPACKET
// preserves message boundaries, so each Read returns exactly one frame. The
// scratch buffer comes from the shared PDU pool (A7); it is returned
// immediately after the exact-size frame is copied out, since downstream
// consumers (handleFrame, event dispatch) only ever see the copy.
func (t *Transport) readLoop(recvCh chan<- []byte) {
	scratch := bufpool.Get(bufpool.DefaultFrameSize)
	defer bufpool.Put(scratch)

	for {
		n, err := t.conn.Read(scratch)
		if err != nil {
			close(recvCh)
			return
		}
		frame := make([]byte, n)
		copy(frame, scratch[:n])
		select {
		case recvCh <- frame:
		case <-t.closeCh:
			close(recvCh)
			return
		}
	}
}

// engineLoop is the single goroutine that owns the socket write path and
// the pending-request table, matching spec.md §5 "the socket is owned by
// C2; only C2 reads/writes it."
func (t *Transport) engineLoop(ctx context.Context, recvCh <-chan []byte) {
	defer close(t.closed)
	timeoutCh := make(chan timeoutSignal, 16)

	for {
		select {
		case <-t.closeCh:
			t.failAllPending(nsmerr.New("engineLoop", nsmerr.LayerTransport, nsmerr.CodeUnreachable))
			return

		case job, ok := <-t.sendCh:
			if !ok {
				continue
			}
			t.handleSend(job, timeoutCh)

		case frame, ok := <-recvCh:
			if !ok {
				// Socket closed from the far end; treat like shutdown.
				t.failAllPending(nsmerr.New("engineLoop.recvClosed", nsmerr.LayerTransport, nsmerr.CodeUnreachable))
				return
			}
			t.handleFrame(frame)

		case sig := <-timeoutCh:
			t.handleTimeout(sig, timeoutCh)
		}
	}
}

func (t *Transport) handleSend(job sendJob, timeoutCh chan timeoutSignal) {
	space := t.spaceFor(job.eid)
	id, ok := space.allocate()
	if !ok {
		job.result <- pendingResult{err: nsmerr.New("Exchange", nsmerr.LayerTransport, nsmerr.CodeUnreachable)}
		return
	}

	key := pendingKey{eid: job.eid, instanceID: id}
	pr := &pendingRequest{
		key:         key,
		commandCode: job.req.CommandCode,
		messageType: job.req.MessageType,
		body:        job.req.Body,
		replyCh:     job.result,
		retriesLeft: t.cfg.RetryCount,
	}

	t.mu.Lock()
	t.pending[key] = pr
	t.mu.Unlock()

	t.transmit(key, id, job.req, timeoutCh, 0)
}

func (t *Transport) transmit(key pendingKey, instanceID uint8, req Request, timeoutCh chan timeoutSignal, attempt int) {
	hdr := nsm.Header{
		PCIVendorID:       nsm.PCIVendorIDNvidia,
		InstanceID:        instanceID,
		Direction:         nsm.DirectionRequest,
		NvidiaMessageType: req.MessageType,
	}
	pdu := make([]byte, nsm.HeaderSize+1+len(req.Body))
	_ = nsm.EncodeHeader(pdu[:nsm.HeaderSize], hdr)
	pdu[nsm.HeaderSize] = uint8(req.CommandCode)
	copy(pdu[nsm.HeaderSize+1:], req.Body)

	t.tagSeq++
	frame := buildOutgoingFrame(t.tagSeq, key.eid, pdu)

	if _, err := t.conn.Write(frame); err != nil {
		t.completeAndRelease(key, pendingResult{err: nsmerr.Wrap("Transport.transmit", nsmerr.LayerTransport, nsmerr.CodeWriteFail, err)})
		return
	}

	deadline := t.cfg.AttemptTimeout
	go func() {
		timer := time.NewTimer(deadline)
		defer timer.Stop()
		select {
		case <-timer.C:
			select {
			case timeoutCh <- timeoutSignal{key: key, attempt: attempt}:
			case <-t.closeCh:
			}
		case <-t.closeCh:
		}
	}()
}

func (t *Transport) handleTimeout(sig timeoutSignal, timeoutCh chan timeoutSignal) {
	t.mu.Lock()
	pr, ok := t.pending[sig.key]
	t.mu.Unlock()
	if !ok {
		return // already completed by a response or a prior timeout
	}

	if pr.retriesLeft <= 0 {
		if t.metrics != nil {
			t.metrics.IncTimeout(eidStr(sig.key.eid), commandStr(pr.commandCode))
		}
		t.completeAndRelease(sig.key, pendingResult{err: nsmerr.New("Transport.handleTimeout", nsmerr.LayerTransport, nsmerr.CodeTimeout)})
		return
	}

	pr.retriesLeft--
	if t.metrics != nil {
		t.metrics.IncRetry(eidStr(sig.key.eid), commandStr(pr.commandCode))
	}
	t.transmit(sig.key, sig.key.instanceID, Request{MessageType: pr.messageType, CommandCode: pr.commandCode, Body: pr.body}, timeoutCh, sig.attempt+1)
}

func (t *Transport) handleFrame(frame []byte) {
	sourceEID, pdu, ok := splitIncomingFrame(frame)
	if !ok {
		return
	}
	hdr, n, err := nsm.DecodeHeader(pdu)
	if err != nil {
		return
	}
	rest := pdu[n:]

	if hdr.Direction != nsm.DirectionEvent {
		key := pendingKey{eid: sourceEID, instanceID: hdr.InstanceID}
		t.mu.Lock()
		_, exists := t.pending[key]
		t.mu.Unlock()
		if exists {
			t.completeAndRelease(key, pendingResult{payload: rest})
			return
		}
		// Unrecognized (source, instance id): never delivered to a waiting
		// caller. Fall through and offer it to the event dispatcher instead,
		// per spec.md §8 transport invariants.
	}

	evHdr, m, err := nsm.DecodeEventHeader(rest)
	if err != nil {
		return
	}
	if t.sink != nil {
		t.sink.HandleEvent(sourceEID, evHdr, rest[m:])
	}
}

func (t *Transport) completeAndRelease(key pendingKey, result pendingResult) {
	t.mu.Lock()
	pr, ok := t.pending[key]
	if ok {
		delete(t.pending, key)
	}
	t.mu.Unlock()
	if !ok {
		return
	}

	t.spaceFor(key.eid).release(key.instanceID)
	result.instanceID = key.instanceID
	pr.replyCh <- result
}

func (t *Transport) failAllPending(err error) {
	t.mu.Lock()
	all := make([]*pendingRequest, 0, len(t.pending))
	for k, pr := range t.pending {
		all = append(all, pr)
		delete(t.pending, k)
	}
	t.mu.Unlock()

	for _, pr := range all {
		t.spaceFor(pr.key.eid).release(pr.key.instanceID)
		pr.replyCh <- pendingResult{err: err}
	}
}

func (t *Transport) spaceFor(eid uint8) *instanceIDSpace {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.spaces[eid]
	if !ok {
		s = newInstanceIDSpace()
		t.spaces[eid] = s
	}
	return s
}

// RawExchange sends req to eid and blocks until a response arrives, the
// context is cancelled, or retries are exhausted. This is the C2-level
// primitive; long-running ACCEPTED/event-completion semantics live one
// layer up, in package exchange (C3).
func (t *Transport) RawExchange(ctx context.Context, eid uint8, req Request) (nsm.ResponseHeader, []byte, error) {
	rh, _, payload, err := t.rawExchange(ctx, eid, req)
	return rh, payload, err
}

// RawExchangeInstanceID behaves like RawExchange but additionally returns the
// instance id the request was sent under, which package exchange (C3) needs
// to correlate a later long-running completion event back to this exchange.
func (t *Transport) RawExchangeInstanceID(ctx context.Context, eid uint8, req Request) (nsm.ResponseHeader, uint8, []byte, error) {
	return t.rawExchange(ctx, eid, req)
}

func (t *Transport) rawExchange(ctx context.Context, eid uint8, req Request) (nsm.ResponseHeader, uint8, []byte, error) {
	ctx, span := telemetry.StartExchangeSpan(ctx, eid, uint8(req.CommandCode))
	defer span.End()

	// The pending record retransmits from Body and can outlive a caller whose
	// ctx is cancelled, so the engine loop gets its own copy of it.
	req.Body = append([]byte(nil), req.Body...)

	resultCh := make(chan pendingResult, 1)
	select {
	case t.sendCh <- sendJob{eid: eid, req: req, result: resultCh}:
	case <-ctx.Done():
		return nsm.ResponseHeader{}, 0, nil, ctx.Err()
	case <-t.closeCh:
		return nsm.ResponseHeader{}, 0, nil, nsmerr.New("RawExchange", nsmerr.LayerTransport, nsmerr.CodeUnreachable)
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			telemetry.RecordError(ctx, res.err)
			return nsm.ResponseHeader{}, res.instanceID, nil, res.err
		}
		rh, n, err := nsm.DecodeResponseHeader(res.payload)
		if err != nil {
			return nsm.ResponseHeader{}, res.instanceID, nil, err
		}
		logger.DebugCtx(ctx, "transport exchange complete",
			logger.EID(eid), logger.CommandCode(uint8(req.CommandCode)), logger.CompletionCode(uint8(rh.CC)))
		return rh, res.instanceID, res.payload[n:], nil
	case <-ctx.Done():
		return nsm.ResponseHeader{}, 0, nil, ctx.Err()
	}
}

// InstanceIDPoolInUse reports current pool utilization for eid, for the A4 gauge.
func (t *Transport) InstanceIDPoolInUse(eid uint8) int {
	return t.spaceFor(eid).inUseCount()
}

func eidStr(eid uint8) string {
	return strconv.Itoa(int(eid))
}

func commandStr(c nsm.CommandCode) string {
	return strconv.Itoa(int(c))
}
