package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
)

type fakeTransport struct {
	respond func(eid uint8, req transport.Request) (nsm.ResponseHeader, uint8, []byte, error)
}

func (f *fakeTransport) RawExchangeInstanceID(ctx context.Context, eid uint8, req transport.Request) (nsm.ResponseHeader, uint8, []byte, error) {
	return f.respond(eid, req)
}

func TestExchangePlainRoundTrip(t *testing.T) {
	ft := &fakeTransport{respond: func(eid uint8, req transport.Request) (nsm.ResponseHeader, uint8, []byte, error) {
		return nsm.ResponseHeader{Command: req.CommandCode, CC: nsm.CCSuccess}, 3, []byte{0xAA}, nil
	}}
	ex := New(Config{LongRunningTimeout: time.Second}, ft)

	rh, payload, err := ex.Exchange(context.Background(), 7, transport.Request{CommandCode: nsm.CmdPing})
	require.NoError(t, err)
	assert.Equal(t, nsm.CCSuccess, rh.CC)
	assert.Equal(t, []byte{0xAA}, payload)
}

func TestExchangeLongRunningCompletesViaEvent(t *testing.T) {
	ft := &fakeTransport{respond: func(eid uint8, req transport.Request) (nsm.ResponseHeader, uint8, []byte, error) {
		return nsm.ResponseHeader{Command: req.CommandCode, CC: nsm.CCAccepted}, 12, nil, nil
	}}
	ex := New(Config{LongRunningTimeout: time.Second}, ft)

	done := make(chan struct{})
	var payload []byte
	var err error
	go func() {
		payload, err = ex.ExchangeLongRunning(context.Background(), 7, transport.Request{CommandCode: nsm.CmdSetMigMode})
		close(done)
	}()

	// Give ExchangeLongRunning time to register its waiter before delivering
	// the completion event.
	time.Sleep(20 * time.Millisecond)
	matched := ex.HandleLongRunningCompletion(7, nsm.LongRunningCompletionEvent{InstanceID: 12, CC: nsm.CCSuccess}, []byte{0x01})
	assert.True(t, matched)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ExchangeLongRunning never completed")
	}
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, payload)
}

func TestExchangeLongRunningTimesOut(t *testing.T) {
	ft := &fakeTransport{respond: func(eid uint8, req transport.Request) (nsm.ResponseHeader, uint8, []byte, error) {
		return nsm.ResponseHeader{Command: req.CommandCode, CC: nsm.CCAccepted}, 5, nil, nil
	}}
	ex := New(Config{LongRunningTimeout: 20 * time.Millisecond}, ft)

	_, err := ex.ExchangeLongRunning(context.Background(), 7, transport.Request{CommandCode: nsm.CmdSetMigMode})
	require.Error(t, err)
}

func TestHandleLongRunningCompletionMismatchedInstanceIDDiscarded(t *testing.T) {
	ft := &fakeTransport{respond: func(eid uint8, req transport.Request) (nsm.ResponseHeader, uint8, []byte, error) {
		return nsm.ResponseHeader{Command: req.CommandCode, CC: nsm.CCAccepted}, 9, nil, nil
	}}
	ex := New(Config{LongRunningTimeout: 200 * time.Millisecond}, ft)

	done := make(chan struct{})
	var err error
	go func() {
		_, err = ex.ExchangeLongRunning(context.Background(), 7, transport.Request{CommandCode: nsm.CmdSetMigMode})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	matched := ex.HandleLongRunningCompletion(7, nsm.LongRunningCompletionEvent{InstanceID: 31, CC: nsm.CCSuccess}, nil)
	assert.False(t, matched)

	<-done
	require.Error(t, err) // times out since the mismatched event was discarded
}

func TestSemaphoreSerializesLongRunningCallsPerDevice(t *testing.T) {
	ft := &fakeTransport{respond: func(eid uint8, req transport.Request) (nsm.ResponseHeader, uint8, []byte, error) {
		return nsm.ResponseHeader{Command: req.CommandCode, CC: nsm.CCAccepted}, 1, nil, nil
	}}
	ex := New(Config{LongRunningTimeout: time.Second}, ft)

	firstDone := make(chan struct{})
	go func() {
		_, _ = ex.ExchangeLongRunning(context.Background(), 7, transport.Request{CommandCode: nsm.CmdSetMigMode})
		close(firstDone)
	}()
	time.Sleep(20 * time.Millisecond)

	secondDone := make(chan struct{})
	go func() {
		_, _ = ex.ExchangeLongRunning(context.Background(), 7, transport.Request{CommandCode: nsm.CmdSetMigMode})
		close(secondDone)
	}()
	time.Sleep(20 * time.Millisecond)

	select {
	case <-secondDone:
		t.Fatal("second long-running call should still be blocked on the semaphore")
	default:
	}

	// Release the first call; the second can now acquire the semaphore and
	// register its own waiter under the same (reused) instance id.
	ex.HandleLongRunningCompletion(7, nsm.LongRunningCompletionEvent{InstanceID: 1, CC: nsm.CCSuccess}, nil)
	<-firstDone
	time.Sleep(20 * time.Millisecond)

	ex.HandleLongRunningCompletion(7, nsm.LongRunningCompletionEvent{InstanceID: 1, CC: nsm.CCSuccess}, nil)
	select {
	case <-secondDone:
	case <-time.After(time.Second):
		t.Fatal("second long-running call never completed after semaphore release")
	}
}
