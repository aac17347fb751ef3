package sensor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
)

type fakeLongRunningExchanger struct {
	payload []byte
	err     error
	gotReq  transport.Request
	gotEID  uint8
}

func (f *fakeLongRunningExchanger) ExchangeLongRunning(ctx context.Context, eid uint8, req transport.Request) ([]byte, error) {
	f.gotEID = eid
	f.gotReq = req
	return f.payload, f.err
}

func TestAsyncLongRunningSensorUpdateIsNoOp(t *testing.T) {
	s := NewAsyncLongRunning("noop", &fakeLongRunningExchanger{}, nil, nil)
	err := s.Update(context.Background(), testDevice())
	require.NoError(t, err)
}

func TestSetMigModeSensorHandleRoundTrip(t *testing.T) {
	ex := &fakeLongRunningExchanger{payload: []byte{0x01}}
	var got bool
	s := NewSetMigModeSensor(ex, func(enabled bool) { got = enabled })

	err := s.Handle(context.Background(), 9, true)

	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, uint8(9), ex.gotEID)
	assert.Equal(t, nsm.CmdSetMigMode, ex.gotReq.CommandCode)
	assert.Equal(t, []byte{0x01}, ex.gotReq.Body)
}

func TestSetMigModeSensorRejectsNonBoolValue(t *testing.T) {
	ex := &fakeLongRunningExchanger{}
	s := NewSetMigModeSensor(ex, func(enabled bool) {})

	err := s.Handle(context.Background(), 9, "not-a-bool")

	require.Error(t, err)
}

func TestSetPowerCapSensorUpdateSucceedsAndIsNamedByCap(t *testing.T) {
	ex := &fakeExchanger{rh: nsm.ResponseHeader{CC: nsm.CCSuccess}}
	s := NewSetPowerCapSensor(ex, 150000)

	err := s.Update(context.Background(), testDevice())

	require.NoError(t, err)
	assert.Equal(t, "set_power_cap_150000", s.Name())
}
