package sensor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsm-fleet/nsmd/internal/asyncop"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
)

func TestPolledSensorAsHandlerReportsSuccess(t *testing.T) {
	ex := &fakeExchanger{rh: nsm.ResponseHeader{CC: nsm.CCSuccess}}
	s := NewSetPowerCapSensor(ex, 150000)

	status, err := s.AsHandler()(context.Background(), uint32(150000), testDevice())

	require.NoError(t, err)
	assert.Equal(t, asyncop.StatusSuccess, status)
}

func TestPolledSensorAsHandlerTranslatesCommandFailure(t *testing.T) {
	ex := &fakeExchanger{rh: nsm.ResponseHeader{CC: nsm.CCErrNotReady, ReasonCode: 3}}
	s := NewSetPowerCapSensor(ex, 150000)

	status, err := s.AsHandler()(context.Background(), uint32(150000), testDevice())

	require.NoError(t, err)
	assert.Equal(t, asyncop.StatusWriteFailure, status)
}

func TestAsyncLongRunningSensorAsHandlerReportsSuccess(t *testing.T) {
	ex := &fakeLongRunningExchanger{payload: []byte{0x01}}
	var got bool
	s := NewSetMigModeSensor(ex, func(enabled bool) { got = enabled })

	status, err := s.AsHandler()(context.Background(), true, testDevice())

	require.NoError(t, err)
	assert.Equal(t, asyncop.StatusSuccess, status)
	assert.True(t, got)
}

func TestAsyncLongRunningSensorAsHandlerTranslatesInvalidArgument(t *testing.T) {
	ex := &fakeLongRunningExchanger{}
	s := NewSetMigModeSensor(ex, func(enabled bool) {})

	status, err := s.AsHandler()(context.Background(), "not-a-bool", testDevice())

	require.NoError(t, err)
	assert.Equal(t, asyncop.StatusInvalidArgument, status)
}
