package sensor

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
)

func float32Bytes(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func TestAggregatorRoutesSamplesToSlotsAndForwardsTimestamp(t *testing.T) {
	payload := make([]byte, 64)
	n, err := nsm.EncodeAggregateResponse(payload, []nsm.AggregateSample{
		{Tag: nsm.AggregateTagTimestamp, Data: uint64Bytes(5000)},
		{Tag: 0, Data: float32Bytes(12.5)},
		{Tag: 1, Data: float32Bytes(99.0)},
	})
	require.NoError(t, err)

	ex := &fakeExchanger{rh: nsm.ResponseHeader{CC: nsm.CCSuccess}, payload: payload[:n]}
	obs0 := &recordingObserver{}
	obs1 := &recordingObserver{}
	agg := NewAggregator("agg", ex, func() transport.Request { return transport.Request{} })
	agg.SetSlot(0, obs0, nil)
	agg.SetSlot(1, obs1, nil)

	err = agg.Update(context.Background(), testDevice())

	require.NoError(t, err)
	require.Len(t, obs0.values, 1)
	require.Len(t, obs1.values, 1)
	assert.Equal(t, 12.5, obs0.values[0])
	assert.Equal(t, 99.0, obs1.values[0])
}

func TestAggregatorLeavesMissingSampleUntouched(t *testing.T) {
	payload := make([]byte, 64)
	n, err := nsm.EncodeAggregateResponse(payload, []nsm.AggregateSample{
		{Tag: 0, Data: float32Bytes(1)},
	})
	require.NoError(t, err)

	ex := &fakeExchanger{rh: nsm.ResponseHeader{CC: nsm.CCSuccess}, payload: payload[:n]}
	obs1 := &recordingObserver{}
	agg := NewAggregator("agg", ex, func() transport.Request { return transport.Request{} })
	agg.SetSlot(1, obs1, nil)

	err = agg.Update(context.Background(), testDevice())

	require.NoError(t, err)
	assert.Empty(t, obs1.values)
}

type recordingStatus struct {
	calls []bool
}

func (r *recordingStatus) UpdateStatus(available, functional bool) {
	r.calls = append(r.calls, available && functional)
}

func TestAggregatorMarksMalformedSampleNotWorking(t *testing.T) {
	payload := make([]byte, 64)
	n, err := nsm.EncodeAggregateResponse(payload, []nsm.AggregateSample{
		{Tag: 0, Data: []byte{0x01}}, // too short to be a float32 sample
	})
	require.NoError(t, err)

	ex := &fakeExchanger{rh: nsm.ResponseHeader{CC: nsm.CCSuccess}, payload: payload[:n]}
	obs0 := &recordingObserver{}
	status0 := &recordingStatus{}
	agg := NewAggregator("agg", ex, func() transport.Request { return transport.Request{} })
	agg.SetSlot(0, obs0, status0)

	err = agg.Update(context.Background(), testDevice())

	require.NoError(t, err)
	assert.Empty(t, obs0.values)
	require.Len(t, status0.calls, 1)
	assert.False(t, status0.calls[0])
}
