package sensor

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsm-fleet/nsmd/internal/event"
	"github.com/nsm-fleet/nsmd/internal/objectmodel"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
)

func TestEventSensorUpdateIsNoOp(t *testing.T) {
	called := false
	s := NewEvent("xid", nsm.MessageTypePlatformEnvironmental, nsm.EventIDXID, func(payload []byte) { called = true })

	err := s.Update(context.Background(), testDevice())

	require.NoError(t, err)
	assert.False(t, called)
}

func TestEventSensorRegisterDispatchesOnMatchingEvent(t *testing.T) {
	var gotPayload []byte
	s := NewEvent("xid", nsm.MessageTypePlatformEnvironmental, nsm.EventIDXID, func(payload []byte) { gotPayload = payload })

	d := event.New(nil, nil)
	s.Register(d, 9)

	d.HandleEvent(9, nsm.EventHeader{MessageType: nsm.MessageTypePlatformEnvironmental, EventID: nsm.EventIDXID}, []byte{1, 2, 3})

	assert.Equal(t, []byte{1, 2, 3}, gotPayload)
}

func TestEventSensorUnregisterStopsDispatch(t *testing.T) {
	called := false
	s := NewEvent("xid", nsm.MessageTypePlatformEnvironmental, nsm.EventIDXID, func(payload []byte) { called = true })

	d := event.New(nil, nil)
	s.Register(d, 9)
	s.Unregister(d, 9)

	d.HandleEvent(9, nsm.EventHeader{MessageType: nsm.MessageTypePlatformEnvironmental, EventID: nsm.EventIDXID}, nil)

	assert.False(t, called)
}

func xidPayload(seq uint32, reason uint16) []byte {
	buf := make([]byte, 4+1+2+8)
	binary.LittleEndian.PutUint32(buf[0:4], seq)
	buf[4] = 0
	binary.LittleEndian.PutUint16(buf[5:7], reason)
	return buf
}

func TestNewXIDSensorUpdatesCacheOnEvent(t *testing.T) {
	cache := objectmodel.NewCache()
	key := objectmodel.Key{ObjectPath: "/devices/0", Interface: "Health", Property: "XID"}
	s := NewXIDSensor(cache, key)

	d := event.New(nil, nil)
	s.Register(d, 9)
	d.HandleEvent(9, nsm.EventHeader{MessageType: nsm.MessageTypePlatformEnvironmental, EventID: nsm.EventIDXID}, xidPayload(42, 10))

	st, ok := cache.Status(key)
	require.True(t, ok)
	assert.True(t, st.Available)
	assert.False(t, st.Functional)
}

func TestNewThresholdSensorForwardsCategoryBitmask(t *testing.T) {
	obs := &recordingObserver{}
	s := NewThresholdSensor(obs)

	d := event.New(nil, nil)
	s.Register(d, 9)

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(nsm.ThresholdSymbolBER))
	d.HandleEvent(9, nsm.EventHeader{MessageType: nsm.MessageTypeNetworkPort, EventID: nsm.EventIDThreshold}, buf)

	require.Len(t, obs.values, 1)
	assert.Equal(t, float64(nsm.ThresholdSymbolBER), obs.values[0])
}
