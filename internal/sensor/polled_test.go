package sensor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
)

type fakeExchanger struct {
	rh      nsm.ResponseHeader
	payload []byte
	err     error
}

func (f *fakeExchanger) Exchange(ctx context.Context, eid uint8, req transport.Request) (nsm.ResponseHeader, []byte, error) {
	return f.rh, f.payload, f.err
}

func testDevice() *device.Device {
	return device.New(uuid.New(), 9, nsm.DeviceTypeGPU, 0)
}

type recordingObserver struct {
	values []float64
}

func (r *recordingObserver) UpdateReading(value float64, timestampMs int64) {
	r.values = append(r.values, value)
}

func TestPolledSensorUpdatesObserverOnSuccess(t *testing.T) {
	payload := make([]byte, 4)
	_, _ = nsm.EncodeSetPowerCapRequest(payload, 5000) // reuse as a little-endian uint32 encoder
	ex := &fakeExchanger{rh: nsm.ResponseHeader{CC: nsm.CCSuccess}, payload: payload}
	obs := &recordingObserver{}
	s := NewPolled("power", &PowerDrawBehavior{Observer: obs}, ex)

	err := s.Update(context.Background(), testDevice())

	require.NoError(t, err)
	require.Len(t, obs.values, 1)
	assert.Equal(t, float64(5000), obs.values[0])
}

func TestPolledSensorReturnsErrorOnFailureAndRateLimitsLogging(t *testing.T) {
	ex := &fakeExchanger{rh: nsm.ResponseHeader{CC: nsm.CCErrNotReady, ReasonCode: 7}}
	obs := &recordingObserver{}
	s := NewPolled("power", &PowerDrawBehavior{Observer: obs}, ex)

	err1 := s.Update(context.Background(), testDevice())
	err2 := s.Update(context.Background(), testDevice())

	require.Error(t, err1)
	require.Error(t, err2)
	assert.False(t, s.limiter.ShouldLog(nsm.CCErrNotReady, 7)) // same pair already logged
	assert.True(t, s.limiter.ShouldLog(nsm.CCErrNotReady, 8))  // a different reason still logs
}

func TestPolledSensorName(t *testing.T) {
	s := NewPolled("temperature", &TemperatureBehavior{}, &fakeExchanger{})
	assert.Equal(t, "temperature", s.Name())
}
