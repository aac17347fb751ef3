package asyncop

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/nsmerr"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
)

func testDevice() *device.Device {
	return device.New(uuid.New(), 9, nsm.DeviceTypeGPU, 0)
}

type refreshSensor struct {
	calls int
}

func (r *refreshSensor) Name() string { return "refresh" }
func (r *refreshSensor) Update(ctx context.Context, d *device.Device) error {
	r.calls++
	return nil
}

func TestDispatchUnregisteredPairIsUnsupported(t *testing.T) {
	d := NewDispatcher(NewPool("/asyncops", 4, nil))
	_, _, err := d.Dispatch(context.Background(), testDevice(), "com.example.Power", "Cap", 100)
	require.Error(t, err)
	assert.Equal(t, nsmerr.CodeUnsupportedRequest, nsmerr.CodeOf(err))
}

func TestDispatchRunsHandlerAndPublishesSuccess(t *testing.T) {
	pool := NewPool("/asyncops", 4, nil)
	d := NewDispatcher(pool)
	refresh := &refreshSensor{}

	d.Register("com.example.Power", "Cap", func(ctx context.Context, value any, dev *device.Device) (Status, error) {
		return StatusSuccess, nil
	}, refresh)

	path, idx, err := d.Dispatch(context.Background(), testDevice(), "com.example.Power", "Cap", 150000)
	require.NoError(t, err)
	assert.Equal(t, "/asyncops/0", path)

	require.Eventually(t, func() bool {
		slot, ok := pool.Slot(idx)
		return ok && slot.Status == StatusSuccess
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, refresh.calls)
}

func TestDispatchPublishesHandlerReturnedStatusWithoutRefresh(t *testing.T) {
	pool := NewPool("/asyncops", 4, nil)
	d := NewDispatcher(pool)
	refresh := &refreshSensor{}

	d.Register("com.example.Mig", "Enabled", func(ctx context.Context, value any, dev *device.Device) (Status, error) {
		return StatusInvalidArgument, nil
	}, refresh)

	_, idx, err := d.Dispatch(context.Background(), testDevice(), "com.example.Mig", "Enabled", "bogus")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		slot, ok := pool.Slot(idx)
		return ok && slot.Status == StatusInvalidArgument
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, refresh.calls)
}

func TestDispatchHandlerErrorYieldsInternalFailure(t *testing.T) {
	pool := NewPool("/asyncops", 4, nil)
	d := NewDispatcher(pool)

	d.Register("com.example.Mig", "Enabled", func(ctx context.Context, value any, dev *device.Device) (Status, error) {
		return "", assertErr
	}, nil)

	_, idx, err := d.Dispatch(context.Background(), testDevice(), "com.example.Mig", "Enabled", true)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		slot, ok := pool.Slot(idx)
		return ok && slot.Status == StatusInternalFailure
	}, time.Second, 5*time.Millisecond)
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }
