package asyncop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsm-fleet/nsmd/internal/nsmerr"
)

func TestAllocateGrowsUntilCapacity(t *testing.T) {
	p := NewPool("/asyncops", 2, nil)

	idx0, err := p.getNewStatusInterface()
	require.NoError(t, err)
	assert.Equal(t, 0, idx0)

	idx1, err := p.getNewStatusValueInterface()
	require.NoError(t, err)
	assert.Equal(t, 1, idx1)

	assert.Equal(t, "/asyncops/1", p.ObjectPath(idx1))
}

func TestAllocateFailsWhenAllSlotsInProgress(t *testing.T) {
	p := NewPool("/asyncops", 1, nil)

	_, err := p.getNewStatusInterface()
	require.NoError(t, err)

	_, err = p.getNewStatusInterface()
	require.Error(t, err)
	assert.Equal(t, nsmerr.CodeUnavailable, nsmerr.CodeOf(err))
}

func TestAllocateReusesCompletedSlotOnceFull(t *testing.T) {
	p := NewPool("/asyncops", 1, nil)

	idx, err := p.getNewStatusInterface()
	require.NoError(t, err)
	p.Complete(idx, StatusSuccess, 42)

	idx2, err := p.getNewStatusInterface()
	require.NoError(t, err)
	assert.Equal(t, idx, idx2)

	slot, ok := p.Slot(idx2)
	require.True(t, ok)
	assert.Equal(t, StatusInProgress, slot.Status)
}

func TestCompleteAndSlot(t *testing.T) {
	p := NewPool("/asyncops", 4, nil)

	idx, err := p.getNewStatusValueInterface()
	require.NoError(t, err)

	p.Complete(idx, StatusWriteFailure, nil)

	slot, ok := p.Slot(idx)
	require.True(t, ok)
	assert.Equal(t, StatusWriteFailure, slot.Status)
}

func TestSlotReportsNotFoundForUnallocatedIndex(t *testing.T) {
	p := NewPool("/asyncops", 4, nil)
	_, ok := p.Slot(3)
	assert.False(t, ok)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	p := NewPool("/asyncops", 2, nil)
	idx, err := p.getNewStatusInterface()
	require.NoError(t, err)

	snap := p.Snapshot()
	require.Len(t, snap, 1)

	p.Complete(idx, StatusSuccess, nil)
	assert.Equal(t, StatusInProgress, snap[0].Status)
}
