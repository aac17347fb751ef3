package objectmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateReadingAndFetch(t *testing.T) {
	c := NewCache()
	key := Key{ObjectPath: "/devices/0", Interface: "Temperature", Property: "Value"}

	c.UpdateReading(key, 42.5, 1000)

	r, ok := c.Reading(key)
	require.True(t, ok)
	assert.Equal(t, 42.5, r.Value)
	assert.Equal(t, int64(1000), r.TimestampMs)
}

func TestUpdateReadingDefaultsTimestampWhenZero(t *testing.T) {
	c := NewCache()
	key := Key{ObjectPath: "/devices/0", Interface: "Power", Property: "Value"}

	c.UpdateReading(key, 10, 0)

	r, ok := c.Reading(key)
	require.True(t, ok)
	assert.NotZero(t, r.TimestampMs)
}

func TestUpdateStatusAndFetch(t *testing.T) {
	c := NewCache()
	key := Key{ObjectPath: "/devices/0", Interface: "Temperature", Property: "Value"}

	c.UpdateStatus(key, true, false)

	s, ok := c.Status(key)
	require.True(t, ok)
	assert.True(t, s.Available)
	assert.False(t, s.Functional)
}

func TestSnapshotsAreIndependentCopies(t *testing.T) {
	c := NewCache()
	key := Key{ObjectPath: "/devices/0", Interface: "Temperature", Property: "Value"}
	c.UpdateReading(key, 1, 1)

	snap := c.ReadingSnapshot()
	c.UpdateReading(key, 2, 2)

	assert.Equal(t, float64(1), snap[key].Value)
	r, _ := c.Reading(key)
	assert.Equal(t, float64(2), r.Value)
}

func TestMissingKeyReportsNotFound(t *testing.T) {
	c := NewCache()
	_, ok := c.Reading(Key{ObjectPath: "missing"})
	assert.False(t, ok)
}
