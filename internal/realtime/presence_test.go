package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_TouchAndStatus(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, StatusOffline, tr.Status("alice"), "an untouched player is offline")

	tr.Touch("alice")
	assert.Equal(t, StatusOnline, tr.Status("alice"))
}

func TestTracker_Remove(t *testing.T) {
	tr := NewTracker()
	tr.Touch("alice")
	tr.Remove("alice")
	assert.Equal(t, StatusOffline, tr.Status("alice"))
}

func TestTracker_Snapshot(t *testing.T) {
	tr := NewTracker()
	tr.Touch("alice")
	tr.Touch("bob")
	snap := tr.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, StatusOnline, snap["alice"])
	assert.Equal(t, StatusOnline, snap["bob"])
}

func TestTracker_SweepOnlyDropsNothingWhenFresh(t *testing.T) {
	tr := NewTracker()
	tr.Touch("alice")
	dropped := tr.Sweep()
	assert.Empty(t, dropped, "a freshly touched entry must not be swept")
}
