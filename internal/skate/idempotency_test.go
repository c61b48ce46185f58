package skate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventID_DeterministicAndDistinct(t *testing.T) {
	a := EventID("submit_turn", "game1", "alice", "key1")
	b := EventID("submit_turn", "game1", "alice", "key1")
	assert.Equal(t, a, b, "same inputs must always produce the same event ID")

	c := EventID("submit_turn", "game1", "alice", "key2")
	assert.NotEqual(t, a, c)
}

func TestAlreadyProcessed(t *testing.T) {
	s := &Session{ProcessedEventIDs: []string{"e1", "e2"}}
	assert.True(t, alreadyProcessed(s, "e1"))
	assert.False(t, alreadyProcessed(s, "e3"))
}

func TestRecordEvent_EvictsOldestWhenOverCap(t *testing.T) {
	s := &Session{}
	for i := 0; i < 5; i++ {
		recordEvent(s, string(rune('a'+i)), 3)
	}
	assert.Equal(t, []string{"c", "d", "e"}, s.ProcessedEventIDs)
}
