package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/myhuemungusD/skatehubba/internal/skate"
)

func newTestMatchState(seats ...string) *MatchState {
	players := map[string]*playerState{}
	for _, id := range seats {
		players[id] = &playerState{Participant: skate.Participant{PlayerID: id}}
	}
	return &MatchState{Seats: seats, Players: players}
}

func TestBuildDefenderQueue_SkipsSetterAndStartsAfterIt(t *testing.T) {
	s := newTestMatchState("a", "b", "c", "d")
	s.OffensivePlayer = "b"
	queue := buildDefenderQueue(s)
	assert.Equal(t, []string{"c", "d", "a"}, queue)
}

func TestBuildDefenderQueue_SkipsEliminatedPlayers(t *testing.T) {
	s := newTestMatchState("a", "b", "c", "d")
	s.OffensivePlayer = "a"
	s.Players["c"].Letters = "SKATE"
	queue := buildDefenderQueue(s)
	assert.Equal(t, []string{"b", "d"}, queue)
}

func TestBuildDefenderQueue_SkipsEmptySeats(t *testing.T) {
	s := newTestMatchState("a", "", "b")
	s.OffensivePlayer = "a"
	queue := buildDefenderQueue(s)
	assert.Equal(t, []string{"b"}, queue)
}
