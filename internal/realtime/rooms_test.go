package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/myhuemungusD/skatehubba/internal/skate"
)

func TestCapacityFor(t *testing.T) {
	cfg := skate.DefaultConfig()
	assert.Equal(t, cfg.RoomCapacityBattle, CapacityFor(RoomBattle, cfg))
	assert.Equal(t, cfg.RoomCapacityGame, CapacityFor(RoomGame, cfg))
	assert.Equal(t, cfg.RoomCapacitySpot, CapacityFor(RoomSpot, cfg))
	assert.Equal(t, 0, CapacityFor(RoomGlobal, cfg), "global rooms have no seat ceiling")
}

func TestParseRoomKind(t *testing.T) {
	assert.Equal(t, RoomBattle, ParseRoomKind("battle"))
	assert.Equal(t, RoomSpot, ParseRoomKind("spot"))
	assert.Equal(t, RoomGlobal, ParseRoomKind("global"))
	assert.Equal(t, RoomGame, ParseRoomKind("game"))
	assert.Equal(t, RoomGame, ParseRoomKind("nonsense"), "an unrecognized kind falls back to game")
	assert.Equal(t, RoomGame, ParseRoomKind(""))
}
