package realtime

import "github.com/myhuemungusD/skatehubba/internal/skate"

// RoomKind is the room taxonomy of spec.md §4.9: a live match is always one
// of these four shapes, each with its own capacity ceiling.
type RoomKind string

const (
	RoomBattle RoomKind = "battle" // head-to-head duel
	RoomGame   RoomKind = "game"   // multi-player SKATE elimination
	RoomSpot   RoomKind = "spot"   // a location's public viewing room
	RoomGlobal RoomKind = "global" // unbounded broadcast, no match instance
)

// CapacityFor resolves a room kind to its configured seat ceiling. RoomGlobal
// has no seat ceiling at all; 0 signals "unbounded" to callers.
func CapacityFor(kind RoomKind, cfg skate.Config) int {
	switch kind {
	case RoomBattle:
		return cfg.RoomCapacityBattle
	case RoomGame:
		return cfg.RoomCapacityGame
	case RoomSpot:
		return cfg.RoomCapacitySpot
	default:
		return 0
	}
}

// ParseRoomKind maps the match-creation parameter string to a RoomKind,
// defaulting to RoomGame for an empty or unrecognized value.
func ParseRoomKind(s string) RoomKind {
	switch RoomKind(s) {
	case RoomBattle, RoomGame, RoomSpot, RoomGlobal:
		return RoomKind(s)
	default:
		return RoomGame
	}
}
