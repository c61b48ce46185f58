// Package realtime implements the live-variant room/broadcast fabric and the
// Nakama runtime.Match handler that drives disconnect/reconnect/pause and
// per-turn timeouts (spec.md §4.9, §4.10, §4.2.4 applied to a single
// in-memory match instance).
package realtime

import (
	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/myhuemungusD/skatehubba/internal/skate"
)

// Opcodes for the socket surface of spec.md §6, client -> server.
const (
	OpJoin       = 1
	OpTrick      = 2
	OpPass       = 3
	OpForfeit    = 4
	OpReconnect  = 5
	OpPresence   = 6
)

// Opcodes, server -> client.
const (
	OpCreated  = 100
	OpJoined   = 101
	OpTurn     = 102
	OpTrickOut = 103
	OpLetter   = 104
	OpPaused   = 105
	OpResumed  = 106
	OpState    = 107
	OpEnded    = 108
	OpPresenceOut = 109
	OpError    = 199
)

// playerState is one seat's live bookkeeping, layered on top of the shared
// skate.Participant the same letters/roles rules operate on.
type playerState struct {
	skate.Participant
	Presence runtime.Presence
}

// MatchState is the authoritative in-memory state for one live match
// instance. A Nakama match is single-threaded by construction (MatchLoop is
// never invoked concurrently with itself), which is what stands in for the
// row lock spec.md §4.3 requires of the async variant — there is exactly
// one writer at a time by construction, not by explicit locking.
type MatchState struct {
	SessionID string
	SpotID    string
	MaxPlayers int

	Players map[string]*playerState
	Seats   []string // ordered player IDs, "" for empty seats

	Phase    skate.Phase
	SubPhase skate.SubPhase

	OffensivePlayer string
	DefensivePlayer string
	SetterID        string

	CurrentTrick  string
	LastTrickDesc string
	WinnerID      string

	// DefenderQueue is the ordered list of players still owed an attempt at
	// the current trick; DefenderIdx is whose turn it is within it.
	DefenderQueue []string
	DefenderIdx   int

	DeadlineAt int64
	PausedAt   int64
	CreatedAt  int64

	cfg skate.Config
}

func eliminatedSet(m *MatchState) map[string]bool {
	out := map[string]bool{}
	for id, p := range m.Players {
		if p.Eliminated() {
			out[id] = true
		}
	}
	return out
}

func (m *MatchState) activePlayerIDs() []string {
	var ids []string
	for _, seat := range m.Seats {
		if seat == "" {
			continue
		}
		if p, ok := m.Players[seat]; ok && !p.Eliminated() {
			ids = append(ids, seat)
		}
	}
	return ids
}
