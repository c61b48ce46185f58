package realtime

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/myhuemungusD/skatehubba/internal/skate"
)

// SkateMatch implements runtime.Match for the live multi-player duel variant
// (spec.md §4.9/§4.10). Unlike the async variant's storage-row OCC, a Nakama
// match is single-threaded by construction: MatchLoop is never invoked
// concurrently with itself, so MatchState needs no lock of its own.
type SkateMatch struct{}

// label is the small JSON blob Nakama exposes for match listing.
type label struct {
	Open       bool   `json:"open"`
	Phase      string `json:"phase"`
	MaxPlayers int    `json:"maxPlayers"`
}

func buildLabel(s *MatchState) string {
	open := s.Phase == skate.PhasePending && (s.MaxPlayers == 0 || len(s.Players) < s.MaxPlayers)
	b, _ := json.Marshal(label{Open: open, Phase: string(s.Phase), MaxPlayers: s.MaxPlayers})
	return string(b)
}

// MatchInit boots a new live duel in the pending (lobby) phase.
func (m *SkateMatch) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	cfg := skate.LoadConfig(ctx)

	kind := RoomGame
	if v, ok := params["roomKind"].(string); ok {
		kind = ParseRoomKind(v)
	}
	maxPlayers := CapacityFor(kind, cfg)
	if v, ok := params["maxPlayers"].(float64); ok && int(v) > 0 && int(v) < maxPlayers {
		maxPlayers = int(v)
	}
	spotID, _ := params["spotId"].(string)

	state := &MatchState{
		SessionID:  nk.UuidGenerate(),
		SpotID:     spotID,
		MaxPlayers: maxPlayers,
		Players:    map[string]*playerState{},
		Phase:      skate.PhasePending,
		CreatedAt:  nowMillis(),
		cfg:        cfg,
	}

	// Tick rate of 5Hz is plenty for a turn-based duel; it only needs to be
	// fast enough to notice a turn-deadline or reconnect-window expiry.
	return state, 5, buildLabel(state)
}

// MatchJoinAttempt enforces room capacity (spec.md §4.9) and allows
// reconnection once a match has started.
func (m *SkateMatch) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule,
	dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {

	s := state.(*MatchState)

	if _, ok := s.Players[presence.GetUserId()]; ok {
		return state, true, ""
	}
	if s.Phase != skate.PhasePending && s.Phase != skate.PhasePaused {
		return state, false, "match_in_progress"
	}
	if s.MaxPlayers > 0 && len(s.Players) >= s.MaxPlayers {
		return state, false, "room_full"
	}
	return state, true, ""
}

// MatchJoin seats newly accepted presences and starts the duel once two or
// more players are present (spec.md collapses create+join for the live
// variant — there is no separate "start" signal).
func (m *SkateMatch) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule,
	dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {

	s := state.(*MatchState)

	for _, p := range presences {
		uid := p.GetUserId()

		if existing, ok := s.Players[uid]; ok {
			existing.Presence = p
			existing.Connected = true
			existing.DisconnectedAt = 0
			broadcastResumed(dispatcher, s, uid)
			continue
		}

		s.Players[uid] = &playerState{
			Participant: skate.Participant{
				PlayerID:    uid,
				DisplayName: p.GetUsername(),
				Connected:   true,
			},
			Presence: p,
		}
		s.Seats = append(s.Seats, uid)

		evt, _ := json.Marshal(map[string]interface{}{"playerId": uid, "displayName": p.GetUsername()})
		_ = dispatcher.BroadcastMessage(OpJoined, evt, nil, nil, true)
	}

	if s.Phase == skate.PhasePending && len(s.Players) >= 2 {
		startRound(dispatcher, s)
	}

	_ = dispatcher.MatchLabelUpdate(buildLabel(s))
	return state
}

// MatchLeave marks a presence disconnected rather than removing it
// outright, so MatchLoop's reconnect-window check (spec.md §4.10) can still
// find it.
func (m *SkateMatch) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule,
	dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {

	s := state.(*MatchState)

	for _, p := range presences {
		uid := p.GetUserId()
		pl, ok := s.Players[uid]
		if !ok {
			continue
		}
		pl.Connected = false
		pl.DisconnectedAt = nowMillis()

		if s.Phase == skate.PhaseActive {
			s.Phase = skate.PhasePaused
			s.PausedAt = nowMillis()
		}

		evt, _ := json.Marshal(map[string]interface{}{"playerId": uid})
		_ = dispatcher.BroadcastMessage(OpPresenceOut, evt, nil, nil, true)
	}

	_ = dispatcher.MatchLabelUpdate(buildLabel(s))
	return state
}

// MatchLoop advances per-turn deadlines and the reconnect-window timeout,
// then dispatches any client messages received this tick.
func (m *SkateMatch) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule,
	dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {

	s := state.(*MatchState)

	if s.Phase == skate.PhasePaused {
		checkDisconnectTimeout(logger, dispatcher, s)
	}
	if s.Phase == skate.PhaseActive && s.DeadlineAt != 0 && nowMillis() > s.DeadlineAt {
		handleTurnTimeout(logger, dispatcher, s)
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpTrick:
			handleTrick(logger, dispatcher, s, msg)
		case OpPass:
			handlePass(logger, dispatcher, s, msg)
		case OpForfeit:
			handleForfeit(logger, dispatcher, s, msg)
		case OpReconnect:
			handleReconnect(dispatcher, s, msg)
		}
	}

	return state
}

// MatchTerminate broadcasts a final state snapshot and nothing else; no
// summary of the match is written to storage.
func (m *SkateMatch) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule,
	dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	s := state.(*MatchState)
	evt, _ := json.Marshal(map[string]interface{}{"sessionId": s.SessionID, "winnerId": s.WinnerID})
	_ = dispatcher.BroadcastMessage(OpEnded, evt, nil, nil, true)
	return state
}

// MatchSignal is unused by the client surface today; it is reserved for a
// future operator kill-switch (force-end a stalled match) so it simply
// echoes the state back unchanged.
func (m *SkateMatch) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule,
	dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
