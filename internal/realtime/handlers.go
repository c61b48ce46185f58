package realtime

import (
	"encoding/json"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/myhuemungusD/skatehubba/internal/skate"
)

func nowMillis() int64 { return time.Now().UnixMilli() }

// startRound opens the first set_trick sub-phase of a freshly-seated match:
// the first seated player sets, everyone else queues up to attempt it in
// seat order (§4.2.4's live rotation).
func startRound(dispatcher runtime.MatchDispatcher, s *MatchState) {
	s.Phase = skate.PhaseActive
	if s.OffensivePlayer == "" {
		s.OffensivePlayer = s.Seats[0]
	}
	s.SetterID = s.OffensivePlayer
	beginSetPhase(dispatcher, s)
}

func beginSetPhase(dispatcher runtime.MatchDispatcher, s *MatchState) {
	s.SubPhase = skate.SubSetTrick
	s.CurrentTurnPlayer = s.OffensivePlayer
	s.DefenderQueue = buildDefenderQueue(s)
	s.DefenderIdx = 0
	s.DeadlineAt = nowMillis() + s.cfg.TurnDeadlineLive.Milliseconds()

	evt, _ := json.Marshal(map[string]interface{}{
		"subPhase": string(s.SubPhase), "playerId": s.OffensivePlayer, "deadlineAt": s.DeadlineAt,
	})
	_ = dispatcher.BroadcastMessage(OpTurn, evt, nil, nil, true)
}

// buildDefenderQueue lists every other non-eliminated seat, starting right
// after the setter's seat, so attempts rotate in a stable order.
func buildDefenderQueue(s *MatchState) []string {
	n := len(s.Seats)
	start := 0
	for i, id := range s.Seats {
		if id == s.OffensivePlayer {
			start = i
			break
		}
	}
	var queue []string
	for step := 1; step <= n; step++ {
		id := s.Seats[(start+step)%n]
		if id == "" || id == s.OffensivePlayer {
			continue
		}
		if p, ok := s.Players[id]; ok && !p.Eliminated() {
			queue = append(queue, id)
		}
	}
	return queue
}

func advanceToNextDefender(dispatcher runtime.MatchDispatcher, s *MatchState) bool {
	if s.DefenderIdx >= len(s.DefenderQueue) {
		return false
	}
	s.SubPhase = skate.SubRespondTrick
	s.CurrentTurnPlayer = s.DefenderQueue[s.DefenderIdx]
	s.DeadlineAt = nowMillis() + s.cfg.TurnDeadlineLive.Milliseconds()

	evt, _ := json.Marshal(map[string]interface{}{
		"subPhase": string(s.SubPhase), "playerId": s.CurrentTurnPlayer,
		"trick": s.CurrentTrick, "deadlineAt": s.DeadlineAt,
	})
	_ = dispatcher.BroadcastMessage(OpTurn, evt, nil, nil, true)
	return true
}

func handleTrick(logger runtime.Logger, dispatcher runtime.MatchDispatcher, s *MatchState, msg runtime.MatchData) {
	if s.Phase != skate.PhaseActive {
		return
	}
	uid := msg.GetUserId()

	switch s.SubPhase {
	case skate.SubSetTrick:
		if uid != s.OffensivePlayer {
			return
		}
		var payload struct {
			TrickDescription string `json:"trickDescription"`
		}
		if err := json.Unmarshal(msg.GetData(), &payload); err != nil || payload.TrickDescription == "" {
			return
		}
		s.CurrentTrick = payload.TrickDescription
		s.LastTrickDesc = payload.TrickDescription

		evt, _ := json.Marshal(map[string]interface{}{"playerId": uid, "trick": s.CurrentTrick})
		_ = dispatcher.BroadcastMessage(OpTrickOut, evt, nil, nil, true)

		if !advanceToNextDefender(dispatcher, s) {
			completeRound(dispatcher, s)
		}

	case skate.SubRespondTrick:
		if uid != s.CurrentTurnPlayer {
			return
		}
		resolveAttempt(dispatcher, s, skate.JudgmentLanded)
	}
}

// handlePass is a defender self-reporting a miss on the current trick.
func handlePass(logger runtime.Logger, dispatcher runtime.MatchDispatcher, s *MatchState, msg runtime.MatchData) {
	if s.Phase != skate.PhaseActive || s.SubPhase != skate.SubRespondTrick {
		return
	}
	if msg.GetUserId() != s.CurrentTurnPlayer {
		return
	}
	resolveAttempt(dispatcher, s, skate.JudgmentMissed)
}

// resolveAttempt awards a letter on a miss (landing swaps no roles mid-round
// in the live variant — the round only rotates setters once everyone queued
// has had their attempt, via NextSetterAfterRound).
func resolveAttempt(dispatcher runtime.MatchDispatcher, s *MatchState, result skate.Judgment) {
	outcome := skate.ApplyJudgment(s.OffensivePlayer, s.CurrentTurnPlayer, result)
	if outcome.LetterTo != "" {
		awardLetter(dispatcher, s, outcome.LetterTo)
	}

	s.DefenderIdx++
	if advanceToNextDefender(dispatcher, s) {
		return
	}
	completeRound(dispatcher, s)
}

func awardLetter(dispatcher runtime.MatchDispatcher, s *MatchState, playerID string) {
	p, ok := s.Players[playerID]
	if !ok {
		return
	}
	p.Letters = skate.NextLetters(p.Letters)

	evt, _ := json.Marshal(map[string]interface{}{
		"playerId": playerID, "letters": p.Letters, "eliminated": p.Eliminated(),
	})
	_ = dispatcher.BroadcastMessage(OpLetter, evt, nil, nil, true)
}

// completeRound ends a full rotation through the defender queue: check for
// a winner, otherwise hand the setter role to the next non-eliminated
// player (§4.2.4/§4.2.5).
func completeRound(dispatcher runtime.MatchDispatcher, s *MatchState) {
	res := skate.CheckGameOverLive(s.activePlayerIDs())
	if res.Over {
		endMatch(dispatcher, s, res.WinnerID)
		return
	}

	next := skate.NextSetterAfterRound(s.Seats, eliminatedSet(s), s.SetterID)
	s.OffensivePlayer = next
	s.SetterID = next
	beginSetPhase(dispatcher, s)
}

// handleTurnTimeout covers both a setter who never set a trick and a
// defender who never responded, each treated as its own kind of bail
// (§4.2.3, §4.7).
func handleTurnTimeout(logger runtime.Logger, dispatcher runtime.MatchDispatcher, s *MatchState) {
	switch s.SubPhase {
	case skate.SubSetTrick:
		outcome := skate.ApplySetterBail(s.OffensivePlayer, s.OffensivePlayer)
		if outcome.LetterTo != "" {
			awardLetter(dispatcher, s, outcome.LetterTo)
		}
		completeRound(dispatcher, s)
	case skate.SubRespondTrick:
		resolveAttempt(dispatcher, s, skate.JudgmentMissed)
	}
}

func handleForfeit(logger runtime.Logger, dispatcher runtime.MatchDispatcher, s *MatchState, msg runtime.MatchData) {
	uid := msg.GetUserId()
	p, ok := s.Players[uid]
	if !ok || p.Eliminated() {
		return
	}
	p.Letters = "SKATE"

	evt, _ := json.Marshal(map[string]interface{}{"playerId": uid, "letters": p.Letters, "eliminated": true, "reason": "voluntary"})
	_ = dispatcher.BroadcastMessage(OpLetter, evt, nil, nil, true)

	if s.Phase != skate.PhaseActive {
		return
	}

	res := skate.CheckGameOverLive(s.activePlayerIDs())
	if res.Over {
		endMatch(dispatcher, s, res.WinnerID)
		return
	}

	switch {
	case s.OffensivePlayer == uid:
		next := skate.NextSetterAfterRound(s.Seats, eliminatedSet(s), s.SetterID)
		s.OffensivePlayer = next
		s.SetterID = next
		beginSetPhase(dispatcher, s)
	case s.CurrentTurnPlayer == uid:
		s.DefenderIdx++
		if !advanceToNextDefender(dispatcher, s) {
			completeRound(dispatcher, s)
		}
	}
}

func handleReconnect(dispatcher runtime.MatchDispatcher, s *MatchState, msg runtime.MatchData) {
	uid := msg.GetUserId()
	p, ok := s.Players[uid]
	if !ok {
		return
	}
	p.Connected = true
	p.DisconnectedAt = 0
	broadcastResumed(dispatcher, s, uid)
}

// broadcastResumed sends a fresh state snapshot to the reconnecting
// presence and tells the room play may continue (§4.10).
func broadcastResumed(dispatcher runtime.MatchDispatcher, s *MatchState, playerID string) {
	if s.Phase == skate.PhasePaused && allConnected(s) {
		s.Phase = skate.PhaseActive
		s.PausedAt = 0
		evt, _ := json.Marshal(map[string]interface{}{"playerId": playerID})
		_ = dispatcher.BroadcastMessage(OpResumed, evt, nil, nil, true)
	}

	snapshot, _ := json.Marshal(map[string]interface{}{
		"phase": string(s.Phase), "subPhase": string(s.SubPhase),
		"offensivePlayer": s.OffensivePlayer, "currentTurnPlayer": s.CurrentTurnPlayer,
		"trick": s.CurrentTrick, "deadlineAt": s.DeadlineAt,
	})
	if p, ok := s.Players[playerID]; ok && p.Presence != nil {
		_ = dispatcher.BroadcastMessage(OpState, snapshot, []runtime.Presence{p.Presence}, nil, true)
	}
}

func allConnected(s *MatchState) bool {
	for _, p := range s.Players {
		if !p.Connected && !p.Eliminated() {
			return false
		}
	}
	return true
}

// checkDisconnectTimeout forfeits any player who has been disconnected
// longer than the reconnect window (§4.10) by treating it exactly like a
// voluntary forfeit.
func checkDisconnectTimeout(logger runtime.Logger, dispatcher runtime.MatchDispatcher, s *MatchState) {
	for uid, p := range s.Players {
		if p.Connected || p.Eliminated() || p.DisconnectedAt == 0 {
			continue
		}
		if nowMillis()-p.DisconnectedAt < s.cfg.ReconnectWindow.Milliseconds() {
			continue
		}
		logger.WithField("player_id", uid).Info("disconnect window expired, forfeiting player")
		forfeitOnTimeout(dispatcher, s, uid)
	}
	if s.Phase == skate.PhasePaused && allConnected(s) {
		s.Phase = skate.PhaseActive
		s.PausedAt = 0
	}
}

func forfeitOnTimeout(dispatcher runtime.MatchDispatcher, s *MatchState, uid string) {
	p := s.Players[uid]
	p.Letters = "SKATE"

	evt, _ := json.Marshal(map[string]interface{}{"playerId": uid, "letters": p.Letters, "eliminated": true, "reason": "disconnect_timeout"})
	_ = dispatcher.BroadcastMessage(OpLetter, evt, nil, nil, true)

	res := skate.CheckGameOverLive(s.activePlayerIDs())
	if res.Over {
		endMatch(dispatcher, s, res.WinnerID)
		return
	}

	s.Phase = skate.PhaseActive
	s.PausedAt = 0

	switch {
	case s.OffensivePlayer == uid:
		next := skate.NextSetterAfterRound(s.Seats, eliminatedSet(s), s.SetterID)
		s.OffensivePlayer = next
		s.SetterID = next
		beginSetPhase(dispatcher, s)
	case s.CurrentTurnPlayer == uid:
		s.DefenderIdx++
		if !advanceToNextDefender(dispatcher, s) {
			completeRound(dispatcher, s)
		}
	}
}

func endMatch(dispatcher runtime.MatchDispatcher, s *MatchState, winnerID string) {
	s.Phase = skate.PhaseCompleted
	s.SubPhase = ""
	s.WinnerID = winnerID
	s.DeadlineAt = 0

	evt, _ := json.Marshal(map[string]interface{}{"winnerId": winnerID})
	_ = dispatcher.BroadcastMessage(OpEnded, evt, nil, nil, true)
	_ = dispatcher.MatchLabelUpdate(buildLabel(s))
}
