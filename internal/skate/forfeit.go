package skate

import (
	"context"
	"strconv"

	"github.com/heroiclabs/nakama-common/runtime"

	skateerr "github.com/myhuemungusD/skatehubba/internal/errors"
)

// ForfeitReason documents why a session was force-ended, for notification
// wording and logs.
type ForfeitReason string

const (
	ReasonVoluntary       ForfeitReason = "voluntary"
	ReasonTurnTimeout     ForfeitReason = "turn_timeout"
	ReasonHardCap         ForfeitReason = "hard_cap"
	ReasonDisconnectTimeout ForfeitReason = "disconnect_timeout"
)

// VoluntaryForfeit implements §4.7 voluntaryForfeit(session, actor).
func VoluntaryForfeit(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionID, actorID, eventID string) (*Session, bool, error) {
	session, result, err := RunMutation(ctx, nk, logger, cfg, sessionID, Mutation{
		EventID: eventID,
		Mutate: func(s *Session) (*Result, error) {
			if s.Phase != PhaseActive && s.Phase != PhasePaused {
				return nil, skateerr.ErrNotActive
			}
			if s.Participant(actorID) == nil {
				return nil, skateerr.ErrNotAPlayer
			}
			winner := pickForfeitWinner(s, actorID)
			forfeitSession(s, winner)
			return &Result{
				Notifications: []PendingNotification{
					{Type: "opponent_forfeited", PlayerID: winner, Title: "Your opponent forfeited"},
				},
			}, nil
		},
	})
	if err != nil {
		return nil, false, err
	}
	return session, result.AlreadyProcessed, nil
}

// ExpireDeadlines is the first reconciler sweep of §4.8: forfeit any active
// session whose deadline has passed, blaming current_turn_player.
func ExpireDeadlines(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionID string) (*Session, bool, error) {
	current, found, err := readSession(ctx, nk, sessionID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, skateerr.ErrGameNotFound
	}
	eventID := EventID("expire_deadline", sessionID, "system", strconv.FormatInt(current.DeadlineAt, 10))
	session, result, err := RunMutation(ctx, nk, logger, cfg, sessionID, Mutation{
		EventID: eventID,
		Mutate: func(s *Session) (*Result, error) {
			if s.Phase != PhaseActive {
				return nil, skateerr.ErrNotActive
			}
			if s.DeadlineAt == 0 || nowMillis() < s.DeadlineAt {
				return nil, skateerr.ErrNotYetExpired
			}
			loser := s.CurrentTurnPlayer
			winner := pickForfeitWinner(s, loser)
			forfeitSession(s, winner)

			notifications := make([]PendingNotification, 0, len(s.Players))
			for _, p := range s.Players {
				notifications = append(notifications, PendingNotification{
					Type: "game_forfeited_timeout", PlayerID: p.PlayerID, Title: "Game forfeited: turn timed out",
				})
			}
			return &Result{Notifications: notifications}, nil
		},
	})
	if err != nil {
		return nil, false, err
	}
	return session, result.AlreadyProcessed, nil
}

// ExpireStalled is the hard-cap sweep of §4.7 expireStalled(): sessions
// older than GameHardCap are forfeited, the loser picked deterministically
// as "most letters", ties broken by current_turn, then by the first player
// slot.
func ExpireStalled(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionID string) (*Session, bool, error) {
	eventID := EventID("expire_stalled", sessionID, "system", "")
	session, result, err := RunMutation(ctx, nk, logger, cfg, sessionID, Mutation{
		EventID: eventID,
		Mutate: func(s *Session) (*Result, error) {
			if s.Phase != PhaseActive && s.Phase != PhasePaused {
				return nil, skateerr.ErrNotActive
			}
			age := nowMillis() - s.CreatedAt
			if age < cfg.GameHardCap.Milliseconds() {
				return nil, skateerr.ErrNotYetStalled
			}
			loser := pickHardCapLoser(s)
			winner := pickForfeitWinner(s, loser)
			forfeitSession(s, winner)

			notifications := make([]PendingNotification, 0, len(s.Players))
			for _, p := range s.Players {
				notifications = append(notifications, PendingNotification{
					Type: "game_forfeited_timeout", PlayerID: p.PlayerID, Title: "Game forfeited: 7-day limit reached",
				})
			}
			return &Result{Notifications: notifications}, nil
		},
	})
	if err != nil {
		return nil, false, err
	}
	return session, result.AlreadyProcessed, nil
}

// pickForfeitWinner returns the async-variant opponent, or, in the live
// variant, the closest-to-winning non-eliminated player other than loserID
// (fewest letters).
func pickForfeitWinner(s *Session, loserID string) string {
	if len(s.Players) == 2 {
		return otherPlayer(s, loserID)
	}
	best := ""
	bestLen := len(fullBoard) + 1
	for _, p := range s.Players {
		if p.PlayerID == loserID || p.Eliminated() {
			continue
		}
		if len(p.Letters) < bestLen {
			best = p.PlayerID
			bestLen = len(p.Letters)
		}
	}
	return best
}

// pickHardCapLoser implements §4.7's deterministic tie-break: most letters,
// ties broken by current_turn, then the first player slot.
func pickHardCapLoser(s *Session) string {
	var candidates []Participant
	maxLen := -1
	for _, p := range s.Players {
		if len(p.Letters) > maxLen {
			maxLen = len(p.Letters)
		}
	}
	for _, p := range s.Players {
		if len(p.Letters) == maxLen {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 1 {
		return candidates[0].PlayerID
	}
	for _, c := range candidates {
		if c.PlayerID == s.CurrentTurnPlayer {
			return c.PlayerID
		}
	}
	if len(s.Players) > 0 {
		return s.Players[0].PlayerID
	}
	return ""
}

func forfeitSession(s *Session, winner string) {
	s.Phase = PhaseForfeited
	s.WinnerID = winner
	s.SubPhase = ""
	s.CurrentTurnPlayer = ""
	s.DeadlineAt = 0
	s.CompletedAt = nowMillis()
}
