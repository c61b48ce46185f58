package skate

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"

	skateerr "github.com/myhuemungusD/skatehubba/internal/errors"
)

// CreateChallenge implements §4.4 create(challenger, opponent) for the async
// variant. It is the one lifecycle operation that does not go through
// RunMutation, since there is no existing session row to lock yet — the
// row's creation is itself the atomic step, enforced by Nakama's
// must-not-exist ("*") storage version.
func CreateChallenge(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, challengerID, challengerName, opponentID, opponentName string) (*Session, error) {
	if challengerID == opponentID {
		return nil, skateerr.ErrSelfChallenge
	}
	if opponentID == "" {
		return nil, skateerr.ErrOpponentNotFound
	}

	now := nowMillis()
	session := &Session{
		ID:      newID(nk),
		Variant: "async",
		Players: []Participant{
			{PlayerID: challengerID, DisplayName: challengerName, Connected: true},
			{PlayerID: opponentID, DisplayName: opponentName, Connected: true},
		},
		Phase:             PhasePending,
		SubPhase:          SubSetTrick,
		OffensivePlayer:   challengerID,
		DefensivePlayer:   opponentID,
		CurrentTurnPlayer: challengerID,
		SetterID:          challengerID,
		NextTurnNumber:    1,
		CreatedAt:         now,
		UpdatedAt:         now,
		DisputeUsed:       map[string]bool{challengerID: false, opponentID: false},
	}

	if err := writeSession(ctx, nk, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Respond implements §4.4 respond(session, actor, accept).
func Respond(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionID, actorID, eventID string, accept bool) (*Session, bool, error) {
	session, result, err := RunMutation(ctx, nk, logger, cfg, sessionID, Mutation{
		EventID: eventID,
		Mutate: func(s *Session) (*Result, error) {
			if s.Phase != PhasePending {
				return nil, skateerr.ErrNotPending
			}
			// Only the challenged player (the one who is not current_turn,
			// i.e. not the offensive/challenger) may respond.
			challenger := s.OffensivePlayer
			if actorID == challenger || s.Participant(actorID) == nil {
				return nil, skateerr.ErrWrongActor
			}

			if !accept {
				s.Phase = PhaseDeclined
				s.CompletedAt = nowMillis()
				s.SubPhase = ""
				s.CurrentTurnPlayer = ""
				s.DeadlineAt = 0
				return &Result{}, nil
			}

			s.Phase = PhaseActive
			s.DeadlineAt = nowMillis() + cfg.TurnDeadlineAsync.Milliseconds()
			return &Result{
				Notifications: []PendingNotification{
					{Type: "your_turn", PlayerID: challenger, Title: "Your turn"},
				},
			}, nil
		},
	})
	if err != nil {
		return nil, false, err
	}
	return session, result.AlreadyProcessed, nil
}
