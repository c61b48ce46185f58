package skate

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"

	skateerr "github.com/myhuemungusD/skatehubba/internal/errors"
)

// FileDispute implements §4.6 file(session, actor, turnId).
func FileDispute(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionID, actorID, eventID, turnID string) (*Session, *Dispute, bool, error) {
	var dispute *Dispute

	session, result, err := RunMutation(ctx, nk, logger, cfg, sessionID, Mutation{
		EventID: eventID,
		Mutate: func(s *Session) (*Result, error) {
			if s.Phase != PhaseActive {
				return nil, skateerr.ErrWrongPhase
			}
			if s.Participant(actorID) == nil {
				return nil, skateerr.ErrNotAPlayer
			}
			if s.DisputeUsed[actorID] {
				return nil, skateerr.ErrDisputeQuotaUsed
			}

			turn, found, err := readTurn(ctx, nk, turnID)
			if err != nil {
				return nil, err
			}
			if !found || turn.SessionID != s.ID {
				return nil, skateerr.ErrTurnNotFound
			}
			if turn.Type != TurnSet || turn.Judgment != JudgmentMissed {
				return nil, skateerr.ErrDisputeWrongJudg
			}
			if turn.PlayerID != actorID {
				return nil, skateerr.ErrWrongActor
			}

			if s.DisputeUsed == nil {
				s.DisputeUsed = map[string]bool{}
			}
			s.DisputeUsed[actorID] = true

			d := &Dispute{
				ID:               newID(nk),
				SessionID:        s.ID,
				TurnID:           turnID,
				DisputedBy:       actorID,
				RespondentID:     turn.JudgedBy,
				OriginalJudgment: JudgmentMissed,
				CreatedAt:        nowMillis(),
			}
			dispute = d

			return &Result{
				Dispute: d,
				Notifications: []PendingNotification{
					{Type: "dispute_filed", PlayerID: turn.JudgedBy, Title: "A dispute was filed against your call"},
				},
			}, nil
		},
	})
	if err != nil {
		return nil, nil, false, err
	}
	if result.AlreadyProcessed {
		return session, nil, true, nil
	}
	return session, dispute, false, nil
}

// ResolveDispute implements §4.6 resolve(disputeId, actor, finalResult). It
// touches the session, the original set turn and a player profile counter
// in the same logical operation, hence the gateway's single batched
// MultiUpdate commit inside RunMutation (§4.3: "mutating related rows ...
// must occur inside the same transaction as the session write").
func ResolveDispute(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, disputeID, actorID, eventID string, finalResult Judgment) (*Session, *Dispute, bool, error) {
	if finalResult != JudgmentLanded && finalResult != JudgmentMissed {
		return nil, nil, false, skateerr.ErrInvalidJudgment
	}

	dispute, found, err := readDispute(ctx, nk, disputeID)
	if err != nil {
		return nil, nil, false, err
	}
	if !found {
		return nil, nil, false, skateerr.ErrDisputeNotFound
	}
	if dispute.FinalJudgment != "" {
		return nil, nil, false, skateerr.ErrDisputeAlreadyDone
	}
	if actorID != dispute.RespondentID {
		return nil, nil, false, skateerr.ErrNotRespondent
	}

	session, result, err := RunMutation(ctx, nk, logger, cfg, dispute.SessionID, Mutation{
		EventID: eventID,
		Mutate: func(s *Session) (*Result, error) {
			if s.Phase != PhaseActive {
				return nil, skateerr.ErrWrongPhase
			}

			turn, found, err := readTurn(ctx, nk, dispute.TurnID)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, skateerr.ErrTurnNotFound
			}

			dispute.FinalJudgment = finalResult
			dispute.ResolvedBy = actorID
			dispute.ResolvedAt = nowMillis()

			profileDeltas := map[string]int{}

			if finalResult == JudgmentMissed {
				// Denied: only the resolution fields change, plus a
				// penalty against the disputer for a frivolous appeal.
				dispute.PenaltyTarget = dispute.DisputedBy
				profileDeltas[dispute.DisputedBy] = 1
				return &Result{Dispute: dispute, ProfileDeltas: profileDeltas}, nil
			}

			// Upheld: penalize the original judge, strip the letter the
			// BAIL call granted the defender (turn.PlayerID is the
			// setter who was disputing; the defender who judged is
			// dispute.RespondentID), and swap roles LAND-style so the judge
			// becomes offensive — exactly the sequence spec.md §9 calls out
			// as intentional, not a simple reversal.
			dispute.PenaltyTarget = dispute.RespondentID
			profileDeltas[dispute.RespondentID] = 1

			defender := s.Participant(dispute.RespondentID)
			if defender != nil && len(defender.Letters) > 0 {
				defender.Letters = defender.Letters[:len(defender.Letters)-1]
			}

			turn.Judgment = JudgmentLanded

			// Same swap as a direct LAND judgment: the original defender
			// (the judge) becomes the new offensive player.
			s.OffensivePlayer, s.DefensivePlayer = s.DefensivePlayer, s.OffensivePlayer
			s.SubPhase = SubSetTrick
			s.CurrentTurnPlayer = s.OffensivePlayer
			s.DeadlineAt = nowMillis() + turnDeadline(cfg, s).Milliseconds()

			return &Result{
				Turn:          turn,
				Dispute:       dispute,
				ProfileDeltas: profileDeltas,
				Notifications: []PendingNotification{
					{Type: "your_turn", PlayerID: s.OffensivePlayer, Title: "Your turn to set"},
				},
			}, nil
		},
	})
	if err != nil {
		return nil, nil, false, err
	}
	if result.AlreadyProcessed {
		return session, nil, true, nil
	}
	return session, dispute, false, nil
}
