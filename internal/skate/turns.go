package skate

import (
	"context"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	skateerr "github.com/myhuemungusD/skatehubba/internal/errors"
)

// SubmitTurn implements §4.5's two submit states (set_trick and
// respond_trick), dispatched on whichever sub-phase the session is
// currently in.
func SubmitTurn(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionID, actorID, eventID string, input TurnInput) (*Session, *Turn, bool, error) {
	if err := input.Validate(cfg); err != nil {
		return nil, nil, false, err
	}

	var producedTurn *Turn
	session, result, err := RunMutation(ctx, nk, logger, cfg, sessionID, Mutation{
		EventID: eventID,
		Mutate: func(s *Session) (*Result, error) {
			if s.Phase != PhaseActive {
				return nil, skateerr.ErrWrongPhase
			}
			if nowMillis() > s.DeadlineAt && s.DeadlineAt != 0 {
				return nil, skateerr.ErrDeadlinePassed
			}

			switch s.SubPhase {
			case SubSetTrick:
				if actorID != s.OffensivePlayer {
					return nil, skateerr.ErrNotYourTurn
				}
				turn := newSetTurn(nk, s, actorID, input)
				s.SubPhase = SubRespondTrick
				s.CurrentTurnPlayer = s.DefensivePlayer
				s.DeadlineAt = nowMillis() + turnDeadline(cfg, s).Milliseconds()
				s.CurrentTrick = input.TrickDescription
				s.LastTrickDesc = input.TrickDescription
				s.LastTrickBy = actorID
				s.NextTurnNumber++
				return &Result{
					Turn: turn,
					Notifications: []PendingNotification{
						{Type: "your_turn", PlayerID: s.DefensivePlayer, Title: "Your turn to respond"},
					},
				}, nil

			case SubRespondTrick:
				if actorID != s.DefensivePlayer {
					return nil, skateerr.ErrNotYourTurn
				}
				turn := newResponseTurn(nk, s, actorID, input)
				s.SubPhase = SubJudge
				s.DeadlineAt = nowMillis() + turnDeadline(cfg, s).Milliseconds()
				s.NextTurnNumber++
				return &Result{Turn: turn}, nil

			default:
				return nil, skateerr.ErrWrongPhase
			}
		},
	})
	if err != nil {
		return nil, nil, false, err
	}
	if result.AlreadyProcessed {
		return session, nil, true, nil
	}
	producedTurn = result.Turn
	return session, producedTurn, false, nil
}

// JudgeTurn implements §4.5's judge state.
func JudgeTurn(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionID, actorID, eventID string, setTurnID string, judgment Judgment) (*Session, bool, bool, string, error) {
	if judgment != JudgmentLanded && judgment != JudgmentMissed {
		return nil, false, false, "", skateerr.ErrInvalidJudgment
	}

	var gameOver bool
	var winnerID string

	session, result, err := RunMutation(ctx, nk, logger, cfg, sessionID, Mutation{
		EventID: eventID,
		Mutate: func(s *Session) (*Result, error) {
			if s.Phase != PhaseActive || s.SubPhase != SubJudge {
				return nil, skateerr.ErrWrongPhase
			}
			if actorID != s.DefensivePlayer {
				return nil, skateerr.ErrNotYourTurn
			}

			setTurn, found, err := readTurn(ctx, nk, setTurnID)
			if err != nil {
				return nil, err
			}
			if !found || setTurn.SessionID != s.ID || setTurn.Type != TurnSet {
				return nil, skateerr.ErrTurnNotFound
			}
			if setTurn.Judgment != JudgmentPending {
				return nil, skateerr.ErrAlreadyJudged
			}

			outcome := ApplyJudgment(s.OffensivePlayer, s.DefensivePlayer, judgment)

			setTurn.Judgment = judgment
			setTurn.JudgedBy = actorID
			setTurn.JudgedAt = nowMillis()

			over, winner := applyOutcomeAndCheckGameOver(s, outcome)
			gameOver = over
			winnerID = winner

			notifications := []PendingNotification{}
			if gameOver {
				s.Phase = PhaseCompleted
				s.SubPhase = ""
				s.CurrentTurnPlayer = ""
				s.DeadlineAt = 0
				s.WinnerID = winnerID
				s.CompletedAt = nowMillis()
				for _, p := range s.Players {
					notifications = append(notifications, PendingNotification{
						Type: "game_over", PlayerID: p.PlayerID, Title: "Game over",
						Extra: map[string]interface{}{"winnerId": winnerID},
					})
				}
			} else {
				s.SubPhase = SubSetTrick
				s.CurrentTurnPlayer = s.OffensivePlayer
				s.DeadlineAt = nowMillis() + turnDeadline(cfg, s).Milliseconds()
				notifications = append(notifications, PendingNotification{
					Type: "your_turn", PlayerID: s.OffensivePlayer, Title: "Your turn to set",
				})
			}

			return &Result{Turn: setTurn, Notifications: notifications}, nil
		},
	})
	if err != nil {
		return nil, false, false, "", err
	}
	return session, result.AlreadyProcessed, gameOver, winnerID, nil
}

// SetterBail implements §4.5's optional setterBail operation.
func SetterBail(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionID, actorID, eventID string) (*Session, bool, bool, string, error) {
	var gameOver bool
	var winnerID string

	session, result, err := RunMutation(ctx, nk, logger, cfg, sessionID, Mutation{
		EventID: eventID,
		Mutate: func(s *Session) (*Result, error) {
			if s.Phase != PhaseActive || s.SubPhase != SubSetTrick {
				return nil, skateerr.ErrWrongPhase
			}
			if actorID != s.OffensivePlayer {
				return nil, skateerr.ErrNotYourTurn
			}

			outcome := ApplySetterBail(s.OffensivePlayer, s.DefensivePlayer)
			over, winner := applyOutcomeAndCheckGameOver(s, outcome)
			gameOver = over
			winnerID = winner

			notifications := []PendingNotification{}
			if gameOver {
				s.Phase = PhaseCompleted
				s.SubPhase = ""
				s.CurrentTurnPlayer = ""
				s.DeadlineAt = 0
				s.WinnerID = winnerID
				s.CompletedAt = nowMillis()
				for _, p := range s.Players {
					notifications = append(notifications, PendingNotification{
						Type: "game_over", PlayerID: p.PlayerID, Title: "Game over",
						Extra: map[string]interface{}{"winnerId": winnerID},
					})
				}
			} else {
				s.SubPhase = SubSetTrick
				s.CurrentTurnPlayer = s.OffensivePlayer
				s.DeadlineAt = nowMillis() + turnDeadline(cfg, s).Milliseconds()
				notifications = append(notifications, PendingNotification{
					Type: "your_turn", PlayerID: s.OffensivePlayer, Title: "Your turn to set",
				})
			}

			return &Result{Notifications: notifications}, nil
		},
	})
	if err != nil {
		return nil, false, false, "", err
	}
	return session, result.AlreadyProcessed, gameOver, winnerID, nil
}

// applyOutcomeAndCheckGameOver mutates the session's letters/roles from a
// JudgmentOutcome and reports whether the game is now over (§4.2.5).
func applyOutcomeAndCheckGameOver(s *Session, outcome JudgmentOutcome) (over bool, winner string) {
	if outcome.LetterTo != "" {
		loser := s.Participant(outcome.LetterTo)
		loser.Letters = NextLetters(loser.Letters)
	}
	if outcome.RolesSwap {
		s.OffensivePlayer = outcome.NewOffense
		s.DefensivePlayer = outcome.NewDefense
	}

	if len(s.Players) == 2 {
		loser := s.Participant(outcome.LetterTo)
		if loser == nil || !loser.Eliminated() {
			return false, ""
		}
		other := otherPlayer(s, outcome.LetterTo)
		res := CheckGameOverAsync(outcome.LetterTo, other, loser.Letters)
		return res.Over, res.WinnerID
	}

	res := CheckGameOverLive(s.ActivePlayers())
	return res.Over, res.WinnerID
}

func otherPlayer(s *Session, playerID string) string {
	for _, p := range s.Players {
		if p.PlayerID != playerID {
			return p.PlayerID
		}
	}
	return ""
}

func turnDeadline(cfg Config, s *Session) time.Duration {
	if s.Variant == "live" {
		return cfg.TurnDeadlineLive
	}
	return cfg.TurnDeadlineAsync
}

func newSetTurn(nk Store, s *Session, actorID string, input TurnInput) *Turn {
	p := s.Participant(actorID)
	return &Turn{
		ID:            newID(nk),
		SessionID:     s.ID,
		PlayerID:      actorID,
		PlayerName:    p.DisplayName,
		TurnNumber:    s.NextTurnNumber,
		Type:          TurnSet,
		TrickDesc:     input.TrickDescription,
		VideoURL:      input.VideoURL,
		VideoDuration: input.VideoDurationMs,
		ThumbnailURL:  input.ThumbnailURL,
		Judgment:      JudgmentPending,
		CreatedAt:     nowMillis(),
	}
}

func newResponseTurn(nk Store, s *Session, actorID string, input TurnInput) *Turn {
	p := s.Participant(actorID)
	return &Turn{
		ID:            newID(nk),
		SessionID:     s.ID,
		PlayerID:      actorID,
		PlayerName:    p.DisplayName,
		TurnNumber:    s.NextTurnNumber,
		Type:          TurnResponse,
		TrickDesc:     input.TrickDescription,
		VideoURL:      input.VideoURL,
		VideoDuration: input.VideoDurationMs,
		ThumbnailURL:  input.ThumbnailURL,
		CreatedAt:     nowMillis(),
	}
}
