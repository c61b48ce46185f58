package skate

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"

	skateerr "github.com/myhuemungusD/skatehubba/internal/errors"
	"github.com/myhuemungusD/skatehubba/internal/notify"
)

// This file is the public surface of §4.12/§6: each Rpc* function parses
// and validates its JSON payload, invokes the corresponding core
// operation, and translates the result to a response body or a sentinel
// error — the same envelope-not-core shape as the teacher's
// items/player_rpc.go RPC handlers.

func userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", skateerr.ErrNoUserIDFound
	}
	return userID, nil
}

func displayNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(runtime.RUNTIME_CTX_USERNAME).(string)
	return name
}

type createGameRequest struct {
	OpponentID string `json:"opponentId"`
}

// RpcCreateGame registers as POST /games/create.
func RpcCreateGame(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, err := userIDFromContext(ctx)
		if err != nil {
			return "", err
		}
		var req createGameRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", skateerr.ErrUnmarshal
		}

		account, err := nk.AccountGetId(ctx, req.OpponentID)
		if err != nil || account == nil {
			return "", skateerr.ErrOpponentNotFound
		}

		session, err := CreateChallenge(ctx, nk, logger, cfg, userID, displayNameFromContext(ctx), req.OpponentID, account.GetUser().GetDisplayName())
		if err != nil {
			return "", err
		}

		notify.Dispatch(ctx, nk, logger, notify.TypeChallengeReceived, session.ID, req.OpponentID, "New challenge", map[string]interface{}{"challengerId": userID})

		return marshalResponse(map[string]interface{}{"game": session, "message": "Challenge sent."})
	}
}

type respondRequest struct {
	GameID string `json:"gameId"`
	Accept bool   `json:"accept"`
}

// RpcRespond registers as POST /games/{id}/respond.
func RpcRespond(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, err := userIDFromContext(ctx)
		if err != nil {
			return "", err
		}
		var req respondRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", skateerr.ErrUnmarshal
		}
		eventID := EventID("respond", req.GameID, userID, boolKey(req.Accept))
		session, already, err := Respond(ctx, nk, logger, cfg, req.GameID, userID, eventID, req.Accept)
		if err != nil {
			return "", err
		}
		msg := "Response recorded."
		if already {
			msg = "Already processed."
		}
		return marshalResponse(map[string]interface{}{"game": session, "message": msg})
	}
}

type submitTurnRequest struct {
	GameID           string `json:"gameId"`
	TrickDescription string `json:"trickDescription"`
	VideoURL         string `json:"videoUrl"`
	VideoDurationMs  int    `json:"videoDurationMs"`
	ThumbnailURL     string `json:"thumbnailUrl"`
	IdempotencyKey   string `json:"idempotencyKey"`
}

// RpcSubmitTurn registers as POST /games/{id}/turns.
func RpcSubmitTurn(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, err := userIDFromContext(ctx)
		if err != nil {
			return "", err
		}
		var req submitTurnRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", skateerr.ErrUnmarshal
		}
		eventID := EventID("submit_turn", req.GameID, userID, req.IdempotencyKey)
		session, turn, already, err := SubmitTurn(ctx, nk, logger, cfg, req.GameID, userID, eventID, TurnInput{
			TrickDescription: req.TrickDescription,
			VideoURL:         req.VideoURL,
			VideoDurationMs:  req.VideoDurationMs,
			ThumbnailURL:     req.ThumbnailURL,
		})
		if err != nil {
			return "", err
		}
		msg := "Turn submitted."
		if already {
			msg = "Already processed."
		}
		return marshalResponse(map[string]interface{}{"turn": turn, "game": session, "message": msg})
	}
}

type judgeTurnRequest struct {
	TurnID         string `json:"turnId"`
	Result         string `json:"result"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// RpcJudgeTurn registers as POST /games/turns/{turnId}/judge.
func RpcJudgeTurn(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, err := userIDFromContext(ctx)
		if err != nil {
			return "", err
		}
		var req judgeTurnRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", skateerr.ErrUnmarshal
		}
		turn, found, err := readTurn(ctx, nk, req.TurnID)
		if err != nil {
			return "", err
		}
		if !found {
			return "", skateerr.ErrTurnNotFound
		}
		eventID := EventID("judge_turn", turn.SessionID, userID, req.TurnID+req.Result)
		session, already, gameOver, winnerID, err := JudgeTurn(ctx, nk, logger, cfg, turn.SessionID, userID, eventID, req.TurnID, Judgment(req.Result))
		if err != nil {
			return "", err
		}
		msg := "Judgment recorded."
		if already {
			msg = "Already processed."
		}
		return marshalResponse(map[string]interface{}{
			"game": session, "turn": turn, "gameOver": gameOver, "winnerId": winnerID, "message": msg,
		})
	}
}

type setterBailRequest struct {
	GameID         string `json:"gameId"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// RpcSetterBail registers as POST /games/{id}/setter-bail.
func RpcSetterBail(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, err := userIDFromContext(ctx)
		if err != nil {
			return "", err
		}
		var req setterBailRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", skateerr.ErrUnmarshal
		}
		eventID := EventID("setter_bail", req.GameID, userID, req.IdempotencyKey)
		session, already, gameOver, winnerID, err := SetterBail(ctx, nk, logger, cfg, req.GameID, userID, eventID)
		if err != nil {
			return "", err
		}
		msg := "Bail recorded."
		if already {
			msg = "Already processed."
		}
		return marshalResponse(map[string]interface{}{"game": session, "gameOver": gameOver, "winnerId": winnerID, "message": msg})
	}
}

type fileDisputeRequest struct {
	GameID         string `json:"gameId"`
	TurnID         string `json:"turnId"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// RpcFileDispute registers as POST /games/{id}/dispute.
func RpcFileDispute(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, err := userIDFromContext(ctx)
		if err != nil {
			return "", err
		}
		var req fileDisputeRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", skateerr.ErrUnmarshal
		}
		eventID := EventID("file_dispute", req.GameID, userID, req.TurnID)
		_, dispute, already, err := FileDispute(ctx, nk, logger, cfg, req.GameID, userID, eventID, req.TurnID)
		if err != nil {
			return "", err
		}
		msg := "Dispute filed."
		if already {
			msg = "Already processed."
		}
		return marshalResponse(map[string]interface{}{"dispute": dispute, "message": msg})
	}
}

type resolveDisputeRequest struct {
	DisputeID      string `json:"disputeId"`
	FinalResult    string `json:"finalResult"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// RpcResolveDispute registers as POST /games/disputes/{id}/resolve.
func RpcResolveDispute(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, err := userIDFromContext(ctx)
		if err != nil {
			return "", err
		}
		var req resolveDisputeRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", skateerr.ErrUnmarshal
		}
		eventID := EventID("resolve_dispute", req.DisputeID, userID, req.FinalResult+req.IdempotencyKey)
		_, dispute, already, err := ResolveDispute(ctx, nk, logger, cfg, req.DisputeID, userID, eventID, Judgment(req.FinalResult))
		if err != nil {
			return "", err
		}
		msg := "Dispute resolved."
		if already {
			msg = "Already processed."
		}
		return marshalResponse(map[string]interface{}{"dispute": dispute, "message": msg})
	}
}

type forfeitRequest struct {
	GameID         string `json:"gameId"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// RpcForfeit registers as POST /games/{id}/forfeit.
func RpcForfeit(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, err := userIDFromContext(ctx)
		if err != nil {
			return "", err
		}
		var req forfeitRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", skateerr.ErrUnmarshal
		}
		eventID := EventID("voluntary_forfeit", req.GameID, userID, req.IdempotencyKey)
		session, already, err := VoluntaryForfeit(ctx, nk, logger, cfg, req.GameID, userID, eventID)
		if err != nil {
			return "", err
		}
		msg := "Forfeited."
		if already {
			msg = "Already processed."
		}
		return marshalResponse(map[string]interface{}{"game": session, "message": msg})
	}
}

// RpcGetGame registers as GET /games/{id} (Nakama RPCs are POST-only; the
// caller's body carries {gameId}).
func RpcGetGame() func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, err := userIDFromContext(ctx)
		if err != nil {
			return "", err
		}
		var req struct {
			GameID string `json:"gameId"`
		}
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", skateerr.ErrUnmarshal
		}
		session, found, err := readSession(ctx, nk, req.GameID)
		if err != nil {
			return "", err
		}
		if !found {
			return "", skateerr.ErrGameNotFound
		}
		if session.Participant(userID) == nil {
			return "", skateerr.ErrForbiddenView
		}
		return marshalResponse(map[string]interface{}{
			"game":         session,
			"isMyTurn":     session.CurrentTurnPlayer == userID,
			"needsToJudge": session.SubPhase == SubJudge && session.CurrentTurnPlayer == userID,
			"canDispute":   session.Phase == PhaseActive && !session.DisputeUsed[userID],
		})
	}
}

// requireCronSecret implements the shared-secret cron auth noted in
// SPEC_FULL.md's SUPPLEMENTED FEATURES, using the same constant-time comparison
// idiom the pack uses for admin endpoints.
func requireCronSecret(ctx context.Context, cfg Config, payload string) error {
	var req struct {
		Secret string `json:"secret"`
	}
	_ = json.Unmarshal([]byte(payload), &req)
	if cfg.CronSharedSecret == "" {
		return skateerr.ErrForbiddenView
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(cfg.CronSharedSecret)) != 1 {
		return skateerr.ErrForbiddenView
	}
	return nil
}

func marshalResponse(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", skateerr.ErrMarshal
	}
	return string(b), nil
}

func boolKey(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
