package skate

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"
)

// IndexGamesByDeadline is the storage index name registered in main.go
// (initializer.RegisterStorageIndex) over the games collection, keyed on
// (phase, deadlineAt) — the index spec.md §6 calls out as "required for
// correctness of the reconciler".
const IndexGamesByDeadline = "games_by_deadline"

// IndexGamesByPlayer is a second storage index, keyed on the players field,
// for the player-membership lookups RpcGetMyGames needs — separate from
// IndexGamesByDeadline, which only the reconciler sweeps should query.
const IndexGamesByPlayer = "games_by_player"

// listSessionIDs runs an indexed query against the games collection and
// returns the matching session IDs. Query syntax follows Nakama's storage
// index query language (a Bleve-style query string).
func listSessionIDs(ctx context.Context, nk runtime.NakamaModule, index, query string, limit int) ([]string, error) {
	result, err := nk.StorageIndexList(ctx, "", index, query, limit, nil, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(result.GetObjects()))
	for _, obj := range result.GetObjects() {
		ids = append(ids, obj.GetKey())
	}
	return ids, nil
}

// RpcCronForfeitExpiredGames registers as POST /cron/forfeit-expired-games.
func RpcCronForfeitExpiredGames(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		if err := requireCronSecret(ctx, cfg, payload); err != nil {
			return "", err
		}
		ids, err := listSessionIDs(ctx, nk, IndexGamesByDeadline, "+phase:active", 200)
		if err != nil {
			return "", err
		}
		forfeited := SweepExpiredDeadlines(ctx, nk, logger, cfg, ids)
		return marshalResponse(map[string]interface{}{"forfeited": forfeited})
	}
}

// RpcCronDeadlineWarnings registers as POST /cron/deadline-warnings.
func RpcCronDeadlineWarnings(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		if err := requireCronSecret(ctx, cfg, payload); err != nil {
			return "", err
		}
		ids, err := listSessionIDs(ctx, nk, IndexGamesByDeadline, "+phase:active", 500)
		if err != nil {
			return "", err
		}
		notified := SweepDeadlineWarnings(ctx, nk, logger, cfg, ids)
		return marshalResponse(map[string]interface{}{"notified": notified})
	}
}

// RpcCronDisconnectTimeouts registers as POST /cron/disconnect-timeouts.
// It is the storage-backed backstop for SweepDisconnectTimeouts; the live
// match process forfeits stale disconnects on its own while it is running,
// this RPC only matters for a session whose match process never got the
// chance to.
func RpcCronDisconnectTimeouts(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		if err := requireCronSecret(ctx, cfg, payload); err != nil {
			return "", err
		}
		ids, err := listSessionIDs(ctx, nk, IndexGamesByDeadline, "+phase:paused", 500)
		if err != nil {
			return "", err
		}
		forfeited := SweepDisconnectTimeouts(ctx, nk, logger, cfg, ids)
		return marshalResponse(map[string]interface{}{"forfeited": forfeited})
	}
}

// RpcCronCleanupSessions registers as POST /cron/cleanup-sessions. It
// deletes the games row of every terminal session completed more than a
// 90-day retention window ago, freeing storage; the session's turn and
// dispute rows are not deleted. The core terminal-state contract itself
// never depends on the rows being deleted.
func RpcCronCleanupSessions(cfg Config) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		if err := requireCronSecret(ctx, cfg, payload); err != nil {
			return "", err
		}
		ids, err := listSessionIDs(ctx, nk, IndexGamesByDeadline, "phase:completed phase:declined phase:forfeited", 500)
		if err != nil {
			return "", err
		}
		deleted := 0
		for _, id := range ids {
			session, found, err := readSession(ctx, nk, id)
			if err != nil || !found {
				continue
			}
			const retentionMs = int64(90 * 24 * 60 * 60 * 1000)
			if session.CompletedAt == 0 || nowMillis()-session.CompletedAt < retentionMs {
				continue
			}
			if err := nk.StorageDelete(ctx, []*runtime.StorageDelete{
				{Collection: CollectionGames, Key: id, UserID: SystemUserID, Version: session.Version()},
			}); err != nil {
				logger.WithField("session_id", id).Warn("cron cleanup: delete failed: %v", err)
				continue
			}
			deleted++
		}
		return marshalResponse(map[string]interface{}{"deleted": deleted})
	}
}

// RpcGetMyGames registers as GET /games/my-games.
func RpcGetMyGames() func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, err := userIDFromContext(ctx)
		if err != nil {
			return "", err
		}
		ids, err := listSessionIDs(ctx, nk, IndexGamesByPlayer, "+players:"+userID, 200)
		if err != nil {
			return "", err
		}

		var pending, sent, active, completed []*Session
		for _, id := range ids {
			session, found, err := readSession(ctx, nk, id)
			if err != nil || !found {
				continue
			}
			switch {
			case session.Phase == PhasePending && session.OffensivePlayer == userID:
				sent = append(sent, session)
			case session.Phase == PhasePending:
				pending = append(pending, session)
			case session.Phase == PhaseActive || session.Phase == PhasePaused:
				active = append(active, session)
			case session.Phase == PhaseCompleted || session.Phase == PhaseForfeited || session.Phase == PhaseDeclined:
				completed = append(completed, session)
			}
		}

		return marshalResponse(map[string]interface{}{
			"pendingChallenges": pending,
			"sentChallenges":    sent,
			"activeGames":       active,
			"completedGames":    completed,
			"total":             len(ids),
		})
	}
}
