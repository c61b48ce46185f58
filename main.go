package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/myhuemungusD/skatehubba/internal/realtime"
	"github.com/myhuemungusD/skatehubba/internal/skate"
)

func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	initStart := time.Now()

	cfg := skate.LoadConfig(ctx)
	logger.Info("Loaded config: turn deadline async=%s live=%s, game hard cap=%s, reconnect window=%s",
		cfg.TurnDeadlineAsync, cfg.TurnDeadlineLive, cfg.GameHardCap, cfg.ReconnectWindow)

	if err := initializer.RegisterStorageIndex(skate.IndexGamesByDeadline, skate.CollectionGames, "", []string{"phase", "deadlineAt"}, 10000, false); err != nil {
		logger.Error("Unable to register storage index: %v", err)
		return err
	}
	if err := initializer.RegisterStorageIndex(skate.IndexGamesByPlayer, skate.CollectionGames, "", []string{"players"}, 10000, false); err != nil {
		logger.Error("Unable to register storage index: %v", err)
		return err
	}

	if err := initializer.RegisterRpc("games_create", skate.RpcCreateGame(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("games_respond", skate.RpcRespond(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("games_submit_turn", skate.RpcSubmitTurn(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("games_judge_turn", skate.RpcJudgeTurn(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("games_setter_bail", skate.RpcSetterBail(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("games_file_dispute", skate.RpcFileDispute(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("games_resolve_dispute", skate.RpcResolveDispute(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("games_forfeit", skate.RpcForfeit(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("games_get", skate.RpcGetGame()); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("games_get_my_games", skate.RpcGetMyGames()); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}

	// Reconciler sweeps: fired by an external cron dispatcher against these
	// RPCs rather than a native scheduler, since the runtime has none.
	if err := initializer.RegisterRpc("cron_forfeit_expired_games", skate.RpcCronForfeitExpiredGames(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("cron_deadline_warnings", skate.RpcCronDeadlineWarnings(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("cron_cleanup_sessions", skate.RpcCronCleanupSessions(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}
	if err := initializer.RegisterRpc("cron_disconnect_timeouts", skate.RpcCronDisconnectTimeouts(cfg)); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}

	if err := initializer.RegisterMatch("skate_match", func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return &realtime.SkateMatch{}, nil
	}); err != nil {
		logger.Error("Unable to register: %v", err)
		return err
	}

	logger.Info("Plugin loaded in '%d' msec.", time.Since(initStart).Milliseconds())
	return nil
}
