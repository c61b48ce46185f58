package skate

import (
	"context"
	"strconv"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Config holds the environment knobs of spec.md §6, read at InitModule
// time the way items/game.go lazily materializes its gamedata singleton,
// and read again by each live match's MatchInit.
type Config struct {
	TurnDeadlineAsync       time.Duration
	TurnDeadlineLive        time.Duration
	MaxVideoDurationMs      int
	MaxProcessedEvents      int
	DeadlineWarningCooldown time.Duration
	GameHardCap             time.Duration
	ReconnectWindow         time.Duration
	CronSharedSecret        string
	TrustedVideoDomain      string

	RoomCapacityBattle int
	RoomCapacityGame   int
	RoomCapacitySpot   int
}

// DefaultConfig returns the documented defaults from spec.md §6.
func DefaultConfig() Config {
	return Config{
		TurnDeadlineAsync:       24 * time.Hour,
		TurnDeadlineLive:        60 * time.Second,
		MaxVideoDurationMs:      15000,
		MaxProcessedEvents:      100,
		DeadlineWarningCooldown: 30 * time.Minute,
		GameHardCap:             7 * 24 * time.Hour,
		ReconnectWindow:         2 * time.Minute,
		TrustedVideoDomain:      "storage.skatehubba.app",
		RoomCapacityBattle:      2,
		RoomCapacityGame:        8,
		RoomCapacitySpot:        100,
	}
}

// LoadConfig overlays environment-provided overrides from Nakama's runtime
// env map (ctx.Value(runtime.RUNTIME_CTX_ENV)) onto the defaults.
func LoadConfig(ctx context.Context) Config {
	cfg := DefaultConfig()

	env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if !ok {
		return cfg
	}

	if v, ok := env["TURN_DEADLINE_ASYNC_SECONDS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TurnDeadlineAsync = time.Duration(n) * time.Second
		}
	}
	if v, ok := env["TURN_DEADLINE_LIVE_SECONDS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TurnDeadlineLive = time.Duration(n) * time.Second
		}
	}
	if v, ok := env["MAX_VIDEO_DURATION_MS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxVideoDurationMs = n
		}
	}
	if v, ok := env["MAX_PROCESSED_EVENTS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxProcessedEvents = n
		}
	}
	if v, ok := env["DEADLINE_WARNING_COOLDOWN_SECONDS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DeadlineWarningCooldown = time.Duration(n) * time.Second
		}
	}
	if v, ok := env["GAME_HARD_CAP_SECONDS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GameHardCap = time.Duration(n) * time.Second
		}
	}
	if v, ok := env["RECONNECT_WINDOW_SECONDS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReconnectWindow = time.Duration(n) * time.Second
		}
	}
	if v, ok := env["CRON_SHARED_SECRET"]; ok {
		cfg.CronSharedSecret = v
	}
	if v, ok := env["TRUSTED_VIDEO_DOMAIN"]; ok {
		cfg.TrustedVideoDomain = v
	}

	return cfg
}
