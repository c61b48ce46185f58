package skate

import (
	"context"
	"strconv"

	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/myhuemungusD/skatehubba/internal/notify"
)

// This file is the timeout reconciler of §4.8: three independent sweeps,
// each processing candidate sessions one at a time inside its own gateway
// transaction so an overlapping run or a manual action never double-applies
// (the same event-ID idempotency discipline as every other mutator).
//
// Nakama has no built-in cron primitive the teacher exercises, so these
// sweeps are plain functions invoked from cron-triggered RPCs (main.go),
// matching the external-scheduler model spec.md §4.8 already assumes for
// the async variant ("every minute triggered by an external scheduler").

// warningCooldown is the in-process fallback dedup for deadline warnings
// flagged as a known limitation in spec.md §9: a shared store with the same
// TTL is preferred in a multi-instance deployment, but none is wired here
// since the persistence backend itself is an external collaborator
// (spec.md §1 Non-goals). The session's own LastWarningAt field is the
// authoritative, storage-backed half of the dedup; this map only prevents
// redundant work within a single process between ticks.
var warningCooldown = newCooldownTracker()

// SweepExpiredDeadlines runs reconciler sweep 1 over the given candidate
// session IDs (the caller is expected to have already selected sessions
// with phase=active and deadlineAt < now, e.g. via a Nakama storage index).
func SweepExpiredDeadlines(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionIDs []string) int {
	forfeited := 0
	for _, id := range sessionIDs {
		_, alreadyProcessed, err := ExpireDeadlines(ctx, nk, logger, cfg, id)
		if err != nil {
			logger.WithField("session_id", id).Warn("reconciler: expire-deadline sweep skipped session: %v", err)
			continue
		}
		if alreadyProcessed {
			continue
		}
		forfeited++
	}
	return forfeited
}

// SweepDeadlineWarnings runs reconciler sweep 2: sessions with a deadline
// within the next hour get a single deadline_warning, cooldown-bounded.
func SweepDeadlineWarnings(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionIDs []string) int {
	notified := 0
	now := nowMillis()
	horizon := now + int64(60*60*1000)

	for _, id := range sessionIDs {
		session, found, err := readSession(ctx, nk, id)
		if err != nil || !found {
			continue
		}
		if session.Phase != PhaseActive || session.DeadlineAt == 0 || session.DeadlineAt > horizon {
			continue
		}
		if warningCooldown.recentlyWarned(id, cfg.DeadlineWarningCooldown) {
			continue
		}
		if session.LastWarningAt != 0 && now-session.LastWarningAt < cfg.DeadlineWarningCooldown.Milliseconds() {
			continue
		}

		remainingMinutes := int((session.DeadlineAt - now) / 60000)
		notify.Dispatch(ctx, nk, logger, notify.TypeDeadlineWarning, session.ID, session.CurrentTurnPlayer,
			"Your turn is about to expire", map[string]interface{}{"minutesRemaining": remainingMinutes})

		session.LastWarningAt = now
		if err := writeSession(ctx, nk, session); err != nil {
			logger.WithField("session_id", id).Warn("reconciler: could not persist warning timestamp: %v", err)
			continue
		}
		warningCooldown.recordWarning(id)
		notified++
	}
	return notified
}

// SweepDisconnectTimeouts runs reconciler sweep 3 (live variant only): a
// storage-backed backstop for forfeiting any player whose disconnect has
// outlasted cfg.ReconnectWindow. internal/realtime's own MatchLoop already
// forfeits stale disconnects while its in-memory match process is alive;
// this sweep exists for the case that process never gets the chance to run
// the tick at all (the node hosting the match restarted, or was evicted)
// and a session is left sitting at paused with nothing advancing it. It
// acts only on games rows in the paused phase; internal/realtime keeps its
// match state in memory and writes no such rows.
//
// Each player's own DisconnectedAt timestamp is the event's sequence key,
// not a constant: a session can pause and resume many times over its
// life, and a constant key would mark the very first no-op tick as
// processed forever, silently disabling the sweep for every later,
// genuinely stale disconnect on that same session.
func SweepDisconnectTimeouts(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionIDs []string) int {
	forfeitedSessions := 0
	now := nowMillis()

	for _, id := range sessionIDs {
		session, found, err := readSession(ctx, nk, id)
		if err != nil || !found {
			continue
		}
		if session.Phase != PhasePaused {
			continue
		}
		var stale string
		var staleSince int64
		for _, p := range session.Players {
			if !p.Connected && p.DisconnectedAt != 0 && now-p.DisconnectedAt > cfg.ReconnectWindow.Milliseconds() {
				stale = p.PlayerID
				staleSince = p.DisconnectedAt
				break
			}
		}
		if stale == "" {
			continue
		}

		eventID := EventID("disconnect_timeout", id, stale, strconv.FormatInt(staleSince, 10))
		session, result, err := RunMutation(ctx, nk, logger, cfg, id, Mutation{
			EventID: eventID,
			Mutate: func(s *Session) (*Result, error) {
				if s.Phase != PhasePaused {
					return &Result{}, nil
				}
				p := s.Participant(stale)
				if p == nil || p.Connected || p.DisconnectedAt != staleSince {
					return &Result{}, nil
				}
				winner := pickForfeitWinner(s, stale)
				forfeitSession(s, winner)
				notifications := make([]PendingNotification, 0, len(s.Players))
				for _, pl := range s.Players {
					notifications = append(notifications, PendingNotification{
						Type: "game_forfeited_timeout", PlayerID: pl.PlayerID, Title: "Game forfeited: disconnect timeout",
					})
				}
				return &Result{Notifications: notifications}, nil
			},
		})
		if err != nil {
			logger.WithField("session_id", id).Warn("reconciler: disconnect-timeout sweep skipped session: %v", err)
			continue
		}
		if result.AlreadyProcessed || session.Phase != PhaseForfeited {
			continue
		}
		forfeitedSessions++
	}
	return forfeitedSessions
}
