// Package skate implements the SKATE duel game orchestration engine: the
// session state machine, the transactional turn pipeline, the dispute
// subsystem and the timeout reconciler, for both the async and live variants.
package skate

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/heroiclabs/nakama-common/api"
)

// SystemUserID owns storage objects that are not scoped to a single player
// (sessions, turns, disputes). Nakama storage rows always carry an owning
// user ID; a nil-UUID system owner is the idiomatic way to store
// collection-wide rows that multiple players must read and write.
const SystemUserID = "00000000-0000-0000-0000-000000000000"

// Storage collection names. One object per session/turn/dispute, keyed by
// its own ID, all owned by SystemUserID so storage permissions stay
// server-authoritative (no client ACL on these collections).
const (
	CollectionGames     = "games"
	CollectionTurns     = "game_turns"
	CollectionDisputes  = "game_disputes"
	CollectionProfiles  = "user_profiles"
	CollectionWarnings  = "deadline_warnings"
)

// Phase is a Session's top-level lifecycle state.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseActive     Phase = "active"
	PhasePaused     Phase = "paused"
	PhaseCompleted  Phase = "completed"
	PhaseDeclined   Phase = "declined"
	PhaseForfeited  Phase = "forfeited"
)

// SubPhase is the round sub-phase, meaningful only while Phase == active or
// paused.
type SubPhase string

const (
	SubSetTrick     SubPhase = "set_trick"
	SubRespondTrick SubPhase = "respond_trick"
	SubJudge        SubPhase = "judge"
)

// Judgment is the outcome of a defender's call on a set turn.
type Judgment string

const (
	JudgmentPending Judgment = "pending"
	JudgmentLanded  Judgment = "landed"
	JudgmentMissed  Judgment = "missed"
)

// TurnType distinguishes a setter's trick from a defender's response.
type TurnType string

const (
	TurnSet      TurnType = "set"
	TurnResponse TurnType = "response"
)

// Participant is one seat in a Session: a player ID plus its live-variant
// connection bookkeeping.
type Participant struct {
	PlayerID       string `json:"playerId"`
	DisplayName    string `json:"displayName"`
	Letters        string `json:"letters"`
	Connected      bool   `json:"connected"`
	DisconnectedAt int64  `json:"disconnectedAt,omitempty"` // unix millis, 0 = not disconnected
}

// Eliminated reports whether this participant has accrued all five letters.
func (p Participant) Eliminated() bool { return p.Letters == "SKATE" }

// Session is the single unit of transactional concurrency (spec §3). It
// covers both the async 1v1 variant (exactly two Participants) and the live
// multi-player variant (up to eight).
type Session struct {
	ID      string        `json:"id"`
	Variant string        `json:"variant"` // "async" or "live"
	Players []Participant `json:"players"`

	Phase    Phase    `json:"phase"`
	SubPhase SubPhase `json:"subPhase,omitempty"`

	OffensivePlayer   string `json:"offensivePlayer,omitempty"`
	DefensivePlayer   string `json:"defensivePlayer,omitempty"`
	CurrentTurnPlayer string `json:"currentTurnPlayer,omitempty"`
	SetterID          string `json:"setterId,omitempty"`

	CurrentTrick       string `json:"currentTrick,omitempty"`
	LastTrickDesc      string `json:"lastTrickDescription,omitempty"`
	LastTrickBy        string `json:"lastTrickBy,omitempty"`

	NextTurnNumber int `json:"nextTurnNumber"`

	DeadlineAt int64 `json:"deadlineAt,omitempty"` // unix millis, 0 = none
	PausedAt   int64 `json:"pausedAt,omitempty"`
	CreatedAt  int64 `json:"createdAt"`
	UpdatedAt  int64 `json:"updatedAt"`
	CompletedAt int64 `json:"completedAt,omitempty"`
	WinnerID   string `json:"winnerId,omitempty"`

	DisputeUsed map[string]bool `json:"disputeUsed,omitempty"`

	// ProcessedEventIDs is the bounded idempotency log, oldest-first.
	ProcessedEventIDs []string `json:"processedEventIds,omitempty"`

	// LastWarningAt tracks the most recent deadline-warning dispatch time
	// for the reconciler's in-process-fallback dedup (§4.8 sweep 2); it is
	// persisted on the row so a shared store, when available, observes it
	// too rather than relying purely on the in-process map.
	LastWarningAt int64 `json:"lastWarningAt,omitempty"`

	version string // Nakama storage OCC version, not serialized.
}

// Version returns the Nakama storage OCC version this Session was read at.
func (s *Session) Version() string { return s.version }

// SetVersion stamps the OCC version this Session was read at; used by the
// storage layer only.
func (s *Session) SetVersion(v string) { s.version = v }

// Participant returns a pointer to the participant with the given player
// ID, or nil.
func (s *Session) Participant(playerID string) *Participant {
	for i := range s.Players {
		if s.Players[i].PlayerID == playerID {
			return &s.Players[i]
		}
	}
	return nil
}

// ActivePlayers returns the IDs of all non-eliminated participants, in seat
// order.
func (s *Session) ActivePlayers() []string {
	var out []string
	for _, p := range s.Players {
		if !p.Eliminated() {
			out = append(out, p.PlayerID)
		}
	}
	return out
}

// Turn is one recorded video submission (spec §3, "Turn record").
type Turn struct {
	ID            string   `json:"id"`
	SessionID     string   `json:"sessionId"`
	PlayerID      string   `json:"playerId"`
	PlayerName    string   `json:"playerName"`
	TurnNumber    int      `json:"turnNumber"`
	Type          TurnType `json:"type"`
	TrickDesc     string   `json:"trickDescription"`
	VideoURL      string   `json:"videoUrl"`
	VideoDuration int      `json:"videoDurationMs"`
	ThumbnailURL  string   `json:"thumbnailUrl,omitempty"`

	Judgment  Judgment `json:"judgment,omitempty"`
	JudgedBy  string   `json:"judgedBy,omitempty"`
	JudgedAt  int64    `json:"judgedAt,omitempty"`

	CreatedAt int64 `json:"createdAt"`

	version string
}

func (t *Turn) Version() string     { return t.version }
func (t *Turn) SetVersion(v string) { t.version = v }

// Dispute is a single-use appeal of a BAIL judgment (spec §3, "Dispute
// record").
type Dispute struct {
	ID               string   `json:"id"`
	SessionID        string   `json:"sessionId"`
	TurnID           string   `json:"turnId"`
	DisputedBy       string   `json:"disputedBy"`
	RespondentID     string   `json:"respondentId"`
	OriginalJudgment Judgment `json:"originalJudgment"`

	FinalJudgment  Judgment `json:"finalJudgment,omitempty"`
	ResolvedBy     string   `json:"resolvedBy,omitempty"`
	ResolvedAt     int64    `json:"resolvedAt,omitempty"`
	PenaltyTarget  string   `json:"penaltyTarget,omitempty"`

	CreatedAt int64 `json:"createdAt"`

	version string
}

func (d *Dispute) Version() string     { return d.version }
func (d *Dispute) SetVersion(v string) { d.version = v }

// Profile is the per-player reputation counter (spec §3, "Player profile
// counter").
type Profile struct {
	PlayerID         string `json:"playerId"`
	DisputePenalties int    `json:"disputePenalties"`

	version string
}

func (p *Profile) Version() string     { return p.version }
func (p *Profile) SetVersion(v string) { p.version = v }

// Store is the subset of runtime.NakamaModule the gateway and reconciler
// depend on. runtime.NakamaModule satisfies it structurally, and unit tests
// substitute a small in-memory fake instead of faking the full ~60-method
// interface.
type Store interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*runtime.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
	StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error
	MultiUpdate(ctx context.Context, accountUpdates []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, storageDeletes []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, updateLedger bool) ([]*api.StorageObjectAck, error)
	NotificationSend(ctx context.Context, userID, subject string, content map[string]interface{}, code int, sender string, persistent bool) error
	UuidGenerate() string
}
