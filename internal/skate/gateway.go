package skate

import (
	"context"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	skateerr "github.com/myhuemungusD/skatehubba/internal/errors"
	"github.com/myhuemungusD/skatehubba/internal/notify"
)

// This file is the transactional gateway of §4.3: lock -> reread ->
// validate -> write -> log. Nakama has no literal "SELECT ... FOR UPDATE";
// its storage engine substitutes optimistic concurrency control via the
// per-object Version field, so "lock" here means "read the current version
// and let the conditional write fail if it changed underneath us" — the
// idiomatic OCC read-modify-write-with-retry pattern the teacher used for
// item progression (items/progression.go's PrepareProgressionUpdate).
//
// The session, turn, dispute and profile rows a single mutation touches
// must land together or not at all, the same atomicity guarantee the
// teacher gives reward grants: items/pending_writes.go accumulates every
// row a reward run touches into one pending batch, then items/rewards.go
// commits it with a single nk.MultiUpdate call. This gateway does the
// same: every row is built but not sent until the commit step, where one
// MultiUpdate call either lands all of them or none.

// maxGatewayRetries bounds the read-validate-write retry loop on OCC
// conflicts. A conflict here means a concurrent request touched the same
// session; spec.md's locking model assumes a single winner proceeds and
// losers retry with the same event ID, which this loop does in-process.
const maxGatewayRetries = 5

// Mutation is the reusable shape every session-mutating operation takes:
// given the freshly re-read session, compute the next state or reject.
// The returned Result's Notifications are fired after commit and may be
// nil.
type Mutation struct {
	EventID  string
	Mutate   func(s *Session) (*Result, error)
}

// Result is what a successful Mutation produces: the (already-mutated)
// session plus any turn/dispute/profile rows that must commit in the same
// transaction, plus post-commit effects.
type Result struct {
	Turn           *Turn
	Dispute        *Dispute
	ProfileDeltas  map[string]int // playerID -> dispute_penalties delta
	AlreadyProcessed bool
	Notifications  []PendingNotification
}

// PendingNotification is a notification to fire strictly after commit.
type PendingNotification struct {
	Type      string
	PlayerID  string
	Title     string
	Extra     map[string]interface{}
}

// RunMutation implements the full gateway envelope for sessionID. It is the
// single chokepoint every lifecycle/turn/dispute/forfeit operation in this
// package calls through.
func RunMutation(ctx context.Context, nk Store, logger runtime.Logger, cfg Config, sessionID string, m Mutation) (*Session, *Result, error) {
	for attempt := 0; attempt < maxGatewayRetries; attempt++ {
		session, found, err := readSession(ctx, nk, sessionID)
		if err != nil {
			return nil, nil, err
		}
		if !found {
			return nil, nil, skateerr.ErrGameNotFound
		}

		if alreadyProcessed(session, m.EventID) {
			return session, &Result{AlreadyProcessed: true}, nil
		}

		result, err := m.Mutate(session)
		if err != nil {
			// A validated precondition failure is not a conflict: return it
			// directly, no retry.
			return session, nil, err
		}

		recordEvent(session, m.EventID, cfg.MaxProcessedEvents)
		session.UpdatedAt = nowMillis()

		profiles := make(map[string]*Profile, len(result.ProfileDeltas))
		for playerID := range result.ProfileDeltas {
			profile, err := readProfile(ctx, nk, playerID)
			if err != nil {
				return nil, nil, err
			}
			profiles[playerID] = profile
		}
		for playerID, delta := range result.ProfileDeltas {
			profiles[playerID].DisputePenalties += delta
		}

		writes, targets, err := buildBatchWrites(session, result, profiles)
		if err != nil {
			return nil, nil, err
		}

		acks, err := nk.MultiUpdate(ctx, nil, writes, nil, nil, false)
		if err != nil {
			continue // a row's version check failed; a concurrent writer won this round, reread and retry the whole batch
		}
		if len(acks) != len(targets) {
			return nil, nil, skateerr.ErrCouldNotWriteStorage
		}
		for i, target := range targets {
			target.SetVersion(acks[i].GetVersion())
		}

		// Notifications fire strictly after commit: a delivery failure must
		// never unwind an already-written state transition (notify.Dispatch
		// itself swallows every channel error for exactly this reason).
		for _, n := range result.Notifications {
			notify.Dispatch(ctx, nk, logger, notify.Type(n.Type), sessionID, n.PlayerID, n.Title, n.Extra)
		}

		return session, result, nil
	}
	return nil, nil, skateerr.ErrGatewayConflict
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// versioned is the OCC-version half of the Store row contract; Session,
// Turn, Dispute and Profile all implement it.
type versioned interface {
	Version() string
	SetVersion(string)
}

// buildBatchWrites collects every row one gateway commit touches — the
// session, an optional turn, an optional dispute and any profile counters —
// into a single slice of storage writes, paired with the row each write
// came from so the commit step can stamp the returned versions back onto
// them. Nothing here is sent to storage; RunMutation commits the whole
// batch with one MultiUpdate call.
func buildBatchWrites(session *Session, result *Result, profiles map[string]*Profile) ([]*runtime.StorageWrite, []versioned, error) {
	var writes []*runtime.StorageWrite
	var targets []versioned

	w, err := buildWrite(CollectionGames, session.ID, session.Version(), session)
	if err != nil {
		return nil, nil, err
	}
	writes = append(writes, w)
	targets = append(targets, session)

	if result.Turn != nil {
		w, err := buildWrite(CollectionTurns, result.Turn.ID, result.Turn.Version(), result.Turn)
		if err != nil {
			return nil, nil, err
		}
		writes = append(writes, w)
		targets = append(targets, result.Turn)
	}

	if result.Dispute != nil {
		w, err := buildWrite(CollectionDisputes, result.Dispute.ID, result.Dispute.Version(), result.Dispute)
		if err != nil {
			return nil, nil, err
		}
		writes = append(writes, w)
		targets = append(targets, result.Dispute)
	}

	for playerID, profile := range profiles {
		w, err := buildWrite(CollectionProfiles, playerID, profile.Version(), profile)
		if err != nil {
			return nil, nil, err
		}
		writes = append(writes, w)
		targets = append(targets, profile)
	}

	return writes, targets, nil
}
