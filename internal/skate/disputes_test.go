package skate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedSessionWithBail builds a session already past one BAIL judgment: bob
// (the defender) holds a single letter from missing alice's set trick, and
// the disputed turn is already on record for FileDispute to reference.
func seedSessionWithBail(t *testing.T, store *fakeStore) (*Session, *Turn) {
	t.Helper()
	ctx := context.Background()

	session := &Session{
		ID:              "disputed-game",
		Variant:         "async",
		Phase:           PhaseActive,
		SubPhase:        SubSetTrick,
		OffensivePlayer: "alice",
		DefensivePlayer: "bob",
		Players: []Participant{
			{PlayerID: "alice", DisplayName: "Alice"},
			{PlayerID: "bob", DisplayName: "Bob", Letters: "S"},
		},
		NextTurnNumber: 2,
	}
	seedSession(t, store, session)

	turn := &Turn{
		ID:        "set-turn-1",
		SessionID: session.ID,
		PlayerID:  "alice",
		Type:      TurnSet,
		Judgment:  JudgmentMissed,
		JudgedBy:  "bob",
	}
	require.NoError(t, writeTurn(ctx, store, turn))

	return session, turn
}

func TestFileDispute_OnlySetterOfDisputedTurnMayFile(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session, turn := seedSessionWithBail(t, store)

	_, _, _, err := FileDispute(ctx, store, noopLogger{}, DefaultConfig(), session.ID, "bob", "ev-file", turn.ID)
	assert.Error(t, err, "only the player who set the disputed trick may file against the judge's call")
}

func TestFileDispute_QuotaEnforced(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session, turn := seedSessionWithBail(t, store)

	_, dispute, already, err := FileDispute(ctx, store, noopLogger{}, DefaultConfig(), session.ID, "alice", "ev-file", turn.ID)
	require.NoError(t, err)
	require.False(t, already)
	require.NotNil(t, dispute)
	assert.Equal(t, "bob", dispute.RespondentID)

	_, _, _, err = FileDispute(ctx, store, noopLogger{}, DefaultConfig(), session.ID, "alice", "ev-file-2", turn.ID)
	assert.Error(t, err, "a player gets exactly one dispute per game")
}

func TestResolveDispute_UpheldStripsLetterAndReassignsOffense(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cfg := DefaultConfig()
	session, turn := seedSessionWithBail(t, store)

	_, dispute, _, err := FileDispute(ctx, store, noopLogger{}, cfg, session.ID, "alice", "ev-file", turn.ID)
	require.NoError(t, err)

	updated, resolved, already, err := ResolveDispute(ctx, store, noopLogger{}, cfg, dispute.ID, "bob", "ev-resolve", JudgmentLanded)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, JudgmentLanded, resolved.FinalJudgment)
	assert.Equal(t, "bob", resolved.PenaltyTarget, "upholding the dispute penalizes the judge, not the disputer")

	assert.Empty(t, updated.Participant("bob").Letters, "the letter the missed call granted bob must be stripped")
	assert.Equal(t, "bob", updated.OffensivePlayer, "roles swap as a direct LAND judgment would: the judge becomes offensive")
	assert.Equal(t, "alice", updated.DefensivePlayer)
}

func TestResolveDispute_DeniedPenalizesDisputer(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cfg := DefaultConfig()
	session, turn := seedSessionWithBail(t, store)

	_, dispute, _, err := FileDispute(ctx, store, noopLogger{}, cfg, session.ID, "alice", "ev-file", turn.ID)
	require.NoError(t, err)

	_, resolved, _, err := ResolveDispute(ctx, store, noopLogger{}, cfg, dispute.ID, "bob", "ev-resolve", JudgmentMissed)
	require.NoError(t, err)
	assert.Equal(t, "alice", resolved.PenaltyTarget, "a denied dispute penalizes the disputer for a frivolous appeal")

	profile, err := readProfile(ctx, store, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.DisputePenalties)
}

func TestResolveDispute_OnlyRespondentMayResolve(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cfg := DefaultConfig()
	session, turn := seedSessionWithBail(t, store)

	_, dispute, _, err := FileDispute(ctx, store, noopLogger{}, cfg, session.ID, "alice", "ev-file", turn.ID)
	require.NoError(t, err)

	_, _, _, err = ResolveDispute(ctx, store, noopLogger{}, cfg, dispute.ID, "alice", "ev-resolve", JudgmentLanded)
	assert.Error(t, err, "the disputer cannot resolve their own dispute")
}
