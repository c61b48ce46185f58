package skate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skateerr "github.com/myhuemungusD/skatehubba/internal/errors"
)

func seedSession(t *testing.T, store *fakeStore, s *Session) {
	t.Helper()
	s.SetVersion("")
	require.NoError(t, writeSession(context.Background(), store, s))
}

func TestRunMutation_NotFound(t *testing.T) {
	store := newFakeStore()
	_, _, err := RunMutation(context.Background(), store, noopLogger{}, DefaultConfig(), "missing", Mutation{
		EventID: "ev1",
		Mutate:  func(s *Session) (*Result, error) { return &Result{}, nil },
	})
	assert.ErrorIs(t, err, skateerr.ErrGameNotFound)
}

func TestRunMutation_IdempotentReplay(t *testing.T) {
	store := newFakeStore()
	session := &Session{ID: "g1", Phase: PhaseActive}
	seedSession(t, store, session)

	calls := 0
	mutate := func(s *Session) (*Result, error) {
		calls++
		s.NextTurnNumber++
		return &Result{}, nil
	}

	_, result1, err := RunMutation(context.Background(), store, noopLogger{}, DefaultConfig(), "g1", Mutation{EventID: "ev1", Mutate: mutate})
	require.NoError(t, err)
	assert.False(t, result1.AlreadyProcessed)

	_, result2, err := RunMutation(context.Background(), store, noopLogger{}, DefaultConfig(), "g1", Mutation{EventID: "ev1", Mutate: mutate})
	require.NoError(t, err)
	assert.True(t, result2.AlreadyProcessed)
	assert.Equal(t, 1, calls, "a replayed event ID must not re-run the mutation")
}

func TestRunMutation_RetriesOnConflictThenSucceeds(t *testing.T) {
	store := newFakeStore()
	session := &Session{ID: "g2", Phase: PhaseActive}
	seedSession(t, store, session)

	store.forceConflict(CollectionGames, "g2")

	_, result, err := RunMutation(context.Background(), store, noopLogger{}, DefaultConfig(), "g2", Mutation{
		EventID: "ev2",
		Mutate: func(s *Session) (*Result, error) {
			s.NextTurnNumber++
			return &Result{}, nil
		},
	})
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)

	final, found, err := readSession(context.Background(), store, "g2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, final.NextTurnNumber, "the mutation must have been re-applied after the forced conflict")
}

func TestRunMutation_ValidationErrorDoesNotRetry(t *testing.T) {
	store := newFakeStore()
	session := &Session{ID: "g3", Phase: PhaseActive}
	seedSession(t, store, session)

	calls := 0
	_, _, err := RunMutation(context.Background(), store, noopLogger{}, DefaultConfig(), "g3", Mutation{
		EventID: "ev3",
		Mutate: func(s *Session) (*Result, error) {
			calls++
			return nil, skateerr.ErrWrongPhase
		},
	})
	assert.ErrorIs(t, err, skateerr.ErrWrongPhase)
	assert.Equal(t, 1, calls, "a rejected precondition is not a storage conflict and must not retry")
}

func TestRunMutation_DispatchesNotificationsAfterCommit(t *testing.T) {
	store := newFakeStore()
	session := &Session{ID: "g4", Phase: PhaseActive}
	seedSession(t, store, session)

	_, result, err := RunMutation(context.Background(), store, noopLogger{}, DefaultConfig(), "g4", Mutation{
		EventID: "ev4",
		Mutate: func(s *Session) (*Result, error) {
			return &Result{Notifications: []PendingNotification{
				{Type: "your_turn", PlayerID: "alice", Title: "hi"},
			}}, nil
		},
	})
	require.NoError(t, err)
	assert.Len(t, result.Notifications, 1)
	assert.Equal(t, []string{"alice"}, store.notified, "the committed mutation's notification must be dispatched")
}
