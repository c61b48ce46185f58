package skate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextLetters(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "S"},
		{"S", "SK"},
		{"SKAT", "SKATE"},
		{"SKATE", "SKATE"}, // already full, unchanged
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NextLetters(c.in))
	}
}

func TestEliminated(t *testing.T) {
	assert.False(t, Eliminated(""))
	assert.False(t, Eliminated("SKAT"))
	assert.True(t, Eliminated("SKATE"))
}

func TestApplyJudgment_Missed_DefenderTakesLetterNoSwap(t *testing.T) {
	outcome := ApplyJudgment("alice", "bob", JudgmentMissed)
	assert.Equal(t, "bob", outcome.LetterTo)
	assert.False(t, outcome.RolesSwap)
	assert.Equal(t, "alice", outcome.NewOffense)
	assert.Equal(t, "bob", outcome.NewDefense)
}

func TestApplyJudgment_Landed_RolesSwapNoLetter(t *testing.T) {
	outcome := ApplyJudgment("alice", "bob", JudgmentLanded)
	assert.Empty(t, outcome.LetterTo)
	assert.True(t, outcome.RolesSwap)
	assert.Equal(t, "bob", outcome.NewOffense)
	assert.Equal(t, "alice", outcome.NewDefense)
}

// ApplySetterBail is an intentional asymmetry with ApplyJudgment's BAIL
// case: the setter (not the defender) earns the letter, and roles still
// swap.
func TestApplySetterBail(t *testing.T) {
	outcome := ApplySetterBail("alice", "bob")
	assert.Equal(t, "alice", outcome.LetterTo)
	assert.True(t, outcome.RolesSwap)
	assert.Equal(t, "bob", outcome.NewOffense)
	assert.Equal(t, "alice", outcome.NewDefense)
}

func TestNextSetterAfterRound_SkipsEliminated(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	eliminated := map[string]bool{"b": true, "c": true}
	next := NextSetterAfterRound(ids, eliminated, "a")
	assert.Equal(t, "d", next)
}

// This is the regression test for the wraparound bug spec.md §9 flags: a
// single fresh counter must visit at most n-1 other candidates and never
// loop twice, even when the setter sits at the end of the slice.
func TestNextSetterAfterRound_WrapsExactlyOnce(t *testing.T) {
	ids := []string{"a", "b", "c"}
	eliminated := map[string]bool{"a": true, "b": true}
	next := NextSetterAfterRound(ids, eliminated, "c")
	require.Equal(t, "c", next, "only the setter remains non-eliminated, so it is returned unchanged")
}

func TestNextSetterAfterRound_AllOthersEliminated(t *testing.T) {
	ids := []string{"a", "b"}
	eliminated := map[string]bool{"b": true}
	assert.Equal(t, "a", NextSetterAfterRound(ids, eliminated, "a"))
}

func TestCheckGameOverAsync(t *testing.T) {
	res := CheckGameOverAsync("alice", "bob", "SKAT")
	assert.False(t, res.Over)

	res = CheckGameOverAsync("alice", "bob", "SKATE")
	assert.True(t, res.Over)
	assert.Equal(t, "bob", res.WinnerID)
}

func TestCheckGameOverLive(t *testing.T) {
	res := CheckGameOverLive([]string{"a", "b", "c"})
	assert.False(t, res.Over)

	res = CheckGameOverLive([]string{"a"})
	assert.True(t, res.Over)
	assert.Equal(t, "a", res.WinnerID)
}
