package skate

// This file holds the pure state-transition rules of §4.2: no I/O, no
// randomness, no wall-clock reads except where a deadline is explicitly
// passed in. They are the part of the engine meant to be exhaustively
// property-tested without a database.

const fullBoard = "SKATE"

// NextLetters appends the next character of "SKATE" to current, or returns
// current unchanged if it is already the full board (§4.2.1).
func NextLetters(current string) string {
	if len(current) >= len(fullBoard) {
		return current
	}
	return current + string(fullBoard[len(current)])
}

// Eliminated reports whether letters spells out the full board.
func Eliminated(letters string) bool { return letters == fullBoard }

// JudgmentOutcome is the pure result of applying a judge/setter-bail event
// to a session: which player earns a letter, and whether roles swap.
type JudgmentOutcome struct {
	LetterTo    string // player ID who gains a letter; "" if none
	RolesSwap   bool
	NewOffense  string
	NewDefense  string
}

// ApplyJudgment computes the outcome of a defender's judgment on the open
// set turn, per §4.2.2.
func ApplyJudgment(offense, defense string, result Judgment) JudgmentOutcome {
	if result == JudgmentMissed {
		// BAIL: defender earns a letter; roles do not swap.
		return JudgmentOutcome{LetterTo: defense, RolesSwap: false, NewOffense: offense, NewDefense: defense}
	}
	// LAND: roles swap, no letter.
	return JudgmentOutcome{LetterTo: "", RolesSwap: true, NewOffense: defense, NewDefense: offense}
}

// ApplySetterBail computes the outcome of a setter declaring their own
// attempt a bail, per §4.2.3: the setter earns a letter themself and roles
// swap (an intentional asymmetry with ApplyJudgment's BAIL case — see
// DESIGN.md).
func ApplySetterBail(offense, defense string) JudgmentOutcome {
	return JudgmentOutcome{LetterTo: offense, RolesSwap: true, NewOffense: defense, NewDefense: offense}
}

// NextSetterAfterRound implements the multi-player turn advance of §4.2.4:
// skip eliminated players by linear scan modulo N starting just after
// setterID. If every other player is eliminated the round is over and the
// current setter remains (caller should treat this as game-over, since
// exactly one non-eliminated player remains). ids must be in stable seat
// order and setterID must be present in ids.
func NextSetterAfterRound(ids []string, eliminated map[string]bool, setterID string) string {
	n := len(ids)
	if n == 0 {
		return setterID
	}
	start := indexOf(ids, setterID)
	if start < 0 {
		start = 0
	}
	// A single fresh counter bounds the scan to exactly one lap, fixing the
	// reused-counter wraparound bug flagged in spec.md §9: we visit at most
	// n-1 candidates after start and never loop a second time.
	for step := 1; step <= n; step++ {
		idx := (start + step) % n
		candidate := ids[idx]
		if candidate == setterID {
			// wrapped all the way around without finding a non-eliminated
			// candidate other than the setter itself.
			return setterID
		}
		if !eliminated[candidate] {
			return candidate
		}
	}
	return setterID
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// GameOverResult reports whether letter accretion ended the game and, if so,
// who won.
type GameOverResult struct {
	Over     bool
	WinnerID string
}

// CheckGameOverAsync implements §4.2.5 for the async 1v1 variant: the
// opponent of the newly-eliminated player wins.
func CheckGameOverAsync(loserID, otherID string, loserLetters string) GameOverResult {
	if !Eliminated(loserLetters) {
		return GameOverResult{}
	}
	return GameOverResult{Over: true, WinnerID: otherID}
}

// CheckGameOverLive implements §4.2.5 for the live multi-player variant: if
// exactly one player remains non-eliminated, they win; otherwise the round
// continues.
func CheckGameOverLive(activePlayers []string) GameOverResult {
	if len(activePlayers) == 1 {
		return GameOverResult{Over: true, WinnerID: activePlayers[0]}
	}
	return GameOverResult{}
}
