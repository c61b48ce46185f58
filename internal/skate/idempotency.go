package skate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// EventID derives a deterministic key from an operation kind, the session it
// targets, the acting player, and a sequence key chosen so retries of the
// same client intent produce the same ID (§4.1). For timeouts the sequence
// key is the deadline timestamp being swept; for disconnect-forfeits it is
// the disconnect timestamp; for client-initiated operations it is a
// client-supplied idempotency key.
func EventID(kind, sessionID, actorID, sequenceKey string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", kind, sessionID, actorID, sequenceKey)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// alreadyProcessed reports whether eventID is present in the session's
// bounded idempotency log (§4.1, invariant 7 of §3).
func alreadyProcessed(s *Session, eventID string) bool {
	for _, id := range s.ProcessedEventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

// recordEvent appends eventID to the session's idempotency log and
// truncates it to maxEvents entries, evicting the oldest first.
func recordEvent(s *Session, eventID string, maxEvents int) {
	s.ProcessedEventIDs = append(s.ProcessedEventIDs, eventID)
	if len(s.ProcessedEventIDs) > maxEvents {
		s.ProcessedEventIDs = s.ProcessedEventIDs[len(s.ProcessedEventIDs)-maxEvents:]
	}
}
