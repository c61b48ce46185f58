package skate

import (
	"sync"
	"time"
)

// cooldownTracker is the in-process fallback dedup for deadline warnings
// (spec.md §4.8 sweep 2, §9). It is local to a single server instance by
// design (spec.md §5 "Shared-resource policy") — correctness against
// duplicate warnings across instances is preserved by the session's own
// LastWarningAt field, persisted to storage; this tracker only avoids
// redundant work inside one process between reconciler ticks.
type cooldownTracker struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newCooldownTracker() *cooldownTracker {
	return &cooldownTracker{seen: make(map[string]time.Time)}
}

func (c *cooldownTracker) recentlyWarned(sessionID string, cooldown time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.seen[sessionID]
	if !ok {
		return false
	}
	return time.Since(last) < cooldown
}

func (c *cooldownTracker) recordWarning(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[sessionID] = time.Now()
	if len(c.seen) > 10000 {
		c.evictOldest()
	}
}

// evictOldest caps unbounded growth by dropping the single oldest entry.
// Called only while the map is over a generous threshold, so maps below it
// never pay for the O(n) scan; once over it, each new session's insert
// runs one scan.
func (c *cooldownTracker) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, v := range c.seen {
		if first || v.Before(oldestTime) {
			oldestKey, oldestTime, first = k, v, false
		}
	}
	delete(c.seen, oldestKey)
}
