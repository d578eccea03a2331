package visited

import (
	"log"
	"sync"
)

// Tracker records which link targets have been activated during the
// session. The set only grows; there is no way to mark a target unvisited.
// Reads happen at render time and writes from job goroutines, so access is
// serialized behind a single lock.
type Tracker struct {
	mu    sync.RWMutex
	seen  map[string]struct{}
	store *Store
}

// NewTracker returns an empty tracker. If store is non-nil the tracker is
// seeded from it and every Record is written through, so visited styling
// survives restarts.
func NewTracker(store *Store) *Tracker {
	t := &Tracker{seen: map[string]struct{}{}, store: store}
	if store != nil {
		targets, err := store.Targets()
		if err != nil {
			log.Printf("[visited] seed from history failed: %v", err)
			return t
		}
		for _, target := range targets {
			t.seen[target] = struct{}{}
		}
	}
	return t
}

// Record marks target as visited. Recording an already-visited target is a
// no-op apart from the history counter.
func (t *Tracker) Record(target string) {
	if target == "" {
		return
	}
	t.mu.Lock()
	t.seen[target] = struct{}{}
	t.mu.Unlock()
	if t.store != nil {
		if err := t.store.Record(target); err != nil {
			log.Printf("[visited] persist %q failed: %v", target, err)
		}
	}
}

// IsVisited reports whether target has been activated at least once.
func (t *Tracker) IsVisited(target string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.seen[target]
	return ok
}

// Count returns the number of distinct visited targets.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.seen)
}
