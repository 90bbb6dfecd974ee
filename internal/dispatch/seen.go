package dispatch

import (
	"context"
	"sync"
)

// MemorySeenTracker is an in-process SeenTracker used when Redis is
// disabled. Markers do not survive a restart; the pipeline's fallback on
// the persisted notified flag covers that gap.
type MemorySeenTracker struct {
	mu   sync.Mutex
	seen map[int64]struct{}
}

// NewMemorySeenTracker creates an empty in-process tracker.
func NewMemorySeenTracker() *MemorySeenTracker {
	return &MemorySeenTracker{seen: make(map[int64]struct{})}
}

// MarkSeen records the id, returning true on first sight.
func (t *MemorySeenTracker) MarkSeen(_ context.Context, id int64) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[id]; ok {
		return false, nil
	}
	t.seen[id] = struct{}{}
	return true, nil
}
