package redis

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION SEEN TRACKER
// ══════════════════════════════════════════════════════════════════════════════

// SeenTracker records which transaction ids have already been processed,
// using SETNX with a TTL so the markers expire on their own once they fall
// out of the pipeline's lookback window. It implements the pipeline's
// SeenTracker interface.
type SeenTracker struct {
	cache *Cache
}

// NewSeenTracker creates a SeenTracker on top of the given cache.
func NewSeenTracker(cache *Cache) *SeenTracker {
	return &SeenTracker{cache: cache}
}

// MarkSeen atomically records the transaction id. Returns true when this
// call was the first to see it.
func (t *SeenTracker) MarkSeen(ctx context.Context, id int64) (bool, error) {
	first, err := t.cache.SetNX(ctx, SeenKey(id), "1", TTLSeenMarker)
	if err != nil {
		return false, fmt.Errorf("mark transaction %d seen: %w", id, err)
	}
	return first, nil
}
