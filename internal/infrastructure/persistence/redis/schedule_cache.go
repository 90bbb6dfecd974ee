package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// nextGameKey caches the answer to /nextgame between schedule syncs.
const nextGameKey = "next_game"

// ScheduleCache keeps hot schedule lookups out of PostgreSQL. Entries have
// a short TTL and are invalidated wholesale on every schedule sync.
type ScheduleCache struct {
	cache *Cache
}

// NewScheduleCache creates a ScheduleCache on top of the given cache.
func NewScheduleCache(cache *Cache) *ScheduleCache {
	return &ScheduleCache{cache: cache}
}

// GetNextGame returns the cached next game, or (nil, nil) on a miss.
func (sc *ScheduleCache) GetNextGame(ctx context.Context) (*game.Game, error) {
	var g game.Game
	err := sc.cache.Get(ctx, ScheduleKey(nextGameKey), &g)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("get next game: %w", err)
	}
	return &g, nil
}

// SetNextGame caches the next game.
func (sc *ScheduleCache) SetNextGame(ctx context.Context, g *game.Game) error {
	if g == nil {
		return nil
	}
	return sc.cache.Set(ctx, ScheduleKey(nextGameKey), g, TTLScheduleCache)
}

// Invalidate drops all cached schedule lookups.
func (sc *ScheduleCache) Invalidate(ctx context.Context) error {
	return sc.cache.DeleteByPattern(ctx, PrefixSchedule+"*")
}
