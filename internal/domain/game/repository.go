package game

import (
	"context"
	"time"
)

// Repository defines the persistence interface for games.
// Upsert is keyed by gamePk so a schedule re-sync never duplicates rows.
type Repository interface {
	// Upsert inserts the game or updates it in place by pk.
	Upsert(ctx context.Context, g *Game) error

	// GetByPk returns the game with the given pk.
	// Returns ErrGameNotFound when absent.
	GetByPk(ctx context.Context, pk Pk) (*Game, error)

	// GetUpcoming returns scheduled games with first pitch after the
	// given time, ordered by game date, up to limit.
	GetUpcoming(ctx context.Context, after time.Time, limit int) ([]*Game, error)

	// GetByDateRange returns games with first pitch inside [from, to].
	GetByDateRange(ctx context.Context, from, to time.Time) ([]*Game, error)

	// MarkNotified flips the notification flag for a game.
	MarkNotified(ctx context.Context, pk Pk) error
}
