package transaction

import (
	"context"
	"time"
)

// Repository defines the persistence interface for transactions.
// Upsert is keyed by the MLB transaction id; re-fetching a sliding window
// of recent days therefore never produces duplicates.
type Repository interface {
	// Upsert inserts the transaction or updates it in place by id.
	Upsert(ctx context.Context, t *Transaction) error

	// GetByID returns the transaction with the given id.
	// Returns ErrTransactionNotFound when absent.
	GetByID(ctx context.Context, id int64) (*Transaction, error)

	// GetUnnotified returns transactions not yet delivered, oldest first.
	GetUnnotified(ctx context.Context, limit int) ([]*Transaction, error)

	// GetRecent returns transactions dated on or after the given time,
	// newest first, up to limit.
	GetRecent(ctx context.Context, since time.Time, limit int) ([]*Transaction, error)

	// MarkNotified flips the notified flag for the given ids.
	MarkNotified(ctx context.Context, ids []int64) error
}
