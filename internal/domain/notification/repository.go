package notification

import (
	"context"
	"time"
)

// Repository defines the persistence interface for notification events.
// Reminder events use deterministic ids, so Upsert doubles as reschedule.
type Repository interface {
	// Upsert inserts the event or updates it in place by id.
	Upsert(ctx context.Context, e *Event) error

	// GetByID returns the event with the given id.
	// Returns ErrEventNotFound when absent.
	GetByID(ctx context.Context, id EventID) (*Event, error)

	// GetDueReminders returns pending game reminders scheduled at or
	// before the given time, oldest first.
	GetDueReminders(ctx context.Context, due time.Time, limit int) ([]*Event, error)

	// GetByStatus returns events with the given status, oldest first.
	GetByStatus(ctx context.Context, status Status, limit int) ([]*Event, error)

	// UpdateStatus persists a status change along with attempt count and
	// last error.
	UpdateStatus(ctx context.Context, e *Event) error

	// CancelReminderForGame cancels the pending reminder for a game, if
	// any. No-op when the reminder already fired.
	CancelReminderForGame(ctx context.Context, gamePk int) error

	// DeleteOlderThan removes terminal events created before the cutoff.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
