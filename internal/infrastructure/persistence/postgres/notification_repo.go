package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION EVENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

const eventColumns = `
	id, kind, chat_id, game_pk, transaction_id, scheduled_at, message,
	status, attempts, last_error, sent_at, created_at, updated_at
`

// Upsert inserts the event or updates it in place by id. Terminal events
// are not overwritten: a re-synced reminder must not resurrect one that
// already fired or was withdrawn.
func (r *NotificationRepository) Upsert(ctx context.Context, e *notification.Event) error {
	query := `
		INSERT INTO notification_events (
			id, kind, chat_id, game_pk, transaction_id, scheduled_at, message,
			status, attempts, last_error, sent_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			scheduled_at = EXCLUDED.scheduled_at,
			message = EXCLUDED.message,
			status = EXCLUDED.status,
			updated_at = NOW()
		WHERE notification_events.status NOT IN ('sent', 'cancelled')
	`

	_, err := r.conn.Exec(ctx, query,
		string(e.ID),
		string(e.Kind),
		e.ChatID,
		e.GamePk,
		e.TransactionID,
		nullableTime(e.ScheduledAt),
		e.Message,
		string(e.Status),
		e.Attempts,
		e.LastError,
		e.SentAt,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert event %s: %w", e.ID, err)
	}

	return nil
}

// GetByID returns the event with the given id.
func (r *NotificationRepository) GetByID(ctx context.Context, id notification.EventID) (*notification.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM notification_events WHERE id = $1`, eventColumns)

	row := r.conn.QueryRow(ctx, query, string(id))
	return r.scanEvent(row)
}

// GetDueReminders returns pending game reminders scheduled at or before
// the given time, oldest first.
func (r *NotificationRepository) GetDueReminders(ctx context.Context, due time.Time, limit int) ([]*notification.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notification_events
		WHERE kind = 'game_reminder' AND status = 'pending' AND scheduled_at <= $1
		ORDER BY scheduled_at
		LIMIT $2
	`, eventColumns)

	rows, err := r.conn.Query(ctx, query, due, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	return r.scanEvents(rows)
}

// GetByStatus returns events with the given status, oldest first.
func (r *NotificationRepository) GetByStatus(ctx context.Context, status notification.Status, limit int) ([]*notification.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notification_events
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
	`, eventColumns)

	rows, err := r.conn.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by status: %w", err)
	}
	defer rows.Close()

	return r.scanEvents(rows)
}

// UpdateStatus persists a status change along with attempt count and last
// error.
func (r *NotificationRepository) UpdateStatus(ctx context.Context, e *notification.Event) error {
	query := `
		UPDATE notification_events SET
			status = $1,
			attempts = $2,
			last_error = $3,
			sent_at = $4,
			updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.conn.Exec(ctx, query,
		string(e.Status),
		e.Attempts,
		e.LastError,
		e.SentAt,
		string(e.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", e.ID, err)
	}
	if result.RowsAffected() == 0 {
		return notification.ErrEventNotFound
	}

	return nil
}

// CancelReminderForGame cancels the pending reminder for a game, if any.
// A reminder that already fired is left alone.
func (r *NotificationRepository) CancelReminderForGame(ctx context.Context, gamePk int) error {
	query := `
		UPDATE notification_events SET
			status = 'cancelled',
			updated_at = NOW()
		WHERE game_pk = $1 AND kind = 'game_reminder' AND status IN ('pending', 'batched')
	`

	_, err := r.conn.Exec(ctx, query, gamePk)
	if err != nil {
		return fmt.Errorf("failed to cancel reminder for game %d: %w", gamePk, err)
	}

	return nil
}

// DeleteOlderThan removes terminal events created before the cutoff.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM notification_events
		WHERE created_at < $1 AND status IN ('sent', 'failed', 'cancelled')
	`

	result, err := r.conn.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old events: %w", err)
	}

	return result.RowsAffected(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *NotificationRepository) scanEvent(row pgx.Row) (*notification.Event, error) {
	var e notification.Event
	var id, kind, status string
	var scheduledAt *time.Time

	err := row.Scan(
		&id,
		&kind,
		&e.ChatID,
		&e.GamePk,
		&e.TransactionID,
		&scheduledAt,
		&e.Message,
		&status,
		&e.Attempts,
		&e.LastError,
		&e.SentAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, notification.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	e.ID = notification.EventID(id)
	e.Kind = notification.Kind(kind)
	e.Status = notification.Status(status)
	if scheduledAt != nil {
		e.ScheduledAt = *scheduledAt
	}

	return &e, nil
}

func (r *NotificationRepository) scanEvents(rows pgx.Rows) ([]*notification.Event, error) {
	var events []*notification.Event

	for rows.Next() {
		e, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
