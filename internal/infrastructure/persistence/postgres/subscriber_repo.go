package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/subscriber"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIBER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubscriberRepository implements subscriber.Repository for PostgreSQL.
type SubscriberRepository struct {
	conn *Connection
}

// NewSubscriberRepository creates a new SubscriberRepository.
func NewSubscriberRepository(conn *Connection) *SubscriberRepository {
	return &SubscriberRepository{conn: conn}
}

const subscriberColumns = `
	chat_id, username, first_name, last_name, subscribed, timezone, created_at, last_seen_at
`

// Save inserts or updates a subscriber by chat id.
func (r *SubscriberRepository) Save(ctx context.Context, s *subscriber.Subscriber) error {
	query := `
		INSERT INTO subscribers (
			chat_id, username, first_name, last_name, subscribed, timezone, created_at, last_seen_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (chat_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			subscribed = EXCLUDED.subscribed,
			timezone = EXCLUDED.timezone,
			last_seen_at = EXCLUDED.last_seen_at
	`

	_, err := r.conn.Exec(ctx, query,
		int64(s.ChatID),
		s.Username,
		s.FirstName,
		s.LastName,
		s.Subscribed,
		s.Timezone,
		s.CreatedAt,
		s.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save subscriber %d: %w", int64(s.ChatID), err)
	}

	return nil
}

// GetByChatID returns the subscriber with the given chat id.
func (r *SubscriberRepository) GetByChatID(ctx context.Context, chatID subscriber.ChatID) (*subscriber.Subscriber, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscribers WHERE chat_id = $1`, subscriberColumns)

	row := r.conn.QueryRow(ctx, query, int64(chatID))
	return r.scanSubscriber(row)
}

// GetSubscribed returns all currently subscribed users.
func (r *SubscriberRepository) GetSubscribed(ctx context.Context) ([]*subscriber.Subscriber, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM subscribers
		WHERE subscribed = TRUE
		ORDER BY chat_id
	`, subscriberColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribed users: %w", err)
	}
	defer rows.Close()

	var subs []*subscriber.Subscriber
	for rows.Next() {
		s, err := r.scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

// GetPreferences returns the preferences for a chat, creating and
// persisting the defaults on first access.
func (r *SubscriberRepository) GetPreferences(ctx context.Context, chatID subscriber.ChatID) (*subscriber.Preferences, error) {
	query := `
		SELECT chat_id, trades, signings, recalls, options, injuries, activations,
			   releases, status_changes, other, major_league_only
		FROM subscriber_preferences
		WHERE chat_id = $1
	`

	var p subscriber.Preferences
	var cid int64

	err := r.conn.QueryRow(ctx, query, int64(chatID)).Scan(
		&cid,
		&p.Trades,
		&p.Signings,
		&p.Recalls,
		&p.Options,
		&p.Injuries,
		&p.Activations,
		&p.Releases,
		&p.StatusChanges,
		&p.Other,
		&p.MajorLeagueOnly,
	)
	if err != nil {
		if IsNoRows(err) {
			defaults := subscriber.DefaultPreferences(chatID)
			if saveErr := r.SavePreferences(ctx, defaults); saveErr != nil {
				return nil, saveErr
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("failed to scan preferences: %w", err)
	}

	p.ChatID = subscriber.ChatID(cid)
	return &p, nil
}

// SavePreferences inserts or updates preferences by chat id.
func (r *SubscriberRepository) SavePreferences(ctx context.Context, p *subscriber.Preferences) error {
	query := `
		INSERT INTO subscriber_preferences (
			chat_id, trades, signings, recalls, options, injuries, activations,
			releases, status_changes, other, major_league_only
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (chat_id) DO UPDATE SET
			trades = EXCLUDED.trades,
			signings = EXCLUDED.signings,
			recalls = EXCLUDED.recalls,
			options = EXCLUDED.options,
			injuries = EXCLUDED.injuries,
			activations = EXCLUDED.activations,
			releases = EXCLUDED.releases,
			status_changes = EXCLUDED.status_changes,
			other = EXCLUDED.other,
			major_league_only = EXCLUDED.major_league_only
	`

	_, err := r.conn.Exec(ctx, query,
		int64(p.ChatID),
		p.Trades,
		p.Signings,
		p.Recalls,
		p.Options,
		p.Injuries,
		p.Activations,
		p.Releases,
		p.StatusChanges,
		p.Other,
		p.MajorLeagueOnly,
	)
	if err != nil {
		return fmt.Errorf("failed to save preferences for %d: %w", int64(p.ChatID), err)
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *SubscriberRepository) scanSubscriber(row pgx.Row) (*subscriber.Subscriber, error) {
	var s subscriber.Subscriber
	var chatID int64

	err := row.Scan(
		&chatID,
		&s.Username,
		&s.FirstName,
		&s.LastName,
		&s.Subscribed,
		&s.Timezone,
		&s.CreatedAt,
		&s.LastSeenAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, subscriber.ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("failed to scan subscriber: %w", err)
	}

	s.ChatID = subscriber.ChatID(chatID)
	return &s, nil
}
