package subscriber

import (
	"context"
)

// Repository defines the persistence interface for subscribers and their
// preferences.
type Repository interface {
	// Save inserts or updates a subscriber by chat id.
	Save(ctx context.Context, s *Subscriber) error

	// GetByChatID returns the subscriber with the given chat id.
	// Returns ErrSubscriberNotFound when absent.
	GetByChatID(ctx context.Context, chatID ChatID) (*Subscriber, error)

	// GetSubscribed returns all currently subscribed users.
	GetSubscribed(ctx context.Context) ([]*Subscriber, error)

	// GetPreferences returns the preferences for a chat, creating and
	// persisting the defaults on first access.
	GetPreferences(ctx context.Context, chatID ChatID) (*Preferences, error)

	// SavePreferences inserts or updates preferences by chat id.
	SavePreferences(ctx context.Context, p *Preferences) error
}
