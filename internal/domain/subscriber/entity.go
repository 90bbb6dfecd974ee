// Package subscriber contains the domain model for bot subscribers and
// their notification preferences. A subscriber is identified by their
// Telegram chat id; there is no separate account system.
package subscriber

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ChatID is a Telegram chat id. Positive for private chats, negative for
// groups and channels.
type ChatID int64

// IsValid checks that the chat id is non-zero.
func (id ChatID) IsValid() bool {
	return id != 0
}

// String returns the string representation of the chat id.
func (id ChatID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIBER ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Subscriber represents a Telegram user or chat receiving notifications.
type Subscriber struct {
	// ChatID is the Telegram chat id, the natural key.
	ChatID ChatID

	// Username, FirstName, LastName come from the Telegram profile.
	Username  string
	FirstName string
	LastName  string

	// Subscribed is false after /stop; the row is kept so preferences
	// survive a resubscribe.
	Subscribed bool

	// Timezone is the IANA timezone for message timestamps.
	Timezone string

	// CreatedAt and LastSeenAt are bookkeeping timestamps.
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// NewSubscriber creates a subscriber with validation.
func NewSubscriber(chatID ChatID, username, firstName, lastName string) (*Subscriber, error) {
	if !chatID.IsValid() {
		return nil, ErrInvalidChatID
	}

	now := time.Now().UTC()

	return &Subscriber{
		ChatID:     chatID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		Subscribed: true,
		Timezone:   "America/Los_Angeles",
		CreatedAt:  now,
		LastSeenAt: now,
	}, nil
}

// DisplayName returns the best available name for greeting the user.
func (s *Subscriber) DisplayName() string {
	if s.FirstName != "" {
		return s.FirstName
	}
	if s.Username != "" {
		return "@" + s.Username
	}
	return s.ChatID.String()
}

// Unsubscribe marks the subscriber as opted out.
func (s *Subscriber) Unsubscribe() {
	s.Subscribed = false
	s.LastSeenAt = time.Now().UTC()
}

// Resubscribe marks the subscriber as opted back in.
func (s *Subscriber) Resubscribe() {
	s.Subscribed = true
	s.LastSeenAt = time.Now().UTC()
}

// Touch updates the last seen timestamp.
func (s *Subscriber) Touch() {
	s.LastSeenAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidChatID - zero chat id.
	ErrInvalidChatID = errors.New("invalid chat id: cannot be zero")

	// ErrSubscriberNotFound - no subscriber with the given chat id.
	ErrSubscriberNotFound = errors.New("subscriber not found")
)
