// Package notification contains the domain model for outbound notifications.
// An Event is one unit the delivery engine works with: either a time-triggered
// game reminder or an upstream-triggered transaction alert. Its delivery
// status only ever moves forward.
package notification

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// EventID is the unique identifier of a notification event.
// Game reminders use the deterministic "game_<pk>" form so rescheduling a
// game's reminder overwrites the previous one instead of duplicating it.
type EventID string

// ReminderEventID returns the deterministic event id for a game's reminder.
func ReminderEventID(gamePk int) EventID {
	return EventID(fmt.Sprintf("game_%d", gamePk))
}

// TransactionEventID returns the deterministic event id for delivering a
// transaction to one recipient. Re-processing the same transaction upserts
// the same event instead of creating a duplicate.
func TransactionEventID(transactionID int64, chatID int64) EventID {
	return EventID(fmt.Sprintf("txn_%d_%d", transactionID, chatID))
}

// IsValid checks that the id is not empty.
func (id EventID) IsValid() bool {
	return len(id) > 0
}

// String returns the string representation of the id.
func (id EventID) String() string {
	return string(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT KIND
// ══════════════════════════════════════════════════════════════════════════════

// Kind distinguishes the two event variants.
type Kind string

const (
	// KindGameReminder - a scheduled pre-game reminder.
	KindGameReminder Kind = "game_reminder"

	// KindTransactionAlert - a roster transaction notification.
	KindTransactionAlert Kind = "transaction_alert"
)

// IsValid checks that the kind is known.
func (k Kind) IsValid() bool {
	return k == KindGameReminder || k == KindTransactionAlert
}

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the delivery status of an event. Transitions are monotonic:
// once Sent or Cancelled an event never changes again, and the only
// backward move is Failed -> Pending for an explicit retry.
type Status string

const (
	// StatusPending - waiting to be delivered.
	StatusPending Status = "pending"

	// StatusBatched - parked in a recipient's batch buffer.
	StatusBatched Status = "batched"

	// StatusSent - delivered.
	StatusSent Status = "sent"

	// StatusFailed - delivery failed after exhausting retries.
	StatusFailed Status = "failed"

	// StatusCancelled - withdrawn before delivery (stale reminder,
	// postponed game).
	StatusCancelled Status = "cancelled"
)

// IsValid checks that the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusBatched, StatusSent, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusBatched || next == StatusSent ||
			next == StatusFailed || next == StatusCancelled
	case StatusBatched:
		return next == StatusSent || next == StatusFailed || next == StatusCancelled
	case StatusFailed:
		return next == StatusPending
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Event represents one outbound notification.
type Event struct {
	// ID is the unique event id.
	ID EventID

	// Kind is the event variant.
	Kind Kind

	// ChatID is the destination chat. 0 means the announce broadcast.
	ChatID int64

	// GamePk is set for game reminders.
	GamePk int

	// TransactionID is set for transaction alerts.
	TransactionID int64

	// ScheduledAt is when a reminder becomes due. Zero for transaction
	// alerts, which are due as soon as they exist.
	ScheduledAt time.Time

	// Message is the rendered text for reminders. Transaction alerts are
	// rendered at flush time from their source transactions.
	Message string

	// Status is the current delivery status.
	Status Status

	// Attempts counts delivery attempts made so far.
	Attempts int

	// LastError holds the most recent delivery error text.
	LastError string

	// SentAt is the delivery time, nil until sent.
	SentAt *time.Time

	// CreatedAt and UpdatedAt are bookkeeping timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReminderEvent creates a pending game reminder event.
func NewReminderEvent(gamePk int, chatID int64, scheduledAt time.Time, message string) (*Event, error) {
	if gamePk <= 0 {
		return nil, ErrInvalidGamePk
	}
	if message == "" {
		return nil, ErrEmptyMessage
	}

	now := time.Now().UTC()

	return &Event{
		ID:          ReminderEventID(gamePk),
		Kind:        KindGameReminder,
		ChatID:      chatID,
		GamePk:      gamePk,
		ScheduledAt: scheduledAt.UTC(),
		Message:     message,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewTransactionEvent creates a pending transaction alert event for one
// recipient.
func NewTransactionEvent(id EventID, transactionID int64, chatID int64) (*Event, error) {
	if !id.IsValid() {
		return nil, ErrInvalidEventID
	}
	if transactionID <= 0 {
		return nil, ErrInvalidTransactionID
	}

	now := time.Now().UTC()

	return &Event{
		ID:            id,
		Kind:          KindTransactionAlert,
		ChatID:        chatID,
		TransactionID: transactionID,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// transition applies a status change, enforcing monotonicity.
func (e *Event) transition(next Status) error {
	if !e.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, e.Status, next)
	}
	e.Status = next
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkBatched parks the event in a recipient batch buffer.
func (e *Event) MarkBatched() error {
	return e.transition(StatusBatched)
}

// MarkSent records a successful delivery with the attempt count used.
func (e *Event) MarkSent(attempts int) error {
	if err := e.transition(StatusSent); err != nil {
		return err
	}
	now := time.Now().UTC()
	e.SentAt = &now
	e.Attempts = attempts
	return nil
}

// MarkFailed records a delivery failure.
func (e *Event) MarkFailed(errText string, attempts int) error {
	if err := e.transition(StatusFailed); err != nil {
		return err
	}
	e.LastError = errText
	e.Attempts = attempts
	return nil
}

// MarkCancelled withdraws the event. Cancelling an event that already
// fired is rejected; the send wins the race.
func (e *Event) MarkCancelled() error {
	return e.transition(StatusCancelled)
}

// ResetForRetry moves a failed event back to pending.
func (e *Event) ResetForRetry() error {
	return e.transition(StatusPending)
}

// IsDue reports whether a reminder should fire at the given time.
func (e *Event) IsDue(now time.Time) bool {
	if e.Kind != KindGameReminder {
		return e.Status == StatusPending
	}
	return e.Status == StatusPending && !now.Before(e.ScheduledAt)
}

// IsStale reports whether a reminder is too far past due to still be
// worth sending. Stale reminders get cancelled, not fired.
func (e *Event) IsStale(now time.Time, grace time.Duration) bool {
	if e.Kind != KindGameReminder {
		return false
	}
	return now.Sub(e.ScheduledAt) > grace
}

// String returns a compact representation for logging.
func (e *Event) String() string {
	return fmt.Sprintf("Event{ID: %s, Kind: %s, Chat: %d, Status: %s}",
		e.ID, e.Kind, e.ChatID, e.Status)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidEventID - empty event id.
	ErrInvalidEventID = errors.New("invalid event id: cannot be empty")

	// ErrInvalidGamePk - non-positive game pk.
	ErrInvalidGamePk = errors.New("invalid game pk: must be positive")

	// ErrInvalidTransactionID - non-positive transaction id.
	ErrInvalidTransactionID = errors.New("invalid transaction id: must be positive")

	// ErrEmptyMessage - empty message text.
	ErrEmptyMessage = errors.New("notification message cannot be empty")

	// ErrInvalidStatusTransition - disallowed status transition.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrEventNotFound - no event with the given id.
	ErrEventNotFound = errors.New("notification event not found")
)
