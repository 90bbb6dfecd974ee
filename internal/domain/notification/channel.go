package notification

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY RESULT
// ══════════════════════════════════════════════════════════════════════════════

// DeliveryResult represents the outcome of one send attempt.
type DeliveryResult struct {
	// Success - whether the message was delivered.
	Success bool

	// MessageID - id of the sent message (Telegram message id).
	MessageID string

	// DeliveredAt - time of the attempt.
	DeliveredAt time.Time

	// Error - the delivery error when Success is false.
	Error error

	// Retryable - whether another attempt may succeed.
	Retryable bool

	// RateLimited - whether the channel asked us to back off.
	RateLimited bool

	// RetryAfter - how long the channel asked us to wait. Only set when
	// RateLimited is true.
	RetryAfter time.Duration
}

// NewSuccessResult creates a successful delivery result.
func NewSuccessResult(messageID string) DeliveryResult {
	return DeliveryResult{
		Success:     true,
		MessageID:   messageID,
		DeliveredAt: time.Now().UTC(),
	}
}

// NewFailureResult creates a failed delivery result.
func NewFailureResult(err error, retryable bool) DeliveryResult {
	return DeliveryResult{
		Success:     false,
		DeliveredAt: time.Now().UTC(),
		Error:       err,
		Retryable:   retryable,
	}
}

// NewRateLimitedResult creates a result for a flood-wait response.
func NewRateLimitedResult(retryAfter time.Duration) DeliveryResult {
	return DeliveryResult{
		Success:     false,
		DeliveredAt: time.Now().UTC(),
		Error:       ErrRateLimited,
		Retryable:   true,
		RateLimited: true,
		RetryAfter:  retryAfter,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// DeliveryOptions contains options for sending a message.
type DeliveryOptions struct {
	// ParseMode - message parse mode (HTML, MarkdownV2).
	ParseMode string

	// DisableNotification - send silently.
	DisableNotification bool

	// DisableWebPagePreview - suppress link previews.
	DisableWebPagePreview bool

	// Timeout - per-send timeout.
	Timeout time.Duration
}

// DefaultDeliveryOptions returns the options used for all bot messages.
func DefaultDeliveryOptions() DeliveryOptions {
	return DeliveryOptions{
		ParseMode:             "HTML",
		DisableNotification:   false,
		DisableWebPagePreview: true,
		Timeout:               30 * time.Second,
	}
}

// WithSilent returns a copy with silent delivery.
func (opts DeliveryOptions) WithSilent() DeliveryOptions {
	opts.DisableNotification = true
	return opts
}

// WithParseMode returns a copy with the given parse mode.
func (opts DeliveryOptions) WithParseMode(mode string) DeliveryOptions {
	opts.ParseMode = mode
	return opts
}

// ══════════════════════════════════════════════════════════════════════════════
// CHANNEL INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Channel abstracts the transport that delivers rendered messages.
// The Telegram client implements it; tests use an in-memory fake.
type Channel interface {
	// Send delivers text to a chat. Never panics; all failure modes are
	// expressed through the DeliveryResult.
	Send(ctx context.Context, chatID int64, text string, opts DeliveryOptions) DeliveryResult

	// IsAvailable checks channel reachability.
	IsAvailable(ctx context.Context) bool
}

// ══════════════════════════════════════════════════════════════════════════════
// CHANNEL ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrChannelUnavailable - the channel cannot be reached.
	ErrChannelUnavailable = errors.New("notification channel is unavailable")

	// ErrDeliveryFailed - the delivery failed.
	ErrDeliveryFailed = errors.New("notification delivery failed")

	// ErrRateLimited - the channel is applying flood control.
	ErrRateLimited = errors.New("rate limited by channel")

	// ErrRecipientBlocked - the recipient blocked the bot. Permanent.
	ErrRecipientBlocked = errors.New("recipient has blocked the bot")

	// ErrChatNotFound - the chat does not exist. Permanent.
	ErrChatNotFound = errors.New("chat not found")

	// ErrMessageTooLong - the rendered message exceeds the channel limit.
	ErrMessageTooLong = errors.New("message is too long")

	// ErrTimeout - the send timed out.
	ErrTimeout = errors.New("delivery timeout")
)

// IsPermanentDeliveryError reports whether retrying can never succeed.
func IsPermanentDeliveryError(err error) bool {
	return errors.Is(err, ErrRecipientBlocked) ||
		errors.Is(err, ErrChatNotFound) ||
		errors.Is(err, ErrMessageTooLong)
}
