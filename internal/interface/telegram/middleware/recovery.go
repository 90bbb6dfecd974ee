package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in handlers so a single bad update never takes the bot
// down. The user gets a generic apology; the log gets the stack trace.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// UserErrorMessage is the message sent to users when a panic occurs.
	UserErrorMessage string

	// Logger for panic reports.
	Logger *slog.Logger

	// Metrics counts recovered panics, optional.
	Metrics *Metrics
}

// DefaultRecoveryConfig returns sensible defaults for recovery middleware.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		UserErrorMessage: "😔 <b>Something went wrong.</b>\n\n" +
			"Give it another try in a minute.",
		Logger: slog.Default(),
	}
}

// PanicInfo contains information about a recovered panic.
type PanicInfo struct {
	// PanicValue is the raw panic value.
	PanicValue interface{}

	// StackTrace is the formatted stack trace.
	StackTrace string

	// ChatID is the chat whose update was being processed.
	ChatID int64

	// Operation names what was running, e.g. "command:start".
	Operation string

	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

// RecoveryResult represents the outcome of running a handler under recovery.
type RecoveryResult struct {
	// Recovered indicates if a panic was recovered.
	Recovered bool

	// PanicInfo contains panic details when Recovered is true.
	PanicInfo *PanicInfo

	// UserMessage is the message to show to the user after a panic.
	UserMessage string

	// Err is the handler's error when no panic occurred.
	Err error
}

// Recovery recovers from panics in bot handlers.
type Recovery struct {
	config RecoveryConfig
}

// NewRecovery creates a new recovery middleware.
func NewRecovery(config RecoveryConfig) *Recovery {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Recovery{config: config}
}

// Run executes a handler, converting any panic into a RecoveryResult.
func (m *Recovery) Run(ctx context.Context, chatID int64, operation string, handler func() error) *RecoveryResult {
	var result *RecoveryResult

	func() {
		defer func() {
			if r := recover(); r != nil {
				result = m.handlePanic(r, chatID, operation)
			}
		}()
		result = &RecoveryResult{Err: handler()}
	}()

	return result
}

// handlePanic logs the panic and builds the user-facing result.
func (m *Recovery) handlePanic(panicValue interface{}, chatID int64, operation string) *RecoveryResult {
	info := &PanicInfo{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		ChatID:     chatID,
		Operation:  operation,
		Timestamp:  time.Now(),
	}

	m.config.Logger.Error("panic recovered in handler",
		"operation", operation,
		"chat_id", chatID,
		"panic", fmt.Sprintf("%v", panicValue),
		"stack", info.StackTrace,
	)

	if m.config.Metrics != nil {
		m.config.Metrics.PanicRecovered()
	}

	return &RecoveryResult{
		Recovered:   true,
		PanicInfo:   info,
		UserMessage: m.config.UserErrorMessage,
	}
}
