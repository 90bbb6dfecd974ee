// Package middleware contains Telegram bot middlewares for request processing.
package middleware

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER MIDDLEWARE
// Per-chat token bucket protecting the bot from command spam. The global
// send-side pacing lives in the Telegram client; this guards the receive
// side.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate allowed per chat.
	RequestsPerMinute int

	// BurstSize is the number of requests a chat may send back to back.
	BurstSize int

	// CleanupInterval is how often idle chat entries are pruned.
	CleanupInterval time.Duration

	// IdleTTL is how long a chat entry survives without traffic.
	IdleTTL time.Duration

	// OnRateLimited builds the message sent to a rate-limited chat.
	OnRateLimited func(chatID int64, retryAfter time.Duration) string
}

// DefaultRateLimitConfig returns sensible defaults for rate limiting.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 20,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
		IdleTTL:           10 * time.Minute,
		OnRateLimited: func(chatID int64, retryAfter time.Duration) string {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			return fmt.Sprintf(
				"⏳ <b>Easy there!</b>\n\nTry again in %d seconds.", seconds)
		},
	}
}

// RateLimiter implements per-chat rate limiting.
type RateLimiter struct {
	config RateLimitConfig

	mu      sync.Mutex
	entries map[int64]*limiterEntry

	stopCh   chan struct{}
	stopOnce sync.Once
}

// limiterEntry pairs a token bucket with its last activity time.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		entries: make(map[int64]*limiterEntry),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// RateLimitResult represents the result of a rate limit check.
type RateLimitResult struct {
	// Allowed indicates if the request is allowed.
	Allowed bool

	// RetryAfter is how long the chat should wait before retrying.
	RetryAfter time.Duration

	// ResponseMessage is the message to send if rate limited.
	ResponseMessage string
}

// Check checks if a request from the given chat is allowed.
func (rl *RateLimiter) Check(chatID int64) *RateLimitResult {
	entry := rl.getEntry(chatID)

	reservation := entry.limiter.Reserve()
	delay := reservation.Delay()
	if delay == 0 {
		return &RateLimitResult{Allowed: true}
	}

	// Over the limit; give the token back and tell the chat to wait.
	reservation.Cancel()

	return &RateLimitResult{
		Allowed:         false,
		RetryAfter:      delay,
		ResponseMessage: rl.config.OnRateLimited(chatID, delay),
	}
}

// Reset clears the rate limit state for a chat.
func (rl *RateLimiter) Reset(chatID int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.entries, chatID)
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// getEntry returns the limiter entry for a chat, creating one if needed.
func (rl *RateLimiter) getEntry(chatID int64) *limiterEntry {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.entries[chatID]
	if !ok {
		perSecond := rate.Limit(float64(rl.config.RequestsPerMinute) / 60.0)
		entry = &limiterEntry{
			limiter: rate.NewLimiter(perSecond, rl.config.BurstSize),
		}
		rl.entries[chatID] = entry
	}
	entry.lastSeen = time.Now()

	return entry
}

// cleanupLoop periodically prunes idle chat entries.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup removes entries idle for longer than IdleTTL.
func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.config.IdleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for chatID, entry := range rl.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.entries, chatID)
		}
	}
}
