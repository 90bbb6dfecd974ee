package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles for the bot.
// Supports gradual rollout and per-user targeting so new notification
// behaviors can be tried on a slice of subscribers before going wide.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[int64]map[string]bool // chatID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their chat ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	ChatID  int64 // Telegram chat ID
	IsAdmin bool  // Is admin user
}

// Predefined feature flag names.
const (
	// === Game Features ===
	FeatureGameReminders        = "game.reminders"         // Pre-game notifications
	FeatureGameProbablePitchers = "game.probable_pitchers" // Pitcher matchup in reminders
	FeatureGamePostseason       = "game.postseason"        // Track postseason games

	// === Transaction Features ===
	FeatureTransactionAlerts    = "transaction.alerts"    // Transaction notifications
	FeatureTransactionBatching  = "transaction.batching"  // Coalesce bursts per recipient
	FeatureTransactionBroadcast = "transaction.broadcast" // Announce channel posts

	// === Bot Features ===
	FeatureBotSettings = "bot.settings" // /settings preference toggles
	FeatureBotNextGame = "bot.nextgame" // /nextgame command

	// === Experimental Features ===
	FeatureExperimentalLiveScores = "experimental.live_scores" // In-game score updates
	FeatureExperimentalStandings  = "experimental.standings"   // Division standings digest
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[int64]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Game features
	ff.features[FeatureGameReminders] = &Feature{
		Name:           FeatureGameReminders,
		Description:    "Send reminders before first pitch",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGameProbablePitchers] = &Feature{
		Name:           FeatureGameProbablePitchers,
		Description:    "Include probable pitchers in game reminders",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamePostseason] = &Feature{
		Name:           FeatureGamePostseason,
		Description:    "Track postseason games",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Transaction features
	ff.features[FeatureTransactionAlerts] = &Feature{
		Name:           FeatureTransactionAlerts,
		Description:    "Send roster transaction alerts",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureTransactionBatching] = &Feature{
		Name:           FeatureTransactionBatching,
		Description:    "Coalesce transaction bursts per recipient",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureTransactionBroadcast] = &Feature{
		Name:           FeatureTransactionBroadcast,
		Description:    "Post transaction alerts to the announce channel",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Bot features
	ff.features[FeatureBotSettings] = &Feature{
		Name:           FeatureBotSettings,
		Description:    "Enable /settings preference toggles",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureBotNextGame] = &Feature{
		Name:           FeatureBotNextGame,
		Description:    "Enable /nextgame command",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalLiveScores] = &Feature{
		Name:           FeatureExperimentalLiveScores,
		Description:    "In-game score updates",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalStandings] = &Feature{
		Name:           FeatureExperimentalStandings,
		Description:    "Division standings digest",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_TRANSACTION_BATCHING=true
// Example: FEATURE_GAME_PROBABLE_PITCHERS=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "transaction.batching" -> "FEATURE_TRANSACTION_BATCHING"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.ChatID != 0 {
		if userOverrides, ok := ff.userOverrides[ctx.ChatID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.ChatID != 0 {
		return ff.isInRollout(ctx.ChatID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(chatID int64, featureName string, percent int) bool {
	// Create a consistent hash for this user+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(strconv.FormatInt(chatID, 10)))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(chatID int64, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[chatID]; !ok {
		ff.userOverrides[chatID] = make(map[string]bool)
	}
	ff.userOverrides[chatID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(chatID int64) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, chatID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
