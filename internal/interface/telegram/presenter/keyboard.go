// Package presenter formats data for Telegram display.
// Presenters handle the conversion from domain objects to user-friendly
// Telegram messages, keyboards, and other UI elements.
package presenter

import (
	"fmt"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/subscriber"
)

// ══════════════════════════════════════════════════════════════════════════════
// INLINE KEYBOARD TYPES
// These types represent Telegram inline keyboards in a transport-agnostic way.
// The router converts them to the wire format before sending.
// ══════════════════════════════════════════════════════════════════════════════

// InlineKeyboard represents an inline keyboard.
type InlineKeyboard struct {
	Rows [][]InlineButton
}

// InlineButton represents a single inline button.
type InlineButton struct {
	// Text is the button text.
	Text string

	// CallbackData is the callback data (for callback buttons).
	CallbackData string

	// URL is the URL to open (for URL buttons).
	URL string
}

// NewInlineKeyboard creates a new empty inline keyboard.
func NewInlineKeyboard() *InlineKeyboard {
	return &InlineKeyboard{
		Rows: make([][]InlineButton, 0),
	}
}

// AddRow adds a row of buttons.
func (k *InlineKeyboard) AddRow(buttons ...InlineButton) *InlineKeyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}

// CallbackButton creates a callback button.
func CallbackButton(text, callbackData string) InlineButton {
	return InlineButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// URLButton creates a URL button.
func URLButton(text, url string) InlineButton {
	return InlineButton{
		Text: text,
		URL:  url,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYBOARD BUILDER
// Builds keyboards for different use cases.
// ══════════════════════════════════════════════════════════════════════════════

// KeyboardBuilder builds inline keyboards for various handlers.
type KeyboardBuilder struct{}

// NewKeyboardBuilder creates a new KeyboardBuilder.
func NewKeyboardBuilder() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// ─────────────────────────────────────────────────────────────────────────────
// START / WELCOME KEYBOARDS
// ─────────────────────────────────────────────────────────────────────────────

// WelcomeKeyboard creates the keyboard shown after /start.
func (b *KeyboardBuilder) WelcomeKeyboard() *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(
			CallbackButton("⚾ Next game", "cmd:nextgame"),
			CallbackButton("⚙️ Settings", "cmd:settings"),
		).
		AddRow(
			CallbackButton("ℹ️ Help", "cmd:help"),
		)
}

// ─────────────────────────────────────────────────────────────────────────────
// NEXT GAME KEYBOARDS
// ─────────────────────────────────────────────────────────────────────────────

// NextGameKeyboard creates the keyboard attached to the /nextgame card.
func (b *KeyboardBuilder) NextGameKeyboard(g *game.Game) *InlineKeyboard {
	kb := NewInlineKeyboard()

	if g != nil {
		kb.AddRow(URLButton("📺 MLB Gameday", g.GamedayURL()))
	}

	kb.AddRow(
		CallbackButton("🔄 Refresh", "cmd:nextgame"),
		CallbackButton("⚙️ Settings", "cmd:settings"),
	)

	return kb
}

// ─────────────────────────────────────────────────────────────────────────────
// SETTINGS KEYBOARDS
// ─────────────────────────────────────────────────────────────────────────────

// settingsToggles defines the button order of the /settings keyboard.
// The callback keys match subscriber.Preferences.Toggle.
var settingsToggles = []struct {
	Key   string
	Label string
}{
	{"trades", "Trades"},
	{"signings", "Signings"},
	{"recalls", "Recalls"},
	{"options", "Options"},
	{"injuries", "Injuries"},
	{"activations", "Activations"},
	{"releases", "Releases"},
	{"status_changes", "Status changes"},
	{"other", "Other moves"},
}

// SettingsKeyboard creates the preference-toggle keyboard for /settings.
// Each press flips one category and redraws the keyboard in place.
func (b *KeyboardBuilder) SettingsKeyboard(p *subscriber.Preferences) *InlineKeyboard {
	kb := NewInlineKeyboard()

	enabled := map[string]bool{
		"trades":         p.Trades,
		"signings":       p.Signings,
		"recalls":        p.Recalls,
		"options":        p.Options,
		"injuries":       p.Injuries,
		"activations":    p.Activations,
		"releases":       p.Releases,
		"status_changes": p.StatusChanges,
		"other":          p.Other,
	}

	// Two toggles per row.
	var row []InlineButton
	for _, t := range settingsToggles {
		row = append(row, CallbackButton(
			toggleLabel(t.Label, enabled[t.Key]),
			"settings:toggle:"+t.Key,
		))
		if len(row) == 2 {
			kb.AddRow(row...)
			row = nil
		}
	}
	if len(row) > 0 {
		kb.AddRow(row...)
	}

	// Scope filter gets its own row; it cuts across every category.
	scopeLabel := "🌐 All levels"
	if p.MajorLeagueOnly {
		scopeLabel = "⭐ Major League only"
	}
	kb.AddRow(CallbackButton(scopeLabel, "settings:toggle:major_league_only"))

	kb.AddRow(CallbackButton("⚾ Next game", "cmd:nextgame"))

	return kb
}

// toggleLabel prefixes a toggle label with its on/off marker.
func toggleLabel(label string, on bool) string {
	if on {
		return fmt.Sprintf("✅ %s", label)
	}
	return fmt.Sprintf("❌ %s", label)
}
