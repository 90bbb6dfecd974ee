package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/subscriber"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS HANDLER
// Handles /settings - shows notification preferences as an inline toggle
// keyboard. Each button press flips one category and redraws the message
// in place.
// ══════════════════════════════════════════════════════════════════════════════

// SettingsHandler handles the /settings command and its toggle callbacks.
type SettingsHandler struct {
	subscribers subscriber.Repository
	keyboards   *presenter.KeyboardBuilder
}

// NewSettingsHandler creates a new SettingsHandler with dependencies.
func NewSettingsHandler(subscribers subscriber.Repository, keyboards *presenter.KeyboardBuilder) *SettingsHandler {
	return &SettingsHandler{
		subscribers: subscribers,
		keyboards:   keyboards,
	}
}

// SettingsRequest contains the parsed /settings command data.
type SettingsRequest struct {
	// ChatID is the chat that sent the command.
	ChatID int64
}

// Handle processes the /settings command.
func (h *SettingsHandler) Handle(ctx context.Context, req SettingsRequest) (*Response, error) {
	prefs, err := h.subscribers.GetPreferences(ctx, subscriber.ChatID(req.ChatID))
	if err != nil {
		return nil, fmt.Errorf("load preferences %d: %w", req.ChatID, err)
	}

	return &Response{
		Text:      h.buildSettingsView(prefs),
		Keyboard:  h.keyboards.SettingsKeyboard(prefs),
		ParseMode: "HTML",
	}, nil
}

// Toggle flips the named category and returns the refreshed settings view.
func (h *SettingsHandler) Toggle(ctx context.Context, chatID int64, key string) (*Response, error) {
	prefs, err := h.subscribers.GetPreferences(ctx, subscriber.ChatID(chatID))
	if err != nil {
		return nil, fmt.Errorf("load preferences %d: %w", chatID, err)
	}

	if !prefs.Toggle(key) {
		return errorResponse("Unknown setting."), nil
	}

	if err := h.subscribers.SavePreferences(ctx, prefs); err != nil {
		return nil, fmt.Errorf("save preferences %d: %w", chatID, err)
	}

	return &Response{
		Text:      h.buildSettingsView(prefs),
		Keyboard:  h.keyboards.SettingsKeyboard(prefs),
		ParseMode: "HTML",
	}, nil
}

// buildSettingsView builds the settings message text.
func (h *SettingsHandler) buildSettingsView(prefs *subscriber.Preferences) string {
	var sb strings.Builder

	sb.WriteString("⚙️ <b>Notification Settings</b>\n\n")
	sb.WriteString(prefs.Summary())
	sb.WriteString("\n\n")
	sb.WriteString("<i>Tap a category to toggle it. Game reminders are always on while you're subscribed.</i>")

	return sb.String()
}
