package handler

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// HELP HANDLER
// Handles /help - lists the available commands.
// ══════════════════════════════════════════════════════════════════════════════

// HelpHandler handles the /help command.
type HelpHandler struct{}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

// HelpRequest contains the parsed /help command data.
type HelpRequest struct {
	// ChatID is the chat that sent the command.
	ChatID int64
}

// Handle processes the /help command.
func (h *HelpHandler) Handle(ctx context.Context, req HelpRequest) (*Response, error) {
	text := "⚾ <b>Mariners Gameday Hub</b>\n\n" +
		"Roster moves and game reminders for Mariners fans.\n\n" +
		"<b>Commands</b>\n" +
		"• /start — subscribe to notifications\n" +
		"• /stop — unsubscribe\n" +
		"• /settings — choose which moves you hear about\n" +
		"• /nextgame — next scheduled game\n" +
		"• /help — this message\n\n" +
		"Transaction alerts arrive as they happen; closely spaced moves " +
		"are bundled into a single digest."

	return &Response{
		Text:      text,
		ParseMode: "HTML",
	}, nil
}
