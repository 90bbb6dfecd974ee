package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/subscriber"
)

// ══════════════════════════════════════════════════════════════════════════════
// STOP HANDLER
// Handles /stop - opts the chat out of all notifications. The subscriber
// row is kept so preferences survive a later /start.
// ══════════════════════════════════════════════════════════════════════════════

// StopHandler handles the /stop command.
type StopHandler struct {
	subscribers subscriber.Repository
}

// NewStopHandler creates a new StopHandler with dependencies.
func NewStopHandler(subscribers subscriber.Repository) *StopHandler {
	return &StopHandler{subscribers: subscribers}
}

// StopRequest contains the parsed /stop command data.
type StopRequest struct {
	// ChatID is the chat that sent the command.
	ChatID int64
}

// Handle processes the /stop command.
func (h *StopHandler) Handle(ctx context.Context, req StopRequest) (*Response, error) {
	sub, err := h.subscribers.GetByChatID(ctx, subscriber.ChatID(req.ChatID))
	if errors.Is(err, subscriber.ErrSubscriberNotFound) {
		return errorResponse("You're not subscribed. Send /start to subscribe."), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscriber %d: %w", req.ChatID, err)
	}

	if !sub.Subscribed {
		return &Response{
			Text:      "🔕 You're already unsubscribed. Send /start any time to come back.",
			ParseMode: "HTML",
		}, nil
	}

	sub.Unsubscribe()
	if err := h.subscribers.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("unsubscribe %d: %w", req.ChatID, err)
	}

	text := "🔕 <b>Unsubscribed</b>\n\n" +
		"No more notifications. Your settings were kept, so /start " +
		"brings everything back just how you left it."

	return &Response{
		Text:      text,
		ParseMode: "HTML",
	}, nil
}
