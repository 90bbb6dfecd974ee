package handler

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/subscriber"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// START HANDLER
// Handles /start - subscribes the chat to notifications. A returning chat
// that previously sent /stop is resubscribed with its old preferences.
// ══════════════════════════════════════════════════════════════════════════════

// StartHandler handles the /start command.
type StartHandler struct {
	subscribers subscriber.Repository
	keyboards   *presenter.KeyboardBuilder
}

// NewStartHandler creates a new StartHandler with dependencies.
func NewStartHandler(subscribers subscriber.Repository, keyboards *presenter.KeyboardBuilder) *StartHandler {
	return &StartHandler{
		subscribers: subscribers,
		keyboards:   keyboards,
	}
}

// StartRequest contains the parsed /start command data.
type StartRequest struct {
	// ChatID is the chat that sent the command.
	ChatID int64

	// Username, FirstName, LastName come from the Telegram profile.
	Username  string
	FirstName string
	LastName  string
}

// Handle processes the /start command.
func (h *StartHandler) Handle(ctx context.Context, req StartRequest) (*Response, error) {
	existing, err := h.subscribers.GetByChatID(ctx, subscriber.ChatID(req.ChatID))

	switch {
	case err == nil:
		return h.handleReturning(ctx, existing)
	case errors.Is(err, subscriber.ErrSubscriberNotFound):
		return h.handleNew(ctx, req)
	default:
		return nil, fmt.Errorf("load subscriber %d: %w", req.ChatID, err)
	}
}

// handleNew registers a first-time chat.
func (h *StartHandler) handleNew(ctx context.Context, req StartRequest) (*Response, error) {
	sub, err := subscriber.NewSubscriber(
		subscriber.ChatID(req.ChatID),
		req.Username,
		req.FirstName,
		req.LastName,
	)
	if err != nil {
		return nil, fmt.Errorf("create subscriber %d: %w", req.ChatID, err)
	}

	if err := h.subscribers.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("save subscriber %d: %w", req.ChatID, err)
	}

	// Materialize default preferences so /settings has something to show.
	if _, err := h.subscribers.GetPreferences(ctx, sub.ChatID); err != nil {
		return nil, fmt.Errorf("init preferences %d: %w", req.ChatID, err)
	}

	text := fmt.Sprintf(
		"⚾ <b>Welcome aboard, %s!</b>\n\n"+
			"You're subscribed to Mariners roster moves and game reminders.\n\n"+
			"• Transaction alerts as the front office makes moves\n"+
			"• A reminder before every first pitch\n\n"+
			"Tune what you get with /settings, or /stop to opt out.",
		html.EscapeString(sub.DisplayName()),
	)

	return &Response{
		Text:      text,
		Keyboard:  h.keyboards.WelcomeKeyboard(),
		ParseMode: "HTML",
	}, nil
}

// handleReturning resubscribes a known chat, keeping its preferences.
func (h *StartHandler) handleReturning(ctx context.Context, sub *subscriber.Subscriber) (*Response, error) {
	alreadySubscribed := sub.Subscribed

	sub.Resubscribe()
	if err := h.subscribers.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("resubscribe %d: %w", int64(sub.ChatID), err)
	}

	var text string
	if alreadySubscribed {
		text = fmt.Sprintf(
			"👋 <b>Hey %s, you're already subscribed!</b>\n\n"+
				"Use /settings to tune your notifications or /nextgame "+
				"to see what's next.",
			html.EscapeString(sub.DisplayName()),
		)
	} else {
		text = fmt.Sprintf(
			"⚾ <b>Welcome back, %s!</b>\n\n"+
				"Your subscription is active again and your old "+
				"notification settings were kept.",
			html.EscapeString(sub.DisplayName()),
		)
	}

	return &Response{
		Text:      text,
		Keyboard:  h.keyboards.WelcomeKeyboard(),
		ParseMode: "HTML",
	}, nil
}
