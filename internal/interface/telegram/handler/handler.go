// Package handler contains Telegram command handlers.
// Each handler parses a typed request, talks to the domain repositories,
// and returns a Response for the router to send or edit into place.
package handler

import "github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/presenter"

// Response is what every command and callback handler returns.
type Response struct {
	// Text is the message text (HTML formatted).
	Text string

	// Keyboard is the inline keyboard to attach, nil for none.
	Keyboard *presenter.InlineKeyboard

	// ParseMode is the parse mode, normally "HTML".
	ParseMode string

	// IsError indicates an error response shown to the user.
	IsError bool
}

// errorResponse builds a plain error Response.
func errorResponse(text string) *Response {
	return &Response{
		Text:      text,
		ParseMode: "HTML",
		IsError:   true,
	}
}
