package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// NEXT GAME HANDLER
// Handles /nextgame - shows the next scheduled game, answered from the
// schedule cache when warm and from the database otherwise.
// ══════════════════════════════════════════════════════════════════════════════

// NextGameCache is the read side of the schedule cache.
// A (nil, nil) return means cache miss.
type NextGameCache interface {
	GetNextGame(ctx context.Context) (*game.Game, error)
}

// NextGameHandler handles the /nextgame command.
type NextGameHandler struct {
	games     game.Repository
	cache     NextGameCache // optional
	cards     *presenter.GameCardPresenter
	keyboards *presenter.KeyboardBuilder
}

// NewNextGameHandler creates a new NextGameHandler. The cache may be nil,
// in which case every request hits the database.
func NewNextGameHandler(
	games game.Repository,
	cache NextGameCache,
	cards *presenter.GameCardPresenter,
	keyboards *presenter.KeyboardBuilder,
) *NextGameHandler {
	return &NextGameHandler{
		games:     games,
		cache:     cache,
		cards:     cards,
		keyboards: keyboards,
	}
}

// NextGameRequest contains the parsed /nextgame command data.
type NextGameRequest struct {
	// ChatID is the chat that sent the command.
	ChatID int64
}

// Handle processes the /nextgame command.
func (h *NextGameHandler) Handle(ctx context.Context, req NextGameRequest) (*Response, error) {
	g, err := h.lookupNextGame(ctx)
	if err != nil {
		return nil, err
	}

	if g == nil {
		view := h.cards.FormatNoUpcomingGame()
		return &Response{
			Text:      view.Text,
			Keyboard:  h.keyboards.NextGameKeyboard(nil),
			ParseMode: view.ParseMode,
		}, nil
	}

	view := h.cards.FormatNextGame(g)
	return &Response{
		Text:      view.Text,
		Keyboard:  h.keyboards.NextGameKeyboard(g),
		ParseMode: view.ParseMode,
	}, nil
}

// lookupNextGame consults the cache first, then the database. A cache
// failure degrades to a database read rather than failing the command.
func (h *NextGameHandler) lookupNextGame(ctx context.Context) (*game.Game, error) {
	if h.cache != nil {
		if g, err := h.cache.GetNextGame(ctx); err == nil && g != nil {
			// The cache may be stale by up to its TTL; skip entries
			// whose first pitch already passed.
			if g.IsUpcoming(time.Now().UTC()) {
				return g, nil
			}
		}
	}

	games, err := h.games.GetUpcoming(ctx, time.Now().UTC(), 1)
	if err != nil {
		return nil, fmt.Errorf("load upcoming games: %w", err)
	}
	if len(games) == 0 {
		return nil, nil
	}
	return games[0], nil
}
