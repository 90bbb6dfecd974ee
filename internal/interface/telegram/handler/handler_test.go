package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/subscriber"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/presenter"
)

// fakeSubscriberStore is an in-memory subscriber.Repository.
type fakeSubscriberStore struct {
	subs  map[subscriber.ChatID]*subscriber.Subscriber
	prefs map[subscriber.ChatID]*subscriber.Preferences
}

func newFakeSubscriberStore() *fakeSubscriberStore {
	return &fakeSubscriberStore{
		subs:  make(map[subscriber.ChatID]*subscriber.Subscriber),
		prefs: make(map[subscriber.ChatID]*subscriber.Preferences),
	}
}

func (s *fakeSubscriberStore) Save(_ context.Context, sub *subscriber.Subscriber) error {
	copied := *sub
	s.subs[sub.ChatID] = &copied
	return nil
}

func (s *fakeSubscriberStore) GetByChatID(_ context.Context, chatID subscriber.ChatID) (*subscriber.Subscriber, error) {
	sub, ok := s.subs[chatID]
	if !ok {
		return nil, subscriber.ErrSubscriberNotFound
	}
	copied := *sub
	return &copied, nil
}

func (s *fakeSubscriberStore) GetSubscribed(_ context.Context) ([]*subscriber.Subscriber, error) {
	var out []*subscriber.Subscriber
	for _, sub := range s.subs {
		if sub.Subscribed {
			copied := *sub
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeSubscriberStore) GetPreferences(_ context.Context, chatID subscriber.ChatID) (*subscriber.Preferences, error) {
	p, ok := s.prefs[chatID]
	if !ok {
		p = subscriber.DefaultPreferences(chatID)
		s.prefs[chatID] = p
	}
	copied := *p
	return &copied, nil
}

func (s *fakeSubscriberStore) SavePreferences(_ context.Context, p *subscriber.Preferences) error {
	copied := *p
	s.prefs[p.ChatID] = &copied
	return nil
}

// fakeGameStore is an in-memory game.Repository.
type fakeGameStore struct {
	games []*game.Game
}

func (s *fakeGameStore) Upsert(context.Context, *game.Game) error { return nil }

func (s *fakeGameStore) GetByPk(_ context.Context, pk game.Pk) (*game.Game, error) {
	for _, g := range s.games {
		if g.Pk == pk {
			return g, nil
		}
	}
	return nil, game.ErrGameNotFound
}

func (s *fakeGameStore) GetUpcoming(_ context.Context, after time.Time, limit int) ([]*game.Game, error) {
	var out []*game.Game
	for _, g := range s.games {
		if g.Status == game.StatusScheduled && g.GameDate.After(after) {
			out = append(out, g)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeGameStore) GetByDateRange(context.Context, time.Time, time.Time) ([]*game.Game, error) {
	return s.games, nil
}

func (s *fakeGameStore) MarkNotified(context.Context, game.Pk) error { return nil }

// fakeNextGameCache returns a fixed game, or a miss when nil.
type fakeNextGameCache struct {
	game *game.Game
	hits int
}

func (c *fakeNextGameCache) GetNextGame(context.Context) (*game.Game, error) {
	c.hits++
	return c.game, nil
}

func testGame(t *testing.T, pk int, firstPitch time.Time) *game.Game {
	t.Helper()
	g, err := game.NewGame(game.NewGameParams{
		Pk:           game.Pk(pk),
		GameDate:     firstPitch,
		HomeTeamID:   game.MarinersTeamID,
		HomeTeamName: "Seattle Mariners",
		AwayTeamID:   117,
		AwayTeamName: "Houston Astros",
		Venue:        "T-Mobile Park",
		Status:       game.StatusScheduled,
		GameType:     game.TypeRegular,
		Season:       2026,
	})
	require.NoError(t, err)
	return g
}

// ─────────────────────────────────────────────────────────────────────────────
// /start
// ─────────────────────────────────────────────────────────────────────────────

func TestStartHandler_NewSubscriber(t *testing.T) {
	store := newFakeSubscriberStore()
	h := NewStartHandler(store, presenter.NewKeyboardBuilder())

	resp, err := h.Handle(context.Background(), StartRequest{
		ChatID:    100,
		Username:  "edgar",
		FirstName: "Edgar",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "Welcome aboard")
	assert.Contains(t, resp.Text, "Edgar")
	assert.NotNil(t, resp.Keyboard)

	sub, err := store.GetByChatID(context.Background(), 100)
	require.NoError(t, err)
	assert.True(t, sub.Subscribed)

	// Defaults were materialized so /settings has state to show.
	prefs, err := store.GetPreferences(context.Background(), 100)
	require.NoError(t, err)
	assert.True(t, prefs.Trades)
	assert.True(t, prefs.MajorLeagueOnly)
}

func TestStartHandler_ResubscribeKeepsPreferences(t *testing.T) {
	ctx := context.Background()
	store := newFakeSubscriberStore()
	h := NewStartHandler(store, presenter.NewKeyboardBuilder())

	_, err := h.Handle(ctx, StartRequest{ChatID: 100, FirstName: "Edgar"})
	require.NoError(t, err)

	// Flip a preference, then unsubscribe.
	prefs, err := store.GetPreferences(ctx, 100)
	require.NoError(t, err)
	prefs.Trades = false
	require.NoError(t, store.SavePreferences(ctx, prefs))

	stop := NewStopHandler(store)
	_, err = stop.Handle(ctx, StopRequest{ChatID: 100})
	require.NoError(t, err)

	// Resubscribe restores delivery but not the defaults.
	resp, err := h.Handle(ctx, StartRequest{ChatID: 100, FirstName: "Edgar"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Welcome back")

	sub, err := store.GetByChatID(ctx, 100)
	require.NoError(t, err)
	assert.True(t, sub.Subscribed)

	prefs, err = store.GetPreferences(ctx, 100)
	require.NoError(t, err)
	assert.False(t, prefs.Trades)
}

func TestStartHandler_AlreadySubscribed(t *testing.T) {
	ctx := context.Background()
	store := newFakeSubscriberStore()
	h := NewStartHandler(store, presenter.NewKeyboardBuilder())

	_, err := h.Handle(ctx, StartRequest{ChatID: 100, FirstName: "Edgar"})
	require.NoError(t, err)

	resp, err := h.Handle(ctx, StartRequest{ChatID: 100, FirstName: "Edgar"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "already subscribed")
}

// ─────────────────────────────────────────────────────────────────────────────
// /stop
// ─────────────────────────────────────────────────────────────────────────────

func TestStopHandler_Unsubscribes(t *testing.T) {
	ctx := context.Background()
	store := newFakeSubscriberStore()

	start := NewStartHandler(store, presenter.NewKeyboardBuilder())
	_, err := start.Handle(ctx, StartRequest{ChatID: 100})
	require.NoError(t, err)

	h := NewStopHandler(store)
	resp, err := h.Handle(ctx, StopRequest{ChatID: 100})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Unsubscribed")

	sub, err := store.GetByChatID(ctx, 100)
	require.NoError(t, err)
	assert.False(t, sub.Subscribed)
}

func TestStopHandler_UnknownChat(t *testing.T) {
	h := NewStopHandler(newFakeSubscriberStore())

	resp, err := h.Handle(context.Background(), StopRequest{ChatID: 42})
	require.NoError(t, err)
	assert.True(t, resp.IsError)
}

// ─────────────────────────────────────────────────────────────────────────────
// /settings
// ─────────────────────────────────────────────────────────────────────────────

func TestSettingsHandler_ShowsSummary(t *testing.T) {
	store := newFakeSubscriberStore()
	h := NewSettingsHandler(store, presenter.NewKeyboardBuilder())

	resp, err := h.Handle(context.Background(), SettingsRequest{ChatID: 100})
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "Notification Settings")
	assert.Contains(t, resp.Text, "Trades")
	require.NotNil(t, resp.Keyboard)
	assert.NotEmpty(t, resp.Keyboard.Rows)
}

func TestSettingsHandler_TogglePersists(t *testing.T) {
	ctx := context.Background()
	store := newFakeSubscriberStore()
	h := NewSettingsHandler(store, presenter.NewKeyboardBuilder())

	_, err := h.Toggle(ctx, 100, "trades")
	require.NoError(t, err)

	prefs, err := store.GetPreferences(ctx, 100)
	require.NoError(t, err)
	assert.False(t, prefs.Trades)

	_, err = h.Toggle(ctx, 100, "trades")
	require.NoError(t, err)

	prefs, err = store.GetPreferences(ctx, 100)
	require.NoError(t, err)
	assert.True(t, prefs.Trades)
}

func TestSettingsHandler_ToggleUnknownKey(t *testing.T) {
	h := NewSettingsHandler(newFakeSubscriberStore(), presenter.NewKeyboardBuilder())

	resp, err := h.Toggle(context.Background(), 100, "bogus")
	require.NoError(t, err)
	assert.True(t, resp.IsError)
}

// ─────────────────────────────────────────────────────────────────────────────
// /nextgame
// ─────────────────────────────────────────────────────────────────────────────

func TestNextGameHandler_FromCache(t *testing.T) {
	g := testGame(t, 789001, time.Now().Add(24*time.Hour).UTC())
	cache := &fakeNextGameCache{game: g}
	h := NewNextGameHandler(&fakeGameStore{}, cache, presenter.NewGameCardPresenter(time.UTC), presenter.NewKeyboardBuilder())

	resp, err := h.Handle(context.Background(), NextGameRequest{ChatID: 100})
	require.NoError(t, err)

	assert.Equal(t, 1, cache.hits)
	assert.Contains(t, resp.Text, "Houston Astros")
	assert.Contains(t, resp.Text, "T-Mobile Park")
}

func TestNextGameHandler_FallsBackToRepository(t *testing.T) {
	g := testGame(t, 789002, time.Now().Add(48*time.Hour).UTC())
	h := NewNextGameHandler(
		&fakeGameStore{games: []*game.Game{g}},
		&fakeNextGameCache{}, // always misses
		presenter.NewGameCardPresenter(time.UTC),
		presenter.NewKeyboardBuilder(),
	)

	resp, err := h.Handle(context.Background(), NextGameRequest{ChatID: 100})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Seattle Mariners")
}

func TestNextGameHandler_StaleCacheEntrySkipped(t *testing.T) {
	past := testGame(t, 789003, time.Now().Add(-2*time.Hour).UTC())
	upcoming := testGame(t, 789004, time.Now().Add(24*time.Hour).UTC())

	h := NewNextGameHandler(
		&fakeGameStore{games: []*game.Game{upcoming}},
		&fakeNextGameCache{game: past},
		presenter.NewGameCardPresenter(time.UTC),
		presenter.NewKeyboardBuilder(),
	)

	resp, err := h.Handle(context.Background(), NextGameRequest{ChatID: 100})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Next Mariners Game")
	assert.NotContains(t, resp.Text, "No upcoming games")
}

func TestNextGameHandler_Offseason(t *testing.T) {
	h := NewNextGameHandler(&fakeGameStore{}, nil, presenter.NewGameCardPresenter(time.UTC), presenter.NewKeyboardBuilder())

	resp, err := h.Handle(context.Background(), NextGameRequest{ChatID: 100})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "No upcoming games")
}

// ─────────────────────────────────────────────────────────────────────────────
// /status
// ─────────────────────────────────────────────────────────────────────────────

func TestStatusHandler_RestrictedToAdmins(t *testing.T) {
	h := NewStatusHandler(nil, nil, []int64{1})

	resp, err := h.Handle(context.Background(), StatusRequest{ChatID: 2})
	require.NoError(t, err)
	assert.True(t, resp.IsError)

	resp, err = h.Handle(context.Background(), StatusRequest{ChatID: 1})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Bot Status")
}

func TestStatusHandler_ReportsDependencyFailure(t *testing.T) {
	deps := map[string]DependencyChecker{
		"postgres": DependencyCheckerFunc(func(context.Context) error { return nil }),
		"redis":    DependencyCheckerFunc(func(context.Context) error { return assert.AnError }),
	}
	h := NewStatusHandler(nil, deps, nil)

	resp, err := h.Handle(context.Background(), StatusRequest{ChatID: 1})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "✅ postgres")
	assert.Contains(t, resp.Text, "❌ redis")
}
