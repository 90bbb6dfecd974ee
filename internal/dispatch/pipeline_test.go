package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/shared"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/subscriber"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
	"github.com/mariners-hub/mariners-gameday-hub/pkg/timeutil"
)

type fakeFetcher struct {
	txns []*transaction.Transaction
	err  error
}

func (f *fakeFetcher) FetchTransactions(context.Context, timeutil.DateRange) ([]*transaction.Transaction, error) {
	return f.txns, f.err
}

type fakeSeen struct {
	seen map[int64]bool
}

func (s *fakeSeen) MarkSeen(_ context.Context, id int64) (bool, error) {
	if s.seen == nil {
		s.seen = make(map[int64]bool)
	}
	if s.seen[id] {
		return false, nil
	}
	s.seen[id] = true
	return true, nil
}

type fakeTxnRepo struct {
	stored   map[int64]*transaction.Transaction
	notified []int64
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{stored: make(map[int64]*transaction.Transaction)}
}

func (r *fakeTxnRepo) Upsert(_ context.Context, t *transaction.Transaction) error {
	r.stored[t.ID] = t
	return nil
}

func (r *fakeTxnRepo) GetByID(_ context.Context, id int64) (*transaction.Transaction, error) {
	t, ok := r.stored[id]
	if !ok {
		return nil, shared.ErrTransactionNotFound
	}
	return t, nil
}

func (r *fakeTxnRepo) GetUnnotified(context.Context, int) ([]*transaction.Transaction, error) {
	return nil, nil
}

func (r *fakeTxnRepo) GetRecent(context.Context, time.Time, int) ([]*transaction.Transaction, error) {
	return nil, nil
}

func (r *fakeTxnRepo) MarkNotified(_ context.Context, ids []int64) error {
	r.notified = append(r.notified, ids...)
	return nil
}

type fakeSubRepo struct {
	subs  []*subscriber.Subscriber
	prefs map[subscriber.ChatID]*subscriber.Preferences
}

func (r *fakeSubRepo) Save(context.Context, *subscriber.Subscriber) error { return nil }

func (r *fakeSubRepo) GetByChatID(_ context.Context, chatID subscriber.ChatID) (*subscriber.Subscriber, error) {
	for _, s := range r.subs {
		if s.ChatID == chatID {
			return s, nil
		}
	}
	return nil, shared.ErrSubscriberNotFound
}

func (r *fakeSubRepo) GetSubscribed(context.Context) ([]*subscriber.Subscriber, error) {
	return r.subs, nil
}

func (r *fakeSubRepo) GetPreferences(_ context.Context, chatID subscriber.ChatID) (*subscriber.Preferences, error) {
	if p, ok := r.prefs[chatID]; ok {
		return p, nil
	}
	return subscriber.DefaultPreferences(chatID), nil
}

func (r *fakeSubRepo) SavePreferences(_ context.Context, p *subscriber.Preferences) error {
	if r.prefs == nil {
		r.prefs = make(map[subscriber.ChatID]*subscriber.Preferences)
	}
	r.prefs[p.ChatID] = p
	return nil
}

func pipelineFixture(t *testing.T, fetcher *fakeFetcher, subs *fakeSubRepo, announceChatID int64) (*TransactionPipeline, *fakeChannel, *fakeTxnRepo) {
	t.Helper()
	ch := &fakeChannel{}
	store := newFakeEventStore()
	txns := newFakeTxnRepo()
	d, _ := newTestDispatcher(t, ch, store, newTestClock())

	p := NewTransactionPipeline(fetcher, &fakeSeen{}, txns, subs, store, d, 7, announceChatID, nil)
	return p, ch, txns
}

func TestPipeline_RoutesByPreferences(t *testing.T) {
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{txns: []*transaction.Transaction{
		testTxn(t, 1, "SC", "Status Change", "Player One", date),
	}}

	wantsAll := subscriber.DefaultPreferences(100)
	wantsAll.StatusChanges = true
	defaults := subscriber.DefaultPreferences(200)

	sub1, err := subscriber.NewSubscriber(100, "fan1", "First", "Fan")
	require.NoError(t, err)
	sub2, err := subscriber.NewSubscriber(200, "fan2", "Second", "Fan")
	require.NoError(t, err)

	subs := &fakeSubRepo{
		subs:  []*subscriber.Subscriber{sub1, sub2},
		prefs: map[subscriber.ChatID]*subscriber.Preferences{100: wantsAll, 200: defaults},
	}
	p, ch, txns := pipelineFixture(t, fetcher, subs, 0)

	require.NoError(t, p.Run(context.Background()))

	// Status changes are off by default, so only the opted-in chat
	// receives the alert.
	require.Len(t, ch.chats, 1)
	assert.Equal(t, int64(100), ch.chats[0])
	assert.Equal(t, []int64{1}, txns.notified)
}

func TestPipeline_SkipsAlreadySeen(t *testing.T) {
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{txns: []*transaction.Transaction{
		testTxn(t, 1, "TR", "Trade", "Player One", date),
	}}

	sub, err := subscriber.NewSubscriber(100, "fan", "A", "Fan")
	require.NoError(t, err)
	subs := &fakeSubRepo{subs: []*subscriber.Subscriber{sub}}
	p, ch, _ := pipelineFixture(t, fetcher, subs, 0)

	require.NoError(t, p.Run(context.Background()))
	require.Len(t, ch.sent, 1)

	// The second poll returns the same transaction; nothing new goes out.
	require.NoError(t, p.Run(context.Background()))
	assert.Len(t, ch.sent, 1)
}

func TestPipeline_AnnounceChannelBypassesPreferences(t *testing.T) {
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{txns: []*transaction.Transaction{
		testTxn(t, 1, "SC", "Status Change", "Player One", date),
	}}

	// No subscribers at all; the announce channel still gets every move.
	subs := &fakeSubRepo{}
	p, ch, _ := pipelineFixture(t, fetcher, subs, -100500)

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, ch.chats, 1)
	assert.Equal(t, int64(-100500), ch.chats[0])
}

func TestPipeline_MinorLeagueVeto(t *testing.T) {
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	txn, err := transaction.NewTransaction(transaction.NewTransactionParams{
		ID:          1,
		PersonID:    10,
		PersonName:  "Prospect Player",
		ToTeamID:    transaction.MarinersTeamID,
		ToTeamName:  "Seattle Mariners",
		Date:        date,
		TypeCode:    "REC",
		TypeDesc:    "Recalled",
		Description: "Seattle Mariners recalled Prospect Player from Triple-A Tacoma.",
	})
	require.NoError(t, err)
	fetcher := &fakeFetcher{txns: []*transaction.Transaction{txn}}

	sub, err := subscriber.NewSubscriber(100, "fan", "A", "Fan")
	require.NoError(t, err)
	subs := &fakeSubRepo{subs: []*subscriber.Subscriber{sub}}
	p, ch, _ := pipelineFixture(t, fetcher, subs, 0)

	require.NoError(t, p.Run(context.Background()))

	// Default preferences are major league only, and the description
	// names a minor league affiliate.
	assert.Empty(t, ch.sent)
}

func TestPipeline_FetchErrorAborts(t *testing.T) {
	fetcher := &fakeFetcher{err: shared.ErrStatsAPIUnavailable}
	subs := &fakeSubRepo{}
	p, ch, _ := pipelineFixture(t, fetcher, subs, 0)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, ch.sent)
}
