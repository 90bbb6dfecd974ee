package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/notification"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/shared"
)

// fakeChannel replays a scripted sequence of delivery results and records
// every send.
type fakeChannel struct {
	script []notification.DeliveryResult
	sent   []string
	chats  []int64
}

func (c *fakeChannel) Send(_ context.Context, chatID int64, text string, _ notification.DeliveryOptions) notification.DeliveryResult {
	c.sent = append(c.sent, text)
	c.chats = append(c.chats, chatID)
	if len(c.script) == 0 {
		return notification.NewSuccessResult("1")
	}
	res := c.script[0]
	c.script = c.script[1:]
	return res
}

func (c *fakeChannel) IsAvailable(context.Context) bool { return true }

// fakeEventStore is an in-memory notification.Repository.
type fakeEventStore struct {
	events map[notification.EventID]*notification.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[notification.EventID]*notification.Event)}
}

func (s *fakeEventStore) Upsert(_ context.Context, e *notification.Event) error {
	s.events[e.ID] = e
	return nil
}

func (s *fakeEventStore) GetByID(_ context.Context, id notification.EventID) (*notification.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, shared.ErrEventNotFound
	}
	return e, nil
}

func (s *fakeEventStore) GetDueReminders(_ context.Context, due time.Time, limit int) ([]*notification.Event, error) {
	var out []*notification.Event
	for _, e := range s.events {
		if e.Kind == notification.KindGameReminder &&
			e.Status == notification.StatusPending &&
			!e.ScheduledAt.After(due) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeEventStore) GetByStatus(_ context.Context, status notification.Status, limit int) ([]*notification.Event, error) {
	var out []*notification.Event
	for _, e := range s.events {
		if e.Status == status {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeEventStore) UpdateStatus(_ context.Context, e *notification.Event) error {
	s.events[e.ID] = e
	return nil
}

func (s *fakeEventStore) CancelReminderForGame(_ context.Context, gamePk int) error {
	if e, ok := s.events[notification.ReminderEventID(gamePk)]; ok {
		_ = e.MarkCancelled()
	}
	return nil
}

func (s *fakeEventStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func newTestDispatcher(t *testing.T, ch *fakeChannel, store *fakeEventStore, clock *testClock) (*Dispatcher, *[]time.Duration) {
	t.Helper()
	cfg := Config{
		BatchWindow:     10 * time.Minute,
		MaxSendAttempts: 3,
		BaseBackoff:     1 * time.Second,
		RateLimitBuffer: 1 * time.Second,
	}
	d := NewDispatcher(ch, store, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var sleeps []time.Duration
	d.now = clock.Now
	d.batcher = NewBatcher(cfg.BatchWindow, clock.Now)
	d.sleep = func(_ context.Context, dur time.Duration) error {
		sleeps = append(sleeps, dur)
		clock.Advance(dur)
		return nil
	}
	return d, &sleeps
}

func TestDispatcher_FirstEventSendsImmediately(t *testing.T) {
	ch := &fakeChannel{}
	store := newFakeEventStore()
	d, _ := newTestDispatcher(t, ch, store, newTestClock())

	it := testItem(t, 1, "TR", "Trade")
	require.NoError(t, d.DispatchTransaction(context.Background(), it.Event, it.Txn))

	require.Len(t, ch.sent, 1)
	assert.Contains(t, ch.sent[0], "TRADE ALERT")
	assert.Equal(t, notification.StatusSent, it.Event.Status)
	assert.Equal(t, 1, it.Event.Attempts)
}

func TestDispatcher_SecondEventWithinWindowIsBatched(t *testing.T) {
	ch := &fakeChannel{}
	store := newFakeEventStore()
	clock := newTestClock()
	d, _ := newTestDispatcher(t, ch, store, clock)

	first := testItem(t, 1, "SC", "Status Change")
	require.NoError(t, d.DispatchTransaction(context.Background(), first.Event, first.Txn))
	require.Len(t, ch.sent, 1)

	clock.Advance(5 * time.Minute)
	second := testItem(t, 2, "REC", "Recalled")
	require.NoError(t, d.DispatchTransaction(context.Background(), second.Event, second.Txn))

	// Still one send: the second event is parked.
	assert.Len(t, ch.sent, 1)
	assert.Equal(t, notification.StatusBatched, second.Event.Status)

	// Past the window, the sweep flushes it.
	clock.Advance(6 * time.Minute)
	d.Sweep(context.Background())
	require.Len(t, ch.sent, 2)
	assert.Equal(t, notification.StatusSent, second.Event.Status)
}

func TestDispatcher_RateLimitDoesNotCountAgainstAttempts(t *testing.T) {
	ch := &fakeChannel{script: []notification.DeliveryResult{
		notification.NewRateLimitedResult(30 * time.Second),
	}}
	store := newFakeEventStore()
	d, sleeps := newTestDispatcher(t, ch, store, newTestClock())

	it := testItem(t, 1, "TR", "Trade")
	require.NoError(t, d.DispatchTransaction(context.Background(), it.Event, it.Txn))

	// One rate-limited attempt, one pause of at least retry-after plus
	// the safety buffer, then success. Both attempts are recorded.
	require.Len(t, ch.sent, 2)
	require.Len(t, *sleeps, 1)
	assert.GreaterOrEqual(t, (*sleeps)[0], 31*time.Second)
	assert.Equal(t, notification.StatusSent, it.Event.Status)
	assert.Equal(t, 2, it.Event.Attempts)
}

func TestDispatcher_TransientFailuresBackOffThenFail(t *testing.T) {
	transient := notification.NewFailureResult(errors.New("gateway timeout"), true)
	ch := &fakeChannel{script: []notification.DeliveryResult{transient, transient, transient}}
	store := newFakeEventStore()
	d, sleeps := newTestDispatcher(t, ch, store, newTestClock())

	it := testItem(t, 1, "SC", "Status Change")
	err := d.DispatchTransaction(context.Background(), it.Event, it.Txn)
	require.Error(t, err)

	// Three attempts with exponential backoff between them, then the
	// event is marked failed rather than restored.
	require.Len(t, ch.sent, 3)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *sleeps)
	assert.Equal(t, notification.StatusFailed, it.Event.Status)
	assert.Equal(t, 3, it.Event.Attempts)
}

func TestDispatcher_PermanentErrorFailsImmediately(t *testing.T) {
	ch := &fakeChannel{script: []notification.DeliveryResult{
		notification.NewFailureResult(notification.ErrRecipientBlocked, false),
	}}
	store := newFakeEventStore()
	d, sleeps := newTestDispatcher(t, ch, store, newTestClock())

	it := testItem(t, 1, "SC", "Status Change")
	err := d.DispatchTransaction(context.Background(), it.Event, it.Txn)
	require.Error(t, err)

	assert.Len(t, ch.sent, 1)
	assert.Empty(t, *sleeps)
	assert.Equal(t, notification.StatusFailed, it.Event.Status)
	assert.Equal(t, 1, it.Event.Attempts)
}

func TestDispatcher_FireDueReminders(t *testing.T) {
	ch := &fakeChannel{}
	store := newFakeEventStore()
	clock := newTestClock()
	d, _ := newTestDispatcher(t, ch, store, clock)

	due, err := notification.NewReminderEvent(1001, 500, clock.Now().Add(-2*time.Minute), "game starting soon")
	require.NoError(t, err)
	future, err := notification.NewReminderEvent(1002, 500, clock.Now().Add(30*time.Minute), "later game")
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), due))
	require.NoError(t, store.Upsert(context.Background(), future))

	require.NoError(t, d.FireDueReminders(context.Background(), 30*time.Minute))

	require.Len(t, ch.sent, 1)
	assert.Equal(t, "game starting soon", ch.sent[0])
	assert.Equal(t, int64(500), ch.chats[0])
	assert.Equal(t, notification.StatusSent, due.Status)
	assert.Equal(t, notification.StatusPending, future.Status)
}

func TestDispatcher_StaleReminderIsCancelledNotFired(t *testing.T) {
	ch := &fakeChannel{}
	store := newFakeEventStore()
	clock := newTestClock()
	d, _ := newTestDispatcher(t, ch, store, clock)

	stale, err := notification.NewReminderEvent(1001, 500, clock.Now().Add(-2*time.Hour), "long past")
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), stale))

	require.NoError(t, d.FireDueReminders(context.Background(), 30*time.Minute))

	assert.Empty(t, ch.sent)
	assert.Equal(t, notification.StatusCancelled, stale.Status)
}

func TestDispatcher_CancelAfterFireIsNoOp(t *testing.T) {
	ch := &fakeChannel{}
	store := newFakeEventStore()
	clock := newTestClock()
	d, _ := newTestDispatcher(t, ch, store, clock)

	ev, err := notification.NewReminderEvent(1001, 500, clock.Now().Add(-time.Minute), "game starting soon")
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), ev))
	require.NoError(t, d.FireDueReminders(context.Background(), 30*time.Minute))
	require.Equal(t, notification.StatusSent, ev.Status)

	// A postponement arriving after delivery must not unsend anything.
	require.NoError(t, d.CancelGameReminder(context.Background(), 1001, "postponed"))
	assert.Equal(t, notification.StatusSent, ev.Status)
}

func TestDispatcher_CancelMissingReminderIsNoOp(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeChannel{}, newFakeEventStore(), newTestClock())
	assert.NoError(t, d.CancelGameReminder(context.Background(), 9999, "postponed"))
}
