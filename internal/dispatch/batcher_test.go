package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/notification"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

func testItem(t *testing.T, id int64, typeCode, typeDesc string) Item {
	t.Helper()
	txn, err := transaction.NewTransaction(transaction.NewTransactionParams{
		ID:          id,
		PersonID:    id * 10,
		PersonName:  "Test Player",
		ToTeamID:    transaction.MarinersTeamID,
		ToTeamName:  "Seattle Mariners",
		Date:        time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		TypeCode:    typeCode,
		TypeDesc:    typeDesc,
		Description: "Seattle Mariners signed Test Player.",
	})
	require.NoError(t, err)

	ev, err := notification.NewTransactionEvent(
		notification.TransactionEventID(id, 1000), id, 1000)
	require.NoError(t, err)
	return Item{Event: ev, Txn: txn}
}

// testClock is a settable clock for driving the batch window in tests.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBatcher_FirstEventNeverBatches(t *testing.T) {
	clock := newTestClock()
	b := NewBatcher(10*time.Minute, clock.Now)

	unlock := b.LockRecipient(1000)
	defer unlock()

	// Nothing was ever flushed for this recipient, so the first event
	// goes straight out.
	assert.False(t, b.ShouldBatch(1000))
}

func TestBatcher_WithinWindowBatches(t *testing.T) {
	clock := newTestClock()
	b := NewBatcher(10*time.Minute, clock.Now)

	unlock := b.LockRecipient(1000)
	defer unlock()
	b.MarkFlushed(1000)

	clock.Advance(5 * time.Minute)
	assert.True(t, b.ShouldBatch(1000))

	clock.Advance(5 * time.Minute)
	assert.True(t, b.ShouldBatch(1000))

	clock.Advance(time.Second)
	assert.False(t, b.ShouldBatch(1000))
}

func TestBatcher_DrainIsIdempotent(t *testing.T) {
	b := NewBatcher(10*time.Minute, nil)

	unlock := b.LockRecipient(1000)
	defer unlock()

	b.Add(1000, testItem(t, 1, "SC", "Status Change"))
	b.Add(1000, testItem(t, 2, "SC", "Status Change"))

	first := b.Drain(1000)
	assert.Len(t, first, 2)
	assert.Empty(t, b.Drain(1000))
	assert.Zero(t, b.PendingCount(1000))
}

func TestBatcher_RestorePrepends(t *testing.T) {
	b := NewBatcher(10*time.Minute, nil)

	unlock := b.LockRecipient(1000)
	defer unlock()

	older := testItem(t, 1, "SC", "Status Change")
	b.Add(1000, testItem(t, 2, "SC", "Status Change"))
	b.Restore(1000, []Item{older})

	items := b.Drain(1000)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].Txn.ID)
	assert.Equal(t, int64(2), items[1].Txn.ID)
}

func TestBatcher_SweepAfterWindowExpires(t *testing.T) {
	clock := newTestClock()
	b := NewBatcher(10*time.Minute, clock.Now)

	// Event A flushed immediately; B and C arrive inside the window
	// and are parked.
	unlock := b.LockRecipient(1000)
	b.MarkFlushed(1000)
	clock.Advance(5 * time.Minute)
	b.Add(1000, testItem(t, 2, "SC", "Status Change"))
	clock.Advance(3 * time.Minute)
	b.Add(1000, testItem(t, 3, "SC", "Status Change"))
	unlock()

	// Still inside the window: nothing to sweep.
	assert.Empty(t, b.RecipientsNeedingFlush())

	// Window long expired: the recipient needs a flush with both
	// parked events still pending.
	clock.Advance(12 * time.Minute)
	require.Equal(t, []int64{1000}, b.RecipientsNeedingFlush())

	unlock = b.LockRecipient(1000)
	defer unlock()
	items := b.Drain(1000)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].Txn.ID)
	assert.Equal(t, int64(3), items[1].Txn.ID)
}

func TestBatcher_EmptyPendingNeedsNoFlush(t *testing.T) {
	clock := newTestClock()
	b := NewBatcher(10*time.Minute, clock.Now)

	unlock := b.LockRecipient(1000)
	b.MarkFlushed(1000)
	unlock()

	clock.Advance(time.Hour)
	assert.Empty(t, b.RecipientsNeedingFlush())
}

func TestBatcher_RecipientsAreIndependent(t *testing.T) {
	clock := newTestClock()
	b := NewBatcher(10*time.Minute, clock.Now)

	unlock := b.LockRecipient(1000)
	b.MarkFlushed(1000)
	unlock()

	clock.Advance(5 * time.Minute)

	unlock = b.LockRecipient(2000)
	defer unlock()

	// Recipient 2000 never flushed, so 1000's window does not apply.
	assert.False(t, b.ShouldBatch(2000))
}

func TestBatcher_SweepSkipsRecipientMidFlush(t *testing.T) {
	clock := newTestClock()
	b := NewBatcher(10*time.Minute, clock.Now)

	unlock := b.LockRecipient(1000)
	b.MarkFlushed(1000)
	b.Add(1000, testItem(t, 2, "SC", "Status Change"))
	clock.Advance(12 * time.Minute)

	// The recipient lock is still held, as during an in-flight flush,
	// so the sweep passes over the recipient instead of waiting.
	assert.Empty(t, b.RecipientsNeedingFlush())
	unlock()

	// Lock released: the next sweep picks the recipient up.
	assert.Equal(t, []int64{1000}, b.RecipientsNeedingFlush())
}

// Runs the periodic sweep against concurrent per-recipient flush
// pipelines. Under the race detector this fails if the sweep reads
// buffer state outside the recipient lock.
func TestBatcher_SweepConcurrentWithFlushes(t *testing.T) {
	b := NewBatcher(time.Millisecond, nil)
	it := testItem(t, 2, "SC", "Status Change")

	stop := make(chan struct{})
	var sweeper sync.WaitGroup
	sweeper.Add(1)
	go func() {
		defer sweeper.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, id := range b.RecipientsNeedingFlush() {
				unlock := b.LockRecipient(id)
				b.Drain(id)
				b.MarkFlushed(id)
				unlock()
			}
		}
	}()

	var producers sync.WaitGroup
	for g := 0; g < 8; g++ {
		producers.Add(1)
		go func(id int64) {
			defer producers.Done()
			for i := 0; i < 500; i++ {
				unlock := b.LockRecipient(id)
				if b.ShouldBatch(id) {
					b.Add(id, it)
				} else {
					b.Drain(id)
					b.MarkFlushed(id)
				}
				unlock()
			}
		}(int64(1000 + g))
	}

	producers.Wait()
	close(stop)
	sweeper.Wait()
}
