// Package dispatch implements the notification scheduling and batching
// engine: per-recipient coalescing of transaction bursts, priority
// classification, message rendering, and the delivery loop with retry and
// flood-wait handling. All decisions about WHEN a stored event becomes a
// user-visible message live here.
package dispatch

import (
	"sync"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/notification"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

// Item pairs a notification event with the transaction it announces.
// The event carries delivery state; the transaction carries the content
// the classifier and renderer work with.
type Item struct {
	Event *notification.Event
	Txn   *transaction.Transaction
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Batcher coalesces transaction notifications per recipient.
//
// Each recipient moves through two states. Their very first event is
// delivered immediately, which records a flush time and opens a batch
// window. Events arriving within the window of the last flush are parked;
// the next event outside the window, or the periodic sweep, flushes
// everything pending as one message.
//
// Batch state is held only in memory and is lost on restart. After a
// restart every recipient looks first-time again, so the worst case is one
// extra immediate delivery, never a lost event: events themselves are
// durable in the store.
type Batcher struct {
	window time.Duration
	now    func() time.Time

	mu         sync.Mutex
	recipients map[int64]*recipientBatch
}

// recipientBatch is the per-recipient buffer. Its lock serializes the
// recipient's whole flush pipeline, including the send, so a sweep and an
// arriving event can never interleave drain with append.
type recipientBatch struct {
	mu          sync.Mutex
	pending     []Item
	lastFlushAt time.Time
	hasFlushed  bool
}

// NewBatcher creates a batcher with the given coalescing window.
// The now function is injectable for tests; pass nil for wall clock.
func NewBatcher(window time.Duration, now func() time.Time) *Batcher {
	if now == nil {
		now = time.Now
	}
	return &Batcher{
		window:     window,
		now:        now,
		recipients: make(map[int64]*recipientBatch),
	}
}

// get returns the buffer for a recipient, creating it on first sight.
// Buffers are never destroyed for the life of the process.
func (b *Batcher) get(recipient int64) *recipientBatch {
	b.mu.Lock()
	defer b.mu.Unlock()

	rb, ok := b.recipients[recipient]
	if !ok {
		rb = &recipientBatch{}
		b.recipients[recipient] = rb
	}
	return rb
}

// LockRecipient acquires the recipient's mutual-exclusion domain and
// returns the unlock function. Callers hold it across the entire
// drain-render-send-mark sequence.
func (b *Batcher) LockRecipient(recipient int64) func() {
	rb := b.get(recipient)
	rb.mu.Lock()
	return rb.mu.Unlock
}

// ShouldBatch reports whether the next event for this recipient should be
// parked rather than delivered. True only when the recipient has flushed
// before and the window since that flush has not elapsed. A recipient's
// first-ever event always returns false.
//
// Caller must hold the recipient lock.
func (b *Batcher) ShouldBatch(recipient int64) bool {
	rb := b.get(recipient)

	if !rb.hasFlushed {
		return false
	}
	return b.now().Sub(rb.lastFlushAt) <= b.window
}

// Add appends an event to the recipient's pending buffer. Append-only;
// size capping happens in the classifier at flush time.
//
// Caller must hold the recipient lock.
func (b *Batcher) Add(recipient int64, it Item) {
	rb := b.get(recipient)
	rb.pending = append(rb.pending, it)
}

// Drain atomically returns and clears the pending buffer. Draining an
// empty buffer returns nil, so drain is idempotent.
//
// Caller must hold the recipient lock.
func (b *Batcher) Drain(recipient int64) []Item {
	rb := b.get(recipient)

	items := rb.pending
	rb.pending = nil
	return items
}

// Restore puts drained items back at the front of the buffer, preserving
// order ahead of anything that arrived meanwhile. Used when a flush
// attempt aborts before delivery so the batch is retried whole.
//
// Caller must hold the recipient lock.
func (b *Batcher) Restore(recipient int64, items []Item) {
	if len(items) == 0 {
		return
	}
	rb := b.get(recipient)
	rb.pending = append(items, rb.pending...)
}

// MarkFlushed records now as the recipient's last flush time and opens a
// fresh batch window.
//
// Caller must hold the recipient lock.
func (b *Batcher) MarkFlushed(recipient int64) {
	rb := b.get(recipient)
	rb.lastFlushAt = b.now()
	rb.hasFlushed = true
}

// PendingCount returns the number of parked events for a recipient.
//
// Caller must hold the recipient lock.
func (b *Batcher) PendingCount(recipient int64) int {
	return len(b.get(recipient).pending)
}

// RecipientsNeedingFlush returns every recipient holding pending events
// older than the batch window since their last flush. This is the sweep
// that guarantees no batch waits indefinitely for a triggering arrival.
//
// The returned recipients must each be flushed under LockRecipient. The
// map lock only guards the map itself; buffer state is read under the
// recipient lock. Flushes hold that lock across the send, so the sweep
// uses TryLock and skips anyone mid-flush rather than queueing behind a
// delivery. A skipped recipient is either being flushed right now or
// shows up on the next sweep.
func (b *Batcher) RecipientsNeedingFlush() []int64 {
	b.mu.Lock()
	snapshot := make(map[int64]*recipientBatch, len(b.recipients))
	for id, rb := range b.recipients {
		snapshot[id] = rb
	}
	b.mu.Unlock()

	now := b.now()
	var due []int64
	for id, rb := range snapshot {
		if !rb.mu.TryLock() {
			continue
		}
		overdue := len(rb.pending) > 0 && now.Sub(rb.lastFlushAt) > b.window
		rb.mu.Unlock()
		if overdue {
			due = append(due, id)
		}
	}
	return due
}
