package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/notification"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// maxRateLimitWaits bounds how many consecutive flood-wait pauses a single
// delivery will honor before giving up.
const maxRateLimitWaits = 10

// Config holds the tunables of the dispatch engine.
type Config struct {
	// BatchWindow is how long after a flush subsequent events are held.
	BatchWindow time.Duration

	// MaxSendAttempts is the ceiling on failed send attempts per message.
	// Rate-limited attempts do not count toward it.
	MaxSendAttempts int

	// BaseBackoff is the delay after the first failed attempt. It doubles
	// on each subsequent failure.
	BaseBackoff time.Duration

	// RateLimitBuffer is added on top of the retry-after duration the
	// channel reports, so the next attempt lands safely past the window.
	RateLimitBuffer time.Duration
}

// DefaultConfig returns production dispatch settings.
func DefaultConfig() Config {
	return Config{
		BatchWindow:     10 * time.Minute,
		MaxSendAttempts: 3,
		BaseBackoff:     1 * time.Second,
		RateLimitBuffer: 1 * time.Second,
	}
}

// Dispatcher routes notification events to a delivery channel, batching
// per recipient and retrying transient failures. All per-recipient work
// runs under that recipient's lock, so concurrent triggers (new events,
// sweeps, reminders) never interleave for the same chat.
type Dispatcher struct {
	channel notification.Channel
	events  notification.Repository
	batcher *Batcher
	cfg     Config
	log     *slog.Logger

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDispatcher wires a dispatcher. A nil logger defaults to slog.Default.
func NewDispatcher(channel notification.Channel, events notification.Repository, cfg Config, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		channel: channel,
		events:  events,
		batcher: NewBatcher(cfg.BatchWindow, nil),
		cfg:     cfg,
		log:     log.With(slog.String("component", "dispatcher")),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DispatchTransaction routes one transaction event to its recipient.
// Inside an open batch window the event is parked; otherwise any pending
// items are drained and flushed together with the new event.
func (d *Dispatcher) DispatchTransaction(ctx context.Context, ev *notification.Event, txn *transaction.Transaction) error {
	unlock := d.batcher.LockRecipient(ev.ChatID)
	defer unlock()

	if d.batcher.ShouldBatch(ev.ChatID) {
		d.batcher.Add(ev.ChatID, Item{Event: ev, Txn: txn})
		if err := ev.MarkBatched(); err != nil {
			return err
		}
		if err := d.events.UpdateStatus(ctx, ev); err != nil {
			d.log.Warn("failed to persist batched status",
				slog.String("event_id", ev.ID.String()),
				slog.String("error", err.Error()))
		}
		notificationsBatched.Inc()
		d.log.Debug("event batched",
			slog.Int64("chat_id", ev.ChatID),
			slog.Int("pending", d.batcher.PendingCount(ev.ChatID)))
		return nil
	}

	items := d.batcher.Drain(ev.ChatID)
	items = append(items, Item{Event: ev, Txn: txn})
	return d.flushLocked(ctx, ev.ChatID, items, "event")
}

// Sweep flushes every recipient whose batch window has expired with
// items still pending. Errors are logged per recipient and never abort
// the sweep.
func (d *Dispatcher) Sweep(ctx context.Context) {
	for _, recipient := range d.batcher.RecipientsNeedingFlush() {
		func() {
			unlock := d.batcher.LockRecipient(recipient)
			defer unlock()

			// Re-check under the lock; a concurrent event may have
			// flushed this recipient already.
			items := d.batcher.Drain(recipient)
			if len(items) == 0 {
				return
			}
			if err := d.flushLocked(ctx, recipient, items, "sweep"); err != nil {
				d.log.Error("sweep flush failed",
					slog.Int64("chat_id", recipient),
					slog.String("error", err.Error()))
			}
		}()
	}
}

// flushLocked classifies, renders and delivers a set of items for one
// recipient. Caller must hold the recipient lock.
//
// All batches are rendered before anything is sent: a render failure
// restores every item to the pending buffer and delivers nothing. Send
// failures past the attempt ceiling mark the affected events Failed and
// are not restored.
func (d *Dispatcher) flushLocked(ctx context.Context, recipient int64, items []Item, trigger string) error {
	batches := Classify(items)

	messages := make([]string, len(batches))
	for i, batch := range batches {
		txns := make([]*transaction.Transaction, len(batch))
		for j, it := range batch {
			txns[j] = it.Txn
		}
		msg, err := RenderTransactions(txns)
		if err != nil {
			d.batcher.Restore(recipient, items)
			return fmt.Errorf("render batch: %w", err)
		}
		messages[i] = msg
	}

	var anySent bool
	var lastErr error
	for i, batch := range batches {
		attempts, err := d.deliver(ctx, recipient, messages[i])
		if err != nil {
			lastErr = err
			errText := err.Error()
			for _, it := range batch {
				if ferr := it.Event.MarkFailed(errText, attempts); ferr != nil {
					d.log.Warn("failed to mark event failed",
						slog.String("event_id", it.Event.ID.String()),
						slog.String("error", ferr.Error()))
					continue
				}
				if uerr := d.events.UpdateStatus(ctx, it.Event); uerr != nil {
					d.log.Warn("failed to persist failed status",
						slog.String("event_id", it.Event.ID.String()),
						slog.String("error", uerr.Error()))
				}
				notificationsFailed.WithLabelValues(string(it.Event.Kind)).Inc()
			}
			d.log.Error("batch delivery failed",
				slog.Int64("chat_id", recipient),
				slog.Int("batch_size", len(batch)),
				slog.Int("attempts", attempts),
				slog.String("error", errText))
			continue
		}

		anySent = true
		batchSize.Observe(float64(len(batch)))
		for _, it := range batch {
			if serr := it.Event.MarkSent(attempts); serr != nil {
				d.log.Warn("failed to mark event sent",
					slog.String("event_id", it.Event.ID.String()),
					slog.String("error", serr.Error()))
				continue
			}
			if uerr := d.events.UpdateStatus(ctx, it.Event); uerr != nil {
				d.log.Warn("failed to persist sent status",
					slog.String("event_id", it.Event.ID.String()),
					slog.String("error", uerr.Error()))
			}
			notificationsSent.WithLabelValues(string(it.Event.Kind)).Inc()
		}
	}

	if anySent {
		d.batcher.MarkFlushed(recipient)
		batchFlushes.WithLabelValues(trigger).Inc()
	}
	return lastErr
}

// deliver sends one message with retries. It returns the total number of
// send attempts made, including rate-limited ones.
//
// Three outcomes can follow a failed attempt: a rate limit pauses for the
// reported retry-after plus a buffer and does not count against the
// attempt ceiling; a retryable error backs off exponentially and counts;
// a permanent error aborts immediately.
func (d *Dispatcher) deliver(ctx context.Context, chatID int64, text string) (int, error) {
	opts := notification.DefaultDeliveryOptions()

	attempts := 0
	failures := 0
	rateLimitWaits := 0
	for {
		attempts++
		res := d.channel.Send(ctx, chatID, text, opts)
		if res.Success {
			return attempts, nil
		}

		if res.RateLimited {
			rateLimitWaits++
			if rateLimitWaits > maxRateLimitWaits {
				return attempts, fmt.Errorf("rate limited %d times in a row: %w", rateLimitWaits, notification.ErrRateLimited)
			}
			wait := res.RetryAfter + d.cfg.RateLimitBuffer
			d.log.Warn("rate limited, pausing",
				slog.Int64("chat_id", chatID),
				slog.Duration("wait", wait))
			sendRetries.WithLabelValues("rate_limit").Inc()
			if err := d.sleep(ctx, wait); err != nil {
				return attempts, err
			}
			continue
		}

		if !res.Retryable {
			return attempts, res.Error
		}

		failures++
		if failures >= d.cfg.MaxSendAttempts {
			return attempts, res.Error
		}
		backoff := d.cfg.BaseBackoff << (failures - 1)
		sendRetries.WithLabelValues("transient").Inc()
		if err := d.sleep(ctx, backoff); err != nil {
			return attempts, err
		}
	}
}

// PendingCount reports how many items are pending for a recipient.
// Intended for health reporting.
func (d *Dispatcher) PendingCount(recipient int64) int {
	unlock := d.batcher.LockRecipient(recipient)
	defer unlock()
	return d.batcher.PendingCount(recipient)
}
