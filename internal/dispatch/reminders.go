package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/notification"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAME REMINDERS
// ══════════════════════════════════════════════════════════════════════════════

// dueReminderFetchLimit caps how many reminders one pass will load.
const dueReminderFetchLimit = 100

// FireDueReminders delivers every reminder whose scheduled time has
// passed. Reminders older than the grace period are cancelled instead of
// fired, so a long outage does not spray reminders for games already in
// progress or finished. Individual failures are logged and do not stop
// the pass.
func (d *Dispatcher) FireDueReminders(ctx context.Context, grace time.Duration) error {
	now := d.now()
	due, err := d.events.GetDueReminders(ctx, now, dueReminderFetchLimit)
	if err != nil {
		return fmt.Errorf("load due reminders: %w", err)
	}

	for _, ev := range due {
		if ev.IsStale(now, grace) {
			d.cancelStale(ctx, ev)
			continue
		}
		d.fireReminder(ctx, ev)
	}
	return nil
}

func (d *Dispatcher) cancelStale(ctx context.Context, ev *notification.Event) {
	if err := ev.MarkCancelled(); err != nil {
		d.log.Warn("failed to cancel stale reminder",
			slog.String("event_id", ev.ID.String()),
			slog.String("error", err.Error()))
		return
	}
	if err := d.events.UpdateStatus(ctx, ev); err != nil {
		d.log.Warn("failed to persist cancelled status",
			slog.String("event_id", ev.ID.String()),
			slog.String("error", err.Error()))
		return
	}
	remindersCancelled.WithLabelValues("stale").Inc()
	d.log.Info("stale reminder cancelled",
		slog.String("event_id", ev.ID.String()),
		slog.Time("scheduled_at", ev.ScheduledAt))
}

// fireReminder delivers a single reminder under the recipient lock, so a
// concurrent transaction flush for the same chat cannot interleave.
// Reminders bypass batching: they are time-sensitive and go out directly.
func (d *Dispatcher) fireReminder(ctx context.Context, ev *notification.Event) {
	unlock := d.batcher.LockRecipient(ev.ChatID)
	defer unlock()

	attempts, err := d.deliver(ctx, ev.ChatID, ev.Message)
	if err != nil {
		if ferr := ev.MarkFailed(err.Error(), attempts); ferr == nil {
			if uerr := d.events.UpdateStatus(ctx, ev); uerr != nil {
				d.log.Warn("failed to persist failed status",
					slog.String("event_id", ev.ID.String()),
					slog.String("error", uerr.Error()))
			}
		}
		notificationsFailed.WithLabelValues(string(notification.KindGameReminder)).Inc()
		d.log.Error("reminder delivery failed",
			slog.String("event_id", ev.ID.String()),
			slog.Int64("chat_id", ev.ChatID),
			slog.Int("attempts", attempts),
			slog.String("error", err.Error()))
		return
	}

	if serr := ev.MarkSent(attempts); serr != nil {
		d.log.Warn("failed to mark reminder sent",
			slog.String("event_id", ev.ID.String()),
			slog.String("error", serr.Error()))
		return
	}
	if uerr := d.events.UpdateStatus(ctx, ev); uerr != nil {
		d.log.Warn("failed to persist sent status",
			slog.String("event_id", ev.ID.String()),
			slog.String("error", uerr.Error()))
	}
	notificationsSent.WithLabelValues(string(notification.KindGameReminder)).Inc()
	d.log.Info("reminder sent",
		slog.String("event_id", ev.ID.String()),
		slog.Int64("chat_id", ev.ChatID),
		slog.Int("attempts", attempts))
}

// CancelGameReminder cancels the pending reminder for a game, typically
// after a postponement or cancellation. If the reminder already fired or
// was cancelled, the call is a no-op: a delivered reminder stays
// delivered.
func (d *Dispatcher) CancelGameReminder(ctx context.Context, gamePk int, reason string) error {
	id := notification.ReminderEventID(gamePk)
	ev, err := d.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, notification.ErrEventNotFound) || errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load reminder %s: %w", id, err)
	}

	if err := ev.MarkCancelled(); err != nil {
		// Terminal state: the reminder fired (or was cancelled) before
		// the cancellation arrived.
		d.log.Debug("reminder not cancellable",
			slog.String("event_id", ev.ID.String()),
			slog.String("status", ev.Status.String()))
		return nil
	}
	if err := d.events.UpdateStatus(ctx, ev); err != nil {
		return fmt.Errorf("persist cancelled status: %w", err)
	}
	remindersCancelled.WithLabelValues(reason).Inc()
	d.log.Info("game reminder cancelled",
		slog.Int("game_pk", gamePk),
		slog.String("reason", reason))
	return nil
}
