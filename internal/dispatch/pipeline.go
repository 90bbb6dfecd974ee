package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/notification"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/subscriber"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
	"github.com/mariners-hub/mariners-gameday-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION PIPELINE
// ══════════════════════════════════════════════════════════════════════════════

// TransactionFetcher pulls roster transactions from the upstream API.
type TransactionFetcher interface {
	FetchTransactions(ctx context.Context, r timeutil.DateRange) ([]*transaction.Transaction, error)
}

// SeenTracker deduplicates transactions across polls. MarkSeen returns
// true the first time an id is recorded and false on every later call.
type SeenTracker interface {
	MarkSeen(ctx context.Context, id int64) (bool, error)
}

// TransactionPipeline drives one poll cycle: fetch recent transactions,
// drop the already-seen ones, route the rest to every subscriber whose
// preferences accept them, then sweep expired batch windows.
type TransactionPipeline struct {
	fetcher      TransactionFetcher
	seen         SeenTracker
	txns         transaction.Repository
	subs         subscriber.Repository
	events       notification.Repository
	dispatcher   *Dispatcher
	lookbackDays int

	// announceChatID is the broadcast channel that receives every
	// Mariners transaction regardless of preferences. Zero disables it.
	announceChatID int64

	log *slog.Logger
}

// NewTransactionPipeline wires a pipeline. A nil logger defaults to
// slog.Default.
func NewTransactionPipeline(
	fetcher TransactionFetcher,
	seen SeenTracker,
	txns transaction.Repository,
	subs subscriber.Repository,
	events notification.Repository,
	dispatcher *Dispatcher,
	lookbackDays int,
	announceChatID int64,
	log *slog.Logger,
) *TransactionPipeline {
	if log == nil {
		log = slog.Default()
	}
	return &TransactionPipeline{
		fetcher:        fetcher,
		seen:           seen,
		txns:           txns,
		subs:           subs,
		events:         events,
		dispatcher:     dispatcher,
		lookbackDays:   lookbackDays,
		announceChatID: announceChatID,
		log:            log.With(slog.String("component", "transaction_pipeline")),
	}
}

// Run executes one poll cycle. Per-transaction and per-recipient errors
// are logged and skipped; only a fetch failure aborts the cycle. The
// batch sweep runs at the end of every cycle, including cycles that
// found nothing new.
func (p *TransactionPipeline) Run(ctx context.Context) error {
	defer p.dispatcher.Sweep(ctx)

	window := timeutil.LastNDays(timeutil.Now(), p.lookbackDays)
	fetched, err := p.fetcher.FetchTransactions(ctx, window)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}
	transactionsFetched.Add(float64(len(fetched)))

	var fresh []*transaction.Transaction
	for _, t := range fetched {
		if !t.IsMarinersTransaction() {
			continue
		}
		if err := p.txns.Upsert(ctx, t); err != nil {
			p.log.Warn("failed to store transaction",
				slog.Int64("transaction_id", t.ID),
				slog.String("error", err.Error()))
			continue
		}
		isNew, err := p.seen.MarkSeen(ctx, t.ID)
		if err != nil {
			p.log.Warn("seen tracker error, treating transaction as new",
				slog.Int64("transaction_id", t.ID),
				slog.String("error", err.Error()))
			isNew = !t.Notified
		}
		if isNew {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	transactionsNew.Add(float64(len(fresh)))
	p.log.Info("new transactions found", slog.Int("count", len(fresh)))

	recipients, err := p.loadRecipients(ctx)
	if err != nil {
		return err
	}

	routed := make([]int64, 0, len(fresh))
	for _, t := range fresh {
		if p.routeTransaction(ctx, t, recipients) {
			routed = append(routed, t.ID)
		}
	}
	if len(routed) > 0 {
		if err := p.txns.MarkNotified(ctx, routed); err != nil {
			p.log.Warn("failed to mark transactions notified",
				slog.Int("count", len(routed)),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// recipient pairs a chat with its delivery preferences.
type recipient struct {
	chatID int64
	prefs  *subscriber.Preferences
}

// loadRecipients resolves the current delivery list: the announce channel
// first, then every subscribed user with their stored preferences.
func (p *TransactionPipeline) loadRecipients(ctx context.Context) ([]recipient, error) {
	var out []recipient
	if p.announceChatID != 0 {
		out = append(out, recipient{chatID: p.announceChatID, prefs: nil})
	}

	subs, err := p.subs.GetSubscribed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	for _, s := range subs {
		prefs, err := p.subs.GetPreferences(ctx, s.ChatID)
		if err != nil {
			p.log.Warn("failed to load preferences, skipping recipient",
				slog.Int64("chat_id", int64(s.ChatID)),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, recipient{chatID: int64(s.ChatID), prefs: prefs})
	}
	return out, nil
}

// routeTransaction fans one transaction out to every matching recipient.
// It reports whether at least one recipient accepted it. A nil
// preferences pointer means deliver unconditionally (the announce
// channel).
func (p *TransactionPipeline) routeTransaction(ctx context.Context, t *transaction.Transaction, recipients []recipient) bool {
	delivered := false
	for _, r := range recipients {
		if r.prefs != nil && !r.prefs.ShouldDeliver(t.Type(), t.Description) {
			continue
		}

		ev, err := notification.NewTransactionEvent(
			notification.TransactionEventID(t.ID, r.chatID), t.ID, r.chatID)
		if err != nil {
			p.log.Warn("failed to build transaction event",
				slog.Int64("transaction_id", t.ID),
				slog.Int64("chat_id", r.chatID),
				slog.String("error", err.Error()))
			continue
		}
		if err := p.events.Upsert(ctx, ev); err != nil {
			p.log.Warn("failed to persist transaction event",
				slog.String("event_id", ev.ID.String()),
				slog.String("error", err.Error()))
		}
		if err := p.dispatcher.DispatchTransaction(ctx, ev, t); err != nil {
			p.log.Error("transaction dispatch failed",
				slog.String("event_id", ev.ID.String()),
				slog.Int64("chat_id", r.chatID),
				slog.String("error", err.Error()))
			continue
		}
		delivered = true
	}
	return delivered
}
