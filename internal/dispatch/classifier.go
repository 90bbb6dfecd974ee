package dispatch

import (
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRIORITY CLASSIFIER
// ══════════════════════════════════════════════════════════════════════════════

// Tier is the coarse priority of a transaction, used only to decide how a
// flush is grouped into messages, never delivery order across recipients.
type Tier int

const (
	// TierHigh - headline moves: trades and free agent signings.
	TierHigh Tier = iota

	// TierMedium - routine roster churn: recalls, activations, injured
	// list moves, options.
	TierMedium

	// TierLow - everything else.
	TierLow
)

// String returns the string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// TierOf maps a transaction type to its priority tier.
func TierOf(t transaction.Type) Tier {
	switch t {
	case transaction.TypeTrade, transaction.TypeSignedFreeAgent:
		return TierHigh
	case transaction.TypeRecalled, transaction.TypeActivated,
		transaction.TypeInjuredList, transaction.TypeOptioned:
		return TierMedium
	default:
		return TierLow
	}
}

// maxBatchSize caps how many transactions share one message once a flush
// is split.
const maxBatchSize = 5

// Classify partitions a flush into one or more message-sized batches.
//
// The split decision: split iff the High and Low tiers are both non-empty,
// or the total count exceeds maxBatchSize. An unsplit flush goes out as a
// single batch in arrival order. A split flush leads with all High-tier
// items as one unit (never chunked further), then the Medium and Low items
// concatenated in tier order, chunked into groups of at most maxBatchSize,
// arrival order preserved within each tier.
//
// Concatenating the returned batches always reproduces the input items
// with multiplicity; nothing is dropped or duplicated.
func Classify(items []Item) [][]Item {
	if len(items) == 0 {
		return nil
	}

	var high, medium, low []Item
	for _, it := range items {
		switch TierOf(it.Txn.Type()) {
		case TierHigh:
			high = append(high, it)
		case TierMedium:
			medium = append(medium, it)
		default:
			low = append(low, it)
		}
	}

	split := (len(high) > 0 && len(low) > 0) || len(items) > maxBatchSize
	if !split {
		return [][]Item{items}
	}

	var batches [][]Item
	if len(high) > 0 {
		batches = append(batches, high)
	}

	rest := append(medium, low...)
	for start := 0; start < len(rest); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(rest) {
			end = len(rest)
		}
		batches = append(batches, rest[start:end])
	}

	return batches
}
