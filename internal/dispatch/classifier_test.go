package dispatch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

func TestTierOf(t *testing.T) {
	assert.Equal(t, TierHigh, TierOf(transaction.TypeTrade))
	assert.Equal(t, TierHigh, TierOf(transaction.TypeSignedFreeAgent))
	assert.Equal(t, TierMedium, TierOf(transaction.TypeRecalled))
	assert.Equal(t, TierMedium, TierOf(transaction.TypeActivated))
	assert.Equal(t, TierMedium, TierOf(transaction.TypeInjuredList))
	assert.Equal(t, TierMedium, TierOf(transaction.TypeOptioned))
	assert.Equal(t, TierLow, TierOf(transaction.TypeStatusChange))
	assert.Equal(t, TierLow, TierOf(transaction.TypeReleased))
}

func TestClassify_SmallMixedBatchStaysTogether(t *testing.T) {
	// Medium and low together, five or fewer: one batch in arrival order.
	items := []Item{
		testItem(t, 1, "REC", "Recalled"),
		testItem(t, 2, "SC", "Status Change"),
		testItem(t, 3, "OPT", "Optioned"),
	}

	batches := Classify(items)
	require.Len(t, batches, 1)
	assert.Equal(t, items, batches[0])
}

func TestClassify_HighAndLowSplit(t *testing.T) {
	items := []Item{
		testItem(t, 1, "SC", "Status Change"),
		testItem(t, 2, "TR", "Trade"),
	}

	batches := Classify(items)
	require.Len(t, batches, 2)

	// The trade goes first as its own unit; the low-tier event follows.
	require.Len(t, batches[0], 1)
	assert.Equal(t, int64(2), batches[0][0].Txn.ID)
	require.Len(t, batches[1], 1)
	assert.Equal(t, int64(1), batches[1][0].Txn.ID)
}

func TestClassify_HighStaysUnchunked(t *testing.T) {
	// Seven trades plus one low-tier event: the split triggers, all
	// seven trades travel as a single unit.
	var items []Item
	for i := 1; i <= 7; i++ {
		items = append(items, testItem(t, int64(i), "TR", "Trade"))
	}
	items = append(items, testItem(t, 8, "SC", "Status Change"))

	batches := Classify(items)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 7)
	assert.Len(t, batches[1], 1)
}

func TestClassify_OversizeLowChunks(t *testing.T) {
	var items []Item
	for i := 1; i <= 11; i++ {
		items = append(items, testItem(t, int64(i), "SC", "Status Change"))
	}

	batches := Classify(items)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 5)
	assert.Len(t, batches[1], 5)
	assert.Len(t, batches[2], 1)
}

func TestClassify_MediumAndLowConcatenateBeforeChunking(t *testing.T) {
	items := []Item{
		testItem(t, 1, "SC", "Status Change"),
		testItem(t, 2, "REC", "Recalled"),
		testItem(t, 3, "SC", "Status Change"),
		testItem(t, 4, "OPT", "Optioned"),
		testItem(t, 5, "SC", "Status Change"),
		testItem(t, 6, "SC", "Status Change"),
	}

	batches := Classify(items)
	require.Len(t, batches, 2)

	// Medium events come before low within the reordered stream, each
	// tier keeping its own arrival order.
	var ids []int64
	for _, b := range batches {
		for _, it := range b {
			ids = append(ids, it.Txn.ID)
		}
	}
	assert.Equal(t, []int64{2, 4, 1, 3, 5, 6}, ids)
}

func TestClassify_ConcatenationReproducesInput(t *testing.T) {
	var items []Item
	codes := []string{"TR", "SC", "REC", "SFA", "OPT", "SC", "IL", "REL"}
	for i, code := range codes {
		items = append(items, testItem(t, int64(i+1), code, fmt.Sprintf("Type %s", code)))
	}

	batches := Classify(items)

	total := 0
	seen := make(map[int64]bool)
	for _, b := range batches {
		total += len(b)
		for _, it := range b {
			assert.False(t, seen[it.Txn.ID], "transaction %d duplicated", it.Txn.ID)
			seen[it.Txn.ID] = true
		}
	}
	assert.Equal(t, len(items), total)
}

func TestClassify_Empty(t *testing.T) {
	assert.Empty(t, Classify(nil))
}
