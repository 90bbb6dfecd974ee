package dispatch

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

func testTxn(t *testing.T, id int64, typeCode, typeDesc, player string, date time.Time) *transaction.Transaction {
	t.Helper()
	txn, err := transaction.NewTransaction(transaction.NewTransactionParams{
		ID:          id,
		PersonID:    id * 10,
		PersonName:  player,
		ToTeamID:    transaction.MarinersTeamID,
		ToTeamName:  "Seattle Mariners",
		Date:        date,
		TypeCode:    typeCode,
		TypeDesc:    typeDesc,
		Description: "Seattle Mariners transaction for " + player + ".",
	})
	require.NoError(t, err)
	return txn
}

func TestRenderTransactions_Empty(t *testing.T) {
	_, err := RenderTransactions(nil)
	assert.ErrorIs(t, err, ErrNothingToRender)
}

func TestRenderTransactions_SingleIsDetailed(t *testing.T) {
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	txn := testTxn(t, 1, "TR", "Trade", "Julio Rodriguez", date)

	msg, err := RenderTransactions([]*transaction.Transaction{txn})
	require.NoError(t, err)

	assert.Contains(t, msg, "TRADE ALERT")
	assert.Contains(t, msg, "➡️")
	assert.Contains(t, msg, "👤 <b>Player:</b> Julio Rodriguez")
	assert.Contains(t, msg, "📅 <b>Date:</b> July 15, 2025")
	assert.Contains(t, msg, "🌊 Go Mariners!")
	assert.NotContains(t, msg, "MARINERS TRANSACTION UPDATE")
}

func TestRenderTransactions_SingleTitlesByType(t *testing.T) {
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		code, desc, want string
	}{
		{"SFA", "Signed as Free Agent", "FREE AGENT SIGNING"},
		{"IL", "Placed on Injured List", "INJURY UPDATE"},
		{"ACT", "Activated", "ACTIVATION"},
		{"REC", "Recalled", "PLAYER RECALLED"},
		{"OPT", "Optioned", "PLAYER OPTIONED"},
		{"SC", "Status Change", "STATUS CHANGE"},
	}
	for _, tc := range cases {
		txn := testTxn(t, 1, tc.code, tc.desc, "Cal Raleigh", date)
		msg, err := RenderTransactions([]*transaction.Transaction{txn})
		require.NoError(t, err)
		assert.Contains(t, msg, tc.want, "type %s", tc.code)
	}
}

func TestRenderTransactions_SingleShowsDistinctEffectiveDate(t *testing.T) {
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	txn := testTxn(t, 1, "OPT", "Optioned", "Bryce Miller", date)
	msg, err := RenderTransactions([]*transaction.Transaction{txn})
	require.NoError(t, err)
	assert.NotContains(t, msg, "Effective:")

	effective := date.AddDate(0, 0, 2)
	txn.EffectiveDate = &effective
	msg, err = RenderTransactions([]*transaction.Transaction{txn})
	require.NoError(t, err)
	assert.Contains(t, msg, "⏰ <b>Effective:</b> July 17, 2025")
}

func TestRenderTransactions_BatchIsAggregate(t *testing.T) {
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	txns := []*transaction.Transaction{
		testTxn(t, 1, "SC", "Status Change", "Player One", date),
		testTxn(t, 2, "SC", "Status Change", "Player Two", date),
	}

	msg, err := RenderTransactions(txns)
	require.NoError(t, err)

	assert.Contains(t, msg, "🔥 <b>MARINERS TRANSACTION UPDATE</b>")
	assert.Contains(t, msg, "1. ")
	assert.Contains(t, msg, "2. ")
	assert.Contains(t, msg, "🌊 Go Mariners!")
	assert.NotContains(t, msg, "TRADE ALERT")
}

func TestRenderTransactions_BatchSummaryFirstSeenOrder(t *testing.T) {
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	txns := []*transaction.Transaction{
		testTxn(t, 1, "SC", "Status Change", "Player One", date),
		testTxn(t, 2, "REC", "Recalled", "Player Two", date),
		testTxn(t, 3, "SC", "Status Change", "Player Three", date),
	}

	msg, err := RenderTransactions(txns)
	require.NoError(t, err)

	// Types are listed in the order they first appear, with counts
	// pluralized past one.
	assert.Contains(t, msg, "📋 <b>Summary:</b> 2 Status Changes • Recalled")
}

func TestRenderTransactions_BatchDateRange(t *testing.T) {
	d1 := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	sameDay, err := RenderTransactions([]*transaction.Transaction{
		testTxn(t, 1, "SC", "Status Change", "Player One", d2),
		testTxn(t, 2, "REC", "Recalled", "Player Two", d2),
	})
	require.NoError(t, err)
	assert.Contains(t, sameDay, "📅 <b>Date:</b> July 15, 2025")

	spread, err := RenderTransactions([]*transaction.Transaction{
		testTxn(t, 1, "SC", "Status Change", "Player One", d2),
		testTxn(t, 2, "REC", "Recalled", "Player Two", d1),
	})
	require.NoError(t, err)
	assert.Contains(t, spread, "📅 <b>Date:</b> July 10 - July 15, 2025")
}

func TestRenderTransactions_BatchEffectiveSubLine(t *testing.T) {
	date := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	effective := date.AddDate(0, 0, 3)

	withEff := testTxn(t, 1, "OPT", "Optioned", "Player One", date)
	withEff.EffectiveDate = &effective

	msg, err := RenderTransactions([]*transaction.Transaction{
		withEff,
		testTxn(t, 2, "SC", "Status Change", "Player Two", date),
	})
	require.NoError(t, err)
	assert.Contains(t, msg, "<i>Effective: July 18, 2025</i>")
	assert.Equal(t, 1, strings.Count(msg, "Effective:"))
}

func TestRenderGameReminder(t *testing.T) {
	g, err := game.NewGame(game.NewGameParams{
		Pk:           777001,
		GameDate:     time.Date(2025, 7, 15, 2, 40, 0, 0, time.UTC), // 7:40 PM PDT on July 14
		HomeTeamID:   game.MarinersTeamID,
		HomeTeamName: "Seattle Mariners",
		AwayTeamID:   117,
		AwayTeamName: "Houston Astros",
		Venue:        "T-Mobile Park",
		Status:       game.StatusScheduled,
		GameType:     game.TypeRegular,
		Season:       2025,
	})
	require.NoError(t, err)
	g.HomeProbable = "Logan Gilbert"
	g.AwayProbable = "Framber Valdez"

	msg := RenderGameReminder(g, 30*time.Minute, true)

	assert.Contains(t, msg, "Mariners Game Starting Soon!")
	assert.Contains(t, msg, "Houston Astros")
	assert.Contains(t, msg, "T-Mobile Park")
	assert.Contains(t, msg, "7:40 PM")
	assert.Contains(t, msg, "about 30 minutes")
	assert.Contains(t, msg, "https://www.mlb.com/gameday/777001")
	assert.Contains(t, msg, "Framber Valdez vs Logan Gilbert")
	assert.Contains(t, msg, "🌊 Go Mariners!")

	// Pitchers are omitted when not requested.
	noPitchers := RenderGameReminder(g, 30*time.Minute, false)
	assert.NotContains(t, noPitchers, "Probables")
}
