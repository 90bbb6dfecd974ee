package subscriber

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

func TestDefaultPreferences_HighSignalCategoriesOn(t *testing.T) {
	prefs := DefaultPreferences(ChatID(42))

	assert.True(t, prefs.Trades)
	assert.True(t, prefs.Signings)
	assert.True(t, prefs.Recalls)
	assert.True(t, prefs.Options)
	assert.True(t, prefs.Injuries)
	assert.True(t, prefs.Activations)
	assert.False(t, prefs.Releases)
	assert.False(t, prefs.StatusChanges)
	assert.False(t, prefs.Other)
	assert.True(t, prefs.MajorLeagueOnly)
}

func TestShouldDeliver_CategoryToggles(t *testing.T) {
	tests := []struct {
		name   string
		txType transaction.Type
		setup  func(*Preferences)
		want   bool
	}{
		{"trade delivered by default", transaction.TypeTrade, nil, true},
		{"trade suppressed when toggled off", transaction.TypeTrade, func(p *Preferences) { p.Trades = false }, false},
		{"release suppressed by default", transaction.TypeReleased, nil, false},
		{"release delivered when toggled on", transaction.TypeReleased, func(p *Preferences) { p.Releases = true }, true},
		{"selection rides the recalls toggle", transaction.TypeSelected, nil, true},
		{"selection suppressed with recalls off", transaction.TypeSelected, func(p *Preferences) { p.Recalls = false }, false},
		{"waiver claim rides the signings toggle", transaction.TypeClaimed, nil, true},
		{"DFA rides the status changes toggle", transaction.TypeDesignated, nil, false},
		{"reinstatement rides the activations toggle", transaction.TypeReinstated, nil, true},
		{"unknown type falls to other", transaction.Type("xyz"), nil, false},
		{"unknown type delivered with other on", transaction.Type("xyz"), func(p *Preferences) { p.Other = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := DefaultPreferences(ChatID(1))
			if tt.setup != nil {
				tt.setup(prefs)
			}
			got := prefs.ShouldDeliver(tt.txType, "Seattle Mariners traded RHP Example Player")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldDeliver_MajorLeagueOnlyVetoesMinorLeagueMoves(t *testing.T) {
	prefs := DefaultPreferences(ChatID(1))

	desc := "Seattle Mariners optioned C Harry Ford to Tacoma Rainiers (Triple-A)"
	assert.False(t, prefs.ShouldDeliver(transaction.TypeOptioned, desc),
		"minor league move should be vetoed under MajorLeagueOnly")

	prefs.MajorLeagueOnly = false
	assert.True(t, prefs.ShouldDeliver(transaction.TypeOptioned, desc),
		"same move should pass once all levels are enabled")
}

func TestShouldDeliver_VetoBeatsCategoryToggle(t *testing.T) {
	prefs := DefaultPreferences(ChatID(1))
	prefs.Trades = true

	desc := "Seattle Mariners traded a Minor League prospect"
	assert.False(t, prefs.ShouldDeliver(transaction.TypeTrade, desc))
}

func TestToggle(t *testing.T) {
	prefs := DefaultPreferences(ChatID(1))

	assert.True(t, prefs.Toggle("trades"))
	assert.False(t, prefs.Trades)
	assert.True(t, prefs.Toggle("trades"))
	assert.True(t, prefs.Trades)

	assert.True(t, prefs.Toggle("major_league_only"))
	assert.False(t, prefs.MajorLeagueOnly)

	assert.False(t, prefs.Toggle("nonsense"))
}

func TestSummary(t *testing.T) {
	prefs := DefaultPreferences(ChatID(1))
	summary := prefs.Summary()
	assert.Contains(t, summary, "Trades")
	assert.Contains(t, summary, "Major League only")
	assert.NotContains(t, summary, "Releases")

	prefs.MajorLeagueOnly = false
	assert.Contains(t, prefs.Summary(), "All levels")

	empty := &Preferences{ChatID: ChatID(1)}
	assert.Equal(t, "No transaction notifications enabled", empty.Summary())
}
