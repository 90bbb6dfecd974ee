package subscriber

import (
	"strings"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREFERENCES
// ══════════════════════════════════════════════════════════════════════════════

// Preferences holds a subscriber's per-category transaction notification
// toggles. Every transaction type maps onto exactly one category, so the
// filter decision is a total function over (type, description).
type Preferences struct {
	ChatID ChatID

	// Category toggles.
	Trades        bool
	Signings      bool
	Recalls       bool
	Options       bool
	Injuries      bool
	Activations   bool
	Releases      bool
	StatusChanges bool
	Other         bool

	// MajorLeagueOnly suppresses moves whose description mentions a
	// minor league level, regardless of category toggles.
	MajorLeagueOnly bool
}

// minorLeagueTerms veto a transaction under MajorLeagueOnly. Matching is
// case-insensitive substring search over the description.
var minorLeagueTerms = []string{
	"minor league",
	"triple-a",
	"double-a",
	"single-a",
	"rookie",
}

// DefaultPreferences returns the preference set every new subscriber
// starts with: the high-signal categories on, the noisy ones off.
func DefaultPreferences(chatID ChatID) *Preferences {
	return &Preferences{
		ChatID:          chatID,
		Trades:          true,
		Signings:        true,
		Recalls:         true,
		Options:         true,
		Injuries:        true,
		Activations:     true,
		Releases:        false,
		StatusChanges:   false,
		Other:           false,
		MajorLeagueOnly: true,
	}
}

// ShouldDeliver decides whether a transaction of the given type and
// description reaches this subscriber. Pure function, never errors.
func (p *Preferences) ShouldDeliver(txType transaction.Type, description string) bool {
	if p.MajorLeagueOnly {
		lower := strings.ToLower(description)
		for _, term := range minorLeagueTerms {
			if strings.Contains(lower, term) {
				return false
			}
		}
	}

	switch txType {
	case transaction.TypeTrade:
		return p.Trades
	case transaction.TypeSignedFreeAgent:
		return p.Signings
	case transaction.TypeRecalled:
		return p.Recalls
	case transaction.TypeOptioned:
		return p.Options
	case transaction.TypeInjuredList:
		return p.Injuries
	case transaction.TypeActivated:
		return p.Activations
	case transaction.TypeReleased:
		return p.Releases
	case transaction.TypeStatusChange:
		return p.StatusChanges
	case transaction.TypeSelected:
		// Contract selections move a player onto the 40-man, same
		// audience as recalls.
		return p.Recalls
	case transaction.TypeDesignated, transaction.TypeSuspended:
		return p.StatusChanges
	case transaction.TypePurchased, transaction.TypeClaimed:
		return p.Signings
	case transaction.TypeReinstated:
		return p.Activations
	default:
		return p.Other
	}
}

// Toggle flips the named category and returns whether the name was known.
// Names match the /settings callback keys.
func (p *Preferences) Toggle(name string) bool {
	switch name {
	case "trades":
		p.Trades = !p.Trades
	case "signings":
		p.Signings = !p.Signings
	case "recalls":
		p.Recalls = !p.Recalls
	case "options":
		p.Options = !p.Options
	case "injuries":
		p.Injuries = !p.Injuries
	case "activations":
		p.Activations = !p.Activations
	case "releases":
		p.Releases = !p.Releases
	case "status_changes":
		p.StatusChanges = !p.StatusChanges
	case "other":
		p.Other = !p.Other
	case "major_league_only":
		p.MajorLeagueOnly = !p.MajorLeagueOnly
	default:
		return false
	}
	return true
}

// Summary returns a one-line human-readable description of the enabled
// categories, used by /settings.
func (p *Preferences) Summary() string {
	var enabled []string
	if p.Trades {
		enabled = append(enabled, "Trades")
	}
	if p.Signings {
		enabled = append(enabled, "Signings")
	}
	if p.Recalls {
		enabled = append(enabled, "Recalls")
	}
	if p.Options {
		enabled = append(enabled, "Options")
	}
	if p.Injuries {
		enabled = append(enabled, "Injuries")
	}
	if p.Activations {
		enabled = append(enabled, "Activations")
	}
	if p.Releases {
		enabled = append(enabled, "Releases")
	}
	if p.StatusChanges {
		enabled = append(enabled, "Status Changes")
	}
	if p.Other {
		enabled = append(enabled, "Other")
	}

	if len(enabled) == 0 {
		return "No transaction notifications enabled"
	}

	summary := "Notifications enabled for: " + strings.Join(enabled, ", ")
	if p.MajorLeagueOnly {
		summary += " (Major League only)"
	} else {
		summary += " (All levels)"
	}
	return summary
}
