package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
	"github.com/mariners-hub/mariners-gameday-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE RENDERER
// ══════════════════════════════════════════════════════════════════════════════

// ErrNothingToRender is returned when a render call receives no events.
var ErrNothingToRender = errors.New("nothing to render")

// messageFooter closes every outbound message.
const messageFooter = "\n🌊 Go Mariners!"

// renderDateFmt is the long date format used in transaction messages.
const renderDateFmt = "January 02, 2006"

// RenderTransactions renders a batch of transactions into one message.
// Formatting is strictly bimodal: a single transaction gets the detailed
// per-type layout, two or more get the aggregate update layout. The
// renderer only formats; grouping and ordering are the caller's job.
func RenderTransactions(txns []*transaction.Transaction) (string, error) {
	switch len(txns) {
	case 0:
		return "", ErrNothingToRender
	case 1:
		return renderSingleTransaction(txns[0]), nil
	default:
		return renderTransactionBatch(txns), nil
	}
}

// renderSingleTransaction formats one transaction with a type-specific
// headline.
func renderSingleTransaction(t *transaction.Transaction) string {
	emoji := t.Type().Emoji()
	direction := directionArrow(t)

	var title string
	switch t.Type() {
	case transaction.TypeTrade:
		title = fmt.Sprintf("%s <b>TRADE ALERT</b> %s", emoji, direction)
	case transaction.TypeSignedFreeAgent:
		title = fmt.Sprintf("%s <b>FREE AGENT SIGNING</b> %s", emoji, direction)
	case transaction.TypeInjuredList:
		title = fmt.Sprintf("%s <b>INJURY UPDATE</b>", emoji)
	case transaction.TypeActivated:
		title = fmt.Sprintf("%s <b>ACTIVATION</b>", emoji)
	case transaction.TypeRecalled:
		title = fmt.Sprintf("%s <b>PLAYER RECALLED</b> %s", emoji, direction)
	case transaction.TypeOptioned:
		title = fmt.Sprintf("%s <b>PLAYER OPTIONED</b> %s", emoji, direction)
	default:
		title = fmt.Sprintf("%s <b>%s</b> %s", emoji, strings.ToUpper(t.TypeDesc), direction)
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(title, " "))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "👤 <b>Player:</b> %s\n", t.PersonName)
	fmt.Fprintf(&sb, "📋 <b>Transaction:</b> %s\n", t.Description)
	fmt.Fprintf(&sb, "📅 <b>Date:</b> %s\n", t.Date.Format(renderDateFmt))

	if t.HasDistinctEffectiveDate() {
		fmt.Fprintf(&sb, "⏰ <b>Effective:</b> %s\n", t.EffectiveDate.Format(renderDateFmt))
	}

	sb.WriteString(messageFooter)
	return sb.String()
}

// renderTransactionBatch formats two or more transactions under the
// aggregate header: a per-type count summary in first-seen order, a date
// or date-range line, then a numbered detail list in input order.
func renderTransactionBatch(txns []*transaction.Transaction) string {
	// Count by type label, remembering first-seen order so the summary
	// is deterministic for a given input order.
	counts := make(map[string]int)
	var labels []string
	for _, t := range txns {
		if counts[t.TypeDesc] == 0 {
			labels = append(labels, t.TypeDesc)
		}
		counts[t.TypeDesc]++
	}

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		if n := counts[label]; n == 1 {
			parts = append(parts, label)
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", n, label))
		}
	}
	summary := strings.Join(parts, " • ")

	minDate, maxDate := txns[0].Date, txns[0].Date
	for _, t := range txns[1:] {
		if t.Date.Before(minDate) {
			minDate = t.Date
		}
		if t.Date.After(maxDate) {
			maxDate = t.Date
		}
	}

	var dateRange string
	if timeutil.IsSameDay(minDate, maxDate) {
		dateRange = minDate.Format(renderDateFmt)
	} else {
		dateRange = fmt.Sprintf("%s - %s", minDate.Format("January 02"), maxDate.Format(renderDateFmt))
	}

	var sb strings.Builder
	sb.WriteString("🔥 <b>MARINERS TRANSACTION UPDATE</b>\n\n")
	fmt.Fprintf(&sb, "📋 <b>Summary:</b> %s\n", summary)
	fmt.Fprintf(&sb, "📅 <b>Date:</b> %s\n\n", dateRange)
	sb.WriteString("<b>Details:</b>\n")

	for i, t := range txns {
		fmt.Fprintf(&sb, "\n%d. %s <b>%s</b> %s\n",
			i+1, t.Type().Emoji(), t.PersonName, directionArrow(t))
		fmt.Fprintf(&sb, "   %s\n", t.Description)

		if t.HasDistinctEffectiveDate() {
			fmt.Fprintf(&sb, "   <i>Effective: %s</i>\n", t.EffectiveDate.Format(renderDateFmt))
		}
	}

	sb.WriteString(messageFooter)
	return sb.String()
}

// directionArrow marks whether the player is arriving or leaving.
func directionArrow(t *transaction.Transaction) string {
	switch {
	case t.IsAcquisition():
		return "➡️"
	case t.IsDeparture():
		return "⬅️"
	default:
		return ""
	}
}

// RenderGameReminder formats a pre-game reminder.
func RenderGameReminder(g *game.Game, lead time.Duration, includePitchers bool) string {
	var sb strings.Builder
	sb.WriteString("⚾ <b>Mariners Game Starting Soon!</b>\n\n")

	if g.IsHome() {
		fmt.Fprintf(&sb, "🆚 <b>%s</b> at Mariners\n", g.Opponent())
	} else {
		fmt.Fprintf(&sb, "🆚 Mariners at <b>%s</b>\n", g.Opponent())
	}
	fmt.Fprintf(&sb, "🏟 %s\n", g.Venue)
	fmt.Fprintf(&sb, "🕐 First pitch: %s\n", timeutil.FormatGameTimeStr(g.GameDate))

	if includePitchers && g.HomeProbable != "" && g.AwayProbable != "" {
		fmt.Fprintf(&sb, "🎽 Probables: %s vs %s\n", g.AwayProbable, g.HomeProbable)
	}

	fmt.Fprintf(&sb, "\nGame starts in about %d minutes!\n", int(lead.Minutes()))
	fmt.Fprintf(&sb, "📺 <a href=\"%s\">Follow on Gameday</a>\n", g.GamedayURL())
	sb.WriteString(messageFooter)
	return sb.String()
}
