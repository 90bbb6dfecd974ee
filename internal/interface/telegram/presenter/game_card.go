package presenter

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAME CARD PRESENTER
// Formats the next-game card for /nextgame. The card shows matchup, first
// pitch in the configured timezone, venue, and probable pitchers when
// announced.
// ══════════════════════════════════════════════════════════════════════════════

// GameCardPresenter formats game data for Telegram.
type GameCardPresenter struct {
	location *time.Location
}

// NewGameCardPresenter creates a presenter that renders times in loc.
// A nil loc falls back to Pacific time, where the Mariners play.
func NewGameCardPresenter(loc *time.Location) *GameCardPresenter {
	if loc == nil {
		loc, _ = time.LoadLocation("America/Los_Angeles")
		if loc == nil {
			loc = time.UTC
		}
	}
	return &GameCardPresenter{location: loc}
}

// GameCardView contains the formatted card.
type GameCardView struct {
	// Text is the message text with HTML markup.
	Text string

	// Keyboard is the inline keyboard.
	Keyboard *InlineKeyboard

	// ParseMode is "HTML".
	ParseMode string
}

// FormatNextGame formats the next-game card.
func (p *GameCardPresenter) FormatNextGame(g *game.Game) *GameCardView {
	var sb strings.Builder

	sb.WriteString("⚾ <b>Next Mariners Game</b>\n\n")
	sb.WriteString(p.formatMatchup(g))
	sb.WriteString("\n")

	local := g.GameDate.In(p.location)
	sb.WriteString(fmt.Sprintf("🗓 %s\n", local.Format("Monday, January 2")))
	sb.WriteString(fmt.Sprintf("🕐 %s first pitch\n", local.Format("3:04 PM MST")))
	sb.WriteString(fmt.Sprintf("🏟 %s\n", html.EscapeString(g.Venue)))

	if g.GameType.IsPostseason() {
		sb.WriteString("\n🏆 <b>Postseason baseball!</b>\n")
	}

	if g.HomeProbable != "" || g.AwayProbable != "" {
		sb.WriteString("\n")
		sb.WriteString(p.formatProbables(g))
	}

	countdown := time.Until(g.GameDate)
	if countdown > 0 {
		sb.WriteString(fmt.Sprintf("\n⏳ %s until first pitch", formatCountdown(countdown)))
	}

	return &GameCardView{
		Text:      sb.String(),
		ParseMode: "HTML",
	}
}

// FormatNoUpcomingGame formats the card shown when the schedule has no
// upcoming game, the offseason case.
func (p *GameCardPresenter) FormatNoUpcomingGame() *GameCardView {
	text := "😴 <b>No upcoming games</b>\n\n" +
		"The schedule has nothing on the horizon. " +
		"Check back when the season picks up again."

	return &GameCardView{
		Text:      text,
		ParseMode: "HTML",
	}
}

// formatMatchup renders the away-at-home line with the Mariners bolded.
func (p *GameCardPresenter) formatMatchup(g *game.Game) string {
	away := html.EscapeString(g.AwayTeamName)
	home := html.EscapeString(g.HomeTeamName)

	if g.IsHome() {
		home = "<b>" + home + "</b>"
	} else {
		away = "<b>" + away + "</b>"
	}

	return fmt.Sprintf("%s @ %s\n", away, home)
}

// formatProbables renders the probable pitchers block.
func (p *GameCardPresenter) formatProbables(g *game.Game) string {
	var sb strings.Builder

	sb.WriteString("🎯 <b>Probable pitchers</b>\n")

	away := g.AwayProbable
	if away == "" {
		away = "TBD"
	}
	home := g.HomeProbable
	if home == "" {
		home = "TBD"
	}

	sb.WriteString(fmt.Sprintf("   %s: %s\n", html.EscapeString(g.AwayTeamName), html.EscapeString(away)))
	sb.WriteString(fmt.Sprintf("   %s: %s\n", html.EscapeString(g.HomeTeamName), html.EscapeString(home)))

	return sb.String()
}

// formatCountdown renders a duration as "2d 4h", "4h 15m", or "15m".
func formatCountdown(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
