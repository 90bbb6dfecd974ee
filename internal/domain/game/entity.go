// Package game contains the domain model for Mariners games.
// A game is identified by its MLB gamePk and carries the schedule data
// the reminder pipeline needs: first pitch time, opponent, venue, status.
package game

import (
	"errors"
	"fmt"
	"time"
)

// MarinersTeamID is the Stats API team id for the Seattle Mariners.
const MarinersTeamID = 136

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Pk is the MLB gamePk, the natural key of a game.
type Pk int

// IsValid checks that the pk is positive.
func (pk Pk) IsValid() bool {
	return pk > 0
}

// String returns the string representation of the pk.
func (pk Pk) String() string {
	return fmt.Sprintf("%d", int(pk))
}

// ══════════════════════════════════════════════════════════════════════════════
// GAME STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the schedule status of a game.
type Status string

const (
	// StatusScheduled - the game has not started.
	StatusScheduled Status = "scheduled"

	// StatusLive - the game is in progress.
	StatusLive Status = "live"

	// StatusFinal - the game is over.
	StatusFinal Status = "final"

	// StatusPostponed - the game was postponed to a later date.
	StatusPostponed Status = "postponed"

	// StatusCancelled - the game was cancelled outright.
	StatusCancelled Status = "cancelled"
)

// IsValid checks the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusFinal, StatusPostponed, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsPlayable reports whether the game can still be played.
// Postponed and cancelled games get their reminders withdrawn.
func (s Status) IsPlayable() bool {
	return s == StatusScheduled || s == StatusLive
}

// ══════════════════════════════════════════════════════════════════════════════
// GAME TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type is the Stats API game type code.
type Type string

const (
	// TypeRegular - regular season game (R).
	TypeRegular Type = "R"

	// TypeSpring - spring training game (S).
	TypeSpring Type = "S"

	// TypeWildCard - wild card game (F).
	TypeWildCard Type = "F"

	// TypeDivisionSeries - division series game (D).
	TypeDivisionSeries Type = "D"

	// TypeLCS - league championship series game (L).
	TypeLCS Type = "L"

	// TypeWorldSeries - World Series game (W).
	TypeWorldSeries Type = "W"
)

// IsPostseason reports whether the game type is a postseason round.
func (t Type) IsPostseason() bool {
	switch t {
	case TypeWildCard, TypeDivisionSeries, TypeLCS, TypeWorldSeries:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GAME ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Game represents one scheduled Mariners game.
type Game struct {
	// Pk is the MLB gamePk.
	Pk Pk

	// GameDate is first pitch in UTC.
	GameDate time.Time

	// HomeTeamID and HomeTeamName identify the home side.
	HomeTeamID   int
	HomeTeamName string

	// AwayTeamID and AwayTeamName identify the away side.
	AwayTeamID   int
	AwayTeamName string

	// Venue is the ballpark name.
	Venue string

	// Status is the current schedule status.
	Status Status

	// GameType is the Stats API game type code.
	GameType Type

	// Season is the season year.
	Season int

	// HomeProbable and AwayProbable are probable starting pitchers,
	// empty when not yet announced.
	HomeProbable string
	AwayProbable string

	// NotificationSent marks that the pre-game reminder went out.
	NotificationSent bool

	// CreatedAt and UpdatedAt are bookkeeping timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewGameParams holds parameters for creating a game.
type NewGameParams struct {
	Pk           Pk
	GameDate     time.Time
	HomeTeamID   int
	HomeTeamName string
	AwayTeamID   int
	AwayTeamName string
	Venue        string
	Status       Status
	GameType     Type
	Season       int
}

// NewGame creates a game with validation.
func NewGame(params NewGameParams) (*Game, error) {
	if !params.Pk.IsValid() {
		return nil, ErrInvalidPk
	}
	if params.GameDate.IsZero() {
		return nil, ErrMissingGameDate
	}
	if !params.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	now := time.Now().UTC()

	return &Game{
		Pk:           params.Pk,
		GameDate:     params.GameDate.UTC(),
		HomeTeamID:   params.HomeTeamID,
		HomeTeamName: params.HomeTeamName,
		AwayTeamID:   params.AwayTeamID,
		AwayTeamName: params.AwayTeamName,
		Venue:        params.Venue,
		Status:       params.Status,
		GameType:     params.GameType,
		Season:       params.Season,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// IsMarinersGame reports whether the Mariners are playing in this game.
func (g *Game) IsMarinersGame() bool {
	return g.HomeTeamID == MarinersTeamID || g.AwayTeamID == MarinersTeamID
}

// IsHome reports whether the Mariners are the home team.
func (g *Game) IsHome() bool {
	return g.HomeTeamID == MarinersTeamID
}

// Opponent returns the name of the other team.
func (g *Game) Opponent() string {
	if g.IsHome() {
		return g.AwayTeamName
	}
	return g.HomeTeamName
}

// IsUpcoming reports whether the game is still ahead of the given time.
func (g *Game) IsUpcoming(now time.Time) bool {
	return g.Status == StatusScheduled && g.GameDate.After(now)
}

// ReminderDue returns the time at which the pre-game reminder should fire.
func (g *Game) ReminderDue(lead time.Duration) time.Time {
	return g.GameDate.Add(-lead)
}

// MarkNotified records that the reminder was delivered.
func (g *Game) MarkNotified() {
	g.NotificationSent = true
	g.UpdatedAt = time.Now().UTC()
}

// GamedayURL returns the MLB Gameday link for this game.
func (g *Game) GamedayURL() string {
	return fmt.Sprintf("https://www.mlb.com/gameday/%d", int(g.Pk))
}

// String returns a compact representation for logging.
func (g *Game) String() string {
	return fmt.Sprintf("Game{Pk: %d, %s @ %s, %s, %s}",
		int(g.Pk), g.AwayTeamName, g.HomeTeamName,
		g.GameDate.Format(time.RFC3339), g.Status)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidPk - the gamePk is not positive.
	ErrInvalidPk = errors.New("invalid game pk: must be positive")

	// ErrMissingGameDate - the game has no first pitch time.
	ErrMissingGameDate = errors.New("game date cannot be zero")

	// ErrInvalidStatus - unknown schedule status.
	ErrInvalidStatus = errors.New("invalid game status")

	// ErrGameNotFound - no game with the given pk.
	ErrGameNotFound = errors.New("game not found")
)
