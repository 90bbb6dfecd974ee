package mlb

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to Domain Entity transformations
// ══════════════════════════════════════════════════════════════════════════════

// ErrNilDTO is returned when a mapper receives a nil DTO.
var ErrNilDTO = errors.New("nil DTO")

// statsDateFormat is the YYYY-MM-DD form transaction dates arrive in.
const statsDateFormat = "2006-01-02"

// Mapper handles transformation between Stats API DTOs and domain
// entities, keeping upstream shape changes out of the domain layer.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// ══════════════════════════════════════════════════════════════════════════════
// GAME MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// statusFromAbstractCode maps the one-letter abstractGameCode to a domain
// status. Unknown codes fall back to scheduled, matching how the API
// treats new pre-game states.
func statusFromAbstractCode(code string) game.Status {
	switch code {
	case "S", "P":
		return game.StatusScheduled
	case "L":
		return game.StatusLive
	case "F":
		return game.StatusFinal
	case "D":
		return game.StatusPostponed
	case "C":
		return game.StatusCancelled
	default:
		return game.StatusScheduled
	}
}

// GameFromDTO converts a schedule GameDTO to a domain Game.
func (m *Mapper) GameFromDTO(dto *GameDTO) (*game.Game, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}

	gameDate, err := time.Parse(time.RFC3339, dto.GameDate)
	if err != nil {
		return nil, fmt.Errorf("parse game date %q: %w", dto.GameDate, err)
	}

	season, _ := strconv.Atoi(dto.Season)
	if season == 0 {
		season = gameDate.Year()
	}

	g, err := game.NewGame(game.NewGameParams{
		Pk:           game.Pk(dto.GamePk),
		GameDate:     gameDate.UTC(),
		HomeTeamID:   dto.Teams.Home.Team.ID,
		HomeTeamName: dto.Teams.Home.Team.Name,
		AwayTeamID:   dto.Teams.Away.Team.ID,
		AwayTeamName: dto.Teams.Away.Team.Name,
		Venue:        dto.Venue.Name,
		Status:       statusFromAbstractCode(dto.Status.AbstractGameCode),
		GameType:     game.Type(dto.GameType),
		Season:       season,
	})
	if err != nil {
		return nil, err
	}

	if p := dto.Teams.Home.ProbablePitcher; p != nil {
		g.HomeProbable = p.FullName
	}
	if p := dto.Teams.Away.ProbablePitcher; p != nil {
		g.AwayProbable = p.FullName
	}
	return g, nil
}

// GamesFromSchedule flattens a schedule response into domain games,
// keeping only Mariners games. Malformed entries are skipped and counted
// in the second return value.
func (m *Mapper) GamesFromSchedule(resp *ScheduleResponseDTO) ([]*game.Game, int) {
	if resp == nil {
		return nil, 0
	}

	var games []*game.Game
	skipped := 0
	for _, day := range resp.Dates {
		for i := range day.Games {
			g, err := m.GameFromDTO(&day.Games[i])
			if err != nil {
				skipped++
				continue
			}
			if !g.IsMarinersGame() {
				continue
			}
			games = append(games, g)
		}
	}
	return games, skipped
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// TransactionFromDTO converts a TransactionDTO to a domain Transaction.
func (m *Mapper) TransactionFromDTO(dto *TransactionDTO) (*transaction.Transaction, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}
	if dto.Person == nil {
		return nil, fmt.Errorf("transaction %d: missing person", dto.ID)
	}

	date, err := time.Parse(statsDateFormat, dto.Date)
	if err != nil {
		return nil, fmt.Errorf("parse transaction date %q: %w", dto.Date, err)
	}

	params := transaction.NewTransactionParams{
		ID:          dto.ID,
		PersonID:    dto.Person.ID,
		PersonName:  dto.Person.FullName,
		Date:        date,
		TypeCode:    dto.TypeCode,
		TypeDesc:    dto.TypeDesc,
		Description: dto.Description,
	}
	if dto.FromTeam != nil {
		params.FromTeamID = dto.FromTeam.ID
		params.FromTeamName = dto.FromTeam.Name
	}
	if dto.ToTeam != nil {
		params.ToTeamID = dto.ToTeam.ID
		params.ToTeamName = dto.ToTeam.Name
	}
	if dto.EffectiveDate != "" {
		if eff, err := time.Parse(statsDateFormat, dto.EffectiveDate); err == nil {
			params.EffectiveDate = &eff
		}
	}
	if dto.ResolutionDate != "" {
		if res, err := time.Parse(statsDateFormat, dto.ResolutionDate); err == nil {
			params.ResolutionDate = &res
		}
	}

	return transaction.NewTransaction(params)
}

// TransactionsFromResponse flattens a transactions response into domain
// transactions. Malformed entries are skipped and counted in the second
// return value.
func (m *Mapper) TransactionsFromResponse(resp *TransactionsResponseDTO) ([]*transaction.Transaction, int) {
	if resp == nil {
		return nil, 0
	}

	var txns []*transaction.Transaction
	skipped := 0
	for i := range resp.Transactions {
		t, err := m.TransactionFromDTO(&resp.Transactions[i])
		if err != nil {
			skipped++
			continue
		}
		txns = append(txns, t)
	}
	return txns, skipped
}
