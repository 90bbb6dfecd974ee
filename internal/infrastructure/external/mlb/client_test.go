package mlb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

func TestScheduleDTO_Parsing(t *testing.T) {
	jsonData := `{
    "totalGames": 1,
    "dates": [
        {
            "date": "2025-07-14",
            "games": [
                {
                    "gamePk": 777001,
                    "gameDate": "2025-07-15T02:40:00Z",
                    "gameType": "R",
                    "season": "2025",
                    "status": {
                        "abstractGameCode": "S",
                        "detailedState": "Scheduled"
                    },
                    "teams": {
                        "home": {
                            "team": {"id": 136, "name": "Seattle Mariners"},
                            "probablePitcher": {"id": 669302, "fullName": "Logan Gilbert"}
                        },
                        "away": {
                            "team": {"id": 117, "name": "Houston Astros"}
                        }
                    },
                    "venue": {"id": 680, "name": "T-Mobile Park"}
                }
            ]
        }
    ]
}`

	var resp ScheduleResponseDTO
	err := json.Unmarshal([]byte(jsonData), &resp)
	assert.NoError(t, err)

	assert.Equal(t, 1, resp.TotalGames)
	require.Len(t, resp.Dates, 1)
	require.Len(t, resp.Dates[0].Games, 1)

	g := resp.Dates[0].Games[0]
	assert.Equal(t, 777001, g.GamePk)
	assert.Equal(t, "S", g.Status.AbstractGameCode)
	assert.Equal(t, 136, g.Teams.Home.Team.ID)
	assert.Equal(t, "T-Mobile Park", g.Venue.Name)
	require.NotNil(t, g.Teams.Home.ProbablePitcher)
	assert.Equal(t, "Logan Gilbert", g.Teams.Home.ProbablePitcher.FullName)
	assert.Nil(t, g.Teams.Away.ProbablePitcher)
}

func TestStatusFromAbstractCode(t *testing.T) {
	assert.Equal(t, game.StatusScheduled, statusFromAbstractCode("S"))
	assert.Equal(t, game.StatusScheduled, statusFromAbstractCode("P"))
	assert.Equal(t, game.StatusLive, statusFromAbstractCode("L"))
	assert.Equal(t, game.StatusFinal, statusFromAbstractCode("F"))
	assert.Equal(t, game.StatusPostponed, statusFromAbstractCode("D"))
	assert.Equal(t, game.StatusCancelled, statusFromAbstractCode("C"))
	assert.Equal(t, game.StatusScheduled, statusFromAbstractCode("X"))
}

func TestGamesFromSchedule_FiltersAndSkips(t *testing.T) {
	resp := &ScheduleResponseDTO{
		Dates: []DateDTO{
			{
				Date: "2025-07-14",
				Games: []GameDTO{
					{
						GamePk:   777001,
						GameDate: "2025-07-15T02:40:00Z",
						GameType: "R",
						Season:   "2025",
						Status:   StatusDTO{AbstractGameCode: "S"},
						Teams: TeamsDTO{
							Home: SideDTO{Team: TeamRefDTO{ID: 136, Name: "Seattle Mariners"}},
							Away: SideDTO{Team: TeamRefDTO{ID: 117, Name: "Houston Astros"}},
						},
						Venue: VenueDTO{Name: "T-Mobile Park"},
					},
					{
						// Not a Mariners game: filtered out.
						GamePk:   777002,
						GameDate: "2025-07-15T23:05:00Z",
						GameType: "R",
						Season:   "2025",
						Status:   StatusDTO{AbstractGameCode: "S"},
						Teams: TeamsDTO{
							Home: SideDTO{Team: TeamRefDTO{ID: 147, Name: "New York Yankees"}},
							Away: SideDTO{Team: TeamRefDTO{ID: 111, Name: "Boston Red Sox"}},
						},
					},
					{
						// Unparseable date: skipped and counted.
						GamePk:   777003,
						GameDate: "not-a-date",
						GameType: "R",
						Teams: TeamsDTO{
							Home: SideDTO{Team: TeamRefDTO{ID: 136, Name: "Seattle Mariners"}},
							Away: SideDTO{Team: TeamRefDTO{ID: 117, Name: "Houston Astros"}},
						},
					},
				},
			},
		},
	}

	mapper := NewMapper()
	games, skipped := mapper.GamesFromSchedule(resp)

	require.Len(t, games, 1)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, game.Pk(777001), games[0].Pk)
	assert.True(t, games[0].IsHome())
	assert.Equal(t, "Houston Astros", games[0].Opponent())
}

func TestTransactionDTO_Mapping(t *testing.T) {
	jsonData := `{
    "transactions": [
        {
            "id": 501234,
            "person": {"id": 663728, "fullName": "Cal Raleigh"},
            "toTeam": {"id": 136, "name": "Seattle Mariners"},
            "date": "2025-07-14",
            "effectiveDate": "2025-07-16",
            "typeCode": "SFA",
            "typeDesc": "Signed as Free Agent",
            "description": "Seattle Mariners signed free agent C Cal Raleigh."
        },
        {
            "id": 501235,
            "date": "2025-07-14",
            "typeCode": "SC",
            "typeDesc": "Status Change",
            "description": "Malformed entry lacking a person."
        }
    ]
}`

	var resp TransactionsResponseDTO
	err := json.Unmarshal([]byte(jsonData), &resp)
	assert.NoError(t, err)
	require.Len(t, resp.Transactions, 2)

	mapper := NewMapper()
	txns, skipped := mapper.TransactionsFromResponse(&resp)

	require.Len(t, txns, 1)
	assert.Equal(t, 1, skipped)

	txn := txns[0]
	assert.Equal(t, int64(501234), txn.ID)
	assert.Equal(t, "Cal Raleigh", txn.PersonName)
	assert.Equal(t, transaction.TypeSignedFreeAgent, txn.Type())
	assert.True(t, txn.IsAcquisition())
	assert.True(t, txn.IsMarinersTransaction())
	require.NotNil(t, txn.EffectiveDate)
	assert.True(t, txn.HasDistinctEffectiveDate())
}
