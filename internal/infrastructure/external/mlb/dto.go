package mlb

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleResponseDTO is the top-level /schedule response.
type ScheduleResponseDTO struct {
	TotalGames int       `json:"totalGames"`
	Dates      []DateDTO `json:"dates"`
}

// DateDTO groups the games of one calendar day.
type DateDTO struct {
	Date  string    `json:"date"`
	Games []GameDTO `json:"games"`
}

// GameDTO is one game entry in a schedule response.
type GameDTO struct {
	GamePk   int       `json:"gamePk"`
	GameDate string    `json:"gameDate"`
	GameType string    `json:"gameType"`
	Season   string    `json:"season"`
	Status   StatusDTO `json:"status"`
	Teams    TeamsDTO  `json:"teams"`
	Venue    VenueDTO  `json:"venue"`
}

// StatusDTO carries the schedule status of a game. AbstractGameCode is
// the coarse one-letter code the mapper keys on.
type StatusDTO struct {
	AbstractGameCode string `json:"abstractGameCode"`
	DetailedState    string `json:"detailedState"`
}

// TeamsDTO holds both sides of a game.
type TeamsDTO struct {
	Home SideDTO `json:"home"`
	Away SideDTO `json:"away"`
}

// SideDTO is one side of a game, optionally hydrated with the probable
// starting pitcher.
type SideDTO struct {
	Team            TeamRefDTO `json:"team"`
	ProbablePitcher *PersonDTO `json:"probablePitcher,omitempty"`
}

// TeamRefDTO identifies a team.
type TeamRefDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PersonDTO identifies a player.
type PersonDTO struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
}

// VenueDTO identifies the ballpark.
type VenueDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION DTOs
// ══════════════════════════════════════════════════════════════════════════════

// TransactionsResponseDTO is the top-level /transactions response.
type TransactionsResponseDTO struct {
	Transactions []TransactionDTO `json:"transactions"`
}

// TransactionDTO is one roster move. FromTeam and ToTeam are omitted by
// the API when a side does not apply, and dates arrive as YYYY-MM-DD.
type TransactionDTO struct {
	ID             int64       `json:"id"`
	Person         *PersonDTO  `json:"person,omitempty"`
	FromTeam       *TeamRefDTO `json:"fromTeam,omitempty"`
	ToTeam         *TeamRefDTO `json:"toTeam,omitempty"`
	Date           string      `json:"date"`
	EffectiveDate  string      `json:"effectiveDate,omitempty"`
	ResolutionDate string      `json:"resolutionDate,omitempty"`
	TypeCode       string      `json:"typeCode"`
	TypeDesc       string      `json:"typeDesc"`
	Description    string      `json:"description"`
}
