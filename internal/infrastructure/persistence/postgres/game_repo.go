package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAME REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GameRepository implements game.Repository for PostgreSQL.
type GameRepository struct {
	conn *Connection
}

// NewGameRepository creates a new GameRepository.
func NewGameRepository(conn *Connection) *GameRepository {
	return &GameRepository{conn: conn}
}

const gameColumns = `
	game_pk, game_date, home_team_id, home_team_name, away_team_id, away_team_name,
	venue, status, game_type, season, home_probable, away_probable,
	notification_sent, created_at, updated_at
`

// Upsert inserts the game or updates it in place by pk. The notification
// flag is deliberately left out of the update set so a schedule re-sync
// never resurrects an already-sent reminder.
func (r *GameRepository) Upsert(ctx context.Context, g *game.Game) error {
	query := `
		INSERT INTO games (
			game_pk, game_date, home_team_id, home_team_name, away_team_id, away_team_name,
			venue, status, game_type, season, home_probable, away_probable,
			notification_sent, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (game_pk) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			home_team_id = EXCLUDED.home_team_id,
			home_team_name = EXCLUDED.home_team_name,
			away_team_id = EXCLUDED.away_team_id,
			away_team_name = EXCLUDED.away_team_name,
			venue = EXCLUDED.venue,
			status = EXCLUDED.status,
			game_type = EXCLUDED.game_type,
			season = EXCLUDED.season,
			home_probable = EXCLUDED.home_probable,
			away_probable = EXCLUDED.away_probable,
			updated_at = NOW()
	`

	_, err := r.conn.Exec(ctx, query,
		int(g.Pk),
		g.GameDate,
		g.HomeTeamID,
		g.HomeTeamName,
		g.AwayTeamID,
		g.AwayTeamName,
		g.Venue,
		string(g.Status),
		string(g.GameType),
		g.Season,
		g.HomeProbable,
		g.AwayProbable,
		g.NotificationSent,
		g.CreatedAt,
		g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game %d: %w", int(g.Pk), err)
	}

	return nil
}

// GetByPk returns the game with the given pk.
func (r *GameRepository) GetByPk(ctx context.Context, pk game.Pk) (*game.Game, error) {
	query := fmt.Sprintf(`SELECT %s FROM games WHERE game_pk = $1`, gameColumns)

	row := r.conn.QueryRow(ctx, query, int(pk))
	return r.scanGame(row)
}

// GetUpcoming returns scheduled games with first pitch after the given
// time, ordered by game date.
func (r *GameRepository) GetUpcoming(ctx context.Context, after time.Time, limit int) ([]*game.Game, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM games
		WHERE status = 'scheduled' AND game_date > $1
		ORDER BY game_date
		LIMIT $2
	`, gameColumns)

	rows, err := r.conn.Query(ctx, query, after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming games: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

// GetByDateRange returns games with first pitch inside [from, to].
func (r *GameRepository) GetByDateRange(ctx context.Context, from, to time.Time) ([]*game.Game, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM games
		WHERE game_date >= $1 AND game_date <= $2
		ORDER BY game_date
	`, gameColumns)

	rows, err := r.conn.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query games by date range: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

// MarkNotified flips the notification flag for a game.
func (r *GameRepository) MarkNotified(ctx context.Context, pk game.Pk) error {
	query := `UPDATE games SET notification_sent = TRUE, updated_at = NOW() WHERE game_pk = $1`

	result, err := r.conn.Exec(ctx, query, int(pk))
	if err != nil {
		return fmt.Errorf("failed to mark game %d notified: %w", int(pk), err)
	}
	if result.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *GameRepository) scanGame(row pgx.Row) (*game.Game, error) {
	var g game.Game
	var pk int
	var status, gameType string

	err := row.Scan(
		&pk,
		&g.GameDate,
		&g.HomeTeamID,
		&g.HomeTeamName,
		&g.AwayTeamID,
		&g.AwayTeamName,
		&g.Venue,
		&status,
		&gameType,
		&g.Season,
		&g.HomeProbable,
		&g.AwayProbable,
		&g.NotificationSent,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, game.ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}

	g.Pk = game.Pk(pk)
	g.Status = game.Status(status)
	g.GameType = game.Type(gameType)

	return &g, nil
}

func (r *GameRepository) scanGames(rows pgx.Rows) ([]*game.Game, error) {
	var games []*game.Game

	for rows.Next() {
		g, err := r.scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}

	return games, rows.Err()
}
