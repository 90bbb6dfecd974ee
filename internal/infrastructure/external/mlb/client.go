// Package mlb implements the MLB Stats API client.
// This package handles all communication with statsapi.mlb.com, including
// fetching the Mariners schedule, probable pitchers, and roster transactions.
package mlb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/shared"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
	"github.com/mariners-hub/mariners-gameday-hub/pkg/circuitbreaker"
	"github.com/mariners-hub/mariners-gameday-hub/pkg/retry"
	"github.com/mariners-hub/mariners-gameday-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Stats API client.
type ClientConfig struct {
	// BaseURL is the Stats API base URL
	BaseURL string

	// TeamID is the team whose schedule and transactions are fetched
	TeamID int

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimit is the sustained request rate in requests per second
	RateLimit float64

	// Burst is the rate limiter burst size
	Burst int

	// UserAgent identifies the bot to the API
	UserAgent string

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string, teamID int) ClientConfig {
	return ClientConfig{
		BaseURL:   baseURL,
		TeamID:    teamID,
		Timeout:   30 * time.Second,
		RateLimit: 2.0,
		Burst:     4,
		UserAgent: "mariners-gameday-hub/1.0",
	}
}

// postseasonTypes are the game type codes the schedule endpoint will not
// reliably filter by teamId, so those are fetched league-wide and
// filtered client-side.
var postseasonTypes = map[game.Type]bool{
	game.TypeWildCard: true, game.TypeDivisionSeries: true,
	game.TypeLCS: true, game.TypeWorldSeries: true,
}

// AllGameTypes is the default set of game types fetched for a schedule sync.
var AllGameTypes = []game.Type{
	game.TypeRegular, game.TypeSpring, game.TypeWildCard,
	game.TypeDivisionSeries, game.TypeLCS, game.TypeWorldSeries,
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the MLB Stats API client. It rate-limits outgoing requests,
// retries transient failures, and opens a circuit after repeated errors.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	retrier    *retry.Retrier
	mapper     *Mapper
}

// NewClient creates a new Stats API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	logger := config.Logger.With(slog.String("component", "mlb_client"))
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
		breaker: circuitbreaker.StatsAPIBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		}),
		retrier: retry.StatsAPIRetrier(),
		mapper:  NewMapper(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetSchedule fetches the team's games of the given season and date
// range, one request per game type. Postseason responses are fetched
// league-wide and filtered to the team client-side. A failure for one
// game type is logged and does not abort the others. Results are
// deduplicated by gamePk and sorted by first pitch.
func (c *Client) GetSchedule(ctx context.Context, season int, r timeutil.DateRange, gameTypes []game.Type) ([]*game.Game, error) {
	if len(gameTypes) == 0 {
		gameTypes = AllGameTypes
	}

	byPk := make(map[game.Pk]*game.Game)
	failures := 0
	for _, gt := range gameTypes {
		games, err := c.fetchScheduleType(ctx, season, r, gt)
		if err != nil {
			failures++
			c.logger.Warn("schedule fetch failed for game type",
				slog.String("game_type", string(gt)),
				slog.String("error", err.Error()))
			continue
		}
		for _, g := range games {
			byPk[g.Pk] = g
		}
	}
	if failures == len(gameTypes) {
		return nil, fmt.Errorf("schedule fetch failed for all game types: %w", shared.ErrStatsAPIUnavailable)
	}

	out := make([]*game.Game, 0, len(byPk))
	for _, g := range byPk {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameDate.Before(out[j].GameDate) })

	c.logger.Info("schedule fetched",
		slog.Int("games", len(out)),
		slog.Int("game_types", len(gameTypes)))
	return out, nil
}

func (c *Client) fetchScheduleType(ctx context.Context, season int, r timeutil.DateRange, gt game.Type) ([]*game.Game, error) {
	params := url.Values{}
	params.Set("sportId", "1")
	params.Set("gameType", string(gt))
	params.Set("season", strconv.Itoa(season))
	params.Set("startDate", timeutil.FormatAPIDateStr(r.Start))
	params.Set("endDate", timeutil.FormatAPIDateStr(r.End))
	if !postseasonTypes[gt] {
		params.Set("teamId", strconv.Itoa(c.config.TeamID))
	}

	var resp ScheduleResponseDTO
	if err := c.get(ctx, "/schedule", params, &resp); err != nil {
		return nil, err
	}

	games, skipped := c.mapper.GamesFromSchedule(&resp)
	if skipped > 0 {
		c.logger.Warn("skipped malformed schedule entries",
			slog.String("game_type", string(gt)),
			slog.Int("skipped", skipped))
	}
	return games, nil
}

// GetProbablePitchers fetches the announced starting pitchers for a game.
// Either name may be empty when not yet announced.
func (c *Client) GetProbablePitchers(ctx context.Context, pk game.Pk) (home, away string, err error) {
	params := url.Values{}
	params.Set("sportId", "1")
	params.Set("gamePk", strconv.Itoa(int(pk)))
	params.Set("hydrate", "probablePitcher")

	var resp ScheduleResponseDTO
	if err := c.get(ctx, "/schedule", params, &resp); err != nil {
		return "", "", err
	}

	for _, day := range resp.Dates {
		for i := range day.Games {
			g := &day.Games[i]
			if game.Pk(g.GamePk) != pk {
				continue
			}
			if p := g.Teams.Home.ProbablePitcher; p != nil {
				home = p.FullName
			}
			if p := g.Teams.Away.ProbablePitcher; p != nil {
				away = p.FullName
			}
			return home, away, nil
		}
	}
	return "", "", fmt.Errorf("game %d: %w", pk, shared.ErrGameNotFound)
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// FetchTransactions fetches the team's roster transactions in the given
// date range. Malformed entries are skipped.
func (c *Client) FetchTransactions(ctx context.Context, r timeutil.DateRange) ([]*transaction.Transaction, error) {
	params := url.Values{}
	params.Set("teamId", strconv.Itoa(c.config.TeamID))
	params.Set("startDate", timeutil.FormatAPIDateStr(r.Start))
	params.Set("endDate", timeutil.FormatAPIDateStr(r.End))

	var resp TransactionsResponseDTO
	if err := c.get(ctx, "/transactions", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}

	txns, skipped := c.mapper.TransactionsFromResponse(&resp)
	if skipped > 0 {
		c.logger.Warn("skipped malformed transaction entries", slog.Int("skipped", skipped))
	}
	return txns, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// get performs a GET request with rate limiting, circuit breaking, and
// retries, then unmarshals the JSON response into result.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Permanent(fmt.Errorf("rate limiter: %w", err))
			}
			return c.doSingleRequest(ctx, path, params, result)
		})
	})
}

// doSingleRequest performs a single HTTP GET.
func (c *Client) doSingleRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	fullURL := c.config.BaseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug("stats api request", slog.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(shared.ErrStatsAPIRateLimited)
	case resp.StatusCode >= 500:
		return retry.Retryable(fmt.Errorf("status %d: %w", resp.StatusCode, shared.ErrStatsAPIUnavailable))
	case resp.StatusCode >= 400:
		return retry.Permanent(fmt.Errorf("status %d: %w", resp.StatusCode, shared.ErrStatsAPIInvalidResponse))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return retry.Permanent(fmt.Errorf("unmarshal response: %w", shared.ErrStatsAPIInvalidResponse))
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IsHealthy checks that the Stats API answers a cheap request.
func (c *Client) IsHealthy(ctx context.Context) bool {
	params := url.Values{}
	params.Set("teamId", strconv.Itoa(c.config.TeamID))
	params.Set("sportId", "1")

	var resp struct {
		Teams []TeamRefDTO `json:"teams"`
	}
	err := c.doSingleRequest(ctx, "/teams", params, &resp)
	return err == nil && len(resp.Teams) > 0
}

// BreakerState reports the circuit breaker state for health endpoints.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}
