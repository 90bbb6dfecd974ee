// Package jobs contains implementations of the scheduled jobs that keep
// the Mariners Gameday Hub alive: the daily schedule sync, the five-minute
// transaction poll, and the one-minute reminder check.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/dispatch"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/notification"
	"github.com/mariners-hub/mariners-gameday-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC SCHEDULE JOB
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleSource fetches the Mariners schedule from the Stats API.
type ScheduleSource interface {
	// GetSchedule returns Mariners games for the season inside the range.
	GetSchedule(ctx context.Context, season int, r timeutil.DateRange, gameTypes []game.Type) ([]*game.Game, error)

	// GetProbablePitchers returns the announced starters for a game.
	GetProbablePitchers(ctx context.Context, pk game.Pk) (home, away string, err error)
}

// ScheduleCache invalidates and warms cached schedule lookups.
type ScheduleCache interface {
	SetNextGame(ctx context.Context, g *game.Game) error
	Invalidate(ctx context.Context) error
}

// SyncScheduleJob pulls the upcoming schedule, upserts games, and keeps
// reminder events in step with it: new games get reminders scheduled,
// postponed or cancelled games get theirs withdrawn.
type SyncScheduleJob struct {
	source     ScheduleSource
	games      game.Repository
	events     notification.Repository
	dispatcher *dispatch.Dispatcher
	cache      ScheduleCache // optional
	logger     *slog.Logger

	config SyncScheduleConfig
}

// SyncScheduleConfig contains configuration for the schedule sync job.
type SyncScheduleConfig struct {
	// LookaheadDays is how far into the future to fetch.
	LookaheadDays int

	// ReminderLead is how long before first pitch the reminder fires.
	ReminderLead time.Duration

	// ReminderChatID is the chat the pre-game reminder is delivered to,
	// normally the announce channel.
	ReminderChatID int64

	// IncludePitchers fetches probable starters for games inside the
	// pitcher window and includes them in the reminder text.
	IncludePitchers bool

	// PitcherWindow bounds how close to first pitch a game must be before
	// probables are worth fetching.
	PitcherWindow time.Duration

	// GameTypes are the schedule slices to fetch.
	GameTypes []game.Type

	// Timeout is the maximum duration for one sync run.
	Timeout time.Duration
}

// DefaultSyncScheduleConfig returns sensible defaults.
func DefaultSyncScheduleConfig() SyncScheduleConfig {
	return SyncScheduleConfig{
		LookaheadDays:   7,
		ReminderLead:    5 * time.Minute,
		IncludePitchers: true,
		PitcherWindow:   36 * time.Hour,
		GameTypes:       []game.Type{game.TypeRegular, game.TypeWildCard, game.TypeDivisionSeries, game.TypeLCS, game.TypeWorldSeries},
		Timeout:         2 * time.Minute,
	}
}

// ScheduleSyncStats contains statistics from one sync run.
type ScheduleSyncStats struct {
	GamesFetched       int
	GamesUpserted      int
	RemindersScheduled int
	RemindersCancelled int
	Failures           int
}

// NewSyncScheduleJob creates a new schedule sync job.
func NewSyncScheduleJob(
	source ScheduleSource,
	games game.Repository,
	events notification.Repository,
	dispatcher *dispatch.Dispatcher,
	cache ScheduleCache,
	logger *slog.Logger,
	config SyncScheduleConfig,
) *SyncScheduleJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.LookaheadDays <= 0 {
		config.LookaheadDays = 7
	}
	if config.ReminderLead <= 0 {
		config.ReminderLead = 5 * time.Minute
	}

	return &SyncScheduleJob{
		source:     source,
		games:      games,
		events:     events,
		dispatcher: dispatcher,
		cache:      cache,
		logger:     logger,
		config:     config,
	}
}

// Name returns the job name.
func (j *SyncScheduleJob) Name() string {
	return "sync_schedule"
}

// Description returns a human-readable description.
func (j *SyncScheduleJob) Description() string {
	return "Syncs the Mariners schedule and keeps game reminders in step with it"
}

// Run executes one schedule sync.
func (j *SyncScheduleJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	now := time.Now().UTC()
	r := timeutil.DateRange{
		Start: now,
		End:   now.AddDate(0, 0, j.config.LookaheadDays),
	}

	games, err := j.source.GetSchedule(ctx, now.Year(), r, j.config.GameTypes)
	if err != nil {
		return fmt.Errorf("fetch schedule: %w", err)
	}

	var stats ScheduleSyncStats
	stats.GamesFetched = len(games)

	for _, g := range games {
		if err := j.syncGame(ctx, g, now, &stats); err != nil {
			stats.Failures++
			j.logger.Error("game sync failed",
				slog.Int("game_pk", int(g.Pk)),
				slog.String("error", err.Error()))
		}
	}

	j.refreshCache(ctx, now)

	j.logger.Info("schedule sync complete",
		slog.Int("fetched", stats.GamesFetched),
		slog.Int("upserted", stats.GamesUpserted),
		slog.Int("reminders_scheduled", stats.RemindersScheduled),
		slog.Int("reminders_cancelled", stats.RemindersCancelled),
		slog.Int("failures", stats.Failures))

	if stats.Failures > 0 {
		return fmt.Errorf("schedule sync: %d of %d games failed", stats.Failures, stats.GamesFetched)
	}
	return nil
}

// syncGame upserts one game and reconciles its reminder event.
func (j *SyncScheduleJob) syncGame(ctx context.Context, g *game.Game, now time.Time, stats *ScheduleSyncStats) error {
	j.maybeFetchProbables(ctx, g, now)

	if err := j.games.Upsert(ctx, g); err != nil {
		return err
	}
	stats.GamesUpserted++

	if !g.Status.IsPlayable() {
		if err := j.dispatcher.CancelGameReminder(ctx, int(g.Pk), string(g.Status)); err != nil {
			return err
		}
		stats.RemindersCancelled++
		return nil
	}

	if !g.IsUpcoming(now) {
		return nil
	}

	message := dispatch.RenderGameReminder(g, j.config.ReminderLead, j.config.IncludePitchers)

	ev, err := notification.NewReminderEvent(int(g.Pk), j.config.ReminderChatID, g.ReminderDue(j.config.ReminderLead), message)
	if err != nil {
		return fmt.Errorf("build reminder event: %w", err)
	}

	// Deterministic id: re-syncing reschedules in place, and the store
	// refuses to resurrect a reminder that already fired.
	if err := j.events.Upsert(ctx, ev); err != nil {
		return fmt.Errorf("upsert reminder event: %w", err)
	}
	stats.RemindersScheduled++

	return nil
}

// maybeFetchProbables fills in probable starters for games close enough to
// first pitch. Fetch failures are logged and skipped; probables are
// decoration, not data the pipeline depends on.
func (j *SyncScheduleJob) maybeFetchProbables(ctx context.Context, g *game.Game, now time.Time) {
	if !j.config.IncludePitchers || !g.IsUpcoming(now) {
		return
	}
	if g.GameDate.Sub(now) > j.config.PitcherWindow {
		return
	}

	home, away, err := j.source.GetProbablePitchers(ctx, g.Pk)
	if err != nil {
		j.logger.Warn("probable pitchers unavailable",
			slog.Int("game_pk", int(g.Pk)),
			slog.String("error", err.Error()))
		return
	}
	g.HomeProbable = home
	g.AwayProbable = away
}

// refreshCache repopulates the schedule cache after a sync.
func (j *SyncScheduleJob) refreshCache(ctx context.Context, now time.Time) {
	if j.cache == nil {
		return
	}

	if err := j.cache.Invalidate(ctx); err != nil {
		j.logger.Warn("schedule cache invalidation failed", slog.String("error", err.Error()))
		return
	}

	upcoming, err := j.games.GetUpcoming(ctx, now, 1)
	if err != nil || len(upcoming) == 0 {
		return
	}
	if err := j.cache.SetNextGame(ctx, upcoming[0]); err != nil {
		j.logger.Warn("schedule cache warmup failed", slog.String("error", err.Error()))
	}
}
