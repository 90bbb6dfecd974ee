package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mariners-hub/mariners-gameday-hub/config"
	"github.com/mariners-hub/mariners-gameday-hub/internal/dispatch"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/external/mlb"
	"github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/external/telegram"
	"github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/persistence/redis"
	"github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/scheduler"
	"github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/scheduler/jobs"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/http/handlers"
	botiface "github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/handler"
	"github.com/mariners-hub/mariners-gameday-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION WIRING
// ══════════════════════════════════════════════════════════════════════════════

// application holds every wired component. The start command uses all of
// it; the one-shot commands use the slice they need.
type application struct {
	cfg *config.Config
	log *slog.Logger

	db    *postgres.Connection
	cache *redisinfra.Cache // nil when Redis is disabled or unreachable

	mlbClient *mlb.Client
	tgClient  *telegram.Client

	games  *postgres.GameRepository
	subs   *postgres.SubscriberRepository
	txns   *postgres.TransactionRepository
	events *postgres.NotificationRepository

	dispatcher *dispatch.Dispatcher
	pipeline   *dispatch.TransactionPipeline

	scheduleCache *redisinfra.ScheduleCache // nil without Redis

	syncScheduleJob     *jobs.SyncScheduleJob
	syncTransactionsJob *jobs.SyncTransactionsJob
	fireRemindersJob    *jobs.FireRemindersJob
}

// newApplication loads configuration, connects to every backing service,
// runs migrations, and wires the dispatch engine and jobs.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := setupLogger(cfg)
	app := &application{cfg: cfg, log: log}

	// ─────────────────────────────────────────────────────────────────────────
	// PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	// The database may still be starting when the bot comes up, so the
	// first connection goes through the database retry preset.
	log.Info("connecting to database")
	err = retry.DatabaseRetrier().Do(ctx, func(ctx context.Context) error {
		conn, connErr := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if connErr != nil {
			return retry.Retryable(connErr)
		}
		app.db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	log.Info("running database migrations")
	if err := postgres.NewMigrator(app.db).Migrate(ctx); err != nil {
		app.db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	if !cfg.Redis.Disabled {
		redisCfg := redisinfra.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redisinfra.NewCache(redisCfg)
		if err != nil {
			// The bot degrades without Redis: in-memory dedupe, no
			// schedule cache. Not worth refusing to start over.
			log.Warn("redis unavailable, running without cache", "error", err)
		} else {
			app.cache = cache
			app.scheduleCache = redisinfra.NewScheduleCache(cache)
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// External clients
	// ─────────────────────────────────────────────────────────────────────────
	mlbCfg := mlb.DefaultClientConfig(cfg.MLB.BaseURL, cfg.MLB.TeamID)
	mlbCfg.Timeout = cfg.MLB.RequestTimeout
	mlbCfg.RateLimit = cfg.MLB.RateLimit
	mlbCfg.Burst = cfg.MLB.RateLimitBurst
	mlbCfg.Logger = log
	app.mlbClient = mlb.NewClient(mlbCfg)

	tgCfg := telegram.DefaultClientConfig(cfg.Telegram.Token)
	tgCfg.GlobalRateLimit = float64(cfg.Telegram.GlobalRateLimit)
	tgCfg.Logger = log
	tgCfg.Debug = cfg.App.Debug
	app.tgClient = telegram.NewClient(tgCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// Repositories
	// ─────────────────────────────────────────────────────────────────────────
	app.games = postgres.NewGameRepository(app.db)
	app.subs = postgres.NewSubscriberRepository(app.db)
	app.txns = postgres.NewTransactionRepository(app.db)
	app.events = postgres.NewNotificationRepository(app.db)

	// ─────────────────────────────────────────────────────────────────────────
	// Dispatch engine
	// ─────────────────────────────────────────────────────────────────────────
	dispatchCfg := dispatch.DefaultConfig()
	dispatchCfg.BatchWindow = cfg.Dispatch.BatchWindow
	dispatchCfg.MaxSendAttempts = cfg.Dispatch.MaxSendAttempts
	app.dispatcher = dispatch.NewDispatcher(app.tgClient, app.events, dispatchCfg, log)

	var seen dispatch.SeenTracker = dispatch.NewMemorySeenTracker()
	if app.cache != nil {
		seen = redisinfra.NewSeenTracker(app.cache)
	}

	app.pipeline = dispatch.NewTransactionPipeline(
		app.mlbClient,
		seen,
		app.txns,
		app.subs,
		app.events,
		app.dispatcher,
		cfg.MLB.TransactionLookbackDays,
		cfg.Telegram.AnnounceChatID,
		log,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// Jobs
	// ─────────────────────────────────────────────────────────────────────────
	syncCfg := jobs.DefaultSyncScheduleConfig()
	syncCfg.ReminderLead = cfg.Dispatch.ReminderLead
	syncCfg.ReminderChatID = cfg.Telegram.AnnounceChatID
	syncCfg.Timeout = cfg.Scheduler.JobTimeout
	syncCfg.IncludePitchers = cfg.Features.IsEnabled(config.FeatureGameProbablePitchers, nil)
	if !cfg.Features.IsEnabled(config.FeatureGamePostseason, nil) {
		syncCfg.GameTypes = []game.Type{game.TypeRegular}
	}

	// Interface values stay nil unless Redis is up; a typed nil pointer
	// would dodge the jobs' nil checks.
	var schedCache jobs.ScheduleCache
	if app.scheduleCache != nil {
		schedCache = app.scheduleCache
	}

	app.syncScheduleJob = jobs.NewSyncScheduleJob(
		app.mlbClient, app.games, app.events, app.dispatcher, schedCache, log, syncCfg)
	app.syncTransactionsJob = jobs.NewSyncTransactionsJob(
		app.pipeline, log, cfg.Scheduler.JobTimeout)
	app.fireRemindersJob = jobs.NewFireRemindersJob(
		app.dispatcher, log, cfg.Dispatch.ReminderGrace)

	return app, nil
}

// Close releases backing connections in reverse dependency order.
func (a *application) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("closing redis", "error", err)
		}
	}
	if a.db != nil {
		a.log.Info("closing database connection")
		a.db.Close()
	}
}

// healthChecker aggregates the health of every backing service.
func (a *application) healthChecker() *handlers.CompositeHealthChecker {
	checker := handlers.NewCompositeHealthChecker(version)
	checker.AddCheck("postgres", handlers.NewPingCheck(a.db))
	if a.cache != nil {
		checker.AddCheck("redis", handlers.NewPingCheck(a.cache))
	}
	checker.AddCheck("mlb_stats_api", handlers.NewStatsAPICheck(a.mlbClient))
	checker.AddCheck("telegram", handlers.NewBotAPICheck(a.tgClient))
	return checker
}

// statusChecks feeds the /status bot command the same dependency set,
// expressed as plain error-returning checks.
func (a *application) statusChecks() map[string]handler.DependencyChecker {
	checks := map[string]handler.DependencyChecker{
		"postgres": handler.DependencyCheckerFunc(a.db.Ping),
		"telegram": handler.DependencyCheckerFunc(func(ctx context.Context) error {
			if !a.tgClient.IsAvailable(ctx) {
				return fmt.Errorf("bot api unavailable")
			}
			return nil
		}),
		"mlb_stats_api": handler.DependencyCheckerFunc(func(ctx context.Context) error {
			if !a.mlbClient.IsHealthy(ctx) {
				return fmt.Errorf("stats api unhealthy (breaker %s)", a.mlbClient.BreakerState())
			}
			return nil
		}),
	}
	if a.cache != nil {
		checks["redis"] = handler.DependencyCheckerFunc(a.cache.Ping)
	}
	return checks
}

// newBot builds the interactive Telegram bot on top of the shared client.
func (a *application) newBot(sched *scheduler.Scheduler) (*botiface.Bot, error) {
	botCfg := botiface.DefaultBotConfig()
	botCfg.Debug = a.cfg.App.Debug
	botCfg.Logger = a.log
	botCfg.Location = a.cfg.App.Location
	botCfg.AdminIDs = a.cfg.Telegram.AdminIDs

	deps := botiface.BotDependencies{
		Client:       a.tgClient,
		Subscribers:  a.subs,
		Games:        a.games,
		Scheduler:    sched,
		HealthChecks: a.statusChecks(),
	}
	if a.scheduleCache != nil {
		deps.NextGameCache = a.scheduleCache
	}

	return botiface.NewBot(botCfg, deps)
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the process-wide structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Observability.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.App.Environment == config.EnvProduction {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(h)
	slog.SetDefault(log)
	return log
}
