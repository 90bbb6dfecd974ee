// Package main is the entry point for the Mariners Gameday Hub bot.
//
// The bot follows the Seattle Mariners through the MLB Stats API and
// keeps Telegram subscribers in the loop: roster transaction alerts
// filtered by per-user preferences, batched digests for busy days, and
// pre-game reminders timed off the schedule.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/scheduler"
	httpserver "github.com/mariners-hub/mariners-gameday-hub/internal/interface/http"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "gameday-hub",
		Short:   "Seattle Mariners Telegram notification bot",
		Version: version,
		Long: "Mariners Gameday Hub follows the Seattle Mariners through the MLB\n" +
			"Stats API and delivers transaction alerts and game reminders to\n" +
			"Telegram subscribers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStartCmd(),
		newSyncScheduleCmd(),
		newSyncTransactionsCmd(),
		newHealthCmd(),
	)
	return root
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the bot, the scheduler, and the health server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context())
		},
	}
}

func newSyncScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-schedule",
		Short: "Run one schedule sync and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobOnce(cmd.Context(), "sync_schedule")
		},
	}
}

func newSyncTransactionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-transactions",
		Short: "Run one transaction poll and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobOnce(cmd.Context(), "sync_transactions")
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check every backing service and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd.Context())
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// START
// ══════════════════════════════════════════════════════════════════════════════

func runStart(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	log := app.log
	cfg := app.cfg
	log.Info("starting mariners gameday hub",
		"version", version,
		"env", string(cfg.App.Environment),
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// Scheduler
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	if cfg.Scheduler.Enabled {
		registrations := []struct {
			job      scheduler.Job
			schedule scheduler.Schedule
		}{
			{app.syncScheduleJob, scheduler.DailyAt(cfg.Scheduler.ScheduleSyncHour, cfg.Scheduler.ScheduleSyncMinute)},
			{app.syncTransactionsJob, scheduler.NewIntervalSchedule(cfg.Scheduler.TransactionPollInterval)},
			{app.fireRemindersJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ReminderCheckInterval)},
		}
		for _, r := range registrations {
			if err := sched.Register(r.job, r.schedule); err != nil {
				return fmt.Errorf("register job %s: %w", r.job.Name(), err)
			}
		}
	} else {
		log.Warn("scheduler disabled, no background jobs will run")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP health server
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Port = cfg.Observability.HealthPort
	httpCfg.EnableMetrics = cfg.Observability.MetricsEnabled
	httpCfg.Version = version

	srv := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		Logger:        log,
		HealthChecker: app.healthChecker(),
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Telegram bot
	// ─────────────────────────────────────────────────────────────────────────
	bot, err := app.newBot(sched)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Run
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 2)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	go func() {
		if err := bot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("telegram bot: %w", err)
		}
	}()

	log.Info("mariners gameday hub is running",
		"http_address", srv.Address(),
		"jobs", len(sched.ListJobs()),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service failed", "error", err)
		cancel()
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("shutting down", "timeout", cfg.App.ShutdownTimeout.String())
	cancel() // stops bot polling and scheduler context

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if cfg.Scheduler.Enabled {
		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			log.Warn("stopping scheduler", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("stopping http server", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ONE-SHOT COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// runJobOnce wires the application and executes a single named job.
// Used by cron-style deployments that run syncs out of process.
func runJobOnce(ctx context.Context, jobName string) error {
	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	var job scheduler.Job
	switch jobName {
	case "sync_schedule":
		job = app.syncScheduleJob
	case "sync_transactions":
		job = app.syncTransactionsJob
	default:
		return fmt.Errorf("unknown job %q", jobName)
	}

	app.log.Info("running job", "job", job.Name())
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	app.log.Info("job finished", "job", job.Name(), "duration", time.Since(start).String())
	return nil
}

// runHealth checks every backing service and prints the aggregated
// report as JSON. Exits non-zero when anything is down.
func runHealth(ctx context.Context) error {
	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	status := app.healthChecker().Check(ctx)

	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !status.Healthy {
		return errors.New("one or more health checks failed")
	}
	return nil
}
