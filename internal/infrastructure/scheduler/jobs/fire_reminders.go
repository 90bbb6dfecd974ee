package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/dispatch"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIRE REMINDERS JOB
// ══════════════════════════════════════════════════════════════════════════════

// FireRemindersJob checks for due game reminders once a minute and fires
// them. Reminders past the grace window are cancelled instead: a "game
// starts in 30 minutes" message an hour after first pitch is noise.
type FireRemindersJob struct {
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	grace      time.Duration
	timeout    time.Duration
}

// NewFireRemindersJob creates a new reminder firing job.
func NewFireRemindersJob(dispatcher *dispatch.Dispatcher, logger *slog.Logger, grace time.Duration) *FireRemindersJob {
	if logger == nil {
		logger = slog.Default()
	}
	if grace <= 0 {
		grace = 15 * time.Minute
	}

	return &FireRemindersJob{
		dispatcher: dispatcher,
		logger:     logger,
		grace:      grace,
		timeout:    45 * time.Second,
	}
}

// Name returns the job name.
func (j *FireRemindersJob) Name() string {
	return "fire_reminders"
}

// Description returns a human-readable description.
func (j *FireRemindersJob) Description() string {
	return "Fires due pre-game reminders and cancels stale ones"
}

// Run executes one reminder check.
func (j *FireRemindersJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	if err := j.dispatcher.FireDueReminders(ctx, j.grace); err != nil {
		return fmt.Errorf("fire due reminders: %w", err)
	}
	return nil
}
