package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/dispatch"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC TRANSACTIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SyncTransactionsJob runs one transaction pipeline cycle: fetch recent
// moves, deduplicate, route to subscribers, and sweep expired batch
// windows. The pipeline itself owns all the interesting logic; the job
// just gives it a schedule and a timeout.
type SyncTransactionsJob struct {
	pipeline *dispatch.TransactionPipeline
	logger   *slog.Logger
	timeout  time.Duration
}

// NewSyncTransactionsJob creates a new transaction poll job.
func NewSyncTransactionsJob(pipeline *dispatch.TransactionPipeline, logger *slog.Logger, timeout time.Duration) *SyncTransactionsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 4 * time.Minute
	}

	return &SyncTransactionsJob{
		pipeline: pipeline,
		logger:   logger,
		timeout:  timeout,
	}
}

// Name returns the job name.
func (j *SyncTransactionsJob) Name() string {
	return "sync_transactions"
}

// Description returns a human-readable description.
func (j *SyncTransactionsJob) Description() string {
	return "Polls the Stats API for roster transactions and routes them to subscribers"
}

// Run executes one poll cycle.
func (j *SyncTransactionsJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	if err := j.pipeline.Run(ctx); err != nil {
		return fmt.Errorf("transaction pipeline: %w", err)
	}
	return nil
}
