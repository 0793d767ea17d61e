// Package jobs contains implementations of scheduled jobs for QuestBoard.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/questboard/questboard-hub/internal/domain/scoreboard"
	"github.com/questboard/questboard-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLEANUP PASSES JOB
// ══════════════════════════════════════════════════════════════════════════════

// CleanupPassesJob removes score records left behind by old passes.
// Under normal operation ReplaceAll keeps exactly one pass in the store,
// but an interrupted pass or a rollback can strand records with a stale
// pass timestamp. Retention cleanup keeps the store bounded either way.
type CleanupPassesJob struct {
	store  scoreboard.RecordStore
	logger *slog.Logger
	config CleanupPassesConfig
}

// CleanupPassesConfig contains configuration for the cleanup job.
type CleanupPassesConfig struct {
	// Retention is how long pass records are kept before deletion.
	Retention time.Duration

	// Timeout bounds a single cleanup run.
	Timeout time.Duration
}

// DefaultCleanupPassesConfig returns sensible defaults.
func DefaultCleanupPassesConfig() CleanupPassesConfig {
	return CleanupPassesConfig{
		Retention: 7 * 24 * time.Hour,
		Timeout:   time.Minute,
	}
}

// NewCleanupPassesJob creates a new retention cleanup job.
func NewCleanupPassesJob(store scoreboard.RecordStore, logger *slog.Logger, config CleanupPassesConfig) *CleanupPassesJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Retention <= 0 {
		config.Retention = DefaultCleanupPassesConfig().Retention
	}
	return &CleanupPassesJob{
		store:  store,
		logger: logger,
		config: config,
	}
}

// Name returns the job name.
func (j *CleanupPassesJob) Name() string {
	return "cleanup_passes"
}

// Description returns a human-readable description.
func (j *CleanupPassesJob) Description() string {
	return "Deletes score records from passes older than the retention window"
}

// Run executes the cleanup.
func (j *CleanupPassesJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	cutoff := timeutil.RetentionCutoff(j.config.Retention)

	deleted, err := j.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete stale pass records: %w", err)
	}

	if deleted > 0 {
		j.logger.Info("deleted stale pass records",
			"count", deleted,
			"cutoff", timeutil.FormatStamp(cutoff),
		)
	} else {
		j.logger.Debug("no stale pass records found",
			"cutoff", timeutil.FormatStamp(cutoff),
		)
	}

	return nil
}
