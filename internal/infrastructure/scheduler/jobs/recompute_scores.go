// Package jobs contains implementations of scheduled jobs for QuestBoard.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/questboard/questboard-hub/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE SCORES JOB
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeScoresJob periodically runs a full scoring pass over all
// eligible profiles. The pass gathers activity, computes and normalizes
// scores, assigns ranks and atomically replaces the record store contents.
// This job is the primary producer of fresh leaderboard data; read paths
// only fall back to on-demand recomputation when both the cache and the
// store come up empty.
type RecomputeScoresJob struct {
	handler *command.RecomputeScoresHandler
	logger  *slog.Logger

	lastPassStats atomic.Value // *PassStats
}

// PassStats contains statistics from the last scoring pass.
type PassStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	TotalProfiles int
	Excluded      int
	RankShifts    int
	StoreWritten  bool
	CacheWritten  bool
}

// NewRecomputeScoresJob creates a new scoring pass job.
func NewRecomputeScoresJob(handler *command.RecomputeScoresHandler, logger *slog.Logger) *RecomputeScoresJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecomputeScoresJob{
		handler: handler,
		logger:  logger,
	}
}

// Name returns the job name.
func (j *RecomputeScoresJob) Name() string {
	return "recompute_scores"
}

// Description returns a human-readable description.
func (j *RecomputeScoresJob) Description() string {
	return "Runs a full scoring pass: gathers activity, ranks profiles and replaces the score store"
}

// Run executes the scoring pass.
func (j *RecomputeScoresJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	j.logger.Info("starting recompute_scores job")

	result, err := j.handler.Handle(ctx, command.RecomputeScoresCommand{
		TriggeredBy: "schedule",
	})
	if err != nil {
		return fmt.Errorf("scoring pass failed: %w", err)
	}

	stats := &PassStats{
		StartedAt:     startedAt,
		CompletedAt:   time.Now(),
		Duration:      result.Duration,
		TotalProfiles: result.TotalProfiles,
		Excluded:      result.Excluded,
		RankShifts:    result.RankShifts,
		StoreWritten:  result.StoreWritten,
		CacheWritten:  result.CacheWritten,
	}
	j.lastPassStats.Store(stats)

	j.logger.Info("recompute_scores job completed",
		"duration", result.Duration.String(),
		"total_profiles", result.TotalProfiles,
		"excluded", result.Excluded,
		"rank_shifts", result.RankShifts,
		"store_written", result.StoreWritten,
	)

	return nil
}

// LastPassStats returns statistics from the last completed pass.
func (j *RecomputeScoresJob) LastPassStats() *PassStats {
	stats := j.lastPassStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*PassStats)
}
