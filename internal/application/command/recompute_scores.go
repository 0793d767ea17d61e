package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/questboard/questboard-hub/internal/domain/goal"
	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/scoreboard"
	"github.com/questboard/questboard-hub/internal/domain/shared"
	"github.com/questboard/questboard-hub/pkg/retry"
	"github.com/questboard/questboard-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE SCORES COMMAND
// Runs a full scoring pass: gathers activity for every eligible profile,
// computes sub-scores, normalizes and ranks across the whole population,
// then replaces the record store and the cache with the new pass.
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeScoresCommand contains the data to run a scoring pass.
type RecomputeScoresCommand struct {
	// TriggeredBy identifies the pass initiator: "schedule", "manual", "fallback".
	TriggeredBy string
}

// Validate validates the command.
func (c RecomputeScoresCommand) Validate() error {
	if c.TriggeredBy == "" {
		return errors.New("recompute_scores: triggered_by is required")
	}
	return nil
}

// RecomputeScoresResult contains the outcome of a scoring pass.
type RecomputeScoresResult struct {
	// Pass is the finished pass with ranked records.
	Pass *scoreboard.Pass

	// TotalProfiles is the eligible population size.
	TotalProfiles int

	// Excluded counts profiles dropped from the pass because their
	// activity could not be gathered.
	Excluded int

	// StoreWritten is false when the write-back to the record store failed.
	// A pass with a failed write-back is still a valid result.
	StoreWritten bool

	// CacheWritten is false when the cache update failed.
	CacheWritten bool

	// RankShifts is the number of profiles whose rank changed since the
	// previous stored pass.
	RankShifts int

	// Duration is how long the pass took.
	Duration time.Duration
}

// RecomputeScoresConfig contains handler settings.
type RecomputeScoresConfig struct {
	// Weights are the scoring constants for the pass.
	Weights scoreboard.Weights

	// Concurrency bounds the per-profile gather fan-out.
	Concurrency int

	// PassTimeout bounds the whole pass. Zero disables the bound.
	PassTimeout time.Duration

	// CacheTTL is how long the pass stays in the cache.
	CacheTTL time.Duration
}

// DefaultRecomputeScoresConfig returns default settings.
func DefaultRecomputeScoresConfig() RecomputeScoresConfig {
	return RecomputeScoresConfig{
		Weights:     scoreboard.DefaultWeights(),
		Concurrency: 8,
		PassTimeout: 2 * time.Minute,
		CacheTTL:    10 * time.Minute,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeScoresHandler handles the RecomputeScoresCommand.
type RecomputeScoresHandler struct {
	profileRepo    profile.Repository
	goalRepo       goal.Repository
	metricRepo     goal.MetricRepository
	postRepo       profile.PostRepository
	engagementRepo profile.EngagementRepository
	recordStore    scoreboard.RecordStore
	cache          scoreboard.Cache
	eventPublisher shared.EventPublisher
	retrier        *retry.Retrier
	logger         *slog.Logger
	config         RecomputeScoresConfig
}

// NewRecomputeScoresHandler creates a new RecomputeScoresHandler.
func NewRecomputeScoresHandler(
	profileRepo profile.Repository,
	goalRepo goal.Repository,
	metricRepo goal.MetricRepository,
	postRepo profile.PostRepository,
	engagementRepo profile.EngagementRepository,
	recordStore scoreboard.RecordStore,
	cache scoreboard.Cache,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config RecomputeScoresConfig,
) *RecomputeScoresHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultRecomputeScoresConfig().Concurrency
	}

	return &RecomputeScoresHandler{
		profileRepo:    profileRepo,
		goalRepo:       goalRepo,
		metricRepo:     metricRepo,
		postRepo:       postRepo,
		engagementRepo: engagementRepo,
		recordStore:    recordStore,
		cache:          cache,
		eventPublisher: eventPublisher,
		retrier:        retry.StoreRetrier(),
		logger:         logger,
		config:         config,
	}
}

// Handle executes the scoring pass.
//
// Failure policy follows two tiers. A profile whose activity cannot be
// gathered is excluded from the pass and logged; the pass continues.
// A failure that poisons the whole pass - the population cannot be listed,
// every gather fails, the timeout fires - aborts the pass without touching
// the store: the previous pass stays intact and readable.
func (h *RecomputeScoresHandler) Handle(ctx context.Context, cmd RecomputeScoresCommand) (*RecomputeScoresResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if h.config.PassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.PassTimeout)
		defer cancel()
	}

	startedAt := time.Now()

	profiles, err := h.profileRepo.GetEligible(ctx)
	if err != nil {
		return nil, shared.WrapError("scoreboard", "Recompute", shared.ErrFetchFailed,
			"failed to list eligible profiles", err)
	}

	h.logger.Info("scoring pass started",
		"triggered_by", cmd.TriggeredBy,
		"population", len(profiles))

	// Previous pass, read best-effort for the rank diff. Its absence
	// never blocks the new pass.
	previous := h.readPreviousPass(ctx)

	activities, excluded := h.gatherAll(ctx, profiles)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPassFailed, err)
	}
	if len(activities) == 0 && len(profiles) > 0 {
		return nil, fmt.Errorf("%w: all %d profiles failed to gather", shared.ErrPassFailed, len(profiles))
	}

	board := scoreboard.NewScoreboard()
	for _, a := range activities {
		if err := board.Add(scoreboard.NewRecord(a.Profile, h.config.Weights.Score(a))); err != nil {
			return nil, fmt.Errorf("recompute_scores: %w", err)
		}
	}
	board.Finalize()

	pass := scoreboard.NewPass(uuid.NewString(), timeutil.Now(), board)

	result := &RecomputeScoresResult{
		Pass:          pass,
		TotalProfiles: len(profiles),
		Excluded:      excluded,
	}

	result.StoreWritten = h.writeBack(ctx, pass)
	result.CacheWritten = h.updateCache(ctx, pass)
	result.RankShifts = h.publishDiff(previous, pass)
	result.Duration = time.Since(startedAt)

	_ = h.eventPublisher.Publish(shared.NewScoresRecomputedEvent(
		pass.ID, pass.TotalProfiles, pass.ComputedAt, result.StoreWritten))

	h.logger.Info("scoring pass finished",
		"pass_id", pass.ID,
		"ranked", pass.TotalProfiles,
		"excluded", excluded,
		"rank_shifts", result.RankShifts,
		"store_written", result.StoreWritten,
		"duration", result.Duration)

	return result, nil
}

// gatherAll collects activity for every profile with a bounded fan-out.
// A failed profile is logged and excluded; the rest of the pass proceeds.
func (h *RecomputeScoresHandler) gatherAll(ctx context.Context, profiles []*profile.Profile) ([]*scoreboard.Activity, int) {
	var (
		mu         sync.Mutex
		activities = make([]*scoreboard.Activity, 0, len(profiles))
		excluded   int
	)

	sem := make(chan struct{}, h.config.Concurrency)
	var wg sync.WaitGroup

	for _, p := range profiles {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(p *profile.Profile) {
			defer wg.Done()
			defer func() { <-sem }()

			a, err := h.gatherActivity(ctx, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				excluded++
				h.logger.Warn("profile excluded from scoring pass",
					"profile_id", p.ID,
					"error", err)
				return
			}
			activities = append(activities, a)
		}(p)
	}

	wg.Wait()
	return activities, excluded
}

// gatherActivity collects one profile's scoring input. Any failed fetch
// fails the whole profile: scoring a half-loaded profile as if the missing
// part were empty would silently deflate its score.
func (h *RecomputeScoresHandler) gatherActivity(ctx context.Context, p *profile.Profile) (*scoreboard.Activity, error) {
	goals, err := h.goalRepo.GetByProfiles(ctx, []profile.ID{p.ID})
	if err != nil {
		return nil, fmt.Errorf("goals: %w", err)
	}

	goalIDs := make([]goal.ID, len(goals))
	for i, g := range goals {
		goalIDs[i] = g.ID
	}

	var metrics []*goal.Metric
	if len(goalIDs) > 0 {
		metrics, err = h.metricRepo.GetByGoals(ctx, goalIDs)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	posts, err := h.postRepo.GetByProfiles(ctx, []profile.ID{p.ID})
	if err != nil {
		return nil, fmt.Errorf("posts: %w", err)
	}

	profileLikes, err := h.engagementRepo.CountLikes(ctx, profile.LikeTargetProfile, []string{string(p.ID)})
	if err != nil {
		return nil, fmt.Errorf("profile likes: %w", err)
	}

	followers, err := h.engagementRepo.CountFollowers(ctx, []profile.ID{p.ID})
	if err != nil {
		return nil, fmt.Errorf("followers: %w", err)
	}

	return &scoreboard.Activity{
		Profile:      p,
		Goals:        goals,
		Metrics:      metrics,
		Posts:        posts,
		ProfileLikes: profileLikes[string(p.ID)],
		Followers:    followers[p.ID],
	}, nil
}

// readPreviousPass loads the stored pass for the rank diff. Best effort.
func (h *RecomputeScoresHandler) readPreviousPass(ctx context.Context) *scoreboard.Pass {
	records, err := h.recordStore.ReadAll(ctx)
	if err != nil || len(records) == 0 {
		if err != nil {
			h.logger.Warn("previous pass unavailable, rank diff skipped", "error", err)
		}
		return nil
	}

	prev := &scoreboard.Pass{
		ID:            records[0].PassID,
		ComputedAt:    records[0].ComputedAt,
		Records:       records,
		TotalProfiles: len(records),
	}
	prev.RebuildIndex()
	return prev
}

// writeBack replaces the record store with the new pass. The write is
// retried; a final failure is logged and reported, never fatal - the pass
// result stays usable by the caller either way.
func (h *RecomputeScoresHandler) writeBack(ctx context.Context, pass *scoreboard.Pass) bool {
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		return h.recordStore.ReplaceAll(ctx, pass)
	})
	if err != nil {
		h.logger.Warn("score store write-back failed",
			"pass_id", pass.ID,
			"error", err)
		return false
	}
	return true
}

// updateCache refreshes the cache with the new pass. Non-fatal.
func (h *RecomputeScoresHandler) updateCache(ctx context.Context, pass *scoreboard.Pass) bool {
	if h.cache == nil {
		return false
	}
	if err := h.cache.SetPass(ctx, pass, h.config.CacheTTL); err != nil {
		h.logger.Warn("score cache update failed",
			"pass_id", pass.ID,
			"error", err)
		return false
	}
	return true
}

// publishDiff emits rank-change events against the previous pass and
// returns the number of shifts.
func (h *RecomputeScoresHandler) publishDiff(previous, current *scoreboard.Pass) int {
	diff := scoreboard.DiffPasses(previous, current)
	if diff == nil {
		return 0
	}

	for id := range diff.RankShifts {
		oldRank := previous.GetByProfile(id).Rank
		newRank := current.GetByProfile(id).Rank
		_ = h.eventPublisher.Publish(shared.NewRankChangedEvent(string(id), oldRank, newRank))
	}

	return len(diff.RankShifts)
}
