// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/questboard/questboard-hub/internal/application/command"
	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/scoreboard"
	"github.com/questboard/questboard-hub/pkg/circuitbreaker"
	"github.com/questboard/questboard-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Serves a ranked, optionally filtered page of the latest scoring pass.
// Read preference: cache, then record store, then on-demand recompute.
// All three sources run through the same filtering and projection, so a
// reader cannot tell which one answered except by the Source field.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultLimit is the page size when the caller does not set one.
	DefaultLimit = 20

	// MaxLimit caps the page size.
	MaxLimit = 100
)

// Source identifies which tier answered the query.
type Source string

const (
	SourceCache     Source = "cache"
	SourceStore     Source = "store"
	SourceRecompute Source = "recompute"
)

// GetLeaderboardQuery contains parameters for the leaderboard request.
type GetLeaderboardQuery struct {
	// Filter narrows the board by branch, year and section.
	// An empty filter returns the whole population.
	Filter profile.Filter

	// Limit is the maximum number of entries. Zero means DefaultLimit.
	Limit int

	// ForProfile, when set, additionally resolves that profile's own entry
	// even if it falls outside the requested page.
	ForProfile profile.ID
}

// Validate validates the query.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("get_leaderboard: limit must be non-negative, got %d", q.Limit)
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Filter.Year != profile.YearAll && !q.Filter.Year.IsValid() {
		return fmt.Errorf("get_leaderboard: invalid year filter: %d", q.Filter.Year)
	}
	return nil
}

// EntryDTO is one leaderboard row for presentation.
type EntryDTO struct {
	Rank            int     `json:"rank"`
	ProfileID       string  `json:"profile_id"`
	Branch          string  `json:"branch,omitempty"`
	Year            int     `json:"year,omitempty"`
	Section         string  `json:"section,omitempty"`
	GoalScore       int     `json:"goal_score"`
	PostScore       int     `json:"post_score"`
	MetricScore     int     `json:"metric_score"`
	EngagementScore int     `json:"engagement_score"`
	TotalScore      int     `json:"total_score"`
	NormalizedScore float64 `json:"normalized_score"`
}

// GetLeaderboardResult contains the leaderboard page.
type GetLeaderboardResult struct {
	// Entries are the ranked rows after filtering and the limit.
	Entries []EntryDTO

	// OwnEntry is the requesting profile's row, nil if absent or not asked.
	OwnEntry *EntryDTO

	// TotalRanked is the full population size of the pass, before filters.
	TotalRanked int

	// PassID identifies the pass that produced the entries.
	PassID string

	// ComputedAt is the pass timestamp, shared by every entry.
	ComputedAt time.Time

	// Source reports which tier answered: cache, store or recompute.
	Source Source
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// Recomputer runs an on-demand scoring pass. Satisfied by
// command.RecomputeScoresHandler; declared here so the read path depends
// on the capability, not the concrete handler.
type Recomputer interface {
	Handle(ctx context.Context, cmd command.RecomputeScoresCommand) (*command.RecomputeScoresResult, error)
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	cache       scoreboard.Cache
	recordStore scoreboard.RecordStore
	recomputer  Recomputer
	breaker     *circuitbreaker.CircuitBreaker
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(
	cache scoreboard.Cache,
	recordStore scoreboard.RecordStore,
	recomputer Recomputer,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		cache:       cache,
		recordStore: recordStore,
		recomputer:  recomputer,
		breaker:     circuitbreaker.StoreBreaker(nil),
	}
}

// Handle executes the leaderboard query.
//
// The cache and the store each hold the complete unfiltered pass; the
// filter and the page limit are applied in memory after the read. An empty
// or unavailable store is not an error - the query falls through to a
// fresh recompute, which also refills the store for the next reader.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if pass := h.readCache(ctx); pass != nil {
		return h.project(pass, q, SourceCache), nil
	}

	if pass := h.readStore(ctx); pass != nil {
		return h.project(pass, q, SourceStore), nil
	}

	res, err := h.recomputer.Handle(ctx, command.RecomputeScoresCommand{TriggeredBy: "fallback"})
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: fallback recompute failed: %w", err)
	}

	return h.project(res.Pass, q, SourceRecompute), nil
}

// readCache loads the pass from the fast cache. Best effort.
func (h *GetLeaderboardHandler) readCache(ctx context.Context) *scoreboard.Pass {
	if h.cache == nil {
		return nil
	}
	pass, err := h.cache.GetPass(ctx)
	if err != nil || pass == nil || pass.IsEmpty() {
		return nil
	}
	return pass
}

// readStore loads the pass from the record store behind the circuit
// breaker. An open breaker skips the store entirely.
func (h *GetLeaderboardHandler) readStore(ctx context.Context) *scoreboard.Pass {
	var records []*scoreboard.Record

	err := h.breaker.Execute(ctx, func(ctx context.Context) error {
		var readErr error
		records, readErr = h.recordStore.ReadAll(ctx)
		return readErr
	})
	if err != nil || len(records) == 0 {
		return nil
	}

	pass := &scoreboard.Pass{
		ID:            records[0].PassID,
		ComputedAt:    records[0].ComputedAt,
		Records:       records,
		TotalProfiles: len(records),
	}
	pass.RebuildIndex()
	return pass
}

// project applies the filter and the limit and maps records to DTOs.
func (h *GetLeaderboardHandler) project(pass *scoreboard.Pass, q GetLeaderboardQuery, src Source) *GetLeaderboardResult {
	filtered := scoreboard.FilterRecords(pass.Records, q.Filter, q.Limit)

	entries := make([]EntryDTO, len(filtered))
	for i, r := range filtered {
		entries[i] = toEntryDTO(r)
	}

	result := &GetLeaderboardResult{
		Entries:     entries,
		TotalRanked: pass.TotalProfiles,
		PassID:      pass.ID,
		ComputedAt:  pass.ComputedAt,
		Source:      src,
	}

	if q.ForProfile.IsValid() {
		if own := pass.GetByProfile(q.ForProfile); own != nil {
			dto := toEntryDTO(own)
			result.OwnEntry = &dto
		}
	}

	return result
}

func toEntryDTO(r *scoreboard.Record) EntryDTO {
	return EntryDTO{
		Rank:            r.Rank,
		ProfileID:       string(r.ProfileID),
		Branch:          string(r.Branch),
		Year:            int(r.Year),
		Section:         string(r.Section),
		GoalScore:       r.GoalScore,
		PostScore:       r.PostScore,
		MetricScore:     r.MetricScore,
		EngagementScore: r.EngagementScore,
		TotalScore:      r.TotalScore,
		NormalizedScore: r.NormalizedScore,
	}
}

// StalenessOf reports how old a result is relative to now. Useful for
// presentation layers that flag stale boards.
func StalenessOf(res *GetLeaderboardResult) time.Duration {
	if res == nil || res.ComputedAt.IsZero() {
		return 0
	}
	return timeutil.Now().Sub(res.ComputedAt)
}
