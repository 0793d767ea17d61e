package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/scoreboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// Cache keys for the scoring pass.
const (
	// keyScoreboardMeta holds pass metadata (id, timestamp, population).
	keyScoreboardMeta = PrefixScoreboard + "meta"

	// keyScoreboardRecords holds the full ranked record set as JSON.
	keyScoreboardRecords = PrefixScoreboard + "records"
)

// ScoreCache implements scoreboard.Cache on Redis.
//
// The cache holds only the complete unfiltered pass: filters are applied
// in memory after the read, so cached and non-cached requests flow through
// identical projection code. Meta and records are written in one pipeline
// and share a TTL; a reader that finds one without the other treats the
// entry as a miss.
type ScoreCache struct {
	cache *Cache
}

// NewScoreCache creates a new ScoreCache.
func NewScoreCache(cache *Cache) *ScoreCache {
	return &ScoreCache{cache: cache}
}

// passMeta is the cached pass metadata.
type passMeta struct {
	PassID        string    `json:"pass_id"`
	ComputedAt    time.Time `json:"computed_at"`
	TotalProfiles int       `json:"total_profiles"`
	AverageTotal  int       `json:"average_total"`
}

// cachedRecord is the wire shape of one record.
type cachedRecord struct {
	ProfileID       string    `json:"profile_id"`
	Branch          string    `json:"branch,omitempty"`
	Year            int       `json:"year"`
	Section         string    `json:"section,omitempty"`
	GoalScore       int       `json:"goal_score"`
	PostScore       int       `json:"post_score"`
	MetricScore     int       `json:"metric_score"`
	EngagementScore int       `json:"engagement_score"`
	TotalScore      int       `json:"total_score"`
	NormalizedScore float64   `json:"normalized_score"`
	Rank            int       `json:"rank"`
	PassID          string    `json:"pass_id"`
	ComputedAt      time.Time `json:"computed_at"`
}

// GetPass returns the cached pass, or nil without error on a miss.
func (s *ScoreCache) GetPass(ctx context.Context) (*scoreboard.Pass, error) {
	pipe := s.cache.Client().Pipeline()
	metaCmd := pipe.Get(ctx, keyScoreboardMeta)
	recordsCmd := pipe.Get(ctx, keyScoreboardRecords)
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("score cache: failed to read pass: %w", err)
	}

	var meta passMeta
	if err := json.Unmarshal([]byte(metaCmd.Val()), &meta); err != nil {
		return nil, fmt.Errorf("score cache: corrupt meta: %w", err)
	}

	var cached []cachedRecord
	if err := json.Unmarshal([]byte(recordsCmd.Val()), &cached); err != nil {
		return nil, fmt.Errorf("score cache: corrupt records: %w", err)
	}

	records := make([]*scoreboard.Record, len(cached))
	for i, c := range cached {
		records[i] = &scoreboard.Record{
			ProfileID:       profile.ID(c.ProfileID),
			Branch:          profile.Branch(c.Branch),
			Year:            profile.Year(c.Year),
			Section:         profile.Section(c.Section),
			GoalScore:       c.GoalScore,
			PostScore:       c.PostScore,
			MetricScore:     c.MetricScore,
			EngagementScore: c.EngagementScore,
			TotalScore:      c.TotalScore,
			NormalizedScore: c.NormalizedScore,
			Rank:            c.Rank,
			PassID:          c.PassID,
			ComputedAt:      c.ComputedAt,
		}
	}

	pass := &scoreboard.Pass{
		ID:            meta.PassID,
		ComputedAt:    meta.ComputedAt,
		Records:       records,
		TotalProfiles: meta.TotalProfiles,
		AverageTotal:  meta.AverageTotal,
	}
	pass.RebuildIndex()
	return pass, nil
}

// SetPass stores the pass with a TTL.
func (s *ScoreCache) SetPass(ctx context.Context, pass *scoreboard.Pass, ttl time.Duration) error {
	if pass == nil {
		return ErrCacheNilValue
	}
	if ttl <= 0 {
		ttl = TTLScoreboardCache
	}

	meta := passMeta{
		PassID:        pass.ID,
		ComputedAt:    pass.ComputedAt,
		TotalProfiles: pass.TotalProfiles,
		AverageTotal:  pass.AverageTotal,
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("score cache: %w: %v", ErrCacheSerialization, err)
	}

	cached := make([]cachedRecord, len(pass.Records))
	for i, r := range pass.Records {
		cached[i] = cachedRecord{
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
			Rank:            r.Rank,
			PassID:          r.PassID,
			ComputedAt:      r.ComputedAt,
		}
	}
	recordsData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("score cache: %w: %v", ErrCacheSerialization, err)
	}

	pipe := s.cache.Client().Pipeline()
	pipe.Set(ctx, keyScoreboardMeta, metaData, ttl)
	pipe.Set(ctx, keyScoreboardRecords, recordsData, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("score cache: failed to store pass: %w", err)
	}
	return nil
}

// Invalidate drops the cached pass.
func (s *ScoreCache) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, keyScoreboardMeta, keyScoreboardRecords)
}
