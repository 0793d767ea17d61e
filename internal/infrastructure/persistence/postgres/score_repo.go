package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/scoreboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE RECORD STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ScoreRecordStore implements scoreboard.RecordStore for PostgreSQL.
//
// The store holds exactly one pass. ReplaceAll clears and refills the
// table inside a single transaction, so a concurrent ReadAll sees either
// the old pass or the new one, never a mix of both.
type ScoreRecordStore struct {
	conn *Connection
}

// NewScoreRecordStore creates a new ScoreRecordStore.
func NewScoreRecordStore(conn *Connection) *ScoreRecordStore {
	return &ScoreRecordStore{conn: conn}
}

// ReadAll returns all records of the latest pass in rank order.
// An empty table yields an empty slice, not an error.
func (s *ScoreRecordStore) ReadAll(ctx context.Context) ([]*scoreboard.Record, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT profile_id, branch, year, section,
		       goal_score, post_score, metric_score, engagement_score,
		       total_score, normalized_score, rank, pass_id, computed_at
		FROM score_records
		ORDER BY rank
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read score records: %w", err)
	}
	defer rows.Close()

	var records []*scoreboard.Record
	for rows.Next() {
		var r scoreboard.Record
		err := rows.Scan(&r.ProfileID, &r.Branch, &r.Year, &r.Section,
			&r.GoalScore, &r.PostScore, &r.MetricScore, &r.EngagementScore,
			&r.TotalScore, &r.NormalizedScore, &r.Rank, &r.PassID, &r.ComputedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// ReplaceAll atomically replaces the full record set with the pass.
func (s *ScoreRecordStore) ReplaceAll(ctx context.Context, pass *scoreboard.Pass) error {
	return s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM score_records`); err != nil {
			return fmt.Errorf("failed to clear score records: %w", err)
		}

		batch := &pgx.Batch{}
		for _, r := range pass.Records {
			batch.Queue(`
				INSERT INTO score_records (
					profile_id, branch, year, section,
					goal_score, post_score, metric_score, engagement_score,
					total_score, normalized_score, rank, pass_id, computed_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			`,
				string(r.ProfileID), string(r.Branch), int(r.Year), string(r.Section),
				r.GoalScore, r.PostScore, r.MetricScore, r.EngagementScore,
				r.TotalScore, r.NormalizedScore, r.Rank, r.PassID, r.ComputedAt,
			)
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for range pass.Records {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("failed to insert score record: %w", err)
			}
		}
		return nil
	})
}

// DeleteOlderThan removes records computed before the cutoff. With the
// single-pass layout this clears a stale board after a long outage.
func (s *ScoreRecordStore) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := s.conn.Exec(ctx, `
		DELETE FROM score_records
		WHERE computed_at < $1
	`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale score records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// GetByProfile returns a single record, useful for own-rank lookups that
// bypass the full board read.
func (s *ScoreRecordStore) GetByProfile(ctx context.Context, id profile.ID) (*scoreboard.Record, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT profile_id, branch, year, section,
		       goal_score, post_score, metric_score, engagement_score,
		       total_score, normalized_score, rank, pass_id, computed_at
		FROM score_records
		WHERE profile_id = $1
	`, string(id))

	var r scoreboard.Record
	err := row.Scan(&r.ProfileID, &r.Branch, &r.Year, &r.Section,
		&r.GoalScore, &r.PostScore, &r.MetricScore, &r.EngagementScore,
		&r.TotalScore, &r.NormalizedScore, &r.Rank, &r.PassID, &r.ComputedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get score record %s: %w", id, err)
	}
	return &r, nil
}
