package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/questboard/questboard-hub/internal/domain/goal"
	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GOAL REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GoalRepository implements goal.Repository for PostgreSQL.
type GoalRepository struct {
	conn *Connection
}

// NewGoalRepository creates a new GoalRepository.
func NewGoalRepository(conn *Connection) *GoalRepository {
	return &GoalRepository{conn: conn}
}

// GetByID returns a goal by its identifier.
func (r *GoalRepository) GetByID(ctx context.Context, id goal.ID) (*goal.Goal, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, profile_id, title, status, progress, created_at, updated_at
		FROM goals
		WHERE id = $1
	`, string(id))

	g, err := scanGoal(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to get goal %s: %w", id, err)
	}
	return g, nil
}

// GetByProfiles returns the goals of the given profiles.
func (r *GoalRepository) GetByProfiles(ctx context.Context, profileIDs []profile.ID) ([]*goal.Goal, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(profileIDs))
	for i, id := range profileIDs {
		ids[i] = string(id)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT id, profile_id, title, status, progress, created_at, updated_at
		FROM goals
		WHERE profile_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []*goal.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// SaveDerived persists the derived fields of a goal (progress and status).
// The rest of the row is untouched.
func (r *GoalRepository) SaveDerived(ctx context.Context, g *goal.Goal) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE goals
		SET progress = $2, status = $3, updated_at = $4
		WHERE id = $1
	`, string(g.ID), int(g.Progress), string(g.Status), g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save derived goal state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrGoalNotFound
	}
	return nil
}

func scanGoal(row rowScanner) (*goal.Goal, error) {
	var g goal.Goal
	err := row.Scan(&g.ID, &g.ProfileID, &g.Title, &g.Status, &g.Progress,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// METRIC REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MetricRepository implements goal.MetricRepository and goal.MetricMutator
// for PostgreSQL. Mutations are single atomic UPDATE statements: the new
// value is computed inside the database, never from a value read earlier
// by the caller.
type MetricRepository struct {
	conn *Connection
}

// NewMetricRepository creates a new MetricRepository.
func NewMetricRepository(conn *Connection) *MetricRepository {
	return &MetricRepository{conn: conn}
}

// GetByGoal returns all metrics of a goal.
func (r *MetricRepository) GetByGoal(ctx context.Context, goalID goal.ID) ([]*goal.Metric, error) {
	return r.GetByGoals(ctx, []goal.ID{goalID})
}

// GetByGoals returns the metrics of the given goals.
func (r *MetricRepository) GetByGoals(ctx context.Context, goalIDs []goal.ID) ([]*goal.Metric, error) {
	if len(goalIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(goalIDs))
	for i, id := range goalIDs {
		ids[i] = string(id)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT id, goal_id, name, value, target, updated_at
		FROM metrics
		WHERE goal_id = ANY($1)
		ORDER BY goal_id, id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*goal.Metric
	for rows.Next() {
		var m goal.Metric
		if err := rows.Scan(&m.ID, &m.GoalID, &m.Name, &m.Value, &m.Target, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics = append(metrics, &m)
	}
	return metrics, rows.Err()
}

// Increment atomically adds delta to a metric value and returns the new
// value. Results below zero are floored at zero.
func (r *MetricRepository) Increment(ctx context.Context, goalID goal.ID, metricID string, delta float64) (float64, error) {
	var newValue float64
	err := r.conn.QueryRow(ctx, `
		UPDATE metrics
		SET value = GREATEST(value + $3, 0), updated_at = NOW()
		WHERE goal_id = $1 AND id = $2
		RETURNING value
	`, string(goalID), metricID, delta).Scan(&newValue)
	if err != nil {
		if IsNoRows(err) {
			return 0, shared.ErrMetricNotFound
		}
		return 0, fmt.Errorf("failed to increment metric %s/%s: %w", goalID, metricID, err)
	}
	return newValue, nil
}

// Set atomically replaces a metric value.
func (r *MetricRepository) Set(ctx context.Context, goalID goal.ID, metricID string, value float64) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE metrics
		SET value = $3, updated_at = NOW()
		WHERE goal_id = $1 AND id = $2
	`, string(goalID), metricID, value)
	if err != nil {
		return fmt.Errorf("failed to set metric %s/%s: %w", goalID, metricID, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrMetricNotFound
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GOAL LOCK IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GoalLock implements goal.GoalLocker with PostgreSQL advisory locks.
//
// The lock is transaction-scoped: it is taken inside a transaction held
// open for the duration of fn and released on commit or rollback. Two
// handlers mutating the same goal serialize on this lock even when the
// work inside fn runs on other pool connections.
type GoalLock struct {
	conn *Connection
}

// NewGoalLock creates a new GoalLock.
func NewGoalLock(conn *Connection) *GoalLock {
	return &GoalLock{conn: conn}
}

// WithGoalLock runs fn under the exclusive lock of a goal.
func (l *GoalLock) WithGoalLock(ctx context.Context, goalID goal.ID, fn func(ctx context.Context) error) error {
	return l.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(goalID)); err != nil {
			return fmt.Errorf("failed to acquire goal lock %s: %w", goalID, err)
		}
		return fn(ctx)
	})
}
