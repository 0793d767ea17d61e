// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/questboard/questboard-hub/internal/domain/goal"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MUTATE METRIC COMMAND
// Mutates a metric value (increment/decrement/set) and recomputes the owning
// goal's progress and status. The mutation and the recompute run under
// exclusive ownership of the goal's metric set: two concurrent increments
// must both land, never losing an update to a stale read.
// ══════════════════════════════════════════════════════════════════════════════

// MutationOp defines the kind of metric mutation.
type MutationOp string

const (
	// OpIncrement adds Amount to the current value.
	OpIncrement MutationOp = "increment"

	// OpDecrement subtracts Amount from the current value (floored at zero).
	OpDecrement MutationOp = "decrement"

	// OpSet replaces the current value with Amount.
	OpSet MutationOp = "set"
)

// MutateMetricCommand contains the data to mutate a metric.
type MutateMetricCommand struct {
	// GoalID is the owning goal.
	GoalID goal.ID

	// MetricID is the metric to mutate.
	MetricID string

	// Op is the mutation kind.
	Op MutationOp

	// Amount is the delta (increment/decrement) or the new value (set).
	Amount float64
}

// Validate validates the command.
func (c MutateMetricCommand) Validate() error {
	if !c.GoalID.IsValid() {
		return errors.New("mutate_metric: goal_id is required")
	}
	if c.MetricID == "" {
		return errors.New("mutate_metric: metric_id is required")
	}

	switch c.Op {
	case OpIncrement, OpDecrement:
		if c.Amount < 0 {
			return errors.New("mutate_metric: amount must be non-negative, use the opposite op instead")
		}
	case OpSet:
		if c.Amount < 0 {
			return fmt.Errorf("mutate_metric: %w", shared.ErrNegativeMetric)
		}
	default:
		return fmt.Errorf("mutate_metric: unknown op: %s", c.Op)
	}

	return nil
}

// MutateMetricResult contains the result of the mutation.
type MutateMetricResult struct {
	// GoalID is the owning goal.
	GoalID goal.ID

	// NewValue is the metric value after the mutation.
	NewValue float64

	// Progress is the goal's recomputed completion percentage.
	Progress goal.Progress

	// Status is the goal's status after derivation.
	Status goal.Status

	// Completed indicates the goal transitioned to completed by this mutation.
	Completed bool

	// MutatedAt is when the mutation was applied.
	MutatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// MutateMetricHandler handles the MutateMetricCommand.
type MutateMetricHandler struct {
	goalRepo       goal.Repository
	metricRepo     goal.MetricRepository
	mutator        goal.MetricMutator
	locker         goal.GoalLocker
	eventPublisher shared.EventPublisher
}

// NewMutateMetricHandler creates a new MutateMetricHandler.
func NewMutateMetricHandler(
	goalRepo goal.Repository,
	metricRepo goal.MetricRepository,
	mutator goal.MetricMutator,
	locker goal.GoalLocker,
	eventPublisher shared.EventPublisher,
) *MutateMetricHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NoopPublisher{}
	}

	return &MutateMetricHandler{
		goalRepo:       goalRepo,
		metricRepo:     metricRepo,
		mutator:        mutator,
		locker:         locker,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the metric mutation.
//
// The whole read-modify-write section runs under the goal lock: the atomic
// mutation at the storage layer, then a fresh read of all metrics of the
// goal, then progress aggregation and status derivation. If the fresh read
// fails, the error propagates and the status is left untouched - the engine
// never guesses a status from data it could not load.
func (h *MutateMetricHandler) Handle(ctx context.Context, cmd MutateMetricCommand) (*MutateMetricResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	g, err := h.goalRepo.GetByID(ctx, cmd.GoalID)
	if err != nil {
		return nil, fmt.Errorf("mutate_metric: failed to get goal: %w", err)
	}

	result := &MutateMetricResult{GoalID: cmd.GoalID}

	err = h.locker.WithGoalLock(ctx, cmd.GoalID, func(ctx context.Context) error {
		newValue, err := h.applyMutation(ctx, cmd)
		if err != nil {
			return err
		}
		result.NewValue = newValue

		// Fresh read after the write: progress is aggregated from what the
		// storage actually holds, not from what this handler thinks it wrote.
		metrics, err := h.metricRepo.GetByGoal(ctx, cmd.GoalID)
		if err != nil {
			return shared.WrapError("goal", "ComputeProgress", shared.ErrFetchFailed,
				"metrics could not be fetched after mutation", err)
		}

		oldProgress := g.Progress
		progress := goal.ComputeProgress(metrics)
		completed := g.ApplyProgress(progress)

		if err := h.goalRepo.SaveDerived(ctx, g); err != nil {
			return fmt.Errorf("failed to save derived goal state: %w", err)
		}

		result.Progress = progress
		result.Status = g.Status
		result.Completed = completed
		result.MutatedAt = g.UpdatedAt

		_ = h.eventPublisher.Publish(shared.NewProgressUpdatedEvent(
			string(g.ID), string(g.ProfileID), int(oldProgress), int(progress)))
		if completed {
			_ = h.eventPublisher.Publish(shared.NewGoalCompletedEvent(
				string(g.ID), string(g.ProfileID), int(progress)))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mutate_metric: %w", err)
	}

	return result, nil
}

// applyMutation performs the storage-level mutation and returns the new value.
func (h *MutateMetricHandler) applyMutation(ctx context.Context, cmd MutateMetricCommand) (float64, error) {
	switch cmd.Op {
	case OpIncrement:
		return h.mutator.Increment(ctx, cmd.GoalID, cmd.MetricID, cmd.Amount)
	case OpDecrement:
		return h.mutator.Increment(ctx, cmd.GoalID, cmd.MetricID, -cmd.Amount)
	case OpSet:
		if err := h.mutator.Set(ctx, cmd.GoalID, cmd.MetricID, cmd.Amount); err != nil {
			return 0, err
		}
		return cmd.Amount, nil
	default:
		return 0, fmt.Errorf("unknown op: %s", cmd.Op)
	}
}
