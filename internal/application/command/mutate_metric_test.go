package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questboard/questboard-hub/internal/domain/goal"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

func target(v float64) *float64 {
	return &v
}

func newTestGoal(t *testing.T) *goal.Goal {
	t.Helper()
	g, err := goal.NewGoal("g1", "p1", "Read 10 books")
	require.NoError(t, err)
	return g
}

func TestMutateMetric_IncrementRecomputesProgress(t *testing.T) {
	g := newTestGoal(t)
	goals := newMemGoalRepo(g)
	metrics := newMemMetricStore(
		&goal.Metric{ID: "m1", GoalID: "g1", Name: "books", Value: 4, Target: target(10)},
	)
	h := NewMutateMetricHandler(goals, metrics, metrics, &memLocker{}, nil)

	res, err := h.Handle(context.Background(), MutateMetricCommand{
		GoalID:   "g1",
		MetricID: "m1",
		Op:       OpIncrement,
		Amount:   1,
	})

	require.NoError(t, err)
	assert.Equal(t, 5.0, res.NewValue)
	assert.Equal(t, goal.Progress(50), res.Progress)
	assert.Equal(t, goal.StatusActive, res.Status)
	assert.False(t, res.Completed)
	assert.Equal(t, 1, goals.saved)
}

func TestMutateMetric_CompletesGoalAtFullProgress(t *testing.T) {
	g := newTestGoal(t)
	goals := newMemGoalRepo(g)
	metrics := newMemMetricStore(
		&goal.Metric{ID: "m1", GoalID: "g1", Name: "books", Value: 9, Target: target(10)},
	)
	pub := &capturePublisher{}
	h := NewMutateMetricHandler(goals, metrics, metrics, &memLocker{}, pub)

	res, err := h.Handle(context.Background(), MutateMetricCommand{
		GoalID:   "g1",
		MetricID: "m1",
		Op:       OpIncrement,
		Amount:   1,
	})

	require.NoError(t, err)
	assert.Equal(t, goal.Progress(100), res.Progress)
	assert.Equal(t, goal.StatusCompleted, res.Status)
	assert.True(t, res.Completed)
	assert.Len(t, pub.ofType(shared.EventGoalCompleted), 1)
	assert.Len(t, pub.ofType(shared.EventProgressUpdated), 1)
}

func TestMutateMetric_CompletionFiresOnce(t *testing.T) {
	g := newTestGoal(t)
	goals := newMemGoalRepo(g)
	metrics := newMemMetricStore(
		&goal.Metric{ID: "m1", GoalID: "g1", Name: "books", Value: 10, Target: target(10)},
	)
	pub := &capturePublisher{}
	h := NewMutateMetricHandler(goals, metrics, metrics, &memLocker{}, pub)

	cmd := MutateMetricCommand{GoalID: "g1", MetricID: "m1", Op: OpIncrement, Amount: 1}

	res1, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, res1.Completed)

	res2, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, res2.Completed)
	assert.Equal(t, goal.StatusCompleted, res2.Status)
	assert.Len(t, pub.ofType(shared.EventGoalCompleted), 1)
}

func TestMutateMetric_DecrementClampsAtZero(t *testing.T) {
	g := newTestGoal(t)
	goals := newMemGoalRepo(g)
	metrics := newMemMetricStore(
		&goal.Metric{ID: "m1", GoalID: "g1", Name: "books", Value: 2, Target: target(10)},
	)
	h := NewMutateMetricHandler(goals, metrics, metrics, &memLocker{}, nil)

	res, err := h.Handle(context.Background(), MutateMetricCommand{
		GoalID:   "g1",
		MetricID: "m1",
		Op:       OpDecrement,
		Amount:   5,
	})

	require.NoError(t, err)
	assert.Equal(t, 0.0, res.NewValue)
	assert.Equal(t, goal.Progress(0), res.Progress)
}

func TestMutateMetric_SetRejectsNegative(t *testing.T) {
	h := NewMutateMetricHandler(newMemGoalRepo(), newMemMetricStore(), newMemMetricStore(), &memLocker{}, nil)

	_, err := h.Handle(context.Background(), MutateMetricCommand{
		GoalID:   "g1",
		MetricID: "m1",
		Op:       OpSet,
		Amount:   -3,
	})

	assert.ErrorIs(t, err, shared.ErrNegativeMetric)
}

func TestMutateMetric_FetchFailureLeavesStatusUntouched(t *testing.T) {
	g := newTestGoal(t)
	goals := newMemGoalRepo(g)
	metrics := newMemMetricStore(
		&goal.Metric{ID: "m1", GoalID: "g1", Name: "books", Value: 9, Target: target(10)},
	)
	metrics.readErr = assert.AnError
	h := NewMutateMetricHandler(goals, metrics, metrics, &memLocker{}, nil)

	_, err := h.Handle(context.Background(), MutateMetricCommand{
		GoalID:   "g1",
		MetricID: "m1",
		Op:       OpIncrement,
		Amount:   1,
	})

	require.Error(t, err)
	assert.True(t, shared.IsFetchFailure(err))
	// Статус не угадывается по недоступным данным.
	assert.Equal(t, goal.StatusActive, g.Status)
	assert.Equal(t, goal.Progress(0), g.Progress)
	assert.Equal(t, 0, goals.saved)
}

func TestMutateMetric_UnknownGoal(t *testing.T) {
	h := NewMutateMetricHandler(newMemGoalRepo(), newMemMetricStore(), newMemMetricStore(), &memLocker{}, nil)

	_, err := h.Handle(context.Background(), MutateMetricCommand{
		GoalID:   "missing",
		MetricID: "m1",
		Op:       OpIncrement,
		Amount:   1,
	})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMutateMetric_ConcurrentIncrementsLoseNothing(t *testing.T) {
	g := newTestGoal(t)
	goals := newMemGoalRepo(g)
	metrics := newMemMetricStore(
		&goal.Metric{ID: "m1", GoalID: "g1", Name: "books", Value: 0, Target: target(100)},
	)
	h := NewMutateMetricHandler(goals, metrics, metrics, &memLocker{}, nil)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := h.Handle(context.Background(), MutateMetricCommand{
				GoalID:   "g1",
				MetricID: "m1",
				Op:       OpIncrement,
				Amount:   1,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ms, err := metrics.GetByGoal(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, float64(n), ms[0].Value)
	assert.Equal(t, goal.Progress(50), goals.goals["g1"].Progress)
}
