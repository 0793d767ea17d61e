package goal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func target(v float64) *float64 {
	return &v
}

func TestComputeProgress_EmptySet(t *testing.T) {
	assert.Equal(t, Progress(0), ComputeProgress(nil))
	assert.Equal(t, Progress(0), ComputeProgress([]*Metric{}))
}

func TestComputeProgress_SingleMetric(t *testing.T) {
	metrics := []*Metric{
		{ID: "m1", GoalID: "g1", Value: 8, Target: target(10)},
	}
	assert.Equal(t, Progress(80), ComputeProgress(metrics))
}

func TestComputeProgress_ClampsOverachievement(t *testing.T) {
	metrics := []*Metric{
		{ID: "m1", GoalID: "g1", Value: 12, Target: target(10)},
	}
	// Перевыполнение не даёт больше 100.
	assert.Equal(t, Progress(100), ComputeProgress(metrics))
}

func TestComputeProgress_UntargetedContributesZero(t *testing.T) {
	metrics := []*Metric{
		{ID: "m1", GoalID: "g1", Value: 10, Target: target(10)},
		{ID: "m2", GoalID: "g1", Value: 50, Target: nil},
	}
	// (1.0 + 0.0) / 2 = 50%.
	assert.Equal(t, Progress(50), ComputeProgress(metrics))
}

func TestComputeProgress_NonPositiveTargetContributesZero(t *testing.T) {
	metrics := []*Metric{
		{ID: "m1", GoalID: "g1", Value: 5, Target: target(0)},
		{ID: "m2", GoalID: "g1", Value: 5, Target: target(-1)},
	}
	assert.Equal(t, Progress(0), ComputeProgress(metrics))
}

func TestComputeProgress_AlwaysInRange(t *testing.T) {
	cases := [][]*Metric{
		nil,
		{{Value: 0, Target: target(10)}},
		{{Value: 1e9, Target: target(1)}},
		{{Value: 3, Target: target(7)}, {Value: 0, Target: nil}, {Value: 100, Target: target(100)}},
	}

	for _, metrics := range cases {
		p := ComputeProgress(metrics)
		assert.True(t, p.IsValid(), "progress %d out of range", p)
	}
}

func TestComputeProgress_RoundsToWholeNumber(t *testing.T) {
	metrics := []*Metric{
		{Value: 1, Target: target(3)},
		{Value: 0, Target: target(3)},
	}
	// (1/3 + 0) / 2 = 0.1666... → 17 после округления.
	assert.Equal(t, Progress(17), ComputeProgress(metrics))
}

func TestDeriveStatus_ForcesCompletedAtFullProgress(t *testing.T) {
	assert.Equal(t, StatusCompleted, DeriveStatus(StatusActive, 100))
	assert.Equal(t, StatusCompleted, DeriveStatus(StatusPaused, 100))
	// Монотонный переход: даже отменённая цель форсируется в completed.
	assert.Equal(t, StatusCompleted, DeriveStatus(StatusCancelled, 100))
	assert.Equal(t, StatusCompleted, DeriveStatus(StatusArchived, 100))
}

func TestDeriveStatus_Idempotent(t *testing.T) {
	once := DeriveStatus(StatusActive, 100)
	twice := DeriveStatus(once, 100)
	assert.Equal(t, StatusCompleted, once)
	assert.Equal(t, StatusCompleted, twice)
}

func TestDeriveStatus_NoTransitionBelowFullProgress(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusPaused, StatusCancelled, StatusArchived} {
		assert.Equal(t, s, DeriveStatus(s, 99))
		assert.Equal(t, s, DeriveStatus(s, 0))
	}
	// Уже завершённая цель остаётся завершённой при любом прогрессе.
	assert.Equal(t, StatusCompleted, DeriveStatus(StatusCompleted, 0))
}

func TestGoal_ApplyProgress(t *testing.T) {
	g, err := NewGoal("g1", "p1", "read 12 books")
	assert.NoError(t, err)

	completed := g.ApplyProgress(90)
	assert.False(t, completed)
	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, Progress(90), g.Progress)

	completed = g.ApplyProgress(100)
	assert.True(t, completed)
	assert.Equal(t, StatusCompleted, g.Status)

	// Повторное применение - no-op по статусу.
	completed = g.ApplyProgress(100)
	assert.False(t, completed)
	assert.Equal(t, StatusCompleted, g.Status)
}
