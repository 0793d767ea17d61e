package eventhandler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questboard/questboard-hub/internal/domain/scoreboard"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Фейки
// ─────────────────────────────────────────────────────────────────────────────

type fakeCache struct {
	invalidations int
	err           error
}

func (c *fakeCache) GetPass(_ context.Context) (*scoreboard.Pass, error) { return nil, nil }

func (c *fakeCache) SetPass(_ context.Context, _ *scoreboard.Pass, _ time.Duration) error {
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context) error {
	c.invalidations++
	return c.err
}

// payloadOnlyEvent имитирует событие, реконструированное из Redis:
// конкретного типа нет, и числа в payload — float64 после JSON.
type payloadOnlyEvent struct {
	shared.BaseEvent
	payload map[string]interface{}
}

func (e payloadOnlyEvent) Payload() map[string]interface{} { return e.payload }

// ─────────────────────────────────────────────────────────────────────────────
// OnRankChangedHandler
// ─────────────────────────────────────────────────────────────────────────────

func TestOnRankChangedHandler_SubscribesToRankChanges(t *testing.T) {
	h := NewOnRankChangedHandler(slog.Default(), DefaultRankChangedConfig())

	assert.Equal(t, []shared.EventType{shared.EventRankChanged}, h.EventTypes())
}

func TestOnRankChangedHandler_HandlesConcreteEvent(t *testing.T) {
	h := NewOnRankChangedHandler(slog.Default(), DefaultRankChangedConfig())

	err := h.Handle(shared.NewRankChangedEvent("p1", 12, 4))

	require.NoError(t, err)
}

func TestOnRankChangedHandler_HandlesReconstructedEvent(t *testing.T) {
	h := NewOnRankChangedHandler(slog.Default(), DefaultRankChangedConfig())

	event := payloadOnlyEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventRankChanged, "p1"),
		payload: map[string]interface{}{
			"old_rank": float64(20),
			"new_rank": float64(8),
		},
	}

	err := h.Handle(event)

	require.NoError(t, err)
}

func TestOnRankChangedHandler_RejectsMalformedPayload(t *testing.T) {
	h := NewOnRankChangedHandler(slog.Default(), DefaultRankChangedConfig())

	event := payloadOnlyEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventRankChanged, "p1"),
		payload: map[string]interface{}{
			"old_rank": "twelve",
		},
	}

	err := h.Handle(event)

	assert.Error(t, err)
}

func TestOnRankChangedHandler_IgnoresOtherEventTypes(t *testing.T) {
	h := NewOnRankChangedHandler(slog.Default(), DefaultRankChangedConfig())

	err := h.Handle(shared.NewGoalCompletedEvent("g1", "p1", 100))

	assert.NoError(t, err)
}

func TestRankChangedConfig_MilestoneDetection(t *testing.T) {
	h := NewOnRankChangedHandler(slog.Default(), RankChangedConfig{
		MinShiftForNotice: 3,
		TopNMilestones:    []int{10, 50},
	})

	// Вход в топ-10 из-за его пределов.
	assert.Equal(t, 10, h.crossedMilestone(15, 9))

	// Новый профиль сразу в топ-50.
	assert.Equal(t, 50, h.crossedMilestone(0, 30))

	// Движение внутри топ-10 порог не пересекает.
	assert.Equal(t, 0, h.crossedMilestone(5, 3))

	// Падение порогов не пересекает.
	assert.Equal(t, 0, h.crossedMilestone(8, 40))
}

// ─────────────────────────────────────────────────────────────────────────────
// OnGoalCompletedHandler
// ─────────────────────────────────────────────────────────────────────────────

func TestOnGoalCompletedHandler_InvalidatesCache(t *testing.T) {
	cache := &fakeCache{}
	h := NewOnGoalCompletedHandler(cache, slog.Default())

	err := h.Handle(shared.NewGoalCompletedEvent("g1", "p1", 100))

	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidations)
}

func TestOnGoalCompletedHandler_PropagatesCacheError(t *testing.T) {
	cache := &fakeCache{err: errors.New("redis down")}
	h := NewOnGoalCompletedHandler(cache, slog.Default())

	err := h.Handle(shared.NewGoalCompletedEvent("g1", "p1", 100))

	assert.Error(t, err)
}

func TestOnGoalCompletedHandler_IgnoresOtherEventTypes(t *testing.T) {
	cache := &fakeCache{}
	h := NewOnGoalCompletedHandler(cache, slog.Default())

	err := h.Handle(shared.NewProgressUpdatedEvent("g1", "p1", 40, 50))

	require.NoError(t, err)
	assert.Equal(t, 0, cache.invalidations)
}
