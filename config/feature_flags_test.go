package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Каждый зарегистрированный флаг должен читаться при сборке Worker.
// Флаг без потребителя — мёртвая конфигурация, каталог держим ровным.
func TestFeatureFlags_CatalogMatchesWiredFlags(t *testing.T) {
	ff := LoadFeatureFlags()

	features := ff.GetAllFeatures()
	require.Len(t, features, 3)

	assert.Contains(t, features, FeatureScoringRankDiffEvents)
	assert.Contains(t, features, FeatureOpsRetentionCleanup)
	assert.Contains(t, features, FeatureOpsRedisEventBus)
}

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureScoringRankDiffEvents, nil))
	assert.True(t, ff.IsEnabled(FeatureOpsRetentionCleanup, nil))

	// Redis-шина по умолчанию выключена: одиночному инстансу она не нужна.
	assert.False(t, ff.IsEnabled(FeatureOpsRedisEventBus, nil))
}

func TestFeatureFlags_EnvOverride(t *testing.T) {
	t.Setenv("FEATURE_OPS_REDIS_EVENT_BUS", "true")
	t.Setenv("FEATURE_SCORING_RANK_DIFF_EVENTS", "false")

	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureOpsRedisEventBus, nil))
	assert.False(t, ff.IsEnabled(FeatureScoringRankDiffEvents, nil))
}

func TestFeatureFlags_RolloutBucketIsStable(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureScoringRankDiffEvents, 50))

	ctx := &FeatureContext{ProfileID: "profile-42"}
	first := ff.IsEnabled(FeatureScoringRankDiffEvents, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureScoringRankDiffEvents, ctx))
	}
}

func TestFeatureFlags_ProfileOverrideWins(t *testing.T) {
	ff := LoadFeatureFlags()
	ff.SetProfileOverride("profile-1", FeatureOpsRedisEventBus, true)

	assert.True(t, ff.IsEnabled(FeatureOpsRedisEventBus, &FeatureContext{ProfileID: "profile-1"}))
	assert.False(t, ff.IsEnabled(FeatureOpsRedisEventBus, &FeatureContext{ProfileID: "profile-2"}))

	ff.ClearProfileOverrides("profile-1")
	assert.False(t, ff.IsEnabled(FeatureOpsRedisEventBus, &FeatureContext{ProfileID: "profile-1"}))
}

func TestFeatureFlags_UnknownFeature(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled("no.such.feature", nil))
	assert.ErrorIs(t, ff.SetRolloutPercent("no.such.feature", 10), ErrFeatureNotFound)
}
