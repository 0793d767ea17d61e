package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questboard/questboard-hub/internal/domain/goal"
	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

func newTestProfile(t *testing.T, id string, vis profile.Visibility) *profile.Profile {
	t.Helper()
	p, err := profile.NewProfile(profile.ID(id), "user-"+id, "almaty", 2, "backend", vis)
	require.NoError(t, err)
	return p
}

type passFixture struct {
	profiles   *memProfileRepo
	goals      *memGoalRepo
	metrics    *memMetricStore
	posts      *memPostRepo
	engagement *memEngagementRepo
	store      *memRecordStore
	cache      *memCache
	pub        *capturePublisher
}

func newPassFixture(t *testing.T, profiles ...*profile.Profile) *passFixture {
	t.Helper()
	return &passFixture{
		profiles:   &memProfileRepo{profiles: profiles},
		goals:      newMemGoalRepo(),
		metrics:    newMemMetricStore(),
		posts:      &memPostRepo{},
		engagement: newMemEngagementRepo(),
		store:      &memRecordStore{},
		cache:      &memCache{},
		pub:        &capturePublisher{},
	}
}

func (f *passFixture) handler() *RecomputeScoresHandler {
	return NewRecomputeScoresHandler(
		f.profiles, f.goals, f.metrics, f.posts, f.engagement,
		f.store, f.cache, f.pub, nil,
		DefaultRecomputeScoresConfig(),
	)
}

func TestRecomputeScores_RanksWholePopulation(t *testing.T) {
	p1 := newTestProfile(t, "p1", profile.VisibilityPublic)
	p2 := newTestProfile(t, "p2", profile.VisibilityPublic)
	hidden := newTestProfile(t, "p3", profile.VisibilityPrivate)
	f := newPassFixture(t, p1, p2, hidden)

	// p1: a completed goal, p2: no activity at all.
	g, err := goal.NewGoal("g1", "p1", "Ship the feature")
	require.NoError(t, err)
	g.ApplyProgress(100)
	f.goals = newMemGoalRepo(g)

	res, err := f.handler().Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "manual"})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Pass.TotalProfiles)
	assert.Zero(t, res.Excluded)
	assert.True(t, res.StoreWritten)
	assert.True(t, res.CacheWritten)

	top := res.Pass.Records[0]
	assert.Equal(t, profile.ID("p1"), top.ProfileID)
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, 50, top.GoalScore)
	assert.Equal(t, 100.0, top.NormalizedScore)

	bottom := res.Pass.Records[1]
	assert.Equal(t, profile.ID("p2"), bottom.ProfileID)
	assert.Equal(t, 2, bottom.Rank)
	assert.Zero(t, bottom.TotalScore)
	assert.Zero(t, bottom.NormalizedScore)

	// Приватный профиль в проход не попадает.
	assert.False(t, res.Pass.Contains("p3"))
}

func TestRecomputeScores_InactiveProfileIsValidInput(t *testing.T) {
	f := newPassFixture(t, newTestProfile(t, "p1", profile.VisibilityPublic))

	res, err := f.handler().Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "manual"})

	require.NoError(t, err)
	require.Equal(t, 1, res.Pass.TotalProfiles)
	rec := res.Pass.Records[0]
	assert.Zero(t, rec.GoalScore)
	assert.Zero(t, rec.PostScore)
	assert.Zero(t, rec.MetricScore)
	assert.Zero(t, rec.EngagementScore)
	assert.Equal(t, 1, rec.Rank)
}

func TestRecomputeScores_SingleComputedAtPerPass(t *testing.T) {
	f := newPassFixture(t,
		newTestProfile(t, "p1", profile.VisibilityPublic),
		newTestProfile(t, "p2", profile.VisibilityPublic),
		newTestProfile(t, "p4", profile.VisibilityPublic),
	)

	res, err := f.handler().Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "schedule"})

	require.NoError(t, err)
	for _, r := range res.Pass.Records {
		assert.Equal(t, res.Pass.ComputedAt, r.ComputedAt)
		assert.Equal(t, res.Pass.ID, r.PassID)
	}
}

func TestRecomputeScores_FailedProfileExcluded(t *testing.T) {
	f := newPassFixture(t,
		newTestProfile(t, "p1", profile.VisibilityPublic),
		newTestProfile(t, "p2", profile.VisibilityPublic),
	)
	f.posts.failFor = "p2"

	res, err := f.handler().Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "schedule"})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Excluded)
	assert.Equal(t, 1, res.Pass.TotalProfiles)
	assert.True(t, res.Pass.Contains("p1"))
	assert.False(t, res.Pass.Contains("p2"))
}

func TestRecomputeScores_AllProfilesFailedAbortsPass(t *testing.T) {
	f := newPassFixture(t, newTestProfile(t, "p1", profile.VisibilityPublic))
	f.posts.failFor = "p1"

	_, err := f.handler().Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "schedule"})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrPassFailed)
	// Хранилище нетронуто: предыдущий проход остаётся читаемым.
	assert.Zero(t, f.store.writes)
}

func TestRecomputeScores_PopulationListFailureAbortsPass(t *testing.T) {
	f := newPassFixture(t)
	f.profiles.err = assert.AnError

	_, err := f.handler().Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "schedule"})

	require.Error(t, err)
	assert.True(t, shared.IsFetchFailure(err))
}

func TestRecomputeScores_WriteBackFailureIsNonFatal(t *testing.T) {
	f := newPassFixture(t, newTestProfile(t, "p1", profile.VisibilityPublic))
	f.store.writeErr = assert.AnError

	res, err := f.handler().Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "schedule"})

	require.NoError(t, err)
	assert.False(t, res.StoreWritten)
	assert.Equal(t, 1, res.Pass.TotalProfiles)
	// Запись пробуется несколько раз перед сдачей.
	assert.Greater(t, f.store.writes, 1)
}

func TestRecomputeScores_EmitsRankChangeDiff(t *testing.T) {
	p1 := newTestProfile(t, "p1", profile.VisibilityPublic)
	p2 := newTestProfile(t, "p2", profile.VisibilityPublic)
	f := newPassFixture(t, p1, p2)

	h := f.handler()
	_, err := h.Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "manual"})
	require.NoError(t, err)

	// p2 обгоняет p1 между проходами.
	g, err := goal.NewGoal("g2", "p2", "Win the season")
	require.NoError(t, err)
	g.ApplyProgress(100)
	require.NoError(t, f.goals.SaveDerived(context.Background(), g))

	res, err := h.Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "manual"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.RankShifts)
	assert.Len(t, f.pub.ofType(shared.EventRankChanged), 2)
	assert.Equal(t, profile.ID("p2"), res.Pass.Records[0].ProfileID)
}

func TestRecomputeScores_DeterministicAcrossRuns(t *testing.T) {
	profiles := []*profile.Profile{
		newTestProfile(t, "p3", profile.VisibilityPublic),
		newTestProfile(t, "p1", profile.VisibilityPublic),
		newTestProfile(t, "p2", profile.VisibilityPublic),
	}
	f := newPassFixture(t, profiles...)
	h := f.handler()

	first, err := h.Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "manual"})
	require.NoError(t, err)
	second, err := h.Handle(context.Background(), RecomputeScoresCommand{TriggeredBy: "manual"})
	require.NoError(t, err)

	require.Equal(t, first.Pass.TotalProfiles, second.Pass.TotalProfiles)
	for i := range first.Pass.Records {
		assert.Equal(t, first.Pass.Records[i].ProfileID, second.Pass.Records[i].ProfileID)
		assert.Equal(t, first.Pass.Records[i].Rank, second.Pass.Records[i].Rank)
		assert.Equal(t, first.Pass.Records[i].TotalScore, second.Pass.Records[i].TotalScore)
		assert.Equal(t, first.Pass.Records[i].NormalizedScore, second.Pass.Records[i].NormalizedScore)
	}
}
