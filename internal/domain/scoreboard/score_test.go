package scoreboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/questboard/questboard-hub/internal/domain/goal"
	"github.com/questboard/questboard-hub/internal/domain/profile"
)

func target(v float64) *float64 {
	return &v
}

func testProfile(id string) *profile.Profile {
	return &profile.Profile{
		ID:         profile.ID(id),
		Branch:     "CSE",
		Year:       2,
		Visibility: profile.VisibilityPublic,
	}
}

func TestWeights_Defaults(t *testing.T) {
	w := DefaultWeights()

	assert.Equal(t, 50, w.GoalCompleted)
	assert.Equal(t, 10, w.GoalActive)
	assert.Equal(t, 5, w.GoalPaused)
	assert.Equal(t, 5, w.PostPublished)
	assert.Equal(t, 2, w.PostLike)
	assert.Equal(t, 10, w.MetricTargetReached)
	assert.Equal(t, 5, w.MetricNearTarget)
	assert.Equal(t, 1, w.MetricSomeProgress)
	assert.Equal(t, 0.8, w.NearTargetRatio)
	assert.Equal(t, 3, w.ProfileLike)
	assert.Equal(t, 5, w.Follower)
}

func TestScore_ZeroActivity(t *testing.T) {
	w := DefaultWeights()
	s := w.Score(&Activity{Profile: testProfile("p1")})

	// Профиль без активности - валидный вход с нулями во всех категориях.
	assert.Equal(t, 0, s.Goal)
	assert.Equal(t, 0, s.Post)
	assert.Equal(t, 0, s.Metric)
	assert.Equal(t, 0, s.Engagement)
	assert.Equal(t, 0, s.Total())
}

func TestScore_GoalStatuses(t *testing.T) {
	w := DefaultWeights()
	s := w.Score(&Activity{
		Profile: testProfile("p1"),
		Goals: []*goal.Goal{
			{ID: "g1", Status: goal.StatusCompleted},
			{ID: "g2", Status: goal.StatusActive},
			{ID: "g3", Status: goal.StatusPaused},
			{ID: "g4", Status: goal.StatusCancelled},
			{ID: "g5", Status: goal.StatusArchived},
		},
	})

	assert.Equal(t, 50+10+5, s.Goal)
	assert.Equal(t, 65, s.Total())
}

func TestScore_MetricTiers(t *testing.T) {
	w := DefaultWeights()

	cases := []struct {
		name   string
		metric *goal.Metric
		want   int
	}{
		{"target reached", &goal.Metric{Value: 10, Target: target(10)}, 10},
		{"over target", &goal.Metric{Value: 15, Target: target(10)}, 10},
		{"near target", &goal.Metric{Value: 8, Target: target(10)}, 5},
		{"exactly 80 percent", &goal.Metric{Value: 0.8, Target: target(1)}, 5},
		{"some progress with target", &goal.Metric{Value: 3, Target: target(10)}, 1},
		{"some progress without target", &goal.Metric{Value: 3, Target: nil}, 1},
		{"no progress", &goal.Metric{Value: 0, Target: target(10)}, 0},
		{"no progress no target", &goal.Metric{Value: 0, Target: nil}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := w.Score(&Activity{
				Profile: testProfile("p1"),
				Metrics: []*goal.Metric{tc.metric},
			})
			assert.Equal(t, tc.want, s.Metric)
		})
	}
}

func TestScore_EndToEnd_CompletedGoalAndEngagement(t *testing.T) {
	// Один завершённый Goal без метрик, два опубликованных поста (один с
	// тремя лайками), 4 подписчика и 2 лайка профиля:
	// Goal=50, Post=5+5+3*2=16, Metric=0, Engagement=4*5+2*3=26, Total=92.
	w := DefaultWeights()
	s := w.Score(&Activity{
		Profile: testProfile("p1"),
		Goals: []*goal.Goal{
			{ID: "g1", Status: goal.StatusCompleted},
		},
		Posts: []*profile.Post{
			{ID: "post1", IsPublished: true, LikeCount: 3},
			{ID: "post2", IsPublished: true, LikeCount: 0},
		},
		ProfileLikes: 2,
		Followers:    4,
	})

	assert.Equal(t, 50, s.Goal)
	assert.Equal(t, 16, s.Post)
	assert.Equal(t, 0, s.Metric)
	assert.Equal(t, 26, s.Engagement)
	assert.Equal(t, 92, s.Total())
}

func TestScore_EndToEnd_NearTargetMetric(t *testing.T) {
	// Одна активная цель с метрикой value=9, target=10 (доля 0.9 ≥ 0.8):
	// Goal=10, Metric=5, Total=15.
	w := DefaultWeights()
	s := w.Score(&Activity{
		Profile: testProfile("p1"),
		Goals: []*goal.Goal{
			{ID: "g1", Status: goal.StatusActive},
		},
		Metrics: []*goal.Metric{
			{ID: "m1", GoalID: "g1", Value: 9, Target: target(10)},
		},
	})

	assert.Equal(t, 10, s.Goal)
	assert.Equal(t, 5, s.Metric)
	assert.Equal(t, 15, s.Total())

	// Прогресс при этом 90, статус остаётся active (90 < 100).
	p := goal.ComputeProgress([]*goal.Metric{{Value: 9, Target: target(10)}})
	assert.Equal(t, goal.Progress(90), p)
	assert.Equal(t, goal.StatusActive, goal.DeriveStatus(goal.StatusActive, p))
}

func TestScore_UnpublishedPostLikesStillCount(t *testing.T) {
	w := DefaultWeights()
	s := w.Score(&Activity{
		Profile: testProfile("p1"),
		Posts: []*profile.Post{
			{ID: "post1", IsPublished: false, LikeCount: 2},
		},
	})

	// Черновик не даёт баллов за публикацию, но полученные лайки считаются.
	assert.Equal(t, 4, s.Post)
}
