// Package scoreboard содержит доменную модель подсчёта очков QuestBoard.
// Четыре подсчёта (цели, посты, метрики, вовлечённость) складываются в общий
// балл, который нормализуется и ранжируется по всей популяции публичных
// профилей. Вся арифметика чистая: оба пути вычисления (чтение кеша и пересчёт
// по требованию) вызывают одни и те же функции, поэтому расхождение между
// "быстрым" и "резервным" путём исключено по построению.
package scoreboard

import (
	"github.com/questboard/questboard-hub/internal/domain/goal"
	"github.com/questboard/questboard-hub/internal/domain/profile"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEIGHTS
// ══════════════════════════════════════════════════════════════════════════════

// Weights содержит балльные константы подсчёта.
// Значения по умолчанию зафиксированы для совместимости: менять их можно
// только синхронно во всех развёртываниях, иначе кешированные записи
// перестанут сходиться с пересчётом.
type Weights struct {
	// Баллы за цели по статусу.
	GoalCompleted int
	GoalActive    int
	GoalPaused    int

	// Баллы за посты.
	PostPublished int
	PostLike      int

	// Баллы за метрики по уровню выполнения.
	MetricTargetReached int
	MetricNearTarget    int
	MetricSomeProgress  int

	// NearTargetRatio - доля цели, с которой начисляется MetricNearTarget.
	NearTargetRatio float64

	// Баллы за вовлечённость.
	ProfileLike int
	Follower    int
}

// DefaultWeights возвращает балльные константы по умолчанию.
func DefaultWeights() Weights {
	return Weights{
		GoalCompleted:       50,
		GoalActive:          10,
		GoalPaused:          5,
		PostPublished:       5,
		PostLike:            2,
		MetricTargetReached: 10,
		MetricNearTarget:    5,
		MetricSomeProgress:  1,
		NearTargetRatio:     0.8,
		ProfileLike:         3,
		Follower:            5,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY SNAPSHOT (вход подсчёта для одного профиля)
// ══════════════════════════════════════════════════════════════════════════════

// Activity представляет всю активность одного профиля, собранную для
// одного прохода подсчёта. Профиль без активности - валидный вход:
// он даёт ровно 0 в каждой категории, это не ошибка и не пропуск данных.
type Activity struct {
	// Profile - профиль, для которого считаются очки.
	Profile *profile.Profile

	// Goals - цели профиля со статусами.
	Goals []*goal.Goal

	// Metrics - метрики всех целей профиля.
	Metrics []*goal.Metric

	// Posts - посты профиля с флагом публикации и числом лайков.
	Posts []*profile.Post

	// ProfileLikes - лайки, полученные самим профилем.
	ProfileLikes int

	// Followers - количество подписчиков.
	Followers int
}

// ══════════════════════════════════════════════════════════════════════════════
// SUB-SCORES
// ══════════════════════════════════════════════════════════════════════════════

// Subscores содержит четыре неотрицательных подсчёта одного профиля.
type Subscores struct {
	Goal       int
	Post       int
	Metric     int
	Engagement int
}

// Total возвращает сумму всех подсчётов.
func (s Subscores) Total() int {
	return s.Goal + s.Post + s.Metric + s.Engagement
}

// Score вычисляет подсчёты профиля по его активности.
// Функция чистая и детерминированная: одинаковый вход даёт одинаковый выход.
func (w Weights) Score(a *Activity) Subscores {
	return Subscores{
		Goal:       w.goalScore(a.Goals),
		Post:       w.postScore(a.Posts),
		Metric:     w.metricScore(a.Metrics),
		Engagement: w.engagementScore(a.ProfileLikes, a.Followers),
	}
}

// goalScore начисляет баллы за цели по их статусу.
// Отменённые и архивные цели баллов не приносят.
func (w Weights) goalScore(goals []*goal.Goal) int {
	score := 0
	for _, g := range goals {
		switch g.Status {
		case goal.StatusCompleted:
			score += w.GoalCompleted
		case goal.StatusActive:
			score += w.GoalActive
		case goal.StatusPaused:
			score += w.GoalPaused
		}
	}
	return score
}

// postScore начисляет баллы за опубликованные посты и полученные на них лайки.
func (w Weights) postScore(posts []*profile.Post) int {
	score := 0
	for _, p := range posts {
		if p.IsPublished {
			score += w.PostPublished
		}
		score += w.PostLike * p.LikeCount
	}
	return score
}

// metricScore начисляет баллы за метрики по уровню выполнения.
//
// Шкала 10/5/1 намеренно независима от процента 0-100, который считает
// ComputeProgress: они читают одни и те же поля метрики, но служат разным
// задачам (отображение выполнения против соревновательного балла) и не
// обязаны сходиться. Не объединять без подтверждения от владельцев продукта.
func (w Weights) metricScore(metrics []*goal.Metric) int {
	score := 0
	for _, m := range metrics {
		switch {
		case m.HasUsableTarget() && m.Value >= *m.Target:
			score += w.MetricTargetReached
		case m.HasUsableTarget() && m.Value / *m.Target >= w.NearTargetRatio:
			score += w.MetricNearTarget
		case m.Value > 0:
			score += w.MetricSomeProgress
		}
	}
	return score
}

// engagementScore начисляет баллы за лайки профиля и подписчиков.
func (w Weights) engagementScore(profileLikes, followers int) int {
	return w.ProfileLike*profileLikes + w.Follower*followers
}
