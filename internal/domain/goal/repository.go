// Package goal содержит доменную модель целей и метрик QuestBoard.
package goal

import (
	"context"

	"github.com/questboard/questboard-hub/internal/domain/profile"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт работы с целями.
// Реализация находится в infrastructure слое (PostgreSQL).
type Repository interface {
	// GetByID возвращает цель по идентификатору.
	GetByID(ctx context.Context, id ID) (*Goal, error)

	// GetByProfiles возвращает цели указанных профилей.
	GetByProfiles(ctx context.Context, profileIDs []profile.ID) ([]*Goal, error)

	// SaveDerived сохраняет производные поля цели (progress, status).
	// Вызывается после пересчёта прогресса; остальные поля не трогает.
	SaveDerived(ctx context.Context, g *Goal) error
}

// MetricRepository определяет контракт работы с метриками.
//
// Мутация метрики - это read-modify-write над разделяемым состоянием.
// Контракт требует от реализации одной из двух дисциплин (см. MetricMutator):
// либо эксклюзивное владение набором метрик цели на время мутации,
// либо атомарный инкремент на уровне хранилища со свежим чтением после записи.
// Два неохраняемых последовательных чтения-записи контрактом запрещены.
type MetricRepository interface {
	// GetByGoal возвращает все метрики цели.
	GetByGoal(ctx context.Context, goalID ID) ([]*Metric, error)

	// GetByGoals возвращает метрики указанных целей.
	GetByGoals(ctx context.Context, goalIDs []ID) ([]*Metric, error)
}

// MetricMutator выполняет мутации значений метрик.
type MetricMutator interface {
	// Increment атомарно прибавляет delta к значению метрики и возвращает
	// новое значение. Отрицательная delta - декремент; результат ниже нуля
	// ограничивается нулём.
	Increment(ctx context.Context, goalID ID, metricID string, delta float64) (float64, error)

	// Set атомарно устанавливает значение метрики.
	Set(ctx context.Context, goalID ID, metricID string, value float64) error
}

// GoalLocker предоставляет взаимное исключение в границах одной цели.
// Секция "мутация метрики + пересчёт прогресса" выполняется под этим замком,
// чтобы два конкурентных инкремента не потеряли обновление.
type GoalLocker interface {
	// WithGoalLock выполняет fn под эксклюзивным замком цели.
	WithGoalLock(ctx context.Context, goalID ID, fn func(ctx context.Context) error) error
}
