// Package goal содержит доменную модель целей и метрик QuestBoard.
// Цель - это отслеживаемая единица работы со статусом жизненного цикла
// и производным процентом выполнения; метрики - числовые измерения,
// привязанные к цели и опционально сравниваемые с целевым значением.
package goal

import (
	"fmt"
	"time"

	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ID представляет идентификатор цели.
type ID string

// IsValid проверяет, что ID непустой.
func (id ID) IsValid() bool {
	return len(id) > 0
}

// String возвращает строковое представление.
func (id ID) String() string {
	return string(id)
}

// Status определяет статус жизненного цикла цели.
type Status string

const (
	// StatusActive - цель в работе.
	StatusActive Status = "active"

	// StatusPaused - цель приостановлена владельцем.
	StatusPaused Status = "paused"

	// StatusCompleted - цель завершена. Единственный автоматический переход:
	// движок форсирует этот статус при прогрессе 100.
	StatusCompleted Status = "completed"

	// StatusCancelled - цель отменена владельцем.
	StatusCancelled Status = "cancelled"

	// StatusArchived - цель убрана в архив.
	StatusArchived Status = "archived"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusCancelled, StatusArchived:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true для завершённой цели.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// Progress представляет процент выполнения цели (0-100).
// Всегда пересчитываем из текущих метрик: кешируется на цели только
// для дешёвого чтения и не является независимым источником истины.
type Progress int

// IsValid проверяет, что прогресс в допустимом диапазоне.
func (p Progress) IsValid() bool {
	return p >= 0 && p <= 100
}

// IsComplete возвращает true при полном выполнении.
func (p Progress) IsComplete() bool {
	return p >= 100
}

// ══════════════════════════════════════════════════════════════════════════════
// GOAL
// ══════════════════════════════════════════════════════════════════════════════

// Goal представляет единицу работы, принадлежащую ровно одному профилю.
type Goal struct {
	// ID - уникальный идентификатор цели.
	ID ID

	// ProfileID - владелец цели.
	ProfileID profile.ID

	// Title - название цели.
	Title string

	// Status - текущий статус жизненного цикла.
	Status Status

	// Progress - кешированный процент выполнения (производное поле).
	Progress Progress

	// CreatedAt - время создания.
	CreatedAt time.Time

	// UpdatedAt - время последнего изменения.
	UpdatedAt time.Time
}

// NewGoal создаёт новую цель с валидацией.
func NewGoal(id ID, profileID profile.ID, title string) (*Goal, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidID
	}
	if !profileID.IsValid() {
		return nil, shared.ErrInvalidProfileID
	}

	now := time.Now().UTC()
	return &Goal{
		ID:        id,
		ProfileID: profileID,
		Title:     title,
		Status:    StatusActive,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyProgress обновляет кешированный прогресс и выводит статус.
// Возвращает true, если цель перешла в completed этим вызовом.
func (g *Goal) ApplyProgress(p Progress) bool {
	wasCompleted := g.Status == StatusCompleted
	g.Progress = p
	g.Status = DeriveStatus(g.Status, p)
	g.UpdatedAt = time.Now().UTC()
	return !wasCompleted && g.Status == StatusCompleted
}

// String возвращает строковое представление для логирования.
func (g *Goal) String() string {
	return fmt.Sprintf("Goal{ID: %s, Status: %s, Progress: %d}", g.ID, g.Status, g.Progress)
}

// ══════════════════════════════════════════════════════════════════════════════
// METRIC
// ══════════════════════════════════════════════════════════════════════════════

// Metric представляет числовое измерение, привязанное к цели.
// Target == nil означает измерение без целевого значения: оно не может
// считаться "выполненным", так как не с чем сравнивать.
type Metric struct {
	// ID - уникальный идентификатор метрики.
	ID string

	// GoalID - владеющая цель.
	GoalID ID

	// Name - название метрики.
	Name string

	// Value - текущее значение (неотрицательное).
	Value float64

	// Target - целевое значение (nil = без цели).
	Target *float64

	// UpdatedAt - время последней мутации.
	UpdatedAt time.Time
}

// HasUsableTarget возвращает true, если у метрики есть положительная цель.
func (m *Metric) HasUsableTarget() bool {
	return m.Target != nil && *m.Target > 0
}

// Ratio возвращает долю выполнения метрики (0.0-1.0).
// Значение сверх цели не даёт больше 1.0; метрика без пригодной цели даёт 0.
func (m *Metric) Ratio() float64 {
	if !m.HasUsableTarget() {
		return 0
	}
	if m.Value >= *m.Target {
		return 1.0
	}
	return m.Value / *m.Target
}
