// Package scoreboard содержит доменную модель подсчёта очков QuestBoard.
package scoreboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD STORE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// RecordStore определяет контракт хранилища кешированных записей подсчёта.
// Реализация находится в infrastructure слое (PostgreSQL).
//
// Хранилище - это процессно-глобальное кешированное состояние с явным
// жизненным циклом: заполняется плановым или ручным пересчётом, читается
// многими конкурентными запросами. Устаревшие записи между проходами
// допустимы (eventual consistency), но запись никогда не содержит ранг,
// посчитанный против другого снимка входа, чем NormalizedScore её соседей.
type RecordStore interface {
	// ReadAll возвращает все записи последнего прохода.
	// Пустой результат - не ошибка: координатор уходит в пересчёт.
	ReadAll(ctx context.Context) ([]*Record, error)

	// ReplaceAll атомарно замещает полный набор записей результатом прохода
	// (upsert по профилю в одной транзакции). Частичная перезапись - старые
	// ранги вперемешку с новыми - недопустима.
	ReplaceAll(ctx context.Context, pass *Pass) error

	// DeleteOlderThan удаляет записи проходов старше указанного времени.
	// Возвращает количество удалённых записей.
	DeleteOlderThan(ctx context.Context, olderThan time.Time) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет контракт быстрого кеша последнего прохода.
// Отделён от RecordStore для гибкости (Redis, in-memory).
// Кеш хранит только нефильтрованный полный проход: фильтры по
// branch/year/section применяются в памяти после чтения.
type Cache interface {
	// GetPass возвращает закешированный проход.
	// Возвращает nil без ошибки, если кеш пуст или устарел.
	GetPass(ctx context.Context) (*Pass, error)

	// SetPass сохраняет проход в кеш с TTL.
	SetPass(ctx context.Context, pass *Pass, ttl time.Duration) error

	// Invalidate сбрасывает кеш.
	Invalidate(ctx context.Context) error
}
