// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/questboard/questboard-hub/internal/domain/scoreboard"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON GOAL COMPLETED HANDLER
// Обрабатывает завершение цели.
//
// Завершённая цель меняет очки профиля, а значит закешированный проход
// скорборда устарел. Инвалидируем кеш: следующее чтение лидерборда
// упадёт на хранилище записей или на пересчёт и вернёт свежие данные.
// ═══════════════════════════════════════════════════════════════════════════

// OnGoalCompletedHandler реагирует на завершение цели инвалидацией
// кеша скорборда.
type OnGoalCompletedHandler struct {
	cache   scoreboard.Cache
	logger  *slog.Logger
	timeout time.Duration
}

// NewOnGoalCompletedHandler создаёт новый обработчик завершения цели.
func NewOnGoalCompletedHandler(cache scoreboard.Cache, logger *slog.Logger) *OnGoalCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnGoalCompletedHandler{
		cache:   cache,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// EventTypes implements shared.EventHandler.
func (h *OnGoalCompletedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{shared.EventGoalCompleted}
}

// Handle обрабатывает событие завершения цели.
func (h *OnGoalCompletedHandler) Handle(event shared.Event) error {
	if event.EventType() != shared.EventGoalCompleted {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.cache.Invalidate(ctx); err != nil {
		// Кеш всё равно истечёт по TTL, но откладывать свежие ранги
		// на весь TTL не хочется.
		h.logger.Warn("failed to invalidate scoreboard cache",
			"goal_id", event.AggregateID(),
			"error", err,
		)
		return fmt.Errorf("invalidate scoreboard cache: %w", err)
	}

	h.logger.Debug("scoreboard cache invalidated after goal completion",
		"goal_id", event.AggregateID(),
	)
	return nil
}
