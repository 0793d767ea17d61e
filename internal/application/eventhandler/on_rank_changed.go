// Package eventhandler содержит обработчики доменных событий.
// Эти обработчики реализуют event-driven архитектуру и связывают
// различные части системы через асинхронные события.
//
// Философия: обработчики событий — это "реактивная" часть системы.
// Они реагируют на изменения рангов и целей и запускают побочные
// эффекты, такие как инвалидация кеша или запись заметных сдвигов.
package eventhandler

import (
	"fmt"
	"log/slog"

	"github.com/questboard/questboard-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RANK CHANGED HANDLER
// Обрабатывает событие изменения ранга профиля между проходами.
//
// Мелкие колебания (1-2 позиции) — это шум пересчёта, их не логируем.
// Заметные сдвиги и вход в топ фиксируются на уровне INFO: это сигнал
// для downstream-потребителей (дайджесты, уведомления).
// ═══════════════════════════════════════════════════════════════════════════

// OnRankChangedHandler обрабатывает событие изменения ранга профиля.
type OnRankChangedHandler struct {
	logger *slog.Logger
	config RankChangedConfig
}

// RankChangedConfig содержит конфигурацию обработчика.
type RankChangedConfig struct {
	// MinShiftForNotice — минимальное изменение ранга, которое считается
	// заметным. Сдвиги меньше порога логируются только на DEBUG.
	MinShiftForNotice int

	// TopNMilestones — пороги входа в топ. Пересечение порога сверху вниз
	// фиксируется отдельно, даже если сам сдвиг мал.
	TopNMilestones []int
}

// DefaultRankChangedConfig возвращает конфигурацию по умолчанию.
func DefaultRankChangedConfig() RankChangedConfig {
	return RankChangedConfig{
		MinShiftForNotice: 3,
		TopNMilestones:    []int{10, 50, 100},
	}
}

// NewOnRankChangedHandler создаёт новый обработчик события изменения ранга.
func NewOnRankChangedHandler(logger *slog.Logger, config RankChangedConfig) *OnRankChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnRankChangedHandler{
		logger: logger,
		config: config,
	}
}

// EventTypes implements shared.EventHandler.
func (h *OnRankChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{shared.EventRankChanged}
}

// Handle обрабатывает событие изменения ранга.
func (h *OnRankChangedHandler) Handle(event shared.Event) error {
	if event.EventType() != shared.EventRankChanged {
		return nil
	}

	oldRank, newRank, err := rankPair(event)
	if err != nil {
		return fmt.Errorf("rank changed handler: %w", err)
	}

	shift := oldRank - newRank
	absShift := shift
	if absShift < 0 {
		absShift = -absShift
	}

	milestone := h.crossedMilestone(oldRank, newRank)

	// Нулевой старый ранг означает новый профиль в проходе.
	notable := absShift >= h.config.MinShiftForNotice && oldRank > 0

	switch {
	case milestone > 0:
		h.logger.Info("profile entered top",
			"profile_id", event.AggregateID(),
			"milestone", milestone,
			"old_rank", oldRank,
			"new_rank", newRank,
		)
	case notable && shift > 0:
		h.logger.Info("profile climbed",
			"profile_id", event.AggregateID(),
			"old_rank", oldRank,
			"new_rank", newRank,
			"positions", shift,
		)
	case notable:
		h.logger.Info("profile dropped",
			"profile_id", event.AggregateID(),
			"old_rank", oldRank,
			"new_rank", newRank,
			"positions", -shift,
		)
	default:
		h.logger.Debug("minor rank shift",
			"profile_id", event.AggregateID(),
			"old_rank", oldRank,
			"new_rank", newRank,
		)
	}

	return nil
}

// crossedMilestone возвращает наименьший порог топа, пересечённый сверху
// вниз, или 0, если порог не пересечён.
func (h *OnRankChangedHandler) crossedMilestone(oldRank, newRank int) int {
	best := 0
	for _, n := range h.config.TopNMilestones {
		entered := newRank > 0 && newRank <= n && (oldRank == 0 || oldRank > n)
		if entered && (best == 0 || n < best) {
			best = n
		}
	}
	return best
}

// rankPair извлекает пару рангов из события. События приходят либо как
// конкретный тип (in-memory шина), либо как реконструированное событие
// с JSON-payload (Redis Pub/Sub), где числа — float64.
func rankPair(event shared.Event) (oldRank, newRank int, err error) {
	if e, ok := event.(shared.RankChangedEvent); ok {
		return e.OldRank, e.NewRank, nil
	}

	payload := event.Payload()
	oldRank, okOld := payloadInt(payload["old_rank"])
	newRank, okNew := payloadInt(payload["new_rank"])
	if !okOld || !okNew {
		return 0, 0, fmt.Errorf("malformed payload for aggregate %s", event.AggregateID())
	}
	return oldRank, newRank, nil
}

func payloadInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
