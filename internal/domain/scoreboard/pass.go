package scoreboard

import (
	"fmt"
	"time"

	"github.com/questboard/questboard-hub/internal/domain/profile"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE PASS (неизменяемый результат одного пересчёта)
// ══════════════════════════════════════════════════════════════════════════════

// Pass представляет завершённый проход подсчёта: полный ранжированный набор
// записей с единым идентификатором и отметкой времени. Жизненный цикл записи
// в хранилище: absent → computed → stale → recomputed (и снова computed).
// Отдельного состояния ошибки у записи нет: запись либо целиком присутствует
// из последнего успешного прохода, либо отсутствует.
type Pass struct {
	// ID - уникальный идентификатор прохода.
	ID string

	// ComputedAt - отметка времени, общая для всех записей прохода.
	ComputedAt time.Time

	// Records - записи в ранговом порядке.
	Records []*Record

	// TotalProfiles - размер популяции прохода.
	TotalProfiles int

	// AverageTotal - средний общий балл.
	AverageTotal int

	// byProfile - индекс для быстрого поиска по профилю.
	byProfile map[profile.ID]*Record
}

// NewPass создаёт проход из финализированного Scoreboard и проставляет
// отметки на все записи.
func NewPass(id string, computedAt time.Time, board *Scoreboard) *Pass {
	board.Stamp(id, computedAt)
	records := board.All()

	byProfile := make(map[profile.ID]*Record, len(records))
	for _, r := range records {
		byProfile[r.ProfileID] = r
	}

	return &Pass{
		ID:            id,
		ComputedAt:    computedAt,
		Records:       records,
		TotalProfiles: len(records),
		AverageTotal:  board.AverageTotal(),
		byProfile:     byProfile,
	}
}

// GetByProfile возвращает запись по идентификатору профиля.
func (p *Pass) GetByProfile(id profile.ID) *Record {
	if p.byProfile == nil {
		return nil
	}
	return p.byProfile[id]
}

// Contains проверяет, есть ли профиль в проходе.
func (p *Pass) Contains(id profile.ID) bool {
	return p.GetByProfile(id) != nil
}

// IsEmpty возвращает true, если проход пуст.
func (p *Pass) IsEmpty() bool {
	return len(p.Records) == 0
}

// RebuildIndex перестраивает внутренний индекс byProfile.
// Используется после десериализации из хранилища.
func (p *Pass) RebuildIndex() {
	p.byProfile = make(map[profile.ID]*Record, len(p.Records))
	for _, r := range p.Records {
		p.byProfile[r.ProfileID] = r
	}
}

// String возвращает строковое представление для логирования.
func (p *Pass) String() string {
	return fmt.Sprintf(
		"Pass{ID: %s, Profiles: %d, AvgTotal: %d, At: %s}",
		p.ID, p.TotalProfiles, p.AverageTotal, p.ComputedAt.Format(time.RFC3339),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// PASS DIFF (изменения рангов между проходами)
// ══════════════════════════════════════════════════════════════════════════════

// RankShift представляет изменение позиции между проходами.
// Положительное значение = подъём, отрицательное = падение.
type RankShift int

// PassDiff представляет различия между двумя проходами.
type PassDiff struct {
	// RankShifts - карта изменений рангов (profileID -> RankShift).
	RankShifts map[profile.ID]RankShift

	// NewProfiles - профили, появившиеся в новом проходе.
	NewProfiles []profile.ID

	// RemovedProfiles - профили, выбывшие из популяции.
	RemovedProfiles []profile.ID
}

// DiffPasses вычисляет разницу между двумя проходами.
// oldPass может быть nil (первый проход) - тогда все профили новые.
func DiffPasses(oldPass, newPass *Pass) *PassDiff {
	diff := &PassDiff{
		RankShifts:      make(map[profile.ID]RankShift),
		NewProfiles:     make([]profile.ID, 0),
		RemovedProfiles: make([]profile.ID, 0),
	}

	if newPass == nil {
		return diff
	}

	if oldPass == nil || oldPass.IsEmpty() {
		for _, r := range newPass.Records {
			diff.NewProfiles = append(diff.NewProfiles, r.ProfileID)
		}
		return diff
	}

	for _, newRec := range newPass.Records {
		oldRec := oldPass.GetByProfile(newRec.ProfileID)
		if oldRec == nil {
			diff.NewProfiles = append(diff.NewProfiles, newRec.ProfileID)
			continue
		}
		if shift := RankShift(oldRec.Rank - newRec.Rank); shift != 0 {
			diff.RankShifts[newRec.ProfileID] = shift
		}
	}

	for _, oldRec := range oldPass.Records {
		if !newPass.Contains(oldRec.ProfileID) {
			diff.RemovedProfiles = append(diff.RemovedProfiles, oldRec.ProfileID)
		}
	}

	return diff
}

// HasChanges возвращает true, если проходы различаются.
func (d *PassDiff) HasChanges() bool {
	return len(d.RankShifts) > 0 || len(d.NewProfiles) > 0 || len(d.RemovedProfiles) > 0
}
