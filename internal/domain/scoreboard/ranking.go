package scoreboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/questboard/questboard-hub/internal/domain/profile"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record представляет кешированный результат подсчёта для одного профиля.
// Запись целиком производная: пересчитывается из целей, постов, метрик и
// рёбер вовлечённости и никогда не редактируется вручную. Ранг записи всегда
// вычислен против того же снимка входных данных, что и NormalizedScore
// соседних записей того же прохода.
type Record struct {
	// ProfileID - профиль, которому принадлежит запись.
	ProfileID profile.ID

	// Атрибуты профиля, денормализованные для фильтрации при чтении из кеша.
	Branch  profile.Branch
	Year    profile.Year
	Section profile.Section

	// Четыре подсчёта и их сумма.
	GoalScore       int
	PostScore       int
	MetricScore     int
	EngagementScore int
	TotalScore      int

	// NormalizedScore - балл, приведённый к полосе 0-100.
	NormalizedScore float64

	// Rank - позиция в рейтинге (с 1, строгий порядок без дублей).
	Rank int

	// PassID - идентификатор прохода, породившего запись.
	PassID string

	// ComputedAt - единая отметка времени прохода.
	ComputedAt time.Time
}

// NewRecord создаёт запись из профиля и его подсчётов.
func NewRecord(p *profile.Profile, s Subscores) *Record {
	return &Record{
		ProfileID:       p.ID,
		Branch:          p.Branch,
		Year:            p.Year,
		Section:         p.Section,
		GoalScore:       s.Goal,
		PostScore:       s.Post,
		MetricScore:     s.Metric,
		EngagementScore: s.Engagement,
		TotalScore:      s.Total(),
	}
}

// Matches проверяет, подходит ли запись под фильтр профилей.
func (r *Record) Matches(f profile.Filter) bool {
	if f.Branch.IsFiltered() && r.Branch != f.Branch {
		return false
	}
	if f.Year.IsFiltered() && r.Year != f.Year {
		return false
	}
	if f.Section.IsFiltered() && r.Section != f.Section {
		return false
	}
	return true
}

// Clone создаёт копию записи.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// String возвращает строковое представление для логирования.
func (r *Record) String() string {
	return fmt.Sprintf(
		"Record{Rank: %d, Profile: %s, Total: %d, Normalized: %.2f}",
		r.Rank, r.ProfileID, r.TotalScore, r.NormalizedScore,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCOREBOARD (полный ранжированный набор одного прохода)
// ══════════════════════════════════════════════════════════════════════════════

// Scoreboard представляет полный набор записей одного прохода подсчёта.
// Нормализация и ранжирование валидны только над полной популяцией:
// каждый публичный профиль обязан присутствовать, даже с нулевым баллом,
// иначе рейтинг несравним.
type Scoreboard struct {
	records   []*Record
	byProfile map[profile.ID]*Record
	finalized bool
}

// NewScoreboard создаёт пустой Scoreboard.
func NewScoreboard() *Scoreboard {
	return &Scoreboard{
		records:   make([]*Record, 0),
		byProfile: make(map[profile.ID]*Record),
	}
}

// Add добавляет запись (без автоматической сортировки).
func (b *Scoreboard) Add(r *Record) error {
	if r == nil {
		return fmt.Errorf("scoreboard: cannot add nil record")
	}
	if _, exists := b.byProfile[r.ProfileID]; exists {
		return fmt.Errorf("scoreboard: profile %s already added", r.ProfileID)
	}

	b.records = append(b.records, r)
	b.byProfile[r.ProfileID] = r
	return nil
}

// Finalize сортирует записи, присваивает ранги и нормализует баллы.
//
// Сортировка: по TotalScore по убыванию; при равенстве - по ProfileID по
// возрастанию. Вторичный ключ делает порядок строгим и детерминированным:
// ранги никогда не зависят от порядка обхода неупорядоченных коллекций.
//
// Нормализация: (total - min) / (max - min) * 100. Вырожденный случай
// max == min (один участник, все нули, все равны) даёт всем ровно 0 -
// не деление на ноль и не NaN.
func (b *Scoreboard) Finalize() {
	sort.Slice(b.records, func(i, j int) bool {
		if b.records[i].TotalScore != b.records[j].TotalScore {
			return b.records[i].TotalScore > b.records[j].TotalScore
		}
		return b.records[i].ProfileID < b.records[j].ProfileID
	})

	for i, r := range b.records {
		r.Rank = i + 1
	}

	if len(b.records) == 0 {
		b.finalized = true
		return
	}

	// После сортировки максимум в начале, минимум в конце.
	max := b.records[0].TotalScore
	min := b.records[len(b.records)-1].TotalScore

	if max == min {
		for _, r := range b.records {
			r.NormalizedScore = 0
		}
	} else {
		span := float64(max - min)
		for _, r := range b.records {
			r.NormalizedScore = float64(r.TotalScore-min) / span * 100
		}
	}

	b.finalized = true
}

// Stamp проставляет всем записям единый идентификатор прохода и отметку
// времени. Один проход - одна отметка: интерливинг старых и новых рангов
// в хранилище недопустим.
func (b *Scoreboard) Stamp(passID string, computedAt time.Time) {
	for _, r := range b.records {
		r.PassID = passID
		r.ComputedAt = computedAt
	}
}

// GetByProfile возвращает запись по идентификатору профиля.
func (b *Scoreboard) GetByProfile(id profile.ID) *Record {
	return b.byProfile[id]
}

// Top возвращает топ-N записей (валидно после Finalize).
func (b *Scoreboard) Top(n int) []*Record {
	if n <= 0 {
		return nil
	}
	if n > len(b.records) {
		n = len(b.records)
	}
	result := make([]*Record, n)
	copy(result, b.records[:n])
	return result
}

// All возвращает все записи в ранговом порядке.
func (b *Scoreboard) All() []*Record {
	result := make([]*Record, len(b.records))
	copy(result, b.records)
	return result
}

// Count возвращает количество записей.
func (b *Scoreboard) Count() int {
	return len(b.records)
}

// IsFinalized возвращает true после ранжирования.
func (b *Scoreboard) IsFinalized() bool {
	return b.finalized
}

// AverageTotal возвращает средний общий балл.
func (b *Scoreboard) AverageTotal() int {
	if len(b.records) == 0 {
		return 0
	}

	var total int
	for _, r := range b.records {
		total += r.TotalScore
	}
	return total / len(b.records)
}

// MedianTotal возвращает медианный общий балл (валидно после Finalize).
func (b *Scoreboard) MedianTotal() int {
	if len(b.records) == 0 {
		return 0
	}

	mid := len(b.records) / 2
	if len(b.records)%2 == 0 {
		return (b.records[mid-1].TotalScore + b.records[mid].TotalScore) / 2
	}
	return b.records[mid].TotalScore
}

// ══════════════════════════════════════════════════════════════════════════════
// FILTERING & PROJECTION (путь чтения)
// ══════════════════════════════════════════════════════════════════════════════

// FilterRecords применяет фильтр профилей к набору записей, сортирует по
// NormalizedScore по убыванию (при равенстве - по ProfileID) и ограничивает
// размер результата. Используется обоими путями координатора: записи из
// хранилища и свежепосчитанные проходят одну и ту же проекцию.
func FilterRecords(records []*Record, f profile.Filter, limit int) []*Record {
	filtered := make([]*Record, 0, len(records))
	for _, r := range records {
		if r.Matches(f) {
			filtered = append(filtered, r.Clone())
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].NormalizedScore != filtered[j].NormalizedScore {
			return filtered[i].NormalizedScore > filtered[j].NormalizedScore
		}
		return filtered[i].ProfileID < filtered[j].ProfileID
	})

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}
