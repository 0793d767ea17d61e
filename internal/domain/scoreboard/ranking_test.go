package scoreboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questboard/questboard-hub/internal/domain/profile"
)

func record(id string, total int) *Record {
	return &Record{
		ProfileID:  profile.ID(id),
		TotalScore: total,
	}
}

func buildBoard(t *testing.T, records ...*Record) *Scoreboard {
	t.Helper()
	board := NewScoreboard()
	for _, r := range records {
		require.NoError(t, board.Add(r))
	}
	board.Finalize()
	return board
}

func TestScoreboard_RejectsDuplicateProfile(t *testing.T) {
	board := NewScoreboard()
	assert.NoError(t, board.Add(record("p1", 10)))
	assert.Error(t, board.Add(record("p1", 20)))
	assert.Error(t, board.Add(nil))
}

func TestFinalize_NormalizationBounds(t *testing.T) {
	board := buildBoard(t, record("p1", 0), record("p2", 40), record("p3", 100))

	for _, r := range board.All() {
		assert.GreaterOrEqual(t, r.NormalizedScore, 0.0)
		assert.LessOrEqual(t, r.NormalizedScore, 100.0)
	}

	// Максимум получает ровно 100, минимум - ровно 0.
	assert.Equal(t, 100.0, board.GetByProfile("p3").NormalizedScore)
	assert.Equal(t, 0.0, board.GetByProfile("p1").NormalizedScore)
	assert.Equal(t, 40.0, board.GetByProfile("p2").NormalizedScore)
}

func TestFinalize_AllEqualTotalsNormalizeToZero(t *testing.T) {
	// Вырожденный случай max == min: все получают 0, не NaN и не деление
	// на ноль. Покрывает и единственного участника, и все нули.
	cases := []struct {
		name    string
		records []*Record
	}{
		{"single profile", []*Record{record("p1", 42)}},
		{"all zero", []*Record{record("p1", 0), record("p2", 0)}},
		{"all equal", []*Record{record("p1", 7), record("p2", 7), record("p3", 7)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			board := buildBoard(t, tc.records...)
			for _, r := range board.All() {
				assert.Equal(t, 0.0, r.NormalizedScore)
			}
		})
	}
}

func TestFinalize_StrictRankOrder(t *testing.T) {
	board := buildBoard(t, record("p1", 50), record("p2", 90), record("p3", 10))

	all := board.All()
	require.Len(t, all, 3)
	assert.Equal(t, profile.ID("p2"), all[0].ProfileID)
	assert.Equal(t, 1, all[0].Rank)
	assert.Equal(t, profile.ID("p1"), all[1].ProfileID)
	assert.Equal(t, 2, all[1].Rank)
	assert.Equal(t, profile.ID("p3"), all[2].ProfileID)
	assert.Equal(t, 3, all[2].Rank)
}

func TestFinalize_TiesBrokenByProfileID(t *testing.T) {
	// Равные баллы ранжируются по ProfileID по возрастанию: строгий
	// порядок без дублирующихся рангов.
	board := buildBoard(t, record("pb", 30), record("pa", 30), record("pc", 30))

	all := board.All()
	assert.Equal(t, profile.ID("pa"), all[0].ProfileID)
	assert.Equal(t, profile.ID("pb"), all[1].ProfileID)
	assert.Equal(t, profile.ID("pc"), all[2].ProfileID)

	seen := make(map[int]bool)
	for _, r := range all {
		assert.False(t, seen[r.Rank], "duplicate rank %d", r.Rank)
		seen[r.Rank] = true
	}
}

func TestFinalize_Deterministic(t *testing.T) {
	// Два прогона над одинаковым входом (в разном порядке добавления)
	// дают побайтово одинаковые (NormalizedScore, Rank).
	first := buildBoard(t, record("p1", 15), record("p2", 92), record("p3", 15), record("p4", 0))
	second := buildBoard(t, record("p4", 0), record("p3", 15), record("p1", 15), record("p2", 92))

	for _, r := range first.All() {
		other := second.GetByProfile(r.ProfileID)
		require.NotNil(t, other)
		assert.Equal(t, r.Rank, other.Rank)
		assert.Equal(t, r.NormalizedScore, other.NormalizedScore)
	}
}

func TestFinalize_EmptyBoard(t *testing.T) {
	board := NewScoreboard()
	board.Finalize()

	assert.True(t, board.IsFinalized())
	assert.Equal(t, 0, board.Count())
	assert.Equal(t, 0, board.AverageTotal())
	assert.Equal(t, 0, board.MedianTotal())
}

func TestFilterRecords(t *testing.T) {
	records := []*Record{
		{ProfileID: "p1", Branch: "CSE", Year: 2, NormalizedScore: 100},
		{ProfileID: "p2", Branch: "CSE", Year: 3, NormalizedScore: 80},
		{ProfileID: "p3", Branch: "ECE", Year: 2, NormalizedScore: 60},
		{ProfileID: "p4", Branch: "CSE", Year: 2, NormalizedScore: 40},
	}

	filtered := FilterRecords(records, profile.Filter{Branch: "CSE"}, 0)
	require.Len(t, filtered, 3)
	assert.Equal(t, profile.ID("p1"), filtered[0].ProfileID)
	assert.Equal(t, profile.ID("p4"), filtered[2].ProfileID)

	filtered = FilterRecords(records, profile.Filter{Branch: "CSE", Year: 2}, 0)
	require.Len(t, filtered, 2)

	// Ограничение размера результата.
	filtered = FilterRecords(records, profile.Filter{}, 2)
	require.Len(t, filtered, 2)
	assert.Equal(t, profile.ID("p1"), filtered[0].ProfileID)
	assert.Equal(t, profile.ID("p2"), filtered[1].ProfileID)
}

func TestPass_StampAndDiff(t *testing.T) {
	board := buildBoard(t, record("p1", 50), record("p2", 90))
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	oldPass := NewPass("pass-1", at, board)

	// Единая отметка прохода на всех записях.
	for _, r := range oldPass.Records {
		assert.Equal(t, "pass-1", r.PassID)
		assert.Equal(t, at, r.ComputedAt)
	}

	next := buildBoard(t, record("p1", 120), record("p2", 90), record("p3", 10))
	newPass := NewPass("pass-2", at.Add(time.Hour), next)

	diff := DiffPasses(oldPass, newPass)
	assert.True(t, diff.HasChanges())
	assert.Equal(t, RankShift(1), diff.RankShifts["p1"])
	assert.Equal(t, RankShift(-1), diff.RankShifts["p2"])
	assert.Equal(t, []profile.ID{"p3"}, diff.NewProfiles)
	assert.Empty(t, diff.RemovedProfiles)
}

func TestDiffPasses_FirstPass(t *testing.T) {
	board := buildBoard(t, record("p1", 50))
	pass := NewPass("pass-1", time.Now().UTC(), board)

	diff := DiffPasses(nil, pass)
	assert.Empty(t, diff.RankShifts)
	assert.Equal(t, []profile.ID{"p1"}, diff.NewProfiles)
}
