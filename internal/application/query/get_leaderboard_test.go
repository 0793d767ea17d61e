package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questboard/questboard-hub/internal/application/command"
	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/scoreboard"
)

// buildPass assembles a finalized pass from (profileID, branch, year, total).
func buildPass(t *testing.T, passID string, rows ...testRow) *scoreboard.Pass {
	t.Helper()
	board := scoreboard.NewScoreboard()
	for _, row := range rows {
		year := row.year
		if year == profile.YearAll {
			year = 1
		}
		p, err := profile.NewProfile(profile.ID(row.id), "user-"+row.id, row.branch, year, "backend", profile.VisibilityPublic)
		require.NoError(t, err)
		require.NoError(t, board.Add(scoreboard.NewRecord(p, scoreboard.Subscores{Goal: row.total})))
	}
	board.Finalize()
	return scoreboard.NewPass(passID, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), board)
}

type testRow struct {
	id     string
	branch profile.Branch
	year   profile.Year
	total  int
}

type stubCache struct {
	pass *scoreboard.Pass
	err  error
}

func (c *stubCache) GetPass(context.Context) (*scoreboard.Pass, error) { return c.pass, c.err }
func (c *stubCache) SetPass(context.Context, *scoreboard.Pass, time.Duration) error {
	return nil
}
func (c *stubCache) Invalidate(context.Context) error { return nil }

type stubStore struct {
	records []*scoreboard.Record
	err     error
	reads   int
}

func (s *stubStore) ReadAll(context.Context) ([]*scoreboard.Record, error) {
	s.reads++
	return s.records, s.err
}
func (s *stubStore) ReplaceAll(context.Context, *scoreboard.Pass) error { return nil }
func (s *stubStore) DeleteOlderThan(context.Context, time.Time) (int, error) {
	return 0, nil
}

type stubRecomputer struct {
	pass  *scoreboard.Pass
	err   error
	calls int
}

func (r *stubRecomputer) Handle(_ context.Context, _ command.RecomputeScoresCommand) (*command.RecomputeScoresResult, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &command.RecomputeScoresResult{Pass: r.pass, TotalProfiles: r.pass.TotalProfiles}, nil
}

func TestGetLeaderboard_ServesFromCache(t *testing.T) {
	pass := buildPass(t, "pass-1",
		testRow{id: "p1", branch: "almaty", year: 1, total: 100},
		testRow{id: "p2", branch: "astana", year: 2, total: 50},
	)
	store := &stubStore{}
	rec := &stubRecomputer{}
	h := NewGetLeaderboardHandler(&stubCache{pass: pass}, store, rec)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{})

	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, "pass-1", res.PassID)
	assert.Len(t, res.Entries, 2)
	assert.Equal(t, 1, res.Entries[0].Rank)
	assert.Equal(t, "p1", res.Entries[0].ProfileID)
	assert.Zero(t, store.reads)
	assert.Zero(t, rec.calls)
}

func TestGetLeaderboard_FallsBackToStore(t *testing.T) {
	pass := buildPass(t, "pass-2", testRow{id: "p1", total: 10})
	rec := &stubRecomputer{}
	h := NewGetLeaderboardHandler(&stubCache{}, &stubStore{records: pass.Records}, rec)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{})

	require.NoError(t, err)
	assert.Equal(t, SourceStore, res.Source)
	assert.Equal(t, "pass-2", res.PassID)
	assert.Len(t, res.Entries, 1)
	assert.Zero(t, rec.calls)
}

func TestGetLeaderboard_EmptyStoreTriggersRecompute(t *testing.T) {
	pass := buildPass(t, "pass-3", testRow{id: "p1", total: 10})
	rec := &stubRecomputer{pass: pass}
	h := NewGetLeaderboardHandler(&stubCache{}, &stubStore{}, rec)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{})

	require.NoError(t, err)
	assert.Equal(t, SourceRecompute, res.Source)
	assert.Equal(t, 1, rec.calls)
	assert.Len(t, res.Entries, 1)
}

func TestGetLeaderboard_StoreErrorTriggersRecompute(t *testing.T) {
	pass := buildPass(t, "pass-4", testRow{id: "p1", total: 10})
	rec := &stubRecomputer{pass: pass}
	h := NewGetLeaderboardHandler(&stubCache{}, &stubStore{err: errors.New("store down")}, rec)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{})

	require.NoError(t, err)
	assert.Equal(t, SourceRecompute, res.Source)
}

func TestGetLeaderboard_RecomputeFailurePropagates(t *testing.T) {
	rec := &stubRecomputer{err: errors.New("pass aborted")}
	h := NewGetLeaderboardHandler(&stubCache{}, &stubStore{}, rec)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{})

	assert.Error(t, err)
}

func TestGetLeaderboard_FilterAndLimit(t *testing.T) {
	pass := buildPass(t, "pass-5",
		testRow{id: "p1", branch: "almaty", year: 1, total: 100},
		testRow{id: "p2", branch: "astana", year: 1, total: 90},
		testRow{id: "p3", branch: "almaty", year: 2, total: 80},
		testRow{id: "p4", branch: "almaty", year: 1, total: 70},
	)
	h := NewGetLeaderboardHandler(&stubCache{pass: pass}, &stubStore{}, &stubRecomputer{})

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Filter: profile.Filter{Branch: "almaty", Year: 1},
		Limit:  1,
	})

	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "p1", res.Entries[0].ProfileID)
	// TotalRanked отражает весь проход, а не отфильтрованную страницу.
	assert.Equal(t, 4, res.TotalRanked)
}

func TestGetLeaderboard_OwnEntryOutsidePage(t *testing.T) {
	pass := buildPass(t, "pass-6",
		testRow{id: "p1", total: 100},
		testRow{id: "p2", total: 90},
		testRow{id: "p3", total: 10},
	)
	h := NewGetLeaderboardHandler(&stubCache{pass: pass}, &stubStore{}, &stubRecomputer{})

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{
		Limit:      2,
		ForProfile: "p3",
	})

	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)
	require.NotNil(t, res.OwnEntry)
	assert.Equal(t, "p3", res.OwnEntry.ProfileID)
	assert.Equal(t, 3, res.OwnEntry.Rank)
}

func TestGetLeaderboard_LimitNormalization(t *testing.T) {
	q := GetLeaderboardQuery{}
	require.NoError(t, q.Validate())
	assert.Equal(t, DefaultLimit, q.Limit)

	q = GetLeaderboardQuery{Limit: 10_000}
	require.NoError(t, q.Validate())
	assert.Equal(t, MaxLimit, q.Limit)

	q = GetLeaderboardQuery{Limit: -1}
	assert.Error(t, q.Validate())
}

func TestGetLeaderboard_InvalidYearFilter(t *testing.T) {
	q := GetLeaderboardQuery{Filter: profile.Filter{Year: 9}}
	assert.Error(t, q.Validate())
}
