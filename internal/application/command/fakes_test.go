package command

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/questboard/questboard-hub/internal/domain/goal"
	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/scoreboard"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

// In-memory fakes shared by the command handler tests. The metric store
// honors the same mutation discipline the real storage does: Increment is
// atomic under the store mutex, and the goal lock serializes whole
// mutate-and-recompute sections.

type memGoalRepo struct {
	mu    sync.Mutex
	goals map[goal.ID]*goal.Goal
	saved int
	err   error
}

func newMemGoalRepo(goals ...*goal.Goal) *memGoalRepo {
	m := &memGoalRepo{goals: make(map[goal.ID]*goal.Goal)}
	for _, g := range goals {
		m.goals[g.ID] = g
	}
	return m
}

func (r *memGoalRepo) GetByID(_ context.Context, id goal.ID) (*goal.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	g, ok := r.goals[id]
	if !ok {
		return nil, shared.ErrGoalNotFound
	}
	return g, nil
}

func (r *memGoalRepo) GetByProfiles(_ context.Context, profileIDs []profile.ID) ([]*goal.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*goal.Goal
	for _, g := range r.goals {
		for _, pid := range profileIDs {
			if g.ProfileID == pid {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (r *memGoalRepo) SaveDerived(_ context.Context, g *goal.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.goals[g.ID] = g
	r.saved++
	return nil
}

type memMetricStore struct {
	mu      sync.Mutex
	metrics map[goal.ID][]*goal.Metric
	readErr error
}

func newMemMetricStore(metrics ...*goal.Metric) *memMetricStore {
	m := &memMetricStore{metrics: make(map[goal.ID][]*goal.Metric)}
	for _, mt := range metrics {
		m.metrics[mt.GoalID] = append(m.metrics[mt.GoalID], mt)
	}
	return m
}

func (s *memMetricStore) GetByGoal(_ context.Context, goalID goal.ID) ([]*goal.Metric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make([]*goal.Metric, len(s.metrics[goalID]))
	for i, m := range s.metrics[goalID] {
		clone := *m
		out[i] = &clone
	}
	return out, nil
}

func (s *memMetricStore) GetByGoals(ctx context.Context, goalIDs []goal.ID) ([]*goal.Metric, error) {
	var out []*goal.Metric
	for _, id := range goalIDs {
		ms, err := s.GetByGoal(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, ms...)
	}
	return out, nil
}

func (s *memMetricStore) Increment(_ context.Context, goalID goal.ID, metricID string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics[goalID] {
		if m.ID == metricID {
			m.Value += delta
			if m.Value < 0 {
				m.Value = 0
			}
			return m.Value, nil
		}
	}
	return 0, shared.ErrMetricNotFound
}

func (s *memMetricStore) Set(_ context.Context, goalID goal.ID, metricID string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics[goalID] {
		if m.ID == metricID {
			m.Value = value
			return nil
		}
	}
	return shared.ErrMetricNotFound
}

type memLocker struct {
	mu sync.Mutex
}

func (l *memLocker) WithGoalLock(ctx context.Context, _ goal.ID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

type memEngagementRepo struct {
	mu        sync.Mutex
	likes     map[string]bool // liker|type|target -> exists
	follows   map[string]bool // follower|followed -> exists
	likeCount map[string]int
	followers map[profile.ID]int
	err       error
}

func newMemEngagementRepo() *memEngagementRepo {
	return &memEngagementRepo{
		likes:     make(map[string]bool),
		follows:   make(map[string]bool),
		likeCount: make(map[string]int),
		followers: make(map[profile.ID]int),
	}
}

func (r *memEngagementRepo) ToggleLike(_ context.Context, likerID profile.ID, targetType profile.LikeTargetType, targetID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	key := string(likerID) + "|" + string(targetType) + "|" + targetID
	if r.likes[key] {
		delete(r.likes, key)
		r.likeCount[targetID]--
		return false, nil
	}
	r.likes[key] = true
	r.likeCount[targetID]++
	return true, nil
}

func (r *memEngagementRepo) ToggleFollow(_ context.Context, followerID, followedID profile.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	key := string(followerID) + "|" + string(followedID)
	if r.follows[key] {
		delete(r.follows, key)
		r.followers[followedID]--
		return false, nil
	}
	r.follows[key] = true
	r.followers[followedID]++
	return true, nil
}

func (r *memEngagementRepo) CountLikes(_ context.Context, _ profile.LikeTargetType, targetIDs []string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make(map[string]int)
	for _, id := range targetIDs {
		if n := r.likeCount[id]; n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (r *memEngagementRepo) CountFollowers(_ context.Context, profileIDs []profile.ID) (map[profile.ID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make(map[profile.ID]int)
	for _, id := range profileIDs {
		if n := r.followers[id]; n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

type memProfileRepo struct {
	mu       sync.Mutex
	profiles []*profile.Profile
	err      error
}

func (r *memProfileRepo) GetEligible(_ context.Context) ([]*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*profile.Profile
	for _, p := range r.profiles {
		if p.IsEligible() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProfileRepo) GetByID(_ context.Context, id profile.ID) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.ErrProfileNotFound
}

type memPostRepo struct {
	mu    sync.Mutex
	posts []*profile.Post
	// failFor makes fetches for one profile fail, to exercise exclusion.
	failFor profile.ID
}

func (r *memPostRepo) GetByProfiles(_ context.Context, profileIDs []profile.ID) ([]*profile.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*profile.Post
	for _, pid := range profileIDs {
		if r.failFor != "" && pid == r.failFor {
			return nil, errors.New("post backend down")
		}
		for _, p := range r.posts {
			if p.ProfileID == pid {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type memRecordStore struct {
	mu       sync.Mutex
	records  []*scoreboard.Record
	writeErr error
	readErr  error
	writes   int
}

func (s *memRecordStore) ReadAll(_ context.Context) ([]*scoreboard.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make([]*scoreboard.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *memRecordStore) ReplaceAll(_ context.Context, pass *scoreboard.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.records = make([]*scoreboard.Record, len(pass.Records))
	copy(s.records, pass.Records)
	return nil
}

func (s *memRecordStore) DeleteOlderThan(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	deleted := 0
	for _, r := range s.records {
		if r.ComputedAt.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return deleted, nil
}

type memCache struct {
	mu     sync.Mutex
	pass   *scoreboard.Pass
	setErr error
}

func (c *memCache) GetPass(_ context.Context) (*scoreboard.Pass, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pass, nil
}

func (c *memCache) SetPass(_ context.Context, pass *scoreboard.Pass, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.pass = pass
	return nil
}

func (c *memCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pass = nil
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturePublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) ofType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
