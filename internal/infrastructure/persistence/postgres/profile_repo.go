package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements profile.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// GetEligible returns all public profiles, the full population of one
// scoring pass.
func (r *ProfileRepository) GetEligible(ctx context.Context) ([]*profile.Profile, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, display_name, branch, year, section, visibility, created_at, updated_at
		FROM profiles
		WHERE visibility = 'public'
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible profiles: %w", err)
	}
	defer rows.Close()

	return scanProfiles(rows)
}

// GetByID returns a profile by its identifier.
func (r *ProfileRepository) GetByID(ctx context.Context, id profile.ID) (*profile.Profile, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, display_name, branch, year, section, visibility, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, string(id))

	p, err := scanProfile(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return p, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*profile.Profile, error) {
	var p profile.Profile
	err := row.Scan(&p.ID, &p.DisplayName, &p.Branch, &p.Year, &p.Section,
		&p.Visibility, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProfiles(rows pgx.Rows) ([]*profile.Profile, error) {
	var profiles []*profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// POST REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PostRepository implements profile.PostRepository for PostgreSQL.
// Like counts are derived from like edges at read time, so the post row
// never goes stale against the edge table.
type PostRepository struct {
	conn *Connection
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(conn *Connection) *PostRepository {
	return &PostRepository{conn: conn}
}

// GetByProfiles returns the posts of the given profiles with like counts.
func (r *PostRepository) GetByProfiles(ctx context.Context, profileIDs []profile.ID) ([]*profile.Post, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(profileIDs))
	for i, id := range profileIDs {
		ids[i] = string(id)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT p.id, p.profile_id, p.is_published, COALESCE(l.cnt, 0), p.created_at
		FROM posts p
		LEFT JOIN (
			SELECT target_id, COUNT(*) AS cnt
			FROM like_edges
			WHERE target_type = 'post'
			GROUP BY target_id
		) l ON l.target_id = p.id
		WHERE p.profile_id = ANY($1)
		ORDER BY p.created_at
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []*profile.Post
	for rows.Next() {
		var p profile.Post
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.IsPublished, &p.LikeCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGAGEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EngagementRepository implements profile.EngagementRepository for PostgreSQL.
type EngagementRepository struct {
	conn *Connection
}

// NewEngagementRepository creates a new EngagementRepository.
func NewEngagementRepository(conn *Connection) *EngagementRepository {
	return &EngagementRepository{conn: conn}
}

// ToggleLike flips a like edge. The insert is keyed on the full edge, so a
// racing duplicate insert conflicts instead of creating a second edge; the
// insert-or-delete pair runs in one transaction, so a toggle never half-applies.
func (r *EngagementRepository) ToggleLike(ctx context.Context, likerID profile.ID, targetType profile.LikeTargetType, targetID string) (bool, error) {
	var liked bool
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO like_edges (liker_id, target_type, target_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (liker_id, target_type, target_id) DO NOTHING
		`, string(likerID), string(targetType), targetID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			liked = true
			return nil
		}

		// The edge already existed: the toggle removes it.
		_, err = tx.Exec(ctx, `
			DELETE FROM like_edges
			WHERE liker_id = $1 AND target_type = $2 AND target_id = $3
		`, string(likerID), string(targetType), targetID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}
	return liked, nil
}

// ToggleFollow flips a follow edge.
func (r *EngagementRepository) ToggleFollow(ctx context.Context, followerID, followedID profile.ID) (bool, error) {
	if followerID == followedID {
		return false, shared.ErrSelfFollow
	}

	var following bool
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO follow_edges (follower_id, followed_id)
			VALUES ($1, $2)
			ON CONFLICT (follower_id, followed_id) DO NOTHING
		`, string(followerID), string(followedID))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			following = true
			return nil
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM follow_edges
			WHERE follower_id = $1 AND followed_id = $2
		`, string(followerID), string(followedID))
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle follow: %w", err)
	}
	return following, nil
}

// CountLikes returns like counts per target. Targets without likes are
// absent from the map.
func (r *EngagementRepository) CountLikes(ctx context.Context, targetType profile.LikeTargetType, targetIDs []string) (map[string]int, error) {
	if len(targetIDs) == 0 {
		return map[string]int{}, nil
	}

	rows, err := r.conn.Query(ctx, `
		SELECT target_id, COUNT(*)
		FROM like_edges
		WHERE target_type = $1 AND target_id = ANY($2)
		GROUP BY target_id
	`, string(targetType), targetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan like count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// CountFollowers returns follower counts per profile.
func (r *EngagementRepository) CountFollowers(ctx context.Context, profileIDs []profile.ID) (map[profile.ID]int, error) {
	if len(profileIDs) == 0 {
		return map[profile.ID]int{}, nil
	}

	ids := make([]string, len(profileIDs))
	for i, id := range profileIDs {
		ids[i] = string(id)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT followed_id, COUNT(*)
		FROM follow_edges
		WHERE followed_id = ANY($1)
		GROUP BY followed_id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count followers: %w", err)
	}
	defer rows.Close()

	counts := make(map[profile.ID]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan follower count: %w", err)
		}
		counts[profile.ID(id)] = n
	}
	return counts, rows.Err()
}
