package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

func TestToggleLike_FlipsEdge(t *testing.T) {
	repo := newMemEngagementRepo()
	pub := &capturePublisher{}
	h := NewToggleEngagementHandler(repo, pub)

	cmd := ToggleLikeCommand{LikerID: "p1", TargetType: profile.LikeTargetPost, TargetID: "post-1"}

	res, err := h.HandleLike(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, res.Liked)

	res, err = h.HandleLike(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, res.Liked)

	// Пара повторов возвращает состояние к исходному.
	counts, err := repo.CountLikes(context.Background(), profile.LikeTargetPost, []string{"post-1"})
	require.NoError(t, err)
	assert.Zero(t, counts["post-1"])
	assert.Len(t, pub.ofType(shared.EventLikeToggled), 2)
}

func TestToggleLike_ProfileTarget(t *testing.T) {
	repo := newMemEngagementRepo()
	h := NewToggleEngagementHandler(repo, nil)

	res, err := h.HandleLike(context.Background(), ToggleLikeCommand{
		LikerID:    "p1",
		TargetType: profile.LikeTargetProfile,
		TargetID:   "p2",
	})

	require.NoError(t, err)
	assert.True(t, res.Liked)
}

func TestToggleLike_InvalidTarget(t *testing.T) {
	h := NewToggleEngagementHandler(newMemEngagementRepo(), nil)

	_, err := h.HandleLike(context.Background(), ToggleLikeCommand{
		LikerID:    "p1",
		TargetType: "comment",
		TargetID:   "c1",
	})

	assert.ErrorIs(t, err, shared.ErrInvalidLikeTarget)
}

func TestToggleFollow_FlipsEdge(t *testing.T) {
	repo := newMemEngagementRepo()
	pub := &capturePublisher{}
	h := NewToggleEngagementHandler(repo, pub)

	cmd := ToggleFollowCommand{FollowerID: "p1", FollowedID: "p2"}

	res, err := h.HandleFollow(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, res.Following)

	res, err = h.HandleFollow(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, res.Following)

	followers, err := repo.CountFollowers(context.Background(), []profile.ID{"p2"})
	require.NoError(t, err)
	assert.Zero(t, followers["p2"])
	assert.Len(t, pub.ofType(shared.EventFollowToggled), 2)
}

func TestToggleFollow_RejectsSelfFollow(t *testing.T) {
	h := NewToggleEngagementHandler(newMemEngagementRepo(), nil)

	_, err := h.HandleFollow(context.Background(), ToggleFollowCommand{
		FollowerID: "p1",
		FollowedID: "p1",
	})

	assert.ErrorIs(t, err, shared.ErrSelfFollow)
}

func TestToggleFollow_IndependentDirections(t *testing.T) {
	repo := newMemEngagementRepo()
	h := NewToggleEngagementHandler(repo, nil)

	_, err := h.HandleFollow(context.Background(), ToggleFollowCommand{FollowerID: "p1", FollowedID: "p2"})
	require.NoError(t, err)
	_, err = h.HandleFollow(context.Background(), ToggleFollowCommand{FollowerID: "p2", FollowedID: "p1"})
	require.NoError(t, err)

	followers, err := repo.CountFollowers(context.Background(), []profile.ID{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, 1, followers["p1"])
	assert.Equal(t, 1, followers["p2"])
}
