package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/questboard/questboard-hub/internal/domain/profile"
	"github.com/questboard/questboard-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOGGLE LIKE COMMAND
// Flips a like edge: if absent - creates it, if present - removes it.
// Repeating the command returns the state to the starting point.
// ══════════════════════════════════════════════════════════════════════════════

// ToggleLikeCommand contains the data to toggle a like edge.
type ToggleLikeCommand struct {
	// LikerID is the profile performing the like.
	LikerID profile.ID

	// TargetType is what is being liked: a post or a profile.
	TargetType profile.LikeTargetType

	// TargetID is the liked entity identifier.
	TargetID string
}

// Validate validates the command.
func (c ToggleLikeCommand) Validate() error {
	if !c.LikerID.IsValid() {
		return errors.New("toggle_like: liker_id is required")
	}
	if !c.TargetType.IsValid() {
		return fmt.Errorf("toggle_like: %w", shared.ErrInvalidLikeTarget)
	}
	if c.TargetID == "" {
		return errors.New("toggle_like: target_id is required")
	}
	return nil
}

// ToggleLikeResult contains the result of the toggle.
type ToggleLikeResult struct {
	// Liked is true if the edge now exists, false if it was removed.
	Liked bool
}

// ══════════════════════════════════════════════════════════════════════════════
// TOGGLE FOLLOW COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ToggleFollowCommand contains the data to toggle a follow edge.
type ToggleFollowCommand struct {
	// FollowerID is the profile performing the follow.
	FollowerID profile.ID

	// FollowedID is the profile being followed.
	FollowedID profile.ID
}

// Validate validates the command.
func (c ToggleFollowCommand) Validate() error {
	if !c.FollowerID.IsValid() {
		return errors.New("toggle_follow: follower_id is required")
	}
	if !c.FollowedID.IsValid() {
		return errors.New("toggle_follow: followed_id is required")
	}
	if c.FollowerID == c.FollowedID {
		return fmt.Errorf("toggle_follow: %w", shared.ErrSelfFollow)
	}
	return nil
}

// ToggleFollowResult contains the result of the toggle.
type ToggleFollowResult struct {
	// Following is true if the edge now exists, false if it was removed.
	Following bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ToggleEngagementHandler handles like and follow toggles.
//
// Both toggles are atomic flips at the storage layer: there is no separate
// existence check followed by an insert, so two racing toggles of the same
// edge cannot both create it.
type ToggleEngagementHandler struct {
	engagementRepo profile.EngagementRepository
	eventPublisher shared.EventPublisher
}

// NewToggleEngagementHandler creates a new ToggleEngagementHandler.
func NewToggleEngagementHandler(
	engagementRepo profile.EngagementRepository,
	eventPublisher shared.EventPublisher,
) *ToggleEngagementHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NoopPublisher{}
	}

	return &ToggleEngagementHandler{
		engagementRepo: engagementRepo,
		eventPublisher: eventPublisher,
	}
}

// HandleLike executes the like toggle.
func (h *ToggleEngagementHandler) HandleLike(ctx context.Context, cmd ToggleLikeCommand) (*ToggleLikeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	liked, err := h.engagementRepo.ToggleLike(ctx, cmd.LikerID, cmd.TargetType, cmd.TargetID)
	if err != nil {
		return nil, fmt.Errorf("toggle_like: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewLikeToggledEvent(
		string(cmd.LikerID), string(cmd.TargetType), cmd.TargetID, liked))

	return &ToggleLikeResult{Liked: liked}, nil
}

// HandleFollow executes the follow toggle.
func (h *ToggleEngagementHandler) HandleFollow(ctx context.Context, cmd ToggleFollowCommand) (*ToggleFollowResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	following, err := h.engagementRepo.ToggleFollow(ctx, cmd.FollowerID, cmd.FollowedID)
	if err != nil {
		return nil, fmt.Errorf("toggle_follow: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewFollowToggledEvent(
		string(cmd.FollowerID), string(cmd.FollowedID), following))

	return &ToggleFollowResult{Following: following}, nil
}
