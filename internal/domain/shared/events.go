// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the scoring engine.
const (
	// Goal events
	EventGoalCompleted   EventType = "goal.completed"
	EventProgressUpdated EventType = "goal.progress_updated"
	EventMetricMutated   EventType = "goal.metric_mutated"

	// Scoreboard events
	EventScoresRecomputed EventType = "scoreboard.recomputed"
	EventRankChanged      EventType = "scoreboard.rank_changed"

	// Engagement events
	EventLikeToggled   EventType = "profile.like_toggled"
	EventFollowToggled EventType = "profile.follow_toggled"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Goal Events
// ═══════════════════════════════════════════════════════════════════════════

// GoalCompletedEvent is emitted when progress reaches 100 and the engine
// forces the goal into the completed state.
type GoalCompletedEvent struct {
	BaseEvent
	ProfileID string `json:"profile_id"`
	Progress  int    `json:"progress"`
}

// Payload implements Event interface.
func (e GoalCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id": e.ProfileID,
		"progress":   e.Progress,
	}
}

// NewGoalCompletedEvent creates a new GoalCompletedEvent.
func NewGoalCompletedEvent(goalID, profileID string, progress int) GoalCompletedEvent {
	return GoalCompletedEvent{
		BaseEvent: NewBaseEvent(EventGoalCompleted, goalID),
		ProfileID: profileID,
		Progress:  progress,
	}
}

// ProgressUpdatedEvent is emitted after a metric mutation recomputes the
// owning goal's progress.
type ProgressUpdatedEvent struct {
	BaseEvent
	ProfileID   string `json:"profile_id"`
	OldProgress int    `json:"old_progress"`
	NewProgress int    `json:"new_progress"`
}

// Payload implements Event interface.
func (e ProgressUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id":   e.ProfileID,
		"old_progress": e.OldProgress,
		"new_progress": e.NewProgress,
	}
}

// NewProgressUpdatedEvent creates a new ProgressUpdatedEvent.
func NewProgressUpdatedEvent(goalID, profileID string, oldProgress, newProgress int) ProgressUpdatedEvent {
	return ProgressUpdatedEvent{
		BaseEvent:   NewBaseEvent(EventProgressUpdated, goalID),
		ProfileID:   profileID,
		OldProgress: oldProgress,
		NewProgress: newProgress,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Scoreboard Events
// ═══════════════════════════════════════════════════════════════════════════

// ScoresRecomputedEvent is emitted when a full score pass completes.
type ScoresRecomputedEvent struct {
	BaseEvent
	PassID       string    `json:"pass_id"`
	TotalRanked  int       `json:"total_ranked"`
	ComputedAt   time.Time `json:"computed_at"`
	StoreWritten bool      `json:"store_written"`
}

// Payload implements Event interface.
func (e ScoresRecomputedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"pass_id":       e.PassID,
		"total_ranked":  e.TotalRanked,
		"computed_at":   e.ComputedAt,
		"store_written": e.StoreWritten,
	}
}

// NewScoresRecomputedEvent creates a new ScoresRecomputedEvent.
func NewScoresRecomputedEvent(passID string, totalRanked int, computedAt time.Time, storeWritten bool) ScoresRecomputedEvent {
	return ScoresRecomputedEvent{
		BaseEvent:    NewBaseEvent(EventScoresRecomputed, passID),
		PassID:       passID,
		TotalRanked:  totalRanked,
		ComputedAt:   computedAt,
		StoreWritten: storeWritten,
	}
}

// RankChangedEvent is emitted when a profile's rank differs from the
// previous score pass.
type RankChangedEvent struct {
	BaseEvent
	OldRank int `json:"old_rank"`
	NewRank int `json:"new_rank"`
}

// Payload implements Event interface.
func (e RankChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_rank": e.OldRank,
		"new_rank": e.NewRank,
	}
}

// NewRankChangedEvent creates a new RankChangedEvent.
func NewRankChangedEvent(profileID string, oldRank, newRank int) RankChangedEvent {
	return RankChangedEvent{
		BaseEvent: NewBaseEvent(EventRankChanged, profileID),
		OldRank:   oldRank,
		NewRank:   newRank,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Engagement Events
// ═══════════════════════════════════════════════════════════════════════════

// LikeToggledEvent is emitted when a like edge is created or removed.
type LikeToggledEvent struct {
	BaseEvent
	TargetType string `json:"target_type"` // "post" or "profile"
	TargetID   string `json:"target_id"`
	Liked      bool   `json:"liked"` // true = edge created, false = removed
}

// Payload implements Event interface.
func (e LikeToggledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"target_type": e.TargetType,
		"target_id":   e.TargetID,
		"liked":       e.Liked,
	}
}

// NewLikeToggledEvent creates a new LikeToggledEvent.
func NewLikeToggledEvent(likerID, targetType, targetID string, liked bool) LikeToggledEvent {
	return LikeToggledEvent{
		BaseEvent:  NewBaseEvent(EventLikeToggled, likerID),
		TargetType: targetType,
		TargetID:   targetID,
		Liked:      liked,
	}
}

// FollowToggledEvent is emitted when a follow edge is created or removed.
type FollowToggledEvent struct {
	BaseEvent
	FollowedID string `json:"followed_id"`
	Following  bool   `json:"following"`
}

// Payload implements Event interface.
func (e FollowToggledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"followed_id": e.FollowedID,
		"following":   e.Following,
	}
}

// NewFollowToggledEvent creates a new FollowToggledEvent.
func NewFollowToggledEvent(followerID, followedID string, following bool) FollowToggledEvent {
	return FollowToggledEvent{
		BaseEvent:  NewBaseEvent(EventFollowToggled, followerID),
		FollowedID: followedID,
		Following:  following,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Publishing
// ═══════════════════════════════════════════════════════════════════════════

// EventPublisher publishes domain events to interested subscribers.
// The implementation lives in the infrastructure layer.
type EventPublisher interface {
	// Publish publishes an event. Must not block domain logic.
	Publish(event Event) error
}

// EventHandler handles a single domain event.
type EventHandler interface {
	// Handle processes the event.
	Handle(event Event) error

	// EventTypes returns the event types this handler is interested in.
	EventTypes() []EventType
}

// EventBus is a publisher with subscription management.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// Register subscribes a handler to every type it declares.
	Register(handler EventHandler) error

	// Close shuts the bus down, waiting for in-flight handlers.
	Close() error
}

// NoopPublisher is an EventPublisher that discards all events.
// Useful for tests and for running the engine without a bus.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(Event) error { return nil }
