// Package profile содержит доменную модель профилей QuestBoard.
package profile

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт чтения профилей.
// Реализация находится в infrastructure слое (PostgreSQL).
type Repository interface {
	// GetEligible возвращает все публичные профили.
	// Это полная популяция для одного прохода подсчёта очков.
	GetEligible(ctx context.Context) ([]*Profile, error)

	// GetByID возвращает профиль по идентификатору.
	GetByID(ctx context.Context, id ID) (*Profile, error)
}

// PostRepository определяет контракт чтения постов.
type PostRepository interface {
	// GetByProfiles возвращает посты указанных профилей.
	GetByProfiles(ctx context.Context, profileIDs []ID) ([]*Post, error)
}

// EngagementRepository определяет контракт работы с рёбрами лайков и подписок.
type EngagementRepository interface {
	// ToggleLike атомарно переключает ребро лайка для пары (liker, target).
	// Возвращает true, если ребро создано, false - если снято.
	ToggleLike(ctx context.Context, likerID ID, targetType LikeTargetType, targetID string) (bool, error)

	// ToggleFollow атомарно переключает ребро подписки.
	// Возвращает true, если ребро создано, false - если снято.
	ToggleFollow(ctx context.Context, followerID, followedID ID) (bool, error)

	// CountLikes возвращает количество лайков по целям указанного типа.
	// Ключ карты - идентификатор цели; отсутствие ключа означает ноль.
	CountLikes(ctx context.Context, targetType LikeTargetType, targetIDs []string) (map[string]int, error)

	// CountFollowers возвращает количество подписчиков по профилям.
	CountFollowers(ctx context.Context, profileIDs []ID) (map[ID]int, error)
}
