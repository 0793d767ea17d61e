// Package profile содержит доменную модель профилей QuestBoard.
// Профиль - это владелец целей, постов и социальных связей; движок подсчёта
// очков читает профили как входные данные и никогда их не удаляет.
package profile

import (
	"fmt"
	"time"

	"github.com/questboard/questboard-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ID представляет идентификатор профиля (UUID в строковом формате).
type ID string

// IsValid проверяет, что ID непустой.
func (id ID) IsValid() bool {
	return len(id) > 0
}

// String возвращает строковое представление.
func (id ID) String() string {
	return string(id)
}

// Branch представляет направление обучения (категорийная метка, например "CSE").
type Branch string

// BranchAll представляет отсутствие фильтра по направлению.
const BranchAll Branch = ""

// IsFiltered возвращает true, если это фильтр по конкретному направлению.
func (b Branch) IsFiltered() bool {
	return b != BranchAll
}

// String возвращает строковое представление направления.
func (b Branch) String() string {
	if b == BranchAll {
		return "all"
	}
	return string(b)
}

// Year представляет курс обучения (1-4).
type Year int

// YearAll представляет отсутствие фильтра по курсу.
const YearAll Year = 0

// IsValid проверяет, что курс находится в допустимом диапазоне.
func (y Year) IsValid() bool {
	return y >= 1 && y <= 4
}

// IsFiltered возвращает true, если это фильтр по конкретному курсу.
func (y Year) IsFiltered() bool {
	return y != YearAll
}

// Section представляет секцию внутри курса (опциональная метка).
type Section string

// SectionAll представляет отсутствие фильтра по секции.
const SectionAll Section = ""

// IsFiltered возвращает true, если это фильтр по конкретной секции.
func (s Section) IsFiltered() bool {
	return s != SectionAll
}

// Visibility определяет видимость профиля.
type Visibility string

const (
	// VisibilityPublic - профиль виден всем и участвует в рейтинге.
	VisibilityPublic Visibility = "public"

	// VisibilityPrivate - профиль скрыт и в рейтинг не попадает.
	VisibilityPrivate Visibility = "private"
)

// IsValid проверяет корректность видимости.
func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile представляет профиль пользователя.
// Движок читает только публичные профили: приватные не попадают в рейтинг.
type Profile struct {
	// ID - уникальный идентификатор профиля.
	ID ID

	// DisplayName - отображаемое имя.
	DisplayName string

	// Branch - направление обучения.
	Branch Branch

	// Year - курс (1-4).
	Year Year

	// Section - секция (опционально).
	Section Section

	// Visibility - видимость профиля.
	Visibility Visibility

	// CreatedAt - время создания профиля.
	CreatedAt time.Time

	// UpdatedAt - время последнего изменения.
	UpdatedAt time.Time
}

// NewProfile создаёт новый профиль с валидацией.
func NewProfile(id ID, displayName string, branch Branch, year Year, section Section, visibility Visibility) (*Profile, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidProfileID
	}
	if !year.IsValid() {
		return nil, shared.ErrInvalidYear
	}
	if !visibility.IsValid() {
		return nil, shared.ErrInvalidVisibility
	}

	now := time.Now().UTC()
	return &Profile{
		ID:          id,
		DisplayName: displayName,
		Branch:      branch,
		Year:        year,
		Section:     section,
		Visibility:  visibility,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsEligible возвращает true, если профиль участвует в рейтинге.
func (p *Profile) IsEligible() bool {
	return p.Visibility == VisibilityPublic
}

// Matches проверяет, подходит ли профиль под фильтр.
func (p *Profile) Matches(f Filter) bool {
	if f.Branch.IsFiltered() && p.Branch != f.Branch {
		return false
	}
	if f.Year.IsFiltered() && p.Year != f.Year {
		return false
	}
	if f.Section.IsFiltered() && p.Section != f.Section {
		return false
	}
	return true
}

// String возвращает строковое представление для логирования.
func (p *Profile) String() string {
	return fmt.Sprintf("Profile{ID: %s, Branch: %s, Year: %d}", p.ID, p.Branch, p.Year)
}

// Filter описывает фильтрацию профилей по атрибутам.
// Нулевое значение означает "без фильтра".
type Filter struct {
	Branch  Branch
	Year    Year
	Section Section
}

// IsEmpty возвращает true, если фильтр ничего не ограничивает.
func (f Filter) IsEmpty() bool {
	return !f.Branch.IsFiltered() && !f.Year.IsFiltered() && !f.Section.IsFiltered()
}

// ══════════════════════════════════════════════════════════════════════════════
// POST
// ══════════════════════════════════════════════════════════════════════════════

// Post представляет публикацию профиля.
// LikeCount - производное поле, пересчитываемое из рёбер лайков.
type Post struct {
	// ID - уникальный идентификатор поста.
	ID string

	// ProfileID - владелец поста.
	ProfileID ID

	// IsPublished - опубликован ли пост (черновики очков не приносят).
	IsPublished bool

	// LikeCount - количество лайков (производное из рёбер).
	LikeCount int

	// CreatedAt - время создания.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// EDGES (Like / Follow)
// ══════════════════════════════════════════════════════════════════════════════

// LikeTargetType определяет тип цели лайка.
type LikeTargetType string

const (
	// LikeTargetPost - лайк поставлен посту.
	LikeTargetPost LikeTargetType = "post"

	// LikeTargetProfile - лайк поставлен профилю.
	LikeTargetProfile LikeTargetType = "profile"
)

// IsValid проверяет корректность типа цели.
func (t LikeTargetType) IsValid() bool {
	return t == LikeTargetPost || t == LikeTargetProfile
}

// LikeEdge представляет направленное ребро лайка.
// Инвариант: не более одного ребра на пару (liker, target);
// повторный лайк снимает существующее ребро (идемпотентный toggle).
type LikeEdge struct {
	// LikerID - кто поставил лайк.
	LikerID ID

	// TargetType - тип цели (пост или профиль).
	TargetType LikeTargetType

	// TargetID - идентификатор цели.
	TargetID string

	// CreatedAt - время создания ребра.
	CreatedAt time.Time
}

// FollowEdge представляет направленное ребро подписки.
// Тот же инвариант единственности пары, что и у LikeEdge.
type FollowEdge struct {
	// FollowerID - кто подписался.
	FollowerID ID

	// FollowedID - на кого подписались.
	FollowedID ID

	// CreatedAt - время создания ребра.
	CreatedAt time.Time
}

// NewFollowEdge создаёт ребро подписки с валидацией.
func NewFollowEdge(followerID, followedID ID) (*FollowEdge, error) {
	if !followerID.IsValid() || !followedID.IsValid() {
		return nil, shared.ErrInvalidProfileID
	}
	if followerID == followedID {
		return nil, shared.ErrSelfFollow
	}
	return &FollowEdge{
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
