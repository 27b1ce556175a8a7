package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaker/internal/db"
)

// Candidate is the public projection of a user shown in a candidate list.
// It never carries credentials.
type Candidate struct {
	ID              uint64    `json:"id"`
	Email           string    `json:"email"`
	Nickname        string    `json:"nickname"`
	Gender          string    `json:"gender"`
	BirthDate       time.Time `json:"birth_date"`
	Bio             *string   `json:"bio"`
	ProfileImageURL *string   `json:"profile_image_url"`
}

// CandidateQuery describes one candidate-list read.
type CandidateQuery struct {
	RequesterID uint64
	Genders     []string
	LocationID  *string
	Limit       int
}

// ProfileUpdate carries the optional profile fields a user may change.
// Nil means "leave as is".
type ProfileUpdate struct {
	Nickname        *string
	Bio             *string
	ProfileImageURL *string
	RealName        *string
	Tags            *string
	PhotoStatus     *string
	MajorID         *uint64
}

// Columns returns the column → value pairs to write. Column names come from
// this fixed list only.
func (p ProfileUpdate) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Nickname != nil {
		cols["nickname"] = *p.Nickname
	}
	if p.Bio != nil {
		cols["bio"] = *p.Bio
	}
	if p.ProfileImageURL != nil {
		cols["profile_image_url"] = *p.ProfileImageURL
	}
	if p.RealName != nil {
		cols["real_name"] = *p.RealName
	}
	if p.Tags != nil {
		cols["tags"] = *p.Tags
	}
	if p.PhotoStatus != nil {
		cols["photo_status"] = *p.PhotoStatus
	}
	if p.MajorID != nil {
		cols["major_id"] = *p.MajorID
	}
	return cols
}

// UserRepository is the user directory: lookups, profile writes and the
// candidate query.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Tx returns a copy of the repository that runs on tx.
func (r *UserRepository) Tx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// FindByID returns gorm.ErrRecordNotFound when the user does not exist.
func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail returns gorm.ErrRecordNotFound when no account uses email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. A taken email surfaces as gorm.ErrDuplicatedKey.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile writes the non-nil fields of p.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate) error {
	cols := p.Columns()
	if len(cols) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(cols).Error
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateLocation records a check-in.
func (r *UserRepository) UpdateLocation(ctx context.Context, id uint64, locationID string) error {
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).
		Update("current_location_id", locationID).Error
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

// LockPair takes row locks on both users in ascending id order and returns
// how many of them exist. Concurrent swipes between the same two users
// serialise here; the fixed order keeps opposite-direction swipes from
// deadlocking each other.
func (r *UserRepository) LockPair(ctx context.Context, a, b uint64) (int, error) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}

	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", []uint64{lo, hi}).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("lock users: %w", err)
	}
	return len(ids), nil
}

// ListCandidates returns users the requester may swipe on.
//
// Behavior:
//   - Only users whose gender is in q.Genders.
//   - Excludes the requester and everyone the requester already swiped on,
//     in either direction. The exclusion is a subquery of the same statement,
//     so it reflects one consistent snapshot.
//   - With a location, users checked in at the same place come first.
//     Then newest accounts first; id breaks ties.
//   - Location and limit are bound parameters.
//
// Example:
//
//	repo.ListCandidates(ctx, CandidateQuery{RequesterID: 1, Genders: []string{"female"}, Limit: 10})
func (r *UserRepository) ListCandidates(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	candidates := make([]Candidate, 0, q.Limit)
	if len(q.Genders) == 0 || q.Limit <= 0 {
		return candidates, nil
	}

	swiped := r.db.
		Model(&db.Swipe{}).
		Select("target_id").
		Where("swiper_id = ?", q.RequesterID)

	order := clause.Expr{SQL: "created_at DESC, id DESC", WithoutParentheses: true}
	if q.LocationID != nil {
		order = clause.Expr{
			SQL:                "CASE WHEN current_location_id = ? THEN 0 ELSE 1 END, created_at DESC, id DESC",
			Vars:               []any{*q.LocationID},
			WithoutParentheses: true,
		}
	}

	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Select("id", "email", "nickname", "gender", "birth_date", "bio", "profile_image_url").
		Where("gender IN ?", q.Genders).
		Where("id <> ?", q.RequesterID).
		Where("id NOT IN (?)", swiped).
		Order(clause.OrderBy{Expression: order}).
		Limit(q.Limit).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return candidates, nil
}
