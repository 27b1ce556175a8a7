package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/utils/pagination"
)

// MatchEntry is one row of a user's match list.
type MatchEntry struct {
	UserID          uint64    `json:"userId"`
	Nickname        string    `json:"nickname"`
	ProfileImageURL *string   `json:"profileImageUrl"`
	MatchedAt       time.Time `json:"matchedAt"`
}

// SwipeRepository is the swipe ledger. Rows are appended once per directed
// pair and only the match flag is ever updated afterwards.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Tx returns a copy of the repository that runs on tx.
func (r *SwipeRepository) Tx(tx *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: tx}
}

// Insert appends a swipe made by swiper -> target.
//
// Behavior:
//   - A second swipe on the same pair fails with gorm.ErrDuplicatedKey.
//   - The existing row is never touched.
//
// Example:
//
//	repo.Insert(ctx, 1, 2, db.DirectionLike) // user 1 liked user 2
func (r *SwipeRepository) Insert(ctx context.Context, swiperID, targetID uint64, direction db.Direction) error {
	swipe := db.Swipe{
		SwiperID:  swiperID,
		TargetID:  targetID,
		Direction: direction,
	}
	if err := r.db.WithContext(ctx).Create(&swipe).Error; err != nil {
		return fmt.Errorf("insert swipe: %w", err)
	}
	return nil
}

// HasLiked reports whether swiper has a "like" row on target.
//
// Example:
//
//	repo.HasLiked(ctx, 2, 1) // -> true if user 2 liked user 1
func (r *SwipeRepository) HasLiked(ctx context.Context, swiperID, targetID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiper_id = ? AND target_id = ? AND direction = ?", swiperID, targetID, db.DirectionLike).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check reverse like: %w", err)
	}
	return count > 0, nil
}

// MarkMatched flags both rows of the pair (a,b) as a match at the given time.
// Both rows must exist; anything else is an error so the caller's
// transaction rolls back instead of leaving a one-sided match.
func (r *SwipeRepository) MarkMatched(ctx context.Context, a, b uint64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("(swiper_id = ? AND target_id = ?) OR (swiper_id = ? AND target_id = ?)", a, b, b, a).
		Updates(map[string]any{"is_match": true, "matched_at": at})
	if res.Error != nil {
		return fmt.Errorf("mark match: %w", res.Error)
	}
	if res.RowsAffected != 2 {
		return fmt.Errorf("mark match: expected 2 rows, updated %d", res.RowsAffected)
	}
	return nil
}

// TargetsOf returns every user the swiper has already judged.
func (r *SwipeRepository) TargetsOf(ctx context.Context, swiperID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiper_id = ?", swiperID).
		Pluck("target_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list swiped targets: %w", err)
	}
	return ids, nil
}

// ListMatches returns the users matched with userID.
//
// Behavior:
//   - Reads the user's own flagged rows; the partner is the target.
//   - Ordered by matched_at DESC, target_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListMatches(ctx, 42, nil, 20) // first 20 matches of user 42
func (r *SwipeRepository) ListMatches(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]MatchEntry, *string, error) {
	entries := make([]MatchEntry, 0, limit)

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("swipes s").
		Select("s.target_id AS user_id, u.nickname, u.profile_image_url, s.matched_at").
		Joins("JOIN users u ON u.id = s.target_id").
		Where("s.swiper_id = ? AND s.is_match = ?", userID, true).
		Order("s.matched_at DESC, s.target_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.MatchedUnix).UTC()
		query = query.Where(
			"(s.matched_at < ? OR (s.matched_at = ? AND s.target_id < ?))",
			ts, ts, cursor.UserID,
		)
	}

	if err := query.Scan(&entries).Error; err != nil {
		return nil, nil, fmt.Errorf("list matches: %w", err)
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(entries) > limit {
		last := entries[limit-1]
		token, err := pagination.Encode(pagination.Cursor{
			UserID:      last.UserID,
			MatchedUnix: last.MatchedAt.UnixMilli(),
		})
		if err != nil {
			return nil, nil, err
		}
		nextToken = &token
		entries = entries[:limit]
	}

	return entries, nextToken, nil
}

// CountMatches returns how many matches userID has.
// Used in conjunction with the Redis cache (DB is fallback).
func (r *SwipeRepository) CountMatches(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("swiper_id = ? AND is_match = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
