package db

import (
	"time"
)

// Direction is the judgment carried by a swipe.
type Direction string

const (
	DirectionLike Direction = "like"
	DirectionNope Direction = "nope"
)

// Valid reports whether d is one of the accepted swipe directions.
func (d Direction) Valid() bool {
	return d == DirectionLike || d == DirectionNope
}

// User table.
//
// Tags, PhotoStatus and MajorID are stored as given; nothing in the service
// interprets them.
type User struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement"`
	Email             string    `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash      string    `gorm:"size:255;not null"`
	Nickname          string    `gorm:"size:64;not null"`
	RealName          *string   `gorm:"size:64"`
	Gender            string    `gorm:"size:16;not null;index:idx_users_gender_created,priority:1"`
	BirthDate         time.Time `gorm:"type:date;not null"`
	Bio               *string   `gorm:"type:text"`
	ProfileImageURL   *string   `gorm:"size:512"`
	Tags              string    `gorm:"size:255"`
	PhotoStatus       string    `gorm:"size:8;default:no"`
	MajorID           *uint64
	CurrentLocationID *string   `gorm:"size:64;index"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index:idx_users_gender_created,priority:2,sort:desc"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// Swipe is one user's like/nope judgment on another.
//
// Composite PK: (SwiperID, TargetID)
//   - At most one row per directed pair. A repeat swipe is rejected, never overwritten.
//
// Indexes:
//   - idx_target_swiper_direction(target_id, swiper_id, direction)
//     Serves the reverse-like lookup done on every "like".
//   - idx_swiper_match_matched(swiper_id, is_match, matched_at DESC)
//     Serves the "my matches" list and count.
//
// Rows are immutable apart from IsMatch/MatchedAt, which flip once when the
// pair becomes mutual. Both rows of a match are always flagged together.
type Swipe struct {
	SwiperID  uint64     `gorm:"primaryKey;autoIncrement:false;index:idx_target_swiper_direction,priority:2;index:idx_swiper_match_matched,priority:1"`
	TargetID  uint64     `gorm:"primaryKey;autoIncrement:false;index:idx_target_swiper_direction,priority:1"`
	Direction Direction  `gorm:"size:8;not null;index:idx_target_swiper_direction,priority:3"`
	IsMatch   bool       `gorm:"not null;default:false;index:idx_swiper_match_matched,priority:2"`
	MatchedAt *time.Time `gorm:"index:idx_swiper_match_matched,priority:3,sort:desc"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}
