package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedLocations = []string{"library", "student-union", "engineering-hall"}

// SeedTestData resets the database and populates it with demo users and swipes.
//
// Behavior:
//  1. Clears existing data in `swipes` and `users` tables.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords, spread over
//     three check-in locations (every 4th user has not checked in).
//  3. Generates swipes with ~70% likes; every 3rd pair also gets a reverse like,
//     and both rows are flagged as a match.
//
// Swipes are inserted with ON CONFLICT DO NOTHING: the ledger is append-only,
// so a pair drawn twice keeps its first judgment.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(db *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	if err := db.Exec("DELETE FROM swipes").Error; err != nil {
		return fmt.Errorf("failed to clear swipes: %w", err)
	}
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}

	log.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed Users (10 male, 10 female) ---
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender := "male"
		if i > 10 {
			gender = "female"
		}

		var location *string
		if i%4 != 0 {
			loc := seedLocations[i%len(seedLocations)]
			location = &loc
		}

		user := User{
			Email:             fmt.Sprintf("user%d@example.com", i),
			PasswordHash:      string(hash),
			Nickname:          fmt.Sprintf("user%d", i),
			Gender:            gender,
			BirthDate:         time.Date(1998+r.Intn(6), time.Month(1+r.Intn(12)), 1+r.Intn(28), 0, 0, 0, 0, time.UTC),
			Tags:              "music,travel",
			CurrentLocationID: location,
			CreatedAt:         time.Now().UTC().Add(-time.Duration(20-i) * time.Hour),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, user)
	}
	log.Info("seeded users", "count", len(users))

	// --- Seed Swipes ---
	counter := 0
	for _, actor := range users {
		for j := 0; j < 6; j++ {
			target := users[r.Intn(len(users))]
			if actor.ID == target.ID || actor.Gender == target.Gender {
				continue
			}

			direction := DirectionNope
			if r.Intn(100) < 70 {
				direction = DirectionLike
			}

			mutual := counter%3 == 0
			if mutual {
				direction = DirectionLike
			}

			if err := insertSeedSwipe(db, actor.ID, target.ID, direction); err != nil {
				return err
			}
			if mutual {
				if err := insertSeedSwipe(db, target.ID, actor.ID, DirectionLike); err != nil {
					return err
				}
			}
			counter++
		}
	}

	// Flag every mutual like pair, keeping both rows symmetric.
	var likes []Swipe
	if err := db.Where("direction = ?", DirectionLike).Find(&likes).Error; err != nil {
		return fmt.Errorf("failed to load seeded likes: %w", err)
	}
	liked := make(map[[2]uint64]bool, len(likes))
	for _, l := range likes {
		liked[[2]uint64{l.SwiperID, l.TargetID}] = true
	}
	now := time.Now().UTC()
	for _, l := range likes {
		if l.SwiperID > l.TargetID || !liked[[2]uint64{l.TargetID, l.SwiperID}] {
			continue
		}
		err := db.Model(&Swipe{}).
			Where("(swiper_id = ? AND target_id = ?) OR (swiper_id = ? AND target_id = ?)",
				l.SwiperID, l.TargetID, l.TargetID, l.SwiperID).
			Updates(map[string]any{"is_match": true, "matched_at": now}).Error
		if err != nil {
			return fmt.Errorf("failed to flag seeded match: %w", err)
		}
	}

	log.Info("seeded swipes", "pairs", counter)
	return nil
}

func insertSeedSwipe(db *gorm.DB, swiperID, targetID uint64, direction Direction) error {
	s := Swipe{SwiperID: swiperID, TargetID: targetID, Direction: direction}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&s).Error; err != nil {
		return fmt.Errorf("failed to seed swipe: %w", err)
	}
	return nil
}

// SeedMinimalTestData wipes the DB and inserts the small deterministic dataset
// used by service tests:
//   - user1 (male, location X), registered first
//   - user2 (female, location X), registered second
//   - user3 (female, location Y), registered third
//
// No swipes are recorded.
func SeedMinimalTestData(db *gorm.DB) error {
	if err := db.Exec("DELETE FROM swipes").Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return err
	}

	x, y := "X", "Y"
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	birth := time.Date(2000, 5, 1, 0, 0, 0, 0, time.UTC)

	users := []User{
		{ID: 1, Email: "u1@test.com", PasswordHash: "x", Nickname: "user1", Gender: "male", BirthDate: birth, CurrentLocationID: &x, CreatedAt: base},
		{ID: 2, Email: "u2@test.com", PasswordHash: "x", Nickname: "user2", Gender: "female", BirthDate: birth, CurrentLocationID: &x, CreatedAt: base.Add(time.Hour)},
		{ID: 3, Email: "u3@test.com", PasswordHash: "x", Nickname: "user3", Gender: "female", BirthDate: birth, CurrentLocationID: &y, CreatedAt: base.Add(2 * time.Hour)},
	}
	return db.Create(&users).Error
}
