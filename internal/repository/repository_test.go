package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	// every pooled connection would get its own empty :memory: database
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(database))
	require.NoError(t, db.SeedMinimalTestData(database))
	return database
}

func strPtr(s string) *string { return &s }

func TestInsert_RejectsRepeat(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	require.NoError(t, repo.Insert(ctx, 1, 2, db.DirectionNope))

	err := repo.Insert(ctx, 1, 2, db.DirectionLike)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// first judgment stays
	var s db.Swipe
	require.NoError(t, dbase.First(&s, "swiper_id = ? AND target_id = ?", 1, 2).Error)
	assert.Equal(t, db.DirectionNope, s.Direction)
	assert.False(t, s.IsMatch)
}

func TestHasLiked(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSwipeRepository(setupTestDB(t))

	require.NoError(t, repo.Insert(ctx, 2, 1, db.DirectionLike))
	require.NoError(t, repo.Insert(ctx, 3, 1, db.DirectionNope))

	liked, err := repo.HasLiked(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.HasLiked(ctx, 3, 1)
	require.NoError(t, err)
	assert.False(t, liked)

	liked, err = repo.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestMarkMatched_FlagsBothRows(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	require.NoError(t, repo.Insert(ctx, 1, 2, db.DirectionLike))
	require.NoError(t, repo.Insert(ctx, 2, 1, db.DirectionLike))

	at := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkMatched(ctx, 1, 2, at))

	var rows []db.Swipe
	require.NoError(t, dbase.Order("swiper_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.True(t, r.IsMatch)
		require.NotNil(t, r.MatchedAt)
		assert.True(t, at.Equal(*r.MatchedAt))
	}
}

func TestMarkMatched_OneSidedIsError(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSwipeRepository(setupTestDB(t))

	require.NoError(t, repo.Insert(ctx, 1, 2, db.DirectionLike))
	assert.Error(t, repo.MarkMatched(ctx, 1, 2, time.Now().UTC()))
}

func TestTargetsOf(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSwipeRepository(setupTestDB(t))

	require.NoError(t, repo.Insert(ctx, 1, 2, db.DirectionLike))
	require.NoError(t, repo.Insert(ctx, 1, 3, db.DirectionNope))
	require.NoError(t, repo.Insert(ctx, 2, 1, db.DirectionLike))

	ids, err := repo.TargetsOf(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3}, ids)
}

func TestListMatchesAndPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewSwipeRepository(dbase)

	base := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	for i, target := range []uint64{2, 3} {
		require.NoError(t, repo.Insert(ctx, 1, target, db.DirectionLike))
		require.NoError(t, repo.Insert(ctx, target, 1, db.DirectionLike))
		require.NoError(t, repo.MarkMatched(ctx, 1, target, base.Add(time.Duration(i)*time.Minute)))
	}

	page, next, err := repo.ListMatches(ctx, 1, nil, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.NotNil(t, next)
	assert.Equal(t, uint64(3), page[0].UserID)
	assert.Equal(t, "user3", page[0].Nickname)

	page, next, err = repo.ListMatches(ctx, 1, next, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Nil(t, next)
	assert.Equal(t, uint64(2), page[0].UserID)

	n, err := repo.CountMatches(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.CountMatches(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestListMatches_BadToken(t *testing.T) {
	repo := repository.NewSwipeRepository(setupTestDB(t))
	_, _, err := repo.ListMatches(context.Background(), 1, strPtr("%%%"), 10)
	assert.Error(t, err)
}

func TestListCandidates_LocationFirstThenNewest(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))

	got, err := repo.ListCandidates(ctx, repository.CandidateQuery{
		RequesterID: 1,
		Genders:     []string{"female"},
		LocationID:  strPtr("X"),
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].ID)
	assert.Equal(t, uint64(3), got[1].ID)
}

func TestListCandidates_NoLocationNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))

	got, err := repo.ListCandidates(ctx, repository.CandidateQuery{
		RequesterID: 1,
		Genders:     []string{"female"},
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].ID)
	assert.Equal(t, uint64(2), got[1].ID)
}

func TestListCandidates_ExcludesSwipedAndSelf(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	users := repository.NewUserRepository(dbase)
	swipes := repository.NewSwipeRepository(dbase)

	require.NoError(t, swipes.Insert(ctx, 1, 2, db.DirectionNope))
	// someone swiping on the requester does not hide them
	require.NoError(t, swipes.Insert(ctx, 3, 1, db.DirectionLike))

	got, err := users.ListCandidates(ctx, repository.CandidateQuery{
		RequesterID: 1,
		Genders:     []string{"female", "male"},
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(3), got[0].ID)
}

func TestListCandidates_LimitAndEmptyGenders(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))

	got, err := repo.ListCandidates(ctx, repository.CandidateQuery{RequesterID: 1, Genders: []string{"female"}, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.ListCandidates(ctx, repository.CandidateQuery{RequesterID: 1, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUserLookupsAndWrites(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(setupTestDB(t))

	u, err := repo.FindByEmail(ctx, "u2@test.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), u.ID)

	_, err = repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	dup := &db.User{Email: "u2@test.com", PasswordHash: "x", Nickname: "dup", Gender: "female", BirthDate: time.Now().UTC()}
	assert.ErrorIs(t, repo.Create(ctx, dup), gorm.ErrDuplicatedKey)

	require.NoError(t, repo.UpdateProfile(ctx, 2, repository.ProfileUpdate{Nickname: strPtr("renamed"), Bio: strPtr("hi")}))
	require.NoError(t, repo.UpdateLocation(ctx, 2, "Z"))

	u, err = repo.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "renamed", u.Nickname)
	require.NotNil(t, u.Bio)
	assert.Equal(t, "hi", *u.Bio)
	require.NotNil(t, u.CurrentLocationID)
	assert.Equal(t, "Z", *u.CurrentLocationID)
}

func TestProfileUpdate_Columns(t *testing.T) {
	assert.Empty(t, repository.ProfileUpdate{}.Columns())

	major := uint64(4)
	cols := repository.ProfileUpdate{Tags: strPtr("a,b"), MajorID: &major}.Columns()
	assert.Equal(t, map[string]any{"tags": "a,b", "major_id": uint64(4)}, cols)
}

func TestLockPair(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUserRepository(dbase)

	err := repository.WithTx(ctx, dbase, 1, func(tx *gorm.DB) error {
		n, err := repo.Tx(tx).LockPair(ctx, 3, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = repo.Tx(tx).LockPair(ctx, 1, 99)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)
}

func TestWithTx_RetriesLockConflicts(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)

	calls := 0
	err := repository.WithTx(ctx, dbase, 3, func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return &gomysql.MySQLError{Number: 1213, Message: "Deadlock found"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithTx_StopsOnOtherErrors(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	swipes := repository.NewSwipeRepository(dbase)

	boom := errors.New("boom")
	calls := 0
	err := repository.WithTx(ctx, dbase, 3, func(tx *gorm.DB) error {
		calls++
		require.NoError(t, swipes.Tx(tx).Insert(ctx, 1, 2, db.DirectionLike))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	// rolled back
	liked, err := swipes.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, repository.IsRetryable(&gomysql.MySQLError{Number: 1205}))
	assert.True(t, repository.IsRetryable(&gomysql.MySQLError{Number: 1213}))
	assert.False(t, repository.IsRetryable(&gomysql.MySQLError{Number: 1062}))
	assert.False(t, repository.IsRetryable(errors.New("x")))
}
