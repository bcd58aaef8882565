package repository

import (
	"context"
	"regexp"
	"testing"

	"faceblog/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_CreateIgnoresConflicts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "followers" .* ON CONFLICT DO NOTHING`).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_DeleteByPair(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "followers" WHERE follower_id = $1 AND followed_id = $2`)).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.Delete(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_SQLite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "ann")
	b := testutil.CreateUser(t, db, "ben")
	c := testutil.CreateUser(t, db, "cat")

	t.Run("Create is idempotent", func(t *testing.T) {
		created, err := repo.Create(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.Create(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.False(t, created)

		n, err := repo.CountFollowers(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("Edges are directed", func(t *testing.T) {
		ok, err := repo.Exists(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Lists and counts", func(t *testing.T) {
		_, err := repo.Create(ctx, c.ID, b.ID)
		require.NoError(t, err)

		followers, err := repo.ListFollowers(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, followers, 2)
		assert.Equal(t, "ann", followers[0].Username)
		assert.Equal(t, "cat", followers[1].Username)

		following, err := repo.ListFollowing(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, following, 1)
		assert.Equal(t, "ben", following[0].Username)

		n, err := repo.CountFollowing(ctx, b.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Delete missing edge is a no-op", func(t *testing.T) {
		removed, err := repo.Delete(ctx, b.ID, c.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		removed, err = repo.Delete(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.True(t, removed)
	})
}
