package seed

import (
	"context"
	"testing"

	"faceblog/internal/models"
	"faceblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDefaultFixtures(t *testing.T) {
	f := DefaultFixtures()
	keys := make([]string, 0, len(f.Categories))
	for _, c := range f.Categories {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"tech", "lifestyle", "games", "cooking", "education", "religion", "business"}, keys)
	assert.NotEmpty(t, f.ChatRooms)
}

func TestLoadFixtures_Invalid(t *testing.T) {
	_, err := LoadFixtures([]byte("categories: [oops"))
	assert.Error(t, err)

	_, err = LoadFixtures([]byte("categories:\n  - key: x\n"))
	assert.ErrorContains(t, err, "no name")
}

func TestFixturesApply_Idempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := DefaultFixtures()

	first, rooms, err := f.Apply(context.Background(), db)
	require.NoError(t, err)
	second, _, err := f.Apply(context.Background(), db)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	var categories, chatrooms int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&models.ChatRoom{}).Count(&chatrooms).Error)
	assert.Equal(t, int64(len(f.Categories)), categories)
	assert.Equal(t, int64(len(rooms)), chatrooms)
}

func TestFactory_Usernames(t *testing.T) {
	f, err := NewFactory(nil, Options{DryRun: true, FastHash: true, RandSeed: 7})
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		user, err := f.CreateUser()
		require.NoError(t, err)
		assert.LessOrEqual(t, len(user.Username), maxUsernameLen)
		assert.GreaterOrEqual(t, len(user.Username), 2)
		assert.False(t, seen[user.Username], "duplicate username %s", user.Username)
		seen[user.Username] = true
		assert.NotZero(t, user.ID)
	}
}

func TestFactory_DirectMessageToSelf(t *testing.T) {
	f, err := NewFactory(nil, Options{DryRun: true, FastHash: true})
	require.NoError(t, err)
	user := &models.User{ID: 1}
	_, err = f.CreateDirectMessage(user, user, f.pastTime())
	assert.Error(t, err)
}

func TestSeed_SQLite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	opts := Options{
		NumUsers:        6,
		NumPosts:        10,
		CommentsPerPost: 2,
		FollowsPerUser:  3,
		MessagesPerRoom: 4,
		DMsPerUser:      2,
		MaxDays:         10,
		RandSeed:        42,
		FastHash:        true,
	}

	summary, err := Seed(context.Background(), db, opts)
	require.NoError(t, err)

	count := func(model any) int {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return int(n)
	}
	assert.Equal(t, 6, count(&models.User{}))
	assert.Equal(t, summary.Posts, count(&models.Post{}))
	assert.Equal(t, 20, count(&models.Comment{}))
	assert.Equal(t, summary.Follows, count(&models.Follow{}))
	assert.Equal(t, summary.RoomMessages, count(&models.RoomMessage{}))
	assert.Equal(t, summary.DirectMessages, count(&models.DirectMessage{}))
	assert.Equal(t, 7, summary.Categories)

	var selfEdges int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = followed_id").Count(&selfEdges).Error)
	assert.Zero(t, selfEdges)

	var selfDMs int64
	require.NoError(t, db.Model(&models.DirectMessage{}).Where("sender_id = recipient_id").Count(&selfDMs).Error)
	assert.Zero(t, selfDMs)

	var user models.User
	require.NoError(t, db.First(&user).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DefaultPassword)))

	t.Run("clean and reseed", func(t *testing.T) {
		opts.ShouldClean = true
		opts.NumUsers = 2
		_, err := Seed(context.Background(), db, opts)
		require.NoError(t, err)
		assert.Equal(t, 2, count(&models.User{}))
		assert.Equal(t, 7, count(&models.Category{}))
	})
}
