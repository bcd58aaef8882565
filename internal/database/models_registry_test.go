package database

import (
	"testing"

	"faceblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPersistentModels_IncludesMessagingTables(t *testing.T) {
	var hasFollow, hasRoomMessage, hasDM bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Follow:
			hasFollow = true
		case *models.RoomMessage:
			hasRoomMessage = true
		case *models.DirectMessage:
			hasDM = true
		}
	}
	assert.True(t, hasFollow, "PersistentModels should include Follow")
	assert.True(t, hasRoomMessage, "PersistentModels should include RoomMessage")
	assert.True(t, hasDM, "PersistentModels should include DirectMessage")
}

func TestApplySchema_SQLiteAutoMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, ApplySchema(t.Context(), db))

	for _, table := range []string{"users", "posts", "comments", "categories", "followers", "chat_rooms", "room_messages", "direct_messages"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	status, err := GetSchemaStatus(t.Context(), db)
	require.NoError(t, err)
	assert.False(t, status.UsesSQLMigrations)
	assert.Equal(t, "sqlite", status.Driver)
}

func TestFollowCompositeKeyRejectsDuplicates(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, ApplySchema(t.Context(), db))

	require.NoError(t, db.Create(&models.Follow{FollowerID: 1, FollowedID: 2}).Error)
	assert.Error(t, db.Create(&models.Follow{FollowerID: 1, FollowedID: 2}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: 2, FollowedID: 1}).Error)
}
