package database

import "faceblog/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
		&models.ChatRoom{},
		&models.RoomMessage{},
		&models.DirectMessage{},
	}
}
