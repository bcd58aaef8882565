// Package models contains the persistent records and error types shared across layers.
package models

import "time"

// DefaultImageFile is the avatar reference assigned to every new account.
const DefaultImageFile = "default.jpg"

// User is a registered identity. Accounts are never hard-deleted.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"size:255;not null" json:"-"`
	ImageFile   string    `gorm:"size:64;not null;default:'default.jpg'" json:"image_file"`
	Bio         string    `gorm:"type:text" json:"bio"`
	SocialLinks string    `gorm:"size:255" json:"social_links"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// UserSummary is the public projection of a User embedded in other payloads.
type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	ImageFile string `json:"image_file"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{ID: u.ID, Username: u.Username, ImageFile: u.ImageFile}
}
