package models

import "time"

// Comment belongs to one Post and one author. Likes is a signed counter
// with no floor and no per-user dedup.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	DatePosted time.Time `gorm:"column:date_posted;not null;autoCreateTime" json:"date_posted"`
	PostID     uint      `gorm:"not null;index" json:"post_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Likes      int       `gorm:"not null;default:0" json:"likes"`

	Author *User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}
