package models

import "time"

// Post is an authored article. DatePosted is set once at creation.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:100;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	ImageFile  string    `gorm:"size:64" json:"image_file,omitempty"`
	DatePosted time.Time `gorm:"column:date_posted;not null;autoCreateTime;index" json:"date_posted"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	CategoryID *uint     `gorm:"index" json:"category_id,omitempty"`

	// Populated only by repository methods that preload them explicitly.
	Author   *User     `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// Category groups posts.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

// TableName specifies the table name for GORM
func (Category) TableName() string {
	return "categories"
}
