package models

import "time"

// MaxDirectMessageLength bounds DirectMessage.Content in characters.
const MaxDirectMessageLength = 500

// DirectMessage is a private, immutable message between two users.
// Conversations are derived from these rows at query time.
type DirectMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"not null;index:idx_dm_pair,priority:1" json:"sender_id"`
	RecipientID uint      `gorm:"not null;index:idx_dm_pair,priority:2;index" json:"recipient_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Timestamp   time.Time `gorm:"not null;autoCreateTime;index" json:"timestamp"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName specifies the table name for GORM
func (DirectMessage) TableName() string {
	return "direct_messages"
}
