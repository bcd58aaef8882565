package models

import "time"

// ChatRoom is a named, append-only message log open to every authenticated user.
// Names are not unique.
type ChatRoom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (ChatRoom) TableName() string {
	return "chat_rooms"
}

// RoomMessage is immutable once stored.
type RoomMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ChatRoomID uint      `gorm:"column:chatroom_id;not null;index:idx_room_messages_room_ts,priority:1" json:"chatroom_id"`
	Timestamp  time.Time `gorm:"not null;autoCreateTime;index:idx_room_messages_room_ts,priority:2" json:"timestamp"`

	Author *User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// TableName specifies the table name for GORM
func (RoomMessage) TableName() string {
	return "room_messages"
}
