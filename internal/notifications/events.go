// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Outbound event names.
const (
	EventReceiveMessage       = "receive_message"
	EventReceiveDirectMessage = "receive_direct_message"
)

// Inbound event names.
const (
	EventSendMessage       = "send_message"
	EventSendDirectMessage = "send_direct_message"
	EventJoinRoom          = "join_room"
	EventLeaveRoom         = "leave_room"
	EventError             = "error"
)

// TimestampLayout formats DM timestamps the way clients display them.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	roomTopicPrefix = "room:"
	userTopicPrefix = "user:"
)

// Event is the frame exchanged over the realtime channel.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// RoomMessagePayload is the data of a receive_message event.
type RoomMessagePayload struct {
	ChatRoomID uint   `json:"chatroom_id"`
	Message    string `json:"message"`
	Username   string `json:"username"`
	UserID     uint   `json:"user_id"`
	Timestamp  string `json:"timestamp"`
}

// DirectMessagePayload is the data of a receive_direct_message event.
type DirectMessagePayload struct {
	SenderID       uint   `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	RecipientID    uint   `json:"recipient_id"`
	Message        string `json:"message"`
	Timestamp      string `json:"timestamp"`
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Publisher delivers an event to every current observer of topic. Delivery is
// best-effort: observers that are not connected never see the event.
type Publisher interface {
	Notify(ctx context.Context, topic string, event Event) error
}

// RoomTopic is the topic observed by viewers of a chat room.
func RoomTopic(roomID uint) string {
	return roomTopicPrefix + strconv.FormatUint(uint64(roomID), 10)
}

// UserTopic is the topic observed by every connection of a user.
func UserTopic(userID uint) string {
	return userTopicPrefix + strconv.FormatUint(uint64(userID), 10)
}

// TopicKind returns "room", "user" or "unknown" for metrics labels.
func TopicKind(topic string) string {
	switch {
	case strings.HasPrefix(topic, roomTopicPrefix):
		return "room"
	case strings.HasPrefix(topic, userTopicPrefix):
		return "user"
	default:
		return "unknown"
	}
}
