package service

import (
	"context"
	"strings"

	"faceblog/internal/cache"
	"faceblog/internal/middleware"
	"faceblog/internal/models"
	"faceblog/internal/notifications"
	"faceblog/internal/observability"
	"faceblog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// RoomService manages chat rooms and their append-only logs.
type RoomService struct {
	rooms     repository.RoomRepository
	cache     *cache.Store
	publisher notifications.Publisher
}

// NewRoomService returns a new RoomService.
func NewRoomService(rooms repository.RoomRepository, store *cache.Store, publisher notifications.Publisher) *RoomService {
	return &RoomService{rooms: rooms, cache: store, publisher: publisher}
}

// CreateRoom allocates a room with an empty log. Names need not be unique.
func (s *RoomService) CreateRoom(ctx context.Context, name string) (*models.ChatRoom, error) {
	room := &models.ChatRoom{Name: strings.TrimSpace(name)}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// GetRoom returns a room through the cache.
func (s *RoomService) GetRoom(ctx context.Context, roomID uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.cache.Aside(ctx, cache.RoomKey(roomID), &room, cache.RoomTTL, func() error {
		found, err := s.rooms.GetByID(ctx, roomID)
		if err != nil {
			return err
		}
		room = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns every room ordered by id.
func (s *RoomService) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	return s.rooms.List(ctx)
}

// ListMessages returns the room's full log in commit order.
func (s *RoomService) ListMessages(ctx context.Context, roomID uint) (*models.ChatRoom, []*models.RoomMessage, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.rooms.ListMessages(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	return room, messages, nil
}

// PostMessage appends body to the room log and then broadcasts it to the
// room's observers. A blank body is ignored and returns nil. A failed
// broadcast is logged and never undoes the append.
func (s *RoomService) PostMessage(ctx context.Context, actor Actor, roomID uint, body string) (msg *models.RoomMessage, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "RoomService", "PostMessage",
		attribute.Int64("room.id", int64(roomID)))
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	msg = &models.RoomMessage{Content: body, UserID: actor.ID, ChatRoomID: roomID}
	if err := s.rooms.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	msg.Author = &models.User{ID: actor.ID, Username: actor.Username}
	observability.MessagesPosted.WithLabelValues("room").Inc()

	s.broadcast(ctx, actor, msg)
	return msg, nil
}

func (s *RoomService) broadcast(ctx context.Context, actor Actor, msg *models.RoomMessage) {
	if s.publisher == nil {
		return
	}
	topic := notifications.RoomTopic(msg.ChatRoomID)
	err := s.publisher.Notify(ctx, topic, notifications.Event{
		Name: notifications.EventReceiveMessage,
		Data: notifications.RoomMessagePayload{
			ChatRoomID: msg.ChatRoomID,
			Message:    msg.Content,
			Username:   actor.Username,
			UserID:     actor.ID,
			Timestamp:  notifications.FormatTimestamp(msg.Timestamp),
		},
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "room broadcast failed", "topic", topic, "error", err)
	}
}
