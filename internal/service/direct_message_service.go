package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"faceblog/internal/middleware"
	"faceblog/internal/models"
	"faceblog/internal/notifications"
	"faceblog/internal/observability"
	"faceblog/internal/repository"
)

// Thread is one side's view of a conversation.
type Thread struct {
	Counterpart *models.User            `json:"counterpart"`
	Messages    []*models.DirectMessage `json:"messages"`
}

// DirectMessageService sends private messages and derives conversations.
type DirectMessageService struct {
	messages  repository.DirectMessageRepository
	users     repository.UserRepository
	publisher notifications.Publisher
}

// NewDirectMessageService returns a new DirectMessageService.
func NewDirectMessageService(
	messages repository.DirectMessageRepository,
	users repository.UserRepository,
	publisher notifications.Publisher,
) *DirectMessageService {
	return &DirectMessageService{messages: messages, users: users, publisher: publisher}
}

// Send stores a message from actor to recipientID and notifies both users.
// Messaging oneself is softly refused. A blank body stores nothing and
// returns a nil message without a warning.
func (s *DirectMessageService) Send(ctx context.Context, actor Actor, recipientID uint, body string) (msg *models.DirectMessage, outcome Outcome, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "DirectMessageService", "Send")
	defer func() { observability.EndSpan(span, err) }()

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, Outcome{}, err
	}
	if recipient.ID == actor.ID {
		return nil, rejected(WarnSelfChat), nil
	}
	if strings.TrimSpace(body) == "" {
		return nil, Outcome{}, nil
	}
	if utf8.RuneCountInString(body) > models.MaxDirectMessageLength {
		return nil, Outcome{}, models.NewFieldValidationError(map[string]string{"content": MsgMessageTooLong})
	}

	msg = &models.DirectMessage{SenderID: actor.ID, RecipientID: recipient.ID, Content: body}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, Outcome{}, err
	}
	msg.Sender = &models.User{ID: actor.ID, Username: actor.Username}
	observability.MessagesPosted.WithLabelValues("direct").Inc()

	s.notify(ctx, actor, msg)
	return msg, Outcome{Changed: true}, nil
}

func (s *DirectMessageService) notify(ctx context.Context, actor Actor, msg *models.DirectMessage) {
	if s.publisher == nil {
		return
	}
	event := notifications.Event{
		Name: notifications.EventReceiveDirectMessage,
		Data: notifications.DirectMessagePayload{
			SenderID:       actor.ID,
			SenderUsername: actor.Username,
			RecipientID:    msg.RecipientID,
			Message:        msg.Content,
			Timestamp:      notifications.FormatTimestamp(msg.Timestamp),
		},
	}
	for _, topic := range []string{notifications.UserTopic(msg.RecipientID), notifications.UserTopic(actor.ID)} {
		if err := s.publisher.Notify(ctx, topic, event); err != nil {
			middleware.Logger.WarnContext(ctx, "direct message notify failed", "topic", topic, "error", err)
		}
	}
}

// Conversations lists everyone actor has exchanged a message with, ordered
// by username.
func (s *DirectMessageService) Conversations(ctx context.Context, actorID uint) ([]models.User, error) {
	return s.messages.ListCounterparties(ctx, actorID)
}

// Thread returns every message between actor and otherID, oldest first.
// Opening a thread with oneself is softly refused.
func (s *DirectMessageService) Thread(ctx context.Context, actorID, otherID uint) (*Thread, Outcome, error) {
	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		return nil, Outcome{}, err
	}
	if other.ID == actorID {
		return nil, rejected(WarnSelfChat), nil
	}
	messages, err := s.messages.Thread(ctx, actorID, otherID)
	if err != nil {
		return nil, Outcome{}, err
	}
	return &Thread{Counterpart: other, Messages: messages}, Outcome{}, nil
}
