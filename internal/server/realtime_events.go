package server

import (
	"context"
	"encoding/json"

	"faceblog/internal/middleware"
	"faceblog/internal/notifications"
	"faceblog/internal/observability"
	"faceblog/internal/service"
)

// inboundFrame is a client-to-server realtime message.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type roomFrame struct {
	ChatRoomID uint   `json:"chatroom_id"`
	Message    string `json:"message"`
}

type directFrame struct {
	RecipientID uint   `json:"recipient_id"`
	Message     string `json:"message"`
}

// handleRealtimeFrame dispatches one inbound frame from client. Failures are
// reported back to the sender as an "error" event and never close the socket.
func (s *Server) handleRealtimeFrame(ctx context.Context, client *notifications.Client, raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		sendRealtimeError(client, "Invalid message format")
		return
	}
	observability.WebSocketEvents.WithLabelValues(frame.Event, "inbound").Inc()

	from := service.Actor{ID: client.UserID, Username: client.Username}

	switch frame.Event {
	case notifications.EventJoinRoom:
		var data roomFrame
		if !decodeFrameData(client, frame.Data, &data) {
			return
		}
		if _, err := s.rooms.GetRoom(ctx, data.ChatRoomID); err != nil {
			sendRealtimeError(client, "Chat room not found")
			return
		}
		s.hub.Subscribe(client, notifications.RoomTopic(data.ChatRoomID))

	case notifications.EventLeaveRoom:
		var data roomFrame
		if !decodeFrameData(client, frame.Data, &data) {
			return
		}
		s.hub.Unsubscribe(client, notifications.RoomTopic(data.ChatRoomID))

	case notifications.EventSendMessage:
		var data roomFrame
		if !decodeFrameData(client, frame.Data, &data) {
			return
		}
		if _, err := s.rooms.PostMessage(ctx, from, data.ChatRoomID, data.Message); err != nil {
			middleware.Logger.WarnContext(ctx, "realtime room message failed", "chatroom_id", data.ChatRoomID, "error", err)
			sendRealtimeError(client, publicMessage(err))
		}

	case notifications.EventSendDirectMessage:
		var data directFrame
		if !decodeFrameData(client, frame.Data, &data) {
			return
		}
		_, outcome, err := s.dms.Send(ctx, from, data.RecipientID, data.Message)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "realtime direct message failed", "recipient_id", data.RecipientID, "error", err)
			sendRealtimeError(client, publicMessage(err))
			return
		}
		if outcome.Rejected() {
			sendRealtimeError(client, outcome.Warning)
		}

	default:
		sendRealtimeError(client, "Unknown event: "+frame.Event)
	}
}

func decodeFrameData(client *notifications.Client, raw json.RawMessage, dst any) bool {
	if len(raw) == 0 {
		sendRealtimeError(client, "Missing event data")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		sendRealtimeError(client, "Invalid event data")
		return false
	}
	return true
}

func sendRealtimeError(client *notifications.Client, message string) {
	frame, err := json.Marshal(notifications.Event{
		Name: notifications.EventError,
		Data: map[string]string{"message": message},
	})
	if err != nil {
		return
	}
	client.TrySend(frame)
}
