package server

import (
	"context"
	"encoding/json"

	"faceblog/internal/middleware"
	"faceblog/internal/models"
	"faceblog/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade rejects plain HTTP requests to the realtime endpoint.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return models.RespondWithError(c, fiber.StatusUpgradeRequired,
		models.NewValidationError("WebSocket upgrade required"))
}

// RealtimeHandler serves GET /ws. Every connection observes its user topic;
// join_room / leave_room add and remove room topics.
func (s *Server) RealtimeHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"error","data":{"message":"unauthorized"}}`))
			_ = conn.Close()
			return
		}
		username, _ := conn.Locals("username").(string)

		client, err := s.hub.Register(userID, username, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration refused", "user_id", userID, "error", err)
			if frame, merr := json.Marshal(notifications.Event{
				Name: notifications.EventError,
				Data: map[string]string{"message": err.Error()},
			}); merr == nil {
				_ = conn.WriteMessage(websocket.TextMessage, frame)
			}
			_ = conn.Close()
			return
		}

		ctx := context.WithValue(context.Background(), middleware.UserIDKey, userID)
		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			s.handleRealtimeFrame(ctx, c, message)
		}

		middleware.Logger.InfoContext(ctx, "websocket connected", "username", username)
		go client.WritePump()
		client.ReadPump()
	})
}
