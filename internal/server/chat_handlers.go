package server

import (
	"faceblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type messageForm struct {
	Message string `json:"message" form:"message"`
}

// GetChatRooms handles GET /chatrooms
// @Summary List chat rooms
// @Tags chat
// @Produce json
// @Success 200 {array} models.ChatRoom
// @Router /chatrooms [get]
func (s *Server) GetChatRooms(c *fiber.Ctx) error {
	rooms, err := s.rooms.ListRooms(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(rooms)
}

// CreateChatRoom handles POST /chatroom/new
// @Summary Create chat room
// @Description Names need not be unique.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body validation.ChatRoomForm true "Room"
// @Success 201 {object} Flash
// @Router /chatroom/new [post]
func (s *Server) CreateChatRoom(c *fiber.Ctx) error {
	var form validation.ChatRoomForm
	if err := parseForm(c, &form, validation.ValidateChatRoom); err != nil {
		return nil
	}
	room, err := s.rooms.CreateRoom(c.UserContext(), form.Name)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(Flash{
		Message:  "Chat room created!",
		Redirect: roomPath(room.ID),
		Data:     room,
	})
}

// GetChatRoom handles GET /chatroom/:id
// @Summary Room with its full message log
// @Tags chat
// @Produce json
// @Param id path int true "Room ID"
// @Success 200 {object} object{chatroom=models.ChatRoom,messages=[]models.RoomMessage}
// @Failure 404 {object} models.ErrorResponse
// @Router /chatroom/{id} [get]
func (s *Server) GetChatRoom(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	room, messages, err := s.rooms.ListMessages(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"chatroom": room,
		"messages": messages,
	})
}

// SendRoomMessage handles POST /chatroom/:id/send
// @Summary Post to a room
// @Description Appends and broadcasts receive_message. A blank message is ignored.
// @Tags chat
// @Accept json
// @Produce json
// @Param id path int true "Room ID"
// @Param request body object{message=string} true "Message"
// @Success 200 {object} object{sent=bool,redirect=string}
// @Router /chatroom/{id}/send [post]
func (s *Server) SendRoomMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var form messageForm
	if err := parseForm[messageForm](c, &form, nil); err != nil {
		return nil
	}

	msg, err := s.rooms.PostMessage(c.UserContext(), actor(c), id, form.Message)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"sent":     msg != nil,
		"message":  msg,
		"redirect": roomPath(id),
	})
}

// GetConversations handles GET /dms
// @Summary Conversation partners
// @Description Everyone the caller has sent to or received from, ordered by username.
// @Tags dms
// @Produce json
// @Success 200 {array} models.User
// @Router /dms [get]
func (s *Server) GetConversations(c *fiber.Ctx) error {
	users, err := s.dms.Conversations(c.UserContext(), actor(c).ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetThread handles GET /dm/:id
// @Summary Conversation thread
// @Description Messages in both directions, oldest first.
// @Tags dms
// @Produce json
// @Param id path int true "Other user ID"
// @Success 200 {object} service.Thread
// @Failure 404 {object} models.ErrorResponse
// @Router /dm/{id} [get]
func (s *Server) GetThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	thread, outcome, err := s.dms.Thread(c.UserContext(), actor(c).ID, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	if outcome.Rejected() {
		return respondRejected(c, fiber.StatusOK, outcome, "/dms")
	}
	return c.JSON(thread)
}

// SendDirectMessage handles POST /dm/:id
// @Summary Send a direct message
// @Description Persists and notifies both participants. Messaging yourself returns a warning.
// @Tags dms
// @Accept json
// @Produce json
// @Param id path int true "Recipient ID"
// @Param request body validation.DirectMessageForm true "Message"
// @Success 201 {object} Flash
// @Router /dm/{id} [post]
func (s *Server) SendDirectMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var form validation.DirectMessageForm
	if err := parseForm(c, &form, validation.ValidateDirectMessage); err != nil {
		return nil
	}

	msg, outcome, err := s.dms.Send(c.UserContext(), actor(c), id, form.Content)
	if err != nil {
		return respondServiceError(c, err)
	}
	if outcome.Rejected() {
		return respondRejected(c, fiber.StatusOK, outcome, "/dms")
	}
	if msg == nil {
		return c.JSON(fiber.Map{"sent": false, "redirect": dmPath(id)})
	}
	return c.Status(fiber.StatusCreated).JSON(Flash{
		Message:  "Message sent!",
		Redirect: dmPath(id),
		Data:     msg,
	})
}
