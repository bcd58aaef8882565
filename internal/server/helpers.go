package server

import (
	"errors"
	"fmt"
	"strconv"

	"faceblog/internal/middleware"
	"faceblog/internal/models"
	"faceblog/internal/service"
	"faceblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// SoftRejection is returned when a request was understood but refused
// without an error, the JSON form of a redirect with a flash message.
type SoftRejection struct {
	Warning  string `json:"warning"`
	Redirect string `json:"redirect"`
}

// Flash is a successful mutation with the message a browser would flash.
type Flash struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// actor returns the authenticated user set by TokenManager.Required.
func actor(c *fiber.Ctx) service.Actor {
	id, _ := c.Locals("userID").(uint)
	username, _ := c.Locals("username").(string)
	return service.Actor{ID: id, Username: username}
}

// parseForm binds a JSON or form body into dst and runs validate on it.
// On failure it writes the response and returns errResponseWritten.
func parseForm[T any](c *fiber.Ctx, dst *T, validate func(T) validation.Errors) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	if validate == nil {
		return nil
	}
	if err := validate(*dst).Err(); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, err)
		return errResponseWritten
	}
	return nil
}

// respondServiceError maps an AppError code to its HTTP status.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	status := fiber.StatusInternalServerError
	switch appErr.Code {
	case models.CodeNotFound:
		status = fiber.StatusNotFound
	case models.CodeValidation:
		status = fiber.StatusBadRequest
	case models.CodeUnauthorized:
		status = fiber.StatusUnauthorized
	case models.CodeForbidden:
		status = fiber.StatusForbidden
	case models.CodeConflict:
		status = fiber.StatusConflict
	default:
		middleware.Logger.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, status, err)
}

// respondRejected writes a soft rejection. Ownership refusals use 403;
// self-targeted actions are not errors and use 200.
func respondRejected(c *fiber.Ctx, status int, outcome service.Outcome, redirect string) error {
	return c.Status(status).JSON(SoftRejection{Warning: outcome.Warning, Redirect: redirect})
}

func postPath(id uint) string {
	return "/post/" + strconv.FormatUint(uint64(id), 10)
}

func roomPath(id uint) string {
	return fmt.Sprintf("/chatroom/%d", id)
}

func dmPath(id uint) string {
	return fmt.Sprintf("/dm/%d", id)
}

// publicMessage is the client-safe text of err.
func publicMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
		return appErr.Message
	}
	return "Internal server error"
}
