package server

import (
	"time"

	"faceblog/internal/middleware"
	"faceblog/internal/models"
	"faceblog/internal/service"
	"faceblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /register
// @Summary Register
// @Description Create an account. A welcome email is sent in the background.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.RegistrationForm true "Registration form"
// @Success 201 {object} Flash
// @Failure 400 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var form validation.RegistrationForm
	if err := parseForm(c, &form, validation.ValidateRegistration); err != nil {
		return nil
	}

	user, err := s.identity.Register(c.UserContext(), service.RegisterInput{
		Username:    form.Username,
		Email:       form.Email,
		Password:    form.Password,
		Bio:         form.Bio,
		SocialLinks: form.SocialLinks,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(Flash{
		Message:  "Account created!",
		Redirect: "/login",
		Data:     user,
	})
}

// Login handles POST /login
// @Summary Login
// @Description Authenticate and receive a JWT, also set as an HttpOnly cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validation.LoginForm true "Credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LoginForm
	if err := parseForm(c, &form, validation.ValidateLogin); err != nil {
		return nil
	}

	user, err := s.identity.Authenticate(c.UserContext(), form.Email, form.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.tokens.TTL()),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles GET /logout
// @Summary Logout
// @Description Revoke the current token and clear the cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} Flash
// @Router /logout [get]
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := c.Locals("claims").(*middleware.Claims); ok {
		if err := s.tokens.Revoke(c.UserContext(), claims); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "token revocation failed", "error", err)
		}
	}
	c.ClearCookie(middleware.AccessTokenCookie)
	return c.JSON(Flash{Redirect: "/home"})
}
