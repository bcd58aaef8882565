package server

import (
	"faceblog/internal/service"
	"faceblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ProfileView is a profile plus whether the viewer follows it.
type ProfileView struct {
	*service.Profile
	IsFollowing bool `json:"is_following"`
}

func profilePath(username string) string {
	return "/profile/" + username
}

func (s *Server) profileView(c *fiber.Ctx, profile *service.Profile) error {
	view := ProfileView{Profile: profile}
	if viewer, ok := c.Locals("userID").(uint); ok && viewer != profile.User.ID {
		following, err := s.social.IsFollowing(c.UserContext(), viewer, profile.User.ID)
		if err != nil {
			return respondServiceError(c, err)
		}
		view.IsFollowing = following
	}
	return c.JSON(view)
}

// GetUser handles GET /user/:id
// @Summary Profile by id
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /user/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.identity.GetProfileByID(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.profileView(c, profile)
}

// GetProfile handles GET /profile/:username
// @Summary Profile by username
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.identity.GetProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return s.profileView(c, profile)
}

// UpdateProfile handles POST /profile/:username/edit
// @Summary Edit profile
// @Description Only the owner may edit their bio and social links.
// @Tags users
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param request body validation.ProfileForm true "Profile"
// @Success 200 {object} Flash
// @Failure 403 {object} SoftRejection
// @Router /profile/{username}/edit [post]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	username := c.Params("username")
	var form validation.ProfileForm
	if err := parseForm(c, &form, validation.ValidateProfile); err != nil {
		return nil
	}

	user, outcome, err := s.identity.UpdateProfile(c.UserContext(), actor(c), username, service.ProfileInput{
		Bio:         form.Bio,
		SocialLinks: form.SocialLinks,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	if outcome.Rejected() {
		return respondRejected(c, fiber.StatusForbidden, outcome, profilePath(username))
	}
	return c.JSON(Flash{
		Message:  "Your profile has been updated!",
		Redirect: profilePath(user.Username),
		Data:     user,
	})
}

// Follow handles GET /follow/:id
// @Summary Follow a user
// @Description Idempotent. Following yourself returns a warning and changes nothing.
// @Tags social
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{following=bool,redirect=string,warning=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /follow/{id} [get]
func (s *Server) Follow(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	target, outcome, err := s.social.Follow(c.UserContext(), actor(c).ID, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	if outcome.Rejected() {
		return respondRejected(c, fiber.StatusOK, outcome, profilePath(target.Username))
	}
	return c.JSON(fiber.Map{
		"following": true,
		"changed":   outcome.Changed,
		"redirect":  profilePath(target.Username),
	})
}

// Unfollow handles GET /unfollow/:id
// @Summary Unfollow a user
// @Description Idempotent; unfollowing someone you do not follow is a no-op.
// @Tags social
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{following=bool,redirect=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /unfollow/{id} [get]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	target, outcome, err := s.social.Unfollow(c.UserContext(), actor(c).ID, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"following": false,
		"changed":   outcome.Changed,
		"redirect":  profilePath(target.Username),
	})
}

// Followers handles GET /followers
// @Summary Users following me
// @Tags social
// @Produce json
// @Success 200 {array} models.User
// @Router /followers [get]
func (s *Server) Followers(c *fiber.Ctx) error {
	users, err := s.social.Followers(c.UserContext(), actor(c).ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// Following handles GET /following
// @Summary Users I follow
// @Tags social
// @Produce json
// @Success 200 {array} models.User
// @Router /following [get]
func (s *Server) Following(c *fiber.Ctx) error {
	users, err := s.social.Following(c.UserContext(), actor(c).ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// Search handles GET /search?query=...
// @Summary Search
// @Description Case-insensitive substring match over posts, usernames and room names.
// @Tags search
// @Produce json
// @Param query query string false "Search term"
// @Success 200 {object} service.SearchResults
// @Router /search [get]
func (s *Server) Search(c *fiber.Ctx) error {
	res, err := s.search.Search(c.UserContext(), c.Query("query"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}
