package validation

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"faceblog/internal/models"
)

// Errors maps a form field to its first failure message.
type Errors map[string]string

// Add records msg for field unless the field already failed.
func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Err returns nil when no field failed, otherwise a VALIDATION_ERROR AppError.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return models.NewFieldValidationError(e)
}

func required(errs Errors, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, "This field is required.")
		return false
	}
	return true
}

func maxLen(errs Errors, field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		errs.Add(field, "Field cannot be longer than "+strconv.Itoa(limit)+" characters.")
	}
}

// RegistrationForm is the /register payload.
type RegistrationForm struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	Bio             string `json:"bio" form:"bio"`
	SocialLinks     string `json:"social_links" form:"social_links"`
}

// ValidateRegistration checks a RegistrationForm.
func ValidateRegistration(f RegistrationForm) Errors {
	errs := Errors{}
	if required(errs, "username", f.Username) {
		if err := ValidateUsername(strings.TrimSpace(f.Username)); err != nil {
			errs.Add("username", err.Error())
		}
	}
	if required(errs, "email", f.Email) {
		if err := ValidateEmail(strings.TrimSpace(f.Email)); err != nil {
			errs.Add("email", err.Error())
		}
	}
	if required(errs, "password", f.Password) {
		if err := ValidatePassword(f.Password); err != nil {
			errs.Add("password", err.Error())
		}
	}
	if f.ConfirmPassword != f.Password {
		errs.Add("confirm_password", "Passwords must match.")
	}
	maxLen(errs, "bio", f.Bio, 500)
	maxLen(errs, "social_links", f.SocialLinks, 255)
	return errs
}

// LoginForm is the /login payload.
type LoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// ValidateLogin only checks presence; credential mismatch is reported generically.
func ValidateLogin(f LoginForm) Errors {
	errs := Errors{}
	required(errs, "email", f.Email)
	required(errs, "password", f.Password)
	return errs
}

// PostForm is the create/edit post payload.
type PostForm struct {
	Title      string `json:"title" form:"title"`
	Content    string `json:"content" form:"content"`
	CategoryID *uint  `json:"category_id" form:"category_id"`
}

// ValidatePost checks a PostForm.
func ValidatePost(f PostForm) Errors {
	errs := Errors{}
	if required(errs, "title", f.Title) {
		maxLen(errs, "title", f.Title, 100)
	}
	required(errs, "content", f.Content)
	if f.CategoryID != nil && *f.CategoryID == 0 {
		errs.Add("category_id", "Not a valid choice.")
	}
	return errs
}

// CommentForm is the create/edit comment payload.
type CommentForm struct {
	Content string `json:"content" form:"content"`
}

// ValidateComment checks a CommentForm.
func ValidateComment(f CommentForm) Errors {
	errs := Errors{}
	required(errs, "content", f.Content)
	return errs
}

// ProfileForm is the /profile/<username>/edit payload.
type ProfileForm struct {
	Bio         string `json:"bio" form:"bio"`
	SocialLinks string `json:"social_links" form:"social_links"`
}

// ValidateProfile checks a ProfileForm.
func ValidateProfile(f ProfileForm) Errors {
	errs := Errors{}
	maxLen(errs, "bio", f.Bio, 500)
	maxLen(errs, "social_links", f.SocialLinks, 255)
	return errs
}

// ChatRoomForm is the /chatroom/new payload.
type ChatRoomForm struct {
	Name string `json:"name" form:"name"`
}

// ValidateChatRoom checks a ChatRoomForm.
func ValidateChatRoom(f ChatRoomForm) Errors {
	errs := Errors{}
	if required(errs, "name", f.Name) {
		maxLen(errs, "name", f.Name, 100)
	}
	return errs
}

// DirectMessageForm is the /dm/<user_id> payload.
type DirectMessageForm struct {
	Content string `json:"content" form:"content"`
}

// ValidateDirectMessage only bounds the length. Blank content is a silent
// no-op in the messaging service rather than a field error.
func ValidateDirectMessage(f DirectMessageForm) Errors {
	errs := Errors{}
	maxLen(errs, "content", f.Content, models.MaxDirectMessageLength)
	return errs
}
