// Package validation checks request input before it reaches the services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
)

// Usernames that collide with top-level routes.
var reservedUsernames = map[string]struct{}{
	"admin":     {},
	"api":       {},
	"category":  {},
	"chatroom":  {},
	"chatrooms": {},
	"comment":   {},
	"dm":        {},
	"dms":       {},
	"follow":    {},
	"home":      {},
	"login":     {},
	"logout":    {},
	"metrics":   {},
	"post":      {},
	"profile":   {},
	"register":  {},
	"search":    {},
	"swagger":   {},
	"unfollow":  {},
	"ws":        {},
}

// ValidatePassword checks if a password meets the account requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 72 {
		// bcrypt ignores everything past 72 bytes.
		return fmt.Errorf("password must not exceed 72 bytes")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < 2 {
		return fmt.Errorf("username must be at least 2 characters long")
	}
	if n > 20 {
		return fmt.Errorf("username must not exceed 20 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 120 {
		return fmt.Errorf("email must not exceed 120 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}
