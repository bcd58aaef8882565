// Package service holds the application's business rules. Services receive
// already-validated input and their store handles at construction.
package service

import "faceblog/internal/models"

// User-visible warnings for soft rejections.
const (
	WarnSelfFollow       = "You can't follow yourself"
	WarnSelfChat         = "You cannot chat with yourself!"
	WarnEditPost         = "You cannot edit this post."
	WarnDeletePost       = "You cannot delete this post."
	WarnEditComment      = "You cannot edit this comment."
	WarnDeleteComment    = "You cannot delete this comment."
	WarnEditOtherProfile = "You cannot edit someone else's profile."
	MsgDuplicateEmail    = "Email is already in use. Please choose a different one."
	MsgDuplicateUsername = "That username is taken. Please choose a different one."
	MsgLoginUnsuccessful = "Login unsuccessful. Please check email and password."
	MsgMessageTooLong    = "Message cannot be longer than 500 characters."
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID       uint
	Username string
}

// ActorFrom builds an Actor from a stored user.
func ActorFrom(u *models.User) Actor {
	return Actor{ID: u.ID, Username: u.Username}
}

// Outcome describes a request that was accepted but may have been softly
// refused. A refusal carries a Warning and never an error.
type Outcome struct {
	Changed bool
	Warning string
	// StaleImage is an uploaded file the committed change stopped referencing.
	StaleImage string
}

// Rejected reports whether the operation was softly refused.
func (o Outcome) Rejected() bool {
	return o.Warning != ""
}

func rejected(warning string) Outcome {
	return Outcome{Warning: warning}
}
