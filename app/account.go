package app

import (
	"context"

	"github.com/CrestNiraj12/groupchat/domain"
)

// UserService provides information about the authenticated user.
type UserService interface {
	// CurrentUser returns the authenticated user's id, names and flags.
	CurrentUser(ctx context.Context) (domain.User, error)
}

// GuidelinesService gates posting behind the community guidelines.
type GuidelinesService interface {
	// IsGuidelinesAccepted reports the locally known acceptance flag.
	IsGuidelinesAccepted(user domain.User) bool

	// AcceptGuidelines records acceptance on the server.
	AcceptGuidelines(ctx context.Context, user domain.User) error
}
