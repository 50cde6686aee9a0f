package app

import (
	"context"

	"github.com/CrestNiraj12/groupchat/domain"
)

// ChatService reads and writes messages of a group chat on a remote backend.
type ChatService interface {
	// FetchMessages returns the current message set for a group, in any order.
	FetchMessages(ctx context.Context, groupID string) ([]domain.Message, error)

	// PostMessage publishes a new message and returns the server's copy.
	PostMessage(ctx context.Context, groupID, text string) (domain.Message, error)

	// LikeMessage toggles the current user's like and returns the server's
	// resulting like state. State.Known is false when none was reported.
	LikeMessage(ctx context.Context, groupID, id string) (domain.LikeState, error)

	// DeleteMessage removes a message.
	DeleteMessage(ctx context.Context, groupID, id string) error

	// FlagMessage reports a message to moderators.
	FlagMessage(ctx context.Context, groupID, id string) error
}
