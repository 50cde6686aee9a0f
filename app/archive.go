package app

import (
	"context"

	"github.com/CrestNiraj12/groupchat/domain"
)

// MessageArchive persists the last known message set per group so a feed
// can show cached content before the first refresh lands.
type MessageArchive interface {
	Load(ctx context.Context, groupID string) ([]domain.Message, error)
	Save(ctx context.Context, groupID string, msgs []domain.Message) error
}
