package chat

import (
	"time"

	"github.com/CrestNiraj12/groupchat/domain"
)

// RefreshResultMsg is sent when a group fetch completes.
type RefreshResultMsg struct {
	GroupID   string
	Seq       int
	StartRev  uint64
	FetchedAt time.Time
	Messages  []domain.Message
	Err       error
}

// RestoreResultMsg carries the archived message set loaded on startup.
type RestoreResultMsg struct {
	GroupID  string
	Messages []domain.Message
	Err      error
}

// RenderedMsg is sent when a background render finishes.
type RenderedMsg struct {
	Batch       int
	ID          string
	Fingerprint uint64
	Styled      string
	Err         error
}

// RenderSettleMsg fires one quiescence window after a render completion.
type RenderSettleMsg struct {
	Batch int
	Gen   int
}

// RenderBatchSettledMsg is emitted once every render of a batch has settled.
type RenderBatchSettledMsg struct {
	IDs []string
}

// LikeResultMsg is sent after a like attempt.
type LikeResultMsg struct {
	Token   string
	GroupID string
	ID      string
	State   domain.LikeState
	Err     error
}

// DeleteResultMsg is sent after a delete attempt.
type DeleteResultMsg struct {
	Token   string
	GroupID string
	ID      string
	Err     error
}

// PostResultMsg is sent after a post attempt.
type PostResultMsg struct {
	GroupID string
	Message domain.Message
	Err     error
}

// FlagResultMsg is sent after a flag attempt.
type FlagResultMsg struct {
	GroupID string
	ID      string
	Err     error
}

// AcceptGuidelinesResultMsg is sent after the guidelines acceptance call.
type AcceptGuidelinesResultMsg struct {
	Err error
}
