package habitica

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/CrestNiraj12/groupchat/domain"
)

// chatService implements app.ChatService using the Habitica API.
type chatService struct {
	client *Client
	fetch  singleflight.Group
}

// NewChatService creates a ChatService backed by Habitica.
func NewChatService(client *Client) *chatService {
	return &chatService{client: client}
}

// chatMessage is the subset of Habitica's chat message entity we care about.
type chatMessage struct {
	ID          string          `json:"id"`
	Text        string          `json:"text"`
	Timestamp   flexTime        `json:"timestamp"`
	UUID        string          `json:"uuid"` // Author id, "system" for system messages
	User        string          `json:"user"` // Author display name
	Username    string          `json:"username"`
	Likes       map[string]bool `json:"likes"`
	FlagCount   int             `json:"flagCount"`
	Contributor struct {
		Level int  `json:"level"`
		Admin bool `json:"admin"`
	} `json:"contributor"`
	Info json.RawMessage `json:"info"`
}

func groupPath(groupID string) string {
	return "/api/v3/groups/" + url.PathEscape(groupID) + "/chat"
}

func messagePath(groupID, id string) string {
	return groupPath(groupID) + "/" + url.PathEscape(id)
}

func (s *chatService) FetchMessages(ctx context.Context, groupID string) ([]domain.Message, error) {
	// Identical fetches in flight share one request.
	v, err, _ := s.fetch.Do(groupID, func() (any, error) {
		data, err := s.client.Get(ctx, groupPath(groupID))
		if err != nil {
			return nil, fmt.Errorf("fetching chat: %w", err)
		}
		var raw []chatMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing chat: %w", err)
		}
		return s.mapMessages(groupID, raw), nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]domain.Message)
	out := make([]domain.Message, len(shared))
	copy(out, shared)
	return out, nil
}

func (s *chatService) PostMessage(ctx context.Context, groupID, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, domain.ErrEmptyMessage
	}

	data, err := s.client.Post(ctx, groupPath(groupID), map[string]string{"message": text})
	if err != nil {
		return domain.Message{}, fmt.Errorf("posting message: %w", err)
	}
	var resp struct {
		Message chatMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.Message{}, fmt.Errorf("parsing posted message: %w", err)
	}
	return s.mapMessage(groupID, resp.Message), nil
}

// LikeMessage toggles the like of the current user and returns the new
// like state as the server reports it.
func (s *chatService) LikeMessage(ctx context.Context, groupID, id string) (domain.LikeState, error) {
	data, err := s.client.Post(ctx, messagePath(groupID, id)+"/like", nil)
	if err != nil {
		return domain.LikeState{}, fmt.Errorf("liking message: %w", err)
	}
	var msg chatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		// The like went through; only the echo is unreadable.
		s.client.logger.Warn("undecodable like response", "id", id, "err", err)
		return domain.LikeState{}, nil
	}
	if msg.Likes == nil {
		return domain.LikeState{}, nil
	}
	return domain.LikeState{
		Likes:     countLikes(msg.Likes),
		LikedByMe: msg.Likes[s.client.UserID()],
		Known:     true,
	}, nil
}

func (s *chatService) DeleteMessage(ctx context.Context, groupID, id string) error {
	_, err := s.client.Delete(ctx, messagePath(groupID, id))
	if IsStatus(err, http.StatusNotFound) {
		// Already gone.
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}

func (s *chatService) FlagMessage(ctx context.Context, groupID, id string) error {
	if _, err := s.client.Post(ctx, messagePath(groupID, id)+"/flag", nil); err != nil {
		return fmt.Errorf("flagging message: %w", err)
	}
	return nil
}

func (s *chatService) mapMessages(groupID string, raw []chatMessage) []domain.Message {
	out := make([]domain.Message, 0, len(raw))
	for _, m := range raw {
		if m.ID == "" {
			continue
		}
		out = append(out, s.mapMessage(groupID, m))
	}
	return out
}

func (s *chatService) mapMessage(groupID string, m chatMessage) domain.Message {
	system := m.UUID == "" || m.UUID == "system"
	msg := domain.Message{
		ID:              m.ID,
		GroupID:         groupID,
		AuthorName:      m.User,
		AuthorUsername:  m.Username,
		Text:            m.Text,
		Timestamp:       time.Time(m.Timestamp),
		Likes:           countLikes(m.Likes),
		LikedByMe:       m.Likes[s.client.UserID()],
		AuthorModerator: m.Contributor.Admin || m.Contributor.Level >= 8,
		FlagCount:       m.FlagCount,
		System:          system,
	}
	if !system {
		msg.AuthorID = m.UUID
	}
	return msg
}

func countLikes(likes map[string]bool) int {
	n := 0
	for _, liked := range likes {
		if liked {
			n++
		}
	}
	return n
}

// flexTime accepts both RFC 3339 strings and epoch milliseconds, which
// older chat records still carry.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = flexTime{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			*t = flexTime(time.UnixMilli(ms).UTC())
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
		*t = flexTime(parsed)
		return nil
	}
	ms, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("parsing timestamp %s: %w", b, err)
	}
	*t = flexTime(time.UnixMilli(int64(ms)).UTC())
	return nil
}
