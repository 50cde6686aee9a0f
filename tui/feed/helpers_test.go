package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/groupchat/chat"
	"github.com/CrestNiraj12/groupchat/domain"
)

type stubChat struct {
	mu       sync.Mutex
	msgs     []domain.Message
	fetchErr error
	likeErr  error
	delErr   error
	posted   []string
	flagged  []string
}

func (s *stubChat) FetchMessages(context.Context, string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]domain.Message(nil), s.msgs...), nil
}

func (s *stubChat) PostMessage(_ context.Context, _ string, text string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posted = append(s.posted, text)
	return domain.Message{ID: "posted", Text: text}, nil
}

func (s *stubChat) LikeMessage(context.Context, string, string) (domain.LikeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.LikeState{}, s.likeErr
}

func (s *stubChat) DeleteMessage(context.Context, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delErr
}

func (s *stubChat) FlagMessage(_ context.Context, _ string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flagged = append(s.flagged, id)
	return nil
}

type upperRenderer struct{}

func (upperRenderer) Render(raw string) (string, error) { return "<" + raw + ">", nil }

var (
	base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	me   = domain.User{ID: "u-me", Username: "me", DisplayName: "Me", GuidelinesAccepted: true}
)

func msgAt(id string, minutesAgo int) domain.Message {
	return domain.Message{
		ID:             id,
		GroupID:        "party",
		AuthorID:       "u-" + id,
		AuthorName:     "User " + id,
		AuthorUsername: "user" + id,
		Text:           "text " + id,
		Timestamp:      base.Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

type harness struct {
	svc   *stubChat
	store *chat.Store
	coord *chat.Coordinator
	model Model
}

func newHarness(t *testing.T, user domain.User, msgs ...domain.Message) *harness {
	t.Helper()
	svc := &stubChat{msgs: msgs}
	store := chat.NewStore("party", svc)
	cache := chat.NewRenderCache(upperRenderer{}, chat.WithQuiescence(time.Millisecond))
	cache.Bind(store)
	exp := &chat.Expansion{}
	exp.Bind(store)
	coord := chat.NewCoordinator(store, svc, nil, user)

	m := New(Deps{
		Store:       store,
		Cache:       cache,
		Expansion:   exp,
		Coordinator: coord,
		Group:       "party",
		ProfileURL:  ProfileURL("https://habitica.com"),
	})
	m.now = func() time.Time { return base }
	h := &harness{svc: svc, store: store, coord: coord, model: m}
	h.drain(t, store.Refresh())
	return h
}

// drain runs cmd and every follow-up command, feeding results back into the
// model. Messages the model does not consume are returned.
func (h *harness) drain(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatalf("command chain did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case ComposeRequestMsg, clipboardMsg, profileOpenedMsg:
			out = append(out, msg)
		}
		var follow tea.Cmd
		h.model, follow = h.model.Update(msg)
		queue = append(queue, follow)
	}
	return out
}

func (h *harness) press(t *testing.T, k string) []tea.Msg {
	t.Helper()
	var cmd tea.Cmd
	h.model, cmd = h.model.Update(keyMsg(k))
	return h.drain(t, cmd)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func rowIDs(rows []chat.Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
