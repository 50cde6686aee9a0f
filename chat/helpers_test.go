package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/groupchat/domain"
)

const testGroup = "party"

type stubChat struct {
	mu sync.Mutex

	fetch  func(group string) ([]domain.Message, error)
	post   func(group, text string) (domain.Message, error)
	like   func(group, id string) (domain.LikeState, error)
	delete func(group, id string) error
	flag   func(group, id string) error

	fetchCalls  int
	postCalls   int
	likeCalls   int
	deleteCalls int
	flagCalls   int
}

func (s *stubChat) FetchMessages(_ context.Context, group string) ([]domain.Message, error) {
	s.mu.Lock()
	s.fetchCalls++
	s.mu.Unlock()
	if s.fetch == nil {
		return nil, nil
	}
	return s.fetch(group)
}

func (s *stubChat) PostMessage(_ context.Context, group, text string) (domain.Message, error) {
	s.mu.Lock()
	s.postCalls++
	s.mu.Unlock()
	if s.post == nil {
		return domain.Message{ID: "posted", GroupID: group, Text: text}, nil
	}
	return s.post(group, text)
}

func (s *stubChat) LikeMessage(_ context.Context, group, id string) (domain.LikeState, error) {
	s.mu.Lock()
	s.likeCalls++
	s.mu.Unlock()
	if s.like == nil {
		return domain.LikeState{}, nil
	}
	return s.like(group, id)
}

func (s *stubChat) DeleteMessage(_ context.Context, group, id string) error {
	s.mu.Lock()
	s.deleteCalls++
	s.mu.Unlock()
	if s.delete == nil {
		return nil
	}
	return s.delete(group, id)
}

func (s *stubChat) FlagMessage(_ context.Context, group, id string) error {
	s.mu.Lock()
	s.flagCalls++
	s.mu.Unlock()
	if s.flag == nil {
		return nil
	}
	return s.flag(group, id)
}

type stubGuidelines struct {
	accepted  bool
	acceptErr error
	calls     int
}

func (g *stubGuidelines) IsGuidelinesAccepted(domain.User) bool { return g.accepted }

func (g *stubGuidelines) AcceptGuidelines(context.Context, domain.User) error {
	g.calls++
	if g.acceptErr != nil {
		return g.acceptErr
	}
	g.accepted = true
	return nil
}

type stubRenderer struct {
	mu    sync.Mutex
	fn    func(raw string) (string, error)
	calls int
}

func (r *stubRenderer) Render(raw string) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.fn == nil {
		return "<" + raw + ">", nil
	}
	return r.fn(raw)
}

type stubArchive struct {
	loaded []domain.Message
	saved  map[string][]domain.Message
	mu     sync.Mutex
}

func (a *stubArchive) Load(_ context.Context, group string) ([]domain.Message, error) {
	return a.loaded, nil
}

func (a *stubArchive) Save(_ context.Context, group string, msgs []domain.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saved == nil {
		a.saved = make(map[string][]domain.Message)
	}
	a.saved[group] = msgs
	return nil
}

// runCmd executes cmd and every command batched inside it, returning the
// produced messages in order.
func runCmd(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(t, c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// refreshOnce runs a full refresh cycle against the store's service.
func refreshOnce(t *testing.T, s *Store) RefreshOutcome {
	t.Helper()
	msgs := runCmd(t, s.Refresh())
	if len(msgs) != 1 {
		t.Fatalf("expected one refresh result, got %d", len(msgs))
	}
	res, ok := msgs[0].(RefreshResultMsg)
	if !ok {
		t.Fatalf("expected RefreshResultMsg, got %T", msgs[0])
	}
	out, _ := s.HandleRefresh(res)
	return out
}

func msgAt(id string, ts int64) domain.Message {
	return domain.Message{ID: id, GroupID: testGroup, AuthorID: "u-" + id, AuthorName: "User " + id, Text: "text " + id, Timestamp: time.Unix(ts, 0)}
}

func idsOf(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func fixed(msgs ...domain.Message) func(string) ([]domain.Message, error) {
	return func(string) ([]domain.Message, error) {
		out := make([]domain.Message, len(msgs))
		copy(out, msgs)
		return out, nil
	}
}
