package chat

import (
	"context"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/CrestNiraj12/groupchat/app"
	"github.com/CrestNiraj12/groupchat/domain"
)

const remoteTimeout = 30 * time.Second

// ActionKind is the kind of an optimistic mutation.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionLike
	ActionDelete
)

func (k ActionKind) String() string {
	switch k {
	case ActionLike:
		return "like"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// Outcome is the resolution of a PendingAction.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

// PendingAction is an optimistic mutation waiting for the server.
type PendingAction struct {
	Token     string
	Kind      ActionKind
	GroupID   string
	MessageID string
	Snapshot  domain.Message // Pre-mutation copy used for rollback
	StartedAt time.Time
	Outcome   Outcome
}

// Notice is user feedback produced while reconciling a result.
type Notice struct {
	Kind domain.ErrorKind
	Text string
	Err  error
	Cmd  tea.Cmd // Follow-up work, e.g. the refresh after a post
}

// ProfileRequest asks the presentation layer to open an author profile.
type ProfileRequest struct {
	UserID   string
	Username string
}

// Coordinator runs user actions against the remote service and keeps the
// store consistent with their outcome.
type Coordinator struct {
	store      *Store
	svc        app.ChatService
	guidelines app.GuidelinesService
	user       domain.User
	logger     *log.Logger
	now        func() time.Time

	pending map[string]*PendingAction
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the coordinator logger.
func WithCoordinatorLogger(l *log.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator wires a coordinator for the group cached by store.
// guidelines may be nil, in which case the user's own flag is used.
func NewCoordinator(store *Store, svc app.ChatService, guidelines app.GuidelinesService, user domain.User, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:      store,
		svc:        svc,
		guidelines: guidelines,
		user:       user,
		logger:     log.New(io.Discard),
		now:        time.Now,
		pending:    make(map[string]*PendingAction),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// User returns the current user as the coordinator knows it.
func (c *Coordinator) User() domain.User { return c.user }

// GuidelinesAccepted reports whether posting is allowed.
func (c *Coordinator) GuidelinesAccepted() bool {
	if c.guidelines == nil {
		return c.user.GuidelinesAccepted
	}
	return c.guidelines.IsGuidelinesAccepted(c.user)
}

// Pending returns the in-flight action on id.
func (c *Coordinator) Pending(id string) (PendingAction, bool) {
	pa, ok := c.pending[id]
	if !ok {
		return PendingAction{}, false
	}
	return *pa, true
}

// CanDelete reports whether the delete action should be offered for m.
func (c *Coordinator) CanDelete(m domain.Message) bool {
	if m.System {
		return c.user.Moderator
	}
	return c.user.Owns(m) || c.user.Moderator
}

// Reply returns the input prefill for answering m.
func (c *Coordinator) Reply(m domain.Message) string {
	return "@" + m.Mention()
}

// Copy returns the text placed on the clipboard for m.
func (c *Coordinator) Copy(m domain.Message) string {
	return m.Text
}

// Profile returns the navigation request for m's author.
func (c *Coordinator) Profile(m domain.Message) (ProfileRequest, bool) {
	if m.System || m.AuthorID == "" {
		return ProfileRequest{}, false
	}
	return ProfileRequest{UserID: m.AuthorID, Username: m.Mention()}, true
}

// Like toggles the current user's like on id optimistically.
func (c *Coordinator) Like(id string) (tea.Cmd, error) {
	snap, err := c.begin(id)
	if err != nil {
		return nil, err
	}
	pa := c.track(ActionLike, snap)
	c.store.Mutate(id, func(m *domain.Message) {
		if m.LikedByMe {
			m.LikedByMe = false
			m.Likes = max(m.Likes-1, 0)
			return
		}
		m.LikedByMe = true
		m.Likes++
	})

	svc := c.svc
	group := pa.GroupID
	token := pa.Token
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		state, err := svc.LikeMessage(ctx, group, id)
		return LikeResultMsg{Token: token, GroupID: group, ID: id, State: state, Err: err}
	}, nil
}

// Delete removes id optimistically. Permission is left to the caller's
// gating and the server.
func (c *Coordinator) Delete(id string) (tea.Cmd, error) {
	snap, err := c.begin(id)
	if err != nil {
		return nil, err
	}
	pa := c.track(ActionDelete, snap)
	c.store.Remove(id)

	svc := c.svc
	group := pa.GroupID
	token := pa.Token
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		err := svc.DeleteMessage(ctx, group, id)
		return DeleteResultMsg{Token: token, GroupID: group, ID: id, Err: err}
	}, nil
}

// Post publishes text. Nothing is inserted locally; a successful post
// refreshes the store instead.
func (c *Coordinator) Post(text string) (tea.Cmd, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if !c.GuidelinesAccepted() {
		return nil, domain.ErrGuidelinesNotAccepted
	}

	svc := c.svc
	group := c.store.GroupID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		m, err := svc.PostMessage(ctx, group, text)
		return PostResultMsg{GroupID: group, Message: m, Err: err}
	}, nil
}

// Flag reports id to moderators. Flagging is not optimistic.
func (c *Coordinator) Flag(id string) (tea.Cmd, error) {
	if _, ok := c.store.Get(id); !ok {
		return nil, domain.ErrUnknownMessage
	}
	svc := c.svc
	group := c.store.GroupID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		err := svc.FlagMessage(ctx, group, id)
		return FlagResultMsg{GroupID: group, ID: id, Err: err}
	}, nil
}

// AcceptGuidelines records acceptance remotely.
func (c *Coordinator) AcceptGuidelines() tea.Cmd {
	if c.guidelines == nil {
		return func() tea.Msg { return AcceptGuidelinesResultMsg{} }
	}
	guidelines := c.guidelines
	user := c.user
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		return AcceptGuidelinesResultMsg{Err: guidelines.AcceptGuidelines(ctx, user)}
	}
}

// HandleResult reconciles a remote result. ok is false for messages the
// coordinator does not own.
func (c *Coordinator) HandleResult(msg tea.Msg) (Notice, bool) {
	switch msg := msg.(type) {
	case LikeResultMsg:
		pa, found := c.resolve(msg.ID, msg.Token, msg.Err)
		if !found {
			return Notice{}, true
		}
		if msg.Err != nil {
			c.store.Mutate(msg.ID, func(m *domain.Message) {
				m.Likes = pa.Snapshot.Likes
				m.LikedByMe = pa.Snapshot.LikedByMe
			})
			c.logger.Warn("like failed, rolled back", "id", msg.ID, "err", msg.Err)
			return failure("Could not like message", msg.Err), true
		}
		if msg.State.Known {
			c.store.Mutate(msg.ID, func(m *domain.Message) {
				m.Likes = msg.State.Likes
				m.LikedByMe = msg.State.LikedByMe
			})
		}
		return Notice{}, true

	case DeleteResultMsg:
		pa, found := c.resolve(msg.ID, msg.Token, msg.Err)
		if !found {
			return Notice{}, true
		}
		if msg.Err != nil {
			c.store.InsertLocal(pa.Snapshot)
			c.logger.Warn("delete failed, restored", "id", msg.ID, "err", msg.Err)
			return failure("Could not delete message", msg.Err), true
		}
		return Notice{Text: "Message deleted."}, true

	case PostResultMsg:
		if msg.GroupID != c.store.GroupID() {
			return Notice{}, false
		}
		if msg.Err != nil {
			c.logger.Warn("post failed", "group", msg.GroupID, "err", msg.Err)
			return failure("Could not send message", msg.Err), true
		}
		return Notice{Text: "Message sent.", Cmd: c.store.Refresh()}, true

	case FlagResultMsg:
		if msg.GroupID != c.store.GroupID() {
			return Notice{}, false
		}
		if msg.Err != nil {
			return failure("Could not flag message", msg.Err), true
		}
		return Notice{Text: "Message reported to moderators."}, true

	case AcceptGuidelinesResultMsg:
		if msg.Err != nil {
			return failure("Could not accept guidelines", msg.Err), true
		}
		c.user.GuidelinesAccepted = true
		return Notice{Text: "Community guidelines accepted."}, true
	}
	return Notice{}, false
}

func (c *Coordinator) begin(id string) (domain.Message, error) {
	if _, busy := c.pending[id]; busy {
		return domain.Message{}, domain.ErrActionPending
	}
	snap, ok := c.store.Get(id)
	if !ok {
		return domain.Message{}, domain.ErrUnknownMessage
	}
	return snap, nil
}

func (c *Coordinator) track(kind ActionKind, snap domain.Message) *PendingAction {
	pa := &PendingAction{
		Token:     uuid.NewString(),
		Kind:      kind,
		GroupID:   c.store.GroupID(),
		MessageID: snap.ID,
		Snapshot:  snap,
		StartedAt: c.now(),
		Outcome:   OutcomePending,
	}
	c.pending[snap.ID] = pa
	c.store.Pin(snap.ID)
	return pa
}

// resolve drops the pending action matching token. Results for unknown
// tokens are ignored.
func (c *Coordinator) resolve(id, token string, err error) (PendingAction, bool) {
	pa, ok := c.pending[id]
	if !ok || pa.Token != token {
		return PendingAction{}, false
	}
	if err != nil {
		pa.Outcome = OutcomeFailed
	} else {
		pa.Outcome = OutcomeSucceeded
	}
	delete(c.pending, id)
	c.store.Unpin(id)
	return *pa, true
}

func failure(text string, err error) Notice {
	return Notice{Kind: domain.KindOf(err), Text: text, Err: err}
}
