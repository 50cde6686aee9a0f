package feed

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/groupchat/chat"
	"github.com/CrestNiraj12/groupchat/tui/common"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	headerHeight  = 3
	footerHeight  = 2
)

// --- Messages ---

// ComposeRequestMsg asks the root model to open the composer.
type ComposeRequestMsg struct {
	Draft   string
	ReplyTo string
	Editor  bool
}

type clipboardMsg struct {
	err error
}

type profileOpenedMsg struct {
	username string
	err      error
}

// --- Model ---

// Deps holds the feed engine the view drives. Plain struct, not a DI container.
type Deps struct {
	Store       *chat.Store
	Cache       *chat.RenderCache
	Expansion   *chat.Expansion
	Coordinator *chat.Coordinator
	Group       string // Display name of the group
	LastSeenID  string // Newest id seen in the previous session
	ProfileURL  func(userID string) string
}

// Model holds the state for the group chat feed.
type Model struct {
	deps     Deps
	keys     common.KeyMap
	spinner  spinner.Model
	viewport viewport.Model

	rows     []chat.Row
	offsets  []int // First content line of each row
	cursor   int
	cursorID string

	width  int
	height int

	confirmDelete    bool
	guidelinesPrompt bool
	pendingCompose   *ComposeRequestMsg
	showHints        bool
	status           string
	statusErr        bool
	lastSeenID       string
	now              func() time.Time
}

// New creates a feed model over the given engine.
func New(deps Deps) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6600"))

	m := Model{
		deps:       deps,
		keys:       common.DefaultKeyMap(),
		spinner:    s,
		viewport:   viewport.New(defaultWidth, defaultHeight-headerHeight-footerHeight),
		width:      defaultWidth,
		height:     defaultHeight,
		showHints:  true,
		lastSeenID: deps.LastSeenID,
		now:        time.Now,
	}
	m.sync()
	return m
}

// Init restores the archived snapshot and starts the first refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.deps.Store.Restore(),
		m.deps.Store.Refresh(),
		m.spinner.Tick,
	)
}

// Rows returns the projected rows currently on screen.
func (m Model) Rows() []chat.Row { return m.rows }

// Cursor returns the index of the selected row.
func (m Model) Cursor() int { return m.cursor }

// Status returns the transient status line.
func (m Model) Status() string { return m.status }

// NewestID returns the id of the newest message shown, falling back to the
// last seen id of the previous session.
func (m Model) NewestID() string {
	if len(m.rows) > 0 {
		return m.rows[0].ID
	}
	return m.lastSeenID
}

// SetStatus replaces the status line.
func (m Model) SetStatus(text string, isErr bool) Model {
	m.status = text
	m.statusErr = isErr
	return m
}

// Post sends composed text through the coordinator.
func (m Model) Post(text string) (Model, tea.Cmd) {
	cmd, err := m.deps.Coordinator.Post(text)
	if err != nil {
		m.setError("Cannot send", err)
		return m, nil
	}
	m.status = "Sending..."
	m.statusErr = false
	return m, cmd
}

func (m Model) selected() (chat.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return chat.Row{}, false
	}
	return m.rows[m.cursor], true
}

// sync recomputes rows from the engine and keeps the selection on the same
// message when the order changes.
func (m *Model) sync() {
	m.rows = chat.Project(m.deps.Store, m.deps.Cache, m.deps.Expansion, m.deps.Coordinator)
	if len(m.rows) == 0 {
		m.cursor = 0
		m.cursorID = ""
	} else {
		idx := -1
		if m.cursorID != "" {
			for i, r := range m.rows {
				if r.ID == m.cursorID {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			idx = min(max(m.cursor, 0), len(m.rows)-1)
		}
		m.cursor = idx
		m.cursorID = m.rows[idx].ID
	}
	m.layout()
}

func (m *Model) moveTo(idx int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = min(max(idx, 0), len(m.rows)-1)
	m.cursorID = m.rows[m.cursor].ID
	m.layout()
}
