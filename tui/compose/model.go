package compose

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/groupchat/infra/editor"
)

// MaxLength is the server-side limit on chat message length.
const MaxLength = 3000

// --- Mode ---

type mode int

const (
	editorMode mode = iota
	inlineMode
)

// --- Messages ---

// DoneMsg is sent when composing is complete (success or cancel).
type DoneMsg struct {
	Content string // Empty if cancelled
	Err     error
}

// editorFinishedMsg is sent after the external editor exits.
type editorFinishedMsg struct {
	tmpPath string
	err     error
}

// --- Model ---

// Model holds the state for the compose view.
type Model struct {
	mode     mode
	editor   *editor.EnvEditor
	group    string
	replyTo  string
	draft    string
	status   string
	textarea textarea.Model // Only used in inline mode
}

// NewEditor creates a compose model that opens $EDITOR via tea.Exec.
// draft is the initial text, replyTo the mention being answered.
func NewEditor(ed *editor.EnvEditor, group, draft, replyTo string) Model {
	return Model{
		mode:    editorMode,
		editor:  ed,
		group:   group,
		replyTo: replyTo,
		draft:   draft,
		status:  "Opening editor...",
	}
}

// NewInline creates a compose model with an inline Bubble Tea textarea.
func NewInline(group, draft, replyTo string) Model {
	ta := textarea.New()
	ta.Placeholder = "Say something to the group..."
	ta.CharLimit = MaxLength
	ta.SetWidth(72)
	ta.SetHeight(6)
	ta.SetValue(draft)
	ta.Focus()

	return Model{
		mode:     inlineMode,
		group:    group,
		replyTo:  replyTo,
		draft:    draft,
		textarea: ta,
	}
}

// Init returns the initial command for the active mode.
func (m Model) Init() tea.Cmd {
	switch m.mode {
	case editorMode:
		return m.launchEditor()
	case inlineMode:
		return textarea.Blink
	}
	return nil
}

// launchEditor prepares the editor command and uses tea.ExecProcess so
// Bubble Tea releases the terminal while the editor runs.
func (m *Model) launchEditor() tea.Cmd {
	if m.editor == nil {
		return done(DoneMsg{Err: fmt.Errorf("no editor configured")})
	}
	cmd, tmpPath, err := m.editor.Cmd(m.draft, m.replyTo)
	if err != nil {
		return done(DoneMsg{Err: fmt.Errorf("preparing editor: %w", err)})
	}
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{tmpPath: tmpPath, err: err}
	})
}

// Update handles messages for the compose view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case editorFinishedMsg:
		if msg.err != nil {
			return m, done(DoneMsg{Err: fmt.Errorf("editor: %w", msg.err)})
		}
		content, err := m.editor.ReadContent(msg.tmpPath)
		if err != nil {
			return m, done(DoneMsg{Err: err})
		}
		return m, done(m.finish(content))

	case tea.WindowSizeMsg:
		if m.mode == inlineMode {
			m.textarea.SetWidth(min(max(msg.Width-4, 20), 100))
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode != inlineMode {
			break
		}
		switch msg.String() {
		case "esc":
			return m, done(DoneMsg{})
		case "ctrl+d":
			return m, done(m.finish(m.textarea.Value()))
		case "ctrl+b":
			m.format("**")
			return m, nil
		case "ctrl+t":
			m.format("*")
			return m, nil
		case "ctrl+x":
			m.format("~~")
			return m, nil
		}
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}

	if m.mode == inlineMode {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}
	return m, nil
}

// finish turns the composed text into the result. Unchanged or blank text
// cancels; only a reply prefill counts as unchanged.
func (m Model) finish(content string) DoneMsg {
	content = strings.TrimSpace(content)
	if content == "" || content == strings.TrimSpace(m.draft) {
		return DoneMsg{}
	}
	return DoneMsg{Content: content}
}

func (m *Model) format(marker string) {
	value, back := applyFormat(m.textarea.Value(), marker)
	m.textarea.SetValue(value)
	if back > 0 {
		m.textarea.CursorEnd()
		m.textarea.SetCursor(lastLineLen(value) - back)
	}
}

// applyFormat wraps the trailing word of value in marker. When value ends
// in whitespace an empty pair is appended and back is the cursor distance
// from the end needed to land between the markers.
func applyFormat(value, marker string) (out string, back int) {
	trimmed := strings.TrimRight(value, " \t\n")
	if trimmed == "" || len(trimmed) != len(value) {
		return value + marker + marker, len(marker)
	}
	start := strings.LastIndexAny(trimmed, " \t\n") + 1
	word := trimmed[start:]
	if strings.HasPrefix(word, marker) && strings.HasSuffix(word, marker) && len(word) >= 2*len(marker) {
		// Already formatted: unwrap.
		return trimmed[:start] + word[len(marker):len(word)-len(marker)], 0
	}
	return trimmed[:start] + marker + word + marker, 0
}

func lastLineLen(s string) int {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return len([]rune(s))
}

// done wraps a DoneMsg into a tea.Cmd for immediate delivery.
func done(msg DoneMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}
