package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/groupchat/infra/editor"
	"github.com/CrestNiraj12/groupchat/tui/common"
	"github.com/CrestNiraj12/groupchat/tui/compose"
	"github.com/CrestNiraj12/groupchat/tui/feed"
)

// Deps holds all dependencies the TUI needs. Plain struct, not a DI container.
type Deps struct {
	Feed   feed.Deps
	Editor *editor.EnvEditor
}

type activeView int

const (
	feedView activeView = iota
	composeView
)

// App is the root Bubble Tea model. It routes between sub-views.
type App struct {
	deps    Deps
	active  activeView
	feed    feed.Model
	compose compose.Model
	keys    common.KeyMap
	size    tea.WindowSizeMsg
}

// NewApp creates the root model with all dependencies wired.
func NewApp(deps Deps) App {
	return App{
		deps:   deps,
		active: feedView,
		feed:   feed.New(deps.Feed),
		keys:   common.DefaultKeyMap(),
	}
}

// Init delegates to the feed.
func (a App) Init() tea.Cmd {
	return a.feed.Init()
}

// NewestID returns the newest message id shown, for the unread marker of
// the next session.
func (a App) NewestID() string {
	return a.feed.NewestID()
}

// Update handles messages and routes to the active sub-model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, a.keys.ForceQuit) {
			return a, tea.Quit
		}
		if a.active == feedView && key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.size = msg
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Update(msg)
		if a.active == composeView {
			a.compose, _ = a.compose.Update(msg)
		}
		return a, cmd

	case feed.ComposeRequestMsg:
		a.active = composeView
		a.feed = a.feed.SetStatus("", false)
		group := a.deps.Feed.Group
		if msg.Editor {
			a.compose = compose.NewEditor(a.deps.Editor, group, msg.Draft, msg.ReplyTo)
		} else {
			a.compose = compose.NewInline(group, msg.Draft, msg.ReplyTo)
			if a.size.Width > 0 {
				a.compose, _ = a.compose.Update(a.size)
			}
		}
		return a, a.compose.Init()

	case compose.DoneMsg:
		a.active = feedView
		if msg.Err != nil {
			a.feed = a.feed.SetStatus("Error: "+msg.Err.Error(), true)
			return a, nil
		}
		if msg.Content == "" {
			a.feed = a.feed.SetStatus("Cancelled.", false)
			return a, nil
		}
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Post(msg.Content)
		return a, cmd
	}

	// Keys go to the active view only; everything else is feed engine
	// traffic that must land even while composing.
	if _, isKey := msg.(tea.KeyMsg); isKey && a.active == composeView {
		var cmd tea.Cmd
		a.compose, cmd = a.compose.Update(msg)
		return a, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.feed, cmd = a.feed.Update(msg)
	cmds = append(cmds, cmd)
	if a.active == composeView {
		a.compose, cmd = a.compose.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// View renders the active sub-model.
func (a App) View() string {
	if a.active == composeView {
		return a.compose.View()
	}
	return a.feed.View()
}
