package feed

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/groupchat/chat"
	"github.com/CrestNiraj12/groupchat/domain"
)

// Update handles messages for the feed.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case chat.RestoreResultMsg:
		var cmd tea.Cmd
		if m.deps.Store.HandleRestore(msg) {
			cmd = m.deps.Cache.Ensure(m.deps.Store.Messages())
		}
		m.sync()
		return m, cmd

	case chat.RefreshResultMsg:
		out, cmd := m.deps.Store.HandleRefresh(msg)
		if out.Stale {
			return m, cmd
		}
		if out.Err != nil {
			m.setError("Refresh failed", out.Err)
			m.sync()
			return m, cmd
		}
		if m.statusErr {
			m.status = ""
			m.statusErr = false
		}
		m.deps.Expansion.Resolve(m.deps.Store)
		m.sync()
		return m, tea.Batch(cmd, m.deps.Cache.Ensure(out.Changed))

	case chat.RenderedMsg:
		return m, m.deps.Cache.HandleRendered(msg)

	case chat.RenderSettleMsg:
		settled, ok := m.deps.Cache.HandleSettle(msg)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return settled }

	case chat.RenderBatchSettledMsg:
		m.sync()
		return m, nil

	case chat.LikeResultMsg, chat.DeleteResultMsg, chat.PostResultMsg,
		chat.FlagResultMsg, chat.AcceptGuidelinesResultMsg:
		return m.handleResult(msg)

	case clipboardMsg:
		if msg.err != nil {
			m.setError("Copy failed", msg.err)
		} else {
			m.status = "Copied to clipboard."
			m.statusErr = false
		}
		return m, nil

	case profileOpenedMsg:
		if msg.err != nil {
			m.setError("Could not open profile", msg.err)
		} else {
			m.status = "Opened profile of " + msg.username + "."
			m.statusErr = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleResult(msg tea.Msg) (Model, tea.Cmd) {
	notice, ok := m.deps.Coordinator.HandleResult(msg)
	if !ok {
		return m, nil
	}
	if notice.Err != nil {
		m.setError(notice.Text, notice.Err)
	} else if notice.Text != "" {
		m.status = notice.Text
		m.statusErr = false
	}

	// A rolled back delete brings back a message the cache already forgot.
	cmds := []tea.Cmd{notice.Cmd, m.deps.Cache.Ensure(m.deps.Store.Messages())}
	if _, accepted := msg.(chat.AcceptGuidelinesResultMsg); accepted && m.deps.Coordinator.GuidelinesAccepted() {
		if req := m.pendingCompose; req != nil {
			m.pendingCompose = nil
			cmds = append(cmds, func() tea.Msg { return *req })
		}
	}
	m.sync()
	return m, tea.Batch(cmds...)
}

func (m *Model) setError(prefix string, err error) {
	m.statusErr = true
	m.status = fmt.Sprintf("%s: %s", prefix, describe(err))
}

// describe maps an error to a short user-facing explanation.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrActionPending):
		return "still waiting for the previous action on this message"
	case errors.Is(err, domain.ErrEmptyMessage):
		return "message is empty"
	case errors.Is(err, domain.ErrGuidelinesNotAccepted):
		return "accept the community guidelines first"
	case errors.Is(err, domain.ErrUnauthorized):
		return "not signed in, check your API token"
	}
	switch domain.KindOf(err) {
	case domain.KindNetwork:
		return "network problem, try again"
	case domain.KindPermission:
		return "not allowed"
	}
	return err.Error()
}
