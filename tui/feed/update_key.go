package feed

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/groupchat/chat"
)

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.confirmDelete {
		return m.handleDeleteConfirm(msg)
	}
	if m.guidelinesPrompt {
		return m.handleGuidelinesPrompt(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveTo(m.cursor - 1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveTo(m.cursor + 1)
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.moveTo(0)
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.moveTo(len(m.rows) - 1)
		return m, nil

	case key.Matches(msg, m.keys.ToggleHints):
		m.showHints = !m.showHints
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.status = "Refreshing..."
		m.statusErr = false
		return m, m.deps.Store.Refresh()

	case key.Matches(msg, m.keys.Compose):
		return m.requestCompose(ComposeRequestMsg{})

	case key.Matches(msg, m.keys.ComposeEditor):
		return m.requestCompose(ComposeRequestMsg{Editor: true})
	}

	row, ok := m.selected()
	if !ok {
		return m, nil
	}
	msgData, ok := m.deps.Store.Get(row.ID)
	if !ok {
		return m, nil
	}
	coord := m.deps.Coordinator

	switch {
	case key.Matches(msg, m.keys.Toggle):
		m.deps.Expansion.Toggle(row.ID)
		m.sync()
		return m, nil

	case key.Matches(msg, m.keys.Like):
		if row.System {
			m.status = "System messages cannot be liked."
			m.statusErr = false
			return m, nil
		}
		cmd, err := coord.Like(row.ID)
		if err != nil {
			m.setError("Cannot like", err)
			return m, nil
		}
		m.sync()
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if !row.CanDelete {
			m.status = "You can only delete your own messages."
			m.statusErr = false
			return m, nil
		}
		if row.Pending != chat.ActionNone {
			m.status = "Still waiting for the previous action on this message."
			m.statusErr = false
			return m, nil
		}
		m.confirmDelete = true
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Flag):
		cmd, err := coord.Flag(row.ID)
		if err != nil {
			m.setError("Cannot report", err)
			return m, nil
		}
		m.status = "Reporting..."
		m.statusErr = false
		return m, cmd

	case key.Matches(msg, m.keys.Copy):
		return m, copyText(coord.Copy(msgData))

	case key.Matches(msg, m.keys.Reply):
		if row.System {
			m.status = "System messages cannot be answered."
			m.statusErr = false
			return m, nil
		}
		mention := coord.Reply(msgData)
		return m.requestCompose(ComposeRequestMsg{Draft: mention + " ", ReplyTo: mention})

	case key.Matches(msg, m.keys.Profile):
		req, ok := coord.Profile(msgData)
		if !ok || m.deps.ProfileURL == nil {
			m.status = "No profile for this message."
			m.statusErr = false
			return m, nil
		}
		return m, openProfile(m.deps.ProfileURL(req.UserID), req.Username)
	}
	return m, nil
}

func (m Model) handleDeleteConfirm(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.confirmDelete = false
	if !key.Matches(msg, m.keys.Confirm) {
		m.status = "Delete cancelled."
		m.statusErr = false
		m.layout()
		return m, nil
	}
	row, ok := m.selected()
	if !ok {
		m.layout()
		return m, nil
	}
	cmd, err := m.deps.Coordinator.Delete(row.ID)
	if err != nil {
		m.setError("Cannot delete", err)
		m.layout()
		return m, nil
	}
	m.status = "Deleting..."
	m.statusErr = false
	m.sync()
	return m, cmd
}

func (m Model) handleGuidelinesPrompt(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.guidelinesPrompt = false
	if !key.Matches(msg, m.keys.Confirm) {
		m.pendingCompose = nil
		m.status = "Posting needs the community guidelines accepted."
		m.statusErr = false
		m.layout()
		return m, nil
	}
	m.status = "Accepting guidelines..."
	m.statusErr = false
	m.layout()
	return m, m.deps.Coordinator.AcceptGuidelines()
}

// requestCompose opens the composer, asking for guidelines acceptance first
// when the user has not given it yet.
func (m Model) requestCompose(req ComposeRequestMsg) (Model, tea.Cmd) {
	if !m.deps.Coordinator.GuidelinesAccepted() {
		m.guidelinesPrompt = true
		m.pendingCompose = &req
		m.layout()
		return m, nil
	}
	return m, func() tea.Msg { return req }
}
