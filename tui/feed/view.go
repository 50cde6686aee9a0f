package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/groupchat/tui/common"
)

// View renders the feed as a string.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch {
	case len(m.rows) == 0 && m.deps.Store.Loading():
		b.WriteString(fmt.Sprintf("  %s Loading messages...\n", m.spinner.View()))
	case len(m.rows) == 0 && m.deps.Store.LastErr() != nil:
		b.WriteString(common.ErrorStyle.Render("  Could not load messages."))
		b.WriteString("\n\n  Press R to retry.\n")
	case len(m.rows) == 0:
		b.WriteString("  No messages yet. Press i to say hello.\n")
	default:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := common.AppTitleStyle.Render("groupchat")
	group := common.GroupStyle.Render(m.deps.Group)
	line := title + group
	switch {
	case m.deps.Store.Loading():
		line += "  " + m.spinner.View()
	case m.deps.Store.LastErr() != nil:
		line += "  " + common.ErrorStyle.Render("offline")
	case !m.deps.Store.LastRefreshed().IsZero():
		line += "  " + common.TimestampStyle.Render("updated "+common.RelativeTime(m.deps.Store.LastRefreshed(), m.now()))
	}
	return line
}

func (m Model) renderFooter() string {
	var b strings.Builder
	switch {
	case m.confirmDelete:
		b.WriteString(common.StatusBarStyle.Render(
			common.ConfirmStyle.Render("Delete this message? (y/n)")))
	case m.guidelinesPrompt:
		b.WriteString(common.StatusBarStyle.Render(
			common.ConfirmStyle.Render("Posting requires accepting the community guidelines. Accept? (y/n)")))
	case m.status != "" && m.statusErr:
		b.WriteString(common.StatusBarStyle.Render(common.ErrorStyle.Render(m.status)))
	case m.status != "":
		b.WriteString(common.StatusBarStyle.Render(m.status))
	default:
		b.WriteString(common.StatusBarStyle.Render(common.Plural(len(m.rows), "message")))
	}
	if m.showHints {
		b.WriteString("\n")
		b.WriteString(renderHints(m.keys.FeedHints()))
	}
	return b.String()
}

func renderHints(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return common.HintStyle.Render(strings.Join(parts, " • "))
}

// layout re-renders the rows into the viewport and scrolls the selected
// row into view.
func (m *Model) layout() {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	height := m.height
	if height <= 0 {
		height = defaultHeight
	}
	reserved := headerHeight + footerHeight
	if m.showHints {
		reserved++
	}
	m.viewport.Width = width
	m.viewport.Height = max(height-reserved, 1)

	var (
		blocks  []string
		heights = make([]int, len(m.rows))
		lines   int
		now     = m.now()
	)
	m.offsets = make([]int, len(m.rows))
	for i, row := range m.rows {
		if i > 0 && row.ID == m.lastSeenID {
			blocks = append(blocks, common.DividerStyle.Render(divider(width)))
			lines++
		}
		block := renderRow(row, i == m.cursor, width, now)
		m.offsets[i] = lines
		heights[i] = lipgloss.Height(block)
		lines += heights[i]
		blocks = append(blocks, block)
	}
	m.viewport.SetContent(strings.Join(blocks, "\n"))

	if len(m.rows) == 0 {
		m.viewport.SetYOffset(0)
		return
	}
	start := m.offsets[m.cursor]
	end := start + heights[m.cursor]
	switch {
	case start < m.viewport.YOffset:
		m.viewport.SetYOffset(start)
	case end > m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(min(start, end-m.viewport.Height))
	}
}

func divider(width int) string {
	label := " new since last visit "
	side := max((width-len(label))/2, 2)
	return strings.Repeat("─", side) + label + strings.Repeat("─", side)
}
