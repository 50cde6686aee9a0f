package compose

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/CrestNiraj12/groupchat/tui/common"
)

// View renders the compose view based on the active mode.
func (m Model) View() string {
	switch m.mode {
	case editorMode:
		return m.status + "\n"

	case inlineMode:
		var b strings.Builder
		b.WriteString(common.AppTitleStyle.Render("groupchat"))
		b.WriteString(common.GroupStyle.Render(m.group))
		if m.replyTo != "" {
			b.WriteString("  reply to " + common.AuthorStyle.Render(m.replyTo))
		} else {
			b.WriteString("  New message")
		}
		b.WriteString("\n\n")
		b.WriteString(m.textarea.View())
		b.WriteString("\n\n")

		if m.status != "" {
			b.WriteString(common.StatusBarStyle.Render(m.status))
		} else {
			b.WriteString(common.StatusBarStyle.Render(
				fmt.Sprintf("  ctrl+d: send • esc: cancel • ctrl+b bold • ctrl+t italic • ctrl+x strike • %d/%d",
					utf8.RuneCountInString(m.textarea.Value()), MaxLength),
			))
		}
		return b.String()
	}
	return ""
}
