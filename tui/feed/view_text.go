package feed

import (
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/CrestNiraj12/groupchat/chat"
	"github.com/CrestNiraj12/groupchat/tui/common"
)

// collapsedLines is how much of a body shows while a row is collapsed.
const collapsedLines = 3

func renderRow(row chat.Row, selected bool, width int, now time.Time) string {
	// Border plus horizontal padding.
	inner := max(width-6, 10)

	var b strings.Builder
	b.WriteString(renderAuthorLine(row, now))
	b.WriteString("\n")

	body := row.Body
	if row.RenderStatus != chat.RenderReady {
		body = common.ContentStyle.Render(body)
	}
	if !row.Expanded {
		clipped := clipLines(body, collapsedLines)
		if clipped != body {
			clipped += "\n" + common.TimestampStyle.Render("…")
		}
		body = clipped
	}
	b.WriteString(clampLinesToWidth(body, inner))
	b.WriteString("\n")
	b.WriteString(renderMeta(row))
	if row.Expanded {
		b.WriteString("\n")
		b.WriteString(common.HintStyle.Padding(0).Render(actionHints(row)))
	}

	style := common.UnselectedStyle
	if selected {
		style = common.SelectedStyle
	}
	return style.Width(max(width-2, 12)).Render(b.String())
}

func renderAuthorLine(row chat.Row, now time.Time) string {
	var out string
	if row.System {
		out = common.SystemStyle.Render("system")
	} else {
		out = authorStyleFor(row.AuthorName, row.Own).Render(row.AuthorName)
		if row.Mention != "" && row.Mention != row.AuthorName {
			out += " " + common.TimestampStyle.Render("@"+row.Mention)
		}
		if row.AuthorModerator {
			out += common.ModBadgeStyle.Render("mod")
		}
		if row.Own {
			out += common.OwnBadgeStyle.Render("you")
		}
	}
	if ts := common.RelativeTime(row.Timestamp, now); ts != "" {
		out += "  " + common.TimestampStyle.Render(ts)
	}
	return out
}

func renderMeta(row chat.Row) string {
	likes := "♥ " + common.Plural(row.Likes, "like")
	if row.LikedByMe {
		likes = common.LikedStyle.Render(likes)
	} else {
		likes = common.TimestampStyle.Render(likes)
	}
	switch row.Pending {
	case chat.ActionLike:
		likes += common.TimestampStyle.Render("  saving…")
	case chat.ActionDelete:
		likes += common.TimestampStyle.Render("  deleting…")
	}
	if row.RenderStatus == chat.RenderFailed {
		likes += common.TimestampStyle.Render("  (plain text)")
	}
	return likes
}

func actionHints(row chat.Row) string {
	var parts []string
	if !row.System {
		parts = append(parts, "r reply", "l like")
	}
	parts = append(parts, "y copy", "f report")
	if !row.System {
		parts = append(parts, "u profile")
	}
	if row.CanDelete {
		parts = append(parts, "d delete")
	}
	return strings.Join(parts, " · ")
}

func authorStyleFor(username string, isOwn bool) lipgloss.Style {
	if isOwn {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A6DA95"))
	}
	palette := []string{
		"#7DC4E4", "#8BD5CA", "#F5A97F", "#C6A0F6", "#EBA0AC",
		"#A6DA95", "#F9E2AF", "#89B4FA", "#F38BA8", "#94E2D5",
	}
	h := xxhash.Sum64String(strings.ToLower(strings.TrimSpace(username)))
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(palette[h%uint64(len(palette))]))
}

func clipLines(text string, maxLines int) string {
	if maxLines < 1 {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	return strings.Join(lines[:maxLines], "\n")
}

func clampLinesToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		if ansi.StringWidth(ln) <= width {
			continue
		}
		lines[i] = ansi.Cut(ln, 0, width)
	}
	return strings.Join(lines, "\n")
}
