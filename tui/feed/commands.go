package feed

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// Swapped in tests.
var (
	writeClipboard = clipboard.WriteAll
	startBrowser   = func(rawURL string) error { return browserCommand(rawURL).Start() }
)

func copyText(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{err: writeClipboard(text)}
	}
}

func openProfile(rawURL, username string) tea.Cmd {
	return func() tea.Msg {
		if !isSafeExternalURL(rawURL) {
			return profileOpenedMsg{username: username, err: fmt.Errorf("refusing to open %q", rawURL)}
		}
		return profileOpenedMsg{username: username, err: startBrowser(rawURL)}
	}
}

func browserCommand(rawURL string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", rawURL)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return exec.Command("xdg-open", rawURL)
	}
}

func isSafeExternalURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Host == "" {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

// ProfileURL returns a function building profile links under base.
func ProfileURL(base string) func(userID string) string {
	base = strings.TrimRight(base, "/")
	return func(userID string) string {
		return base + "/profile/" + url.PathEscape(userID)
	}
}
