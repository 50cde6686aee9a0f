package chat

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// plainText makes raw markup safe to print as-is: escape sequences and
// control characters other than newline and tab are dropped.
func plainText(raw string) string {
	s := ansi.Strip(raw)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		case r >= 0x80 && r < 0xa0:
			return -1
		default:
			return r
		}
	}, s)
}
