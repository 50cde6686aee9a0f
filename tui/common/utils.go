package common

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

// RelativeTime renders t relative to now, falling back to a date for
// anything older than a week.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.Sub(t) > 7*24*time.Hour {
		return t.Local().Format("Jan 02 15:04")
	}
	if t.After(now) {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Plural returns "1 like" / "3 likes" style counts.
func Plural(n int, word string) string {
	return humanize.Comma(int64(n)) + " " + english.PluralWord(n, word, "")
}
