package domain

import (
	"sort"
	"time"
)

// Message is a single chat message in a group feed.
type Message struct {
	ID              string
	GroupID         string
	AuthorID        string
	AuthorName      string // Display name
	AuthorUsername  string // Login handle, used for @mentions
	Text            string // Raw markup
	Timestamp       time.Time
	Likes           int
	LikedByMe       bool
	AuthorModerator bool
	FlagCount       int
	System          bool // Server-generated, no author
}

// LikeState is the server's view of a message's likes after a toggle.
type LikeState struct {
	Likes     int
	LikedByMe bool
	Known     bool // False when the server did not report likes
}

// Less reports whether a sorts before b in a feed: newest first, ties by ID ascending.
func Less(a, b Message) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.ID < b.ID
	}
	return a.Timestamp.After(b.Timestamp)
}

// SortMessages orders msgs in place. Equal keys keep their relative order.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return Less(msgs[i], msgs[j])
	})
}

// Mention returns the handle used when replying to the author.
func (m Message) Mention() string {
	if m.AuthorUsername != "" {
		return m.AuthorUsername
	}
	return m.AuthorName
}

// SameContent reports whether two versions of a message differ in any field
// the feed displays.
func (m Message) SameContent(o Message) bool {
	if !m.Timestamp.Equal(o.Timestamp) {
		return false
	}
	m.Timestamp, o.Timestamp = time.Time{}, time.Time{}
	return m == o
}

// Newest returns a sorted copy of the n newest messages.
func Newest(msgs []Message, n int) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	SortMessages(out)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
