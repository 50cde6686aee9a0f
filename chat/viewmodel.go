package chat

import (
	"time"

	"github.com/CrestNiraj12/groupchat/domain"
)

// Row is one displayable feed entry.
type Row struct {
	ID              string
	AuthorID        string
	AuthorName      string
	Mention         string
	Timestamp       time.Time
	Body            string
	RenderStatus    RenderStatus
	Likes           int
	LikedByMe       bool
	Expanded        bool
	Own             bool
	AuthorModerator bool
	CanDelete       bool
	Pending         ActionKind
	System          bool
}

// Project combines the store, rendered bodies, expansion and pending
// actions into feed rows. It only reads; missing bodies show as pending
// raw text until the cache has rendered them.
func Project(store *Store, cache *RenderCache, exp *Expansion, coord *Coordinator) []Row {
	msgs := store.Messages()
	rows := make([]Row, 0, len(msgs))

	var user domain.User
	if coord != nil {
		user = coord.User()
	}
	for _, m := range msgs {
		row := Row{
			ID:              m.ID,
			AuthorID:        m.AuthorID,
			AuthorName:      m.AuthorName,
			Mention:         m.Mention(),
			Timestamp:       m.Timestamp,
			Likes:           m.Likes,
			LikedByMe:       m.LikedByMe,
			Own:             user.Owns(m),
			AuthorModerator: m.AuthorModerator,
			System:          m.System,
		}
		if cache != nil {
			entry := cache.Peek(m)
			row.Body = entry.Styled
			row.RenderStatus = entry.Status
		} else {
			row.Body = plainText(m.Text)
		}
		if exp != nil {
			row.Expanded = exp.IsExpanded(m.ID)
		}
		if coord != nil {
			row.CanDelete = coord.CanDelete(m)
			if pa, ok := coord.Pending(m.ID); ok {
				row.Pending = pa.Kind
			}
		}
		rows = append(rows, row)
	}
	return rows
}
