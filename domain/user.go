package domain

// User is the authenticated user the feed is rendered for.
type User struct {
	ID                 string
	Username           string
	DisplayName        string
	Moderator          bool
	GuidelinesAccepted bool
}

// Owns reports whether m was written by u.
func (u User) Owns(m Message) bool {
	return u.ID != "" && m.AuthorID == u.ID
}
