package chat

// ExpansionChange describes one transition. Empty ids mean collapsed.
type ExpansionChange struct {
	Previous string
	Current  string
}

// Changed reports whether the transition altered anything.
func (c ExpansionChange) Changed() bool {
	return c.Previous != c.Current
}

// Expansion tracks the single expanded message of a feed.
type Expansion struct {
	expanded string
}

// Bind collapses the expansion when the expanded message leaves s.
func (e *Expansion) Bind(s *Store) {
	s.OnRemove(func(id string) { e.Clear(id) })
}

// Toggle collapses id if it is expanded, otherwise expands it in place of
// whatever was expanded before.
func (e *Expansion) Toggle(id string) ExpansionChange {
	prev := e.expanded
	if id == "" || prev == id {
		e.expanded = ""
	} else {
		e.expanded = id
	}
	return ExpansionChange{Previous: prev, Current: e.expanded}
}

// Expanded returns the expanded id, if any.
func (e *Expansion) Expanded() (string, bool) {
	return e.expanded, e.expanded != ""
}

// IsExpanded reports whether id is the expanded message.
func (e *Expansion) IsExpanded(id string) bool {
	return id != "" && e.expanded == id
}

// Clear collapses the expansion if id is the expanded message.
func (e *Expansion) Clear(id string) ExpansionChange {
	prev := e.expanded
	if prev != "" && prev == id {
		e.expanded = ""
	}
	return ExpansionChange{Previous: prev, Current: e.expanded}
}

// Reset collapses unconditionally.
func (e *Expansion) Reset() ExpansionChange {
	prev := e.expanded
	e.expanded = ""
	return ExpansionChange{Previous: prev}
}

// Resolve collapses the expansion if its id is no longer cached by s.
func (e *Expansion) Resolve(s *Store) {
	if e.expanded == "" {
		return
	}
	if _, ok := s.Get(e.expanded); !ok {
		e.expanded = ""
	}
}
