package app

// MarkupRenderer converts raw message markup into styled terminal text.
// Implementations must be safe to call from several goroutines at once.
type MarkupRenderer interface {
	Render(raw string) (string, error)
}
