// Package markup turns chat markdown into styled terminal text.
package markup

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

const (
	minWrap     = 20
	maxWrap     = 120
	defaultWrap = 80
)

// Renderer implements app.MarkupRenderer with glamour. It is safe for
// concurrent use; each call borrows a TermRenderer from a pool because a
// TermRenderer is not.
type Renderer struct {
	style string
	wrap  int
	pool  sync.Pool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle selects a glamour standard style ("dark", "light", "notty", ...).
func WithStyle(style string) Option {
	return func(r *Renderer) {
		if style != "" {
			r.style = style
		}
	}
}

// WithWidth sets the word-wrap width from the available terminal width.
func WithWidth(width int) Option {
	return func(r *Renderer) { r.wrap = WrapWidth(width) }
}

// New creates a Renderer. The style is fixed up front so rendering never
// queries the terminal from a background goroutine.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{style: "dark", wrap: defaultWrap}
	for _, opt := range opts {
		opt(r)
	}
	// Fail fast on a bad style instead of on every render.
	tr, err := r.newTermRenderer()
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	r.pool.Put(tr)
	return r, nil
}

func (r *Renderer) newTermRenderer() (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(r.wrap),
		glamour.WithEmoji(),
	)
}

// Render converts raw markdown. Surrounding blank lines glamour adds are trimmed.
func (r *Renderer) Render(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	tr, ok := r.pool.Get().(*glamour.TermRenderer)
	if !ok || tr == nil {
		var err error
		if tr, err = r.newTermRenderer(); err != nil {
			return "", fmt.Errorf("creating markdown renderer: %w", err)
		}
	}
	out, err := tr.Render(raw)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	r.pool.Put(tr)
	return strings.Trim(out, "\n"), nil
}

// WrapWidth maps a terminal width to a readable wrap width.
func WrapWidth(width int) int {
	if width <= 0 {
		return defaultWrap
	}
	w := width - 4
	return max(minWrap, min(w, maxWrap))
}
