package chat

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/semaphore"

	"github.com/CrestNiraj12/groupchat/app"
	"github.com/CrestNiraj12/groupchat/domain"
)

const (
	defaultRenderConcurrency = 4
	defaultQuiescence        = 150 * time.Millisecond
)

// RenderStatus is the lifecycle state of a rendered body.
type RenderStatus int

const (
	RenderPending RenderStatus = iota
	RenderReady
	RenderFailed
)

func (s RenderStatus) String() string {
	switch s {
	case RenderPending:
		return "pending"
	case RenderReady:
		return "ready"
	case RenderFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RenderedEntry is the styled body of one message version.
type RenderedEntry struct {
	ID          string
	Fingerprint uint64
	Styled      string // Sanitized raw text unless Status is RenderReady
	Status      RenderStatus
	Err         error
}

// RenderStats counts cache activity.
type RenderStats struct {
	Hits      int
	Misses    int
	Scheduled int
	Discarded int
}

// Fingerprint identifies a raw message text.
func Fingerprint(raw string) uint64 {
	return xxhash.Sum64String(raw)
}

type renderSlot struct {
	entry     RenderedEntry
	committed bool

	inflight   bool
	inflightFP uint64

	wanted   bool
	wantFP   uint64
	wantText string
}

type renderBatch struct {
	id          int
	open        bool
	outstanding int
	gen         int
	ids         []string
	seen        map[string]struct{}
}

// RenderCache holds rendered message bodies keyed by message id.
type RenderCache struct {
	renderer   app.MarkupRenderer
	sem        *semaphore.Weighted
	quiescence time.Duration
	logger     *log.Logger

	slots map[string]*renderSlot
	batch renderBatch
	stats RenderStats
}

// RenderOption configures a RenderCache.
type RenderOption func(*RenderCache)

// WithRenderConcurrency bounds how many converter calls run at once.
func WithRenderConcurrency(n int) RenderOption {
	return func(c *RenderCache) {
		if n > 0 {
			c.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithQuiescence sets how long the cache waits without completions before
// declaring a batch settled.
func WithQuiescence(d time.Duration) RenderOption {
	return func(c *RenderCache) {
		if d > 0 {
			c.quiescence = d
		}
	}
}

// WithRenderLogger sets the logger used for render failures.
func WithRenderLogger(l *log.Logger) RenderOption {
	return func(c *RenderCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewRenderCache creates a cache rendering through r.
func NewRenderCache(r app.MarkupRenderer, opts ...RenderOption) *RenderCache {
	c := &RenderCache{
		renderer:   r,
		sem:        semaphore.NewWeighted(defaultRenderConcurrency),
		quiescence: defaultQuiescence,
		logger:     log.New(io.Discard),
		slots:      make(map[string]*renderSlot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind drops cached bodies of messages that leave the store.
func (c *RenderCache) Bind(s *Store) {
	s.OnRemove(c.Forget)
}

// Peek returns the entry for m's current text without scheduling anything.
func (c *RenderCache) Peek(m domain.Message) RenderedEntry {
	fp := Fingerprint(m.Text)
	if slot, ok := c.slots[m.ID]; ok && slot.committed && slot.entry.Fingerprint == fp {
		return slot.entry
	}
	return RenderedEntry{
		ID:          m.ID,
		Fingerprint: fp,
		Styled:      plainText(m.Text),
		Status:      RenderPending,
	}
}

// Get returns the entry for m's current text. On a miss it returns a
// pending placeholder and the command that renders the text.
func (c *RenderCache) Get(m domain.Message) (RenderedEntry, tea.Cmd) {
	entry := c.Peek(m)
	if entry.Status != RenderPending {
		c.stats.Hits++
		if slot := c.slots[m.ID]; slot != nil && slot.inflight {
			// Text went back to the committed version; the running task is now stale.
			slot.wanted = false
			slot.wantFP = entry.Fingerprint
			slot.wantText = m.Text
		}
		return entry, nil
	}
	c.stats.Misses++
	return entry, c.schedule(m.ID, m.Text, entry.Fingerprint)
}

// Ensure schedules renders for every message whose body is missing or stale.
func (c *RenderCache) Ensure(msgs []domain.Message) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(msgs))
	for _, m := range msgs {
		if _, cmd := c.Get(m); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// Forget drops the cached body of id.
func (c *RenderCache) Forget(id string) {
	delete(c.slots, id)
}

// Stats returns counters since construction.
func (c *RenderCache) Stats() RenderStats {
	return c.stats
}

// InFlight reports whether a render for id is running.
func (c *RenderCache) InFlight(id string) bool {
	slot, ok := c.slots[id]
	return ok && slot.inflight
}

func (c *RenderCache) schedule(id, text string, fp uint64) tea.Cmd {
	slot, ok := c.slots[id]
	if !ok {
		slot = &renderSlot{}
		c.slots[id] = slot
	}
	slot.wanted = true
	slot.wantFP = fp
	slot.wantText = text
	if slot.inflight {
		// One task per id; newer text is picked up when the running one lands.
		return nil
	}
	return c.start(id, slot)
}

func (c *RenderCache) start(id string, slot *renderSlot) tea.Cmd {
	slot.inflight = true
	slot.inflightFP = slot.wantFP
	batch := c.joinBatch(id)
	c.stats.Scheduled++

	renderer := c.renderer
	sem := c.sem
	fp := slot.wantFP
	text := slot.wantText
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = RenderedMsg{Batch: batch, ID: id, Fingerprint: fp, Err: fmt.Errorf("%w: converter panic: %v", domain.ErrRenderFailure, r)}
			}
		}()
		if err := sem.Acquire(context.Background(), 1); err != nil {
			return RenderedMsg{Batch: batch, ID: id, Fingerprint: fp, Err: err}
		}
		defer sem.Release(1)

		styled, err := renderer.Render(text)
		if err != nil {
			err = fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
		}
		return RenderedMsg{Batch: batch, ID: id, Fingerprint: fp, Styled: styled, Err: err}
	}
}

// HandleRendered commits a finished render if it still matches the wanted
// text and chains the render of newer text otherwise.
func (c *RenderCache) HandleRendered(msg RenderedMsg) tea.Cmd {
	var follow tea.Cmd

	slot, ok := c.slots[msg.ID]
	switch {
	case !ok || !slot.inflight || slot.inflightFP != msg.Fingerprint:
		c.stats.Discarded++
	case slot.wantFP == msg.Fingerprint:
		slot.inflight = false
		slot.committed = true
		slot.wanted = false
		if msg.Err != nil {
			c.logger.Warn("render failed, using raw text", "id", msg.ID, "err", msg.Err)
			slot.entry = RenderedEntry{
				ID:          msg.ID,
				Fingerprint: msg.Fingerprint,
				Styled:      plainText(slot.wantText),
				Status:      RenderFailed,
				Err:         msg.Err,
			}
		} else {
			slot.entry = RenderedEntry{
				ID:          msg.ID,
				Fingerprint: msg.Fingerprint,
				Styled:      msg.Styled,
				Status:      RenderReady,
			}
		}
	default:
		slot.inflight = false
		c.stats.Discarded++
		c.logger.Debug("discarding stale render", "id", msg.ID)
		if slot.wanted {
			follow = c.start(msg.ID, slot)
		}
	}

	if c.batch.open && msg.Batch == c.batch.id {
		c.batch.outstanding--
		c.batch.gen++
	}
	return tea.Batch(follow, c.armSettle())
}

// HandleSettle closes the open batch when nothing is outstanding and no
// completion arrived since the timer was armed.
func (c *RenderCache) HandleSettle(msg RenderSettleMsg) (RenderBatchSettledMsg, bool) {
	b := &c.batch
	if !b.open || msg.Batch != b.id || msg.Gen != b.gen || b.outstanding > 0 {
		return RenderBatchSettledMsg{}, false
	}
	b.open = false
	ids := b.ids
	b.ids = nil
	b.seen = nil
	return RenderBatchSettledMsg{IDs: ids}, true
}

func (c *RenderCache) joinBatch(id string) int {
	b := &c.batch
	if !b.open {
		b.id++
		b.open = true
		b.outstanding = 0
		b.gen = 0
		b.ids = nil
		b.seen = make(map[string]struct{})
	}
	b.outstanding++
	if _, ok := b.seen[id]; !ok {
		b.seen[id] = struct{}{}
		b.ids = append(b.ids, id)
	}
	return b.id
}

func (c *RenderCache) armSettle() tea.Cmd {
	if !c.batch.open || c.batch.outstanding > 0 {
		return nil
	}
	msg := RenderSettleMsg{Batch: c.batch.id, Gen: c.batch.gen}
	return tea.Tick(c.quiescence, func(time.Time) tea.Msg {
		return msg
	})
}
