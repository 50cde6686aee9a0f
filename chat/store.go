// Package chat is the feed engine behind a group chat screen: the ordered
// message cache, the background markup renderer, the expansion state and
// the optimistic interaction coordinator.
//
// Every type here is owned by the Bubble Tea update loop. Methods are not
// safe for concurrent use; remote and render work happens inside the
// returned tea.Cmd closures and comes back as messages handled on the loop.
package chat

import (
	"context"
	"io"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/CrestNiraj12/groupchat/app"
	"github.com/CrestNiraj12/groupchat/domain"
)

const archiveTimeout = 5 * time.Second

// RefreshOutcome summarizes how a refresh changed the cache.
type RefreshOutcome struct {
	Added   []string
	Updated []string
	Removed []string
	Changed []domain.Message // Added and updated messages, post-merge
	Err     error
	Stale   bool // Result was superseded or belonged to another group
}

// Store is the ordered message cache of a single group.
type Store struct {
	groupID string
	svc     app.ChatService
	archive app.MessageArchive
	logger  *log.Logger
	now     func() time.Time

	msgs  []domain.Message
	index map[string]int

	// Local revisions let a merge tell which local changes happened after
	// its fetch started.
	rev     uint64
	touched map[string]uint64
	removed map[string]uint64
	pinned  map[string]int

	inflight      bool
	queued        bool
	seq           int
	lastMerged    time.Time
	lastRefreshed time.Time
	lastErr       error
	merged        bool

	listeners []func(id string)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithArchive persists merged snapshots and enables Restore.
func WithArchive(a app.MessageArchive) StoreOption {
	return func(s *Store) { s.archive = a }
}

// WithStoreLogger sets the store logger.
func WithStoreLogger(l *log.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty cache for groupID.
func NewStore(groupID string, svc app.ChatService, opts ...StoreOption) *Store {
	s := &Store{
		groupID: groupID,
		svc:     svc,
		logger:  log.New(io.Discard),
		now:     time.Now,
		index:   make(map[string]int),
		touched: make(map[string]uint64),
		removed: make(map[string]uint64),
		pinned:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GroupID returns the group this store caches.
func (s *Store) GroupID() string { return s.groupID }

// Loading reports whether a refresh is in flight.
func (s *Store) Loading() bool { return s.inflight }

// LastErr returns the error of the most recent failed refresh, cleared on success.
func (s *Store) LastErr() error { return s.lastErr }

// LastRefreshed returns when the last successful merge landed.
func (s *Store) LastRefreshed() time.Time { return s.lastRefreshed }

// Len returns the number of cached messages.
func (s *Store) Len() int { return len(s.msgs) }

// Messages returns a copy of the cache in feed order.
func (s *Store) Messages() []domain.Message {
	out := make([]domain.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Get returns a copy of the message with id.
func (s *Store) Get(id string) (domain.Message, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.Message{}, false
	}
	return s.msgs[i], true
}

// IndexOf returns the feed position of id, or -1.
func (s *Store) IndexOf(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// OnRemove registers fn to be called with every id that leaves the cache.
func (s *Store) OnRemove(fn func(id string)) {
	s.listeners = append(s.listeners, fn)
}

// Refresh starts a fetch for the group. While a fetch is in flight further
// requests collapse into a single follow-up fetch and Refresh returns nil.
func (s *Store) Refresh() tea.Cmd {
	if s.inflight {
		s.queued = true
		return nil
	}
	s.inflight = true
	s.seq++
	return s.fetch(s.seq, s.rev)
}

func (s *Store) fetch(seq int, startRev uint64) tea.Cmd {
	svc := s.svc
	group := s.groupID
	now := s.now
	return func() tea.Msg {
		started := now()
		msgs, err := svc.FetchMessages(context.Background(), group)
		return RefreshResultMsg{
			GroupID:   group,
			Seq:       seq,
			StartRev:  startRev,
			FetchedAt: started,
			Messages:  msgs,
			Err:       err,
		}
	}
}

// HandleRefresh merges a fetch result. A failed fetch leaves the cache as it was.
func (s *Store) HandleRefresh(msg RefreshResultMsg) (RefreshOutcome, tea.Cmd) {
	if msg.GroupID != s.groupID {
		return RefreshOutcome{Stale: true}, nil
	}
	if msg.Seq == s.seq {
		s.inflight = false
	}

	var out RefreshOutcome
	var persist tea.Cmd
	switch {
	case msg.Err != nil:
		s.lastErr = msg.Err
		s.logger.Warn("refresh failed", "group", s.groupID, "kind", domain.KindOf(msg.Err), "err", msg.Err)
		out = RefreshOutcome{Err: msg.Err}
	case s.merged && msg.FetchedAt.Before(s.lastMerged):
		s.logger.Debug("dropping superseded refresh", "group", s.groupID, "seq", msg.Seq)
		out = RefreshOutcome{Stale: true}
	default:
		out = s.merge(msg.Messages, msg.StartRev)
		s.merged = true
		s.lastMerged = msg.FetchedAt
		s.lastRefreshed = s.now()
		s.lastErr = nil
		s.logger.Debug("refresh merged", "group", s.groupID,
			"added", len(out.Added), "updated", len(out.Updated), "removed", len(out.Removed))
		persist = s.persist()
	}

	var follow tea.Cmd
	if !s.inflight && s.queued {
		s.queued = false
		follow = s.Refresh()
	}
	return out, tea.Batch(persist, follow)
}

func (s *Store) merge(fetched []domain.Message, startRev uint64) RefreshOutcome {
	var out RefreshOutcome

	seen := make(map[string]struct{}, len(fetched))
	next := make([]domain.Message, 0, len(fetched)+len(s.msgs))
	for _, f := range dedupeByID(fetched) {
		seen[f.ID] = struct{}{}
		if _, gone := s.removed[f.ID]; gone {
			continue
		}
		cur, exists := s.Get(f.ID)
		switch {
		case !exists:
			next = append(next, f)
			out.Added = append(out.Added, f.ID)
			out.Changed = append(out.Changed, f)
		case s.isLocal(f.ID, startRev):
			// Local copy wins; the server's version is taken by the first
			// refresh that starts after the pin or mutation is released.
			next = append(next, cur)
		case cur.SameContent(f):
			next = append(next, cur)
		default:
			next = append(next, f)
			out.Updated = append(out.Updated, f.ID)
			out.Changed = append(out.Changed, f)
		}
	}
	for _, cur := range s.msgs {
		if _, ok := seen[cur.ID]; ok {
			continue
		}
		if s.isLocal(cur.ID, startRev) {
			next = append(next, cur)
			continue
		}
		out.Removed = append(out.Removed, cur.ID)
	}

	// Tombstones the server no longer reports are settled.
	for id := range s.removed {
		if _, ok := seen[id]; !ok && s.pinned[id] == 0 {
			delete(s.removed, id)
		}
	}
	for id, rev := range s.touched {
		if rev <= startRev {
			delete(s.touched, id)
		}
	}

	domain.SortMessages(next)
	s.msgs = next
	s.reindex()
	for _, id := range out.Removed {
		s.notifyRemoved(id)
	}
	return out
}

// isLocal reports whether local state for id wins over a fetch that started at startRev.
func (s *Store) isLocal(id string, startRev uint64) bool {
	return s.touched[id] > startRev || s.pinned[id] > 0
}

// InsertLocal adds m (or replaces the entry with the same id) at the
// position the feed order dictates.
func (s *Store) InsertLocal(m domain.Message) {
	if m.ID == "" {
		return
	}
	s.bump(m.ID)
	delete(s.removed, m.ID)
	if i, ok := s.index[m.ID]; ok {
		s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
	}
	pos := sort.Search(len(s.msgs), func(i int) bool {
		return domain.Less(m, s.msgs[i])
	})
	s.msgs = append(s.msgs, domain.Message{})
	copy(s.msgs[pos+1:], s.msgs[pos:])
	s.msgs[pos] = m
	s.reindex()
}

// Mutate applies fn to the cached message with id and reports whether it matched.
func (s *Store) Mutate(id string, fn func(*domain.Message)) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	m := s.msgs[i]
	before := m.Timestamp
	fn(&m)
	m.ID = id
	s.bump(id)
	s.msgs[i] = m
	if !m.Timestamp.Equal(before) {
		domain.SortMessages(s.msgs)
		s.reindex()
	}
	return true
}

// Remove drops id from the cache and reports whether it matched.
func (s *Store) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.rev++
	s.removed[id] = s.rev
	delete(s.touched, id)
	s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
	s.reindex()
	s.notifyRemoved(id)
	return true
}

// Pin keeps the local copy of id authoritative over fetched data until
// Unpin is called. Used while an optimistic action is in flight.
func (s *Store) Pin(id string) {
	s.pinned[id]++
}

// Unpin releases one Pin.
func (s *Store) Unpin(id string) {
	if s.pinned[id] <= 1 {
		delete(s.pinned, id)
		return
	}
	s.pinned[id]--
}

// Restore loads the archived snapshot in the background.
func (s *Store) Restore() tea.Cmd {
	if s.archive == nil {
		return nil
	}
	archive := s.archive
	group := s.groupID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		msgs, err := archive.Load(ctx, group)
		return RestoreResultMsg{GroupID: group, Messages: msgs, Err: err}
	}
}

// HandleRestore seeds an empty cache from the archive. Once a refresh has
// merged, archived data is ignored.
func (s *Store) HandleRestore(msg RestoreResultMsg) bool {
	if msg.GroupID != s.groupID || s.merged || len(s.msgs) > 0 {
		return false
	}
	if msg.Err != nil {
		s.logger.Warn("archive load failed", "group", s.groupID, "err", msg.Err)
		return false
	}
	msgs := dedupeByID(msg.Messages)
	domain.SortMessages(msgs)
	s.msgs = msgs
	s.reindex()
	return len(msgs) > 0
}

func (s *Store) persist() tea.Cmd {
	if s.archive == nil {
		return nil
	}
	archive := s.archive
	group := s.groupID
	logger := s.logger
	snapshot := s.Messages()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := archive.Save(ctx, group, snapshot); err != nil {
			logger.Warn("archive save failed", "group", group, "err", err)
		}
		return nil
	}
}

func (s *Store) bump(id string) {
	s.rev++
	s.touched[id] = s.rev
}

func (s *Store) reindex() {
	clear(s.index)
	for i, m := range s.msgs {
		s.index[m.ID] = i
	}
}

func (s *Store) notifyRemoved(id string) {
	for _, fn := range s.listeners {
		fn(id)
	}
}

// dedupeByID drops messages without an id and keeps the last copy of each id.
func dedupeByID(in []domain.Message) []domain.Message {
	pos := make(map[string]int, len(in))
	out := make([]domain.Message, 0, len(in))
	for _, m := range in {
		if m.ID == "" {
			continue
		}
		if i, ok := pos[m.ID]; ok {
			out[i] = m
			continue
		}
		pos[m.ID] = len(out)
		out = append(out, m)
	}
	return out
}
