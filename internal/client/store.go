// Package client holds the in-memory bookmark list a session renders, and
// reconciles its three input streams: the initial load, optimistic local
// mutations, and the remote change-notification feed. The feed is
// at-least-once and unordered, so every fold into the list is idempotent
// and keyed by authoritative id.
package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/marksapp/marks/internal/logger"
	"github.com/marksapp/marks/internal/notify"
	"github.com/marksapp/marks/internal/store"
)

// Gateway is the persistence backend the store reconciles against. It is
// the single source of truth; implementations carry the owner scoping.
type Gateway interface {
	List(ctx context.Context) ([]*store.Bookmark, error)
	Insert(ctx context.Context, title, url string) (*store.Bookmark, error)
	Delete(ctx context.Context, id string) error
}

// Phase is the store lifecycle state.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
)

// Store owns the list exclusively: the gateway and the notification feed
// only produce results and events that Store folds in, one at a time, under
// a single lock. Mutating methods may be called from any goroutine.
type Store struct {
	gw  Gateway
	log logger.Logger

	mu      sync.Mutex
	phase   Phase
	entries []*Entry // sorted: created_at descending
}

// NewStore creates a Store in the loading phase with an empty list.
func NewStore(gw Gateway, log logger.Logger) *Store {
	return &Store{gw: gw, log: log, phase: PhaseLoading}
}

// Load fetches the full list from the gateway. On gateway failure the store
// still becomes ready with an empty list; the error is logged, not
// returned, so a broken backend renders as an empty state rather than a
// crash.
func (s *Store) Load(ctx context.Context) {
	list, err := s.gw.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseReady
	if err != nil {
		s.log.Warn("bookmark load failed, rendering empty list", logger.Error(err))
		s.entries = nil
		return
	}
	s.entries = s.entries[:0]
	for _, b := range list {
		s.insertLocked(entryFromRow(b))
	}
}

// Add creates a bookmark optimistically. Empty title or url (after
// trimming) makes the whole call a no-op with no gateway traffic. The
// pending entry is visible in the list before the gateway call is issued;
// on success it is replaced by the authoritative row exactly once, even
// when the notification feed delivers the same row concurrently. On
// failure the pending entry is removed and the error returned.
func (s *Store) Add(ctx context.Context, title, url string) (*Entry, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" || url == "" {
		return nil, nil
	}
	url = store.NormalizeURL(url)

	pending := &Entry{
		State:     Pending,
		TempID:    newTempID(),
		Title:     title,
		URL:       url,
		CreatedAt: time.Now().UTC(), // approximation, corrected on confirm
	}

	s.mu.Lock()
	s.insertLocked(pending)
	s.mu.Unlock()

	row, err := s.gw.Insert(ctx, title, url)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(pending.TempID)
	if err != nil {
		return nil, err
	}

	// The feed may have delivered this row already; never hold it twice.
	if existing := s.findLocked(row.ID); existing != nil {
		return existing, nil
	}
	confirmed := entryFromRow(row)
	s.insertLocked(confirmed)
	return confirmed, nil
}

// Delete removes the entry with the given authoritative id, optimistically,
// then issues the gateway delete. The caller is responsible for user
// confirmation. On gateway failure the whole list is reloaded, since other
// mutations may have landed meanwhile and fine-grained undo would guess;
// the error is returned. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	removed := s.removeLocked(id)
	s.mu.Unlock()
	if !removed {
		return nil
	}

	if err := s.gw.Delete(ctx, id); err != nil {
		s.reload(ctx)
		return err
	}
	return nil
}

// HandleEvent folds one remote notification into the list. Inserts for
// known ids and deletes for absent ids are no-ops, which makes redelivery
// and arbitrary interleaving with local mutations safe. Unknown kinds are
// ignored.
func (s *Store) HandleEvent(ev notify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev.Kind {
	case notify.KindInsert:
		if ev.Bookmark == nil || s.findLocked(ev.Bookmark.ID) != nil {
			return
		}
		s.insertLocked(entryFromRow(ev.Bookmark))
	case notify.KindDelete:
		s.removeLocked(ev.ID)
	}
}

// Run folds feed events until ctx ends or the subscription closes. The
// subscription should be established before Load so no window exists where
// a change is neither in the snapshot nor on the feed.
func (s *Store) Run(ctx context.Context, sub notify.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			s.HandleEvent(ev)
		}
	}
}

// Search returns the entries whose title or url contains query,
// case-insensitively. The empty query matches everything. The underlying
// list is never mutated.
func (s *Store) Search(query string) []*Entry {
	query = strings.ToLower(strings.TrimSpace(query))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if query == "" ||
			strings.Contains(strings.ToLower(e.Title), query) ||
			strings.Contains(strings.ToLower(e.URL), query) {
			out = append(out, e)
		}
	}
	return out
}

// Entries returns a copy of the full list, newest first.
func (s *Store) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Phase returns the current lifecycle phase.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// reload replaces the list with a fresh gateway snapshot. A stale reload
// completing after newer changes may overwrite optimistic state; that is
// accepted, since the next feed event or reload converges again.
func (s *Store) reload(ctx context.Context) {
	list, err := s.gw.List(ctx)
	if err != nil {
		s.log.Warn("bookmark reload failed, keeping current list", logger.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
	for _, b := range list {
		s.insertLocked(entryFromRow(b))
	}
}

func entryFromRow(b *store.Bookmark) *Entry {
	return &Entry{
		State:     Confirmed,
		ID:        b.ID,
		Title:     b.Title,
		URL:       b.URL,
		CreatedAt: b.CreatedAt,
	}
}

// findLocked returns the confirmed entry with the given authoritative id.
func (s *Store) findLocked(id string) *Entry {
	if id == "" {
		return nil
	}
	for _, e := range s.entries {
		if e.State == Confirmed && e.ID == id {
			return e
		}
	}
	return nil
}

// insertLocked places e at its sort position.
func (s *Store) insertLocked(e *Entry) {
	at := len(s.entries)
	for i, cur := range s.entries {
		if before(e, cur) {
			at = i
			break
		}
	}
	s.entries = append(s.entries, nil)
	copy(s.entries[at+1:], s.entries[at:])
	s.entries[at] = e
}

// removeLocked removes the entry whose key (authoritative or temporary id)
// matches, reporting whether anything was removed.
func (s *Store) removeLocked(key string) bool {
	for i, e := range s.entries {
		if e.Key() == key {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}
