package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marksapp/marks/internal/client"
	"github.com/marksapp/marks/internal/logger"
	"github.com/marksapp/marks/internal/notify"
	"github.com/marksapp/marks/internal/store"
)

// fakeGateway records calls and serves canned responses.
type fakeGateway struct {
	rows      []*store.Bookmark
	listErr   error
	insertErr error
	deleteErr error

	insertCalls int
	deleteCalls int
	listCalls   int

	// onInsert runs before Insert returns, to interleave feed events with
	// an in-flight gateway call.
	onInsert func(*store.Bookmark)
}

func (g *fakeGateway) List(ctx context.Context) ([]*store.Bookmark, error) {
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	out := make([]*store.Bookmark, len(g.rows))
	copy(out, g.rows)
	return out, nil
}

func (g *fakeGateway) Insert(ctx context.Context, title, url string) (*store.Bookmark, error) {
	g.insertCalls++
	if g.insertErr != nil {
		return nil, g.insertErr
	}
	b := &store.Bookmark{
		ID:        "id-" + title,
		OwnerID:   "owner",
		Title:     title,
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}
	g.rows = append(g.rows, b)
	if g.onInsert != nil {
		g.onInsert(b)
	}
	return b, nil
}

func (g *fakeGateway) Delete(ctx context.Context, id string) error {
	g.deleteCalls++
	if g.deleteErr != nil {
		return g.deleteErr
	}
	for i, b := range g.rows {
		if b.ID == id {
			g.rows = append(g.rows[:i], g.rows[i+1:]...)
			break
		}
	}
	return nil
}

func row(id, title string, at time.Time) *store.Bookmark {
	return &store.Bookmark{ID: id, OwnerID: "owner", Title: title, URL: "https://" + title + ".example.com", CreatedAt: at}
}

func ids(entries []*client.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key()
	}
	return out
}

func assertIDs(t *testing.T, entries []*client.Entry, want ...string) {
	t.Helper()
	got := ids(entries)
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}
}

func TestStore_Load(t *testing.T) {
	now := time.Now().UTC()
	gw := &fakeGateway{rows: []*store.Bookmark{
		row("a", "alpha", now.Add(-2*time.Hour)),
		row("b", "beta", now),
		row("c", "gamma", now.Add(-time.Hour)),
	}}
	s := client.NewStore(gw, logger.Nop())

	if s.Phase() != client.PhaseLoading {
		t.Fatalf("phase = %v, want loading", s.Phase())
	}

	s.Load(context.Background())

	if s.Phase() != client.PhaseReady {
		t.Fatalf("phase = %v, want ready", s.Phase())
	}
	// Newest first.
	assertIDs(t, s.Entries(), "b", "c", "a")
}

func TestStore_LoadFailureRendersEmpty(t *testing.T) {
	gw := &fakeGateway{listErr: errors.New("boom")}
	s := client.NewStore(gw, logger.Nop())

	s.Load(context.Background())

	if s.Phase() != client.PhaseReady {
		t.Fatalf("phase = %v, want ready", s.Phase())
	}
	if got := s.Entries(); len(got) != 0 {
		t.Fatalf("entries = %v, want empty", ids(got))
	}
}

func TestStore_AddConfirms(t *testing.T) {
	gw := &fakeGateway{}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	e, err := s.Add(context.Background(), "my bookmark", "https://example.com")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if e.State != client.Confirmed {
		t.Errorf("state = %v, want confirmed", e.State)
	}
	if e.ID == "" {
		t.Error("expected authoritative id")
	}

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %v, want 1", ids(entries))
	}
	if entries[0].ID != e.ID {
		t.Errorf("list holds %q, want %q", entries[0].ID, e.ID)
	}
}

func TestStore_AddNormalizesSchemelessURL(t *testing.T) {
	gw := &fakeGateway{}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	e, err := s.Add(context.Background(), "docs", "example.com/docs")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if e.URL != "https://example.com/docs" {
		t.Errorf("url = %q, want https:// prefixed", e.URL)
	}
}

func TestStore_AddEmptyFieldsIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	for _, tc := range []struct{ title, url string }{
		{"", "https://example.com"},
		{"   ", "https://example.com"},
		{"title", ""},
		{"title", "   "},
	} {
		e, err := s.Add(context.Background(), tc.title, tc.url)
		if err != nil {
			t.Fatalf("Add(%q, %q): %v", tc.title, tc.url, err)
		}
		if e != nil {
			t.Errorf("Add(%q, %q) = %v, want nil", tc.title, tc.url, e)
		}
	}
	if gw.insertCalls != 0 {
		t.Errorf("insert calls = %d, want 0", gw.insertCalls)
	}
	if got := s.Entries(); len(got) != 0 {
		t.Errorf("entries = %v, want empty", ids(got))
	}
}

func TestStore_AddFailureRemovesPending(t *testing.T) {
	gw := &fakeGateway{insertErr: errors.New("boom")}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	_, err := s.Add(context.Background(), "doomed", "https://example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := s.Entries(); len(got) != 0 {
		t.Fatalf("entries = %v, want empty after failed add", ids(got))
	}
}

func TestStore_AddDeduplicatesAgainstFeed(t *testing.T) {
	// The notification feed delivers the inserted row while the gateway
	// call is still in flight. The confirmed row must appear exactly once.
	gw := &fakeGateway{}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	gw.onInsert = func(b *store.Bookmark) {
		s.HandleEvent(notify.Event{Kind: notify.KindInsert, Bookmark: b})
	}

	e, err := s.Add(context.Background(), "raced", "https://example.com")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %v, want exactly 1", ids(entries))
	}
	if entries[0].ID != e.ID {
		t.Errorf("list holds %q, want %q", entries[0].ID, e.ID)
	}
}

func TestStore_Delete(t *testing.T) {
	now := time.Now().UTC()
	gw := &fakeGateway{rows: []*store.Bookmark{row("a", "alpha", now)}}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	if err := s.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := s.Entries(); len(got) != 0 {
		t.Fatalf("entries = %v, want empty", ids(got))
	}
	if gw.deleteCalls != 1 {
		t.Errorf("delete calls = %d, want 1", gw.deleteCalls)
	}
}

func TestStore_DeleteUnknownIDIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	if err := s.Delete(context.Background(), "ghost"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gw.deleteCalls != 0 {
		t.Errorf("delete calls = %d, want 0", gw.deleteCalls)
	}
}

func TestStore_DeleteFailureReloads(t *testing.T) {
	now := time.Now().UTC()
	gw := &fakeGateway{rows: []*store.Bookmark{
		row("x", "ex", now),
		row("y", "why", now.Add(-time.Minute)),
	}}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	gw.deleteErr = errors.New("boom")
	if err := s.Delete(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}

	// The reload restores the authoritative list, x included.
	assertIDs(t, s.Entries(), "x", "y")
}

func TestStore_HandleEventInsertIsIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	b := row("a", "alpha", time.Now().UTC())
	ev := notify.Event{Kind: notify.KindInsert, Bookmark: b}
	s.HandleEvent(ev)
	s.HandleEvent(ev) // redelivery
	s.HandleEvent(ev)

	assertIDs(t, s.Entries(), "a")
}

func TestStore_HandleEventDeleteUnknownIsNoOp(t *testing.T) {
	gw := &fakeGateway{rows: []*store.Bookmark{row("a", "alpha", time.Now().UTC())}}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	s.HandleEvent(notify.Event{Kind: notify.KindDelete, ID: "never-seen"})
	assertIDs(t, s.Entries(), "a")

	s.HandleEvent(notify.Event{Kind: notify.KindDelete, ID: "a"})
	if got := s.Entries(); len(got) != 0 {
		t.Fatalf("entries = %v, want empty", ids(got))
	}
}

func TestStore_HandleEventUnknownKindIgnored(t *testing.T) {
	gw := &fakeGateway{}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	s.HandleEvent(notify.Event{Kind: "truncate"})
	if got := s.Entries(); len(got) != 0 {
		t.Fatalf("entries = %v, want empty", ids(got))
	}
}

func TestStore_Search(t *testing.T) {
	now := time.Now().UTC()
	gw := &fakeGateway{rows: []*store.Bookmark{
		{ID: "1", Title: "GitHub", URL: "https://github.com", CreatedAt: now},
		{ID: "2", Title: "Go docs", URL: "https://go.dev/doc", CreatedAt: now.Add(-time.Minute)},
		{ID: "3", Title: "News", URL: "https://git.news.example.com", CreatedAt: now.Add(-2 * time.Minute)},
	}}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	// Matches title and url, case-insensitively.
	assertIDs(t, s.Search("git"), "1", "3")
	assertIDs(t, s.Search("GIT"), "1", "3")
	assertIDs(t, s.Search("go.dev"), "2")

	// Empty query matches everything.
	assertIDs(t, s.Search(""), "1", "2", "3")

	if got := s.Search("zzz"); len(got) != 0 {
		t.Fatalf("Search(zzz) = %v, want empty", ids(got))
	}
}

func TestStore_RunFoldsFeed(t *testing.T) {
	gw := &fakeGateway{}
	s := client.NewStore(gw, logger.Nop())
	s.Load(context.Background())

	broker := notify.NewMemoryBroker(logger.Nop())
	sub, err := broker.Subscribe(context.Background(), "owner")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(done)
		s.Run(ctx, sub)
	}()

	b := row("a", "alpha", time.Now().UTC())
	if err := broker.Publish(context.Background(), "owner", notify.Event{Kind: notify.KindInsert, Bookmark: b}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for len(s.Entries()) == 0 {
		select {
		case <-deadline:
			t.Fatal("event never folded into the store")
		case <-time.After(10 * time.Millisecond):
		}
	}
	assertIDs(t, s.Entries(), "a")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
