package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marksapp/marks/internal/apiclient"
	"github.com/marksapp/marks/internal/notify"
)

func TestClient_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/bookmarks" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer mk_test" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bookmarks":[{"id":"b1","title":"One","url":"https://one.example.com","created_at":"2026-08-20T10:00:00Z"}]}`))
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, "mk_test")
	list, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != "b1" || list[0].Title != "One" {
		t.Errorf("list = %+v", list)
	}
}

func TestClient_Insert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id": "b2", "title": req.Title, "url": req.URL,
			"created_at": time.Now().UTC(),
		})
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, "mk_test")
	b, err := c.Insert(context.Background(), "Two", "https://two.example.com")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if b.ID != "b2" || b.Title != "Two" {
		t.Errorf("bookmark = %+v", b)
	}
}

func TestClient_InsertServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"title is required","code":"BAD_REQUEST"}`))
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, "mk_test")
	if _, err := c.Insert(context.Background(), "", "https://example.com"); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_DeleteTreats404AsGone(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusNotFound} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		c := apiclient.New(srv.URL, "mk_test")
		if err := c.Delete(context.Background(), "b1"); err != nil {
			t.Errorf("Delete with %d: %v", status, err)
		}
		srv.Close()
	}
}

func TestClient_Subscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/events" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)

		// Heartbeat comment, one valid event, one malformed payload, then a
		// delete. The subscriber must see exactly the two valid events.
		w.Write([]byte(": ping\n\n"))
		w.Write([]byte(`data: {"kind":"insert","bookmark":{"id":"b1","title":"One","url":"https://one.example.com"}}` + "\n\n"))
		w.Write([]byte("data: {not json}\n\n"))
		w.Write([]byte(`data: {"kind":"delete","id":"b1"}` + "\n\n"))
		flusher.Flush()

		<-r.Context().Done()
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, "mk_test")
	sub, err := c.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	recv := func() notify.Event {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				t.Fatal("feed closed early")
			}
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
		return notify.Event{}
	}

	ev := recv()
	if ev.Kind != notify.KindInsert || ev.Bookmark == nil || ev.Bookmark.ID != "b1" {
		t.Errorf("first event = %+v", ev)
	}

	ev = recv()
	if ev.Kind != notify.KindDelete || ev.ID != "b1" {
		t.Errorf("second event = %+v", ev)
	}

	// Close cancels the request; the channel drains and closes.
	sub.Close()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after Close")
		}
	}
}

func TestClient_SubscribeUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, "mk_bad")
	if _, err := c.Subscribe(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
