package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marksapp/marks/internal/api"
	"github.com/marksapp/marks/internal/notify"
)

func TestBookmarks_List_OK(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	if _, err := env.Bookmarks.Insert(context.Background(), user.ID, "Example", "https://example.com"); err != nil {
		t.Fatalf("insert bookmark: %v", err)
	}

	req := httptest.NewRequest("GET", "/bookmarks", nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp api.BookmarkListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Bookmarks) != 1 {
		t.Errorf("len(bookmarks) = %d, want 1", len(resp.Bookmarks))
	}
	if resp.Bookmarks[0].Title != "Example" {
		t.Errorf("title = %q", resp.Bookmarks[0].Title)
	}
}

func TestBookmarks_List_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest("GET", "/bookmarks", nil)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestBookmarks_List_ScopedToCaller(t *testing.T) {
	env := newTestEnv(t)
	alice := seedUser(t, env, "alice@example.com")
	bob := seedUser(t, env, "bob@example.com")
	token := seedToken(t, env, alice.ID)

	if _, err := env.Bookmarks.Insert(context.Background(), bob.ID, "Bob's", "https://bob.example.com"); err != nil {
		t.Fatalf("insert bookmark: %v", err)
	}

	req := httptest.NewRequest("GET", "/bookmarks", nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var resp api.BookmarkListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Bookmarks) != 0 {
		t.Errorf("alice sees %d of bob's bookmarks", len(resp.Bookmarks))
	}
}

func TestBookmarks_Create_Created(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	body := `{"title":"Go docs","url":"go.dev/doc"}`
	req := httptest.NewRequest("POST", "/bookmarks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp api.BookmarkResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" {
		t.Error("expected server-assigned id")
	}
	if resp.URL != "https://go.dev/doc" {
		t.Errorf("url = %q, want normalized https:// form", resp.URL)
	}
	if resp.CreatedAt.IsZero() {
		t.Error("expected server-assigned created_at")
	}
}

func TestBookmarks_Create_PublishesEvent(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	sub, err := env.Broker.Subscribe(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	body := `{"title":"Example","url":"https://example.com"}`
	req := httptest.NewRequest("POST", "/bookmarks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}

	select {
	case ev := <-sub.Events():
		if ev.Kind != notify.KindInsert {
			t.Errorf("kind = %q, want insert", ev.Kind)
		}
		if ev.Bookmark == nil || ev.Bookmark.Title != "Example" {
			t.Errorf("event bookmark = %+v", ev.Bookmark)
		}
	default:
		t.Fatal("no event published for create")
	}
}

func TestBookmarks_Create_EmptyFields(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	for _, body := range []string{
		`{"title":"","url":"https://example.com"}`,
		`{"title":"   ","url":"https://example.com"}`,
		`{"title":"Example","url":""}`,
		`not json`,
	} {
		req := httptest.NewRequest("POST", "/bookmarks", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		authRequest(req, token)
		rec := httptest.NewRecorder()
		env.Router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want %d", body, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestBookmarks_Delete_NoContent(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	b, err := env.Bookmarks.Insert(context.Background(), user.ID, "Example", "https://example.com")
	if err != nil {
		t.Fatalf("insert bookmark: %v", err)
	}

	req := httptest.NewRequest("DELETE", "/bookmarks/"+b.ID, nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}

	list, err := env.Bookmarks.ListByOwner(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("bookmark still present after delete")
	}
}

func TestBookmarks_Delete_NotFound(t *testing.T) {
	env := newTestEnv(t)
	user := seedUser(t, env, "alice@example.com")
	token := seedToken(t, env, user.ID)

	req := httptest.NewRequest("DELETE", "/bookmarks/no-such-id", nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestBookmarks_Delete_OtherOwnersRow(t *testing.T) {
	env := newTestEnv(t)
	alice := seedUser(t, env, "alice@example.com")
	bob := seedUser(t, env, "bob@example.com")
	token := seedToken(t, env, alice.ID)

	b, err := env.Bookmarks.Insert(context.Background(), bob.ID, "Bob's", "https://bob.example.com")
	if err != nil {
		t.Fatalf("insert bookmark: %v", err)
	}

	req := httptest.NewRequest("DELETE", "/bookmarks/"+b.ID, nil)
	authRequest(req, token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	// Indistinguishable from a missing row.
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	list, _ := env.Bookmarks.ListByOwner(context.Background(), bob.ID)
	if len(list) != 1 {
		t.Errorf("bob's bookmark was deleted by alice")
	}
}
