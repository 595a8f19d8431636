package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marksapp/marks/internal/auth"
	"github.com/marksapp/marks/internal/logger"
	"github.com/marksapp/marks/internal/notify"
	"github.com/marksapp/marks/internal/store"
)

// BookmarksHandler serves the bookmark page and the session-scoped JSON and
// SSE endpoints the in-page script talks to. The script mirrors the client
// store's behavior: optimistic add and delete, confirm-before-delete, live
// search, and dedup against the event feed.
type BookmarksHandler struct {
	bookmarks store.BookmarkStoreIface
	broker    notify.Broker
	log       logger.Logger
}

// NewBookmarksHandler creates a new BookmarksHandler.
func NewBookmarksHandler(bs store.BookmarkStoreIface, broker notify.Broker, log logger.Logger) *BookmarksHandler {
	return &BookmarksHandler{bookmarks: bs, broker: broker, log: log}
}

// BookmarksPage is the template data for the bookmarks view.
type BookmarksPage struct {
	BasePage
	Bookmarks []*store.Bookmark
}

// Show serves GET /bookmarks with the owner's list rendered server-side;
// the page script takes over from that initial state.
func (h *BookmarksHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	bookmarks, err := h.bookmarks.ListByOwner(r.Context(), user.ID)
	if err != nil {
		// Render the empty state rather than failing the page.
		h.log.Warn("bookmarks page load failed", logger.Error(err))
		bookmarks = nil
	}

	render(w, "bookmarks.html", BookmarksPage{
		BasePage:  BasePage{User: user},
		Bookmarks: bookmarks,
	})
}

// List serves GET /bookmarks/list: the owner's bookmarks as JSON. The page
// script uses it to re-sync after a failed delete.
func (h *BookmarksHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	bookmarks, err := h.bookmarks.ListByOwner(r.Context(), user.ID)
	if err != nil {
		h.log.Error("list bookmarks", logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"bookmarks": bookmarks})
}

// Create serves POST /bookmarks. Body: {"title": ..., "url": ...}.
// Responds 201 with the authoritative row the optimistic entry reconciles
// against, or 400 for empty fields.
func (h *BookmarksHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(req.Title)
	url := store.NormalizeURL(req.URL)
	if err := store.ValidateBookmark(title, url); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.bookmarks.Insert(r.Context(), user.ID, title, url)
	if err != nil {
		h.log.Error("create bookmark", logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(b)
}

// Delete serves DELETE /bookmarks/{id}. The page script removes the row
// optimistically before calling and restores via full reload on failure.
func (h *BookmarksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	err := h.bookmarks.Delete(r.Context(), user.ID, id)
	if errors.Is(err, store.ErrNotFound) {
		// Already gone. The optimistic removal was right anyway.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.log.Error("delete bookmark", logger.String("id", id), logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Events serves GET /bookmarks/events: the session owner's change feed as
// server-sent events, same wire shape as the API stream.
func (h *BookmarksHandler) Events(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := h.broker.Subscribe(r.Context(), user.ID)
	if err != nil {
		h.log.Error("event subscribe", logger.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
