package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marksapp/marks/internal/auth"
	"github.com/marksapp/marks/internal/logger"
	"github.com/marksapp/marks/internal/store"
)

// bookmarksAPIHandler provides REST handlers for the caller's bookmarks.
// Owner scoping comes from the authenticated user on the context; there is
// no way to address another user's rows.
type bookmarksAPIHandler struct {
	bookmarks store.BookmarkStoreIface
	log       logger.Logger
}

// List returns the caller's bookmarks, newest first.
// GET /api/v1/bookmarks
func (h *bookmarksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	bookmarks, err := h.bookmarks.ListByOwner(r.Context(), user.ID)
	if err != nil {
		h.log.Error("api: list bookmarks", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	resp := BookmarkListResponse{Bookmarks: make([]BookmarkResponse, 0, len(bookmarks))}
	for _, b := range bookmarks {
		resp.Bookmarks = append(resp.Bookmarks, toBookmarkResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create inserts a bookmark owned by the caller and returns the
// authoritative row, with its server-assigned id and created_at.
// POST /api/v1/bookmarks
func (h *bookmarksAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	var req CreateBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	title := strings.TrimSpace(req.Title)
	url := store.NormalizeURL(req.URL)
	if err := store.ValidateBookmark(title, url); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}

	b, err := h.bookmarks.Insert(r.Context(), user.ID, title, url)
	if err != nil {
		h.log.Error("api: create bookmark", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusCreated, toBookmarkResponse(b))
}

// Delete removes one of the caller's bookmarks by id.
// DELETE /api/v1/bookmarks/{id}
func (h *bookmarksAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	id := chi.URLParam(r, "id")
	err := h.bookmarks.Delete(r.Context(), user.ID, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "bookmark not found", "NOT_FOUND")
		return
	}
	if err != nil {
		h.log.Error("api: delete bookmark", logger.String("id", id), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
