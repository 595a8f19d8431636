package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marksapp/marks/internal/auth"
	"github.com/marksapp/marks/internal/logger"
	"github.com/marksapp/marks/internal/notify"
	"github.com/marksapp/marks/internal/store"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	BearerAuth *auth.BearerTokenMiddleware
	Bookmarks  store.BookmarkStoreIface
	Broker     notify.Broker
	Log        logger.Logger
}

// NewAPIRouter creates a chi sub-router for /api/v1. All routes require
// Bearer token authentication. The SSE event stream manages its own
// Content-Type, everything else is application/json.
func NewAPIRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(deps.BearerAuth.Authenticate)

	h := &bookmarksAPIHandler{bookmarks: deps.Bookmarks, log: deps.Log}
	r.With(jsonContentType).Get("/bookmarks", h.List)
	r.With(jsonContentType).Post("/bookmarks", h.Create)
	r.With(jsonContentType).Delete("/bookmarks/{id}", h.Delete)

	ev := &eventsHandler{broker: deps.Broker, log: deps.Log}
	r.Get("/events", ev.Stream)

	return r
}

// jsonContentType sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
