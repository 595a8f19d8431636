package handler

import (
	"io/fs"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marksapp/marks/internal/api"
	"github.com/marksapp/marks/internal/auth"
	"github.com/marksapp/marks/internal/logger"
	"github.com/marksapp/marks/internal/notify"
	"github.com/marksapp/marks/internal/store"
	"github.com/marksapp/marks/web"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	SessionManager *scs.SessionManager
	AuthHandlers   *auth.Handlers
	AuthMiddleware *auth.Middleware
	Bookmarks      store.BookmarkStoreIface
	UserStore      *store.UserStore
	TokenStore     auth.TokenStore
	Broker         notify.Broker
	Log            logger.Logger
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(deps.SessionManager.LoadAndSave)

	// Static assets (embedded). Use fs.Sub so the file server sees
	// css/app.css and js/bookmarks.js directly, not static/... paths.
	staticSub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("failed to sub static FS: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServerFS(staticSub)))

	// Auth routes (no auth required)
	r.Get("/auth/login", deps.AuthHandlers.Login)
	r.Get("/auth/callback", deps.AuthHandlers.Callback)
	r.Post("/auth/logout", deps.AuthHandlers.Logout)

	// Landing page (unauthenticated; redirects authenticated to /bookmarks)
	landing := NewLandingHandler()
	r.With(deps.AuthMiddleware.OptionalUser).Get("/", landing.Index)

	// Authenticated routes
	bookmarks := NewBookmarksHandler(deps.Bookmarks, deps.Broker, deps.Log)
	tokensWeb := NewTokensHandler(deps.TokenStore)

	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Get("/bookmarks", bookmarks.Show)
		r.Get("/bookmarks/list", bookmarks.List)
		r.Post("/bookmarks", bookmarks.Create)
		r.Delete("/bookmarks/{id}", bookmarks.Delete)
		// Session-authenticated SSE stream so the page needs no token.
		r.Get("/bookmarks/events", bookmarks.Events)

		r.Get("/settings/tokens", tokensWeb.Index)
		r.Post("/settings/tokens", tokensWeb.Create)
		r.Post("/settings/tokens/{id}/revoke", tokensWeb.Revoke)
	})

	// API sub-router at /api/v1 for the terminal client.
	bearerMiddleware := auth.NewBearerTokenMiddleware(deps.TokenStore, deps.UserStore)
	apiRouter := api.NewAPIRouter(api.Deps{
		BearerAuth: bearerMiddleware,
		Bookmarks:  deps.Bookmarks,
		Broker:     deps.Broker,
		Log:        deps.Log,
	})
	r.Mount("/api/v1", apiRouter)

	return r
}
