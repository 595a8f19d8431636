package handler

import (
	"net/http"

	"github.com/marksapp/marks/internal/auth"
)

// LandingHandler serves the public landing page: a single sign-in action.
type LandingHandler struct{}

// NewLandingHandler creates a new LandingHandler.
func NewLandingHandler() *LandingHandler { return &LandingHandler{} }

// Index serves GET /. Authenticated users are redirected to /bookmarks.
func (h *LandingHandler) Index(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user != nil {
		http.Redirect(w, r, "/bookmarks", http.StatusFound)
		return
	}
	render(w, "landing.html", BasePage{})
}
