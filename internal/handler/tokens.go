package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marksapp/marks/internal/auth"
	"github.com/marksapp/marks/internal/store"
)

// TokensPage is the template data for the token settings page.
type TokensPage struct {
	BasePage
	Tokens   []*auth.TokenRecord
	NewToken string // plaintext shown once after creation; empty otherwise
	Error    string
}

// TokensHandler provides web UI handlers for API token management. Tokens
// are what marks watch authenticates with.
type TokensHandler struct {
	tokens auth.TokenStore
}

// NewTokensHandler creates a new TokensHandler.
func NewTokensHandler(ts auth.TokenStore) *TokensHandler {
	return &TokensHandler{tokens: ts}
}

// Index renders the token settings page with the user's tokens.
// GET /settings/tokens
func (h *TokensHandler) Index(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	records, err := h.tokens.ListByUser(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "could not load tokens", http.StatusInternalServerError)
		return
	}

	render(w, "tokens.html", TokensPage{
		BasePage: BasePage{User: user},
		Tokens:   records,
	})
}

// Create processes the token creation form and shows the plaintext once.
// POST /settings/tokens
func (h *TokensHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		h.renderWithError(w, r, user, "Token name is required.")
		return
	}

	var expiresAt *time.Time
	if exp := r.FormValue("expires_in"); exp != "" {
		d, err := time.ParseDuration(exp)
		if err != nil {
			h.renderWithError(w, r, user, "Invalid expiry duration.")
			return
		}
		t := time.Now().Add(d)
		expiresAt = &t
	}

	plaintext, hash, err := auth.GenerateToken()
	if err != nil {
		h.renderWithError(w, r, user, "Failed to generate token.")
		return
	}

	if _, err := h.tokens.Create(r.Context(), user.ID, name, hash, expiresAt); err != nil {
		h.renderWithError(w, r, user, "Failed to create token.")
		return
	}

	records, _ := h.tokens.ListByUser(r.Context(), user.ID)

	render(w, "tokens.html", TokensPage{
		BasePage: BasePage{User: user},
		Tokens:   records,
		NewToken: plaintext,
	})
}

// Revoke soft-deletes a token owned by the current user.
// POST /settings/tokens/{id}/revoke
func (h *TokensHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	tokenID := chi.URLParam(r, "id")

	err := h.tokens.Revoke(r.Context(), tokenID, user.ID)
	if err == store.ErrNotFound {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "revoke failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/settings/tokens", http.StatusSeeOther)
}

func (h *TokensHandler) renderWithError(w http.ResponseWriter, r *http.Request, user *store.User, errMsg string) {
	records, _ := h.tokens.ListByUser(r.Context(), user.ID)
	render(w, "tokens.html", TokensPage{
		BasePage: BasePage{User: user},
		Tokens:   records,
		Error:    errMsg,
	})
}
