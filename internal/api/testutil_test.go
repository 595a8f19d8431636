package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/marksapp/marks/internal/api"
	"github.com/marksapp/marks/internal/auth"
	"github.com/marksapp/marks/internal/logger"
	"github.com/marksapp/marks/internal/notify"
	"github.com/marksapp/marks/internal/store"
	"github.com/marksapp/marks/internal/testutil"
)

// testEnv holds all stores and helpers needed for API integration tests.
type testEnv struct {
	Router     http.Handler
	Bookmarks  *store.BookmarkStore
	UserStore  *store.UserStore
	TokenStore *auth.SQLTokenStore
	Broker     *notify.MemoryBroker
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and wires up the full API router with real stores and a real broker.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	broker := notify.NewMemoryBroker(logger.Nop())
	bs := store.NewBookmarkStore(db, notify.ChangeFunc(broker))
	us := store.NewUserStore(db)
	ts := auth.NewSQLTokenStore(db)

	router := api.NewAPIRouter(api.Deps{
		BearerAuth: auth.NewBearerTokenMiddleware(ts, us),
		Bookmarks:  bs,
		Broker:     broker,
		Log:        logger.Nop(),
	})
	return &testEnv{
		Router:     router,
		Bookmarks:  bs,
		UserStore:  us,
		TokenStore: ts,
		Broker:     broker,
	}
}

// seedUser creates a user and returns the user record.
func seedUser(t *testing.T, env *testEnv, email string) *store.User {
	t.Helper()
	u, err := env.UserStore.Upsert(context.Background(), "test", "sub-"+email, email, "Test User")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// seedToken creates a real API token for a user and returns the plaintext Bearer value.
func seedToken(t *testing.T, env *testEnv, userID string) string {
	t.Helper()
	plaintext, hash, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := env.TokenStore.Create(context.Background(), userID, "test-token", hash, nil); err != nil {
		t.Fatalf("create token: %v", err)
	}
	return plaintext
}

// authRequest adds a Bearer token to the request.
func authRequest(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}
