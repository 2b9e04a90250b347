package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/middleware"
	"github.com/platinummonkey/inkwell/pkg/observability"
	"github.com/platinummonkey/inkwell/pkg/storage"
	"github.com/platinummonkey/inkwell/pkg/storage/sqlstore"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T) (*Server, *sqlstore.Store) {
	t.Helper()

	cfg := storage.DefaultConfig()
	cfg.DatabaseDriver = "sqlite3"
	cfg.DatabaseURL = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.CacheEnabled = false

	store, err := sqlstore.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	sessions, err := auth.NewManager(testSessionSecret, store, 0)
	require.NoError(t, err)

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	rewriter := middleware.NewRewriter(middleware.RewriterConfig{
		ProxyFiles:      true,
		AliasSettingKey: "articles_alias",
	}, store, store, nil, logger)

	server := NewServer(ServerConfig{}, store, nil, sessions, rewriter, nil, logger)
	return server, store
}

// createAccount inserts a user with a real password hash and returns it.
func createAccount(t *testing.T, store *sqlstore.Store, name string, role content.Role) *content.User {
	t.Helper()

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	user := &content.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: &hash,
		Role:         role,
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func identityFor(user *content.User) *auth.Identity {
	return &auth.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}
}

// doJSON sends a request straight into the router with the identity injected,
// bypassing the gate the way handler-level tests want.
func doJSON(t *testing.T, s *Server, method, path string, body interface{}, caller *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if caller != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), caller))
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest))
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}
