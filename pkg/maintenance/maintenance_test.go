package maintenance

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/observability"
	"github.com/platinummonkey/inkwell/pkg/storage"
	"github.com/platinummonkey/inkwell/pkg/storage/sqlstore"
)

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	cfg := storage.DefaultConfig()
	cfg.DatabaseDriver = "sqlite3"
	cfg.DatabaseURL = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.CacheEnabled = false

	store, err := sqlstore.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSweepRemovesExpiredSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &content.User{Name: "u", Email: "u@example.com"}
	require.NoError(t, store.CreateUser(ctx, user))

	now := time.Now().UTC()
	require.NoError(t, store.CreateSession(ctx, &auth.Session{
		ID: "live", UserID: user.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))
	require.NoError(t, store.CreateSession(ctx, &auth.Session{
		ID: "stale", UserID: user.ID, ExpiresAt: now.Add(-time.Hour), CreatedAt: now,
	}))

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	svc := NewService(Config{Schedule: "@hourly"}, store, nil, nil, logger)
	svc.runSweep()

	live, err := store.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, live)
	stale, err := store.GetSession(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestSweepRefreshesGauges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &content.User{Name: "author", Email: "author@example.com", Role: content.RoleModerator}
	require.NoError(t, store.CreateUser(ctx, user))
	require.NoError(t, store.CreateArticle(ctx, &content.Article{
		Title: "one", Body: "b", AuthorID: user.ID, Published: true,
	}))

	metrics := observability.NewMetrics(nil)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	svc := NewService(Config{Schedule: "@hourly"}, store, nil, metrics, logger)
	svc.runSweep()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ArticlesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UsersTotal))
}
