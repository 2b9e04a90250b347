package sqlstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// newCachedTestStore opens an in-memory sqlite store backed by a miniredis
// cache.
func newCachedTestStore(t *testing.T) *Store {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := storage.DefaultConfig()
	cfg.DatabaseDriver = "sqlite3"
	cfg.DatabaseURL = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.CacheEnabled = true
	cfg.RedisURL = "redis://" + mr.Addr()

	store, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSettingCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	setting := &content.Setting{Key: "site_title", Value: "Inkwell"}
	require.NoError(t, store.CreateSetting(ctx, setting))

	got, err := store.GetSetting(ctx, "site_title")
	require.NoError(t, err)
	assert.Equal(t, "Inkwell", got.Value)

	require.NoError(t, store.UpdateSetting(ctx, &content.Setting{Key: "site_title", Value: "Inkwell 2"}))
	got, err = store.GetSetting(ctx, "site_title")
	require.NoError(t, err)
	assert.Equal(t, "Inkwell 2", got.Value)

	all, err := store.ListSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeleteSetting(ctx, "site_title"))
	_, err = store.GetSetting(ctx, "site_title")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSettingMutationsOnMissingKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.UpdateSetting(ctx, &content.Setting{Key: "absent", Value: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.DeleteSetting(ctx, "absent"), storage.ErrNotFound)
}

func TestSettingReadThroughCache(t *testing.T) {
	store := newCachedTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSetting(ctx, &content.Setting{Key: "alias", Value: "News"}))

	// First read populates the cache.
	got, err := store.GetSetting(ctx, "alias")
	require.NoError(t, err)
	assert.Equal(t, "News", got.Value)

	// A direct row change is invisible while the cache entry lives, which
	// proves the read came from the cache.
	_, err = store.DB().Exec("UPDATE settings SET value = 'Sneaky' WHERE key = 'alias'")
	require.NoError(t, err)

	got, err = store.GetSetting(ctx, "alias")
	require.NoError(t, err)
	assert.Equal(t, "News", got.Value)

	// A write through the store invalidates the entry.
	require.NoError(t, store.UpdateSetting(ctx, &content.Setting{Key: "alias", Value: "Blog"}))
	got, err = store.GetSetting(ctx, "alias")
	require.NoError(t, err)
	assert.Equal(t, "Blog", got.Value)
}

func TestAnonymousSlugResolutionCached(t *testing.T) {
	store := newCachedTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	article := createTestArticle(t, store, author.ID, "Cached", "cached", true)

	id, err := store.ResolveSlug(ctx, "cached", nil)
	require.NoError(t, err)
	assert.Equal(t, article.ID, id)

	// Removing the row behind the store's back leaves the cached mapping in
	// place for anonymous callers.
	_, err = store.DB().Exec("DELETE FROM articles WHERE id = ?", article.ID)
	require.NoError(t, err)

	id, err = store.ResolveSlug(ctx, "cached", nil)
	require.NoError(t, err)
	assert.Equal(t, article.ID, id)

	// Authenticated resolutions bypass the cache and see the truth.
	_, err = store.ResolveSlug(ctx, "cached", identityFor(author))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
