package sqlstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// newTestStore opens an isolated in-memory sqlite store with the schema
// applied.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := storage.DefaultConfig()
	cfg.DatabaseDriver = "sqlite3"
	cfg.DatabaseURL = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.CacheEnabled = false

	store, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func createTestUser(t *testing.T, s *Store, name string, role content.Role) *content.User {
	t.Helper()

	user := &content.User{
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func createTestArticle(t *testing.T, s *Store, authorID int64, title, slug string, published bool) *content.Article {
	t.Helper()

	article := &content.Article{
		Title:     title,
		Body:      "body of " + title,
		Published: published,
		AuthorID:  authorID,
	}
	if slug != "" {
		article.Slug = &slug
	}
	require.NoError(t, s.CreateArticle(context.Background(), article))
	return article
}

func identityFor(user *content.User) *auth.Identity {
	return &auth.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}
}
