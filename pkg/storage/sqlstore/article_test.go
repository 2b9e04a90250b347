package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

func TestGetArticleVisibility(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	stranger := createTestUser(t, store, "stranger", content.RoleModerator)
	draft := createTestArticle(t, store, author.ID, "Draft Piece", "draft-piece", false)
	published := createTestArticle(t, store, author.ID, "Public Piece", "public-piece", true)

	// The author sees their own draft.
	got, err := store.GetArticle(ctx, draft.ID, identityFor(author))
	require.NoError(t, err)
	assert.Equal(t, "Draft Piece", got.Title)

	// Another authenticated user and an anonymous caller both get the same
	// answer as for a missing article.
	_, err = store.GetArticle(ctx, draft.ID, identityFor(stranger))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetArticle(ctx, draft.ID, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetArticle(ctx, 99999, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Published articles are visible to everyone.
	for _, caller := range []*content.User{author, stranger} {
		got, err = store.GetArticle(ctx, published.ID, identityFor(caller))
		require.NoError(t, err)
		assert.Equal(t, "Public Piece", got.Title)
	}
	got, err = store.GetArticle(ctx, published.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Public Piece", got.Title)
}

func TestResolveSlugVisibility(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	stranger := createTestUser(t, store, "stranger", content.RoleUser)
	draft := createTestArticle(t, store, author.ID, "Hidden", "hidden", false)
	published := createTestArticle(t, store, author.ID, "Shown", "shown", true)

	id, err := store.ResolveSlug(ctx, "shown", nil)
	require.NoError(t, err)
	assert.Equal(t, published.ID, id)

	id, err = store.ResolveSlug(ctx, "hidden", identityFor(author))
	require.NoError(t, err)
	assert.Equal(t, draft.ID, id)

	_, err = store.ResolveSlug(ctx, "hidden", nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.ResolveSlug(ctx, "hidden", identityFor(stranger))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.ResolveSlug(ctx, "no-such-slug", nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSearchArticlesSharedFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice", content.RoleModerator)
	bob := createTestUser(t, store, "bob", content.RoleModerator)

	createTestArticle(t, store, alice.ID, "widget basics", "widget-basics", true)
	createTestArticle(t, store, alice.ID, "widget draft", "widget-draft", false)
	createTestArticle(t, store, bob.ID, "widget secrets", "widget-secrets", false)
	createTestArticle(t, store, bob.ID, "unrelated title", "unrelated", true)

	// Anonymous callers see only the published match, and the reported total
	// agrees with the returned rows.
	results, total, err := store.SearchArticles(ctx, "widget", nil, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, "widget basics", results[0].Title)

	// Alice additionally sees her own draft, but never Bob's.
	results, total, err = store.SearchArticles(ctx, "widget", identityFor(alice), 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "widget secrets", r.Title)
	}
}

func TestSearchArticlesEmptyKeyword(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	createTestArticle(t, store, author.ID, "first", "first", true)
	createTestArticle(t, store, author.ID, "second", "second", true)
	createTestArticle(t, store, author.ID, "hidden", "hidden-slug", false)

	results, total, err := store.SearchArticles(ctx, "", nil, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, results, 2)
}

func TestSearchArticlesCaseSensitiveOnSQLite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	createTestArticle(t, store, author.ID, "Widget Handbook", "widget-handbook", true)

	_, total, err := store.SearchArticles(ctx, "widget", nil, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	results, total, err := store.SearchArticles(ctx, "Widget", nil, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, results, 1)
}

func TestSearchArticlesPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	for _, title := range []string{"page one", "page two", "page three", "page four"} {
		createTestArticle(t, store, author.ID, title, "", true)
	}

	results, total, err := store.SearchArticles(ctx, "page", nil, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, results, 3)

	// The total reflects the whole match set even on the last, short page.
	results, total, err = store.SearchArticles(ctx, "page", nil, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, results, 1)
}

func TestListArticlesStickyFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	createTestArticle(t, store, author.ID, "plain", "plain", true)
	sticky := &content.Article{
		Title:     "pinned",
		Body:      "body",
		Published: true,
		Sticky:    true,
		AuthorID:  author.ID,
	}
	require.NoError(t, store.CreateArticle(ctx, sticky))

	summaries, err := store.ListArticles(ctx, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "pinned", summaries[0].Title)
}

func TestUpdateArticleReplacesFieldsAndTags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	article := &content.Article{
		Title:     "Attachments",
		Body:      "body",
		Published: true,
		AuthorID:  author.ID,
		Fields: []content.Field{
			{Kind: content.FieldImage, Value: "old.png"},
			{Kind: content.FieldLink, Value: "https://example.com"},
		},
		Tags: []content.Tag{{Name: "go"}, {Name: "sql"}},
	}
	require.NoError(t, store.CreateArticle(ctx, article))

	article.Fields = []content.Field{{Kind: content.FieldImage, Value: "new.png"}}
	article.Tags = []content.Tag{{Name: "go"}}
	require.NoError(t, store.UpdateArticle(ctx, article))

	got, err := store.GetArticle(ctx, article.ID, nil)
	require.NoError(t, err)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "new.png", got.Fields[0].Value)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "go", got.Tags[0].Name)
}

func TestUpdateArticleMissing(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateArticle(context.Background(), &content.Article{ID: 12345, Title: "x", Body: "y"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteArticleCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	article := &content.Article{
		Title:     "Doomed",
		Body:      "body",
		Published: true,
		AuthorID:  author.ID,
		Fields:    []content.Field{{Kind: content.FieldImage, Value: "gone.png"}},
		Tags:      []content.Tag{{Name: "temp"}},
	}
	slug := "doomed"
	article.Slug = &slug
	require.NoError(t, store.CreateArticle(ctx, article))

	require.NoError(t, store.DeleteArticle(ctx, article.ID))

	_, err := store.GetArticle(ctx, article.ID, identityFor(author))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.ResolveSlug(ctx, "doomed", nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var fields int
	require.NoError(t, store.DB().QueryRow("SELECT COUNT(*) FROM fields WHERE article_id = ?", article.ID).Scan(&fields))
	assert.Zero(t, fields)
	var links int
	require.NoError(t, store.DB().QueryRow("SELECT COUNT(*) FROM article_tags WHERE article_id = ?", article.ID).Scan(&links))
	assert.Zero(t, links)

	assert.ErrorIs(t, store.DeleteArticle(ctx, article.ID), storage.ErrNotFound)
}

func TestGetCodeFieldVisibility(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	lang := "go"
	article := &content.Article{
		Title:    "Snippets",
		Body:     "body",
		AuthorID: author.ID,
		Fields: []content.Field{
			{Kind: content.FieldCode, Value: "package main", Meta: &lang},
			{Kind: content.FieldImage, Value: "pic.png"},
		},
	}
	require.NoError(t, store.CreateArticle(ctx, article))

	stored, err := store.GetArticle(ctx, article.ID, identityFor(author))
	require.NoError(t, err)
	require.Len(t, stored.Fields, 2)
	codeID := stored.Fields[0].ID

	// A code field on a draft follows the parent's visibility.
	_, err = store.GetCodeField(ctx, codeID, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	field, err := store.GetCodeField(ctx, codeID, identityFor(author))
	require.NoError(t, err)
	assert.Equal(t, "package main", field.Value)
	require.NotNil(t, field.Meta)
	assert.Equal(t, "go", *field.Meta)

	// A non-code field id never matches.
	_, err = store.GetCodeField(ctx, stored.Fields[1].ID, identityFor(author))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReferencedObjects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	author := createTestUser(t, store, "author", content.RoleModerator)
	article := &content.Article{
		Title:    "Gallery",
		Body:     "body",
		AuthorID: author.ID,
		Fields: []content.Field{
			{Kind: content.FieldImage, Value: "a.png"},
			{Kind: content.FieldImage, Value: "b.png"},
			{Kind: content.FieldLink, Value: "https://example.com"},
		},
	}
	require.NoError(t, store.CreateArticle(ctx, article))

	refs, err := store.ReferencedObjects(ctx)
	require.NoError(t, err)
	assert.True(t, refs["a.png"])
	assert.True(t, refs["b.png"])
	assert.False(t, refs["https://example.com"])

	count, err := store.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
