package api

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/inkwell/pkg/content"
)

func TestCreateArticleRequiresAuthoringRole(t *testing.T) {
	server, store := newTestServer(t)
	reader := createAccount(t, store, "reader", content.RoleUser)

	rec := doJSON(t, server, http.MethodPost, "/api/articles", map[string]interface{}{
		"title": "Nope",
	}, identityFor(reader))
	mustStatus(t, rec, http.StatusForbidden)

	moderator := createAccount(t, store, "mod", content.RoleModerator)
	rec = doJSON(t, server, http.MethodPost, "/api/articles", map[string]interface{}{
		"title":     "Allowed",
		"body":      "text",
		"published": true,
	}, identityFor(moderator))
	mustStatus(t, rec, http.StatusCreated)

	var created content.Article
	decodeJSON(t, rec, &created)
	assert.Equal(t, moderator.ID, created.AuthorID)
	require.NotNil(t, created.Slug)
	assert.Equal(t, "allowed", *created.Slug)
}

func TestCreateArticleRejectsBadPayload(t *testing.T) {
	server, store := newTestServer(t)
	moderator := createAccount(t, store, "mod", content.RoleModerator)

	rec := doJSON(t, server, http.MethodPost, "/api/articles", map[string]interface{}{
		"title": "   ",
	}, identityFor(moderator))
	mustStatus(t, rec, http.StatusBadRequest)

	rec = doJSON(t, server, http.MethodPost, "/api/articles", map[string]interface{}{
		"title":  "Bad field",
		"fields": []map[string]interface{}{{"kind": "hologram", "value": "x"}},
	}, identityFor(moderator))
	mustStatus(t, rec, http.StatusBadRequest)
}

func TestGetArticleHidesForeignDrafts(t *testing.T) {
	server, store := newTestServer(t)
	author := createAccount(t, store, "author", content.RoleModerator)
	stranger := createAccount(t, store, "stranger", content.RoleModerator)

	rec := doJSON(t, server, http.MethodPost, "/api/articles", map[string]interface{}{
		"title": "Secret Draft",
	}, identityFor(author))
	mustStatus(t, rec, http.StatusCreated)
	var draft content.Article
	decodeJSON(t, rec, &draft)

	rec = doJSON(t, server, http.MethodGet, articlePath(draft.ID), nil, identityFor(author))
	mustStatus(t, rec, http.StatusOK)

	// The stranger and the anonymous caller get the same 404 as for a
	// missing id.
	rec = doJSON(t, server, http.MethodGet, articlePath(draft.ID), nil, identityFor(stranger))
	mustStatus(t, rec, http.StatusNotFound)
	rec = doJSON(t, server, http.MethodGet, articlePath(draft.ID), nil, nil)
	mustStatus(t, rec, http.StatusNotFound)
	rec = doJSON(t, server, http.MethodGet, "/api/articles/424242", nil, nil)
	mustStatus(t, rec, http.StatusNotFound)
}

func TestUpdateArticlePrivilegedRoles(t *testing.T) {
	server, store := newTestServer(t)
	author := createAccount(t, store, "author", content.RoleModerator)
	moderator := createAccount(t, store, "mod", content.RoleModerator)
	reader := createAccount(t, store, "reader", content.RoleUser)
	admin := createAccount(t, store, "root", content.RoleAdmin)

	rec := doJSON(t, server, http.MethodPost, "/api/articles", map[string]interface{}{
		"title":     "Original",
		"published": true,
	}, identityFor(author))
	mustStatus(t, rec, http.StatusCreated)
	var article content.Article
	decodeJSON(t, rec, &article)

	payload := map[string]interface{}{"title": "Hijacked", "published": true}
	rec = doJSON(t, server, http.MethodPut, articlePath(article.ID), payload, identityFor(reader))
	mustStatus(t, rec, http.StatusForbidden)

	// A moderator may edit another author's article.
	payload["title"] = "Edited by moderator"
	rec = doJSON(t, server, http.MethodPut, articlePath(article.ID), payload, identityFor(moderator))
	mustStatus(t, rec, http.StatusOK)

	payload["title"] = "Edited by admin"
	rec = doJSON(t, server, http.MethodPut, articlePath(article.ID), payload, identityFor(admin))
	mustStatus(t, rec, http.StatusOK)

	var updated content.Article
	decodeJSON(t, rec, &updated)
	assert.Equal(t, "Edited by admin", updated.Title)
	// Ownership survives a privileged edit.
	assert.Equal(t, author.ID, updated.AuthorID)
}

func TestDeleteArticlePrivilegedRoles(t *testing.T) {
	server, store := newTestServer(t)
	author := createAccount(t, store, "author", content.RoleModerator)
	moderator := createAccount(t, store, "mod", content.RoleModerator)
	reader := createAccount(t, store, "reader", content.RoleUser)

	rec := doJSON(t, server, http.MethodPost, "/api/articles", map[string]interface{}{
		"title":     "Short-lived",
		"published": true,
	}, identityFor(author))
	mustStatus(t, rec, http.StatusCreated)
	var article content.Article
	decodeJSON(t, rec, &article)

	rec = doJSON(t, server, http.MethodDelete, articlePath(article.ID), nil, identityFor(reader))
	mustStatus(t, rec, http.StatusForbidden)

	rec = doJSON(t, server, http.MethodDelete, articlePath(article.ID), nil, identityFor(moderator))
	mustStatus(t, rec, http.StatusNoContent)

	rec = doJSON(t, server, http.MethodGet, articlePath(article.ID), nil, identityFor(author))
	mustStatus(t, rec, http.StatusNotFound)
}

func TestSearchArticlesEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	author := createAccount(t, store, "author", content.RoleModerator)

	for _, a := range []struct {
		title     string
		published bool
	}{
		{"gopher guide", true},
		{"gopher draft", false},
		{"unrelated", true},
	} {
		rec := doJSON(t, server, http.MethodPost, "/api/articles", map[string]interface{}{
			"title":     a.title,
			"published": a.published,
		}, identityFor(author))
		mustStatus(t, rec, http.StatusCreated)
	}

	rec := doJSON(t, server, http.MethodGet, "/api/articles/search?q=gopher", nil, nil)
	mustStatus(t, rec, http.StatusOK)
	var anon searchResponse
	decodeJSON(t, rec, &anon)
	assert.Equal(t, int64(1), anon.Total)
	require.Len(t, anon.Results, 1)
	assert.Equal(t, "gopher guide", anon.Results[0].Title)

	rec = doJSON(t, server, http.MethodGet, "/api/articles/search?q=gopher", nil, identityFor(author))
	mustStatus(t, rec, http.StatusOK)
	var own searchResponse
	decodeJSON(t, rec, &own)
	assert.Equal(t, int64(2), own.Total)
	assert.Len(t, own.Results, 2)
}

func TestResolveSlugEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	author := createAccount(t, store, "author", content.RoleModerator)

	rec := doJSON(t, server, http.MethodPost, "/api/articles", map[string]interface{}{
		"title":     "Find Me",
		"slug":      "find-me",
		"published": true,
	}, identityFor(author))
	mustStatus(t, rec, http.StatusCreated)
	var article content.Article
	decodeJSON(t, rec, &article)

	rec = doJSON(t, server, http.MethodGet, "/api/articles/slug/find-me", nil, nil)
	mustStatus(t, rec, http.StatusOK)
	var got map[string]int64
	decodeJSON(t, rec, &got)
	assert.Equal(t, article.ID, got["id"])

	rec = doJSON(t, server, http.MethodGet, "/api/articles/slug/nope", nil, nil)
	mustStatus(t, rec, http.StatusNotFound)
}

func TestRenderCodeField(t *testing.T) {
	server, store := newTestServer(t)
	author := createAccount(t, store, "author", content.RoleModerator)

	rec := doJSON(t, server, http.MethodPost, "/api/articles", map[string]interface{}{
		"title":     "With Code",
		"published": true,
		"fields": []map[string]interface{}{
			{"kind": "code", "value": "package main\n\nfunc main() {}\n", "meta": "go"},
		},
	}, identityFor(author))
	mustStatus(t, rec, http.StatusCreated)
	var article content.Article
	decodeJSON(t, rec, &article)

	full := doJSON(t, server, http.MethodGet, articlePath(article.ID), nil, nil)
	mustStatus(t, full, http.StatusOK)
	var stored content.Article
	decodeJSON(t, full, &stored)
	require.Len(t, stored.Fields, 1)

	rec = doJSON(t, server, http.MethodGet, codePath(stored.Fields[0].ID), nil, nil)
	mustStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "frame-ancestors 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.True(t, strings.Contains(rec.Body.String(), "main"))
}

func articlePath(id int64) string {
	return "/api/articles/" + strconv.FormatInt(id, 10)
}

func codePath(id int64) string {
	return "/api/code/" + strconv.FormatInt(id, 10)
}
