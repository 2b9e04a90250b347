package api

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/inkwell/pkg/content"
)

func TestUserManagement(t *testing.T) {
	server, store := newTestServer(t)
	admin := createAccount(t, store, "root", content.RoleAdmin)
	member := createAccount(t, store, "member", content.RoleUser)

	// Listing is admin-only even past the gate.
	rec := doJSON(t, server, http.MethodGet, "/api/users", nil, identityFor(member))
	mustStatus(t, rec, http.StatusForbidden)
	rec = doJSON(t, server, http.MethodGet, "/api/users", nil, identityFor(admin))
	mustStatus(t, rec, http.StatusOK)
	var users []content.User
	decodeJSON(t, rec, &users)
	assert.Len(t, users, 2)

	// Admin provisioning with an explicit role.
	rec = doJSON(t, server, http.MethodPost, "/api/users", map[string]interface{}{
		"name": "mod", "email": "mod@example.com", "password": "pw123456", "role": "moderator",
	}, identityFor(admin))
	mustStatus(t, rec, http.StatusCreated)
	var created content.User
	decodeJSON(t, rec, &created)
	assert.Equal(t, content.RoleModerator, created.Role)

	rec = doJSON(t, server, http.MethodPost, "/api/users", map[string]interface{}{
		"name": "x", "email": "x@example.com", "password": "pw", "role": "superuser",
	}, identityFor(admin))
	mustStatus(t, rec, http.StatusBadRequest)
}

func TestSelfUpdateCannotEscalateRole(t *testing.T) {
	server, store := newTestServer(t)
	member := createAccount(t, store, "member", content.RoleUser)
	path := "/api/users/" + strconv.FormatInt(member.ID, 10)

	// A member may change their own name.
	rec := doJSON(t, server, http.MethodPut, path, map[string]interface{}{
		"name": "renamed",
	}, identityFor(member))
	mustStatus(t, rec, http.StatusOK)
	var updated content.User
	decodeJSON(t, rec, &updated)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, content.RoleUser, updated.Role)

	// Promoting themselves is refused.
	rec = doJSON(t, server, http.MethodPut, path, map[string]interface{}{
		"role": "admin",
	}, identityFor(member))
	mustStatus(t, rec, http.StatusForbidden)

	got, err := store.GetUserByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, content.RoleUser, got.Role)
}

func TestAdminChangesRoleAndDeletes(t *testing.T) {
	server, store := newTestServer(t)
	admin := createAccount(t, store, "root", content.RoleAdmin)
	member := createAccount(t, store, "member", content.RoleUser)
	path := "/api/users/" + strconv.FormatInt(member.ID, 10)

	rec := doJSON(t, server, http.MethodPut, path, map[string]interface{}{
		"role": "moderator",
	}, identityFor(admin))
	mustStatus(t, rec, http.StatusOK)
	var updated content.User
	decodeJSON(t, rec, &updated)
	assert.Equal(t, content.RoleModerator, updated.Role)

	rec = doJSON(t, server, http.MethodDelete, path, nil, identityFor(admin))
	mustStatus(t, rec, http.StatusNoContent)
	rec = doJSON(t, server, http.MethodGet, path, nil, identityFor(admin))
	mustStatus(t, rec, http.StatusNotFound)
}
