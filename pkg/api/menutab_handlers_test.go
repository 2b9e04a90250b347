package api

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/inkwell/pkg/content"
)

func TestMenuTabLifecycle(t *testing.T) {
	server, store := newTestServer(t)
	admin := createAccount(t, store, "root", content.RoleAdmin)
	moderator := createAccount(t, store, "mod", content.RoleModerator)

	rec := doJSON(t, server, http.MethodPost, "/api/menutabs", map[string]interface{}{
		"name": "About", "link": "/about", "sort_order": 2,
	}, identityFor(moderator))
	mustStatus(t, rec, http.StatusForbidden)

	rec = doJSON(t, server, http.MethodPost, "/api/menutabs", map[string]interface{}{
		"name": "About", "link": "/about", "sort_order": 2,
	}, identityFor(admin))
	mustStatus(t, rec, http.StatusCreated)
	var about content.MenuTab
	decodeJSON(t, rec, &about)

	rec = doJSON(t, server, http.MethodPost, "/api/menutabs", map[string]interface{}{
		"name": "Home", "link": "/", "sort_order": 1,
	}, identityFor(admin))
	mustStatus(t, rec, http.StatusCreated)

	// Listing is ordered for navigation and open to everyone.
	rec = doJSON(t, server, http.MethodGet, "/api/menutabs", nil, nil)
	mustStatus(t, rec, http.StatusOK)
	var tabs []content.MenuTab
	decodeJSON(t, rec, &tabs)
	require.Len(t, tabs, 2)
	assert.Equal(t, "Home", tabs[0].Name)
	assert.Equal(t, "About", tabs[1].Name)

	path := "/api/menutabs/" + strconv.FormatInt(about.ID, 10)
	rec = doJSON(t, server, http.MethodPut, path, map[string]interface{}{
		"name": "About Us", "link": "/about", "sort_order": 3,
	}, identityFor(admin))
	mustStatus(t, rec, http.StatusOK)

	rec = doJSON(t, server, http.MethodDelete, path, nil, identityFor(admin))
	mustStatus(t, rec, http.StatusNoContent)
	rec = doJSON(t, server, http.MethodDelete, path, nil, identityFor(admin))
	mustStatus(t, rec, http.StatusNotFound)
}
