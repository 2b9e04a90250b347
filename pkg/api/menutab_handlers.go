package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

type menuTabRequest struct {
	Name      string `json:"name"`
	Link      string `json:"link"`
	SortOrder int    `json:"sort_order"`
	ArticleID *int64 `json:"article_id,omitempty"`
}

// listMenuTabs handles GET /api/menutabs, ordered for navigation rendering.
func (s *Server) listMenuTabs(w http.ResponseWriter, r *http.Request) {
	tabs, err := s.store.ListMenuTabs(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, tabs)
}

// createMenuTab handles POST /api/menutabs. Admin only.
func (s *Server) createMenuTab(w http.ResponseWriter, r *http.Request) {
	if !auth.IdentityFromContext(r.Context()).IsAdmin() {
		httputil.WriteForbidden(w, "menu management requires the admin role")
		return
	}

	var req menuTabRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Link == "" {
		httputil.WriteBadRequest(w, "name and link are required")
		return
	}

	tab := &content.MenuTab{
		Name:      req.Name,
		Link:      req.Link,
		SortOrder: req.SortOrder,
		ArticleID: req.ArticleID,
	}
	if err := s.store.CreateMenuTab(r.Context(), tab); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, tab)
}

// updateMenuTab handles PUT /api/menutabs/{id}. Admin only.
func (s *Server) updateMenuTab(w http.ResponseWriter, r *http.Request) {
	if !auth.IdentityFromContext(r.Context()).IsAdmin() {
		httputil.WriteForbidden(w, "menu management requires the admin role")
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req menuTabRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Link == "" {
		httputil.WriteBadRequest(w, "name and link are required")
		return
	}

	tab := &content.MenuTab{
		ID:        id,
		Name:      req.Name,
		Link:      req.Link,
		SortOrder: req.SortOrder,
		ArticleID: req.ArticleID,
	}
	if err := s.store.UpdateMenuTab(r.Context(), tab); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "menu tab not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, tab)
}

// deleteMenuTab handles DELETE /api/menutabs/{id}. Admin only.
func (s *Server) deleteMenuTab(w http.ResponseWriter, r *http.Request) {
	if !auth.IdentityFromContext(r.Context()).IsAdmin() {
		httputil.WriteForbidden(w, "menu management requires the admin role")
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteMenuTab(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "menu tab not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
