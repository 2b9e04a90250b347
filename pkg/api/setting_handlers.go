package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// Settings mutations arrive form-encoded, matching the admin panel that
// drives them. Reads are open to any caller the gate admits.

// listSettings handles GET /api/settings.
func (s *Server) listSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.ListSettings(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, settings)
}

// getSetting handles GET /api/settings/{key}.
func (s *Server) getSetting(w http.ResponseWriter, r *http.Request) {
	key, ok := httputil.ParsePathStringOrError(w, r, "key")
	if !ok {
		return
	}

	setting, err := s.store.GetSetting(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "setting not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, setting)
}

// createSetting handles POST /api/settings. Admin only.
func (s *Server) createSetting(w http.ResponseWriter, r *http.Request) {
	if !auth.IdentityFromContext(r.Context()).IsAdmin() {
		httputil.WriteForbidden(w, "settings management requires the admin role")
		return
	}

	key, err := httputil.FormValue(r, "key")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	value, err := httputil.FormValue(r, "value")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	setting := &content.Setting{Key: key, Value: value}
	if err := s.store.CreateSetting(r.Context(), setting); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, setting)
}

// updateSetting handles PUT /api/settings/{key}. Admin only.
func (s *Server) updateSetting(w http.ResponseWriter, r *http.Request) {
	if !auth.IdentityFromContext(r.Context()).IsAdmin() {
		httputil.WriteForbidden(w, "settings management requires the admin role")
		return
	}

	key, ok := httputil.ParsePathStringOrError(w, r, "key")
	if !ok {
		return
	}
	value, err := httputil.FormValue(r, "value")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	setting := &content.Setting{Key: key, Value: value}
	if err := s.store.UpdateSetting(r.Context(), setting); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "setting not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, setting)
}

// deleteSetting handles DELETE /api/settings/{key}. Admin only.
func (s *Server) deleteSetting(w http.ResponseWriter, r *http.Request) {
	if !auth.IdentityFromContext(r.Context()).IsAdmin() {
		httputil.WriteForbidden(w, "settings management requires the admin role")
		return
	}

	key, ok := httputil.ParsePathStringOrError(w, r, "key")
	if !ok {
		return
	}

	if err := s.store.DeleteSetting(r.Context(), key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "setting not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
