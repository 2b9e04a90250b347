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

// The gate already confines non-admin callers to their own account path;
// the role checks here are defense in depth for the cases the gate cannot
// see, like role escalation inside an otherwise-permitted self update.

type userRequest struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password,omitempty"`
	Role     *content.Role `json:"role,omitempty"`
}

// listUsers handles GET /api/users. Admin only.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	if !auth.IdentityFromContext(r.Context()).IsAdmin() {
		httputil.WriteForbidden(w, "user management requires the admin role")
		return
	}

	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, users)
}

// createUser handles POST /api/users: admin account provisioning, with an
// explicit role. Self-service signup lives at /api/auth/register.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	if !auth.IdentityFromContext(r.Context()).IsAdmin() {
		httputil.WriteForbidden(w, "user management requires the admin role")
		return
	}

	var req userRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "name, email and password are required")
		return
	}

	role := content.RoleUser
	if req.Role != nil {
		if !req.Role.Valid() {
			httputil.WriteBadRequest(w, "unknown role")
			return
		}
		role = *req.Role
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	user := &content.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: &hash,
		Role:         role,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, user)
}

// getUser handles GET /api/users/{id}.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	user, err := s.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// updateUser handles PUT /api/users/{id}. Only an admin may change a role.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	caller := auth.IdentityFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	var req userRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(strings.ToLower(req.Email)); email != "" {
		user.Email = email
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		user.PasswordHash = &hash
	}
	if req.Role != nil && *req.Role != user.Role {
		if !caller.IsAdmin() {
			httputil.WriteForbidden(w, "changing roles requires the admin role")
			return
		}
		if !req.Role.Valid() {
			httputil.WriteBadRequest(w, "unknown role")
			return
		}
		user.Role = *req.Role
	}

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// deleteUser handles DELETE /api/users/{id}.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
