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

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login handles POST /api/auth/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "email and password are required")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same response as a wrong password, so accounts cannot be probed.
			httputil.WriteUnauthorized(w, "invalid credentials")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	if user.PasswordHash == nil || auth.CheckPassword(*user.PasswordHash, req.Password) != nil {
		httputil.WriteUnauthorized(w, "invalid credentials")
		return
	}

	identity, err := s.sessions.Login(w, r, user)
	if err != nil {
		s.logger.WithError(err).Error("failed to establish session")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, identity)
}

// logout handles POST /api/auth/logout.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		s.logger.WithError(err).Error("failed to revoke session")
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// register handles POST /api/auth/register. New accounts always get the
// read-only user role; only an admin can promote them afterwards.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "name, email and password are required")
		return
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
		Role:         content.RoleUser,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, user)
}

// session handles GET /api/auth/session, returning the caller identity or
// null for anonymous callers.
func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, auth.IdentityFromContext(r.Context()))
}
