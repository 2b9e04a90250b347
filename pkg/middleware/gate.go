package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/observability"
)

// Gate resolves the caller's session and applies the request-level policy
// before any handler or rewrite logic runs.
type Gate struct {
	sessions *auth.Manager
	logger   *observability.Logger
}

// NewGate creates the authorization gate.
func NewGate(sessions *auth.Manager, logger *observability.Logger) *Gate {
	return &Gate{
		sessions: sessions,
		logger:   logger,
	}
}

// Handler resolves the session cookie into an identity, stores it in the
// request context, and rejects requests the policy denies.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.sessions.Resolve(r)
		if err != nil {
			// A broken session lookup downgrades the caller to anonymous
			// rather than failing the request.
			g.logger.WithError(err).Warn("session resolution failed, treating caller as anonymous")
			identity = nil
		}

		if !Allow(r.Method, r.URL.Path, identity) {
			if identity == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}
			httputil.WriteForbidden(w, "access denied")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

// Allow is the pure gate decision over method, path, and caller identity:
//
//  1. An authenticated caller without the admin role may not touch
//     user-management paths other than their own account.
//  2. Anonymous callers may read anything outside user management.
//  3. Everything else requires authentication, regardless of role.
func Allow(method, path string, identity *auth.Identity) bool {
	// Login, logout, and registration must stay reachable for everyone.
	if strings.HasPrefix(path, "/api/auth/") {
		return true
	}

	if identity != nil {
		if !identity.IsAdmin() && isUserManagementPath(path) {
			targetID, ok := userPathTarget(path)
			return ok && targetID == identity.UserID
		}
		return true
	}

	if !isReadMethod(method) {
		return false
	}
	return !isUserManagementPath(path)
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func isUserManagementPath(path string) bool {
	return path == "/api/users" || strings.HasPrefix(path, "/api/users/")
}

// userPathTarget extracts the user id from /api/users/{id}. The bare listing
// path has no target.
func userPathTarget(path string) (int64, bool) {
	rest := strings.TrimPrefix(path, "/api/users/")
	if rest == path || rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
