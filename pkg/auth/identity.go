package auth

import (
	"context"

	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/contextkeys"
)

// Identity describes an authenticated caller for the lifetime of one request.
type Identity struct {
	UserID int64        `json:"user_id"`
	Name   string       `json:"name"`
	Email  string       `json:"email"`
	Role   content.Role `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == content.RoleAdmin
}

// CanAuthor reports whether the identity may create articles. Accounts with
// the plain "user" role are read-only.
func (id *Identity) CanAuthor() bool {
	return id != nil && (id.Role == content.RoleAdmin || id.Role == content.RoleModerator)
}

// WithIdentity stores the identity in the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return contextkeys.WithIdentity(ctx, id)
}

// IdentityFromContext returns the caller identity, or nil for anonymous
// requests.
func IdentityFromContext(ctx context.Context) *Identity {
	v := ctx.Value(contextkeys.IdentityKey)
	if v == nil {
		return nil
	}
	id, ok := v.(*Identity)
	if !ok {
		return nil
	}
	return id
}
