// Package auth provides credential verification and signed cookie sessions.
//
// # Overview
//
// This package implements the identity layer: bcrypt password hashing, a
// session manager that pairs a signed cookie with a server-side session row
// for revocation, and the Identity snapshot that rides the request context.
//
// # Identity
//
// Identity is the per-request caller snapshot. It is written into the session
// cookie at login and read back on every request, so handlers never query the
// users table just to learn who is calling.
//
//	id := auth.IdentityFromContext(r.Context())
//	if id.CanAuthor() {
//		// admin or moderator
//	}
//
// Role helpers:
//
//	IsAdmin()   - admin role only
//	CanAuthor() - admin or moderator; may create and mutate articles
//
// # Passwords
//
//	hash, err := auth.HashPassword(password)
//	if auth.CheckPassword(hash, candidate) != nil {
//		// wrong password
//	}
//
// # Sessions
//
// Manager issues and resolves sessions. The cookie carries the identity
// snapshot plus a session id; the backing SessionStore row makes logout and
// expiry effective server-side:
//
//	sessions, err := auth.NewManager(secret, store, auth.DefaultSessionTTL)
//	identity, err := sessions.Login(w, r, user)
//	identity, err := sessions.Resolve(r) // nil identity for anonymous
//	err = sessions.Logout(w, r)
//
// The secret must be at least 32 characters.
//
// # Related Packages
//
//   - pkg/middleware: Resolves sessions in the authorization gate
//   - pkg/content: Role definitions on the User model
package auth
