package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/platinummonkey/inkwell/pkg/content"
)

const (
	// SessionCookie is the name of the session cookie.
	SessionCookie = "inkwell_session"

	// sessionIDBytes is the length of the random session identifier.
	sessionIDBytes = 32
)

// DefaultSessionTTL is how long a session stays valid without a new login.
const DefaultSessionTTL = 30 * 24 * time.Hour

func init() {
	gob.Register(&Identity{})
}

// Session is the server-side session record. The cookie carries only the
// signed identity snapshot plus this record's ID, so sessions can be revoked
// and expired centrally.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore persists session records.
type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// Manager issues and resolves cookie sessions.
type Manager struct {
	store   *sessions.CookieStore
	backend SessionStore
	ttl     time.Duration
}

// NewManager creates a session manager. The secret signs session cookies and
// must be at least 32 bytes.
func NewManager(secret string, backend SessionStore, ttl time.Duration) (*Manager, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 characters long")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	store := sessions.NewCookieStore([]byte(secret))
	store.Options.HttpOnly = true
	store.Options.Path = "/"
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.MaxAge = int(ttl / time.Second)

	return &Manager{
		store:   store,
		backend: backend,
		ttl:     ttl,
	}, nil
}

// Login creates a session record for the user and writes the signed cookie.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user *content.User) (*Identity, error) {
	id := &Identity{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}

	sessionID, err := newSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := &Session{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.backend.CreateSession(r.Context(), record); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	sess, _ := m.store.Get(r, SessionCookie)
	sess.Values["session_id"] = sessionID
	sess.Values["identity"] = id
	if err := sess.Save(r, w); err != nil {
		return nil, fmt.Errorf("failed to write session cookie: %w", err)
	}

	return id, nil
}

// Logout revokes the server-side record and clears the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, SessionCookie)
	if err != nil {
		// A bad cookie is still a logged-out state.
		return nil
	}

	if sessionID, ok := sess.Values["session_id"].(string); ok && sessionID != "" {
		if err := m.backend.DeleteSession(r.Context(), sessionID); err != nil {
			return fmt.Errorf("failed to revoke session: %w", err)
		}
	}

	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Resolve returns the caller identity from the request's session cookie, or
// nil for anonymous callers. The identity snapshot lives in the signed cookie;
// the server-side record is consulted only for revocation and expiry.
func (m *Manager) Resolve(r *http.Request) (*Identity, error) {
	sess, err := m.store.Get(r, SessionCookie)
	if err != nil || sess.IsNew {
		return nil, nil
	}

	id, ok := sess.Values["identity"].(*Identity)
	if !ok || id == nil {
		return nil, nil
	}
	sessionID, ok := sess.Values["session_id"].(string)
	if !ok || sessionID == "" {
		return nil, nil
	}

	record, err := m.backend.GetSession(r.Context(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if record == nil || record.UserID != id.UserID || time.Now().After(record.ExpiresAt) {
		return nil, nil
	}

	return id, nil
}

func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
