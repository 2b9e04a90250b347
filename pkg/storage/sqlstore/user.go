package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, user *content.User) (err error) {
	defer s.observe("create_user", time.Now(), &err)

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = content.RoleUser
	}

	insert := `
		INSERT INTO users (name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		user.Name,
		user.Email,
		nullableString(user.PasswordHash),
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	}

	if s.dialect == DialectPostgres {
		err = s.db.QueryRowContext(ctx, s.rebind(insert+" RETURNING id"), args...).Scan(&user.ID)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, insert, args...)
		if err == nil {
			user.ID, err = res.LastInsertId()
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID returns one account by id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*content.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByEmail returns one account by email, used by credential login.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*content.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *Store) getUser(ctx context.Context, where string, arg interface{}) (*content.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE ` + where

	user, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(query), arg))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all accounts, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]content.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []content.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateUser rewrites an account's mutable attributes.
func (s *Store) UpdateUser(ctx context.Context, user *content.User) (err error) {
	defer s.observe("update_user", time.Now(), &err)

	user.UpdatedAt = time.Now().UTC()
	update := `
		UPDATE users
		SET name = ?, email = ?, password_hash = ?, role = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, s.rebind(update),
		user.Name,
		user.Email,
		nullableString(user.PasswordHash),
		user.Role,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteUser removes an account; its sessions cascade.
func (s *Store) DeleteUser(ctx context.Context, id int64) (err error) {
	defer s.observe("delete_user", time.Now(), &err)

	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountUsers returns the number of accounts, for the business gauge.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// Session persistence for auth.SessionStore.

// CreateSession inserts a server-side session record.
func (s *Store) CreateSession(ctx context.Context, session *auth.Session) error {
	insert := "INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)"
	_, err := s.db.ExecContext(ctx, s.rebind(insert),
		session.ID, session.UserID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession returns a session record, or nil when it does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*auth.Session, error) {
	query := "SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?"
	var session auth.Session
	err := s.db.QueryRowContext(ctx, s.rebind(query), id).
		Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// DeleteSession revokes one session.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM sessions WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before the cutoff and
// returns how many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM sessions WHERE expires_at < ?"), before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return n, nil
}

func scanUser(row rowScanner) (*content.User, error) {
	var user content.User
	var hash sql.NullString
	err := row.Scan(&user.ID, &user.Name, &user.Email, &hash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if hash.Valid {
		user.PasswordHash = &hash.String
	}
	return &user, nil
}
