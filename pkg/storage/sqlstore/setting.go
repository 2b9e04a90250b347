package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// ListSettings returns all settings ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]content.Setting, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []content.Setting
	for rows.Next() {
		var setting content.Setting
		if err := rows.Scan(&setting.Key, &setting.Value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, setting)
	}
	return settings, rows.Err()
}

// GetSetting returns one setting, read through the redis cache when one is
// configured.
func (s *Store) GetSetting(ctx context.Context, key string) (setting *content.Setting, err error) {
	defer s.observe("get_setting", time.Now(), &err)

	if s.cache != nil {
		if cached, ok := s.cache.GetSetting(ctx, key); ok {
			if s.metrics != nil {
				s.metrics.CacheHitsTotal.WithLabelValues("setting").Inc()
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.CacheMissesTotal.WithLabelValues("setting").Inc()
		}
	}

	setting = &content.Setting{}
	err = s.db.QueryRowContext(ctx, s.rebind("SELECT key, value FROM settings WHERE key = ?"), key).
		Scan(&setting.Key, &setting.Value)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}

	if s.cache != nil {
		s.cache.SetSetting(ctx, setting)
	}
	return setting, nil
}

// CreateSetting inserts a new setting. The key must not exist yet.
func (s *Store) CreateSetting(ctx context.Context, setting *content.Setting) (err error) {
	defer s.observe("create_setting", time.Now(), &err)

	_, err = s.db.ExecContext(ctx, s.rebind("INSERT INTO settings (key, value) VALUES (?, ?)"),
		setting.Key, setting.Value)
	if err != nil {
		return fmt.Errorf("failed to create setting: %w", err)
	}

	s.invalidateSetting(ctx, setting.Key)
	return nil
}

// UpdateSetting replaces the value for an existing key.
func (s *Store) UpdateSetting(ctx context.Context, setting *content.Setting) (err error) {
	defer s.observe("update_setting", time.Now(), &err)

	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE settings SET value = ? WHERE key = ?"),
		setting.Value, setting.Key)
	if err != nil {
		return fmt.Errorf("failed to update setting: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	s.invalidateSetting(ctx, setting.Key)
	return nil
}

// DeleteSetting removes a setting by key.
func (s *Store) DeleteSetting(ctx context.Context, key string) (err error) {
	defer s.observe("delete_setting", time.Now(), &err)

	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM settings WHERE key = ?"), key)
	if err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	s.invalidateSetting(ctx, key)
	return nil
}

func (s *Store) invalidateSetting(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateSetting(ctx, key)
}
