package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// ListMenuTabs returns navigation entries in display order.
func (s *Store) ListMenuTabs(ctx context.Context) ([]content.MenuTab, error) {
	query := "SELECT id, name, link, sort_order, article_id FROM menu_tabs ORDER BY sort_order, id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu tabs: %w", err)
	}
	defer rows.Close()

	var tabs []content.MenuTab
	for rows.Next() {
		var tab content.MenuTab
		var articleID sql.NullInt64
		if err := rows.Scan(&tab.ID, &tab.Name, &tab.Link, &tab.SortOrder, &articleID); err != nil {
			return nil, fmt.Errorf("failed to scan menu tab: %w", err)
		}
		if articleID.Valid {
			tab.ArticleID = &articleID.Int64
		}
		tabs = append(tabs, tab)
	}
	return tabs, rows.Err()
}

// CreateMenuTab inserts a navigation entry.
func (s *Store) CreateMenuTab(ctx context.Context, tab *content.MenuTab) error {
	insert := "INSERT INTO menu_tabs (name, link, sort_order, article_id) VALUES (?, ?, ?, ?)"
	var articleID interface{}
	if tab.ArticleID != nil {
		articleID = *tab.ArticleID
	}

	var err error
	if s.dialect == DialectPostgres {
		err = s.db.QueryRowContext(ctx, s.rebind(insert+" RETURNING id"),
			tab.Name, tab.Link, tab.SortOrder, articleID).Scan(&tab.ID)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, insert, tab.Name, tab.Link, tab.SortOrder, articleID)
		if err == nil {
			tab.ID, err = res.LastInsertId()
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create menu tab: %w", err)
	}
	return nil
}

// UpdateMenuTab rewrites a navigation entry.
func (s *Store) UpdateMenuTab(ctx context.Context, tab *content.MenuTab) error {
	var articleID interface{}
	if tab.ArticleID != nil {
		articleID = *tab.ArticleID
	}

	update := "UPDATE menu_tabs SET name = ?, link = ?, sort_order = ?, article_id = ? WHERE id = ?"
	res, err := s.db.ExecContext(ctx, s.rebind(update), tab.Name, tab.Link, tab.SortOrder, articleID, tab.ID)
	if err != nil {
		return fmt.Errorf("failed to update menu tab: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteMenuTab removes a navigation entry.
func (s *Store) DeleteMenuTab(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM menu_tabs WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete menu tab: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
