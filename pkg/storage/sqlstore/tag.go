package sqlstore

import (
	"context"
	"fmt"

	"github.com/platinummonkey/inkwell/pkg/content"
)

// ListTags returns tags matching the optional search string, deduplicated by
// name at query time since the table does not enforce uniqueness. The lowest
// id wins for a duplicated name.
func (s *Store) ListTags(ctx context.Context, search string) ([]content.Tag, error) {
	query := `
		SELECT MIN(id) AS id, name
		FROM tags
	`
	var args []interface{}
	if search != "" {
		like := "LIKE"
		if s.dialect == DialectPostgres {
			like = "ILIKE"
		}
		query += " WHERE name " + like + " ?"
		args = append(args, "%"+search+"%")
	}
	query += " GROUP BY name ORDER BY name"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []content.Tag
	for rows.Next() {
		var t content.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
