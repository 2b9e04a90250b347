package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// CreateArticle inserts the article together with its fields and tag links in
// one transaction.
func (s *Store) CreateArticle(ctx context.Context, article *content.Article) (err error) {
	defer s.observe("create_article", time.Now(), &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	insert := `
		INSERT INTO articles (slug, title, body, published, sticky, featured, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		nullableString(article.Slug),
		article.Title,
		article.Body,
		article.Published,
		article.Sticky,
		article.Featured,
		article.AuthorID,
		article.CreatedAt,
		article.UpdatedAt,
	}

	if s.dialect == DialectPostgres {
		err = tx.QueryRowContext(ctx, s.rebind(insert+" RETURNING id"), args...).Scan(&article.ID)
	} else {
		var res sql.Result
		res, err = tx.ExecContext(ctx, insert, args...)
		if err == nil {
			article.ID, err = res.LastInsertId()
		}
	}
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	if err := s.writeFields(ctx, tx, article); err != nil {
		return err
	}
	if err := s.writeTagLinks(ctx, tx, article); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidateSlug(ctx, article.Slug)
	return nil
}

// GetArticle loads a full article, applying the caller's visibility. Invisible
// and absent rows both return storage.ErrNotFound.
func (s *Store) GetArticle(ctx context.Context, id int64, caller *auth.Identity) (*content.Article, error) {
	visWhere, visArgs := visibilityClause(caller)
	query := `
		SELECT a.id, a.slug, a.title, a.body, a.published, a.sticky, a.featured, a.author_id, a.created_at, a.updated_at
		FROM articles a
		WHERE a.id = ? AND ` + visWhere

	args := append([]interface{}{id}, visArgs...)

	var article content.Article
	var slug sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(
		&article.ID,
		&slug,
		&article.Title,
		&article.Body,
		&article.Published,
		&article.Sticky,
		&article.Featured,
		&article.AuthorID,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if slug.Valid {
		article.Slug = &slug.String
	}

	if article.Fields, err = s.loadFields(ctx, article.ID); err != nil {
		return nil, err
	}
	if article.Tags, err = s.loadTags(ctx, article.ID); err != nil {
		return nil, err
	}
	if article.MenuTab, err = s.loadMenuTab(ctx, article.ID); err != nil {
		return nil, err
	}

	return &article, nil
}

// UpdateArticle rewrites the article row and replaces its fields and tag
// links in one transaction.
func (s *Store) UpdateArticle(ctx context.Context, article *content.Article) (err error) {
	defer s.observe("update_article", time.Now(), &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// The old slug is needed to invalidate a stale cache entry after a
	// slug change.
	var oldSlug sql.NullString
	err = tx.QueryRowContext(ctx, s.rebind("SELECT slug FROM articles WHERE id = ?"), article.ID).Scan(&oldSlug)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("failed to load article: %w", err)
	}

	article.UpdatedAt = time.Now().UTC()
	update := `
		UPDATE articles
		SET slug = ?, title = ?, body = ?, published = ?, sticky = ?, featured = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = tx.ExecContext(ctx, s.rebind(update),
		nullableString(article.Slug),
		article.Title,
		article.Body,
		article.Published,
		article.Sticky,
		article.Featured,
		article.UpdatedAt,
		article.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}

	if _, err = tx.ExecContext(ctx, s.rebind("DELETE FROM fields WHERE article_id = ?"), article.ID); err != nil {
		return fmt.Errorf("failed to clear fields: %w", err)
	}
	if err := s.writeFields(ctx, tx, article); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, s.rebind("DELETE FROM article_tags WHERE article_id = ?"), article.ID); err != nil {
		return fmt.Errorf("failed to clear tag links: %w", err)
	}
	if err := s.writeTagLinks(ctx, tx, article); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if oldSlug.Valid {
		s.invalidateSlug(ctx, &oldSlug.String)
	}
	s.invalidateSlug(ctx, article.Slug)
	return nil
}

// DeleteArticle removes the article; fields, tag links, and an attached menu
// tab go with it via cascade.
func (s *Store) DeleteArticle(ctx context.Context, id int64) (err error) {
	defer s.observe("delete_article", time.Now(), &err)

	var slug sql.NullString
	err = s.db.QueryRowContext(ctx, s.rebind("SELECT slug FROM articles WHERE id = ?"), id).Scan(&slug)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("failed to load article: %w", err)
	}

	if _, err = s.db.ExecContext(ctx, s.rebind("DELETE FROM articles WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	if slug.Valid {
		s.invalidateSlug(ctx, &slug.String)
	}
	return nil
}

// ListArticles returns summaries the caller may see, sticky first, then
// newest first.
func (s *Store) ListArticles(ctx context.Context, caller *auth.Identity) ([]content.ArticleSummary, error) {
	visWhere, visArgs := visibilityClause(caller)
	query := `
		SELECT a.id, a.slug, a.title, a.published, a.sticky, a.featured, a.author_id, a.created_at
		FROM articles a
		WHERE ` + visWhere + `
		ORDER BY a.sticky DESC, a.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), visArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// ResolveSlug maps a slug to an article id under the caller's visibility.
// Anonymous lookups are cached; authenticated ones are not, since their
// result depends on the caller.
func (s *Store) ResolveSlug(ctx context.Context, slug string, caller *auth.Identity) (id int64, err error) {
	defer s.observe("resolve_slug", time.Now(), &err)

	ctx, span := tracer.Start(ctx, "Store.ResolveSlug",
		trace.WithAttributes(attribute.String("article.slug", slug)),
	)
	defer span.End()

	if caller == nil && s.cache != nil {
		if cached, ok := s.cache.GetSlug(ctx, slug); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			if s.metrics != nil {
				s.metrics.CacheHitsTotal.WithLabelValues("slug").Inc()
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.CacheMissesTotal.WithLabelValues("slug").Inc()
		}
	}

	visWhere, visArgs := visibilityClause(caller)
	query := "SELECT a.id FROM articles a WHERE a.slug = ? AND " + visWhere
	args := append([]interface{}{slug}, visArgs...)

	err = s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&id)
	if err == sql.ErrNoRows {
		// Absent and invisible are deliberately the same answer.
		return 0, storage.ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "slug lookup failed")
		return 0, fmt.Errorf("failed to resolve slug: %w", err)
	}

	if caller == nil && s.cache != nil {
		s.cache.SetSlug(ctx, slug, id)
	}
	return id, nil
}

// SearchArticles matches keyword against title and body. The count and the
// page are computed from the identical clause built by searchClause.
func (s *Store) SearchArticles(ctx context.Context, keyword string, caller *auth.Identity, limit, offset int) (results []content.ArticleSummary, total int64, err error) {
	defer s.observe("search_articles", time.Now(), &err)

	ctx, span := tracer.Start(ctx, "Store.SearchArticles",
		trace.WithAttributes(
			attribute.String("search.keyword", keyword),
			attribute.Int("search.limit", limit),
			attribute.Int("search.offset", offset),
		),
	)
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	where, args := s.searchClause(keyword, caller)

	countQuery := "SELECT COUNT(*) FROM articles a WHERE " + where
	if err = s.db.QueryRowContext(ctx, s.rebind(countQuery), args...).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search count failed")
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	query := `
		SELECT a.id, a.slug, a.title, a.published, a.sticky, a.featured, a.author_id, a.created_at
		FROM articles a
		WHERE ` + where + `
		ORDER BY a.created_at DESC
		LIMIT ? OFFSET ?
	`
	pageArgs := append(append([]interface{}{}, args...), limit, offset)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), pageArgs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search query failed")
		return nil, 0, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()

	results, err = scanSummaries(rows)
	if err != nil {
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int64("search.total", total))
	return results, total, nil
}

// GetCodeField returns a code field under the parent article's visibility.
func (s *Store) GetCodeField(ctx context.Context, id int64, caller *auth.Identity) (*content.Field, error) {
	visWhere, visArgs := visibilityClause(caller)
	query := `
		SELECT f.id, f.article_id, f.kind, f.value, f.meta, f.position
		FROM fields f
		JOIN articles a ON f.article_id = a.id
		WHERE f.id = ? AND f.kind = ? AND ` + visWhere

	args := append([]interface{}{id, content.FieldCode}, visArgs...)

	field, err := scanField(s.db.QueryRowContext(ctx, s.rebind(query), args...))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get code field: %w", err)
	}
	return field, nil
}

// ReferencedObjects returns the object names used by image fields.
func (s *Store) ReferencedObjects(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind("SELECT value FROM fields WHERE kind = ?"), content.FieldImage)
	if err != nil {
		return nil, fmt.Errorf("failed to list image fields: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan image field: %w", err)
		}
		refs[name] = true
	}
	return refs, rows.Err()
}

// CountArticles returns the total article count, for the business gauge.
func (s *Store) CountArticles(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

// Helpers shared by the article methods.

func (s *Store) writeFields(ctx context.Context, tx *sql.Tx, article *content.Article) error {
	insert := s.rebind(`
		INSERT INTO fields (article_id, kind, value, meta, position)
		VALUES (?, ?, ?, ?, ?)
	`)
	for i := range article.Fields {
		f := &article.Fields[i]
		f.ArticleID = article.ID
		f.Position = i
		if _, err := tx.ExecContext(ctx, insert, f.ArticleID, f.Kind, f.Value, nullableString(f.Meta), f.Position); err != nil {
			return fmt.Errorf("failed to insert field %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) writeTagLinks(ctx context.Context, tx *sql.Tx, article *content.Article) error {
	findTag := s.rebind("SELECT id FROM tags WHERE name = ? ORDER BY id LIMIT 1")
	insertTag := s.rebind("INSERT INTO tags (name) VALUES (?)")
	insertTagPG := s.rebind("INSERT INTO tags (name) VALUES (?) RETURNING id")
	link := s.rebind("INSERT INTO article_tags (article_id, tag_id) VALUES (?, ?)")

	for i := range article.Tags {
		tag := &article.Tags[i]

		var tagID int64
		err := tx.QueryRowContext(ctx, findTag, tag.Name).Scan(&tagID)
		if err == sql.ErrNoRows {
			if s.dialect == DialectPostgres {
				err = tx.QueryRowContext(ctx, insertTagPG, tag.Name).Scan(&tagID)
			} else {
				var res sql.Result
				res, err = tx.ExecContext(ctx, insertTag, tag.Name)
				if err == nil {
					tagID, err = res.LastInsertId()
				}
			}
		}
		if err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", tag.Name, err)
		}

		tag.ID = tagID
		if _, err := tx.ExecContext(ctx, link, article.ID, tagID); err != nil {
			return fmt.Errorf("failed to link tag %q: %w", tag.Name, err)
		}
	}
	return nil
}

func (s *Store) loadFields(ctx context.Context, articleID int64) ([]content.Field, error) {
	query := s.rebind(`
		SELECT id, article_id, kind, value, meta, position
		FROM fields
		WHERE article_id = ?
		ORDER BY position
	`)
	rows, err := s.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fields: %w", err)
	}
	defer rows.Close()

	var fields []content.Field
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		fields = append(fields, *field)
	}
	return fields, rows.Err()
}

func (s *Store) loadTags(ctx context.Context, articleID int64) ([]content.Tag, error) {
	query := s.rebind(`
		SELECT t.id, t.name
		FROM tags t
		JOIN article_tags at ON at.tag_id = t.id
		WHERE at.article_id = ?
		ORDER BY t.name
	`)
	rows, err := s.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
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

func (s *Store) loadMenuTab(ctx context.Context, articleID int64) (*content.MenuTab, error) {
	query := s.rebind(`
		SELECT id, name, link, sort_order, article_id
		FROM menu_tabs
		WHERE article_id = ?
	`)
	var tab content.MenuTab
	var linkedID sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, articleID).Scan(&tab.ID, &tab.Name, &tab.Link, &tab.SortOrder, &linkedID)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load menu tab: %w", err)
	}
	if linkedID.Valid {
		tab.ArticleID = &linkedID.Int64
	}
	return &tab, nil
}

func (s *Store) invalidateSlug(ctx context.Context, slug *string) {
	if s.cache == nil || slug == nil || *slug == "" {
		return
	}
	s.cache.InvalidateSlug(ctx, *slug)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanField(row rowScanner) (*content.Field, error) {
	var f content.Field
	var meta sql.NullString
	if err := row.Scan(&f.ID, &f.ArticleID, &f.Kind, &f.Value, &meta, &f.Position); err != nil {
		return nil, err
	}
	if meta.Valid {
		f.Meta = &meta.String
	}
	return &f, nil
}

func scanSummaries(rows *sql.Rows) ([]content.ArticleSummary, error) {
	var summaries []content.ArticleSummary
	for rows.Next() {
		var sum content.ArticleSummary
		var slug sql.NullString
		err := rows.Scan(&sum.ID, &slug, &sum.Title, &sum.Published, &sum.Sticky, &sum.Featured, &sum.AuthorID, &sum.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article summary: %w", err)
		}
		if slug.Valid {
			sum.Slug = &slug.String
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}
	return summaries, nil
}

func nullableString(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
