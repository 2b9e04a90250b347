// Package sqlstore implements storage.Store over database/sql, supporting
// PostgreSQL and SQLite. Queries are written with ? placeholders and rebound
// for postgres; the dialect is detected once at construction and decides
// keyword-match case sensitivity.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"go.opentelemetry.io/otel"

	"github.com/platinummonkey/inkwell/pkg/observability"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

var tracer = otel.Tracer("inkwell/storage/sqlstore")

// Dialect identifies the backing SQL dialect.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Store is the SQL-backed implementation of storage.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	cache   *RedisClient
	metrics *observability.Metrics
	config  storage.Config
}

// New opens the database, verifies connectivity, and wires the optional
// redis cache. The driver name decides the dialect.
func New(cfg storage.Config, metrics *observability.Metrics) (*Store, error) {
	dialect := DialectSQLite
	dsn := cfg.DatabaseURL
	if cfg.DatabaseDriver == "postgres" {
		dialect = DialectPostgres
	} else {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite {
		// sqlite serializes writers anyway, so the pool is pinned to a
		// single connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxConns)
		db.SetMaxIdleConns(cfg.MinConns)
		db.SetConnMaxLifetime(1 * time.Hour)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var cache *RedisClient
	if cfg.CacheEnabled && cfg.RedisURL != "" {
		cache, err = NewRedisClient(cfg)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
	}

	return &Store{
		db:      db,
		dialect: dialect,
		cache:   cache,
		metrics: metrics,
		config:  cfg,
	}, nil
}

// sqliteDSN pins the sqlite pragmas in the DSN so every connection the
// driver dials gets them, including a reconnect after a dropped connection.
// Substring matching must be case-sensitive, and foreign keys enforce the
// article cascade deletes.
func sqliteDSN(url string) string {
	for _, param := range []string{"_case_sensitive_like=true", "_fk=true"} {
		key, _, _ := strings.Cut(param, "=")
		if strings.Contains(url, key+"=") {
			continue
		}
		if strings.Contains(url, "?") {
			url += "&" + param
		} else {
			url += "?" + param
		}
	}
	return url
}

// Dialect returns the detected SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// rebind rewrites ? placeholders to $N for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// observe records one storage operation in the metrics, when metrics are
// configured.
func (s *Store) observe(operation string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	var opErr error
	if err != nil {
		opErr = *err
	}
	s.metrics.ObserveStorage(operation, start, opErr)
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == DialectPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS users (
    id %[1]s,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    role TEXT NOT NULL DEFAULT 'user',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS articles (
    id %[1]s,
    slug TEXT UNIQUE,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    published BOOLEAN NOT NULL DEFAULT FALSE,
    sticky BOOLEAN NOT NULL DEFAULT FALSE,
    featured BOOLEAN NOT NULL DEFAULT FALSE,
    author_id INTEGER NOT NULL REFERENCES users(id),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS fields (
    id %[1]s,
    article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    value TEXT NOT NULL,
    meta TEXT,
    position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tags (
    id %[1]s,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS article_tags (
    article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (article_id, tag_id)
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS menu_tabs (
    id %[1]s,
    name TEXT NOT NULL,
    link TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    article_id INTEGER REFERENCES articles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_slug ON articles(slug);
CREATE INDEX IF NOT EXISTS idx_articles_author ON articles(author_id);
CREATE INDEX IF NOT EXISTS idx_fields_article ON fields(article_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`, serial)

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// HealthCheck pings the database and, when configured, redis.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			return fmt.Errorf("redis unhealthy: %w", err)
		}
	}
	return nil
}

// DB returns the underlying connection, for tests and health reporting.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes all connections.
func (s *Store) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	return s.db.Close()
}
