package storage

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/content"
)

// ErrNotFound is returned when a resource does not exist or is filtered out
// by the caller's visibility. The two cases are intentionally
// indistinguishable so that private drafts cannot be enumerated.
var ErrNotFound = errors.New("not found")

// Config for the storage backend.
type Config struct {
	// Database config. Driver is "postgres" or "sqlite3"; it also decides
	// whether keyword matching is case-insensitive (postgres ILIKE) or
	// case-sensitive (sqlite LIKE).
	DatabaseURL    string
	DatabaseDriver string
	MaxConns       int
	MinConns       int
	ConnectTimeout time.Duration

	// S3 config for media objects.
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	// Redis config for the settings/slug cache.
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int

	// Cache config.
	CacheEnabled bool
	CacheTTL     map[string]time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		DatabaseDriver:  "sqlite3",
		DatabaseURL:     "file:inkwell.db?_fk=1",
		MaxConns:        20,
		MinConns:        2,
		ConnectTimeout:  10 * time.Second,
		RedisDB:         0,
		RedisMaxRetries: 3,
		RedisPoolSize:   10,
		CacheEnabled:    true,
		CacheTTL: map[string]time.Duration{
			"setting": 5 * time.Minute,
			"slug":    1 * time.Minute,
		},
	}
}

// ArticleStore covers article lifecycle plus the three read paths that share
// the visibility predicate: id lookup, slug resolution and keyword search.
type ArticleStore interface {
	CreateArticle(ctx context.Context, article *content.Article) error
	GetArticle(ctx context.Context, id int64, caller *auth.Identity) (*content.Article, error)
	UpdateArticle(ctx context.Context, article *content.Article) error
	DeleteArticle(ctx context.Context, id int64) error
	ListArticles(ctx context.Context, caller *auth.Identity) ([]content.ArticleSummary, error)

	// ResolveSlug maps a slug to an article id, applying the caller's
	// visibility. Returns ErrNotFound for absent and invisible rows alike.
	ResolveSlug(ctx context.Context, slug string, caller *auth.Identity) (int64, error)

	// SearchArticles matches keyword against title and body, newest first.
	// Results and total are computed from one shared filter.
	SearchArticles(ctx context.Context, keyword string, caller *auth.Identity, limit, offset int) ([]content.ArticleSummary, int64, error)

	// GetCodeField returns a code field, applying the parent article's
	// visibility for the caller.
	GetCodeField(ctx context.Context, id int64, caller *auth.Identity) (*content.Field, error)

	// ReferencedObjects returns the object names of all image fields, used by
	// the orphaned-upload sweep.
	ReferencedObjects(ctx context.Context) (map[string]bool, error)

	CountArticles(ctx context.Context) (int64, error)
}

// TagStore lists tags, deduplicated by distinct name.
type TagStore interface {
	ListTags(ctx context.Context, search string) ([]content.Tag, error)
}

// SettingStore is the process-wide key/value configuration store.
type SettingStore interface {
	ListSettings(ctx context.Context) ([]content.Setting, error)
	GetSetting(ctx context.Context, key string) (*content.Setting, error)
	CreateSetting(ctx context.Context, setting *content.Setting) error
	UpdateSetting(ctx context.Context, setting *content.Setting) error
	DeleteSetting(ctx context.Context, key string) error
}

// UserStore manages accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *content.User) error
	GetUserByID(ctx context.Context, id int64) (*content.User, error)
	GetUserByEmail(ctx context.Context, email string) (*content.User, error)
	ListUsers(ctx context.Context) ([]content.User, error)
	UpdateUser(ctx context.Context, user *content.User) error
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int64, error)
}

// MenuTabStore manages navigation entries.
type MenuTabStore interface {
	ListMenuTabs(ctx context.Context) ([]content.MenuTab, error)
	CreateMenuTab(ctx context.Context, tab *content.MenuTab) error
	UpdateMenuTab(ctx context.Context, tab *content.MenuTab) error
	DeleteMenuTab(ctx context.Context, id int64) error
}

// Store is the full persistence surface consumed by the API server.
type Store interface {
	ArticleStore
	TagStore
	SettingStore
	UserStore
	MenuTabStore
	auth.SessionStore

	HealthCheck(ctx context.Context) error
	Close() error
}
