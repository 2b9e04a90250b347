// Package storage provides the persistence contract for the CMS.
//
// # Overview
//
// This package defines the Store interface consumed by the API layer, the
// backend configuration, and the error taxonomy shared by all
// implementations. The concrete SQL implementation lives in
// pkg/storage/sqlstore; the S3 media client lives in pkg/storage/objstore.
//
// # Architecture
//
// The storage layer composes focused capabilities:
//
//   - ArticleStore: Article CRUD, slug resolution, keyword search
//   - TagStore: Distinct-by-name tag listing
//   - SettingStore: Key/value settings with read-through caching
//   - UserStore: Accounts and roles
//   - MenuTabStore: Navigation tabs
//   - auth.SessionStore: Server-side session rows
//
// These compose into the unified Store interface. All methods accept
// context.Context as the first parameter.
//
// # Visibility
//
// Read operations that take a caller identity (GetArticle, ResolveSlug,
// SearchArticles) apply one shared visibility rule: published rows, or rows
// authored by the caller. An invisible row is indistinguishable from a
// missing one; both return ErrNotFound.
//
// # Errors
//
// ErrNotFound is the sentinel for absent rows and objects:
//
//	article, err := store.GetArticle(ctx, id, caller)
//	if errors.Is(err, storage.ErrNotFound) {
//		// absent or not visible to caller
//	}
//
// # Configuration
//
// Backends are configured through the Config struct:
//
//	cfg := storage.DefaultConfig()
//	cfg.DatabaseDriver = "postgres"
//	cfg.DatabaseURL = "postgres://localhost/inkwell"
//	cfg.RedisURL = "redis://localhost:6379"
//	cfg.CacheEnabled = true
//	cfg.S3Bucket = "inkwell-media"
//
// # Related Packages
//
//   - pkg/storage/sqlstore: database/sql implementation (postgres, sqlite)
//   - pkg/storage/objstore: S3-compatible media object client
//   - pkg/api: HTTP layer that consumes Store
package storage
