// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults, plus an optional YAML file overlay for deployments that
// prefer checked-in settings over long env lists.
//
// # Configuration Structure
//
// Server settings:
//
//	INKWELL_HOST="0.0.0.0"
//	INKWELL_PORT="8080"
//	INKWELL_READ_TIMEOUT="15s"
//	INKWELL_WRITE_TIMEOUT="15s"
//	INKWELL_MAX_REQUEST_BYTES="33554432"
//
// Storage settings:
//
//	INKWELL_DATABASE_DRIVER="sqlite3"  # sqlite3, postgres
//	INKWELL_DATABASE_URL="file:inkwell.db?_fk=1"
//	INKWELL_S3_BUCKET="inkwell-media"
//	INKWELL_S3_REGION="us-east-1"
//
// Cache settings:
//
//	INKWELL_CACHE_ENABLED="true"
//	INKWELL_REDIS_URL="redis://localhost:6379"
//
// Auth settings:
//
//	INKWELL_SESSION_SECRET="..."  # at least 32 characters
//	INKWELL_SESSION_TTL="720h"
//
// Rewrite settings:
//
//	INKWELL_PROXY_FILES="true"
//	INKWELL_ALIAS_SETTING_KEY="articles_alias"
//	INKWELL_REWRITE_TIMEOUT="2s"
//
// Observability settings:
//
//	INKWELL_LOG_LEVEL="info"  # debug, info, warn, error
//	INKWELL_METRICS_ENABLED="true"
//
// Maintenance settings:
//
//	INKWELL_MAINTENANCE_ENABLED="true"
//	INKWELL_MAINTENANCE_SCHEDULE="@hourly"
//	INKWELL_UPLOAD_GRACE_PERIOD="24h"
//
// # File Overlay
//
// Set INKWELL_CONFIG_FILE to a YAML path to overlay file values on top of the
// environment. Only keys present in the file override.
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Driver: %s\n", cfg.Storage.DatabaseDriver)
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/observability: Uses observability configuration
package config
