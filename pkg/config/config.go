package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/inkwell/pkg/observability"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Auth configuration
	Auth AuthConfig

	// Rewrite configuration
	Rewrite RewriteConfig

	// Observability configuration
	Observability ObservabilityConfig

	// Maintenance configuration
	Maintenance MaintenanceConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxRequestBytes int64
}

// AuthConfig holds session configuration.
type AuthConfig struct {
	// SessionSecret signs session cookies. Must be at least 32 characters.
	SessionSecret string
	SessionTTL    time.Duration
}

// RewriteConfig holds path rewriter configuration.
type RewriteConfig struct {
	// ProxyFiles enables serving /uploads/ paths through the file API.
	ProxyFiles bool
	// AliasSettingKey names the setting whose value aliases the article
	// listing.
	AliasSettingKey string
	Timeout         time.Duration
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// MaintenanceConfig holds the background sweep configuration.
type MaintenanceConfig struct {
	Enabled bool
	// Schedule is a cron expression for the maintenance sweep.
	Schedule string
	// UploadGracePeriod is how long an unreferenced upload may exist before
	// the sweep deletes it.
	UploadGracePeriod time.Duration
}

// fileConfig is the YAML overlay shape. Only keys that are set override the
// environment-derived values.
type fileConfig struct {
	Server struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		DatabaseURL    string `yaml:"database_url"`
		DatabaseDriver string `yaml:"database_driver"`
		S3Bucket       string `yaml:"s3_bucket"`
		S3Region       string `yaml:"s3_region"`
		S3Endpoint     string `yaml:"s3_endpoint"`
		RedisURL       string `yaml:"redis_url"`
	} `yaml:"storage"`
	Auth struct {
		SessionSecret string `yaml:"session_secret"`
	} `yaml:"auth"`
	Rewrite struct {
		ProxyFiles      *bool  `yaml:"proxy_files"`
		AliasSettingKey string `yaml:"alias_setting_key"`
	} `yaml:"rewrite"`
}

// LoadConfig loads configuration from environment variables, then applies the
// YAML file named by INKWELL_CONFIG_FILE if set.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Auth:          loadAuthConfig(),
		Rewrite:       loadRewriteConfig(),
		Observability: loadObservabilityConfig(),
		Maintenance:   loadMaintenanceConfig(),
	}

	if path := getEnv("INKWELL_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("failed to apply config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("INKWELL_HOST", "0.0.0.0"),
		Port:            getEnv("INKWELL_PORT", "8080"),
		ReadTimeout:     getEnvDuration("INKWELL_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("INKWELL_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("INKWELL_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("INKWELL_SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxRequestBytes: getEnvInt64("INKWELL_MAX_REQUEST_BYTES", 32<<20),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if driver := getEnv("INKWELL_DATABASE_DRIVER", ""); driver != "" {
		cfg.DatabaseDriver = driver
	}
	if url := getEnv("INKWELL_DATABASE_URL", ""); url != "" {
		cfg.DatabaseURL = url
	}
	if maxConns := getEnvInt("INKWELL_DATABASE_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns := getEnvInt("INKWELL_DATABASE_MIN_CONNS", 0); minConns > 0 {
		cfg.MinConns = minConns
	}
	if timeout := getEnvDuration("INKWELL_DATABASE_TIMEOUT", 0); timeout > 0 {
		cfg.ConnectTimeout = timeout
	}

	if s3Endpoint := getEnv("INKWELL_S3_ENDPOINT", ""); s3Endpoint != "" {
		cfg.S3Endpoint = s3Endpoint
	}
	if s3Region := getEnv("INKWELL_S3_REGION", ""); s3Region != "" {
		cfg.S3Region = s3Region
	}
	if s3Bucket := getEnv("INKWELL_S3_BUCKET", ""); s3Bucket != "" {
		cfg.S3Bucket = s3Bucket
	}
	if s3AccessKey := getEnv("INKWELL_S3_ACCESS_KEY", ""); s3AccessKey != "" {
		cfg.S3AccessKey = s3AccessKey
	}
	if s3SecretKey := getEnv("INKWELL_S3_SECRET_KEY", ""); s3SecretKey != "" {
		cfg.S3SecretKey = s3SecretKey
	}
	if s3UsePathStyle := getEnv("INKWELL_S3_USE_PATH_STYLE", ""); s3UsePathStyle != "" {
		cfg.S3UsePathStyle = strings.ToLower(s3UsePathStyle) == "true"
	}

	if redisURL := getEnv("INKWELL_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("INKWELL_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("INKWELL_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("INKWELL_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("INKWELL_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	if cacheEnabled := getEnv("INKWELL_CACHE_ENABLED", ""); cacheEnabled != "" {
		cfg.CacheEnabled = strings.ToLower(cacheEnabled) == "true"
	}
	if ttl := getEnvDuration("INKWELL_SETTING_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL["setting"] = ttl
	}
	if ttl := getEnvDuration("INKWELL_SLUG_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL["slug"] = ttl
	}

	return cfg
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		SessionSecret: getEnv("INKWELL_SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("INKWELL_SESSION_TTL", 30*24*time.Hour),
	}
}

func loadRewriteConfig() RewriteConfig {
	return RewriteConfig{
		ProxyFiles:      getEnvBool("INKWELL_PROXY_FILES", true),
		AliasSettingKey: getEnv("INKWELL_ALIAS_SETTING_KEY", "articles_alias"),
		Timeout:         getEnvDuration("INKWELL_REWRITE_TIMEOUT", 2*time.Second),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("INKWELL_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("INKWELL_METRICS_ENABLED", true),
	}
}

func loadMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		Enabled:           getEnvBool("INKWELL_MAINTENANCE_ENABLED", true),
		Schedule:          getEnv("INKWELL_MAINTENANCE_SCHEDULE", "@hourly"),
		UploadGracePeriod: getEnvDuration("INKWELL_UPLOAD_GRACE_PERIOD", 24*time.Hour),
	}
}

// applyFile overlays values from a YAML file onto the config.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.Server.Host != "" {
		c.Server.Host = fc.Server.Host
	}
	if fc.Server.Port != "" {
		c.Server.Port = fc.Server.Port
	}
	if fc.Storage.DatabaseURL != "" {
		c.Storage.DatabaseURL = fc.Storage.DatabaseURL
	}
	if fc.Storage.DatabaseDriver != "" {
		c.Storage.DatabaseDriver = fc.Storage.DatabaseDriver
	}
	if fc.Storage.S3Bucket != "" {
		c.Storage.S3Bucket = fc.Storage.S3Bucket
	}
	if fc.Storage.S3Region != "" {
		c.Storage.S3Region = fc.Storage.S3Region
	}
	if fc.Storage.S3Endpoint != "" {
		c.Storage.S3Endpoint = fc.Storage.S3Endpoint
	}
	if fc.Storage.RedisURL != "" {
		c.Storage.RedisURL = fc.Storage.RedisURL
	}
	if fc.Auth.SessionSecret != "" {
		c.Auth.SessionSecret = fc.Auth.SessionSecret
	}
	if fc.Rewrite.ProxyFiles != nil {
		c.Rewrite.ProxyFiles = *fc.Rewrite.ProxyFiles
	}
	if fc.Rewrite.AliasSettingKey != "" {
		c.Rewrite.AliasSettingKey = fc.Rewrite.AliasSettingKey
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Storage.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite3 or postgres)", c.Storage.DatabaseDriver)
	}
	if c.Storage.DatabaseURL == "" {
		return fmt.Errorf("database URL is required")
	}

	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("session secret is required")
	}
	if len(c.Auth.SessionSecret) < 32 {
		return fmt.Errorf("session secret must be at least 32 characters")
	}

	if c.Maintenance.Enabled && c.Maintenance.Schedule == "" {
		return fmt.Errorf("maintenance schedule is required when maintenance is enabled")
	}

	return nil
}

// parseLogLevel parses a log level string.
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
