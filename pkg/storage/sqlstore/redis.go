package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// RedisClient caches settings and anonymous slug resolutions. Cache writes
// are best effort; cache invalidation happens on every setting and slug
// mutation so reads never serve stale configuration.
type RedisClient struct {
	client *redis.Client
	ttl    map[string]time.Duration
}

// NewRedisClient creates a new redis cache client.
func NewRedisClient(cfg storage.Config) (*RedisClient, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB >= 0 {
		opts.DB = cfg.RedisDB
	}
	if cfg.RedisMaxRetries > 0 {
		opts.MaxRetries = cfg.RedisMaxRetries
	}
	if cfg.RedisPoolSize > 0 {
		opts.PoolSize = cfg.RedisPoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl == nil {
		ttl = storage.DefaultConfig().CacheTTL
	}

	return &RedisClient{
		client: client,
		ttl:    ttl,
	}, nil
}

// GetSetting retrieves a setting from cache. The second return reports a hit.
func (c *RedisClient) GetSetting(ctx context.Context, key string) (*content.Setting, bool) {
	data, err := c.client.Get(ctx, settingKey(key)).Result()
	if err != nil {
		return nil, false
	}

	var setting content.Setting
	if err := json.Unmarshal([]byte(data), &setting); err != nil {
		// Corrupt entry, drop it.
		c.client.Del(ctx, settingKey(key))
		return nil, false
	}
	return &setting, true
}

// SetSetting stores a setting in cache.
func (c *RedisClient) SetSetting(ctx context.Context, setting *content.Setting) {
	data, err := json.Marshal(setting)
	if err != nil {
		return
	}
	c.client.Set(ctx, settingKey(setting.Key), data, c.ttl["setting"])
}

// InvalidateSetting removes a setting from cache.
func (c *RedisClient) InvalidateSetting(ctx context.Context, key string) {
	c.client.Del(ctx, settingKey(key))
}

// GetSlug retrieves a cached anonymous slug resolution.
func (c *RedisClient) GetSlug(ctx context.Context, slug string) (int64, bool) {
	data, err := c.client.Get(ctx, slugKey(slug)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		c.client.Del(ctx, slugKey(slug))
		return 0, false
	}
	return id, true
}

// SetSlug caches an anonymous slug resolution.
func (c *RedisClient) SetSlug(ctx context.Context, slug string, id int64) {
	c.client.Set(ctx, slugKey(slug), strconv.FormatInt(id, 10), c.ttl["slug"])
}

// InvalidateSlug removes a cached slug resolution.
func (c *RedisClient) InvalidateSlug(ctx context.Context, slug string) {
	c.client.Del(ctx, slugKey(slug))
}

// Ping checks redis connectivity.
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}

func settingKey(key string) string {
	return "setting:" + key
}

func slugKey(slug string) string {
	return "slug:" + slug
}
