package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/kilianp07/killchain/core/model"
)

// Config configures Redis access for the schedule cache.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	KeyPrefix  string `json:"key_prefix"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// SetDefaults fills address, prefix and TTL.
func (c *Config) SetDefaults() {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(c.KeyPrefix) == "" {
		c.KeyPrefix = "killchain:schedule"
	}
	if c.TTLSeconds == 0 {
		c.TTLSeconds = 24 * 3600
	}
}

// Validate checks the TTL.
func (c Config) Validate() error {
	if c.TTLSeconds < 0 {
		return fmt.Errorf("cache ttl_seconds must not be negative")
	}
	return nil
}

type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache stores schedules as JSON strings with a TTL.
type RedisCache struct {
	client kv
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	cfg.SetDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis schedule cache: %w", err)
	}
	return newRedisCache(client, cfg), nil
}

func newRedisCache(client kv, cfg Config) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: strings.TrimSpace(cfg.KeyPrefix),
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}
}

func (c *RedisCache) key(k string) string { return c.prefix + ":" + k }

// Get returns the cached schedule for key, if any.
func (c *RedisCache) Get(ctx context.Context, key string) (model.Schedule, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Schedule{}, false, nil
	}
	if err != nil {
		return model.Schedule{}, false, fmt.Errorf("get cached schedule: %w", err)
	}
	var s model.Schedule
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Schedule{}, false, fmt.Errorf("decode cached schedule: %w", err)
	}
	return s, true, nil
}

// Put stores the schedule under key.
func (c *RedisCache) Put(ctx context.Context, key string, s model.Schedule) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(key), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("store cached schedule: %w", err)
	}
	return nil
}
