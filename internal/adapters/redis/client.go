package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fiatrouter/internal/adapters/config"
	"fiatrouter/pkg/errors"
)

// Client wraps the Redis client and namespaces every key under a keyspace
type Client struct {
	rdb      *redis.Client
	keySpace string
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(errors.ErrUnavailable, "redis ping %s: %v", cfg.Addr(), err)
	}

	return NewFromRedis(rdb, cfg.KeySpace), nil
}

// NewFromRedis wraps an existing connection
func NewFromRedis(rdb *redis.Client, keySpace string) *Client {
	if keySpace == "" {
		keySpace = "fiatrouter"
	}
	return &Client{rdb: rdb, keySpace: keySpace}
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.rdb
}

// Key joins parts under the client's keyspace: "<keyspace>:a:b"
func (c *Client) Key(parts ...string) string {
	return c.keySpace + ":" + strings.Join(parts, ":")
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks Redis connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Set stores a JSON-encoded value with optional TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "marshal redis value")
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Get decodes a JSON value into dest. A missing key returns ErrNotFound.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return errors.Wrapf(errors.ErrNotFound, "redis key %s", key)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete deletes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// DeleteKeySpace removes every key under the keyspace. Used by tests.
func (c *Client) DeleteKeySpace(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.keySpace+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
