package analysis

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"fiatrouter/internal/adapters/redis"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
)

// Cache stores generated narratives so repeated analyses of the same token
// near the same price skip the language model.
type Cache interface {
	Get(ctx context.Context, query string) (string, bool)
	Set(ctx context.Context, query, text string)
}

// CacheConfig contains configuration for narrative caching
type CacheConfig struct {
	TTL            time.Duration
	PriceBucketPct float64 // 0.01 = prices within ~1% share an entry
}

// DefaultCacheConfig returns default configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:            3 * time.Minute,
		PriceBucketPct: 0.01,
	}
}

type cachedNarrative struct {
	Query     string    `json:"query"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisCache is a Cache on top of the Redis adapter
type RedisCache struct {
	config CacheConfig
	client *redis.Client
	log    *logger.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCache creates a narrative cache
func NewRedisCache(config CacheConfig, client *redis.Client) *RedisCache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig().TTL
	}
	if config.PriceBucketPct <= 0 {
		config.PriceBucketPct = DefaultCacheConfig().PriceBucketPct
	}
	return &RedisCache{
		config: config,
		client: client,
		log:    logger.Get().With("component", "analysis_cache"),
	}
}

// Get returns the cached narrative for query. Redis errors count as misses.
func (c *RedisCache) Get(ctx context.Context, query string) (string, bool) {
	var cached cachedNarrative
	err := c.client.Get(ctx, c.key(query), &cached)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			c.log.Warnw("Analysis cache read failed", "error", err)
		}
		c.misses.Add(1)
		return "", false
	}

	c.hits.Add(1)
	c.log.Debugw("Cache hit", "query", query, "age", time.Since(cached.Timestamp))
	return cached.Text, true
}

// Set stores text for query. Failures are logged only.
func (c *RedisCache) Set(ctx context.Context, query, text string) {
	entry := cachedNarrative{Query: query, Text: text, Timestamp: time.Now().UTC()}
	if err := c.client.Set(ctx, c.key(query), entry, c.config.TTL); err != nil {
		c.log.Warnw("Analysis cache write failed", "error", err)
	}
}

// Stats returns hit and miss counters
func (c *RedisCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *RedisCache) key(query string) string {
	hash := sha256.Sum256([]byte(NormalizeQuery(query, c.config.PriceBucketPct)))
	return c.client.Key("analysis", fmt.Sprintf("%x", hash[:8]))
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`)

// NormalizeQuery lower-cases query, collapses whitespace and replaces every
// number with its logarithmic price bucket, so "SOL at $150.02" and
// "SOL at $150.40" normalise identically.
func NormalizeQuery(query string, bucketPct float64) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return numberPattern.ReplaceAllStringFunc(q, func(num string) string {
		v, err := strconv.ParseFloat(num, 64)
		if err != nil || v <= 0 {
			return num
		}
		return "#" + strconv.FormatInt(int64(math.Floor(math.Log(v)/math.Log1p(bucketPct))), 10)
	})
}
