package testsupport

import (
	"context"
	"testing"

	"fiatrouter/internal/adapters/redis"
)

// NewRedisClient connects to the integration Redis and clears the test's
// keyspace before and after the test.
func NewRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()
	client, err := redis.NewClient(ctx, RedisConfigFromEnv(t))
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	if err := client.DeleteKeySpace(ctx); err != nil {
		t.Fatalf("failed to clean redis keyspace before test: %v", err)
	}

	t.Cleanup(func() {
		_ = client.DeleteKeySpace(context.Background())
		_ = client.Close()
	})

	return client
}
