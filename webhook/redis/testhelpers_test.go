//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/marcelsud/webhook-viewer/webhook"
	"github.com/marcelsud/webhook-viewer/webhook/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

/* Test Helpers for Redis Integration Tests
 * Following the pattern from: https://eltonminetto.dev/post/2024-02-15-using-test-helpers/
 */

// RedisContainer holds the Redis testcontainer and connection details
type RedisContainer struct {
	Container *testcontainersredis.RedisContainer
	URL       string
}

// SetupRedisContainer creates and starts a Redis testcontainer
func SetupRedisContainer(t *testing.T, ctx context.Context) (*RedisContainer, func()) {
	t.Helper()

	redisContainer, err := testcontainersredis.Run(ctx,
		"redis:7-alpine",
		testcontainersredis.WithLogLevel(testcontainersredis.LogLevelVerbose),
	)
	require.NoError(t, err, "failed to start Redis container")

	url, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err, "failed to get Redis connection string")

	rc := &RedisContainer{
		Container: redisContainer,
		URL:       url,
	}

	cleanup := func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	}

	return rc, cleanup
}

// CreateTestRepository creates a Redis repository connected to the test container
func CreateTestRepository(t *testing.T, url string) *redis.Repository {
	t.Helper()

	repo, err := redis.NewRepository(redis.Config{URL: url}, zerolog.Nop())
	require.NoError(t, err, "failed to create Redis repository")

	return repo
}

// NewRecord builds a record arriving at the given offset from base
func NewRecord(t *testing.T, index int, base time.Time) webhook.Record {
	t.Helper()
	return webhook.Record{
		ID:        fmt.Sprintf("test-webhook-%d-%d", index, base.UnixNano()),
		Method:    "POST",
		URL:       "/api/webhook",
		Headers:   map[string]string{"Content-Type": "application/json"},
		Body:      []byte(fmt.Sprintf(`{"index":%d}`, index)),
		Timestamp: base.Add(time.Duration(index) * time.Millisecond),
	}
}

// GetKeyTTL returns the TTL of a Redis key
func GetKeyTTL(t *testing.T, url string, key string) time.Duration {
	t.Helper()

	client := createRedisClient(t, url)
	defer client.Close()

	ttl, err := client.TTL(context.Background(), key).Result()
	require.NoError(t, err)

	return ttl
}

// KeyExists checks if a Redis key exists
func KeyExists(t *testing.T, url string, key string) bool {
	t.Helper()

	client := createRedisClient(t, url)
	defer client.Close()

	exists, err := client.Exists(context.Background(), key).Result()
	require.NoError(t, err)

	return exists > 0
}

// TimelineMembers returns the ids in the timeline index
func TimelineMembers(t *testing.T, url string) []string {
	t.Helper()

	client := createRedisClient(t, url)
	defer client.Close()

	members, err := client.ZRange(context.Background(), "webhooks:timeline", 0, -1).Result()
	require.NoError(t, err)

	return members
}

// SetRaw writes a raw value under a record key, bypassing the repository
func SetRaw(t *testing.T, url string, id string, value string, score float64) {
	t.Helper()

	client := createRedisClient(t, url)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "webhook:"+id, value, time.Hour).Err())
	require.NoError(t, client.ZAdd(ctx, "webhooks:timeline", goredis.Z{Score: score, Member: id}).Err())
}

// createRedisClient creates a direct Redis client for testing helpers
func createRedisClient(t *testing.T, url string) *goredis.Client {
	t.Helper()

	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)

	return goredis.NewClient(opts)
}

// goredisZ builds a timeline entry for an arbitrary member
func goredisZ(member string, at time.Time) goredis.Z {
	return goredis.Z{Score: float64(at.UnixMilli()), Member: member}
}
