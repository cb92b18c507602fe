//go:build integration

package collector

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/gbiz-collector/internal/testutil"
	"github.com/Sternrassler/gbiz-collector/pkg/cache"
	"github.com/Sternrassler/gbiz-collector/pkg/client"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start Redis container")

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err, "Redis endpoint")

	redisClient := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() {
		redisClient.Close()
		container.Terminate(context.Background())
	})

	return redisClient
}

// TestHydrate_CachedRerun runs the full flow twice: pacing, cache lookup,
// upstream fetch and cache update on the first pass, then a rerun into a
// fresh output that is served entirely from Redis.
func TestHydrate_CachedRerun(t *testing.T) {
	redisClient := setupRedis(t)

	fake := testutil.NewFakeGBiz(testToken)
	defer fake.Close()
	fake.AddCorporations("13", testutil.Corporations(firstNumber, 4)...)
	fake.FailDetail(number(1), 500)

	cfg := client.DefaultConfig(testToken)
	cfg.BaseURL = fake.URL()
	cfg.Interval = 10 * time.Millisecond
	cfg.Cache = cache.NewManager(redisClient)
	cfg.CacheTTL = time.Minute

	c, err := client.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	col := New(c, zerolog.Nop())
	dir := t.TempDir()
	ctx := context.Background()

	list := filepath.Join(dir, "list.csv")
	_, err = col.Dump(ctx, DumpOptions{Filter: tokyoFilter(10), Out: list})
	require.NoError(t, err)

	first, err := col.Hydrate(ctx, HydrateOptions{In: list, Out: filepath.Join(dir, "first.csv")})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Snapshot.Added)
	assert.Equal(t, 1, first.Snapshot.Errors)
	assert.Len(t, fake.GetDetailRequests(), 4)

	fake.Reset()
	second, err := col.Hydrate(ctx, HydrateOptions{In: list, Out: filepath.Join(dir, "second.csv")})
	require.NoError(t, err)
	assert.Equal(t, 3, second.Snapshot.Added)
	assert.Equal(t, 1, second.Snapshot.Errors)

	// Only the failed number goes upstream again; failures are never cached.
	assert.Equal(t, []string{number(1)}, fake.GetDetailRequests())
	assert.Equal(t, readKeys(t, filepath.Join(dir, "first.csv")), readKeys(t, filepath.Join(dir, "second.csv")))
}
