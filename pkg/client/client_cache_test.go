package client

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/gbiz-collector/internal/testutil"
	"github.com/Sternrassler/gbiz-collector/pkg/cache"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis on DB 15 or skips the test.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestDetail_CacheHit(t *testing.T) {
	redisClient := setupTestRedis(t)

	fake := testutil.NewFakeGBiz(testToken)
	defer fake.Close()
	recs := testutil.Corporations(3000000000000, 1)
	fake.AddCorporations("27", recs...)

	cfg := DefaultConfig(testToken)
	cfg.BaseURL = fake.URL()
	cfg.Interval = 0
	cfg.Cache = cache.NewManager(redisClient)
	cfg.CacheTTL = time.Minute

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		d, err := c.Detail(ctx, recs[0].CorporateNumber)
		if err != nil {
			t.Fatalf("Detail() #%d error = %v", i, err)
		}
		if d.PrefectureCode != "27" {
			t.Errorf("PrefectureCode = %q, want 27", d.PrefectureCode)
		}
	}

	if got := len(fake.GetDetailRequests()); got != 1 {
		t.Errorf("detail requests = %d, want 1 (rest served from cache)", got)
	}
}

func TestDetail_FailuresNotCached(t *testing.T) {
	redisClient := setupTestRedis(t)

	fake := testutil.NewFakeGBiz(testToken)
	defer fake.Close()
	fake.FailDetail("1111111111111", 500)

	cfg := DefaultConfig(testToken)
	cfg.BaseURL = fake.URL()
	cfg.Interval = 0
	cfg.Cache = cache.NewManager(redisClient)

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := c.Detail(ctx, "1111111111111"); err == nil {
			t.Fatal("Detail() should fail")
		}
	}
	if got := len(fake.GetDetailRequests()); got != 2 {
		t.Errorf("detail requests = %d, want 2", got)
	}
}
