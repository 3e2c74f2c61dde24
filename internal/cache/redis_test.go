package cache

import (
	"context"
	"errors"
	"testing"

	"sovereign-veritas/internal/domain"

	"github.com/redis/go-redis/v9"
)

func TestInitRedisWithCustomAddr(t *testing.T) {
	t.Setenv("REDIS_URL", "redis:9999")

	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
		Client = nil
	})

	var capturedAddr string
	newRedisClient = func(opts *redis.Options) *redis.Client {
		capturedAddr = opts.Addr
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return nil
	}

	InitRedis(context.Background())
	if capturedAddr != "redis:9999" {
		t.Fatalf("expected custom addr, got %s", capturedAddr)
	}
}

func TestInitRedisDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "")

	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
		Client = nil
	})

	var capturedAddr string
	newRedisClient = func(opts *redis.Options) *redis.Client {
		capturedAddr = opts.Addr
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return nil
	}

	InitRedis(context.Background())
	if capturedAddr != "localhost:6379" {
		t.Fatalf("expected default addr, got %s", capturedAddr)
	}
}

func TestResultCacheWithoutClient(t *testing.T) {
	c := NewResultCache(nil, 0)

	if _, err := c.Get(context.Background(), "BTC"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss without client, got %v", err)
	}
	if err := c.Set(context.Background(), domain.OrchestrationResult{Symbol: "BTC"}); err != nil {
		t.Fatalf("set without client must be a no-op, got %v", err)
	}
}

func TestResultKey(t *testing.T) {
	if got := resultKey("BTC"); got != "veritas:run:BTC" {
		t.Fatalf("unexpected key: %s", got)
	}
}
