package cache

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Client is the process-wide Redis handle. It stays nil until InitRedis
// succeeds; ResultCache tolerates a nil client and degrades to pass-through.
var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

func InitRedis(ctx context.Context) {
	opts, err := redisOptions(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("failed to parse REDIS_URL: %v", err)
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		log.Fatalf("failed to connect to Redis at %s: %v", opts.Addr, err)
	}
	Client = client
	log.Printf("Connected to Redis at %s", opts.Addr)
}

// redisOptions accepts both bare host:port addresses and redis:// URLs.
func redisOptions(addr string) (*redis.Options, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		return parseRedisURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}
