package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sovereign-veritas/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when no cached run exists for a symbol.
var ErrMiss = errors.New("cache miss")

// ResultCache keeps the latest orchestration result per symbol behind a short
// TTL so bursts of identical validation requests hit the providers once.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

func resultKey(symbol string) string {
	return fmt.Sprintf("veritas:run:%s", symbol)
}

func (c *ResultCache) Get(ctx context.Context, symbol string) (domain.OrchestrationResult, error) {
	var res domain.OrchestrationResult
	if c == nil || c.client == nil {
		return res, ErrMiss
	}

	raw, err := c.client.Get(ctx, resultKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return res, ErrMiss
	}
	if err != nil {
		return res, err
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return res, err
	}
	return res, nil
}

func (c *ResultCache) Set(ctx context.Context, res domain.OrchestrationResult) error {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, resultKey(res.Symbol), raw, c.ttl).Err()
}
