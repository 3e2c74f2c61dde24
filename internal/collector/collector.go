package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sovereign-veritas/internal/domain"
	"sovereign-veritas/internal/provider"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoProviders indicates a stage was requested with zero providers
// registered for it. This is a configuration mistake, not a runtime data
// condition, and is the only error Collect returns.
var ErrNoProviders = errors.New("no providers configured for stage")

const defaultProviderTimeout = 8 * time.Second

// Collector fans a stage's providers out concurrently and normalizes every
// outcome, success or not, into a DataSourceResult. Provider failures and
// timeouts are data, never control flow.
type Collector struct {
	tracer    trace.Tracer
	providers map[domain.Stage][]provider.Provider
	timeout   time.Duration
}

// New groups providers by their stage. Nil providers are skipped so callers
// can pass constructors that disable themselves when unconfigured.
func New(tracer trace.Tracer, providerTimeout time.Duration, providers ...provider.Provider) *Collector {
	if providerTimeout <= 0 {
		providerTimeout = defaultProviderTimeout
	}
	byStage := make(map[domain.Stage][]provider.Provider)
	for _, p := range providers {
		if p == nil {
			continue
		}
		byStage[p.Stage()] = append(byStage[p.Stage()], p)
	}
	return &Collector{
		tracer:    tracer,
		providers: byStage,
		timeout:   providerTimeout,
	}
}

// Providers reports how many providers are registered for a stage.
func (c *Collector) Providers(stage domain.Stage) int {
	return len(c.providers[stage])
}

// Collect invokes every provider for the stage in parallel, each bounded by
// the per-provider timeout, and returns one result per provider in
// registration order regardless of individual success or failure.
func (c *Collector) Collect(ctx context.Context, stage domain.Stage, symbol string, prior domain.StageContext) ([]domain.DataSourceResult, error) {
	ctx, span := c.tracer.Start(ctx, "collector.collect")
	defer span.End()
	span.SetAttributes(attribute.String("stage", string(stage)), attribute.String("symbol", symbol))

	list := c.providers[stage]
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoProviders, stage)
	}

	results := make([]domain.DataSourceResult, len(list))
	var wg sync.WaitGroup
	for i, p := range list {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			results[i] = c.fetchOne(ctx, p, stage, symbol, prior)
		}(i, p)
	}
	wg.Wait()

	return results, nil
}

func (c *Collector) fetchOne(ctx context.Context, p provider.Provider, stage domain.Stage, symbol string, prior domain.StageContext) domain.DataSourceResult {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	payload, err := p.Fetch(fetchCtx, symbol, prior)
	latency := time.Since(start).Milliseconds()

	result := domain.DataSourceResult{
		Category:   stage,
		ProviderID: p.ID(),
		FetchedAt:  start.UTC(),
		LatencyMs:  latency,
	}

	switch {
	case err == nil && payload != nil:
		result.Status = domain.StatusOk
		result.Payload = payload
	case errors.Is(err, context.DeadlineExceeded) || fetchCtx.Err() != nil:
		result.Status = domain.StatusTimedOut
		result.Err = "provider call exceeded timeout"
	default:
		result.Status = domain.StatusFailed
		if err != nil {
			result.Err = err.Error()
		} else {
			result.Err = "provider returned empty payload"
		}
	}
	return result
}
