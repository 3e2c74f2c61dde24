package provider

import (
	"context"
	"net/http"
	"testing"
	"time"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestFearGreedProviderFetch(t *testing.T) {
	t.Parallel()

	p := NewFearGreedProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(t, map[string]any{
				"data": []map[string]string{
					{"value": "71", "value_classification": "Greed"},
				},
			}), nil
		}),
	}

	payload, err := p.Fetch(context.Background(), "BTC", domain.NewStageContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	social := payload.(domain.SocialPayload)
	if social.SentimentScore != 71 {
		t.Fatalf("expected sentiment 71, got %f", social.SentimentScore)
	}
}

func TestFearGreedProviderOutOfRange(t *testing.T) {
	t.Parallel()

	p := NewFearGreedProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.client = &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(t, map[string]any{
				"data": []map[string]string{{"value": "180"}},
			}), nil
		}),
	}

	if _, err := p.Fetch(context.Background(), "BTC", domain.NewStageContext()); err == nil {
		t.Fatal("expected error for out-of-range index value")
	}
}

func TestRateLimiterBlocksWhenExhausted(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(1, time.Hour)
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("expected context error once tokens are exhausted")
	}
}
