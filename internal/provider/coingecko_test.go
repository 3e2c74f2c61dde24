package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(t *testing.T, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
	}
}

func TestCoinGeckoProviderFetch(t *testing.T) {
	t.Parallel()

	p := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if !strings.Contains(req.URL.Path, "/simple/price") {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			if !strings.Contains(req.URL.RawQuery, "ids=bitcoin") {
				t.Fatalf("unexpected query: %s", req.URL.RawQuery)
			}
			return jsonResponse(t, map[string]map[string]float64{
				"bitcoin": {"usd": 97000, "usd_24h_vol": 4.5e10, "usd_24h_change": 2.34},
			}), nil
		}),
	}
	p.limiter = NewRateLimiter(10, time.Millisecond)

	payload, err := p.Fetch(context.Background(), "BTC", domain.NewStageContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	market, ok := payload.(domain.MarketPayload)
	if !ok {
		t.Fatalf("expected market payload, got %T", payload)
	}
	if market.PriceUSD != 97000 || market.Volume24h != 4.5e10 || market.Change24hPct != 2.34 {
		t.Fatalf("unexpected payload values: %+v", market)
	}
	if market.Category() != domain.StageMarket {
		t.Fatalf("unexpected category: %s", market.Category())
	}
}

func TestCoinGeckoProviderUnsupportedSymbol(t *testing.T) {
	t.Parallel()

	p := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	if _, err := p.Fetch(context.Background(), "DOGE2", domain.NewStageContext()); err == nil {
		t.Fatal("expected error for unsupported symbol")
	}
}

func TestCoinGeckoProviderRejectsNonPositivePrice(t *testing.T) {
	t.Parallel()

	p := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.client = &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(t, map[string]map[string]float64{
				"bitcoin": {"usd": 0},
			}), nil
		}),
	}
	p.limiter = NewRateLimiter(10, time.Millisecond)

	if _, err := p.Fetch(context.Background(), "BTC", domain.NewStageContext()); err == nil {
		t.Fatal("expected error for non-positive price")
	}
}
