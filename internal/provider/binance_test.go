package provider

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestBinanceProviderFetch(t *testing.T) {
	t.Parallel()

	p := NewBinanceProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if !strings.Contains(req.URL.RawQuery, "symbol=BTCUSDT") {
				t.Fatalf("unexpected query: %s", req.URL.RawQuery)
			}
			return jsonResponse(t, map[string]string{
				"lastPrice":          "96950.10",
				"quoteVolume":        "44000000000.5",
				"priceChangePercent": "2.41",
			}), nil
		}),
	}

	payload, err := p.Fetch(context.Background(), "BTC", domain.NewStageContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	market := payload.(domain.MarketPayload)
	if market.PriceUSD != 96950.10 {
		t.Fatalf("expected parsed price, got %f", market.PriceUSD)
	}
	if market.Change24hPct != 2.41 {
		t.Fatalf("expected parsed change, got %f", market.Change24hPct)
	}
}

func TestBinanceProviderBadPrice(t *testing.T) {
	t.Parallel()

	p := NewBinanceProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.client = &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(t, map[string]string{"lastPrice": "not-a-number"}), nil
		}),
	}

	if _, err := p.Fetch(context.Background(), "BTC", domain.NewStageContext()); err == nil {
		t.Fatal("expected error for unparseable price")
	}
}
