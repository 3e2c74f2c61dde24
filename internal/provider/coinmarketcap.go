package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coinMarketCapBaseURL = "https://pro-api.coinmarketcap.com"

// CoinMarketCapProvider reports quotes from the CoinMarketCap pro API.
// Disabled (returns nil from the constructor) when no API key is configured.
type CoinMarketCapProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

func NewCoinMarketCapProvider(tracer trace.Tracer, apiKey string) *CoinMarketCapProvider {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	return &CoinMarketCapProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: coinMarketCapBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: NewRateLimiter(30, 2 * time.Second),
	}
}

func (p *CoinMarketCapProvider) ID() string          { return "coinmarketcap" }
func (p *CoinMarketCapProvider) Stage() domain.Stage { return domain.StageMarket }

func (p *CoinMarketCapProvider) Fetch(ctx context.Context, symbol string, _ domain.StageContext) (domain.Payload, error) {
	_, span := p.tracer.Start(ctx, "coinmarketcap.fetch")
	defer span.End()

	if !domain.IsSupportedSymbol(symbol) {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	url := fmt.Sprintf("%s/v1/cryptocurrency/quotes/latest?symbol=%s",
		strings.TrimRight(p.baseURL, "/"), strings.ToUpper(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coinmarketcap API error %d: %s", resp.StatusCode, string(body))
	}

	var raw struct {
		Data map[string]struct {
			Quote struct {
				USD struct {
					Price            float64 `json:"price"`
					Volume24h        float64 `json:"volume_24h"`
					PercentChange24h float64 `json:"percent_change_24h"`
				} `json:"USD"`
			} `json:"quote"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse coinmarketcap payload: %w", err)
	}

	entry, ok := raw.Data[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("coinmarketcap payload missing %s", symbol)
	}
	if entry.Quote.USD.Price <= 0 {
		return nil, fmt.Errorf("coinmarketcap returned non-positive price for %s", symbol)
	}

	return domain.MarketPayload{
		PriceUSD:     entry.Quote.USD.Price,
		Volume24h:    entry.Quote.USD.Volume24h,
		Change24hPct: entry.Quote.USD.PercentChange24h,
	}, nil
}
