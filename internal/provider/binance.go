package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const binanceBaseURL = "https://api.binance.com"

// BinanceProvider reports 24h ticker statistics from the Binance public API.
type BinanceProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewBinanceProvider(tracer trace.Tracer) *BinanceProvider {
	return &BinanceProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: binanceBaseURL,
		tracer:  tracer,
	}
}

func (p *BinanceProvider) ID() string          { return "binance" }
func (p *BinanceProvider) Stage() domain.Stage { return domain.StageMarket }

func (p *BinanceProvider) Fetch(ctx context.Context, symbol string, _ domain.StageContext) (domain.Payload, error) {
	_, span := p.tracer.Start(ctx, "binance.fetch")
	defer span.End()

	if !domain.IsSupportedSymbol(symbol) {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	pair := strings.ToUpper(symbol) + "USDT"
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", strings.TrimRight(p.baseURL, "/"), pair)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("binance API error %d: %s", resp.StatusCode, string(body))
	}

	// Binance encodes all numerics as strings.
	var raw struct {
		LastPrice          string `json:"lastPrice"`
		QuoteVolume        string `json:"quoteVolume"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse binance payload: %w", err)
	}

	price, err := strconv.ParseFloat(raw.LastPrice, 64)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("binance returned bad price %q for %s", raw.LastPrice, pair)
	}
	volume, _ := strconv.ParseFloat(raw.QuoteVolume, 64)
	change, _ := strconv.ParseFloat(raw.PriceChangePercent, 64)

	return domain.MarketPayload{
		PriceUSD:     price,
		Volume24h:    volume,
		Change24hPct: change,
	}, nil
}
