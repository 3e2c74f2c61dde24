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

const lunarCrushBaseURL = "https://lunarcrush.com"

// LunarCrushProvider reports the galaxy score (0-100) and social interaction
// counts for a coin. Disabled when no API key is configured.
type LunarCrushProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
}

func NewLunarCrushProvider(tracer trace.Tracer, apiKey string) *LunarCrushProvider {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	return &LunarCrushProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: lunarCrushBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
	}
}

func (p *LunarCrushProvider) ID() string          { return "lunarcrush" }
func (p *LunarCrushProvider) Stage() domain.Stage { return domain.StageSocial }

func (p *LunarCrushProvider) Fetch(ctx context.Context, symbol string, _ domain.StageContext) (domain.Payload, error) {
	_, span := p.tracer.Start(ctx, "lunarcrush.fetch")
	defer span.End()

	url := fmt.Sprintf("%s/api4/public/coins/%s/v1",
		strings.TrimRight(p.baseURL, "/"), strings.ToUpper(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("lunarcrush API error %d: %s", resp.StatusCode, string(body))
	}

	var raw struct {
		Data struct {
			GalaxyScore    float64 `json:"galaxy_score"`
			Interactions24 float64 `json:"interactions_24h"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse lunarcrush payload: %w", err)
	}
	if raw.Data.GalaxyScore <= 0 {
		return nil, fmt.Errorf("lunarcrush returned empty galaxy score for %s", symbol)
	}

	return domain.SocialPayload{
		SentimentScore: raw.Data.GalaxyScore,
		Mentions:       int(raw.Data.Interactions24),
	}, nil
}
