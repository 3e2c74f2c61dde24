package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const newsAPIBaseURL = "https://newsapi.org"

// NewsAPIProvider reports recent articles from newsapi.org. Disabled when no
// API key is configured.
type NewsAPIProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

func NewNewsAPIProvider(tracer trace.Tracer, apiKey string) *NewsAPIProvider {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	return &NewsAPIProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: newsAPIBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: NewRateLimiter(10, 6 * time.Second),
	}
}

func (p *NewsAPIProvider) ID() string          { return "newsapi" }
func (p *NewsAPIProvider) Stage() domain.Stage { return domain.StageNews }

func (p *NewsAPIProvider) Fetch(ctx context.Context, symbol string, _ domain.StageContext) (domain.Payload, error) {
	_, span := p.tracer.Start(ctx, "newsapi.fetch")
	defer span.End()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	query := strings.ToUpper(symbol)
	if name, ok := domain.CoinGeckoID[query]; ok {
		query = name
	}

	u := fmt.Sprintf("%s/v2/everything?q=%s&sortBy=publishedAt&pageSize=%d",
		strings.TrimRight(p.baseURL, "/"), url.QueryEscape(query), rssItemLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("newsapi error %d: %s", resp.StatusCode, string(body))
	}

	var raw struct {
		Articles []struct {
			Title  string `json:"title"`
			URL    string `json:"url"`
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode newsapi payload: %w", err)
	}
	if len(raw.Articles) == 0 {
		return nil, fmt.Errorf("newsapi returned no articles for %s", symbol)
	}

	items := make([]domain.NewsItem, 0, len(raw.Articles))
	for _, a := range raw.Articles {
		title := strings.TrimSpace(a.Title)
		if title == "" {
			continue
		}
		items = append(items, domain.NewsItem{
			Title:       title,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt.UTC(),
		})
	}
	return domain.NewsPayload{Items: items}, nil
}
