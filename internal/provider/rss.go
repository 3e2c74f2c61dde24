package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const rssItemLimit = 40

// RSSProvider aggregates headlines from a set of crypto news feeds into a
// single news payload.
type RSSProvider struct {
	client *http.Client
	feeds  []string
	tracer trace.Tracer
}

func NewRSSProvider(tracer trace.Tracer, feeds []string) *RSSProvider {
	if len(feeds) == 0 {
		feeds = []string{
			"https://www.coindesk.com/arc/outboundfeeds/rss/",
			"https://cointelegraph.com/rss",
		}
	}
	return &RSSProvider{
		client: &http.Client{Timeout: 20 * time.Second},
		feeds:  feeds,
		tracer: tracer,
	}
}

func (p *RSSProvider) ID() string          { return "rss" }
func (p *RSSProvider) Stage() domain.Stage { return domain.StageNews }

func (p *RSSProvider) Fetch(ctx context.Context, symbol string, _ domain.StageContext) (domain.Payload, error) {
	_, span := p.tracer.Start(ctx, "rss.fetch")
	defer span.End()

	items := make([]domain.NewsItem, 0, rssItemLimit)
	var lastErr error
	for _, feed := range p.feeds {
		rows, err := p.fetchFeed(ctx, feed)
		if err != nil {
			lastErr = err
			continue
		}
		items = append(items, rows...)
	}
	if len(items) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("all feeds failed, last: %w", lastErr)
		}
		return nil, fmt.Errorf("feeds returned no items")
	}

	filtered := filterBySymbol(items, symbol)
	if len(filtered) > 0 {
		items = filtered
	}
	if len(items) > rssItemLimit {
		items = items[:rssItemLimit]
	}
	return domain.NewsPayload{Items: items}, nil
}

func (p *RSSProvider) fetchFeed(ctx context.Context, feedURL string) ([]domain.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rss fetch error %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var rss struct {
		Channel struct {
			Title string `xml:"title"`
			Items []struct {
				Title   string `xml:"title"`
				Link    string `xml:"link"`
				PubDate string `xml:"pubDate"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal(body, &rss); err != nil {
		return nil, fmt.Errorf("decode rss payload: %w", err)
	}

	source := strings.TrimSpace(rss.Channel.Title)
	if source == "" {
		source = feedURL
	}

	items := make([]domain.NewsItem, 0, len(rss.Channel.Items))
	for i, row := range rss.Channel.Items {
		if i >= rssItemLimit {
			break
		}
		title := strings.TrimSpace(row.Title)
		if title == "" {
			continue
		}
		items = append(items, domain.NewsItem{
			Title:       title,
			Source:      source,
			URL:         strings.TrimSpace(row.Link),
			PublishedAt: parseRSSDate(row.PubDate),
		})
	}
	return items, nil
}

// parseRSSDate tries the handful of formats feeds actually use.
func parseRSSDate(v string) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// filterBySymbol keeps headlines that mention the symbol or its common name.
func filterBySymbol(items []domain.NewsItem, symbol string) []domain.NewsItem {
	symbol = strings.ToUpper(symbol)
	name := domain.CoinGeckoID[symbol]
	out := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		title := strings.ToLower(item.Title)
		if strings.Contains(strings.ToUpper(item.Title), symbol) ||
			(name != "" && strings.Contains(title, name)) {
			out = append(out, item)
		}
	}
	return out
}
