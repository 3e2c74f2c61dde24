package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Wire</title>
    <item>
      <title>Bitcoin breaks resistance as BTC funds see inflows</title>
      <link>http://example/a</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
    </item>
    <item>
      <title>Altcoin roundup</title>
      <link>http://example/b</link>
      <pubDate>Mon, 02 Jan 2006 16:04:05 -0700</pubDate>
    </item>
  </channel>
</rss>`

func TestRSSProviderFetch(t *testing.T) {
	t.Parallel()

	p := NewRSSProvider(trace.NewNoopTracerProvider().Tracer("test"), []string{"http://example/rss"})
	p.client = &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewReader([]byte(sampleFeed))),
				Header:     make(http.Header),
			}, nil
		}),
	}

	payload, err := p.Fetch(context.Background(), "BTC", domain.NewStageContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	news := payload.(domain.NewsPayload)

	// Only the BTC-relevant headline survives the symbol filter.
	if len(news.Items) != 1 {
		t.Fatalf("expected 1 filtered item, got %d: %+v", len(news.Items), news.Items)
	}
	item := news.Items[0]
	if item.Source != "Test Wire" {
		t.Fatalf("expected channel title as source, got %s", item.Source)
	}
	if item.PublishedAt.IsZero() {
		t.Fatal("expected parsed publish date")
	}
}

func TestRSSProviderAllFeedsFail(t *testing.T) {
	t.Parallel()

	p := NewRSSProvider(trace.NewNoopTracerProvider().Tracer("test"), []string{"http://example/rss"})
	p.client = &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusBadGateway,
				Body:       io.NopCloser(bytes.NewReader(nil)),
				Header:     make(http.Header),
			}, nil
		}),
	}

	if _, err := p.Fetch(context.Background(), "BTC", domain.NewStageContext()); err == nil {
		t.Fatal("expected error when every feed fails")
	}
}

func TestParseRSSDate(t *testing.T) {
	cases := []string{
		"Mon, 02 Jan 2006 15:04:05 -0700",
		"Mon, 02 Jan 2006 15:04:05 MST",
		"2006-01-02T15:04:05Z",
	}
	for _, v := range cases {
		if parseRSSDate(v).IsZero() {
			t.Fatalf("failed to parse %q", v)
		}
	}
	if !parseRSSDate("garbage").IsZero() {
		t.Fatal("expected zero time for unparseable date")
	}
}

func TestFilterBySymbol(t *testing.T) {
	items := []domain.NewsItem{
		{Title: "BTC rallies"},
		{Title: "bitcoin miners expand"},
		{Title: "stablecoin regulation news"},
	}
	filtered := filterBySymbol(items, "BTC")
	if len(filtered) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(filtered))
	}
}
