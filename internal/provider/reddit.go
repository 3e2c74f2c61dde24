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

const (
	redditBaseURL   = "https://www.reddit.com"
	defaultRedditUA = "sovereign-veritas/1.0 (data validation pipeline)"
	redditPostLimit = 40
)

// subredditForSymbol routes a symbol to its community.
var subredditForSymbol = map[string]string{
	"BTC": "Bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
	"ADA": "cardano",
	"XRP": "Ripple",
}

// RedditProvider derives a coarse sentiment score from hot-post upvote
// ratios and hands the raw titles along so the validator can run its own
// classification pass over them.
type RedditProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
	tracer    trace.Tracer
}

func NewRedditProvider(tracer trace.Tracer) *RedditProvider {
	return &RedditProvider{
		client:    &http.Client{Timeout: 20 * time.Second},
		baseURL:   redditBaseURL,
		userAgent: defaultRedditUA,
		tracer:    tracer,
	}
}

func (p *RedditProvider) ID() string          { return "reddit" }
func (p *RedditProvider) Stage() domain.Stage { return domain.StageSocial }

func (p *RedditProvider) Fetch(ctx context.Context, symbol string, _ domain.StageContext) (domain.Payload, error) {
	_, span := p.tracer.Start(ctx, "reddit.fetch")
	defer span.End()

	subreddit, ok := subredditForSymbol[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("no subreddit mapped for symbol %s", symbol)
	}

	base := strings.TrimRight(p.baseURL, "/")
	u := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", base, url.PathEscape(subreddit), redditPostLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reddit API error %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data struct {
			Children []struct {
				Data struct {
					Title       string  `json:"title"`
					UpvoteRatio float64 `json:"upvote_ratio"`
					Stickied    bool    `json:"stickied"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode reddit payload: %w", err)
	}

	titles := make([]string, 0, len(payload.Data.Children))
	ratioSum := 0.0
	for _, child := range payload.Data.Children {
		if child.Data.Stickied {
			continue
		}
		title := strings.TrimSpace(child.Data.Title)
		if title == "" {
			continue
		}
		titles = append(titles, title)
		ratioSum += child.Data.UpvoteRatio
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("reddit returned no usable posts for r/%s", subreddit)
	}

	// Mean upvote ratio sits in [0,1]; stretch it onto the 0-100 scale.
	sentiment := ratioSum / float64(len(titles)) * 100

	return domain.SocialPayload{
		SentimentScore: sentiment,
		Mentions:       len(titles),
		Texts:          titles,
	}, nil
}
