package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string
	APIKey           string
	HTTPPort         int

	PriceWarnPct      float64
	PriceFatalPct     float64
	VolumeWarnPct     float64
	ArbitragePct      float64
	SentimentMismatch float64
	MinOverallScore   float64

	GlobalTimeoutSecs   int
	ProviderTimeoutSecs int
	ValidationPollSecs  int
	RunRetentionDays    int
	ValidationCacheSecs int
	RSSFeeds            []string
	CoinMarketCapAPIKey string
	LunarCrushAPIKey    string
	NewsAPIKey          string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int

	OpenAIAPIKey string
	OpenAIModel  string
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		APIKey:              os.Getenv("API_KEY"),
		MCPAuthToken:        os.Getenv("MCP_AUTH_TOKEN"),
		CoinMarketCapAPIKey: os.Getenv("COINMARKETCAP_API_KEY"),
		LunarCrushAPIKey:    os.Getenv("LUNARCRUSH_API_KEY"),
		NewsAPIKey:          os.Getenv("NEWSAPI_API_KEY"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, alerts will be disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, API endpoints are unauthenticated")
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	cfg.PriceWarnPct = 1.5
	if v := strings.TrimSpace(os.Getenv("VERITAS_PRICE_WARN_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.PriceWarnPct = n
		}
	}

	cfg.PriceFatalPct = 10
	if v := strings.TrimSpace(os.Getenv("VERITAS_PRICE_FATAL_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.PriceFatalPct = n
		}
	}

	cfg.VolumeWarnPct = 10
	if v := strings.TrimSpace(os.Getenv("VERITAS_VOLUME_WARN_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.VolumeWarnPct = n
		}
	}

	cfg.ArbitragePct = 2
	if v := strings.TrimSpace(os.Getenv("VERITAS_ARBITRAGE_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.ArbitragePct = n
		}
	}

	cfg.SentimentMismatch = 30
	if v := strings.TrimSpace(os.Getenv("VERITAS_SENTIMENT_MISMATCH")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.SentimentMismatch = n
		}
	}

	cfg.MinOverallScore = 70
	if v := strings.TrimSpace(os.Getenv("VERITAS_MIN_OVERALL_SCORE")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 100 {
			cfg.MinOverallScore = n
		}
	}

	cfg.GlobalTimeoutSecs = 15
	if v := strings.TrimSpace(os.Getenv("ORCH_GLOBAL_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GlobalTimeoutSecs = n
		}
	}

	cfg.ProviderTimeoutSecs = 8
	if v := strings.TrimSpace(os.Getenv("COLLECTOR_PROVIDER_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ProviderTimeoutSecs = n
		}
	}

	cfg.ValidationPollSecs = 900
	if v := strings.TrimSpace(os.Getenv("VALIDATION_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ValidationPollSecs = n
		}
	}

	cfg.RunRetentionDays = 30
	if v := strings.TrimSpace(os.Getenv("RUN_RETENTION_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RunRetentionDays = n
		}
	}

	cfg.ValidationCacheSecs = 60
	if v := strings.TrimSpace(os.Getenv("VALIDATION_CACHE_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ValidationCacheSecs = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("RSS_FEEDS")); v != "" {
		for _, feed := range strings.Split(v, ",") {
			if feed = strings.TrimSpace(feed); feed != "" {
				cfg.RSSFeeds = append(cfg.RSSFeeds, feed)
			}
		}
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	cfg.MCPRequestTimeoutSecs = 20
	if v := strings.TrimSpace(os.Getenv("MCP_REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRequestTimeoutSecs = n
		}
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, narrative synthesis will be disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	return cfg
}
