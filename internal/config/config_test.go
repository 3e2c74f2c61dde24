package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("VERITAS_PRICE_WARN_PCT", "")
	t.Setenv("ORCH_GLOBAL_TIMEOUT_SECS", "")
	t.Setenv("MCP_TRANSPORT", "")
	t.Setenv("RSS_FEEDS", "")

	cfg := Load()

	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.PriceWarnPct != 1.5 || cfg.PriceFatalPct != 10 {
		t.Fatalf("unexpected price thresholds: %f/%f", cfg.PriceWarnPct, cfg.PriceFatalPct)
	}
	if cfg.VolumeWarnPct != 10 || cfg.ArbitragePct != 2 || cfg.SentimentMismatch != 30 {
		t.Fatalf("unexpected validation thresholds: %+v", cfg)
	}
	if cfg.MinOverallScore != 70 {
		t.Fatalf("expected min overall score 70, got %f", cfg.MinOverallScore)
	}
	if cfg.GlobalTimeoutSecs != 15 || cfg.ProviderTimeoutSecs != 8 {
		t.Fatalf("unexpected timeouts: %d/%d", cfg.GlobalTimeoutSecs, cfg.ProviderTimeoutSecs)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected stdio transport, got %s", cfg.MCPTransport)
	}
	if len(cfg.RSSFeeds) != 0 {
		t.Fatalf("expected no custom feeds, got %v", cfg.RSSFeeds)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VERITAS_PRICE_WARN_PCT", "2.5")
	t.Setenv("VERITAS_PRICE_FATAL_PCT", "20")
	t.Setenv("ORCH_GLOBAL_TIMEOUT_SECS", "30")
	t.Setenv("RSS_FEEDS", "http://a/rss, http://b/rss ,")
	t.Setenv("MCP_TRANSPORT", "HTTP")

	cfg := Load()

	if cfg.PriceWarnPct != 2.5 || cfg.PriceFatalPct != 20 {
		t.Fatalf("overrides not applied: %f/%f", cfg.PriceWarnPct, cfg.PriceFatalPct)
	}
	if cfg.GlobalTimeoutSecs != 30 {
		t.Fatalf("expected timeout override, got %d", cfg.GlobalTimeoutSecs)
	}
	if len(cfg.RSSFeeds) != 2 || cfg.RSSFeeds[0] != "http://a/rss" || cfg.RSSFeeds[1] != "http://b/rss" {
		t.Fatalf("unexpected feeds: %v", cfg.RSSFeeds)
	}
	if cfg.MCPTransport != "http" {
		t.Fatalf("transport should lowercase, got %s", cfg.MCPTransport)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("VERITAS_PRICE_WARN_PCT", "-1")
	t.Setenv("ORCH_GLOBAL_TIMEOUT_SECS", "zero")
	t.Setenv("MCP_TRANSPORT", "carrier-pigeon")

	cfg := Load()

	if cfg.PriceWarnPct != 1.5 {
		t.Fatalf("negative threshold must fall back to default, got %f", cfg.PriceWarnPct)
	}
	if cfg.GlobalTimeoutSecs != 15 {
		t.Fatalf("unparseable timeout must fall back to default, got %d", cfg.GlobalTimeoutSecs)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("unknown transport must fall back to stdio, got %s", cfg.MCPTransport)
	}
}
