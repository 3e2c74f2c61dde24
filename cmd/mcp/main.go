package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"sovereign-veritas/internal/cache"
	"sovereign-veritas/internal/collector"
	"sovereign-veritas/internal/config"
	"sovereign-veritas/internal/mcptools"
	"sovereign-veritas/internal/orchestrator"
	"sovereign-veritas/internal/provider"
	"sovereign-veritas/internal/service"
	"sovereign-veritas/internal/veritas"
	"sovereign-veritas/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"
)

const serverVersion = "1.0.0"

func buildProviders(tracer trace.Tracer, cfg *config.Config) []provider.Provider {
	providers := []provider.Provider{
		provider.NewCoinGeckoProvider(tracer),
		provider.NewBinanceProvider(tracer),
		provider.NewFearGreedProvider(tracer),
		provider.NewRedditProvider(tracer),
		provider.NewBlockchainInfoProvider(tracer),
		provider.NewMempoolProvider(tracer, ""),
		provider.NewRSSProvider(tracer, cfg.RSSFeeds),
	}
	if p := provider.NewCoinMarketCapProvider(tracer, cfg.CoinMarketCapAPIKey); p != nil {
		providers = append(providers, p)
	}
	if p := provider.NewLunarCrushProvider(tracer, cfg.LunarCrushAPIKey); p != nil {
		providers = append(providers, p)
	}
	if p := provider.NewNewsAPIProvider(tracer, cfg.NewsAPIKey); p != nil {
		providers = append(providers, p)
	}
	return providers
}

func main() {
	godotenv.Load()

	// MCP stdio clients own stdout, keep logs on stderr.
	log.SetOutput(os.Stderr)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("TRACING_ENABLED", "false")
	tp, tracer, err := tracing.InitTracer(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer tp.Shutdown(ctx)

	coll := collector.New(tracer, time.Duration(cfg.ProviderTimeoutSecs)*time.Second, buildProviders(tracer, cfg)...)

	thresholds := veritas.DefaultThresholds()
	thresholds.PriceWarnPct = cfg.PriceWarnPct
	thresholds.PriceFatalPct = cfg.PriceFatalPct
	thresholds.VolumeWarnPct = cfg.VolumeWarnPct
	thresholds.ArbitragePct = cfg.ArbitragePct
	thresholds.SentimentMismatch = cfg.SentimentMismatch
	validator := veritas.NewValidator(tracer, thresholds, nil, veritas.NewForestAnomalyScorer())

	orchestrator.SetSufficiencyFloor(cfg.MinOverallScore)
	orch := orchestrator.New(tracer, coll, validator, time.Duration(cfg.GlobalTimeoutSecs)*time.Second)
	validationSvc := service.NewValidationService(tracer, orch, cache.NewResultCache(nil, 0), nil, nil, nil)

	tools := mcptools.NewServer(validationSvc, time.Duration(cfg.MCPRequestTimeoutSecs)*time.Second)
	srv := tools.MCPServer(serverVersion)

	if cfg.MCPTransport == "http" || cfg.MCPHTTPEnabled {
		runHTTP(srv, cfg)
		return
	}

	log.Println("MCP server listening on stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("mcp server: %v", err)
	}
}

func runHTTP(srv *mcp.Server, cfg *config.Config) {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", authMiddleware(cfg.MCPAuthToken, handler))

	addr := fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
	log.Printf("MCP server listening on http://%s/mcp", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("mcp http server: %v", err)
	}
}

func authMiddleware(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			provided := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if provided != token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
