package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sovereign-veritas/internal/bot"
	"sovereign-veritas/internal/cache"
	"sovereign-veritas/internal/collector"
	"sovereign-veritas/internal/config"
	"sovereign-veritas/internal/db"
	"sovereign-veritas/internal/handler"
	"sovereign-veritas/internal/job"
	"sovereign-veritas/internal/orchestrator"
	"sovereign-veritas/internal/provider"
	"sovereign-veritas/internal/repository"
	"sovereign-veritas/internal/service"
	"sovereign-veritas/internal/synthesis"
	"sovereign-veritas/internal/veritas"
	"sovereign-veritas/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "sovereign-veritas/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newRunRepoFunc         = repository.NewRunRepository
	newCollectorFunc       = collector.New
	newValidatorFunc       = veritas.NewValidator
	newOrchestratorFunc    = orchestrator.New
	newValidationSvcFunc   = service.NewValidationService
	newValidationJobFunc   = job.NewValidationJob
	startJobFunc           = func(j *job.ValidationJob, ctx context.Context) { go j.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

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
	// Keyed providers disable themselves when unconfigured. Append the
	// concrete pointers only when non-nil so the interface slice stays
	// free of typed nils.
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

// @title           Sovereign Veritas API
// @version         1.0
// @description     Multi-provider crypto data validation pipeline with cross-validation and confidence scoring.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Create repository and run migrations
	var runRepo *repository.RunRepository
	if db.Pool != nil {
		runRepo = newRunRepoFunc(db.Pool, tracer)
		if err := runRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Assemble the validation pipeline
	coll := newCollectorFunc(tracer, time.Duration(cfg.ProviderTimeoutSecs)*time.Second, buildProviders(tracer, cfg)...)

	thresholds := veritas.DefaultThresholds()
	thresholds.PriceWarnPct = cfg.PriceWarnPct
	thresholds.PriceFatalPct = cfg.PriceFatalPct
	thresholds.VolumeWarnPct = cfg.VolumeWarnPct
	thresholds.ArbitragePct = cfg.ArbitragePct
	thresholds.SentimentMismatch = cfg.SentimentMismatch
	var classifier veritas.TextClassifier
	if c := veritas.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel); c != nil {
		classifier = c
	}
	validator := newValidatorFunc(tracer, thresholds, classifier, veritas.NewForestAnomalyScorer())

	orchestrator.SetSufficiencyFloor(cfg.MinOverallScore)
	orch := newOrchestratorFunc(tracer, coll, validator, time.Duration(cfg.GlobalTimeoutSecs)*time.Second)

	var narrator service.Narrator
	if cfg.OpenAIAPIKey != "" {
		narrator = synthesis.NewSynthesizer(tracer, synthesis.NewOpenAIClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	}

	resultCache := cache.NewResultCache(cache.Client, time.Duration(cfg.ValidationCacheSecs)*time.Second)
	var store service.RunStore
	if runRepo != nil {
		store = runRepo
	}
	validationSvc := newValidationSvcFunc(tracer, orch, resultCache, store, nil, narrator)

	// Start Telegram bot and wire it back as the alert sink
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	if tb := startTelegramBotFunc(validationSvc); tb != nil {
		validationSvc.SetAlerter(tb)
	}

	// Start periodic validation sweep (stopped by ctx cancel)
	var pruner job.RunPruner
	if runRepo != nil {
		pruner = runRepo
	}
	validationJob := newValidationJobFunc(tracer, validationSvc, pruner,
		time.Duration(cfg.ValidationPollSecs)*time.Second,
		time.Duration(cfg.RunRetentionDays)*24*time.Hour)
	startJobFunc(validationJob, ctx)

	// Create handlers and routes
	var runReader handler.RunReader
	if runRepo != nil {
		runReader = runRepo
	}
	h := newHandlerFunc(tracer, validationSvc, runReader, cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("sovereign-veritas"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
