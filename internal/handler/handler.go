package handler

import (
	"context"

	"sovereign-veritas/internal/domain"
	"sovereign-veritas/internal/orchestrator"
	"sovereign-veritas/internal/repository"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type ValidationRunner interface {
	Validate(ctx context.Context, symbol string, onProgress orchestrator.ProgressFunc) (domain.OrchestrationResult, error)
	Narrative(ctx context.Context, res domain.OrchestrationResult) string
}

type RunReader interface {
	GetRecentRuns(ctx context.Context, symbol string, limit int) ([]*repository.RunRecord, error)
}

type Handler struct {
	tracer     trace.Tracer
	validation ValidationRunner
	runs       RunReader
	apiKey     string
}

func New(tracer trace.Tracer, validation ValidationRunner, runs RunReader, apiKey string) *Handler {
	return &Handler{
		tracer:     tracer,
		validation: validation,
		runs:       runs,
		apiKey:     apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(h.apiKey))
	api.POST("/validate/:symbol", h.Validate)
	api.GET("/validate/:symbol/narrative", h.Narrative)
	api.GET("/runs/:symbol", h.GetRecentRuns)
	api.GET("/runs/:symbol/latest", h.GetLatestRun)
	api.GET("/symbols", h.GetSymbols)
}
