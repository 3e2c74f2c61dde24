package handler

import (
	"errors"
	"net/http"
	"strings"

	"sovereign-veritas/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Validate godoc
// @Summary      Run the validation pipeline for a symbol
// @Description  Collects market, social, on-chain, and news data, cross-validates providers, and returns the confidence-scored result. Partial results are returned when the run halts or times out.
// @Tags         validation
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol, e.g. BTC"
// @Success      200  {object}  domain.OrchestrationResult
// @Failure      400  {object}  map[string]string
// @Failure      504  {object}  domain.OrchestrationResult
// @Router       /api/validate/{symbol} [post]
func (h *Handler) Validate(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.validate")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	res, err := h.validation.Validate(ctx, symbol, nil)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedSymbol) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if res.TimedOut {
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, res)
}

// Narrative godoc
// @Summary      LLM-written data quality narrative for a symbol
// @Description  Runs (or reuses a cached) validation and returns a plain-language assessment of the data quality.
// @Tags         validation
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol, e.g. BTC"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /api/validate/{symbol}/narrative [get]
func (h *Handler) Narrative(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.narrative")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	res, err := h.validation.Validate(ctx, symbol, nil)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedSymbol) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"narrative": h.validation.Narrative(ctx, res),
	})
}
