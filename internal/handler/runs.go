package handler

import (
	"net/http"
	"strconv"
	"strings"

	"sovereign-veritas/internal/domain"
	"sovereign-veritas/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetRecentRuns godoc
// @Summary      Recent validation runs for a symbol
// @Description  Returns persisted validation run records, newest first
// @Tags         runs
// @Produce      json
// @Param        symbol  path   string  true   "Asset symbol, e.g. BTC"
// @Param        limit   query  int     false  "Max records (default 20, cap 100)"
// @Success      200  {array}   repository.RunRecord
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/runs/{symbol} [get]
func (h *Handler) GetRecentRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run persistence unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-recent-runs")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	if !domain.IsSupportedSymbol(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported symbol: " + symbol})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	runs, err := h.runs.GetRecentRuns(ctx, symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*repository.RunRecord{}
	}
	c.JSON(http.StatusOK, runs)
}

// GetLatestRun godoc
// @Summary      Latest validation run for a symbol
// @Tags         runs
// @Produce      json
// @Param        symbol  path  string  true  "Asset symbol, e.g. BTC"
// @Success      200  {object}  repository.RunRecord
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/runs/{symbol}/latest [get]
func (h *Handler) GetLatestRun(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run persistence unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-latest-run")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	if !domain.IsSupportedSymbol(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported symbol: " + symbol})
		return
	}

	runs, err := h.runs.GetRecentRuns(ctx, symbol, 1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(runs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded for " + symbol})
		return
	}
	c.JSON(http.StatusOK, runs[0])
}

// GetSymbols godoc
// @Summary      Supported symbols
// @Tags         runs
// @Produce      json
// @Success      200  {array}  string
// @Router       /api/symbols [get]
func (h *Handler) GetSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, domain.SupportedSymbols)
}
