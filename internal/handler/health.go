package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sovereign-veritas/internal/domain"
)

var startedAt = time.Now()

// Health godoc
// @Summary      Health check
// @Description  Reports service liveness and basic runtime info
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(startedAt).Seconds()),
		"symbols":        len(domain.SupportedSymbols),
	})
}
