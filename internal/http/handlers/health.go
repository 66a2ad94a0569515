package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ChainPinger interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

type HealthHandler struct {
	pinger ChainPinger
}

func NewHealthHandler(pinger ChainPinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "koperasichain-backend",
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.pinger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "chain": "error"})
		return
	}
	if _, err := h.pinger.BlockNumber(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "chain": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "chain": "ok"})
}
