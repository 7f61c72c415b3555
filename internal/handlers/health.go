package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xuxiaoleilancy/ai-codehub/internal/cache"
)

type healthResponse struct {
	Status      string `json:"status"`
	Cache       string `json:"cache"`
	Backend     string `json:"backend"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	cacheStatus, err := cache.Status(ctx, h.cache)
	if err != nil {
		h.log.Error().Err(err).Msg("redis ping failed")
	}

	backendStatus := "ok"
	if err := h.backend.Ping(ctx); err != nil {
		backendStatus = "error"
		h.log.Error().Err(err).Msg("backend ping failed")
	}

	status := "ok"
	if cacheStatus == cache.StatusError || backendStatus == "error" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:      status,
		Cache:       cacheStatus,
		Backend:     backendStatus,
		Environment: h.cfg.Environment,
	})
}
