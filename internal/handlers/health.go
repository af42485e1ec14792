package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Cache       string `json:"cache"`
	Storage     string `json:"storage"`
	Sessions    int    `json:"sessions"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Cache:       "disabled",
		Storage:     "memory",
		Sessions:    h.hub.Len(),
		Environment: h.cfg.Environment,
	}

	if h.cache != nil {
		resp.Cache = "ok"
		if err := h.cache.Ping(ctx).Err(); err != nil {
			resp.Cache = "error"
			resp.Status = "degraded"
			h.log.Error().Err(err).Msg("redis ping failed")
		}
	}

	if h.store != nil {
		resp.Storage = "ok"
		if err := h.store.Ping(ctx); err != nil {
			resp.Storage = "error"
			resp.Status = "degraded"
			h.log.Error().Err(err).Msg("object storage ping failed")
		}
	}

	c.JSON(http.StatusOK, resp)
}
