// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package health_check_api

import (
	"context"
	"net/http"
	"time"

	"github.com/alteraai/config"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/connectors"
	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

type HealthCheckApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
	redis    connectors.RedisConnector
}

func New(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector, redis connectors.RedisConnector) *HealthCheckApi {
	return &HealthCheckApi{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
		redis:    redis,
	}
}

// Readiness reports whether every connector can serve traffic.
func (h *HealthCheckApi) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]bool{
		h.postgres.Name(): h.postgres.IsConnected(ctx),
		h.redis.Name():    h.redis.IsConnected(ctx),
	}
	status := http.StatusOK
	for name, ok := range checks {
		if !ok {
			h.logger.Warnf("readiness check failed for %s", name)
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, gin.H{
		"status":       http.StatusText(status),
		"dependencies": checks,
	})
}

func (h *HealthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.cfg.Name,
		"version": h.cfg.Version,
	})
}
