// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package persona_api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	internal_entity "github.com/alteraai/api/persona-api/internal/entity"
	internal_metrics "github.com/alteraai/api/persona-api/internal/metrics"
	internal_services "github.com/alteraai/api/persona-api/internal/service"
	"github.com/alteraai/pkg/commons"
	"github.com/alteraai/pkg/types"
	"github.com/alteraai/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const CTX_REQUEST_ID = "__request_id"

// RequestId tags every request with a sortable id, reusing the caller's.
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(utils.HEADER_REQUEST_ID_KEY)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set(CTX_REQUEST_ID, id)
		c.Header(utils.HEADER_REQUEST_ID_KEY, id)
		c.Next()
	}
}

func RequestLogger(logger commons.Logger, metrics *internal_metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequest(c.Request.Method, route, c.Writer.Status())
		logger.Debugw("request served",
			"requestId", c.GetString(CTX_REQUEST_ID),
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

func Cors(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{utils.HEADER_AUTH_KEY, utils.HEADER_CONTENT_TYPE, utils.HEADER_CLIENT_INFO, utils.HEADER_API_KEY, utils.HEADER_REQUEST_ID_KEY},
		ExposeHeaders:    []string{utils.HEADER_REQUEST_ID_KEY},
		AllowWebSockets:  true,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// bearer reads the token from the Authorization header, or from the
// access_token query parameter browsers use for websocket upgrades.
func bearer(c *gin.Context) string {
	if h := c.GetHeader(utils.HEADER_AUTH_KEY); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, utils.BEARER_PREFIX))
	}
	return c.Query("access_token")
}

// Authenticated rejects requests without a valid, non revoked token before
// any data is read.
func (a *PersonaApi) Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			utils.Unauthenticated(c)
			return
		}
		principle, err := a.session.Authenticate(c.Request.Context(), token)
		if err != nil {
			a.logger.Debugf("rejected token on %s: %v", c.FullPath(), err)
			utils.Unauthenticated(c)
			return
		}
		types.SetAuthPrincipleGin(c, principle)
		c.Next()
	}
}

// RequireRole loads the caller's role from the database; roles claimed by
// the client are never trusted.
func (a *PersonaApi) RequireRole(allowed ...internal_entity.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principle, ok := a.principle(c)
		if !ok {
			return
		}
		profile, err := a.profileService.Get(c.Request.Context(), principle.UserId)
		if err != nil && !isNotFound(err) {
			a.fail(c, "RequireRole", err)
			return
		}
		if profile != nil {
			for _, r := range allowed {
				if profile.UserRole == r {
					c.Next()
					return
				}
			}
		}
		a.logger.Warnf("user %s denied %s", principle.UserId, c.FullPath())
		utils.Error(c, http.StatusForbidden, "forbidden", "You don't have access to this page.")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, internal_services.ErrNotFound)
}
