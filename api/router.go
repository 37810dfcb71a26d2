// Package api wires the HTTP surface: routes, middleware, and handlers.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagelens/pagelens/api/handler"
	"github.com/pagelens/pagelens/api/middleware"
	"github.com/pagelens/pagelens/audit"
	"github.com/pagelens/pagelens/cache"
	"github.com/pagelens/pagelens/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(svc *audit.Service, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(svc, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Audit — the full pipeline.
	protected.POST("/audit", handler.Audit(svc, cc))

	// Snapshot — capture only, no generation.
	protected.POST("/snapshot", handler.Snapshot(svc))

	return r
}
