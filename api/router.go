package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/lpcheck/api/handler"
	"github.com/use-agent/lpcheck/api/middleware"
	"github.com/use-agent/lpcheck/cache"
	"github.com/use-agent/lpcheck/config"
	"github.com/use-agent/lpcheck/resolver"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
// pool may be nil when the configured engine is not the browser.
func NewRouter(res *resolver.Resolver, pool handler.PoolReporter, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(pool, res.Engine(), startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.GET("/positions/:chain/:id/report", handler.Report(res, cfg, cc))

	return r
}
