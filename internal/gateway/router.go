// Package gateway wires the HTTP surface: API-key administration,
// signal ingestion, and the unauthenticated probe endpoints.
package gateway

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/afi-protocol/afi-gateway/internal/apikey"
	"github.com/afi-protocol/afi-gateway/internal/auth"
	"github.com/afi-protocol/afi-gateway/internal/health"
	"github.com/afi-protocol/afi-gateway/internal/observability"
	"github.com/afi-protocol/afi-gateway/internal/ratelimit"
	"github.com/afi-protocol/afi-gateway/internal/vault"
)

// ServiceName identifies the gateway in probe responses.
const ServiceName = "afi-gateway"

// ginModeOnce guards gin.SetMode against concurrent server setup.
var ginModeOnce sync.Once

// RouterConfig holds the collaborators the router wires together.
type RouterConfig struct {
	Store       apikey.Store
	Factory     vault.Factory
	Limiter     ratelimit.Limiter
	DefaultRule ratelimit.Rule
	Checker     *health.Checker
	Logger      observability.Logger
	Metrics     *observability.Metrics
}

// NewRouter builds the gin engine with all routes and middleware.
// Probe and metrics endpoints are unauthenticated; everything under
// /api/v1 passes through the API-key middleware.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger()
	}
	if cfg.Checker == nil {
		cfg.Checker = health.NewChecker(ServiceName)
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()
	engine.Use(Recovery(cfg.Logger))
	engine.Use(RequestLogger(cfg.Logger, cfg.Metrics))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, cfg.Checker.Liveness())
	})
	engine.GET("/readyz", func(c *gin.Context) {
		response := cfg.Checker.Readiness(c.Request.Context())
		status := http.StatusOK
		if response.Status == health.StatusError {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, response)
	})
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	handler := NewHandler(cfg.Store, cfg.Factory,
		WithHandlerLogger(cfg.Logger),
		WithHandlerMetrics(cfg.Metrics),
	)

	api := engine.Group("/api/v1")
	api.Use(auth.Middleware(auth.MiddlewareConfig{
		Store:       cfg.Store,
		Limiter:     cfg.Limiter,
		DefaultRule: cfg.DefaultRule,
		Logger:      cfg.Logger,
		Metrics:     cfg.Metrics,
	}))

	api.POST("/api-keys", handler.CreateKey)
	api.GET("/api-keys", handler.ListKeys)
	api.POST("/api-keys/:keyId/revoke", handler.RevokeKey)
	api.POST("/signals", handler.IngestSignal)

	return engine
}
