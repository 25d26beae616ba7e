// Package http assembles the gin route tree and the server lifecycle around
// it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/AgValue-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/AgValue-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies required to
// construct the complete HTTP route tree.
type RouterConfig struct {
	ValuationHandler *handlers.ValuationHandler
	HealthHandler    *handlers.HealthHandler

	Logger  logging.Logger
	Metrics *prometheus.Metrics

	// Mode is the gin mode: "debug", "release", or "test".
	Mode string

	// CORS and Logging override the default middleware settings when set.
	CORS    *middleware.CORSConfig
	Logging *middleware.LoggingConfig
}

// NewRouter constructs the complete HTTP route tree: global middleware,
// public probe endpoints, the metrics endpoint, and the versioned API group.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	logCfg := middleware.DefaultLoggingConfig()
	if cfg.Logging != nil {
		logCfg = *cfg.Logging
	}
	r.Use(middleware.RequestLogging(logger.Named("http"), logCfg))

	corsCfg := middleware.DefaultCORSConfig()
	if cfg.CORS != nil {
		corsCfg = *cfg.CORS
	}
	r.Use(middleware.CORS(corsCfg))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
		r.GET("/healthz/detail", cfg.HealthHandler.Detailed)
	}

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.ValuationHandler != nil {
		api.POST("/valuations", cfg.ValuationHandler.Create)
	}

	return r
}
