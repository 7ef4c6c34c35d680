package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rostertag/internal/interfaces/http/handlers"
	"github.com/turtacn/rostertag/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.  Nil members switch the matching routes or middleware off.
type RouterConfig struct {
	// Mode is the gin mode: debug, release or test.
	Mode string

	// Handlers
	ExtractionHandler *handlers.ExtractionHandler
	HealthHandler     *handlers.HealthHandler

	// Middleware
	CORS        *middleware.CORSConfig
	RateLimiter *middleware.ClientLimiter
	RateLimit   middleware.RateLimitConfig
	Logging     middleware.LoggingConfig
	MaxBodySize int64

	// Infrastructure
	Logger         logging.Logger
	Metrics        *prometheus.AppMetrics
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter builds the gin engine: global middleware, the public probes and
// metrics, and the /api/v1 extraction routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// --- Global middleware ---
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit))
	}

	// --- Probes and metrics ---
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	// --- API v1 ---
	api := r.Group("/api/v1")
	if cfg.MaxBodySize > 0 {
		api.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	registerExtractionRoutes(api, cfg.ExtractionHandler)

	return r
}

func registerExtractionRoutes(r *gin.RouterGroup, h *handlers.ExtractionHandler) {
	if h == nil {
		return
	}
	r.POST("/extract", h.Extract)
	r.POST("/patterns", h.Patterns)
}

//Personal.AI order the ending
