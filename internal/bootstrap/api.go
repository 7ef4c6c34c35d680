package bootstrap

import (
	"context"
	"sort"
	"time"

	"github.com/turtacn/rostertag/internal/config"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/rostertag/internal/interfaces/http"
	"github.com/turtacn/rostertag/internal/interfaces/http/handlers"
	"github.com/turtacn/rostertag/internal/interfaces/http/middleware"
)

// APIServer is the HTTP API with its infrastructure.
type APIServer struct {
	Server  *httpserver.Server
	Infra   *Infra
	limiter *middleware.ClientLimiter
	logger  logging.Logger
}

// NewAPIServer opens the infrastructure and builds the router and server.
func NewAPIServer(ctx context.Context, cfg *config.Config, version string, logger logging.Logger) (*APIServer, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	in, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	svc, err := in.NewService(cfg)
	if err != nil {
		_ = in.Close()
		return nil, err
	}

	checks := in.HealthChecks()
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checkers := make([]handlers.HealthChecker, 0, len(names))
	for _, name := range names {
		checkers = append(checkers, handlers.NewCheck(name, checks[name]))
	}

	routerCfg := httpserver.RouterConfig{
		Mode:              cfg.Server.Mode,
		ExtractionHandler: handlers.NewExtractionHandler(svc, logger.Named("handler")),
		HealthHandler:     handlers.NewHealthHandler(version, checkers...),
		Logging:           middleware.DefaultLoggingConfig(),
		MaxBodySize:       cfg.Server.MaxBodySize,
		Logger:            logger.Named("http"),
		Metrics:           in.Metrics,
		MetricsHandler:    in.MetricsHandler(),
		MetricsPath:       cfg.Metrics.Path,
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSOrigins
		cors.AllowWildcard = true
		routerCfg.CORS = &cors
	}

	api := &APIServer{Infra: in, logger: logger}
	if cfg.Server.RateLimitRPS > 0 {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.Server.RateLimitRPS
		rl.BurstSize = cfg.Server.RateLimitBurst
		api.limiter = middleware.NewClientLimiter(rl.RequestsPerSecond, rl.BurstSize, rl.CleanupInterval)
		routerCfg.RateLimiter = api.limiter
		routerCfg.RateLimit = rl
	}

	api.Server = httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger.Named("server"))
	return api, nil
}

// Run serves until ctx is done, then drains in-flight requests and closes
// the infrastructure.
func (a *APIServer) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Server.Start() }()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		a.logger.Info("shutting down HTTP server")
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		if err := a.Server.Stop(stopCtx); err != nil {
			a.logger.Error("HTTP server shutdown error", logging.Err(err))
		}
		cancel()
		serveErr = <-errCh
	}

	if a.limiter != nil {
		a.limiter.Stop()
	}
	if err := a.Infra.Close(); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

//Personal.AI order the ending
