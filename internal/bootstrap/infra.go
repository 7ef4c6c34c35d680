// Package bootstrap opens the infrastructure a process needs from its
// configuration and assembles the extraction service on top of it.
package bootstrap

import (
	"context"
	"net/http"

	"github.com/turtacn/rostertag/internal/application/extraction"
	"github.com/turtacn/rostertag/internal/config"
	"github.com/turtacn/rostertag/internal/domain/run"
	"github.com/turtacn/rostertag/internal/infrastructure/database/postgres"
	"github.com/turtacn/rostertag/internal/infrastructure/database/postgres/repositories"
	rediscache "github.com/turtacn/rostertag/internal/infrastructure/database/redis"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rostertag/internal/infrastructure/storage/minio"
)

// Infra holds the clients opened for the enabled config sections.  A
// disabled section leaves its fields nil.
type Infra struct {
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Redis *rediscache.Client
	Cache rediscache.ResultCache
	Locks *rediscache.LockFactory

	DB   *postgres.Connection
	Runs run.RunRepository

	MinIO   *minio.Client
	Objects minio.ObjectStore

	logger  logging.Logger
	closers []closer
}

type closer struct {
	name string
	fn   func() error
}

// Open connects every enabled section.  On failure whatever was already
// opened is closed again.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Infra, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	in := &Infra{logger: logger}
	if err := in.open(ctx, cfg); err != nil {
		_ = in.Close()
		return nil, err
	}
	return in, nil
}

func (in *Infra) open(ctx context.Context, cfg *config.Config) error {
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, in.logger)
		if err != nil {
			return err
		}
		in.Collector = collector
		in.Metrics = prometheus.NewAppMetrics(collector)
	}

	if cfg.Redis.Enabled {
		client, err := rediscache.NewClient(cfg.Redis, in.logger.Named("redis"))
		if err != nil {
			return err
		}
		in.Redis = client
		in.Cache = rediscache.NewResultCache(client, in.logger.Named("result_cache"), rediscache.WithTTL(cfg.Redis.ResultTTL))
		in.Locks = rediscache.NewLockFactory(client, in.logger.Named("lock"))
		in.closers = append(in.closers, closer{"redis", client.Close})
	}

	if cfg.Database.Enabled {
		conn, err := postgres.NewConnection(cfg.Database, in.logger.Named("postgres"))
		if err != nil {
			return err
		}
		in.DB = conn
		in.closers = append(in.closers, closer{"postgres", conn.Close})
		if cfg.Database.AutoMigrate {
			if err := conn.RunMigrations(); err != nil {
				return err
			}
		}
		in.Runs = repositories.NewPostgresRunRepo(conn, in.logger.Named("run_repo"))
	}

	if cfg.MinIO.Enabled {
		client, err := minio.NewClient(cfg.MinIO, in.logger.Named("minio"))
		if err != nil {
			return err
		}
		in.MinIO = client
		in.Objects = minio.NewObjectStore(client, in.logger.Named("object_store"))
		in.closers = append(in.closers, closer{"minio", client.Close})
	}
	return ctx.Err()
}

// ServiceOptions wires the opened clients into the extraction service.
// Object storage, when enabled, replaces local files for input and output
// references.
func (in *Infra) ServiceOptions() []extraction.Option {
	opts := []extraction.Option{
		extraction.WithMetrics(in.Metrics),
	}
	if in.Cache != nil {
		opts = append(opts, extraction.WithResolver(in.Cache))
	}
	if in.Runs != nil {
		opts = append(opts, extraction.WithRunRepository(in.Runs))
	}
	if in.Objects != nil {
		files := extraction.NewObjectFiles(in.Objects)
		opts = append(opts, extraction.WithSource(files), extraction.WithSink(files))
	}
	return opts
}

// NewService builds the extraction service over the opened clients.
func (in *Infra) NewService(cfg *config.Config) (extraction.Service, error) {
	return extraction.NewService(cfg.Extraction, in.logger.Named("extraction"), in.ServiceOptions()...)
}

// HealthChecks returns one ping per opened dependency, keyed by name.
func (in *Infra) HealthChecks() map[string]func(ctx context.Context) error {
	checks := make(map[string]func(ctx context.Context) error)
	if in.Redis != nil {
		checks["redis"] = in.Redis.Ping
	}
	if in.DB != nil {
		checks["postgres"] = in.DB.HealthCheck
	}
	if in.MinIO != nil {
		checks["minio"] = in.MinIO.HealthCheck
	}
	return checks
}

// MetricsHandler is nil when metrics are disabled.
func (in *Infra) MetricsHandler() http.Handler {
	if in.Collector == nil {
		return nil
	}
	return in.Collector.Handler()
}

// Close releases the clients in reverse order of opening and returns the
// first error.
func (in *Infra) Close() error {
	var first error
	for i := len(in.closers) - 1; i >= 0; i-- {
		c := in.closers[i]
		if err := c.fn(); err != nil {
			in.logger.Warn("failed to close client", logging.String("client", c.name), logging.Err(err))
			if first == nil {
				first = err
			}
		}
	}
	in.closers = nil
	return first
}

//Personal.AI order the ending
