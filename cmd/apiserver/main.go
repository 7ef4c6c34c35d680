// Command apiserver serves the extraction HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/rostertag/internal/bootstrap"
	"github.com/turtacn/rostertag/internal/config"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: defaults + ROSTERTAG_* env)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	var opts []config.LoaderOption
	if *configPath != "" {
		opts = append(opts, config.WithConfigPath(*configPath))
	}
	if *httpPort > 0 {
		opts = append(opts, config.WithOverrides(map[string]interface{}{"server.port": *httpPort}))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := bootstrap.NewAPIServer(ctx, cfg, version, logger)
	if err != nil {
		logger.Error("failed to initialize API server", logging.Err(err))
		os.Exit(1)
	}

	logger.Info("starting rostertag API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()),
		logging.Bool("redis", cfg.Redis.Enabled),
		logging.Bool("postgres", cfg.Database.Enabled),
		logging.Bool("minio", cfg.MinIO.Enabled),
	)

	if err := api.Run(ctx, cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("API server stopped with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("API server stopped")
}

//Personal.AI order the ending
