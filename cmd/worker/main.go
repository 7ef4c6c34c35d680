// Command worker consumes extraction jobs from kafka, runs them against
// object storage and publishes the outcome to the result topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/rostertag/internal/bootstrap"
	"github.com/turtacn/rostertag/internal/config"
	"github.com/turtacn/rostertag/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/internal/interfaces/worker"
)

const (
	healthShutdownTimeout = 5 * time.Second
	drainGrace            = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: defaults + ROSTERTAG_* env)")
	workerCount := flag.Int("workers", 0, "number of consumers in the group (overrides worker.concurrency)")
	flag.Parse()

	var opts []config.LoaderOption
	if *configPath != "" {
		opts = append(opts, config.WithConfigPath(*configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *workerCount > 0 {
		cfg.Worker.Concurrency = *workerCount
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("worker stopped with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("rostertag worker stopped")
}

func run(cfg *config.Config, logger logging.Logger) error {
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka is disabled; set kafka.enabled to run the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize infrastructure: %w", err)
	}
	defer infra.Close()

	svc, err := infra.NewService(cfg)
	if err != nil {
		return err
	}

	if cfg.Kafka.AutoCreateTopics {
		if err := ensureTopics(ctx, cfg.Kafka, logger); err != nil {
			return err
		}
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfigFromKafka(cfg.Kafka), logger.Named("producer"))
	if err != nil {
		return fmt.Errorf("failed to create kafka producer: %w", err)
	}
	defer producer.Close()

	handlerOpts := []worker.HandlerOption{worker.WithMetrics(infra.Metrics)}
	if infra.Locks != nil {
		handlerOpts = append(handlerOpts, worker.WithLocker(infra.Locks))
	}
	handler := worker.NewExtractHandler(svc, producer, worker.HandlerConfig{
		RequestTopic: cfg.Kafka.RequestTopic,
		ResultTopic:  cfg.Kafka.ResultTopic,
		JobTimeout:   cfg.Worker.JobTimeout,
	}, logger.Named("handler"), handlerOpts...)

	// Consumers in one group split the request partitions between them.
	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() {
		for _, c := range consumers {
			_ = c.Close()
		}
	}()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(kafka.ConsumerConfigFromKafka(cfg.Kafka), producer, logger.Named("consumer").With(logging.Int("consumer", i)))
		if err != nil {
			return fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		c.Subscribe(handler.Topic(), handler.Handle)
		if err := c.Start(ctx); err != nil {
			_ = c.Close()
			return err
		}
		consumers = append(consumers, c)
	}

	checks := make(map[string]worker.HealthCheck)
	for name, fn := range infra.HealthChecks() {
		checks[name] = fn
	}
	healthSrv := worker.StartHealthServer(cfg.Worker.HealthAddr,
		worker.NewHealthMux(checks, infra.MetricsHandler()), logger.Named("health"))

	logger.Info("rostertag worker started",
		logging.Int("consumers", len(consumers)),
		logging.String("request_topic", cfg.Kafka.RequestTopic),
		logging.String("result_topic", cfg.Kafka.ResultTopic),
		logging.Bool("minio", cfg.MinIO.Enabled),
	)

	<-ctx.Done()
	logger.Info("received shutdown signal, stopping consumers")

	done := make(chan struct{})
	go func() {
		for _, c := range consumers {
			if err := c.Close(); err != nil {
				logger.Warn("consumer close error", logging.Err(err))
			}
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cfg.Worker.JobTimeout + drainGrace):
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}

	for i, c := range consumers {
		s := c.Stats()
		logger.Info("consumer stats", logging.Int("consumer", i),
			logging.Int64("processed", s.Processed), logging.Int64("dead_lettered", s.DeadLettered))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), healthShutdownTimeout)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}
	return nil
}

func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger.Named("topics"))
	if err != nil {
		return fmt.Errorf("failed to connect to kafka: %w", err)
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.TopicSpecs(cfg))
}

//Personal.AI order the ending
