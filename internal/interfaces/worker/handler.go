// Package worker consumes extraction jobs from kafka and runs them against
// the object store.
package worker

import (
	"context"
	"time"

	"github.com/turtacn/rostertag/internal/application/extraction"
	"github.com/turtacn/rostertag/internal/domain/run"
	rediscache "github.com/turtacn/rostertag/internal/infrastructure/database/redis"
	"github.com/turtacn/rostertag/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/rostertag/pkg/errors"
)

const (
	sourceName     = "rostertag-worker"
	defaultLockTTL = 30 * time.Second
)

// Locker hands out per-job mutexes.  *rediscache.LockFactory satisfies it.
type Locker interface {
	NewMutex(name string, opts ...rediscache.LockOption) rediscache.DistributedLock
}

// HandlerConfig tunes ExtractHandler.
type HandlerConfig struct {
	RequestTopic string
	ResultTopic  string
	JobTimeout   time.Duration
	LockTTL      time.Duration
}

// ExtractHandler runs one extract.requested event per call and publishes the
// outcome to the result topic.
type ExtractHandler struct {
	service   extraction.Service
	publisher kafka.Publisher
	locks     Locker
	metrics   *prometheus.AppMetrics
	cfg       HandlerConfig
	logger    logging.Logger
}

// HandlerOption configures an ExtractHandler.
type HandlerOption func(*ExtractHandler)

// WithLocker prevents two workers from running the same job id at once.
func WithLocker(l Locker) HandlerOption {
	return func(h *ExtractHandler) { h.locks = l }
}

func WithMetrics(m *prometheus.AppMetrics) HandlerOption {
	return func(h *ExtractHandler) { h.metrics = m }
}

func NewExtractHandler(svc extraction.Service, publisher kafka.Publisher, cfg HandlerConfig, logger logging.Logger, opts ...HandlerOption) *ExtractHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	h := &ExtractHandler{
		service:   svc,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.Named("extract_handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Topic is the request topic the handler subscribes to.
func (h *ExtractHandler) Topic() string { return h.cfg.RequestTopic }

// Handle decodes and runs one job.  Malformed messages and jobs that can
// never succeed are returned as permanent errors so the consumer dead-letters
// them without retrying; anything else is retried.
func (h *ExtractHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return kafka.Permanent(err)
	}
	if env.EventType != kafka.EventExtractRequested {
		h.logger.Debug("ignoring event", logging.String("event_type", env.EventType), logging.String("event_id", env.EventID))
		return nil
	}

	var job extraction.ExtractJob
	if err := env.DecodePayload(&job); err != nil {
		return kafka.Permanent(err)
	}
	if err := job.Validate(); err != nil {
		return kafka.Permanent(err)
	}
	log := h.logger.With(logging.String("job_id", job.JobID), logging.String("event_id", env.EventID))

	if h.locks != nil {
		mu := h.locks.NewMutex("job:"+job.JobID, rediscache.WithLockTTL(h.cfg.LockTTL), rediscache.WithWatchdog(h.cfg.LockTTL/3))
		ok, err := mu.TryLock(ctx)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCacheError, "failed to lock job").WithDetail(job.JobID)
		}
		if !ok {
			log.Info("job is held by another worker, skipping")
			return nil
		}
		defer func() {
			if err := mu.Unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to release job lock", logging.Err(err))
			}
		}()
	}

	return h.run(ctx, &job, log)
}

func (h *ExtractHandler) run(ctx context.Context, job *extraction.ExtractJob, log logging.Logger) error {
	if h.metrics != nil {
		h.metrics.JobsInFlight.WithLabelValues().Inc()
		defer h.metrics.JobsInFlight.WithLabelValues().Dec()
	}
	if h.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	req := job.Request()
	req.Origin = run.SourceKafka

	res, err := h.service.Run(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		h.recordJob(extraction.JobStatusFailed, elapsed)
		if !isPermanent(err) {
			log.Warn("extraction job failed, will retry", logging.Err(err))
			return err
		}
		log.Error("extraction job rejected", logging.Err(err))
		if perr := h.publish(ctx, kafka.EventExtractFailed, job.JobID, extraction.NewFailedJobResult(job.JobID, err, elapsed)); perr != nil {
			log.Warn("failed to publish job failure", logging.Err(perr))
		}
		return kafka.Permanent(err)
	}

	if err := h.publish(ctx, kafka.EventExtractCompleted, job.JobID, extraction.NewJobResult(job.JobID, res)); err != nil {
		h.recordJob(extraction.JobStatusFailed, elapsed)
		return err
	}
	h.recordJob(extraction.JobStatusCompleted, elapsed)
	log.Info("extraction job complete",
		logging.String("output_key", res.OutputRef),
		logging.Int("records", len(res.Result.Rows)),
		logging.Duration("elapsed", elapsed))
	return nil
}

func (h *ExtractHandler) publish(ctx context.Context, eventType, jobID string, payload *extraction.ExtractJobResult) error {
	env, err := extractionEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(h.cfg.ResultTopic, jobID)
	if err != nil {
		return err
	}
	return h.publisher.Publish(ctx, msg)
}

func extractionEnvelope(eventType string, payload *extraction.ExtractJobResult) (*kafka.EventEnvelope, error) {
	env, err := kafka.NewEventEnvelope(eventType, sourceName, payload)
	if err != nil {
		return nil, err
	}
	env.Metadata = map[string]string{"status": payload.Status}
	return env, nil
}

func (h *ExtractHandler) recordJob(status string, d time.Duration) {
	if h.metrics != nil {
		prometheus.RecordJob(h.metrics, status, d)
	}
}

// isPermanent reports whether retrying err cannot help: bad input, a bad
// configuration or a missing object.
func isPermanent(err error) bool {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown || code == errors.CodeOK {
		return false
	}
	return errors.IsClientError(code)
}

//Personal.AI order the ending
