// Package extraction orchestrates one extraction run: it resolves the
// configuration, loads the glossary and the record table, answers distinct
// texts from the result cache, runs the engine over the rest and records a
// run summary.
package extraction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/rostertag/internal/domain/run"
	rediscache "github.com/turtacn/rostertag/internal/infrastructure/database/redis"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/prometheus"
	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
	"github.com/turtacn/rostertag/pkg/errors"
)

const cacheName = "text_tokens"

// Resolver answers distinct texts, computing the ones it has no stored
// result for.  rediscache.ResultCache satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, fingerprint string, texts []string, compute rediscache.ComputeFunc) (*rediscache.Resolution, error)
}

// directResolver computes every text.
type directResolver struct{}

func (directResolver) Resolve(ctx context.Context, _ string, texts []string, compute rediscache.ComputeFunc) (*rediscache.Resolution, error) {
	tokens, diag, err := compute(ctx, texts)
	if err != nil {
		return nil, err
	}
	return &rediscache.Resolution{Tokens: tokens, Diagnostics: diag, Misses: len(texts)}, nil
}

// RunRequest describes one run.  Inline inputs win over references; a
// reference is resolved through the service Source.
type RunRequest struct {
	Origin    run.Source
	JobID     string
	Overrides *Overrides

	Glossary    []rx.GlossaryEntry
	GlossaryRef string
	Records     *rx.Table
	RecordsRef  string

	// OutputRef, when set, is written through the service Sink.
	OutputRef string
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	RunID       uuid.UUID
	Fingerprint string
	Result      *rx.Result
	CacheHits   int
	CacheMisses int
	OutputRef   string
	Elapsed     time.Duration
}

// PatternReport lists the compiled expression of every column.
type PatternReport struct {
	Fingerprint string            `json:"fingerprint"`
	Columns     []rx.ColumnSource `json:"columns"`
}

// Service runs extractions.
type Service interface {
	Run(ctx context.Context, req *RunRequest) (*RunResult, error)
	Patterns(ctx context.Context, glossary []rx.GlossaryEntry, overrides *Overrides) (*PatternReport, error)
	Config() rx.ExtractionConfig
}

// Option configures the service.
type Option func(*serviceImpl)

// WithResolver sets the result cache.
func WithResolver(r Resolver) Option {
	return func(s *serviceImpl) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithRunRepository persists a summary of every run.
func WithRunRepository(repo run.RunRepository) Option {
	return func(s *serviceImpl) { s.runs = repo }
}

// WithSource sets where input references are read from.
func WithSource(src Source) Option {
	return func(s *serviceImpl) {
		if src != nil {
			s.source = src
		}
	}
}

// WithSink sets where output references are written to.
func WithSink(sink Sink) Option {
	return func(s *serviceImpl) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithMetrics exports engine, cache and run metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

type serviceImpl struct {
	base     rx.ExtractionConfig
	resolver Resolver
	runs     run.RunRepository
	source   Source
	sink     Sink
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
}

// NewService validates base and returns a service with local file IO, no
// cache and no run store unless options say otherwise.
func NewService(base rx.ExtractionConfig, logger logging.Logger, opts ...Option) (Service, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		base:     base,
		resolver: directResolver{},
		source:   LocalFiles{},
		sink:     LocalFiles{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *serviceImpl) Config() rx.ExtractionConfig { return s.base }

func (s *serviceImpl) engine(overrides *Overrides) (*rx.Engine, error) {
	opts := []rx.Option{rx.WithLogger(s.logger.Named("engine"))}
	if s.metrics != nil {
		opts = append(opts, rx.WithMetrics(s.metrics))
	}
	return rx.NewEngine(overrides.Apply(s.base), opts...)
}

// Run executes req.  Configuration and input errors are returned before any
// extraction happens.  Failed columns do not fail the run; they show up in
// the result diagnostics and the run summary.
func (s *serviceImpl) Run(ctx context.Context, req *RunRequest) (*RunResult, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "run request is nil")
	}
	start := time.Now()

	engine, err := s.engine(req.Overrides)
	if err != nil {
		return nil, err
	}

	origin := req.Origin
	if origin == "" {
		origin = run.SourceCLI
	}
	r := run.NewRun(origin, req.JobID)
	log := s.logger.With(logging.String("run_id", r.ID.String()), logging.String("job_id", req.JobID))
	s.createRun(ctx, r, log)

	res, resolution, fingerprint, err := s.execute(ctx, engine, req)
	r.Fingerprint = fingerprint
	if err != nil {
		r.Fail(err)
		s.finishRun(ctx, r, log)
		s.recordOutcome("failed")
		log.Error("extraction run failed", logging.Err(err))
		return nil, err
	}

	if req.OutputRef != "" {
		if err := s.sink.Write(ctx, req.OutputRef, res); err != nil {
			r.Fail(err)
			s.finishRun(ctx, r, log)
			s.recordOutcome("failed")
			return nil, err
		}
	}

	r.CacheHits, r.CacheMisses = resolution.Hits, resolution.Misses
	r.Complete(len(res.Rows), res.DistinctTexts, columnErrors(res.Diagnostics))
	s.finishRun(ctx, r, log)

	elapsed := time.Since(start)
	if s.metrics != nil {
		prometheus.RecordCacheAccess(s.metrics, cacheName, resolution.Hits, resolution.Misses)
		s.metrics.ObserveRun(len(res.Rows), res.DistinctTexts, elapsed)
	}
	log.Info("extraction run complete",
		logging.Int("records", len(res.Rows)),
		logging.Int("distinct_texts", res.DistinctTexts),
		logging.Int("cache_hits", resolution.Hits),
		logging.Strings("failed_columns", r.FailedColumns),
		logging.Duration("elapsed", elapsed))

	return &RunResult{
		RunID:       r.ID,
		Fingerprint: fingerprint,
		Result:      res,
		CacheHits:   resolution.Hits,
		CacheMisses: resolution.Misses,
		OutputRef:   req.OutputRef,
		Elapsed:     elapsed,
	}, nil
}

func (s *serviceImpl) execute(ctx context.Context, engine *rx.Engine, req *RunRequest) (*rx.Result, *rediscache.Resolution, string, error) {
	glossary, table, err := s.load(ctx, req)
	if err != nil {
		return nil, nil, "", err
	}

	set, err := engine.Compile(glossary)
	if err != nil {
		return nil, nil, "", err
	}
	fingerprint := set.Fingerprint()

	keys, distinct, err := engine.DistinctTexts(table)
	if err != nil {
		return nil, nil, fingerprint, err
	}

	resolution, err := s.resolver.Resolve(ctx, fingerprint, distinct, func(ctx context.Context, misses []string) (map[string]rx.TextTokens, rx.Diagnostics, error) {
		perText, diag := engine.ExtractTexts(ctx, set, misses)
		if err := ctx.Err(); err != nil {
			return nil, diag, err
		}
		return perText, diag, nil
	})
	if err != nil {
		return nil, nil, fingerprint, err
	}

	res := engine.Broadcast(set, table, keys, resolution.Tokens)
	res.DistinctTexts = len(distinct)
	res.Diagnostics = normalizeDiagnostics(resolution.Diagnostics)
	return res, resolution, fingerprint, nil
}

func (s *serviceImpl) load(ctx context.Context, req *RunRequest) ([]rx.GlossaryEntry, *rx.Table, error) {
	glossary := req.Glossary
	if glossary == nil {
		if req.GlossaryRef == "" {
			return nil, nil, errors.New(errors.ErrCodeValidation, "glossary or glossary reference required")
		}
		g, err := s.source.Glossary(ctx, req.GlossaryRef)
		if err != nil {
			return nil, nil, err
		}
		glossary = g
	}
	for i, e := range glossary {
		if err := e.Validate(); err != nil {
			return nil, nil, errors.Wrapf(err, errors.ErrCodeGlossaryInvalid, "glossary entry %d", i+1)
		}
	}

	table := req.Records
	if table == nil {
		if req.RecordsRef == "" {
			return nil, nil, errors.New(errors.ErrCodeValidation, "records or records reference required")
		}
		t, err := s.source.Records(ctx, req.RecordsRef)
		if err != nil {
			return nil, nil, err
		}
		table = t
	}
	return glossary, table, nil
}

// Patterns compiles glossary under the overridden configuration.
func (s *serviceImpl) Patterns(_ context.Context, glossary []rx.GlossaryEntry, overrides *Overrides) (*PatternReport, error) {
	engine, err := s.engine(overrides)
	if err != nil {
		return nil, err
	}
	set, err := engine.Compile(glossary)
	if err != nil {
		return nil, err
	}
	return &PatternReport{Fingerprint: set.Fingerprint(), Columns: set.Sources()}, nil
}

func (s *serviceImpl) createRun(ctx context.Context, r *run.Run, log logging.Logger) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Create(ctx, r); err != nil {
		log.Warn("failed to record run start", logging.Err(err))
		s.recordError("create_run")
	}
}

func (s *serviceImpl) finishRun(ctx context.Context, r *run.Run, log logging.Logger) {
	if s.runs == nil {
		return
	}
	// The summary is still worth writing when the request context ended.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}
	if err := s.runs.Finish(ctx, r); err != nil {
		log.Warn("failed to record run outcome", logging.Err(err))
		s.recordError("finish_run")
	}
}

func (s *serviceImpl) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RunsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *serviceImpl) recordError(kind string) {
	if s.metrics != nil {
		prometheus.RecordError(s.metrics, "run_store", kind)
	}
}

func columnErrors(d rx.Diagnostics) map[string]string {
	out := make(map[string]string, len(d.Errors))
	for col, msg := range d.Errors {
		out[string(col)] = msg
	}
	return out
}

// normalizeDiagnostics gives an all-cached run the same non-nil maps as a
// computed one.
func normalizeDiagnostics(d rx.Diagnostics) rx.Diagnostics {
	if d.Durations == nil {
		d.Durations = map[rx.Column]time.Duration{}
	}
	if d.Errors == nil {
		d.Errors = map[rx.Column]string{}
	}
	return d
}

//Personal.AI order the ending
