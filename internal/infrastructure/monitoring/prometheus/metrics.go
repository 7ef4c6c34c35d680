package prometheus

import (
	"strconv"
	"time"
)

// Default buckets.
var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultCategoryDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 30}
	DefaultRunDurationBuckets      = []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300}
	DefaultDBDurationBuckets       = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultSizeBuckets             = []float64{1, 10, 100, 1000, 10000, 100000, 1000000}
)

// AppMetrics holds every metric the services export.  It implements the
// engine's Metrics hook (ObserveCategory / ObserveRun).
type AppMetrics struct {
	// Extraction engine
	CategoryDuration HistogramVec
	CategoryFailures CounterVec
	RunsTotal        CounterVec
	RunDuration      HistogramVec
	RunRecords       HistogramVec
	RunDistinctTexts HistogramVec

	// Result cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Worker
	JobsTotal    CounterVec
	JobDuration  HistogramVec
	JobsInFlight GaugeVec

	// Infrastructure
	DBQueryDuration HistogramVec
	ErrorsTotal     CounterVec
}

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.CategoryDuration = collector.RegisterHistogram("category_duration_seconds", "Time spent extracting one category over the distinct texts of a run", DefaultCategoryDurationBuckets, "column", "status")
	m.CategoryFailures = collector.RegisterCounter("category_failures_total", "Categories replaced by the extraction sentinel", "column")
	m.RunsTotal = collector.RegisterCounter("runs_total", "Completed extraction runs", "outcome")
	m.RunDuration = collector.RegisterHistogram("run_duration_seconds", "Extraction run duration", DefaultRunDurationBuckets)
	m.RunRecords = collector.RegisterHistogram("run_records", "Records per extraction run", DefaultSizeBuckets)
	m.RunDistinctTexts = collector.RegisterHistogram("run_distinct_texts", "Distinct texts per extraction run", DefaultSizeBuckets)

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Result cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Result cache misses", "cache")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.JobsTotal = collector.RegisterCounter("jobs_total", "Extraction jobs consumed", "status")
	m.JobDuration = collector.RegisterHistogram("job_duration_seconds", "Extraction job duration", DefaultRunDurationBuckets, "status")
	m.JobsInFlight = collector.RegisterGauge("jobs_in_flight", "Extraction jobs currently running")

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// ObserveCategory records one category of one run.
func (m *AppMetrics) ObserveCategory(column string, d time.Duration, failed bool) {
	status := "ok"
	if failed {
		status = "failed"
		m.CategoryFailures.WithLabelValues(column).Inc()
	}
	m.CategoryDuration.WithLabelValues(column, status).Observe(d.Seconds())
}

// ObserveRun records one completed run.
func (m *AppMetrics) ObserveRun(records, distinct int, d time.Duration) {
	m.RunsTotal.WithLabelValues("completed").Inc()
	m.RunDuration.WithLabelValues().Observe(d.Seconds())
	m.RunRecords.WithLabelValues().Observe(float64(records))
	m.RunDistinctTexts.WithLabelValues().Observe(float64(distinct))
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hits, misses int) {
	if hits > 0 {
		metrics.CacheHitsTotal.WithLabelValues(cache).Add(float64(hits))
	}
	if misses > 0 {
		metrics.CacheMissesTotal.WithLabelValues(cache).Add(float64(misses))
	}
}

func RecordJob(metrics *AppMetrics, status string, duration time.Duration) {
	metrics.JobsTotal.WithLabelValues(status).Inc()
	metrics.JobDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func RecordDBQuery(metrics *AppMetrics, operation string, duration time.Duration, err error) {
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("database", operation).Inc()
	}
}

func RecordError(metrics *AppMetrics, component, errorType string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

//Personal.AI order the ending
