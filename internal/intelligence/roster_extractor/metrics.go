package roster_extractor

import (
	"sync"
	"time"
)

// Metrics receives per-category and per-run observations.  The prometheus
// implementation lives in internal/infrastructure/monitoring/prometheus.
type Metrics interface {
	ObserveCategory(column string, d time.Duration, failed bool)
	ObserveRun(records, distinct int, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCategory(string, time.Duration, bool) {}
func (noopMetrics) ObserveRun(int, int, time.Duration)          {}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics { return noopMetrics{} }

// InMemoryMetrics keeps observations in memory.  It is used by tests and by
// the CLI summary.
type InMemoryMetrics struct {
	mu         sync.Mutex
	categories map[string]int
	failures   map[string]int
	runs       int
	records    int
	distinct   int
}

// NewInMemoryMetrics returns an empty InMemoryMetrics.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{categories: map[string]int{}, failures: map[string]int{}}
}

func (m *InMemoryMetrics) ObserveCategory(column string, _ time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[column]++
	if failed {
		m.failures[column]++
	}
}

func (m *InMemoryMetrics) ObserveRun(records, distinct int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.records += records
	m.distinct += distinct
}

// Failures returns how often column failed.
func (m *InMemoryMetrics) Failures(column string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[column]
}

// Observations returns how often column ran.
func (m *InMemoryMetrics) Observations(column string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories[column]
}

// Runs returns the number of runs and the summed record / distinct counts.
func (m *InMemoryMetrics) Runs() (runs, records, distinct int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs, m.records, m.distinct
}

//Personal.AI order the ending
