package run

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/rostertag/pkg/errors"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Source names the surface that started a run.
type Source string

const (
	SourceCLI   Source = "cli"
	SourceHTTP  Source = "http"
	SourceKafka Source = "kafka"
)

// Run is the persisted summary of one extraction run.  Output rows are not
// stored here; they go back to the caller or to object storage.
type Run struct {
	ID            uuid.UUID         `json:"id"`
	Source        Source            `json:"source"`
	JobID         string            `json:"job_id,omitempty"`
	Fingerprint   string            `json:"fingerprint"`
	Status        Status            `json:"status"`
	Records       int               `json:"records"`
	DistinctTexts int               `json:"distinct_texts"`
	CacheHits     int               `json:"cache_hits"`
	CacheMisses   int               `json:"cache_misses"`
	FailedColumns []string          `json:"failed_columns"`
	ColumnErrors  map[string]string `json:"column_errors,omitempty"`
	Error         string            `json:"error,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    *time.Time        `json:"finished_at,omitempty"`
}

func NewRun(source Source, jobID string) *Run {
	return &Run{
		ID:            uuid.New(),
		Source:        source,
		JobID:         jobID,
		Status:        StatusRunning,
		FailedColumns: []string{},
		ColumnErrors:  map[string]string{},
		StartedAt:     time.Now().UTC(),
	}
}

// Complete records the counts of a finished run.  Column errors make the run
// partial, not failed: every other column still carries real tokens.
func (r *Run) Complete(records, distinct int, columnErrors map[string]string) {
	r.Status = StatusCompleted
	r.Records = records
	r.DistinctTexts = distinct
	r.ColumnErrors = make(map[string]string, len(columnErrors))
	r.FailedColumns = make([]string, 0, len(columnErrors))
	for col, msg := range columnErrors {
		r.ColumnErrors[col] = msg
		r.FailedColumns = append(r.FailedColumns, col)
	}
	sort.Strings(r.FailedColumns)
	r.finish()
}

// Fail marks the run as aborted by err.
func (r *Run) Fail(err error) {
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.finish()
}

func (r *Run) finish() {
	now := time.Now().UTC()
	r.FinishedAt = &now
}

// Duration is zero while the run is still going.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Partial reports whether a completed run carried failed columns.
func (r *Run) Partial() bool {
	return r.Status == StatusCompleted && len(r.FailedColumns) > 0
}

func (r *Run) Validate() error {
	if r.ID == uuid.Nil {
		return errors.New(errors.ErrCodeValidation, "run id is required")
	}
	switch r.Source {
	case SourceCLI, SourceHTTP, SourceKafka:
	default:
		return errors.Newf(errors.ErrCodeValidation, "unknown run source %q", r.Source)
	}
	switch r.Status {
	case StatusRunning, StatusCompleted, StatusFailed:
	default:
		return errors.Newf(errors.ErrCodeValidation, "unknown run status %q", r.Status)
	}
	if r.StartedAt.IsZero() {
		return errors.New(errors.ErrCodeValidation, "run start time is required")
	}
	return nil
}

//Personal.AI order the ending
