package extraction

import (
	"strings"
	"time"

	"github.com/turtacn/rostertag/internal/infrastructure/fileio"
	"github.com/turtacn/rostertag/internal/infrastructure/storage/minio"
	"github.com/turtacn/rostertag/pkg/errors"
)

// Job result statuses.
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// ExtractJob is the payload of an extract.requested event.  Keys address
// objects in the job bucket.
type ExtractJob struct {
	JobID       string     `json:"job_id"`
	GlossaryKey string     `json:"glossary_key"`
	RecordsKey  string     `json:"records_key"`
	OutputKey   string     `json:"output_key,omitempty"`
	Format      string     `json:"format,omitempty"`
	Overrides   *Overrides `json:"overrides,omitempty"`
}

// Validate checks the required fields and the output format.
func (j *ExtractJob) Validate() error {
	if strings.TrimSpace(j.JobID) == "" {
		return errors.New(errors.ErrCodeValidation, "job_id is required")
	}
	if j.GlossaryKey == "" || j.RecordsKey == "" {
		return errors.New(errors.ErrCodeValidation, "glossary_key and records_key are required").WithDetail(j.JobID)
	}
	if j.Format != "" {
		f, err := fileio.ParseFormat(j.Format)
		if err != nil {
			return err
		}
		if f != fileio.FormatCSV && f != fileio.FormatJSONL {
			return errors.New(errors.ErrCodeValidation, "output format must be csv or jsonl").WithDetail(j.Format)
		}
	}
	return nil
}

// ResolvedOutputKey is OutputKey, or results/<job_id>.<format> when unset.
func (j *ExtractJob) ResolvedOutputKey() string {
	if j.OutputKey != "" {
		return j.OutputKey
	}
	format := j.Format
	if format == "" {
		format = string(fileio.FormatJSONL)
	}
	return minio.ResultKey(j.JobID, format)
}

// Request converts the job into a run request reading from the job bucket.
func (j *ExtractJob) Request() *RunRequest {
	return &RunRequest{
		JobID:       j.JobID,
		Overrides:   j.Overrides,
		GlossaryRef: j.GlossaryKey,
		RecordsRef:  j.RecordsKey,
		OutputRef:   j.ResolvedOutputKey(),
	}
}

// ExtractJobResult is the payload of extract.completed and extract.failed.
type ExtractJobResult struct {
	JobID         string            `json:"job_id"`
	RunID         string            `json:"run_id,omitempty"`
	Status        string            `json:"status"`
	OutputKey     string            `json:"output_key,omitempty"`
	Fingerprint   string            `json:"fingerprint,omitempty"`
	Records       int               `json:"records"`
	DistinctTexts int               `json:"distinct_texts"`
	CacheHits     int               `json:"cache_hits"`
	CacheMisses   int               `json:"cache_misses"`
	FailedColumns []string          `json:"failed_columns,omitempty"`
	ColumnErrors  map[string]string `json:"column_errors,omitempty"`
	Error         string            `json:"error,omitempty"`
	ElapsedMs     int64             `json:"elapsed_ms"`
}

// NewJobResult summarises a completed run.
func NewJobResult(jobID string, res *RunResult) *ExtractJobResult {
	out := &ExtractJobResult{
		JobID:         jobID,
		RunID:         res.RunID.String(),
		Status:        JobStatusCompleted,
		OutputKey:     res.OutputRef,
		Fingerprint:   res.Fingerprint,
		Records:       len(res.Result.Rows),
		DistinctTexts: res.Result.DistinctTexts,
		CacheHits:     res.CacheHits,
		CacheMisses:   res.CacheMisses,
		ElapsedMs:     res.Elapsed.Milliseconds(),
	}
	if errs := res.Result.Diagnostics.Errors; len(errs) > 0 {
		out.FailedColumns = res.Result.Diagnostics.FailedColumns()
		out.ColumnErrors = columnErrors(res.Result.Diagnostics)
	}
	return out
}

// NewFailedJobResult reports a job that produced no output.
func NewFailedJobResult(jobID string, err error, elapsed time.Duration) *ExtractJobResult {
	return &ExtractJobResult{
		JobID:     jobID,
		Status:    JobStatusFailed,
		Error:     err.Error(),
		ElapsedMs: elapsed.Milliseconds(),
	}
}

//Personal.AI order the ending
