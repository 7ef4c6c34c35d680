package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/rostertag/internal/application/extraction"
	"github.com/turtacn/rostertag/internal/domain/run"
	"github.com/turtacn/rostertag/internal/infrastructure/fileio"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
	"github.com/turtacn/rostertag/pkg/errors"
)

// ExtractRequest is the body of POST /api/v1/extract.  Glossary is a list
// of {full_term, abbreviations, term_type}; records is a list of flat
// objects whose keys become the table columns in first-seen order.
type ExtractRequest struct {
	Config   *extraction.Overrides `json:"config,omitempty"`
	Glossary json.RawMessage       `json:"glossary"`
	Records  json.RawMessage       `json:"records"`
}

// PatternsRequest is the body of POST /api/v1/patterns.
type PatternsRequest struct {
	Config   *extraction.Overrides `json:"config,omitempty"`
	Glossary json.RawMessage       `json:"glossary"`
}

// DiagnosticsResponse reports per-column timing in milliseconds and the
// columns that failed.
type DiagnosticsResponse struct {
	DurationsMs   map[string]float64 `json:"durations_ms"`
	FailedColumns []string           `json:"failed_columns"`
	Errors        map[string]string  `json:"errors,omitempty"`
}

type ExtractResponse struct {
	RunID         string              `json:"run_id"`
	Fingerprint   string              `json:"fingerprint"`
	Columns       []string            `json:"columns"`
	Rows          []json.RawMessage   `json:"rows"`
	DistinctTexts int                 `json:"distinct_texts"`
	CacheHits     int                 `json:"cache_hits"`
	CacheMisses   int                 `json:"cache_misses"`
	Diagnostics   DiagnosticsResponse `json:"diagnostics"`
	ElapsedMs     int64               `json:"elapsed_ms"`
}

// ExtractionHandler exposes the extraction service.
type ExtractionHandler struct {
	service extraction.Service
	logger  logging.Logger
}

func NewExtractionHandler(svc extraction.Service, logger logging.Logger) *ExtractionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ExtractionHandler{service: svc, logger: logger}
}

// Extract handles POST /api/v1/extract.
func (h *ExtractionHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	glossary, err := decodeGlossary(req.Glossary)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if len(req.Records) == 0 {
		writeAppError(c, errors.New(errors.ErrCodeValidation, "records are required"))
		return
	}
	table, err := fileio.ReadRecords(bytes.NewReader(req.Records), fileio.FormatJSON)
	if err != nil {
		writeAppError(c, err)
		return
	}

	out, err := h.service.Run(c.Request.Context(), &extraction.RunRequest{
		Origin:    run.SourceHTTP,
		Overrides: req.Config,
		Glossary:  glossary,
		Records:   table,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}

	rows, err := fileio.RowObjects(out.Result)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExtractResponse{
		RunID:         out.RunID.String(),
		Fingerprint:   out.Fingerprint,
		Columns:       resultColumns(out.Result),
		Rows:          rows,
		DistinctTexts: out.Result.DistinctTexts,
		CacheHits:     out.CacheHits,
		CacheMisses:   out.CacheMisses,
		Diagnostics:   diagnosticsResponse(out.Result.Diagnostics),
		ElapsedMs:     out.Elapsed.Milliseconds(),
	})
}

// Patterns handles POST /api/v1/patterns.
func (h *ExtractionHandler) Patterns(c *gin.Context) {
	var req PatternsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	glossary, err := decodeGlossary(req.Glossary)
	if err != nil {
		writeAppError(c, err)
		return
	}
	report, err := h.service.Patterns(c.Request.Context(), glossary, req.Config)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func writeBindError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		writeAppError(c, err)
		return
	}
	writeBadRequest(c, err)
}

func decodeGlossary(raw json.RawMessage) ([]rx.GlossaryEntry, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New(errors.ErrCodeValidation, "glossary is required")
	}
	return fileio.ReadGlossary(bytes.NewReader(raw), fileio.FormatJSON)
}

func resultColumns(res *rx.Result) []string {
	out := make([]string, 0, len(res.InputColumns)+len(res.Columns))
	out = append(out, res.InputColumns...)
	for _, c := range res.Columns {
		out = append(out, string(c))
	}
	return out
}

func diagnosticsResponse(d rx.Diagnostics) DiagnosticsResponse {
	out := DiagnosticsResponse{
		DurationsMs:   make(map[string]float64, len(d.Durations)),
		FailedColumns: d.FailedColumns(),
	}
	for col, dur := range d.Durations {
		out.DurationsMs[string(col)] = float64(dur.Microseconds()) / 1000
	}
	if len(d.Errors) > 0 {
		out.Errors = make(map[string]string, len(d.Errors))
		for col, msg := range d.Errors {
			out.Errors[string(col)] = msg
		}
	}
	sort.Strings(out.FailedColumns)
	return out
}

//Personal.AI order the ending
