package roster_extractor

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/pkg/errors"
)

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// Engine is the broadcast engine: it deduplicates records by combined text,
// extracts once per distinct text and copies the results back onto every
// record.  An Engine holds no state between runs and is safe for concurrent
// use.
type Engine struct {
	cfg     ExtractionConfig
	logger  logging.Logger
	metrics Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg ExtractionConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		logger:  logging.NewNopLogger(),
		metrics: NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() ExtractionConfig { return e.cfg }

// Compile builds the PatternSet for entries.
func (e *Engine) Compile(entries []GlossaryEntry) (*PatternSet, error) {
	return CompilePatternSet(entries, e.cfg)
}

// Extract compiles entries and runs ExtractWithPatterns.
func (e *Engine) Extract(ctx context.Context, entries []GlossaryEntry, table *Table) (*Result, error) {
	set, err := e.Compile(entries)
	if err != nil {
		return nil, err
	}
	return e.ExtractWithPatterns(ctx, set, table)
}

// ExtractWithPatterns runs the whole pipeline over table: combine and
// deduplicate texts, extract per distinct text, split pairs and broadcast.
// The only errors are configuration errors, detected before any work, and
// ctx cancellation.
func (e *Engine) ExtractWithPatterns(ctx context.Context, set *PatternSet, table *Table) (*Result, error) {
	start := time.Now()
	keys, distinct, err := e.DistinctTexts(table)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perText, diag := e.ExtractTexts(ctx, set, distinct)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := e.Broadcast(set, table, keys, perText)
	res.DistinctTexts = len(distinct)
	res.Diagnostics = diag

	e.metrics.ObserveRun(len(table.Rows), len(distinct), time.Since(start))
	e.logger.Info("extraction run complete",
		logging.Int("records", len(table.Rows)),
		logging.Int("distinct_texts", len(distinct)),
		logging.Strings("failed_columns", diag.FailedColumns()),
		logging.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// DistinctTexts combines every record's text and notes fields and returns
// the per-record key together with the distinct keys in first-seen order.
func (e *Engine) DistinctTexts(table *Table) (keys []string, distinct []string, err error) {
	if table == nil {
		return nil, nil, errors.New(errors.ErrCodeRecordsInvalid, "record table is nil")
	}
	textIdx := table.ColumnIndex(e.cfg.TextColumn)
	if textIdx < 0 {
		return nil, nil, errors.New(errors.ErrCodeMissingTextColumn, "primary text column not found").
			WithDetail("column=" + e.cfg.TextColumn)
	}
	notesIdx := -1
	if e.cfg.NotesColumn != "" {
		notesIdx = table.ColumnIndex(e.cfg.NotesColumn)
	}

	keys = make([]string, len(table.Rows))
	seen := make(map[string]struct{}, len(table.Rows))
	for i, row := range table.Rows {
		k := CombineFields(cell(row, textIdx), cell(row, notesIdx), e.cfg.CaseInsensitive)
		keys[i] = k
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			distinct = append(distinct, k)
		}
	}
	return keys, distinct, nil
}

// ExtractTexts runs every category over the distinct texts, splits the paired
// categories and returns the full column set per text.
func (e *Engine) ExtractTexts(ctx context.Context, set *PatternSet, texts []string) (map[string]TextTokens, Diagnostics) {
	diag := newDiagnostics()
	extractor := NewUniqueTextExtractor(e.cfg.workers(), e.logger, e.metrics)
	categories := extractor.Extract(ctx, texts, set)

	byColumn := make(map[Column]*CategoryResult, len(categories)+2*len(PairSpecs))
	for _, cr := range categories {
		byColumn[cr.Column] = cr
		diag.Durations[cr.Column] = cr.Duration
		if cr.Failed() {
			diag.Errors[cr.Column] = cr.Error
		}
	}
	for _, spec := range PairSpecs {
		paired, ok := byColumn[spec.Column]
		if !ok {
			continue
		}
		left, right := SplitCategory(spec, paired)
		byColumn[left.Column], byColumn[right.Column] = left, right
		for _, d := range []*CategoryResult{left, right} {
			if d.Failed() {
				diag.Errors[d.Column] = d.Error
				if !paired.Failed() {
					e.logger.Error("pair split failed",
						logging.String("column", string(d.Column)),
						logging.String("error", d.Error),
					)
				}
			}
		}
	}

	cols := set.OutputColumns()
	perText := make(map[string]TextTokens, len(texts))
	for _, text := range texts {
		tt := make(TextTokens, len(cols))
		for _, col := range cols {
			toks := []string{}
			if cr, ok := byColumn[col]; ok {
				if v, ok := cr.TokensByText[text]; ok {
					toks = v
				}
			}
			tt[col] = toks
		}
		perText[text] = tt
	}
	return perText, diag
}

// Broadcast copies each distinct text's tokens onto every record mapped to
// it.  The output columns are those of set, the same set ExtractTexts ran.
// Records whose key is missing from perText get empty lists.
func (e *Engine) Broadcast(set *PatternSet, table *Table, keys []string, perText map[string]TextTokens) *Result {
	cols := set.OutputColumns()
	res := &Result{
		InputColumns: append([]string(nil), table.Columns...),
		Columns:      cols,
		Rows:         make([]OutputRow, len(table.Rows)),
	}
	for i, row := range table.Rows {
		tt := perText[keys[i]]
		out := OutputRow{
			Values: append([]string(nil), row...),
			Text:   keys[i],
			Tokens: make(map[Column][]string, len(cols)),
		}
		for _, col := range cols {
			src := tt[col]
			cp := make([]string, len(src))
			copy(cp, src)
			out.Tokens[col] = cp
		}
		res.Rows[i] = out
	}
	return res
}

// OutputColumns returns every output column of a run over ps: categories
// plus split columns, with Special_Numbers only when ps compiled it.
func (ps *PatternSet) OutputColumns() []Column {
	_, special := ps.matchers[ColumnSpecialNumbers]
	return OutputColumns(special)
}

func joinSorted(ss []string) string {
	sort.Strings(ss)
	return strings.Join(ss, "; ")
}

//Personal.AI order the ending
