package roster_extractor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
)

// UniqueTextExtractor runs every category of a PatternSet over a list of
// distinct texts.  Categories run concurrently, bounded by workers, and a
// failing category never affects its siblings.
type UniqueTextExtractor struct {
	workers int
	logger  logging.Logger
	metrics Metrics
}

// NewUniqueTextExtractor returns an extractor with at most workers
// categories in flight.  workers <= 0 means one.
func NewUniqueTextExtractor(workers int, logger logging.Logger, metrics Metrics) *UniqueTextExtractor {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &UniqueTextExtractor{workers: workers, logger: logger, metrics: metrics}
}

// Extract returns one CategoryResult per column of set, in set order.  texts
// must already be normalized and distinct.
func (u *UniqueTextExtractor) Extract(ctx context.Context, texts []string, set *PatternSet) []*CategoryResult {
	cols := set.Columns()
	results := make([]*CategoryResult, len(cols))

	var g errgroup.Group
	g.SetLimit(u.workers)
	for i, col := range cols {
		i, col := i, col
		m, _ := set.Matcher(col)
		g.Go(func() error {
			results[i] = u.runCategory(ctx, col, m, texts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (u *UniqueTextExtractor) runCategory(ctx context.Context, col Column, m Matcher, texts []string) (res *CategoryResult) {
	start := time.Now()
	res = &CategoryResult{
		Column:       col,
		TokensByText: make(map[string][]string, len(texts)),
		Status:       StatusOK,
	}
	defer func() {
		if r := recover(); r != nil {
			res = failedCategory(col, texts, fmt.Errorf("panic: %v", r))
		}
		res.Duration = time.Since(start)
		u.metrics.ObserveCategory(string(col), res.Duration, res.Failed())
		if res.Failed() {
			u.logger.Error("category extraction failed",
				logging.String("column", string(col)),
				logging.String("error", res.Error),
				logging.Int("texts", len(texts)),
			)
		}
	}()

	if m == nil {
		return failedCategory(col, texts, fmt.Errorf("no matcher for column %s", col))
	}
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return failedCategory(col, texts, err)
		}
		toks, err := m.FindAll(text)
		if err != nil {
			return failedCategory(col, texts, err)
		}
		if toks == nil {
			toks = []string{}
		}
		res.TokensByText[text] = toks
	}
	return res
}

// failedCategory substitutes the sentinel for every text of col.
func failedCategory(col Column, texts []string, err error) *CategoryResult {
	sentinel := ExtractionSentinel(col)
	res := &CategoryResult{
		Column:       col,
		TokensByText: make(map[string][]string, len(texts)),
		Status:       StatusFailed,
		Error:        err.Error(),
	}
	for _, text := range texts {
		res.TokensByText[text] = []string{sentinel}
	}
	return res
}

//Personal.AI order the ending
