package roster_extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func rosterGlossary() []GlossaryEntry {
	return []GlossaryEntry{
		{CanonicalTerm: "Company", Abbreviations: []string{"Co", "Coy"}, Category: CategoryUnit},
		{CanonicalTerm: "Battalion", Abbreviations: []string{"Bn"}, Category: CategoryUnit},
		{CanonicalTerm: "Parachute Infantry Regiment", Abbreviations: []string{"PIR"}, Category: CategoryUnit},
		{CanonicalTerm: "Division", Abbreviations: []string{"Div"}, Category: CategoryOrganization},
		{CanonicalTerm: "Sergeant", Abbreviations: []string{"Sgt"}, Category: CategoryRole},
		{CanonicalTerm: "Private", Abbreviations: []string{"Pvt"}, Category: CategoryRole},
	}
}

func rosterTable(rows ...[]string) *Table {
	return &Table{Columns: []string{"ID", "Name", "Notes"}, Rows: rows}
}

func mustCompile(t *testing.T, entries []GlossaryEntry, cfg ExtractionConfig) *PatternSet {
	t.Helper()
	set, err := CompilePatternSet(entries, cfg)
	require.NoError(t, err)
	return set
}

// scan runs one column's matcher over a raw text normalized the way the
// engine does it.
func scan(t *testing.T, set *PatternSet, col Column, text string) []string {
	t.Helper()
	m, ok := set.Matcher(col)
	require.True(t, ok, "no matcher for %s", col)
	toks, err := m.FindAll(NormalizeText(text, true))
	require.NoError(t, err)
	return toks
}

func runEngine(t *testing.T, cfg ExtractionConfig, entries []GlossaryEntry, table *Table, opts ...Option) *Result {
	t.Helper()
	e, err := NewEngine(cfg, opts...)
	require.NoError(t, err)
	res, err := e.Extract(context.Background(), entries, table)
	require.NoError(t, err)
	return res
}

type stubMatcher struct {
	column Column
	tokens []string
	err    error
	panics bool
}

func (s stubMatcher) Column() Column { return s.column }
func (s stubMatcher) Source() string { return "stub" }
func (s stubMatcher) FindAll(string) ([]string, error) {
	if s.panics {
		panic("matcher exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.tokens, nil
}

var errStub = errors.New("stub failure")
