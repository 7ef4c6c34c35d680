package roster_extractor

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/turtacn/rostertag/pkg/errors"
)

// ---------------------------------------------------------------------------
// Glossary
// ---------------------------------------------------------------------------

// Category is the glossary-assigned class of a surface form.
type Category string

const (
	CategoryOrganization Category = "Organization"
	CategoryUnit         Category = "Unit"
	CategoryRole         Category = "Role"
)

// TermType returns the glossary spelling of the category ("Unit Term").
func (c Category) TermType() string {
	return string(c) + " Term"
}

// ParseCategory maps a glossary term_type value onto a Category.  The
// canonical spellings are "Organization Term", "Unit Term" and "Role Term";
// the trailing " Term" and letter case are optional.
func ParseCategory(termType string) (Category, error) {
	t := strings.ToLower(strings.Join(strings.Fields(termType), " "))
	t = strings.TrimSuffix(t, " term")
	switch t {
	case "organization", "organisation", "org":
		return CategoryOrganization, nil
	case "unit":
		return CategoryUnit, nil
	case "role", "rank":
		return CategoryRole, nil
	default:
		return "", errors.New(errors.ErrCodeGlossaryTermType, "unknown term type").WithDetail(termType)
	}
}

// GlossaryEntry is one glossary row: a canonical term, its abbreviation
// variants and the category every surface form belongs to.
type GlossaryEntry struct {
	CanonicalTerm string   `json:"full_term" yaml:"full_term"`
	Abbreviations []string `json:"abbreviations" yaml:"abbreviations"`
	Category      Category `json:"term_type" yaml:"term_type"`
}

// NewGlossaryEntry builds an entry from raw glossary fields.  Abbreviations
// are de-duplicated preserving first occurrence.
func NewGlossaryEntry(fullTerm string, abbreviations []string, termType string) (GlossaryEntry, error) {
	cat, err := ParseCategory(termType)
	if err != nil {
		return GlossaryEntry{}, err
	}
	e := GlossaryEntry{
		CanonicalTerm: strings.TrimSpace(fullTerm),
		Abbreviations: dedupeNonEmpty(abbreviations),
		Category:      cat,
	}
	if err := e.Validate(); err != nil {
		return GlossaryEntry{}, err
	}
	return e, nil
}

// Validate checks the entry invariants.
func (e GlossaryEntry) Validate() error {
	if strings.TrimSpace(e.CanonicalTerm) == "" {
		return errors.New(errors.ErrCodeGlossaryInvalid, "canonical term is empty")
	}
	switch e.Category {
	case CategoryOrganization, CategoryUnit, CategoryRole:
		return nil
	default:
		return errors.New(errors.ErrCodeGlossaryTermType, "unknown category").WithDetail(string(e.Category))
	}
}

// SurfaceForms returns the canonical term followed by the abbreviations.
func (e GlossaryEntry) SurfaceForms() []string {
	out := make([]string, 0, 1+len(e.Abbreviations))
	out = append(out, e.CanonicalTerm)
	out = append(out, e.Abbreviations...)
	return out
}

// SplitAbbreviations splits a delimited abbreviation cell.  Semicolons and
// pipes take precedence; a comma is only treated as a delimiter when neither
// appears.
func SplitAbbreviations(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	var parts []string
	switch {
	case strings.ContainsAny(cell, ";|"):
		parts = strings.FieldsFunc(cell, func(r rune) bool { return r == ';' || r == '|' })
	case strings.Contains(cell, ","):
		parts = strings.Split(cell, ",")
	default:
		parts = []string{cell}
	}
	return dedupeNonEmpty(parts)
}

func dedupeNonEmpty(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ---------------------------------------------------------------------------
// Output columns
// ---------------------------------------------------------------------------

// Column names one list-valued output column.
type Column string

const (
	ColumnOrgTerms       Column = "Org_Terms"
	ColumnUnitTerms      Column = "Unit_Terms"
	ColumnRoleTerms      Column = "Role_Terms"
	ColumnUncharAlpha    Column = "Unchar_Alpha"
	ColumnUncharDigits   Column = "Unchar_Digits"
	ColumnOrgDigitPair   Column = "Org_Term_Digit_Term:Pair"
	ColumnUnitDigitPair  Column = "Unit_Term_Digit_Term:Pair"
	ColumnUnitAlphaPair  Column = "Unit_Term_Alpha_Term:Pair"
	ColumnAlphaDigitPair Column = "Alpha_Digit:Pair"
	ColumnSpecialNumbers Column = "Special_Numbers"
)

// PairSpec describes a paired column and the names of its two sides.  The
// Left side is always reported first in a "LEFT:RIGHT" token.
type PairSpec struct {
	Column Column
	Left   string
	Right  string
}

func (p PairSpec) base() string {
	return strings.TrimSuffix(string(p.Column), ":Pair")
}

// LeftColumn is the derived column holding the left side of each pair.
func (p PairSpec) LeftColumn() Column { return Column(p.base() + ":" + p.Left) }

// RightColumn is the derived column holding the right side of each pair.
func (p PairSpec) RightColumn() Column { return Column(p.base() + ":" + p.Right) }

// PairSpecs lists the paired columns in output order.
var PairSpecs = []PairSpec{
	{Column: ColumnOrgDigitPair, Left: "Org", Right: "Digit"},
	{Column: ColumnUnitDigitPair, Left: "Unit", Right: "Digit"},
	{Column: ColumnUnitAlphaPair, Left: "Unit", Right: "Alpha"},
	{Column: ColumnAlphaDigitPair, Left: "Alpha", Right: "Digit"},
}

// baseColumns are the categories every pattern set carries, in output order.
var baseColumns = []Column{
	ColumnOrgTerms,
	ColumnUnitTerms,
	ColumnRoleTerms,
	ColumnUncharAlpha,
	ColumnUncharDigits,
	ColumnOrgDigitPair,
	ColumnUnitDigitPair,
	ColumnUnitAlphaPair,
	ColumnAlphaDigitPair,
}

// OutputColumns returns every list-valued output column in stable order:
// standalone columns, then each pair followed by its two split columns, then
// Special_Numbers when enabled.
func OutputColumns(withSpecial bool) []Column {
	cols := []Column{ColumnOrgTerms, ColumnUnitTerms, ColumnRoleTerms, ColumnUncharAlpha, ColumnUncharDigits}
	for _, p := range PairSpecs {
		cols = append(cols, p.Column, p.LeftColumn(), p.RightColumn())
	}
	if withSpecial {
		cols = append(cols, ColumnSpecialNumbers)
	}
	return cols
}

// ---------------------------------------------------------------------------
// Sentinels
// ---------------------------------------------------------------------------

const (
	extractionSentinelPrefix = "[EXTRACTION_FAILED:"
	splitSentinelPrefix      = "[SPLIT_FAILED:"
)

// ExtractionSentinel is the token substituted for every text of a failed
// category.
func ExtractionSentinel(col Column) string {
	return extractionSentinelPrefix + string(col) + "]"
}

// SplitSentinel is the token substituted for a paired token that could not
// be split.
func SplitSentinel(col Column) string {
	return splitSentinelPrefix + string(col) + "]"
}

// IsSentinel reports whether tok is a failure marker rather than a real token.
func IsSentinel(tok string) bool {
	return strings.HasSuffix(tok, "]") &&
		(strings.HasPrefix(tok, extractionSentinelPrefix) || strings.HasPrefix(tok, splitSentinelPrefix))
}

// ---------------------------------------------------------------------------
// Category results and diagnostics
// ---------------------------------------------------------------------------

// Status is the outcome of one category over the whole batch.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// CategoryResult holds one column's tokens for every distinct text.
type CategoryResult struct {
	Column       Column              `json:"column"`
	TokensByText map[string][]string `json:"tokens_by_text"`
	Status       Status              `json:"status"`
	Error        string              `json:"error,omitempty"`
	Duration     time.Duration       `json:"duration"`
}

// Failed reports whether the category was replaced by sentinels.
func (r *CategoryResult) Failed() bool { return r != nil && r.Status == StatusFailed }

// Diagnostics is the optional bundle returned with every run.
type Diagnostics struct {
	Durations map[Column]time.Duration `json:"durations"`
	Errors    map[Column]string        `json:"errors,omitempty"`
}

func newDiagnostics() Diagnostics {
	return Diagnostics{
		Durations: make(map[Column]time.Duration),
		Errors:    make(map[Column]string),
	}
}

// FailedColumns returns the failed column names sorted.
func (d Diagnostics) FailedColumns() []string {
	out := make([]string, 0, len(d.Errors))
	for c := range d.Errors {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// HasErrors reports whether any category or split failed.
func (d Diagnostics) HasErrors() bool { return len(d.Errors) > 0 }

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

// Table is a record table: a header and rows aligned with it.  Columns other
// than the text and notes columns are passed through untouched.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ColumnIndex returns the position of name in the header, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// cell returns row[idx] or "" when the row is short or idx is negative.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// OutputRow is the extraction output for one input record.
type OutputRow struct {
	Values []string            `json:"values"`
	Text   string              `json:"text"`
	Tokens map[Column][]string `json:"tokens"`
}

// Result is the output of a broadcast run: one OutputRow per input record in
// input order.
type Result struct {
	InputColumns  []string    `json:"input_columns"`
	Columns       []Column    `json:"columns"`
	Rows          []OutputRow `json:"rows"`
	DistinctTexts int         `json:"distinct_texts"`
	Diagnostics   Diagnostics `json:"diagnostics"`
}

// TextTokens is the full per-column output of one distinct text.
type TextTokens map[Column][]string

// isSingleLetter reports whether s is exactly one Unicode letter.
func isSingleLetter(s string) bool {
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return isLetter(r)
}

//Personal.AI order the ending
