package roster_extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// ---------------------------------------------------------------------------
// Pattern building blocks
// ---------------------------------------------------------------------------

const (
	// separator is a run of whitespace, quote, colon, slash, dash or comma.
	separator = `[\s"':/\-,]+`

	leftBoundary  = `(?<!\p{L})`
	rightBoundary = `(?!\p{L})`

	// tokenGroup carries the token of a standalone category.
	tokenGroup = "t"
)

// ColonPlaceholder replaces a literal colon inside either side of a pair so
// that splitting "LEFT:RIGHT" on the first colon is unambiguous.
const ColonPlaceholder = "꞉"

func termExpr(f Fragment, group string) string {
	if group == "" {
		return leftBoundary + f.Pattern
	}
	return leftBoundary + `(?<` + group + `>` + f.Pattern + `)`
}

func alphaExpr(a AlphaClass, group string) string {
	if group == "" {
		return leftBoundary + a.Pattern + rightBoundary
	}
	return leftBoundary + `(?<` + group + `>` + a.Pattern + `)` + rightBoundary
}

// side builds one side of a pair given a capture group name.
type side func(group string) string

// pairExpr builds the two-orientation alternation of a paired category.
// The branch with the left side first in the text is tried first; the left
// side is captured as l1/l2 and the right side as r1/r2.
func pairExpr(left, right side) string {
	return `(?:` + left("l1") + separator + right("r1") +
		`|` + right("r2") + separator + left("l2") + `)`
}

// notNextTo wraps expr so it only matches when no neighbour token sits on
// either side of it across a separator.
func notNextTo(expr, neighbour string) string {
	return `(?<!` + neighbour + separator + `)` + expr + `(?!` + separator + neighbour + `)`
}

// ---------------------------------------------------------------------------
// Matchers
// ---------------------------------------------------------------------------

// Matcher scans one text and returns the tokens of one column in
// left-to-right order.  Implementations must be safe for concurrent use.
type Matcher interface {
	Column() Column
	Source() string
	FindAll(text string) ([]string, error)
}

type regexMatcher struct {
	column Column
	re     *regexp2.Regexp
	pair   bool
}

func (m *regexMatcher) Column() Column { return m.column }
func (m *regexMatcher) Source() string { return m.re.String() }

func (m *regexMatcher) FindAll(text string) ([]string, error) {
	var out []string
	err := eachMatch(m.re, text, func(match *regexp2.Match) {
		if tok, ok := m.emit(match); ok {
			out = append(out, tok)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// eachMatch calls fn for every non-overlapping match of re in text, left to
// right.
func eachMatch(re *regexp2.Regexp, text string, fn func(*regexp2.Match)) error {
	match, err := re.FindStringMatch(text)
	for err == nil && match != nil {
		fn(match)
		match, err = re.FindNextMatch(match)
	}
	return err
}

func (m *regexMatcher) emit(match *regexp2.Match) (string, bool) {
	if !m.pair {
		tok, ok := groupValue(match, tokenGroup)
		return finish(tok), ok
	}
	left, ok := groupValue(match, "l1")
	right, _ := groupValue(match, "r1")
	if !ok {
		left, ok = groupValue(match, "l2")
		right, _ = groupValue(match, "r2")
	}
	if !ok {
		return "", false
	}
	left = strings.ReplaceAll(finish(left), ":", ColonPlaceholder)
	right = strings.ReplaceAll(finish(right), ":", ColonPlaceholder)
	return left + ":" + right, true
}

// finish upper-cases a reported token.  Case sensitivity only decides what
// matches, never how it is reported.
func finish(tok string) string { return strings.ToUpper(tok) }

func groupValue(match *regexp2.Match, name string) (string, bool) {
	g := match.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return "", false
	}
	return g.String(), true
}

// termMatcher reports a standalone term column minus the occurrences that a
// pair column already reported as its left side.  A term next to a token
// that some other pair consumed is still reported here.
type termMatcher struct {
	regexMatcher
	pairs []*regexp2.Regexp
}

type span struct{ start, end int }

func (m *termMatcher) FindAll(text string) ([]string, error) {
	var paired []span
	for _, re := range m.pairs {
		err := eachMatch(re, text, func(match *regexp2.Match) {
			if g := leftSide(match); g != nil {
				paired = append(paired, span{g.Index, g.Index + g.Length})
			}
		})
		if err != nil {
			return nil, err
		}
	}

	var out []string
	err := eachMatch(m.re, text, func(match *regexp2.Match) {
		g := match.GroupByName(tokenGroup)
		if g == nil || len(g.Captures) == 0 {
			return
		}
		for _, p := range paired {
			if g.Index < p.end && p.start < g.Index+g.Length {
				return
			}
		}
		out = append(out, finish(g.String()))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func leftSide(match *regexp2.Match) *regexp2.Group {
	for _, name := range []string{"l1", "l2"} {
		if g := match.GroupByName(name); g != nil && len(g.Captures) > 0 {
			return g
		}
	}
	return nil
}

// pairedBy lists, for each standalone term column, the pair columns whose
// left side is a term of the same category.
var pairedBy = map[Column][]Column{
	ColumnOrgTerms:  {ColumnOrgDigitPair},
	ColumnUnitTerms: {ColumnUnitDigitPair, ColumnUnitAlphaPair},
}

// emptyMatcher is used for a category none of whose branches can exist.
type emptyMatcher struct{ column Column }

func (m emptyMatcher) Column() Column                   { return m.column }
func (m emptyMatcher) Source() string                   { return "" }
func (m emptyMatcher) FindAll(string) ([]string, error) { return nil, nil }

// brokenMatcher carries a compile error; every scan returns it, which fails
// the category without affecting the others.
type brokenMatcher struct {
	column Column
	source string
	err    error
}

func (m brokenMatcher) Column() Column                   { return m.column }
func (m brokenMatcher) Source() string                   { return m.source }
func (m brokenMatcher) FindAll(string) ([]string, error) { return nil, m.err }

// ---------------------------------------------------------------------------
// PatternSet
// ---------------------------------------------------------------------------

// PatternSet is the immutable bundle of per-column matchers for one run.
type PatternSet struct {
	fragments   GlossaryFragments
	alpha       AlphaClass
	numeric     NumericClass
	columns     []Column
	matchers    map[Column]Matcher
	fingerprint string
}

// CompilePatternSet builds the nine required matchers, plus Special_Numbers
// when special_num_lengths is set.  Only an invalid cfg is an error; a
// category whose regex fails to compile carries the failure in its matcher.
func CompilePatternSet(entries []GlossaryEntry, cfg ExtractionConfig) (*PatternSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fold := cfg.CaseInsensitive
	ps := &PatternSet{
		fragments: CompileGlossary(entries, cfg.StemThreshold, cfg.MaxSuffixLen, fold),
		alpha:     BuildAlphaClass(cfg.AlphaLetters, cfg.AlphaTokens, fold),
		numeric:   BuildNumericClass(cfg.NumMinLen, cfg.NumMaxLen),
		matchers:  make(map[Column]Matcher),
	}

	sources := ps.sources(cfg)
	ps.columns = append(ps.columns, baseColumns...)
	if cfg.SpecialNumbersEnabled() {
		ps.columns = append(ps.columns, ColumnSpecialNumbers)
	}

	opts := regexp2.None
	if fold {
		opts |= regexp2.IgnoreCase
	}
	h := sha256.New()
	if fold {
		h.Write([]byte("fold\n"))
	}
	compiled := make(map[Column]*regexp2.Regexp, len(sources))
	compileErrs := make(map[Column]error)
	for _, col := range ps.columns {
		src, ok := sources[col]
		h.Write([]byte(string(col) + "\t" + src + "\n"))
		if !ok {
			continue
		}
		re, err := regexp2.Compile(src, opts)
		if err != nil {
			compileErrs[col] = err
			continue
		}
		if cfg.MatchTimeout > 0 {
			re.MatchTimeout = cfg.MatchTimeout
		}
		compiled[col] = re
	}
	for _, col := range ps.columns {
		ps.matchers[col] = buildMatcher(col, sources[col], compiled, compileErrs)
	}
	ps.fingerprint = hex.EncodeToString(h.Sum(nil))
	return ps, nil
}

func buildMatcher(col Column, src string, compiled map[Column]*regexp2.Regexp, compileErrs map[Column]error) Matcher {
	if err, ok := compileErrs[col]; ok {
		return brokenMatcher{column: col, source: src, err: err}
	}
	re, ok := compiled[col]
	if !ok {
		return emptyMatcher{column: col}
	}
	if _, isPair := pairColumn(col); isPair {
		return &regexMatcher{column: col, re: re, pair: true}
	}
	pairCols, isTerm := pairedBy[col]
	if !isTerm {
		return &regexMatcher{column: col, re: re}
	}
	m := &termMatcher{regexMatcher: regexMatcher{column: col, re: re}}
	for _, pc := range pairCols {
		if err, ok := compileErrs[pc]; ok {
			return brokenMatcher{column: col, source: src, err: fmt.Errorf("%s: %w", pc, err)}
		}
		if pre, ok := compiled[pc]; ok {
			m.pairs = append(m.pairs, pre)
		}
	}
	return m
}

// sources returns the regex source of every column that has at least one
// satisfiable branch.
func (ps *PatternSet) sources(cfg ExtractionConfig) map[Column]string {
	out := make(map[Column]string)
	org, unit, role := ps.fragments.Organization, ps.fragments.Unit, ps.fragments.Role
	num := ps.numeric.Pattern()

	orgSide := func(g string) string { return termExpr(org, g) }
	unitSide := func(g string) string { return termExpr(unit, g) }
	alphaSide := func(g string) string { return alphaExpr(ps.alpha, g) }
	digitSide := func(g string) string { return ps.numeric.Capture(g) }

	if !org.Empty {
		out[ColumnOrgTerms] = termExpr(org, tokenGroup)
		out[ColumnOrgDigitPair] = pairExpr(orgSide, digitSide)
	}
	if !unit.Empty {
		out[ColumnUnitTerms] = termExpr(unit, tokenGroup)
		out[ColumnUnitDigitPair] = pairExpr(unitSide, digitSide)
		if !ps.alpha.Empty {
			out[ColumnUnitAlphaPair] = pairExpr(unitSide, alphaSide)
		}
	}
	if !role.Empty {
		out[ColumnRoleTerms] = termExpr(role, tokenGroup)
	}
	if !ps.alpha.Empty {
		out[ColumnUncharAlpha] = notNextTo(alphaExpr(ps.alpha, tokenGroup), num)
		out[ColumnAlphaDigitPair] = pairExpr(alphaSide, digitSide)
	}
	out[ColumnUncharDigits] = ps.numeric.Capture(tokenGroup)
	if cfg.SpecialNumbersEnabled() {
		out[ColumnSpecialNumbers] = specialNumberPattern(cfg.SpecialNumLengths, tokenGroup)
	}
	return out
}

// Columns returns the category columns in output order (split columns are
// not included).
func (ps *PatternSet) Columns() []Column {
	out := make([]Column, len(ps.columns))
	copy(out, ps.columns)
	return out
}

// Matcher returns the matcher of col.
func (ps *PatternSet) Matcher(col Column) (Matcher, bool) {
	m, ok := ps.matchers[col]
	return m, ok
}

// Fingerprint identifies the compiled patterns.  Two sets with the same
// fingerprint produce identical output for every text.
func (ps *PatternSet) Fingerprint() string { return ps.fingerprint }

// Fragments returns the compiled glossary fragments.
func (ps *PatternSet) Fragments() GlossaryFragments { return ps.fragments }

// Alpha returns the alphabetic token class.
func (ps *PatternSet) Alpha() AlphaClass { return ps.alpha }

// Numeric returns the numeric token class.
func (ps *PatternSet) Numeric() NumericClass { return ps.numeric }

// ColumnSource is the regex source of one column.
type ColumnSource struct {
	Column Column `json:"column"`
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}

// Sources lists every column's regex source in output order.  Columns with
// no satisfiable branch have an empty source.
func (ps *PatternSet) Sources() []ColumnSource {
	out := make([]ColumnSource, 0, len(ps.columns))
	for _, col := range ps.columns {
		m := ps.matchers[col]
		cs := ColumnSource{Column: col, Source: m.Source()}
		if b, ok := m.(brokenMatcher); ok {
			cs.Error = b.err.Error()
		}
		out = append(out, cs)
	}
	return out
}

// WithMatcher returns a copy of the set with m replacing the matcher of
// m.Column().  The fingerprint is cleared so the copy is never cached.
func (ps *PatternSet) WithMatcher(m Matcher) *PatternSet {
	clone := *ps
	clone.matchers = make(map[Column]Matcher, len(ps.matchers))
	for k, v := range ps.matchers {
		clone.matchers[k] = v
	}
	clone.matchers[m.Column()] = m
	clone.fingerprint = ""
	return &clone
}

func pairColumn(col Column) (PairSpec, bool) {
	for _, p := range PairSpecs {
		if p.Column == col {
			return p, true
		}
	}
	return PairSpec{}, false
}

//Personal.AI order the ending
