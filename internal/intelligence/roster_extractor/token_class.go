package roster_extractor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
)

// AlphaClass matches one alphabetic designator: a configured single letter
// or an explicit multi-character token.  Boundaries are applied by callers.
type AlphaClass struct {
	Pattern string   `json:"pattern"`
	Letters []string `json:"letters,omitempty"`
	Tokens  []string `json:"tokens,omitempty"`
	Empty   bool     `json:"empty"`
}

// BuildAlphaClass builds the alphabetic matcher.  Letters are normalized and
// de-duplicated; multi-character tokens are ordered longest-first so "viii"
// is tried before "v".
func BuildAlphaClass(letters, tokens []string, fold bool) AlphaClass {
	letterSet := make(map[string]struct{})
	for _, l := range letters {
		if n := NormalizeText(l, fold); n != "" {
			letterSet[n] = struct{}{}
		}
	}
	tokenSet := make(map[string]struct{})
	for _, t := range tokens {
		n := NormalizeText(t, fold)
		if n == "" {
			continue
		}
		if isSingleLetter(n) {
			letterSet[n] = struct{}{}
			continue
		}
		tokenSet[n] = struct{}{}
	}
	if len(letterSet) == 0 && len(tokenSet) == 0 {
		return AlphaClass{Empty: true}
	}

	ls := keys(letterSet)
	sort.Strings(ls)
	ts := keys(tokenSet)
	sortLongestFirst(ts)

	var branches []string
	if len(ts) > 0 {
		branches = append(branches, escapeAll(ts))
	}
	if len(ls) > 0 {
		var sb strings.Builder
		sb.WriteString("[")
		for _, l := range ls {
			sb.WriteString(regexp2.Escape(l))
		}
		sb.WriteString("]")
		branches = append(branches, sb.String())
	}
	return AlphaClass{
		Pattern: `(?:` + strings.Join(branches, "|") + `)`,
		Letters: ls,
		Tokens:  ts,
	}
}

// ordinalSuffix is the optional English ordinal after a number, matched
// case-insensitively whatever the run-wide setting.
const ordinalSuffix = `(?i:st|nd|rd|th)`

// NumericClass matches digit runs of a bounded length with an optional
// ordinal suffix.  A numeric token never touches a letter or another digit,
// so "1944" does not yield "194" when the upper bound is 3.
type NumericClass struct {
	MinLen int `json:"min_len"`
	MaxLen int `json:"max_len"`
}

// BuildNumericClass returns the numeric matcher for [minLen, maxLen].
func BuildNumericClass(minLen, maxLen int) NumericClass {
	return NumericClass{MinLen: minLen, MaxLen: maxLen}
}

func (n NumericClass) digits() string {
	if n.MinLen == n.MaxLen {
		return fmt.Sprintf(`[0-9]{%d}`, n.MinLen)
	}
	return fmt.Sprintf(`[0-9]{%d,%d}`, n.MinLen, n.MaxLen)
}

// Pattern is the numeric token without captures, for use inside lookarounds.
func (n NumericClass) Pattern() string {
	return `(?<![\p{L}0-9])` + n.digits() + ordinalSuffix + `?(?![\p{L}0-9])`
}

// Capture is the numeric token with the digits (and only the digits) in the
// named group, which strips the ordinal suffix from the reported value.
func (n NumericClass) Capture(group string) string {
	return `(?<![\p{L}0-9])(?<` + group + `>` + n.digits() + `)` + ordinalSuffix + `?(?![\p{L}0-9])`
}

// specialNumberPattern matches digit runs of exactly one of lengths, not
// adjacent to another digit.  Longer lengths are tried first.
func specialNumberPattern(lengths []int, group string) string {
	uniq := make(map[int]struct{}, len(lengths))
	for _, l := range lengths {
		uniq[l] = struct{}{}
	}
	ls := make([]int, 0, len(uniq))
	for l := range uniq {
		ls = append(ls, l)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ls)))
	alts := make([]string, len(ls))
	for i, l := range ls {
		alts[i] = fmt.Sprintf(`[0-9]{%d}`, l)
	}
	return `(?<![0-9])(?<` + group + `>` + strings.Join(alts, "|") + `)(?![0-9])`
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

//Personal.AI order the ending
