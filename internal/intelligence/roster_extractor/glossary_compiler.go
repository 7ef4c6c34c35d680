package roster_extractor

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Fragment is an alternation compiled from one category's surface forms.
// An Empty fragment has no forms; the pattern compiler drops every branch
// that would reference it instead of embedding a never-matching pattern.
type Fragment struct {
	Pattern string   `json:"pattern"`
	Short   []string `json:"short,omitempty"`
	Long    []string `json:"long,omitempty"`
	Empty   bool     `json:"empty"`
}

// GlossaryFragments holds one Fragment per category.
type GlossaryFragments struct {
	Organization Fragment `json:"organization"`
	Unit         Fragment `json:"unit"`
	Role         Fragment `json:"role"`
}

// ForCategory returns the fragment of c.
func (g GlossaryFragments) ForCategory(c Category) Fragment {
	switch c {
	case CategoryOrganization:
		return g.Organization
	case CategoryUnit:
		return g.Unit
	default:
		return g.Role
	}
}

// CompileGlossary turns glossary entries into three alternation fragments.
//
// Every surface form is normalized (see NormalizeText) and partitioned by
// rune length: forms no longer than stemThreshold are literals that must not
// be followed by a letter, longer forms are prefixes that may absorb up to
// maxSuffixLen trailing letters.  Both partitions are sorted longest-first
// with lexical tie-break, long forms ahead of short ones.  A fragment never
// asserts its left boundary; callers prepend it.
func CompileGlossary(entries []GlossaryEntry, stemThreshold, maxSuffixLen int, fold bool) GlossaryFragments {
	forms := map[Category]map[string]struct{}{
		CategoryOrganization: {},
		CategoryUnit:         {},
		CategoryRole:         {},
	}
	for _, e := range entries {
		set, ok := forms[e.Category]
		if !ok {
			continue
		}
		for _, f := range e.SurfaceForms() {
			if n := NormalizeText(f, fold); n != "" {
				set[n] = struct{}{}
			}
		}
	}
	return GlossaryFragments{
		Organization: buildFragment(forms[CategoryOrganization], stemThreshold, maxSuffixLen),
		Unit:         buildFragment(forms[CategoryUnit], stemThreshold, maxSuffixLen),
		Role:         buildFragment(forms[CategoryRole], stemThreshold, maxSuffixLen),
	}
}

func buildFragment(set map[string]struct{}, stemThreshold, maxSuffixLen int) Fragment {
	if len(set) == 0 {
		return Fragment{Empty: true}
	}
	var short, long []string
	for f := range set {
		if utf8.RuneCountInString(f) <= stemThreshold {
			short = append(short, f)
		} else {
			long = append(long, f)
		}
	}
	sortLongestFirst(short)
	sortLongestFirst(long)

	var branches []string
	if len(long) > 0 {
		branches = append(branches, fmt.Sprintf(`(?:%s)\p{L}{0,%d}`, escapeAll(long), maxSuffixLen))
	}
	if len(short) > 0 {
		branches = append(branches, fmt.Sprintf(`(?:%s)`, escapeAll(short)))
	}
	return Fragment{
		Pattern: `(?:` + strings.Join(branches, "|") + `)(?!\p{L})`,
		Short:   short,
		Long:    long,
	}
}

// sortLongestFirst orders by descending rune length, then lexically.
func sortLongestFirst(forms []string) {
	sort.Slice(forms, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(forms[i]), utf8.RuneCountInString(forms[j])
		if li != lj {
			return li > lj
		}
		return forms[i] < forms[j]
	})
}

func escapeAll(forms []string) string {
	escaped := make([]string, len(forms))
	for i, f := range forms {
		escaped[i] = regexp2.Escape(f)
	}
	return strings.Join(escaped, "|")
}

//Personal.AI order the ending
