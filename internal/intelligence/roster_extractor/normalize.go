package roster_extractor

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FieldSeparator joins the text and notes fields of a record.  The pipe is
// neither a letter nor a pattern separator, so no token or pair can span the
// two fields.
const FieldSeparator = " || "

// punctFolder maps typographic quotes and dashes onto ASCII.
var punctFolder = runes.Map(func(r rune) rune {
	switch r {
	case '‘', '’', '‚', '‛', '′', '´', '`':
		return '\''
	case '“', '”', '„', '‟', '″', '«', '»':
		return '"'
	case '‐', '‑', '‒', '–', '—', '―', '−', '﹘', '﹣', '－':
		return '-'
	}
	return r
})

// NormalizeText applies NFC composition, folds typographic punctuation,
// collapses whitespace runs to one space and, when fold is set, case-folds.
func NormalizeText(s string, fold bool) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFC, punctFolder)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.Join(strings.Fields(out), " ")
	if fold {
		out = cases.Fold().String(out)
	}
	return out
}

// CombineFields normalizes a record's text and notes fields into the single
// text used as the deduplication key.  Missing notes contribute nothing.
func CombineFields(text, notes string, fold bool) string {
	t := NormalizeText(text, fold)
	n := NormalizeText(notes, fold)
	if n == "" {
		return t
	}
	return t + FieldSeparator + n
}

func isLetter(r rune) bool { return unicode.IsLetter(r) }

//Personal.AI order the ending
