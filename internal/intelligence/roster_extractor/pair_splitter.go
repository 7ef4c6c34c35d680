package roster_extractor

import (
	"fmt"
	"strings"
)

// SplitPair splits one "LEFT:RIGHT" token on its first colon.
func SplitPair(tok string) (string, string, error) {
	i := strings.IndexByte(tok, ':')
	if i < 0 {
		return "", "", fmt.Errorf("paired token %q has no colon", tok)
	}
	return tok[:i], tok[i+1:], nil
}

// SplitTokens splits a per-text list of paired tokens into two index-aligned
// lists.  Sentinel tokens are copied to both sides unchanged; a malformed
// token is replaced by the split sentinel on both sides and reported through
// the returned error while the remaining tokens are still split.
func SplitTokens(spec PairSpec, tokens []string) (left, right []string, err error) {
	left = make([]string, len(tokens))
	right = make([]string, len(tokens))
	var bad []string
	for i, tok := range tokens {
		if IsSentinel(tok) {
			left[i], right[i] = tok, tok
			continue
		}
		l, r, splitErr := SplitPair(tok)
		if splitErr != nil {
			left[i], right[i] = SplitSentinel(spec.LeftColumn()), SplitSentinel(spec.RightColumn())
			bad = append(bad, tok)
			continue
		}
		left[i], right[i] = l, r
	}
	if len(bad) > 0 {
		err = fmt.Errorf("%s: %d malformed paired token(s): %s", spec.Column, len(bad), strings.Join(bad, ", "))
	}
	return left, right, err
}

// SplitCategory derives the left and right CategoryResults of a paired
// category.  When the paired category failed, both derived results carry
// its sentinel and error.
func SplitCategory(spec PairSpec, paired *CategoryResult) (left, right *CategoryResult) {
	left = &CategoryResult{
		Column:       spec.LeftColumn(),
		TokensByText: make(map[string][]string, len(paired.TokensByText)),
		Status:       StatusOK,
	}
	right = &CategoryResult{
		Column:       spec.RightColumn(),
		TokensByText: make(map[string][]string, len(paired.TokensByText)),
		Status:       StatusOK,
	}
	if paired.Failed() {
		left.Status, right.Status = StatusFailed, StatusFailed
		left.Error, right.Error = paired.Error, paired.Error
	}

	var errs []string
	for text, toks := range paired.TokensByText {
		l, r, err := SplitTokens(spec, toks)
		left.TokensByText[text] = l
		right.TokensByText[text] = r
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 && !paired.Failed() {
		msg := joinSorted(errs)
		left.Status, right.Status = StatusFailed, StatusFailed
		left.Error, right.Error = msg, msg
	}
	return left, right
}

//Personal.AI order the ending
