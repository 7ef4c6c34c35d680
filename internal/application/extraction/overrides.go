package extraction

import (
	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
)

// Overrides changes selected fields of the service's base configuration for
// one request.  A nil field keeps the base value; an empty, non-nil slice
// clears it.
type Overrides struct {
	StemThreshold     *int     `json:"stem_threshold,omitempty"`
	MaxSuffixLen      *int     `json:"max_suffix_len,omitempty"`
	NumMinLen         *int     `json:"num_min_len,omitempty"`
	NumMaxLen         *int     `json:"num_max_len,omitempty"`
	AlphaLetters      []string `json:"alpha_letters,omitempty"`
	AlphaTokens       []string `json:"alpha_tokens,omitempty"`
	SpecialNumLengths []int    `json:"special_num_lengths,omitempty"`
	CaseInsensitive   *bool    `json:"case_insensitive,omitempty"`
	TextColumn        *string  `json:"text_column,omitempty"`
	NotesColumn       *string  `json:"notes_column,omitempty"`
}

// Apply returns base with the overrides laid on top.  A nil receiver returns
// base unchanged.
func (o *Overrides) Apply(base rx.ExtractionConfig) rx.ExtractionConfig {
	cfg := base
	cfg.AlphaLetters = append([]string(nil), base.AlphaLetters...)
	cfg.AlphaTokens = append([]string(nil), base.AlphaTokens...)
	cfg.SpecialNumLengths = append([]int(nil), base.SpecialNumLengths...)
	if o == nil {
		return cfg
	}

	if o.StemThreshold != nil {
		cfg.StemThreshold = *o.StemThreshold
	}
	if o.MaxSuffixLen != nil {
		cfg.MaxSuffixLen = *o.MaxSuffixLen
	}
	if o.NumMinLen != nil {
		cfg.NumMinLen = *o.NumMinLen
	}
	if o.NumMaxLen != nil {
		cfg.NumMaxLen = *o.NumMaxLen
	}
	if o.AlphaLetters != nil {
		cfg.AlphaLetters = append([]string{}, o.AlphaLetters...)
	}
	if o.AlphaTokens != nil {
		cfg.AlphaTokens = append([]string{}, o.AlphaTokens...)
	}
	if o.SpecialNumLengths != nil {
		cfg.SpecialNumLengths = append([]int{}, o.SpecialNumLengths...)
	}
	if o.CaseInsensitive != nil {
		cfg.CaseInsensitive = *o.CaseInsensitive
	}
	if o.TextColumn != nil {
		cfg.TextColumn = *o.TextColumn
	}
	if o.NotesColumn != nil {
		cfg.NotesColumn = *o.NotesColumn
	}
	return cfg
}

// Empty reports whether no field is set.
func (o *Overrides) Empty() bool {
	return o == nil || (o.StemThreshold == nil && o.MaxSuffixLen == nil && o.NumMinLen == nil &&
		o.NumMaxLen == nil && o.AlphaLetters == nil && o.AlphaTokens == nil && o.SpecialNumLengths == nil &&
		o.CaseInsensitive == nil && o.TextColumn == nil && o.NotesColumn == nil)
}

//Personal.AI order the ending
