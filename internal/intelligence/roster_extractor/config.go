package roster_extractor

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/turtacn/rostertag/pkg/errors"
)

// ExtractionConfig controls pattern compilation and the extraction run.
// The first eight fields shape the compiled patterns; the remaining fields
// only affect how a run reads records and schedules category workers.
type ExtractionConfig struct {
	StemThreshold     int      `json:"stem_threshold" yaml:"stem_threshold" mapstructure:"stem_threshold"`
	MaxSuffixLen      int      `json:"max_suffix_len" yaml:"max_suffix_len" mapstructure:"max_suffix_len"`
	NumMinLen         int      `json:"num_min_len" yaml:"num_min_len" mapstructure:"num_min_len"`
	NumMaxLen         int      `json:"num_max_len" yaml:"num_max_len" mapstructure:"num_max_len"`
	AlphaLetters      []string `json:"alpha_letters" yaml:"alpha_letters" mapstructure:"alpha_letters"`
	AlphaTokens       []string `json:"alpha_tokens" yaml:"alpha_tokens" mapstructure:"alpha_tokens"`
	SpecialNumLengths []int    `json:"special_num_lengths" yaml:"special_num_lengths" mapstructure:"special_num_lengths"`
	CaseInsensitive   bool     `json:"case_insensitive" yaml:"case_insensitive" mapstructure:"case_insensitive"`

	// TextColumn is the required primary text field; NotesColumn is optional.
	TextColumn  string `json:"text_column" yaml:"text_column" mapstructure:"text_column"`
	NotesColumn string `json:"notes_column" yaml:"notes_column" mapstructure:"notes_column"`

	// Workers bounds concurrent category workers; 0 means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// MatchTimeout bounds a single regex scan of one text; 0 disables it.
	// A scan that times out fails its whole category.
	MatchTimeout time.Duration `json:"match_timeout" yaml:"match_timeout" mapstructure:"match_timeout"`
}

// DefaultAlphaLetters is the default single-letter alphabet, A through G.
func DefaultAlphaLetters() []string {
	return []string{"A", "B", "C", "D", "E", "F", "G"}
}

// DefaultExtractionConfig returns the documented defaults.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		StemThreshold:   3,
		MaxSuffixLen:    12,
		NumMinLen:       1,
		NumMaxLen:       3,
		AlphaLetters:    DefaultAlphaLetters(),
		CaseInsensitive: true,
		TextColumn:      "Name",
		NotesColumn:     "Notes",
		MatchTimeout:    5 * time.Second,
	}
}

// Validate reports contradictory or out-of-range settings.  Every error is
// a configuration error and must abort the run before extraction starts.
func (c ExtractionConfig) Validate() error {
	if c.StemThreshold < 0 {
		return errors.InvalidConfig("stem_threshold must be >= 0").WithDetail(fmt.Sprintf("got %d", c.StemThreshold))
	}
	if c.MaxSuffixLen < 0 {
		return errors.InvalidConfig("max_suffix_len must be >= 0").WithDetail(fmt.Sprintf("got %d", c.MaxSuffixLen))
	}
	if c.NumMinLen < 1 {
		return errors.New(errors.ErrCodeNumericBounds, "num_min_len must be >= 1").WithDetail(fmt.Sprintf("got %d", c.NumMinLen))
	}
	if c.NumMinLen > c.NumMaxLen {
		return errors.New(errors.ErrCodeNumericBounds, "num_min_len exceeds num_max_len").
			WithDetail(fmt.Sprintf("num_min_len=%d num_max_len=%d", c.NumMinLen, c.NumMaxLen))
	}
	for _, l := range c.AlphaLetters {
		if !isSingleLetter(strings.TrimSpace(l)) {
			return errors.InvalidConfig("alpha_letters entries must be single letters").WithDetail(fmt.Sprintf("%q", l))
		}
	}
	for _, tok := range c.AlphaTokens {
		if strings.TrimSpace(tok) == "" {
			return errors.InvalidConfig("alpha_tokens entries must be non-empty")
		}
	}
	for _, n := range c.SpecialNumLengths {
		if n < 1 {
			return errors.InvalidConfig("special_num_lengths entries must be >= 1").WithDetail(fmt.Sprintf("got %d", n))
		}
	}
	if c.Workers < 0 {
		return errors.InvalidConfig("workers must be >= 0")
	}
	if c.MatchTimeout < 0 {
		return errors.InvalidConfig("match_timeout must be >= 0")
	}
	if strings.TrimSpace(c.TextColumn) == "" {
		return errors.New(errors.ErrCodeMissingTextColumn, "text_column must be set")
	}
	return nil
}

// SpecialNumbersEnabled reports whether the optional Special_Numbers column
// is produced.
func (c ExtractionConfig) SpecialNumbersEnabled() bool {
	return len(c.SpecialNumLengths) > 0
}

func (c ExtractionConfig) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

//Personal.AI order the ending
