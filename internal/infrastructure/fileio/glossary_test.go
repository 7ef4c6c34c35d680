package fileio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
	"github.com/turtacn/rostertag/pkg/errors"
)

func TestReadGlossary_CSV(t *testing.T) {
	doc := "\ufeffFull_Term, Abbreviations ,TERM_TYPE\n" +
		"Infantry Battalion,Inf Bn; IB,Unit Term\n" +
		",,\n" +
		"Royal Navy,RN,Organization Term\n" +
		"Sergeant,\"Sgt, Sjt\",Role\n"

	entries, err := ReadGlossary(strings.NewReader(doc), FormatCSV)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Infantry Battalion", entries[0].CanonicalTerm)
	assert.Equal(t, []string{"Inf Bn", "IB"}, entries[0].Abbreviations)
	assert.Equal(t, rx.CategoryUnit, entries[0].Category)
	assert.Equal(t, rx.CategoryOrganization, entries[1].Category)
	assert.Equal(t, []string{"Sgt", "Sjt"}, entries[2].Abbreviations)
	assert.Equal(t, rx.CategoryRole, entries[2].Category)
}

func TestReadGlossary_CSVErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.ErrorCode
		msg  string
	}{
		{"empty", "", errors.ErrCodeGlossaryFormat, "empty"},
		{"missing column", "full_term,term_type\nA,Unit\n", errors.ErrCodeGlossaryFormat, "abbreviations"},
		{"unknown type", "full_term,abbreviations,term_type\nA,,Unit\nB,,Vehicle\n", errors.ErrCodeGlossaryInvalid, "row 2"},
		{"empty term", "full_term,abbreviations,term_type\n ,X,Unit\n", errors.ErrCodeGlossaryInvalid, "row 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGlossary(strings.NewReader(tt.doc), FormatCSV)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), err.Error())
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestReadGlossary_YAML(t *testing.T) {
	doc := `
- full_term: Infantry Battalion
  abbreviations: [Inf Bn, IB]
  term_type: Unit Term
- full_term: Royal Navy
  abbreviations: "RN | R.N."
  term_type: Organization Term
- full_term: Private
  term_type: Role Term
`
	entries, err := ReadGlossary(strings.NewReader(doc), FormatYAML)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"Inf Bn", "IB"}, entries[0].Abbreviations)
	assert.Equal(t, []string{"RN", "R.N."}, entries[1].Abbreviations)
	assert.Empty(t, entries[2].Abbreviations)
}

func TestReadGlossary_JSON(t *testing.T) {
	doc := `[
		{"full_term": "Infantry Battalion", "abbreviations": ["Inf Bn"], "term_type": "unit"},
		{"full_term": "Royal Navy", "abbreviations": "RN; RNVR", "term_type": "Organization Term"}
	]`
	entries, err := ReadGlossary(strings.NewReader(doc), FormatJSON)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"RN", "RNVR"}, entries[1].Abbreviations)

	_, err = ReadGlossary(strings.NewReader(`[{"full_term": "X", "abbreviations": 3, "term_type": "Unit"}]`), FormatJSON)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGlossaryFormat))

	_, err = ReadGlossary(strings.NewReader(`[{"full_term": "X", "term_type": "Ship"}]`), FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")
}

func TestReadGlossaryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glossary.yml")
	require.NoError(t, os.WriteFile(path, []byte("- {full_term: Navy, term_type: Organization}\n"), 0o600))

	entries, err := ReadGlossaryFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = ReadGlossaryFile(filepath.Join(dir, "missing.csv"))
	assert.True(t, errors.IsNotFound(err))

	_, err = ReadGlossaryFile(filepath.Join(dir, "glossary.txt"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"CSV": FormatCSV, ".yml": FormatYAML, "ndjson": FormatJSONL, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xlsx")
	assert.Error(t, err)

	_, err = FormatFromPath("records")
	assert.Error(t, err)
}

//Personal.AI order the ending
