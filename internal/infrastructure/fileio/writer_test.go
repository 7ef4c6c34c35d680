package fileio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rx "github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
)

func sampleResult() *rx.Result {
	return &rx.Result{
		InputColumns: []string{"Name", "Id"},
		Columns:      []rx.Column{rx.ColumnOrgTerms, rx.ColumnUnitTerms},
		Rows: []rx.OutputRow{
			{Values: []string{"RN Sgt", "7"}, Tokens: map[rx.Column][]string{rx.ColumnOrgTerms: {"RN"}}},
			{Values: []string{"Pte"}, Tokens: map[rx.Column][]string{rx.ColumnUnitTerms: {"1st Bn", "B"}}},
		},
	}
}

func TestWriteResult_CSV(t *testing.T) {
	out, err := EncodeResult(sampleResult(), FormatCSV)
	require.NoError(t, err)
	want := "Name,Id,Org_Terms,Unit_Terms\n" +
		"RN Sgt,7,\"[\"\"RN\"\"]\",[]\n" +
		"Pte,,[],\"[\"\"1st Bn\"\",\"\"B\"\"]\"\n"
	assert.Equal(t, want, string(out))
}

func TestWriteResult_JSONL(t *testing.T) {
	out, err := EncodeResult(sampleResult(), FormatJSONL)
	require.NoError(t, err)
	want := `{"Name":"RN Sgt","Id":"7","Org_Terms":["RN"],"Unit_Terms":[]}` + "\n" +
		`{"Name":"Pte","Id":"","Org_Terms":[],"Unit_Terms":["1st Bn","B"]}` + "\n"
	assert.Equal(t, want, string(out))
}

func TestRowObjects(t *testing.T) {
	rows, err := RowObjects(sampleResult())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.JSONEq(t, `{"Name":"Pte","Id":"","Org_Terms":[],"Unit_Terms":["1st Bn","B"]}`, string(rows[1]))
	assert.Equal(t, `{"Name":"RN Sgt","Id":"7","Org_Terms":["RN"],"Unit_Terms":[]}`, string(rows[0]))

	_, err = RowObjects(nil)
	assert.Error(t, err)
}

func TestWriteResult_Errors(t *testing.T) {
	_, err := EncodeResult(nil, FormatCSV)
	assert.Error(t, err)
	_, err = EncodeResult(sampleResult(), FormatYAML)
	assert.Error(t, err)
}

func TestWriteResultFile_ReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, WriteResultFile(path, sampleResult()))

	table, err := ReadRecordsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Id", "Org_Terms", "Unit_Terms"}, table.Columns)
	assert.Equal(t, `["RN"]`, table.Rows[0][2])
}

//Personal.AI order the ending
