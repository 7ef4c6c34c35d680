package roster_extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rostertag/pkg/errors"
)

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"Organization Term": CategoryOrganization,
		"organization term": CategoryOrganization,
		"Organisation":      CategoryOrganization,
		"Unit Term":         CategoryUnit,
		"  unit   term ":    CategoryUnit,
		"Role Term":         CategoryRole,
		"Rank":              CategoryRole,
	}
	for in, want := range cases {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCategory("Weapon Term")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGlossaryTermType))
}

func TestCategory_TermType(t *testing.T) {
	assert.Equal(t, "Unit Term", CategoryUnit.TermType())
	assert.Equal(t, "Organization Term", CategoryOrganization.TermType())
}

func TestSplitAbbreviations(t *testing.T) {
	assert.Nil(t, SplitAbbreviations("   "))
	assert.Equal(t, []string{"PIR"}, SplitAbbreviations("PIR"))
	assert.Equal(t, []string{"Co", "Coy"}, SplitAbbreviations("Co; Coy; Co"))
	assert.Equal(t, []string{"Bn", "Btn"}, SplitAbbreviations("Bn|Btn"))
	assert.Equal(t, []string{"Sgt", "Sgt."}, SplitAbbreviations("Sgt, Sgt."))
	// semicolons win over commas
	assert.Equal(t, []string{"HQ, Co", "HHC"}, SplitAbbreviations("HQ, Co;HHC"))
}

func TestNewGlossaryEntry(t *testing.T) {
	e, err := NewGlossaryEntry(" Parachute Infantry Regiment ", []string{"PIR", "", "PIR"}, "Unit Term")
	require.NoError(t, err)
	assert.Equal(t, "Parachute Infantry Regiment", e.CanonicalTerm)
	assert.Equal(t, []string{"PIR"}, e.Abbreviations)
	assert.Equal(t, CategoryUnit, e.Category)
	assert.Equal(t, []string{"Parachute Infantry Regiment", "PIR"}, e.SurfaceForms())

	_, err = NewGlossaryEntry("  ", nil, "Unit Term")
	assert.True(t, errors.IsCode(err, errors.ErrCodeGlossaryInvalid))

	_, err = NewGlossaryEntry("Company", nil, "Thing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeGlossaryTermType))
}

func TestPairSpec_DerivedColumns(t *testing.T) {
	want := map[Column][2]Column{
		ColumnOrgDigitPair:   {"Org_Term_Digit_Term:Org", "Org_Term_Digit_Term:Digit"},
		ColumnUnitDigitPair:  {"Unit_Term_Digit_Term:Unit", "Unit_Term_Digit_Term:Digit"},
		ColumnUnitAlphaPair:  {"Unit_Term_Alpha_Term:Unit", "Unit_Term_Alpha_Term:Alpha"},
		ColumnAlphaDigitPair: {"Alpha_Digit:Alpha", "Alpha_Digit:Digit"},
	}
	for _, p := range PairSpecs {
		assert.Equal(t, want[p.Column][0], p.LeftColumn())
		assert.Equal(t, want[p.Column][1], p.RightColumn())
	}
}

func TestOutputColumns(t *testing.T) {
	cols := OutputColumns(false)
	assert.Len(t, cols, 5+3*4)
	assert.Equal(t, ColumnOrgTerms, cols[0])
	assert.Equal(t, ColumnOrgDigitPair, cols[5])
	assert.NotContains(t, cols, ColumnSpecialNumbers)

	withSpecial := OutputColumns(true)
	assert.Equal(t, ColumnSpecialNumbers, withSpecial[len(withSpecial)-1])
}

func TestSentinels(t *testing.T) {
	s := ExtractionSentinel(ColumnRoleTerms)
	assert.Equal(t, "[EXTRACTION_FAILED:Role_Terms]", s)
	assert.True(t, IsSentinel(s))
	assert.True(t, IsSentinel(SplitSentinel("Alpha_Digit:Alpha")))
	assert.False(t, IsSentinel("CO:E"))
	assert.False(t, IsSentinel("[EXTRACTION_FAILED:"))
}

func TestTable_ColumnIndex(t *testing.T) {
	tbl := &Table{Columns: []string{"ID", "Name"}}
	assert.Equal(t, 1, tbl.ColumnIndex("Name"))
	assert.Equal(t, -1, tbl.ColumnIndex("Notes"))
	var nilTable *Table
	assert.Equal(t, -1, nilTable.ColumnIndex("Name"))
	assert.Equal(t, "", cell([]string{"a"}, 3))
	assert.Equal(t, "", cell([]string{"a"}, -1))
}

func TestDiagnostics_FailedColumnsSorted(t *testing.T) {
	d := newDiagnostics()
	assert.False(t, d.HasErrors())
	d.Errors[ColumnUnitTerms] = "x"
	d.Errors[ColumnOrgTerms] = "y"
	assert.True(t, d.HasErrors())
	assert.Equal(t, []string{"Org_Terms", "Unit_Terms"}, d.FailedColumns())
}
