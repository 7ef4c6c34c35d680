package roster_extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPair(t *testing.T) {
	l, r, err := SplitPair("PIR:506")
	require.NoError(t, err)
	assert.Equal(t, "PIR", l)
	assert.Equal(t, "506", r)

	l, r, err = SplitPair("A:B:C")
	require.NoError(t, err)
	assert.Equal(t, "A", l)
	assert.Equal(t, "B:C", r)

	_, _, err = SplitPair("PIR")
	assert.Error(t, err)
}

func TestSplitTokens(t *testing.T) {
	spec := PairSpecs[1] // Unit_Term_Digit_Term
	sentinel := ExtractionSentinel(spec.Column)

	left, right, err := SplitTokens(spec, []string{"PIR:506", sentinel, "BN:2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PIR", sentinel, "BN"}, left)
	assert.Equal(t, []string{"506", sentinel, "2"}, right)

	left, right, err = SplitTokens(spec, []string{"broken", "BN:2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, []string{"[SPLIT_FAILED:Unit_Term_Digit_Term:Unit]", "BN"}, left)
	assert.Equal(t, []string{"[SPLIT_FAILED:Unit_Term_Digit_Term:Digit]", "2"}, right)

	left, right, err = SplitTokens(spec, []string{})
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Empty(t, right)
}

func TestSplitCategory_OK(t *testing.T) {
	spec := PairSpecs[2] // Unit_Term_Alpha_Term
	paired := &CategoryResult{
		Column: spec.Column,
		Status: StatusOK,
		TokensByText: map[string][]string{
			"co e":  {"CO:E"},
			"smith": {},
		},
	}
	left, right := SplitCategory(spec, paired)
	assert.Equal(t, ColumnUnitAlphaPair, paired.Column)
	assert.Equal(t, Column("Unit_Term_Alpha_Term:Unit"), left.Column)
	assert.Equal(t, Column("Unit_Term_Alpha_Term:Alpha"), right.Column)
	assert.False(t, left.Failed())
	assert.Equal(t, []string{"CO"}, left.TokensByText["co e"])
	assert.Equal(t, []string{"E"}, right.TokensByText["co e"])
	assert.Empty(t, left.TokensByText["smith"])
}

func TestSplitCategory_FailedPairPropagates(t *testing.T) {
	spec := PairSpecs[0]
	paired := failedCategory(spec.Column, []string{"x", "y"}, assert.AnError)
	left, right := SplitCategory(spec, paired)

	for _, d := range []*CategoryResult{left, right} {
		assert.True(t, d.Failed())
		assert.Equal(t, assert.AnError.Error(), d.Error)
		assert.Equal(t, []string{"[EXTRACTION_FAILED:Org_Term_Digit_Term:Pair]"}, d.TokensByText["x"])
	}
}

func TestSplitCategory_MalformedMarksDerivedFailed(t *testing.T) {
	spec := PairSpecs[3]
	paired := &CategoryResult{
		Column:       spec.Column,
		Status:       StatusOK,
		TokensByText: map[string][]string{"t1": {"nocolon"}, "t2": {"E:2"}},
	}
	left, right := SplitCategory(spec, paired)
	assert.True(t, left.Failed())
	assert.True(t, right.Failed())
	assert.Equal(t, []string{"E"}, left.TokensByText["t2"])
	assert.Equal(t, []string{"[SPLIT_FAILED:Alpha_Digit:Digit]"}, right.TokensByText["t1"])
}
