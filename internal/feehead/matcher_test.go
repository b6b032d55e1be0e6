package feehead

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var catalog = []FeeHead{
	{ID: 1, Name: "Tuition Fee"},
	{ID: 2, Name: "Library Fee"},
	{ID: 3, Name: "Hostel Fee"},
	{ID: 4, Name: "Transport Fee"},
}

func TestMatchHeadExact(t *testing.T) {
	head := MatchHead("Tuition Fee", catalog)
	require.NotNil(t, head)
	require.Equal(t, int64(1), head.ID)
}

func TestMatchHeadSubstring(t *testing.T) {
	head := MatchHead("Total Hostel Fee (Annual)", catalog)
	require.NotNil(t, head)
	require.Equal(t, int64(3), head.ID)
}

func TestMatchHeadFuzzyTypo(t *testing.T) {
	head := MatchHead("Tution Fee", catalog)
	require.NotNil(t, head)
	require.Equal(t, int64(1), head.ID)
}

func TestMatchHeadRejectsDistantNames(t *testing.T) {
	require.Nil(t, MatchHead("Admission No", catalog))
	require.Nil(t, MatchHead("Student Name", catalog))

	// Library vs Tuition: related words, distinct heads. Library matches
	// itself exactly, never Tuition through the fuzzy path.
	head := MatchHead("Library Fee", catalog)
	require.NotNil(t, head)
	require.Equal(t, int64(2), head.ID)
}

func TestMatchHeadFirstTopScoreWins(t *testing.T) {
	// Both candidates score 8/9 against the header; catalog order decides.
	dup := []FeeHead{
		{ID: 10, Name: "Sports Fee"},
		{ID: 11, Name: "Sporty Fee"},
	}
	head := MatchHead("Sport Fee", dup)
	require.NotNil(t, head)
	require.Equal(t, int64(10), head.ID)
}

func TestMatchHeadEmptyHeader(t *testing.T) {
	require.Nil(t, MatchHead("", catalog))
	require.Nil(t, MatchHead("  --  ", catalog))
}

func TestSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, Similarity("TUITIONFEE", "TUITIONFEE"), 1e-9)
	require.Greater(t, Similarity("TUTIONFEE", "TUITIONFEE"), 0.8)
	require.Less(t, Similarity("LIBRARYFEE", "TUITIONFEE"), 0.8)
	require.Equal(t, 0.0, Similarity("", "TUITIONFEE"))
}
