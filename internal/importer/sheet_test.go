package importer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type readSeeker struct{ *bytes.Reader }

func newReadSeeker(b []byte) readSeeker {
	return readSeeker{bytes.NewReader(b)}
}

func TestParseSheetCSV(t *testing.T) {
	csvBody := "Admission No,Tuition Fee\nA101,1000\nA102,\"2,500\"\n"
	grid, err := ParseSheet(newReadSeeker([]byte(csvBody)), "dues.CSV")
	require.NoError(t, err)
	require.Len(t, grid, 3)
	require.Equal(t, []string{"Admission No", "Tuition Fee"}, grid[0])
	require.Equal(t, "2,500", grid[2][1])
}

func TestParseSheetCSVRaggedRows(t *testing.T) {
	csvBody := "A,B,C\nx,y\nx,y,z,w\n"
	grid, err := ParseSheet(newReadSeeker([]byte(csvBody)), "dues.csv")
	require.NoError(t, err)
	require.Len(t, grid, 3)
	require.Len(t, grid[1], 2)
	require.Len(t, grid[2], 4)
}

func TestParseSheetXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"Admission No", "Tuition Fee"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"A101", "1000"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	grid, err := ParseSheet(newReadSeeker(buf.Bytes()), "dues.xlsx")
	require.NoError(t, err)
	require.Len(t, grid, 2)
	require.Equal(t, "A101", grid[1][0])
}

func TestParseSheetUnsupportedExtension(t *testing.T) {
	_, err := ParseSheet(newReadSeeker(nil), "dues.pdf")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported file type")
}

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"1000":      1000,
		"Rs. 2,500": 2500,
		"₹1,200.50": 1200.50,
		"-300":      -300,
		"":          0,
		"N/A":       0,
		"-":         0,
	}
	for raw, want := range cases {
		require.InDelta(t, want, parseAmount(raw), 1e-9, "input %q", raw)
	}
}

func TestParseYear(t *testing.T) {
	cases := map[string]int{
		"1": 1, "4": 4, "I": 1, "iii": 3, "IV": 4,
		"": 1, "5": 1, "0": 1, "final": 1,
	}
	for raw, want := range cases {
		require.Equal(t, want, parseYear(raw), "input %q", raw)
	}
}

func TestParseYearSem(t *testing.T) {
	cases := map[string][2]int{
		"1-2": {1, 2},
		"3/1": {3, 1},
		"12":  {1, 2},
		"II":  {2, 1},
		"2":   {2, 1},
		"":    {1, 1},
	}
	for raw, want := range cases {
		year, sem := parseYearSem(raw)
		require.Equal(t, want[0], year, "year for %q", raw)
		require.Equal(t, want[1], sem, "sem for %q", raw)
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// Spreadsheet serial: day 45292 is 2024-01-01.
	got := parseDate("45292", now)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)

	require.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), parseDate("2024-01-15", now))
	require.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), parseDate("15/01/2024", now))
	require.Equal(t, now, parseDate("not a date", now))
	require.Equal(t, now, parseDate("", now))
}

func TestCellAt(t *testing.T) {
	row := []string{" a ", "b"}
	require.Equal(t, "a", cellAt(row, 0))
	require.Equal(t, "", cellAt(row, 5))
	require.Equal(t, "", cellAt(row, -1))
}

func TestLowerTrim(t *testing.T) {
	require.Equal(t, "a101", lowerTrim("  A101 "))
	require.Equal(t, "", lowerTrim(strings.Repeat(" ", 3)))
}
