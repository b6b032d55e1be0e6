package importer

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/campusledger/campusledger/internal/shared"
)

// excelEpochOffset converts spreadsheet serial dates to the Unix epoch:
// serial day 25569 is 1970-01-01.
const excelEpochOffset = 25569

const maxXLSRows = 65536

// ParseSheet reads an uploaded spreadsheet into a header row plus data rows.
// Supported formats: .xlsx, .xls, .csv.
func ParseSheet(r io.ReadSeeker, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		grid, err := reader.ReadAll()
		if err != nil {
			return nil, shared.WrapError(shared.KindValidation, "unreadable csv file", err)
		}
		return grid, nil
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, shared.WrapError(shared.KindValidation, "unreadable xlsx file", err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, shared.WrapError(shared.KindValidation, "unreadable xlsx sheet", err)
		}
		return rows, nil
	case ".xls":
		wb, err := xls.OpenReader(r, "utf-8")
		if err != nil {
			return nil, shared.WrapError(shared.KindValidation, "unreadable xls file", err)
		}
		return wb.ReadAllCells(maxXLSRows), nil
	default:
		return nil, shared.NewError(shared.KindValidation, "unsupported file type: "+filepath.Ext(filename))
	}
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// parseAmount reads a currency cell tolerating symbols and thousands
// separators. Unparseable cells are zero, never an error.
func parseAmount(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return 0
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

var romanYears = map[string]int{"I": 1, "II": 2, "III": 3, "IV": 4}

// parseYear maps roman numerals I-IV and plain digits 1-4 to a student year;
// anything else defaults to 1.
func parseYear(raw string) int {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if y, ok := romanYears[t]; ok {
		return y
	}
	if n, err := strconv.Atoi(t); err == nil && n >= 1 && n <= 4 {
		return n
	}
	return 1
}

// parseYearSem decodes combined year/semester codes: "12" is year 1
// semester 2, "1-2" and "1/2" split on the separator, bare roman numerals
// default the semester to 1.
func parseYearSem(raw string) (int, int) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" {
		return 1, 1
	}
	for _, sep := range []string{"-", "/"} {
		if strings.Contains(t, sep) {
			parts := strings.SplitN(t, sep, 2)
			return parseYear(parts[0]), parseSem(parts[1])
		}
	}
	if len(t) == 2 && isDigits(t) {
		return parseYear(t[:1]), parseSem(t[1:])
	}
	return parseYear(t), 1
}

func parseSem(raw string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 1 {
		return n
	}
	return 1
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02-Jan-2006",
	"2006-01-02T15:04:05Z07:00",
}

// parseDate handles spreadsheet serial numbers first, then common text
// layouts, then falls back to now.
func parseDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		ms := (serial - excelEpochOffset) * 86400 * 1000
		return time.UnixMilli(int64(ms)).UTC()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
