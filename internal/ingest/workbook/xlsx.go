package workbook

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// readXLSX loads the first sheet with raw cell values, so formula cells give
// their cached result and numbers keep full precision. Date-styled numeric
// cells become Cell.Time.
func readXLSX(path string) (string, [][]Cell, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNoWorksheet, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return "", nil, ErrNoWorksheet
	}
	rawRows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNoWorksheet, err)
	}

	styles := map[int]bool{}
	grid := make([][]Cell, len(rawRows))
	for i, rawRow := range rawRows {
		grid[i] = make([]Cell, len(rawRow))
		for j, raw := range rawRow {
			colName, _ := excelize.ColumnNumberToName(j + 1)
			cellRef := fmt.Sprintf("%s%d", colName, i+1)
			grid[i][j] = readCell(f, sheetName, cellRef, raw, styles)
		}
	}
	return sheetName, grid, nil
}

func readCell(f *excelize.File, sheet, ref, raw string, styles map[int]bool) Cell {
	if raw == "" {
		return Cell{}
	}
	if serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		if idx, err := f.GetCellStyle(sheet, ref); err == nil && idx > 0 && isDateStyle(f, idx, styles) {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return dateCell(t)
			}
		}
	}
	if typ, err := f.GetCellType(sheet, ref); err == nil && typ == excelize.CellTypeDate {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return dateCell(t)
		}
	}
	return Cell{Text: raw}
}

func dateCell(t time.Time) Cell {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Cell{Text: day.Format("2006-01-02"), Time: day, IsDate: true}
}

// Built-in number formats 14-22 and 45-47 render dates or times.
func builtinDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

var (
	quotedSection  = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]`)
	dateFormatPart = regexp.MustCompile(`[dy]|m{3,}`)
)

// customDateFormat reports whether a custom format code contains day or year
// tokens outside quoted literals and bracketed sections.
func customDateFormat(code string) bool {
	stripped := quotedSection.ReplaceAllString(strings.ToLower(code), "")
	return dateFormatPart.MatchString(stripped)
}

func isDateStyle(f *excelize.File, idx int, cache map[int]bool) bool {
	if v, ok := cache[idx]; ok {
		return v
	}
	isDate := false
	if style, err := f.GetStyle(idx); err == nil && style != nil {
		switch {
		case style.CustomNumFmt != nil:
			isDate = customDateFormat(*style.CustomNumFmt)
		default:
			isDate = builtinDateFormat(style.NumFmt)
		}
	}
	cache[idx] = isDate
	return isDate
}
