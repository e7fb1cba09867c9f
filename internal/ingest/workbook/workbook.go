// Package workbook reads the first sheet of an uploaded spreadsheet into
// header-aligned rows.
package workbook

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNoWorksheet       = errors.New("no worksheet found in uploaded file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Cell is one spreadsheet value. Date-typed cells carry Time and a
// yyyy-mm-dd Text rendering.
type Cell struct {
	Text   string
	Time   time.Time
	IsDate bool
}

func (c Cell) Empty() bool { return !c.IsDate && strings.TrimSpace(c.Text) == "" }

// Row is a data row. Number is the 1-based sheet row.
type Row struct {
	Number int
	Cells  []Cell
}

// At returns the cell in column i, empty past the end of the row.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r.Cells) {
		return Cell{}
	}
	return r.Cells[i]
}

// Empty reports whether every cell is blank.
func (r Row) Empty() bool {
	for _, c := range r.Cells {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// Sheet is a parsed first worksheet.
type Sheet struct {
	Name      string
	Format    string
	Headers   []string
	HeaderRow int
	Rows      []Row
}

// BannerMode selects how row 1 is tested for a report banner.
type BannerMode int

const (
	// BannerNone always reads headers from row 1.
	BannerNone BannerMode = iota
	// BannerReport skips row 1 when it starts with "report generated".
	BannerReport
	// BannerStrict also skips a sparse row 1 or one led by a row-number label.
	BannerStrict
)

// Options controls header detection.
type Options struct {
	Banner BannerMode
}

// Format returns the normalized extension ("xlsx", "xls", "csv", "ods") of
// path, or "" when the extension is not an accepted upload type.
func Format(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "xlsx", "xls", "csv", "ods":
		return ext
	}
	return ""
}

// Open parses the first worksheet of path.
func Open(path string, opts Options) (*Sheet, error) {
	var (
		grid [][]Cell
		name string
		err  error
	)
	format := Format(path)
	switch format {
	case "xlsx":
		name, grid, err = readXLSX(path)
	case "xls":
		name, grid, err = readXLS(path)
	case "csv":
		name, grid, err = readCSV(path)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	sheet := build(grid, opts)
	sheet.Name = name
	sheet.Format = format
	return sheet, nil
}

var rowNumberLabel = regexp.MustCompile(`^(s\.?\s*no\.?|sr\.?\s*no\.?|sl\.?\s*no\.?)$`)

// IsBanner reports whether a first row is a report title rather than headers.
func IsBanner(first []Cell, mode BannerMode) bool {
	if mode == BannerNone {
		return false
	}
	var filled []string
	for _, c := range first {
		if !c.Empty() {
			filled = append(filled, strings.TrimSpace(c.Text))
		}
	}
	lead := ""
	if len(filled) > 0 {
		lead = strings.ToLower(filled[0])
	}
	if strings.Contains(lead, "report generated") {
		return true
	}
	if mode != BannerStrict {
		return false
	}
	return len(filled) < 3 || rowNumberLabel.MatchString(lead)
}

func build(grid [][]Cell, opts Options) *Sheet {
	s := &Sheet{HeaderRow: 1}
	if len(grid) == 0 {
		return s
	}
	start := 0
	if len(grid) > 1 && IsBanner(grid[0], opts.Banner) {
		start = 1
	}
	s.HeaderRow = start + 1
	header := grid[start]
	s.Headers = make([]string, len(header))
	for i, c := range header {
		s.Headers[i] = strings.TrimSpace(c.Text)
	}
	for i := start + 1; i < len(grid); i++ {
		s.Rows = append(s.Rows, Row{Number: i + 1, Cells: grid[i]})
	}
	return s
}

func textCells(values []string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Cell{Text: v}
	}
	return cells
}
