package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV reads a comma separated export. Files that are not valid UTF-8 are
// decoded as Windows-1252, which is what spreadsheet tools emit by default.
func readCSV(path string) (string, [][]Cell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil, ErrNoWorksheet
	}
	grid := make([][]Cell, len(records))
	for i, rec := range records {
		grid[i] = textCells(rec)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return name, grid, nil
}
