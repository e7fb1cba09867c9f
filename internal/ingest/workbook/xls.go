package workbook

import (
	"fmt"
	"strings"

	"github.com/shakinm/xlsReader/xls"
)

// readXLS loads the first sheet of a legacy BIFF workbook. Dates arrive as
// serial numbers and are parsed by the row mapper.
func readXLS(path string) (string, [][]Cell, error) {
	book, err := xls.OpenFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNoWorksheet, err)
	}
	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return "", nil, ErrNoWorksheet
	}

	var grid [][]Cell
	for _, xlsRow := range sheet.GetRows() {
		var values []string
		for _, col := range xlsRow.GetCols() {
			values = append(values, strings.TrimRight(col.GetString(), "\x00"))
		}
		grid = append(grid, textCells(values))
	}
	return sheet.GetName(), grid, nil
}
