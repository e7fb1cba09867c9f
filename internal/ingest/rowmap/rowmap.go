// Package rowmap turns a spreadsheet row into a nested bill or vendor document.
package rowmap

import (
	"fmt"
	"strings"

	"BillTrackerSaas/internal/ingest/headermap"
	"BillTrackerSaas/internal/ingest/workbook"
	"BillTrackerSaas/internal/store"

	"github.com/sirupsen/logrus"
)

// Result is one mapped row. Reference fields hold the raw cell text; the
// orchestrators resolve them against the run snapshot.
type Result struct {
	Record  store.Document
	SrNo    string
	HasData bool
	// Columns maps each written path to the header it came from.
	Columns map[string]string
	// Raw holds the trimmed cell text of every non-empty mapped column.
	Raw map[string]string
}

// Mapper maps rows through a header table.
type Mapper struct {
	Table *headermap.Table
	Log   logrus.FieldLogger
}

func New(table *headermap.Table, log logrus.FieldLogger) *Mapper {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Mapper{Table: table, Log: log}
}

// Map converts row using headers. Unmapped columns are ignored. A date cell
// that cannot be parsed fails the row; a bad amount becomes 0.
func (m *Mapper) Map(row workbook.Row, headers []string) (Result, error) {
	res := Result{Record: store.Document{}, Columns: map[string]string{}, Raw: map[string]string{}}
	for i, header := range headers {
		if header == "" {
			continue
		}
		field, ok := m.Table.Lookup(header)
		if !ok {
			continue
		}
		cell := row.At(i)
		if !cell.Empty() {
			res.Raw[field.Path] = strings.TrimSpace(cell.Text)
		}
		value, err := m.parse(field, cell, header, row.Number)
		if err != nil {
			return Result{}, fmt.Errorf("column %q: %w", header, err)
		}
		if value == nil {
			continue
		}
		res.Record.Set(field.Path, value)
		res.Columns[field.Path] = header
		if field.Kind == headermap.KindSerial {
			res.SrNo, _ = value.(string)
		}
		if !store.IsEmpty(value) {
			res.HasData = true
		}
	}
	SanitizeAmounts(res.Record)
	return res, nil
}

// parse returns nil for cells that leave the field unset.
func (m *Mapper) parse(field headermap.Field, cell workbook.Cell, header string, rowNumber int) (interface{}, error) {
	if cell.Empty() {
		return nil, nil
	}
	text := strings.TrimSpace(cell.Text)
	switch field.Kind {
	case headermap.KindDate:
		if cell.IsDate {
			return Midnight(cell.Time), nil
		}
		return ParseDate(text)
	case headermap.KindAmount:
		amt, ok := ParseAmount(text)
		if !ok {
			m.Log.WithFields(logrus.Fields{"row": rowNumber, "column": header, "value": text}).Warn("unparseable amount, using 0")
		}
		return amt, nil
	case headermap.KindNumber:
		n, ok := ParseAmount(text)
		if !ok {
			m.Log.WithFields(logrus.Fields{"row": rowNumber, "column": header, "value": text}).Warn("unparseable number dropped")
			return nil, nil
		}
		return n, nil
	case headermap.KindEnum:
		v, ok := NormalizeEnum(text, field.Values)
		if !ok {
			m.Log.WithFields(logrus.Fields{
				"row":          rowNumber,
				"column":       header,
				"value":        text,
				"valid_values": field.Values,
			}).Warn("invalid value dropped")
			return nil, nil
		}
		return v, nil
	case headermap.KindSerial:
		return NormalizeSerial(text), nil
	case headermap.KindList:
		list := SplitList(text)
		if len(list) == 0 {
			return nil, nil
		}
		return list, nil
	}
	if cell.IsDate {
		return cell.Text, nil
	}
	return text, nil
}

// SanitizeAmounts walks doc and coerces any string value under an amount-like
// key ("amt"/"amount") to a number, 0 when unparseable.
func SanitizeAmounts(doc map[string]interface{}) {
	for key, v := range doc {
		switch t := v.(type) {
		case store.Document:
			SanitizeAmounts(t)
		case map[string]interface{}:
			SanitizeAmounts(t)
		case string:
			lower := strings.ToLower(key)
			if strings.Contains(lower, "amt") || strings.Contains(lower, "amount") {
				amt, _ := ParseAmount(t)
				doc[key] = amt
			}
		}
	}
}
