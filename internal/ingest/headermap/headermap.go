// Package headermap translates human-authored spreadsheet headers into
// canonical bill and vendor field paths.
package headermap

import (
	"strings"

	"BillTrackerSaas/internal/store"
)

// Kind tells the row mapper how to parse a cell.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindAmount
	KindNumber
	KindReference
	KindEnum
	KindSerial
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindAmount:
		return "amount"
	case KindNumber:
		return "number"
	case KindReference:
		return "reference"
	case KindEnum:
		return "enum"
	case KindSerial:
		return "serial"
	case KindList:
		return "list"
	}
	return "text"
}

// Field is the canonical target of a header.
type Field struct {
	Path string
	Kind Kind
	// Ref names the reference collection for KindReference fields.
	Ref store.MasterKind
	// Values lists the canonical spellings accepted for KindEnum fields.
	Values []string
}

type entry struct {
	headers []string
	field   Field
}

func text(path string, headers ...string) entry {
	return entry{headers, Field{Path: path, Kind: KindText}}
}

func date(path string, headers ...string) entry {
	return entry{headers, Field{Path: path, Kind: KindDate}}
}

func amount(path string, headers ...string) entry {
	return entry{headers, Field{Path: path, Kind: KindAmount}}
}

func number(path string, headers ...string) entry {
	return entry{headers, Field{Path: path, Kind: KindNumber}}
}

func ref(path string, kind store.MasterKind, headers ...string) entry {
	return entry{headers, Field{Path: path, Kind: KindReference, Ref: kind}}
}

func enum(path string, values []string, headers ...string) entry {
	return entry{headers, Field{Path: path, Kind: KindEnum, Values: values}}
}

func list(path string, headers ...string) entry {
	return entry{headers, Field{Path: path, Kind: KindList}}
}

// Table is an immutable header lookup.
type Table struct {
	exact      map[string]Field
	normalized map[string]Field
	paths      map[string]Field
}

func newTable(entries []entry) *Table {
	t := &Table{
		exact:      map[string]Field{},
		normalized: map[string]Field{},
		paths:      map[string]Field{},
	}
	for _, e := range entries {
		for _, h := range e.headers {
			t.exact[h] = e.field
			n := Normalize(h)
			if _, dup := t.normalized[n]; !dup {
				t.normalized[n] = e.field
			}
		}
		t.paths[e.field.Path] = e.field
	}
	return t
}

// Normalize trims and collapses internal whitespace.
func Normalize(header string) string {
	return strings.Join(strings.Fields(header), " ")
}

// Lookup maps a header to its field. Exact spellings win; otherwise the
// whitespace-normalized form is tried. Unknown headers report false.
func (t *Table) Lookup(header string) (Field, bool) {
	if f, ok := t.exact[header]; ok {
		return f, true
	}
	f, ok := t.normalized[Normalize(header)]
	return f, ok
}

// ByPath returns the field definition for a canonical path.
func (t *Table) ByPath(path string) (Field, bool) {
	f, ok := t.paths[path]
	return f, ok
}

// Headers returns every spelling that maps to path.
func (t *Table) Headers(path string) []string {
	var out []string
	for h, f := range t.exact {
		if f.Path == path {
			out = append(out, h)
		}
	}
	return out
}

var (
	bills   = newTable(billEntries)
	vendors = newTable(vendorEntries)
)

// Bills is the bill header table.
func Bills() *Table { return bills }

// Vendors is the vendor master header table.
func Vendors() *Table { return vendors }

// Lookup maps a bill header.
func Lookup(header string) (Field, bool) { return bills.Lookup(header) }

// VendorLookup maps a vendor master header.
func VendorLookup(header string) (Field, bool) { return vendors.Lookup(header) }
