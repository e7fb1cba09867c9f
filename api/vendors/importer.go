// Package vendors imports and updates the vendor master from spreadsheets.
package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/internal/ingest/headermap"
	"BillTrackerSaas/internal/ingest/reference"
	"BillTrackerSaas/internal/ingest/rowmap"
	"BillTrackerSaas/internal/ingest/workbook"
	"BillTrackerSaas/internal/store"
	"BillTrackerSaas/internal/validation"

	"github.com/sirupsen/logrus"
)

// ErrMissingHeaders reports a sheet without the required vendor columns.
var ErrMissingHeaders = errors.New(constants.ErrMissingHeaders)

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ReferenceOptions lists the accepted status values.
type ReferenceOptions struct {
	ComplianceStatus []string `json:"complianceStatus"`
	PanStatus        []string `json:"panStatus"`
}

type ImportResult struct {
	RunID            string           `json:"runId"`
	Inserted         int              `json:"inserted"`
	Updated          int              `json:"updated"`
	Skipped          int              `json:"skipped"`
	Errors           []RowError       `json:"errors"`
	SummaryMessage   string           `json:"summaryMessage"`
	ReferenceOptions ReferenceOptions `json:"referenceOptions"`
}

// Importer inserts new vendors. Existing vendor numbers are never modified.
type Importer struct {
	Vendors store.VendorStore
	Loader  *reference.Loader
	Log     logrus.FieldLogger
}

func NewImporter(vendors store.VendorStore, loader *reference.Loader, log logrus.FieldLogger) *Importer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Importer{Vendors: vendors, Loader: loader, Log: log}
}

// CheckHeaders returns the required vendor headers missing from sheet.
func CheckHeaders(sheet *workbook.Sheet) []string {
	return headermap.Missing(sheet.Headers, headermap.RequiredVendorHeaders)
}

func referenceOptions(snap *reference.Snapshot) ReferenceOptions {
	return ReferenceOptions{
		ComplianceStatus: snap.Names(store.KindCompliance),
		PanStatus:        snap.Names(store.KindPanStatus),
	}
}

// dataRows yields the rows a vendor pipeline reads: rows with a value in
// the first column.
func dataRows(sheet *workbook.Sheet) []workbook.Row {
	rows := make([]workbook.Row, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row.At(0).Empty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func (im *Importer) Import(ctx context.Context, sheet *workbook.Sheet) (*ImportResult, error) {
	if missing := CheckHeaders(sheet); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeaders, strings.Join(missing, ", "))
	}
	snap, err := im.Loader.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	log := im.Log.WithField("run_id", snap.RunID)
	mapper := rowmap.New(headermap.Vendors(), log)
	res := &ImportResult{RunID: snap.RunID, Errors: []RowError{}}

	for _, row := range dataRows(sheet) {
		if err := im.importRow(ctx, snap, mapper, row, sheet.Headers, res); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, RowError{Row: row.Number, Error: err.Error()})
			log.WithField("row", row.Number).WithError(err).Warn("vendor row skipped")
		}
	}

	res.SummaryMessage = importSummary(res.Inserted, res.Skipped)
	res.ReferenceOptions = referenceOptions(snap)
	log.WithFields(logrus.Fields{
		"inserted": res.Inserted,
		"skipped":  res.Skipped,
		"errors":   len(res.Errors),
	}).Info("vendor import finished")
	return res, nil
}

func (im *Importer) importRow(ctx context.Context, snap *reference.Snapshot, mapper *rowmap.Mapper, row workbook.Row, headers []string, res *ImportResult) error {
	mapped, err := mapper.Map(row, headers)
	if err != nil {
		return err
	}
	v := vendorFromRecord(snap, mapped)

	ferrs, err := validation.Struct(v)
	if err != nil {
		return err
	}
	if len(ferrs) > 0 {
		return fmt.Errorf(constants.ErrVendorMissingFields, strings.Join(validation.Fields(ferrs), ", "))
	}
	if len(v.EmailIDs) == 0 {
		v.EmailIDs = []string{""}
	}
	if len(v.PhoneNumbers) == 0 {
		v.PhoneNumbers = []string{""}
	}

	_, err = im.Vendors.FindByNumber(ctx, v.VendorNo)
	switch {
	case err == nil:
		return fmt.Errorf(constants.ErrVendorExists, v.VendorNo)
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("find vendor %d: %w", v.VendorNo, err)
	}
	if _, err := im.Vendors.Insert(ctx, v); err != nil {
		return fmt.Errorf("insert vendor %d: %w", v.VendorNo, err)
	}
	res.Inserted++
	return nil
}

// vendorFromRecord builds a vendor from a mapped row, resolving the status
// references to master ids. Unresolved statuses stay empty.
func vendorFromRecord(snap *reference.Snapshot, mapped rowmap.Result) *store.Vendor {
	doc := mapped.Record
	v := &store.Vendor{
		VendorNo:     reference.ParseVendorNo(mapped.Raw["vendorNo"]),
		VendorName:   doc.String("vendorName"),
		PAN:          doc.String("PAN"),
		GSTNumber:    doc.String("GSTNumber"),
		Addl1:        doc.String("addl1"),
		Addl2:        doc.String("addl2"),
		EmailIDs:     stringList(doc, "emailIds"),
		PhoneNumbers: stringList(doc, "phoneNumbers"),
	}
	if raw := doc.String("complianceStatus"); raw != "" {
		if mv, ok := snap.Resolve(store.KindCompliance, raw); ok {
			v.ComplianceStatus = mv.ID
		}
	}
	if raw := doc.String("PANStatus"); raw != "" {
		if mv, ok := snap.Resolve(store.KindPanStatus, raw); ok {
			v.PANStatus = mv.ID
		}
	}
	return v
}

func stringList(doc store.Document, path string) []string {
	v, ok := doc.Get(path)
	if !ok {
		return nil
	}
	list, _ := v.([]string)
	return list
}

func importSummary(inserted, skipped int) string {
	switch {
	case inserted > 0 && skipped == 0:
		return fmt.Sprintf(constants.MsgVendorsImported, inserted)
	case inserted > 0:
		return fmt.Sprintf(constants.MsgVendorsImportedSkip, inserted, skipped)
	case skipped > 0:
		return fmt.Sprintf(constants.MsgVendorsAllExisting, skipped)
	}
	return constants.MsgVendorsNoneImported
}
