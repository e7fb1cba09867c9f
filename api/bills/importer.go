package bills

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/internal/ingest/headermap"
	"BillTrackerSaas/internal/ingest/identity"
	"BillTrackerSaas/internal/ingest/reference"
	"BillTrackerSaas/internal/ingest/rowmap"
	"BillTrackerSaas/internal/ingest/serial"
	"BillTrackerSaas/internal/ingest/workbook"
	"BillTrackerSaas/internal/store"

	"github.com/sirupsen/logrus"
)

// Options selects the import mode.
type Options struct {
	// PatchOnly updates matched bills and never inserts.
	PatchOnly bool
	// ValidateVendors checks bill vendors against the vendor master when it is loadable.
	ValidateVendors bool
}

// Mode names the run mode as reported to clients.
func (o Options) Mode() string {
	if o.PatchOnly {
		return "patch-only"
	}
	return "normal"
}

type RecordRef struct {
	ID        string `json:"_id"`
	SrNo      string `json:"srNo"`
	ExcelSrNo string `json:"excelSrNo"`
	Row       int    `json:"rowNumber"`
}

type ExistingRef struct {
	ID         string `json:"_id"`
	SrNo       string `json:"srNo"`
	VendorName string `json:"vendorName"`
	Row        int    `json:"rowNumber"`
}

type VendorMiss struct {
	Row        int    `json:"rowNumber"`
	SrNo       string `json:"srNo"`
	VendorName string `json:"vendorName"`
	VendorNo   string `json:"vendorNo"`
}

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
	SrNo  string `json:"srNo,omitempty"`
}

// ImportResult summarises one import run.
type ImportResult struct {
	RunID              string        `json:"runId"`
	Mode               string        `json:"mode"`
	VendorValidation   string        `json:"vendorValidation"`
	TotalProcessed     int           `json:"totalProcessed"`
	Skipped            int           `json:"skipped"`
	Inserted           []RecordRef   `json:"inserted"`
	Updated            []RecordRef   `json:"updated"`
	AlreadyExisting    []ExistingRef `json:"alreadyExisting"`
	NonExistentVendors []VendorMiss  `json:"nonExistentVendors"`
	Errors             []RowError    `json:"errors"`
	Message            string        `json:"message"`
	// ValidVendors is the size of the vendor master used for validation.
	ValidVendors int `json:"validVendors"`
}

// Importer runs the bill import pipeline.
type Importer struct {
	Bills  store.BillStore
	Loader *reference.Loader
	Log    logrus.FieldLogger
	Now    func() time.Time
}

func NewImporter(bills store.BillStore, loader *reference.Loader, log logrus.FieldLogger) *Importer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Importer{Bills: bills, Loader: loader, Log: log, Now: time.Now}
}

// importRun carries the per-run state shared by the row steps.
type importRun struct {
	*Importer
	ctx      context.Context
	opts     Options
	snap     *reference.Snapshot
	mapper   *rowmap.Mapper
	finder   *identity.Finder
	serials  *serial.Generator
	validate bool
	now      time.Time
	res      *ImportResult
}

// Import processes sheet rows in order. Row failures are recorded and never
// abort the run; only reference loading and serial seeding are fatal.
func (im *Importer) Import(ctx context.Context, sheet *workbook.Sheet, opts Options) (*ImportResult, error) {
	snap, err := im.Loader.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	now := im.Now()
	gen, err := serial.NewGenerator(ctx, im.Bills, now)
	if err != nil {
		return nil, err
	}

	log := im.Log.WithFields(logrus.Fields{"run_id": snap.RunID, "mode": opts.Mode()})
	run := &importRun{
		Importer: im,
		ctx:      ctx,
		opts:     opts,
		snap:     snap,
		mapper:   rowmap.New(headermap.Bills(), log),
		finder:   identity.NewFinder(im.Bills, log),
		serials:  gen,
		validate: opts.ValidateVendors && snap.VendorValidation(),
		now:      now,
		res: &ImportResult{
			RunID:              snap.RunID,
			Mode:               opts.Mode(),
			VendorValidation:   "skipped",
			Inserted:           []RecordRef{},
			Updated:            []RecordRef{},
			AlreadyExisting:    []ExistingRef{},
			NonExistentVendors: []VendorMiss{},
			Errors:             []RowError{},
		},
	}
	if run.validate {
		run.res.VendorValidation = "enabled"
		run.res.ValidVendors = len(snap.Vendors())
	} else if opts.ValidateVendors {
		log.WithError(snap.VendorsErr()).Warn("vendor master empty or unavailable, skipping vendor validation")
	}

	firstIsSerial := false
	if len(sheet.Headers) > 0 {
		if f, ok := headermap.Lookup(sheet.Headers[0]); ok && f.Kind == headermap.KindSerial {
			firstIsSerial = true
		}
	}

	for _, row := range sheet.Rows {
		if row.Empty() {
			continue
		}
		if row.At(0).Empty() && !firstIsSerial {
			continue
		}
		if err := run.processRow(row, sheet.Headers); err != nil {
			run.recordError(row.Number, err)
		}
	}

	run.res.Message = formatImportMessage(run.res)
	log.WithFields(logrus.Fields{
		"inserted":         len(run.res.Inserted),
		"updated":          len(run.res.Updated),
		"already_existing": len(run.res.AlreadyExisting),
		"vendor_misses":    len(run.res.NonExistentVendors),
		"errors":           len(run.res.Errors),
		"reference_misses": snap.Misses(),
	}).Info("bill import finished")
	return run.res, nil
}

// rowError carries the serial a failed row was working with.
type rowError struct {
	srNo string
	err  error
}

func (e *rowError) Error() string { return e.err.Error() }
func (e *rowError) Unwrap() error { return e.err }

func (r *importRun) recordError(rowNumber int, err error) {
	entry := RowError{Row: rowNumber, Error: err.Error()}
	var re *rowError
	if errors.As(err, &re) {
		entry.SrNo = re.srNo
	}
	if isDuplicate(err) {
		entry.Error = constants.ErrDuplicateBill
	}
	r.res.Errors = append(r.res.Errors, entry)
	r.Log.WithFields(logrus.Fields{"row": rowNumber, "srNo": entry.SrNo}).WithError(err).Warn("bill row failed")
}

func isDuplicate(err error) bool {
	if store.IsUniqueViolation(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

func (r *importRun) processRow(row workbook.Row, headers []string) error {
	mapped, err := r.mapper.Map(row, headers)
	if err != nil {
		return err
	}
	if !mapped.HasData && mapped.SrNo == "" {
		return nil
	}
	r.res.TotalProcessed++

	doc := mapped.Record
	r.resolveReferences(doc)
	srNo := mapped.SrNo
	issued := false
	if srNo == "" && !r.opts.PatchOnly {
		srNo, err = r.serials.Issue(r.ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", constants.ErrSerialGeneration, err)
		}
		doc.Set("srNo", srNo)
		doc.Set("excelSrNo", srNo)
		issued = true
	}
	r.serials.MarkUsed(srNo)

	match, err := r.finder.Resolve(r.ctx, srNo, doc)
	if err != nil {
		return &rowError{srNo: srNo, err: err}
	}

	switch {
	case match.Found() && r.opts.PatchOnly:
		vendor, ok := r.checkVendor(row.Number, srNo, doc)
		if !ok {
			return nil
		}
		if err := r.update(match.Bill, doc, vendor); err != nil {
			return &rowError{srNo: srNo, err: err}
		}
		r.res.Updated = append(r.res.Updated, RecordRef{
			ID:        match.Bill.ID,
			SrNo:      match.Bill.SrNo,
			ExcelSrNo: excelSrNo(match.Bill.Doc, match.Bill.SrNo),
			Row:       row.Number,
		})
	case match.Found():
		r.res.Skipped++
		r.res.AlreadyExisting = append(r.res.AlreadyExisting, ExistingRef{
			ID:         match.Bill.ID,
			SrNo:       match.Bill.SrNo,
			VendorName: orDefault(match.Bill.Doc.String("vendorName"), "Unknown"),
			Row:        row.Number,
		})
	case r.opts.PatchOnly:
		r.res.Skipped++
		r.Log.WithFields(logrus.Fields{"row": row.Number, "srNo": srNo}).Debug("no existing bill for patch-only row")
	default:
		vendor, ok := r.checkVendor(row.Number, srNo, doc)
		if !ok {
			return nil
		}
		id, err := r.insert(doc, vendor)
		if err != nil {
			return &rowError{srNo: srNo, err: err}
		}
		ref := RecordRef{ID: id, SrNo: srNo, ExcelSrNo: srNo, Row: row.Number}
		if !issued {
			ref.ExcelSrNo = excelSrNo(doc, srNo)
		}
		r.res.Inserted = append(r.res.Inserted, ref)
	}
	return nil
}

// checkVendor returns the matched vendor master entry. With validation on, a
// row naming a vendor that is not in the master is recorded and not written.
func (r *importRun) checkVendor(rowNumber int, srNo string, doc store.Document) (*store.Vendor, bool) {
	name, no := doc.String("vendorName"), doc.String("vendorNo")
	if name == "" && no == "" {
		return nil, true
	}
	vendor, found := r.snap.FindVendor(name, no)
	if found || !r.validate {
		return vendor, true
	}
	r.res.Skipped++
	r.res.NonExistentVendors = append(r.res.NonExistentVendors, VendorMiss{
		Row:        rowNumber,
		SrNo:       srNo,
		VendorName: name,
		VendorNo:   no,
	})
	r.Log.WithFields(logrus.Fields{"row": rowNumber, "vendorName": name, "vendorNo": no}).Warn("vendor not found in vendor master")
	return nil, false
}

// resolveReferences replaces raw reference text with master ids (names for
// region) before identity lookup. Unresolved values are removed.
func (r *importRun) resolveReferences(doc store.Document) {
	if raw := doc.String("region"); raw != "" {
		if v, ok := r.snap.Resolve(store.KindRegion, raw); ok {
			doc.Set("region", v.Name)
		} else {
			delete(doc, "region")
		}
	}
	if raw := doc.String("currency"); raw != "" {
		if v, ok := r.snap.Resolve(store.KindCurrency, raw); ok {
			doc.Set("currency", v.ID)
		} else {
			delete(doc, "currency")
		}
	}
	if raw := doc.String("natureOfWork"); raw != "" {
		if v, ok := r.snap.NatureOfWork(raw); ok {
			doc.Set("natureOfWork", v.ID)
		} else {
			delete(doc, "natureOfWork")
		}
	}
	for path, kind := range map[string]store.MasterKind{
		"panStatus":       store.KindPanStatus,
		"compliance206AB": store.KindCompliance,
	} {
		raw := doc.String(path)
		if raw == "" {
			continue
		}
		if v, ok := r.snap.Resolve(kind, raw); ok {
			doc.Set(path, v.ID)
		} else {
			delete(doc, path)
		}
	}
}

func (r *importRun) update(bill *store.Bill, doc store.Document, vendor *store.Vendor) error {
	doc = doc.Clone()
	// identity fields of a matched bill stay as stored
	delete(doc, "srNo")
	delete(doc, "excelSrNo")
	if vendor != nil {
		doc.Set("vendor", vendor.ID)
	}
	fields := doc.Flatten()
	if len(fields) == 0 {
		return nil
	}
	if err := r.Bills.SetFields(r.ctx, bill.ID, fields); err != nil {
		return fmt.Errorf("update bill %s: %w", bill.ID, err)
	}
	return nil
}

func (r *importRun) insert(doc store.Document, vendor *store.Vendor) (string, error) {
	doc = doc.Clone()
	r.applyDefaults(doc)
	if vendor != nil {
		doc.Set("vendor", vendor.ID)
	}
	id, err := r.Bills.Insert(r.ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert bill: %w", err)
	}
	return id, nil
}

// applyDefaults fills creation-time fields that the row left unset and
// applies reference fallbacks.
func (r *importRun) applyDefaults(doc store.Document) {
	setIfAbsent := func(path string, value interface{}) {
		if v, ok := doc.Get(path); !ok || store.IsEmpty(v) {
			doc.Set(path, value)
		}
	}
	if t, ok := doc.Time("taxInvDate"); ok {
		setIfAbsent("billDate", t)
	}
	setIfAbsent("billDate", r.now)
	if amt, ok := doc.Get("taxInvAmt"); ok && !store.IsEmpty(amt) {
		setIfAbsent("amount", amt)
	}
	setIfAbsent("amount", 0.0)
	setIfAbsent("siteStatus", "hold")
	setIfAbsent("department", "DEFAULT DEPT")
	setIfAbsent("taxInvRecdBy", "SYSTEM IMPORT")
	setIfAbsent("taxInvRecdAtSite", r.now)
	setIfAbsent("projectDescription", "N/A")
	setIfAbsent("poCreated", "No")
	setIfAbsent("vendorName", "Unknown Vendor")
	setIfAbsent("vendorNo", "Unknown")
	setIfAbsent("accountsDept.status", "unpaid")

	if !doc.Has("region") {
		if regions := r.snap.Values(store.KindRegion); len(regions) > 0 {
			doc.Set("region", regions[0].Name)
		} else {
			doc.Set("region", "DEFAULT")
		}
	}
	if !doc.Has("currency") {
		currencies := r.snap.Values(store.KindCurrency)
		if inr, ok := reference.Match(currencies, "INR"); ok {
			doc.Set("currency", inr.ID)
		} else if len(currencies) > 0 {
			doc.Set("currency", currencies[0].ID)
		}
	}
	if !doc.Has("natureOfWork") {
		if v, ok := r.snap.NatureOfWork(""); ok {
			doc.Set("natureOfWork", v.ID)
		}
	}
}

func excelSrNo(doc store.Document, fallback string) string {
	if s := doc.String("excelSrNo"); s != "" {
		return s
	}
	return fallback
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatImportMessage(res *ImportResult) string {
	ins, upd, existing := len(res.Inserted), len(res.Updated), len(res.AlreadyExisting)
	var msg string
	switch {
	case ins > 0 && upd > 0:
		msg = fmt.Sprintf("Successfully imported %d new bills and updated %d existing bills", ins, upd)
	case ins > 0:
		msg = fmt.Sprintf("Successfully imported %d new bill%s", ins, constants.Plural(ins))
	case upd > 0:
		msg = fmt.Sprintf("Successfully updated %d existing bill%s", upd, constants.Plural(upd))
	case existing > 0:
		msg = fmt.Sprintf("All %d bills already exist in the database", existing)
	default:
		msg = "No bills were processed from the Excel file"
	}
	if n := len(res.Errors); n > 0 {
		msg += fmt.Sprintf(". %d row%s had errors and were skipped", n, constants.Plural(n))
	}
	return msg
}
