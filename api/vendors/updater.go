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

	"github.com/sirupsen/logrus"
)

type UpdateResult struct {
	RunID            string           `json:"runId"`
	Updated          int              `json:"updated"`
	Skipped          int              `json:"skipped"`
	Errors           []RowError       `json:"errors"`
	SummaryMessage   string           `json:"summaryMessage"`
	ReferenceOptions ReferenceOptions `json:"referenceOptions"`
}

// Updater rewrites the compliance and contact fields of existing vendors.
type Updater struct {
	Vendors store.VendorStore
	Loader  *reference.Loader
	Log     logrus.FieldLogger
}

func NewUpdater(vendors store.VendorStore, loader *reference.Loader, log logrus.FieldLogger) *Updater {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Updater{Vendors: vendors, Loader: loader, Log: log}
}

func (u *Updater) Update(ctx context.Context, sheet *workbook.Sheet) (*UpdateResult, error) {
	if missing := CheckHeaders(sheet); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeaders, strings.Join(missing, ", "))
	}
	snap, err := u.Loader.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	log := u.Log.WithField("run_id", snap.RunID)
	mapper := rowmap.New(headermap.Vendors(), log)
	res := &UpdateResult{RunID: snap.RunID, Errors: []RowError{}}

	for _, row := range dataRows(sheet) {
		updated, err := u.updateRow(ctx, snap, mapper, row, sheet.Headers)
		switch {
		case err != nil:
			res.Skipped++
			res.Errors = append(res.Errors, RowError{Row: row.Number, Error: err.Error()})
			log.WithField("row", row.Number).WithError(err).Warn("vendor update row skipped")
		case updated:
			res.Updated++
		default:
			res.Skipped++
		}
	}

	res.SummaryMessage = updateSummary(res.Updated, len(res.Errors))
	res.ReferenceOptions = referenceOptions(snap)
	log.WithFields(logrus.Fields{
		"updated": res.Updated,
		"skipped": res.Skipped,
		"errors":  len(res.Errors),
	}).Info("vendor compliance update finished")
	return res, nil
}

func (u *Updater) updateRow(ctx context.Context, snap *reference.Snapshot, mapper *rowmap.Mapper, row workbook.Row, headers []string) (bool, error) {
	mapped, err := mapper.Map(row, headers)
	if err != nil {
		return false, err
	}
	raw := mapped.Raw["vendorNo"]
	vendorNo := reference.ParseVendorNo(raw)
	if vendorNo == 0 {
		return false, fmt.Errorf(constants.ErrVendorInvalidNumber, raw)
	}
	vendor, err := u.Vendors.FindByNumber(ctx, vendorNo)
	if errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf(constants.ErrVendorNotFound, vendorNo)
	}
	if err != nil {
		return false, fmt.Errorf("find vendor %d: %w", vendorNo, err)
	}

	fields := updateFields(snap, mapped.Record)
	if len(fields) == 0 {
		return false, nil
	}
	if err := u.Vendors.SetFields(ctx, vendor.ID, fields); err != nil {
		return false, fmt.Errorf("update vendor %d: %w", vendorNo, err)
	}
	u.Log.WithFields(logrus.Fields{"vendorNo": vendorNo, "fields": fields}).Debug("vendor updated")
	return true, nil
}

// updateFields picks the writable vendor fields present in doc. Statuses
// that do not resolve against the masters are left unchanged.
func updateFields(snap *reference.Snapshot, doc store.Document) map[string]interface{} {
	fields := map[string]interface{}{}
	for path, kind := range map[string]store.MasterKind{
		"complianceStatus": store.KindCompliance,
		"PANStatus":        store.KindPanStatus,
	} {
		if raw := doc.String(path); raw != "" {
			if mv, ok := snap.Resolve(kind, raw); ok {
				fields[path] = mv.ID
			}
		}
	}
	for _, path := range []string{"GSTNumber", "addl1", "addl2"} {
		if v := doc.String(path); v != "" {
			fields[path] = v
		}
	}
	for _, path := range []string{"emailIds", "phoneNumbers"} {
		if list := stringList(doc, path); len(list) > 0 {
			fields[path] = list
		}
	}
	return fields
}

func updateSummary(updated, errs int) string {
	switch {
	case updated > 0 && errs == 0:
		return fmt.Sprintf(constants.MsgVendorsUpdated, updated)
	case updated > 0:
		return fmt.Sprintf(constants.MsgVendorsUpdatedErr, updated, errs)
	case errs > 0:
		return fmt.Sprintf(constants.MsgVendorsNoneErr, errs)
	}
	return constants.MsgVendorsNone
}
