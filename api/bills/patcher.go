package bills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/internal/ingest/headermap"
	"BillTrackerSaas/internal/ingest/rowmap"
	"BillTrackerSaas/internal/ingest/workbook"
	"BillTrackerSaas/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNoSerialColumn is returned when a patch sheet has no Sr No column.
var ErrNoSerialColumn = errors.New(constants.ErrSrNoColumnMissing)

type SkippedRow struct {
	Row    int    `json:"rowNumber"`
	SrNo   string `json:"srNo,omitempty"`
	Reason string `json:"reason"`
}

type IgnoredFields struct {
	Count               int            `json:"count"`
	TotalUpdatesIgnored int            `json:"totalUpdatesIgnored"`
	Fields              map[string]int `json:"fields"`
}

type TeamRestrictions struct {
	Active        bool     `json:"active"`
	AllowedFields []string `json:"allowedFields"`
}

// PatchResult summarises one patch run.
type PatchResult struct {
	RunID              string           `json:"runId"`
	Updated            int              `json:"updated"`
	Skipped            int              `json:"skipped"`
	SkipReasons        map[string]int   `json:"skipReasons"`
	SkippedRows        []SkippedRow     `json:"skippedRows"`
	UpdatedSrNos       []string         `json:"updatedSrNos"`
	TeamName           string           `json:"teamName"`
	FieldUpdateSummary map[string]int   `json:"fieldUpdateSummary"`
	IgnoredFields      IgnoredFields    `json:"ignoredFields"`
	TeamRestrictions   TeamRestrictions `json:"teamRestrictions"`
	Errors             []RowError       `json:"errors"`
}

// Patcher applies team-restricted field updates to existing bills.
type Patcher struct {
	Bills store.BillStore
	Log   logrus.FieldLogger
}

func NewPatcher(bills store.BillStore, log logrus.FieldLogger) *Patcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Patcher{Bills: bills, Log: log}
}

type patchColumn struct {
	index int
	field PatchField
}

// Patch updates bills matched by srNo. It never creates bills and writes only
// the patchable fields the restriction allows.
func (p *Patcher) Patch(ctx context.Context, sheet *workbook.Sheet, rs Restriction) (*PatchResult, error) {
	srCol := -1
	var columns []patchColumn
	for i, h := range sheet.Headers {
		if f, ok := headermap.Lookup(h); ok && f.Kind == headermap.KindSerial && srCol < 0 {
			srCol = i
			continue
		}
		if pf, ok := patchFieldFor(h); ok {
			columns = append(columns, patchColumn{index: i, field: pf})
		}
	}
	if srCol < 0 {
		return nil, ErrNoSerialColumn
	}

	res := &PatchResult{
		RunID:              uuid.NewString(),
		SkipReasons:        map[string]int{},
		SkippedRows:        []SkippedRow{},
		UpdatedSrNos:       []string{},
		TeamName:           rs.Team,
		FieldUpdateSummary: map[string]int{},
		IgnoredFields:      IgnoredFields{Fields: map[string]int{}},
		TeamRestrictions:   TeamRestrictions{Active: !rs.Unrestricted, AllowedFields: rs.AllowedFields()},
		Errors:             []RowError{},
	}
	log := p.Log.WithFields(logrus.Fields{"run_id": res.RunID, "team": rs.Team, "unrestricted": rs.Unrestricted})

	for _, row := range sheet.Rows {
		if row.Empty() {
			continue
		}
		srNo := rowmap.NormalizeSerial(row.At(srCol).Text)
		if srNo == "" {
			res.skip(row.Number, "", constants.SkipMissingSrNo)
			continue
		}
		bill, err := p.Bills.GetBySrNo(ctx, srNo)
		if errors.Is(err, store.ErrNotFound) {
			res.skip(row.Number, srNo, constants.SkipBillNotFound)
			continue
		}
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row.Number, SrNo: srNo, Error: err.Error()})
			res.Skipped++
			continue
		}

		staged := map[string]interface{}{}
		for _, col := range columns {
			cell := row.At(col.index)
			if !rs.Allows(col.field.Path) {
				if !cell.Empty() {
					res.IgnoredFields.Fields[col.field.Path]++
				}
				continue
			}
			if cell.Empty() {
				continue
			}
			value, ok := parsePatchValue(col.field, cell)
			if !ok {
				log.WithFields(logrus.Fields{"row": row.Number, "column": col.field.Header, "value": cell.Text}).Warn("invalid patch value dropped")
				continue
			}
			staged[col.field.Path] = value
			res.FieldUpdateSummary[col.field.Path]++
		}
		if _, ok := staged["accountsDept.paymentDate"]; ok {
			staged["accountsDept.status"] = "paid"
		}
		if len(staged) == 0 {
			res.skip(row.Number, srNo, constants.SkipNoUpdates)
			continue
		}
		if err := p.Bills.SetFields(ctx, bill.ID, staged); err != nil {
			logErr := fmt.Errorf("update bill %s: %w", srNo, err)
			res.Errors = append(res.Errors, RowError{Row: row.Number, SrNo: srNo, Error: logErr.Error()})
			res.Skipped++
			log.WithError(logErr).Warn("patch row failed")
			continue
		}
		res.Updated++
		res.UpdatedSrNos = append(res.UpdatedSrNos, srNo)
	}

	for _, n := range res.IgnoredFields.Fields {
		res.IgnoredFields.TotalUpdatesIgnored += n
	}
	res.IgnoredFields.Count = len(res.IgnoredFields.Fields)
	log.WithFields(logrus.Fields{
		"updated": res.Updated,
		"skipped": res.Skipped,
		"ignored": res.IgnoredFields.TotalUpdatesIgnored,
	}).Info("bill patch finished")
	return res, nil
}

func (res *PatchResult) skip(row int, srNo, reason string) {
	res.Skipped++
	res.SkipReasons[reason]++
	res.SkippedRows = append(res.SkippedRows, SkippedRow{Row: row, SrNo: srNo, Reason: reason})
}

func parsePatchValue(f PatchField, cell workbook.Cell) (interface{}, bool) {
	text := strings.TrimSpace(cell.Text)
	switch f.Kind {
	case PatchDate:
		if cell.IsDate {
			return rowmap.Midnight(cell.Time), true
		}
		t, err := rowmap.ParseDate(text)
		return t, err == nil
	case PatchAmount:
		return rowmap.ParseAmount(text)
	case PatchHardCopy:
		v := strings.ToUpper(text)
		return v, v == "YES" || v == "NO"
	}
	return text, true
}
