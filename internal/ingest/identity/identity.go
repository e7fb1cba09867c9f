// Package identity finds the stored bill a spreadsheet row refers to.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BillTrackerSaas/internal/store"

	"github.com/sirupsen/logrus"
)

// Match is the outcome of resolving a row.
type Match struct {
	Bill *store.Bill
	// By is "serial", "composite" or "" when nothing matched.
	By string
	// Conflict is set when serial and composite lookups found different bills.
	Conflict *store.Bill
}

func (m Match) Found() bool { return m.Bill != nil }

// Finder runs both identity strategies against the bill store.
type Finder struct {
	Bills store.BillStore
	Log   logrus.FieldLogger
}

func NewFinder(bills store.BillStore, log logrus.FieldLogger) *Finder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Finder{Bills: bills, Log: log}
}

// BySerial matches srNo or the excelSrNo alias.
func (f *Finder) BySerial(ctx context.Context, srNo string) (*store.Bill, error) {
	srNo = strings.TrimSpace(srNo)
	if srNo == "" {
		return nil, nil
	}
	b, err := f.Bills.FindBySerial(ctx, srNo)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find bill by srNo %s: %w", srNo, err)
	}
	return b, nil
}

// CompositeKey derives the natural key of doc. The invoice date, when
// present, becomes an inclusive whole-day window.
func CompositeKey(doc store.Document) store.CompositeKey {
	key := store.CompositeKey{
		VendorNo: keyText(doc, "vendorNo"),
		TaxInvNo: keyText(doc, "taxInvNo"),
		Region:   keyText(doc, "region"),
	}
	if t, ok := doc.Time("taxInvDate"); ok {
		key.From = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		key.To = key.From.Add(24*time.Hour - time.Millisecond)
	}
	return key
}

func keyText(doc store.Document, path string) string {
	v, ok := doc.Get(path)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%.0f", t)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// ByComposite matches on vendorNo, taxInvNo, region and invoice day. At
// least two of the three non-date keys are required.
func (f *Finder) ByComposite(ctx context.Context, doc store.Document) (*store.Bill, error) {
	key := CompositeKey(doc)
	if key.Components() < 2 {
		return nil, nil
	}
	b, err := f.Bills.FindByComposite(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find bill by composite key: %w", err)
	}
	return b, nil
}

// Resolve tries the serial first, then the composite key. The serial match
// wins; a composite match on a different bill is reported as a conflict.
func (f *Finder) Resolve(ctx context.Context, srNo string, doc store.Document) (Match, error) {
	bySerial, err := f.BySerial(ctx, srNo)
	if err != nil {
		return Match{}, err
	}
	byComposite, err := f.ByComposite(ctx, doc)
	if err != nil {
		return Match{}, err
	}

	switch {
	case bySerial != nil:
		m := Match{Bill: bySerial, By: "serial"}
		if byComposite != nil && byComposite.ID != bySerial.ID {
			m.Conflict = byComposite
			f.Log.WithFields(logrus.Fields{
				"srNo":           srNo,
				"serial_bill":    bySerial.ID,
				"composite_bill": byComposite.ID,
				"composite_srNo": byComposite.SrNo,
			}).Warn("serial and composite key match different bills, using serial")
		}
		return m, nil
	case byComposite != nil:
		return Match{Bill: byComposite, By: "composite"}, nil
	}
	return Match{}, nil
}
