// Package reference loads the master collections once per ingestion run and
// resolves free-text cell values against them.
package reference

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"BillTrackerSaas/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const maxLoggedValues = 10

// Loader fetches reference data for a run.
type Loader struct {
	Masters store.MasterStore
	Vendors store.VendorStore
	Log     logrus.FieldLogger
}

// Snapshot is the reference data of one run. It is never refreshed; build a
// new one per run.
type Snapshot struct {
	RunID string

	values  map[store.MasterKind][]store.MasterValue
	vendors []store.Vendor
	// vendorsErr is set when the vendor master could not be read.
	vendorsErr error

	log logrus.FieldLogger

	mu     sync.Mutex
	misses map[string]int
}

// LoadAll reads every master collection and the vendor master in parallel.
// A failing master collection fails the load; a failing vendor read is kept
// on the snapshot so callers can skip vendor validation.
func (l *Loader) LoadAll(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		RunID:  uuid.NewString(),
		values: make(map[store.MasterKind][]store.MasterValue, len(store.AllMasterKinds)),
		log:    l.Log,
		misses: map[string]int{},
	}
	if snap.log == nil {
		snap.log = logrus.StandardLogger()
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range store.AllMasterKinds {
		kind := kind
		g.Go(func() error {
			vals, err := l.Masters.List(gctx, kind)
			if err != nil {
				return fmt.Errorf("load %s master: %w", kind, err)
			}
			mu.Lock()
			snap.values[kind] = vals
			mu.Unlock()
			return nil
		})
	}
	if l.Vendors != nil {
		g.Go(func() error {
			vendors, err := l.Vendors.List(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				snap.vendorsErr = err
				return nil
			}
			snap.vendors = vendors
			return nil
		})
	} else {
		snap.vendorsErr = fmt.Errorf("vendor master not configured")
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// NewSnapshot builds a snapshot from in-memory values.
func NewSnapshot(values map[store.MasterKind][]store.MasterValue, vendors []store.Vendor, log logrus.FieldLogger) *Snapshot {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if values == nil {
		values = map[store.MasterKind][]store.MasterValue{}
	}
	return &Snapshot{RunID: uuid.NewString(), values: values, vendors: vendors, log: log, misses: map[string]int{}}
}

// Values returns the collection for kind in stored order.
func (s *Snapshot) Values(kind store.MasterKind) []store.MasterValue {
	return s.values[kind]
}

// Names returns the canonical names of a collection.
func (s *Snapshot) Names(kind store.MasterKind) []string {
	vals := s.values[kind]
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, v.Name)
	}
	return out
}

// ByID finds a value by id.
func (s *Snapshot) ByID(kind store.MasterKind, id string) (store.MasterValue, bool) {
	for _, v := range s.values[kind] {
		if v.ID == id {
			return v, true
		}
	}
	return store.MasterValue{}, false
}

// Match applies exact case-insensitive matching, then bidirectional substring
// containment. Among containment hits the name closest in length to raw
// wins; ties go to collection order.
func Match(values []store.MasterValue, raw string) (store.MasterValue, bool) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	if needle == "" {
		return store.MasterValue{}, false
	}
	for _, v := range values {
		if strings.ToLower(strings.TrimSpace(v.Name)) == needle {
			return v, true
		}
	}
	best, bestGap := -1, 0
	for i, v := range values {
		name := strings.ToLower(strings.TrimSpace(v.Name))
		if name == "" {
			continue
		}
		if !strings.Contains(name, needle) && !strings.Contains(needle, name) {
			continue
		}
		gap := len(name) - len(needle)
		if gap < 0 {
			gap = -gap
		}
		if best < 0 || gap < bestGap {
			best, bestGap = i, gap
		}
	}
	if best < 0 {
		return store.MasterValue{}, false
	}
	return values[best], true
}

// Resolve matches raw against a collection. A miss is logged and counted,
// never returned as an error.
func (s *Snapshot) Resolve(kind store.MasterKind, raw string) (store.MasterValue, bool) {
	if strings.TrimSpace(raw) == "" {
		return store.MasterValue{}, false
	}
	if v, ok := Match(s.values[kind], raw); ok {
		return v, true
	}
	s.warnMiss(string(kind), raw, s.Names(kind))
	return store.MasterValue{}, false
}

func (s *Snapshot) warnMiss(field, raw string, valid []string) {
	s.mu.Lock()
	s.misses[field]++
	s.mu.Unlock()

	shown := valid
	if len(shown) > maxLoggedValues {
		shown = append(append([]string(nil), valid[:maxLoggedValues]...), fmt.Sprintf("... (+%d more)", len(valid)-maxLoggedValues))
	}
	s.log.WithFields(logrus.Fields{
		"run_id":       s.RunID,
		"field":        field,
		"value":        raw,
		"valid_values": shown,
	}).Warn("unresolved reference value")
}

// Misses returns how many lookups failed per field during the run.
func (s *Snapshot) Misses() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.misses))
	for k, v := range s.misses {
		out[k] = v
	}
	return out
}

// NatureOfWork resolves an invoice type: exact, then containment either way,
// then any word longer than three letters contained in a canonical name.
// Without a match it falls back to "Others", then to the first entry.
func (s *Snapshot) NatureOfWork(raw string) (store.MasterValue, bool) {
	list := s.values[store.KindNatureOfWork]
	if len(list) == 0 {
		return store.MasterValue{}, false
	}
	needle := strings.ToLower(strings.TrimSpace(raw))
	if needle != "" {
		if v, ok := Match(list, needle); ok {
			return v, true
		}
		words := strings.Fields(needle)
		for _, v := range list {
			name := strings.ToLower(v.Name)
			for _, w := range words {
				if len(w) > 3 && strings.Contains(name, w) {
					return v, true
				}
			}
		}
		s.warnMiss(string(store.KindNatureOfWork), raw, s.Names(store.KindNatureOfWork))
	}
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v.Name), "others") {
			return v, true
		}
	}
	return list[0], true
}

// VendorValidation reports whether bill rows can be checked against the vendor master.
// It is off when the master is empty or could not be read.
func (s *Snapshot) VendorValidation() bool {
	return s.vendorsErr == nil && len(s.vendors) > 0
}

// Vendors returns the loaded vendor master.
func (s *Snapshot) Vendors() []store.Vendor { return s.vendors }

// VendorsErr returns the vendor master load failure, if any.
func (s *Snapshot) VendorsErr() error { return s.vendorsErr }

var nonDigits = regexp.MustCompile(`[^\d]`)

// ParseVendorNo strips everything but digits; 0 means no usable number.
func ParseVendorNo(raw string) int64 {
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// FindVendor matches a vendor whose name contains name (case-insensitive) or
// whose number equals no.
func (s *Snapshot) FindVendor(name, no string) (*store.Vendor, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	number := ParseVendorNo(no)
	for i := range s.vendors {
		v := &s.vendors[i]
		if needle != "" && strings.Contains(strings.ToLower(v.VendorName), needle) {
			return v, true
		}
		if number > 0 && v.VendorNo == number {
			return v, true
		}
	}
	return nil, false
}
