// Package storetest provides in-memory store implementations for tests.
package storetest

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"

	"BillTrackerSaas/internal/store"

	"github.com/google/uuid"
)

// BillStore keeps bills in insertion order and enforces srNo uniqueness.
type BillStore struct {
	mu    sync.Mutex
	bills []*store.Bill

	// InsertErr, when set, is returned by Insert.
	InsertErr error
	// Lookups counts FindBySerial/GetBySrNo calls.
	Lookups int
}

func NewBillStore() *BillStore { return &BillStore{} }

func (s *BillStore) Seed(doc store.Document) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.bills = append(s.bills, &store.Bill{ID: id, SrNo: doc.String("srNo"), Doc: doc.Clone()})
	return id
}

func (s *BillStore) All() []*store.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*store.Bill(nil), s.bills...)
}

func (s *BillStore) Get(id string) *store.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bills {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (s *BillStore) FindBySerial(_ context.Context, srNo string) (*store.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lookups++
	for _, b := range s.bills {
		if b.Doc.String("srNo") == srNo || b.Doc.String("excelSrNo") == srNo {
			return b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *BillStore) GetBySrNo(_ context.Context, srNo string) (*store.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lookups++
	for _, b := range s.bills {
		if b.Doc.String("srNo") == srNo {
			return b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *BillStore) FindByComposite(_ context.Context, key store.CompositeKey) (*store.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bills {
		if matchesComposite(b.Doc, key) {
			return b, nil
		}
	}
	return nil, store.ErrNotFound
}

func matchesComposite(doc store.Document, key store.CompositeKey) bool {
	if key.VendorNo != "" && docText(doc, "vendorNo") != key.VendorNo {
		return false
	}
	if key.TaxInvNo != "" && docText(doc, "taxInvNo") != key.TaxInvNo {
		return false
	}
	if key.Region != "" && docText(doc, "region") != key.Region {
		return false
	}
	if key.HasDate() {
		t, ok := doc.Time("taxInvDate")
		if !ok || t.Before(key.From) || t.After(key.To) {
			return false
		}
	}
	return true
}

func docText(doc store.Document, path string) string {
	v, ok := doc.Get(path)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func (s *BillStore) MaxSerial(_ context.Context, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	re := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `\d{5,}$`)
	var matches []string
	for _, b := range s.bills {
		if sr := b.Doc.String("srNo"); re.MatchString(sr) {
			matches = append(matches, sr)
		}
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Slice(matches, func(i, j int) bool {
		if len(matches[i]) != len(matches[j]) {
			return len(matches[i]) > len(matches[j])
		}
		return matches[i] > matches[j]
	})
	return matches[0], nil
}

func (s *BillStore) Insert(_ context.Context, doc store.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return "", s.InsertErr
	}
	sr := doc.String("srNo")
	for _, b := range s.bills {
		if sr != "" && b.Doc.String("srNo") == sr {
			return "", errors.New(`duplicate key value violates unique constraint "bills_sr_no_uq"`)
		}
	}
	id := uuid.NewString()
	s.bills = append(s.bills, &store.Bill{ID: id, SrNo: sr, Doc: doc.Clone()})
	return id, nil
}

func (s *BillStore) SetFields(_ context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bills {
		if b.ID == id {
			for path, v := range fields {
				b.Doc.Set(path, v)
			}
			b.SrNo = b.Doc.String("srNo")
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *BillStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.bills)), nil
}

// VendorStore is an in-memory vendor master.
type VendorStore struct {
	mu      sync.Mutex
	vendors []*store.Vendor

	// ListErr, when set, is returned by List and Count.
	ListErr error
	// Updates records SetFields payloads by vendor id.
	Updates map[string]map[string]interface{}
}

func NewVendorStore(seed ...store.Vendor) *VendorStore {
	s := &VendorStore{Updates: map[string]map[string]interface{}{}}
	for i := range seed {
		v := seed[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		s.vendors = append(s.vendors, &v)
	}
	return s
}

func (s *VendorStore) FindByNumber(_ context.Context, vendorNo int64) (*store.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vendors {
		if v.VendorNo == vendorNo {
			cp := *v
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *VendorStore) List(_ context.Context) ([]store.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]store.Vendor, 0, len(s.vendors))
	for _, v := range s.vendors {
		out = append(out, *v)
	}
	return out, nil
}

func (s *VendorStore) Insert(_ context.Context, v *store.Vendor) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.vendors {
		if existing.VendorNo == v.VendorNo {
			return "", errors.New(`duplicate key value violates unique constraint "vendors_vendor_no_key"`)
		}
	}
	cp := *v
	cp.ID = uuid.NewString()
	s.vendors = append(s.vendors, &cp)
	v.ID = cp.ID
	return cp.ID, nil
}

func (s *VendorStore) SetFields(_ context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vendors {
		if v.ID != id {
			continue
		}
		for k, val := range fields {
			switch k {
			case "complianceStatus":
				v.ComplianceStatus, _ = val.(string)
			case "PANStatus":
				v.PANStatus, _ = val.(string)
			case "GSTNumber":
				v.GSTNumber, _ = val.(string)
			case "emailIds":
				v.EmailIDs, _ = val.([]string)
			case "phoneNumbers":
				v.PhoneNumbers, _ = val.([]string)
			case "addl1":
				v.Addl1, _ = val.(string)
			case "addl2":
				v.Addl2, _ = val.(string)
			}
		}
		s.Updates[id] = fields
		return nil
	}
	return store.ErrNotFound
}

func (s *VendorStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return 0, s.ListErr
	}
	return int64(len(s.vendors)), nil
}

// MasterStore holds reference collections keyed by kind, in insertion order.
type MasterStore struct {
	mu     sync.Mutex
	values map[store.MasterKind][]store.MasterValue

	// Fail makes List return an error for the given kinds.
	Fail map[store.MasterKind]error
}

func NewMasterStore() *MasterStore {
	return &MasterStore{values: map[store.MasterKind][]store.MasterValue{}, Fail: map[store.MasterKind]error{}}
}

// With adds names to a kind and returns the store for chaining.
func (s *MasterStore) With(kind store.MasterKind, names ...string) *MasterStore {
	for _, n := range names {
		s.Insert(context.Background(), kind, n)
	}
	return s
}

func (s *MasterStore) List(_ context.Context, kind store.MasterKind) ([]store.MasterValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Fail[kind]; err != nil {
		return nil, err
	}
	return append([]store.MasterValue(nil), s.values[kind]...), nil
}

func (s *MasterStore) Insert(_ context.Context, kind store.MasterKind, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.values[kind] {
		if strings.EqualFold(v.Name, name) {
			return v.ID, nil
		}
	}
	id := string(kind) + "-" + strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	s.values[kind] = append(s.values[kind], store.MasterValue{ID: id, Kind: kind, Name: name})
	return id, nil
}

// ID returns the id of a stored name, "" when absent.
func (s *MasterStore) ID(kind store.MasterKind, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.values[kind] {
		if strings.EqualFold(v.Name, name) {
			return v.ID
		}
	}
	return ""
}
