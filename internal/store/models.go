package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

// Bill is a stored invoice document.
type Bill struct {
	ID   string
	SrNo string
	Doc  Document
}

// Vendor is the vendor master record.
type Vendor struct {
	ID               string   `json:"-"`
	VendorNo         int64    `json:"vendorNo" validate:"required,gt=0"`
	VendorName       string   `json:"vendorName" validate:"required"`
	PAN              string   `json:"PAN"`
	GSTNumber        string   `json:"GSTNumber"`
	PANStatus        string   `json:"PANStatus" validate:"required"`
	ComplianceStatus string   `json:"complianceStatus" validate:"required"`
	EmailIDs         []string `json:"emailIds"`
	PhoneNumbers     []string `json:"phoneNumbers"`
	Addl1            string   `json:"addl1,omitempty"`
	Addl2            string   `json:"addl2,omitempty"`
}

// MasterKind names a reference collection.
type MasterKind string

const (
	KindRegion       MasterKind = "region"
	KindCurrency     MasterKind = "currency"
	KindNatureOfWork MasterKind = "nature_of_work"
	KindPanStatus    MasterKind = "pan_status"
	KindCompliance   MasterKind = "compliance"
)

// AllMasterKinds lists the reference collections loaded for every run.
var AllMasterKinds = []MasterKind{KindRegion, KindCurrency, KindNatureOfWork, KindPanStatus, KindCompliance}

// MasterValue is one (id, canonical name) pair of a reference collection.
type MasterValue struct {
	ID   string `json:"id"`
	Kind MasterKind
	Name string `json:"value"`
}

// CompositeKey identifies a bill by vendor, invoice number, region and invoice day.
// Empty fields are not constrained; From/To bound taxInvDate inclusively.
type CompositeKey struct {
	VendorNo string
	TaxInvNo string
	Region   string
	From     time.Time
	To       time.Time
}

func (k CompositeKey) HasDate() bool { return !k.From.IsZero() }

// Components counts the non-date keys present.
func (k CompositeKey) Components() int {
	n := 0
	for _, s := range []string{k.VendorNo, k.TaxInvNo, k.Region} {
		if s != "" {
			n++
		}
	}
	return n
}

type BillStore interface {
	// FindBySerial matches srNo or the legacy excelSrNo alias.
	FindBySerial(ctx context.Context, srNo string) (*Bill, error)
	// GetBySrNo matches srNo only.
	GetBySrNo(ctx context.Context, srNo string) (*Bill, error)
	FindByComposite(ctx context.Context, key CompositeKey) (*Bill, error)
	// MaxSerial returns the highest srNo of the form <prefix><5+ digits>, "" if none.
	MaxSerial(ctx context.Context, prefix string) (string, error)
	Insert(ctx context.Context, doc Document) (string, error)
	// SetFields writes each dotted path into the stored document, leaving siblings intact.
	SetFields(ctx context.Context, id string, fields map[string]interface{}) error
	Count(ctx context.Context) (int64, error)
}

type VendorStore interface {
	FindByNumber(ctx context.Context, vendorNo int64) (*Vendor, error)
	List(ctx context.Context) ([]Vendor, error)
	Insert(ctx context.Context, v *Vendor) (string, error)
	SetFields(ctx context.Context, id string, fields map[string]interface{}) error
	Count(ctx context.Context) (int64, error)
}

type MasterStore interface {
	List(ctx context.Context, kind MasterKind) ([]MasterValue, error)
	Insert(ctx context.Context, kind MasterKind, name string) (string, error)
}
