package reference

import (
	"context"
	"fmt"
	"strings"

	"BillTrackerSaas/internal/store"

	"github.com/sirupsen/logrus"
)

var DefaultComplianceStatuses = []string{
	"Compliant",
	"Non-Compliant",
	"Pending Verification U/S 206AB",
	"2024-Pending Verification U/S 206AB",
	"Compliant under 206AB",
	"Not Applicable",
}

// DefaultPanStatuses are stored upper-cased.
var DefaultPanStatuses = []string{
	"Valid",
	"Invalid",
	"PAN operative",
	"PAN not available",
	"PAN invalid",
	"Not Available",
}

var DefaultRegions = []string{
	"MUMBAI", "KHARGHAR", "AHMEDABAD", "BANGALURU", "BHUBANESHWAR",
	"CHANDIGARH", "DELHI", "NOIDA", "NAGPUR", "GANSOLI",
	"HOSPITAL", "DHULE", "SHIRPUR", "INDORE", "HYDERABAD",
}

var DefaultCurrencies = []string{"INR", "USD", "RMB", "EURO"}

var DefaultNatureOfWork = []string{
	"Proforma Invoice", "Credit note", "Hold/Ret Release", "Direct FI Entry",
	"Advance/LC/BG", "Petty cash", "Imports", "Materials", "Equipments",
	"IT related", "IBMS", "Consultancy bill", "Civil Works", "STP Work",
	"MEP Work", "HVAC Work", "Fire Fighting Work", "Petrol/Diesel",
	"Painting work", "Utility Work", "Site Infra", "Carpentry",
	"Housekeeping/Security", "Overheads", "Others",
}

// Defaults returns the seed list for kind.
func Defaults(kind store.MasterKind) []string {
	switch kind {
	case store.KindCompliance:
		return DefaultComplianceStatuses
	case store.KindPanStatus:
		out := make([]string, len(DefaultPanStatuses))
		for i, s := range DefaultPanStatuses {
			out[i] = strings.ToUpper(s)
		}
		return out
	case store.KindRegion:
		return DefaultRegions
	case store.KindCurrency:
		return DefaultCurrencies
	case store.KindNatureOfWork:
		return DefaultNatureOfWork
	}
	return nil
}

// SeedReport counts what a seeding pass did for one kind.
type SeedReport struct {
	Kind     store.MasterKind
	Inserted []string
	Existing []string
}

// Seeder inserts missing master values. Existing names, compared
// case-insensitively, are left alone.
type Seeder struct {
	Masters store.MasterStore
	Log     logrus.FieldLogger
}

// Seed inserts names into kind when absent.
func (s *Seeder) Seed(ctx context.Context, kind store.MasterKind, names []string) (*SeedReport, error) {
	existing, err := s.Masters.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	have := make(map[string]bool, len(existing))
	for _, v := range existing {
		have[strings.ToLower(strings.TrimSpace(v.Name))] = true
	}

	report := &SeedReport{Kind: kind}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if have[key] {
			report.Existing = append(report.Existing, name)
			continue
		}
		if _, err := s.Masters.Insert(ctx, kind, name); err != nil {
			return report, fmt.Errorf("insert %s %q: %w", kind, name, err)
		}
		have[key] = true
		report.Inserted = append(report.Inserted, name)
	}
	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{
			"kind":     kind,
			"inserted": len(report.Inserted),
			"existing": len(report.Existing),
		}).Info("master values seeded")
	}
	return report, nil
}

// SeedDefaults seeds every kind with its default list.
func (s *Seeder) SeedDefaults(ctx context.Context, kinds ...store.MasterKind) ([]*SeedReport, error) {
	if len(kinds) == 0 {
		kinds = store.AllMasterKinds
	}
	var reports []*SeedReport
	for _, kind := range kinds {
		r, err := s.Seed(ctx, kind, Defaults(kind))
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
