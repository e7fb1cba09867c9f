package reference

import (
	"context"
	"errors"
	"io"
	"testing"

	"BillTrackerSaas/internal/store"
	"BillTrackerSaas/internal/store/storetest"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetOutput(io.Discard)
	return log, hook
}

func seededMasters() *storetest.MasterStore {
	return storetest.NewMasterStore().
		With(store.KindCompliance, DefaultComplianceStatuses...).
		With(store.KindPanStatus, Defaults(store.KindPanStatus)...).
		With(store.KindRegion, DefaultRegions...).
		With(store.KindCurrency, DefaultCurrencies...).
		With(store.KindNatureOfWork, DefaultNatureOfWork...)
}

func TestLoadAll(t *testing.T) {
	log, _ := quietLogger()
	vendors := storetest.NewVendorStore(store.Vendor{VendorNo: 101, VendorName: "Acme Builders"})
	l := &Loader{Masters: seededMasters(), Vendors: vendors, Log: log}

	snap, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.RunID)
	assert.Len(t, snap.Values(store.KindRegion), len(DefaultRegions))
	assert.True(t, snap.VendorValidation())
}

func TestLoadAll_MasterFailureFailsRun(t *testing.T) {
	masters := seededMasters()
	masters.Fail[store.KindCurrency] = errors.New("connection reset")
	l := &Loader{Masters: masters, Vendors: storetest.NewVendorStore()}

	_, err := l.LoadAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "currency")
}

func TestLoadAll_VendorFailureDisablesValidation(t *testing.T) {
	vendors := storetest.NewVendorStore(store.Vendor{VendorNo: 7, VendorName: "X"})
	vendors.ListErr = errors.New("timeout")
	l := &Loader{Masters: seededMasters(), Vendors: vendors}

	snap, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.VendorValidation())
	assert.Error(t, snap.VendorsErr())
}

func TestResolve_ExactAndContainment(t *testing.T) {
	log, _ := quietLogger()
	snap, err := (&Loader{Masters: seededMasters(), Log: log}).LoadAll(context.Background())
	require.NoError(t, err)

	v, ok := snap.Resolve(store.KindCompliance, "compliant")
	require.True(t, ok)
	assert.Equal(t, "Compliant", v.Name)

	v, ok = snap.Resolve(store.KindCompliance, "Compliant under 206AB (partial)")
	require.True(t, ok)
	assert.Equal(t, "Compliant under 206AB", v.Name)

	v, ok = snap.Resolve(store.KindRegion, "mumbai ")
	require.True(t, ok)
	assert.Equal(t, "MUMBAI", v.Name)
}

func TestResolve_MissIsUnsetAndLogged(t *testing.T) {
	log, hook := quietLogger()
	snap, err := (&Loader{Masters: seededMasters(), Log: log}).LoadAll(context.Background())
	require.NoError(t, err)

	_, ok := snap.Resolve(store.KindCurrency, "YEN")
	assert.False(t, ok)
	_, ok = snap.Resolve(store.KindCurrency, "")
	assert.False(t, ok)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "YEN", entry.Data["value"])
	assert.Equal(t, 1, snap.Misses()["currency"])
}

func TestResolve_LoggedValuesTruncated(t *testing.T) {
	log, hook := quietLogger()
	snap, err := (&Loader{Masters: seededMasters(), Log: log}).LoadAll(context.Background())
	require.NoError(t, err)

	_, ok := snap.Resolve(store.KindRegion, "ATLANTIS")
	require.False(t, ok)
	shown := hook.LastEntry().Data["valid_values"].([]string)
	assert.Len(t, shown, maxLoggedValues+1)
	assert.Contains(t, shown[maxLoggedValues], "+5 more")
}

func TestNatureOfWork(t *testing.T) {
	log, _ := quietLogger()
	snap, err := (&Loader{Masters: seededMasters(), Log: log}).LoadAll(context.Background())
	require.NoError(t, err)

	v, _ := snap.NatureOfWork("Civil Works")
	assert.Equal(t, "Civil Works", v.Name)

	v, _ = snap.NatureOfWork("painting of facade")
	assert.Equal(t, "Painting work", v.Name)

	v, _ = snap.NatureOfWork("zzz qq")
	assert.Equal(t, "Others", v.Name)

	v, _ = snap.NatureOfWork("")
	assert.Equal(t, "Others", v.Name)

	noOthers := NewSnapshot(map[store.MasterKind][]store.MasterValue{
		store.KindNatureOfWork: {{ID: "a", Name: "Imports"}, {ID: "b", Name: "Materials"}},
	}, nil, log)
	v, ok := noOthers.NatureOfWork("unknown")
	require.True(t, ok)
	assert.Equal(t, "Imports", v.Name)

	_, ok = NewSnapshot(nil, nil, log).NatureOfWork("Imports")
	assert.False(t, ok)
}

func TestFindVendor(t *testing.T) {
	snap := NewSnapshot(nil, []store.Vendor{
		{VendorNo: 5001, VendorName: "Shree Ganesh Constructions Pvt Ltd"},
		{VendorNo: 5002, VendorName: "Bright Electricals"},
	}, nil)

	v, ok := snap.FindVendor("ganesh constructions", "")
	require.True(t, ok)
	assert.Equal(t, int64(5001), v.VendorNo)

	v, ok = snap.FindVendor("", "V-5002")
	require.True(t, ok)
	assert.Equal(t, "Bright Electricals", v.VendorName)

	_, ok = snap.FindVendor("Nobody", "9999")
	assert.False(t, ok)
	assert.True(t, snap.VendorValidation())
}

func TestParseVendorNo(t *testing.T) {
	assert.Equal(t, int64(1234), ParseVendorNo(" 12-34 "))
	assert.Equal(t, int64(0), ParseVendorNo("abc"))
}

func TestSeeder_InsertsOnlyMissing(t *testing.T) {
	masters := storetest.NewMasterStore().With(store.KindCompliance, "compliant")
	s := &Seeder{Masters: masters}

	report, err := s.Seed(context.Background(), store.KindCompliance, DefaultComplianceStatuses)
	require.NoError(t, err)
	assert.Equal(t, []string{"Compliant"}, report.Existing)
	assert.Len(t, report.Inserted, len(DefaultComplianceStatuses)-1)

	again, err := s.Seed(context.Background(), store.KindCompliance, DefaultComplianceStatuses)
	require.NoError(t, err)
	assert.Empty(t, again.Inserted)

	vals, _ := masters.List(context.Background(), store.KindCompliance)
	assert.Len(t, vals, len(DefaultComplianceStatuses))
}

func TestDefaults_PanStatusesUpperCased(t *testing.T) {
	assert.Contains(t, Defaults(store.KindPanStatus), "PAN OPERATIVE")
	assert.Equal(t, "Valid", DefaultPanStatuses[0])
}
