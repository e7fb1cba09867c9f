package identity

import (
	"context"
	"testing"
	"time"

	"BillTrackerSaas/internal/store"
	"BillTrackerSaas/internal/store/storetest"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestBySerial_MatchesAlias(t *testing.T) {
	bills := storetest.NewBillStore()
	id := bills.Seed(store.Document{"srNo": "2400010", "excelSrNo": "OLD-7"})
	f := NewFinder(bills, nil)

	b, err := f.BySerial(context.Background(), "OLD-7")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, id, b.ID)

	b, err = f.BySerial(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestByComposite_NeedsTwoKeys(t *testing.T) {
	bills := storetest.NewBillStore()
	bills.Seed(store.Document{"srNo": "2400001", "vendorNo": "501", "taxInvNo": "INV-9", "region": "MUMBAI", "taxInvDate": day(2024, 3, 15)})
	f := NewFinder(bills, nil)

	b, err := f.ByComposite(context.Background(), store.Document{"vendorNo": "501", "taxInvDate": day(2024, 3, 15)})
	require.NoError(t, err)
	assert.Nil(t, b, "a single key plus date is not enough")

	b, err = f.ByComposite(context.Background(), store.Document{"vendorNo": "501", "taxInvNo": "INV-9"})
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestByComposite_SameDayWindow(t *testing.T) {
	bills := storetest.NewBillStore()
	stored := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
	bills.Seed(store.Document{"vendorNo": "501", "taxInvNo": "INV-9", "region": "MUMBAI", "taxInvDate": stored})
	f := NewFinder(bills, nil)

	doc := store.Document{"vendorNo": "501", "taxInvNo": "INV-9", "region": "MUMBAI", "taxInvDate": day(2024, 3, 15)}
	b, err := f.ByComposite(context.Background(), doc)
	require.NoError(t, err)
	assert.NotNil(t, b)

	doc["taxInvDate"] = day(2024, 3, 16)
	b, err = f.ByComposite(context.Background(), doc)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestCompositeKey(t *testing.T) {
	key := CompositeKey(store.Document{"vendorNo": 501.0, "taxInvNo": " INV-9 ", "taxInvDate": time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)})
	assert.Equal(t, "501", key.VendorNo)
	assert.Equal(t, "INV-9", key.TaxInvNo)
	assert.Equal(t, 2, key.Components())
	assert.Equal(t, day(2024, 3, 15), key.From)
	assert.Equal(t, time.Date(2024, 3, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC), key.To)
}

func TestResolve_SerialWinsAndConflictLogged(t *testing.T) {
	bills := storetest.NewBillStore()
	serialID := bills.Seed(store.Document{"srNo": "2400001", "vendorNo": "1", "taxInvNo": "A"})
	compositeID := bills.Seed(store.Document{"srNo": "2400002", "vendorNo": "501", "taxInvNo": "INV-9"})
	log, hook := test.NewNullLogger()
	f := NewFinder(bills, log)

	m, err := f.Resolve(context.Background(), "2400001", store.Document{"vendorNo": "501", "taxInvNo": "INV-9"})
	require.NoError(t, err)
	require.True(t, m.Found())
	assert.Equal(t, serialID, m.Bill.ID)
	assert.Equal(t, "serial", m.By)
	require.NotNil(t, m.Conflict)
	assert.Equal(t, compositeID, m.Conflict.ID)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, compositeID, hook.LastEntry().Data["composite_bill"])
}

func TestResolve_CompositeFallbackAndMiss(t *testing.T) {
	bills := storetest.NewBillStore()
	id := bills.Seed(store.Document{"srNo": "2400002", "vendorNo": "501", "taxInvNo": "INV-9"})
	f := NewFinder(bills, nil)

	m, err := f.Resolve(context.Background(), "", store.Document{"vendorNo": "501", "taxInvNo": "INV-9"})
	require.NoError(t, err)
	assert.Equal(t, id, m.Bill.ID)
	assert.Equal(t, "composite", m.By)
	assert.Nil(t, m.Conflict)

	m, err = f.Resolve(context.Background(), "2499999", store.Document{"vendorNo": "777"})
	require.NoError(t, err)
	assert.False(t, m.Found())
}
