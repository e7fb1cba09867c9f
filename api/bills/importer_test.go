package bills

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/internal/ingest/reference"
	"BillTrackerSaas/internal/ingest/workbook"
	"BillTrackerSaas/internal/store"
	"BillTrackerSaas/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runDay = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

// sheetOf builds a parsed sheet; data rows start at sheet row 2.
func sheetOf(headers []string, rows ...[]string) *workbook.Sheet {
	s := &workbook.Sheet{Name: "Sheet1", Format: "xlsx", Headers: headers, HeaderRow: 1}
	for i, values := range rows {
		row := workbook.Row{Number: i + 2}
		for _, v := range values {
			row.Cells = append(row.Cells, workbook.Cell{Text: v})
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

type importFixture struct {
	bills    *storetest.BillStore
	vendors  *storetest.VendorStore
	masters  *storetest.MasterStore
	importer *Importer
}

func newImportFixture(vendors ...store.Vendor) *importFixture {
	f := &importFixture{
		bills:   storetest.NewBillStore(),
		vendors: storetest.NewVendorStore(vendors...),
		masters: storetest.NewMasterStore().
			With(store.KindRegion, "MUMBAI", "PUNE").
			With(store.KindCurrency, "USD", "INR").
			With(store.KindNatureOfWork, "Civil Works", "Others").
			With(store.KindPanStatus, "PAN operative").
			With(store.KindCompliance, "206AB check passed"),
	}
	loader := &reference.Loader{Masters: f.masters, Vendors: f.vendors}
	f.importer = NewImporter(f.bills, loader, nil)
	f.importer.Now = func() time.Time { return runDay }
	return f
}

var invoiceHeaders = []string{"Vendor no", "Vendor Name", "Tax Inv no", "Tax Inv Dt", "Region", "Tax Inv Amt"}

func TestImport_InsertsWithIssuedSerials(t *testing.T) {
	f := newImportFixture()
	sheet := sheetOf(invoiceHeaders,
		[]string{"501", "Acme Builders", "INV-1", "15-03-2024", "mumbai", "1,250.50"},
		[]string{"502", "Zenith Steel", "INV-2", "16/03/2024", "Pune", "900"},
	)

	res, err := f.importer.Import(context.Background(), sheet, Options{})
	require.NoError(t, err)
	require.Len(t, res.Inserted, 2)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 2, res.TotalProcessed)
	assert.Equal(t, "normal", res.Mode)

	first, second := res.Inserted[0], res.Inserted[1]
	assert.NotEqual(t, first.SrNo, second.SrNo)
	assert.True(t, strings.HasPrefix(first.SrNo, "26"))
	assert.Len(t, first.SrNo, 7)
	assert.Equal(t, first.SrNo, first.ExcelSrNo)
	assert.Equal(t, 2, first.Row)

	doc := f.bills.Get(first.ID).Doc
	assert.Equal(t, "MUMBAI", doc.String("region"))
	assert.Equal(t, f.masters.ID(store.KindCurrency, "INR"), doc.String("currency"))
	assert.Equal(t, f.masters.ID(store.KindNatureOfWork, "Others"), doc.String("natureOfWork"))
	assert.Equal(t, "hold", doc.String("siteStatus"))
	assert.Equal(t, "unpaid", doc.String("accountsDept.status"))
	amount, _ := doc.Get("amount")
	assert.Equal(t, 1250.5, amount)
	billDate, ok := doc.Time("billDate")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), billDate)
}

func TestImport_ReimportIsIdempotent(t *testing.T) {
	f := newImportFixture()
	sheet := sheetOf(invoiceHeaders,
		[]string{"501", "Acme Builders", "INV-1", "15-03-2024", "mumbai", "100"},
		[]string{"502", "Zenith Steel", "INV-2", "16-03-2024", "PUNE", "200"},
	)

	_, err := f.importer.Import(context.Background(), sheet, Options{})
	require.NoError(t, err)

	res, err := f.importer.Import(context.Background(), sheet, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Inserted)
	assert.Len(t, res.AlreadyExisting, 2)
	assert.Equal(t, 2, res.Skipped)
	assert.Len(t, f.bills.All(), 2)
	assert.Equal(t, "All 2 bills already exist in the database", res.Message)
}

func TestImport_SheetSerialMatchesStoredBill(t *testing.T) {
	f := newImportFixture()
	f.bills.Seed(store.Document{"srNo": "2600005", "vendorName": "Acme Builders"})
	sheet := sheetOf([]string{"Sr No", "Vendor Name"}, []string{"2600005", "Acme Builders"})

	res, err := f.importer.Import(context.Background(), sheet, Options{})
	require.NoError(t, err)
	require.Len(t, res.AlreadyExisting, 1)
	assert.Equal(t, "2600005", res.AlreadyExisting[0].SrNo)
	assert.Equal(t, "Acme Builders", res.AlreadyExisting[0].VendorName)
	assert.Len(t, f.bills.All(), 1)
}

func TestImport_IssuedSerialsSkipStoredOnes(t *testing.T) {
	f := newImportFixture()
	f.bills.Seed(store.Document{"srNo": "2600007"})
	sheet := sheetOf(invoiceHeaders, []string{"501", "Acme", "INV-1", "15-03-2024", "MUMBAI", "1"})

	res, err := f.importer.Import(context.Background(), sheet, Options{})
	require.NoError(t, err)
	require.Len(t, res.Inserted, 1)
	assert.Equal(t, "2600008", res.Inserted[0].SrNo)
}

func TestImport_PatchOnlyUpdatesWithoutInserting(t *testing.T) {
	f := newImportFixture()
	id := f.bills.Seed(store.Document{"srNo": "2600005", "excelSrNo": "X-1", "remarks": "old"})
	sheet := sheetOf([]string{"Sr No", "Remarks"},
		[]string{"X-1", "checked"},
		[]string{"999", "nobody"},
	)

	res, err := f.importer.Import(context.Background(), sheet, Options{PatchOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "patch-only", res.Mode)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, "2600005", res.Updated[0].SrNo)
	assert.Equal(t, "X-1", res.Updated[0].ExcelSrNo)
	assert.Empty(t, res.Inserted)
	assert.Equal(t, 1, res.Skipped)

	doc := f.bills.Get(id).Doc
	assert.Equal(t, "checked", doc.String("remarks"))
	assert.Equal(t, "2600005", doc.String("srNo"))
	assert.Equal(t, "X-1", doc.String("excelSrNo"))
	assert.Len(t, f.bills.All(), 1)
}

func TestImport_VendorValidation(t *testing.T) {
	f := newImportFixture(store.Vendor{ID: "v-501", VendorNo: 501, VendorName: "Acme Builders Pvt Ltd"})
	sheet := sheetOf(invoiceHeaders,
		[]string{"501", "Acme Builders", "INV-1", "15-03-2024", "MUMBAI", "1"},
		[]string{"999", "Ghost Co", "INV-2", "15-03-2024", "MUMBAI", "1"},
	)

	res, err := f.importer.Import(context.Background(), sheet, Options{ValidateVendors: true})
	require.NoError(t, err)
	assert.Equal(t, "enabled", res.VendorValidation)
	assert.Equal(t, 1, res.ValidVendors)
	require.Len(t, res.Inserted, 1)
	require.Len(t, res.NonExistentVendors, 1)
	assert.Equal(t, VendorMiss{Row: 3, SrNo: res.NonExistentVendors[0].SrNo, VendorName: "Ghost Co", VendorNo: "999"}, res.NonExistentVendors[0])
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "v-501", f.bills.Get(res.Inserted[0].ID).Doc.String("vendor"))
	assert.Len(t, f.bills.All(), 1)
}

func TestImport_VendorValidationFailsOpen(t *testing.T) {
	f := newImportFixture()
	f.vendors.ListErr = errors.New("vendor table offline")
	sheet := sheetOf(invoiceHeaders, []string{"999", "Ghost Co", "INV-2", "15-03-2024", "MUMBAI", "1"})

	res, err := f.importer.Import(context.Background(), sheet, Options{ValidateVendors: true})
	require.NoError(t, err)
	assert.Equal(t, "skipped", res.VendorValidation)
	assert.Len(t, res.Inserted, 1)
	assert.Empty(t, res.NonExistentVendors)
}

func TestImport_BadDateFailsOnlyThatRow(t *testing.T) {
	f := newImportFixture()
	sheet := sheetOf(invoiceHeaders,
		[]string{"501", "Acme", "INV-1", "31-02-2024", "MUMBAI", "1"},
		[]string{"502", "Zenith", "INV-2", "01-03-2024", "MUMBAI", "abc"},
	)

	res, err := f.importer.Import(context.Background(), sheet, Options{})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Error, "Tax Inv Dt")
	require.Len(t, res.Inserted, 1)

	amt, _ := f.bills.Get(res.Inserted[0].ID).Doc.Get("taxInvAmt")
	assert.Equal(t, 0.0, amt)
	assert.Equal(t, "Successfully imported 1 new bill. 1 row had errors and were skipped", res.Message)
}

func TestImport_DuplicateInsertIsReported(t *testing.T) {
	f := newImportFixture()
	f.bills.InsertErr = errors.New(`duplicate key value violates unique constraint "bills_natural_key"`)
	sheet := sheetOf(invoiceHeaders, []string{"501", "Acme", "INV-1", "15-03-2024", "MUMBAI", "1"})

	res, err := f.importer.Import(context.Background(), sheet, Options{})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, constants.ErrDuplicateBill, res.Errors[0].Error)
	assert.NotEmpty(t, res.Errors[0].SrNo)
}

func TestImport_UnresolvedReferencesFallBack(t *testing.T) {
	f := newImportFixture()
	sheet := sheetOf([]string{"Vendor no", "Region", "Currency", "Type of inv", "PAN Status"},
		[]string{"501", "Atlantis", "usd", "civil", "unknown status"},
	)

	res, err := f.importer.Import(context.Background(), sheet, Options{})
	require.NoError(t, err)
	require.Len(t, res.Inserted, 1)

	doc := f.bills.Get(res.Inserted[0].ID).Doc
	assert.Equal(t, "MUMBAI", doc.String("region"))
	assert.Equal(t, f.masters.ID(store.KindCurrency, "USD"), doc.String("currency"))
	assert.Equal(t, f.masters.ID(store.KindNatureOfWork, "Civil Works"), doc.String("natureOfWork"))
	assert.False(t, doc.Has("panStatus"))
}

func TestImport_SkipsRowsWithoutLeadingValue(t *testing.T) {
	f := newImportFixture()
	sheet := sheetOf(invoiceHeaders,
		[]string{"", "Orphan", "INV-9", "15-03-2024", "MUMBAI", "1"},
		[]string{"", "", "", "", "", ""},
	)

	res, err := f.importer.Import(context.Background(), sheet, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalProcessed)
	assert.Equal(t, "No bills were processed from the Excel file", res.Message)
}

func TestImport_ReferenceLoadFailureIsFatal(t *testing.T) {
	f := newImportFixture()
	f.masters.Fail[store.KindRegion] = errors.New("connection reset")

	_, err := f.importer.Import(context.Background(), sheetOf(invoiceHeaders), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load reference data")
}

func TestFormatImportMessage(t *testing.T) {
	refs := func(n int) []RecordRef { return make([]RecordRef, n) }
	cases := []struct {
		name string
		res  ImportResult
		want string
	}{
		{"inserted and updated", ImportResult{Inserted: refs(2), Updated: refs(3)}, "Successfully imported 2 new bills and updated 3 existing bills"},
		{"single insert", ImportResult{Inserted: refs(1)}, "Successfully imported 1 new bill"},
		{"updates only", ImportResult{Updated: refs(4)}, "Successfully updated 4 existing bills"},
		{"existing only", ImportResult{AlreadyExisting: make([]ExistingRef, 2)}, "All 2 bills already exist in the database"},
		{"errors", ImportResult{Errors: make([]RowError, 2)}, "No bills were processed from the Excel file. 2 rows had errors and were skipped"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatImportMessage(&tc.res))
		})
	}
}
