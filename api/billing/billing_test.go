package billing

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"BillTrackerSaas/api/auth"
	"BillTrackerSaas/api/bills"
	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/internal/store"
	"BillTrackerSaas/internal/store/storetest"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testEnv struct {
	router  *mux.Router
	bills   *storetest.BillStore
	vendors *storetest.VendorStore
}

func newTestEnv(t *testing.T, role string, vendors ...store.Vendor) *testEnv {
	t.Helper()
	env := &testEnv{bills: storetest.NewBillStore(), vendors: storetest.NewVendorStore(vendors...)}
	masters := storetest.NewMasterStore().
		With(store.KindRegion, "MUMBAI").
		With(store.KindCurrency, "INR").
		With(store.KindNatureOfWork, "Others").
		With(store.KindPanStatus, "PAN operative", "PAN inoperative").
		With(store.KindCompliance, "206AB check passed", "206AB check failed")
	env.router = NewRouter(Deps{
		Bills:     env.bills,
		Vendors:   env.vendors,
		Masters:   masters,
		UploadDir: t.TempDir(),
		Sessions: func(userID string) (*auth.UserSession, bool) {
			if userID != "u1" {
				return nil, false
			}
			return &auth.UserSession{UserID: "u1", Role: role, IsLoggedIn: true}, true
		},
	})
	return env
}

func xlsxBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// post sends a multipart upload. An empty fileName sends no file part.
func (e *testEnv) post(t *testing.T, target, fileName string, content []byte, fields map[string]string) (int, map[string]interface{}) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

var user = map[string]string{"user_id": "u1"}

func billRows() [][]interface{} {
	return [][]interface{}{
		{"Vendor no", "Vendor Name", "Tax Inv no", "Tax Inv Dt", "Region", "Tax Inv Amt"},
		{"501", "Acme Builders", "INV-1", "15-03-2024", "MUMBAI", "1000"},
		{"502", "Zenith Steel", "INV-2", "16-03-2024", "MUMBAI", "2000"},
	}
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t, "")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bills/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestImport_RequiresSession(t *testing.T) {
	env := newTestEnv(t, "")
	content := xlsxBytes(t, billRows())

	code, body := env.post(t, "/bills/import", "bills.xlsx", content, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, constants.CodeUnauthorized, body["code"])

	code, _ = env.post(t, "/bills/import", "bills.xlsx", content, map[string]string{"user_id": "intruder"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestImport_ThenReimport(t *testing.T) {
	env := newTestEnv(t, "")
	content := xlsxBytes(t, billRows())

	code, body := env.post(t, "/bills/import", "bills.xlsx", content, user)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	summary := body["data"].(map[string]interface{})["summary"].(map[string]interface{})
	assert.Equal(t, 2.0, summary["inserted"])
	assert.Equal(t, "Successfully imported 2 bill(s)", body["toastMessage"])
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, false, meta["duplicateUpload"])
	assert.NotEmpty(t, meta["checksum"])
	firstRun := meta["runId"]

	code, body = env.post(t, "/bills/import", "bills.xlsx", content, user)
	require.Equal(t, http.StatusAccepted, code, body)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["existingBills"], 2)
	assert.Equal(t, constants.RecommendPatchEndpoint, data["recommendation"])
	meta = body["meta"].(map[string]interface{})
	assert.Len(t, meta["existingBills"], 2)
	assert.Equal(t, constants.RecommendPatchEndpoint, meta["recommendation"])
	assert.Equal(t, true, meta["duplicateUpload"])
	assert.Equal(t, firstRun, meta["previousRunId"])
	assert.Len(t, env.bills.All(), 2)
}

func TestImport_SkipsReportBanner(t *testing.T) {
	env := newTestEnv(t, "")
	rows := append([][]interface{}{{"Report generated on 19-10-2026"}}, billRows()...)

	code, body := env.post(t, "/bills/import", "export.xlsx", xlsxBytes(t, rows), user)
	require.Equal(t, http.StatusOK, code, body)
	summary := body["data"].(map[string]interface{})["summary"].(map[string]interface{})
	assert.Equal(t, 2.0, summary["inserted"])
	require.Len(t, env.bills.All(), 2)
	assert.Equal(t, "INV-1", env.bills.All()[0].Doc.String("taxInvNo"))
}

func TestImport_UploadErrors(t *testing.T) {
	env := newTestEnv(t, "")

	code, body := env.post(t, "/bills/import", "", nil, user)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, constants.CodeNoFile, body["code"])

	code, body = env.post(t, "/bills/import", "notes.txt", []byte("hello"), user)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, constants.CodeUnsupportedFormat, body["code"])

	code, body = env.post(t, "/bills/import", "sheet.ods", []byte("PK"), user)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, constants.CodeUnsupportedFormat, body["code"])

	code, body = env.post(t, "/bills/import?patchOnly=true", "bills.csv", []byte("Sr No\n1\n"), user)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, constants.ErrCSVPatchUnsupported, body["message"])
}

func TestImport_CSV(t *testing.T) {
	env := newTestEnv(t, "")
	csv := "Vendor no,Vendor Name,Tax Inv no,Tax Inv Dt\n501,Acme,INV-1,15-03-2024\n"

	code, body := env.post(t, "/bills/import", "bills.csv", []byte(csv), user)
	require.Equal(t, http.StatusOK, code, body)
	assert.Len(t, env.bills.All(), 1)
}

func TestPatch_TeamFromForm(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.bills.Seed(store.Document{"srNo": "2600001"})
	content := xlsxBytes(t, [][]interface{}{
		{"Sr No", "COP Amt", "MIGO no"},
		{"2600001", "500", "M-9"},
	})

	code, body := env.post(t, "/bills/patch", "patch.xlsx", content, map[string]string{"user_id": "u1", "team": "QS Team"})
	require.Equal(t, http.StatusOK, code, body)
	data := body["data"].(map[string]interface{})
	ignored := data["ignoredFields"].(map[string]interface{})
	assert.Equal(t, 1.0, ignored["totalUpdatesIgnored"])
	assert.Contains(t, body["toastMessage"], "ignored")
	assert.Equal(t, "QS Team", body["meta"].(map[string]interface{})["teamName"])

	doc := env.bills.Get(id).Doc
	amt, _ := doc.Get("copDetails.amount")
	assert.Equal(t, 500.0, amt)
	assert.False(t, doc.Has("migoDetails.no"))
}

func TestPatch_SessionRoleRestricts(t *testing.T) {
	env := newTestEnv(t, "site_engineer")
	env.bills.Seed(store.Document{"srNo": "2600001"})
	content := xlsxBytes(t, [][]interface{}{
		{"Sr No", "COP Amt"},
		{"2600001", "500"},
		{"2609999", "1"},
	})

	code, body := env.post(t, "/bills/patch", "patch.xlsx", content, user)
	require.Equal(t, http.StatusAccepted, code, body)
	reasons := body["data"].(map[string]interface{})["skipReasons"].(map[string]interface{})
	assert.Equal(t, 1.0, reasons[constants.SkipNoUpdates])
	assert.Equal(t, 1.0, reasons[constants.SkipBillNotFound])
}

func TestPatch_TeamRoleCannotWidenAccess(t *testing.T) {
	env := newTestEnv(t, "qs_site")
	id := env.bills.Seed(store.Document{"srNo": "2600001"})
	content := xlsxBytes(t, [][]interface{}{
		{"Sr No", "Dt of Payment", "MIRO no"},
		{"2600001", "01-04-2024", "R-1"},
	})

	for _, target := range []string{"/bills/patch?unrestricted=true", "/bills/patch?team=Accounts%20Team"} {
		code, body := env.post(t, target, "patch.xlsx", content, user)
		require.Equal(t, http.StatusAccepted, code, body)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, true, data["teamRestrictions"].(map[string]interface{})["active"], target)
		assert.Equal(t, 2.0, data["ignoredFields"].(map[string]interface{})["totalUpdatesIgnored"], target)
		assert.Equal(t, bills.TeamQS, body["meta"].(map[string]interface{})["teamName"], target)
	}

	doc := env.bills.Get(id).Doc
	assert.False(t, doc.Has("accountsDept.paymentDate"))
	assert.False(t, doc.Has("accountsDept.status"))
	assert.False(t, doc.Has("miroDetails.number"))
}

func TestPatch_AdminIsUnrestricted(t *testing.T) {
	env := newTestEnv(t, bills.RoleAdmin)
	id := env.bills.Seed(store.Document{"srNo": "2600001"})
	content := xlsxBytes(t, [][]interface{}{
		{"Sr No", "Dt of Payment"},
		{"2600001", "01-04-2024"},
	})

	code, body := env.post(t, "/bills/patch", "patch.xlsx", content, user)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, false, body["data"].(map[string]interface{})["teamRestrictions"].(map[string]interface{})["active"])
	assert.Equal(t, "paid", env.bills.Get(id).Doc.String("accountsDept.status"))
}

func TestPatch_MissingSerialColumn(t *testing.T) {
	env := newTestEnv(t, bills.RoleAdmin)
	content := xlsxBytes(t, [][]interface{}{
		{"COP Amt", "MIGO no"},
		{"1", "M"},
	})

	code, body := env.post(t, "/bills/patch", "patch.xlsx", content, user)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, constants.CodeMissingHeaders, body["code"])
	assert.Equal(t, []interface{}{"COP Amt", "MIGO no"}, body["foundHeaders"])
}

func TestPatch_RejectsCSV(t *testing.T) {
	env := newTestEnv(t, bills.RoleAdmin)
	code, body := env.post(t, "/bills/patch", "patch.csv", []byte("Sr No\n1\n"), user)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, constants.CodeUnsupportedFormat, body["code"])
}

func TestImportHistory(t *testing.T) {
	env := newTestEnv(t, "")
	code, _ := env.post(t, "/bills/import", "bills.xlsx", xlsxBytes(t, billRows()), user)
	require.Equal(t, http.StatusOK, code)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bills/import/history?user_id=u1&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Rows []struct {
			Pipeline string         `json:"pipeline"`
			UserID   string         `json:"userId"`
			Counts   map[string]int `json:"counts"`
		} `json:"rows"`
		Pagination struct {
			TotalRecords int `json:"total_records"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "bills.import", body.Rows[0].Pipeline)
	assert.Equal(t, "u1", body.Rows[0].UserID)
	assert.Equal(t, 2, body.Rows[0].Counts["inserted"])
	assert.Equal(t, 1, body.Pagination.TotalRecords)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bills/import/history?user_id=u1&page=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

var vendorHeader = []interface{}{"Vendor No", "Vendor Name", "PAN Status", "206AB Compliance", "Email"}

func TestVendorImport(t *testing.T) {
	env := newTestEnv(t, "", store.Vendor{VendorNo: 502, VendorName: "Zenith Steel"})
	content := xlsxBytes(t, [][]interface{}{
		vendorHeader,
		{"501", "Acme Builders", "PAN operative", "206AB check passed", "a@acme.in, b@acme.in"},
		{"502", "Zenith Steel", "PAN operative", "206AB check passed", ""},
		{"", "No number", "", "", ""},
	})

	code, body := env.post(t, "/vendors/import", "vendors.xlsx", content, user)
	require.Equal(t, http.StatusAccepted, code, body)
	assert.Equal(t, "Imported 1 new vendor(s), skipped 1 existing vendor(s)", body["message"])
	data := body["data"].(map[string]interface{})
	opts := data["referenceOptions"].(map[string]interface{})
	assert.Equal(t, []interface{}{"PAN operative", "PAN inoperative"}, opts["panStatus"])

	v, err := env.vendors.FindByNumber(t.Context(), 501)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@acme.in", "b@acme.in"}, v.EmailIDs)
	assert.Equal(t, []string{""}, v.PhoneNumbers)
}

func TestVendorImport_MissingHeaders(t *testing.T) {
	env := newTestEnv(t, "")
	content := xlsxBytes(t, [][]interface{}{
		{"Vendor No", "Vendor Name", "GST Number"},
		{"501", "Acme", "27ABCDE1234F1Z5"},
	})

	code, body := env.post(t, "/vendors/import", "vendors.xlsx", content, user)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, constants.CodeMissingHeaders, body["code"])
	assert.Equal(t, []interface{}{"PAN Status", "206AB Compliance"}, body["missingHeaders"])
}

func TestVendorComplianceUpdate(t *testing.T) {
	env := newTestEnv(t, "", store.Vendor{ID: "v-501", VendorNo: 501, VendorName: "Acme", PANStatus: "x", ComplianceStatus: "y"})
	content := xlsxBytes(t, [][]interface{}{
		vendorHeader,
		{"501", "Acme", "PAN inoperative", "206AB check failed", ""},
		{"777", "Ghost", "PAN operative", "206AB check passed", ""},
	})

	code, body := env.post(t, "/vendors/compliance-update", "vendors.xlsx", content, user)
	require.Equal(t, http.StatusAccepted, code, body)
	assert.Equal(t, "Updated 1 vendor(s), but 1 error(s) occurred", body["message"])

	v, err := env.vendors.FindByNumber(t.Context(), 501)
	require.NoError(t, err)
	assert.Equal(t, "pan_status-pan-inoperative", v.PANStatus)
	assert.Equal(t, "compliance-206ab-check-failed", v.ComplianceStatus)
}

