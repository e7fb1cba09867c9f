package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"BillTrackerSaas/api/auth"
	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/api/utils"
	"BillTrackerSaas/internal/checksum"
	"BillTrackerSaas/internal/ingest/workbook"
	"BillTrackerSaas/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile(constants.KeyFile, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(constants.ContentTypeText, mw.FormDataContentType())
	return req
}

func TestReceiveUpload(t *testing.T) {
	dir := t.TempDir()
	rec := httptest.NewRecorder()
	up, ok := ReceiveUpload(rec, multipartRequest(t, "/bills/import", nil, "bills.csv", "Sr No\n1\n"), dir, []string{"csv"})
	require.True(t, ok)
	defer up.Remove()
	assert.Equal(t, "bills.csv", up.FileName)
	assert.Equal(t, "csv", up.Ext)
	assert.True(t, strings.HasPrefix(filepath.Base(up.Path), "billupload-"))

	rec = httptest.NewRecorder()
	_, ok = ReceiveUpload(rec, multipartRequest(t, "/bills/import", nil, "bills.pdf", "x"), dir, []string{"csv"})
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, constants.CodeUnsupportedFormat, decode(t, rec)["code"])

	rec = httptest.NewRecorder()
	_, ok = ReceiveUpload(rec, multipartRequest(t, "/bills/import", map[string]string{"a": "b"}, "", ""), dir, []string{"csv"})
	assert.False(t, ok)
	assert.Equal(t, constants.CodeNoFile, decode(t, rec)["code"])
}

func TestOpenSheet(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bills.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Sr No,Vendor Name\n1,Acme\n"), 0o600))

	sheet, ok := OpenSheet(httptest.NewRecorder(), &utils.Upload{Path: csvPath, FileName: "bills.csv"}, workbook.Options{})
	require.True(t, ok)
	assert.Equal(t, []string{"Sr No", "Vendor Name"}, sheet.Headers)

	odsPath := filepath.Join(dir, "bills.ods")
	require.NoError(t, os.WriteFile(odsPath, []byte("PK"), 0o600))
	rec := httptest.NewRecorder()
	_, ok = OpenSheet(rec, &utils.Upload{Path: odsPath, FileName: "bills.ods"}, workbook.Options{})
	assert.False(t, ok)
	assert.Equal(t, constants.CodeUnsupportedFormat, decode(t, rec)["code"])

	badPath := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(badPath, []byte("not a zip"), 0o600))
	rec = httptest.NewRecorder()
	_, ok = OpenSheet(rec, &utils.Upload{Path: badPath, FileName: "broken.xlsx"}, workbook.Options{})
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFingerprintUpload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bills.csv")
	require.NoError(t, os.WriteFile(path, []byte("Sr No\n1\n"), 0o600))
	up := &utils.Upload{Path: path, FileName: "bills.csv"}
	cm := checksum.NewChecksumMatcher(0)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	first := FingerprintUpload(cm, up, "run-1", now)
	assert.Len(t, first.Sum, 64)
	assert.False(t, first.Duplicate)
	meta := first.Meta(nil)
	assert.Equal(t, first.Sum, meta["checksum"])
	assert.NotContains(t, meta, "previousRunId")

	second := FingerprintUpload(cm, up, "run-2", now)
	assert.True(t, second.Duplicate)
	assert.Equal(t, "run-1", second.Meta(map[string]interface{}{"runId": "run-2"})["previousRunId"])

	missing := FingerprintUpload(cm, &utils.Upload{Path: filepath.Join(t.TempDir(), "gone")}, "run-3", now)
	assert.Empty(t, missing.Sum)
}

func TestQueryBool(t *testing.T) {
	assert.True(t, QueryBool(httptest.NewRequest(http.MethodPost, "/bills/import?patchOnly=true", nil), "patchOnly"))
	assert.False(t, QueryBool(httptest.NewRequest(http.MethodPost, "/bills/import?patchOnly=maybe", nil), "patchOnly"))

	req := multipartRequest(t, "/bills/import", map[string]string{"patchOnly": "1"}, "", "")
	require.NoError(t, req.ParseMultipartForm(1<<20))
	assert.True(t, QueryBool(req, "patchOnly"))
}

func TestRecordRun(t *testing.T) {
	history := notification.NewNotificationService(5)
	req := httptest.NewRequest(http.MethodPost, "/bills/import", nil)
	req = req.WithContext(WithSession(context.Background(), &auth.UserSession{UserID: "u1"}))

	RecordRun(history, req, notification.RunNotice{RunID: "run-1", Pipeline: "bills.import"}, Envelope{
		Message: "done",
		Data:    map[string]interface{}{"summary": Summary{Inserted: 2, Total: 2}},
	})
	notices := history.GetNotifications()
	require.Len(t, notices, 1)
	assert.Equal(t, "u1", notices[0].UserID)
	assert.Equal(t, "done", notices[0].Message)
	assert.Equal(t, 2, notices[0].Counts["inserted"])

	RecordRun(nil, req, notification.RunNotice{RunID: "run-2"}, Envelope{})
}
