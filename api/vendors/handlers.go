package vendors

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"BillTrackerSaas/api"
	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/api/utils"
	"BillTrackerSaas/internal/checksum"
	"BillTrackerSaas/internal/ingest/workbook"
	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/internal/notification"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	PipelineImport = "vendors.import"
	PipelineUpdate = "vendors.compliance-update"
)

var excelExtensions = []string{"xlsx", "xls"}

// Handler serves the vendor master endpoints.
type Handler struct {
	Importer  *Importer
	Updater   *Updater
	Checksums *checksum.ChecksumMatcher
	History   *notification.NotificationService
	UploadDir string
	Log       logrus.FieldLogger
}

func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/vendors/import", h.ImportVendors()).Methods(http.MethodPost)
	r.HandleFunc("/vendors/compliance-update", h.UpdateCompliance()).Methods(http.MethodPost)
}

func (h *Handler) log() logrus.FieldLogger {
	if h.Log != nil {
		return h.Log
	}
	return logger.L()
}

// readSheet receives an Excel upload and checks the required vendor headers.
// The caller removes the returned upload.
func (h *Handler) readSheet(w http.ResponseWriter, r *http.Request) (*utils.Upload, *workbook.Sheet, bool) {
	up, ok := api.ReceiveUpload(w, r, h.UploadDir, excelExtensions)
	if !ok {
		return nil, nil, false
	}
	sheet, ok := api.OpenSheet(w, up, workbook.Options{Banner: workbook.BannerStrict})
	if !ok {
		up.Remove()
		return nil, nil, false
	}
	if missing := CheckHeaders(sheet); len(missing) > 0 {
		up.Remove()
		list := strings.Join(missing, ", ")
		api.RespondWithCode(w, http.StatusBadRequest, constants.CodeMissingHeaders,
			constants.ErrMissingHeaders+": "+list,
			fmt.Sprintf(constants.ErrMissingHeadersDetail, list),
			map[string]interface{}{"missingHeaders": missing, "foundHeaders": sheet.Headers})
		return nil, nil, false
	}
	return up, sheet, true
}

// ImportVendors handles POST /vendors/import.
func (h *Handler) ImportVendors() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, sheet, ok := h.readSheet(w, r)
		if !ok {
			return
		}
		defer up.Remove()

		res, err := h.Importer.Import(r.Context(), sheet)
		if err != nil {
			logger.LogError(h.log(), "vendors", "ImportVendors", "vendor import failed", up.FileName, err)
			api.RespondWithCode(w, http.StatusInternalServerError, constants.CodeInternal, constants.ErrVendorImportFailed, constants.ErrVendorImportFailed,
				map[string]interface{}{constants.ValueError: err.Error()})
			return
		}
		fp := api.FingerprintUpload(h.Checksums, up, res.RunID, time.Now())
		status := http.StatusOK
		if res.Skipped > 0 || len(res.Errors) > 0 {
			status = http.StatusAccepted
		}
		env := api.Envelope{
			Success:      true,
			Message:      res.SummaryMessage,
			ToastMessage: res.SummaryMessage,
			Data: map[string]interface{}{
				"summary": api.Summary{
					Inserted: res.Inserted,
					Updated:  res.Updated,
					Skipped:  res.Skipped,
					Errors:   len(res.Errors),
					Total:    res.Inserted + res.Updated + res.Skipped,
				},
				"errors":           res.Errors,
				"referenceOptions": res.ReferenceOptions,
			},
			Meta: fp.Meta(map[string]interface{}{"runId": res.RunID}),
		}
		api.RecordRun(h.History, r, notification.RunNotice{
			RunID:    res.RunID,
			Pipeline: PipelineImport,
			FileName: up.FileName,
			Status:   status,
			Checksum: fp.Sum,
			At:       time.Now(),
		}, env)
		api.RespondJSON(w, status, env)
	}
}

// UpdateCompliance handles POST /vendors/compliance-update.
func (h *Handler) UpdateCompliance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, sheet, ok := h.readSheet(w, r)
		if !ok {
			return
		}
		defer up.Remove()

		res, err := h.Updater.Update(r.Context(), sheet)
		if err != nil {
			logger.LogError(h.log(), "vendors", "UpdateCompliance", "vendor update failed", up.FileName, err)
			api.RespondWithCode(w, http.StatusInternalServerError, constants.CodeInternal, constants.ErrVendorUpdateFailed, constants.ErrVendorUpdateFailed,
				map[string]interface{}{constants.ValueError: err.Error()})
			return
		}
		fp := api.FingerprintUpload(h.Checksums, up, res.RunID, time.Now())
		status := http.StatusOK
		if res.Updated == 0 || len(res.Errors) > 0 {
			status = http.StatusAccepted
		}
		env := api.Envelope{
			Success:      true,
			Message:      res.SummaryMessage,
			ToastMessage: res.SummaryMessage,
			Data: map[string]interface{}{
				"summary": api.Summary{
					Updated: res.Updated,
					Skipped: res.Skipped,
					Errors:  len(res.Errors),
					Total:   res.Updated + res.Skipped,
				},
				"errors":           res.Errors,
				"referenceOptions": res.ReferenceOptions,
			},
			Meta: fp.Meta(map[string]interface{}{"runId": res.RunID}),
		}
		api.RecordRun(h.History, r, notification.RunNotice{
			RunID:    res.RunID,
			Pipeline: PipelineUpdate,
			FileName: up.FileName,
			Status:   status,
			Checksum: fp.Sum,
			At:       time.Now(),
		}, env)
		api.RespondJSON(w, status, env)
	}
}
