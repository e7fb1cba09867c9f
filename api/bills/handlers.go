package bills

import (
	"errors"
	"net/http"
	"time"

	"BillTrackerSaas/api"
	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/api/utils"
	"BillTrackerSaas/internal/checksum"
	"BillTrackerSaas/internal/ingest/workbook"
	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/internal/notification"
	"BillTrackerSaas/internal/resource"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	PipelineImport = "bills.import"
	PipelinePatch  = "bills.patch"
)

var patchExtensions = []string{"xlsx", "xls"}

// Handler serves the bill ingestion endpoints.
type Handler struct {
	Importer  *Importer
	Patcher   *Patcher
	Lock      *resource.RunLock
	Checksums *checksum.ChecksumMatcher
	History   *notification.NotificationService
	UploadDir string
	Log       logrus.FieldLogger
	Now       func() time.Time
}

// Routes registers the bill endpoints on r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/bills/import", h.ImportBills()).Methods(http.MethodPost)
	r.HandleFunc("/bills/patch", h.PatchBills()).Methods(http.MethodPost)
	r.HandleFunc("/bills/import/history", h.ImportHistory()).Methods(http.MethodGet)
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) log() logrus.FieldLogger {
	if h.Log != nil {
		return h.Log
	}
	return logger.L()
}

// acquire takes the run lock, answering 409 when another run holds it.
func (h *Handler) acquire(w http.ResponseWriter, r *http.Request) (func(), bool) {
	release, err := h.Lock.Acquire(r.Context())
	if errors.Is(err, resource.ErrLocked) {
		api.RespondWithCode(w, http.StatusConflict, constants.CodeImportLocked, constants.ErrImportLocked, constants.ToastImportLocked, nil)
		return nil, false
	}
	if err != nil {
		api.RespondWithCode(w, http.StatusInternalServerError, constants.CodeInternal, constants.ErrInternalServer, "", nil)
		return nil, false
	}
	return release, true
}

// ImportBills handles POST /bills/import?patchOnly=true|false.
func (h *Handler) ImportBills() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := api.ReceiveUpload(w, r, h.UploadDir, constants.AllowedUploadExtensions)
		if !ok {
			return
		}
		defer up.Remove()

		opts := Options{PatchOnly: api.QueryBool(r, "patchOnly"), ValidateVendors: true}
		if opts.PatchOnly && up.Ext == "csv" {
			api.RespondWithCode(w, http.StatusBadRequest, constants.CodeUnsupportedFormat, constants.ErrCSVPatchUnsupported, constants.ErrCSVPatchUnsupported, nil)
			return
		}
		sheet, ok := api.OpenSheet(w, up, workbook.Options{Banner: workbook.BannerReport})
		if !ok {
			return
		}
		release, ok := h.acquire(w, r)
		if !ok {
			return
		}
		defer release()

		res, err := h.Importer.Import(r.Context(), sheet, opts)
		if err != nil {
			logger.LogError(h.log(), "bills", "ImportBills", "import run failed", up.FileName, err)
			api.RespondWithCode(w, http.StatusInternalServerError, constants.CodeInternal, constants.ErrImportFailed, constants.ToastImportFailed,
				map[string]interface{}{constants.ValueError: err.Error()})
			return
		}
		fp := api.FingerprintUpload(h.Checksums, up, res.RunID, h.now())
		status, env := ImportEnvelope(res, fp)
		h.record(r, PipelineImport, up, res.RunID, status, env, fp)
		api.RespondJSON(w, status, env)
	}
}

// PatchBills handles POST /bills/patch?team=...
func (h *Handler) PatchBills() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := api.ReceiveUpload(w, r, h.UploadDir, patchExtensions)
		if !ok {
			return
		}
		defer up.Remove()

		sheet, ok := api.OpenSheet(w, up, workbook.Options{Banner: workbook.BannerReport})
		if !ok {
			return
		}
		rs := h.restrictionFor(r)
		release, ok := h.acquire(w, r)
		if !ok {
			return
		}
		defer release()

		res, err := h.Patcher.Patch(r.Context(), sheet, rs)
		if errors.Is(err, ErrNoSerialColumn) {
			api.RespondWithCode(w, http.StatusBadRequest, constants.CodeMissingHeaders, constants.ErrSrNoColumnMissing, constants.ErrSrNoColumnMissing,
				map[string]interface{}{"foundHeaders": sheet.Headers})
			return
		}
		if err != nil {
			logger.LogError(h.log(), "bills", "PatchBills", "patch run failed", up.FileName, err)
			api.RespondWithCode(w, http.StatusInternalServerError, constants.CodeInternal, constants.ErrPatchFailed, constants.ErrPatchFailed,
				map[string]interface{}{constants.ValueError: err.Error()})
			return
		}
		fp := api.FingerprintUpload(h.Checksums, up, res.RunID, h.now())
		status, env := PatchEnvelope(res, fp)
		h.record(r, PipelinePatch, up, res.RunID, status, env, fp)
		api.RespondJSON(w, status, env)
	}
}

// restrictionFor derives the caller's field restriction from the session role
// and the team query parameter.
func (h *Handler) restrictionFor(r *http.Request) Restriction {
	role := ""
	if s := api.GetSessionFromCtx(r.Context()); s != nil {
		role = s.Role
	}
	team := r.URL.Query().Get("team")
	if team == "" && r.MultipartForm != nil {
		team = r.FormValue("team")
	}
	return ResolveRestriction(team, role)
}

// ImportHistory handles GET /bills/import/history.
func (h *Handler) ImportHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var notices []notification.RunNotice
		if h.History != nil {
			notices = h.History.GetNotifications()
		}
		p, err := utils.ExtractPagination(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		page := utils.Paginate(notices, &p)
		api.RespondJSON(w, http.StatusOK, map[string]interface{}{
			constants.ValueSuccess: true,
			"rows":                 page,
			"pagination":           p,
		})
	}
}

func (h *Handler) record(r *http.Request, pipeline string, up *utils.Upload, runID string, status int, env api.Envelope, fp api.Fingerprint) {
	api.RecordRun(h.History, r, notification.RunNotice{
		RunID:    runID,
		Pipeline: pipeline,
		FileName: up.FileName,
		Status:   status,
		Checksum: fp.Sum,
		At:       h.now(),
	}, env)
}
