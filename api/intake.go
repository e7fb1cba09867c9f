package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/api/utils"
	"BillTrackerSaas/internal/checksum"
	"BillTrackerSaas/internal/ingest/workbook"
	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/internal/notification"
)

// Summary is the count block of an ingestion response.
type Summary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
	Total    int `json:"total"`
}

// Envelope is the response body shared by every ingestion endpoint.
type Envelope struct {
	Success      bool                   `json:"success"`
	Message      string                 `json:"message"`
	ToastMessage string                 `json:"toastMessage,omitempty"`
	Data         map[string]interface{} `json:"data"`
	Meta         map[string]interface{} `json:"meta"`
}

// ReceiveUpload spools the request file into dir. On failure it writes the
// error response and returns false.
func ReceiveUpload(w http.ResponseWriter, r *http.Request, dir string, allowed []string) (*utils.Upload, bool) {
	up, err := utils.SaveUpload(w, r, dir, allowed)
	switch {
	case err == nil:
		return up, true
	case errors.Is(err, utils.ErrNoFile):
		RespondWithCode(w, http.StatusBadRequest, constants.CodeNoFile, constants.ErrNoFileUploaded, constants.ErrNoFileDetails, nil)
	case errors.Is(err, utils.ErrFileTooLarge):
		RespondWithCode(w, http.StatusBadRequest, constants.CodeUnsupportedFormat, constants.ErrFileTooLarge, constants.ErrFileTooLarge, nil)
	case errors.Is(err, utils.ErrUnsupportedUpload):
		RespondWithCode(w, http.StatusBadRequest, constants.CodeUnsupportedFormat, constants.ErrUnsupportedFormat, constants.ErrUnsupportedFormat, nil)
	default:
		logger.LogError(logger.L(), "api", "ReceiveUpload", "save upload", r.URL.Path, err)
		RespondWithCode(w, http.StatusInternalServerError, constants.CodeInternal, constants.ErrInternalServer, "", nil)
	}
	return nil, false
}

// OpenSheet reads the first worksheet of up. On failure it writes the error
// response and returns false.
func OpenSheet(w http.ResponseWriter, up *utils.Upload, opts workbook.Options) (*workbook.Sheet, bool) {
	sheet, err := workbook.Open(up.Path, opts)
	switch {
	case err == nil:
		return sheet, true
	case errors.Is(err, workbook.ErrUnsupportedFormat):
		RespondWithCode(w, http.StatusBadRequest, constants.CodeUnsupportedFormat, constants.ErrUnsupportedFormat, constants.ErrUnsupportedFormat, nil)
	case errors.Is(err, workbook.ErrNoWorksheet):
		RespondWithCode(w, http.StatusBadRequest, constants.CodeNoWorksheet, constants.ErrNoWorksheet, constants.ErrNoWorksheet, nil)
	default:
		logger.L().WithError(err).WithField("file", up.FileName).Warn("unreadable workbook")
		RespondWithCode(w, http.StatusBadRequest, constants.CodeUnsupportedFormat, constants.ErrInvalidFileFormat, constants.ErrInvalidFileFormat, nil)
	}
	return nil, false
}

// Fingerprint is the upload checksum and whether identical content was seen.
type Fingerprint struct {
	Sum       string
	Duplicate bool
	Previous  checksum.Sighting
}

// FingerprintUpload hashes up and records it against runID. Failures are
// logged and yield an empty fingerprint.
func FingerprintUpload(cm *checksum.ChecksumMatcher, up *utils.Upload, runID string, now time.Time) Fingerprint {
	sum, err := checksum.SumFile(up.Path)
	if err != nil {
		logger.L().WithError(err).Warn("checksum upload")
		return Fingerprint{}
	}
	fp := Fingerprint{Sum: sum}
	if cm != nil {
		prev, dup, err := cm.Match(sum, runID, now)
		if err == nil {
			fp.Duplicate, fp.Previous = dup, prev
		}
	}
	logger.Audit("upload %s run=%s sha256=%s duplicate=%t", up.FileName, runID, sum, fp.Duplicate)
	return fp
}

// Meta returns the fingerprint fields of a response meta block.
func (fp Fingerprint) Meta(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	if fp.Sum != "" {
		meta["checksum"] = fp.Sum
	}
	meta["duplicateUpload"] = fp.Duplicate
	if fp.Duplicate {
		meta["previousRunId"] = fp.Previous.RunID
	}
	return meta
}

// QueryBool reads a boolean flag from the query string or the form.
func QueryBool(r *http.Request, key string) bool {
	raw := r.URL.Query().Get(key)
	if raw == "" && r.MultipartForm != nil {
		raw = r.FormValue(key)
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}

// RecordRun stores a finished run in the history and writes the audit line.
func RecordRun(history *notification.NotificationService, r *http.Request, n notification.RunNotice, env Envelope) {
	n.UserID = GetUserIDFromCtx(r.Context())
	n.Message = env.Message
	n.Counts = map[string]int{}
	line := ""
	if s, ok := env.Data["summary"].(Summary); ok {
		n.Counts = map[string]int{
			"inserted": s.Inserted,
			"updated":  s.Updated,
			"skipped":  s.Skipped,
			"errors":   s.Errors,
			"total":    s.Total,
		}
		line = fmt.Sprintf("inserted=%d updated=%d skipped=%d errors=%d total=%d", s.Inserted, s.Updated, s.Skipped, s.Errors, s.Total)
	}
	if history != nil {
		history.AddNotification(n)
	}
	logger.Audit("%s run=%s file=%s user=%s status=%d %s", n.Pipeline, n.RunID, n.FileName, n.UserID, n.Status, line)
}
