package api

import (
	"encoding/json"
	"net/http"

	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/internal/logger"
)

// RespondJSON writes payload with status.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L().WithError(err).Warn("encode response")
	}
}

// Error response helper
func RespondWithError(w http.ResponseWriter, status int, errMsg string) {
	logger.L().WithField("status", status).Error(errMsg)
	RespondJSON(w, status, map[string]interface{}{
		constants.ValueSuccess: false,
		constants.ValueError:   errMsg,
	})
}

// RespondWithCode writes a failed envelope carrying a machine-readable code.
// extra keys are merged into the body.
func RespondWithCode(w http.ResponseWriter, status int, code, message, toast string, extra map[string]interface{}) {
	logger.L().WithFields(map[string]interface{}{"status": status, "code": code}).Warn(message)
	body := map[string]interface{}{
		constants.ValueSuccess: false,
		constants.ValueCode:    code,
		"message":              message,
	}
	if toast != "" {
		body["toastMessage"] = toast
	}
	for k, v := range extra {
		body[k] = v
	}
	RespondJSON(w, status, body)
}

// RespondWithPayload sends a consistent JSON response and includes an arbitrary payload
func RespondWithPayload(w http.ResponseWriter, success bool, errMsg string, payload interface{}) {
	resp := map[string]interface{}{constants.ValueSuccess: success}
	if !success && errMsg != "" {
		resp[constants.ValueError] = errMsg
		logger.L().Error(errMsg)
	}
	if payload != nil {
		// use a conventional key `rows` for list payloads
		resp["rows"] = payload
	}
	status := http.StatusOK
	if !success {
		status = http.StatusBadRequest
	}
	RespondJSON(w, status, resp)
}
