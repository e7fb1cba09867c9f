package constants

// Request / response keys
const (
	KeyUserID    = "user_id"
	KeySessionID = "session_id"
	KeyFile      = "file"

	ValueSuccess = "success"
	ValueError   = "error"
	ValueCode    = "code"
)

// Content Types
const (
	ContentTypeJSON      = "application/json"
	ContentTypeText      = "Content-Type"
	ContentTypeMultipart = "multipart/form-data"
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"
	DateFormatAlt  = "02-01-2006"
)

// Error codes carried in failed responses
const (
	CodeNoFile            = "NO_FILE"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeMissingHeaders    = "MISSING_HEADERS"
	CodeImportLocked      = "IMPORT_LOCKED"
	CodeNoWorksheet       = "NO_WORKSHEET"
	CodeInternal          = "INTERNAL"
	CodeUnauthorized      = "UNAUTHORIZED"
)

// Accepted upload extensions
var AllowedUploadExtensions = []string{"xlsx", "xls", "csv", "ods"}
