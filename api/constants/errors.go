package constants

import "fmt"

// ============================================================================
// AUTHENTICATION & SESSION ERRORS
// ============================================================================

const (
	ErrMissingUserID    = "user_id is required in the request"
	ErrInvalidSession   = "Your session has expired or is invalid. Please login again"
	ErrUnauthorized     = "You are not authorized to perform this action"
	ErrInvalidJSON      = "Invalid JSON"
	ErrMethodNotAllowed = "Method Not Allowed"
)

// ============================================================================
// FILE UPLOAD ERRORS
// ============================================================================

const (
	ErrNoFileUploaded       = "No file uploaded"
	ErrNoFileDetails        = "Please select a file to upload"
	ErrInvalidFileFormat    = "Invalid file format. Please upload a valid file"
	ErrUnsupportedFormat    = "Unsupported file format. Please upload an Excel (.xlsx or .xls) file"
	ErrFileTooLarge         = "File size exceeds the maximum limit of 10MB"
	ErrNoWorksheet          = "No worksheet found in the uploaded file"
	ErrCSVPatchUnsupported  = "CSV files cannot be used for patch imports. Please upload an Excel file"
	ErrMissingHeaders       = "Missing required headers"
	ErrMissingHeadersDetail = "The uploaded file is missing required headers: %s"
)

// ============================================================================
// BILL IMPORT MESSAGES
// ============================================================================

const (
	ErrImportFailed        = "Failed to import bills"
	ToastImportFailed      = "Failed to import bills. Please check the file format and try again"
	ErrImportLocked        = "Another import is in progress"
	ToastImportLocked      = "Another import is running. Please try again in a few minutes"
	ErrDuplicateBill       = "Duplicate bill found - this combination of vendor, invoice number, date, and region already exists"
	ErrSerialGeneration    = "Failed to generate Serial Number"
	MsgVendorWarnings      = "Import completed with warnings - some vendors not found in the vendor master"
	ToastVendorsSkipped    = "Import completed but %d vendor(s) were skipped"
	MsgAlreadyExisting     = "Some bills already exist in the database. Please use the PATCH endpoint instead."
	ToastAlreadyExisting   = "%d bill(s) already exist. Use update option instead"
	RecommendPatchEndpoint = "Use POST /bills/patch to update existing bills, or remove them from the file before importing"
	RecommendVendorMaster  = "Add the missing vendors to the vendor master, then import the skipped rows again"
	ToastImported          = "Successfully imported %d bill(s)"
	ToastUpdated           = "Successfully updated %d bill(s)"
)

// ============================================================================
// PATCH MESSAGES
// ============================================================================

const (
	ErrPatchFailed       = "Failed to patch bills"
	MsgPatchCompleted    = "Patch completed: %d bill(s) updated, %d skipped"
	ToastPatchCompleted  = "Updated %d bill(s)"
	ToastFieldsIgnored   = "%d field update(s) were ignored because they are outside your team's permissions"
	ErrUnknownTeam       = "Unknown team: %s"
	SkipMissingSrNo      = "missing_srno"
	SkipBillNotFound     = "bill_not_found"
	SkipNoUpdates        = "no_updates"
	ErrSrNoColumnMissing = "No Sr No column found in the uploaded file"
)

// ============================================================================
// VENDOR MESSAGES
// ============================================================================

const (
	ErrVendorImportFailed  = "Failed to import vendors"
	ErrVendorUpdateFailed  = "Failed to update vendors"
	ErrVendorExists        = "Vendor %d already exists. Use Mass Update to modify existing vendors."
	ErrVendorMissingFields = "Missing required fields: %s"
	ErrVendorInvalidNumber = "Invalid or missing vendor number: %s"
	ErrVendorNotFound      = "Vendor not found with number: %d"
	MsgVendorsUpdated      = "Successfully updated %d vendor(s)"
	MsgVendorsUpdatedErr   = "Updated %d vendor(s), but %d error(s) occurred"
	MsgVendorsNoneErr      = "No vendors were updated. %d error(s) occurred"
	MsgVendorsNone         = "No vendors were updated"
	MsgVendorsImported     = "Successfully imported %d new vendor(s)"
	MsgVendorsImportedSkip = "Imported %d new vendor(s), skipped %d existing vendor(s)"
	MsgVendorsAllExisting  = "No new vendors imported. %d vendor(s) already exist. Use Mass Update to modify existing vendors."
	MsgVendorsNoneImported = "No vendors were imported"
)

// ============================================================================
// GENERAL ERRORS
// ============================================================================

const (
	ErrInternalServer = "Internal server error. Please contact support"
	ErrDB             = "DB error"
)

// ============================================================================
// HELPER FUNCTIONS TO FORMAT ERRORS WITH CONTEXT
// ============================================================================

// FormatError formats an error message with additional context
func FormatError(baseError string, context ...interface{}) string {
	if len(context) == 0 {
		return baseError
	}
	return fmt.Sprintf(baseError, context...)
}

// Plural returns "s" unless n is 1.
func Plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
