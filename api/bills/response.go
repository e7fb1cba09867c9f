package bills

import (
	"fmt"
	"net/http"

	"BillTrackerSaas/api"
	"BillTrackerSaas/api/constants"
)

// ImportEnvelope builds the response for an import run. Vendor misses and
// already existing bills answer 202 with a recommendation.
func ImportEnvelope(res *ImportResult, fp api.Fingerprint) (int, api.Envelope) {
	summary := api.Summary{
		Inserted: len(res.Inserted),
		Updated:  len(res.Updated),
		Skipped:  res.Skipped,
		Errors:   len(res.Errors),
		Total:    res.TotalProcessed,
	}
	env := api.Envelope{
		Success: true,
		Message: res.Message,
		Data: map[string]interface{}{
			"summary": summary,
			"records": map[string]interface{}{
				"inserted": res.Inserted,
				"updated":  res.Updated,
			},
			"errors": res.Errors,
		},
		Meta: fp.Meta(map[string]interface{}{
			"runId":            res.RunID,
			"mode":             res.Mode,
			"vendorValidation": res.VendorValidation,
			"validVendors":     res.ValidVendors,
		}),
	}

	switch {
	case len(res.NonExistentVendors) > 0:
		names := uniqueVendorNames(res.NonExistentVendors)
		env.Message = constants.MsgVendorWarnings
		env.ToastMessage = fmt.Sprintf(constants.ToastVendorsSkipped, len(names))
		env.Data["skippedRows"] = res.NonExistentVendors
		advise(env, "nonExistentVendors", names)
		advise(env, "recommendation", constants.RecommendVendorMaster)
		if len(res.AlreadyExisting) > 0 {
			advise(env, "existingBills", res.AlreadyExisting)
		}
		return http.StatusAccepted, env
	case len(res.AlreadyExisting) > 0:
		env.Message = constants.MsgAlreadyExisting
		env.ToastMessage = fmt.Sprintf(constants.ToastAlreadyExisting, len(res.AlreadyExisting))
		advise(env, "existingBills", res.AlreadyExisting)
		advise(env, "recommendation", constants.RecommendPatchEndpoint)
		return http.StatusAccepted, env
	case summary.Updated > 0 && summary.Inserted == 0:
		env.ToastMessage = fmt.Sprintf(constants.ToastUpdated, summary.Updated)
	default:
		env.ToastMessage = fmt.Sprintf(constants.ToastImported, summary.Inserted)
	}
	return http.StatusOK, env
}

// advise sets a 202 detail in meta and keeps the data copy older clients read.
func advise(env api.Envelope, key string, value interface{}) {
	env.Meta[key] = value
	env.Data[key] = value
}

func uniqueVendorNames(misses []VendorMiss) []string {
	seen := map[string]bool{}
	names := []string{}
	for _, m := range misses {
		name := m.VendorName
		if name == "" {
			name = m.VendorNo
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// PatchEnvelope builds the response for a patch run. Skipped or failed rows
// answer 202.
func PatchEnvelope(res *PatchResult, fp api.Fingerprint) (int, api.Envelope) {
	summary := api.Summary{
		Updated: res.Updated,
		Skipped: res.Skipped,
		Errors:  len(res.Errors),
		Total:   res.Updated + res.Skipped,
	}
	toast := fmt.Sprintf(constants.ToastPatchCompleted, res.Updated)
	if n := res.IgnoredFields.TotalUpdatesIgnored; n > 0 {
		toast += ". " + fmt.Sprintf(constants.ToastFieldsIgnored, n)
	}
	env := api.Envelope{
		Success:      true,
		Message:      fmt.Sprintf(constants.MsgPatchCompleted, res.Updated, res.Skipped),
		ToastMessage: toast,
		Data: map[string]interface{}{
			"summary": summary,
			"records": map[string]interface{}{
				"updated": res.UpdatedSrNos,
			},
			"skipReasons":        res.SkipReasons,
			"skippedRows":        res.SkippedRows,
			"fieldUpdateSummary": res.FieldUpdateSummary,
			"ignoredFields":      res.IgnoredFields,
			"teamRestrictions":   res.TeamRestrictions,
			"errors":             res.Errors,
		},
		Meta: fp.Meta(map[string]interface{}{
			"runId":    res.RunID,
			"teamName": res.TeamName,
		}),
	}
	if res.Skipped > 0 || len(res.Errors) > 0 {
		return http.StatusAccepted, env
	}
	return http.StatusOK, env
}
