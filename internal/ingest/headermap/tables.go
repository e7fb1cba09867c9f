package headermap

import (
	"strings"

	"BillTrackerSaas/internal/store"
)

var (
	siteStatuses    = []string{"accept", "reject", "hold", "issue"}
	paymentStatuses = []string{"paid", "unpaid"}
	yesNo           = []string{"Yes", "No"}
	hardCopy        = []string{"YES", "NO"}
)

var billEntries = []entry{
	{[]string{"Sr No.", "Sr No", "Sr no", "Serial No"}, Field{Path: "srNo", Kind: KindSerial}},
	text("srNoOld", "Sr no Old"),
	ref("natureOfWork", store.KindNatureOfWork, "Type of inv", "Type of Inv", "Nature of Work"),
	ref("region", store.KindRegion, "Region"),
	text("projectDescription", "Project Description", "Project"),
	text("vendorNo", "Vendor no", "Vendor No", "Vendor No.", "Vendor Number"),
	text("vendorName", "Vendor Name", "Vendor", "Name"),
	text("gstNumber", "GST Number", "GSTIN", "GST No", "GST No."),
	ref("compliance206AB", store.KindCompliance, "206AB Compliance", "Compliance Status", "Compliance", "206AB"),
	ref("panStatus", store.KindPanStatus, "PAN Status"),
	text("PAN", "PAN", "PAN No", "PAN Number"),
	enum("poCreated", yesNo, "If PO created??", "PO Created"),
	text("poNo", "PO no", "PO No", "PO Number"),
	date("poDate", "PO Dt", "PO Date"),
	amount("poAmt", "PO Amt", "PO Amount"),
	text("proformaInvNo", "Proforma Inv No", "Proforma Invoice No"),
	date("proformaInvDate", "Proforma Inv Dt", "Proforma Invoice Date"),
	amount("proformaInvAmt", "Proforma Inv Amt", "Proforma Invoice Amount"),
	date("proformaInvRecdAtSite", "Proforma Inv Recd at site", "Proforma Invoice Received at Site"),
	text("proformaInvRecdBy", "Proforma Inv Recd by", "Proforma Invoice Received by"),
	text("taxInvNo", "Tax Inv no", "Tax Inv No", "Tax Invoice No", "Tax Invoice Number"),
	date("taxInvDate", "Tax Inv Dt", "Tax Invoice Date", "Tax Inv Date"),
	ref("currency", store.KindCurrency, "Currency"),
	amount("taxInvAmt", "Tax Inv Amt", "Tax Inv Amt ", "Tax Invoice Amount", "Tax Inv Amount"),
	date("taxInvRecdAtSite", "Tax Inv Recd at site", "Tax Invoice Received at Site"),
	text("taxInvRecdBy", "Tax Inv Recd by", "Tax Invoice Received by"),
	text("department", "Department"),
	text("remarksBySiteTeam", "Remarks by Site Team", "Remarks related to Inv", "Site Team Remarks"),
	text("attachment", "Attachment"),
	text("attachmentType", "Attachment Type"),
	date("advanceDate", "Advance Dt", "Advance Date"),
	amount("advanceAmt", "Advance Amt", "Advance Amount"),
	number("advancePercentage", "Advance Percentage", "Advance Percentage "),
	text("advRequestEnteredBy", "Adv request entered by", "Advance Request Entered By"),

	date("qualityEngineer.dateGiven", "Dt given to Quality Engineer", "Date Given to Quality Engineer"),
	text("qualityEngineer.name", "Name of Quality Engineer", "Quality Engineer Name"),
	date("qsInspection.dateGiven", "Dt given to QS for Inspection", "Date Given to QS for Inspection"),
	text("qsInspection.name", "Name of QS", "QS Name"),
	date("qsMeasurementCheck.dateGiven", "Checked by QS with Dt of Measurment", "Checked  by QS with Dt of Measurment", "Checked by QS with Date of Measurement"),
	date("vendorFinalInv.dateGiven", "Given to vendor-Query/Final Inv", "Vendor Final Invoice Date"),
	text("vendorFinalInv.name", "Name of Vendor Final Inv"),
	date("qsCOP.dateGiven", "Dt given to QS for COP", "Date Given to QS for COP"),
	text("qsCOP.name", "Name - QS", "QS COP Name"),
	date("copDetails.date", "COP Dt", "COP Date"),
	amount("copDetails.amount", "COP Amt", "COP Amount"),
	date("copDetails.dateReturned", "COP Date Returned"),
	text("copDetails.remarks", "COP Remarks"),
	text("remarksByQSTeam", "Remarks by QS Team", "QS Team Remarks"),

	date("migoDetails.dateGiven", "Dt given for MIGO", "Date Given for MIGO"),
	text("migoDetails.no", "MIGO no", "MIGO No", "MIGO Number"),
	date("migoDetails.date", "MIGO Dt", "MIGO Date"),
	amount("migoDetails.amount", "MIGO Amt", "MIGO Amount"),
	text("migoDetails.doneBy", "Migo done by", "MIGO Done By", "MIGO done by"),
	date("invReturnedToSite", "Dt-Inv returned to Site office", "Date Invoice Returned to Site Office", "Invoice Returned to Site"),

	date("siteEngineer.dateGiven", "Dt given to Site Engineer", "Date Given to Site Engineer"),
	text("siteEngineer.name", "Name of Site Engineer", "Site Engineer Name"),
	date("architect.dateGiven", "Dt given to Architect", "Date Given to Architect"),
	text("architect.name", "Name of Architect", "Architect Name"),
	date("siteIncharge.dateGiven", "Dt given-Site Incharge", "Date Given to Site Incharge"),
	text("siteIncharge.name", "Name-Site Incharge", "Site Incharge Name"),
	text("remarks", "Remarks", "Remarks "),
	date("siteOfficeDispatch.dateGiven", "Dt given to Site Office for dispatch", "Date Given to Site Office for Dispatch"),
	text("siteOfficeDispatch.name", "Name-Site Office", "Site Office Name"),
	enum("siteStatus", siteStatuses, "Status", "Site Status"),

	date("pimoMumbai.dateGiven", "Dt given to PIMO Mumbai", "Date Given to PIMO Mumbai"),
	date("pimoMumbai.dateReceived", "Dt recd at PIMO Mumbai", "Date Received at PIMO Mumbai"),
	text("pimoMumbai.receivedBy", "Name recd by PIMO Mumbai", "Received By PIMO Mumbai"),
	date("pimoMumbai.dateGivenPIMO", "Dt given to PIMO Mumbai "),
	text("pimoMumbai.namePIMO", "Name -PIMO", "PIMO Name"),
	date("pimoMumbai.dateGivenPIMO2", "Dt given to PIMO Mumbai 2"),
	text("pimoMumbai.namePIMO2", "Name-given to PIMO", "PIMO Name 2"),
	date("pimoMumbai.dateReceivedFromIT", "Dt recd from IT Deptt"),
	date("pimoMumbai.dateReceivedFromPIMO", "Dt recd from PIMO", "Date Received from PIMO"),
	date("pimoMumbai.dateReturnedFromQs", "Dt returned from QS", "Date Returned from QS"),
	date("pimoMumbai.dateReturnedFromDirector", "Dt returned from Director", "Date Returned from Director", "Dt ret-PIMO aft approval"),
	date("pimoMumbai.dateReturnedFromSES", "Dt returned from SES", "Date Returned from SES"),
	date("qsMumbai.dateGiven", "Dt given to QS Mumbai", "Date Given to QS Mumbai"),
	text("qsMumbai.name", "Name of QS Mumbai", "QS Mumbai Name"),
	date("itDept.dateGiven", "Dt given to IT Dept", "Date Given to IT Department"),
	text("itDept.name", "Name- given to IT Dept", "IT Department Name"),
	date("itDept.dateReceived", "Dt recd from IT Dept", "Date Received from IT Department"),

	text("sesDetails.no", "SES no", "SES No", "SES Number"),
	amount("sesDetails.amount", "SES Amt", "SES Amount"),
	date("sesDetails.date", "SES Dt", "SES Date"),
	text("sesDetails.doneBy", "SES done by", "SES Done By"),
	text("sesDetails.name", "SES Name"),
	date("sesDetails.dateGiven", "Dt given for SES", "Date Given for SES"),

	date("approvalDetails.directorApproval.dateGiven", "Dt given to Director/Advisor/Trustee for approval", "Date Given to Director for Approval"),
	date("approvalDetails.directorApproval.dateReceived", "Dt recd back in PIMO after approval", "Date Received in PIMO After Approval"),
	text("approvalDetails.remarksPimoMumbai", "Remarks PIMO Mumbai", "PIMO Mumbai Remarks"),

	date("accountsDept.dateGiven", "Dt given to Accts dept", "Date Given to Accounts Department"),
	text("accountsDept.givenBy", "Name -given by PIMO office", "Given By PIMO Office"),
	date("accountsDept.dateReceived", "Dt recd in Accts dept", "Date Received in Accounts Department"),
	text("accountsDept.receivedBy", "Name recd by Accts dept", "Received By Accounts Department"),
	date("accountsDept.returnedToPimo", "Dt returned back to PIMO", "Dt returned back to  PIMO", "Date Returned to PIMO"),
	date("accountsDept.receivedBack", "Dt recd back in Accts dept", "Date Received Back in Accounts"),
	text("accountsDept.invBookingChecking", "Inv given for booking and checking", "Invoice Booking and Checking"),
	text("accountsDept.paymentInstructions", "Payment instructions", "Payment Instructions"),
	text("accountsDept.remarksForPayInstructions", "Remarks for pay instructions", "Payment Instructions Remarks"),
	text("accountsDept.f110Identification", "F110 Identification"),
	date("accountsDept.paymentDate", "Dt of Payment", "Payment Date"),
	enum("accountsDept.hardCopy", hardCopy, "Hard Copy"),
	text("accountsDept.accountsIdentification", "Accts Identification", "Accounts Identification"),
	amount("accountsDept.paymentAmt", "Payment Amt", "Payment Amount"),
	text("accountsDept.remarksAcctsDept", "Remarks Accts dept", "Accounts Department Remarks"),
	enum("accountsDept.status", paymentStatuses, "Accts Status", "Payment Status"),

	text("miroDetails.number", "MIRO no", "MIRO No", "MIRO Number"),
	date("miroDetails.date", "MIRO Dt", "MIRO Date"),
	amount("miroDetails.amount", "MIRO Amt", "MIRO Amount"),

	date("billDate", "Bill Date"),
	amount("amount", "Amount", "Bill Amount", "Total Amount"),
	text("addl1", "Addl 1", "Additional 1"),
	text("addl2", "Addl 2", "Additional 2"),
	list("emailIds", "Email", "Email ID", "Email IDs", "EmailId", "Email Address"),
	list("phoneNumbers", "Phone", "Phone No", "Phone No.", "Phone Number", "Phone Numbers", "Mobile", "Mobile No", "Mobile Number"),
}

var vendorEntries = []entry{
	number("vendorNo", "Vendor no", "Vendor No", "Vendor No.", "Vendor Number"),
	text("addl1", "Addl 1", "Addl1", "Additional 1", "Additional1"),
	text("addl2", "Addl 2", "Addl2", "Additional 2", "Additional2"),
	text("vendorName", "Vendor Name", "Vendor", "Name", "Supplier Name"),
	text("PAN", "PAN", "PAN No", "PAN No.", "PAN Number"),
	text("GSTNumber", "GST Number", "GST No", "GST No.", "GSTIN"),
	ref("complianceStatus", store.KindCompliance, "206AB Compliance", "Compliance Status", "206AB", "Compliance"),
	ref("PANStatus", store.KindPanStatus, "PAN Status", "Status"),
	list("emailIds", "Email", "Email ID", "Email IDs", "EmailId", "Email Address"),
	list("phoneNumbers", "Phone", "Phone No", "Phone No.", "Phone Number", "Phone Numbers", "Mobile", "Mobile No", "Mobile Number"),
}

// RequiredVendorHeaders must all be present for vendor import and update.
var RequiredVendorHeaders = []string{"Vendor No", "Vendor Name", "PAN Status", "206AB Compliance"}

// Missing returns the required headers absent from found. Matching ignores
// case and surrounding or repeated whitespace.
func Missing(found, required []string) []string {
	have := make(map[string]bool, len(found))
	for _, h := range found {
		have[strings.ToLower(Normalize(h))] = true
	}
	missing := []string{}
	for _, h := range required {
		if !have[strings.ToLower(Normalize(h))] {
			missing = append(missing, h)
		}
	}
	return missing
}
