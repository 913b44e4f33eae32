package fecfile

// UnknownReportCode is the label for codes missing from the table.
const UnknownReportCode = "[Unknown report code]"

var reportCodeLabels = map[string]string{
	"10D": "Pre-Election",
	"10G": "Pre-General",
	"10P": "Pre-Primary",
	"10R": "Pre-Run-Off",
	"10S": "Pre-Special",
	"12C": "Pre-Convention",
	"12G": "Pre-General",
	"12P": "Pre-Primary",
	"12R": "Pre-Run-Off",
	"12S": "Pre-Special",
	"30D": "Post-Election",
	"30G": "Post-General",
	"30P": "Post-Primary",
	"30R": "Post-Run-Off",
	"30S": "Post-Special",
	"60D": "Post-Convention",
	"M1":  "January Monthly",
	"M2":  "February Monthly",
	"M3":  "March Monthly",
	"M4":  "April Monthly",
	"M5":  "May Monthly",
	"M6":  "June Monthly",
	"M7":  "July Monthly",
	"M8":  "August Monthly",
	"M9":  "September Monthly",
	"M10": "October Monthly",
	"M11": "November Monthly",
	"M12": "December Monthly",
	"MY":  "Mid-Year Report",
	"Q1":  "April Quarterly",
	"Q2":  "July Quarterly",
	"Q3":  "October Quarterly",
	"TER": "Termination Report",
	"YE":  "Year-End",
	"ADJ": "COMP ADJUST AMEND",
	"CA":  "COMPREHENSIVE AMEND",
	"90S": "Post Inaugural Supplement",
	"90D": "Post Inaugural",
	"48":  "48 Hour Notification",
	"24":  "24 Hour Notification",
	"M7S": "July Monthly/Semi-Annual",
	"MSA": "Monthly Semi-Annual (MY)",
	"MYS": "Monthly Year End/Semi-Annual",
	"Q2S": "July Quarterly/Semi-Annual",
	"QSA": "Quarterly Semi-Annual (MY)",
	"QYS": "Quarterly Year End/Semi-Annual",
	"QYE": "Quarterly Semi-Annual (YE)",
	"QMS": "Quarterly Mid-Year/ Semi-Annual",
	"MSY": "Monthly Semi-Annual (YE)",
}

// ReportCodeLabel returns the human-readable name of a cover report code.
func ReportCodeLabel(code string) string {
	if label, ok := reportCodeLabels[code]; ok {
		return label
	}
	return UnknownReportCode
}
