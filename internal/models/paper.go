package models

// Paper codes accepted for submissions, with their display labels.
var paperLabels = map[string]string{
	"PM":  "Performance Management (PM/F5)",
	"FM":  "Financial Management (FM/F9)",
	"FR":  "Financial Reporting (FR/F7)",
	"AA":  "Audit and Assurance (AA/F8)",
	"TX":  "Taxation (TX/F6)",
	"SBL": "Strategic Business Leader (SBL)",
	"SBR": "Strategic Business Reporting (SBR)",
	"AFM": "Advanced Financial Management (AFM)",
	"APM": "Advanced Performance Management (APM)",
	"ATX": "Advanced Taxation (ATX)",
	"AAA": "Advanced Audit and Assurance (AAA)",
}

// IsValidPaper reports whether code names a known exam paper.
func IsValidPaper(code string) bool {
	_, ok := paperLabels[code]
	return ok
}

// PaperLabel returns the display label for a paper code, or the code itself
// when unknown.
func PaperLabel(code string) string {
	if label, ok := paperLabels[code]; ok {
		return label
	}
	return code
}
