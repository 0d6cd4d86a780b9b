package config

// Upload and export whitelists. Extensions are compared lowercased with
// the leading dot.
var (
	// AllowedRosterExtensions are accepted for roster uploads.
	AllowedRosterExtensions = []string{".csv", ".xlsx", ".xls"}

	// AllowedResultExtensions are accepted for result document uploads.
	AllowedResultExtensions = []string{".pdf"}

	// AllowedExportFormats maps an export format name to its extension.
	AllowedExportFormats = map[string]string{
		"csv":  ".csv",
		"xlsx": ".xlsx",
	}
)
