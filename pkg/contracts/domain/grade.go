package domain

// GradeRecord represents one (student, grade) pair extracted from a result
// document. Values have already been through the sanitizer; no further
// cleaning happens downstream.
type GradeRecord struct {
	IndexNo string `json:"index_no" validate:"required"`
	Grade   string `json:"grade" validate:"required"`
}

// GradeSymbols is the explicit, versioned enumeration of accepted grade
// tokens. Extraction matches against exactly this list, longest spelling
// first, so the two-character incomplete sentinels are never split into a
// letter grade plus trailing garbage.
var GradeSymbols = []string{
	"I-we", "I-ca",
	"A+", "A-", "AB", "B+", "B-", "C+", "C-",
	"A", "B", "C", "D", "F",
}

// NotAvailable is the display sentinel for a student the roster knows about
// but a result document did not mention. It only exists at the output
// boundary; internally the cell is simply absent.
const NotAvailable = "N/A"

// GradeColumnSuffix is appended to a module code to name its grade column.
const GradeColumnSuffix = "_Grade"

// GradeColumn returns the roster column name for a module's grades.
func GradeColumn(moduleCode string) string {
	return moduleCode + GradeColumnSuffix
}
