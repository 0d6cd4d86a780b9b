package domain

import "time"

// Module code sentinels used when a document carries no recognizable header.
const (
	UnknownModuleCode = "Unknown"
	UnknownModuleName = "Unknown Module"
)

// ModuleDescriptor identifies the module a result document belongs to.
type ModuleDescriptor struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Unknown reports whether the descriptor fell back to the sentinel code.
func (m ModuleDescriptor) Unknown() bool {
	return m.Code == UnknownModuleCode
}

// WeightMap assigns a credit weight to each module code. Weights are
// supplied per session and validated against the 0.5-10 credit range
// before ranking runs.
type WeightMap map[string]float64

// UploadRecord captures one processed result document in a session's
// history so the review surface can show what has been merged so far.
type UploadRecord struct {
	ModuleCode  string    `json:"module_code"`
	ModuleName  string    `json:"module_name"`
	RecordCount int       `json:"record_count"`
	Replaced    bool      `json:"replaced"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
