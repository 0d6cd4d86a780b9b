package extractor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"rankcli/pkg/contracts/domain"
)

// Errors distinguishing an unprocessable document from a parse with
// results. Callers must not merge anything when either is returned.
var (
	ErrEmptyText = errors.New("document produced no text")
	ErrNoRecords = errors.New("document contains no grade records")
)

// moduleHeaderPattern matches a header line such as
// "CS2023 - Data Structures". The name capture runs over letters and
// spaces only, so it stops at the end of the line on its own; stop
// keywords are cut afterwards.
var moduleHeaderPattern = regexp.MustCompile(`([A-Z]{2}\d{4})\s*-\s*([A-Za-z][A-Za-z ]*)`)

// moduleCodePattern is the bare-code fallback when no structured header
// line exists.
var moduleCodePattern = regexp.MustCompile(`[A-Z]{2}\d{4}`)

// nameStopKeywords end the module name when they appear inside the
// matched header text.
var nameStopKeywords = []string{"Intake"}

// gradeRecordPattern matches an index number (6 digits + uppercase
// letter) followed by whitespace and exactly one token from the accepted
// grade enumeration. The alternation is generated from domain.GradeSymbols,
// which lists longer spellings first so the incomplete sentinels win over
// their single-letter prefixes.
var gradeRecordPattern = regexp.MustCompile(`(\d{6}[A-Z])\s+(` + gradeAlternation() + `)`)

func gradeAlternation() string {
	quoted := make([]string, len(domain.GradeSymbols))
	for i, s := range domain.GradeSymbols {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return strings.Join(quoted, "|")
}

// Extract parses one result document's raw text. It returns the module
// descriptor (falling back to the Unknown sentinels when no header or
// code is found) and every grade record in document order. Duplicate
// index numbers are retained as separate records; resolving them is a
// merge-time policy. A document yielding zero records is unprocessable
// and returns ErrNoRecords (ErrEmptyText for blank input) alongside the
// descriptor, so the caller can still report which module failed.
func Extract(text string) (domain.ModuleDescriptor, []domain.GradeRecord, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ModuleDescriptor{
			Code: domain.UnknownModuleCode,
			Name: domain.UnknownModuleName,
		}, nil, ErrEmptyText
	}

	desc := extractModule(text)

	matches := gradeRecordPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return desc, nil, fmt.Errorf("module %s: %w", desc.Code, ErrNoRecords)
	}

	records := make([]domain.GradeRecord, 0, len(matches))
	for _, m := range matches {
		records = append(records, domain.GradeRecord{
			IndexNo: Sanitize(m[1]),
			Grade:   Sanitize(m[2]),
		})
	}

	return desc, records, nil
}

// extractModule locates the module code and name. Preference order:
// a structured "CODE - Name" header line, then a bare code anywhere in
// the text, then the Unknown sentinels.
func extractModule(text string) domain.ModuleDescriptor {
	if m := moduleHeaderPattern.FindStringSubmatch(text); m != nil {
		name := m[2]
		for _, stop := range nameStopKeywords {
			if i := strings.Index(name, stop); i >= 0 {
				name = name[:i]
			}
		}
		name = strings.TrimSpace(name)
		if name != "" {
			return domain.ModuleDescriptor{
				Code: Sanitize(m[1]),
				Name: Sanitize(name),
			}
		}
	}

	if code := moduleCodePattern.FindString(text); code != "" {
		return domain.ModuleDescriptor{
			Code: Sanitize(code),
			Name: domain.UnknownModuleName,
		}
	}

	return domain.ModuleDescriptor{
		Code: domain.UnknownModuleCode,
		Name: domain.UnknownModuleName,
	}
}
