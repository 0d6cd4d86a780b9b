package roster

import (
	"fmt"

	"rankcli/pkg/contracts/domain"
)

// Merge left-joins extracted grade records onto the roster by the identity
// column and returns a new table with exactly one new column,
// "<moduleCode>_Grade".
//
// Resolution policy, deliberate on both counts:
//   - duplicate index numbers inside records resolve last-write-wins, since
//     a student holds a single grade slot per module;
//   - records for students absent from the roster are dropped, since roster
//     membership is authoritative for the population.
//
// Roster students with no matching record keep an absent cell, surfaced as
// N/A at the output boundary. The receiver is never mutated; if a grade
// column for the module already exists the merge fails before any work and
// the caller is expected to DropModule first (replace semantics).
func (t *Table) Merge(records []domain.GradeRecord, moduleCode string) (*Table, error) {
	column := domain.GradeColumn(moduleCode)
	if t.hasColumn(column) {
		return nil, fmt.Errorf("module %q: %w", moduleCode, ErrDuplicateModule)
	}

	byIndex := make(map[string]string, len(records))
	for _, r := range records {
		byIndex[r.IndexNo] = r.Grade
	}

	values := make([]*string, len(t.rows))
	for i := range t.rows {
		if grade, ok := byIndex[t.Index(i)]; ok {
			g := grade
			values[i] = &g
		}
	}

	return t.WithColumn(column, values)
}
