package roster

import (
	"fmt"
	"strings"

	"rankcli/pkg/contracts/domain"
)

// IdentityColumn is the mandatory key column of every roster.
const IdentityColumn = "Index"

// Sentinel errors for roster shape violations.
var (
	ErrMissingIdentityColumn = fmt.Errorf("roster is missing the %q column", IdentityColumn)
	ErrDuplicateIndex        = fmt.Errorf("roster contains duplicate %q values", IdentityColumn)
	ErrDuplicateModule       = fmt.Errorf("module grade column already exists")
	ErrUnknownColumn         = fmt.Errorf("column does not exist")
)

// Table is the roster: an ordered set of named columns over an ordered set
// of rows keyed by the identity column. A cell can be absent, which is how
// an unmatched grade is represented internally; the N/A display sentinel is
// produced only at the output boundary.
type Table struct {
	columns []string
	rows    []map[string]string
}

// New builds a Table from a header and rows, validating roster shape:
// the identity column must be present and every row must carry a unique,
// non-empty identity value.
func New(columns []string, rows []map[string]string) (*Table, error) {
	hasIdentity := false
	for _, c := range columns {
		if c == IdentityColumn {
			hasIdentity = true
			break
		}
	}
	if !hasIdentity {
		return nil, ErrMissingIdentityColumn
	}

	seen := make(map[string]struct{}, len(rows))
	copied := make([]map[string]string, 0, len(rows))
	for i, r := range rows {
		id := strings.TrimSpace(r[IdentityColumn])
		if id == "" {
			return nil, fmt.Errorf("row %d: empty %q value: %w", i, IdentityColumn, ErrMissingIdentityColumn)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("row %d: %q appears twice: %w", i, id, ErrDuplicateIndex)
		}
		seen[id] = struct{}{}

		row := make(map[string]string, len(r))
		for k, v := range r {
			row[k] = v
		}
		row[IdentityColumn] = id
		copied = append(copied, row)
	}

	return &Table{columns: append([]string(nil), columns...), rows: copied}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Index returns the identity value of row i.
func (t *Table) Index(i int) string {
	return t.rows[i][IdentityColumn]
}

// Cell returns the raw value of a cell and whether it is present.
func (t *Table) Cell(i int, column string) (string, bool) {
	v, ok := t.rows[i][column]
	return v, ok
}

// Display returns the cell value for output. Absent cells in grade columns
// become the N/A sentinel; absent cells elsewhere render empty.
func (t *Table) Display(i int, column string) string {
	if v, ok := t.rows[i][column]; ok {
		return v
	}
	if strings.HasSuffix(column, domain.GradeColumnSuffix) {
		return domain.NotAvailable
	}
	return ""
}

// Row returns row i rendered for output, in column order.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.columns))
	for j, c := range t.columns {
		out[j] = t.Display(i, c)
	}
	return out
}

// Modules lists the module codes that already have a grade column, in
// column order.
func (t *Table) Modules() []string {
	var codes []string
	for _, c := range t.columns {
		if code, ok := strings.CutSuffix(c, domain.GradeColumnSuffix); ok {
			codes = append(codes, code)
		}
	}
	return codes
}

// HasModule reports whether a grade column exists for the module code.
func (t *Table) HasModule(code string) bool {
	return t.hasColumn(domain.GradeColumn(code))
}

func (t *Table) hasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// DropModule returns a copy of the table without the module's grade
// column. Dropping a module that was never merged is a no-op copy.
func (t *Table) DropModule(code string) *Table {
	return t.DropColumns(domain.GradeColumn(code))
}

// DropColumns returns a copy of the table without the named columns.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}

	cols := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if _, gone := drop[c]; !gone {
			cols = append(cols, c)
		}
	}

	rows := make([]map[string]string, len(t.rows))
	for i, r := range t.rows {
		row := make(map[string]string, len(r))
		for k, v := range r {
			if _, gone := drop[k]; !gone {
				row[k] = v
			}
		}
		rows[i] = row
	}

	return &Table{columns: cols, rows: rows}
}

// WithColumn returns a copy of the table with one new column appended.
// values[i] belongs to row i; a nil entry leaves the cell absent. The
// column must not already exist, and the value count must match the row
// count, so a column is always added whole or not at all.
func (t *Table) WithColumn(name string, values []*string) (*Table, error) {
	if t.hasColumn(name) {
		return nil, fmt.Errorf("column %q: %w", name, ErrDuplicateModule)
	}
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q: %d values for %d rows", name, len(values), len(t.rows))
	}

	rows := make([]map[string]string, len(t.rows))
	for i, r := range t.rows {
		row := make(map[string]string, len(r)+1)
		for k, v := range r {
			row[k] = v
		}
		if values[i] != nil {
			row[name] = *values[i]
		}
		rows[i] = row
	}

	return &Table{columns: append(t.Columns(), name), rows: rows}, nil
}

// Reorder returns a copy of the table with rows arranged per the
// permutation: output row i is input row perm[i].
func (t *Table) Reorder(perm []int) (*Table, error) {
	if len(perm) != len(t.rows) {
		return nil, fmt.Errorf("permutation has %d entries for %d rows", len(perm), len(t.rows))
	}
	rows := make([]map[string]string, len(t.rows))
	seen := make([]bool, len(t.rows))
	for i, p := range perm {
		if p < 0 || p >= len(t.rows) || seen[p] {
			return nil, fmt.Errorf("invalid permutation entry %d", p)
		}
		seen[p] = true
		rows[i] = t.rows[p]
	}
	return &Table{columns: t.Columns(), rows: rows}, nil
}
