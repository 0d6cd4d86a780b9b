package ranking

// gradePoints is the fixed mapping from grade symbol to point value.
// Lookups are exact and case sensitive; any symbol outside the table is
// uncountable, never an error. Loaded once, never mutated.
var gradePoints = map[string]float64{
	"A+": 4.0, "A": 4.0, "A-": 3.7,
	"B+": 3.3, "B": 3.0, "B-": 2.7,
	"C+": 2.3, "C": 2.0, "C-": 1.7,
	"D": 1.0, "F": 0.0, "AB": 0.0,
	"I-we": 0.0, "I-ca": 0.0,
}

// GradePoint returns the point value for a grade symbol and whether the
// symbol is countable.
func GradePoint(grade string) (float64, bool) {
	p, ok := gradePoints[grade]
	return p, ok
}
