package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"rankcli/internal/roster"
	"rankcli/pkg/contracts/domain"
)

// Derived column names. Both are rebuilt wholesale on every Compute call.
const (
	SGPAColumn = "SGPA"
	RankColumn = "Rank"
)

// Credit weight bounds enforced on every WeightMap entry.
const weightConstraint = "min=0.5,max=10"

var validate = validator.New()

// ErrIncompleteWeights signals that ranking was requested while at least
// one merged module has no weight. Ranking must not run until the caller
// supplies the missing weights.
var ErrIncompleteWeights = errors.New("weights missing for merged modules")

// IncompleteWeightsError carries the module codes that still need a
// weight so the caller can prompt for exactly those.
type IncompleteWeightsError struct {
	Missing []string
}

func (e *IncompleteWeightsError) Error() string {
	return fmt.Sprintf("weights missing for modules: %s", strings.Join(e.Missing, ", "))
}

func (e *IncompleteWeightsError) Unwrap() error { return ErrIncompleteWeights }

// ValidateWeights checks that every module merged into the table has a
// weight and that every supplied weight sits in the accepted credit range.
func ValidateWeights(t *roster.Table, weights domain.WeightMap) error {
	var missing []string
	for _, code := range t.Modules() {
		if _, ok := weights[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return &IncompleteWeightsError{Missing: missing}
	}

	return ValidateWeightBounds(weights)
}

// ValidateWeightBounds checks only the credit range of each weight, for
// callers accepting weights before all modules are merged.
func ValidateWeightBounds(weights domain.WeightMap) error {
	for code, w := range weights {
		if err := validate.Var(w, weightConstraint); err != nil {
			return fmt.Errorf("weight for module %q out of range [0.5, 10]: %v", code, w)
		}
	}
	return nil
}

// Compute derives SGPA and Rank for every student and returns a new table
// sorted ascending by rank. Per student, each grade column whose module
// has a weight and whose grade is in the point table contributes
// points*weight to the weighted sum; everything else (the N/A sentinel, a
// symbol outside the table) is skipped without error. SGPA is the weighted
// mean rounded to 3 decimals, exactly 0.000 when nothing counts. Rank uses
// the minimum method: tied SGPAs share the lowest rank of their group and
// the next distinct value skips past the group. Previous SGPA/Rank columns
// are discarded, never read, so Compute is idempotent.
func Compute(t *roster.Table, weights domain.WeightMap) (*roster.Table, error) {
	if err := ValidateWeights(t, weights); err != nil {
		return nil, err
	}

	base := t.DropColumns(SGPAColumn, RankColumn)
	gradeCols := gradeColumns(base)

	// SGPA held in thousandths so rank comparison is exact after rounding.
	milli := make([]int64, base.Len())
	for i := 0; i < base.Len(); i++ {
		var weightedSum, weightSum float64
		for _, col := range gradeCols {
			grade, present := base.Cell(i, col)
			if !present {
				continue
			}
			code := strings.TrimSuffix(col, domain.GradeColumnSuffix)
			weight, weighted := weights[code]
			points, countable := GradePoint(grade)
			if !weighted || !countable {
				continue
			}
			weightedSum += points * weight
			weightSum += weight
		}
		if weightSum > 0 {
			milli[i] = int64(math.Round(weightedSum / weightSum * 1000))
		}
	}

	// Minimum-method competition rank over SGPA descending.
	ranks := make([]int, base.Len())
	for i := range milli {
		rank := 1
		for j := range milli {
			if milli[j] > milli[i] {
				rank++
			}
		}
		ranks[i] = rank
	}

	sgpaVals := make([]*string, base.Len())
	rankVals := make([]*string, base.Len())
	for i := range milli {
		s := strconv.FormatFloat(float64(milli[i])/1000, 'f', 3, 64)
		r := strconv.Itoa(ranks[i])
		sgpaVals[i] = &s
		rankVals[i] = &r
	}

	out, err := base.WithColumn(SGPAColumn, sgpaVals)
	if err != nil {
		return nil, fmt.Errorf("failed to attach SGPA column: %w", err)
	}
	out, err = out.WithColumn(RankColumn, rankVals)
	if err != nil {
		return nil, fmt.Errorf("failed to attach Rank column: %w", err)
	}

	perm := make([]int, base.Len())
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return ranks[perm[a]] < ranks[perm[b]]
	})

	return out.Reorder(perm)
}

func gradeColumns(t *roster.Table) []string {
	var cols []string
	for _, c := range t.Columns() {
		if strings.HasSuffix(c, domain.GradeColumnSuffix) {
			cols = append(cols, c)
		}
	}
	return cols
}
