// Package simplex implements the bounded tableau simplex method the
// branch-and-bound search runs at every node: Dantzig pivot-column
// selection, minimum-ratio pivot-row selection, and the cancellation-
// truncating pivot step from internal/matrix.
package simplex

import (
	"resourceflow/internal/bitset"
	"resourceflow/internal/lp"
	"resourceflow/internal/matrix"
	"resourceflow/pkg/apperror"
	"resourceflow/pkg/domain"
)

// Tableau is a simplex tableau in the convention row 0 holds the negated
// objective, rows 1..height-1 are standardized <= constraints augmented
// with an identity slack block, and the last column is the RHS. Basis[r]
// names the column currently basic in row r (row 0 has no basic variable
// and Basis[0] is unused); Selected mirrors the same information as a
// bitset over columns for O(1) "is this column currently basic" checks.
type Tableau struct {
	M        *matrix.Matrix
	Basis    []int
	Selected *bitset.Bitset
}

// NewTableau wraps m as a tableau with the given initial basis (one column
// per constraint row, typically the row's slack column).
func NewTableau(m *matrix.Matrix, initialBasis []int) *Tableau {
	selected := bitset.New(m.Width() - 1)
	for _, col := range initialBasis {
		selected.Set(col)
	}
	basis := make([]int, m.Height())
	basis[0] = -1
	copy(basis[1:], initialBasis)
	return &Tableau{M: m, Basis: basis, Selected: selected}
}

// BuildTableau assembles a tableau for objective and constraints over
// numVars decision variables, appending one slack column per constraint
// row. It rejects a model with constraints remaining but no decision
// variables to express them (every real row should already have been
// resolved by presolve's zero-inference by the time every variable is
// fixed) and a model whose standardized RHS is already negative, which
// would start simplex from an infeasible basic solution no pivot step can
// repair without a phase-1 procedure this solver does not implement.
func BuildTableau(objective *lp.Equation, constraints []lp.Constraint, numVars int) (*Tableau, error) {
	return buildTableau(nil, objective, constraints, numVars)
}

// BuildPooledTableau is BuildTableau, but acquires its backing matrix from
// pool instead of allocating a fresh one. Intended for branch-and-bound's
// node loop, where a tableau is built and discarded at every explored node;
// the caller is responsible for releasing the returned tableau's M back to
// pool once done with it.
func BuildPooledTableau(pool *matrix.Pool, objective *lp.Equation, constraints []lp.Constraint, numVars int) (*Tableau, error) {
	return buildTableau(pool, objective, constraints, numVars)
}

func buildTableau(pool *matrix.Pool, objective *lp.Equation, constraints []lp.Constraint, numVars int) (*Tableau, error) {
	if numVars == 0 && len(constraints) > 0 {
		return nil, apperror.New(apperror.CodeOverconstrained,
			"standardized model has constraints remaining but no free variables")
	}

	numConstraints := len(constraints)
	width := numVars + numConstraints + 1
	height := numConstraints + 1
	var m *matrix.Matrix
	if pool != nil {
		m = pool.Acquire(width, height)
	} else {
		m = matrix.New(width, height)
	}

	row0 := m.Row(0)
	for v, coef := range objective.Terms() {
		if v < numVars {
			row0[v] = -coef
		}
	}

	basis := make([]int, numConstraints)
	for i, c := range constraints {
		row := m.Row(i + 1)
		for v, coef := range c.Equation.Terms() {
			if v < numVars {
				row[v] = coef
			}
		}
		slackCol := numVars + i
		row[slackCol] = 1
		row[width-1] = c.Constant
		basis[i] = slackCol

		if domain.IsNegative(c.Constant) {
			return nil, apperror.New(apperror.CodeUnsolvableProblem,
				"standardized constraint has a negative RHS; no phase-1 procedure is implemented").
				WithDetails("row", i)
		}
	}

	return NewTableau(m, basis), nil
}

// Run pivots t in place until no improving column remains or
// domain.MaxSimplexIterations is reached, whichever comes first. optimal
// reports whether the loop stopped because no improving column (or no
// valid pivot row) was found, as opposed to exhausting the iteration
// budget.
func Run(t *Tableau) (iterations int, optimal bool) {
	width := t.M.Width()
	rhsCol := width - 1

	for iterations = 0; iterations < domain.MaxSimplexIterations; iterations++ {
		pivotCol := selectPivotColumn(t.M)
		if pivotCol == -1 {
			return iterations, true
		}

		pivotRow := selectPivotRow(t.M, pivotCol, rhsCol)
		if pivotRow == -1 {
			return iterations, true
		}

		pivot(t, pivotRow, pivotCol)
	}

	return iterations, false
}

// selectPivotColumn implements Dantzig's rule: the most-negative entry in
// row 0 among the non-RHS columns. Returns -1 once every entry is
// non-negative (optimal).
func selectPivotColumn(m *matrix.Matrix) int {
	best := -1
	bestVal := 0.0
	row0 := m.Row(0)
	for col := 0; col < m.Width()-1; col++ {
		v := row0[col]
		if domain.IsNegative(v) && v < bestVal {
			bestVal = v
			best = col
		}
	}
	return best
}

// selectPivotRow picks, among rows with a strictly positive entry in
// pivotCol, the one minimizing RHS/entry, breaking ties by the lowest row
// index. Returns -1 if no row has a positive entry in pivotCol.
func selectPivotRow(m *matrix.Matrix, pivotCol, rhsCol int) int {
	best := -1
	bestRatio := 0.0
	for row := 1; row < m.Height(); row++ {
		entry := m.At(row, pivotCol)
		if !domain.IsPositive(entry) {
			continue
		}
		ratio := m.At(row, rhsCol) / entry
		if best == -1 || ratio < bestRatio {
			best = row
			bestRatio = ratio
		}
	}
	return best
}

// pivot normalizes pivotRow on pivotCol and eliminates pivotCol from every
// other row (including row 0), updating the basis and selection bitset to
// reflect the column that just entered and the one that left.
func pivot(t *Tableau, pivotRow, pivotCol int) {
	leaving := t.Basis[pivotRow]
	if leaving >= 0 {
		t.Selected.Clear(leaving)
	}
	t.Selected.Set(pivotCol)
	t.Basis[pivotRow] = pivotCol

	pivotVal := t.M.At(pivotRow, pivotCol)
	t.M.InvScaleRow(pivotRow, pivotVal)

	for r := 0; r < t.M.Height(); r++ {
		if r == pivotRow {
			continue
		}
		if !domain.IsZero(t.M.At(r, pivotCol)) {
			t.M.ScaleReduce(r, pivotRow, pivotCol)
		}
	}
}

// ObjectiveValue returns the current maximized-objective value, held in row
// 0's RHS entry by construction of the negated-objective tableau.
func ObjectiveValue(t *Tableau) float64 {
	return t.M.At(0, t.M.Width()-1)
}

// ExtractSolution reads decision-variable values (columns [0, numVars)) off
// the tableau's current basis: a basic column's value is its row's RHS
// entry, a non-basic column is 0.
func ExtractSolution(t *Tableau, numVars int) []float64 {
	values := make([]float64, numVars)
	rhsCol := t.M.Width() - 1
	for row := 1; row < t.M.Height(); row++ {
		col := t.Basis[row]
		if col < numVars {
			values[col] = t.M.At(row, rhsCol)
		}
	}
	return values
}
