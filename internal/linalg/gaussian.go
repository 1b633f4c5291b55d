// Package linalg implements the ordered Gaussian elimination presolve uses
// to reduce the model's equality constraints into a chain of variable
// substitutions.
package linalg

import (
	"resourceflow/internal/matrix"
	"resourceflow/pkg/domain"
)

// Substitution records x[VarIndex] = -Σ Coefficients[j]*x[j] (j over every
// column except VarIndex itself, whose entry holds the normalized pivot 1)
// + Constant. Coefficients is a snapshot of the reduced equation row at the
// time the pivot was taken, sized numVars (the constant term is held
// separately in Constant, not as a trailing column).
type Substitution struct {
	VarIndex    int
	Coefficients []float64
	Constant    float64
}

// Evaluate computes the value of the substituted variable given full
// variable assignment values (values[VarIndex] is ignored).
func (s Substitution) Evaluate(values []float64) float64 {
	sum := s.Constant
	for j, c := range s.Coefficients {
		if c == 0 || j == s.VarIndex {
			continue
		}
		sum -= c * values[j]
	}
	return sum
}

// GaussianEliminationOrdered runs ordered elimination with partial pivoting
// by running start-column cursor over m, an equality-row matrix with
// numVars variable columns followed by one constant column. For each row,
// in order, it finds the first non-zero column at or after the current
// start-column cursor, normalizes that pivot to 1, and eliminates the
// column from every other row. Rows with no non-zero entry in the variable
// columns are skipped (and signal infeasibility if their constant is
// non-zero: 0 = nonzero). No row swaps are performed — a row that cannot
// supply a pivot at or after the cursor simply contributes no
// substitution.
//
// Returns the ordered list of substitutions (in increasing VarIndex order,
// since the start-column cursor only advances) and whether the system was
// found infeasible.
func GaussianEliminationOrdered(m *matrix.Matrix, numVars int) ([]Substitution, bool) {
	var substitutions []Substitution
	startCol := 0

	for row := 0; row < m.Height(); row++ {
		pivotCol := -1
		for col := startCol; col < numVars; col++ {
			if !domain.IsZero(m.At(row, col)) {
				pivotCol = col
				break
			}
		}

		if pivotCol == -1 {
			if !domain.IsZero(m.At(row, numVars)) {
				return substitutions, true
			}
			continue
		}

		pivotVal := m.At(row, pivotCol)
		m.InvScaleRow(row, pivotVal)

		for r := 0; r < m.Height(); r++ {
			if r == row {
				continue
			}
			if !domain.IsZero(m.At(r, pivotCol)) {
				m.ScaleReduce(r, row, pivotCol)
			}
		}

		startCol = pivotCol + 1

		coeffs := make([]float64, numVars)
		copy(coeffs, m.Row(row)[:numVars])
		substitutions = append(substitutions, Substitution{
			VarIndex:     pivotCol,
			Coefficients: coeffs,
			Constant:     m.At(row, numVars),
		})
	}

	return substitutions, false
}
