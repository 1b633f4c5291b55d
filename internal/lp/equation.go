// Package lp models the linear problem the resource graph is compiled
// into: variables, equations, constraints, and OR-disjunctions, with the
// standardization rules that keep every constraint in the uniform <= form
// presolve and simplex expect.
package lp

// VariableSet is a contiguous range of variable indices allocated by a
// single CreateVariables call.
type VariableSet struct {
	Start int
	Count int
}

// At returns the i-th variable index in the set.
func (vs VariableSet) At(i int) int {
	return vs.Start + i
}

// Equation is a linear combination of variables, stored dense-by-index:
// coeffs[v] is variable v's coefficient. The slice grows on demand as Add
// sees higher variable indices; a variable never added, or zeroed back out
// by a later Add, reads as 0 either way. Dense storage keeps every sum
// (Evaluate, and every accumulation built from Terms) in a fixed,
// index-ascending order, so two runs over the same model produce the same
// float64 rounding rather than one that depends on map iteration order.
type Equation struct {
	coeffs []float64
}

// NewEquation returns an empty equation.
func NewEquation() *Equation {
	return &Equation{}
}

// grow extends coeffs with zeros so index n-1 is addressable.
func (e *Equation) grow(n int) {
	if n <= len(e.coeffs) {
		return
	}
	grown := make([]float64, n)
	copy(grown, e.coeffs)
	e.coeffs = grown
}

// Add accumulates coef into variable v's coefficient and returns the
// receiver, so calls can be chained: eq.Add(a, 1).Add(b, -1).
func (e *Equation) Add(v int, coef float64) *Equation {
	if coef == 0 {
		return e
	}
	e.grow(v + 1)
	e.coeffs[v] += coef
	return e
}

// Scale multiplies every coefficient by k and returns the receiver.
func (e *Equation) Scale(k float64) *Equation {
	if k == 1 {
		return e
	}
	for i := range e.coeffs {
		e.coeffs[i] *= k
	}
	return e
}

// Negate flips the sign of every coefficient and returns the receiver.
func (e *Equation) Negate() *Equation {
	return e.Scale(-1)
}

// Coefficient returns variable v's coefficient, 0 if never set or out of
// range.
func (e *Equation) Coefficient(v int) float64 {
	if v < 0 || v >= len(e.coeffs) {
		return 0
	}
	return e.coeffs[v]
}

// Terms returns the equation's dense coefficient vector, indexed by
// variable. Unlike a sparse map, it may hold explicit zero entries (a
// variable added then cancelled back to zero, or simply never touched below
// the equation's current length); callers that need "only the non-zero
// terms" semantics must check coef != 0 themselves. Callers must treat the
// slice as read-only; mutate the equation only through Add/Scale/Negate.
func (e *Equation) Terms() []float64 {
	return e.coeffs
}

// IsEmpty reports whether the equation has no non-zero terms, i.e.
// represents the constant function 0.
func (e *Equation) IsEmpty() bool {
	for _, c := range e.coeffs {
		if c != 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the equation.
func (e *Equation) Clone() *Equation {
	out := make([]float64, len(e.coeffs))
	copy(out, e.coeffs)
	return &Equation{coeffs: out}
}

// Dense expands the equation into a dense vector of length numVars,
// truncating or zero-padding relative to the equation's own length.
func (e *Equation) Dense(numVars int) []float64 {
	out := make([]float64, numVars)
	copy(out, e.coeffs)
	return out
}

// Evaluate computes Σ coef*values[v] over the equation's terms, in
// ascending variable-index order.
func (e *Equation) Evaluate(values []float64) float64 {
	sum := 0.0
	for v, c := range e.coeffs {
		if c == 0 {
			continue
		}
		sum += c * values[v]
	}
	return sum
}
