// Package presolve implements the algebraic simplification pass that runs
// before simplex ever sees a tableau: zero-inference over sign-homogeneous
// rows, and equality-row reduction into a chain of variable substitutions.
// Both rewrites iterate to a fixed point; the caller's objective is
// substituted exactly once, after that fixed point is reached.
package presolve

import (
	"resourceflow/internal/linalg"
	"resourceflow/internal/lp"
	"resourceflow/internal/matrix"
	"resourceflow/pkg/apperror"
	"resourceflow/pkg/domain"
)

// Result is the outcome of a successful presolve run: the rewritten
// inequality and OR-disjunction lists (equalities have been fully consumed
// into Substitutions), the substitution chain needed to recover eliminated
// variables' values after solving, the set of variables zero-inference
// fixed to 0, and the once-substituted objective.
type Result struct {
	Substitutions []linalg.Substitution
	FixedZero     map[int]bool
	Inequalities  []lp.Constraint
	OrConstraints []lp.OrConstraint
	Objective     *lp.Equation
}

// Run presolves problem's current inequalities, equalities, and
// OR-disjunctions against objective, returning the rewritten model. problem
// and objective are not mutated; Run operates on private clones.
func Run(problem *lp.LinearProblem, objective *lp.Equation) (*Result, error) {
	inequalities := cloneConstraints(problem.Inequalities)
	equalities := cloneConstraints(problem.Equalities)
	orConstraints := cloneOrConstraints(problem.OrConstraints)
	obj := objective.Clone()

	fixedZero := make(map[int]bool)
	var allSubs []linalg.Substitution

	zeroVar := func(v int) {
		if fixedZero[v] {
			return
		}
		fixedZero[v] = true
		zeroColumn(inequalities, v)
		zeroColumn(equalities, v)
		zeroColumnOr(orConstraints, v)
		if coef := obj.Coefficient(v); coef != 0 {
			obj.Add(v, -coef)
		}
	}

	for {
		eqProgress, infeasible := zeroInferenceEqualityPass(equalities, zeroVar)
		if infeasible {
			return nil, infeasibleErr("zero-inference found a degenerate equality row (0 = nonzero)")
		}

		leProgress, infeasible := zeroInferenceLEPass(inequalities, zeroVar)
		if infeasible {
			return nil, infeasibleErr("zero-inference found an all-nonnegative <=-row with a negative bound")
		}

		reduceProgress, subs, infeasible := equalityReductionPass(&equalities, problem.NumVariables())
		if infeasible {
			return nil, infeasibleErr("equality reduction found an inconsistent equality row (0 = nonzero)")
		}
		if len(subs) > 0 {
			allSubs = append(allSubs, subs...)
			applySubstitutionsToConstraints(inequalities, subs)
			applySubstitutionsToOrConstraints(orConstraints, subs)
		}

		if !eqProgress && !leProgress && !reduceProgress {
			break
		}
	}

	applySubstitutionsToEquation(obj, allSubs)

	return &Result{
		Substitutions: allSubs,
		FixedZero:     fixedZero,
		Inequalities:  inequalities,
		OrConstraints: orConstraints,
		Objective:     obj,
	}, nil
}

func infeasibleErr(detail string) error {
	return apperror.New(apperror.CodeInfeasiblePresolve, detail)
}

// signHomogeneous reports whether every coefficient in eq is >= 0 (pos) and
// whether every coefficient is <= 0 (neg). Both are true for an equation
// with no non-zero terms.
func signHomogeneous(eq *lp.Equation) (pos, neg bool) {
	pos, neg = true, true
	for _, c := range eq.Terms() {
		if domain.IsNegative(c) {
			pos = false
		}
		if domain.IsPositive(c) {
			neg = false
		}
	}
	return
}

func rowVariables(eq *lp.Equation) []int {
	terms := eq.Terms()
	vars := make([]int, 0, len(terms))
	for v, coef := range terms {
		if coef != 0 {
			vars = append(vars, v)
		}
	}
	return vars
}

// zeroInferenceEqualityPass implements the equality cases of §4.5's
// zero-inference rule: a degenerate all-zero row is checked for
// feasibility, and a sign-homogeneous row with a zero constant forces every
// variable it touches to zero (a sum of same-signed terms can only equal
// zero if each term is individually zero).
func zeroInferenceEqualityPass(rows []lp.Constraint, zeroVar func(int)) (progress, infeasible bool) {
	for _, c := range rows {
		pos, neg := signHomogeneous(c.Equation)
		if pos && neg {
			if !domain.IsZero(c.Constant) {
				return false, true
			}
			continue
		}
		if (pos || neg) && domain.IsZero(c.Constant) {
			vars := rowVariables(c.Equation)
			for _, v := range vars {
				zeroVar(v)
			}
			if len(vars) > 0 {
				progress = true
			}
		}
	}
	return progress, false
}

// zeroInferenceLEPass implements the <=-constraint case: variables are
// non-negative by construction (§3, invariant 3), so an all-nonnegative row
// with b=0 forces every variable to zero, and the same row with b<0 is
// unsatisfiable. An all-nonpositive row gives no information under <=
// (every term is automatically <= 0, so the row holds trivially).
func zeroInferenceLEPass(rows []lp.Constraint, zeroVar func(int)) (progress, infeasible bool) {
	for _, c := range rows {
		pos, _ := signHomogeneous(c.Equation)
		if !pos {
			continue
		}
		switch {
		case domain.IsZero(c.Constant):
			vars := rowVariables(c.Equation)
			for _, v := range vars {
				zeroVar(v)
			}
			if len(vars) > 0 {
				progress = true
			}
		case domain.IsNegative(c.Constant):
			return false, true
		}
	}
	return progress, false
}

// equalityReductionPass packs the current equalities into a dense matrix,
// runs ordered Gaussian elimination, and fully consumes the equalities list
// (it is set to nil): once every eliminated variable has been substituted
// out of the remaining model, the original equality rows are satisfied by
// construction and carry no further information.
func equalityReductionPass(equalities *[]lp.Constraint, numVars int) (progress bool, subs []linalg.Substitution, infeasible bool) {
	rows := *equalities
	if len(rows) == 0 {
		return false, nil, false
	}

	m := matrix.New(numVars+1, len(rows))
	for i, c := range rows {
		row := m.Row(i)
		for v, coef := range c.Equation.Terms() {
			row[v] = coef
		}
		row[numVars] = c.Constant
	}

	subs, infeasible = linalg.GaussianEliminationOrdered(m, numVars)
	if infeasible {
		return false, nil, true
	}

	*equalities = nil
	return true, subs, false
}

// applySubstitution replaces every occurrence of sub.VarIndex in c with
// sub's defining expression, folding the resulting constant shift into c's
// RHS.
func applySubstitution(c lp.Constraint, sub linalg.Substitution) lp.Constraint {
	coef := c.Equation.Coefficient(sub.VarIndex)
	if coef == 0 {
		return c
	}
	eq := c.Equation.Clone()
	eq.Add(sub.VarIndex, -coef)
	for v, cv := range sub.Coefficients {
		if cv == 0 || v == sub.VarIndex {
			continue
		}
		eq.Add(v, -coef*cv)
	}
	return lp.NewConstraint(eq, c.Relation, c.Constant-coef*sub.Constant)
}

// applySubstitutionsToConstraints applies every substitution, in order, to
// every constraint in place. Substitutions are applied in ascending
// VarIndex order (the order GaussianEliminationOrdered returns them in),
// which correctly chains eliminations: a substitution for a lower-indexed
// variable may introduce a term in a higher-indexed variable that a later
// substitution in the same pass then eliminates in turn.
func applySubstitutionsToConstraints(constraints []lp.Constraint, subs []linalg.Substitution) {
	for i, c := range constraints {
		for _, s := range subs {
			c = applySubstitution(c, s)
		}
		constraints[i] = c
	}
}

func applySubstitutionsToOrConstraints(ors []lp.OrConstraint, subs []linalg.Substitution) {
	for i, or := range ors {
		for _, s := range subs {
			or.LHS = applySubstitution(or.LHS, s)
			or.RHS = applySubstitution(or.RHS, s)
		}
		ors[i] = or
	}
}

func applySubstitutionsToEquation(eq *lp.Equation, subs []linalg.Substitution) {
	for _, s := range subs {
		coef := eq.Coefficient(s.VarIndex)
		if coef == 0 {
			continue
		}
		eq.Add(s.VarIndex, -coef)
		for v, cv := range s.Coefficients {
			if cv == 0 || v == s.VarIndex {
				continue
			}
			eq.Add(v, -coef*cv)
		}
		// The objective's "constant" shift from substitution has no home in
		// an Equation (it carries no constant term of its own); callers that
		// need the shift for reporting an absolute objective value can
		// recompute it from Substitutions directly.
	}
}

func zeroColumn(constraints []lp.Constraint, v int) {
	for i, c := range constraints {
		if coef := c.Equation.Coefficient(v); coef != 0 {
			c.Equation.Add(v, -coef)
			constraints[i] = c
		}
	}
}

func zeroColumnOr(ors []lp.OrConstraint, v int) {
	for i, or := range ors {
		if coef := or.LHS.Equation.Coefficient(v); coef != 0 {
			or.LHS.Equation.Add(v, -coef)
		}
		if coef := or.RHS.Equation.Coefficient(v); coef != 0 {
			or.RHS.Equation.Add(v, -coef)
		}
		ors[i] = or
	}
}

func cloneConstraints(in []lp.Constraint) []lp.Constraint {
	out := make([]lp.Constraint, len(in))
	for i, c := range in {
		out[i] = lp.NewConstraint(c.Equation.Clone(), c.Relation, c.Constant)
	}
	return out
}

func cloneOrConstraints(in []lp.OrConstraint) []lp.OrConstraint {
	out := make([]lp.OrConstraint, len(in))
	for i, or := range in {
		out[i] = lp.OrConstraint{
			LHS:       lp.NewConstraint(or.LHS.Equation.Clone(), or.LHS.Relation, or.LHS.Constant),
			RHS:       lp.NewConstraint(or.RHS.Equation.Clone(), or.RHS.Relation, or.RHS.Constant),
			ChoiceVar: or.ChoiceVar,
		}
	}
	return out
}
