// Package branchbound searches the tree of OR-disjunction choices a
// presolved model leaves behind: a best-bound priority queue over partial
// Left/Right choice assignments. A node with any Unknown disjunction is
// relaxed into a Big-M tableau purely to obtain an upper-bound score for
// ordering and pruning; only a node where every disjunction already carries
// a hard Left/Right constraint is solved exactly and considered as a
// candidate solution, since a Big-M relaxation's variable values cannot be
// trusted even when its choice variable happens to land on 0 or 1.
package branchbound

import (
	"container/heap"
	"context"
	"math"

	"resourceflow/internal/lp"
	"resourceflow/internal/matrix"
	"resourceflow/internal/presolve"
	"resourceflow/internal/simplex"
	"resourceflow/pkg/apperror"
	"resourceflow/pkg/domain"
)

// Solve searches pre's disjunctions for the Left/Right choice assignment
// that maximizes the presolved objective, returning the fully reconstructed
// dense variable vector (length numVars, the original problem's variable
// count before presolve ever ran): live variables read from the winning
// leaf's basis, disjunction choice variables fixed to 0 or 1, and
// presolve-eliminated variables recovered by evaluating their
// substitutions. ctx is checked between queue iterations; on cancellation
// the best solution found so far is returned, or BranchBoundExhausted if
// none was found yet.
func Solve(ctx context.Context, numVars int, pre *presolve.Result) ([]float64, error) {
	nDisjunctions := len(pre.OrConstraints)
	substituted := make(map[int]bool, len(pre.Substitutions))
	for _, s := range pre.Substitutions {
		substituted[s.VarIndex] = true
	}

	pq := &nodeQueue{{score: math.Inf(-1), depth: 0, choices: make([]Choice, nDisjunctions)}}
	heap.Init(pq)

	bestScore := math.Inf(-1)
	var bestValues []float64
	found := false

	// A tableau is built and discarded at every explored node; for problems
	// with more than a handful of disjunctions this is thousands of
	// allocations per solve, so the backing matrix is recycled through the
	// package-level pool rather than freshly allocated each time.
	pool := matrix.GetPool()

	for pq.Len() > 0 {
		if ctx.Err() != nil {
			break
		}

		n := heap.Pop(pq).(node)
		if n.score < bestScore {
			continue
		}

		tableau, liveVars, remap, err := buildNodeTableau(pool, pre, numVars, n.choices, substituted)
		if err != nil {
			if apperror.Code(err) == apperror.CodeUnsolvableProblem {
				continue
			}
			return nil, err
		}

		simplex.Run(tableau)
		score := simplex.ObjectiveValue(tableau)
		if score < bestScore {
			pool.Release(tableau.M)
			continue
		}

		if n.depth >= nDisjunctions {
			// Every disjunction already carries a hard Left/Right constraint
			// here, so this tableau holds an exact solution, not a Big-M
			// relaxation bound: safe to accept as a candidate.
			if score > bestScore {
				tableauValues := simplex.ExtractSolution(tableau, len(liveVars))
				values := make([]float64, numVars)
				for _, v := range liveVars {
					values[v] = tableauValues[remap[v]]
				}
				for i, c := range n.choices {
					if c == Right {
						values[pre.OrConstraints[i].ChoiceVar] = 1
					}
				}
				bestValues = values
				bestScore = score
				found = true
			}
			pool.Release(tableau.M)
			continue
		}

		leftChoices := append([]Choice(nil), n.choices...)
		leftChoices[n.depth] = Left
		rightChoices := append([]Choice(nil), n.choices...)
		rightChoices[n.depth] = Right

		heap.Push(pq, node{score: score, depth: n.depth + 1, choices: leftChoices})
		heap.Push(pq, node{score: score, depth: n.depth + 1, choices: rightChoices})
		pool.Release(tableau.M)
	}

	if !found {
		return nil, apperror.New(apperror.CodeBranchBoundExhausted,
			"branch-and-bound found no feasible integral choice assignment")
	}

	for i := len(pre.Substitutions) - 1; i >= 0; i-- {
		sub := pre.Substitutions[i]
		bestValues[sub.VarIndex] = sub.Evaluate(bestValues)
	}

	return bestValues, nil
}

// buildNodeTableau assembles the relaxation tableau for a single search
// node: presolve-substituted variables and already-decided (Left/Right)
// choice variables are excluded from the variable map entirely, live
// variables are remapped to dense tableau columns, every stored
// <=-constraint is carried over remapped, and each disjunction contributes
// either its decided arm as a hard constraint or a three-row Big-M
// relaxation when still Unknown.
func buildNodeTableau(pool *matrix.Pool, pre *presolve.Result, numVars int, choices []Choice, substituted map[int]bool) (*simplex.Tableau, []int, map[int]int, error) {
	excluded := make(map[int]bool, len(substituted)+len(choices))
	for v := range substituted {
		excluded[v] = true
	}
	for i, c := range choices {
		if c != Unknown {
			excluded[pre.OrConstraints[i].ChoiceVar] = true
		}
	}

	liveVars := make([]int, 0, numVars)
	remap := make(map[int]int, numVars)
	for v := 0; v < numVars; v++ {
		if excluded[v] {
			continue
		}
		remap[v] = len(liveVars)
		liveVars = append(liveVars, v)
	}

	remapEquation := func(eq *lp.Equation) *lp.Equation {
		out := lp.NewEquation()
		for v, coef := range eq.Terms() {
			if col, ok := remap[v]; ok {
				out.Add(col, coef)
			}
		}
		return out
	}

	constraints := make([]lp.Constraint, 0, len(pre.Inequalities)+3*len(pre.OrConstraints))
	for _, c := range pre.Inequalities {
		constraints = append(constraints, lp.LEConstraint(remapEquation(c.Equation), c.Constant))
	}

	for i, or := range pre.OrConstraints {
		switch choices[i] {
		case Left:
			constraints = append(constraints, lp.LEConstraint(remapEquation(or.LHS.Equation), or.LHS.Constant))
		case Right:
			constraints = append(constraints, lp.LEConstraint(remapEquation(or.RHS.Equation), or.RHS.Constant))
		default:
			zCol, ok := remap[or.ChoiceVar]
			if !ok {
				continue
			}

			lhsEq := remapEquation(or.LHS.Equation)
			lhsEq.Add(zCol, -domain.BigM)
			constraints = append(constraints, lp.LEConstraint(lhsEq, or.LHS.Constant))

			rhsEq := remapEquation(or.RHS.Equation)
			rhsEq.Add(zCol, domain.BigM)
			constraints = append(constraints, lp.LEConstraint(rhsEq, or.RHS.Constant+domain.BigM))

			zBound := lp.NewEquation().Add(zCol, 1)
			constraints = append(constraints, lp.LEConstraint(zBound, 1))
		}
	}

	objective := remapEquation(pre.Objective)
	tableau, err := simplex.BuildPooledTableau(pool, objective, constraints, len(liveVars))
	if err != nil {
		return nil, nil, nil, err
	}
	return tableau, liveVars, remap, nil
}
