package branchbound

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resourceflow/internal/lp"
	"resourceflow/internal/presolve"
	"resourceflow/pkg/apperror"
)

func TestSolveNoDisjunctionsSolvesPlainLP(t *testing.T) {
	problem := lp.NewLinearProblem()
	x := problem.CreateVariable()
	require.NoError(t, problem.AddConstraint(lp.LEConstraint(lp.NewEquation().Add(x, 1), 5)))

	objective := lp.NewEquation().Add(x, 1)
	pre, err := presolve.Run(problem, objective)
	require.NoError(t, err)

	values, err := Solve(context.Background(), problem.NumVariables(), pre)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, values[x], 1e-9)
}

func TestSolvePicksBetterArmOfDisjunction(t *testing.T) {
	problem := lp.NewLinearProblem()
	x := problem.CreateVariable()
	choiceVar, err := problem.AddOrConstraint(
		lp.LEConstraint(lp.NewEquation().Add(x, 1), 3),
		lp.LEConstraint(lp.NewEquation().Add(x, 1), 5),
	)
	require.NoError(t, err)

	objective := lp.NewEquation().Add(x, 1)
	pre, err := presolve.Run(problem, objective)
	require.NoError(t, err)

	values, err := Solve(context.Background(), problem.NumVariables(), pre)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, values[x], 1e-9)
	assert.InDelta(t, 1.0, values[choiceVar], 1e-9) // right arm selected
}

func TestSolveExhaustsWhenEveryBranchIsInfeasible(t *testing.T) {
	problem := lp.NewLinearProblem()
	x := problem.CreateVariable()
	require.NoError(t, problem.AddConstraint(lp.LEConstraint(lp.NewEquation().Add(x, 1), 1)))
	require.NoError(t, problem.AddConstraint(lp.GEConstraint(lp.NewEquation().Add(x, 1), 2)))

	objective := lp.NewEquation().Add(x, 1)
	pre, err := presolve.Run(problem, objective)
	require.NoError(t, err)

	_, err = Solve(context.Background(), problem.NumVariables(), pre)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeBranchBoundExhausted, apperror.Code(err))
}

func TestSolveReconstructsPresolveEliminatedVariables(t *testing.T) {
	problem := lp.NewLinearProblem()
	a := problem.CreateVariable()
	b := problem.CreateVariable()
	require.NoError(t, problem.AddConstraint(lp.EQConstraint(lp.NewEquation().Add(a, 1).Add(b, 1), 3)))
	require.NoError(t, problem.AddConstraint(lp.LEConstraint(lp.NewEquation().Add(b, 1), 1)))

	objective := lp.NewEquation().Add(a, 1)
	pre, err := presolve.Run(problem, objective)
	require.NoError(t, err)
	require.NotEmpty(t, pre.Substitutions, "a=3-b should have been eliminated by Gaussian reduction")

	values, err := Solve(context.Background(), problem.NumVariables(), pre)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, values[a], 1e-9)
	assert.InDelta(t, 0.0, values[b], 1e-9)
}
