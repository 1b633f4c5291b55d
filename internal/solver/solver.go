package solver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"resourceflow/internal/branchbound"
	"resourceflow/internal/presolve"
	"resourceflow/internal/resourcegraph"
	"resourceflow/pkg/apperror"
	"resourceflow/pkg/domain"
	"resourceflow/pkg/logger"
	"resourceflow/pkg/metrics"
	"resourceflow/pkg/telemetry"
)

// Diagnostics reports non-essential facts about how a solve unfolded, for
// callers that want to log or export them without parsing the solution
// itself.
type Diagnostics struct {
	SolveID            string
	LogicalInventories int
	LogicalConverters  int
	Duration           time.Duration
}

// ComputeRates runs the full pipeline — graph construction, LP emission,
// presolve, branch-and-bound, verification, and disaggregation — over a
// single snapshot and returns the resulting per-physical-member rates.
//
// On apperror.CodeUnsolvableProblem the returned solution is not nil: it is
// the all-idle fallback from domain.NewSolverSolution(snapshot), matching
// the documented contract that callers treat an unsolvable snapshot as
// "vessel cannot run any converter" rather than as a crash.
func ComputeRates(ctx context.Context, snapshot *domain.ProcessorSnapshot) (*domain.SolverSolution, *Diagnostics, error) {
	if snapshot == nil {
		return nil, nil, apperror.ErrNilSnapshot
	}

	solveID := uuid.NewString()
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "solver.ComputeRates",
		telemetry.WithAttributes(telemetry.SnapshotAttributes(len(snapshot.Inventories), len(snapshot.Converters))...))
	defer span.End()

	log := logger.WithSolveID(solveID)

	mtr := metrics.Get()
	mtr.InFlight.Start("ComputeRates")
	defer mtr.InFlight.End("ComputeRates")

	g, err := resourcegraph.Build(snapshot)
	if err != nil {
		telemetry.SetError(ctx, err)
		log.Error("failed to build resource graph", "error", err)
		return nil, nil, err
	}
	liveInventories, liveConverters := 0, 0
	for _, inv := range g.Inventories {
		if !inv.Absorbed {
			liveInventories++
		}
	}
	for _, c := range g.Converters {
		if !c.Absorbed {
			liveConverters++
		}
	}
	telemetry.AddEvent(ctx, "graph built", telemetry.GraphAttributes(liveInventories, liveConverters)...)
	mtr.RecordSnapshotSize("raw", len(snapshot.Inventories), len(snapshot.Converters))
	mtr.RecordSnapshotSize("logical", liveInventories, liveConverters)
	mtr.RecordMergeReduction("inventory", len(snapshot.Inventories), liveInventories)
	mtr.RecordMergeReduction("converter", len(snapshot.Converters), liveConverters)

	problem, objective, m, err := emit(g)
	if err != nil {
		telemetry.SetError(ctx, err)
		log.Error("failed to emit LP model", "error", err)
		return nil, nil, err
	}

	pre, err := presolve.Run(problem, objective)
	if err != nil {
		return unsolvable(ctx, log, snapshot, solveID, start, "presolve", err)
	}
	telemetry.AddEvent(ctx, "presolve complete")

	values, err := branchbound.Solve(ctx, problem.NumVariables(), pre)
	if err != nil {
		return unsolvable(ctx, log, snapshot, solveID, start, "branch-and-bound", err)
	}

	if err := verify(pre, values); err != nil {
		telemetry.SetAttributes(ctx, telemetry.VerificationAttributes("branchbound", true, false)...)
		return unsolvable(ctx, log, snapshot, solveID, start, "verification", err)
	}
	telemetry.AddEvent(ctx, "verification passed", telemetry.VerificationAttributes("branchbound", false, true)...)

	solution := disaggregate(g, snapshot, m, values)

	duration := time.Since(start)
	objectiveValue := objective.Evaluate(values)
	mtr.RecordSolveOperation("resourceflow", true, duration, objectiveValue)
	telemetry.SetAttributes(ctx, telemetry.SolveAttributes(solveID, objectiveValue)...)
	log.Info("solve complete", "duration", duration, "logical_converters", liveConverters, "objective_value", objectiveValue)

	diag := &Diagnostics{
		SolveID:            solveID,
		LogicalInventories: liveInventories,
		LogicalConverters:  liveConverters,
		Duration:           duration,
	}
	return solution, diag, nil
}

// unsolvable wraps an internal failure code (CodeInfeasiblePresolve,
// CodeBranchBoundExhausted, or a verification failure) into the public
// CodeUnsolvableProblem and returns the all-idle fallback solution
// alongside it, per the documented "caller zeros all rates" contract.
func unsolvable(ctx context.Context, log interface {
	Error(string, ...any)
}, snapshot *domain.ProcessorSnapshot, solveID string, start time.Time, stage string, cause error) (*domain.SolverSolution, *Diagnostics, error) {
	wrapped := apperror.Wrap(cause, apperror.CodeUnsolvableProblem, "resource flow has no feasible solution at "+stage)
	telemetry.SetError(ctx, wrapped)
	log.Error("solve failed", "stage", stage, "error", cause)
	mtr := metrics.Get()
	mtr.RecordSolveOperation("resourceflow", false, time.Since(start), 0)
	if stage == "verification" {
		mtr.RecordVerificationViolation(stage)
	}

	return domain.NewSolverSolution(snapshot), &Diagnostics{SolveID: solveID, Duration: time.Since(start)}, wrapped
}

// verify re-evaluates every standardized <=-constraint and the chosen arm
// of every OR-disjunction against the reconstructed solution, catching a
// solver bug before it reaches a caller as a silently wrong rate.
func verify(pre *presolve.Result, values []float64) error {
	for _, c := range pre.Inequalities {
		if c.Equation.Evaluate(values) > c.Constant+domain.SolutionTolerance {
			return apperror.New(apperror.CodeVerificationFailed, "standardized inequality violated after branch-and-bound")
		}
	}
	for _, or := range pre.OrConstraints {
		arm := or.LHS
		if values[or.ChoiceVar] >= 0.5 {
			arm = or.RHS
		}
		if arm.Equation.Evaluate(values) > arm.Constant+domain.SolutionTolerance {
			return apperror.New(apperror.CodeVerificationFailed, "chosen disjunction arm violated after branch-and-bound")
		}
	}
	return nil
}
