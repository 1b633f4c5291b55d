// Package solver is the public entry point into resourceflow's resource-rate
// pipeline. It exists to keep the orchestration internals — the LP emission,
// presolve, and branch-and-bound stages — unexported while still giving
// host applications a single stable call.
package solver

import (
	"context"

	internal "resourceflow/internal/solver"
	"resourceflow/pkg/domain"
)

// Diagnostics reports non-essential facts about how a solve unfolded.
type Diagnostics = internal.Diagnostics

// ComputeRates solves a single processor snapshot and returns the
// per-physical-inventory net rates and per-physical-converter utilizations.
// On an unsolvable snapshot the returned solution is the all-idle fallback,
// not nil — see internal/solver.ComputeRates for the full contract.
func ComputeRates(ctx context.Context, snapshot *domain.ProcessorSnapshot) (*domain.SolverSolution, *Diagnostics, error) {
	return internal.ComputeRates(ctx, snapshot)
}
