package solver

import (
	"math"

	"resourceflow/internal/resourcegraph"
	"resourceflow/pkg/domain"
)

// disaggregate distributes each logical inventory's solved net rate across
// its physical members in proportion to available capacity, and broadcasts
// each logical converter's utilization to all of its physical members
// identically.
func disaggregate(g *resourcegraph.ResourceGraph, snapshot *domain.ProcessorSnapshot, m *model, values []float64) *domain.SolverSolution {
	solution := domain.NewSolverSolution(snapshot)
	totalMagnitude := sumAbs(values)

	for i := range g.Inventories {
		if g.Inventories[i].Absorbed {
			continue
		}
		logicalRate := m.netRate[i].Evaluate(values)
		distributeInventoryRate(solution, snapshot, g.Inventories[i].Members, logicalRate, totalMagnitude)
	}

	for c := range g.Converters {
		if g.Converters[c].Absorbed {
			continue
		}
		alpha := domain.Clamp(values[m.alpha[c]], 0, 1)
		for _, member := range g.Converters[c].Members {
			solution.ConverterRates[member] = alpha
		}
	}

	return solution
}

// distributeInventoryRate spreads logicalRate over members using the
// physical (pre-merge) amount/headroom weights: a negative rate (draining)
// weights by each member's current amount, a positive rate (filling)
// weights by each member's headroom; a member that is already empty
// contributes zero weight while draining, and one that is already full
// contributes zero weight while filling. If the total weight is zero — e.g. every member is already full and
// the rate is positive — every member gets exactly zero, which is what
// correctly silences a dump-excess output pushing into a full inventory.
func distributeInventoryRate(solution *domain.SolverSolution, snapshot *domain.ProcessorSnapshot, members []int, logicalRate, totalMagnitude float64) {
	weights := make([]float64, len(members))
	totalWeight := 0.0
	for idx, member := range members {
		phys := snapshot.Inventories[member]
		var w float64
		switch {
		case logicalRate < 0:
			if !phys.IsEmpty {
				w = phys.Amount
			}
		case logicalRate > 0:
			if !phys.IsFull {
				w = phys.MaxAmount - phys.Amount
			}
		}
		if w < 0 {
			w = 0
		}
		weights[idx] = w
		totalWeight += w
	}

	for idx, member := range members {
		var rate float64
		if totalWeight > 0 {
			rate = logicalRate * (weights[idx] / totalWeight)
		}
		solution.InventoryRates[member] = truncate(rate, totalMagnitude)
	}
}

// truncate applies the two-tier epsilon rule: magnitudes below the absolute
// epsilon vanish outright; magnitudes below the relative epsilon vanish
// only when they are also small relative to the total magnitude of every
// solved LP variable, so legitimate small flows in a large-magnitude
// problem survive.
func truncate(rate, totalMagnitude float64) float64 {
	abs := math.Abs(rate)
	if abs < domain.DisaggregationAbsoluteEpsilon {
		return 0
	}
	if abs < domain.DisaggregationRelativeEpsilon && totalMagnitude > 0 && abs/totalMagnitude < domain.DisaggregationRelativeEpsilon {
		return 0
	}
	return rate
}

func sumAbs(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += math.Abs(v)
	}
	return sum
}
