// Package solver drives the full resource-rate pipeline: it compiles a
// resourcegraph.ResourceGraph into an lp.LinearProblem, presolves and
// branch-and-bounds it to an optimal utilization assignment, verifies the
// result, and disaggregates logical rates back onto physical members.
package solver

import (
	"math"

	"resourceflow/internal/lp"
	"resourceflow/internal/resourcegraph"
	"resourceflow/pkg/apperror"
	"resourceflow/pkg/domain"
)

// model is the bookkeeping emit produces alongside the lp.LinearProblem
// itself: the pieces disaggregation and verification need that aren't
// recoverable from the problem's constraint lists alone.
type model struct {
	alpha []int // per logical converter, its utilization variable index

	netRate []*lp.Equation // per logical inventory, full net-rate accounting
	dRate   []*lp.Equation // per logical inventory, net rate excluding dump-excess outputs

	hasDump []bool // per logical inventory, whether any dump-excess output ever fed it
}

// emit compiles g into an lp.LinearProblem and an objective equation,
// following the resource graph one-to-one: one utilization variable per
// logical converter bounded to [0,1], one net-rate and dump-excluding-rate
// equation per logical inventory, and a required-resource disjunction for
// every RequiredStateBoundary entry whose constraint edges actually reach a
// contributing inventory.
func emit(g *resourcegraph.ResourceGraph) (*lp.LinearProblem, *lp.Equation, *model, error) {
	problem := lp.NewLinearProblem()
	objective := lp.NewEquation()

	m := &model{
		alpha:   make([]int, len(g.Converters)),
		netRate: make([]*lp.Equation, len(g.Inventories)),
		dRate:   make([]*lp.Equation, len(g.Inventories)),
		hasDump: make([]bool, len(g.Inventories)),
	}
	for i := range g.Inventories {
		m.netRate[i] = lp.NewEquation()
		m.dRate[i] = lp.NewEquation()
	}

	for c := range g.Converters {
		if g.Converters[c].Absorbed {
			continue
		}
		conv := &g.Converters[c]

		alpha := problem.CreateVariable()
		m.alpha[c] = alpha
		if err := problem.AddConstraint(lp.LEConstraint(lp.NewEquation().Add(alpha, 1), 1)); err != nil {
			return nil, nil, nil, err
		}
		objective.Add(alpha, conv.Weight)

		for resource, in := range conv.Inputs {
			if err := checkFinite("input rate for "+resource, in.Rate); err != nil {
				return nil, nil, nil, err
			}
			S := g.PullFor(c, resource)
			if err := emitPull(problem, m, alpha, in.Rate, S); err != nil {
				return nil, nil, nil, err
			}
		}

		for resource, out := range conv.Outputs {
			if err := checkFinite("output rate for "+resource, out.Rate); err != nil {
				return nil, nil, nil, err
			}
			S := g.PushFor(c, resource)
			if err := emitPush(problem, m, alpha, out.Rate, out.DumpExcess, S); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	// Pass B: required-resource disjunctions need every converter's
	// contribution to netRate fully accumulated first, since ConstraintFor
	// may reach inventories touched by converters other than c.
	for c := range g.Converters {
		if g.Converters[c].Absorbed {
			continue
		}
		conv := &g.Converters[c]
		for resource, req := range conv.Required {
			if req.State != domain.RequiredStateBoundary {
				continue
			}
			if err := emitRequired(problem, g, m, c, resource, req); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	for i := range g.Inventories {
		if g.Inventories[i].Absorbed {
			continue
		}
		if err := emitBoundary(problem, &g.Inventories[i], m, i); err != nil {
			return nil, nil, nil, err
		}
	}

	return problem, objective, m, nil
}

// emitPull wires one input (resource, rate) pair for converter c's
// utilization variable alpha: starved (no pull-connected supply) forces
// alpha to zero; a single supplier subtracts rate*alpha directly from its
// net-rate bookkeeping; multiple suppliers split the draw across fresh flow
// variables constrained to sum to rate*alpha.
func emitPull(problem *lp.LinearProblem, m *model, alpha int, rate float64, S []int) error {
	switch len(S) {
	case 0:
		return problem.AddConstraint(lp.EQConstraint(lp.NewEquation().Add(alpha, 1), 0))
	case 1:
		i := S[0]
		m.netRate[i].Add(alpha, -rate)
		m.dRate[i].Add(alpha, -rate)
		return nil
	default:
		vs := problem.CreateVariables(len(S))
		sum := lp.NewEquation()
		for idx, i := range S {
			f := vs.At(idx)
			sum.Add(f, 1)
			m.netRate[i].Add(f, -1)
			m.dRate[i].Add(f, -1)
		}
		sum.Add(alpha, -rate)
		return problem.AddConstraint(lp.EQConstraint(sum, 0))
	}
}

// emitPush wires one output (resource, rate, dumpExcess) triple for
// converter c. It mirrors emitPull with addition in place of subtraction,
// except the zero-connection case: with nowhere to push and dumpExcess
// false the produced mass has no legal destination, so alpha is forced to
// zero exactly as a starved input would be; with dumpExcess true the mass
// simply vanishes and no constraint is needed at all. dRate only ever
// receives a contribution when dumpExcess is false, since it exists solely
// to drive the full-inventory boundary constraint on genuinely retained
// mass.
func emitPush(problem *lp.LinearProblem, m *model, alpha int, rate float64, dumpExcess bool, S []int) error {
	switch len(S) {
	case 0:
		if dumpExcess {
			return nil
		}
		return problem.AddConstraint(lp.EQConstraint(lp.NewEquation().Add(alpha, rate), 0))
	case 1:
		i := S[0]
		m.netRate[i].Add(alpha, rate)
		if !dumpExcess {
			m.dRate[i].Add(alpha, rate)
		}
		m.hasDump[i] = m.hasDump[i] || dumpExcess
		return nil
	default:
		vs := problem.CreateVariables(len(S))
		sum := lp.NewEquation()
		for idx, i := range S {
			f := vs.At(idx)
			sum.Add(f, 1)
			m.netRate[i].Add(f, 1)
			if !dumpExcess {
				m.dRate[i].Add(f, 1)
			}
			m.hasDump[i] = m.hasDump[i] || dumpExcess
		}
		sum.Add(alpha, -rate)
		return problem.AddConstraint(lp.EQConstraint(sum, 0))
	}
}

// emitRequired emits the disjunction for a single RequiredStateBoundary
// precondition: either converter c is idle (alpha_c <= 0) or the summed net
// rate across every constraint-connected inventory satisfies the
// precondition's direction. A precondition whose constraint edges reach no
// contributing inventory is skipped outright — there is nothing for the
// disjunction to constrain.
func emitRequired(problem *lp.LinearProblem, g *resourcegraph.ResourceGraph, m *model, c int, resource string, req domain.RequiredResource) error {
	edges := g.ConstraintFor(c, resource)
	if len(edges) == 0 {
		return nil
	}

	sum := lp.NewEquation()
	for _, i := range edges {
		for v, coef := range m.netRate[i].Terms() {
			sum.Add(v, coef)
		}
	}

	sign := 1.0
	if req.Kind == domain.RequiredKindAtMost {
		sign = -1.0
	}
	sum = sum.Scale(sign)

	idle := lp.LEConstraint(lp.NewEquation().Add(m.alpha[c], 1), 0)
	satisfied := lp.GEConstraint(sum, 0)
	_, err := problem.AddOrConstraint(idle, satisfied)
	return err
}

// emitBoundary emits inventory i's boundary constraint. A zero-sized
// inventory that nothing ever dumps into is pinned exactly to netRate = 0 —
// tighter than either one-sided bound and takes priority over Full/Empty
// handling. Otherwise Full uses dRate <= 0 (so a dump-excess output cannot
// trip the bound merely by overflowing into the void) and Empty uses
// netRate >= 0.
func emitBoundary(problem *lp.LinearProblem, inv *resourcegraph.LogicalInventory, m *model, i int) error {
	if inv.MaxAmount == 0 && !m.hasDump[i] {
		return problem.AddConstraint(lp.EQConstraint(m.netRate[i].Clone(), 0))
	}
	if inv.IsFull {
		if err := problem.AddConstraint(lp.LEConstraint(m.dRate[i].Clone(), 0)); err != nil {
			return err
		}
	}
	if inv.IsEmpty {
		if err := problem.AddConstraint(lp.GEConstraint(m.netRate[i].Clone(), 0)); err != nil {
			return err
		}
	}
	return nil
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperror.NewWithField(apperror.CodeInvalidCoefficient, "non-finite coefficient", name)
	}
	return nil
}
