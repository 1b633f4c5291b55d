package lp

import "resourceflow/pkg/apperror"

// LinearProblem accumulates variables and constraints during LP emission.
// Constraints are standardized as they are added: equalities are kept
// separate for presolve's Gaussian elimination, inequalities are folded
// into a uniform <= form, and OR-disjunctions allocate their own binary
// choice variable.
type LinearProblem struct {
	numVariables int

	Inequalities  []Constraint
	Equalities    []Constraint
	OrConstraints []OrConstraint
}

// NewLinearProblem returns an empty problem.
func NewLinearProblem() *LinearProblem {
	return &LinearProblem{}
}

// NumVariables returns the number of variables created so far.
func (p *LinearProblem) NumVariables() int {
	return p.numVariables
}

// CreateVariable allocates and returns a single new variable index.
func (p *LinearProblem) CreateVariable() int {
	idx := p.numVariables
	p.numVariables++
	return idx
}

// CreateVariables allocates a contiguous block of n new variable indices.
func (p *LinearProblem) CreateVariables(n int) VariableSet {
	start := p.numVariables
	p.numVariables += n
	return VariableSet{Start: start, Count: n}
}

// AddConstraint standardizes and stores a single constraint. Equalities go
// to the equalities list untouched; <=/>= are folded into the inequalities
// list in uniform <= form. A constraint with no variable terms that is
// inconsistent on its face (e.g. "0 <= -1") is rejected immediately with an
// UnsolvableProblem error instead of being silently stored.
func (p *LinearProblem) AddConstraint(c Constraint) error {
	if isKnownInconsistent(c) {
		return apperror.New(apperror.CodeUnsolvableProblem, "constraint is inconsistent at emission time").
			WithDetails("relation", c.Relation.String()).
			WithDetails("constant", c.Constant)
	}

	switch c.Relation {
	case EQ:
		p.Equalities = append(p.Equalities, c)
	default:
		p.Inequalities = append(p.Inequalities, standardizeToLE(c))
	}
	return nil
}

// AddOrConstraint standardizes both arms of a disjunction to <= form,
// allocates a fresh binary choice variable, and records the disjunction.
// It returns the allocated choice variable's index.
func (p *LinearProblem) AddOrConstraint(a, b Constraint) (int, error) {
	if a.Relation == EQ || b.Relation == EQ {
		return 0, apperror.New(apperror.CodeUnsolvableProblem, "OR-disjunction arms must be inequalities, not equalities")
	}
	choiceVar := p.CreateVariable()
	or := OrConstraint{
		LHS:       standardizeToLE(a),
		RHS:       standardizeToLE(b),
		ChoiceVar: choiceVar,
	}
	p.OrConstraints = append(p.OrConstraints, or)
	return choiceVar, nil
}
