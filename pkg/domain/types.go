package domain

import "fmt"

// RequiredKind is the comparison a required-resource constraint enforces on
// a connected resource's net rate.
type RequiredKind int

const (
	RequiredKindUnspecified RequiredKind = iota
	RequiredKindAtLeast
	RequiredKindAtMost
)

// String returns the human-readable name of the required kind.
func (k RequiredKind) String() string {
	switch k {
	case RequiredKindAtLeast:
		return "at_least"
	case RequiredKindAtMost:
		return "at_most"
	default:
		return "unspecified"
	}
}

// RequiredState gates whether a required-resource precondition participates
// in the solve at all.
type RequiredState int

const (
	// RequiredStateDisabled drops the owning converter from the graph entirely.
	RequiredStateDisabled RequiredState = iota
	// RequiredStateBoundary keeps the converter and emits an active constraint row.
	RequiredStateBoundary
	// RequiredStateEnabled keeps the converter with no constraint row.
	RequiredStateEnabled
)

// String returns the human-readable name of the required state.
func (s RequiredState) String() string {
	switch s {
	case RequiredStateDisabled:
		return "disabled"
	case RequiredStateBoundary:
		return "boundary"
	case RequiredStateEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// Inventory is a physical resource container: a fixed id, the resource it
// holds, its current and maximum amount, and the boundary flags that gate
// whether it can still accept or release mass.
//
// A zero-sized inventory (MaxAmount == 0) is both full and empty.
type Inventory struct {
	ID          int
	Resource    string
	Amount      float64
	MaxAmount   float64
	IsFull      bool
	IsEmpty     bool
}

// String implements fmt.Stringer for diagnostic output.
func (inv Inventory) String() string {
	return fmt.Sprintf("Inventory{id=%d, resource=%q, amount=%g/%g, full=%v, empty=%v}",
		inv.ID, inv.Resource, inv.Amount, inv.MaxAmount, inv.IsFull, inv.IsEmpty)
}

// ResourceRate is the rate term of a converter input: the resource consumed
// and the amount-per-unit-time it is drawn at.
type ResourceRate struct {
	Resource string
	Rate     float64
}

// OutputRate is the rate term of a converter output. DumpExcess permits the
// produced mass to vanish when no connected inventory can accept it.
type OutputRate struct {
	Resource    string
	Rate        float64
	DumpExcess  bool
}

// RequiredResource is a precondition on a resource's net rate that gates
// whether the owning converter may run.
type RequiredResource struct {
	Resource string
	Amount   float64
	Kind     RequiredKind
	State    RequiredState
}

// Converter is a physical device that consumes inputs and produces outputs
// at rates scaled by a utilization in [0,1], subject to required-resource
// preconditions and the inventories it pulls from / pushes to.
type Converter struct {
	ID       int
	Priority int // in [MinPriority, MaxPriority]

	Inputs   map[string]ResourceRate
	Outputs  map[string]OutputRate
	Required map[string]RequiredResource

	// Pull, Push, and ConstraintEdges hold inventory ids (indices into the
	// owning ProcessorSnapshot.Inventories slice).
	Pull            map[int]struct{}
	Push            map[int]struct{}
	ConstraintEdges map[int]struct{}
}

// HasPull reports whether the converter draws from the given inventory id.
func (c *Converter) HasPull(invID int) bool {
	_, ok := c.Pull[invID]
	return ok
}

// HasPush reports whether the converter deposits to the given inventory id.
func (c *Converter) HasPush(invID int) bool {
	_, ok := c.Push[invID]
	return ok
}

// HasConstraintEdge reports whether the converter's required-resource rows
// may reach the given inventory id.
func (c *Converter) HasConstraintEdge(invID int) bool {
	_, ok := c.ConstraintEdges[invID]
	return ok
}

// ProcessorSnapshot is the solver's sole input: a vessel's inventories and
// converters at a single instant. Inventory indices in converter edge sets
// refer to positions in the Inventories slice.
type ProcessorSnapshot struct {
	Inventories []Inventory
	Converters  []Converter
}

// SolverSolution is the solver's sole output: a net rate of change per
// physical inventory, and a utilization in [0,1] per physical converter,
// both indexed identically to the input snapshot.
type SolverSolution struct {
	InventoryRates []float64
	ConverterRates []float64
}

// NewSolverSolution allocates a zeroed solution sized to match a snapshot.
// Used both as the "everything idle" fallback on UnsolvableProblem and as
// the accumulator disaggregation writes into.
func NewSolverSolution(snapshot *ProcessorSnapshot) *SolverSolution {
	return &SolverSolution{
		InventoryRates: make([]float64, len(snapshot.Inventories)),
		ConverterRates: make([]float64, len(snapshot.Converters)),
	}
}
