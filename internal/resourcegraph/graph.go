// Package resourcegraph builds the bipartite converter/inventory graph a
// processor snapshot implies, then collapses structurally equivalent nodes
// before the solver driver ever emits a single LP variable. All functions
// are stateless over their inputs and iterate in deterministic (ascending
// index) order, so a given snapshot always merges the same way.
package resourcegraph

import (
	"sort"

	"resourceflow/internal/bitset"
	"resourceflow/pkg/domain"
)

// LogicalInventory is the merger of one or more physical inventories that
// share a resource and an identical edge-set. Absorbed reports whether this
// entry has been folded into an earlier logical inventory and should be
// skipped by later passes; its own fields are left at their pre-absorption
// values and are not authoritative once Absorbed is true.
type LogicalInventory struct {
	Resource  string
	Amount    float64
	MaxAmount float64
	IsFull    bool
	IsEmpty   bool
	Members   []int // physical inventory indices, ascending

	Absorbed bool
}

// LogicalConverter is the merger of one or more physical converters with
// identical pull/push/constraint edge-sets and element-wise equal
// required-resource maps. Weight is the sum of each member's
// domain.PriorityWeight(Priority), computed once at merge time since
// members may carry different priorities.
type LogicalConverter struct {
	Weight   float64
	Inputs   map[string]domain.ResourceRate
	Outputs  map[string]domain.OutputRate
	Required map[string]domain.RequiredResource
	Members  []int // physical converter indices, ascending

	Absorbed bool
}

// ResourceGraph is the bipartite converter/inventory graph built from a
// snapshot, after merging. Pull, Push, and Constraint share the row axis
// (logical converter index, pre-merge position) and column axis (logical
// inventory index, pre-merge position); absorbed rows/columns have had
// their edges cleared rather than being physically removed, so indices into
// Inventories/Converters stay stable across the merge passes.
type ResourceGraph struct {
	Inventories []LogicalInventory
	Converters  []LogicalConverter

	Pull       *bitset.AdjacencyMatrix
	Push       *bitset.AdjacencyMatrix
	Constraint *bitset.AdjacencyMatrix
}

// Build constructs a ResourceGraph from snapshot and runs both merge passes.
// A converter with any required-resource precondition in RequiredStateDisabled
// is dropped before the graph is even populated; RequiredStateBoundary keeps
// the converter and is later recorded as an active constraint row by the
// solver driver, RequiredStateEnabled needs no special handling here.
func Build(snapshot *domain.ProcessorSnapshot) (*ResourceGraph, error) {
	inventories := make([]LogicalInventory, len(snapshot.Inventories))
	for i, inv := range snapshot.Inventories {
		inventories[i] = LogicalInventory{
			Resource:  inv.Resource,
			Amount:    inv.Amount,
			MaxAmount: inv.MaxAmount,
			IsFull:    inv.IsFull,
			IsEmpty:   inv.IsEmpty,
			Members:   []int{inv.ID},
		}
	}

	converters := make([]LogicalConverter, 0, len(snapshot.Converters))
	origIndex := make([]int, 0, len(snapshot.Converters))
	for i, c := range snapshot.Converters {
		if requiredDisables(c) {
			continue
		}
		converters = append(converters, LogicalConverter{
			Weight:   domain.PriorityWeight(c.Priority),
			Inputs:   cloneInputs(c.Inputs),
			Outputs:  cloneOutputs(c.Outputs),
			Required: cloneRequired(c.Required),
			Members:  []int{c.ID},
		})
		origIndex = append(origIndex, i)
	}

	numInv := len(inventories)
	numConv := len(converters)
	pull := bitset.NewAdjacencyMatrix(numConv, numInv)
	push := bitset.NewAdjacencyMatrix(numConv, numInv)
	constraint := bitset.NewAdjacencyMatrix(numConv, numInv)

	for row, orig := range origIndex {
		c := snapshot.Converters[orig]
		for inv := range c.Pull {
			pull.SetEdge(row, inv)
		}
		for inv := range c.Push {
			push.SetEdge(row, inv)
		}
		for inv := range c.ConstraintEdges {
			constraint.SetEdge(row, inv)
		}
	}

	g := &ResourceGraph{
		Inventories: inventories,
		Converters:  converters,
		Pull:        pull,
		Push:        push,
		Constraint:  constraint,
	}

	if err := g.mergeInventories(); err != nil {
		return nil, err
	}
	if err := g.mergeConverters(); err != nil {
		return nil, err
	}
	return g, nil
}

func requiredDisables(c domain.Converter) bool {
	for _, r := range c.Required {
		if r.State == domain.RequiredStateDisabled {
			return true
		}
	}
	return false
}

func cloneInputs(in map[string]domain.ResourceRate) map[string]domain.ResourceRate {
	out := make(map[string]domain.ResourceRate, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneOutputs(in map[string]domain.OutputRate) map[string]domain.OutputRate {
	out := make(map[string]domain.OutputRate, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneRequired(in map[string]domain.RequiredResource) map[string]domain.RequiredResource {
	out := make(map[string]domain.RequiredResource, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// PullFor returns, in ascending inventory-index order, the logical
// inventories converter c pulls from that hold resource.
func (g *ResourceGraph) PullFor(c int, resource string) []int {
	return g.connected(g.Pull, c, resource)
}

// PushFor returns, in ascending inventory-index order, the logical
// inventories converter c pushes to that hold resource.
func (g *ResourceGraph) PushFor(c int, resource string) []int {
	return g.connected(g.Push, c, resource)
}

// ConstraintFor returns, in ascending inventory-index order, the logical
// inventories reachable from converter c via its active-constraint edges
// that hold resource.
func (g *ResourceGraph) ConstraintFor(c int, resource string) []int {
	return g.connected(g.Constraint, c, resource)
}

func (g *ResourceGraph) connected(adj *bitset.AdjacencyMatrix, c int, resource string) []int {
	var out []int
	for _, i := range adj.Row(c).Bits() {
		if g.Inventories[i].Resource == resource {
			out = append(out, i)
		}
	}
	return out
}

func sortedInts(s []int) []int {
	sort.Ints(s)
	return s
}
