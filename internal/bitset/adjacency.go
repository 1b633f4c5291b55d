package bitset

// AdjacencyMatrix is a bipartite adjacency matrix with a row axis of
// converters and a column axis of inventories. It backs the pull, push, and
// constraint edge sets used by the resource graph, and the
// RemoveUnequalColumns primitive that powers structural-equivalence
// detection during inventory merging.
type AdjacencyMatrix struct {
	numConverters int
	numInventories int
	rows          []*Bitset // one per converter, universe = inventories
}

// NewAdjacencyMatrix allocates an empty adjacency matrix.
func NewAdjacencyMatrix(numConverters, numInventories int) *AdjacencyMatrix {
	rows := make([]*Bitset, numConverters)
	for c := range rows {
		rows[c] = New(numInventories)
	}
	return &AdjacencyMatrix{
		numConverters:  numConverters,
		numInventories: numInventories,
		rows:           rows,
	}
}

// SetEdge marks converter c as adjacent to inventory i.
func (a *AdjacencyMatrix) SetEdge(c, i int) {
	a.rows[c].Set(i)
}

// HasEdge reports whether converter c is adjacent to inventory i.
func (a *AdjacencyMatrix) HasEdge(c, i int) bool {
	return a.rows[c].Test(i)
}

// Row returns the bitset of inventories adjacent to converter c. The
// returned bitset aliases internal storage; callers must not mutate it
// except through AdjacencyMatrix methods.
func (a *AdjacencyMatrix) Row(c int) *Bitset {
	return a.rows[c]
}

// Column returns a freshly built bitset of converters adjacent to
// inventory i.
func (a *AdjacencyMatrix) Column(i int) *Bitset {
	col := New(a.numConverters)
	for c := 0; c < a.numConverters; c++ {
		if a.rows[c].Test(i) {
			col.Set(c)
		}
	}
	return col
}

// Edge is a single (converter, inventory) adjacency.
type Edge struct {
	Converter int
	Inventory int
}

// Edges returns every set edge in ascending (converter, inventory) order.
func (a *AdjacencyMatrix) Edges() []Edge {
	var out []Edge
	for c := 0; c < a.numConverters; c++ {
		for _, i := range a.rows[c].Bits() {
			out = append(out, Edge{Converter: c, Inventory: i})
		}
	}
	return out
}

// columnsEqual reports whether inventory columns i and j are identical
// across every converter row.
func (a *AdjacencyMatrix) columnsEqual(i, j int) bool {
	for c := 0; c < a.numConverters; c++ {
		if a.rows[c].Test(i) != a.rows[c].Test(j) {
			return false
		}
	}
	return true
}

// RemoveUnequalColumns clears bit j in equal, for every set bit j, whenever
// inventory column j differs from inventory column i. equal's universe must
// be the inventory axis. Each set bit costs one column comparison over all C
// converter rows. This is the primitive inventory merging uses to narrow a candidate equivalence class down to inventories that are
// actually structurally identical to i.
func (a *AdjacencyMatrix) RemoveUnequalColumns(equal *Bitset, i int) {
	for _, j := range equal.Bits() {
		if j == i {
			continue
		}
		if !a.columnsEqual(i, j) {
			equal.Clear(j)
		}
	}
}

// ClearColumn removes inventory i from every converter's row, used once an
// inventory has been absorbed into a merge and must no longer participate
// in further adjacency queries.
func (a *AdjacencyMatrix) ClearColumn(i int) {
	for c := 0; c < a.numConverters; c++ {
		a.rows[c].Clear(i)
	}
}

// ClearRow removes every edge for converter c, used once it has been
// absorbed into a merge.
func (a *AdjacencyMatrix) ClearRow(c int) {
	a.rows[c].ClearAll()
}

// RowsEqual reports whether converter rows c1 and c2 are identical, used by
// converter merging to compare pull/push/constraint edge sets exactly.
func (a *AdjacencyMatrix) RowsEqual(c1, c2 int) bool {
	return a.rows[c1].Equals(a.rows[c2])
}
