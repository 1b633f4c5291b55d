package resourcegraph

import (
	"resourceflow/internal/bitset"
	"resourceflow/pkg/apperror"
)

// mergeInventories iterates inventories in index order; for each, narrows a
// same-resource candidate set down to inventories with identical pull/push/
// constraint columns via AdjacencyMatrix.RemoveUnequalColumns, then absorbs
// every surviving candidate and clears its columns in all three matrices.
func (g *ResourceGraph) mergeInventories() error {
	n := len(g.Inventories)
	for i := 0; i < n; i++ {
		if g.Inventories[i].Absorbed {
			continue
		}

		candidates := sameResourceCandidates(g.Inventories, i)
		if len(candidates.Bits()) == 0 {
			continue
		}

		g.Pull.RemoveUnequalColumns(candidates, i)
		g.Push.RemoveUnequalColumns(candidates, i)
		g.Constraint.RemoveUnequalColumns(candidates, i)

		for _, j := range candidates.Bits() {
			if err := mergeInventoryInto(&g.Inventories[i], &g.Inventories[j]); err != nil {
				return err
			}
			g.Inventories[j].Absorbed = true
			g.Pull.ClearColumn(j)
			g.Push.ClearColumn(j)
			g.Constraint.ClearColumn(j)
		}
	}
	return nil
}

// sameResourceCandidates returns the bits for every later, not-yet-absorbed
// inventory holding the same resource as i — the starting candidate set
// RemoveUnequalColumns narrows down to actual structural matches.
func sameResourceCandidates(inventories []LogicalInventory, i int) *bitset.Bitset {
	candidates := bitset.New(len(inventories))
	for j := i + 1; j < len(inventories); j++ {
		if !inventories[j].Absorbed && inventories[j].Resource == inventories[i].Resource {
			candidates.Set(j)
		}
	}
	return candidates
}

// mergeInventoryInto folds src into dst: boundary flags AND-combine (merging
// loosens constraints, per the invariant that a logical inventory's flags
// are the bitwise AND of its members'), amounts and max amounts sum, and
// membership unions.
func mergeInventoryInto(dst, src *LogicalInventory) error {
	if dst.Resource != src.Resource {
		return apperror.NewCritical(apperror.CodeInvalidMerge,
			"cannot merge inventories holding different resources").
			WithDetails("a", dst.Resource).WithDetails("b", src.Resource)
	}
	dst.IsFull = dst.IsFull && src.IsFull
	dst.IsEmpty = dst.IsEmpty && src.IsEmpty
	dst.Amount += src.Amount
	dst.MaxAmount += src.MaxAmount
	dst.Members = sortedInts(append(dst.Members, src.Members...))
	return nil
}

// mergeConverters iterates converters in index order; for each, compares its
// pull/push/constraint rows against every later, not-yet-absorbed
// converter's rows for exact equality, and absorbs it when canMerge also
// holds.
func (g *ResourceGraph) mergeConverters() error {
	n := len(g.Converters)
	for i := 0; i < n; i++ {
		if g.Converters[i].Absorbed {
			continue
		}
		for j := i + 1; j < n; j++ {
			if g.Converters[j].Absorbed {
				continue
			}
			if !g.Pull.RowsEqual(i, j) || !g.Push.RowsEqual(i, j) || !g.Constraint.RowsEqual(i, j) {
				continue
			}
			if !canMergeConverters(&g.Converters[i], &g.Converters[j]) {
				continue
			}
			if err := mergeConverterInto(&g.Converters[i], &g.Converters[j]); err != nil {
				return err
			}
			g.Converters[j].Absorbed = true
			g.Pull.ClearRow(j)
			g.Push.ClearRow(j)
			g.Constraint.ClearRow(j)
		}
	}
	return nil
}

// canMergeConverters reports whether a and b may combine: their input and
// output resource keys must match (rates are allowed to differ — they add
// pairwise) and their required-resource maps must be exactly, element-wise
// equal.
func canMergeConverters(a, b *LogicalConverter) bool {
	if len(a.Inputs) != len(b.Inputs) {
		return false
	}
	for r := range a.Inputs {
		if _, ok := b.Inputs[r]; !ok {
			return false
		}
	}
	if len(a.Outputs) != len(b.Outputs) {
		return false
	}
	for r := range a.Outputs {
		if _, ok := b.Outputs[r]; !ok {
			return false
		}
	}
	if len(a.Required) != len(b.Required) {
		return false
	}
	for r, req := range a.Required {
		other, ok := b.Required[r]
		if !ok || other != req {
			return false
		}
	}
	return true
}

// mergeConverterInto folds src into dst: weights sum, input rates add
// pairwise by resource, and output rates add pairwise by resource — except
// DumpExcess must agree between the two, since silently picking one side's
// flag would change whether produced mass is allowed to vanish.
func mergeConverterInto(dst, src *LogicalConverter) error {
	dst.Weight += src.Weight

	for r, rate := range src.Inputs {
		existing := dst.Inputs[r]
		existing.Resource = r
		existing.Rate += rate.Rate
		dst.Inputs[r] = existing
	}

	for r, out := range src.Outputs {
		existing, ok := dst.Outputs[r]
		if !ok {
			dst.Outputs[r] = out
			continue
		}
		if existing.DumpExcess != out.DumpExcess {
			return apperror.NewCritical(apperror.CodeInvalidMerge,
				"merged converters disagree on dump_excess for resource").
				WithDetails("resource", r)
		}
		existing.Rate += out.Rate
		dst.Outputs[r] = existing
	}

	dst.Members = sortedInts(append(dst.Members, src.Members...))
	return nil
}
