package optimizer

import "github.com/rhoulihan/mongoplsql-bridge/internal/types"

// isNonReordering reports whether a stage is known to preserve the
// relative row order established by an earlier $sort. $addFields only
// adds computed columns and never changes row order or cardinality, so
// it is the only stage the pass looks through.
func isNonReordering(s types.Stage) bool {
	_, ok := s.(types.AddFieldsStage)
	return ok
}

// removeRedundantSort drops an earlier $sort when a later $sort follows
// it with only order-preserving stages in between: the later sort alone
// determines the final row order, so the earlier one is dead weight
// (spec.md §4.7).
func removeRedundantSort(stages []types.Stage) ([]types.Stage, bool) {
	drop := make(map[int]bool)
	for i, s := range stages {
		if _, ok := s.(types.SortStage); !ok || drop[i] {
			continue
		}
		j := i + 1
		for j < len(stages) && isNonReordering(stages[j]) {
			j++
		}
		if j < len(stages) {
			if _, ok := stages[j].(types.SortStage); ok {
				drop[i] = true
			}
		}
	}
	if len(drop) == 0 {
		return stages, false
	}
	out := make([]types.Stage, 0, len(stages)-len(drop))
	for i, s := range stages {
		if drop[i] {
			continue
		}
		out = append(out, s)
	}
	return out, true
}
