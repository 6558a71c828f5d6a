package optimizer

import "github.com/rhoulihan/mongoplsql-bridge/internal/types"

// fuseSortLimit annotates a $sort with LimitHint = skip + limit when it
// is immediately followed (modulo order-preserving $addFields stages) by
// $limit or $skip -> $limit, letting the composer emit a top-N ORDER BY
// instead of a wrapping OFFSET/FETCH subquery (spec.md §4.7). The $skip
// and $limit stages themselves are left in place: the composer still
// needs them to render OFFSET/FETCH for the general case.
func fuseSortLimit(stages []types.Stage) ([]types.Stage, bool) {
	out := make([]types.Stage, len(stages))
	copy(out, stages)
	changed := false
	for i, s := range out {
		sort, ok := s.(types.SortStage)
		if !ok {
			continue
		}
		hint, ok := lookaheadLimitHint(out, i+1)
		if !ok {
			continue
		}
		if sort.LimitHint != nil && *sort.LimitHint == hint {
			continue
		}
		h := hint
		sort.LimitHint = &h
		out[i] = sort
		changed = true
	}
	return out, changed
}

// lookaheadLimitHint walks forward from idx through $addFields stages
// looking for an optional $skip followed by a required $limit, both with
// static values. It returns false if anything row-changing intervenes.
func lookaheadLimitHint(stages []types.Stage, idx int) (int, bool) {
	j := idx
	for j < len(stages) && isNonReordering(stages[j]) {
		j++
	}
	skip := 0
	if j < len(stages) {
		if sk, ok := stages[j].(types.SkipStage); ok && sk.Value.Static != nil {
			skip = *sk.Value.Static
			j++
			for j < len(stages) && isNonReordering(stages[j]) {
				j++
			}
		}
	}
	if j >= len(stages) {
		return 0, false
	}
	lim, ok := stages[j].(types.LimitStage)
	if !ok || lim.Value.Static == nil {
		return 0, false
	}
	return skip + *lim.Value.Static, true
}
