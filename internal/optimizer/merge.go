package optimizer

import "github.com/rhoulihan/mongoplsql-bridge/internal/types"

// mergeAdjacentMatch collapses two consecutive $match stages into one
// whose filter is their logical AND (spec.md §4.7).
func mergeAdjacentMatch(stages []types.Stage) ([]types.Stage, bool) {
	out := make([]types.Stage, 0, len(stages))
	changed := false
	i := 0
	for i < len(stages) {
		cur, ok := stages[i].(types.MatchStage)
		if ok && i+1 < len(stages) {
			if next, ok2 := stages[i+1].(types.MatchStage); ok2 {
				out = append(out, types.MatchStage{Filter: andFilters(cur.Filter, next.Filter)})
				changed = true
				i += 2
				continue
			}
		}
		out = append(out, stages[i])
		i++
	}
	return out, changed
}

func andFilters(a, b types.Expression) types.Expression {
	operands := make([]types.Expression, 0, 2)
	if and, ok := a.(types.LogicalExpr); ok && and.Op == types.LogicAnd {
		operands = append(operands, and.Operands...)
	} else {
		operands = append(operands, a)
	}
	if and, ok := b.(types.LogicalExpr); ok && and.Op == types.LogicAnd {
		operands = append(operands, and.Operands...)
	} else {
		operands = append(operands, b)
	}
	return types.LogicalExpr{Op: types.LogicAnd, Operands: operands}
}

// mergeAdjacentLimit collapses two consecutive $limit stages to the
// smaller of the two (spec.md §4.7).
func mergeAdjacentLimit(stages []types.Stage) ([]types.Stage, bool) {
	out := make([]types.Stage, 0, len(stages))
	changed := false
	i := 0
	for i < len(stages) {
		cur, ok := stages[i].(types.LimitStage)
		if ok && i+1 < len(stages) {
			if next, ok2 := stages[i+1].(types.LimitStage); ok2 && cur.Value.Static != nil && next.Value.Static != nil {
				min := *cur.Value.Static
				if *next.Value.Static < min {
					min = *next.Value.Static
				}
				out = append(out, types.LimitStage{Value: types.PaginationValue{Static: &min}})
				changed = true
				i += 2
				continue
			}
		}
		out = append(out, stages[i])
		i++
	}
	return out, changed
}

// mergeAdjacentSkip collapses two consecutive $skip stages to their sum
// (spec.md §4.7).
func mergeAdjacentSkip(stages []types.Stage) ([]types.Stage, bool) {
	out := make([]types.Stage, 0, len(stages))
	changed := false
	i := 0
	for i < len(stages) {
		cur, ok := stages[i].(types.SkipStage)
		if ok && i+1 < len(stages) {
			if next, ok2 := stages[i+1].(types.SkipStage); ok2 && cur.Value.Static != nil && next.Value.Static != nil {
				sum := *cur.Value.Static + *next.Value.Static
				out = append(out, types.SkipStage{Value: types.PaginationValue{Static: &sum}})
				changed = true
				i += 2
				continue
			}
		}
		out = append(out, stages[i])
		i++
	}
	return out, changed
}
