package optimizer

import "github.com/rhoulihan/mongoplsql-bridge/internal/types"

// referencedFields collects the root field names an expression tree
// reads, deduplicated, in first-seen order. Only roots matter for
// pushdown safety: a projection that drops or renames "a" makes "a.b"
// unsafe to reference too.
func referencedFields(e types.Expression) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(types.Expression)
	walk = func(e types.Expression) {
		if e == nil {
			return
		}
		switch v := e.(type) {
		case types.FieldPathExpr:
			root := v.Path.Root()
			if !seen[root] {
				seen[root] = true
				out = append(out, root)
			}
		case types.ExistsExpr:
			root := v.Path.Root()
			if !seen[root] {
				seen[root] = true
				out = append(out, root)
			}
		case types.ComparisonExpr:
			walk(v.Left)
			walk(v.Right)
		case types.LogicalExpr:
			for _, o := range v.Operands {
				walk(o)
			}
		case types.ArithmeticExpr:
			for _, o := range v.Operands {
				walk(o)
			}
		case types.StringExpr:
			for _, a := range v.Args {
				walk(a)
			}
		case types.DateExpr:
			walk(v.Date)
		case types.ArrayExpr:
			for _, a := range v.Args {
				walk(a)
			}
		case types.ConditionalExpr:
			walk(v.If)
			walk(v.Then)
			walk(v.Else)
		case types.TypeConversionExpr:
			walk(v.Input)
			walk(v.OnError)
			walk(v.OnNull)
		case types.ObjectExpr:
			for _, a := range v.Args {
				walk(a)
			}
		case types.InExpr:
			walk(v.Needle)
			walk(v.Array)
		case types.CompoundIDExpr:
			for _, f := range v.Fields {
				walk(f.Expr)
			}
		case types.LiteralArrayExpr:
			for _, el := range v.Elements {
				walk(el)
			}
		}
	}
	walk(e)
	return out
}

// fieldSurvivesProjection reports whether field passes through proj
// unrenamed: a straight inclusion (or the default-included "_id") in
// inclusion mode, or simply not the excluded name in exclusion mode.
func fieldSurvivesProjection(proj types.ProjectStage, field string) bool {
	hasInclusion := false
	for _, f := range proj.Fields {
		if f.Include && f.Name != "_id" {
			hasInclusion = true
		}
	}
	if hasInclusion {
		if field == "_id" {
			for _, f := range proj.Fields {
				if f.Name == "_id" && !f.Include {
					return false
				}
			}
			return true
		}
		for _, f := range proj.Fields {
			if f.Name == field {
				return f.Include && f.Expr == nil
			}
		}
		return false
	}
	for _, f := range proj.Fields {
		if f.Name == field && !f.Include {
			return false
		}
	}
	return true
}

// pushMatchBeforeProject turns $project -> $match into $match -> $project
// when every field the match filter reads survives the projection
// unrenamed (spec.md §4.7).
func pushMatchBeforeProject(stages []types.Stage) ([]types.Stage, bool) {
	out := make([]types.Stage, len(stages))
	copy(out, stages)
	changed := false
	for i := 0; i < len(out)-1; i++ {
		proj, ok := out[i].(types.ProjectStage)
		if !ok {
			continue
		}
		match, ok := out[i+1].(types.MatchStage)
		if !ok {
			continue
		}
		safe := true
		for _, f := range referencedFields(match.Filter) {
			if !fieldSurvivesProjection(proj, f) {
				safe = false
				break
			}
		}
		if !safe {
			continue
		}
		out[i], out[i+1] = match, proj
		changed = true
	}
	return out, changed
}

// pushMatchBeforeLimit turns $limit -> $match into $match -> $limit, per
// spec.md §4.7.
func pushMatchBeforeLimit(stages []types.Stage) ([]types.Stage, bool) {
	out := make([]types.Stage, len(stages))
	copy(out, stages)
	changed := false
	for i := 0; i < len(out)-1; i++ {
		limit, ok := out[i].(types.LimitStage)
		if !ok {
			continue
		}
		match, ok := out[i+1].(types.MatchStage)
		if !ok {
			continue
		}
		out[i], out[i+1] = match, limit
		changed = true
	}
	return out, changed
}
