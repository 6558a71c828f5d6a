package oraclesql

import (
	"fmt"
	"strings"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
)

// source describes what a composition stage reads FROM: either the base
// table (table set, alias empty until one is assigned) or a previously
// composed subquery, already parenthesized, under its own alias.
type source struct {
	table string
	alias string
}

// Compose renders an optimized pipeline into a single Oracle SQL
// statement (spec.md §4.6). qualifiedTable is the already-resolved FROM
// target (schema.table or just table), written into the SQL as given,
// without quoting. It returns
// the finished SQL text and the context that accumulated binds,
// warnings, and the capability verdict.
func Compose(p *types.Pipeline, qualifiedTable string, dialect Dialect, inlineBinds bool) (string, *Context, error) {
	ctx := NewContext(dialect, inlineBinds)
	sql, err := composeFrom(ctx, source{table: qualifiedTable}, p.Stages)
	if err != nil {
		return "", nil, err
	}
	return sql, ctx, nil
}

// composeFrom renders stages reading from src. It handles the run of
// inline-composable stages (match/lookup/unwind/addFields/group/project/
// sort/skip/limit) in one SELECT, then hands off to renderComplexStage
// for any stage the Composer does not fold inline (spec.md §4.6's
// "Stages not handled inline render via node renderer producing a
// standalone statement that Composer wraps"), wrapping the result as a
// new subquery source and recursing over whatever stages follow it.
func composeFrom(ctx *Context, src source, stages []types.Stage) (string, error) {
	idx := -1
	for i, s := range stages {
		if isComplexStage(s) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return composeInline(ctx, src, stages)
	}

	headSQL, err := composeInline(ctx, src, stages[:idx])
	if err != nil {
		return "", err
	}
	headAlias := ctx.GenerateTableAlias("cs")
	headSrc := source{table: "(" + headSQL + ")", alias: headAlias}

	complexSQL, err := renderComplexStage(ctx, headSrc, stages[idx])
	if err != nil {
		return "", err
	}
	if idx+1 == len(stages) {
		return complexSQL, nil
	}
	nextAlias := ctx.GenerateTableAlias("cs")
	return composeFrom(ctx, source{table: "(" + complexSQL + ")", alias: nextAlias}, stages[idx+1:])
}

func isComplexStage(s types.Stage) bool {
	switch s.(type) {
	case types.FacetStage, types.GraphLookupStage, types.SetWindowFieldsStage,
		types.BucketStage, types.BucketAutoStage, types.UnionWithStage,
		types.OutStage, types.RedactStage, types.SampleStage,
		types.ReplaceRootStage, types.CountStage:
		return true
	default:
		return false
	}
}

// composeInline renders the classic match/lookup/unwind/addFields plus
// at-most-one-of group/project/sort/skip/limit shape described in
// spec.md §4.6 items 1-9.
func composeInline(ctx *Context, src source, stages []types.Stage) (string, error) {
	var (
		matches   []types.MatchStage
		lookups   []types.LookupStage
		unwinds   []types.UnwindStage
		addFields []types.AddFieldsStage
		group     *types.GroupStage
		project   *types.ProjectStage
		sort      *types.SortStage
		skip      *types.SkipStage
		limit     *types.LimitStage
	)

	for _, s := range stages {
		switch v := s.(type) {
		case types.MatchStage:
			matches = append(matches, v)
		case types.LookupStage:
			lookups = append(lookups, v)
		case types.UnwindStage:
			unwinds = append(unwinds, v)
		case types.AddFieldsStage:
			addFields = append(addFields, v)
		case types.GroupStage:
			g := v
			group = &g
		case types.ProjectStage:
			pr := v
			project = &pr
		case types.SortStage:
			so := v
			sort = &so
		case types.SkipStage:
			sk := v
			skip = &sk
		case types.LimitStage:
			l := v
			limit = &l
		default:
			return "", fmt.Errorf("oraclesql: stage %T is not inline-composable", s)
		}
	}

	baseAlias := src.alias
	if baseAlias == "" && (len(lookups) > 0 || len(unwinds) > 0) {
		baseAlias = ctx.GenerateTableAlias("t")
	}
	ctx.SetBaseTableAlias(baseAlias)

	for i := range lookups {
		lk := lookups[i]
		ctx.RegisterLookup(lk.As, lk.From, lk.LocalField, lk.ForeignField)
	}
	for _, af := range addFields {
		for _, f := range af.Fields {
			ctx.RegisterVirtualField(f.Name, f.Expr)
		}
	}

	joinSQL := make([]string, len(lookups))
	for i, lk := range lookups {
		alias := ctx.GenerateTableAlias(lk.From)
		ctx.RegisterLookupTableAlias(lk.As, alias)
		joinSQL[i] = fmt.Sprintf(
			"LEFT OUTER JOIN %s %s ON %s = %s",
			ctx.Identifier(lk.From), alias,
			jsonValue(ctx, baseAlias, lk.LocalField.Path, types.ReturnNone),
			jsonValue(ctx, alias, lk.ForeignField.Path, types.ReturnNone),
		)
	}

	unwindSQL := make([]string, len(unwinds))
	for i, uw := range unwinds {
		alias := ctx.GenerateTableAlias("uw")
		cols := "value JSON PATH '$'"
		if uw.IncludeArrayIndex != "" {
			cols += fmt.Sprintf(", %s FOR ORDINALITY", ctx.Identifier(uw.IncludeArrayIndex))
		}
		joinWord := "CROSS JOIN"
		if uw.PreserveNullAndEmptyArrays {
			ctx.AddWarning(types.Warning{
				Code:    types.WarnUnsupportedOperatorClientSide,
				Message: "$unwind preserveNullAndEmptyArrays drops source rows whose array is missing or empty; Oracle JSON_TABLE has no outer-apply form for this in a plain cross join",
				Stage:   -1,
			})
		}
		unwindSQL[i] = fmt.Sprintf(
			"%s JSON_TABLE(%s, '$.%s[*]' COLUMNS (%s)) %s",
			joinWord, dataColumn(ctx.dialect.DataColumn, baseAlias), uw.Path.Path, cols, alias,
		)
	}

	selectSQL, groupKeySQL, err := renderSelectList(ctx, group, project, addFields)
	if err != nil {
		return "", err
	}

	whereSQL := ""
	if len(matches) > 0 {
		parts := make([]string, len(matches))
		for i, m := range matches {
			p, err := RenderExpr(ctx, m.Filter)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		whereSQL = "WHERE " + strings.Join(parts, " AND ")
	}

	groupBySQL := ""
	if group != nil && !isLiteralNullExpr(group.ID) {
		groupBySQL = "GROUP BY " + groupKeySQL
	}

	orderBySQL := ""
	if sort != nil {
		items := make([]string, len(sort.Items))
		for i, it := range sort.Items {
			e, err := RenderExpr(ctx, types.FieldPathExpr{Path: it.Path})
			if err != nil {
				return "", err
			}
			if it.Order == types.Descending {
				e += " DESC"
			}
			items[i] = e
		}
		orderBySQL = "ORDER BY " + strings.Join(items, ", ")
	}

	paginateSQL := renderPagination(ctx, sort, skip, limit)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectSQL)
	b.WriteString(" FROM ")
	b.WriteString(src.table)
	if src.alias == "" && baseAlias != "" {
		b.WriteString(" ")
		b.WriteString(baseAlias)
	} else if src.alias != "" {
		b.WriteString(" ")
		b.WriteString(src.alias)
	}
	for i, lk := range lookups {
		if ctx.IsLookupConsumedBySize(lk.As) {
			continue
		}
		b.WriteString(" ")
		b.WriteString(joinSQL[i])
	}
	for _, j := range unwindSQL {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if whereSQL != "" {
		b.WriteString(" ")
		b.WriteString(whereSQL)
	}
	if groupBySQL != "" {
		b.WriteString(" ")
		b.WriteString(groupBySQL)
	}
	if orderBySQL != "" {
		b.WriteString(" ")
		b.WriteString(orderBySQL)
	}
	if paginateSQL != "" {
		b.WriteString(" ")
		b.WriteString(paginateSQL)
	}
	return b.String(), nil
}

// passthroughDataColumn renders the document-passthrough SELECT column: a
// bare "data" when the base table carries no alias (nothing to qualify,
// so no re-aliasing is needed), or "alias.data AS data" when it does, so
// the column keeps its plain name for whatever composes on top of it.
func passthroughDataColumn(ctx *Context) string {
	col := dataColumn(ctx.dialect.DataColumn, ctx.BaseTableAlias())
	if ctx.BaseTableAlias() == "" {
		return col
	}
	return col + " AS " + ctx.dialect.DataColumn
}

func isLiteralNullExpr(e types.Expression) bool {
	lit, ok := e.(types.LiteralExpr)
	return ok && lit.Value.Kind == types.LiteralNull
}

func renderPagination(ctx *Context, sort *types.SortStage, skip *types.SkipStage, limit *types.LimitStage) string {
	if sort != nil && sort.LimitHint != nil && skip == nil {
		return fmt.Sprintf("FETCH FIRST %d ROWS ONLY", *sort.LimitHint)
	}
	var parts []string
	if skip != nil {
		parts = append(parts, fmt.Sprintf("OFFSET %s ROWS", renderPaginationValue(ctx, skip.Value)))
	}
	if limit != nil {
		parts = append(parts, fmt.Sprintf("FETCH FIRST %s ROWS ONLY", renderPaginationValue(ctx, limit.Value)))
	}
	return strings.Join(parts, " ")
}

func renderPaginationValue(ctx *Context, pv types.PaginationValue) string {
	if pv.BindName != "" {
		return ":" + pv.BindName
	}
	if pv.Static != nil {
		return fmt.Sprintf("%d", *pv.Static)
	}
	return "0"
}

// renderSelectList builds the SELECT clause for the three mutually
// exclusive shapes composeInline can produce (group, project, or plain
// document passthrough), plus any $addFields columns appended after it.
// It also returns the rendered group-key expression so composeInline
// can reuse it verbatim as the GROUP BY clause.
func renderSelectList(ctx *Context, group *types.GroupStage, project *types.ProjectStage, addFields []types.AddFieldsStage) (string, string, error) {
	var cols []string
	groupKeySQL := ""

	switch {
	case group != nil:
		if !isLiteralNullExpr(group.ID) {
			idSQL, err := RenderExpr(ctx, group.ID)
			if err != nil {
				return "", "", err
			}
			groupKeySQL = idSQL
			cols = append(cols, idSQL+" AS "+ctx.Identifier("_id"))
			ctx.RegisterOutputAlias("_id")
		}
		for _, na := range group.Accumulators {
			accSQL, err := RenderAccumulator(ctx, na.Acc, "")
			if err != nil {
				return "", "", err
			}
			cols = append(cols, fmt.Sprintf("%s AS %s", accSQL, ctx.Identifier(na.Name)))
			ctx.RegisterOutputAlias(na.Name)
		}
	case project != nil:
		hasInclusion := false
		for _, f := range project.Fields {
			if f.Include && f.Name != "_id" {
				hasInclusion = true
			}
		}
		if hasInclusion {
			var parts []string
			for _, f := range project.Fields {
				if !f.Include {
					continue
				}
				var valSQL string
				var err error
				if f.Expr != nil {
					valSQL, err = RenderExpr(ctx, f.Expr)
				} else {
					valSQL, err = RenderExpr(ctx, types.FieldPathExpr{Path: types.FieldPath{Path: f.Name}})
				}
				if err != nil {
					return "", "", err
				}
				parts = append(parts, fmt.Sprintf("'%s' VALUE %s", f.Name, valSQL))
			}
			cols = append(cols, "JSON_OBJECT("+strings.Join(parts, ", ")+") AS "+ctx.dialect.DataColumn)
		} else {
			ctx.AddWarning(types.Warning{
				Code:    types.WarnProjectExclusionPassthrough,
				Message: "$project exclusion mode passes the stored document through unmodified; this renderer does not enforce field removal inside the JSON column",
				Stage:   -1,
			})
			cols = append(cols, passthroughDataColumn(ctx))
		}
	default:
		cols = append(cols, passthroughDataColumn(ctx))
	}

	for _, af := range addFields {
		for _, f := range af.Fields {
			v, err := RenderExpr(ctx, f.Expr)
			if err != nil {
				return "", "", err
			}
			cols = append(cols, fmt.Sprintf("%s AS %s", v, ctx.Identifier(f.Name)))
		}
	}
	return strings.Join(cols, ", "), groupKeySQL, nil
}
