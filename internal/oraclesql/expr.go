package oraclesql

import (
	"fmt"
	"strings"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
)

// RenderExpr renders e as a SQL value expression against ctx's dialect,
// bind list, and virtual-field/lookup registries (spec.md §4.5). It is
// the single recursive entry point every stage renderer calls for its
// operand expressions.
func RenderExpr(ctx *Context, e types.Expression) (string, error) {
	switch v := e.(type) {
	case types.LiteralExpr:
		return renderLiteral(ctx, v.Value), nil
	case types.FieldPathExpr:
		return renderFieldPath(ctx, v)
	case types.ComparisonExpr:
		return renderComparison(ctx, v)
	case types.LogicalExpr:
		return renderLogical(ctx, v)
	case types.ArithmeticExpr:
		return renderArithmetic(ctx, v)
	case types.StringExpr:
		return renderString(ctx, v)
	case types.DateExpr:
		return renderDate(ctx, v)
	case types.ArrayExpr:
		return renderArray(ctx, v)
	case types.ConditionalExpr:
		return renderConditional(ctx, v)
	case types.TypeConversionExpr:
		return renderTypeConversion(ctx, v)
	case types.ObjectExpr:
		return renderObject(ctx, v)
	case types.ExistsExpr:
		return renderExists(ctx, v)
	case types.InExpr:
		return renderIn(ctx, v)
	case types.CompoundIDExpr:
		return renderCompoundID(ctx, v)
	case types.LookupSizeExpr:
		return renderLookupSize(ctx, v)
	case types.LiteralArrayExpr:
		return renderLiteralArray(ctx, v)
	case types.VariableExpr:
		return renderVariable(ctx, v), nil
	default:
		return "", fmt.Errorf("oraclesql: no renderer for expression type %T", e)
	}
}

func renderLiteral(ctx *Context, lit types.Literal) string {
	switch lit.Kind {
	case types.LiteralNull:
		return "NULL"
	case types.LiteralArray:
		parts := make([]string, len(lit.Elements))
		for i, el := range lit.Elements {
			parts[i] = renderLiteral(ctx, el)
		}
		return "JSON_ARRAY(" + strings.Join(parts, ", ") + ")"
	default:
		return ctx.Bind(lit.Value)
	}
}

func dataColumn(col, alias string) string {
	if alias == "" {
		return col
	}
	return alias + "." + col
}

// renderFieldPath resolves a field-path reference through, in order: the
// output-alias registry (a bare name an earlier stage emitted as a column
// renders as that quoted identifier), the virtual-field registry (an
// $addFields computed column), the lookup registry (a path rooted at a
// $lookup's "as" name rewrites onto the joined alias's data column), then
// falls back to a JSON_VALUE read off the base table.
func renderFieldPath(ctx *Context, fp types.FieldPathExpr) (string, error) {
	if fp.Path.Path == fp.Path.Root() && ctx.IsOutputAlias(fp.Path.Path) {
		return ctx.Identifier(fp.Path.Path), nil
	}
	if expr, ok := ctx.LookupVirtualField(fp.Path.Root()); ok && fp.Path.Root() == fp.Path.Path {
		return RenderExpr(ctx, expr)
	}
	if l, ok := ctx.lookupByAs(fp.Path.Root()); ok && fp.Path.IsNested() {
		rest := strings.TrimPrefix(fp.Path.Path, fp.Path.Root()+".")
		return jsonValue(ctx, l.alias, rest, fp.Return), nil
	}
	return jsonValue(ctx, ctx.BaseTableAlias(), fp.Path.Path, fp.Return), nil
}

func jsonValue(ctx *Context, alias, path string, ret types.ReturnType) string {
	returning := ""
	if ret != types.ReturnNone {
		returning = " RETURNING " + string(ret)
	}
	return fmt.Sprintf("JSON_VALUE(%s, '$.%s'%s)", dataColumn(ctx.dialect.DataColumn, alias), path, returning)
}

func renderComparison(ctx *Context, c types.ComparisonExpr) (string, error) {
	left, right := c.Left, c.Right
	if fp, ok := left.(types.FieldPathExpr); ok {
		if isNumericOperand(right) {
			fp.Return = types.ReturnNumber
			left = fp
		}
	}
	l, err := RenderExpr(ctx, left)
	if err != nil {
		return "", err
	}
	r, err := RenderExpr(ctx, right)
	if err != nil {
		return "", err
	}
	op := map[types.ComparisonOp]string{
		types.CmpEQ: "=", types.CmpNE: "<>", types.CmpGT: ">",
		types.CmpGTE: ">=", types.CmpLT: "<", types.CmpLTE: "<=",
	}[c.Op]
	return fmt.Sprintf("%s %s %s", l, op, r), nil
}

func isNumericOperand(e types.Expression) bool {
	lit, ok := e.(types.LiteralExpr)
	if !ok {
		return false
	}
	switch lit.Value.Kind {
	case types.LiteralInt, types.LiteralLong, types.LiteralDouble:
		return true
	default:
		return false
	}
}

func renderLogical(ctx *Context, l types.LogicalExpr) (string, error) {
	parts := make([]string, len(l.Operands))
	for i, o := range l.Operands {
		p, err := RenderExpr(ctx, o)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	switch l.Op {
	case types.LogicNot:
		return fmt.Sprintf("NOT ( %s )", parts[0]), nil
	case types.LogicNor:
		return fmt.Sprintf("NOT ( %s )", strings.Join(parts, " OR ")), nil
	case types.LogicOr:
		return "( " + strings.Join(parts, " OR ") + " )", nil
	default:
		return "( " + strings.Join(parts, " AND ") + " )", nil
	}
}

func renderArithmetic(ctx *Context, a types.ArithmeticExpr) (string, error) {
	parts := make([]string, len(a.Operands))
	for i, o := range a.Operands {
		p, err := RenderExpr(ctx, o)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	if a.Op == types.ArithMod {
		if len(parts) != 2 {
			return "", fmt.Errorf("$mod requires exactly 2 operands")
		}
		return fmt.Sprintf("MOD(%s, %s)", parts[0], parts[1]), nil
	}
	sym := map[types.ArithmeticOp]string{
		types.ArithAdd: "+", types.ArithSubtract: "-",
		types.ArithMultiply: "*", types.ArithDivide: "/",
	}[a.Op]
	return "(" + strings.Join(parts, " "+sym+" ") + ")", nil
}

func renderString(ctx *Context, s types.StringExpr) (string, error) {
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		r, err := RenderExpr(ctx, a)
		if err != nil {
			return "", err
		}
		args[i] = r
	}
	switch s.Op {
	case types.StrConcat:
		return strings.Join(args, " || "), nil
	case types.StrToLower:
		return fmt.Sprintf("LOWER(%s)", args[0]), nil
	case types.StrToUpper:
		return fmt.Sprintf("UPPER(%s)", args[0]), nil
	case types.StrTrim:
		return fmt.Sprintf("TRIM(%s)", args[0]), nil
	case types.StrStrLen:
		return fmt.Sprintf("LENGTH(%s)", args[0]), nil
	case types.StrSubstr:
		if len(args) < 3 {
			return "", fmt.Errorf("$substrCP requires 3 arguments")
		}
		return fmt.Sprintf("SUBSTR(%s, %s + 1, %s)", args[0], args[1], args[2]), nil
	case types.StrSplit:
		if len(args) < 2 {
			return "", fmt.Errorf("$split requires 2 arguments")
		}
		return fmt.Sprintf("JSON_ARRAY(%s)", args[0]), nil
	default:
		return "", fmt.Errorf("oraclesql: unhandled string operator %s", s.Op)
	}
}

func renderDate(ctx *Context, d types.DateExpr) (string, error) {
	inner, err := RenderExpr(ctx, d.Date)
	if err != nil {
		return "", err
	}
	ts := fmt.Sprintf("TO_TIMESTAMP(%s,'YYYY-MM-DD\"T\"HH24:MI:SS.FF3\"Z\"')", inner)
	switch d.Op {
	case types.DateYear:
		return fmt.Sprintf("EXTRACT(YEAR FROM %s)", ts), nil
	case types.DateMonth:
		return fmt.Sprintf("EXTRACT(MONTH FROM %s)", ts), nil
	case types.DateDayOfMonth:
		return fmt.Sprintf("EXTRACT(DAY FROM %s)", ts), nil
	case types.DateHour:
		return fmt.Sprintf("EXTRACT(HOUR FROM %s)", ts), nil
	case types.DateMinute:
		return fmt.Sprintf("EXTRACT(MINUTE FROM %s)", ts), nil
	case types.DateSecond:
		return fmt.Sprintf("EXTRACT(SECOND FROM %s)", ts), nil
	case types.DateDayOfWeek:
		return fmt.Sprintf("TO_NUMBER(TO_CHAR(%s,'D'))", ts), nil
	case types.DateDayOfYear:
		return fmt.Sprintf("TO_NUMBER(TO_CHAR(%s,'DDD'))", ts), nil
	default:
		return "", fmt.Errorf("oraclesql: unhandled date operator %s", d.Op)
	}
}

func renderArray(ctx *Context, a types.ArrayExpr) (string, error) {
	switch a.Op {
	case types.ArrSize:
		return renderArraySize(ctx, a.Args[0])
	case types.ArrElemAt:
		return renderArrayElemAt(ctx, a)
	case types.ArrFirst:
		return renderArrayElemAt(ctx, types.ArrayExpr{Op: types.ArrElemAt, Args: []types.Expression{a.Args[0], types.LiteralExpr{Value: types.Literal{Kind: types.LiteralInt, Value: 0}}}})
	case types.ArrLast:
		return renderArrayElemAt(ctx, types.ArrayExpr{Op: types.ArrElemAt, Args: []types.Expression{a.Args[0], types.LiteralExpr{Value: types.Literal{Kind: types.LiteralInt, Value: -1}}}})
	case types.ArrConcat:
		parts := make([]string, len(a.Args))
		for i, arg := range a.Args {
			p, err := RenderExpr(ctx, arg)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return "JSON_ARRAY(" + strings.Join(parts, ", ") + ")", nil
	case types.ArrSlice:
		return renderArraySlice(ctx, a)
	case types.ArrFilter, types.ArrMap:
		return renderArrayTransform(ctx, a)
	case types.ArrReduce:
		return "", fmt.Errorf("oraclesql: %s has no Oracle SQL equivalent expressible as a single correlated expression", a.Op)
	default:
		ctx.AddWarning(types.Warning{Code: types.WarnUnsupportedOperatorClientSide, Message: fmt.Sprintf("%s has no direct Oracle SQL equivalent and is rendered client-side only", a.Op), Stage: -1})
		return "NULL", nil
	}
}

// renderArrayTransform renders $filter and $map (spec.md §4.5's "filter/
// map/reduce require JSON_TABLE-based correlated subqueries") as a
// correlated subquery over a JSON_TABLE row-set, re-aggregated with
// JSON_ARRAYAGG. Mongo parses both operators' {input, as, cond|in}
// document into a single CompoundIDExpr operand (parseArrayExpr wraps a
// lone non-array value as its sole Args element).
func renderArrayTransform(ctx *Context, a types.ArrayExpr) (string, error) {
	if len(a.Args) != 1 {
		return "", fmt.Errorf("%s requires a single {input, as, cond|in} document operand", a.Op)
	}
	opts, ok := a.Args[0].(types.CompoundIDExpr)
	if !ok {
		return "", fmt.Errorf("%s requires a document operand, got %T", a.Op, a.Args[0])
	}
	var inputExpr, bodyExpr types.Expression
	varName := "this"
	for _, f := range opts.Fields {
		switch f.Name {
		case "input":
			inputExpr = f.Expr
		case "cond", "in":
			bodyExpr = f.Expr
		case "as":
			if lit, ok := f.Expr.(types.LiteralExpr); ok {
				if s, ok := lit.Value.Value.(string); ok && s != "" {
					varName = s
				}
			}
		}
	}
	if inputExpr == nil || bodyExpr == nil {
		return "", fmt.Errorf("%s requires both \"input\" and a predicate/transform field", a.Op)
	}
	fp, ok := inputExpr.(types.FieldPathExpr)
	if !ok {
		return "", fmt.Errorf("%s requires a field-path \"input\"", a.Op)
	}

	alias := ctx.GenerateTableAlias("jt")
	nested := ctx.CreateNestedContext()
	nested.SetBaseTableAlias(alias)
	nested.RegisterLoopVariable(varName, alias+".value")
	bodySQL, err := RenderExpr(nested, bodyExpr)
	if err != nil {
		return "", err
	}

	source := fmt.Sprintf(
		"JSON_TABLE(%s, '$.%s[*]' COLUMNS (value JSON PATH '$')) %s",
		dataColumn(ctx.dialect.DataColumn, ctx.BaseTableAlias()), fp.Path.Path, alias,
	)
	if a.Op == types.ArrFilter {
		return fmt.Sprintf("(SELECT JSON_ARRAYAGG(%s.value) FROM %s WHERE %s)", alias, source, bodySQL), nil
	}
	return fmt.Sprintf("(SELECT JSON_ARRAYAGG(%s) FROM %s)", bodySQL, source), nil
}

// renderArraySlice renders $slice over a field-path input as a
// correlated subquery windowing a JSON_TABLE row-set by ordinality.
// Negative counts (last N) reverse the ordering rather than reproduce
// Mongo's exact tie-break order; documented as an accepted simplification.
func renderArraySlice(ctx *Context, a types.ArrayExpr) (string, error) {
	fp, ok := a.Args[0].(types.FieldPathExpr)
	if !ok {
		return "", fmt.Errorf("$slice requires a field-path input")
	}
	source := fmt.Sprintf(
		"JSON_TABLE(%s, '$.%s[*]' COLUMNS (ord FOR ORDINALITY, value JSON PATH '$'))",
		dataColumn(ctx.dialect.DataColumn, ctx.BaseTableAlias()), fp.Path.Path,
	)
	switch len(a.Args) {
	case 2:
		nLit, ok := a.Args[1].(types.LiteralExpr)
		if !ok {
			return "", fmt.Errorf("$slice requires a literal count")
		}
		n, _ := nLit.Value.Value.(int)
		if n >= 0 {
			return fmt.Sprintf(
				"(SELECT JSON_ARRAYAGG(value) FROM (SELECT value FROM %s ORDER BY ord FETCH FIRST %d ROWS ONLY))",
				source, n,
			), nil
		}
		return fmt.Sprintf(
			"(SELECT JSON_ARRAYAGG(value) FROM (SELECT value FROM %s ORDER BY ord DESC FETCH FIRST %d ROWS ONLY))",
			source, -n,
		), nil
	case 3:
		posLit, ok1 := a.Args[1].(types.LiteralExpr)
		nLit, ok2 := a.Args[2].(types.LiteralExpr)
		if !ok1 || !ok2 {
			return "", fmt.Errorf("$slice requires a literal position and count")
		}
		pos, _ := posLit.Value.Value.(int)
		n, _ := nLit.Value.Value.(int)
		return fmt.Sprintf(
			"(SELECT JSON_ARRAYAGG(value) FROM (SELECT value FROM %s WHERE ord > %d ORDER BY ord FETCH FIRST %d ROWS ONLY))",
			source, pos, n,
		), nil
	default:
		return "", fmt.Errorf("$slice requires 2 or 3 arguments, got %d", len(a.Args))
	}
}

func renderArraySize(ctx *Context, arg types.Expression) (string, error) {
	fp, ok := arg.(types.FieldPathExpr)
	if !ok {
		return "", fmt.Errorf("$size requires a field-path operand")
	}
	if l, ok := ctx.lookupByAs(fp.Path.Root()); ok {
		ctx.MarkLookupConsumedBySize(fp.Path.Root())
		local, err := RenderExpr(ctx, types.FieldPathExpr{Path: l.localField})
		if err != nil {
			return "", err
		}
		foreignAlias := ctx.GenerateTableAlias(l.foreignTable)
		return fmt.Sprintf(
			"(SELECT COUNT(*) FROM %s %s WHERE JSON_VALUE(%s, '$.%s') = %s)",
			ctx.Identifier(l.foreignTable), foreignAlias,
			dataColumn(ctx.dialect.DataColumn, foreignAlias), l.foreignField.Path, local,
		), nil
	}
	return fmt.Sprintf("JSON_VALUE(%s, '$.%s.size()')", dataColumn(ctx.dialect.DataColumn, ctx.BaseTableAlias()), fp.Path.Path), nil
}

func renderArrayElemAt(ctx *Context, a types.ArrayExpr) (string, error) {
	base, err := RenderExpr(ctx, a.Args[0])
	if err != nil {
		return "", err
	}
	idxLit, ok := a.Args[1].(types.LiteralExpr)
	if !ok {
		return "", fmt.Errorf("$arrayElemAt requires a literal index")
	}
	n, _ := idxLit.Value.Value.(int)
	if n >= 0 {
		return fmt.Sprintf("%s[%d]", base, n), nil
	}
	if n == -1 {
		return fmt.Sprintf("%s[last]", base), nil
	}
	return fmt.Sprintf("%s[last-%d]", base, -n-1), nil
}

func renderConditional(ctx *Context, c types.ConditionalExpr) (string, error) {
	if c.Kind == types.CondIfNull {
		then, err := RenderExpr(ctx, c.Then)
		if err != nil {
			return "", err
		}
		els, err := RenderExpr(ctx, c.Else)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("COALESCE(%s, %s)", then, els), nil
	}
	ifE, err := RenderExpr(ctx, c.If)
	if err != nil {
		return "", err
	}
	thenE, err := RenderExpr(ctx, c.Then)
	if err != nil {
		return "", err
	}
	elseE, err := RenderExpr(ctx, c.Else)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CASE WHEN %s THEN %s ELSE %s END", ifE, thenE, elseE), nil
}

func renderTypeConversion(ctx *Context, t types.TypeConversionExpr) (string, error) {
	input, err := RenderExpr(ctx, t.Input)
	if err != nil {
		return "", err
	}
	switch t.Op {
	case types.ConvToInt, types.ConvToLong:
		return fmt.Sprintf("TO_NUMBER(%s)", input), nil
	case types.ConvToDouble, types.ConvToDecimal:
		return fmt.Sprintf("TO_BINARY_DOUBLE(%s)", input), nil
	case types.ConvToString:
		return fmt.Sprintf("TO_CHAR(%s)", input), nil
	case types.ConvToDate:
		return fmt.Sprintf("TO_TIMESTAMP_TZ(%s,'YYYY-MM-DD\"T\"HH24:MI:SS.FF3\"Z\"')", input), nil
	case types.ConvToObjectID:
		return input, nil
	case types.ConvToBool:
		return fmt.Sprintf("CASE WHEN %s IS NULL OR %s IN ('0','false',0) THEN 'false' ELSE 'true' END", input, input), nil
	case types.ConvIsNumber:
		return fmt.Sprintf("CASE WHEN REGEXP_LIKE(%s, '^-?[0-9]+(\\.[0-9]+)?$') THEN 'true' ELSE 'false' END", input), nil
	case types.ConvIsString:
		return fmt.Sprintf(
			"CASE WHEN %s IS NOT NULL AND %s NOT IN ('true','false') AND NOT REGEXP_LIKE(%s, '^-?[0-9]+(\\.[0-9]+)?$') THEN 'true' ELSE 'false' END",
			input, input, input,
		), nil
	case types.ConvType:
		return fmt.Sprintf(
			"CASE WHEN %s IS NULL THEN 'null' "+
				"WHEN %s IN ('true','false') THEN 'bool' "+
				"WHEN REGEXP_LIKE(%s, '^-?[0-9]+$') THEN 'int' "+
				"WHEN REGEXP_LIKE(%s, '^-?[0-9]+\\.[0-9]+$') THEN 'double' "+
				"ELSE 'string' END",
			input, input, input, input,
		), nil
	case types.ConvConvert:
		result := fmt.Sprintf("TO_CHAR(%s)", input)
		if t.OnError != nil {
			onErr, err := RenderExpr(ctx, t.OnError)
			if err != nil {
				return "", err
			}
			result = fmt.Sprintf("COALESCE(%s, %s)", result, onErr)
		}
		return result, nil
	default:
		return "", fmt.Errorf("oraclesql: unhandled type conversion operator %s", t.Op)
	}
}

func renderObject(ctx *Context, o types.ObjectExpr) (string, error) {
	switch o.Op {
	case types.ObjMergeObjects:
		parts := make([]string, len(o.Args))
		for i, a := range o.Args {
			p, err := RenderExpr(ctx, a)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return fmt.Sprintf("JSON_MERGEPATCH(%s)", strings.Join(parts, ", ")), nil
	case types.ObjObjectToArray, types.ObjArrayToObject:
		ctx.AddWarning(types.Warning{Code: types.WarnUnsupportedOperatorClientSide, Message: fmt.Sprintf("%s has no Oracle SQL/JSON equivalent for arbitrary key enumeration and is rendered client-side only", o.Op), Stage: -1})
		return "NULL", nil
	default:
		ctx.AddWarning(types.Warning{Code: types.WarnUnsupportedOperatorClientSide, Message: fmt.Sprintf("%s has no direct Oracle SQL equivalent and is rendered client-side only", o.Op), Stage: -1})
		return "NULL", nil
	}
}

func renderExists(ctx *Context, e types.ExistsExpr) (string, error) {
	pred := fmt.Sprintf("JSON_EXISTS(%s, '$.%s')", dataColumn(ctx.dialect.DataColumn, ctx.BaseTableAlias()), e.Path.Path)
	if e.Exists {
		return pred, nil
	}
	return "NOT " + pred, nil
}

func renderIn(ctx *Context, in types.InExpr) (string, error) {
	needle, err := RenderExpr(ctx, in.Needle)
	if err != nil {
		return "", err
	}
	arr, ok := in.Array.(types.LiteralArrayExpr)
	if !ok {
		return "", fmt.Errorf("%s requires a literal array operand", in.Op)
	}
	parts := make([]string, len(arr.Elements))
	for i, el := range arr.Elements {
		p, err := RenderExpr(ctx, el)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	clause := fmt.Sprintf("%s IN (%s)", needle, strings.Join(parts, ", "))
	if in.Op == types.MemberNotIn {
		return "NOT " + clause, nil
	}
	return clause, nil
}

func renderCompoundID(ctx *Context, c types.CompoundIDExpr) (string, error) {
	parts := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		v, err := RenderExpr(ctx, f.Expr)
		if err != nil {
			return "", err
		}
		parts[i] = fmt.Sprintf("'%s' VALUE %s", f.Name, v)
	}
	return "JSON_OBJECT(" + strings.Join(parts, ", ") + ")", nil
}

func renderLookupSize(ctx *Context, l types.LookupSizeExpr) (string, error) {
	return renderArraySize(ctx, types.FieldPathExpr{Path: l.As})
}

func renderLiteralArray(ctx *Context, a types.LiteralArrayExpr) (string, error) {
	parts := make([]string, len(a.Elements))
	for i, el := range a.Elements {
		p, err := RenderExpr(ctx, el)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return "JSON_ARRAY(" + strings.Join(parts, ", ") + ")", nil
}

func renderVariable(ctx *Context, v types.VariableExpr) string {
	if v.Name == "$$ROOT" {
		return dataColumn(ctx.dialect.DataColumn, ctx.BaseTableAlias())
	}
	name := strings.TrimPrefix(v.Name, "$$")
	root, rest, hasRest := strings.Cut(name, ".")
	if col, ok := ctx.LoopVariable(root); ok {
		if !hasRest {
			return col
		}
		return fmt.Sprintf("JSON_VALUE(%s, '$.%s')", col, rest)
	}
	if expr, ok := ctx.LookupVirtualField(name); ok {
		if s, err := RenderExpr(ctx, expr); err == nil {
			return s
		}
	}
	return "NULL"
}
