package oraclesql

import (
	"fmt"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
)

// RenderAccumulator renders a single $group/$bucket/$setWindowFields
// accumulator expression (spec.md §4.5). over, when non-empty, is an
// OVER(...) window clause appended for $setWindowFields use; it is
// ignored for plain grouping accumulators (over == "").
func RenderAccumulator(ctx *Context, acc types.Accumulator, over string) (string, error) {
	suffix := ""
	if over != "" {
		suffix = " OVER (" + over + ")"
	}
	if acc.Op == types.AccCount {
		return "COUNT(*)" + suffix, nil
	}
	operandExpr := acc.Expr
	if isArithmeticAccumulator(acc.Op) {
		if fp, ok := operandExpr.(types.FieldPathExpr); ok {
			fp.Return = types.ReturnNumber
			operandExpr = fp
		}
	}
	expr, err := RenderExpr(ctx, operandExpr)
	if err != nil {
		return "", err
	}
	switch acc.Op {
	case types.AccSum:
		return fmt.Sprintf("SUM(%s)%s", expr, suffix), nil
	case types.AccAvg:
		return fmt.Sprintf("AVG(%s)%s", expr, suffix), nil
	case types.AccMin:
		return fmt.Sprintf("MIN(%s)%s", expr, suffix), nil
	case types.AccMax:
		return fmt.Sprintf("MAX(%s)%s", expr, suffix), nil
	case types.AccFirst:
		ctx.AddWarning(types.Warning{Code: types.WarnFirstLastAsMinMax, Message: "$first has no set-based Oracle equivalent outside a window; rendered as MIN", Stage: -1})
		return fmt.Sprintf("MIN(%s)%s", expr, suffix), nil
	case types.AccLast:
		ctx.AddWarning(types.Warning{Code: types.WarnFirstLastAsMinMax, Message: "$last has no set-based Oracle equivalent outside a window; rendered as MAX", Stage: -1})
		return fmt.Sprintf("MAX(%s)%s", expr, suffix), nil
	case types.AccPush:
		return fmt.Sprintf("JSON_ARRAYAGG(%s)%s", expr, suffix), nil
	case types.AccAddToSet:
		return renderAddToSet(ctx, expr, suffix), nil
	default:
		return "", fmt.Errorf("oraclesql: unhandled accumulator %s", acc.Op)
	}
}

// isArithmeticAccumulator reports whether acc aggregates its operand
// numerically, so a bare field-path operand must be read back with
// JSON_VALUE's RETURNING NUMBER clause rather than defaulting to
// VARCHAR2 (which SUM/AVG would aggregate as text).
func isArithmeticAccumulator(op types.AccumulatorOp) bool {
	switch op {
	case types.AccSum, types.AccAvg, types.AccMin, types.AccMax:
		return true
	default:
		return false
	}
}

func renderAddToSet(ctx *Context, expr, suffix string) string {
	if ctx.Dialect().SupportsJSONArrayAggDistinct {
		return fmt.Sprintf("JSON_ARRAYAGG(DISTINCT %s)%s", expr, suffix)
	}
	ctx.AddWarning(types.Warning{Code: types.WarnAddToSetEmulated, Message: "$addToSet emulated via LISTAGG(DISTINCT ...) on this dialect; JSON_ARRAYAGG(DISTINCT ...) is unavailable", Stage: -1})
	return fmt.Sprintf("JSON_QUERY('[' || LISTAGG(DISTINCT %s, ',') || ']', '$')%s", expr, suffix)
}
