package parser

import (
	"fmt"
	"strings"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
	"github.com/rhoulihan/mongoplsql-bridge/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// parseValue is the recursive expression parser (spec.md §4.3). It
// dispatches on the decoded Go type bson.Unmarshal produced: bson.D for
// documents, bson.A for arrays, "$"-prefixed strings for field paths,
// and everything else as a Literal.
func parseValue(v any) (types.Expression, error) {
	switch val := v.(type) {
	case bson.D:
		return parseDocumentExpr(val)
	case string:
		if strings.HasPrefix(val, "$$") {
			return types.VariableExpr{Name: val}, nil
		}
		if strings.HasPrefix(val, "$") {
			path, err := validator.ValidateAndNormalizeFieldPath(strings.TrimPrefix(val, "$"))
			if err != nil {
				return nil, fmt.Errorf("invalid field path %q: %w", val, err)
			}
			return types.FieldPathExpr{Path: types.FieldPath{Path: path}}, nil
		}
		return types.LiteralExpr{Value: types.Literal{Kind: types.LiteralString, Value: val}}, nil
	case bson.A:
		elems := make([]types.Expression, len(val))
		for i, e := range val {
			ex, err := parseValue(e)
			if err != nil {
				return nil, err
			}
			elems[i] = ex
		}
		return types.LiteralArrayExpr{Elements: elems}, nil
	case nil:
		return types.LiteralExpr{Value: types.Literal{Kind: types.LiteralNull}}, nil
	case bool:
		return types.LiteralExpr{Value: types.Literal{Kind: types.LiteralBool, Value: val}}, nil
	case int32:
		return types.LiteralExpr{Value: types.Literal{Kind: types.LiteralInt, Value: int(val)}}, nil
	case int64:
		return types.LiteralExpr{Value: types.Literal{Kind: types.LiteralLong, Value: val}}, nil
	case float64:
		return types.LiteralExpr{Value: types.Literal{Kind: types.LiteralDouble, Value: val}}, nil
	case bson.DateTime:
		return types.LiteralExpr{Value: types.Literal{Kind: types.LiteralDate, Value: val.Time()}}, nil
	case bson.ObjectID:
		return types.LiteralExpr{Value: types.Literal{Kind: types.LiteralObjectID, Value: val.Hex()}}, nil
	default:
		return nil, fmt.Errorf("unsupported expression value type: %T", v)
	}
}

// parseDocumentExpr parses a document-shaped expression. A single key
// beginning with "$" is operator dispatch; otherwise it is a compound
// object (only legal as $group._id, enforced by the caller, or as a
// literal sub-document the parser passes through as an ObjectExpr-free
// CompoundId-shaped tree reused for both purposes).
func parseDocumentExpr(d bson.D) (types.Expression, error) {
	if len(d) == 1 && strings.HasPrefix(d[0].Key, "$") {
		return parseOperatorExpr(d[0].Key, d[0].Value)
	}
	fields := make([]types.CompoundIDField, 0, len(d))
	for _, e := range d {
		ex, err := parseValue(e.Value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, types.CompoundIDField{Name: e.Key, Expr: ex})
	}
	return types.CompoundIDExpr{Fields: fields}, nil
}

func parseOperatorExpr(op string, val any) (types.Expression, error) {
	switch op {
	case "$eq", "$ne", "$gt", "$gte", "$lt", "$lte":
		return parseComparisonExpr(types.ComparisonOp(op), val)
	case "$and", "$or", "$nor":
		return parseLogicalExpr(types.LogicalOp(op), val)
	case "$not":
		inner, err := parseValue(val)
		if err != nil {
			return nil, err
		}
		return types.LogicalExpr{Op: types.LogicNot, Operands: []types.Expression{inner}}, nil
	case "$add", "$subtract", "$multiply", "$divide", "$mod":
		return parseArithmeticExpr(types.ArithmeticOp(op), val)
	case "$concat", "$toLower", "$toUpper", "$substrCP", "$substr", "$trim", "$strLenCP", "$split":
		return parseStringExpr(op, val)
	case "$year", "$month", "$dayOfMonth", "$hour", "$minute", "$second", "$dayOfWeek", "$dayOfYear":
		inner, err := parseValue(val)
		if err != nil {
			return nil, err
		}
		return types.DateExpr{Op: types.DateOp(op), Date: inner}, nil
	case "$arrayElemAt", "$size", "$first", "$last", "$slice", "$concatArrays", "$filter", "$map", "$reduce":
		return parseArrayExpr(op, val)
	case "$cond":
		return parseCondExpr(val)
	case "$ifNull":
		return parseIfNullExpr(val)
	case "$toInt", "$toLong", "$toDouble", "$toDecimal", "$toString", "$toBool", "$toDate", "$toObjectId", "$type", "$isNumber", "$isString", "$convert":
		return parseConvertExpr(op, val)
	case "$mergeObjects", "$objectToArray", "$arrayToObject":
		return parseObjectExpr(op, val)
	case "$exists":
		return nil, fmt.Errorf("$exists is only valid as a $match field predicate")
	case "$in", "$nin":
		return parseInExpr(types.MembershipOp(op), val)
	default:
		return nil, fmt.Errorf("unknown operator: %s", op)
	}
}

func parseComparisonExpr(op types.ComparisonOp, val any) (types.Expression, error) {
	arr, ok := val.(bson.A)
	if !ok || len(arr) != 2 {
		return nil, fmt.Errorf("%s requires a 2-element array", op)
	}
	left, err := parseValue(arr[0])
	if err != nil {
		return nil, err
	}
	right, err := parseValue(arr[1])
	if err != nil {
		return nil, err
	}
	return types.ComparisonExpr{Op: op, Left: left, Right: right}, nil
}

func parseLogicalExpr(op types.LogicalOp, val any) (types.Expression, error) {
	arr, ok := val.(bson.A)
	if !ok {
		return nil, fmt.Errorf("%s requires an array of expressions", op)
	}
	operands := make([]types.Expression, len(arr))
	for i, e := range arr {
		ex, err := parseValue(e)
		if err != nil {
			return nil, err
		}
		operands[i] = ex
	}
	return types.LogicalExpr{Op: op, Operands: operands}, nil
}

func parseArithmeticExpr(op types.ArithmeticOp, val any) (types.Expression, error) {
	arr, ok := val.(bson.A)
	if !ok {
		return nil, fmt.Errorf("%s requires an array of operands", op)
	}
	operands := make([]types.Expression, len(arr))
	for i, e := range arr {
		ex, err := parseValue(e)
		if err != nil {
			return nil, err
		}
		operands[i] = ex
	}
	return types.ArithmeticExpr{Op: op, Operands: operands}, nil
}

func parseStringExpr(op string, val any) (types.Expression, error) {
	if op == "$substr" {
		op = "$substrCP"
	}
	var args []any
	if arr, ok := val.(bson.A); ok {
		args = arr
	} else {
		args = []any{val}
	}
	exprs := make([]types.Expression, len(args))
	for i, a := range args {
		ex, err := parseValue(a)
		if err != nil {
			return nil, err
		}
		exprs[i] = ex
	}
	return types.StringExpr{Op: types.StringOp(op), Args: exprs}, nil
}

func parseArrayExpr(op string, val any) (types.Expression, error) {
	var args []any
	if arr, ok := val.(bson.A); ok {
		args = arr
	} else {
		args = []any{val}
	}
	exprs := make([]types.Expression, len(args))
	for i, a := range args {
		ex, err := parseValue(a)
		if err != nil {
			return nil, err
		}
		exprs[i] = ex
	}
	return types.ArrayExpr{Op: types.ArrayOp(op), Args: exprs}, nil
}

func parseCondExpr(val any) (types.Expression, error) {
	switch v := val.(type) {
	case bson.A:
		if len(v) != 3 {
			return nil, fmt.Errorf("$cond array form requires exactly 3 elements")
		}
		ifE, err := parseValue(v[0])
		if err != nil {
			return nil, err
		}
		thenE, err := parseValue(v[1])
		if err != nil {
			return nil, err
		}
		elseE, err := parseValue(v[2])
		if err != nil {
			return nil, err
		}
		return types.ConditionalExpr{Kind: types.CondCond, If: ifE, Then: thenE, Else: elseE}, nil
	case bson.D:
		var ifV, thenV, elseV any
		for _, e := range v {
			switch e.Key {
			case "if":
				ifV = e.Value
			case "then":
				thenV = e.Value
			case "else":
				elseV = e.Value
			}
		}
		ifE, err := parseValue(ifV)
		if err != nil {
			return nil, err
		}
		thenE, err := parseValue(thenV)
		if err != nil {
			return nil, err
		}
		elseE, err := parseValue(elseV)
		if err != nil {
			return nil, err
		}
		return types.ConditionalExpr{Kind: types.CondCond, If: ifE, Then: thenE, Else: elseE}, nil
	default:
		return nil, fmt.Errorf("$cond requires an array or document, got %T", val)
	}
}

func parseIfNullExpr(val any) (types.Expression, error) {
	arr, ok := val.(bson.A)
	if !ok || len(arr) < 2 {
		return nil, fmt.Errorf("$ifNull requires an array of at least 2 elements")
	}
	thenE, err := parseValue(arr[0])
	if err != nil {
		return nil, err
	}
	elseE, err := parseValue(arr[len(arr)-1])
	if err != nil {
		return nil, err
	}
	return types.ConditionalExpr{Kind: types.CondIfNull, Then: thenE, Else: elseE}, nil
}

func parseConvertExpr(op string, val any) (types.Expression, error) {
	if op == "$convert" {
		d, ok := val.(bson.D)
		if !ok {
			return nil, fmt.Errorf("$convert requires a document")
		}
		var inputV, onErrorV, onNullV any
		for _, e := range d {
			switch e.Key {
			case "input":
				inputV = e.Value
			case "onError":
				onErrorV = e.Value
			case "onNull":
				onNullV = e.Value
			}
		}
		input, err := parseValue(inputV)
		if err != nil {
			return nil, err
		}
		var onError, onNull types.Expression
		if onErrorV != nil {
			if onError, err = parseValue(onErrorV); err != nil {
				return nil, err
			}
		}
		if onNullV != nil {
			if onNull, err = parseValue(onNullV); err != nil {
				return nil, err
			}
		}
		return types.TypeConversionExpr{Op: types.ConvConvert, Input: input, OnError: onError, OnNull: onNull}, nil
	}
	input, err := parseValue(val)
	if err != nil {
		return nil, err
	}
	return types.TypeConversionExpr{Op: types.TypeConversionOp(op), Input: input}, nil
}

func parseObjectExpr(op string, val any) (types.Expression, error) {
	var args []any
	if arr, ok := val.(bson.A); ok {
		args = arr
	} else {
		args = []any{val}
	}
	exprs := make([]types.Expression, len(args))
	for i, a := range args {
		ex, err := parseValue(a)
		if err != nil {
			return nil, err
		}
		exprs[i] = ex
	}
	return types.ObjectExpr{Op: types.ObjectOp(op), Args: exprs}, nil
}

func parseInExpr(op types.MembershipOp, val any) (types.Expression, error) {
	arr, ok := val.(bson.A)
	if !ok || len(arr) != 2 {
		return nil, fmt.Errorf("%s requires a 2-element array [needle, haystack]", op)
	}
	needle, err := parseValue(arr[0])
	if err != nil {
		return nil, err
	}
	haystack, err := parseValue(arr[1])
	if err != nil {
		return nil, err
	}
	return types.InExpr{Op: op, Needle: needle, Array: haystack}, nil
}

// parseAccumulator parses a single {"$op": expr} document as an
// accumulator, valid only inside $group/$bucket/$setWindowFields.
func parseAccumulator(d bson.D) (types.Accumulator, error) {
	if len(d) != 1 {
		return types.Accumulator{}, fmt.Errorf("accumulator must have exactly one operator")
	}
	op := types.AccumulatorOp(d[0].Key)
	if !types.AccumulatorAllowed(op) {
		return types.Accumulator{}, fmt.Errorf("unknown accumulator operator: %s", d[0].Key)
	}
	if !types.RequiresExpr(op) {
		return types.Accumulator{Op: op}, nil
	}
	expr, err := parseValue(d[0].Value)
	if err != nil {
		return types.Accumulator{}, err
	}
	return types.Accumulator{Op: op, Expr: expr}, nil
}
