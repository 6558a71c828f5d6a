package parser

import (
	"fmt"
	"strings"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
	"github.com/rhoulihan/mongoplsql-bridge/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// parseMatchStage parses a $match stage body in Mongo's query-style
// syntax (not the $group.id "expression" style): plain documents mean an
// implicit AND of per-field predicates, and "$and"/"$or"/"$nor" are
// top-level logical combinators (spec.md §4.3).
func parseMatchStage(val any) (types.Stage, error) {
	filter, err := parseMatchFilter(val)
	if err != nil {
		return nil, fmt.Errorf("$match: %w", err)
	}
	return types.MatchStage{Filter: filter}, nil
}

// parseMatchFilter is exported within the package so $graphLookup's
// restrictSearchWithMatch can reuse it (spec.md §4.3).
func parseMatchFilter(val any) (types.Expression, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("expected a document, got %T", val)
	}
	return parseMatchDoc(d)
}

func parseMatchDoc(d bson.D) (types.Expression, error) {
	if len(d) == 0 {
		return types.LiteralExpr{Value: types.Literal{Kind: types.LiteralBool, Value: true}}, nil
	}
	preds := make([]types.Expression, 0, len(d))
	for _, e := range d {
		pred, err := parseMatchElement(e.Key, e.Value)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return types.LogicalExpr{Op: types.LogicAnd, Operands: preds}, nil
}

func parseMatchElement(key string, val any) (types.Expression, error) {
	switch key {
	case "$and", "$or", "$nor":
		arr, ok := val.(bson.A)
		if !ok {
			return nil, fmt.Errorf("%s requires an array of documents", key)
		}
		operands := make([]types.Expression, len(arr))
		for i, item := range arr {
			sub, ok := item.(bson.D)
			if !ok {
				return nil, fmt.Errorf("%s: expected a document, got %T", key, item)
			}
			ex, err := parseMatchDoc(sub)
			if err != nil {
				return nil, err
			}
			operands[i] = ex
		}
		return types.LogicalExpr{Op: types.LogicalOp(key), Operands: operands}, nil
	case "$expr":
		return parseValue(val)
	default:
		return parseFieldPredicate(key, val)
	}
}

// parseFieldPredicate parses the right-hand side of a single field key
// within a $match document: either a bare value (implicit $eq) or a
// document of operator keys ($gt, $in, $exists, ...).
func parseFieldPredicate(key string, val any) (types.Expression, error) {
	pathStr, err := validator.ValidateAndNormalizeFieldPath(strings.TrimPrefix(key, "$"))
	if err != nil {
		return nil, fmt.Errorf("invalid field path %q: %w", key, err)
	}
	path := types.FieldPath{Path: pathStr}

	d, ok := val.(bson.D)
	if !ok {
		rhs, err := parseValue(val)
		if err != nil {
			return nil, err
		}
		return types.ComparisonExpr{Op: types.CmpEQ, Left: types.FieldPathExpr{Path: path}, Right: rhs}, nil
	}
	if len(d) == 0 || !strings.HasPrefix(d[0].Key, "$") {
		rhs, err := parseValue(val)
		if err != nil {
			return nil, err
		}
		return types.ComparisonExpr{Op: types.CmpEQ, Left: types.FieldPathExpr{Path: path}, Right: rhs}, nil
	}

	preds := make([]types.Expression, 0, len(d))
	for _, op := range d {
		pred, err := parseFieldOperator(path, op.Key, op.Value)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return types.LogicalExpr{Op: types.LogicAnd, Operands: preds}, nil
}

func parseFieldOperator(path types.FieldPath, op string, val any) (types.Expression, error) {
	switch op {
	case "$eq", "$ne", "$gt", "$gte", "$lt", "$lte":
		rhs, err := parseValue(val)
		if err != nil {
			return nil, err
		}
		return types.ComparisonExpr{Op: types.ComparisonOp(op), Left: types.FieldPathExpr{Path: path}, Right: rhs}, nil
	case "$in", "$nin":
		arr, ok := val.(bson.A)
		if !ok {
			return nil, fmt.Errorf("%s requires an array", op)
		}
		elems, err := parseLiteralArray(arr)
		if err != nil {
			return nil, err
		}
		return types.InExpr{
			Op:     types.MembershipOp(op),
			Needle: types.FieldPathExpr{Path: path},
			Array:  elems,
		}, nil
	case "$exists":
		b, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("$exists requires a boolean")
		}
		return types.ExistsExpr{Path: path, Exists: b}, nil
	case "$not":
		d, ok := val.(bson.D)
		if !ok {
			return nil, fmt.Errorf("$not requires a document of operators")
		}
		inner, err := parseFieldPredicate(path.Path, d)
		if err != nil {
			return nil, err
		}
		return types.LogicalExpr{Op: types.LogicNot, Operands: []types.Expression{inner}}, nil
	default:
		return nil, fmt.Errorf("unknown field operator: %s", op)
	}
}

func parseLiteralArray(arr bson.A) (types.Expression, error) {
	elems := make([]types.Expression, len(arr))
	for i, e := range arr {
		ex, err := parseValue(e)
		if err != nil {
			return nil, err
		}
		elems[i] = ex
	}
	return types.LiteralArrayExpr{Elements: elems}, nil
}
