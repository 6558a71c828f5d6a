package parser

import (
	"fmt"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
	"github.com/rhoulihan/mongoplsql-bridge/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func parseProjectStage(val any) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$project: expected a document, got %T", val)
	}
	if len(d) > types.MaxProjectFields {
		return nil, fmt.Errorf("$project: field count exceeds maximum: %d > %d", len(d), types.MaxProjectFields)
	}
	fields := make([]types.ProjectField, 0, len(d))
	for _, e := range d {
		if err := validator.ValidateFieldName(e.Key); err != nil && e.Key != "_id" {
			return nil, fmt.Errorf("$project: %w", err)
		}
		switch v := e.Value.(type) {
		case int32:
			fields = append(fields, types.ProjectField{Name: e.Key, Include: v != 0})
		case int64:
			fields = append(fields, types.ProjectField{Name: e.Key, Include: v != 0})
		case float64:
			fields = append(fields, types.ProjectField{Name: e.Key, Include: v != 0})
		case bool:
			fields = append(fields, types.ProjectField{Name: e.Key, Include: v})
		default:
			expr, err := parseValue(e.Value)
			if err != nil {
				return nil, fmt.Errorf("$project.%s: %w", e.Key, err)
			}
			fields = append(fields, types.ProjectField{Name: e.Key, Include: true, Expr: expr})
		}
	}
	return types.ProjectStage{Fields: fields}, nil
}

func parseGroupStage(val any) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$group: expected a document, got %T", val)
	}
	var idVal any
	hasID := false
	accs := make([]types.NamedAccumulator, 0, len(d))
	for _, e := range d {
		if e.Key == "_id" {
			idVal = e.Value
			hasID = true
			continue
		}
		if err := validator.ValidateFieldName(e.Key); err != nil {
			return nil, fmt.Errorf("$group: %w", err)
		}
		accDoc, ok := e.Value.(bson.D)
		if !ok {
			return nil, fmt.Errorf("$group.%s: expected an accumulator document, got %T", e.Key, e.Value)
		}
		acc, err := parseAccumulator(accDoc)
		if err != nil {
			return nil, fmt.Errorf("$group.%s: %w", e.Key, err)
		}
		accs = append(accs, types.NamedAccumulator{Name: e.Key, Acc: acc})
	}
	if !hasID {
		return nil, fmt.Errorf("$group requires an _id expression")
	}
	idExpr, err := parseValue(idVal)
	if err != nil {
		return nil, fmt.Errorf("$group._id: %w", err)
	}
	return types.GroupStage{ID: idExpr, Accumulators: accs}, nil
}

func parseSortStage(val any) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$sort: expected a document, got %T", val)
	}
	if len(d) > types.MaxSortFields {
		return nil, fmt.Errorf("$sort: field count exceeds maximum: %d > %d", len(d), types.MaxSortFields)
	}
	items := make([]types.SortItem, 0, len(d))
	for _, e := range d {
		path, err := validator.ValidateAndNormalizeFieldPath(e.Key)
		if err != nil {
			return nil, fmt.Errorf("$sort: %w", err)
		}
		order, err := parseSortOrder(e.Value)
		if err != nil {
			return nil, fmt.Errorf("$sort.%s: %w", e.Key, err)
		}
		items = append(items, types.SortItem{Path: types.FieldPath{Path: path}, Order: order})
	}
	return types.SortStage{Items: items}, nil
}

func parseSortOrder(val any) (types.SortOrder, error) {
	n, err := asInt(val)
	if err != nil {
		return 0, err
	}
	switch {
	case n > 0:
		return types.Ascending, nil
	case n < 0:
		return types.Descending, nil
	default:
		return 0, fmt.Errorf("sort order must be 1 or -1, got %d", n)
	}
}

func parseSkipStage(val any) (types.Stage, error) {
	n, err := asInt(val)
	if err != nil {
		return nil, fmt.Errorf("$skip: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("$skip: value must be non-negative, got %d", n)
	}
	return types.SkipStage{Value: types.PaginationValue{Static: &n}}, nil
}

func parseLimitStage(val any) (types.Stage, error) {
	n, err := asInt(val)
	if err != nil {
		return nil, fmt.Errorf("$limit: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("$limit: value must be non-negative, got %d", n)
	}
	return types.LimitStage{Value: types.PaginationValue{Static: &n}}, nil
}

func parseSampleStage(val any) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$sample: expected a document, got %T", val)
	}
	for _, e := range d {
		if e.Key == "size" {
			n, err := asInt(e.Value)
			if err != nil {
				return nil, fmt.Errorf("$sample.size: %w", err)
			}
			return types.SampleStage{Size: n}, nil
		}
	}
	return nil, fmt.Errorf("$sample requires a size field")
}

func parseUnwindStage(val any) (types.Stage, error) {
	switch v := val.(type) {
	case string:
		path, err := validator.ValidateAndNormalizeFieldPath(trimDollar(v))
		if err != nil {
			return nil, fmt.Errorf("$unwind: %w", err)
		}
		return types.UnwindStage{Path: types.FieldPath{Path: path}}, nil
	case bson.D:
		var path string
		var includeIdx string
		var preserve bool
		found := false
		for _, e := range v {
			switch e.Key {
			case "path":
				s, ok := e.Value.(string)
				if !ok {
					return nil, fmt.Errorf("$unwind.path must be a string")
				}
				p, err := validator.ValidateAndNormalizeFieldPath(trimDollar(s))
				if err != nil {
					return nil, fmt.Errorf("$unwind.path: %w", err)
				}
				path = p
				found = true
			case "includeArrayIndex":
				s, _ := e.Value.(string)
				includeIdx = s
			case "preserveNullAndEmptyArrays":
				b, _ := e.Value.(bool)
				preserve = b
			}
		}
		if !found {
			return nil, fmt.Errorf("$unwind requires a path")
		}
		return types.UnwindStage{
			Path:                       types.FieldPath{Path: path},
			IncludeArrayIndex:          includeIdx,
			PreserveNullAndEmptyArrays: preserve,
		}, nil
	default:
		return nil, fmt.Errorf("$unwind: expected a string or document, got %T", val)
	}
}

func parseAddFieldsStage(val any) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$addFields: expected a document, got %T", val)
	}
	fields := make([]types.NamedExpression, 0, len(d))
	for _, e := range d {
		if err := validator.ValidateFieldName(e.Key); err != nil {
			return nil, fmt.Errorf("$addFields: %w", err)
		}
		expr, err := parseValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("$addFields.%s: %w", e.Key, err)
		}
		fields = append(fields, types.NamedExpression{Name: e.Key, Expr: expr})
	}
	return types.AddFieldsStage{Fields: fields}, nil
}

func parseReplaceRootStage(val any) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$replaceRoot: expected a document, got %T", val)
	}
	for _, e := range d {
		if e.Key == "newRoot" {
			expr, err := parseValue(e.Value)
			if err != nil {
				return nil, fmt.Errorf("$replaceRoot.newRoot: %w", err)
			}
			return types.ReplaceRootStage{NewRoot: expr}, nil
		}
	}
	return nil, fmt.Errorf("$replaceRoot requires newRoot")
}

func parseCountStage(val any) (types.Stage, error) {
	name, ok := val.(string)
	if !ok {
		return nil, fmt.Errorf("$count: expected a string, got %T", val)
	}
	if err := validator.ValidateFieldName(name); err != nil {
		return nil, fmt.Errorf("$count: %w", err)
	}
	return types.CountStage{FieldName: name}, nil
}

// parseSortByCountStage desugars $sortByCount into $group + $sort, per
// SPEC_FULL.md §3.
func parseSortByCountStage(val any) ([]types.Stage, error) {
	expr, err := parseValue(val)
	if err != nil {
		return nil, fmt.Errorf("$sortByCount: %w", err)
	}
	group := types.GroupStage{
		ID: expr,
		Accumulators: []types.NamedAccumulator{
			{Name: "count", Acc: types.Accumulator{Op: types.AccSum, Expr: types.LiteralExpr{Value: types.Literal{Kind: types.LiteralInt, Value: 1}}}},
		},
	}
	sort := types.SortStage{
		Items: []types.SortItem{
			{Path: types.FieldPath{Path: "count"}, Order: types.Descending},
		},
	}
	return []types.Stage{group, sort}, nil
}

func asInt(val any) (int, error) {
	switch v := val.(type) {
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", val)
	}
}

func trimDollar(s string) string {
	if len(s) > 0 && s[0] == '$' {
		return s[1:]
	}
	return s
}
