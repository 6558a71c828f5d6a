package oraclesql

import (
	"strings"
	"testing"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
)

func intPtr(n int) *int { return &n }

func TestCompose_SimpleLimit(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.LimitStage{Value: types.PaginationValue{Static: intPtr(10)}},
		},
	}
	sql, ctx, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "FROM app.orders") {
		t.Errorf("expected FROM app.orders, got: %s", sql)
	}
	if !strings.Contains(sql, "FETCH FIRST 10 ROWS ONLY") {
		t.Errorf("expected FETCH FIRST 10 ROWS ONLY, got: %s", sql)
	}
	if len(ctx.Binds()) != 0 {
		t.Errorf("expected no binds, got %v", ctx.Binds())
	}
}

func TestCompose_SkipAndLimit(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.SkipStage{Value: types.PaginationValue{Static: intPtr(20)}},
			types.LimitStage{Value: types.PaginationValue{Static: intPtr(10)}},
		},
	}
	sql, _, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "OFFSET 20 ROWS") || !strings.Contains(sql, "FETCH FIRST 10 ROWS ONLY") {
		t.Errorf("expected OFFSET + FETCH FIRST clauses, got: %s", sql)
	}
}

func TestCompose_MatchWithBind(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.MatchStage{Filter: types.ComparisonExpr{
				Op:    types.CmpEQ,
				Left:  types.FieldPathExpr{Path: types.FieldPath{Path: "status"}},
				Right: types.LiteralExpr{Value: types.Literal{Kind: types.LiteralString, Value: "shipped"}},
			}},
		},
	}
	sql, ctx, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "WHERE JSON_VALUE(data, '$.status') = :1") {
		t.Errorf("expected bound WHERE clause, got: %s", sql)
	}
	if len(ctx.Binds()) != 1 || ctx.Binds()[0] != "shipped" {
		t.Errorf("expected one bind \"shipped\", got %v", ctx.Binds())
	}
}

func TestCompose_MatchInlineBind(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.MatchStage{Filter: types.ComparisonExpr{
				Op:    types.CmpEQ,
				Left:  types.FieldPathExpr{Path: types.FieldPath{Path: "status"}},
				Right: types.LiteralExpr{Value: types.Literal{Kind: types.LiteralString, Value: "shipped"}},
			}},
		},
	}
	sql, ctx, err := Compose(p, "app.orders", Oracle23c, true)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "= 'shipped'") {
		t.Errorf("expected inline literal, got: %s", sql)
	}
	if len(ctx.Binds()) != 0 {
		t.Errorf("expected no binds in inline mode, got %v", ctx.Binds())
	}
}

func TestCompose_GroupWithSum(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.GroupStage{
				ID: types.FieldPathExpr{Path: types.FieldPath{Path: "customerId"}},
				Accumulators: []types.NamedAccumulator{
					{Name: "total", Acc: types.Accumulator{Op: types.AccSum, Expr: types.FieldPathExpr{Path: types.FieldPath{Path: "amount"}}}},
				},
			},
		},
	}
	sql, _, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "SUM(JSON_VALUE(data, '$.amount' RETURNING NUMBER)) AS total") {
		t.Errorf("expected SUM accumulator column with RETURNING NUMBER, got: %s", sql)
	}
	if !strings.Contains(sql, `AS "_id"`) {
		t.Errorf("expected group key aliased as _id, got: %s", sql)
	}
	if !strings.Contains(sql, "GROUP BY JSON_VALUE(data, '$.customerId')") {
		t.Errorf("expected GROUP BY clause, got: %s", sql)
	}
}

func TestCompose_SortLimitFusion(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.SortStage{
				Items:     []types.SortItem{{Path: types.FieldPath{Path: "amount"}, Order: types.Descending}},
				LimitHint: intPtr(5),
			},
		},
	}
	sql, _, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "ORDER BY JSON_VALUE(data, '$.amount') DESC") {
		t.Errorf("expected ORDER BY DESC, got: %s", sql)
	}
	if !strings.Contains(sql, "FETCH FIRST 5 ROWS ONLY") {
		t.Errorf("expected fused FETCH FIRST, got: %s", sql)
	}
	if strings.Contains(sql, "OFFSET") {
		t.Errorf("fused sort+limit should not emit OFFSET, got: %s", sql)
	}
}

func TestCompose_SortThenSkipDoesNotFuse(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.SortStage{Items: []types.SortItem{{Path: types.FieldPath{Path: "amount"}, Order: types.Ascending}}},
			types.SkipStage{Value: types.PaginationValue{Static: intPtr(5)}},
			types.LimitStage{Value: types.PaginationValue{Static: intPtr(5)}},
		},
	}
	sql, _, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "OFFSET 5 ROWS") || !strings.Contains(sql, "FETCH FIRST 5 ROWS ONLY") {
		t.Errorf("expected literal OFFSET/FETCH, got: %s", sql)
	}
}

func TestCompose_LookupWithSize(t *testing.T) {
	p := &types.Pipeline{
		Collection: "customers",
		Stages: []types.Stage{
			types.LookupStage{
				From:         "orders",
				LocalField:   types.FieldPath{Path: "_id"},
				ForeignField: types.FieldPath{Path: "customerId"},
				As:           "orders",
			},
			types.ProjectStage{
				Fields: []types.ProjectField{
					{Name: "orderCount", Include: true, Expr: types.ArrayExpr{
						Op:   types.ArrSize,
						Args: []types.Expression{types.FieldPathExpr{Path: types.FieldPath{Path: "orders"}}},
					}},
				},
			},
		},
	}
	sql, _, err := Compose(p, "app.customers", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if strings.Contains(sql, "LEFT OUTER JOIN") {
		t.Errorf("$size on a lookup's as-field should elide the JOIN, got: %s", sql)
	}
	if !strings.Contains(sql, "SELECT COUNT(*) FROM") {
		t.Errorf("expected correlated COUNT(*) subquery, got: %s", sql)
	}
}

func TestCompose_LookupWithoutSizeEmitsJoin(t *testing.T) {
	p := &types.Pipeline{
		Collection: "customers",
		Stages: []types.Stage{
			types.LookupStage{
				From:         "orders",
				LocalField:   types.FieldPath{Path: "_id"},
				ForeignField: types.FieldPath{Path: "customerId"},
				As:           "orders",
			},
		},
	}
	sql, _, err := Compose(p, "app.customers", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "LEFT OUTER JOIN") {
		t.Errorf("expected a LEFT OUTER JOIN for an unconsumed lookup, got: %s", sql)
	}
}

func TestCompose_Count(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.MatchStage{Filter: types.ExistsExpr{Path: types.FieldPath{Path: "shippedAt"}, Exists: true}},
			types.CountStage{FieldName: "shippedCount"},
		},
	}
	sql, _, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "COUNT(*) AS shippedCount") {
		t.Errorf("expected COUNT(*) AS shippedCount, got: %s", sql)
	}
	if !strings.Contains(sql, "JSON_EXISTS") {
		t.Errorf("expected the preceding $match to still apply, got: %s", sql)
	}
}

// TestCompose_SortByCountAliasResolution exercises the output-alias fix:
// a $sortByCount-shaped pipeline ($group by a key, then $sort on the
// accumulator's output name) must resolve "count" to the SELECT-list
// alias, not re-derive a JSON_VALUE path off the collapsed data column.
func TestCompose_SortByCountAliasResolution(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.GroupStage{
				ID: types.FieldPathExpr{Path: types.FieldPath{Path: "status"}},
				Accumulators: []types.NamedAccumulator{
					{Name: "count", Acc: types.Accumulator{Op: types.AccCount}},
				},
			},
			types.SortStage{Items: []types.SortItem{{Path: types.FieldPath{Path: "count"}, Order: types.Descending}}},
		},
	}
	sql, _, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "ORDER BY count DESC") {
		t.Errorf("expected ORDER BY count DESC (alias reference), got: %s", sql)
	}
	if strings.Contains(sql, "JSON_VALUE(data, '$.count')") {
		t.Errorf("count should resolve to the SELECT-list alias, not a JSON_VALUE path: %s", sql)
	}
}

func TestCompose_ProjectInclusion(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.ProjectStage{Fields: []types.ProjectField{
				{Name: "status", Include: true},
				{Name: "amount", Include: true},
			}},
		},
	}
	sql, _, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "JSON_OBJECT('status' VALUE JSON_VALUE(data, '$.status'), 'amount' VALUE JSON_VALUE(data, '$.amount')) AS data") {
		t.Errorf("expected an inclusion JSON_OBJECT projection, got: %s", sql)
	}
}

func TestCompose_ProjectExclusionWarns(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.ProjectStage{Fields: []types.ProjectField{
				{Name: "internalNotes", Include: false},
			}},
		},
	}
	_, ctx, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	found := false
	for _, w := range ctx.Warnings() {
		if w.Code == types.WarnProjectExclusionPassthrough {
			found = true
		}
	}
	if !found {
		t.Errorf("expected WarnProjectExclusionPassthrough, got: %v", ctx.Warnings())
	}
	if ctx.Capability() == types.FullSupport {
		t.Errorf("exclusion projection should not grade FULL_SUPPORT")
	}
}

func TestCompose_UnwindPreserveNullWarns(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.UnwindStage{
				Path:                       types.FieldPath{Path: "items"},
				PreserveNullAndEmptyArrays: true,
			},
		},
	}
	sql, ctx, err := Compose(p, "app.orders", Oracle23c, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(sql, "JSON_TABLE") {
		t.Errorf("expected a JSON_TABLE cross join, got: %s", sql)
	}
	found := false
	for _, w := range ctx.Warnings() {
		if w.Code == types.WarnUnsupportedOperatorClientSide {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning for preserveNullAndEmptyArrays, got: %v", ctx.Warnings())
	}
}
