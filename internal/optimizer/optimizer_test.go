package optimizer

import (
	"testing"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
)

func eqField(path string) types.Expression {
	return types.ComparisonExpr{
		Op:   types.CmpEQ,
		Left: types.FieldPathExpr{Path: types.FieldPath{Path: path}},
		Right: types.LiteralExpr{Value: types.Literal{Kind: types.LiteralString, Value: "x"}},
	}
}

func intP(n int) *int { return &n }

func TestOptimize_MergesAdjacentMatch(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.MatchStage{Filter: eqField("status")},
			types.MatchStage{Filter: eqField("region")},
		},
	}
	Optimize(p)
	if len(p.Stages) != 1 {
		t.Fatalf("expected 1 stage after merge, got %d", len(p.Stages))
	}
	match := p.Stages[0].(types.MatchStage)
	logic, ok := match.Filter.(types.LogicalExpr)
	if !ok || logic.Op != types.LogicAnd || len(logic.Operands) != 2 {
		t.Fatalf("expected AND of 2 operands, got %#v", match.Filter)
	}
}

func TestOptimize_MergesAdjacentLimitToMinimum(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.LimitStage{Value: types.PaginationValue{Static: intP(50)}},
			types.LimitStage{Value: types.PaginationValue{Static: intP(10)}},
		},
	}
	Optimize(p)
	if len(p.Stages) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(p.Stages))
	}
	lim := p.Stages[0].(types.LimitStage)
	if *lim.Value.Static != 10 {
		t.Errorf("expected min(50,10)=10, got %d", *lim.Value.Static)
	}
}

func TestOptimize_MergesAdjacentSkipToSum(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.SkipStage{Value: types.PaginationValue{Static: intP(5)}},
			types.SkipStage{Value: types.PaginationValue{Static: intP(7)}},
		},
	}
	Optimize(p)
	if len(p.Stages) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(p.Stages))
	}
	skip := p.Stages[0].(types.SkipStage)
	if *skip.Value.Static != 12 {
		t.Errorf("expected sum(5,7)=12, got %d", *skip.Value.Static)
	}
}

func TestOptimize_RemovesRedundantEarlierSort(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.SortStage{Items: []types.SortItem{{Path: types.FieldPath{Path: "a"}, Order: types.Ascending}}},
			types.SortStage{Items: []types.SortItem{{Path: types.FieldPath{Path: "b"}, Order: types.Descending}}},
		},
	}
	Optimize(p)
	if len(p.Stages) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(p.Stages))
	}
	sort := p.Stages[0].(types.SortStage)
	if sort.Items[0].Path.Path != "b" {
		t.Errorf("expected the later sort to survive, got %#v", sort.Items)
	}
}

func TestOptimize_PushesMatchBeforeProjectWhenFieldSurvives(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.ProjectStage{Fields: []types.ProjectField{{Name: "status", Include: true}}},
			types.MatchStage{Filter: eqField("status")},
		},
	}
	Optimize(p)
	if _, ok := p.Stages[0].(types.MatchStage); !ok {
		t.Fatalf("expected $match to be pushed before $project, got %#v", p.Stages)
	}
	if _, ok := p.Stages[1].(types.ProjectStage); !ok {
		t.Fatalf("expected $project after pushed match, got %#v", p.Stages)
	}
}

func TestOptimize_DoesNotPushMatchPastDroppingProject(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.ProjectStage{Fields: []types.ProjectField{{Name: "region", Include: true}}},
			types.MatchStage{Filter: eqField("status")},
		},
	}
	Optimize(p)
	if _, ok := p.Stages[0].(types.ProjectStage); !ok {
		t.Fatalf("expected $project to remain first since 'status' is dropped, got %#v", p.Stages)
	}
}

func TestOptimize_PushesMatchBeforeLimit(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.LimitStage{Value: types.PaginationValue{Static: intP(10)}},
			types.MatchStage{Filter: eqField("status")},
		},
	}
	Optimize(p)
	if _, ok := p.Stages[0].(types.MatchStage); !ok {
		t.Fatalf("expected $match before $limit, got %#v", p.Stages)
	}
}

func TestOptimize_FusesSortAndLimit(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.SortStage{Items: []types.SortItem{{Path: types.FieldPath{Path: "a"}, Order: types.Ascending}}},
			types.SkipStage{Value: types.PaginationValue{Static: intP(5)}},
			types.LimitStage{Value: types.PaginationValue{Static: intP(10)}},
		},
	}
	Optimize(p)
	sort, ok := p.Stages[0].(types.SortStage)
	if !ok {
		t.Fatalf("expected first stage to remain a $sort, got %#v", p.Stages[0])
	}
	if sort.LimitHint == nil || *sort.LimitHint != 15 {
		t.Fatalf("expected LimitHint 15 (5+10), got %#v", sort.LimitHint)
	}
	if len(p.Stages) != 3 {
		t.Fatalf("expected $skip/$limit to remain in place, got %d stages", len(p.Stages))
	}
}

func TestOptimize_NoChangeOnAlreadyOptimalPipeline(t *testing.T) {
	p := &types.Pipeline{
		Collection: "orders",
		Stages: []types.Stage{
			types.MatchStage{Filter: eqField("status")},
			types.LimitStage{Value: types.PaginationValue{Static: intP(10)}},
		},
	}
	Optimize(p)
	before := len(p.Stages)
	Optimize(p)
	if len(p.Stages) != before {
		t.Fatalf("expected idempotent optimization, stage count changed from %d to %d", before, len(p.Stages))
	}
}
