package parser

import (
	"testing"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func marshalStages(t *testing.T, stages []bson.D) []bson.Raw {
	t.Helper()
	raw := make([]bson.Raw, len(stages))
	for i, s := range stages {
		b, err := bson.Marshal(s)
		if err != nil {
			t.Fatalf("marshal stage %d: %v", i, err)
		}
		raw[i] = b
	}
	return raw
}

func TestParse_SimpleLimit(t *testing.T) {
	raw := marshalStages(t, []bson.D{{{Key: "$limit", Value: int32(10)}}})
	p, err := Parse(raw, "orders", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Stages) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(p.Stages))
	}
	limit, ok := p.Stages[0].(types.LimitStage)
	if !ok {
		t.Fatalf("expected LimitStage, got %T", p.Stages[0])
	}
	if *limit.Value.Static != 10 {
		t.Errorf("expected limit 10, got %d", *limit.Value.Static)
	}
}

func TestParse_SkipAndLimit(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$skip", Value: int32(20)}},
		{{Key: "$limit", Value: int32(10)}},
	})
	p, err := Parse(raw, "orders", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(p.Stages))
	}
}

func TestParse_MatchWithEquality(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: "active"}}}},
	})
	p, err := Parse(raw, "orders", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	match, ok := p.Stages[0].(types.MatchStage)
	if !ok {
		t.Fatalf("expected MatchStage, got %T", p.Stages[0])
	}
	cmp, ok := match.Filter.(types.ComparisonExpr)
	if !ok {
		t.Fatalf("expected ComparisonExpr, got %T", match.Filter)
	}
	if cmp.Op != types.CmpEQ {
		t.Errorf("expected CmpEQ, got %s", cmp.Op)
	}
	field, ok := cmp.Left.(types.FieldPathExpr)
	if !ok || field.Path.Path != "status" {
		t.Errorf("expected field path 'status', got %#v", cmp.Left)
	}
}

func TestParse_GroupWithSum(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
	})
	p, err := Parse(raw, "orders", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	group, ok := p.Stages[0].(types.GroupStage)
	if !ok {
		t.Fatalf("expected GroupStage, got %T", p.Stages[0])
	}
	if _, ok := group.ID.(types.FieldPathExpr); !ok {
		t.Errorf("expected FieldPathExpr _id, got %T", group.ID)
	}
	if len(group.Accumulators) != 1 || group.Accumulators[0].Name != "total" {
		t.Fatalf("expected one accumulator named total, got %#v", group.Accumulators)
	}
	if group.Accumulators[0].Acc.Op != types.AccSum {
		t.Errorf("expected $sum, got %s", group.Accumulators[0].Acc.Op)
	}
}

func TestParse_LookupWithSize(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "items"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "orderId"},
			{Key: "as", Value: "lines"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "n", Value: bson.D{{Key: "$size", Value: "$lines"}}},
		}}},
	})
	p, err := Parse(raw, "orders", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lookup, ok := p.Stages[0].(types.LookupStage)
	if !ok {
		t.Fatalf("expected LookupStage, got %T", p.Stages[0])
	}
	if lookup.From != "items" || lookup.As != "lines" {
		t.Errorf("unexpected lookup fields: %#v", lookup)
	}
	project, ok := p.Stages[1].(types.ProjectStage)
	if !ok {
		t.Fatalf("expected ProjectStage, got %T", p.Stages[1])
	}
	arrExpr, ok := project.Fields[0].Expr.(types.ArrayExpr)
	if !ok || arrExpr.Op != types.ArrSize {
		t.Fatalf("expected $size ArrayExpr, got %#v", project.Fields[0].Expr)
	}
}

func TestParse_SortByCountDesugars(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$sortByCount", Value: "$status"}},
	})
	p, err := Parse(raw, "orders", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Stages) != 2 {
		t.Fatalf("expected 2 desugared stages, got %d", len(p.Stages))
	}
	if _, ok := p.Stages[0].(types.GroupStage); !ok {
		t.Errorf("expected first desugared stage to be GroupStage, got %T", p.Stages[0])
	}
	if _, ok := p.Stages[1].(types.SortStage); !ok {
		t.Errorf("expected second desugared stage to be SortStage, got %T", p.Stages[1])
	}
}

func TestParse_UnknownOperator_StrictModeFails(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$bogusStage", Value: int32(1)}},
	})
	_, err := Parse(raw, "orders", Options{StrictMode: true})
	if err == nil {
		t.Fatal("expected error in strict mode for unknown operator")
	}
}

func TestParse_UnknownOperator_NonStrictDropsStage(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$bogusStage", Value: int32(1)}},
		{{Key: "$limit", Value: int32(5)}},
	})
	p, err := Parse(raw, "orders", Options{StrictMode: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Stages) != 1 {
		t.Fatalf("expected unknown stage to be dropped, got %d stages", len(p.Stages))
	}
}

func TestParse_InvalidCollectionName(t *testing.T) {
	raw := marshalStages(t, []bson.D{{{Key: "$limit", Value: int32(1)}}})
	_, err := Parse(raw, "orders; drop table x", Options{})
	if err == nil {
		t.Fatal("expected error for invalid collection name")
	}
}

func TestParse_EmptyPipelineFails(t *testing.T) {
	_, err := Parse(nil, "orders", Options{})
	if err == nil {
		t.Fatal("expected error for empty pipeline")
	}
}

func TestParse_MatchWithLogicalOr(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$match", Value: bson.D{
			{Key: "$or", Value: bson.A{
				bson.D{{Key: "status", Value: "active"}},
				bson.D{{Key: "status", Value: "pending"}},
			}},
		}}},
	})
	p, err := Parse(raw, "orders", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	match := p.Stages[0].(types.MatchStage)
	logic, ok := match.Filter.(types.LogicalExpr)
	if !ok || logic.Op != types.LogicOr {
		t.Fatalf("expected top-level $or, got %#v", match.Filter)
	}
	if len(logic.Operands) != 2 {
		t.Errorf("expected 2 operands, got %d", len(logic.Operands))
	}
}

func TestParse_MatchWithComparisonOperator(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$match", Value: bson.D{
			{Key: "amount", Value: bson.D{{Key: "$gt", Value: int32(100)}}},
		}}},
	})
	p, err := Parse(raw, "orders", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	match := p.Stages[0].(types.MatchStage)
	cmp, ok := match.Filter.(types.ComparisonExpr)
	if !ok || cmp.Op != types.CmpGT {
		t.Fatalf("expected $gt comparison, got %#v", match.Filter)
	}
}

func TestParse_MatchExists(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$match", Value: bson.D{
			{Key: "shippedAt", Value: bson.D{{Key: "$exists", Value: true}}},
		}}},
	})
	p, err := Parse(raw, "orders", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	match := p.Stages[0].(types.MatchStage)
	exists, ok := match.Filter.(types.ExistsExpr)
	if !ok || !exists.Exists {
		t.Fatalf("expected ExistsExpr{Exists:true}, got %#v", match.Filter)
	}
}

func TestParse_OutMustBeLastIsRejectedAtValidate(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$out", Value: "archive"}},
		{{Key: "$limit", Value: int32(1)}},
	})
	_, err := Parse(raw, "orders", Options{})
	if err == nil {
		t.Fatal("expected error for $out not in final position")
	}
}

func TestParse_GraphLookupWithRestrict(t *testing.T) {
	raw := marshalStages(t, []bson.D{
		{{Key: "$graphLookup", Value: bson.D{
			{Key: "from", Value: "employees"},
			{Key: "startWith", Value: "$reportsTo"},
			{Key: "connectFromField", Value: "reportsTo"},
			{Key: "connectToField", Value: "_id"},
			{Key: "as", Value: "reportChain"},
			{Key: "restrictSearchWithMatch", Value: bson.D{{Key: "active", Value: true}}},
		}}},
	})
	p, err := Parse(raw, "employees", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gl, ok := p.Stages[0].(types.GraphLookupStage)
	if !ok {
		t.Fatalf("expected GraphLookupStage, got %T", p.Stages[0])
	}
	if gl.RestrictSearch == nil {
		t.Error("expected RestrictSearch to be parsed")
	}
}
