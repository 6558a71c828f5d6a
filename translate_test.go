package bridge

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func rawPipeline(t *testing.T, stages ...bson.D) []bson.Raw {
	t.Helper()
	raw := make([]bson.Raw, len(stages))
	for i, s := range stages {
		b, err := bson.Marshal(s)
		if err != nil {
			t.Fatalf("marshaling stage %d: %v", i, err)
		}
		raw[i] = bson.Raw(b)
	}
	return raw
}

func TestTranslate_SimpleLimit(t *testing.T) {
	pipeline := rawPipeline(t, bson.D{{Key: "$limit", Value: int32(10)}})
	result, err := Translate(pipeline, Configuration{CollectionName: "orders"}, Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(result.SQL, "FETCH FIRST 10 ROWS ONLY") {
		t.Errorf("expected FETCH FIRST 10 ROWS ONLY, got: %s", result.SQL)
	}
	if result.Capability != FullSupport {
		t.Errorf("expected FULL_SUPPORT, got %s", result.Capability)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestTranslate_QualifiedTableName(t *testing.T) {
	pipeline := rawPipeline(t, bson.D{{Key: "$limit", Value: int32(1)}})
	result, err := Translate(pipeline, Configuration{CollectionName: "orders", SchemaName: "app"}, Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(result.SQL, "FROM app.orders") {
		t.Errorf("expected schema-qualified FROM clause, got: %s", result.SQL)
	}
}

func TestTranslate_MatchAndSort(t *testing.T) {
	pipeline := rawPipeline(t,
		bson.D{{Key: "$match", Value: bson.D{{Key: "status", Value: "shipped"}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "amount", Value: int32(-1)}}}},
	)
	result, err := Translate(pipeline, Configuration{CollectionName: "orders"}, Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(result.SQL, "WHERE JSON_VALUE(data, '$.status') = :1") {
		t.Errorf("expected a bound WHERE clause, got: %s", result.SQL)
	}
	if !strings.Contains(result.SQL, "ORDER BY JSON_VALUE(data, '$.amount') DESC") {
		t.Errorf("expected ORDER BY DESC, got: %s", result.SQL)
	}
	if len(result.Binds) != 1 || result.Binds[0] != "shipped" {
		t.Errorf("expected one bind \"shipped\", got %v", result.Binds)
	}
}

func TestTranslate_GroupWithSum(t *testing.T) {
	pipeline := rawPipeline(t, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$customerId"},
		{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
	}}})
	result, err := Translate(pipeline, Configuration{CollectionName: "orders"}, Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(result.SQL, "SUM(JSON_VALUE(data, '$.amount' RETURNING NUMBER)) AS total") {
		t.Errorf("expected a SUM accumulator column with RETURNING NUMBER, got: %s", result.SQL)
	}
}

func TestTranslate_SortByCount(t *testing.T) {
	pipeline := rawPipeline(t, bson.D{{Key: "$sortByCount", Value: "$status"}})
	result, err := Translate(pipeline, Configuration{CollectionName: "orders"}, Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(result.SQL, "ORDER BY count DESC") {
		t.Errorf("expected ORDER BY count DESC, got: %s", result.SQL)
	}
}

func TestTranslate_Count(t *testing.T) {
	pipeline := rawPipeline(t, bson.D{{Key: "$count", Value: "total"}})
	result, err := Translate(pipeline, Configuration{CollectionName: "orders"}, Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(result.SQL, "COUNT(*) AS total") {
		t.Errorf("expected COUNT(*) AS total, got: %s", result.SQL)
	}
}

func TestTranslate_InlineBindVariables(t *testing.T) {
	pipeline := rawPipeline(t, bson.D{{Key: "$match", Value: bson.D{{Key: "status", Value: "shipped"}}}})
	result, err := Translate(pipeline, Configuration{CollectionName: "orders"}, Options{InlineBindVariables: true})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(result.SQL, "= 'shipped'") {
		t.Errorf("expected an inline literal, got: %s", result.SQL)
	}
	if len(result.Binds) != 0 {
		t.Errorf("expected no binds in inline mode, got %v", result.Binds)
	}
}

func TestTranslate_MissingCollectionNameIsInvalidInput(t *testing.T) {
	pipeline := rawPipeline(t, bson.D{{Key: "$limit", Value: int32(1)}})
	_, err := Translate(pipeline, Configuration{}, Options{})
	if err == nil {
		t.Fatal("expected an error for a missing CollectionName")
	}
	terr, ok := err.(*TranslationError)
	if !ok {
		t.Fatalf("expected *TranslationError, got %T", err)
	}
	if terr.Kind != InvalidInput {
		t.Errorf("expected InvalidInput, got %s", terr.Kind)
	}
}

func TestTranslate_EmptyPipelineIsInvalidInput(t *testing.T) {
	_, err := Translate(nil, Configuration{CollectionName: "orders"}, Options{})
	if err == nil {
		t.Fatal("expected an error for an empty pipeline")
	}
}

func TestTranslate_UnknownOperatorNonStrictIsDropped(t *testing.T) {
	pipeline := rawPipeline(t,
		bson.D{{Key: "$bogusStage", Value: bson.D{}}},
		bson.D{{Key: "$limit", Value: int32(1)}},
	)
	result, err := Translate(pipeline, Configuration{CollectionName: "orders"}, Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(result.SQL, "FETCH FIRST 1 ROWS ONLY") {
		t.Errorf("expected the remaining $limit stage to still render, got: %s", result.SQL)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Code == WarnUnknownOperatorDropped {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a WarnUnknownOperatorDropped warning, got: %v", result.Warnings)
	}
}

func TestTranslate_UnknownOperatorStrictModeFails(t *testing.T) {
	pipeline := rawPipeline(t, bson.D{{Key: "$bogusStage", Value: bson.D{}}})
	_, err := Translate(pipeline, Configuration{CollectionName: "orders"}, Options{StrictMode: true})
	if err == nil {
		t.Fatal("expected an error for an unknown operator under StrictMode")
	}
}

func TestTranslate_RedactStrictModeFails(t *testing.T) {
	pipeline := rawPipeline(t, bson.D{{Key: "$redact", Value: bson.D{
		{Key: "$cond", Value: bson.D{
			{Key: "if", Value: bson.D{{Key: "$eq", Value: bson.A{1, 1}}}},
			{Key: "then", Value: "$$KEEP"},
			{Key: "else", Value: "$$PRUNE"},
		}},
	}}})
	_, err := Translate(pipeline, Configuration{CollectionName: "orders"}, Options{StrictMode: true})
	if err == nil {
		t.Fatal("expected StrictMode to reject a client-side-only $redact")
	}
}

func TestTranslate_RedactNonStrictModeWarns(t *testing.T) {
	pipeline := rawPipeline(t, bson.D{{Key: "$redact", Value: bson.D{
		{Key: "$cond", Value: bson.D{
			{Key: "if", Value: bson.D{{Key: "$eq", Value: bson.A{1, 1}}}},
			{Key: "then", Value: "$$KEEP"},
			{Key: "else", Value: "$$PRUNE"},
		}},
	}}})
	result, err := Translate(pipeline, Configuration{CollectionName: "orders"}, Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.Capability != ClientSideOnly {
		t.Errorf("expected CLIENT_SIDE_ONLY, got %s", result.Capability)
	}
}
