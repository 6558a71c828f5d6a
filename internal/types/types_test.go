package types

import "testing"

func TestPipeline_Validate_RequiresCollection(t *testing.T) {
	p := &Pipeline{Stages: []Stage{LimitStage{Value: PaginationValue{Static: intPtr(1)}}}}
	if err := p.Validate(); err == nil {
		t.Error("expected error for missing collection")
	}
}

func TestPipeline_Validate_RequiresStages(t *testing.T) {
	p := &Pipeline{Collection: "orders"}
	if err := p.Validate(); err == nil {
		t.Error("expected error for empty pipeline")
	}
}

func TestPipeline_Validate_OutMustBeLast(t *testing.T) {
	p := &Pipeline{
		Collection: "orders",
		Stages: []Stage{
			OutStage{Collection: "archive"},
			LimitStage{Value: PaginationValue{Static: intPtr(1)}},
		},
	}
	if err := p.Validate(); err == nil {
		t.Error("expected error for $out not in final position")
	}
}

func TestPipeline_Validate_OutLastIsFine(t *testing.T) {
	p := &Pipeline{
		Collection: "orders",
		Stages: []Stage{
			LimitStage{Value: PaginationValue{Static: intPtr(1)}},
			OutStage{Collection: "archive"},
		},
	}
	if err := p.Validate(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestPipeline_Validate_StageCountLimit(t *testing.T) {
	stages := make([]Stage, MaxPipelineStages+1)
	for i := range stages {
		stages[i] = LimitStage{Value: PaginationValue{Static: intPtr(1)}}
	}
	p := &Pipeline{Collection: "orders", Stages: stages}
	if err := p.Validate(); err == nil {
		t.Error("expected error for exceeding MaxPipelineStages")
	}
}

func TestStageName(t *testing.T) {
	tests := []struct {
		stage    Stage
		expected string
	}{
		{MatchStage{}, "$match"},
		{ProjectStage{}, "$project"},
		{GroupStage{}, "$group"},
		{SortStage{}, "$sort"},
		{SkipStage{}, "$skip"},
		{LimitStage{}, "$limit"},
		{SampleStage{}, "$sample"},
		{LookupStage{}, "$lookup"},
		{UnwindStage{}, "$unwind"},
		{AddFieldsStage{}, "$addFields"},
		{ReplaceRootStage{}, "$replaceRoot"},
		{UnionWithStage{}, "$unionWith"},
		{OutStage{}, "$out"},
		{BucketStage{}, "$bucket"},
		{BucketAutoStage{}, "$bucketAuto"},
		{FacetStage{}, "$facet"},
		{GraphLookupStage{}, "$graphLookup"},
		{SetWindowFieldsStage{}, "$setWindowFields"},
		{RedactStage{}, "$redact"},
		{CountStage{}, "$count"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.stage.StageName(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestExpression_Implementations(t *testing.T) {
	var exprs = []Expression{
		LiteralExpr{},
		FieldPathExpr{},
		ComparisonExpr{},
		LogicalExpr{},
		ArithmeticExpr{},
		StringExpr{},
		DateExpr{},
		ArrayExpr{},
		ConditionalExpr{},
		TypeConversionExpr{},
		ObjectExpr{},
		ExistsExpr{},
		InExpr{},
		CompoundIDExpr{},
		LookupSizeExpr{},
		LiteralArrayExpr{},
		VariableExpr{},
	}
	if len(exprs) != 17 {
		t.Fatalf("expected 17 expression variants, got %d", len(exprs))
	}
}

func TestCapability_Merge(t *testing.T) {
	tests := []struct {
		a, b     Capability
		expected Capability
	}{
		{FullSupport, FullSupport, FullSupport},
		{FullSupport, Emulated, Emulated},
		{Emulated, Partial, Partial},
		{Partial, ClientSideOnly, ClientSideOnly},
		{ClientSideOnly, Unsupported, Unsupported},
		{Unsupported, FullSupport, Unsupported},
	}
	for _, tt := range tests {
		if got := tt.a.Merge(tt.b); got != tt.expected {
			t.Errorf("Merge(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestRenderResult_Combine(t *testing.T) {
	r1 := RenderResult{Capability: FullSupport, Warnings: []Warning{{Code: WarnAddToSetEmulated}}}
	r2 := RenderResult{Capability: Partial, Warnings: []Warning{{Code: WarnRedactClientSideOnly}}}

	combined := r1.Combine(r2)
	if combined.Capability != Partial {
		t.Errorf("expected Partial, got %s", combined.Capability)
	}
	if len(combined.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %d", len(combined.Warnings))
	}
}

func TestExpressionDepth(t *testing.T) {
	flat := FieldPathExpr{Path: FieldPath{Path: "status"}}
	if d := ExpressionDepth(flat); d != 1 {
		t.Errorf("expected depth 1, got %d", d)
	}

	nested := LogicalExpr{
		Op: LogicAnd,
		Operands: []Expression{
			ComparisonExpr{Op: CmpEQ, Left: flat, Right: LiteralExpr{}},
		},
	}
	if d := ExpressionDepth(nested); d != 3 {
		t.Errorf("expected depth 3, got %d", d)
	}
}

func TestFieldPath_RootAndNested(t *testing.T) {
	nested := FieldPath{Path: "address.city"}
	if !nested.IsNested() {
		t.Error("expected address.city to be nested")
	}
	if nested.Root() != "address" {
		t.Errorf("expected root 'address', got %q", nested.Root())
	}

	flat := FieldPath{Path: "status"}
	if flat.IsNested() {
		t.Error("expected status to not be nested")
	}
	if flat.Root() != "status" {
		t.Errorf("expected root 'status', got %q", flat.Root())
	}
}

func TestAccumulatorAllowed(t *testing.T) {
	if !AccumulatorAllowed(AccSum) {
		t.Error("expected $sum to be allowed")
	}
	if AccumulatorAllowed(AccumulatorOp("$bogus")) {
		t.Error("expected unknown accumulator to be rejected")
	}
}

func TestRequiresExpr(t *testing.T) {
	if RequiresExpr(AccCount) {
		t.Error("expected $count to not require an expression")
	}
	if !RequiresExpr(AccSum) {
		t.Error("expected $sum to require an expression")
	}
}

func intPtr(i int) *int { return &i }
