package types

// Stage is the closed set of aggregation pipeline stages the parser can
// produce. Same closed-sum-type idiom as Expression: an interface plus a
// marker method per struct, mirroring zoobzio-docql/internal/types/
// aggregate.go's PipelineStage.
type Stage interface {
	isStage()
	StageName() string
}

// MatchStage represents $match. Filter holds the same Expression tree
// every other boolean context uses — there is no separate FilterItem sum
// type, because Mongo's query-style match syntax desugars to Comparison/
// Logical/Exists/In expressions during parsing.
type MatchStage struct {
	Filter Expression
}

func (MatchStage) isStage()         {}
func (MatchStage) StageName() string { return "$match" }

// ProjectStage represents $project.
type ProjectStage struct {
	Fields []ProjectField
}

func (ProjectStage) isStage()         {}
func (ProjectStage) StageName() string { return "$project" }

// GroupStage represents $group.
type GroupStage struct {
	ID           Expression
	Accumulators []NamedAccumulator
}

func (GroupStage) isStage()         {}
func (GroupStage) StageName() string { return "$group" }

// NamedAccumulator pairs an output field name with its accumulator,
// preserving declaration order for deterministic SELECT-list rendering.
type NamedAccumulator struct {
	Name string
	Acc  Accumulator
}

// SortStage represents $sort.
type SortStage struct {
	Items []SortItem
	// LimitHint is set by the optimizer's Sort+Limit fusion pass
	// (spec.md §4.7) to the total row count a following $skip+$limit
	// pair demands, letting the composer emit an inline top-N pattern
	// instead of a wrapping subquery. Nil means no fusion applies.
	LimitHint *int
}

func (SortStage) isStage()         {}
func (SortStage) StageName() string { return "$sort" }

// SkipStage represents $skip.
type SkipStage struct {
	Value PaginationValue
}

func (SkipStage) isStage()         {}
func (SkipStage) StageName() string { return "$skip" }

// LimitStage represents $limit.
type LimitStage struct {
	Value PaginationValue
}

func (LimitStage) isStage()         {}
func (LimitStage) StageName() string { return "$limit" }

// SampleStage represents $sample.
type SampleStage struct {
	Size int
}

func (SampleStage) isStage()         {}
func (SampleStage) StageName() string { return "$sample" }

// LookupStage represents $lookup, including the pipeline-style form
// (Let + Pipeline) and the simple equality-join form (LocalField +
// ForeignField).
type LookupStage struct {
	From         string
	LocalField   FieldPath
	ForeignField FieldPath
	Let          []NamedExpression
	Pipeline     []Stage
	As           string
}

func (LookupStage) isStage()         {}
func (LookupStage) StageName() string { return "$lookup" }

// NamedExpression pairs a binding name with an expression, used for
// $lookup.let bindings and $addFields fields.
type NamedExpression struct {
	Name string
	Expr Expression
}

// UnwindStage represents $unwind.
type UnwindStage struct {
	Path                       FieldPath
	IncludeArrayIndex          string
	PreserveNullAndEmptyArrays bool
}

func (UnwindStage) isStage()         {}
func (UnwindStage) StageName() string { return "$unwind" }

// AddFieldsStage represents $addFields (and its $set alias).
type AddFieldsStage struct {
	Fields []NamedExpression
}

func (AddFieldsStage) isStage()         {}
func (AddFieldsStage) StageName() string { return "$addFields" }

// ReplaceRootStage represents $replaceRoot (and its $replaceWith alias).
type ReplaceRootStage struct {
	NewRoot Expression
}

func (ReplaceRootStage) isStage()         {}
func (ReplaceRootStage) StageName() string { return "$replaceRoot" }

// UnionWithStage represents $unionWith.
type UnionWithStage struct {
	Collection string
	Pipeline   []Stage
}

func (UnionWithStage) isStage()         {}
func (UnionWithStage) StageName() string { return "$unionWith" }

// OutStage represents $out.
type OutStage struct {
	Collection string
	Schema     string
}

func (OutStage) isStage()         {}
func (OutStage) StageName() string { return "$out" }

// BucketStage represents $bucket.
type BucketStage struct {
	GroupBy      Expression
	Boundaries   []Literal
	DefaultKey   *Literal
	HasDefault   bool
	Output       []NamedAccumulator
}

func (BucketStage) isStage()         {}
func (BucketStage) StageName() string { return "$bucket" }

// BucketAutoStage represents $bucketAuto.
type BucketAutoStage struct {
	GroupBy    Expression
	Buckets    int
	Output     []NamedAccumulator
	Granularity string
}

func (BucketAutoStage) isStage()         {}
func (BucketAutoStage) StageName() string { return "$bucketAuto" }

// FacetStage represents $facet.
type FacetStage struct {
	Facets []NamedFacet
}

func (FacetStage) isStage()         {}
func (FacetStage) StageName() string { return "$facet" }

// NamedFacet is one named sub-pipeline branch of a $facet stage.
type NamedFacet struct {
	Name     string
	Pipeline []Stage
}

// GraphLookupStage represents $graphLookup.
type GraphLookupStage struct {
	From             string
	StartWith        Expression
	ConnectFromField FieldPath
	ConnectToField   FieldPath
	As               string
	MaxDepth         *int
	DepthField       string
	RestrictSearch   Expression // restrictSearchWithMatch, nil if absent
}

func (GraphLookupStage) isStage()         {}
func (GraphLookupStage) StageName() string { return "$graphLookup" }

// SetWindowFieldsStage represents $setWindowFields.
type SetWindowFieldsStage struct {
	PartitionBy Expression
	SortBy      []SortItem
	Output      []WindowOutput
}

func (SetWindowFieldsStage) isStage()         {}
func (SetWindowFieldsStage) StageName() string { return "$setWindowFields" }

// WindowOutput is one named windowed accumulator and its frame bounds.
type WindowOutput struct {
	Name   string
	Acc    Accumulator
	Lower  *int // nil means "unbounded"
	Upper  *int
	Docs   bool // true: document-based window; false: range-based
}

// RedactStage represents $redact.
type RedactStage struct {
	Expr Expression // evaluates to $$DESCEND, $$PRUNE, or $$KEEP
}

func (RedactStage) isStage()         {}
func (RedactStage) StageName() string { return "$redact" }

// CountStage represents the supplemented $count stage (see SPEC_FULL.md
// §3): desugars during composition to a COUNT(*) aggregate.
type CountStage struct {
	FieldName string
}

func (CountStage) isStage()         {}
func (CountStage) StageName() string { return "$count" }
