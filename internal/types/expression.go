package types

// Expression is the closed set of aggregation expression shapes the
// parser can produce and the renderer must know how to render. Adding a
// variant means adding a case everywhere isExpression() is exhaustively
// switched on, the same closed-sum-type idiom the teacher uses for its
// own Expression interface (zoobzio-docql/internal/types/aggregate.go).
type Expression interface {
	isExpression()
}

// LiteralExpr wraps a constant value.
type LiteralExpr struct {
	Value Literal
}

func (LiteralExpr) isExpression() {}

// FieldPathExpr references a document field ("$status", "$address.city").
type FieldPathExpr struct {
	Path FieldPath
	// Return hints the JSON scalar JSON_VALUE should coerce to; ReturnNone
	// lets the composer infer it from surrounding context.
	Return ReturnType
}

func (FieldPathExpr) isExpression() {}

// ComparisonExpr represents a binary comparison ($eq, $gt, ...).
type ComparisonExpr struct {
	Op    ComparisonOp
	Left  Expression
	Right Expression
}

func (ComparisonExpr) isExpression() {}

// LogicalExpr represents $and/$or/$nor/$not over one or more operands.
type LogicalExpr struct {
	Op       LogicalOp
	Operands []Expression
}

func (LogicalExpr) isExpression() {}

// ArithmeticExpr represents a variadic arithmetic operator.
type ArithmeticExpr struct {
	Op       ArithmeticOp
	Operands []Expression
}

func (ArithmeticExpr) isExpression() {}

// StringExpr represents a string-manipulation operator.
type StringExpr struct {
	Op   StringOp
	Args []Expression
}

func (StringExpr) isExpression() {}

// DateExpr represents a date-field extraction operator.
type DateExpr struct {
	Op   DateOp
	Date Expression
}

func (DateExpr) isExpression() {}

// ArrayExpr represents an array operator.
type ArrayExpr struct {
	Op   ArrayOp
	Args []Expression
}

func (ArrayExpr) isExpression() {}

// Accumulator represents a $group/$bucket/$setWindowFields accumulator
// expression. It is not itself an Expression (it is only legal in an
// accumulator position) but shares the same recursive shape.
type Accumulator struct {
	Op   AccumulatorOp
	Expr Expression // nil for AccCount
}

// ConditionalExpr represents $cond or $ifNull.
type ConditionalExpr struct {
	Kind ConditionalKind
	If   Expression // $cond only
	Then Expression
	Else Expression
}

func (ConditionalExpr) isExpression() {}

// TypeConversionExpr represents a $convert-family operator.
type TypeConversionExpr struct {
	Op      TypeConversionOp
	Input   Expression
	OnError Expression // $convert only, may be nil
	OnNull  Expression // $convert only, may be nil
}

func (TypeConversionExpr) isExpression() {}

// ObjectExpr represents a document-shaping operator.
type ObjectExpr struct {
	Op   ObjectOp
	Args []Expression
}

func (ObjectExpr) isExpression() {}

// ExistsExpr represents a field-presence test, used both as a standalone
// boolean expression and as the renderer's translation target for the
// $match-level $exists operator.
type ExistsExpr struct {
	Path   FieldPath
	Exists bool
}

func (ExistsExpr) isExpression() {}

// InExpr represents array membership, $in or $nin.
type InExpr struct {
	Op     MembershipOp
	Needle Expression
	Array  Expression
}

func (InExpr) isExpression() {}

// CompoundIDExpr represents a $group._id built from multiple named
// sub-expressions, the BSON-document-valued grouping key form.
type CompoundIDExpr struct {
	// Fields preserves declaration order (bson.D semantics) because the
	// composer re-synthesizes a JSON object with this same key order.
	Fields []CompoundIDField
}

func (CompoundIDExpr) isExpression() {}

// CompoundIDField is one named component of a compound grouping key.
type CompoundIDField struct {
	Name string
	Expr Expression
}

// LookupSizeExpr counts the elements $lookup placed into its "as" array.
// The parser does not build it: {$size: "$joinedField"} in a
// $project/$addFields parses to an ArrayExpr.
type LookupSizeExpr struct {
	As FieldPath
}

func (LookupSizeExpr) isExpression() {}

// LiteralArrayExpr constructs an array from a list of expressions, as in
// {$filter: {input: [...], ...}} or an explicit literal array operand
// whose elements are themselves expressions rather than constants.
type LiteralArrayExpr struct {
	Elements []Expression
}

func (LiteralArrayExpr) isExpression() {}

// VariableExpr references a $let/$map/$filter bound variable ("$$this",
// "$$value") or a $lookup "let" binding used inside its sub-pipeline.
type VariableExpr struct {
	Name string
}

func (VariableExpr) isExpression() {}
