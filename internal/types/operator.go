package types

// ComparisonOp represents a binary comparison operator usable inside
// $match filters and $expr-style boolean expressions.
type ComparisonOp string

// Comparison operators.
const (
	CmpEQ  ComparisonOp = "$eq"
	CmpNE  ComparisonOp = "$ne"
	CmpGT  ComparisonOp = "$gt"
	CmpGTE ComparisonOp = "$gte"
	CmpLT  ComparisonOp = "$lt"
	CmpLTE ComparisonOp = "$lte"
)

// LogicalOp represents a logical connective.
type LogicalOp string

// Logical operators.
const (
	LogicAnd LogicalOp = "$and"
	LogicOr  LogicalOp = "$or"
	LogicNor LogicalOp = "$nor"
	LogicNot LogicalOp = "$not"
)

// ArithmeticOp represents a binary or variadic arithmetic operator.
type ArithmeticOp string

// Arithmetic operators.
const (
	ArithAdd      ArithmeticOp = "$add"
	ArithSubtract ArithmeticOp = "$subtract"
	ArithMultiply ArithmeticOp = "$multiply"
	ArithDivide   ArithmeticOp = "$divide"
	ArithMod      ArithmeticOp = "$mod"
)

// StringOp represents a string-expression operator.
type StringOp string

// String operators.
const (
	StrConcat  StringOp = "$concat"
	StrToLower StringOp = "$toLower"
	StrToUpper StringOp = "$toUpper"
	StrSubstr  StringOp = "$substrCP"
	StrTrim    StringOp = "$trim"
	StrStrLen  StringOp = "$strLenCP"
	StrSplit   StringOp = "$split"
)

// DateOp represents a date-extraction operator.
type DateOp string

// Date operators.
const (
	DateYear       DateOp = "$year"
	DateMonth      DateOp = "$month"
	DateDayOfMonth DateOp = "$dayOfMonth"
	DateHour       DateOp = "$hour"
	DateMinute     DateOp = "$minute"
	DateSecond     DateOp = "$second"
	DateDayOfWeek  DateOp = "$dayOfWeek"
	DateDayOfYear  DateOp = "$dayOfYear"
)

// ArrayOp represents an array-expression operator.
type ArrayOp string

// Array operators.
const (
	ArrElemAt ArrayOp = "$arrayElemAt"
	ArrSize   ArrayOp = "$size"
	ArrFirst  ArrayOp = "$first"
	ArrLast   ArrayOp = "$last"
	ArrSlice  ArrayOp = "$slice"
	ArrConcat ArrayOp = "$concatArrays"
	ArrIn     ArrayOp = "$in"
	ArrFilter ArrayOp = "$filter"
	ArrMap    ArrayOp = "$map"
	ArrReduce ArrayOp = "$reduce"
)

// AccumulatorOp represents a $group/$bucket/$setWindowFields accumulator.
type AccumulatorOp string

// Accumulator operators.
const (
	AccSum      AccumulatorOp = "$sum"
	AccAvg      AccumulatorOp = "$avg"
	AccMin      AccumulatorOp = "$min"
	AccMax      AccumulatorOp = "$max"
	AccCount    AccumulatorOp = "$count"
	AccFirst    AccumulatorOp = "$first"
	AccLast     AccumulatorOp = "$last"
	AccPush     AccumulatorOp = "$push"
	AccAddToSet AccumulatorOp = "$addToSet"
)

// ConditionalKind distinguishes the two conditional expression shapes.
type ConditionalKind string

// Conditional kinds.
const (
	CondCond   ConditionalKind = "$cond"
	CondIfNull ConditionalKind = "$ifNull"
)

// TypeConversionOp represents a $convert-family operator.
type TypeConversionOp string

// Type conversion operators.
const (
	ConvToInt      TypeConversionOp = "$toInt"
	ConvToLong     TypeConversionOp = "$toLong"
	ConvToDouble   TypeConversionOp = "$toDouble"
	ConvToDecimal  TypeConversionOp = "$toDecimal"
	ConvToString   TypeConversionOp = "$toString"
	ConvToBool     TypeConversionOp = "$toBool"
	ConvToDate     TypeConversionOp = "$toDate"
	ConvToObjectID TypeConversionOp = "$toObjectId"
	ConvType       TypeConversionOp = "$type"
	ConvIsNumber   TypeConversionOp = "$isNumber"
	ConvIsString   TypeConversionOp = "$isString"
	ConvConvert    TypeConversionOp = "$convert"
)

// ObjectOp represents a document-shaping operator.
type ObjectOp string

// Object operators.
const (
	ObjMergeObjects  ObjectOp = "$mergeObjects"
	ObjObjectToArray ObjectOp = "$objectToArray"
	ObjArrayToObject ObjectOp = "$arrayToObject"
)

// MembershipOp distinguishes $in from $nin when used as a standalone
// filter predicate rather than a comparison.
type MembershipOp string

// Membership operators.
const (
	MemberIn    MembershipOp = "$in"
	MemberNotIn MembershipOp = "$nin"
)

// ReturnType hints the JSON scalar type a rendered path expression should
// be read back as (drives JSON_VALUE's RETURNING clause).
type ReturnType string

// Return type hints.
const (
	ReturnNone   ReturnType = ""
	ReturnNumber ReturnType = "NUMBER"
	ReturnString ReturnType = "VARCHAR2"
	ReturnBool   ReturnType = "NUMBER" // Oracle has no native boolean scalar.
)

// Complexity limits. Named and grouped the way the teacher bounds
// adversarial input (zoobzio-docql/internal/types/operator.go), extended
// with the AST-depth and pipeline-depth bounds astql's sibling package
// carries for recursive structures.
const (
	MaxFieldPathLength  = 128
	MaxTableNameLength  = 128
	MaxPipelineStages   = 200
	MaxPipelineDepth    = 32
	MaxExpressionDepth  = 64
	MaxGraphLookupDepth = 100
	MaxSortFields       = 32
	MaxProjectFields    = 256
	MaxFacetBranches    = 64
	MaxBucketBoundaries = 1000
)
