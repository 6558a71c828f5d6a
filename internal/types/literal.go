package types

// LiteralKind tags the Go type a Literal's Value field holds.
type LiteralKind string

// Literal kinds. Mirrors the BSON scalar types the parser can read out of
// a bson.RawValue (go.mongodb.org/mongo-driver/v2/bson).
const (
	LiteralNull     LiteralKind = "null"
	LiteralBool     LiteralKind = "bool"
	LiteralInt      LiteralKind = "int"
	LiteralLong     LiteralKind = "long"
	LiteralDouble   LiteralKind = "double"
	LiteralString   LiteralKind = "string"
	LiteralDate     LiteralKind = "date"
	LiteralObjectID LiteralKind = "objectId"
	LiteralArray    LiteralKind = "array"
)

// Literal is a constant value carried by the AST. Array literals are used
// as the right-hand side of $in/$nin and for literal array construction;
// Elements is nil for every other kind.
type Literal struct {
	Kind     LiteralKind
	Value    any
	Elements []Literal
}
