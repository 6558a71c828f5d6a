// Package oraclesql renders a types.Pipeline into parameterized Oracle
// SQL. It plays the role docql's pkg/mongodb and pkg/couchdb packages
// play for their respective backends: one renderer package behind a
// capability-flagged Dialect value, consuming the shared internal/types
// AST rather than owning its own copy of it.
package oraclesql

// Dialect captures the Oracle SQL features that vary across versions and
// editions, mirroring docql's SupportsOperation/SupportsFilter
// capability methods (zoobzio-docql/pkg/mongodb/mongodb.go). Only
// SupportsJSONArrayAggDistinct and DataColumn are read by a renderer;
// the other flags are carried but not consulted.
type Dialect struct {
	// SupportsJSONArrayAggDistinct gates JSON_ARRAYAGG(DISTINCT expr) for
	// $addToSet; false falls back to a LISTAGG(DISTINCT ...)-based
	// emulation wrapped in JSON_QUERY.
	SupportsJSONArrayAggDistinct bool
	// SupportsJSONDotNotation records whether the simple-dot-notation
	// JSON read shorthand (alias.data.field) is available. No renderer
	// reads it: field paths always render as JSON_VALUE calls.
	SupportsJSONDotNotation bool
	// SupportsLateralJoin records whether LATERAL joins are available.
	// No renderer reads it.
	SupportsLateralJoin bool
	// SupportsRecursiveCTE records whether recursive WITH is available.
	// No renderer reads it: $graphLookup always renders a recursive CTE.
	SupportsRecursiveCTE bool
	// DataColumn is the JSON-typed column holding each row's document.
	DataColumn string
}

// Oracle23c targets the JSON-relational-duality era: JSON_ARRAYAGG with
// DISTINCT, dot-notation JSON access, LATERAL, and recursive WITH all
// available.
var Oracle23c = Dialect{
	SupportsJSONArrayAggDistinct: true,
	SupportsJSONDotNotation:      true,
	SupportsLateralJoin:          true,
	SupportsRecursiveCTE:         true,
	DataColumn:                   "data",
}

// Oracle19c lacks JSON_ARRAYAGG(DISTINCT ...) and the dot-notation
// shorthand; $addToSet falls back to its EMULATED path.
var Oracle19c = Dialect{
	SupportsJSONArrayAggDistinct: false,
	SupportsJSONDotNotation:      false,
	SupportsLateralJoin:          true,
	SupportsRecursiveCTE:         true,
	DataColumn:                   "data",
}

// DefaultDialect is the dialect Translate renders with; only its
// DataColumn is replaced per call.
var DefaultDialect = Oracle23c
