package bridge

import "github.com/rhoulihan/mongoplsql-bridge/internal/oraclesql"

// Configuration identifies the Oracle table a translation targets. It is
// immutable once built: every Translate call receives its own value, the
// way docql's DOCQL instance is built once from a ddml.Schema and reused
// across queries rather than mutated mid-translation.
type Configuration struct {
	// CollectionName is the Mongo collection name and, absent a
	// SchemaName, the unqualified Oracle table name. Required.
	CollectionName string
	// SchemaName optionally qualifies CollectionName with an Oracle
	// schema: schema.collection, unquoted.
	SchemaName string
	// DataColumnName is the JSON-typed column holding each row's
	// document. Defaults to "data" when empty.
	DataColumnName string
}

// QualifiedTableName returns schema.collection when SchemaName is set,
// or just collection otherwise, per spec.md §3.
func (c Configuration) QualifiedTableName() string {
	if c.SchemaName != "" {
		return c.SchemaName + "." + c.CollectionName
	}
	return c.CollectionName
}

func (c Configuration) dataColumn() string {
	if c.DataColumnName != "" {
		return c.DataColumnName
	}
	return "data"
}

// Options tunes how a single Translate call renders its SQL, independent
// of what table it targets.
type Options struct {
	// InlineBindVariables formats literal values directly into the SQL
	// text instead of emitting ":N" placeholders and a parallel bind
	// list.
	InlineBindVariables bool
	// PrettyPrint is accepted for CLI-surface compatibility (spec.md
	// §6) but does not affect TranslationResult.SQL today: the
	// Composer emits single-line statements, and reformatting is a
	// presentation concern left to the caller.
	PrettyPrint bool
	// IncludeHints is accepted for CLI-surface compatibility; no
	// optimizer hint syntax is emitted yet.
	IncludeHints bool
	// StrictMode promotes an UnknownOperator from a dropped-stage
	// warning to a fatal InvalidInput error.
	StrictMode bool
	// DataColumnName, when set, overrides Configuration.DataColumnName
	// for this call only.
	DataColumnName string
}

func (o Options) dialect(cfg Configuration) oraclesql.Dialect {
	d := oraclesql.DefaultDialect
	if o.DataColumnName != "" {
		d.DataColumn = o.DataColumnName
	} else {
		d.DataColumn = cfg.dataColumn()
	}
	return d
}
