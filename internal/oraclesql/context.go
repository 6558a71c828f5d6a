package oraclesql

import (
	"fmt"
	"strings"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
)

// lookupInfo tracks a registered $lookup's shape so a later $size
// expression on its "as" field can elide the JOIN in favor of a
// correlated COUNT(*), and so field-path references into the joined
// document can be rewritten to the joined alias's data column.
type lookupInfo struct {
	as             string
	foreignTable   string
	localField     types.FieldPath
	foreignField   types.FieldPath
	alias          string
	consumedBySize bool
}

// sharedState is the state create_nested_context shares by pointer
// across a parent Context and every context it spawns: bind list, alias
// counters, virtual-field registry, lookup registry, and the accumulated
// warnings/capability verdict (spec.md §4.4, §5).
type sharedState struct {
	binds         []any
	inlineBinds   bool
	aliasCounters map[string]int
	virtualFields map[string]types.Expression
	lookups       map[string]*lookupInfo
	outputAliases map[string]bool
	loopVars      map[string]string
	warnings      []types.Warning
	capability    types.Capability
}

// Context is the mutable builder threaded through rendering. A nested
// context (CreateNestedContext) shares *sharedState with its parent but
// owns a private buffer, so its rendered text can be spliced into the
// parent exactly once via SQL(child.ToSQL()).
type Context struct {
	shared    *sharedState
	buf       strings.Builder
	dialect   Dialect
	baseAlias string
}

// NewContext starts a fresh, top-level rendering context for one
// translation call.
func NewContext(dialect Dialect, inlineBinds bool) *Context {
	return &Context{
		shared: &sharedState{
			inlineBinds:   inlineBinds,
			aliasCounters: map[string]int{},
			virtualFields: map[string]types.Expression{},
			lookups:       map[string]*lookupInfo{},
			outputAliases: map[string]bool{},
			loopVars:      map[string]string{},
			capability:    types.FullSupport,
		},
		dialect: dialect,
	}
}

// CreateNestedContext returns a sibling context for a sub-pipeline
// ($lookup.pipeline, $facet branch, $unionWith arm): same dialect, same
// base alias, same shared bind list/alias counters/registries, but an
// independent SQL buffer.
func (c *Context) CreateNestedContext() *Context {
	return &Context{shared: c.shared, dialect: c.dialect, baseAlias: c.baseAlias}
}

// SQL appends a raw SQL fragment to this context's private buffer.
func (c *Context) SQL(fragment string) { c.buf.WriteString(fragment) }

// ToSQL returns everything written to this context's buffer so far.
func (c *Context) ToSQL() string { return c.buf.String() }

// Dialect returns the dialect this context renders against.
func (c *Context) Dialect() Dialect { return c.dialect }

// SetBaseTableAlias sets the alias the main collection is referenced
// under; empty means no alias qualifier is needed.
func (c *Context) SetBaseTableAlias(alias string) { c.baseAlias = alias }

// BaseTableAlias returns the alias set by SetBaseTableAlias.
func (c *Context) BaseTableAlias() string { return c.baseAlias }

// Bind allocates the next `:N` placeholder and appends value to the bind
// list, or — in inline-bind mode — formats value as a literal directly.
// Either way it returns the text to splice into the SQL fragment.
func (c *Context) Bind(value any) string {
	if c.shared.inlineBinds {
		return formatLiteralInline(value)
	}
	c.shared.binds = append(c.shared.binds, value)
	return fmt.Sprintf(":%d", len(c.shared.binds))
}

// Binds returns the accumulated bind list in left-to-right rendering
// order, matching the textual order of `:N` placeholders emitted.
func (c *Context) Binds() []any { return c.shared.binds }

// Identifier quotes name only if it does not match Oracle's unquoted
// identifier grammar.
func (c *Context) Identifier(name string) string {
	if isUnquotedIdentifier(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isUnquotedIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
				return false
			}
			continue
		}
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

// GenerateTableAlias returns a fresh, unique alias of the form "base_N"
// scoped to this context's shared counters.
func (c *Context) GenerateTableAlias(base string) string {
	c.shared.aliasCounters[base]++
	return fmt.Sprintf("%s_%d", base, c.shared.aliasCounters[base])
}

// RegisterVirtualField records that field name "name" is a computed
// $addFields expression rather than a path present in the stored
// document, so later stages inline the expression instead of emitting a
// dangling JSON path.
func (c *Context) RegisterVirtualField(name string, expr types.Expression) {
	c.shared.virtualFields[name] = expr
}

// LookupVirtualField returns the expression registered for name, if any.
func (c *Context) LookupVirtualField(name string) (types.Expression, bool) {
	e, ok := c.shared.virtualFields[name]
	return e, ok
}

// RegisterOutputAlias records that name is a SELECT-list alias produced
// by the current query level (a $group accumulator or its _id key),
// rather than a path in the stored document, so a later $sort within the
// same composed SELECT references the alias directly instead of
// re-deriving a JSON_VALUE path off a column that no longer exists once
// GROUP BY has collapsed the rows.
func (c *Context) RegisterOutputAlias(name string) {
	c.shared.outputAliases[name] = true
}

// IsOutputAlias reports whether RegisterOutputAlias was called for name
// in the current shared scope.
func (c *Context) IsOutputAlias(name string) bool {
	return c.shared.outputAliases[name]
}

// RegisterLoopVariable records that name (without its "$$" sigil) refers,
// within the expression currently being rendered, to columnRef — the
// JSON_TABLE row alias a $filter/$map correlated subquery binds its
// element to. A later "$$name.field" reference resolves against it
// instead of falling through to the outer document.
func (c *Context) RegisterLoopVariable(name, columnRef string) {
	c.shared.loopVars[name] = columnRef
}

// LoopVariable returns the column reference registered for name, if any.
func (c *Context) LoopVariable(name string) (string, bool) {
	v, ok := c.shared.loopVars[name]
	return v, ok
}

// RegisterLookup records a $lookup's shape under its "as" name.
func (c *Context) RegisterLookup(as, foreignTable string, local, foreign types.FieldPath) {
	c.shared.lookups[as] = &lookupInfo{as: as, foreignTable: foreignTable, localField: local, foreignField: foreign}
}

// RegisterLookupTableAlias records the JOIN alias assigned to a
// previously registered lookup.
func (c *Context) RegisterLookupTableAlias(as, alias string) {
	if l, ok := c.shared.lookups[as]; ok {
		l.alias = alias
	}
}

// lookupByAs returns the registered lookup for an "as" name, if any.
func (c *Context) lookupByAs(as string) (*lookupInfo, bool) {
	l, ok := c.shared.lookups[as]
	return l, ok
}

// MarkLookupConsumedBySize records that a $size reference on this
// lookup's "as" field replaced its JOIN with a correlated COUNT(*), so
// the Composer can elide the JOIN entirely.
func (c *Context) MarkLookupConsumedBySize(as string) {
	if l, ok := c.shared.lookups[as]; ok {
		l.consumedBySize = true
	}
}

// IsLookupConsumedBySize reports whether MarkLookupConsumedBySize was
// called for this "as" name.
func (c *Context) IsLookupConsumedBySize(as string) bool {
	l, ok := c.shared.lookups[as]
	return ok && l.consumedBySize
}

// AddWarning records a translation caveat and folds its capability grade
// into the running verdict via Capability.Merge.
func (c *Context) AddWarning(w types.Warning) {
	c.shared.warnings = append(c.shared.warnings, w)
	c.shared.capability = c.shared.capability.Merge(gradeFor(w.Code))
}

// Warnings returns every warning accumulated so far, in emission order.
func (c *Context) Warnings() []types.Warning { return c.shared.warnings }

// Capability returns the running worse-case capability verdict.
func (c *Context) Capability() types.Capability { return c.shared.capability }

// gradeFor maps a warning code to the capability grade it implies.
func gradeFor(code types.WarningCode) types.Capability {
	switch code {
	case types.WarnGraphLookupRecursiveLimited:
		return types.Partial
	case types.WarnAddToSetEmulated, types.WarnFirstLastAsMinMax, types.WarnBucketAutoApproximate:
		return types.Emulated
	case types.WarnRedactClientSideOnly, types.WarnTextSearchUnsupported, types.WarnUnsupportedOperatorClientSide:
		return types.ClientSideOnly
	case types.WarnSampleEmulated:
		return types.Emulated
	case types.WarnProjectExclusionPassthrough:
		return types.Partial
	default:
		return types.Partial
	}
}
