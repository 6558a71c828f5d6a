package bridge

import "github.com/rhoulihan/mongoplsql-bridge/internal/types"

// Re-export output types callers need to name on their own side.
// Translate returns these on TranslationResult; Go's internal-package
// rule keeps an outside caller from importing internal/types directly,
// so the aliases live here the way docql's own api.go re-exports
// internal/types.Operation and internal/types.FilterOperator for its
// callers.
type (
	// Warning is one translation caveat: a warning code, a human-
	// readable message, and the pipeline stage index it came from (-1
	// when not stage-specific).
	Warning = types.Warning

	// Capability grades how faithfully a translated construct
	// reproduces Mongo aggregation semantics in Oracle SQL.
	Capability = types.Capability

	// WarningCode identifies a specific, documented translation caveat.
	WarningCode = types.WarningCode
)

// Capability grades, best-to-worst for Capability.Merge's purposes.
const (
	FullSupport    = types.FullSupport
	Emulated       = types.Emulated
	Partial        = types.Partial
	ClientSideOnly = types.ClientSideOnly
	Unsupported    = types.Unsupported
)

// Warning codes a TranslationResult's Warnings may carry.
const (
	WarnGraphLookupRecursiveLimited   = types.WarnGraphLookupRecursiveLimited
	WarnAddToSetEmulated              = types.WarnAddToSetEmulated
	WarnFirstLastAsMinMax             = types.WarnFirstLastAsMinMax
	WarnRedactClientSideOnly          = types.WarnRedactClientSideOnly
	WarnTextSearchUnsupported         = types.WarnTextSearchUnsupported
	WarnBucketAutoApproximate         = types.WarnBucketAutoApproximate
	WarnProjectExclusionPassthrough   = types.WarnProjectExclusionPassthrough
	WarnSampleEmulated                = types.WarnSampleEmulated
	WarnUnsupportedOperatorClientSide = types.WarnUnsupportedOperatorClientSide
	WarnUnknownOperatorDropped        = types.WarnUnknownOperatorDropped
)
