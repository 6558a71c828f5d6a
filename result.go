package bridge

import "github.com/rhoulihan/mongoplsql-bridge/internal/types"

// TranslationResult is what a successful Translate call returns:
// finished SQL text, its bind list in textual placeholder order, every
// caveat accumulated while rendering, and the worst-case capability
// grade across the whole pipeline (spec.md §6).
type TranslationResult struct {
	SQL        string
	Binds      []any
	Warnings   []types.Warning
	Capability types.Capability
}
