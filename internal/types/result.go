package types

// RenderResult pairs rendered SQL text with the capability grade and
// warnings that rendering incurred. The Composer does not use it: it
// accumulates capability and warnings on its Context instead.
type RenderResult struct {
	SQL        string
	Capability Capability
	Warnings   []Warning
}

// Combine merges other into r, taking the worse capability grade and
// concatenating warnings. SQL is left to the caller since clause
// assembly order varies by stage.
func (r RenderResult) Combine(other RenderResult) RenderResult {
	cap := r.Capability
	if cap == "" {
		cap = FullSupport
	}
	cap = cap.Merge(other.Capability)
	warnings := append(append([]Warning{}, r.Warnings...), other.Warnings...)
	return RenderResult{Capability: cap, Warnings: warnings}
}
