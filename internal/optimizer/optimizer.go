// Package optimizer applies pure AST→AST rewrites to a parsed
// types.Pipeline before it reaches the composer. Every pass is
// idempotent; Optimize drives them to a fixed point the way the teacher's
// builder drives repeated simplification of its filter tree
// (zoobzio-docql/builder.go), except here the rewrite set is fixed and
// spec'd rather than user-supplied.
package optimizer

import "github.com/rhoulihan/mongoplsql-bridge/internal/types"

// pass rewrites a stage slice and reports whether it changed anything.
// Every pass must be safe to call repeatedly: applying it twice in a row
// with no intervening change must report changed=false the second time.
type pass func(stages []types.Stage) (rewritten []types.Stage, changed bool)

// passes runs in this fixed order every round; order matters only for
// convergence speed, not for the final fixed point, since Optimize loops
// until no pass reports a change.
var passes = []pass{
	mergeAdjacentMatch,
	mergeAdjacentLimit,
	mergeAdjacentSkip,
	removeRedundantSort,
	pushMatchBeforeProject,
	pushMatchBeforeLimit,
	fuseSortLimit,
}

// maxRounds bounds pathological oscillation on adversarial input; a
// correct pass set reaches a fixed point in at most len(stages) rounds.
const maxRounds = 64

// Optimize rewrites p.Stages in place and returns p. It never changes
// p.Collection and never introduces or removes a stage whose presence or
// absence would alter observable result rows (spec.md §4.7).
func Optimize(p *types.Pipeline) *types.Pipeline {
	stages := p.Stages
	for round := 0; round < maxRounds; round++ {
		anyChanged := false
		for _, pa := range passes {
			next, changed := pa(stages)
			if changed {
				stages = next
				anyChanged = true
			}
		}
		if !anyChanged {
			break
		}
	}
	p.Stages = stages
	return p
}
