package types

import "fmt"

// Pipeline is the parsed, not-yet-optimized aggregation pipeline together
// with the source collection it runs against. It plays the role
// zoobzio-docql's DocumentAST plays for a single query: the one object
// that flows Parser -> Optimizer -> Composer.
type Pipeline struct {
	Collection string
	Stages     []Stage
	// Warnings carries caveats the parser recorded while building Stages
	// (currently: operators dropped under non-strict mode). The Composer
	// records its own on Context; Translate merges both
	// into the final TranslationResult.
	Warnings []Warning
}

// Validate checks structural invariants the parser guarantees and the
// optimizer must preserve: stage count bounds and that $out, when
// present, only ever appears last.
func (p *Pipeline) Validate() error {
	if p.Collection == "" {
		return fmt.Errorf("pipeline collection is required")
	}
	if len(p.Stages) == 0 {
		return fmt.Errorf("pipeline requires at least one stage")
	}
	if len(p.Stages) > MaxPipelineStages {
		return fmt.Errorf("pipeline stages exceed maximum: %d > %d", len(p.Stages), MaxPipelineStages)
	}
	for i, s := range p.Stages {
		if _, ok := s.(OutStage); ok && i != len(p.Stages)-1 {
			return fmt.Errorf("$out must be the final stage, found at position %d of %d", i, len(p.Stages))
		}
	}
	return nil
}
