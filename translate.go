// Package bridge translates MongoDB aggregation pipelines into
// parameterized Oracle SQL, offline and without a live connection to
// either database — the same posture zoobzio/docql takes toward its own
// document-query AST, but pointed at a single fixed target dialect
// instead of a pluggable Renderer per backend.
package bridge

import (
	"fmt"
	"time"

	"github.com/rhoulihan/mongoplsql-bridge/internal/optimizer"
	"github.com/rhoulihan/mongoplsql-bridge/internal/oraclesql"
	"github.com/rhoulihan/mongoplsql-bridge/internal/parser"
	"github.com/rhoulihan/mongoplsql-bridge/internal/tracelog"
	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// TranslateOption configures one Translate call beyond Configuration and
// Options; currently only logger injection.
type TranslateOption func(*translateSettings)

type translateSettings struct {
	logger tracelog.Logger
}

// TranslateLogger injects a structured logger for this call's parse/
// optimize/compose phases and its completion summary. Omitting it uses
// a no-op logger; a broken or slow logging backend never fails or
// blocks a translation.
func TranslateLogger(l tracelog.Logger) TranslateOption {
	return func(s *translateSettings) { s.logger = l }
}

// Translate renders a MongoDB aggregation pipeline against cfg's target
// table into a single Oracle SQL statement (spec.md §6).
func Translate(pipeline []bson.Raw, cfg Configuration, opts Options, translateOpts ...TranslateOption) (*TranslationResult, error) {
	settings := translateSettings{logger: tracelog.Default()}
	for _, o := range translateOpts {
		o(&settings)
	}
	start := nowFunc()

	if cfg.CollectionName == "" {
		err := newInvalidInput("Configuration.CollectionName is required")
		tracelog.Error(settings.logger, cfg.CollectionName, "validate", err)
		return nil, err
	}

	p, err := parser.Parse(pipeline, cfg.CollectionName, parser.Options{StrictMode: opts.StrictMode})
	if err != nil {
		tracelog.Error(settings.logger, cfg.CollectionName, "parse", err)
		return nil, wrapParseError(err)
	}
	tracelog.Phase(settings.logger, "parse", map[string]any{"stages": len(p.Stages)})

	p = optimizer.Optimize(p)
	tracelog.Phase(settings.logger, "optimize", map[string]any{"stages": len(p.Stages)})

	dialect := opts.dialect(cfg)
	sql, ctx, err := oraclesql.Compose(p, cfg.QualifiedTableName(), dialect, opts.InlineBindVariables)
	if err != nil {
		wrapped := newUnsupportedOperator("", err.Error())
		tracelog.Error(settings.logger, cfg.CollectionName, "compose", wrapped)
		return nil, wrapped
	}
	tracelog.Phase(settings.logger, "compose", map[string]any{"warnings": len(ctx.Warnings())})

	capability := ctx.Capability()
	if len(p.Warnings) > 0 {
		capability = capability.Merge(types.Partial)
	}
	warnings := make([]types.Warning, 0, len(p.Warnings)+len(ctx.Warnings()))
	warnings = append(warnings, p.Warnings...)
	warnings = append(warnings, ctx.Warnings()...)

	result := &TranslationResult{
		SQL:        sql,
		Binds:      ctx.Binds(),
		Warnings:   warnings,
		Capability: capability,
	}

	if opts.StrictMode {
		for _, w := range result.Warnings {
			if w.Code == types.WarnUnsupportedOperatorClientSide || w.Code == types.WarnRedactClientSideOnly {
				err := newUnsupportedOperator("", w.Message)
				tracelog.Error(settings.logger, cfg.CollectionName, "compose", err)
				return nil, err
			}
		}
	}

	tracelog.Summary(settings.logger, cfg.CollectionName, len(p.Stages), result.Capability, len(result.Warnings), nowFunc().Sub(start))
	return result, nil
}

// wrapParseError wraps every parser error as an InvalidInput
// TranslationError, whatever its cause: an unknown operator under
// StrictMode and a name the validator rejected both surface as
// InvalidInput carrying the parser's message. The parser itself returns plain wrapped errors
// (it has no dependency on the root package's error types to avoid an
// import cycle), so Translate is the seam that re-homes them.
func wrapParseError(err error) *TranslationError {
	return &TranslationError{Kind: InvalidInput, Message: fmt.Sprintf("parsing pipeline: %v", err), Cause: err}
}

// nowFunc is a seam over time.Now so tests can freeze Summary's duration
// field without making translation itself time-dependent.
var nowFunc = time.Now
