// Package parser turns raw BSON aggregation pipeline documents into the
// closed types.Pipeline AST. It mirrors, in the opposite direction, the
// stage-key dispatch switch zoobzio-docql's pkg/mongodb/mongodb.go uses
// to render a types.PipelineStage back into BSON.
package parser

import (
	"fmt"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
	"github.com/rhoulihan/mongoplsql-bridge/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// StrictMode controls whether unknown operators abort the translation or
// are deferred as a warning (spec.md §4.3, §7).
type StrictMode bool

// Options bundles the flags the parser needs from the caller without
// importing the root package (which would create an import cycle).
type Options struct {
	StrictMode bool
}

// Parse decodes a raw aggregation pipeline into a types.Pipeline.
// collection is the source collection name; it is validated here so
// every downstream consumer can trust Pipeline.Collection.
func Parse(raw []bson.Raw, collection string, opts Options) (*types.Pipeline, error) {
	if err := validator.ValidateTableName(collection); err != nil {
		return nil, fmt.Errorf("parsing pipeline: %w", err)
	}

	stages := make([]types.Stage, 0, len(raw))
	var warnings []types.Warning
	for i, doc := range raw {
		var d bson.D
		if err := bson.Unmarshal(doc, &d); err != nil {
			return nil, fmt.Errorf("stage %d: malformed BSON document: %w", i, err)
		}
		stage, err := parseStage(d, opts, &warnings)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		if stage == nil {
			// Unknown operator, non-strict mode: dropped, warning recorded.
			continue
		}
		stages = append(stages, stage...)
	}

	p := &types.Pipeline{Collection: collection, Stages: stages, Warnings: warnings}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("parsing pipeline: %w", err)
	}
	return p, nil
}

// parseStage dispatches on doc's single top-level key. It returns a slice
// because $sortByCount desugars into two Stages ($group then $sort).
// warnings accumulates caveats that do not themselves abort parsing (an
// unknown operator under non-strict mode); it is shared across an entire
// Parse call, including recursive parseSubPipeline descents.
func parseStage(d bson.D, opts Options, warnings *[]types.Warning) ([]types.Stage, error) {
	if len(d) != 1 {
		return nil, fmt.Errorf("pipeline stage must have exactly one top-level operator, got %d", len(d))
	}
	op := d[0].Key
	val := d[0].Value

	switch op {
	case "$match":
		return one(parseMatchStage(val))
	case "$project":
		return one(parseProjectStage(val))
	case "$group":
		return one(parseGroupStage(val))
	case "$sort":
		return one(parseSortStage(val))
	case "$skip":
		return one(parseSkipStage(val))
	case "$limit":
		return one(parseLimitStage(val))
	case "$sample":
		return one(parseSampleStage(val))
	case "$lookup":
		return one(parseLookupStage(val, opts, warnings))
	case "$unwind":
		return one(parseUnwindStage(val))
	case "$addFields", "$set":
		return one(parseAddFieldsStage(val))
	case "$replaceRoot":
		return one(parseReplaceRootStage(val))
	case "$replaceWith":
		return oneExpr(ReplaceRootStageFromExpr, val)
	case "$unionWith":
		return one(parseUnionWithStage(val, opts, warnings))
	case "$out":
		return one(parseOutStage(val))
	case "$bucket":
		return one(parseBucketStage(val))
	case "$bucketAuto":
		return one(parseBucketAutoStage(val))
	case "$facet":
		return one(parseFacetStage(val, opts, warnings))
	case "$graphLookup":
		return one(parseGraphLookupStage(val))
	case "$setWindowFields":
		return one(parseSetWindowFieldsStage(val))
	case "$redact":
		return one(parseRedactStage(val))
	case "$count":
		return one(parseCountStage(val))
	case "$sortByCount":
		return parseSortByCountStage(val)
	default:
		if opts.StrictMode {
			return nil, fmt.Errorf("unknown operator: %s", op)
		}
		*warnings = append(*warnings, types.Warning{
			Code:    types.WarnUnknownOperatorDropped,
			Message: fmt.Sprintf("operator %q is not recognized by any dispatch table and was dropped", op),
			Stage:   -1,
		})
		return nil, nil
	}
}

func one(s types.Stage, err error) ([]types.Stage, error) {
	if err != nil {
		return nil, err
	}
	return []types.Stage{s}, nil
}

func oneExpr(f func(types.Expression) types.Stage, val any) ([]types.Stage, error) {
	expr, err := parseValue(val)
	if err != nil {
		return nil, err
	}
	return []types.Stage{f(expr)}, nil
}

// ReplaceRootStageFromExpr builds the ReplaceRootStage shape $replaceWith
// desugars to (a bare expression rather than {newRoot: expr}).
func ReplaceRootStageFromExpr(e types.Expression) types.Stage {
	return types.ReplaceRootStage{NewRoot: e}
}
