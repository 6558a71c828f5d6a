package parser

import (
	"fmt"

	"github.com/rhoulihan/mongoplsql-bridge/internal/types"
	"github.com/rhoulihan/mongoplsql-bridge/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func parseLookupStage(val any, opts Options, warnings *[]types.Warning) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$lookup: expected a document, got %T", val)
	}
	var from, local, foreign, as string
	var letDoc bson.D
	var pipelineArr bson.A
	hasPipeline := false
	for _, e := range d {
		switch e.Key {
		case "from":
			s, _ := e.Value.(string)
			from = s
		case "localField":
			s, _ := e.Value.(string)
			local = trimDollar(s)
		case "foreignField":
			s, _ := e.Value.(string)
			foreign = trimDollar(s)
		case "as":
			s, _ := e.Value.(string)
			as = s
		case "let":
			letDoc, _ = e.Value.(bson.D)
		case "pipeline":
			pipelineArr, _ = e.Value.(bson.A)
			hasPipeline = true
		}
	}
	if err := validator.ValidateTableName(from); err != nil {
		return nil, fmt.Errorf("$lookup.from: %w", err)
	}
	if err := validator.ValidateFieldName(as); err != nil {
		return nil, fmt.Errorf("$lookup.as: %w", err)
	}

	stage := types.LookupStage{From: from, As: as}
	if local != "" {
		if _, err := validator.ValidateAndNormalizeFieldPath(local); err != nil {
			return nil, fmt.Errorf("$lookup.localField: %w", err)
		}
		stage.LocalField = types.FieldPath{Path: local}
	}
	if foreign != "" {
		if _, err := validator.ValidateAndNormalizeFieldPath(foreign); err != nil {
			return nil, fmt.Errorf("$lookup.foreignField: %w", err)
		}
		stage.ForeignField = types.FieldPath{Path: foreign}
	}
	if letDoc != nil {
		lets := make([]types.NamedExpression, 0, len(letDoc))
		for _, e := range letDoc {
			expr, err := parseValue(e.Value)
			if err != nil {
				return nil, fmt.Errorf("$lookup.let.%s: %w", e.Key, err)
			}
			lets = append(lets, types.NamedExpression{Name: e.Key, Expr: expr})
		}
		stage.Let = lets
	}
	if hasPipeline {
		sub, err := parseSubPipeline(pipelineArr, opts, warnings)
		if err != nil {
			return nil, fmt.Errorf("$lookup.pipeline: %w", err)
		}
		stage.Pipeline = sub
	}
	return stage, nil
}

// parseSubPipeline parses a nested pipeline array used by $lookup,
// $facet, and $unionWith (spec.md §4.3's "nested operator composition").
// warnings is the same accumulator threaded through the enclosing
// Parse call, so an unknown operator dropped inside a nested pipeline
// surfaces exactly like one dropped at the top level.
func parseSubPipeline(arr bson.A, opts Options, warnings *[]types.Warning) ([]types.Stage, error) {
	stages := make([]types.Stage, 0, len(arr))
	for i, item := range arr {
		d, ok := item.(bson.D)
		if !ok {
			return nil, fmt.Errorf("stage %d: expected a document, got %T", i, item)
		}
		s, err := parseStage(d, opts, warnings)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		stages = append(stages, s...)
	}
	return stages, nil
}

func parseUnionWithStage(val any, opts Options, warnings *[]types.Warning) (types.Stage, error) {
	switch v := val.(type) {
	case string:
		if err := validator.ValidateTableName(v); err != nil {
			return nil, fmt.Errorf("$unionWith: %w", err)
		}
		return types.UnionWithStage{Collection: v}, nil
	case bson.D:
		var coll string
		var pipelineArr bson.A
		for _, e := range v {
			switch e.Key {
			case "coll":
				coll, _ = e.Value.(string)
			case "pipeline":
				pipelineArr, _ = e.Value.(bson.A)
			}
		}
		if err := validator.ValidateTableName(coll); err != nil {
			return nil, fmt.Errorf("$unionWith.coll: %w", err)
		}
		sub, err := parseSubPipeline(pipelineArr, opts, warnings)
		if err != nil {
			return nil, fmt.Errorf("$unionWith.pipeline: %w", err)
		}
		return types.UnionWithStage{Collection: coll, Pipeline: sub}, nil
	default:
		return nil, fmt.Errorf("$unionWith: expected a string or document, got %T", val)
	}
}

func parseOutStage(val any) (types.Stage, error) {
	switch v := val.(type) {
	case string:
		if err := validator.ValidateTableName(v); err != nil {
			return nil, fmt.Errorf("$out: %w", err)
		}
		return types.OutStage{Collection: v}, nil
	case bson.D:
		var db, coll string
		for _, e := range v {
			switch e.Key {
			case "db":
				db, _ = e.Value.(string)
			case "coll":
				coll, _ = e.Value.(string)
			}
		}
		if err := validator.ValidateTableName(coll); err != nil {
			return nil, fmt.Errorf("$out.coll: %w", err)
		}
		return types.OutStage{Collection: coll, Schema: db}, nil
	default:
		return nil, fmt.Errorf("$out: expected a string or document, got %T", val)
	}
}

func parseBucketStage(val any) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$bucket: expected a document, got %T", val)
	}
	var groupByV, boundariesV, defaultV, outputV any
	hasDefault := false
	for _, e := range d {
		switch e.Key {
		case "groupBy":
			groupByV = e.Value
		case "boundaries":
			boundariesV = e.Value
		case "default":
			defaultV = e.Value
			hasDefault = true
		case "output":
			outputV = e.Value
		}
	}
	groupBy, err := parseValue(groupByV)
	if err != nil {
		return nil, fmt.Errorf("$bucket.groupBy: %w", err)
	}
	boundariesArr, ok := boundariesV.(bson.A)
	if !ok {
		return nil, fmt.Errorf("$bucket.boundaries: expected an array")
	}
	if len(boundariesArr) > types.MaxBucketBoundaries {
		return nil, fmt.Errorf("$bucket.boundaries: count exceeds maximum: %d > %d", len(boundariesArr), types.MaxBucketBoundaries)
	}
	boundaries := make([]types.Literal, len(boundariesArr))
	for i, b := range boundariesArr {
		lit, err := asLiteral(b)
		if err != nil {
			return nil, fmt.Errorf("$bucket.boundaries[%d]: %w", i, err)
		}
		boundaries[i] = lit
	}
	stage := types.BucketStage{GroupBy: groupBy, Boundaries: boundaries}
	if hasDefault {
		lit, err := asLiteral(defaultV)
		if err != nil {
			return nil, fmt.Errorf("$bucket.default: %w", err)
		}
		stage.DefaultKey = &lit
		stage.HasDefault = true
	}
	if outputV != nil {
		out, err := parseAccumulatorOutputDoc(outputV)
		if err != nil {
			return nil, fmt.Errorf("$bucket.output: %w", err)
		}
		stage.Output = out
	} else {
		stage.Output = []types.NamedAccumulator{{Name: "count", Acc: types.Accumulator{Op: types.AccCount}}}
	}
	return stage, nil
}

func parseBucketAutoStage(val any) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$bucketAuto: expected a document, got %T", val)
	}
	var groupByV, outputV any
	buckets := 0
	granularity := ""
	for _, e := range d {
		switch e.Key {
		case "groupBy":
			groupByV = e.Value
		case "buckets":
			n, err := asInt(e.Value)
			if err != nil {
				return nil, fmt.Errorf("$bucketAuto.buckets: %w", err)
			}
			buckets = n
		case "output":
			outputV = e.Value
		case "granularity":
			granularity, _ = e.Value.(string)
		}
	}
	groupBy, err := parseValue(groupByV)
	if err != nil {
		return nil, fmt.Errorf("$bucketAuto.groupBy: %w", err)
	}
	if buckets <= 0 {
		return nil, fmt.Errorf("$bucketAuto.buckets must be positive")
	}
	stage := types.BucketAutoStage{GroupBy: groupBy, Buckets: buckets, Granularity: granularity}
	if outputV != nil {
		out, err := parseAccumulatorOutputDoc(outputV)
		if err != nil {
			return nil, fmt.Errorf("$bucketAuto.output: %w", err)
		}
		stage.Output = out
	} else {
		stage.Output = []types.NamedAccumulator{{Name: "count", Acc: types.Accumulator{Op: types.AccCount}}}
	}
	return stage, nil
}

func parseAccumulatorOutputDoc(val any) ([]types.NamedAccumulator, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("expected a document, got %T", val)
	}
	out := make([]types.NamedAccumulator, 0, len(d))
	for _, e := range d {
		accDoc, ok := e.Value.(bson.D)
		if !ok {
			return nil, fmt.Errorf("%s: expected an accumulator document, got %T", e.Key, e.Value)
		}
		acc, err := parseAccumulator(accDoc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Key, err)
		}
		out = append(out, types.NamedAccumulator{Name: e.Key, Acc: acc})
	}
	return out, nil
}

func parseFacetStage(val any, opts Options, warnings *[]types.Warning) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$facet: expected a document, got %T", val)
	}
	if len(d) > types.MaxFacetBranches {
		return nil, fmt.Errorf("$facet: branch count exceeds maximum: %d > %d", len(d), types.MaxFacetBranches)
	}
	facets := make([]types.NamedFacet, 0, len(d))
	for _, e := range d {
		if err := validator.ValidateFieldName(e.Key); err != nil {
			return nil, fmt.Errorf("$facet: %w", err)
		}
		arr, ok := e.Value.(bson.A)
		if !ok {
			return nil, fmt.Errorf("$facet.%s: expected an array, got %T", e.Key, e.Value)
		}
		sub, err := parseSubPipeline(arr, opts, warnings)
		if err != nil {
			return nil, fmt.Errorf("$facet.%s: %w", e.Key, err)
		}
		facets = append(facets, types.NamedFacet{Name: e.Key, Pipeline: sub})
	}
	return types.FacetStage{Facets: facets}, nil
}

func parseGraphLookupStage(val any) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$graphLookup: expected a document, got %T", val)
	}
	var from, as string
	var connectFrom, connectTo string
	var startWithV, restrictV any
	var maxDepth *int
	depthField := ""
	for _, e := range d {
		switch e.Key {
		case "from":
			from, _ = e.Value.(string)
		case "as":
			as, _ = e.Value.(string)
		case "connectFromField":
			s, _ := e.Value.(string)
			connectFrom = trimDollar(s)
		case "connectToField":
			s, _ := e.Value.(string)
			connectTo = trimDollar(s)
		case "startWith":
			startWithV = e.Value
		case "maxDepth":
			n, err := asInt(e.Value)
			if err != nil {
				return nil, fmt.Errorf("$graphLookup.maxDepth: %w", err)
			}
			maxDepth = &n
		case "depthField":
			depthField, _ = e.Value.(string)
		case "restrictSearchWithMatch":
			restrictV = e.Value
		}
	}
	if err := validator.ValidateTableName(from); err != nil {
		return nil, fmt.Errorf("$graphLookup.from: %w", err)
	}
	if err := validator.ValidateFieldName(as); err != nil {
		return nil, fmt.Errorf("$graphLookup.as: %w", err)
	}
	startWith, err := parseValue(startWithV)
	if err != nil {
		return nil, fmt.Errorf("$graphLookup.startWith: %w", err)
	}
	stage := types.GraphLookupStage{
		From:             from,
		StartWith:        startWith,
		ConnectFromField: types.FieldPath{Path: connectFrom},
		ConnectToField:   types.FieldPath{Path: connectTo},
		As:               as,
		MaxDepth:         maxDepth,
		DepthField:       depthField,
	}
	if restrictV != nil {
		restrict, err := parseMatchFilter(restrictV)
		if err != nil {
			return nil, fmt.Errorf("$graphLookup.restrictSearchWithMatch: %w", err)
		}
		stage.RestrictSearch = restrict
	}
	return stage, nil
}

func parseSetWindowFieldsStage(val any) (types.Stage, error) {
	d, ok := val.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$setWindowFields: expected a document, got %T", val)
	}
	var partitionV, sortByV, outputV any
	for _, e := range d {
		switch e.Key {
		case "partitionBy":
			partitionV = e.Value
		case "sortBy":
			sortByV = e.Value
		case "output":
			outputV = e.Value
		}
	}
	var partition types.Expression
	if partitionV != nil {
		p, err := parseValue(partitionV)
		if err != nil {
			return nil, fmt.Errorf("$setWindowFields.partitionBy: %w", err)
		}
		partition = p
	}
	var sortItems []types.SortItem
	if sortByV != nil {
		sd, ok := sortByV.(bson.D)
		if !ok {
			return nil, fmt.Errorf("$setWindowFields.sortBy: expected a document, got %T", sortByV)
		}
		for _, e := range sd {
			path, err := validator.ValidateAndNormalizeFieldPath(e.Key)
			if err != nil {
				return nil, fmt.Errorf("$setWindowFields.sortBy: %w", err)
			}
			order, err := parseSortOrder(e.Value)
			if err != nil {
				return nil, fmt.Errorf("$setWindowFields.sortBy.%s: %w", e.Key, err)
			}
			sortItems = append(sortItems, types.SortItem{Path: types.FieldPath{Path: path}, Order: order})
		}
	}
	outD, ok := outputV.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$setWindowFields.output: expected a document, got %T", outputV)
	}
	outputs := make([]types.WindowOutput, 0, len(outD))
	for _, e := range outD {
		accDoc, ok := e.Value.(bson.D)
		if !ok {
			return nil, fmt.Errorf("$setWindowFields.output.%s: expected a document, got %T", e.Key, e.Value)
		}
		acc, window, err := parseWindowAccumulator(accDoc)
		if err != nil {
			return nil, fmt.Errorf("$setWindowFields.output.%s: %w", e.Key, err)
		}
		window.Name = e.Key
		window.Acc = acc
		outputs = append(outputs, window)
	}
	return types.SetWindowFieldsStage{PartitionBy: partition, SortBy: sortItems, Output: outputs}, nil
}

func parseWindowAccumulator(d bson.D) (types.Accumulator, types.WindowOutput, error) {
	var accDoc bson.D
	var window types.WindowOutput
	for _, e := range d {
		if e.Key == "window" {
			wd, ok := e.Value.(bson.D)
			if !ok {
				continue
			}
			lower, upper, docs := parseWindowBounds(wd)
			window.Lower, window.Upper, window.Docs = lower, upper, docs
			continue
		}
		accDoc = append(accDoc, e)
	}
	acc, err := parseAccumulator(accDoc)
	if err != nil {
		return types.Accumulator{}, types.WindowOutput{}, err
	}
	return acc, window, nil
}

func parseWindowBounds(d bson.D) (lower, upper *int, docs bool) {
	for _, e := range d {
		switch e.Key {
		case "documents":
			docs = true
			lower, upper = parseBoundsArray(e.Value)
		case "range":
			docs = false
			lower, upper = parseBoundsArray(e.Value)
		}
	}
	return
}

func parseBoundsArray(val any) (lower, upper *int) {
	arr, ok := val.(bson.A)
	if !ok || len(arr) != 2 {
		return nil, nil
	}
	lower = parseBound(arr[0])
	upper = parseBound(arr[1])
	return
}

func parseBound(val any) *int {
	if s, ok := val.(string); ok {
		_ = s // "unbounded" or "current"
		return nil
	}
	n, err := asInt(val)
	if err != nil {
		return nil
	}
	return &n
}

func parseRedactStage(val any) (types.Stage, error) {
	expr, err := parseValue(val)
	if err != nil {
		return nil, fmt.Errorf("$redact: %w", err)
	}
	return types.RedactStage{Expr: expr}, nil
}

func asLiteral(val any) (types.Literal, error) {
	expr, err := parseValue(val)
	if err != nil {
		return types.Literal{}, err
	}
	lit, ok := expr.(types.LiteralExpr)
	if !ok {
		return types.Literal{}, fmt.Errorf("expected a literal value, got %T", expr)
	}
	return lit.Value, nil
}
