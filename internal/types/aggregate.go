package types

// Every stage that takes accumulators ($group, $bucket, $bucketAuto,
// $setWindowFields) accepts every AccumulatorOp. How an operator is
// graded is a rendering concern, not a parse-time one, so
// AccumulatorAllowed stays permissive here and the renderer decides the
// grade (e.g. $addToSet downgrades to EMULATED when the dialect lacks
// JSON_ARRAYAGG(DISTINCT ...)).

// AccumulatorAllowed reports whether op is a recognized accumulator
// operator. No stage narrows this set further.
func AccumulatorAllowed(op AccumulatorOp) bool {
	switch op {
	case AccSum, AccAvg, AccMin, AccMax, AccCount, AccFirst, AccLast, AccPush, AccAddToSet:
		return true
	default:
		return false
	}
}

// RequiresExpr reports whether an accumulator operator requires a
// non-nil Expr (every one except AccCount, which counts group members).
func RequiresExpr(op AccumulatorOp) bool {
	return op != AccCount
}
