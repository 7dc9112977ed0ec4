// Package verdict folds per-test-case outcomes into one submission verdict.
package verdict

import "algolab/internal/judge/model"

// precedence orders failure outcomes from most to least diagnostically
// useful. The first outcome in this order found anywhere in the results
// becomes the verdict; ties go to the earliest test case index.
var precedence = []model.Outcome{
	model.OutcomeCompileError,
	model.OutcomeRuntimeError,
	model.OutcomeMemoryLimitExceeded,
	model.OutcomeTimeLimitExceeded,
	model.OutcomeWrongAnswer,
}

// Aggregate combines per-test-case results into an overall verdict plus
// aggregate metrics. Runtime and memory aggregates are maxima across all
// cases since the largest value is the binding constraint. FailedIndex is
// the earliest test case carrying the verdict outcome, or -1 on ACCEPTED.
type Aggregate struct {
	Verdict     model.Outcome
	RuntimeMs   int64
	MemoryKB    int64
	FailedIndex int
}

func Compute(results []model.TestCaseResult) Aggregate {
	agg := Aggregate{Verdict: model.OutcomeAccepted, FailedIndex: -1}
	for _, r := range results {
		if r.RuntimeMs > agg.RuntimeMs {
			agg.RuntimeMs = r.RuntimeMs
		}
		if r.MemoryKB > agg.MemoryKB {
			agg.MemoryKB = r.MemoryKB
		}
	}
	for _, outcome := range precedence {
		for _, r := range results {
			if r.Outcome == outcome {
				agg.Verdict = outcome
				agg.FailedIndex = r.Index
				return agg
			}
		}
	}
	return agg
}
