package verdict

import (
	"testing"

	"algolab/internal/judge/model"
)

func result(idx int, outcome model.Outcome, runtimeMs, memoryKB int64) model.TestCaseResult {
	return model.TestCaseResult{Index: idx, Outcome: outcome, RuntimeMs: runtimeMs, MemoryKB: memoryKB}
}

func TestComputeAllAccepted(t *testing.T) {
	agg := Compute([]model.TestCaseResult{
		result(0, model.OutcomeAccepted, 120, 1024),
		result(1, model.OutcomeAccepted, 340, 2048),
		result(2, model.OutcomeAccepted, 80, 512),
	})
	if agg.Verdict != model.OutcomeAccepted {
		t.Errorf("verdict = %s, want ACCEPTED", agg.Verdict)
	}
	if agg.FailedIndex != -1 {
		t.Errorf("failed index = %d, want -1", agg.FailedIndex)
	}
	if agg.RuntimeMs != 340 {
		t.Errorf("runtime = %d, want max 340", agg.RuntimeMs)
	}
	if agg.MemoryKB != 2048 {
		t.Errorf("memory = %d, want max 2048", agg.MemoryKB)
	}
}

func TestComputePrecedence(t *testing.T) {
	cases := []struct {
		name    string
		results []model.TestCaseResult
		want    model.Outcome
		wantIdx int
	}{
		{
			"compile error beats everything",
			[]model.TestCaseResult{
				result(0, model.OutcomeWrongAnswer, 0, 0),
				result(1, model.OutcomeCompileError, 0, 0),
				result(2, model.OutcomeTimeLimitExceeded, 0, 0),
			},
			model.OutcomeCompileError, 1,
		},
		{
			"runtime error beats memory and time",
			[]model.TestCaseResult{
				result(0, model.OutcomeTimeLimitExceeded, 0, 0),
				result(1, model.OutcomeMemoryLimitExceeded, 0, 0),
				result(2, model.OutcomeRuntimeError, 0, 0),
			},
			model.OutcomeRuntimeError, 2,
		},
		{
			"memory beats time",
			[]model.TestCaseResult{
				result(0, model.OutcomeTimeLimitExceeded, 0, 0),
				result(1, model.OutcomeMemoryLimitExceeded, 0, 0),
			},
			model.OutcomeMemoryLimitExceeded, 1,
		},
		{
			"one wrong answer among accepted",
			[]model.TestCaseResult{
				result(0, model.OutcomeAccepted, 0, 0),
				result(1, model.OutcomeWrongAnswer, 0, 0),
				result(2, model.OutcomeAccepted, 0, 0),
			},
			model.OutcomeWrongAnswer, 1,
		},
		{
			"earliest offending index wins ties",
			[]model.TestCaseResult{
				result(0, model.OutcomeAccepted, 0, 0),
				result(1, model.OutcomeWrongAnswer, 0, 0),
				result(2, model.OutcomeWrongAnswer, 0, 0),
			},
			model.OutcomeWrongAnswer, 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agg := Compute(tc.results)
			if agg.Verdict != tc.want {
				t.Errorf("verdict = %s, want %s", agg.Verdict, tc.want)
			}
			if agg.FailedIndex != tc.wantIdx {
				t.Errorf("failed index = %d, want %d", agg.FailedIndex, tc.wantIdx)
			}
		})
	}
}

func TestComputeEmptyResults(t *testing.T) {
	agg := Compute(nil)
	if agg.Verdict != model.OutcomeAccepted {
		t.Errorf("empty results should aggregate to ACCEPTED, got %s", agg.Verdict)
	}
}
