package model

import "time"

// Submission is one grading request. The engine owns it from the moment
// a worker claims it until it reaches a terminal state; before and after
// that, the persistence layer is authoritative.
type Submission struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	ProblemID  string    `json:"problemId"`
	LanguageID string    `json:"languageId"`
	SourceCode string    `json:"-"`
	SourceKey  string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`

	Status          Status           `json:"status"`
	Verdict         Outcome          `json:"verdict,omitempty"`
	RuntimeMs       int64            `json:"runtimeMs,omitempty"`
	MemoryKB        int64            `json:"memoryKb,omitempty"`
	TestCaseResults []TestCaseResult `json:"testCaseResults,omitempty"`
}

// TestCaseResult records the outcome of one test case, in problem order.
type TestCaseResult struct {
	Index        int     `json:"index"`
	Outcome      Outcome `json:"outcome"`
	ActualOutput string  `json:"actualOutput,omitempty"`
	RuntimeMs    int64   `json:"runtimeMs"`
	MemoryKB     int64   `json:"memoryKb"`
	ErrorDetail  string  `json:"errorDetail,omitempty"`
}

// TestCase is one (input, expected output) pair of a problem.
type TestCase struct {
	Input          string
	ExpectedOutput string
	IsSample       bool
}

// Problem carries the test cases and optional limit overrides the engine
// needs for grading. It is read-only from the engine's perspective.
type Problem struct {
	ID        string
	Title     string
	TestCases []TestCase

	// Zero values mean "use the language default".
	TimeLimitMs   int64
	MemoryLimitMB int64
}

// SampleTestCases returns the subset of test cases marked as samples,
// preserving problem order.
func (p *Problem) SampleTestCases() []TestCase {
	var samples []TestCase
	for _, tc := range p.TestCases {
		if tc.IsSample {
			samples = append(samples, tc)
		}
	}
	return samples
}

// Limits is the effective per-test-case resource budget.
type Limits struct {
	TimeLimitMs   int64
	MemoryLimitMB int64
}

// EffectiveLimits merges problem overrides onto language defaults.
// Limits always come from the problem or the language, never from the
// submitted code.
func EffectiveLimits(p *Problem, defaultTimeMs, defaultMemoryMB int64) Limits {
	limits := Limits{
		TimeLimitMs:   defaultTimeMs,
		MemoryLimitMB: defaultMemoryMB,
	}
	if p.TimeLimitMs > 0 {
		limits.TimeLimitMs = p.TimeLimitMs
	}
	if p.MemoryLimitMB > 0 {
		limits.MemoryLimitMB = p.MemoryLimitMB
	}
	return limits
}
