package model

// Outcome classifies the result of one test case run, or the aggregate
// verdict of a whole submission.
type Outcome string

const (
	OutcomeAccepted            Outcome = "ACCEPTED"
	OutcomeWrongAnswer         Outcome = "WRONG_ANSWER"
	OutcomeTimeLimitExceeded   Outcome = "TIME_LIMIT_EXCEEDED"
	OutcomeMemoryLimitExceeded Outcome = "MEMORY_LIMIT_EXCEEDED"
	OutcomeRuntimeError        Outcome = "RUNTIME_ERROR"
	OutcomeCompileError        Outcome = "COMPILE_ERROR"
)
