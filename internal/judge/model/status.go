package model

// Status is the lifecycle state of a submission.
type Status string

const (
	// StatusPending means the submission was accepted into the queue.
	StatusPending Status = "PENDING"
	// StatusRunning means a worker claimed the submission and grading started.
	StatusRunning Status = "RUNNING"

	// Terminal states. No transition ever leaves a terminal state.
	StatusAccepted            Status = "ACCEPTED"
	StatusWrongAnswer         Status = "WRONG_ANSWER"
	StatusTimeLimitExceeded   Status = "TIME_LIMIT_EXCEEDED"
	StatusMemoryLimitExceeded Status = "MEMORY_LIMIT_EXCEEDED"
	StatusRuntimeError        Status = "RUNTIME_ERROR"
	StatusCompileError        Status = "COMPILE_ERROR"
	StatusSystemError         Status = "SYSTEM_ERROR"
)

// IsTerminal reports whether s is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusWrongAnswer, StatusTimeLimitExceeded,
		StatusMemoryLimitExceeded, StatusRuntimeError, StatusCompileError,
		StatusSystemError:
		return true
	}
	return false
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusRunning || s.IsTerminal()
}

// CanTransition reports whether moving from s to next is a legal,
// forward-only transition. PENDING may go to RUNNING or, when grading
// never starts (infrastructure failure at claim time), straight to
// SYSTEM_ERROR. RUNNING may go to any terminal state. Terminal states
// accept nothing.
func (s Status) CanTransition(next Status) bool {
	if !next.IsValid() {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusSystemError
	case StatusRunning:
		return next.IsTerminal()
	}
	return false
}

// StatusForOutcome maps an aggregate verdict to its terminal status.
func StatusForOutcome(o Outcome) Status {
	switch o {
	case OutcomeAccepted:
		return StatusAccepted
	case OutcomeWrongAnswer:
		return StatusWrongAnswer
	case OutcomeTimeLimitExceeded:
		return StatusTimeLimitExceeded
	case OutcomeMemoryLimitExceeded:
		return StatusMemoryLimitExceeded
	case OutcomeRuntimeError:
		return StatusRuntimeError
	case OutcomeCompileError:
		return StatusCompileError
	}
	return StatusSystemError
}
