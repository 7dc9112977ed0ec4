package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Intake errors (validation, capacity)
// 12000-12999: Problem & test-case data errors
// 13000-13999: Grading infrastructure errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10004
	ServiceUnavailable  ErrorCode = 10005
	Timeout             ErrorCode = 10006

	// Database errors (10100-10199)
	DatabaseError  ErrorCode = 10100
	RecordNotFound ErrorCode = 10101

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Storage errors (10300-10399)
	StorageError ErrorCode = 10300

	// Validation errors (10400-10499)
	ValidationFailed   ErrorCode = 10400
	RequiredFieldEmpty ErrorCode = 10401

	// ========== Intake Errors (11000-11999) ==========

	// Validation (11000-11099)
	LanguageNotSupported ErrorCode = 11000
	CodeTooLarge         ErrorCode = 11001
	EmptyCode            ErrorCode = 11002

	// Capacity (11100-11199)
	QueueFull   ErrorCode = 11100
	RateLimited ErrorCode = 11101

	// Lookup (11200-11299)
	SubmissionNotFound ErrorCode = 11200

	// ========== Problem Data Errors (12000-12999) ==========

	ProblemNotFound   ErrorCode = 12000
	ProblemHasNoTests ErrorCode = 12001

	// ========== Grading Infrastructure Errors (13000-13999) ==========

	SandboxError       ErrorCode = 13000
	WorkspaceError     ErrorCode = 13001
	ProcessKillFailed  ErrorCode = 13002
	ResultPersistError ErrorCode = 13003
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Database
	DatabaseError:  "Database operation failed",
	RecordNotFound: "Record not found in database",

	// Cache
	CacheError: "Cache operation failed",

	// Storage
	StorageError: "Object storage operation failed",

	// Validation
	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	// Intake
	LanguageNotSupported: "Programming language not supported",
	CodeTooLarge:         "Source code is too large",
	EmptyCode:            "Source code is empty",
	QueueFull:            "Grading queue is full, please try again later",
	RateLimited:          "Too many submissions in flight, please wait",
	SubmissionNotFound:   "Submission not found",

	// Problem data
	ProblemNotFound:   "Problem not found",
	ProblemHasNoTests: "Problem has no test cases",

	// Grading infrastructure
	SandboxError:       "Sandbox execution failed",
	WorkspaceError:     "Sandbox workspace could not be prepared",
	ProcessKillFailed:  "Sandboxed process tree could not be terminated",
	ResultPersistError: "Grading result could not be persisted",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == SubmissionNotFound, c == ProblemNotFound:
		return 404
	case c == TooManyRequests, c == RateLimited:
		return 429
	case c == QueueFull, c == ServiceUnavailable:
		return 503
	case c >= 10400 && c < 10500: // Validation errors
		return 400
	case c == InvalidParams, c == LanguageNotSupported, c == CodeTooLarge, c == EmptyCode:
		return 400
	default:
		return 500
	}
}
