package errors

import "net/http"

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 12000-12999: Problem errors
// 13000-13999: Submission & Judge errors
// 14000-14999: Profile errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError ErrorCode = 10100

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// ========== Problem Errors (12000-12999) ==========

	ProblemNotFound ErrorCode = 12000
	ProblemInvalid  ErrorCode = 12001

	// ========== Submission & Judge Errors (13000-13999) ==========

	SubmissionCreateFailed ErrorCode = 13001
	CodeTooLarge           ErrorCode = 13002
	SubmitTooFrequently    ErrorCode = 13004
	SubmitCooldownActive   ErrorCode = 13005

	JudgeQueueFull    ErrorCode = 13100
	JudgeSystemError  ErrorCode = 13101
	ForbiddenSymbol   ErrorCode = 13102
	SandboxStartError ErrorCode = 13103

	// ========== Profile Errors (14000-14999) ==========

	ProfileNotFound   ErrorCode = 14000
	XPUpdateFailed    ErrorCode = 14001
	LevelRecomputeErr ErrorCode = 14002
)

var codeMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid request parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests",
	ServiceUnavailable:  "Service unavailable",
	Timeout:             "Request timeout",

	DatabaseError: "Database operation failed",
	CacheError:    "Cache operation failed",

	ProblemNotFound: "Problem not found",
	ProblemInvalid:  "Problem definition is invalid",

	SubmissionCreateFailed: "Failed to create submission",
	CodeTooLarge:           "Source code exceeds the size limit",
	SubmitTooFrequently:    "Submitting too frequently",
	SubmitCooldownActive:   "Submission cooldown is active",

	JudgeQueueFull:    "Judge queue is full",
	JudgeSystemError:  "Judge system error",
	ForbiddenSymbol:   "Source contains a forbidden symbol",
	SandboxStartError: "Sandbox failed to start",

	ProfileNotFound:   "Profile not found",
	XPUpdateFailed:    "Failed to update XP",
	LevelRecomputeErr: "Failed to recompute level",
}

var codeHTTPStatus = map[ErrorCode]int{
	Success:             http.StatusOK,
	InternalServerError: http.StatusInternalServerError,
	InvalidParams:       http.StatusBadRequest,
	NotFound:            http.StatusNotFound,
	TooManyRequests:     http.StatusTooManyRequests,
	ServiceUnavailable:  http.StatusServiceUnavailable,
	Timeout:             http.StatusGatewayTimeout,

	DatabaseError: http.StatusInternalServerError,
	CacheError:    http.StatusInternalServerError,

	ProblemNotFound: http.StatusNotFound,
	ProblemInvalid:  http.StatusUnprocessableEntity,

	SubmissionCreateFailed: http.StatusInternalServerError,
	CodeTooLarge:           http.StatusRequestEntityTooLarge,
	SubmitTooFrequently:    http.StatusTooManyRequests,
	SubmitCooldownActive:   http.StatusTooManyRequests,

	JudgeQueueFull:    http.StatusServiceUnavailable,
	JudgeSystemError:  http.StatusInternalServerError,
	ForbiddenSymbol:   http.StatusUnprocessableEntity,
	SandboxStartError: http.StatusInternalServerError,

	ProfileNotFound:   http.StatusNotFound,
	XPUpdateFailed:    http.StatusInternalServerError,
	LevelRecomputeErr: http.StatusInternalServerError,
}

// Message returns the default human-readable message for the code.
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the HTTP status code mapped to the error code.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := codeHTTPStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}
