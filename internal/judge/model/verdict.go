package model

import "time"

// VerdictStatus is the closed set of final judge outcomes.
type VerdictStatus string

const (
	StatusExecuted          VerdictStatus = "Executed"
	StatusAccepted          VerdictStatus = "Accepted"
	StatusWrongAnswer       VerdictStatus = "Wrong Answer"
	StatusRuntimeError      VerdictStatus = "Runtime Error"
	StatusTimeLimitExceeded VerdictStatus = "Time Limit Exceeded"
	StatusCompilationError  VerdictStatus = "Compilation Error"
	StatusRateLimited       VerdictStatus = "Rate Limited"
	StatusSystemBusy        VerdictStatus = "System Busy"
	StatusInternalError     VerdictStatus = "Internal Error"
)

// Verdict is the judge's final answer for one JudgeRequest. Every code path
// through the judge resolves to exactly one Verdict; nothing escapes as an error.
type Verdict struct {
	Status        VerdictStatus
	Output        string
	ExecutionTime time.Duration

	// PassedTests and TotalTests are populated in submit mode only.
	PassedTests int
	TotalTests  int

	// RetryAfter is populated for Rate Limited verdicts.
	RetryAfter time.Duration
}
