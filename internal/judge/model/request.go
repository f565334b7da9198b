package model

// Mode selects the judge workflow for one request.
type Mode string

const (
	// ModeRun executes against one input with no correctness comparison.
	ModeRun Mode = "run"
	// ModeSubmit grades against all hidden test cases and persists the outcome.
	ModeSubmit Mode = "submit"
)

// JudgeRequest is the ephemeral input of one judge call.
// It is never persisted as-is; only the resulting Submission survives.
type JudgeRequest struct {
	ProblemID int64
	UserID    int64
	Code      string
	Mode      Mode

	// CustomInput overrides the first sample in run mode. Ignored in submit mode.
	CustomInput string
}
