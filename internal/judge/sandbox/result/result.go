// Package result defines raw sandbox execution outcomes.
package result

import "time"

// ErrorKind classifies how a sandboxed run failed, if at all.
type ErrorKind string

const (
	ErrNone        ErrorKind = "none"
	ErrRuntime     ErrorKind = "runtime-error"
	ErrTimeLimit   ErrorKind = "time-limit-exceeded"
	ErrMemoryLimit ErrorKind = "memory-limit-exceeded"
)

// RunOutcome captures one sandboxed execution. When Error is not ErrNone,
// Stdout is diagnostic only and must never be compared against expected output.
type RunOutcome struct {
	Error     ErrorKind
	Stdout    string
	Stderr    string
	ExitCode  int
	WallTime  time.Duration
	OomKilled bool
}

// Failed reports whether the run ended in any error classification.
func (o RunOutcome) Failed() bool {
	return o.Error != ErrNone
}
