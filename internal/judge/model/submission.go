package model

import "time"

// Submission is the persisted record of one submit-mode judge run.
// Append-only: the judge never updates or deletes submissions.
type Submission struct {
	ID            string
	UserID        int64
	ProblemID     int64
	Code          string
	Status        VerdictStatus
	Output        string
	ExecutionTime time.Duration
	CreatedAt     time.Time
}
