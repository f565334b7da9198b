package repository

import (
	"context"

	"codearena/internal/common/db"
	"codearena/internal/judge/model"
	appErr "codearena/pkg/errors"
)

// SubmissionRepository persists submission records. Append-only: the judge
// never updates or deletes a submission once written.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
}

// MySQLSubmissionRepository implements SubmissionRepository with MySQL.
type MySQLSubmissionRepository struct {
	db db.Queryer
}

// NewSubmissionRepository creates a submission repository.
func NewSubmissionRepository(database db.Queryer) *MySQLSubmissionRepository {
	return &MySQLSubmissionRepository{db: database}
}

// Create inserts a submission record.
func (r *MySQLSubmissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	if submission == nil {
		return appErr.ValidationError("submission", "required")
	}
	if submission.ID == "" {
		return appErr.ValidationError("submission_id", "required")
	}
	if submission.UserID <= 0 {
		return appErr.ValidationError("user_id", "required")
	}
	if submission.ProblemID <= 0 {
		return appErr.ValidationError("problem_id", "required")
	}

	query := `
		INSERT INTO submissions
		(submission_id, user_id, problem_id, code, status, output, execution_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(
		ctx,
		query,
		submission.ID,
		submission.UserID,
		submission.ProblemID,
		submission.Code,
		string(submission.Status),
		submission.Output,
		submission.ExecutionTime.Milliseconds(),
	)
	if err != nil {
		return appErr.Wrapf(err, appErr.SubmissionCreateFailed, "insert submission failed")
	}
	return nil
}
