package repository

import (
	"context"

	"codearena/internal/common/db"
	"codearena/internal/judge/model"
)

// ResultStore persists judge outcomes.
type ResultStore interface {
	// SaveSubmission inserts a submission record.
	SaveSubmission(ctx context.Context, submission *model.Submission) error

	// SaveAccepted inserts the submission record and awards XP in one
	// transaction, so an accepted result never lands without its XP.
	SaveAccepted(ctx context.Context, submission *model.Submission, xp int) error
}

// MySQLResultStore implements ResultStore against the shared database.
type MySQLResultStore struct {
	db db.Database
}

// NewResultStore creates a result store.
func NewResultStore(database db.Database) *MySQLResultStore {
	return &MySQLResultStore{db: database}
}

// SaveSubmission inserts a submission record outside a transaction.
func (s *MySQLResultStore) SaveSubmission(ctx context.Context, submission *model.Submission) error {
	return NewSubmissionRepository(s.db).Create(ctx, submission)
}

// SaveAccepted inserts the submission and applies the XP award atomically.
func (s *MySQLResultStore) SaveAccepted(ctx context.Context, submission *model.Submission, xp int) error {
	return s.db.Transaction(ctx, func(q db.Queryer) error {
		if err := NewSubmissionRepository(q).Create(ctx, submission); err != nil {
			return err
		}
		return NewProfileRepository(q).AwardXP(ctx, submission.UserID, xp)
	})
}
