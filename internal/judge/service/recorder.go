package service

import (
	"context"
	"time"

	"codearena/internal/judge/model"
	"codearena/internal/judge/repository"

	"github.com/google/uuid"
)

// XPAward is the flat XP granted per Accepted submission, independent of
// problem difficulty and prior attempt count.
const XPAward = 50

// ResultRecorder persists submission outcomes and applies XP side effects.
type ResultRecorder interface {
	Record(ctx context.Context, userID, problemID int64, code string, verdict model.Verdict) error
}

// Recorder implements ResultRecorder against the result store.
type Recorder struct {
	store repository.ResultStore
	now   func() time.Time
}

// NewRecorder creates a result recorder.
func NewRecorder(store repository.ResultStore) *Recorder {
	return &Recorder{
		store: store,
		now:   time.Now,
	}
}

// Record inserts the submission row unconditionally; history includes failed
// attempts. An Accepted verdict additionally awards XP, committed in the same
// transaction as the insert so the row and the award land together.
func (r *Recorder) Record(ctx context.Context, userID, problemID int64, code string, verdict model.Verdict) error {
	submission := &model.Submission{
		ID:            uuid.NewString(),
		UserID:        userID,
		ProblemID:     problemID,
		Code:          code,
		Status:        verdict.Status,
		Output:        verdict.Output,
		ExecutionTime: verdict.ExecutionTime,
		CreatedAt:     r.now(),
	}

	if verdict.Status == model.StatusAccepted {
		return r.store.SaveAccepted(ctx, submission, XPAward)
	}
	return r.store.SaveSubmission(ctx, submission)
}
