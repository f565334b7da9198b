package repository

import (
	"context"
	"time"

	"codearena/internal/common/db"
	"codearena/internal/judge/model"
	appErr "codearena/pkg/errors"
)

// ProblemRepository reads problem definitions. The judge never writes problems.
type ProblemRepository interface {
	GetByID(ctx context.Context, problemID int64) (*model.Problem, error)
}

// MySQLProblemRepository implements ProblemRepository with MySQL.
type MySQLProblemRepository struct {
	db db.Queryer
}

// NewProblemRepository creates a problem repository.
func NewProblemRepository(database db.Queryer) *MySQLProblemRepository {
	return &MySQLProblemRepository{db: database}
}

// GetByID loads one problem with its ordered samples and hidden test cases.
func (r *MySQLProblemRepository) GetByID(ctx context.Context, problemID int64) (*model.Problem, error) {
	if problemID <= 0 {
		return nil, appErr.ValidationError("problem_id", "required")
	}

	query := `
		SELECT id, title, difficulty, statement, input_format, output_format, constraints, time_limit_ms
		FROM problems
		WHERE id = ?
	`
	var problem model.Problem
	var timeLimitMs int64
	err := r.db.QueryRow(ctx, query, problemID).Scan(
		&problem.ID,
		&problem.Title,
		&problem.Difficulty,
		&problem.Statement,
		&problem.InputFormat,
		&problem.OutputFormat,
		&problem.Constraints,
		&timeLimitMs,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, appErr.New(appErr.ProblemNotFound)
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "load problem failed")
	}
	problem.TimeLimit = time.Duration(timeLimitMs) * time.Millisecond

	samples, err := r.loadSamples(ctx, problemID)
	if err != nil {
		return nil, err
	}
	problem.Samples = samples

	testcases, err := r.loadTestCases(ctx, problemID)
	if err != nil {
		return nil, err
	}
	problem.TestCases = testcases

	return &problem, nil
}

func (r *MySQLProblemRepository) loadSamples(ctx context.Context, problemID int64) ([]model.Sample, error) {
	query := `
		SELECT input, output, explanation
		FROM problem_samples
		WHERE problem_id = ?
		ORDER BY position
	`
	rows, err := r.db.Query(ctx, query, problemID)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "load samples failed")
	}
	defer rows.Close()

	var samples []model.Sample
	for rows.Next() {
		var s model.Sample
		if err := rows.Scan(&s.Input, &s.Output, &s.Explanation); err != nil {
			return nil, appErr.Wrapf(err, appErr.DatabaseError, "scan sample failed")
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "iterate samples failed")
	}
	return samples, nil
}

func (r *MySQLProblemRepository) loadTestCases(ctx context.Context, problemID int64) ([]model.TestCase, error) {
	query := `
		SELECT input, output
		FROM problem_testcases
		WHERE problem_id = ?
		ORDER BY position
	`
	rows, err := r.db.Query(ctx, query, problemID)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "load testcases failed")
	}
	defer rows.Close()

	var testcases []model.TestCase
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.Input, &tc.Output); err != nil {
			return nil, appErr.Wrapf(err, appErr.DatabaseError, "scan testcase failed")
		}
		testcases = append(testcases, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "iterate testcases failed")
	}
	return testcases, nil
}
