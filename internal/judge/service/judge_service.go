// Package service orchestrates the judge pipeline: admission, validation,
// sandboxed execution, comparison, and result recording.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"codearena/internal/judge/metrics"
	"codearena/internal/judge/model"
	"codearena/internal/judge/ratelimit"
	"codearena/internal/judge/repository"
	"codearena/internal/judge/sandbox/result"
	"codearena/internal/judge/validator"
	appErr "codearena/pkg/errors"
	"codearena/pkg/utils/logger"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"
)

// Executor runs one (source, stdin) pair through the sandbox.
type Executor interface {
	Execute(ctx context.Context, source, stdin string, timeLimit time.Duration) (result.RunOutcome, error)
}

// Service handles judge requests end to end. Every code path resolves to a
// Verdict; the judge never propagates an error past its own boundary.
type Service struct {
	limiter  ratelimit.Limiter
	problems repository.ProblemRepository
	executor Executor
	recorder ResultRecorder
}

// Config holds service dependencies.
type Config struct {
	Limiter  ratelimit.Limiter
	Problems repository.ProblemRepository
	Executor Executor
	Recorder ResultRecorder
}

// NewService creates a judge service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Limiter == nil {
		return nil, fmt.Errorf("limiter is required")
	}
	if cfg.Problems == nil {
		return nil, fmt.Errorf("problem repository is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	return &Service{
		limiter:  cfg.Limiter,
		problems: cfg.Problems,
		executor: cfg.Executor,
		recorder: cfg.Recorder,
	}, nil
}

// Judge processes one request and returns its verdict.
func (s *Service) Judge(ctx context.Context, req model.JudgeRequest) model.Verdict {
	verdict := s.judge(ctx, req)
	metrics.JudgeRequestsTotal.WithLabelValues(string(req.Mode), string(verdict.Status)).Inc()
	return verdict
}

func (s *Service) judge(ctx context.Context, req model.JudgeRequest) model.Verdict {
	decision, err := s.limiter.Admit(ctx, req.UserID)
	if err != nil {
		logger.Error(ctx, "rate limit check failed", zap.Int64("user_id", req.UserID), zap.Error(err))
		return internalVerdict("Rate limit check failed. Please try again.")
	}
	if !decision.Allowed {
		metrics.RateLimitedTotal.Inc()
		return model.Verdict{
			Status:     model.StatusRateLimited,
			Output:     fmt.Sprintf("Too many requests. Try again in %s.", humanDuration(decision.RetryAfter)),
			RetryAfter: decision.RetryAfter,
		}
	}

	if err := validator.Validate(req.Code); err != nil {
		if markErr := s.limiter.MarkFailure(ctx, req.UserID); markErr != nil {
			logger.Warn(ctx, "mark validation failure failed", zap.Int64("user_id", req.UserID), zap.Error(markErr))
		}
		verdict := model.Verdict{
			Status: model.StatusCompilationError,
			Output: err.Error(),
		}
		if req.Mode == model.ModeSubmit {
			return s.record(ctx, req, verdict)
		}
		return verdict
	}

	problem, err := s.problems.GetByID(ctx, req.ProblemID)
	if err != nil {
		logger.Error(ctx, "problem lookup failed", zap.Int64("problem_id", req.ProblemID), zap.Error(err))
		return internalVerdict("Problem lookup failed. Please try again.")
	}

	if req.Mode == model.ModeRun {
		return s.runSample(ctx, problem, req)
	}
	return s.runFull(ctx, problem, req)
}

// runSample executes exactly one test without correctness comparison.
func (s *Service) runSample(ctx context.Context, problem *model.Problem, req model.JudgeRequest) model.Verdict {
	input := req.CustomInput
	if input == "" && len(problem.Samples) > 0 {
		input = problem.Samples[0].Input
	}

	outcome, err := s.executor.Execute(ctx, req.Code, input, problem.TimeLimit)
	if err != nil {
		return executionFailureVerdict(ctx, err)
	}
	metrics.ExecutionDuration.Observe(outcome.WallTime.Seconds())

	verdict := model.Verdict{ExecutionTime: outcome.WallTime}
	switch outcome.Error {
	case result.ErrTimeLimit:
		verdict.Status = model.StatusTimeLimitExceeded
		verdict.Output = timeLimitMessage(problem.TimeLimit)
	case result.ErrRuntime, result.ErrMemoryLimit:
		verdict.Status = model.StatusRuntimeError
		verdict.Output = runtimeErrorMessage(outcome)
	default:
		verdict.Status = model.StatusExecuted
		verdict.Output = outcome.Stdout
	}
	return verdict
}

// runFull grades against all hidden test cases in order, stopping at the
// first failure. Later cases never execute after an earlier one has failed.
func (s *Service) runFull(ctx context.Context, problem *model.Problem, req model.JudgeRequest) model.Verdict {
	total := len(problem.TestCases)
	if total == 0 {
		logger.Error(ctx, "problem has no test cases", zap.Int64("problem_id", problem.ID))
		return internalVerdict("Problem has no test cases.")
	}

	var elapsed time.Duration
	for i, tc := range problem.TestCases {
		outcome, err := s.executor.Execute(ctx, req.Code, tc.Input, problem.TimeLimit)
		if err != nil {
			return executionFailureVerdict(ctx, err)
		}
		metrics.ExecutionDuration.Observe(outcome.WallTime.Seconds())
		elapsed += outcome.WallTime

		verdict := model.Verdict{
			ExecutionTime: elapsed,
			PassedTests:   i,
			TotalTests:    total,
		}
		switch outcome.Error {
		case result.ErrTimeLimit:
			verdict.Status = model.StatusTimeLimitExceeded
			verdict.Output = timeLimitMessage(problem.TimeLimit)
			return s.record(ctx, req, verdict)
		case result.ErrRuntime, result.ErrMemoryLimit:
			verdict.Status = model.StatusRuntimeError
			verdict.Output = runtimeErrorMessage(outcome)
			return s.record(ctx, req, verdict)
		}

		expected := strings.TrimSpace(tc.Output)
		actual := strings.TrimSpace(outcome.Stdout)
		if expected != actual {
			verdict.Status = model.StatusWrongAnswer
			verdict.Output = wrongAnswerMessage(expected, actual)
			return s.record(ctx, req, verdict)
		}
	}

	verdict := model.Verdict{
		Status:        model.StatusAccepted,
		Output:        "All test cases passed",
		ExecutionTime: elapsed,
		PassedTests:   total,
		TotalTests:    total,
	}
	return s.record(ctx, req, verdict)
}

// record persists the verdict; a persistence failure downgrades the verdict
// to Internal Error so the caller is not told a result that was never stored.
func (s *Service) record(ctx context.Context, req model.JudgeRequest, verdict model.Verdict) model.Verdict {
	if err := s.recorder.Record(ctx, req.UserID, req.ProblemID, req.Code, verdict); err != nil {
		logger.Error(ctx, "record submission failed",
			zap.Int64("user_id", req.UserID),
			zap.Int64("problem_id", req.ProblemID),
			zap.Error(err))
		return internalVerdict("Failed to save your submission. Please try again.")
	}
	return verdict
}

func executionFailureVerdict(ctx context.Context, err error) model.Verdict {
	if appErr.Is(err, appErr.JudgeQueueFull) {
		return model.Verdict{
			Status: model.StatusSystemBusy,
			Output: "The judge is busy. Please try again shortly.",
		}
	}
	metrics.SandboxFailures.Inc()
	logger.Error(ctx, "sandbox execution failed", zap.Error(err))
	return internalVerdict("Execution failed. Please try again.")
}

func internalVerdict(message string) model.Verdict {
	return model.Verdict{
		Status: model.StatusInternalError,
		Output: message,
	}
}

func timeLimitMessage(limit time.Duration) string {
	return fmt.Sprintf("Time limit exceeded (%s)", humanDuration(limit))
}

func runtimeErrorMessage(outcome result.RunOutcome) string {
	if outcome.OomKilled || outcome.Error == result.ErrMemoryLimit {
		return "Memory limit exceeded"
	}
	diagnostic := strings.TrimSpace(outcome.Stderr)
	if diagnostic == "" {
		diagnostic = fmt.Sprintf("process exited with code %d", outcome.ExitCode)
	}
	return diagnostic
}

// wrongAnswerMessage names the expected and actual trimmed outputs for the
// first failing case, with a unified diff for multi-line outputs.
func wrongAnswerMessage(expected, actual string) string {
	msg := fmt.Sprintf("Expected %q but got %q", expected, actual)
	if strings.Contains(expected, "\n") || strings.Contains(actual, "\n") {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(expected),
			B:        difflib.SplitLines(actual),
			FromFile: "expected",
			ToFile:   "actual",
			Context:  2,
		})
		if err == nil && diff != "" {
			msg += "\n" + diff
		}
	}
	return msg
}

func humanDuration(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("%ds", seconds)
}
