package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"codearena/internal/judge/model"
	"codearena/internal/judge/ratelimit"
	"codearena/internal/judge/sandbox/result"
	appErr "codearena/pkg/errors"
)

type fakeLimiter struct {
	decision ratelimit.Decision
	admitErr error
	failures int
}

func (l *fakeLimiter) Admit(ctx context.Context, userID int64) (ratelimit.Decision, error) {
	return l.decision, l.admitErr
}

func (l *fakeLimiter) MarkFailure(ctx context.Context, userID int64) error {
	l.failures++
	return nil
}

func allowAll() *fakeLimiter {
	return &fakeLimiter{decision: ratelimit.Decision{Allowed: true, Remaining: 9, ResetIn: time.Minute}}
}

type fakeExecutor struct {
	outcomes []result.RunOutcome
	err      error
	calls    int
	inputs   []string
}

func (e *fakeExecutor) Execute(ctx context.Context, source, stdin string, timeLimit time.Duration) (result.RunOutcome, error) {
	e.calls++
	e.inputs = append(e.inputs, stdin)
	if e.err != nil {
		return result.RunOutcome{}, e.err
	}
	if len(e.outcomes) == 0 {
		return result.RunOutcome{Error: result.ErrNone}, nil
	}
	outcome := e.outcomes[0]
	if len(e.outcomes) > 1 {
		e.outcomes = e.outcomes[1:]
	}
	return outcome, nil
}

type fakeProblems struct {
	problem *model.Problem
	err     error
}

func (p *fakeProblems) GetByID(ctx context.Context, problemID int64) (*model.Problem, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.problem, nil
}

type fakeRecorder struct {
	verdicts []model.Verdict
	err      error
}

func (r *fakeRecorder) Record(ctx context.Context, userID, problemID int64, code string, verdict model.Verdict) error {
	if r.err != nil {
		return r.err
	}
	r.verdicts = append(r.verdicts, verdict)
	return nil
}

func sumProblem(testcases ...model.TestCase) *model.Problem {
	return &model.Problem{
		ID:         1,
		Title:      "A Plus B",
		Difficulty: model.DifficultyEasy,
		Samples:    []model.Sample{{Input: "3 7", Output: "10"}},
		TestCases:  testcases,
		TimeLimit:  2 * time.Second,
	}
}

func newServiceForTest(t *testing.T, limiter ratelimit.Limiter, problems *fakeProblems, executor *fakeExecutor, recorder *fakeRecorder) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Limiter:  limiter,
		Problems: problems,
		Executor: executor,
		Recorder: recorder,
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func submitRequest(code string) model.JudgeRequest {
	return model.JudgeRequest{ProblemID: 1, UserID: 5, Code: code, Mode: model.ModeSubmit}
}

func TestSubmitAccepted(t *testing.T) {
	executor := &fakeExecutor{outcomes: []result.RunOutcome{
		{Error: result.ErrNone, Stdout: " 10 \n", WallTime: 40 * time.Millisecond},
	}}
	recorder := &fakeRecorder{}
	svc := newServiceForTest(t, allowAll(),
		&fakeProblems{problem: sumProblem(model.TestCase{Input: "3 7", Output: "10"})},
		executor, recorder)

	verdict := svc.Judge(context.Background(), submitRequest("a, b = map(int, input().split())\nprint(a + b)"))

	if verdict.Status != model.StatusAccepted {
		t.Fatalf("status = %q, want Accepted (output: %s)", verdict.Status, verdict.Output)
	}
	if verdict.PassedTests != 1 || verdict.TotalTests != 1 {
		t.Fatalf("passed/total = %d/%d, want 1/1", verdict.PassedTests, verdict.TotalTests)
	}
	if verdict.ExecutionTime != 40*time.Millisecond {
		t.Fatalf("execution time = %v", verdict.ExecutionTime)
	}
	if len(recorder.verdicts) != 1 || recorder.verdicts[0].Status != model.StatusAccepted {
		t.Fatalf("recorded verdicts = %+v, want one Accepted", recorder.verdicts)
	}
}

func TestSubmitValidationFailureSkipsExecutor(t *testing.T) {
	executor := &fakeExecutor{}
	limiter := allowAll()
	recorder := &fakeRecorder{}
	svc := newServiceForTest(t, limiter,
		&fakeProblems{problem: sumProblem(model.TestCase{Input: "3 7", Output: "10"})},
		executor, recorder)

	verdict := svc.Judge(context.Background(), submitRequest("import os\nos.system('ls')"))

	if verdict.Status != model.StatusCompilationError {
		t.Fatalf("status = %q, want Compilation Error", verdict.Status)
	}
	if !strings.Contains(verdict.Output, "os") {
		t.Fatalf("output %q does not name the blocked symbol", verdict.Output)
	}
	if executor.calls != 0 {
		t.Fatalf("executor invoked %d times, want 0", executor.calls)
	}
	if limiter.failures != 1 {
		t.Fatalf("failure marks = %d, want 1", limiter.failures)
	}
	if len(recorder.verdicts) != 1 {
		t.Fatalf("submission not recorded on validation failure")
	}
}

func TestSubmitStopsAtFirstMismatch(t *testing.T) {
	executor := &fakeExecutor{outcomes: []result.RunOutcome{
		{Error: result.ErrNone, Stdout: "1\n"},
		{Error: result.ErrNone, Stdout: "wrong\n"},
		{Error: result.ErrNone, Stdout: "3\n"},
	}}
	recorder := &fakeRecorder{}
	svc := newServiceForTest(t, allowAll(),
		&fakeProblems{problem: sumProblem(
			model.TestCase{Input: "1", Output: "1"},
			model.TestCase{Input: "2", Output: "2"},
			model.TestCase{Input: "3", Output: "3"},
		)},
		executor, recorder)

	verdict := svc.Judge(context.Background(), submitRequest("print(input())"))

	if verdict.Status != model.StatusWrongAnswer {
		t.Fatalf("status = %q, want Wrong Answer", verdict.Status)
	}
	if executor.calls != 2 {
		t.Fatalf("executor invoked %d times, want 2 (stop at first mismatch)", executor.calls)
	}
	if verdict.PassedTests != 1 || verdict.TotalTests != 3 {
		t.Fatalf("passed/total = %d/%d, want 1/3", verdict.PassedTests, verdict.TotalTests)
	}
	if !strings.Contains(verdict.Output, `"2"`) || !strings.Contains(verdict.Output, `"wrong"`) {
		t.Fatalf("output %q does not name expected and actual values", verdict.Output)
	}
}

func TestSubmitStopsAtFirstError(t *testing.T) {
	executor := &fakeExecutor{outcomes: []result.RunOutcome{
		{Error: result.ErrNone, Stdout: "1\n", WallTime: 10 * time.Millisecond},
		{Error: result.ErrTimeLimit, WallTime: 2500 * time.Millisecond},
	}}
	recorder := &fakeRecorder{}
	svc := newServiceForTest(t, allowAll(),
		&fakeProblems{problem: sumProblem(
			model.TestCase{Input: "1", Output: "1"},
			model.TestCase{Input: "2", Output: "2"},
			model.TestCase{Input: "3", Output: "3"},
		)},
		executor, recorder)

	verdict := svc.Judge(context.Background(), submitRequest("while True: pass"))

	if verdict.Status != model.StatusTimeLimitExceeded {
		t.Fatalf("status = %q, want Time Limit Exceeded", verdict.Status)
	}
	if executor.calls != 2 {
		t.Fatalf("executor invoked %d times, want 2 (stop at first error)", executor.calls)
	}
	if verdict.ExecutionTime != 2510*time.Millisecond {
		t.Fatalf("execution time = %v, want accumulated 2.51s", verdict.ExecutionTime)
	}
	if len(recorder.verdicts) != 1 || recorder.verdicts[0].Status != model.StatusTimeLimitExceeded {
		t.Fatalf("recorded verdicts = %+v", recorder.verdicts)
	}
}

func TestSubmitRuntimeErrorUsesStderr(t *testing.T) {
	executor := &fakeExecutor{outcomes: []result.RunOutcome{
		{Error: result.ErrRuntime, Stderr: "ZeroDivisionError: division by zero", ExitCode: 1},
	}}
	svc := newServiceForTest(t, allowAll(),
		&fakeProblems{problem: sumProblem(model.TestCase{Input: "0", Output: "0"})},
		executor, &fakeRecorder{})

	verdict := svc.Judge(context.Background(), submitRequest("print(1/0)"))

	if verdict.Status != model.StatusRuntimeError {
		t.Fatalf("status = %q, want Runtime Error", verdict.Status)
	}
	if !strings.Contains(verdict.Output, "ZeroDivisionError") {
		t.Fatalf("output %q does not carry the diagnostic", verdict.Output)
	}
}

func TestSubmitMemoryLimitMapsToRuntimeError(t *testing.T) {
	executor := &fakeExecutor{outcomes: []result.RunOutcome{
		{Error: result.ErrMemoryLimit, OomKilled: true, ExitCode: -1},
	}}
	svc := newServiceForTest(t, allowAll(),
		&fakeProblems{problem: sumProblem(model.TestCase{Input: "", Output: ""})},
		executor, &fakeRecorder{})

	verdict := svc.Judge(context.Background(), submitRequest("x = 'a' * (1 << 40)"))

	if verdict.Status != model.StatusRuntimeError {
		t.Fatalf("status = %q, want Runtime Error", verdict.Status)
	}
	if !strings.Contains(verdict.Output, "Memory limit exceeded") {
		t.Fatalf("output %q does not mention the memory limit", verdict.Output)
	}
}

func TestOutputComparisonTrimsOnly(t *testing.T) {
	cases := []struct {
		name     string
		stdout   string
		expected string
		accepted bool
	}{
		{"surrounding whitespace", " 5 \n", "5", true},
		{"trailing space vs tab", "5 ", "5\t", true},
		{"interior whitespace differs", "1  2", "1 2", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			executor := &fakeExecutor{outcomes: []result.RunOutcome{
				{Error: result.ErrNone, Stdout: tc.stdout},
			}}
			svc := newServiceForTest(t, allowAll(),
				&fakeProblems{problem: sumProblem(model.TestCase{Input: "", Output: tc.expected})},
				executor, &fakeRecorder{})

			verdict := svc.Judge(context.Background(), submitRequest("print(5)"))
			got := verdict.Status == model.StatusAccepted
			if got != tc.accepted {
				t.Fatalf("stdout %q vs expected %q: status = %q", tc.stdout, tc.expected, verdict.Status)
			}
		})
	}
}

func TestRateLimitedVerdict(t *testing.T) {
	limiter := &fakeLimiter{decision: ratelimit.Decision{Allowed: false, RetryAfter: 30 * time.Second}}
	executor := &fakeExecutor{}
	svc := newServiceForTest(t, limiter,
		&fakeProblems{problem: sumProblem(model.TestCase{Input: "", Output: ""})},
		executor, &fakeRecorder{})

	verdict := svc.Judge(context.Background(), submitRequest("print(5)"))

	if verdict.Status != model.StatusRateLimited {
		t.Fatalf("status = %q, want Rate Limited", verdict.Status)
	}
	if verdict.RetryAfter != 30*time.Second {
		t.Fatalf("retry after = %v, want 30s", verdict.RetryAfter)
	}
	if executor.calls != 0 {
		t.Fatalf("executor invoked %d times during rate-limited request", executor.calls)
	}
}

func TestSystemBusyVerdict(t *testing.T) {
	executor := &fakeExecutor{err: appErr.New(appErr.JudgeQueueFull)}
	recorder := &fakeRecorder{}
	svc := newServiceForTest(t, allowAll(),
		&fakeProblems{problem: sumProblem(model.TestCase{Input: "", Output: ""})},
		executor, recorder)

	verdict := svc.Judge(context.Background(), submitRequest("print(5)"))

	if verdict.Status != model.StatusSystemBusy {
		t.Fatalf("status = %q, want System Busy", verdict.Status)
	}
	if len(recorder.verdicts) != 0 {
		t.Fatal("busy rejection must not be recorded as a submission")
	}
}

func TestRunModeNeverCompares(t *testing.T) {
	executor := &fakeExecutor{outcomes: []result.RunOutcome{
		{Error: result.ErrNone, Stdout: "definitely not 10\n", WallTime: 5 * time.Millisecond},
	}}
	recorder := &fakeRecorder{}
	svc := newServiceForTest(t, allowAll(),
		&fakeProblems{problem: sumProblem(model.TestCase{Input: "3 7", Output: "10"})},
		executor, recorder)

	verdict := svc.Judge(context.Background(), model.JudgeRequest{
		ProblemID: 1, UserID: 5, Code: "print('definitely not 10')", Mode: model.ModeRun,
	})

	if verdict.Status != model.StatusExecuted {
		t.Fatalf("status = %q, want Executed", verdict.Status)
	}
	if verdict.Output != "definitely not 10\n" {
		t.Fatalf("output = %q, want verbatim stdout", verdict.Output)
	}
	if executor.calls != 1 {
		t.Fatalf("executor invoked %d times, want 1", executor.calls)
	}
	if executor.inputs[0] != "3 7" {
		t.Fatalf("run input = %q, want first sample input", executor.inputs[0])
	}
	if len(recorder.verdicts) != 0 {
		t.Fatal("run mode must not be recorded")
	}
}

func TestRunModeCustomInput(t *testing.T) {
	executor := &fakeExecutor{outcomes: []result.RunOutcome{{Error: result.ErrNone, Stdout: "9\n"}}}
	svc := newServiceForTest(t, allowAll(),
		&fakeProblems{problem: sumProblem(model.TestCase{Input: "3 7", Output: "10"})},
		executor, &fakeRecorder{})

	svc.Judge(context.Background(), model.JudgeRequest{
		ProblemID: 1, UserID: 5, Code: "print(sum(map(int, input().split())))",
		Mode: model.ModeRun, CustomInput: "4 5",
	})

	if executor.inputs[0] != "4 5" {
		t.Fatalf("run input = %q, want custom input", executor.inputs[0])
	}
}

func TestProblemLookupFailure(t *testing.T) {
	svc := newServiceForTest(t, allowAll(),
		&fakeProblems{err: appErr.New(appErr.ProblemNotFound)},
		&fakeExecutor{}, &fakeRecorder{})

	verdict := svc.Judge(context.Background(), submitRequest("print(5)"))

	if verdict.Status != model.StatusInternalError {
		t.Fatalf("status = %q, want Internal Error", verdict.Status)
	}
}

func TestRecorderFailureBecomesInternalError(t *testing.T) {
	executor := &fakeExecutor{outcomes: []result.RunOutcome{{Error: result.ErrNone, Stdout: "10"}}}
	recorder := &fakeRecorder{err: appErr.New(appErr.DatabaseError)}
	svc := newServiceForTest(t, allowAll(),
		&fakeProblems{problem: sumProblem(model.TestCase{Input: "3 7", Output: "10"})},
		executor, recorder)

	verdict := svc.Judge(context.Background(), submitRequest("print(10)"))

	if verdict.Status != model.StatusInternalError {
		t.Fatalf("status = %q, want Internal Error when persistence fails", verdict.Status)
	}
}
