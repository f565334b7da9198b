// Package sandbox provides the execution entrypoint used by the judge layer:
// write a submission into a throwaway workspace, run it through the engine
// under resource limits, and hand back the raw outcome.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codearena/internal/judge/sandbox/engine"
	"codearena/internal/judge/sandbox/result"
	"codearena/internal/judge/sandbox/spec"
	appErr "codearena/pkg/errors"
	"codearena/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPoolSize       = 4
	defaultAcquireTimeout = 2 * time.Second
	defaultGraceMargin    = 500 * time.Millisecond
	defaultMemoryLimitMB  = 256
	defaultOutputLimitKB  = 1024
	defaultPIDLimit       = 16
)

// Config holds executor settings.
type Config struct {
	// WorkRoot is the host directory under which per-run workspaces are created.
	WorkRoot string

	// PoolSize bounds concurrent sandboxed runs across all requests.
	PoolSize int
	// AcquireTimeout bounds how long a request may queue for an execution
	// slot before being rejected as System Busy.
	AcquireTimeout time.Duration

	// GraceMargin is added to the problem time limit to absorb interpreter
	// startup overhead before the wall-clock kill fires.
	GraceMargin time.Duration

	MemoryLimitMB int64
	OutputLimitKB int64
	PIDLimit      int64
}

// Executor runs one (source, stdin) pair per call through the sandbox engine.
type Executor struct {
	engine   engine.Engine
	workRoot string
	grace    time.Duration
	memoryMB int64
	outputKB int64
	pids     int64

	sem            chan struct{}
	acquireTimeout time.Duration
}

// NewExecutor creates an executor around the given engine.
func NewExecutor(cfg Config, eng engine.Engine) (*Executor, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg.WorkRoot == "" {
		return nil, fmt.Errorf("work root is required")
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if cfg.GraceMargin <= 0 {
		cfg.GraceMargin = defaultGraceMargin
	}
	if cfg.MemoryLimitMB <= 0 {
		cfg.MemoryLimitMB = defaultMemoryLimitMB
	}
	if cfg.OutputLimitKB <= 0 {
		cfg.OutputLimitKB = defaultOutputLimitKB
	}
	if cfg.PIDLimit <= 0 {
		cfg.PIDLimit = defaultPIDLimit
	}
	return &Executor{
		engine:         eng,
		workRoot:       cfg.WorkRoot,
		grace:          cfg.GraceMargin,
		memoryMB:       cfg.MemoryLimitMB,
		outputKB:       cfg.OutputLimitKB,
		pids:           cfg.PIDLimit,
		sem:            make(chan struct{}, cfg.PoolSize),
		acquireTimeout: cfg.AcquireTimeout,
	}, nil
}

// Execute runs the source against stdin under the given time limit.
// A JudgeQueueFull error means the slot pool stayed saturated past the
// acquire timeout; engine errors mean the run could not even start. Both are
// infrastructure failures, distinct from the program's own RunOutcome errors.
func (e *Executor) Execute(ctx context.Context, source, stdin string, timeLimit time.Duration) (result.RunOutcome, error) {
	if err := e.acquireSlot(ctx); err != nil {
		return result.RunOutcome{}, err
	}
	defer e.releaseSlot()

	runID := uuid.NewString()
	workDir := filepath.Join(e.workRoot, "run-"+runID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return result.RunOutcome{}, appErr.Wrapf(err, appErr.SandboxStartError, "create workspace failed")
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn(ctx, "cleanup workspace failed", zap.String("dir", workDir), zap.Error(err))
		}
	}()

	sourcePath := filepath.Join(workDir, "main.py")
	if err := os.WriteFile(sourcePath, []byte(source), 0644); err != nil {
		return result.RunOutcome{}, appErr.Wrapf(err, appErr.SandboxStartError, "write source failed")
	}
	stdinPath := filepath.Join(workDir, "stdin.txt")
	if err := os.WriteFile(stdinPath, []byte(stdin), 0644); err != nil {
		return result.RunOutcome{}, appErr.Wrapf(err, appErr.SandboxStartError, "write stdin failed")
	}

	runSpec := spec.RunSpec{
		RunID:      runID,
		WorkDir:    workDir,
		SourcePath: sourcePath,
		StdinPath:  stdinPath,
		Limits: spec.ResourceLimit{
			CPUTimeMs:  (timeLimit + e.grace).Milliseconds(),
			WallTimeMs: (timeLimit + e.grace).Milliseconds(),
			MemoryMB:   e.memoryMB,
			OutputKB:   e.outputKB,
			PIDs:       e.pids,
		},
	}

	outcome, err := e.engine.Run(ctx, runSpec)
	if err != nil {
		return result.RunOutcome{}, appErr.Wrapf(err, appErr.SandboxStartError, "sandbox run failed")
	}
	return outcome, nil
}

func (e *Executor) acquireSlot(ctx context.Context) error {
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return appErr.Wrap(ctx.Err(), appErr.Timeout)
	case <-time.After(e.acquireTimeout):
		return appErr.New(appErr.JudgeQueueFull).WithMessage("execution slot pool is full")
	}
}

func (e *Executor) releaseSlot() {
	select {
	case <-e.sem:
	default:
	}
}
