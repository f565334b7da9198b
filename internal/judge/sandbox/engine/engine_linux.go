//go:build linux

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"codearena/internal/judge/sandbox/result"
	"codearena/internal/judge/sandbox/spec"
	"codearena/pkg/utils/logger"

	"go.uber.org/zap"
)

type linuxEngine struct {
	cfg Config
}

// NewEngine creates a Linux sandbox engine.
func NewEngine(cfg Config) (Engine, error) {
	cfg.applyDefaults()
	if cfg.EnableCgroup && cfg.CgroupRoot == "" {
		return nil, fmt.Errorf("cgroup root is required when cgroups are enabled")
	}
	if cfg.EnableNamespaces && cfg.RootFS == "" {
		return nil, fmt.Errorf("rootfs is required when namespaces are enabled")
	}
	if cfg.EnableSeccomp && cfg.SeccompProfile == "" {
		return nil, fmt.Errorf("seccomp profile is required when seccomp is enabled")
	}
	return &linuxEngine{cfg: cfg}, nil
}

// Run starts the init helper inside fresh namespaces and waits for the
// program to finish. The helper confines the process to the run's bind
// mounts before exec'ing the interpreter; the engine reads the program's
// output back from the workspace files afterwards.
func (e *linuxEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.RunOutcome, error) {
	if err := validateRunSpec(runSpec); err != nil {
		return result.RunOutcome{}, err
	}

	initReq, err := buildInitRequest(e.cfg, runSpec)
	if err != nil {
		return result.RunOutcome{}, fmt.Errorf("compose init request: %w", err)
	}

	cgroupPath := ""
	cgroupCleanup := func() {}
	if e.cfg.EnableCgroup {
		cgroupPath, cgroupCleanup, err = createRunCgroup(e.cfg.CgroupRoot, runSpec.RunID)
		if err != nil {
			return result.RunOutcome{}, fmt.Errorf("create cgroup: %w", err)
		}
		if err := applyCgroupLimits(cgroupPath, runSpec.Limits); err != nil {
			cgroupCleanup()
			return result.RunOutcome{}, fmt.Errorf("apply cgroup limits: %w", err)
		}
	}
	defer cgroupCleanup()

	stdinPipe := jsonToPipe(initReq)
	defer stdinPipe.Close()

	cmd := exec.Command(e.cfg.HelperPath)
	cmd.SysProcAttr = buildSysProcAttr(e.cfg.EnableNamespaces)
	cmd.Stdin = stdinPipe

	// Only helper setup failures land here. Once the helper execs the
	// interpreter its stdio points at the workspace files.
	var helperStderr bytes.Buffer
	cmd.Stderr = &helperStderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result.RunOutcome{}, fmt.Errorf("start sandbox helper: %w", err)
	}

	if e.cfg.EnableCgroup {
		if err := addProcessToCgroup(cgroupPath, cmd.Process.Pid); err != nil {
			logger.Warn(ctx, "add process to cgroup failed", zap.String("cgroup", cgroupPath), zap.Error(err))
		}
	}

	var timedOut atomic.Bool
	done := make(chan struct{})
	go func() {
		var wallTimer <-chan time.Time
		if wallLimit := durationFromMs(runSpec.Limits.WallTimeMs); wallLimit > 0 {
			timer := time.NewTimer(wallLimit)
			defer timer.Stop()
			wallTimer = timer.C
		}
		select {
		case <-ctx.Done():
			killProcessGroup(cmd.Process.Pid)
		case <-wallTimer:
			timedOut.Store(true)
			killProcessGroup(cmd.Process.Pid)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	if waitErr != nil && helperStderr.Len() > 0 {
		return result.RunOutcome{}, fmt.Errorf("sandbox setup failed: %s", strings.TrimSpace(helperStderr.String()))
	}

	outcome := result.RunOutcome{
		ExitCode:  exitCodeFromErr(waitErr, cmd.ProcessState),
		WallTime:  time.Since(start),
		Stdout:    readLimitedFile(filepath.Join(runSpec.WorkDir, stdoutFileName), e.cfg.StdoutStderrMaxBytes),
		Stderr:    readLimitedFile(filepath.Join(runSpec.WorkDir, stderrFileName), e.cfg.StdoutStderrMaxBytes),
		OomKilled: wasOomKilled(cgroupPath),
	}

	switch {
	case timedOut.Load() || errors.Is(ctx.Err(), context.DeadlineExceeded):
		outcome.Error = result.ErrTimeLimit
	case outcome.OomKilled:
		outcome.Error = result.ErrMemoryLimit
	case outcome.ExitCode != 0:
		outcome.Error = result.ErrRuntime
	default:
		outcome.Error = result.ErrNone
	}

	return outcome, nil
}

func validateRunSpec(runSpec spec.RunSpec) error {
	if runSpec.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if runSpec.WorkDir == "" {
		return fmt.Errorf("work dir is required")
	}
	if runSpec.SourcePath == "" {
		return fmt.Errorf("source path is required")
	}
	if runSpec.StdinPath == "" {
		return fmt.Errorf("stdin path is required")
	}
	return nil
}

func jsonToPipe(req initRequest) io.ReadCloser {
	reader, writer := io.Pipe()
	go func() {
		enc := json.NewEncoder(writer)
		_ = writer.CloseWithError(enc.Encode(req))
	}()
	return reader
}

func exitCodeFromErr(err error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

func durationFromMs(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func readLimitedFile(path string, maxBytes int64) string {
	if path == "" || maxBytes <= 0 {
		return ""
	}
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxBytes))
	if err != nil {
		return ""
	}
	if int64(len(data)) == maxBytes {
		return string(data) + truncationNotice
	}
	return string(data)
}

func buildSysProcAttr(enableNamespaces bool) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
	if !enableNamespaces {
		return attr
	}

	// New network namespace with no interfaces denies all network access.
	// The mount namespace lets the helper chroot without touching the host
	// mount table.
	attr.Cloneflags = uintptr(syscall.CLONE_NEWNS |
		syscall.CLONE_NEWPID |
		syscall.CLONE_NEWUTS |
		syscall.CLONE_NEWIPC |
		syscall.CLONE_NEWNET |
		syscall.CLONE_NEWUSER)
	attr.GidMappingsEnableSetgroups = false
	attr.UidMappings = []syscall.SysProcIDMap{{
		ContainerID: 0,
		HostID:      os.Getuid(),
		Size:        1,
	}}
	attr.GidMappings = []syscall.SysProcIDMap{{
		ContainerID: 0,
		HostID:      os.Getgid(),
		Size:        1,
	}}
	return attr
}
