package engine

import (
	"fmt"
	"path/filepath"

	"codearena/internal/judge/sandbox/spec"
)

// containerWorkDir is where the per-run workspace is bind-mounted inside the
// sandbox root. All paths handed to the confined process live under it.
const containerWorkDir = "/box"

const (
	stdoutFileName = "stdout.txt"
	stderrFileName = "stderr.txt"
)

const truncationNotice = "\n... output truncated ..."

// mountSpec is one bind mount the init helper applies under the sandbox root.
// Optional mounts are skipped when the source does not exist on the host,
// which covers distro differences like a missing /lib64.
type mountSpec struct {
	Source   string
	Target   string
	ReadOnly bool
	Optional bool
}

// initRequest is the setup contract sent to the init helper on stdin. The
// helper runs inside the new namespaces and performs mounts, chroot, rlimits,
// IO redirection and seccomp before exec'ing the command.
type initRequest struct {
	WorkDir    string
	Cmd        []string
	Env        []string
	StdinPath  string
	StdoutPath string
	StderrPath string

	BindMounts     []mountSpec
	RootFS         string
	SeccompProfile string
	EnableSeccomp  bool
	EnableNs       bool

	Limits spec.ResourceLimit
}

// buildInitRequest composes the helper request for one run. With namespaces
// enabled the confined process sees only the chroot: the workspace writable
// under containerWorkDir and the interpreter trees read-only. Host paths never
// appear in the request in that mode.
func buildInitRequest(cfg Config, runSpec spec.RunSpec) (initRequest, error) {
	env := []string{
		"PATH=/usr/bin:/bin",
		"PYTHONDONTWRITEBYTECODE=1",
	}

	if !cfg.EnableNamespaces {
		req := initRequest{
			WorkDir:    runSpec.WorkDir,
			Cmd:        append(append([]string{cfg.InterpreterPath}, cfg.InterpreterArgs...), runSpec.SourcePath),
			Env:        append(env, "HOME="+runSpec.WorkDir),
			StdinPath:  runSpec.StdinPath,
			StdoutPath: filepath.Join(runSpec.WorkDir, stdoutFileName),
			StderrPath: filepath.Join(runSpec.WorkDir, stderrFileName),
			Limits:     runSpec.Limits,
		}
		return req, nil
	}

	if cfg.RootFS == "" {
		return initRequest{}, fmt.Errorf("rootfs is required when namespaces are enabled")
	}

	req := initRequest{
		WorkDir:    containerWorkDir,
		Cmd:        append(append([]string{cfg.InterpreterPath}, cfg.InterpreterArgs...), filepath.Join(containerWorkDir, filepath.Base(runSpec.SourcePath))),
		Env:        append(env, "HOME="+containerWorkDir),
		StdinPath:  filepath.Join(containerWorkDir, filepath.Base(runSpec.StdinPath)),
		StdoutPath: filepath.Join(containerWorkDir, stdoutFileName),
		StderrPath: filepath.Join(containerWorkDir, stderrFileName),
		BindMounts: []mountSpec{
			{Source: runSpec.WorkDir, Target: containerWorkDir},
			{Source: "/usr", Target: "/usr", ReadOnly: true},
			{Source: "/lib", Target: "/lib", ReadOnly: true, Optional: true},
			{Source: "/lib64", Target: "/lib64", ReadOnly: true, Optional: true},
			{Source: "/bin", Target: "/bin", ReadOnly: true, Optional: true},
		},
		RootFS:        cfg.RootFS,
		EnableNs:      true,
		EnableSeccomp: cfg.EnableSeccomp,
		Limits:        runSpec.Limits,
	}
	if cfg.EnableSeccomp {
		req.SeccompProfile = cfg.SeccompProfile
	}
	return req, nil
}
