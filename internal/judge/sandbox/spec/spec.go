// Package spec defines the execution specification and resource limits.
package spec

// ResourceLimit describes hard limits enforced by the sandbox. Wall time is
// enforced by the engine's kill timer, CPU time and output by rlimits inside
// the sandbox, memory and PIDs by the run cgroup.
type ResourceLimit struct {
	CPUTimeMs  int64
	WallTimeMs int64
	MemoryMB   int64
	OutputKB   int64
	PIDs       int64
}

// RunSpec is the execution specification for one sandboxed run.
// All paths must point to files prepared before calling the engine.
type RunSpec struct {
	RunID      string
	WorkDir    string
	SourcePath string
	StdinPath  string
	Limits     ResourceLimit
}
