package engine

const (
	defaultInterpreterPath            = "/usr/bin/python3"
	defaultHelperPath                 = "sandbox-init"
	defaultStdoutStderrMaxBytes int64 = 64 * 1024
)

// Config controls sandbox engine behavior.
type Config struct {
	// InterpreterPath is the interpreter binary executed inside the sandbox.
	InterpreterPath string
	// InterpreterArgs are passed before the source path. "-I" runs the
	// interpreter in isolated mode (no site packages, no user environment).
	InterpreterArgs []string

	// HelperPath is the init binary that sets up mounts, rlimits and seccomp
	// inside the new namespaces before exec'ing the interpreter.
	HelperPath string
	// RootFS is the minimal root the helper chroots into. Required when
	// namespaces are enabled; the host filesystem is never visible to the
	// interpreter, only the bind mounts composed per run.
	RootFS string
	// SeccompProfile is the path to the JSON syscall profile the helper loads.
	SeccompProfile string

	CgroupRoot           string
	StdoutStderrMaxBytes int64
	EnableCgroup         bool
	EnableNamespaces     bool
	EnableSeccomp        bool
}

func (c *Config) applyDefaults() {
	if c.InterpreterPath == "" {
		c.InterpreterPath = defaultInterpreterPath
	}
	if len(c.InterpreterArgs) == 0 {
		c.InterpreterArgs = []string{"-I"}
	}
	if c.HelperPath == "" {
		c.HelperPath = defaultHelperPath
	}
	if c.StdoutStderrMaxBytes <= 0 {
		c.StdoutStderrMaxBytes = defaultStdoutStderrMaxBytes
	}
}
