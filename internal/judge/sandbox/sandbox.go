// Package sandbox runs a single untrusted command inside a resource-limited,
// filesystem-isolated working directory and reports what happened.
package sandbox

import "context"

// Request describes one process execution.
type Request struct {
	// Command is the argv to execute. Command[0] is resolved via PATH
	// unless absolute.
	Command []string
	// WorkDir is the process working directory. Must already exist and
	// must be unique to the invocation.
	WorkDir string
	// Stdin is piped to the process standard input.
	Stdin string
	// Env is the full process environment. A nil Env yields a minimal
	// PATH-only environment, never the host environment.
	Env []string

	// TimeLimitMs is the wall-clock budget. Exceeding it kills the whole
	// process group and marks the result TimedOut.
	TimeLimitMs int64
	// MemoryLimitMB caps the process address space. Zero means no cap.
	MemoryLimitMB int64
}

// Result is the observed outcome of one execution. It carries raw facts
// only; classification into verdicts happens in the evaluator.
type Result struct {
	ExitCode   int
	Stdout     string
	Stderr     string
	WallTimeMs int64
	MemoryKB   int64
	// TimedOut is set when the wall-clock limit killed the process.
	TimedOut bool
	// Cancelled is set when the request context ended the run before the
	// wall-clock limit did. An aborted run, not a slow one.
	Cancelled bool
	// Truncated is set when stdout or stderr hit the capture cap.
	Truncated bool
}

// Executor runs one sandboxed process per call. Implementations must be
// safe for concurrent use; concurrent calls never share state.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// Config tunes the local executor.
type Config struct {
	// MaxOutputBytes caps captured stdout and stderr, each. Excess is
	// truncated, not an error.
	MaxOutputBytes int64 `yaml:"maxOutputBytes"`
	// MaxProcesses caps the process count of one execution.
	MaxProcesses int64 `yaml:"maxProcesses"`
	// MemoryHeadroomMB is added to the rlimit address-space cap so the
	// limit check stays driven by measured peak memory, not by malloc
	// failures at exactly the boundary.
	MemoryHeadroomMB int64 `yaml:"memoryHeadroomMb"`
	// EnableNamespaces runs each process in fresh user/mount/pid/ipc/uts
	// namespaces with the network namespace detached, cutting off network
	// access entirely. Requires unprivileged user namespaces on the host.
	EnableNamespaces bool `yaml:"enableNamespaces"`
}

const (
	defaultMaxOutputBytes int64 = 64 * 1024
	defaultMaxProcesses   int64 = 64
	defaultHeadroomMB     int64 = 16
)

func (c *Config) applyDefaults() {
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = defaultMaxOutputBytes
	}
	if c.MaxProcesses <= 0 {
		c.MaxProcesses = defaultMaxProcesses
	}
	if c.MemoryHeadroomMB <= 0 {
		c.MemoryHeadroomMB = defaultHeadroomMB
	}
}
