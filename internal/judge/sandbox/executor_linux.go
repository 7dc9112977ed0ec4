//go:build linux

package sandbox

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	apperr "algolab/pkg/errors"
	"algolab/pkg/utils/logger"
)

type localExecutor struct {
	cfg Config
}

// NewExecutor creates the Linux process executor. Each call to Execute
// starts one process group under rlimits and a wall-clock timer.
func NewExecutor(cfg Config) (Executor, error) {
	cfg.applyDefaults()
	return &localExecutor{cfg: cfg}, nil
}

func (e *localExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	if len(req.Command) == 0 {
		return Result{}, apperr.New(apperr.SandboxError).WithMessage("command is required")
	}
	if req.WorkDir == "" {
		return Result{}, apperr.New(apperr.SandboxError).WithMessage("work dir is required")
	}

	cmd := exec.Command(req.Command[0], req.Command[1:]...)
	cmd.Dir = req.WorkDir
	cmd.Stdin = strings.NewReader(req.Stdin)
	cmd.Env = req.Env
	if cmd.Env == nil {
		cmd.Env = []string{"PATH=/usr/local/bin:/usr/bin:/bin", "HOME=" + req.WorkDir}
	}

	stdout := newCappedBuffer(e.cfg.MaxOutputBytes)
	stderr := newCappedBuffer(e.cfg.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	cmd.SysProcAttr = e.buildSysProcAttr()

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, apperr.Wrapf(err, apperr.SandboxError, "start process failed")
	}
	pid := cmd.Process.Pid

	e.applyRlimits(ctx, pid, req)

	var timedOut, cancelled atomic.Bool
	done := make(chan struct{})
	var killOnce sync.Once
	kill := func() {
		killOnce.Do(func() {
			if err := killProcessGroup(pid); err != nil {
				logger.Warn(ctx, "kill process group failed",
					zap.Int("pid", pid), zap.Error(err))
			}
		})
	}

	go func() {
		var wallTimer <-chan time.Time
		if req.TimeLimitMs > 0 {
			wallTimer = time.After(time.Duration(req.TimeLimitMs) * time.Millisecond)
		}
		select {
		case <-ctx.Done():
			cancelled.Store(true)
			kill()
		case <-wallTimer:
			timedOut.Store(true)
			kill()
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	// Stragglers forked by the child must not outlive the call.
	kill()

	result := Result{
		ExitCode:   exitCodeFromWait(waitErr, cmd),
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		WallTimeMs: time.Since(start).Milliseconds(),
		MemoryKB:   peakMemoryKB(cmd),
		TimedOut:   timedOut.Load(),
		Cancelled:  cancelled.Load(),
		Truncated:  stdout.Truncated() || stderr.Truncated(),
	}
	if (result.TimedOut || result.Cancelled) && result.ExitCode == 0 {
		result.ExitCode = -1
	}
	return result, nil
}

// applyRlimits bounds the already-started process. prlimit on a live pid
// leaves a short window where the child runs unbounded; the wall timer
// and the measured-memory check remain authoritative.
func (e *localExecutor) applyRlimits(ctx context.Context, pid int, req Request) {
	set := func(resource int, value uint64, name string) {
		lim := unix.Rlimit{Cur: value, Max: value}
		if err := unix.Prlimit(pid, resource, &lim, nil); err != nil {
			logger.Warn(ctx, "set rlimit failed",
				zap.String("resource", name),
				zap.Int("pid", pid),
				zap.Error(err))
		}
	}

	if req.MemoryLimitMB > 0 {
		asBytes := uint64(req.MemoryLimitMB+e.cfg.MemoryHeadroomMB) * 1024 * 1024
		set(unix.RLIMIT_AS, asBytes, "as")
	}
	if req.TimeLimitMs > 0 {
		cpuSeconds := uint64(req.TimeLimitMs/1000) + 1
		set(unix.RLIMIT_CPU, cpuSeconds, "cpu")
	}
	set(unix.RLIMIT_FSIZE, uint64(e.cfg.MaxOutputBytes)*4, "fsize")
	set(unix.RLIMIT_NPROC, uint64(e.cfg.MaxProcesses), "nproc")
	set(unix.RLIMIT_CORE, 0, "core")
}

// buildSysProcAttr puts every execution in a new process group so a
// timeout kill reaps the whole tree, with Pdeathsig so orphans die with
// the judge itself. With namespaces enabled the process additionally
// runs in fresh namespaces and a detached network namespace, so
// submitted code never has network access.
func (e *localExecutor) buildSysProcAttr() *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
	if !e.cfg.EnableNamespaces {
		return attr
	}
	attr.Cloneflags = syscall.CLONE_NEWUSER | syscall.CLONE_NEWNS |
		syscall.CLONE_NEWPID | syscall.CLONE_NEWUTS |
		syscall.CLONE_NEWIPC | syscall.CLONE_NEWNET
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

func killProcessGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	// ESRCH means the group already exited, which is the goal.
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return apperr.Wrapf(err, apperr.ProcessKillFailed, "kill process group %d failed", pid)
	}
	return nil
}

func exitCodeFromWait(err error, cmd *exec.Cmd) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
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

func peakMemoryKB(cmd *exec.Cmd) int64 {
	if cmd.ProcessState == nil {
		return 0
	}
	rusage, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage)
	if !ok || rusage == nil {
		return 0
	}
	// Maxrss is reported in kilobytes on Linux.
	return rusage.Maxrss
}
