//go:build linux

package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestExecutor(t *testing.T) Executor {
	t.Helper()
	exec, err := NewExecutor(Config{MaxOutputBytes: 1024})
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	return exec
}

func shellEnv() []string {
	return []string{"PATH=/usr/local/bin:/usr/bin:/bin"}
}

func TestExecuteEchoesStdin(t *testing.T) {
	exec := newTestExecutor(t)
	res, err := exec.Execute(context.Background(), Request{
		Command:     []string{"/bin/sh", "-c", "cat"},
		WorkDir:     t.TempDir(),
		Stdin:       "hello sandbox\n",
		Env:         shellEnv(),
		TimeLimitMs: 5000,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, stderr = %q", res.ExitCode, res.Stderr)
	}
	if res.Stdout != "hello sandbox\n" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if res.TimedOut {
		t.Error("should not be timed out")
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	exec := newTestExecutor(t)
	res, err := exec.Execute(context.Background(), Request{
		Command:     []string{"/bin/sh", "-c", "echo oops >&2; exit 3"},
		WorkDir:     t.TempDir(),
		Env:         shellEnv(),
		TimeLimitMs: 5000,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "oops") {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestExecuteTimeout(t *testing.T) {
	exec := newTestExecutor(t)
	start := time.Now()
	res, err := exec.Execute(context.Background(), Request{
		Command:     []string{"/bin/sh", "-c", "sleep 30"},
		WorkDir:     t.TempDir(),
		Env:         shellEnv(),
		TimeLimitMs: 200,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.TimedOut {
		t.Error("expected TimedOut")
	}
	if res.ExitCode == 0 {
		t.Errorf("timed-out run must not report exit code 0")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("kill took too long: %v", elapsed)
	}
}

func TestExecuteKillsProcessTree(t *testing.T) {
	exec := newTestExecutor(t)
	// The child forks a grandchild; the whole group must die at timeout.
	start := time.Now()
	res, err := exec.Execute(context.Background(), Request{
		Command:     []string{"/bin/sh", "-c", "sleep 30 & wait"},
		WorkDir:     t.TempDir(),
		Env:         shellEnv(),
		TimeLimitMs: 200,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.TimedOut {
		t.Error("expected TimedOut")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("process tree survived the kill: %v", elapsed)
	}
}

func TestExecuteTruncatesOutput(t *testing.T) {
	exec := newTestExecutor(t)
	res, err := exec.Execute(context.Background(), Request{
		Command:     []string{"/bin/sh", "-c", "yes x | head -c 100000"},
		WorkDir:     t.TempDir(),
		Env:         shellEnv(),
		TimeLimitMs: 5000,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Truncated {
		t.Error("expected Truncated")
	}
	if int64(len(res.Stdout)) > 1024 {
		t.Errorf("stdout length %d exceeds cap", len(res.Stdout))
	}
}

func TestExecuteContextCancel(t *testing.T) {
	exec := newTestExecutor(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	res, err := exec.Execute(ctx, Request{
		Command:     []string{"/bin/sh", "-c", "sleep 30"},
		WorkDir:     t.TempDir(),
		Env:         shellEnv(),
		TimeLimitMs: 60000,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Cancelled {
		t.Error("context cancellation should surface as Cancelled")
	}
	if res.TimedOut {
		t.Error("a cancelled run far below its limit must not report TimedOut")
	}
	if res.ExitCode == 0 {
		t.Error("cancelled run must not report exit code 0")
	}
}

func TestExecuteReportsWallTime(t *testing.T) {
	exec := newTestExecutor(t)
	res, err := exec.Execute(context.Background(), Request{
		Command:     []string{"/bin/sh", "-c", "sleep 0.1"},
		WorkDir:     t.TempDir(),
		Env:         shellEnv(),
		TimeLimitMs: 5000,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.WallTimeMs < 50 {
		t.Errorf("wall time %dms looks too small", res.WallTimeMs)
	}
}
