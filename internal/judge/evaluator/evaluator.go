// Package evaluator grades one submission: it compiles the source once,
// runs it against every test case through the sandbox, and classifies
// each run into an outcome.
package evaluator

import (
	"context"
	"fmt"
	"time"

	"algolab/internal/judge/language"
	"algolab/internal/judge/model"
	"algolab/internal/judge/sandbox"
	apperr "algolab/pkg/errors"
)

// Config tunes the evaluator.
type Config struct {
	// WorkDirBase is where per-submission workspaces are created. Empty
	// means the system temp directory.
	WorkDirBase string `yaml:"workDirBase"`
	// CompileTimeLimitMs is a fixed ceiling for the compile step,
	// independent of the run limits.
	CompileTimeLimitMs int64 `yaml:"compileTimeLimitMs"`
	// CompileMemoryLimitMB bounds the compiler process.
	CompileMemoryLimitMB int64 `yaml:"compileMemoryLimitMb"`
	// ErrorDetailMaxBytes caps the stderr/compiler message stored on a
	// failing test case result.
	ErrorDetailMaxBytes int `yaml:"errorDetailMaxBytes"`
}

func (c *Config) applyDefaults() {
	if c.CompileTimeLimitMs <= 0 {
		c.CompileTimeLimitMs = 10000
	}
	if c.CompileMemoryLimitMB <= 0 {
		c.CompileMemoryLimitMB = 1024
	}
	if c.ErrorDetailMaxBytes <= 0 {
		c.ErrorDetailMaxBytes = 4 * 1024
	}
}

// Evaluator drives the sandbox once per test case.
type Evaluator struct {
	exec sandbox.Executor
	cfg  Config
}

func New(exec sandbox.Executor, cfg Config) (*Evaluator, error) {
	if exec == nil {
		return nil, apperr.New(apperr.InvalidParams).WithMessage("executor is required")
	}
	cfg.applyDefaults()
	return &Evaluator{exec: exec, cfg: cfg}, nil
}

// Evaluate runs sourceCode against every test case in order and returns
// one result per case. Compilation happens exactly once; a compile
// failure marks every case COMPILE_ERROR and no run is attempted. Runtime
// failures never short-circuit so the submitter sees a full per-case
// report, except that cases past the deadline are recorded as
// TIME_LIMIT_EXCEEDED without running.
//
// A returned error means infrastructure failure, never a property of the
// submitted code.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	sourceCode string,
	spec *language.Spec,
	testCases []model.TestCase,
	limits model.Limits,
	deadline time.Time,
) ([]model.TestCaseResult, error) {
	ws, err := sandbox.NewWorkspace(e.cfg.WorkDirBase)
	if err != nil {
		return nil, err
	}
	defer ws.Remove()

	if err := ws.WriteFile(spec.SourceFile, sourceCode); err != nil {
		return nil, err
	}

	artifacts := []string{spec.SourceFile}
	if spec.CompileEnabled {
		compileErr, err := e.compile(ctx, ws, spec)
		if err != nil {
			return nil, err
		}
		if compileErr != "" {
			return compileErrorResults(len(testCases), compileErr), nil
		}
		// Everything the compiler emitted, not just the primary binary;
		// javac can leave several class files behind.
		artifacts, err = ws.RootFiles(spec.SourceFile)
		if err != nil {
			return nil, err
		}
	}

	timeLimitMs := spec.ScaleTimeLimit(limits.TimeLimitMs)
	memoryLimitMB := spec.ScaleMemoryLimit(limits.MemoryLimitMB)

	results := make([]model.TestCaseResult, 0, len(testCases))
	for i, tc := range testCases {
		if !deadline.IsZero() && time.Now().After(deadline) {
			results = append(results, model.TestCaseResult{
				Index:       i,
				Outcome:     model.OutcomeTimeLimitExceeded,
				ErrorDetail: "submission wall-clock ceiling exceeded",
			})
			continue
		}
		res, err := e.runCase(ctx, ws, spec, artifacts, i, tc, timeLimitMs, memoryLimitMB)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// compile runs the compile command once in the workspace root. It returns
// a non-empty compile error message for compiler failures and a non-nil
// error only for infrastructure failures.
func (e *Evaluator) compile(ctx context.Context, ws *sandbox.Workspace, spec *language.Spec) (string, error) {
	cmd, err := spec.CompileCommand(ws.Dir())
	if err != nil {
		return "", err
	}
	res, err := e.exec.Execute(ctx, sandbox.Request{
		Command:       cmd,
		WorkDir:       ws.Dir(),
		Env:           compileEnv(spec),
		TimeLimitMs:   e.cfg.CompileTimeLimitMs,
		MemoryLimitMB: e.cfg.CompileMemoryLimitMB,
	})
	if err != nil {
		return "", err
	}
	if res.Cancelled {
		return "", apperr.New(apperr.SandboxError).WithMessage("compile aborted by cancellation")
	}
	if res.TimedOut {
		return "compilation timed out", nil
	}
	if res.ExitCode != 0 {
		detail := res.Stderr
		if detail == "" {
			detail = res.Stdout
		}
		if detail == "" {
			detail = fmt.Sprintf("compiler exited with code %d", res.ExitCode)
		}
		return truncate(detail, e.cfg.ErrorDetailMaxBytes), nil
	}
	return "", nil
}

func (e *Evaluator) runCase(
	ctx context.Context,
	ws *sandbox.Workspace,
	spec *language.Spec,
	artifacts []string,
	index int,
	tc model.TestCase,
	timeLimitMs, memoryLimitMB int64,
) (model.TestCaseResult, error) {
	// Each case runs in its own subdirectory with a private copy of the
	// artifacts, so one run cannot corrupt state for the next.
	runDir, err := ws.NewSubdir(fmt.Sprintf("case-%d", index), artifacts...)
	if err != nil {
		return model.TestCaseResult{}, err
	}

	cmd, err := spec.RunCommand(runDir)
	if err != nil {
		return model.TestCaseResult{}, err
	}
	res, err := e.exec.Execute(ctx, sandbox.Request{
		Command:       cmd,
		WorkDir:       runDir,
		Stdin:         tc.Input,
		Env:           runEnv(spec, runDir),
		TimeLimitMs:   timeLimitMs,
		MemoryLimitMB: memoryLimitMB,
	})
	if err != nil {
		return model.TestCaseResult{}, err
	}
	if res.Cancelled {
		return model.TestCaseResult{}, apperr.New(apperr.SandboxError).WithMessage("run aborted by cancellation")
	}
	return e.classify(index, tc, res, memoryLimitMB), nil
}

// classify turns a raw execution result into a graded outcome. Memory
// exceedance takes precedence over a coincidental non-zero exit, since an
// allocator failing under the cap usually crashes the program.
func (e *Evaluator) classify(index int, tc model.TestCase, res sandbox.Result, memoryLimitMB int64) model.TestCaseResult {
	out := model.TestCaseResult{
		Index:        index,
		ActualOutput: res.Stdout,
		RuntimeMs:    res.WallTimeMs,
		MemoryKB:     res.MemoryKB,
	}
	switch {
	case res.TimedOut:
		out.Outcome = model.OutcomeTimeLimitExceeded
	case memoryLimitMB > 0 && res.MemoryKB > memoryLimitMB*1024:
		out.Outcome = model.OutcomeMemoryLimitExceeded
	case res.ExitCode != 0:
		out.Outcome = model.OutcomeRuntimeError
		out.ErrorDetail = truncate(res.Stderr, e.cfg.ErrorDetailMaxBytes)
	case OutputsMatch(res.Stdout, tc.ExpectedOutput):
		out.Outcome = model.OutcomeAccepted
	default:
		out.Outcome = model.OutcomeWrongAnswer
	}
	return out
}

func compileEnv(spec *language.Spec) []string {
	env := []string{"PATH=/usr/local/bin:/usr/bin:/bin"}
	return append(env, spec.Env...)
}

func runEnv(spec *language.Spec, runDir string) []string {
	env := []string{"PATH=/usr/local/bin:/usr/bin:/bin", "HOME=" + runDir}
	return append(env, spec.Env...)
}

func compileErrorResults(n int, detail string) []model.TestCaseResult {
	results := make([]model.TestCaseResult, n)
	for i := range results {
		results[i] = model.TestCaseResult{
			Index:       i,
			Outcome:     model.OutcomeCompileError,
			ErrorDetail: detail,
		}
	}
	return results
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
