//go:build !linux

package sandbox

import (
	"context"

	apperr "algolab/pkg/errors"
)

type stubExecutor struct{}

func NewExecutor(cfg Config) (Executor, error) {
	return &stubExecutor{}, nil
}

func (s *stubExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	return Result{}, apperr.New(apperr.SandboxError).WithMessage("sandbox executor is only supported on linux")
}
