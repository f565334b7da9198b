//go:build !linux

package engine

import (
	"context"
	"fmt"

	"codearena/internal/judge/sandbox/result"
	"codearena/internal/judge/sandbox/spec"
)

type stubEngine struct{}

func NewEngine(cfg Config) (Engine, error) {
	return &stubEngine{}, nil
}

func (s *stubEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.RunOutcome, error) {
	return result.RunOutcome{}, fmt.Errorf("sandbox engine is only supported on linux")
}
