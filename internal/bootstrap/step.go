package bootstrap

import (
	"context"
	"fmt"
	"time"
)

// StepStatus is the outcome of a pipeline step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// Step is one stage of the pipeline. Steps are built once and never mutated.
type Step struct {
	Name   string
	Action func(ctx context.Context) error
	// ContinueOnFailure turns a failure into a warning.
	ContinueOnFailure bool
}

// StepResult records what happened to a Step during Run.
type StepResult struct {
	Name     string
	Status   StepStatus
	Duration time.Duration
	Err      error
}

// PipelineError is returned by Run when a step fails. The failure has already
// been reported on the console.
type PipelineError struct {
	Step string
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
