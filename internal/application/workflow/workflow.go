package workflow

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout bounds a whole workflow run when the caller does not choose
// a timeout.
const DefaultTimeout = 5 * time.Minute

// Step represents a single executable unit in a workflow.
// Each step has a name, description, and an execution function that will be
// called during workflow execution.
//
// Execute must confine itself to the step's own work; externally visible
// effects belong in Commit. Commit runs on the workflow goroutine only when
// Execute succeeds before the workflow deadline, so a step abandoned at the
// timeout never publishes partial state.
type Step struct {
	Name        string
	Description string
	Execute     func(ctx context.Context) error
	Commit      func(ctx context.Context)
}

// WorkflowResult contains the consolidated outcome of a workflow execution.
// It includes success status, timing information, any errors encountered,
// individual step results, and custom result data.
type WorkflowResult struct {
	Success     bool
	CompletedAt time.Time
	Error       error
	StepResults []StepResult
	Result      map[string]any
}

// StepResult tracks the execution result of an individual workflow step.
type StepResult struct {
	StepName    string
	Success     bool
	Error       error
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
}

// Workflow defines the common interface for all workflow implementations.
// Workflows are executed asynchronously and deliver results through a channel.
type Workflow interface {
	Start(ctx context.Context)
	ResultChan() <-chan WorkflowResult
}

// BaseWorkflow provides foundational workflow functionality that can be
// embedded in specific workflow implementations.
type BaseWorkflow struct {
	steps      []Step
	timeout    time.Duration
	resultChan chan WorkflowResult
}

// NewBaseWorkflow creates a new base workflow with the provided execution
// steps and the default timeout.
func NewBaseWorkflow(steps []Step) *BaseWorkflow {
	return NewBaseWorkflowWithTimeout(steps, DefaultTimeout)
}

// NewBaseWorkflowWithTimeout creates a base workflow with a caller-chosen
// overall timeout. Non-positive timeouts fall back to the default.
func NewBaseWorkflowWithTimeout(steps []Step, timeout time.Duration) *BaseWorkflow {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BaseWorkflow{
		steps:      steps,
		timeout:    timeout,
		resultChan: make(chan WorkflowResult, 1),
	}
}

// ResultChan returns the channel that will receive the workflow execution result.
func (w *BaseWorkflow) ResultChan() <-chan WorkflowResult { return w.resultChan }

// Start runs the workflow in a goroutine and delivers exactly one result on
// the result channel before closing it.
func (w *BaseWorkflow) Start(ctx context.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()

		result := w.ExecuteSteps(ctx)
		w.resultChan <- result
		close(w.resultChan)
	}()
}

// ExecuteSteps runs all workflow steps in sequence and returns a consolidated
// result. Execution stops on the first step failure; the context is checked
// between steps so cancellation and timeouts take effect at step boundaries
// even when a step ignores its context.
func (w *BaseWorkflow) ExecuteSteps(ctx context.Context) WorkflowResult {
	result := WorkflowResult{
		Success:     true,
		StepResults: make([]StepResult, 0, len(w.steps)),
		Result:      make(map[string]any),
	}

	for _, step := range w.steps {
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.Error = fmt.Errorf("workflow aborted before step %s: %w", step.Name, err)
			break
		}

		stepResult := StepResult{
			StepName:  step.Name,
			StartedAt: time.Now(),
		}

		err := runStep(ctx, step)

		stepResult.CompletedAt = time.Now()
		stepResult.Duration = stepResult.CompletedAt.Sub(stepResult.StartedAt)

		if err != nil {
			stepResult.Success = false
			stepResult.Error = err
			result.Success = false
			result.Error = fmt.Errorf("step %s failed: %w", step.Name, err)
			result.StepResults = append(result.StepResults, stepResult)
			break
		}

		stepResult.Success = true
		result.StepResults = append(result.StepResults, stepResult)
	}

	result.CompletedAt = time.Now()

	return result
}

// runStep executes one step and returns early when the context expires, so a
// step that ignores its context cannot hang the workflow past its timeout.
// The abandoned goroutine exits whenever the step eventually returns; its
// Commit is never invoked, so a late step cannot publish after the workflow
// has already reported failure.
func runStep(ctx context.Context, step Step) error {
	done := make(chan error, 1)
	go func() { done <- step.Execute(ctx) }()

	select {
	case err := <-done:
		if err == nil && step.Commit != nil {
			step.Commit(ctx)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
