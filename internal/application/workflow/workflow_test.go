package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/perimeterlabs/tenantgrid/internal/application/workflow"
)

func TestNewBaseWorkflow(t *testing.T) {
	steps := []workflow.Step{
		{
			Name:        "step1",
			Description: "First step",
			Execute:     func(ctx context.Context) error { return nil },
		},
	}

	wf := workflow.NewBaseWorkflow(steps)
	assert.NotNil(t, wf)
	assert.NotNil(t, wf.ResultChan())
}

func TestNewBaseWorkflowWithTimeout(t *testing.T) {
	steps := []workflow.Step{
		{
			Name:        "step1",
			Description: "First step",
			Execute:     func(ctx context.Context) error { return nil },
		},
	}

	customTimeout := 10 * time.Second
	wf := workflow.NewBaseWorkflowWithTimeout(steps, customTimeout)
	assert.NotNil(t, wf)

	// Non-positive timeouts fall back to the default.
	wf = workflow.NewBaseWorkflowWithTimeout(steps, -1)
	assert.NotNil(t, wf)
}

func TestWorkflow_Start_Success(t *testing.T) {
	var executionOrder []string

	steps := []workflow.Step{
		{
			Name:        "step1",
			Description: "First step",
			Execute: func(ctx context.Context) error {
				executionOrder = append(executionOrder, "step1")
				return nil
			},
		},
		{
			Name:        "step2",
			Description: "Second step",
			Execute: func(ctx context.Context) error {
				executionOrder = append(executionOrder, "step2")
				return nil
			},
		},
	}

	wf := workflow.NewBaseWorkflow(steps)
	wf.Start(context.Background())

	result := <-wf.ResultChan()
	assert.True(t, result.Success)
	assert.Nil(t, result.Error)
	assert.Len(t, result.StepResults, 2)

	for _, stepResult := range result.StepResults {
		assert.True(t, stepResult.Success)
		assert.Nil(t, stepResult.Error)
	}

	assert.Equal(t, []string{"step1", "step2"}, executionOrder)
}

func TestWorkflow_Start_Error(t *testing.T) {
	expectedErr := errors.New("test error")
	executionOrder := []string{}

	steps := []workflow.Step{
		{
			Name:        "step1",
			Description: "First step",
			Execute: func(ctx context.Context) error {
				executionOrder = append(executionOrder, "step1")
				return nil
			},
		},
		{
			Name:        "step2",
			Description: "Second step",
			Execute: func(ctx context.Context) error {
				executionOrder = append(executionOrder, "step2")
				return expectedErr
			},
		},
		{
			Name:        "step3",
			Description: "Third step",
			Execute: func(ctx context.Context) error {
				executionOrder = append(executionOrder, "step3")
				return nil
			},
		},
	}

	wf := workflow.NewBaseWorkflow(steps)
	wf.Start(context.Background())

	result := <-wf.ResultChan()

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, expectedErr)
	assert.Len(t, result.StepResults, 2)

	// step1 succeeded and step2 failed; step3 never ran.
	assert.True(t, result.StepResults[0].Success)
	assert.Nil(t, result.StepResults[0].Error)

	assert.False(t, result.StepResults[1].Success)
	assert.Equal(t, expectedErr, result.StepResults[1].Error)

	assert.Equal(t, []string{"step1", "step2"}, executionOrder)
}

func TestWorkflow_Context_Cancellation(t *testing.T) {
	stepCompleted := false

	steps := []workflow.Step{
		{
			Name:        "slow-step",
			Description: "A step that honors context cancellation",
			Execute: func(ctx context.Context) error {
				select {
				case <-time.After(5 * time.Second):
					stepCompleted = true
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
	}

	wf := workflow.NewBaseWorkflow(steps)
	ctx, cancel := context.WithCancel(context.Background())
	wf.Start(ctx)
	cancel()

	result := <-wf.ResultChan()

	assert.False(t, result.Success)
	assert.Error(t, result.Error)
	assert.False(t, stepCompleted, "Step should not have completed execution")
	assert.Contains(t, result.Error.Error(), "context canceled")
}

func TestWorkflow_CustomTimeout(t *testing.T) {
	stepCompleted := false
	steps := []workflow.Step{
		{
			Name:        "long-running-step",
			Description: "A step that runs longer than the timeout",
			Execute: func(ctx context.Context) error {
				select {
				case <-time.After(5 * time.Second):
					stepCompleted = true
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
	}

	wf := workflow.NewBaseWorkflowWithTimeout(steps, 20*time.Millisecond)
	wf.Start(context.Background())

	result := <-wf.ResultChan()

	assert.False(t, result.Success)
	assert.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "context deadline exceeded")
	assert.False(t, stepCompleted, "Step should not have completed execution")
}

func TestWorkflow_StepHangs_WithTimeout(t *testing.T) {
	steps := []workflow.Step{
		{
			Name:        "hanging-step",
			Description: "A step that ignores its context",
			Execute: func(ctx context.Context) error {
				// Deliberately ignores the context; only the workflow
				// timeout can unblock the run.
				time.Sleep(5 * time.Second)
				return nil
			},
		},
	}

	timeout := 50 * time.Millisecond
	wf := workflow.NewBaseWorkflowWithTimeout(steps, timeout)
	startTime := time.Now()
	wf.Start(context.Background())

	result := <-wf.ResultChan()

	assert.False(t, result.Success)
	assert.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "context deadline exceeded")

	// The workflow must terminate near the timeout, not after the hanging
	// step finishes.
	duration := time.Since(startTime)
	assert.GreaterOrEqual(t, duration, timeout)
	assert.Less(t, duration, 2*time.Second)
}

func TestWorkflow_CommitRunsAfterEachSuccessfulStep(t *testing.T) {
	var committed []string

	steps := []workflow.Step{
		{
			Name:    "step1",
			Execute: func(ctx context.Context) error { return nil },
			Commit:  func(ctx context.Context) { committed = append(committed, "step1") },
		},
		{
			Name:    "step2",
			Execute: func(ctx context.Context) error { return nil },
			Commit:  func(ctx context.Context) { committed = append(committed, "step2") },
		},
	}

	wf := workflow.NewBaseWorkflow(steps)
	wf.Start(context.Background())

	result := <-wf.ResultChan()
	assert.True(t, result.Success)
	assert.Equal(t, []string{"step1", "step2"}, committed)
}

func TestWorkflow_CommitSkippedOnStepError(t *testing.T) {
	committed := false

	steps := []workflow.Step{
		{
			Name:    "failing-step",
			Execute: func(ctx context.Context) error { return errors.New("boom") },
			Commit:  func(ctx context.Context) { committed = true },
		},
	}

	wf := workflow.NewBaseWorkflow(steps)
	wf.Start(context.Background())

	result := <-wf.ResultChan()
	assert.False(t, result.Success)
	assert.False(t, committed, "Commit must not run for a failed step")
}

func TestWorkflow_CommitSkippedForAbandonedStep(t *testing.T) {
	var committed []string

	steps := []workflow.Step{
		{
			Name:    "fast-step",
			Execute: func(ctx context.Context) error { return nil },
			Commit:  func(ctx context.Context) { committed = append(committed, "fast-step") },
		},
		{
			Name: "hanging-step",
			Execute: func(ctx context.Context) error {
				// Ignores the context and finishes after the workflow has
				// already given up on it.
				time.Sleep(200 * time.Millisecond)
				return nil
			},
			Commit: func(ctx context.Context) { committed = append(committed, "hanging-step") },
		},
	}

	wf := workflow.NewBaseWorkflowWithTimeout(steps, 50*time.Millisecond)
	wf.Start(context.Background())

	result := <-wf.ResultChan()
	assert.False(t, result.Success)

	// Wait out the abandoned step; its Commit must still never fire.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, []string{"fast-step"}, committed)
}

func TestWorkflow_ResultChannelClosesAfterDelivery(t *testing.T) {
	wf := workflow.NewBaseWorkflow(nil)
	wf.Start(context.Background())

	result, open := <-wf.ResultChan()
	assert.True(t, open)
	assert.True(t, result.Success)

	_, open = <-wf.ResultChan()
	assert.False(t, open, "result channel should be closed after the single delivery")
}
