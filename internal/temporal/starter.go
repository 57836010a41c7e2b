package temporal

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
)

// Starter launches docs build workflows on a task queue.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a Starter.
func NewStarter(c client.Client, taskQueue string) *Starter {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Starter{client: c, taskQueue: taskQueue}
}

// StartDocsBuild begins a DocsBuildWorkflow and returns its workflow ID.
func (s *Starter) StartDocsBuild(ctx context.Context, input DocsBuildInput) (string, error) {
	id := fmt.Sprintf("docs-build-%s-%s",
		strings.NewReplacer(":", "-", "/", "-").Replace(input.EntityRef),
		uuid.NewString()[:8])

	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: s.taskQueue,
	}, DocsBuildWorkflow, input)
	if err != nil {
		return "", fmt.Errorf("start docs build for %s: %w", input.EntityRef, err)
	}
	return run.GetID(), nil
}

// AwaitDocsBuild blocks until the given workflow finishes and returns its
// result.
func (s *Starter) AwaitDocsBuild(ctx context.Context, workflowID string) (*DocsBuildOutput, error) {
	var out DocsBuildOutput
	run := s.client.GetWorkflow(ctx, workflowID, "")
	if err := run.Get(ctx, &out); err != nil {
		return nil, fmt.Errorf("await docs build %s: %w", workflowID, err)
	}
	return &out, nil
}
