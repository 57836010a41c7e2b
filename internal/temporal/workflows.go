package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the queue docs build workers listen on.
const TaskQueue = "orgatlas-docs"

// DocsBuildInput holds the workflow parameters.
type DocsBuildInput struct {
	EntityRef string
	SourceDir string
	Index     bool // also refresh the search index for the entity
}

// DocsBuildOutput holds the workflow result.
type DocsBuildOutput struct {
	EntityRef   string
	PublishedAt time.Time
	Duration    time.Duration
	Indexed     bool
}

// DocsBuildWorkflow fetches the entity, generates its documentation site,
// publishes it, and optionally refreshes the search index.
func DocsBuildWorkflow(ctx workflow.Context, input DocsBuildInput) (*DocsBuildOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var entity EntityResult
	if err := workflow.ExecuteActivity(ctx, FetchEntityActivity, input.EntityRef).Get(ctx, &entity); err != nil {
		return nil, fmt.Errorf("fetch entity: %w", err)
	}

	var build BuildOutput
	if err := workflow.ExecuteActivity(ctx, GenerateDocsActivity, input).Get(ctx, &build); err != nil {
		return nil, fmt.Errorf("generate docs: %w", err)
	}

	if err := workflow.ExecuteActivity(ctx, PublishDocsActivity, input.EntityRef, build.OutputDir).Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("publish docs: %w", err)
	}

	out := &DocsBuildOutput{
		EntityRef:   input.EntityRef,
		PublishedAt: workflow.Now(ctx),
		Duration:    build.Duration,
	}

	if input.Index {
		if err := workflow.ExecuteActivity(ctx, IndexEntityActivity, entity).Get(ctx, nil); err != nil {
			// Indexing is best-effort; the docs are already live.
			workflow.GetLogger(ctx).Warn("search index refresh failed", "entity", input.EntityRef, "error", err)
		} else {
			out.Indexed = true
		}
	}

	return out, nil
}
