package temporal

import (
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// StartWorker creates and starts a Temporal worker for docs builds.
func StartWorker(c client.Client, taskQueue string) (worker.Worker, error) {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	w := worker.New(c, taskQueue, worker.Options{})

	w.RegisterWorkflow(DocsBuildWorkflow)
	w.RegisterActivity(FetchEntityActivity)
	w.RegisterActivity(GenerateDocsActivity)
	w.RegisterActivity(PublishDocsActivity)
	w.RegisterActivity(IndexEntityActivity)

	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("starting worker: %w", err)
	}
	return w, nil
}
