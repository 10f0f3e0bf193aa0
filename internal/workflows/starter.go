package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

// WorkflowExecutor is the subset of client.Client used to start workflows.
type WorkflowExecutor interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Starter turns queued amenity requests into workflow executions.
type Starter struct {
	client    WorkflowExecutor
	taskQueue string
}

// NewStarter creates a Starter submitting to taskQueue.
func NewStarter(c WorkflowExecutor, taskQueue string) *Starter {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Starter{client: c, taskQueue: taskQueue}
}

// WorkflowID is derived from the request id so redelivered messages map to
// the same execution.
func WorkflowID(requestID string) string {
	return "amenity-locate-" + requestID
}

// Start launches AmenityLocateWorkflow for req. A request whose workflow is
// already running counts as started.
func (s *Starter) Start(ctx context.Context, req *domain.AmenityLocateRequest) error {
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(req.RequestID),
		TaskQueue: s.taskQueue,
	}
	input := AmenityLocateInput{
		RequestID: req.RequestID,
		Area:      req.Area,
		Amenities: req.Amenities,
		Distances: req.Distances,
		Unit:      req.Unit,
	}

	_, err := s.client.ExecuteWorkflow(ctx, opts, AmenityLocateWorkflow, input)
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		slog.InfoContext(ctx, "amenity locate workflow already started", "workflow_id", opts.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("start workflow %s: %w", opts.ID, err)
	}
	slog.InfoContext(ctx, "amenity locate workflow started", "workflow_id", opts.ID)
	return nil
}
