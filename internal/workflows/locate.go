package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

// TaskQueue is the default task queue for amenity locate workflows.
const TaskQueue = "pinpoint-locate"

// Application error types that must not be retried.
const (
	ErrTypeDegenerateInput = "DegenerateInput"
	ErrTypeInvalidInput    = "InvalidInput"
	ErrTypeNoCandidates    = "NoCandidates"
)

var nonRetryable = []string{ErrTypeDegenerateInput, ErrTypeInvalidInput, ErrTypeNoCandidates}

// AmenityLocateInput is the input for AmenityLocateWorkflow.
type AmenityLocateInput struct {
	RequestID string
	Area      domain.Area
	Amenities [3]string
	Distances [3]float64
	Unit      string
}

// AmenityLocateResult is what AmenityLocateWorkflow returns.
type AmenityLocateResult struct {
	Location   domain.Location
	References [3]domain.Reference
}

// LocateFromReferencesInput is the input for the LocateFromReferences activity.
type LocateFromReferencesInput struct {
	References [3]domain.Reference
	Distances  [3]float64
	Unit       string
}

// AmenityLocateWorkflow resolves three amenity categories to references,
// one Overpass lookup at a time, then trilaterates from them. Lookups are
// retried with backoff; degenerate geometry fails the workflow at once.
func AmenityLocateWorkflow(ctx workflow.Context, input AmenityLocateInput) (*AmenityLocateResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting amenity locate workflow", "requestID", input.RequestID, "area", input.Area.Key())

	resolveCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: nonRetryable,
		},
	})

	var result AmenityLocateResult
	for k, amenity := range input.Amenities {
		err := workflow.ExecuteActivity(resolveCtx, "ResolveReference", input.Area, amenity).Get(ctx, &result.References[k])
		if err != nil {
			logger.Warn("reference resolution failed", "amenity", amenity, "error", err)
			return nil, err
		}
	}

	locateCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: nonRetryable,
		},
	})

	err := workflow.ExecuteActivity(locateCtx, "LocateFromReferences", LocateFromReferencesInput{
		References: result.References,
		Distances:  input.Distances,
		Unit:       input.Unit,
	}).Get(ctx, &result.Location)
	if err != nil {
		return nil, err
	}

	logger.Info("Amenity locate finished", "locationID", result.Location.ID)
	return &result, nil
}
