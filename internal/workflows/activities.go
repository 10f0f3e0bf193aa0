package workflows

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/pinpoint/internal/core/domain"
	"github.com/samirrijal/pinpoint/internal/core/usecases"
)

// ReferenceLocator is the part of usecases.LocateService the activities use.
type ReferenceLocator interface {
	ResolveReference(ctx context.Context, area domain.Area, amenity string) (*domain.Reference, error)
	LocateFromReferences(ctx context.Context, refs [3]domain.Reference, distances [3]float64, unit string) (*domain.Location, error)
}

// LocateActivities holds the activity implementations for AmenityLocateWorkflow.
type LocateActivities struct {
	Locator ReferenceLocator
}

// ResolveReference averages the amenity nodes in area into one reference.
func (a *LocateActivities) ResolveReference(ctx context.Context, area domain.Area, amenity string) (domain.Reference, error) {
	ref, err := a.Locator.ResolveReference(ctx, area, amenity)
	if err != nil {
		return domain.Reference{}, classify(err)
	}
	return *ref, nil
}

// LocateFromReferences trilaterates and stores the result.
func (a *LocateActivities) LocateFromReferences(ctx context.Context, in LocateFromReferencesInput) (domain.Location, error) {
	loc, err := a.Locator.LocateFromReferences(ctx, in.References, in.Distances, in.Unit)
	if err != nil {
		return domain.Location{}, classify(err)
	}
	return *loc, nil
}

// classify marks errors retrying cannot fix as non-retryable.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrDegenerateInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeDegenerateInput, err)
	case errors.Is(err, domain.ErrNoCandidates):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNoCandidates, err)
	case usecases.IsValidationError(err):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	default:
		return err
	}
}
