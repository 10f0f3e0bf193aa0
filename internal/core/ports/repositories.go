package ports

import (
	"context"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

// LocationRepository persists trilateration results.
type LocationRepository interface {
	// Insert stores loc. An empty ID is assigned by the repository.
	Insert(ctx context.Context, loc *domain.Location) error
	// GetByID returns domain.ErrNotFound when no location has that id.
	GetByID(ctx context.Context, id string) (*domain.Location, error)
	// ListRecent returns the newest locations first.
	ListRecent(ctx context.Context, limit int) ([]domain.Location, error)
}
