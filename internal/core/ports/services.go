package ports

import (
	"context"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

// ReferenceSource finds candidate coordinates for an amenity category.
type ReferenceSource interface {
	FetchAmenities(ctx context.Context, area domain.Area, amenity string) ([]domain.GeoPoint, error)
}

// AmenityCatalog knows the amenity tags the reference source understands.
type AmenityCatalog interface {
	// Suggest returns the closest known tag, or "" if nothing is close.
	Suggest(amenity string) string
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishLocated(ctx context.Context, ev *domain.LocatedEvent) error
	PublishAmenityRequest(ctx context.Context, req *domain.AmenityLocateRequest) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeAmenityRequests(ctx context.Context, handler func(ctx context.Context, req *domain.AmenityLocateRequest) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
