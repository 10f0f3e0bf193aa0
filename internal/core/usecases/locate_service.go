package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/pinpoint/internal/core/domain"
	"github.com/samirrijal/pinpoint/internal/core/ports"
	"github.com/samirrijal/pinpoint/internal/core/trilateration"
	"github.com/samirrijal/pinpoint/internal/pkg/geospatial"
	"github.com/samirrijal/pinpoint/internal/pkg/metrics"
	"github.com/samirrijal/pinpoint/internal/pkg/telemetry"
	"github.com/samirrijal/pinpoint/internal/pkg/units"
)

// Locate sources, used as metric labels.
const (
	SourceDirect    = "direct"
	SourceAmenities = "amenities"
	SourceWorkflow  = "workflow"
)

const defaultReferenceTTL = 6 * 60 * 60 // seconds

// LocateRequest asks for a position from explicit reference coordinates.
type LocateRequest struct {
	References [3]domain.GeoPoint `json:"references"`
	Distances  [3]float64         `json:"distances"`
	Unit       string             `json:"unit"`
}

// AmenityRequest asks for a position from three amenity categories whose
// averaged locations inside Area serve as references.
type AmenityRequest struct {
	Area      domain.Area `json:"area"`
	Amenities [3]string   `json:"amenities"`
	Distances [3]float64  `json:"distances"`
	Unit      string      `json:"unit"`
}

// LocateService runs trilateration requests end to end: validation, unit
// conversion, reference resolution, persistence and event publication.
type LocateService struct {
	locations    ports.LocationRepository
	references   ports.ReferenceSource
	cache        ports.CacheService
	events       ports.EventPublisher
	catalog      ports.AmenityCatalog
	referenceTTL int
	now          func() time.Time
}

// NewLocateService creates a new LocateService. references, cache and events
// may be nil; amenity lookups then fail and events are skipped.
func NewLocateService(
	locations ports.LocationRepository,
	references ports.ReferenceSource,
	cache ports.CacheService,
	events ports.EventPublisher,
) *LocateService {
	return &LocateService{
		locations:    locations,
		references:   references,
		cache:        cache,
		events:       events,
		referenceTTL: defaultReferenceTTL,
		now:          time.Now,
	}
}

// WithCatalog enables "did you mean" suggestions for unknown amenities.
func (s *LocateService) WithCatalog(c ports.AmenityCatalog) *LocateService {
	s.catalog = c
	return s
}

// WithReferenceTTL sets how long resolved references are cached.
func (s *LocateService) WithReferenceTTL(ttl time.Duration) *LocateService {
	if secs := int(ttl / time.Second); secs > 0 {
		s.referenceTTL = secs
	}
	return s
}

// Locate trilaterates from explicit reference coordinates.
func (s *LocateService) Locate(ctx context.Context, req LocateRequest) (loc *domain.Location, err error) {
	start := time.Now()
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "LocateService.Locate")
	defer func() { finish(span, SourceDirect, start, err) }()

	for k, p := range req.References {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("reference %d: %w", k+1, err)
		}
	}
	unit, meters, err := normalizeDistances(req.Distances, req.Unit)
	if err != nil {
		return nil, err
	}

	loc = &domain.Location{
		References: req.References,
		Distances:  req.Distances,
		Unit:       unit,
	}
	if err := s.solveAndStore(ctx, loc, meters); err != nil {
		return nil, err
	}
	return loc, nil
}

// LocateByAmenities resolves each amenity to a reference inside the area
// and trilaterates from those references.
func (s *LocateService) LocateByAmenities(ctx context.Context, req AmenityRequest) (loc *domain.Location, err error) {
	start := time.Now()
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "LocateService.LocateByAmenities",
		trace.WithAttributes(attribute.String(telemetry.AttrArea, req.Area.Key())))
	defer func() { finish(span, SourceAmenities, start, err) }()

	req, err = ValidateAmenityRequest(req)
	if err != nil {
		return nil, err
	}

	var refs [3]domain.Reference
	for k, amenity := range req.Amenities {
		ref, err := s.ResolveReference(ctx, req.Area, amenity)
		if err != nil {
			return nil, fmt.Errorf("amenity %d: %w", k+1, err)
		}
		refs[k] = *ref
	}
	return s.locateFromReferences(ctx, refs, req.Distances, req.Unit)
}

// LocateFromReferences trilaterates from references that were resolved
// earlier, typically by workflow activities.
func (s *LocateService) LocateFromReferences(ctx context.Context, refs [3]domain.Reference, distances [3]float64, unit string) (loc *domain.Location, err error) {
	start := time.Now()
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "LocateService.LocateFromReferences")
	defer func() { finish(span, SourceWorkflow, start, err) }()

	return s.locateFromReferences(ctx, refs, distances, unit)
}

func (s *LocateService) locateFromReferences(ctx context.Context, refs [3]domain.Reference, distances [3]float64, unit string) (*domain.Location, error) {
	unit, meters, err := normalizeDistances(distances, unit)
	if err != nil {
		return nil, err
	}

	loc := &domain.Location{
		Distances: distances,
		Unit:      unit,
		Area:      refs[0].Area,
		Amenities: make([]string, 0, len(refs)),
	}
	for k, ref := range refs {
		loc.References[k] = ref.Point
		loc.Amenities = append(loc.Amenities, ref.Amenity)
	}
	if err := s.solveAndStore(ctx, loc, meters); err != nil {
		return nil, err
	}
	return loc, nil
}

// solveAndStore fills the computed fields of loc, persists it and publishes
// a located event. Publishing is best effort.
func (s *LocateService) solveAndStore(ctx context.Context, loc *domain.Location, meters [3]float64) error {
	res, err := trilateration.LocateDetailed(loc.References, meters)
	if err != nil {
		return err
	}
	loc.Result = res.Point
	loc.Origin = res.Origin
	loc.Residuals = res.Residuals
	loc.ID = uuid.NewString()
	loc.CreatedAt = s.now().UTC()

	if s.locations != nil {
		if err := s.locations.Insert(ctx, loc); err != nil {
			return fmt.Errorf("store location: %w", err)
		}
	}

	if s.events != nil {
		ev := &domain.LocatedEvent{
			LocationID: loc.ID,
			Result:     loc.Result,
			Area:       loc.Area,
			Timestamp:  loc.CreatedAt,
		}
		if err := s.events.PublishLocated(ctx, ev); err != nil {
			slog.WarnContext(ctx, "publish located event failed", "location_id", loc.ID, "error", err)
		}
	}
	return nil
}

// ResolveReference returns the mean centre of every amenity node inside the
// area. Results are cached by area and amenity.
func (s *LocateService) ResolveReference(ctx context.Context, area domain.Area, amenity string) (*domain.Reference, error) {
	area, err := normalizeArea(area)
	if err != nil {
		return nil, err
	}
	if amenity, err = normalizeAmenity(amenity); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "LocateService.ResolveReference",
		trace.WithAttributes(
			attribute.String(telemetry.AttrArea, area.Key()),
			attribute.String(telemetry.AttrAmenity, amenity),
		))
	defer span.End()

	if s.references == nil {
		return nil, fmt.Errorf("%w: no reference source configured", domain.ErrUpstream)
	}

	cacheKey := "refs:" + area.Key() + ":" + amenity
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var ref domain.Reference
			if err := json.Unmarshal(data, &ref); err == nil {
				metrics.CacheHits.WithLabelValues("reference").Inc()
				return &ref, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("reference").Inc()
	}

	points, err := s.references.FetchAmenities(ctx, area, amenity)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch %q: %w", amenity, err)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrCandidates, len(points)))

	lats := make([]float64, len(points))
	lons := make([]float64, len(points))
	for i, p := range points {
		lats[i], lons[i] = p.Lat, p.Lon
	}
	lat, lon, ok := geospatial.MeanCenter(lats, lons)
	if !ok {
		nc := &domain.NoCandidatesError{Area: area.Key(), Amenity: amenity}
		if s.catalog != nil {
			nc.Suggestion = s.catalog.Suggest(amenity)
		}
		return nil, nc
	}

	ref := &domain.Reference{
		Area:       area.Key(),
		Amenity:    amenity,
		Point:      domain.GeoPoint{Lat: lat, Lon: lon},
		Candidates: len(points),
	}

	if s.cache != nil {
		if data, err := json.Marshal(ref); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.referenceTTL)
		}
	}
	return ref, nil
}

// GetByID returns a stored location.
func (s *LocateService) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: location %q", domain.ErrNotFound, id)
	}
	return s.locations.GetByID(ctx, id)
}

// ListRecent returns the newest stored locations. limit is clamped to 1..100
// and defaults to 20.
func (s *LocateService) ListRecent(ctx context.Context, limit int) ([]domain.Location, error) {
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return s.locations.ListRecent(ctx, limit)
}

// SubmitAmenityRequest validates req and queues it for asynchronous
// processing by the worker.
func (s *LocateService) SubmitAmenityRequest(ctx context.Context, req AmenityRequest) (*domain.AmenityLocateRequest, error) {
	req, err := ValidateAmenityRequest(req)
	if err != nil {
		return nil, err
	}
	if s.events == nil {
		return nil, fmt.Errorf("%w: event publisher not configured", domain.ErrUpstream)
	}

	job := &domain.AmenityLocateRequest{
		RequestID:   uuid.NewString(),
		Area:        req.Area,
		Amenities:   req.Amenities,
		Distances:   req.Distances,
		Unit:        req.Unit,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.events.PublishAmenityRequest(ctx, job); err != nil {
		return nil, fmt.Errorf("%w: queue amenity request: %v", domain.ErrUpstream, err)
	}
	return job, nil
}

// ValidateAmenityRequest checks an amenity request and returns it with
// a normalized area, lower-cased amenity tags and a normalized unit.
func ValidateAmenityRequest(req AmenityRequest) (AmenityRequest, error) {
	area, err := normalizeArea(req.Area)
	if err != nil {
		return req, err
	}
	req.Area = area
	for k, a := range req.Amenities {
		if req.Amenities[k], err = normalizeAmenity(a); err != nil {
			return req, fmt.Errorf("amenity %d: %w", k+1, err)
		}
	}
	unit, _, err := normalizeDistances(req.Distances, req.Unit)
	if err != nil {
		return req, err
	}
	req.Unit = unit
	return req, nil
}

func normalizeArea(area domain.Area) (domain.Area, error) {
	area.Name = strings.TrimSpace(area.Name)
	if area.IsZero() {
		return area, fmt.Errorf("%w: area name or bounds required", domain.ErrInvalidArea)
	}
	if area.Name == "" {
		if err := area.Bounds.Validate(); err != nil {
			return area, fmt.Errorf("%w: %v", domain.ErrInvalidArea, err)
		}
	}
	if strings.ContainsAny(area.Name, `"\`) {
		return area, fmt.Errorf("%w: area name must not contain quotes or backslashes", domain.ErrInvalidArea)
	}
	return area, nil
}

// normalizeAmenity trims and lower-cases an OSM amenity tag. Overpass tags
// are lower case, so "Bar" and "bar" share one cache entry.
func normalizeAmenity(amenity string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(amenity))
	if a == "" {
		return "", fmt.Errorf("%w: amenity is empty", domain.ErrInvalidArea)
	}
	if strings.ContainsAny(a, `"\`) {
		return "", fmt.Errorf("%w: amenity %q must not contain quotes or backslashes", domain.ErrInvalidArea, amenity)
	}
	return a, nil
}

// IsValidationError reports whether err was caused by malformed input.
func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrInvalidCoordinates) ||
		errors.Is(err, domain.ErrInvalidDistance) ||
		errors.Is(err, domain.ErrInvalidArea) ||
		errors.Is(err, units.ErrInvalidUnit)
}

func normalizeDistances(distances [3]float64, unit string) (string, [3]float64, error) {
	var meters [3]float64
	unit = units.Normalize(unit)
	for k, d := range distances {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return unit, meters, fmt.Errorf("%w: distance %d must be a non-negative number, got %v", domain.ErrInvalidDistance, k+1, d)
		}
		m, err := units.ToMeters(d, unit)
		if err != nil {
			return unit, meters, err
		}
		meters[k] = m
	}
	return unit, meters, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domain.ErrDegenerateInput):
		return metrics.OutcomeDegenerate
	case IsValidationError(err):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func finish(span trace.Span, source string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	metrics.ObserveLocate(source, outcome(err), start)
}
