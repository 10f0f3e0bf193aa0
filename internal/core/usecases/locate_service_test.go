package usecases_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/samirrijal/pinpoint/internal/core/domain"
	"github.com/samirrijal/pinpoint/internal/core/usecases"
	"github.com/samirrijal/pinpoint/internal/pkg/units"
)

// --- Mock LocationRepository ---

type mockLocationRepo struct {
	mu         sync.Mutex
	inserted   []domain.Location
	insertFn   func(ctx context.Context, loc *domain.Location) error
	getByIDFn  func(ctx context.Context, id string) (*domain.Location, error)
	listRecent func(ctx context.Context, limit int) ([]domain.Location, error)
}

func (m *mockLocationRepo) Insert(ctx context.Context, loc *domain.Location) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, loc)
	}
	m.mu.Lock()
	m.inserted = append(m.inserted, *loc)
	m.mu.Unlock()
	return nil
}

func (m *mockLocationRepo) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockLocationRepo) ListRecent(ctx context.Context, limit int) ([]domain.Location, error) {
	if m.listRecent != nil {
		return m.listRecent(ctx, limit)
	}
	return nil, nil
}

// --- Mock ReferenceSource ---

type mockSource struct {
	calls   int
	fetchFn func(ctx context.Context, area domain.Area, amenity string) ([]domain.GeoPoint, error)
}

func (m *mockSource) FetchAmenities(ctx context.Context, area domain.Area, amenity string) ([]domain.GeoPoint, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, area, amenity)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	located   []domain.LocatedEvent
	requests  []domain.AmenityLocateRequest
	publishFn func() error
}

func (m *mockPublisher) PublishLocated(ctx context.Context, ev *domain.LocatedEvent) error {
	m.located = append(m.located, *ev)
	if m.publishFn != nil {
		return m.publishFn()
	}
	return nil
}

func (m *mockPublisher) PublishAmenityRequest(ctx context.Context, req *domain.AmenityLocateRequest) error {
	if m.publishFn != nil {
		return m.publishFn()
	}
	m.requests = append(m.requests, *req)
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type staticCatalog string

func (c staticCatalog) Suggest(string) string { return string(c) }

// --- Fixtures ---

var grazRefs = [3]domain.GeoPoint{
	{Lat: 47.0707, Lon: 15.4395},
	{Lat: 47.0782, Lon: 15.4211},
	{Lat: 47.0611, Lon: 15.4302},
}

// amenity nodes whose mean centres are grazRefs
var grazAmenities = map[string][]domain.GeoPoint{
	"bar":       {{Lat: 47.0700, Lon: 15.4390}, {Lat: 47.0714, Lon: 15.4400}},
	"cafe":      {{Lat: 47.0782, Lon: 15.4211}},
	"fast_food": {{Lat: 47.0601, Lon: 15.4302}, {Lat: 47.0621, Lon: 15.4302}, {Lat: 47.0611, Lon: 15.4302}},
}

func grazSource() *mockSource {
	return &mockSource{fetchFn: func(_ context.Context, _ domain.Area, amenity string) ([]domain.GeoPoint, error) {
		return grazAmenities[amenity], nil
	}}
}

// --- Tests ---

func TestLocateService_Locate(t *testing.T) {
	repo := &mockLocationRepo{}
	pub := &mockPublisher{}
	svc := usecases.NewLocateService(repo, nil, nil, pub)

	loc, err := svc.Locate(context.Background(), usecases.LocateRequest{
		References: grazRefs,
		Distances:  [3]float64{0.6, 1.1, 1.0},
		Unit:       "KM",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if loc.Unit != units.Kilometers {
		t.Errorf("unit = %q, want km", loc.Unit)
	}
	if loc.Distances != [3]float64{0.6, 1.1, 1.0} {
		t.Errorf("distances should be stored as given, got %v", loc.Distances)
	}
	if math.Abs(loc.Result.Lat-47.07) > 0.1 || math.Abs(loc.Result.Lon-15.43) > 0.1 {
		t.Errorf("result %v is not near Graz", loc.Result)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].ID != loc.ID {
		t.Fatalf("expected location to be stored once, got %d", len(repo.inserted))
	}
	if len(pub.located) != 1 || pub.located[0].LocationID != loc.ID {
		t.Fatalf("expected one located event, got %v", pub.located)
	}
}

func TestLocateService_Locate_Degenerate(t *testing.T) {
	repo := &mockLocationRepo{}
	svc := usecases.NewLocateService(repo, nil, nil, nil)

	same := grazRefs[0]
	_, err := svc.Locate(context.Background(), usecases.LocateRequest{
		References: [3]domain.GeoPoint{same, same, grazRefs[2]},
		Distances:  [3]float64{1, 1, 1},
	})
	if !errors.Is(err, domain.ErrDegenerateBaseline) {
		t.Fatalf("expected ErrDegenerateBaseline, got %v", err)
	}
	if usecases.IsValidationError(err) {
		t.Error("degenerate geometry must not be reported as a validation error")
	}
	if len(repo.inserted) != 0 {
		t.Error("degenerate request must not be stored")
	}
}

func TestLocateService_Locate_Validation(t *testing.T) {
	svc := usecases.NewLocateService(&mockLocationRepo{}, nil, nil, nil)

	tests := []struct {
		name string
		req  usecases.LocateRequest
		want error
	}{
		{"latitude out of range", usecases.LocateRequest{
			References: [3]domain.GeoPoint{{Lat: 91}, grazRefs[1], grazRefs[2]},
		}, domain.ErrInvalidCoordinates},
		{"longitude out of range", usecases.LocateRequest{
			References: [3]domain.GeoPoint{grazRefs[0], grazRefs[1], {Lon: -181}},
		}, domain.ErrInvalidCoordinates},
		{"negative distance", usecases.LocateRequest{
			References: grazRefs, Distances: [3]float64{1, -1, 1},
		}, domain.ErrInvalidDistance},
		{"NaN distance", usecases.LocateRequest{
			References: grazRefs, Distances: [3]float64{1, 1, math.NaN()},
		}, domain.ErrInvalidDistance},
		{"unknown unit", usecases.LocateRequest{
			References: grazRefs, Distances: [3]float64{1, 1, 1}, Unit: "furlong",
		}, units.ErrInvalidUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Locate(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !usecases.IsValidationError(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLocateService_Locate_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{publishFn: func() error { return errors.New("nats down") }}
	svc := usecases.NewLocateService(&mockLocationRepo{}, nil, nil, pub)

	if _, err := svc.Locate(context.Background(), usecases.LocateRequest{References: grazRefs, Distances: [3]float64{600, 1100, 1000}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLocateService_Locate_StoreFailure(t *testing.T) {
	repo := &mockLocationRepo{insertFn: func(context.Context, *domain.Location) error { return errors.New("db down") }}
	svc := usecases.NewLocateService(repo, nil, nil, nil)

	_, err := svc.Locate(context.Background(), usecases.LocateRequest{References: grazRefs, Distances: [3]float64{600, 1100, 1000}})
	if err == nil {
		t.Fatal("expected error when the repository fails")
	}
}

func TestLocateService_LocateByAmenities(t *testing.T) {
	repo := &mockLocationRepo{}
	src := grazSource()
	svc := usecases.NewLocateService(repo, src, newMockCache(), nil)

	loc, err := svc.LocateByAmenities(context.Background(), usecases.AmenityRequest{
		Area:      domain.Area{Name: "Graz"},
		Amenities: [3]string{" Bar", "cafe", "fast_food"},
		Distances: [3]float64{600, 1100, 1000},
		Unit:      "m",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 3 {
		t.Errorf("expected 3 fetches, got %d", src.calls)
	}
	for k, want := range grazRefs {
		got := loc.References[k]
		if math.Abs(got.Lat-want.Lat) > 1e-9 || math.Abs(got.Lon-want.Lon) > 1e-9 {
			t.Errorf("reference %d = %v, want mean centre %v", k, got, want)
		}
	}
	if loc.Area != "name:Graz" {
		t.Errorf("area = %q", loc.Area)
	}
	if len(loc.Amenities) != 3 || loc.Amenities[0] != "bar" {
		t.Errorf("amenities = %v", loc.Amenities)
	}

	direct, err := svc.Locate(context.Background(), usecases.LocateRequest{References: grazRefs, Distances: [3]float64{600, 1100, 1000}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(direct.Result.Lat-loc.Result.Lat) > 1e-9 || math.Abs(direct.Result.Lon-loc.Result.Lon) > 1e-9 {
		t.Errorf("amenity result %v differs from direct result %v", loc.Result, direct.Result)
	}
}

func TestLocateService_ResolveReference_Cached(t *testing.T) {
	src := grazSource()
	cache := newMockCache()
	svc := usecases.NewLocateService(nil, src, cache, nil).WithReferenceTTL(0)

	area := domain.Area{Name: "Graz"}
	for i := 0; i < 3; i++ {
		ref, err := svc.ResolveReference(context.Background(), area, "fast_food")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ref.Candidates != 3 {
			t.Errorf("candidates = %d, want 3", ref.Candidates)
		}
	}
	if src.calls != 1 {
		t.Errorf("expected 1 fetch with cache, got %d", src.calls)
	}
	if ttl := cache.ttls["refs:name:Graz:fast_food"]; ttl != 6*60*60 {
		t.Errorf("cache ttl = %d, want default 21600", ttl)
	}
}

func TestLocateService_ResolveReference_NormalizesInput(t *testing.T) {
	src := grazSource()
	cache := newMockCache()
	svc := usecases.NewLocateService(nil, src, cache, nil)

	for _, q := range []struct{ area, amenity string }{
		{"Graz", "fast_food"},
		{" Graz ", "Fast_Food"},
		{"Graz", " FAST_FOOD "},
	} {
		ref, err := svc.ResolveReference(context.Background(), domain.Area{Name: q.area}, q.amenity)
		if err != nil {
			t.Fatalf("%+v: unexpected error: %v", q, err)
		}
		if ref.Amenity != "fast_food" || ref.Area != "name:Graz" {
			t.Errorf("%+v: reference = %s/%s", q, ref.Area, ref.Amenity)
		}
	}
	if src.calls != 1 {
		t.Errorf("expected 1 fetch for equivalent queries, got %d", src.calls)
	}
	if _, ok := cache.ttls["refs:name:Graz:fast_food"]; !ok {
		t.Errorf("expected normalized cache key, have %v", cache.ttls)
	}
}

func TestLocateService_ResolveReference_RejectsBadInput(t *testing.T) {
	src := grazSource()
	svc := usecases.NewLocateService(nil, src, nil, nil)

	tests := []struct {
		name    string
		area    domain.Area
		amenity string
	}{
		{"empty amenity", domain.Area{Name: "Graz"}, "  "},
		{"quoted amenity", domain.Area{Name: "Graz"}, `bar"];node(1`},
		{"quoted area", domain.Area{Name: `Graz"`}, "bar"},
		{"no area", domain.Area{}, "bar"},
		{"inverted bounds", domain.Area{Bounds: &domain.Bounds{MinLat: 2, MaxLat: 1}}, "bar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ResolveReference(context.Background(), tt.area, tt.amenity)
			if !errors.Is(err, domain.ErrInvalidArea) || !usecases.IsValidationError(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
	if src.calls != 0 {
		t.Errorf("invalid input reached the source %d times", src.calls)
	}
}

func TestLocateService_ResolveReference_NoCandidates(t *testing.T) {
	svc := usecases.NewLocateService(nil, grazSource(), nil, nil).WithCatalog(staticCatalog("bar"))

	_, err := svc.ResolveReference(context.Background(), domain.Area{Name: "Graz"}, "barr")
	if !errors.Is(err, domain.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
	var nc *domain.NoCandidatesError
	if !errors.As(err, &nc) || nc.Suggestion != "bar" {
		t.Fatalf("expected suggestion bar, got %v", err)
	}
}

func TestLocateService_ResolveReference_Upstream(t *testing.T) {
	src := &mockSource{fetchFn: func(context.Context, domain.Area, string) ([]domain.GeoPoint, error) {
		return nil, domain.ErrUpstream
	}}
	svc := usecases.NewLocateService(nil, src, nil, nil)

	_, err := svc.ResolveReference(context.Background(), domain.Area{Name: "Graz"}, "bar")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestLocateService_LocateByAmenities_Validation(t *testing.T) {
	svc := usecases.NewLocateService(nil, grazSource(), nil, nil)

	tests := []struct {
		name string
		req  usecases.AmenityRequest
	}{
		{"missing area", usecases.AmenityRequest{Amenities: [3]string{"bar", "cafe", "pub"}}},
		{"empty amenity", usecases.AmenityRequest{Area: domain.Area{Name: "Graz"}, Amenities: [3]string{"bar", " ", "pub"}}},
		{"quoted area", usecases.AmenityRequest{Area: domain.Area{Name: `Graz"]`}, Amenities: [3]string{"bar", "cafe", "pub"}}},
		{"inverted bounds", usecases.AmenityRequest{
			Area:      domain.Area{Bounds: &domain.Bounds{MinLat: 48, MinLon: 15, MaxLat: 47, MaxLon: 16}},
			Amenities: [3]string{"bar", "cafe", "pub"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.LocateByAmenities(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrInvalidArea) {
				t.Fatalf("expected ErrInvalidArea, got %v", err)
			}
		})
	}
}

func TestLocateService_ListRecent_ClampLimit(t *testing.T) {
	var got []int
	repo := &mockLocationRepo{listRecent: func(_ context.Context, limit int) ([]domain.Location, error) {
		got = append(got, limit)
		return nil, nil
	}}
	svc := usecases.NewLocateService(repo, nil, nil, nil)

	for _, limit := range []int{0, -5, 10, 1000} {
		if _, err := svc.ListRecent(context.Background(), limit); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	want := []int{20, 20, 10, 100}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("limit[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLocateService_GetByID_InvalidID(t *testing.T) {
	called := false
	repo := &mockLocationRepo{getByIDFn: func(context.Context, string) (*domain.Location, error) {
		called = true
		return nil, nil
	}}
	svc := usecases.NewLocateService(repo, nil, nil, nil)

	_, err := svc.GetByID(context.Background(), "not-a-uuid")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if called {
		t.Error("repository should not be queried for a malformed id")
	}
}

func TestLocateService_SubmitAmenityRequest(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewLocateService(nil, nil, nil, pub)

	job, err := svc.SubmitAmenityRequest(context.Background(), usecases.AmenityRequest{
		Area:      domain.Area{Name: "Graz"},
		Amenities: [3]string{"bar", "cafe", "fast_food"},
		Distances: [3]float64{0.6, 1.1, 1},
		Unit:      "km",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.RequestID == "" {
		t.Error("expected request id")
	}
	if len(pub.requests) != 1 || pub.requests[0].RequestID != job.RequestID {
		t.Fatalf("expected one queued request, got %v", pub.requests)
	}
}

func TestLocateService_SubmitAmenityRequest_NoPublisher(t *testing.T) {
	svc := usecases.NewLocateService(nil, nil, nil, nil)

	_, err := svc.SubmitAmenityRequest(context.Background(), usecases.AmenityRequest{
		Area:      domain.Area{Name: "Graz"},
		Amenities: [3]string{"bar", "cafe", "fast_food"},
	})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
