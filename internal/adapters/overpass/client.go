// Package overpass resolves amenity categories to coordinates using the
// OpenStreetMap Overpass interpreter.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/samirrijal/pinpoint/internal/core/domain"
	"github.com/samirrijal/pinpoint/internal/pkg/metrics"
	"github.com/samirrijal/pinpoint/internal/pkg/telemetry"
)

const (
	DefaultURL          = "https://overpass-api.de/api/interpreter"
	DefaultRateInterval = time.Second
	DefaultBurst        = 1
	DefaultTimeout      = 60 * time.Second
	DefaultUserAgent    = "pinpoint/1.0"
)

// Config configures a Client. Zero values fall back to the defaults above.
type Config struct {
	URL          string
	UserAgent    string
	RateInterval time.Duration
	Burst        int
	Timeout      time.Duration
}

// Client queries the Overpass interpreter. Every query waits on a shared
// token bucket so concurrent callers stay within the public instance's
// usage policy.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RateInterval <= 0 {
		cfg.RateInterval = DefaultRateInterval
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		endpoint:  cfg.URL,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Every(cfg.RateInterval), cfg.Burst),
	}
}

type element struct {
	Type string   `json:"type"`
	ID   int64    `json:"id"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
}

type response struct {
	Elements []element `json:"elements"`
}

// BuildQuery renders the Overpass QL query for every node tagged
// amenity=<amenity> inside area.
func BuildQuery(area domain.Area, amenity string) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n")
	if area.Name != "" || area.Bounds == nil {
		fmt.Fprintf(&b, "area[name=%q]->.a;\n", area.Name)
		fmt.Fprintf(&b, "node[\"amenity\"=%q](area.a);\n", amenity)
	} else {
		bb := area.Bounds
		fmt.Fprintf(&b, "node[\"amenity\"=%q](%g,%g,%g,%g);\n", amenity, bb.MinLat, bb.MinLon, bb.MaxLat, bb.MaxLon)
	}
	b.WriteString("out;\n")
	return b.String()
}

// FetchAmenities returns the coordinates of every amenity node in area.
// Elements without coordinates are skipped. Transport failures and non-2xx
// responses wrap domain.ErrUpstream.
func (c *Client) FetchAmenities(ctx context.Context, area domain.Area, amenity string) ([]domain.GeoPoint, error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "overpass.FetchAmenities",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(telemetry.AttrArea, area.Key()),
			attribute.String(telemetry.AttrAmenity, amenity),
		))
	defer span.End()

	start := time.Now()
	points, err := c.fetch(ctx, BuildQuery(area, amenity))
	metrics.OverpassFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OverpassFetchErrors.Inc()
		span.RecordError(err)
		return nil, err
	}
	metrics.OverpassCandidates.Observe(float64(len(points)))
	span.SetAttributes(attribute.Int(telemetry.AttrCandidates, len(points)))
	return points, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]domain.GeoPoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: overpass rate limiter: %v", domain.ErrUpstream, err)
	}

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: overpass request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) // nolint: errcheck
		return nil, fmt.Errorf("%w: overpass has responded with %s", domain.ErrUpstream, resp.Status)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode overpass response: %v", domain.ErrUpstream, err)
	}

	points := make([]domain.GeoPoint, 0, len(body.Elements))
	for _, e := range body.Elements {
		if e.Lat == nil || e.Lon == nil {
			continue
		}
		points = append(points, domain.GeoPoint{Lat: *e.Lat, Lon: *e.Lon})
	}
	return points, nil
}
