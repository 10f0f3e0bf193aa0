package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Upstream
	MetricOverpassLatency = "overpass.fetch_latency"
	MetricOverpassErrors  = "overpass.fetch_errors"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricLocations        = "business.locations_computed"
	MetricDegenerateInputs = "business.degenerate_inputs"
)

// Span attribute keys.
const (
	AttrLocateSource = "pinpoint.locate.source"
	AttrArea         = "pinpoint.area"
	AttrAmenity      = "pinpoint.amenity"
	AttrCandidates   = "pinpoint.candidates"
	AttrLocationID   = "pinpoint.location.id"
)
