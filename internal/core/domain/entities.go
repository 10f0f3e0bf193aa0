package domain

import (
	"time"
)

// Reference is a single representative point for a named amenity category
// inside an area, derived by averaging the candidate nodes found there.
type Reference struct {
	Area       string   `json:"area"`
	Amenity    string   `json:"amenity"`
	Point      GeoPoint `json:"point"`
	Candidates int      `json:"candidates"`
}

// Location is a persisted trilateration result.
type Location struct {
	ID         string      `json:"id"`
	Result     GeoPoint    `json:"result"`
	Origin     GeoPoint    `json:"origin"`
	References [3]GeoPoint `json:"references"`
	// Amenities is set when references were resolved from amenity categories.
	Amenities []string   `json:"amenities,omitempty"`
	Area      string     `json:"area,omitempty"`
	Distances [3]float64 `json:"distances"`
	Unit      string     `json:"unit"`
	// Residuals are great-circle distance from Result to each reference
	// minus the measured distance, in meters.
	Residuals [3]float64 `json:"residuals"`
	CreatedAt time.Time  `json:"created_at"`
}

// LocatedEvent is published after a location has been computed.
type LocatedEvent struct {
	LocationID string    `json:"location_id"`
	Result     GeoPoint  `json:"result"`
	Area       string    `json:"area,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// AmenityLocateRequest is an asynchronous amenity based locate job.
type AmenityLocateRequest struct {
	RequestID   string     `json:"request_id"`
	Area        Area       `json:"area"`
	Amenities   [3]string  `json:"amenities"`
	Distances   [3]float64 `json:"distances"`
	Unit        string     `json:"unit"`
	SubmittedAt time.Time  `json:"submitted_at"`
}
