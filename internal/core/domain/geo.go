package domain

import "fmt"

// GeoPoint represents a geographic coordinate in degrees (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports coordinates outside the WGS 84 ranges.
func (p GeoPoint) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrInvalidCoordinates, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrInvalidCoordinates, p.Lon)
	}
	return nil
}

// PlanarPoint is a position in meters on a local tangent plane.
// It only has meaning together with the origin that produced it.
type PlanarPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Circle is one trilateration constraint: a measured distance (meters)
// from a projected reference point.
type Circle struct {
	Center PlanarPoint `json:"center"`
	Radius float64     `json:"radius"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Validate checks corner ranges and ordering.
func (b Bounds) Validate() error {
	if err := (GeoPoint{Lat: b.MinLat, Lon: b.MinLon}).Validate(); err != nil {
		return err
	}
	if err := (GeoPoint{Lat: b.MaxLat, Lon: b.MaxLon}).Validate(); err != nil {
		return err
	}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return fmt.Errorf("%w: bounds minimum exceeds maximum", ErrInvalidCoordinates)
	}
	return nil
}

// Area selects where reference candidates are searched: a named OSM area
// (usually a city) or a bounding box. Name wins when both are set.
type Area struct {
	Name   string  `json:"name,omitempty"`
	Bounds *Bounds `json:"bounds,omitempty"`
}

// IsZero reports whether neither a name nor bounds were given.
func (a Area) IsZero() bool {
	return a.Name == "" && a.Bounds == nil
}

// Key returns a stable identifier used for cache keys and logs.
func (a Area) Key() string {
	if a.Name != "" {
		return "name:" + a.Name
	}
	if a.Bounds != nil {
		return fmt.Sprintf("bbox:%.6f,%.6f,%.6f,%.6f", a.Bounds.MinLat, a.Bounds.MinLon, a.Bounds.MaxLat, a.Bounds.MaxLon)
	}
	return ""
}
