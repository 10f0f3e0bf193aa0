// Package geospatial holds the small amount of spherical geometry pinpoint
// needs: a local planar projection, great-circle distance and averaging.
package geospatial

import "math"

// EarthRadiusMeters is the mean Earth radius used by every formula here.
const EarthRadiusMeters = 6371000.0

const degToRad = math.Pi / 180

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := toRad(lat1), toRad(lat2)
	sinHalfLat := math.Sin(toRad(lat2-lat1) / 2)
	sinHalfLon := math.Sin(toRad(lon2-lon1) / 2)

	h := sinHalfLat*sinHalfLat + math.Cos(phi1)*math.Cos(phi2)*sinHalfLon*sinHalfLon
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(h, 1)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

func toRad(deg float64) float64 { return deg * degToRad }

func toDeg(rad float64) float64 { return rad / degToRad }
