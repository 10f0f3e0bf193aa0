package geospatial

import "math"

// Equirectangular projects (lat, lon) onto a plane tangent at (lat0, lon0).
// x grows east and y grows north, both in meters. The cosine is taken at the
// mean latitude of the point and the origin.
func Equirectangular(lat, lon, lat0, lon0 float64) (x, y float64) {
	latR, lonR := toRad(lat), toRad(lon)
	lat0R, lon0R := toRad(lat0), toRad(lon0)

	x = EarthRadiusMeters * (lonR - lon0R) * math.Cos((latR+lat0R)/2)
	y = EarthRadiusMeters * (latR - lat0R)
	return x, y
}

// InverseEquirectangular undoes Equirectangular for the same origin.
// Latitude is recovered first so the cosine term matches the forward pass.
func InverseEquirectangular(x, y, lat0, lon0 float64) (lat, lon float64) {
	lat0R, lon0R := toRad(lat0), toRad(lon0)

	latR := y/EarthRadiusMeters + lat0R
	lonR := x/(EarthRadiusMeters*math.Cos((latR+lat0R)/2)) + lon0R
	return toDeg(latR), toDeg(lonR)
}

// MeanCenter averages latitudes and longitudes independently.
// ok is false for an empty input.
func MeanCenter(lats, lons []float64) (lat, lon float64, ok bool) {
	if len(lats) == 0 || len(lats) != len(lons) {
		return 0, 0, false
	}
	for i := range lats {
		lat += lats[i]
		lon += lons[i]
	}
	n := float64(len(lats))
	return lat / n, lon / n, true
}
