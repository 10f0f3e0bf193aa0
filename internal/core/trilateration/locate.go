package trilateration

import (
	"github.com/samirrijal/pinpoint/internal/core/domain"
	"github.com/samirrijal/pinpoint/internal/pkg/geospatial"
)

// Result carries a solved position together with the frame it was solved in.
type Result struct {
	Point  domain.GeoPoint
	Origin domain.GeoPoint
	Planar domain.PlanarPoint
	// Circles are the projected constraints, in input order.
	Circles [3]domain.Circle
	// Residuals hold the great-circle distance from Point to each reference
	// minus its measured distance, in meters.
	Residuals [3]float64
}

// Locate estimates the point at dists[k] meters from refs[k] for k = 0..2.
// Solver errors are returned unchanged.
func Locate(refs [3]domain.GeoPoint, dists [3]float64) (domain.GeoPoint, error) {
	res, err := LocateDetailed(refs, dists)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	return res.Point, nil
}

// LocateDetailed is Locate plus diagnostics.
func LocateDetailed(refs [3]domain.GeoPoint, dists [3]float64) (Result, error) {
	origin := Origin(refs)

	var circles [3]domain.Circle
	for k := range refs {
		circles[k] = domain.Circle{Center: ToPlanar(refs[k], origin), Radius: dists[k]}
	}

	planar, err := Solve(circles[0], circles[1], circles[2])
	if err != nil {
		return Result{}, err
	}
	point := ToGeo(planar, origin)

	res := Result{
		Point:   point,
		Origin:  origin,
		Planar:  planar,
		Circles: circles,
	}
	for k := range refs {
		res.Residuals[k] = geospatial.Haversine(point.Lat, point.Lon, refs[k].Lat, refs[k].Lon) - dists[k]
	}
	return res, nil
}
