// Package trilateration estimates a geographic position from three
// reference points and three measured distances.
//
// References are projected onto a local equirectangular plane centred on
// their mean, the three circles are intersected in closed form, and the
// planar solution is projected back. The approximation only holds for
// references within tens of kilometres of each other and away from the
// poles and the anti-meridian.
package trilateration

import (
	"github.com/samirrijal/pinpoint/internal/core/domain"
	"github.com/samirrijal/pinpoint/internal/pkg/geospatial"
)

// ToPlanar projects p onto the tangent plane at origin.
func ToPlanar(p, origin domain.GeoPoint) domain.PlanarPoint {
	x, y := geospatial.Equirectangular(p.Lat, p.Lon, origin.Lat, origin.Lon)
	return domain.PlanarPoint{X: x, Y: y}
}

// ToGeo is the inverse of ToPlanar for the same origin.
func ToGeo(p domain.PlanarPoint, origin domain.GeoPoint) domain.GeoPoint {
	lat, lon := geospatial.InverseEquirectangular(p.X, p.Y, origin.Lat, origin.Lon)
	return domain.GeoPoint{Lat: lat, Lon: lon}
}

// Origin is the componentwise arithmetic mean of the references. It is not
// a spherical centroid.
func Origin(refs [3]domain.GeoPoint) domain.GeoPoint {
	return domain.GeoPoint{
		Lat: (refs[0].Lat + refs[1].Lat + refs[2].Lat) / 3,
		Lon: (refs[0].Lon + refs[1].Lon + refs[2].Lon) / 3,
	}
}
