package trilateration

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

// degrees; ~0.1 mm on the ground
var geoApprox = cmpopts.EquateApprox(0, 1e-9)

func planarDist(a, b domain.PlanarPoint) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// consistentDistances returns the planar distances from target to each
// reference in the frame Locate will use.
func consistentDistances(refs [3]domain.GeoPoint, target domain.GeoPoint) [3]float64 {
	origin := Origin(refs)
	t := ToPlanar(target, origin)
	var d [3]float64
	for k := range refs {
		d[k] = planarDist(t, ToPlanar(refs[k], origin))
	}
	return d
}

var graz = [3]domain.GeoPoint{
	{Lat: 47.0707, Lon: 15.4395},
	{Lat: 47.0782, Lon: 15.4211},
	{Lat: 47.0611, Lon: 15.4302},
}

func TestRoundTrip(t *testing.T) {
	origins := []domain.GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 47.0707, Lon: 15.4395},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 64.1466, Lon: -21.9426},
		{Lat: -89.5, Lon: 0},
	}
	offsets := []domain.GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 0.01, Lon: -0.02},
		{Lat: -0.3, Lon: 0.25},
		{Lat: 0.4, Lon: 0.4},
	}
	for _, o := range origins {
		for _, off := range offsets {
			p := domain.GeoPoint{Lat: o.Lat + off.Lat, Lon: o.Lon + off.Lon}
			got := ToGeo(ToPlanar(p, o), o)
			if diff := cmp.Diff(p, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("round trip p=%v o=%v (-want +got):\n%s", p, o, diff)
			}
		}
	}
}

func TestToPlanarOriginIsZero(t *testing.T) {
	p := ToPlanar(graz[0], graz[0])
	assert.Equal(t, domain.PlanarPoint{}, p)
}

func TestOriginIsArithmeticMean(t *testing.T) {
	o := Origin([3]domain.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 3}, {Lat: 3, Lon: 0}})
	assert.InDelta(t, 1.0, o.Lat, 1e-15)
	assert.InDelta(t, 1.0, o.Lon, 1e-15)
}

func TestSolveKnownTriangle(t *testing.T) {
	a := domain.PlanarPoint{X: 0, Y: 0}
	b := domain.PlanarPoint{X: 0, Y: 1000}
	c := domain.PlanarPoint{X: 1000, Y: 0}
	want := domain.PlanarPoint{X: 300, Y: 200}

	got, err := Solve(
		domain.Circle{Center: a, Radius: planarDist(a, want)},
		domain.Circle{Center: b, Radius: planarDist(b, want)},
		domain.Circle{Center: c, Radius: planarDist(c, want)},
	)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("Solve mismatch (-want +got):\n%s", diff)
	}
}

func TestLocateKnownTriangle(t *testing.T) {
	refs := [3]domain.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 0}}
	want := domain.GeoPoint{Lat: 0.3, Lon: 0.2}

	got, err := Locate(refs, consistentDistances(refs, want))
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, geoApprox); diff != "" {
		t.Errorf("Locate mismatch (-want +got):\n%s", diff)
	}
}

func TestLocateZeroDistanceReturnsReference(t *testing.T) {
	for k := range graz {
		target := graz[k]
		dists := consistentDistances(graz, target)
		assert.Zero(t, dists[k])

		got, err := Locate(graz, dists)
		require.NoError(t, err)
		if diff := cmp.Diff(target, got, geoApprox); diff != "" {
			t.Errorf("reference %d (-want +got):\n%s", k, diff)
		}
	}
}

func TestLocateSameReferenceThriceIsDegenerate(t *testing.T) {
	g := domain.GeoPoint{Lat: 43.263, Lon: -2.935}
	_, err := Locate([3]domain.GeoPoint{g, g, g}, [3]float64{0, 0, 0})
	assert.ErrorIs(t, err, domain.ErrDegenerateBaseline)
}

func TestDegenerateBaseline(t *testing.T) {
	thirds := []domain.GeoPoint{{Lat: 10, Lon: 11}, {Lat: 10, Lon: 10}, {Lat: -5, Lon: 40}}
	distances := [][3]float64{{0, 0, 0}, {1, 2, 3}, {1e6, 0, 5}}
	for _, c := range thirds {
		for _, d := range distances {
			refs := [3]domain.GeoPoint{{Lat: 10, Lon: 10}, {Lat: 10, Lon: 10}, c}
			_, err := Locate(refs, d)
			assert.ErrorIs(t, err, domain.ErrDegenerateBaseline)
			assert.ErrorIs(t, err, domain.ErrDegenerateInput)
			assert.NotErrorIs(t, err, domain.ErrDegenerateConfiguration)
		}
	}
}

func TestCollinearReferences(t *testing.T) {
	tests := []struct {
		name string
		refs [3]domain.GeoPoint
	}{
		{"along the equator", [3]domain.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}}},
		{"along a meridian", [3]domain.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}, {Lat: 2, Lon: 0}}},
		{"third point behind the first", [3]domain.GeoPoint{{Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}, {Lat: 0, Lon: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Locate(tt.refs, [3]float64{100, 200, 300})
			assert.ErrorIs(t, err, domain.ErrDegenerateConfiguration, "got point %+v", got)
			assert.ErrorIs(t, err, domain.ErrDegenerateInput)
			assert.NotErrorIs(t, err, domain.ErrDegenerateBaseline)
		})
	}
}

func TestSolveCollinearPlanar(t *testing.T) {
	_, err := Solve(
		domain.Circle{Center: domain.PlanarPoint{X: 0, Y: 0}, Radius: 1},
		domain.Circle{Center: domain.PlanarPoint{X: 0, Y: 5}, Radius: 1},
		domain.Circle{Center: domain.PlanarPoint{X: 0, Y: 10}, Radius: 1},
	)
	assert.ErrorIs(t, err, domain.ErrDegenerateConfiguration)
}

func TestLocatePermutationSymmetry(t *testing.T) {
	target := domain.GeoPoint{Lat: 47.0701, Lon: 15.4322}
	dists := consistentDistances(graz, target)

	perms := [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	var first domain.GeoPoint
	for n, p := range perms {
		refs := [3]domain.GeoPoint{graz[p[0]], graz[p[1]], graz[p[2]]}
		d := [3]float64{dists[p[0]], dists[p[1]], dists[p[2]]}

		got, err := Locate(refs, d)
		require.NoError(t, err, "permutation %v", p)
		if n == 0 {
			first = got
			continue
		}
		if diff := cmp.Diff(first, got, geoApprox); diff != "" {
			t.Errorf("permutation %v differs (-first +got):\n%s", p, diff)
		}
	}
	if diff := cmp.Diff(target, first, geoApprox); diff != "" {
		t.Errorf("target not recovered (-want +got):\n%s", diff)
	}
}

func TestInconsistentRadiiStillProduceAPoint(t *testing.T) {
	got, err := Locate(graz, [3]float64{10, 50000, 3})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got.Lat) || math.IsNaN(got.Lon))
	assert.False(t, math.IsInf(got.Lat, 0) || math.IsInf(got.Lon, 0))
}

func TestLocateDetailedResiduals(t *testing.T) {
	target := domain.GeoPoint{Lat: 47.0701, Lon: 15.4322}
	res, err := LocateDetailed(graz, consistentDistances(graz, target))
	require.NoError(t, err)

	assert.Equal(t, Origin(graz), res.Origin)
	for k, r := range res.Residuals {
		assert.InDelta(t, 0, r, 1.0, "residual %d", k)
	}
	for k := range graz {
		assert.Equal(t, ToPlanar(graz[k], res.Origin), res.Circles[k].Center)
	}
}
