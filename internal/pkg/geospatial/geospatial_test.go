package geospatial

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 43.263, -2.935, 43.263, -2.935, 0, 1e-9},
		{"one degree of latitude", 0, 0, 1, 0, 111194.93, 0.1},
		{"Graz to Vienna", 47.0707, 15.4395, 48.2082, 16.3738, 144500, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Haversine = %f, want %f ± %f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestEquirectangularOriginMapsToZero(t *testing.T) {
	x, y := Equirectangular(47.07, 15.44, 47.07, 15.44)
	if x != 0 || y != 0 {
		t.Errorf("origin projected to (%f, %f)", x, y)
	}
}

func TestEquirectangularAxes(t *testing.T) {
	x, y := Equirectangular(47.08, 15.44, 47.07, 15.44)
	if x != 0 || y <= 0 {
		t.Errorf("north offset projected to (%f, %f)", x, y)
	}
	x, y = Equirectangular(47.07, 15.45, 47.07, 15.44)
	if x <= 0 || y != 0 {
		t.Errorf("east offset projected to (%f, %f)", x, y)
	}
}

func TestInverseEquirectangular(t *testing.T) {
	lat0, lon0 := -33.8688, 151.2093
	points := [][2]float64{{-33.86, 151.2}, {-33.9, 151.25}, {-34.5, 150.0}, {-33.8688, 151.2093}}
	for _, p := range points {
		x, y := Equirectangular(p[0], p[1], lat0, lon0)
		lat, lon := InverseEquirectangular(x, y, lat0, lon0)
		if math.Abs(lat-p[0]) > 1e-9 || math.Abs(lon-p[1]) > 1e-9 {
			t.Errorf("round trip of %v gave (%f, %f)", p, lat, lon)
		}
	}
}

func TestMeanCenter(t *testing.T) {
	lat, lon, ok := MeanCenter([]float64{1, 2, 3}, []float64{10, 20, 30})
	if !ok || lat != 2 || lon != 20 {
		t.Errorf("MeanCenter = (%f, %f, %v)", lat, lon, ok)
	}
	if _, _, ok := MeanCenter(nil, nil); ok {
		t.Error("expected ok=false for empty input")
	}
}

func TestHaversineAntipodal(t *testing.T) {
	got := Haversine(0, 0, 0, 180)
	want := math.Pi * EarthRadiusMeters
	if math.IsNaN(got) || math.Abs(got-want) > 1e-6 {
		t.Errorf("Haversine antipodal = %f, want %f", got, want)
	}
}
