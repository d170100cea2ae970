package geospatial

import (
	"math"
	"testing"
)

func TestHaversine_KnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantMeters             float64
		tolerance              float64
	}{
		{"same point", 50.93, 3.98, 50.93, 3.98, 0, 0},
		{"short walk near Aalst", 50.930, 3.980, 50.935, 3.985, 657.2, 6.6},
		{"one degree of latitude", 0, 0, 1, 0, 111195, 10},
		{"Bilbao to Donostia", 43.263, -2.935, 43.318, -1.981, 77600, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantMeters) > tt.tolerance {
				t.Errorf("Haversine = %.1f m, want %.1f ± %.1f", got, tt.wantMeters, tt.tolerance)
			}
		})
	}
}

func TestHaversine_LongitudeShrinksWithLatitude(t *testing.T) {
	atEquator := Haversine(0, 0, 0, 1)
	atFlanders := Haversine(50.93, 0, 50.93, 1)
	if atFlanders >= atEquator {
		t.Fatalf("expected 1° of longitude at 50.93°N (%.0f m) to be shorter than at the equator (%.0f m)", atFlanders, atEquator)
	}
}

func TestHaversine_NearAntipodesStayFinite(t *testing.T) {
	maxMeters := math.Pi * earthRadiusKm * 1000
	for lat := -89.99; lat <= 89.99; lat += 0.0917 {
		for lon := -179.99; lon <= 0; lon += 0.0913 {
			got := Haversine(lat, lon, -lat, lon+180)
			if math.IsNaN(got) || got < 0 || got > maxMeters+1e-6 {
				t.Fatalf("Haversine(%v, %v, %v, %v) = %v, want within [0, %v]", lat, lon, -lat, lon+180, got, maxMeters)
			}
		}
	}

	if got := Haversine(-88.9911, -178.9821, 88.9911, 1.0179); math.Abs(got-maxMeters) > 1 {
		t.Errorf("antipodal distance = %v, want %v", got, maxMeters)
	}
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(50.93, 3.98, 100)
	if d := Haversine(50.93, 3.98, maxLat, 3.98); math.Abs(d-100) > 1 {
		t.Errorf("north edge at %.2f m, want ~100", d)
	}
	if d := Haversine(50.93, 3.98, 50.93, minLon); math.Abs(d-100) > 1 {
		t.Errorf("west edge at %.2f m, want ~100", d)
	}
	if minLat >= 50.93 || maxLon <= 3.98 {
		t.Errorf("box does not surround the point: %v %v %v %v", minLat, minLon, maxLat, maxLon)
	}
}

func TestFitZoom(t *testing.T) {
	// The whole world in one 256 px tile is zoom 0.
	if z := FitZoom(-85.05112878, -180, 85.05112878, 180, 256, 256); math.Abs(z) > 1e-6 {
		t.Errorf("world fit zoom = %v, want 0", z)
	}

	small := FitZoom(50.929, 3.979, 50.936, 3.986, 800, 600)
	large := FitZoom(50.8, 3.8, 51.1, 4.2, 800, 600)
	if small <= large {
		t.Errorf("smaller box should allow a higher zoom: small=%v large=%v", small, large)
	}

	if z := FitZoom(50.93, 3.98, 50.93, 3.98, 800, 600); !math.IsInf(z, 1) {
		t.Errorf("degenerate box should give +Inf, got %v", z)
	}
}
