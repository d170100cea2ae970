package geometry_test

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/geometry"
)

func mustPath(t *testing.T, pts ...domain.GeoPoint) *domain.Path {
	t.Helper()
	p, err := domain.NewPath(pts...)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	return p
}

func TestEncode_UsesLngLatOrder(t *testing.T) {
	p := mustPath(t, domain.GeoPoint{Lat: 50.93, Lon: 3.98}, domain.GeoPoint{Lat: 50.935, Lon: 3.985})

	raw, err := geometry.Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got struct {
		Type        string       `json:"type"`
		Coordinates [][2]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	if got.Type != "LineString" {
		t.Errorf("type = %q, want LineString", got.Type)
	}
	if len(got.Coordinates) != 2 || got.Coordinates[0] != [2]float64{3.98, 50.93} {
		t.Errorf("coordinates = %v, want first position [3.98 50.93]", got.Coordinates)
	}
}

func TestDecode_LineStringInvertsOrder(t *testing.T) {
	p, err := geometry.Decode([]byte(`{"type":"LineString","coordinates":[[3.98,50.93],[3.985,50.935]]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	first, _ := p.At(0)
	if first.Lat != 50.93 || first.Lon != 3.98 {
		t.Errorf("first point = %+v, want lat 50.93 lon 3.98", first)
	}
	if p.DistanceKm() <= 0 {
		t.Errorf("decoded path should have a distance, got %v", p.DistanceKm())
	}
}

func TestDecode_LegacyPairs(t *testing.T) {
	p, err := geometry.Decode([]byte(`[[50.93,3.98],[50.935,3.985]]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	first, _ := p.At(0)
	if first.Lat != 50.93 || first.Lon != 3.98 {
		t.Errorf("first point = %+v, want lat 50.93 lon 3.98", first)
	}
}

func TestDecode_FeatureWrapper(t *testing.T) {
	raw := `{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[3.98,50.93,12.5],[3.985,50.935,14]]}}`
	p, err := geometry.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", p.Len())
	}
	last, _ := p.At(1)
	if last != (domain.GeoPoint{Lat: 50.935, Lon: 3.985}) {
		t.Errorf("last point = %+v", last)
	}
}

func TestDecode_EmptyInputs(t *testing.T) {
	for _, raw := range []string{``, `null`, `  `, `[]`, `{"type":"LineString","coordinates":[]}`} {
		p, err := geometry.Decode([]byte(raw))
		if err != nil {
			t.Errorf("Decode(%q): %v", raw, err)
			continue
		}
		if p.Len() != 0 || p.DistanceKm() != 0 {
			t.Errorf("Decode(%q) = %d points", raw, p.Len())
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing element in position", `{"type":"LineString","coordinates":[[3.98],[3.985,50.935]]}`},
		{"missing element in pair", `[[50.93,3.98],[50.935]]`},
		{"too many values in pair", `[[50.93,3.98,1]]`},
		{"latitude out of range", `{"type":"LineString","coordinates":[[3.98,95]]}`},
		{"pair longitude out of range", `[[50.93,190]]`},
		{"wrong geometry type", `{"type":"Polygon","coordinates":[[[0,0],[1,1],[1,0],[0,0]]]}`},
		{"feature with a point", `{"type":"Feature","geometry":{"type":"Point","coordinates":[3.98,50.93]}}`},
		{"string coordinate", `{"type":"LineString","coordinates":[["3.98","50.93"]]}`},
		{"not json", `LINESTRING(3.98 50.93, 3.985 50.935)`},
		{"truncated", `{"type":"LineString","coordinates":[[3.98,50.93]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geometry.Decode([]byte(tt.raw))
			if !errors.Is(err, domain.ErrMalformedGeometry) {
				t.Errorf("expected ErrMalformedGeometry, got %v", err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := r.Intn(12)
		pts := make([]domain.GeoPoint, n)
		for j := range pts {
			pts[j] = domain.GeoPoint{Lat: r.Float64()*180 - 90, Lon: r.Float64()*360 - 180}
		}
		if n > 2 {
			pts[1] = pts[0] // adjacent duplicates survive too
		}
		p := mustPath(t, pts...)

		raw, err := geometry.Encode(p)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		back, err := geometry.Decode(raw)
		if err != nil {
			t.Fatalf("Decode(%s): %v", raw, err)
		}
		if !back.Equal(p) {
			t.Fatalf("linestring round trip changed the path:\n got %v\nwant %v", back.Points(), p.Points())
		}

		legacy, err := geometry.EncodePairs(p)
		if err != nil {
			t.Fatalf("EncodePairs: %v", err)
		}
		back, err = geometry.Decode(legacy)
		if err != nil {
			t.Fatalf("Decode(%s): %v", legacy, err)
		}
		if !back.Equal(p) {
			t.Fatalf("pairs round trip changed the path:\n got %v\nwant %v", back.Points(), p.Points())
		}
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		raw  string
		want geometry.Format
	}{
		{`null`, geometry.FormatEmpty},
		{` [[1,2]]`, geometry.FormatPairs},
		{`{"type":"LineString"}`, geometry.FormatLineString},
	}
	for _, tt := range tests {
		got, err := geometry.Detect([]byte(tt.raw))
		if err != nil {
			t.Errorf("Detect(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
