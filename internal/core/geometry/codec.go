// Package geometry converts paths to and from their persisted form.
//
// The canonical stored form is a GeoJSON LineString whose positions are
// [longitude, latitude]. Older records hold a flat list of [latitude, longitude]
// pairs; Decode still reads those, and EncodePairs can still produce them.
package geometry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
)

// Format identifies a persisted geometry shape.
type Format int

const (
	FormatEmpty Format = iota
	FormatLineString
	FormatPairs
)

func (f Format) String() string {
	switch f {
	case FormatLineString:
		return "linestring"
	case FormatPairs:
		return "pairs"
	default:
		return "empty"
	}
}

const (
	typeLineString = "LineString"
	typeFeature    = "Feature"
)

// Encode returns the canonical GeoJSON LineString for p.
func Encode(p *domain.Path) (json.RawMessage, error) {
	pts := p.Points()
	ls := make(orb.LineString, 0, len(pts))
	for _, pt := range pts {
		ls = append(ls, orb.Point{pt.Lon, pt.Lat})
	}
	data, err := json.Marshal(geojson.NewGeometry(ls))
	if err != nil {
		return nil, fmt.Errorf("encode linestring: %w", err)
	}
	return data, nil
}

// EncodePairs returns the legacy [[lat, lng], ...] form of p.
func EncodePairs(p *domain.Path) (json.RawMessage, error) {
	pts := p.Points()
	pairs := make([][2]float64, 0, len(pts))
	for _, pt := range pts {
		pairs = append(pairs, [2]float64{pt.Lat, pt.Lon})
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("encode pairs: %w", err)
	}
	return data, nil
}

// Detect reports which shape raw is stored in, without validating its contents.
func Detect(raw []byte) (Format, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return FormatEmpty, nil
	case trimmed[0] == '[':
		return FormatPairs, nil
	case trimmed[0] == '{':
		return FormatLineString, nil
	default:
		return FormatEmpty, malformed("expected a JSON array or object")
	}
}

// Decode parses either persisted shape into a Path.
// An empty input yields an empty path.
func Decode(raw []byte) (*domain.Path, error) {
	format, err := Detect(raw)
	if err != nil {
		return nil, err
	}

	var points []domain.GeoPoint
	switch format {
	case FormatEmpty:
		return &domain.Path{}, nil
	case FormatPairs:
		points, err = decodePairs(raw)
	case FormatLineString:
		points, err = decodeObject(raw)
	}
	if err != nil {
		return nil, err
	}

	p, err := domain.NewPath(points...)
	if err != nil {
		return nil, malformed(err.Error())
	}
	return p, nil
}

type wireObject struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    json.RawMessage `json:"geometry"`
}

func decodeObject(raw []byte) ([]domain.GeoPoint, error) {
	var obj wireObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, malformed(err.Error())
	}

	switch obj.Type {
	case typeLineString:
		return decodePositions(obj.Coordinates)
	case typeFeature:
		// drawing layers export a Feature wrapping the LineString
		var inner wireObject
		if len(obj.Geometry) == 0 || bytes.Equal(bytes.TrimSpace(obj.Geometry), []byte("null")) {
			return nil, nil
		}
		if err := json.Unmarshal(obj.Geometry, &inner); err != nil {
			return nil, malformed(err.Error())
		}
		if inner.Type != typeLineString {
			return nil, malformed(fmt.Sprintf("feature geometry type %q, want %q", inner.Type, typeLineString))
		}
		return decodePositions(inner.Coordinates)
	default:
		return nil, malformed(fmt.Sprintf("geometry type %q, want %q", obj.Type, typeLineString))
	}
}

// decodePositions reads GeoJSON [lng, lat(, alt)] positions.
func decodePositions(raw json.RawMessage) ([]domain.GeoPoint, error) {
	var coords [][]float64
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &coords); err != nil {
			return nil, malformed(err.Error())
		}
	}
	points := make([]domain.GeoPoint, 0, len(coords))
	for i, c := range coords {
		if len(c) != 2 && len(c) != 3 {
			return nil, malformed(fmt.Sprintf("position %d has %d values, want 2 or 3", i, len(c)))
		}
		points = append(points, domain.GeoPoint{Lat: c[1], Lon: c[0]})
	}
	return points, nil
}

// decodePairs reads legacy [lat, lng] pairs.
func decodePairs(raw []byte) ([]domain.GeoPoint, error) {
	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, malformed(err.Error())
	}
	points := make([]domain.GeoPoint, 0, len(pairs))
	for i, c := range pairs {
		if len(c) != 2 {
			return nil, malformed(fmt.Sprintf("pair %d has %d values, want 2", i, len(c)))
		}
		points = append(points, domain.GeoPoint{Lat: c[0], Lon: c[1]})
	}
	return points, nil
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedGeometry, reason)
}
