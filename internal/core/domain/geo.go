package domain

import (
	"fmt"
	"math"

	"github.com/samirrijal/wandelroutes/internal/pkg/geospatial"
)

// GeoPoint represents a geographic coordinate (WGS 84, decimal degrees).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports ErrInvalidPoint when the coordinate is outside the WGS 84 range.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: not a finite coordinate", ErrInvalidPoint)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidPoint, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidPoint, p.Lon)
	}
	return nil
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b GeoPoint) float64 {
	return geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// PathDistanceKm sums the consecutive-pair distances of points, in kilometers.
func PathDistanceKm(points []GeoPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	var meters float64
	for i := 1; i < len(points); i++ {
		meters += DistanceMeters(points[i-1], points[i])
	}
	return meters / 1000
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Viewport tells the map where to look.
type Viewport struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
	Bounds *Bounds  `json:"bounds,omitempty"`
}
