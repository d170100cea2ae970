// Package viewsync derives the map viewport from a path.
package viewsync

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/pkg/geospatial"
)

const (
	DefaultZoom = 13
	MinZoom     = 1
	MaxZoom     = 18

	// PaddingRatio is the share of the path's span added on every side.
	PaddingRatio = 0.10
	// MinPaddingMeters keeps single points and tiny paths from zooming in too far.
	MinPaddingMeters = 100.0
)

// DefaultCenter is where an empty map opens.
var DefaultCenter = domain.GeoPoint{Lat: 50.9307, Lon: 3.9870}

// MapSize is the pixel size of the map the viewport must fit.
type MapSize struct {
	Width  int
	Height int
}

// DefaultMapSize is used when the client did not report its map size.
var DefaultMapSize = MapSize{Width: 800, Height: 600}

// Derive returns the viewport for points on a map of DefaultMapSize.
func Derive(points []domain.GeoPoint) domain.Viewport {
	return DeriveFor(points, DefaultMapSize)
}

// DeriveFor returns the viewport for points on a map of the given size.
func DeriveFor(points []domain.GeoPoint, size MapSize) domain.Viewport {
	if len(points) == 0 {
		return domain.Viewport{Center: DefaultCenter, Zoom: DefaultZoom}
	}
	if size.Width <= 0 || size.Height <= 0 {
		size = DefaultMapSize
	}

	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orb.Point{p.Lon, p.Lat}
	}
	b := pad(mp.Bound())

	center := b.Center()
	bounds := &domain.Bounds{
		MinLat: b.Min.Lat(),
		MinLon: b.Min.Lon(),
		MaxLat: b.Max.Lat(),
		MaxLon: b.Max.Lon(),
	}

	z := geospatial.FitZoom(bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon, size.Width, size.Height)
	return domain.Viewport{
		Center: domain.GeoPoint{Lat: center.Lat(), Lon: center.Lon()},
		Zoom:   clampZoom(z),
		Bounds: bounds,
	}
}

// pad grows b by PaddingRatio of its span, but never by less than MinPaddingMeters.
func pad(b orb.Bound) orb.Bound {
	center := b.Center()
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(center.Lat(), center.Lon(), MinPaddingMeters)
	minLatPad := (maxLat - minLat) / 2
	minLonPad := (maxLon - minLon) / 2

	latPad := math.Max((b.Max.Lat()-b.Min.Lat())*PaddingRatio, minLatPad)
	lonPad := math.Max((b.Max.Lon()-b.Min.Lon())*PaddingRatio, minLonPad)

	return orb.Bound{
		Min: orb.Point{math.Max(b.Min.Lon()-lonPad, -180), math.Max(b.Min.Lat()-latPad, -90)},
		Max: orb.Point{math.Min(b.Max.Lon()+lonPad, 180), math.Min(b.Max.Lat()+latPad, 90)},
	}
}

func clampZoom(z float64) int {
	if math.IsInf(z, 1) || z > MaxZoom {
		return MaxZoom
	}
	if math.IsNaN(z) || z < MinZoom {
		return MinZoom
	}
	return int(math.Floor(z))
}
