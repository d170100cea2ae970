package geospatial

import "math"

const (
	earthRadiusKm = 6371.0
	tileSizePx    = 256.0
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push a past 1 for nearly antipodal points
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

// FitZoom returns the largest Web Mercator zoom level (256 px tiles) at which the box
// fits inside a widthPx x heightPx map. It may be fractional; callers floor and clamp.
func FitZoom(minLat, minLon, maxLat, maxLon float64, widthPx, heightPx int) float64 {
	lonFraction := (maxLon - minLon) / 360
	latFraction := (mercatorY(maxLat) - mercatorY(minLat)) / (2 * math.Pi)

	lonZoom := math.Inf(1)
	if lonFraction > 0 {
		lonZoom = math.Log2(float64(widthPx) / tileSizePx / lonFraction)
	}
	latZoom := math.Inf(1)
	if latFraction > 0 {
		latZoom = math.Log2(float64(heightPx) / tileSizePx / latFraction)
	}
	return math.Min(lonZoom, latZoom)
}

// mercatorY projects a latitude onto the Web Mercator y axis, in radians.
func mercatorY(lat float64) float64 {
	// clamp to the Web Mercator limit so the poles stay finite
	lat = math.Max(math.Min(lat, 85.05112878), -85.05112878)
	return math.Log(math.Tan(math.Pi/4 + toRad(lat)/2))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
