package domain

import "fmt"

// MinSavablePoints is the smallest path a route can be saved with.
const MinSavablePoints = 2

// Path is the ordered point sequence of a drawn route.
// Every mutation recomputes the cached distance before returning.
type Path struct {
	points     []GeoPoint
	distanceKm float64
}

// NewPath builds a path from points, validating each one.
func NewPath(points ...GeoPoint) (*Path, error) {
	p := &Path{}
	if _, err := p.Replace(points); err != nil {
		return nil, err
	}
	return p, nil
}

// Len returns the number of points.
func (p *Path) Len() int { return len(p.points) }

// At returns the point at index i.
func (p *Path) At(i int) (GeoPoint, error) {
	if i < 0 || i >= len(p.points) {
		return GeoPoint{}, indexErr(i, len(p.points))
	}
	return p.points[i], nil
}

// Points returns a copy of the points in order.
func (p *Path) Points() []GeoPoint {
	out := make([]GeoPoint, len(p.points))
	copy(out, p.points)
	return out
}

// DistanceKm returns the ground length of the path.
func (p *Path) DistanceKm() float64 { return p.distanceKm }

// Complete reports whether the path is long enough to be saved.
func (p *Path) Complete() bool { return len(p.points) >= MinSavablePoints }

// Append adds pt at the end.
func (p *Path) Append(pt GeoPoint) (float64, error) {
	if err := pt.Validate(); err != nil {
		return p.distanceKm, err
	}
	p.points = append(p.points, pt)
	return p.recompute(), nil
}

// InsertAt inserts pt before index i; i == Len() appends.
func (p *Path) InsertAt(i int, pt GeoPoint) (float64, error) {
	if i < 0 || i > len(p.points) {
		return p.distanceKm, indexErr(i, len(p.points)+1)
	}
	if err := pt.Validate(); err != nil {
		return p.distanceKm, err
	}
	p.points = append(p.points, GeoPoint{})
	copy(p.points[i+1:], p.points[i:])
	p.points[i] = pt
	return p.recompute(), nil
}

// MoveAt replaces the point at index i.
func (p *Path) MoveAt(i int, pt GeoPoint) (float64, error) {
	if i < 0 || i >= len(p.points) {
		return p.distanceKm, indexErr(i, len(p.points))
	}
	if err := pt.Validate(); err != nil {
		return p.distanceKm, err
	}
	p.points[i] = pt
	return p.recompute(), nil
}

// RemoveAt deletes the point at index i.
func (p *Path) RemoveAt(i int) (float64, error) {
	if i < 0 || i >= len(p.points) {
		return p.distanceKm, indexErr(i, len(p.points))
	}
	p.points = append(p.points[:i], p.points[i+1:]...)
	return p.recompute(), nil
}

// Clear empties the path.
func (p *Path) Clear() float64 {
	p.points = nil
	return p.recompute()
}

// Replace swaps in a whole new point sequence. Nothing changes if any point is invalid.
func (p *Path) Replace(points []GeoPoint) (float64, error) {
	for i, pt := range points {
		if err := pt.Validate(); err != nil {
			return p.distanceKm, fmt.Errorf("point %d: %w", i, err)
		}
	}
	p.points = make([]GeoPoint, len(points))
	copy(p.points, points)
	return p.recompute(), nil
}

// Clone returns an independent copy.
func (p *Path) Clone() *Path {
	return &Path{points: p.Points(), distanceKm: p.distanceKm}
}

// Equal reports whether both paths hold the same points in the same order.
func (p *Path) Equal(other *Path) bool {
	if other == nil || len(p.points) != len(other.points) {
		return false
	}
	for i := range p.points {
		if p.points[i] != other.points[i] {
			return false
		}
	}
	return true
}

func (p *Path) recompute() float64 {
	p.distanceKm = PathDistanceKm(p.points)
	return p.distanceKm
}

func indexErr(i, limit int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, limit)
}
