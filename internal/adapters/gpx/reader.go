// Package gpx turns GPX tracks recorded in the field into route paths.
package gpx

import (
	"fmt"
	"io"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
)

// Track is the walk found in a GPX document.
type Track struct {
	Name        string
	Description string
	Path        *domain.Path
}

// Read parses a GPX document. Track points of every segment are joined in
// document order; a file without tracks falls back to its route points.
func Read(r io.Reader) (*Track, error) {
	doc, err := gpx.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: gpx: %v", domain.ErrMalformedGeometry, err)
	}
	return fromDocument(doc)
}

// ReadBytes is Read for an in-memory document.
func ReadBytes(data []byte) (*Track, error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: gpx: %v", domain.ErrMalformedGeometry, err)
	}
	return fromDocument(doc)
}

func fromDocument(doc *gpx.GPX) (*Track, error) {
	t := &Track{Name: doc.Name, Description: doc.Description}

	var points []domain.GeoPoint
	for _, trk := range doc.Tracks {
		if t.Name == "" {
			t.Name = trk.Name
		}
		if t.Description == "" {
			t.Description = trk.Description
		}
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				points = append(points, domain.GeoPoint{Lat: pt.Latitude, Lon: pt.Longitude})
			}
		}
	}
	if len(points) == 0 {
		for _, rte := range doc.Routes {
			if t.Name == "" {
				t.Name = rte.Name
			}
			for _, pt := range rte.Points {
				points = append(points, domain.GeoPoint{Lat: pt.Latitude, Lon: pt.Longitude})
			}
		}
	}

	path, err := domain.NewPath(points...)
	if err != nil {
		return nil, err
	}
	t.Path = path
	return t, nil
}
