package domain

import "encoding/json"

// MapEventKind identifies an interaction reported by the map.
type MapEventKind string

const (
	PointAdded    MapEventKind = "point_added"
	PointInserted MapEventKind = "point_inserted"
	PointMoved    MapEventKind = "point_moved"
	PointRemoved  MapEventKind = "point_removed"
	ShapeCreated  MapEventKind = "shape_created"
	ShapeEdited   MapEventKind = "shape_edited"
	ShapeDeleted  MapEventKind = "shape_deleted"
)

// MapEvent is a single user interaction on the map.
// Index is used by point_inserted/moved/removed, Point by point_added/inserted/moved,
// Geometry by shape_created/edited.
type MapEvent struct {
	Kind     MapEventKind    `json:"type"`
	Index    int             `json:"index,omitempty"`
	Point    *GeoPoint       `json:"point,omitempty"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}
