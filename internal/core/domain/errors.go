package domain

import "errors"

var (
	// ErrIndexOutOfRange is returned when an edit targets a point index the path does not have.
	ErrIndexOutOfRange = errors.New("point index out of range")

	// ErrInvalidPoint is returned for coordinates outside the WGS 84 range.
	ErrInvalidPoint = errors.New("invalid coordinate")

	// ErrIncompletePath is returned when saving a path with fewer than MinSavablePoints points.
	ErrIncompletePath = errors.New("path needs at least 2 points")

	// ErrMalformedGeometry is returned when persisted geometry cannot be decoded.
	ErrMalformedGeometry = errors.New("malformed geometry")

	// ErrNotFound is returned when a route does not exist.
	ErrNotFound = errors.New("route not found")

	// ErrPersistence wraps storage backend failures.
	ErrPersistence = errors.New("persistence failure")

	// ErrReadOnly is returned when a session without edit capability tries to change a route.
	ErrReadOnly = errors.New("session is read-only")

	// ErrSaveInProgress is returned when a save is attempted while another one is in flight.
	ErrSaveInProgress = errors.New("save already in progress")

	// ErrInvalidRoute is returned when route metadata fails validation.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrUnknownEvent is returned for map events the editor does not handle.
	ErrUnknownEvent = errors.New("unknown map event")

	// ErrInvalidGeohash is returned for a "near" filter that is not a geohash.
	ErrInvalidGeohash = errors.New("invalid geohash")
)
